// Package pkg provides the libraries behind moto, the MOTO.AI card stream,
// client dashboard and conversion audit.
//
// # Overview
//
// The pkg directory is organized into three areas:
//
//  1. Card stream: [stream], [deck], [layout], [scan], [controller],
//     [particle] and [render]
//  2. Accounts and dashboard: [records], [session] and [dashboard]
//  3. Audit and infrastructure: [audit], [cache], [config], [errors],
//     [httputil], [observability] and [buildinfo]
//
// # Architecture
//
// One frame of the card stream flows through the packages like this:
//
//	layout.Prober (measure container)
//	         ↓
//	stream.Engine (step physics, wrap)
//	         ↓
//	scan.Clipper (clip cards at the band, pulse, decode)
//	         ↓
//	controller.Snapshot
//	         ↓
//	terminal canvas, PNG or SVG
//
// The controller drives this loop on a ticker and publishes every snapshot
// to subscribers; the CLI forwards them into a bubbletea program and the
// API server serves the latest one.
//
// # Quick Start
//
// Render one frame of a seeded stream:
//
//	import (
//	    "math/rand/v2"
//	    "time"
//
//	    "github.com/matzehuels/moto/pkg/controller"
//	    "github.com/matzehuels/moto/pkg/layout"
//	    "github.com/matzehuels/moto/pkg/render"
//	)
//
//	ctl := controller.New(controller.DefaultConfig(),
//	    layout.Fixed(layout.Default(1200)),
//	    controller.WithRand(rand.New(rand.NewPCG(1, 2))))
//	defer ctl.Close()
//
//	t0 := time.Now()
//	ctl.Frame(t0)
//	snap := ctl.Frame(t0.Add(time.Second))
//	png, err := render.RenderPNG(snap)
//
// Sign a user in and load their dashboard:
//
//	recs, _ := records.Open(ctx, "sqlite:///tmp/moto.db")
//	mgr := session.NewManager(recs, session.NewMemoryStore())
//	sess, err := mgr.SignIn(ctx, "ada@example.com", "hunter22")
//	view, err := dashboard.New(recs, nil).Load(ctx, sess.UserID())
//	metrics := dashboard.MetricsFor(view.Form())
//
// [stream]: https://pkg.go.dev/github.com/matzehuels/moto/pkg/stream
// [deck]: https://pkg.go.dev/github.com/matzehuels/moto/pkg/deck
// [layout]: https://pkg.go.dev/github.com/matzehuels/moto/pkg/layout
// [scan]: https://pkg.go.dev/github.com/matzehuels/moto/pkg/scan
// [controller]: https://pkg.go.dev/github.com/matzehuels/moto/pkg/controller
// [particle]: https://pkg.go.dev/github.com/matzehuels/moto/pkg/particle
// [render]: https://pkg.go.dev/github.com/matzehuels/moto/pkg/render
// [records]: https://pkg.go.dev/github.com/matzehuels/moto/pkg/records
// [session]: https://pkg.go.dev/github.com/matzehuels/moto/pkg/session
// [dashboard]: https://pkg.go.dev/github.com/matzehuels/moto/pkg/dashboard
// [audit]: https://pkg.go.dev/github.com/matzehuels/moto/pkg/audit
// [cache]: https://pkg.go.dev/github.com/matzehuels/moto/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/moto/pkg/config
// [errors]: https://pkg.go.dev/github.com/matzehuels/moto/pkg/errors
// [httputil]: https://pkg.go.dev/github.com/matzehuels/moto/pkg/httputil
// [observability]: https://pkg.go.dev/github.com/matzehuels/moto/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/moto/pkg/buildinfo
package pkg
