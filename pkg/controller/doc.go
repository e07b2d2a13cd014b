// Package controller runs the card stream.
//
// A [Controller] owns the physics engine, the deck and the scan clipper and
// advances them in a fixed order every frame: probe the layout, step the
// physics, apply wraparound, recompute clips. The result is published as an
// immutable [Snapshot] to subscribers; the controller never draws anything
// itself.
//
// Input comes in as plain method calls ([Controller.PointerDown],
// [Controller.PointerMove], [Controller.PointerUp], [Controller.Toggle], ...)
// that may arrive from any goroutine. A single mutex serializes them with
// the frame tick.
//
// # Lifecycle
//
//	c := controller.New(controller.DefaultConfig(), layout.Fixed(layout.Default(1200)))
//	if err := c.Start(ctx); err != nil { ... }
//	unsubscribe := c.OnFrame(func(s controller.Snapshot) { ... })
//	defer c.Close()
//
// Start registers exactly one frame loop. Close cancels it and waits, so no
// subscriber runs after Close returns. Frame may also be called directly to
// drive the controller without a loop, which is how snapshots and tests use
// it.
package controller
