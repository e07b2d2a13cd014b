package render

import (
	"errors"

	"github.com/matzehuels/moto/pkg/controller"
	"github.com/matzehuels/moto/pkg/deck"
	"github.com/matzehuels/moto/pkg/particle"
)

// ErrEmptyFrame is returned for a snapshot taken before the container was
// measured.
var ErrEmptyFrame = errors.New("render: frame has no measured container")

// Margin is the space above and below the deck.
const Margin = 40.0

// Option configures rendering.
type Option func(*options)

type options struct {
	scale     float64
	particles []particle.Point
	view      particle.View
	band      bool
}

// WithScale sets the PNG pixel density (default 1).
func WithScale(s float64) Option {
	return func(o *options) { o.scale = s }
}

// WithParticles draws the particle field behind the cards. Points are
// projected with view and centered on the deck.
func WithParticles(points []particle.Point, view particle.View) Option {
	return func(o *options) {
		o.particles = points
		o.view = view
	}
}

// WithoutBand hides the scan band.
func WithoutBand() Option {
	return func(o *options) { o.band = false }
}

func newOptions(opts []Option) options {
	o := options{scale: 1, band: true}
	for _, opt := range opts {
		opt(&o)
	}
	if o.scale <= 0 {
		o.scale = 1
	}
	return o
}

type rect struct{ X, Y, W, H float64 }

func (r rect) empty() bool { return r.W <= 0 || r.H <= 0 }

type card struct {
	Index   int
	Palette Palette
	Frame   rect
	Plain   rect   // visible part of the plain face
	Decoded rect   // visible part of the decoded face
	Glyphs  []rect // word runs of the decoded text
	Pulsing bool
}

type dot struct {
	X, Y, R, Alpha float64
}

type scene struct {
	Width, Height float64
	Cards         []card
	Band          rect
	ShowBand      bool
	Scanning      bool
	Dots          []dot
}

// buildScene converts a snapshot to canvas coordinates, dropping cards
// outside the container.
func buildScene(snap controller.Snapshot, o options) (scene, error) {
	g := snap.Geometry
	if !g.Measured() {
		return scene{}, ErrEmptyFrame
	}
	sc := scene{
		Width:    g.ContainerWidth,
		Height:   g.CardHeight + 2*Margin,
		ShowBand: o.band,
		Scanning: snap.Scanning,
		Band: rect{
			X: snap.Band.Left - g.ContainerLeft,
			Y: Margin / 2,
			W: snap.Band.Right - snap.Band.Left,
			H: g.CardHeight + Margin,
		},
	}

	for _, v := range snap.Slots {
		if !v.Visible(g) {
			continue
		}
		x := v.Box.Left - g.ContainerLeft
		w := v.Box.Width()
		frame := rect{X: x, Y: Margin, W: w, H: g.CardHeight}
		plainFrom := w * v.ClipPlainRight / 100
		sc.Cards = append(sc.Cards, card{
			Index:   v.Index,
			Palette: PaletteFor(v.Image),
			Frame:   frame,
			Plain:   rect{X: x + plainFrom, Y: Margin, W: w - plainFrom, H: g.CardHeight},
			Decoded: rect{X: x, Y: Margin, W: w * v.ClipDecodedLeft / 100, H: g.CardHeight},
			Glyphs:  glyphRuns(v.Decoded, x, Margin),
			Pulsing: v.Pulsing,
		})
	}

	if len(o.particles) > 0 {
		offY := Margin + (g.CardHeight-o.view.Height)/2
		for _, p := range o.particles {
			if !o.view.Visible(p.X, p.Y) {
				continue
			}
			px, py := o.view.Project(p.X, p.Y)
			sc.Dots = append(sc.Dots, dot{X: px, Y: py + offY, R: p.Size, Alpha: p.Alpha})
		}
	}
	return sc, nil
}

// glyphRuns returns one rect per run of non-space characters.
func glyphRuns(rows []string, x0, y0 float64) []rect {
	var runs []rect
	for r, text := range rows {
		row := []rune(text)
		y := y0 + float64(r)*deck.LineHeight + 3
		start := -1
		for c := 0; c <= len(row); c++ {
			blank := c == len(row) || row[c] == ' '
			switch {
			case !blank && start < 0:
				start = c
			case blank && start >= 0:
				runs = append(runs, rect{
					X: x0 + float64(start)*deck.CharWidth,
					Y: y,
					W: float64(c-start)*deck.CharWidth - 1,
					H: deck.LineHeight - 6,
				})
				start = -1
			}
		}
	}
	return runs
}
