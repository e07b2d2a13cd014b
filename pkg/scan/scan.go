// Package scan splits each card into its plain and decoded halves where the
// stationary scan band crosses it.
//
// The band is a thin vertical strip fixed at the horizontal center of the
// container. Every frame, [Clipper.Recompute] intersects it with each slot's
// bounding box and writes two clip fractions back to the slot:
//
//   - ClipPlainRight: percent of the plain face hidden, measured from the
//     card's left edge up to where the band begins.
//   - ClipDecodedLeft: percent of the decoded text revealed, measured from
//     the card's left edge up to where the band ends.
//
// A card entirely left of the band is fully decoded (100/100), a card
// entirely right of it is fully plain (0/0). The first contact of a pass
// fires a one-shot pulse.
package scan

import (
	"time"

	"github.com/matzehuels/moto/pkg/deck"
	"github.com/matzehuels/moto/pkg/layout"
)

// Defaults for the scan band.
const (
	DefaultWidth         = 8.0
	DefaultPulseDuration = 600 * time.Millisecond
)

// Band is the horizontal extent of the scanner in viewport px.
type Band struct {
	Left, Right float64
}

// Center returns the band's midpoint.
func (b Band) Center() float64 { return (b.Left + b.Right) / 2 }

// Centered returns a band of the given width centered in the container.
func Centered(g layout.Geometry, width float64) Band {
	x := g.ContainerLeft + g.ContainerWidth/2
	return Band{Left: x - width/2, Right: x + width/2}
}

// Result summarizes one recompute pass.
type Result struct {
	Active bool  // some slot intersects the band
	Pulsed []int // indices of slots whose pulse fired this pass
}

// Clipper recomputes clip fractions. The zero value uses the default pulse
// duration.
type Clipper struct {
	PulseDuration time.Duration
}

// Recompute updates the clip state of slots against band. boxes[i] is the
// current bounding box of slots[i]; extra entries on either side are ignored.
// Calling it twice with the same inputs leaves the same clip values.
func (c *Clipper) Recompute(band Band, boxes []layout.Box, slots []*deck.Slot, now time.Time) Result {
	var res Result
	pulse := c.PulseDuration
	if pulse <= 0 {
		pulse = DefaultPulseDuration
	}

	n := min(len(boxes), len(slots))
	for i := 0; i < n; i++ {
		box, s := boxes[i], slots[i]
		width := box.Width()
		if width <= 0 {
			continue
		}

		switch {
		case box.Left < band.Right && box.Right > band.Left:
			res.Active = true
			enter := clamp(band.Left-box.Left, 0, width)
			leave := clamp(band.Right-box.Left, 0, width)
			s.ClipPlainRight = enter / width * 100
			s.ClipDecodedLeft = leave / width * 100
			if !s.HasPulsed && enter > 0 {
				s.HasPulsed = true
				s.PulseUntil = now.Add(pulse)
				res.Pulsed = append(res.Pulsed, s.Index)
			}
		case box.Right <= band.Left:
			s.ClipPlainRight, s.ClipDecodedLeft = 100, 100
			s.HasPulsed = false
		default:
			s.ClipPlainRight, s.ClipDecodedLeft = 0, 0
			s.HasPulsed = false
		}

		if !s.PulseUntil.IsZero() && !now.Before(s.PulseUntil) {
			s.PulseUntil = time.Time{}
		}
	}
	return res
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
