package controller

import (
	"time"

	"github.com/matzehuels/moto/pkg/layout"
	"github.com/matzehuels/moto/pkg/scan"
)

// Snapshot is the render state of one frame. It shares nothing mutable with
// the controller.
type Snapshot struct {
	Time      time.Time
	Mode      Mode
	Position  float64
	Velocity  float64
	Direction float64
	Speed     int // rounded velocity in px/s
	Geometry  layout.Geometry
	Band      scan.Band
	Scanning  bool
	Slots     []SlotView
}

// SlotView is one card as drawn.
type SlotView struct {
	Index           int
	Image           int
	Box             layout.Box
	Decoded         []string
	ClipPlainRight  float64
	ClipDecodedLeft float64
	Pulsing         bool
}

// Visible reports whether the card overlaps the container.
func (v SlotView) Visible(g layout.Geometry) bool {
	return v.Box.Right > g.ContainerLeft && v.Box.Left < g.ContainerLeft+g.ContainerWidth
}

func (c *Controller) snapshotLocked(now time.Time, band scan.Band, scanning bool) Snapshot {
	st := c.engine.State()
	slots := c.deck.Slots()
	views := make([]SlotView, len(slots))
	for i, s := range slots {
		var box layout.Box
		if i < len(c.boxes) {
			box = c.boxes[i]
		}
		views[i] = SlotView{
			Index:           s.Index,
			Image:           s.Image,
			Box:             box,
			Decoded:         s.Decoded,
			ClipPlainRight:  s.ClipPlainRight,
			ClipDecodedLeft: s.ClipDecodedLeft,
			Pulsing:         s.Pulsing(now),
		}
	}
	return Snapshot{
		Time:      now,
		Mode:      c.modeLocked(),
		Position:  st.Position,
		Velocity:  st.Velocity,
		Direction: st.Direction,
		Speed:     c.engine.Speed(),
		Geometry:  c.geom,
		Band:      band,
		Scanning:  scanning,
		Slots:     views,
	}
}
