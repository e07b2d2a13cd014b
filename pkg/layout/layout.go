// Package layout measures the geometry the card stream is drawn into.
//
// A [Prober] reports the container width and the fixed card dimensions each
// frame. From a [Geometry] and the current stream position the per-slot
// bounding boxes follow directly, so nothing here reads back from a renderer.
// All values are in px in container coordinates.
package layout

// Fixed card dimensions of the stream.
const (
	DefaultCardWidth  = 400.0
	DefaultCardHeight = 250.0
	DefaultCardGap    = 60.0
	DefaultSlotCount  = 20
)

// Geometry is a snapshot of the measured layout. It is recomputed on every
// probe and never persisted.
type Geometry struct {
	ContainerLeft  float64 // left edge of the container in viewport px
	ContainerWidth float64
	DeckTop        float64 // top edge of the card band inside the container
	CardWidth      float64
	CardHeight     float64
	CardGap        float64
	SlotCount      int
}

// Pitch is the distance between the left edges of adjacent cards.
func (g Geometry) Pitch() float64 { return g.CardWidth + g.CardGap }

// DeckWidth is the length of the whole card line.
func (g Geometry) DeckWidth() float64 { return g.Pitch() * float64(g.SlotCount) }

// Measured reports whether the container has a usable width.
func (g Geometry) Measured() bool { return g.ContainerWidth > 0 }

// Box is a horizontal extent in viewport px.
type Box struct {
	Left, Right float64
}

// Width returns the box width.
func (b Box) Width() float64 { return b.Right - b.Left }

// SlotBox returns the bounding box of slot i with the card line translated
// to position.
func (g Geometry) SlotBox(position float64, i int) Box {
	left := g.ContainerLeft + position + float64(i)*g.Pitch()
	return Box{Left: left, Right: left + g.CardWidth}
}

// SlotBoxes returns the bounding boxes of every slot, reusing dst when it is
// large enough.
func (g Geometry) SlotBoxes(position float64, dst []Box) []Box {
	if cap(dst) < g.SlotCount {
		dst = make([]Box, g.SlotCount)
	}
	dst = dst[:g.SlotCount]
	for i := range dst {
		dst[i] = g.SlotBox(position, i)
	}
	return dst
}

// InDeck reports whether the container-relative point (x, y) lies on the
// card line, gaps included.
func (g Geometry) InDeck(position, x, y float64) bool {
	if y < g.DeckTop || y > g.DeckTop+g.CardHeight {
		return false
	}
	return x >= position && x <= position+g.DeckWidth()
}

// Prober measures the current layout.
type Prober interface {
	Probe() Geometry
}

// ProberFunc adapts a function to a Prober.
type ProberFunc func() Geometry

// Probe calls f.
func (f ProberFunc) Probe() Geometry { return f() }

// Fixed is a Prober that always reports the same geometry.
type Fixed Geometry

// Probe returns the fixed geometry.
func (f Fixed) Probe() Geometry { return Geometry(f) }

// Default returns the standard card geometry for a container of the given
// width.
func Default(containerWidth float64) Geometry {
	return Geometry{
		ContainerWidth: containerWidth,
		CardWidth:      DefaultCardWidth,
		CardHeight:     DefaultCardHeight,
		CardGap:        DefaultCardGap,
		SlotCount:      DefaultSlotCount,
	}
}
