package deck

import (
	"strings"
	"time"
)

// Regeneration defaults.
const (
	DefaultRegenInterval    = 200 * time.Millisecond
	DefaultRegenProbability = 0.15

	// ImageCount is the number of distinct plain card faces.
	ImageCount = 5
)

// Slot is one card position in the deck.
type Slot struct {
	Index int
	Image int // plain card face, Index % ImageCount

	Decoded []string // decoded text rows; replaced wholesale, never mutated in place

	// Clip fractions in percent of the card width, both measured from the
	// card's left edge. Plain is hidden left of ClipPlainRight; decoded is
	// revealed left of ClipDecodedLeft.
	ClipPlainRight  float64
	ClipDecodedLeft float64

	HasPulsed  bool
	PulseUntil time.Time // zero when no pulse is showing
}

// DecodedText returns the decoded rows joined by newlines.
func (s *Slot) DecodedText() string {
	return strings.Join(s.Decoded, "\n")
}

// Pulsing reports whether the slot's scan pulse is visible at now.
func (s *Slot) Pulsing(now time.Time) bool {
	return !s.PulseUntil.IsZero() && now.Before(s.PulseUntil)
}

// Deck is a fixed-size ordered sequence of slots.
type Deck struct {
	slots       []*Slot
	grid        Grid
	gen         *Generator
	rnd         Rand
	probability float64
}

// Option configures a Deck.
type Option func(*Deck)

// WithProbability sets the per-tick regeneration chance of each slot.
func WithProbability(p float64) Option {
	return func(d *Deck) { d.probability = p }
}

// WithGenerator replaces the decoded text generator.
func WithGenerator(g *Generator) Option {
	return func(d *Deck) { d.gen = g }
}

// New creates count slots with freshly generated decoded text.
func New(count int, grid Grid, rnd Rand, opts ...Option) *Deck {
	d := &Deck{
		grid:        grid,
		rnd:         rnd,
		probability: DefaultRegenProbability,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.gen == nil {
		d.gen = NewGenerator(rnd)
	}
	d.slots = make([]*Slot, max(count, 0))
	for i := range d.slots {
		d.slots[i] = &Slot{
			Index:   i,
			Image:   i % ImageCount,
			Decoded: d.gen.Generate(grid),
		}
	}
	return d
}

// Len returns the number of slots.
func (d *Deck) Len() int { return len(d.slots) }

// Slots returns the slots in deck order. The slice is shared.
func (d *Deck) Slots() []*Slot { return d.slots }

// Slot returns slot i.
func (d *Deck) Slot(i int) *Slot { return d.slots[i] }

// Grid returns the character grid of every slot.
func (d *Deck) Grid() Grid { return d.grid }

// Regenerate replaces the decoded text of slot s.
func (d *Deck) Regenerate(s *Slot) {
	s.Decoded = d.gen.Generate(d.grid)
}

// Tick gives every slot an independent chance of regeneration and returns
// how many were regenerated.
func (d *Deck) Tick() int {
	n := 0
	for _, s := range d.slots {
		if d.rnd.Float64() < d.probability {
			d.Regenerate(s)
			n++
		}
	}
	return n
}
