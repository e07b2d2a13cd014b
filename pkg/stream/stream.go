package stream

import (
	"fmt"
	"math"
)

// Default tuning, matching the feel of the landing page stream.
const (
	DefaultFriction    = 0.95
	DefaultMinVelocity = 30.0
	DefaultVelocity    = 120.0

	// SampleRate converts a per-event pointer delta into px/s. Pointer events
	// are assumed to arrive at roughly display refresh rate.
	SampleRate = 60.0
)

// Config tunes an Engine.
type Config struct {
	Friction        float64 // per-frame velocity multiplier in (0,1)
	MinVelocity     float64 // px/s floor while coasting
	DefaultVelocity float64 // px/s cruise speed after reset or a slow release
}

// DefaultConfig returns the standard stream tuning.
func DefaultConfig() Config {
	return Config{
		Friction:        DefaultFriction,
		MinVelocity:     DefaultMinVelocity,
		DefaultVelocity: DefaultVelocity,
	}
}

// Validate reports whether the configuration can drive an Engine.
func (c Config) Validate() error {
	if c.Friction <= 0 || c.Friction >= 1 {
		return fmt.Errorf("friction must be in (0,1), got %v", c.Friction)
	}
	if c.MinVelocity < 0 {
		return fmt.Errorf("min velocity must be non-negative, got %v", c.MinVelocity)
	}
	if c.DefaultVelocity < c.MinVelocity {
		return fmt.Errorf("default velocity %v below min velocity %v", c.DefaultVelocity, c.MinVelocity)
	}
	return nil
}

// State is the complete physical state of the stream.
type State struct {
	Position  float64 // px offset of the card line from the container's left edge
	Velocity  float64 // px/s, always non-negative; Direction carries the sign
	Direction float64 // -1 scrolls left, +1 scrolls right
	Animating bool
	Dragging  bool
}

// Engine advances a State. It is not safe for concurrent use; the
// controller serializes access.
type Engine struct {
	cfg   Config
	state State

	lastPointerX    float64
	pointerVelocity float64
}

// New returns an Engine at rest at position 0, animating at the default
// velocity towards the left.
func New(cfg Config) *Engine {
	return &Engine{
		cfg: cfg,
		state: State{
			Velocity:  cfg.DefaultVelocity,
			Direction: -1,
			Animating: true,
		},
	}
}

// Config returns the engine's tuning.
func (e *Engine) Config() Config { return e.cfg }

// State returns a copy of the current state.
func (e *Engine) State() State { return e.state }

// Position returns the current offset.
func (e *Engine) Position() float64 { return e.state.Position }

// SetPosition moves the stream without touching velocity.
func (e *Engine) SetPosition(p float64) { e.state.Position = p }

// Step advances the stream by dt seconds and returns the new position.
// It does nothing while paused or dragging.
func (e *Engine) Step(dt float64) float64 {
	s := &e.state
	if !s.Animating || s.Dragging {
		return s.Position
	}
	s.Velocity = e.decay(s.Velocity)
	s.Position += s.Velocity * s.Direction * dt
	return s.Position
}

// decay applies one frame of friction, floored at MinVelocity.
func (e *Engine) decay(v float64) float64 {
	if v > e.cfg.MinVelocity {
		v *= e.cfg.Friction
	}
	return math.Max(v, e.cfg.MinVelocity)
}

// DragStart takes hold of the stream at pointer x. rendered is the position
// currently on screen and becomes authoritative, discarding any drift between
// the physics state and what the user is grabbing.
func (e *Engine) DragStart(x, rendered float64) {
	e.state.Dragging = true
	e.state.Animating = false
	e.state.Position = rendered
	e.lastPointerX = x
	e.pointerVelocity = 0
}

// DragMove moves the stream by the pointer delta and records the velocity
// estimate for a later fling. Calls outside a drag are ignored.
func (e *Engine) DragMove(x float64) {
	if !e.state.Dragging {
		return
	}
	delta := x - e.lastPointerX
	e.state.Position += delta
	e.pointerVelocity = delta * SampleRate
	e.lastPointerX = x
}

// DragEnd releases the stream. A fast release flings it in the direction of
// the last movement; anything slower resumes the cruise speed. The stream is
// always animating afterwards.
func (e *Engine) DragEnd() {
	if !e.state.Dragging {
		return
	}
	e.state.Dragging = false
	if math.Abs(e.pointerVelocity) > e.cfg.MinVelocity {
		e.state.Velocity = math.Abs(e.pointerVelocity)
		if e.pointerVelocity > 0 {
			e.state.Direction = 1
		} else {
			e.state.Direction = -1
		}
	} else {
		e.state.Velocity = e.cfg.DefaultVelocity
	}
	e.state.Animating = true
}

// PointerVelocity returns the last drag velocity estimate in px/s.
func (e *Engine) PointerVelocity() float64 { return e.pointerVelocity }

// Wrap teleports the stream to the far side once it has left the container.
// A zero container width means geometry is not known yet; wrapping is skipped
// and retried on a later frame. Reports whether a teleport happened.
func (e *Engine) Wrap(containerWidth, deckWidth float64) bool {
	if containerWidth <= 0 || deckWidth <= 0 {
		return false
	}
	switch {
	case e.state.Position < -deckWidth:
		e.state.Position = containerWidth
	case e.state.Position > containerWidth:
		e.state.Position = -deckWidth
	default:
		return false
	}
	return true
}

// Toggle flips between animating and paused and returns the new animating
// flag. It has no effect while dragging.
func (e *Engine) Toggle() bool {
	if e.state.Dragging {
		return e.state.Animating
	}
	e.state.Animating = !e.state.Animating
	return e.state.Animating
}

// Reset parks the stream just off the right edge of the container and
// restores the default motion.
func (e *Engine) Reset(containerWidth float64) {
	e.state = State{
		Position:  containerWidth,
		Velocity:  e.cfg.DefaultVelocity,
		Direction: -1,
		Animating: true,
	}
	e.pointerVelocity = 0
}

// Reverse flips the scroll direction, keeping the speed.
func (e *Engine) Reverse() {
	e.state.Direction = -e.state.Direction
}

// Speed returns the velocity rounded to whole px/s, as shown in the HUD.
func (e *Engine) Speed() int {
	return int(math.Round(e.state.Velocity))
}
