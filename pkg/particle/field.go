package particle

import (
	"fmt"
	"math"
	"sync"
)

// Field defaults.
const (
	DefaultCount     = 400
	DefaultBound     = 2000.0
	DefaultHeight    = 250.0
	DefaultAmplitude = 0.5
	DefaultMinSpeed  = 30.0
	DefaultMaxSpeed  = 90.0
	DefaultAlphaStep = 0.05
	PhaseStep        = 0.1
)

// Rand is the randomness source for spawning and flicker.
type Rand interface {
	Float64() float64
}

// Config tunes a Field.
type Config struct {
	Count     int
	Bound     float64 // points wrap at ±Bound on x
	Height    float64 // vertical extent of the field
	Amplitude float64 // sine bob amplitude in px
	MinSpeed  float64
	MaxSpeed  float64
	AlphaStep float64
}

// DefaultConfig returns the standard field tuning.
func DefaultConfig() Config {
	return Config{
		Count:     DefaultCount,
		Bound:     DefaultBound,
		Height:    DefaultHeight,
		Amplitude: DefaultAmplitude,
		MinSpeed:  DefaultMinSpeed,
		MaxSpeed:  DefaultMaxSpeed,
		AlphaStep: DefaultAlphaStep,
	}
}

// Validate reports whether c can build a field.
func (c Config) Validate() error {
	switch {
	case c.Count < 0:
		return fmt.Errorf("particle count must be non-negative, got %d", c.Count)
	case c.Bound <= 0:
		return fmt.Errorf("particle bound must be positive, got %v", c.Bound)
	case c.Height <= 0:
		return fmt.Errorf("particle height must be positive, got %v", c.Height)
	case c.MaxSpeed < c.MinSpeed:
		return fmt.Errorf("particle max speed %v below min speed %v", c.MaxSpeed, c.MinSpeed)
	}
	return nil
}

// Point is one particle in field coordinates: x in [-Bound, Bound], y
// centered on 0 with up positive.
type Point struct {
	X, Y  float64
	BaseY float64
	Phase float64
	VX    float64
	Alpha float64
	Size  float64
}

// View maps field coordinates to a surface of Width × Height px.
type View struct {
	Width, Height float64
}

// Project converts a field position to surface px. The view shows x in
// [-Width/2, Width/2] and y in [-Height/2, Height/2].
func (v View) Project(x, y float64) (float64, float64) {
	return x + v.Width/2, v.Height/2 - y
}

// Visible reports whether the projected point lands on the surface.
func (v View) Visible(x, y float64) bool {
	px, py := v.Project(x, y)
	return px >= 0 && px <= v.Width && py >= 0 && py <= v.Height
}

// Field is a fixed-size set of points. Methods are safe for concurrent use.
type Field struct {
	mu     sync.Mutex
	cfg    Config
	rnd    Rand
	points []Point
	view   View
}

// NewField spawns cfg.Count points spread over twice the view width.
func NewField(cfg Config, width float64, rnd Rand) *Field {
	f := &Field{
		cfg:    cfg,
		rnd:    rnd,
		points: make([]Point, max(cfg.Count, 0)),
		view:   View{Width: width, Height: cfg.Height},
	}
	for i := range f.points {
		y := (rnd.Float64() - 0.5) * cfg.Height
		f.points[i] = Point{
			X:     (rnd.Float64() - 0.5) * width * 2,
			Y:     y,
			BaseY: y,
			Phase: float64(i) * PhaseStep,
			VX:    cfg.MinSpeed + rnd.Float64()*(cfg.MaxSpeed-cfg.MinSpeed),
			Alpha: rnd.Float64(),
			Size:  (rnd.Float64()*140 + 60) / 8,
		}
	}
	return f
}

// Len returns the number of points.
func (f *Field) Len() int { return len(f.points) }

// Step advances every point by dt seconds at elapsed seconds of field time.
func (f *Field) Step(dt, elapsed float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	bound := f.cfg.Bound
	for i := range f.points {
		p := &f.points[i]
		p.X += p.VX * dt
		if p.X > bound {
			p.X = -bound
		} else if p.X < -bound {
			p.X = bound
		}
		p.Y = p.BaseY + f.cfg.Amplitude*math.Sin(elapsed+p.Phase)

		if f.rnd.Float64() > 0.5 {
			p.Alpha += f.cfg.AlphaStep
		} else {
			p.Alpha -= f.cfg.AlphaStep
		}
		p.Alpha = max(0, min(1, p.Alpha))
	}
}

// Resize changes the projection width. Point state is untouched.
func (f *Field) Resize(width float64) {
	f.mu.Lock()
	f.view.Width = width
	f.mu.Unlock()
}

// View returns the current projection.
func (f *Field) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.view
}

// Points copies the current points into dst, reusing it when large enough.
func (f *Field) Points(dst []Point) []Point {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append(dst[:0], f.points...)
}
