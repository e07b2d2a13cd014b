package stream

import (
	"testing"
)

func TestStepDecayConvergesToFloor(t *testing.T) {
	for _, v0 := range []float64{0, 1, 29.99, 30, 30.01, 120, 5000} {
		e := New(DefaultConfig())
		e.state.Velocity = v0

		for i := 0; i < 500; i++ {
			e.Step(1.0 / 60)
			if e.state.Velocity < e.cfg.MinVelocity {
				t.Fatalf("v0=%v: velocity %v dropped below floor at step %d", v0, e.state.Velocity, i)
			}
		}
		if e.state.Velocity != e.cfg.MinVelocity {
			t.Errorf("v0=%v: velocity = %v, want exactly %v", v0, e.state.Velocity, e.cfg.MinVelocity)
		}
	}
}

func TestStepFrictionIsPerFrame(t *testing.T) {
	e := New(DefaultConfig())
	e.Step(0)
	if got, want := e.state.Velocity, DefaultVelocity*DefaultFriction; got != want {
		t.Errorf("velocity after one zero-length frame = %v, want %v", got, want)
	}
}

func TestStepAdvancesPosition(t *testing.T) {
	e := New(Config{Friction: 0.5, MinVelocity: 100, DefaultVelocity: 100})
	e.SetPosition(500)

	got := e.Step(0.5)
	if got != 450 {
		t.Errorf("position = %v, want 450", got)
	}

	e.Reverse()
	got = e.Step(0.5)
	if got != 500 {
		t.Errorf("position after reverse = %v, want 500", got)
	}
}

func TestStepIgnoredWhilePausedOrDragging(t *testing.T) {
	e := New(DefaultConfig())
	e.SetPosition(10)
	e.Toggle()
	if e.Step(1) != 10 {
		t.Error("paused engine moved")
	}

	e.Toggle()
	e.DragStart(0, 10)
	if e.Step(1) != 10 {
		t.Error("dragged engine moved on its own")
	}
}

func TestDragMoveIsOneToOne(t *testing.T) {
	e := New(DefaultConfig())
	e.DragStart(100, 40)

	e.DragMove(103)
	if e.Position() != 43 {
		t.Errorf("position = %v, want 43", e.Position())
	}
	if e.PointerVelocity() != 180 {
		t.Errorf("pointer velocity = %v, want 180", e.PointerVelocity())
	}

	e.DragMove(101)
	if e.Position() != 41 {
		t.Errorf("position = %v, want 41", e.Position())
	}
	if e.PointerVelocity() != -120 {
		t.Errorf("pointer velocity = %v, want -120", e.PointerVelocity())
	}
}

func TestDragStartAdoptsRenderedPosition(t *testing.T) {
	e := New(DefaultConfig())
	e.SetPosition(123.4)
	e.DragStart(0, 120)

	s := e.State()
	if s.Position != 120 {
		t.Errorf("position = %v, want rendered 120", s.Position)
	}
	if s.Animating || !s.Dragging {
		t.Errorf("state = %+v, want dragging and not animating", s)
	}
}

func TestDragEnd(t *testing.T) {
	tests := []struct {
		name          string
		moves         []float64
		wantVelocity  float64
		wantDirection float64
	}{
		{"no movement", nil, DefaultVelocity, -1},
		{"slow drift", []float64{0.2}, DefaultVelocity, -1},
		{"fling right", []float64{5}, 300, 1},
		{"fling left", []float64{-2, -6}, 360, -1},
		{"slow finish after fast move", []float64{10, 0.1}, DefaultVelocity, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(DefaultConfig())
			e.DragStart(0, 0)
			x := 0.0
			for _, d := range tt.moves {
				x += d
				e.DragMove(x)
			}
			e.DragEnd()

			s := e.State()
			if !s.Animating || s.Dragging {
				t.Fatalf("state after release = %+v, want animating", s)
			}
			if diff := s.Velocity - tt.wantVelocity; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("velocity = %v, want %v", s.Velocity, tt.wantVelocity)
			}
			if s.Direction != tt.wantDirection {
				t.Errorf("direction = %v, want %v", s.Direction, tt.wantDirection)
			}
		})
	}
}

func TestDragEndAlwaysResumesAnimating(t *testing.T) {
	e := New(DefaultConfig())
	e.Toggle() // paused before the drag
	for i := 0; i < 20; i++ {
		e.DragStart(float64(i), e.Position())
		for j := 0; j < i%4; j++ {
			e.DragMove(float64(i + j*(i%3-1)))
		}
		e.DragEnd()
		if !e.State().Animating {
			t.Fatalf("iteration %d: not animating after DragEnd", i)
		}
	}
}

func TestWrap(t *testing.T) {
	const container, deck = 1000.0, 9200.0

	tests := []struct {
		name string
		pos  float64
		want float64
		wrap bool
	}{
		{"inside", 500, 500, false},
		{"right edge exact", container, container, false},
		{"just past right", container + 1, -deck, true},
		{"far past right", 9201, -deck, true},
		{"left edge exact", -deck, -deck, false},
		{"just past left", -deck - 1, container, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(DefaultConfig())
			e.SetPosition(tt.pos)
			if got := e.Wrap(container, deck); got != tt.wrap {
				t.Errorf("Wrap() = %v, want %v", got, tt.wrap)
			}
			if e.Position() != tt.want {
				t.Errorf("position = %v, want %v", e.Position(), tt.want)
			}
		})
	}
}

func TestWrapSkipsUnknownGeometry(t *testing.T) {
	e := New(DefaultConfig())
	e.SetPosition(-50000)
	if e.Wrap(0, 9200) {
		t.Error("Wrap with zero container width should be skipped")
	}
	if e.Position() != -50000 {
		t.Errorf("position changed to %v", e.Position())
	}
}

func TestToggleResetReverse(t *testing.T) {
	e := New(DefaultConfig())

	if e.Toggle() {
		t.Error("first toggle should pause")
	}
	if !e.Toggle() {
		t.Error("second toggle should resume")
	}

	e.state.Velocity = 77
	e.Reverse()
	if e.state.Direction != 1 || e.state.Velocity != 77 {
		t.Errorf("reverse changed state to %+v", e.state)
	}

	e.DragStart(0, 0)
	e.Reset(640)
	s := e.State()
	want := State{Position: 640, Velocity: DefaultVelocity, Direction: -1, Animating: true}
	if s != want {
		t.Errorf("after reset = %+v, want %+v", s, want)
	}
}

func TestToggleIgnoredWhileDragging(t *testing.T) {
	e := New(DefaultConfig())
	e.DragStart(0, 0)
	if e.Toggle() {
		t.Error("toggle during drag reported animating")
	}
	if !e.State().Dragging {
		t.Error("toggle ended the drag")
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	bad := []Config{
		{Friction: 0, MinVelocity: 30, DefaultVelocity: 120},
		{Friction: 1, MinVelocity: 30, DefaultVelocity: 120},
		{Friction: 0.9, MinVelocity: -1, DefaultVelocity: 120},
		{Friction: 0.9, MinVelocity: 30, DefaultVelocity: 10},
	}
	for _, c := range bad {
		if c.Validate() == nil {
			t.Errorf("Validate(%+v) = nil, want error", c)
		}
	}
}

func TestSpeed(t *testing.T) {
	e := New(DefaultConfig())
	e.state.Velocity = 114.5
	if e.Speed() != 115 {
		t.Errorf("Speed() = %d, want 115", e.Speed())
	}
}
