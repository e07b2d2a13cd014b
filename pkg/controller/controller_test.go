package controller

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/matzehuels/moto/pkg/layout"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newTest(t *testing.T, width float64, opts ...Option) *Controller {
	t.Helper()
	opts = append([]Option{WithRand(rand.New(rand.NewPCG(1, 2)))}, opts...)
	c := New(DefaultConfig(), layout.Fixed(layout.Default(width)), opts...)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func near(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func TestModeTransitions(t *testing.T) {
	c := newTest(t, 1000)
	if got := c.Mode(); got != Idle {
		t.Fatalf("Mode() before first frame = %v, want idle", got)
	}
	c.Frame(t0)
	if got := c.Mode(); got != Animating {
		t.Fatalf("Mode() after first frame = %v, want animating", got)
	}
	if c.Toggle() {
		t.Fatal("Toggle() from animating reported animating")
	}
	if got := c.Mode(); got != Paused {
		t.Fatalf("Mode() = %v, want paused", got)
	}
	if !c.PointerDown(100, 100) {
		t.Fatal("PointerDown on the deck from paused was rejected")
	}
	if got := c.Mode(); got != Dragging {
		t.Fatalf("Mode() = %v, want dragging", got)
	}
	c.PointerUp()
	if got := c.Mode(); got != Animating {
		t.Fatalf("Mode() after drag = %v, want animating", got)
	}
}

func TestFrameAdvancesPosition(t *testing.T) {
	c := newTest(t, 1000)
	s := c.Frame(t0)
	if s.Position != 0 {
		t.Fatalf("first frame moved the stream to %v", s.Position)
	}
	s = c.Frame(t0.Add(100 * time.Millisecond))
	// one frame of friction: 120 * 0.95 = 114 px/s for 0.1s, leftwards
	if !near(s.Position, -11.4) {
		t.Errorf("Position = %v, want -11.4", s.Position)
	}
	if s.Speed != 114 {
		t.Errorf("Speed = %d, want 114", s.Speed)
	}
}

func TestFrameClampsLongStalls(t *testing.T) {
	c := newTest(t, 1000)
	c.Frame(t0)
	s := c.Frame(t0.Add(time.Hour))
	if s.Position < -114*maxFrameDelta.Seconds()-1e-6 {
		t.Errorf("Position = %v after a stalled frame", s.Position)
	}
}

func TestFrameWrapsBeforeClipping(t *testing.T) {
	c := newTest(t, 1000)
	c.Reset()
	c.Reverse()
	c.Frame(t0)
	s := c.Frame(t0.Add(16 * time.Millisecond))
	if s.Position != -9200 {
		t.Fatalf("Position = %v, want -9200", s.Position)
	}
	// Clips must reflect the wrapped position: every card is now left of
	// the scanner except the last one, which sits at [-460,-60].
	for _, v := range s.Slots {
		if v.Box.Left != -9200+float64(v.Index)*460 {
			t.Fatalf("slot %d box %+v computed from a stale position", v.Index, v.Box)
		}
		if v.ClipPlainRight != 100 || v.ClipDecodedLeft != 100 {
			t.Errorf("slot %d clips = %v/%v, want fully decoded", v.Index, v.ClipPlainRight, v.ClipDecodedLeft)
		}
	}
	if s.Scanning {
		t.Error("Scanning with every card left of the band")
	}
}

func TestFrameSkipsWrapWithoutGeometry(t *testing.T) {
	c := newTest(t, 0)
	c.Reverse()
	c.Frame(t0)
	s := c.Frame(t0.Add(100 * time.Millisecond))
	if s.Position <= 0 {
		t.Errorf("Position = %v; stream should keep moving unwrapped", s.Position)
	}
}

func TestScanningSubscription(t *testing.T) {
	c := newTest(t, 1000)
	var got []bool
	unsubscribe := c.OnScanning(func(active bool) { got = append(got, active) })

	// Slot 1 spans [460,860] and covers the band at [496,504].
	s := c.Frame(t0)
	if !s.Scanning {
		t.Fatal("Scanning = false with a card under the band")
	}
	c.Frame(t0.Add(16 * time.Millisecond))
	if len(got) != 1 || !got[0] {
		t.Fatalf("scanning notifications = %v, want [true]", got)
	}

	unsubscribe()
	c.Reset()
	c.Frame(t0.Add(32 * time.Millisecond))
	if len(got) != 1 {
		t.Errorf("notified after unsubscribe: %v", got)
	}
}

func TestFrameSubscription(t *testing.T) {
	c := newTest(t, 1000)
	var frames int
	unsubscribe := c.OnFrame(func(s Snapshot) {
		frames++
		if len(s.Slots) != layout.DefaultSlotCount {
			t.Errorf("snapshot has %d slots", len(s.Slots))
		}
	})
	c.Frame(t0)
	c.Frame(t0.Add(16 * time.Millisecond))
	unsubscribe()
	c.Frame(t0.Add(32 * time.Millisecond))
	if frames != 2 {
		t.Errorf("frames = %d, want 2", frames)
	}
}

func TestDragMovesOneToOneAndFlings(t *testing.T) {
	c := newTest(t, 1000)
	c.Frame(t0)

	if !c.PointerDown(100, 100) {
		t.Fatal("PointerDown rejected")
	}
	if !c.Tracking() {
		t.Fatal("pointer not tracked during drag")
	}
	c.PointerMove(150)
	s := c.Frame(t0.Add(16 * time.Millisecond))
	if s.Position != 50 {
		t.Fatalf("Position = %v, want 50", s.Position)
	}
	if s.Mode != Dragging {
		t.Fatalf("Mode = %v, want dragging", s.Mode)
	}

	// Moves outside the card line still drag.
	c.PointerMove(-400)
	c.PointerMove(-390)
	c.PointerUp()
	if c.Tracking() {
		t.Error("pointer still tracked after PointerUp")
	}
	s = c.Frame(t0.Add(32 * time.Millisecond))
	if s.Direction != 1 {
		t.Errorf("Direction = %v, want 1 after a rightward fling", s.Direction)
	}
	if !near(s.Velocity, 570) {
		t.Errorf("Velocity = %v, want 570", s.Velocity)
	}
}

func TestPointerOutsideDeckIgnored(t *testing.T) {
	c := newTest(t, 1000)
	c.Frame(t0)
	if c.PointerDown(100, 400) {
		t.Fatal("PointerDown below the card line started a drag")
	}
	c.PointerMove(500)
	c.PointerUp()
	if got := c.Snapshot().Position; got != 0 {
		t.Errorf("Position = %v after ignored input", got)
	}
}

func TestToggleDuringDragIsIgnored(t *testing.T) {
	c := newTest(t, 1000)
	c.Frame(t0)
	c.PointerDown(100, 100)
	c.Toggle()
	if c.Mode() != Dragging {
		t.Fatalf("Mode() = %v after toggle during drag", c.Mode())
	}
	c.PointerUp()
	if c.Mode() != Animating {
		t.Errorf("Mode() = %v, want animating", c.Mode())
	}
}

func TestPausedFramesHoldPosition(t *testing.T) {
	c := newTest(t, 1000)
	c.Frame(t0)
	c.Frame(t0.Add(16 * time.Millisecond))
	c.Toggle()
	before := c.Snapshot().Position
	s := c.Frame(t0.Add(500 * time.Millisecond))
	if s.Position != before {
		t.Errorf("paused stream moved from %v to %v", before, s.Position)
	}
}

func TestResetAndReverse(t *testing.T) {
	c := newTest(t, 1000)
	c.Frame(t0)
	c.Reverse()
	if s := c.Frame(t0.Add(16 * time.Millisecond)); s.Direction != 1 {
		t.Fatalf("Direction = %v after Reverse", s.Direction)
	}
	c.PointerDown(100, 100)
	c.Reset()
	if c.Tracking() {
		t.Error("Reset kept the drag")
	}
	s := c.Frame(t0.Add(32 * time.Millisecond))
	if s.Direction != -1 || s.Mode != Animating {
		t.Errorf("after Reset: direction %v mode %v", s.Direction, s.Mode)
	}
	if !near(s.Position, 1000-114*0.016) {
		t.Errorf("Position = %v, want just left of 1000", s.Position)
	}
}

func TestDragRightAfterResetKeepsResetPosition(t *testing.T) {
	c := newTest(t, 1000)
	c.Frame(t0)
	c.Frame(t0.Add(time.Second))
	c.Reset()

	if !c.PointerDown(1100, 100) {
		t.Fatal("PointerDown rejected at the reset position")
	}
	c.PointerMove(1090)
	s := c.Frame(t0.Add(time.Second + 16*time.Millisecond))
	if !near(s.Position, 990) {
		t.Errorf("Position = %v, want 990", s.Position)
	}
}

func TestResize(t *testing.T) {
	var mu sync.Mutex
	width := 800.0
	prober := layout.ProberFunc(func() layout.Geometry {
		mu.Lock()
		defer mu.Unlock()
		return layout.Default(width)
	})
	c := New(DefaultConfig(), prober, WithRand(rand.New(rand.NewPCG(1, 2))))
	defer c.Close()

	mu.Lock()
	width = 1600
	mu.Unlock()
	if g := c.Resize(); g.ContainerWidth != 1600 {
		t.Errorf("Resize() width = %v", g.ContainerWidth)
	}
	if s := c.Frame(t0); s.Band.Center() != 800 {
		t.Errorf("band center = %v, want 800", s.Band.Center())
	}
}

func TestRegenerate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RegenProbability = 1
	c := New(cfg, layout.Fixed(layout.Default(1000)), WithRand(rand.New(rand.NewPCG(1, 2))))
	defer c.Close()
	if n := c.Regenerate(); n != layout.DefaultSlotCount {
		t.Errorf("Regenerate() = %d, want %d", n, layout.DefaultSlotCount)
	}
}

func TestStartRunsLoopAndCloseStopsIt(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FrameInterval = time.Millisecond
	cfg.RegenInterval = 2 * time.Millisecond
	c := New(cfg, layout.Fixed(layout.Default(1000)), WithRand(rand.New(rand.NewPCG(1, 2))))

	var calls atomic.Int64
	first := make(chan struct{})
	var once sync.Once
	c.OnFrame(func(Snapshot) {
		calls.Add(1)
		once.Do(func() { close(first) })
	})

	if err := c.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := c.Start(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Errorf("second Start = %v, want ErrAlreadyStarted", err)
	}

	select {
	case <-first:
	case <-time.After(2 * time.Second):
		t.Fatal("frame loop never ran")
	}

	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	n := calls.Load()
	c.Frame(time.Now())
	time.Sleep(5 * time.Millisecond)
	if calls.Load() != n {
		t.Error("subscriber called after Close returned")
	}
	if err := c.Start(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Start after Close = %v, want ErrClosed", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
}

func TestContextCancelStopsLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := New(DefaultConfig(), layout.Fixed(layout.Default(1000)), WithRand(rand.New(rand.NewPCG(1, 2))))
	if err := c.Start(ctx); err != nil {
		t.Fatal(err)
	}
	cancel()
	c.wg.Wait()
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestModeString(t *testing.T) {
	tests := map[Mode]string{Idle: "idle", Animating: "animating", Paused: "paused", Dragging: "dragging", Mode(9): "Mode(9)"}
	for m, want := range tests {
		if got := m.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", int(m), got, want)
		}
	}
}
