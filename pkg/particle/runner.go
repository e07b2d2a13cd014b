package particle

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

var (
	// ErrRunnerStarted is returned by Start on a runner that already started.
	ErrRunnerStarted = errors.New("particle: runner already started")

	// ErrRunnerClosed is returned by Start after Close.
	ErrRunnerClosed = errors.New("particle: runner closed")
)

// Surface receives rendered frames. Close releases whatever the surface
// draws into and is called exactly once by Runner.Close.
type Surface interface {
	Draw(points []Point, view View) error
	Close() error
}

// Runner drives a Field on its own ticker.
type Runner struct {
	field    *Field
	surface  Surface
	interval time.Duration
	logger   *log.Logger
	now      func() time.Time

	frames atomic.Uint64
	wg     sync.WaitGroup

	mu       sync.Mutex
	started  bool
	closed   bool
	cancel   context.CancelFunc
	closeErr error
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger used for surface errors.
func WithLogger(l *log.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) RunnerOption {
	return func(r *Runner) { r.now = now }
}

// NewRunner returns a runner that steps f every interval and draws to s.
func NewRunner(f *Field, s Surface, interval time.Duration, opts ...RunnerOption) *Runner {
	r := &Runner{
		field:    f,
		surface:  s,
		interval: interval,
		logger:   log.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.interval <= 0 {
		r.interval = 16 * time.Millisecond
	}
	return r
}

// Start launches the frame loop. It returns immediately; the loop runs until
// ctx is done or Close is called.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case r.closed:
		return ErrRunnerClosed
	case r.started:
		return ErrRunnerStarted
	}
	r.started = true
	ctx, r.cancel = context.WithCancel(ctx)
	r.wg.Add(1)
	go r.loop(ctx)
	return nil
}

// Frames returns how many frames have been drawn.
func (r *Runner) Frames() uint64 { return r.frames.Load() }

// Field returns the driven field.
func (r *Runner) Field() *Field { return r.field }

// Close stops the loop, waits for an in-flight frame to finish and disposes
// the surface. It is safe to call more than once and without Start; a
// runner cannot be started after Close.
func (r *Runner) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return r.closeErr
	}
	r.closed = true
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
	r.closeErr = r.surface.Close()
	return r.closeErr
}

func (r *Runner) loop(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	start := r.now()
	last := start
	var buf []Point
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := r.now()
			r.field.Step(now.Sub(last).Seconds(), now.Sub(start).Seconds())
			last = now

			buf = r.field.Points(buf)
			if err := r.surface.Draw(buf, r.field.View()); err != nil {
				r.logger.Debug("particle frame dropped", "error", err)
				continue
			}
			r.frames.Add(1)
		}
	}
}
