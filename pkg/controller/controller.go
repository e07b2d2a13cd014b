package controller

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/moto/pkg/deck"
	"github.com/matzehuels/moto/pkg/layout"
	"github.com/matzehuels/moto/pkg/observability"
	"github.com/matzehuels/moto/pkg/scan"
	"github.com/matzehuels/moto/pkg/stream"
)

var (
	// ErrAlreadyStarted is returned by Start when the frame loop is running.
	ErrAlreadyStarted = errors.New("controller: already started")

	// ErrClosed is returned by Start after Close.
	ErrClosed = errors.New("controller: closed")
)

// Mode is the controller's input state.
type Mode int

const (
	Idle Mode = iota
	Animating
	Paused
	Dragging
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Animating:
		return "animating"
	case Paused:
		return "paused"
	case Dragging:
		return "dragging"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// maxFrameDelta bounds the physics step after a stalled frame so a suspended
// process does not jump the stream across several wraps at once.
const maxFrameDelta = 250 * time.Millisecond

// Config tunes a Controller.
type Config struct {
	Stream           stream.Config
	ScannerWidth     float64
	PulseDuration    time.Duration
	FrameInterval    time.Duration
	RegenInterval    time.Duration
	RegenProbability float64
}

// DefaultConfig returns the standard stream setup at about 60 frames per
// second.
func DefaultConfig() Config {
	return Config{
		Stream:           stream.DefaultConfig(),
		ScannerWidth:     scan.DefaultWidth,
		PulseDuration:    scan.DefaultPulseDuration,
		FrameInterval:    16 * time.Millisecond,
		RegenInterval:    deck.DefaultRegenInterval,
		RegenProbability: deck.DefaultRegenProbability,
	}
}

// Validate reports whether c can drive a controller.
func (c Config) Validate() error {
	if err := c.Stream.Validate(); err != nil {
		return err
	}
	switch {
	case c.ScannerWidth <= 0:
		return fmt.Errorf("scanner width must be positive, got %v", c.ScannerWidth)
	case c.FrameInterval <= 0:
		return fmt.Errorf("frame interval must be positive, got %v", c.FrameInterval)
	case c.RegenInterval <= 0:
		return fmt.Errorf("regeneration interval must be positive, got %v", c.RegenInterval)
	case c.RegenProbability < 0 || c.RegenProbability > 1:
		return fmt.Errorf("regeneration probability must be in [0,1], got %v", c.RegenProbability)
	}
	return nil
}

// Option configures a Controller.
type Option func(*Controller)

// WithRand sets the randomness source for decoded content.
func WithRand(r deck.Rand) Option {
	return func(c *Controller) { c.rnd = r }
}

// WithLogger sets the controller's logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithClock replaces time.Now for the frame loop.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// Controller orchestrates one card stream.
type Controller struct {
	cfg    Config
	prober layout.Prober
	rnd    deck.Rand
	logger *log.Logger
	now    func() time.Time

	mu          sync.Mutex
	engine      *stream.Engine
	deck        *deck.Deck
	clipper     scan.Clipper
	geom        layout.Geometry
	boxes       []layout.Box
	initialized bool
	tracking    bool // pointer routed globally during a drag
	lastFrame   time.Time
	scanning    bool
	last        Snapshot

	subMu    sync.Mutex
	nextSub  int
	frameSub map[int]func(Snapshot)
	scanSub  map[int]func(bool)

	lifeMu  sync.Mutex
	started bool
	closed  bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New probes the layout once and builds the deck to match it. The controller
// is Idle until the first frame.
func New(cfg Config, prober layout.Prober, opts ...Option) *Controller {
	c := &Controller{
		cfg:      cfg,
		prober:   prober,
		logger:   log.Default(),
		now:      time.Now,
		frameSub: make(map[int]func(Snapshot)),
		scanSub:  make(map[int]func(bool)),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rnd == nil {
		c.rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	c.geom = prober.Probe()
	c.engine = stream.New(cfg.Stream)
	c.deck = deck.New(c.geom.SlotCount, deck.GridFor(c.geom.CardWidth, c.geom.CardHeight), c.rnd,
		deck.WithProbability(cfg.RegenProbability))
	c.clipper = scan.Clipper{PulseDuration: cfg.PulseDuration}
	return c
}

// Start registers the frame loop and the regeneration timer. They run until
// ctx is done or Close is called.
func (c *Controller) Start(ctx context.Context) error {
	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.started {
		return ErrAlreadyStarted
	}
	c.started = true

	ctx, c.cancel = context.WithCancel(ctx)
	c.wg.Add(1)
	go c.loop(ctx)
	c.logger.Debug("stream started", "slots", c.deck.Len(), "container", c.geom.ContainerWidth)
	return nil
}

// Close cancels the frame loop and the regeneration timer and waits for an
// in-flight frame to finish. No subscriber is called after Close returns.
// It must not be called from a subscriber.
func (c *Controller) Close() error {
	c.lifeMu.Lock()
	if c.closed {
		c.lifeMu.Unlock()
		return nil
	}
	c.closed = true
	cancel := c.cancel
	c.lifeMu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()

	c.subMu.Lock()
	clear(c.frameSub)
	clear(c.scanSub)
	c.subMu.Unlock()

	c.mu.Lock()
	c.tracking = false
	c.mu.Unlock()
	c.logger.Debug("stream closed")
	return nil
}

func (c *Controller) isClosed() bool {
	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()
	return c.closed
}

func (c *Controller) loop(ctx context.Context) {
	defer c.wg.Done()

	frames := time.NewTicker(c.cfg.FrameInterval)
	defer frames.Stop()
	regen := time.NewTicker(c.cfg.RegenInterval)
	defer regen.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-frames.C:
			c.Frame(c.now())
		case <-regen.C:
			c.Regenerate()
		}
	}
}

// Frame runs one frame at now: probe, physics step, wraparound, clip
// recompute. It returns the published snapshot.
func (c *Controller) Frame(now time.Time) Snapshot {
	if c.isClosed() {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.last
	}

	begin := time.Now()
	hooks := observability.Stream()

	c.mu.Lock()
	c.geom = c.prober.Probe()

	// The first frame only measures; physics starts on the second.
	if c.initialized {
		dt := min(max(now.Sub(c.lastFrame), 0), maxFrameDelta)
		c.engine.Step(dt.Seconds())
	}
	c.initialized = true
	c.lastFrame = now

	wrapped := c.engine.Wrap(c.geom.ContainerWidth, c.geom.DeckWidth())
	pos := c.engine.Position()

	c.boxes = c.geom.SlotBoxes(pos, c.boxes)
	band := scan.Centered(c.geom, c.cfg.ScannerWidth)
	res := c.clipper.Recompute(band, c.boxes, c.deck.Slots(), now)

	snap := c.snapshotLocked(now, band, res.Active)
	scanChanged := res.Active != c.scanning
	c.scanning = res.Active
	c.last = snap
	c.mu.Unlock()

	if wrapped {
		hooks.OnWrap(pos)
	}
	for _, i := range res.Pulsed {
		hooks.OnPulse(i)
	}
	hooks.OnFrame(time.Since(begin), res.Active)

	c.publish(snap, scanChanged)
	return snap
}

func (c *Controller) publish(snap Snapshot, scanChanged bool) {
	c.subMu.Lock()
	frames := make([]func(Snapshot), 0, len(c.frameSub))
	for _, fn := range c.frameSub {
		frames = append(frames, fn)
	}
	var scans []func(bool)
	if scanChanged {
		for _, fn := range c.scanSub {
			scans = append(scans, fn)
		}
	}
	c.subMu.Unlock()

	for _, fn := range scans {
		fn(snap.Scanning)
	}
	for _, fn := range frames {
		fn(snap)
	}
}

// Regenerate gives every slot its chance of fresh decoded content and
// returns how many were refreshed.
func (c *Controller) Regenerate() int {
	c.mu.Lock()
	n := c.deck.Tick()
	c.mu.Unlock()
	observability.Stream().OnRegenerate(n)
	return n
}

// OnFrame subscribes fn to every published snapshot. The returned function
// unsubscribes.
func (c *Controller) OnFrame(fn func(Snapshot)) (unsubscribe func()) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.frameSub[id] = fn
	return func() {
		c.subMu.Lock()
		delete(c.frameSub, id)
		c.subMu.Unlock()
	}
}

// OnScanning subscribes fn to changes of the aggregate scanning flag. The
// returned function unsubscribes.
func (c *Controller) OnScanning(fn func(active bool)) (unsubscribe func()) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.scanSub[id] = fn
	return func() {
		c.subMu.Lock()
		delete(c.scanSub, id)
		c.subMu.Unlock()
	}
}

// Snapshot returns the last published snapshot.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Mode returns the current input state.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.modeLocked()
}

func (c *Controller) modeLocked() Mode {
	st := c.engine.State()
	switch {
	case !c.initialized:
		return Idle
	case st.Dragging:
		return Dragging
	case st.Animating:
		return Animating
	default:
		return Paused
	}
}

// Geometry returns the most recent layout probe.
func (c *Controller) Geometry() layout.Geometry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.geom
}
