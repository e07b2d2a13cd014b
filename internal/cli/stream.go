package cli

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/moto/pkg/controller"
	"github.com/matzehuels/moto/pkg/particle"
)

// streamHeaderRows is the number of terminal rows above the card line: the
// title and a spacer.
const streamHeaderRows = 2

type streamOptions struct {
	seed      uint64
	particles bool
}

func (c *CLI) streamCommand() *cobra.Command {
	var opts streamOptions
	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Run the scanning card stream in the terminal",
		Long: `Run the card stream full screen. Cards drift right to left through the
scan line, which decodes them as they pass.

Keys: space play/pause, r reset, d reverse direction, q quit.
Drag the card line with the mouse; release to fling.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runStream(cmd.Context(), opts)
		},
	}
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "seed for decoded text (0 = random)")
	cmd.Flags().BoolVar(&opts.particles, "particles", true, "draw the particle field")
	return cmd
}

// =============================================================================
// Stream Session
// =============================================================================

// streamSession owns a running controller and particle runner and forwards
// their frames into a bubbletea program.
type streamSession struct {
	ctl     *controller.Controller
	prober  *termProber
	runner  *particle.Runner
	surface *termSurface
	stops   []func()
}

func (c *CLI) newStreamSession(seed uint64, particles bool, top int) *streamSession {
	cfg := c.config()
	if seed == 0 {
		seed = rand.Uint64()
	}
	prober := newTermProber(cfg.Geometry(0), top, 0)
	s := &streamSession{ctl: c.newController(prober, seed), prober: prober}
	if particles && cfg.Particles.Enabled {
		s.surface = &termSurface{}
		field := particle.NewField(cfg.Particle(), defaultWidth, rand.New(rand.NewPCG(seed, seed+1)))
		s.runner = particle.NewRunner(field, s.surface, cfg.Particles.Interval.Duration, particle.WithLogger(c.Logger))
	}
	return s
}

// start begins the frame loops; send receives every frame and scan change.
func (s *streamSession) start(ctx context.Context, send func(tea.Msg)) error {
	s.stops = append(s.stops,
		s.ctl.OnFrame(func(snap controller.Snapshot) { send(frameMsg(snap)) }),
		s.ctl.OnScanning(func(active bool) { send(scanMsg(active)) }),
	)
	if err := s.ctl.Start(ctx); err != nil {
		return err
	}
	if s.runner != nil {
		return s.runner.Start(ctx)
	}
	return nil
}

// close stops both loops. No message is sent after it returns.
func (s *streamSession) close() error {
	for _, stop := range s.stops {
		stop()
	}
	err := s.ctl.Close()
	if s.runner != nil {
		if rerr := s.runner.Close(); err == nil {
			err = rerr
		}
	}
	return err
}

func (c *CLI) runStream(ctx context.Context, opts streamOptions) error {
	sess := c.newStreamSession(opts.seed, opts.particles, streamHeaderRows+1)
	m := newStreamModel(sess, c.config().Stream.FrameInterval.Duration)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	if err := sess.start(ctx, p.Send); err != nil {
		return err
	}
	_, err := p.Run()
	if cerr := sess.close(); err == nil {
		err = cerr
	}
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// =============================================================================
// Stream Model
// =============================================================================

type (
	frameMsg controller.Snapshot
	scanMsg  bool
)

// streamModel shows the card line with a status header. It is embedded by
// the app's dashboard as the live traffic monitor.
type streamModel struct {
	sess     *streamSession
	snap     controller.Snapshot
	glow     scanGlow
	glowPos  float64
	width    int
	height   int
	dragging bool
	embedded bool // no quit keys, no help footer
}

func newStreamModel(sess *streamSession, frameInterval time.Duration) streamModel {
	fps := 60
	if frameInterval > 0 {
		fps = max(int(time.Second/frameInterval), 1)
	}
	return streamModel{sess: sess, glow: newScanGlow(fps), glowPos: glowIdle}
}

func (m streamModel) Init() tea.Cmd { return nil }

func (m streamModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.sess.prober.Resize(msg.Width)
		m.sess.ctl.Resize()
		if m.sess.runner != nil {
			m.sess.runner.Field().Resize(float64(msg.Width) * cellW)
		}

	case frameMsg:
		m.snap = controller.Snapshot(msg)
		m.glowPos = m.glow.step(m.snap.Scanning)

	case scanMsg:
		m.snap.Scanning = bool(msg)

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if !m.embedded || msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
		case " ":
			m.sess.ctl.Toggle()
		case "r":
			m.sess.ctl.Reset()
		case "d":
			m.sess.ctl.Reverse()
		}

	case tea.MouseMsg:
		m.handleMouse(msg)
	}
	return m, nil
}

// handleMouse routes a left-button drag to the controller. Terminal rows
// are offset by the rows above the stream.
func (m *streamModel) handleMouse(msg tea.MouseMsg) {
	x, y := pointer(msg.X, msg.Y)
	switch {
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		m.dragging = m.sess.ctl.PointerDown(x, y)
	case msg.Action == tea.MouseActionMotion && m.dragging:
		m.sess.ctl.PointerMove(x)
	case msg.Action == tea.MouseActionRelease && m.dragging:
		m.sess.ctl.PointerUp()
		m.dragging = false
	}
}

var (
	streamBrandStyle = lipgloss.NewStyle().Bold(true).Foreground(colorPurple)
	streamScanStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorGreen)
)

func (m streamModel) header() string {
	mode := m.snap.Mode.String()
	switch m.snap.Mode {
	case controller.Animating:
		mode = "▶ " + mode
	case controller.Paused:
		mode = "❚❚ " + mode
	case controller.Dragging:
		mode = "✥ " + mode
	}
	dir := "←"
	if m.snap.Direction > 0 {
		dir = "→"
	}
	parts := []string{
		streamBrandStyle.Render("MOTO.AI"),
		StyleDim.Render("live traffic"),
		StyleNumber.Render(fmt.Sprintf("%d px/s", m.snap.Speed)) + " " + StyleDim.Render(dir),
		StyleValue.Render(mode),
	}
	if m.snap.Scanning {
		parts = append(parts, streamScanStyle.Render("● SCANNING"))
	}
	return strings.Join(parts, StyleDim.Render("  ·  "))
}

func (m streamModel) frame() streamFrame {
	f := streamFrame{Snap: m.snap, Glow: m.glowPos}
	if m.sess.surface != nil {
		f.Particles, f.View = m.sess.surface.frame()
	}
	return f
}

func (m streamModel) View() string {
	if m.width == 0 {
		return "measuring terminal..."
	}
	var b strings.Builder
	b.WriteString(m.header())
	b.WriteString("\n\n")
	b.WriteString(drawStream(m.frame(), m.width).String())
	if !m.embedded {
		b.WriteString("\n\n")
		b.WriteString(StyleDim.Render("space play/pause · r reset · d direction · drag to scrub · q quit"))
	}
	return b.String()
}
