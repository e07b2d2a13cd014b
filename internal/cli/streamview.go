package cli

import (
	"math"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/moto/pkg/controller"
	"github.com/matzehuels/moto/pkg/deck"
	"github.com/matzehuels/moto/pkg/layout"
	"github.com/matzehuels/moto/pkg/particle"
	"github.com/matzehuels/moto/pkg/render"
)

// One terminal cell stands for one decoded character, so decoded rows map
// onto the grid without resampling.
const (
	cellW = deck.CharWidth
	cellH = deck.LineHeight
)

// =============================================================================
// Terminal Prober
// =============================================================================

// termProber measures the stream from the terminal size. Resize is called
// from the bubbletea loop while Probe runs on the controller's goroutine.
type termProber struct {
	base layout.Geometry
	top  int // terminal row of the first card row
	cols atomic.Int64
}

func newTermProber(base layout.Geometry, top, cols int) *termProber {
	p := &termProber{base: base, top: top}
	p.cols.Store(int64(cols))
	return p
}

// Resize records the terminal width in columns.
func (p *termProber) Resize(cols int) { p.cols.Store(int64(max(cols, 0))) }

// Probe implements layout.Prober.
func (p *termProber) Probe() layout.Geometry {
	g := p.base
	g.ContainerLeft = 0
	g.ContainerWidth = float64(p.cols.Load()) * cellW
	g.DeckTop = float64(p.top) * cellH
	return g
}

// pointer converts a terminal cell to container px, aiming at the cell
// center.
func pointer(x, y int) (float64, float64) {
	return (float64(x) + 0.5) * cellW, (float64(y) + 0.5) * cellH
}

// =============================================================================
// Particle Surface
// =============================================================================

// termSurface keeps the latest particle frame for the next repaint.
type termSurface struct {
	mu     sync.Mutex
	points []particle.Point
	view   particle.View
	closed bool
}

func (s *termSurface) Draw(points []particle.Point, view particle.View) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.points = append(s.points[:0], points...)
	s.view = view
	return nil
}

func (s *termSurface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.points = nil
	return nil
}

// frame copies the latest particles.
func (s *termSurface) frame() ([]particle.Point, particle.View) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]particle.Point(nil), s.points...), s.view
}

// =============================================================================
// Scan Glow
// =============================================================================

// Glow levels the scan line eases toward.
const (
	glowIdle   = 0.3
	glowActive = 1.0
)

// scanGlow eases the scan line brightness with a critically damped spring.
type scanGlow struct {
	spring harmonica.Spring
	pos    float64
	vel    float64
}

func newScanGlow(fps int) scanGlow {
	return scanGlow{spring: harmonica.NewSpring(harmonica.FPS(fps), 6.0, 1.0), pos: glowIdle}
}

func (g *scanGlow) step(scanning bool) float64 {
	target := glowIdle
	if scanning {
		target = glowActive
	}
	g.pos, g.vel = g.spring.Update(g.pos, g.vel, target)
	return g.pos
}

var bandShades = []lipgloss.Color{"238", "97", "141", lipgloss.Color(render.BandColor)}

func bandColor(glow float64) lipgloss.Color {
	i := int(math.Round(glow * float64(len(bandShades)-1)))
	return bandShades[min(max(i, 0), len(bandShades)-1)]
}

// =============================================================================
// Canvas
// =============================================================================

type cell struct {
	r    rune
	fg   lipgloss.Color
	bold bool
}

// canvas is a grid of styled cells.
type canvas struct {
	cols  int
	cells [][]cell
}

func newCanvas(cols, rows int) *canvas {
	c := &canvas{cols: max(cols, 0), cells: make([][]cell, max(rows, 0))}
	for i := range c.cells {
		row := make([]cell, c.cols)
		for j := range row {
			row[j] = cell{r: ' '}
		}
		c.cells[i] = row
	}
	return c
}

func (c *canvas) set(col, row int, v cell) {
	if row < 0 || row >= len(c.cells) || col < 0 || col >= c.cols {
		return
	}
	c.cells[row][col] = v
}

func (c *canvas) blank(col, row int) bool {
	if row < 0 || row >= len(c.cells) || col < 0 || col >= c.cols {
		return false
	}
	return c.cells[row][col].r == ' '
}

// String renders the canvas, styling runs of equal cells together.
func (c *canvas) String() string {
	var b strings.Builder
	for i, row := range c.cells {
		if i > 0 {
			b.WriteByte('\n')
		}
		for j := 0; j < len(row); {
			k := j
			var run strings.Builder
			for k < len(row) && row[k].fg == row[j].fg && row[k].bold == row[j].bold {
				run.WriteRune(row[k].r)
				k++
			}
			if row[j].fg == "" {
				b.WriteString(run.String())
			} else {
				b.WriteString(lipgloss.NewStyle().Foreground(row[j].fg).Bold(row[j].bold).Render(run.String()))
			}
			j = k
		}
	}
	return b.String()
}

// =============================================================================
// Stream Frame
// =============================================================================

// streamFrame is everything one repaint of the card line needs.
type streamFrame struct {
	Snap      controller.Snapshot
	Particles []particle.Point
	View      particle.View
	Glow      float64
}

// cardRows is the card height in terminal rows.
func cardRows(g layout.Geometry) int {
	return max(int(g.CardHeight/cellH), 1)
}

// drawStream paints the card line: one row of overhang above and below the
// cards for the scan line, cards in between, particles in the gaps.
func drawStream(f streamFrame, cols int) *canvas {
	g := f.Snap.Geometry
	rows := cardRows(g)
	cv := newCanvas(cols, rows+2)
	if !g.Measured() {
		return cv
	}

	for _, v := range f.Snap.Slots {
		if v.Visible(g) {
			drawCard(cv, v, g, rows)
		}
	}
	drawParticles(cv, f, rows)

	bandCol := int((f.Snap.Band.Center() - g.ContainerLeft) / cellW)
	color := bandColor(f.Glow)
	for r := 0; r < rows+2; r++ {
		cv.set(bandCol, r, cell{r: '┃', fg: color, bold: f.Snap.Scanning})
	}
	return cv
}

func drawCard(cv *canvas, v controller.SlotView, g layout.Geometry, rows int) {
	pal := render.PaletteFor(v.Image)
	w := v.Box.Width()
	if w <= 0 {
		return
	}
	first := int(math.Floor((v.Box.Left - g.ContainerLeft) / cellW))
	last := int(math.Ceil((v.Box.Right-g.ContainerLeft)/cellW)) - 1

	for col := max(first, 0); col <= min(last, cv.cols-1); col++ {
		local := float64(col)*cellW + g.ContainerLeft - v.Box.Left
		pct := local / w * 100
		for r := 0; r < rows; r++ {
			corner := (col == first || col == last) && (r == 0 || r == rows-1)
			if corner {
				continue
			}
			switch {
			case pct < v.ClipDecodedLeft:
				cv.set(col, r+1, decodedCell(v, r, int(local/deck.CharWidth)))
			case pct >= v.ClipPlainRight:
				cv.set(col, r+1, plainCell(pal, col-first, last-first, r, rows))
			}
		}
	}
}

func decodedCell(v controller.SlotView, row, idx int) cell {
	ch := ' '
	if row < len(v.Decoded) && idx >= 0 {
		if line := []rune(v.Decoded[row]); idx < len(line) {
			ch = line[idx]
		}
	}
	if v.Pulsing {
		return cell{r: ch, fg: lipgloss.Color(render.PulseColor), bold: true}
	}
	return cell{r: ch, fg: lipgloss.Color(render.DecodedInk)}
}

// plainCell draws a gradient face with three accent stripes near the
// bottom, longest first.
func plainCell(pal render.Palette, col, width, row, rows int) cell {
	for i := 1; i <= 3; i++ {
		if row == rows-1-i && col >= 2 && col < 2+width*(4-i)/6 {
			return cell{r: '▬', fg: lipgloss.Color(pal.Accent)}
		}
	}
	if row*2 < rows {
		return cell{r: '█', fg: lipgloss.Color(pal.Top)}
	}
	return cell{r: '█', fg: lipgloss.Color(pal.Bottom)}
}

func drawParticles(cv *canvas, f streamFrame, rows int) {
	if f.View.Width <= 0 {
		return
	}
	// The field is centered on the card rows.
	offY := (float64(rows)*cellH - f.View.Height) / 2
	for _, p := range f.Particles {
		if !f.View.Visible(p.X, p.Y) {
			continue
		}
		x, y := f.View.Project(p.X, p.Y)
		col, row := int(x/cellW), int((y+offY)/cellH)+1
		if !cv.blank(col, row) {
			continue
		}
		ch, fg := '·', colorDim
		switch {
		case p.Alpha > 0.66:
			ch, fg = '•', lipgloss.Color(render.ParticleInk)
		case p.Alpha > 0.33:
			fg = colorGray
		}
		cv.set(col, row, cell{r: ch, fg: fg})
	}
}
