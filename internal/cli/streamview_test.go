package cli

import (
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/moto/pkg/controller"
	"github.com/matzehuels/moto/pkg/layout"
)

func newTestController(t *testing.T, prober layout.Prober) *controller.Controller {
	t.Helper()
	ctl := controller.New(controller.DefaultConfig(), prober,
		controller.WithRand(rand.New(rand.NewPCG(1, 2))))
	t.Cleanup(func() { ctl.Close() })
	return ctl
}

func TestTermProber(t *testing.T) {
	p := newTermProber(layout.Default(0), 3, 100)
	g := p.Probe()
	if g.ContainerWidth != 100*cellW {
		t.Errorf("ContainerWidth = %v, want %v", g.ContainerWidth, 100*cellW)
	}
	if g.DeckTop != 3*cellH {
		t.Errorf("DeckTop = %v, want %v", g.DeckTop, 3*cellH)
	}

	p.Resize(-5)
	if g := p.Probe(); g.ContainerWidth != 0 {
		t.Errorf("negative resize: ContainerWidth = %v, want 0", g.ContainerWidth)
	}
}

func TestPointer(t *testing.T) {
	x, y := pointer(0, 2)
	if x != 0.5*cellW || y != 2.5*cellH {
		t.Errorf("pointer(0, 2) = (%v, %v)", x, y)
	}
}

func TestCanvas(t *testing.T) {
	cv := newCanvas(3, 2)
	cv.set(1, 0, cell{r: 'x'})
	cv.set(5, 5, cell{r: 'y'}) // out of range is ignored

	if cv.blank(1, 0) {
		t.Error("cell (1,0) should not be blank")
	}
	if !cv.blank(0, 1) {
		t.Error("cell (0,1) should be blank")
	}
	if cv.blank(-1, 0) {
		t.Error("out of range cells are never blank")
	}
	if got, want := cv.String(), " x \n   "; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestBandColor(t *testing.T) {
	if got := bandColor(-1); got != bandShades[0] {
		t.Errorf("bandColor(-1) = %v, want %v", got, bandShades[0])
	}
	if got := bandColor(5); got != bandShades[len(bandShades)-1] {
		t.Errorf("bandColor(5) = %v, want last shade", got)
	}
}

func TestScanGlowEasesToTarget(t *testing.T) {
	g := newScanGlow(60)
	var pos float64
	for i := 0; i < 120; i++ {
		pos = g.step(true)
	}
	if pos < glowActive-0.01 || pos > glowActive+0.01 {
		t.Errorf("glow after 2s scanning = %v, want ~%v", pos, glowActive)
	}
	for i := 0; i < 120; i++ {
		pos = g.step(false)
	}
	if pos < glowIdle-0.01 || pos > glowIdle+0.01 {
		t.Errorf("glow after 2s idle = %v, want ~%v", pos, glowIdle)
	}
}

func TestDrawStreamUnmeasured(t *testing.T) {
	cv := drawStream(streamFrame{}, 10)
	for r := range cv.cells {
		for c := range cv.cells[r] {
			if !cv.blank(c, r) {
				t.Fatalf("unmeasured frame drew at (%d,%d)", c, r)
			}
		}
	}
}

func TestDrawStreamBand(t *testing.T) {
	const cols = 100
	ctl := newTestController(t, layout.Fixed(layout.Default(cols*cellW)))
	snap := ctl.Frame(time.Unix(0, 0))

	cv := drawStream(streamFrame{Snap: snap, Glow: glowIdle}, cols)
	rows := cardRows(snap.Geometry)
	if len(cv.cells) != rows+2 {
		t.Fatalf("rows = %d, want %d", len(cv.cells), rows+2)
	}
	col := int(snap.Band.Center() / cellW)
	for r := 0; r < rows+2; r++ {
		if cv.cells[r][col].r != '┃' {
			t.Fatalf("row %d col %d = %q, want scan line", r, col, cv.cells[r][col].r)
		}
	}

	drawn := 0
	for _, row := range cv.cells[1 : rows+1] {
		for _, c := range row {
			if c.r != ' ' && c.r != '┃' {
				drawn++
			}
		}
	}
	if drawn == 0 {
		t.Error("no card cells drawn")
	}
}

func TestStreamModelKeys(t *testing.T) {
	prober := newTermProber(layout.Default(0), streamHeaderRows+1, 0)
	ctl := newTestController(t, prober)
	m := newStreamModel(&streamSession{ctl: ctl, prober: prober}, 16*time.Millisecond)

	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = next.(streamModel)
	if g := ctl.Geometry(); g.ContainerWidth != 120*cellW {
		t.Fatalf("resize: ContainerWidth = %v, want %v", g.ContainerWidth, 120*cellW)
	}

	snap := ctl.Frame(time.Unix(0, 0))
	next, _ = m.Update(frameMsg(snap))
	m = next.(streamModel)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	m = next.(streamModel)
	if got := ctl.Mode(); got != controller.Paused {
		t.Errorf("mode after space = %v, want %v", got, controller.Paused)
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("q should quit the standalone stream")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not return tea.Quit")
	}

	m.embedded = true
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}); cmd != nil {
		t.Error("q should not quit an embedded stream")
	}
}

func TestStreamModelHeader(t *testing.T) {
	m := streamModel{snap: controller.Snapshot{Mode: controller.Animating, Speed: 120, Scanning: true}}
	h := m.header()
	for _, want := range []string{"MOTO.AI", "120 px/s", "SCANNING"} {
		if !strings.Contains(h, want) {
			t.Errorf("header %q missing %q", h, want)
		}
	}
}

func TestDecodedCellIndexesRunes(t *testing.T) {
	v := controller.SlotView{Decoded: []string{"é•x"}}
	for i, want := range []rune{'é', '•', 'x', ' '} {
		if got := decodedCell(v, 0, i).r; got != want {
			t.Errorf("decodedCell(0, %d) = %q, want %q", i, got, want)
		}
	}
	if got := decodedCell(v, 3, 0).r; got != ' ' {
		t.Errorf("missing row = %q, want blank", got)
	}
}
