package render

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/gogpu/gg"

	"github.com/matzehuels/moto/pkg/particle"
)

// PNGSurface writes every particle frame to dir as frame-00000.png,
// frame-00001.png and so on. A positive limit stops writing after that many
// frames; later draws are dropped.
type PNGSurface struct {
	dir   string
	limit int

	mu     sync.Mutex
	n      int
	closed bool
}

// NewPNGSurface creates dir if needed.
func NewPNGSurface(dir string, limit int) (*PNGSurface, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create frame dir: %w", err)
	}
	return &PNGSurface{dir: dir, limit: limit}, nil
}

// Draw implements particle.Surface.
func (s *PNGSurface) Draw(points []particle.Point, view particle.View) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || (s.limit > 0 && s.n >= s.limit) {
		return nil
	}
	if view.Width <= 0 || view.Height <= 0 {
		return ErrEmptyFrame
	}

	dc := gg.NewContext(int(math.Ceil(view.Width)), int(math.Ceil(view.Height)))
	defer dc.Close()
	dc.SetHexColor(Background)
	dc.DrawRectangle(0, 0, view.Width, view.Height)
	if err := dc.Fill(); err != nil {
		return err
	}
	dots := make([]dot, 0, len(points))
	for _, p := range points {
		if !view.Visible(p.X, p.Y) {
			continue
		}
		x, y := view.Project(p.X, p.Y)
		dots = append(dots, dot{X: x, Y: y, R: p.Size, Alpha: p.Alpha})
	}
	if err := drawDots(dc, dots); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	name := filepath.Join(s.dir, fmt.Sprintf("frame-%05d.png", s.n))
	if err := os.WriteFile(name, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	s.n++
	return nil
}

// Frames returns the number of frames written.
func (s *PNGSurface) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}

// Close implements particle.Surface.
func (s *PNGSurface) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

var _ particle.Surface = (*PNGSurface)(nil)
