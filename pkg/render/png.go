package render

import (
	"bytes"
	"fmt"
	"math"

	"github.com/gogpu/gg"

	"github.com/matzehuels/moto/pkg/controller"
)

// RenderPNG rasterizes one frame.
func RenderPNG(snap controller.Snapshot, opts ...Option) ([]byte, error) {
	o := newOptions(opts)
	sc, err := buildScene(snap, o)
	if err != nil {
		return nil, err
	}
	dc := gg.NewContextWithScale(int(math.Ceil(sc.Width)), int(math.Ceil(sc.Height)), o.scale)
	defer dc.Close()

	if err := drawScene(dc, sc); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func drawScene(dc *gg.Context, sc scene) error {
	dc.SetHexColor(Background)
	dc.DrawRectangle(0, 0, sc.Width, sc.Height)
	if err := dc.Fill(); err != nil {
		return fmt.Errorf("fill background: %w", err)
	}

	if err := drawDots(dc, sc.Dots); err != nil {
		return err
	}
	for _, c := range sc.Cards {
		if err := drawCard(dc, c); err != nil {
			return fmt.Errorf("card %d: %w", c.Index, err)
		}
	}
	if sc.ShowBand {
		return drawBand(dc, sc.Band, sc.Scanning)
	}
	return nil
}

func drawDots(dc *gg.Context, dots []dot) error {
	ink := gg.Hex(ParticleInk)
	for _, d := range dots {
		dc.SetRGBA(ink.R, ink.G, ink.B, d.Alpha)
		dc.DrawCircle(d.X, d.Y, d.R/2)
		if err := dc.Fill(); err != nil {
			return fmt.Errorf("fill particle: %w", err)
		}
	}
	return nil
}

func drawCard(dc *gg.Context, c card) error {
	f := c.Frame
	if !c.Plain.empty() {
		dc.Push()
		dc.ClipRect(c.Plain.X, c.Plain.Y, c.Plain.W, c.Plain.H)
		dc.SetFillBrush(gg.VerticalGradient(gg.Hex(c.Palette.Top), gg.Hex(c.Palette.Bottom), f.Y, f.Y+f.H))
		dc.DrawRoundedRectangle(f.X, f.Y, f.W, f.H, cornerRadius)
		err := dc.Fill()
		if err == nil {
			dc.SetHexColor(c.Palette.Accent)
			for i := 1; i <= 3; i++ {
				dc.DrawRectangle(f.X+24, f.Y+f.H-24-float64(i)*18, f.W*float64(4-i)/6, 6)
			}
			err = dc.Fill()
		}
		dc.Pop()
		if err != nil {
			return err
		}
	}

	if !c.Decoded.empty() {
		dc.Push()
		dc.ClipRect(c.Decoded.X, c.Decoded.Y, c.Decoded.W, c.Decoded.H)
		dc.SetHexColor(DecodedFill)
		dc.DrawRoundedRectangle(f.X, f.Y, f.W, f.H, cornerRadius)
		err := dc.Fill()
		if err == nil {
			dc.SetHexColor(DecodedInk)
			for _, g := range c.Glyphs {
				dc.DrawRectangle(g.X, g.Y, g.W, g.H)
			}
			err = dc.Fill()
		}
		dc.Pop()
		if err != nil {
			return err
		}
	}

	if c.Pulsing {
		dc.SetHexColor(PulseColor)
		dc.SetLineWidth(2)
		dc.DrawRoundedRectangle(f.X, f.Y, f.W, f.H, cornerRadius)
		return dc.Stroke()
	}
	return nil
}

func drawBand(dc *gg.Context, b rect, scanning bool) error {
	alpha := 0.35
	if scanning {
		alpha = 0.9
	}
	col := gg.Hex(BandColor)
	// Glow: wider, fainter passes under the core line.
	for i, spread := range []float64{12, 6, 0} {
		dc.SetRGBA(col.R, col.G, col.B, alpha*float64(i+1)/3)
		dc.DrawRoundedRectangle(b.X-spread, b.Y, b.W+2*spread, b.H, b.W/2+spread)
		if err := dc.Fill(); err != nil {
			return fmt.Errorf("fill band: %w", err)
		}
	}
	return nil
}
