package render

import (
	"bytes"
	"fmt"

	"github.com/matzehuels/moto/pkg/controller"
)

// RenderSVG writes one frame as an SVG document. Each card's plain and
// decoded faces get their own clipPath.
func RenderSVG(snap controller.Snapshot, opts ...Option) ([]byte, error) {
	sc, err := buildScene(snap, newOptions(opts))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		sc.Width, sc.Height, sc.Width, sc.Height)
	renderDefs(&buf, sc)
	fmt.Fprintf(&buf, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", Background)

	for _, d := range sc.Dots {
		fmt.Fprintf(&buf, `  <circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s" fill-opacity="%.2f"/>`+"\n",
			d.X, d.Y, d.R/2, ParticleInk, d.Alpha)
	}
	for _, c := range sc.Cards {
		renderCard(&buf, c)
	}
	if sc.ShowBand {
		opacity := 0.35
		if sc.Scanning {
			opacity = 0.9
		}
		b := sc.Band
		fmt.Fprintf(&buf, `  <rect class="band" x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="%.1f" fill="%s" fill-opacity="%.2f" filter="url(#glow)"/>`+"\n",
			b.X, b.Y, b.W, b.H, b.W/2, BandColor, opacity)
	}
	buf.WriteString("</svg>\n")
	return buf.Bytes(), nil
}

func renderDefs(buf *bytes.Buffer, sc scene) {
	buf.WriteString("  <defs>\n")
	buf.WriteString(`    <filter id="glow" x="-200%" width="500%"><feGaussianBlur stdDeviation="6" result="b"/><feMerge><feMergeNode in="b"/><feMergeNode in="SourceGraphic"/></feMerge></filter>` + "\n")
	for _, c := range sc.Cards {
		fmt.Fprintf(buf, `    <linearGradient id="face-%d" x1="0" y1="0" x2="0" y2="1"><stop offset="0" stop-color="%s"/><stop offset="1" stop-color="%s"/></linearGradient>`+"\n",
			c.Index, c.Palette.Top, c.Palette.Bottom)
		fmt.Fprintf(buf, `    <clipPath id="plain-%d"><rect x="%.1f" y="%.1f" width="%.1f" height="%.1f"/></clipPath>`+"\n",
			c.Index, c.Plain.X, c.Plain.Y, max(c.Plain.W, 0), c.Plain.H)
		fmt.Fprintf(buf, `    <clipPath id="decoded-%d"><rect x="%.1f" y="%.1f" width="%.1f" height="%.1f"/></clipPath>`+"\n",
			c.Index, c.Decoded.X, c.Decoded.Y, max(c.Decoded.W, 0), c.Decoded.H)
	}
	buf.WriteString("  </defs>\n")
}

func renderCard(buf *bytes.Buffer, c card) {
	f := c.Frame
	fmt.Fprintf(buf, `  <g class="card" id="card-%d">`+"\n", c.Index)
	if !c.Plain.empty() {
		fmt.Fprintf(buf, `    <g clip-path="url(#plain-%d)"><rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="%.0f" fill="url(#face-%d)"/></g>`+"\n",
			c.Index, f.X, f.Y, f.W, f.H, cornerRadius, c.Index)
	}
	if !c.Decoded.empty() {
		fmt.Fprintf(buf, `    <g clip-path="url(#decoded-%d)">`+"\n", c.Index)
		fmt.Fprintf(buf, `      <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="%.0f" fill="%s"/>`+"\n",
			f.X, f.Y, f.W, f.H, cornerRadius, DecodedFill)
		fmt.Fprintf(buf, `      <path fill="%s" d="`, DecodedInk)
		for _, g := range c.Glyphs {
			fmt.Fprintf(buf, "M%.1f %.1fh%.1fv%.1fh%.1fz", g.X, g.Y, g.W, g.H, -g.W)
		}
		buf.WriteString("\"/>\n    </g>\n")
	}
	if c.Pulsing {
		fmt.Fprintf(buf, `    <rect class="pulse" x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="%.0f" fill="none" stroke="%s" stroke-width="2"/>`+"\n",
			f.X, f.Y, f.W, f.H, cornerRadius, PulseColor)
	}
	buf.WriteString("  </g>\n")
}
