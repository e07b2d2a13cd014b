// Package render draws card stream frames to images.
//
// # Overview
//
// A frame is a [controller.Snapshot] plus, optionally, the particle field.
// Two sinks are provided:
//
//   - [RenderPNG] rasterizes with github.com/gogpu/gg
//   - [RenderSVG] writes a self-contained SVG document
//
// Both draw the same scene: every visible card as a plain face (one of
// [Palettes], chosen by the slot's image index) and a decoded face, each
// clipped to the percentages the scan clipper computed, then the scan band
// on top. Decoded text is drawn as glyph blocks in the card's character
// grid, so no font is needed.
//
//	snap := ctl.Frame(time.Now())
//	png, err := render.RenderPNG(snap, render.WithScale(2))
//
// # Particle Surface
//
// [PNGSurface] implements [particle.Surface] by writing each drawn frame as
// a numbered PNG, which is how `moto snapshot --frames-dir` records the particle layer.
package render
