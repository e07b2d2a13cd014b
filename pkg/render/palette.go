package render

import "github.com/matzehuels/moto/pkg/deck"

// Palette colors one plain card face.
type Palette struct {
	Top, Bottom string // vertical gradient stops
	Accent      string // stripe and border
}

// Palettes holds one palette per plain card image.
var Palettes = [deck.ImageCount]Palette{
	{Top: "#2b1055", Bottom: "#7597de", Accent: "#c084fc"},
	{Top: "#0f2027", Bottom: "#2c5364", Accent: "#38bdf8"},
	{Top: "#42275a", Bottom: "#734b6d", Accent: "#f472b6"},
	{Top: "#134e5e", Bottom: "#71b280", Accent: "#34d399"},
	{Top: "#3a1c71", Bottom: "#d76d77", Accent: "#fbbf24"},
}

// Scene colors.
const (
	Background   = "#050505"
	DecodedFill  = "#0b0b12"
	DecodedInk   = "#a855f7"
	BandColor    = "#e9d5ff"
	PulseColor   = "#ffffff"
	ParticleInk  = "#c4b5fd"
	cornerRadius = 14.0
)

// PaletteFor returns the palette of plain image i.
func PaletteFor(image int) Palette {
	if image < 0 {
		image = -image
	}
	return Palettes[image%len(Palettes)]
}
