package deck

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Character cell metrics used to size the decoded grid.
const (
	CharWidth  = 6.0
	LineHeight = 13.0
	FontSize   = 11.0
)

// Rand is the source of randomness for content generation.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// Grid is a character grid in columns and rows.
type Grid struct {
	Cols, Rows int
}

// GridFor returns the character grid that fits a card of the given px size.
func GridFor(width, height float64) Grid {
	if width <= 0 || height <= 0 {
		return Grid{}
	}
	return Grid{Cols: int(width / CharWidth), Rows: int(height / LineHeight)}
}

// Cells returns the number of characters in the grid.
func (g Grid) Cells() int { return g.Cols * g.Rows }

// vocabulary is the filler the decoded layer is built from.
var vocabulary = buildVocabulary()

func buildVocabulary() []string {
	lib := []string{
		"// compiled preview - scanner demo",
		"/* generated for visual effect */",
		"const scanWidth = 8",
		"const fadeZone = 35",
		"const maxParticles = 2500",
		"func clamp(n, a, b float64) float64 { return math.Max(a, math.Min(b, n)) }",
		"func lerp(a, b, t float64) float64 { return a + (b-a)*t }",
		"now := time.Now()",
	}
	for i := 0; i < 30; i++ {
		lib = append(lib, fmt.Sprintf("v%d := rand.Float64() * %d", i, i))
	}
	return lib
}

// Generator produces decoded filler text.
type Generator struct {
	rnd   Rand
	words []string
}

// NewGenerator returns a generator over the built-in vocabulary.
func NewGenerator(rnd Rand) *Generator {
	return NewGeneratorWords(rnd, vocabulary)
}

// NewGeneratorWords returns a generator over a custom vocabulary. Words are
// whitespace-normalized; an empty vocabulary falls back to the built-in one.
func NewGeneratorWords(rnd Rand, words []string) *Generator {
	norm := make([]string, 0, len(words))
	for _, w := range words {
		if w = normalize(w); w != "" {
			norm = append(norm, w)
		}
	}
	if len(norm) == 0 {
		norm = vocabulary
	}
	return &Generator{rnd: rnd, words: norm}
}

// Generate returns exactly rows lines of exactly cols runes each.
// The buffer starts with the whole vocabulary, rotated to a random entry, and
// is then grown with random entries until it is longer than the grid plus one
// row, so it is never short.
func (g *Generator) Generate(grid Grid) []string {
	if grid.Rows <= 0 {
		return nil
	}
	out := make([]string, grid.Rows)
	if grid.Cols <= 0 {
		return out
	}

	need := grid.Cells() + grid.Cols
	var b strings.Builder
	b.Grow(need + 128)
	start := g.rnd.IntN(len(g.words))
	n := 0
	add := func(w string) {
		if n > 0 {
			b.WriteByte(' ')
			n++
		}
		b.WriteString(w)
		n += utf8.RuneCountInString(w)
	}
	for i := range g.words {
		add(g.words[(start+i)%len(g.words)])
	}
	for n < need {
		add(g.words[g.rnd.IntN(len(g.words))])
	}
	flow := []rune(b.String())

	for row := range out {
		off := row * grid.Cols
		out[row] = string(flow[off : off+grid.Cols])
	}
	return out
}

// normalize collapses runs of whitespace into single spaces and trims.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
