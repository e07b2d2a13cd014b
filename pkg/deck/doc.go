// Package deck holds the card slots of the stream and their decoded text.
//
// Every [Slot] carries two co-located layers: a plain card face (an index
// into a fixed set of card images) and a decoded block of code-like filler
// text sized to the card's character grid. The scan clipper decides how much
// of each layer is visible; this package only owns the content.
//
// Decoded text glitches asynchronously: [Deck.Tick] gives every slot an
// independent chance of being regenerated, so the deck never refreshes in
// lockstep. Randomness comes from an injected [Rand], which lets tests use a
// seeded source:
//
//	rnd := rand.New(rand.NewPCG(1, 2))
//	d := deck.New(20, deck.GridFor(400, 250), rnd)
//	d.Tick()
package deck
