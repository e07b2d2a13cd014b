// Package particle animates the ambient point field drawn behind the card
// stream.
//
// A [Field] is pure state: a fixed set of points drifting right, bobbing on a
// sine wave and flickering in alpha. A [Runner] drives a field on its own
// ticker and hands each frame to a [Surface]; it shares nothing with the
// stream controller, so pausing or closing one never affects the other.
//
//	f := particle.NewField(particle.DefaultConfig(), 1200, rnd)
//	r := particle.NewRunner(f, surface, 16*time.Millisecond)
//	r.Start(ctx)
//	defer r.Close()
package particle
