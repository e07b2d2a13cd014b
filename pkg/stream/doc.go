// Package stream implements the scalar physics of the scrolling card stream.
//
// An [Engine] owns a single [State]: the horizontal offset of the card line,
// its speed and direction, and whether it is coasting or held by a pointer.
// The engine knows nothing about rendering. Callers feed it frame deltas and
// pointer x coordinates and read back the position to draw.
//
// # Motion
//
// While animating, every call to [Engine.Step] applies friction once (per
// frame, not per second) and never lets the speed fall below the configured
// floor, so the stream keeps drifting forever:
//
//	v = max(v*friction, minVelocity)
//	position += v * direction * dt
//
// # Dragging
//
// A drag overrides the physics. Pointer deltas move the stream 1:1 and the
// last delta, scaled by 60, becomes the fling velocity when the pointer is
// released. Slow releases fall back to the default cruise speed instead of
// stopping.
//
// # Wraparound
//
// [Engine.Wrap] teleports the stream to the opposite side once it has
// scrolled fully out of the container, which gives the infinite-loop effect.
package stream
