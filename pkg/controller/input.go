package controller

import "github.com/matzehuels/moto/pkg/layout"

// PointerDown starts a drag when (x, y) lies on the card line. Coordinates
// are container-relative px. On success the controller routes every later
// PointerMove and PointerUp to the drag, wherever the pointer is, until the
// drag ends. It reports whether a drag started.
func (c *Controller) PointerDown(x, y float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tracking {
		return false
	}
	rendered := c.last.Position
	if !c.initialized {
		rendered = c.engine.Position()
	}
	if !c.geom.InDeck(rendered, x, y) {
		return false
	}
	c.engine.DragStart(x, rendered)
	c.tracking = true
	return true
}

// PointerMove drags the stream to x. It is ignored unless a drag is active.
func (c *Controller) PointerMove(x float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.tracking {
		return
	}
	c.engine.DragMove(x)
}

// PointerUp ends the drag, flinging or resuming cruise speed, and stops
// routing pointer events to the stream.
func (c *Controller) PointerUp() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.tracking {
		return
	}
	c.engine.DragEnd()
	c.tracking = false
}

// Tracking reports whether pointer events are currently routed to a drag.
func (c *Controller) Tracking() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tracking
}

// Toggle switches between animating and paused and reports whether the
// stream is now animating. It has no effect during a drag.
func (c *Controller) Toggle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine.Toggle()
}

// Reset parks the stream at the right edge of the container with default
// motion and ends any drag. The parked position is rendered immediately.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.engine.Reset(c.geom.ContainerWidth)
	c.last.Position = c.engine.Position()
	c.tracking = false
}

// Reverse flips the scroll direction.
func (c *Controller) Reverse() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.engine.Reverse()
}

// Resize re-probes the layout immediately, without waiting for the next
// frame, and returns the new geometry.
func (c *Controller) Resize() layout.Geometry {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.geom = c.prober.Probe()
	return c.geom
}
