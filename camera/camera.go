// Package camera provides a 2D camera system for viewport control.
package camera

// Camera maps the bounded, y-up simulation world onto the y-down screen.
// Supports pan and zoom; the view center never leaves the world rectangle.
type Camera struct {
	// Position is the camera center in world coordinates
	X, Y float32

	// Zoom level (1.0 = PixelsPerUnit pixels per world unit)
	Zoom float32

	// PixelsPerUnit is the screen scale at zoom 1
	PixelsPerUnit float32

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float32

	// World walls
	Left, Right, Bottom, Top float32

	// Zoom constraints
	MinZoom, MaxZoom float32
}

// New creates a camera centered on the world rectangle with 1:1 zoom.
func New(viewportW, viewportH, pixelsPerUnit, left, right, bottom, top float32) *Camera {
	c := &Camera{
		Zoom:          1.0,
		PixelsPerUnit: pixelsPerUnit,
		ViewportW:     viewportW,
		ViewportH:     viewportH,
		Left:          left,
		Right:         right,
		Bottom:        bottom,
		Top:           top,
		MinZoom:       0.25,
		MaxZoom:       8.0,
	}
	c.Reset()
	return c
}

// FitZoom returns the zoom at which the whole world fits the viewport.
func (c *Camera) FitZoom() float32 {
	zx := c.ViewportW / ((c.Right - c.Left) * c.PixelsPerUnit)
	zy := c.ViewportH / ((c.Top - c.Bottom) * c.PixelsPerUnit)
	if zy < zx {
		return zy
	}
	return zx
}

// scale returns pixels per world unit at the current zoom.
func (c *Camera) scale() float32 {
	return c.PixelsPerUnit * c.Zoom
}

// WorldToScreen converts world coordinates to screen coordinates.
// World y grows upward, screen y grows downward.
func (c *Camera) WorldToScreen(wx, wy float32) (sx, sy float32) {
	s := c.scale()
	sx = c.ViewportW/2 + (wx-c.X)*s
	sy = c.ViewportH/2 - (wy-c.Y)*s
	return sx, sy
}

// ScreenToWorld converts screen coordinates to world coordinates.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wy float32) {
	s := c.scale()
	wx = c.X + (sx-c.ViewportW/2)/s
	wy = c.Y - (sy-c.ViewportH/2)/s
	return wx, wy
}

// WorldLength converts a world distance to pixels.
func (c *Camera) WorldLength(d float32) float32 {
	return d * c.scale()
}

// IsVisible returns true if a circle at (wx, wy) with given radius
// could be visible on screen (conservative check for culling).
func (c *Camera) IsVisible(wx, wy, radius float32) bool {
	s := c.scale()
	halfW := c.ViewportW/(2*s) + radius
	halfH := c.ViewportH/(2*s) + radius
	return absf(wx-c.X) <= halfW && absf(wy-c.Y) <= halfH
}

// Resize updates viewport dimensions.
func (c *Camera) Resize(viewportW, viewportH float32) {
	c.ViewportW = viewportW
	c.ViewportH = viewportH
}

// Pan moves the camera by the given delta in screen pixels.
// The center stays inside the world rectangle.
func (c *Camera) Pan(dx, dy float32) {
	s := c.scale()
	c.X = clamp(c.X+dx/s, c.Left, c.Right)
	c.Y = clamp(c.Y-dy/s, c.Bottom, c.Top)
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// Reset returns the camera to the world center at 1:1 zoom.
func (c *Camera) Reset() {
	c.X = (c.Left + c.Right) / 2
	c.Y = (c.Bottom + c.Top) / 2
	c.Zoom = 1.0
}

// VisibleWorldBounds returns the world-coordinate bounds of the visible area.
func (c *Camera) VisibleWorldBounds() (minX, minY, maxX, maxY float32) {
	s := c.scale()
	halfW := c.ViewportW / (2 * s)
	halfH := c.ViewportH / (2 * s)
	return c.X - halfW, c.Y - halfH, c.X + halfW, c.Y + halfH
}

// absf returns the absolute value of a float32.
func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

// clamp restricts a value to a range.
func clamp(x, min, max float32) float32 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
