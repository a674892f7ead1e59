// Package camera provides a 2D camera system for viewport control.
package camera

import (
	"gonum.org/v1/gonum/spatial/r2"
)

// Camera controls the viewport into a bounded simulation world.
// The view is kept inside the world rectangle whenever it fits.
type Camera struct {
	// Center is the camera center in world coordinates
	Center r2.Vec

	// Zoom level (1.0 = 1:1, 2.0 = 2x magnification)
	Zoom float64

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float64

	// World dimensions
	WorldW, WorldH float64

	// Zoom constraints
	MinZoom, MaxZoom float64
}

// New creates a camera centered on the world, zoomed so the whole world fits.
func New(viewportW, viewportH, worldW, worldH float64) *Camera {
	c := &Camera{
		Center:    r2.Vec{X: worldW / 2, Y: worldH / 2},
		ViewportW: viewportW,
		ViewportH: viewportH,
		WorldW:    worldW,
		WorldH:    worldH,
		MaxZoom:   8.0,
	}
	c.MinZoom = c.fitZoom()
	c.Zoom = c.MinZoom
	return c
}

// fitZoom is the zoom at which the whole world is visible.
func (c *Camera) fitZoom() float64 {
	return min(c.ViewportW/c.WorldW, c.ViewportH/c.WorldH)
}

// WorldToScreen converts world coordinates to screen coordinates.
func (c *Camera) WorldToScreen(p r2.Vec) (sx, sy float32) {
	d := r2.Scale(c.Zoom, r2.Sub(p, c.Center))
	return float32(c.ViewportW/2 + d.X), float32(c.ViewportH/2 + d.Y)
}

// ScreenToWorld converts screen coordinates to world coordinates.
func (c *Camera) ScreenToWorld(sx, sy float32) r2.Vec {
	return r2.Vec{
		X: c.Center.X + (float64(sx)-c.ViewportW/2)/c.Zoom,
		Y: c.Center.Y + (float64(sy)-c.ViewportH/2)/c.Zoom,
	}
}

// ScreenLength converts a world distance to pixels.
func (c *Camera) ScreenLength(d float64) float32 {
	return float32(d * c.Zoom)
}

// IsVisible returns true if a circle at p with given radius
// could be visible on screen (conservative check for culling).
func (c *Camera) IsVisible(p r2.Vec, radius float64) bool {
	minX, minY, maxX, maxY := c.VisibleWorldBounds()
	return p.X+radius >= minX && p.X-radius <= maxX &&
		p.Y+radius >= minY && p.Y-radius <= maxY
}

// Resize updates viewport dimensions and recalculates zoom constraints.
func (c *Camera) Resize(viewportW, viewportH float64) {
	if viewportW == c.ViewportW && viewportH == c.ViewportH {
		return
	}
	c.ViewportW = viewportW
	c.ViewportH = viewportH
	c.MinZoom = c.fitZoom()
	c.SetZoom(c.Zoom)
}

// Pan moves the camera by the given delta in screen pixels.
func (c *Camera) Pan(dx, dy float64) {
	c.Center.X += dx / c.Zoom
	c.Center.Y += dy / c.Zoom
	c.clampCenter()
}

// Follow centers the camera on a world point.
func (c *Camera) Follow(p r2.Vec) {
	c.Center = p
	c.clampCenter()
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float64) {
	c.Zoom = max(c.MinZoom, min(c.MaxZoom, zoom))
	c.clampCenter()
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float64) {
	c.SetZoom(c.Zoom * factor)
}

// ZoomAt zooms by factor while keeping the world point under (sx, sy) fixed.
func (c *Camera) ZoomAt(sx, sy float32, factor float64) {
	anchor := c.ScreenToWorld(sx, sy)
	c.Zoom = max(c.MinZoom, min(c.MaxZoom, c.Zoom*factor))
	c.Center = r2.Vec{
		X: anchor.X - (float64(sx)-c.ViewportW/2)/c.Zoom,
		Y: anchor.Y - (float64(sy)-c.ViewportH/2)/c.Zoom,
	}
	c.clampCenter()
}

// Reset returns the camera to the default position and zoom.
func (c *Camera) Reset() {
	c.Center = r2.Vec{X: c.WorldW / 2, Y: c.WorldH / 2}
	c.Zoom = c.MinZoom
}

// VisibleWorldBounds returns the world-coordinate bounds of the visible area.
func (c *Camera) VisibleWorldBounds() (minX, minY, maxX, maxY float64) {
	halfW := c.ViewportW / (2 * c.Zoom)
	halfH := c.ViewportH / (2 * c.Zoom)
	return c.Center.X - halfW, c.Center.Y - halfH, c.Center.X + halfW, c.Center.Y + halfH
}

// clampCenter keeps the view inside the world on each axis it fits on,
// and centers the world on axes where it does not.
func (c *Camera) clampCenter() {
	c.Center.X = clampAxis(c.Center.X, c.ViewportW/(2*c.Zoom), c.WorldW)
	c.Center.Y = clampAxis(c.Center.Y, c.ViewportH/(2*c.Zoom), c.WorldH)
}

func clampAxis(center, half, size float64) float64 {
	if 2*half >= size {
		return size / 2
	}
	return max(half, min(size-half, center))
}
