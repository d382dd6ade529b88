// Package camera computes the visible world rectangle from the player
// position, the screen size and the zoom level.
package camera

import "math"

// Zoom limits. Levels snap to ZoomStep increments.
const (
	ZoomDefault = 1.0
	ZoomMin     = 0.5
	ZoomMax     = 2.5
	ZoomStep    = 0.25
)

// ClampZoom snaps z to the nearest step inside [ZoomMin, ZoomMax].
// Non-finite or non-positive values fall back to ZoomDefault.
func ClampZoom(z float64) float64 {
	if math.IsNaN(z) || math.IsInf(z, 0) || z <= 0 {
		return ZoomDefault
	}
	z = math.Round(z/ZoomStep) * ZoomStep
	return math.Min(ZoomMax, math.Max(ZoomMin, z))
}

// Camera is the viewport's top-left corner and size in world pixels.
type Camera struct {
	X, Y          float64
	Width, Height float64
}

// Resize sets the world-space viewport size for a screen of screenW x screenH
// pixels at the given zoom, never larger than the map.
func (c *Camera) Resize(screenW, screenH, zoom, mapW, mapH float64) {
	zoom = ClampZoom(zoom)
	c.Width = math.Max(1, math.Min(mapW, math.Round(screenW/zoom)))
	c.Height = math.Max(1, math.Min(mapH, math.Round(screenH/zoom)))
}

// Update recentres on the player. Before the player has spawned the camera
// is pinned to the origin.
func (c *Camera) Update(spawned bool, playerX, playerY, mapW, mapH float64) {
	if !spawned {
		c.X, c.Y = 0, 0
		return
	}
	c.X, c.Y = Follow(playerX, playerY, c.Width, c.Height, mapW, mapH)
}

// Follow centres a viewW x viewH viewport on (playerX, playerY) and clamps it
// to [0, max(0, mapW-viewW)] x [0, max(0, mapH-viewH)].
func Follow(playerX, playerY, viewW, viewH, mapW, mapH float64) (x, y float64) {
	x = clamp(playerX-viewW/2, 0, math.Max(0, mapW-viewW))
	y = clamp(playerY-viewH/2, 0, math.Max(0, mapH-viewH))
	return x, y
}

// Visible reports whether (x, y) lies within the viewport expanded by margin.
func (c *Camera) Visible(x, y, margin float64) bool {
	dx, dy := x-c.X, y-c.Y
	return dx >= -margin && dy >= -margin && dx <= c.Width+margin && dy <= c.Height+margin
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
