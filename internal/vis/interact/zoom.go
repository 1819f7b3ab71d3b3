// Package interact handles pan and zoom over the zone grid.
package interact

import (
	"gioui.org/io/pointer"
)

// CellSize is the side of one zone in screen pixels at zoom 1.
const CellSize = 48

const (
	minZoom    = 0.1
	maxZoom    = 10
	zoomFactor = 1.1
)

// Camera maps zone coordinates to screen pixels.
type Camera struct {
	OffsetX float32 // screen position of zone (0,0)'s corner
	OffsetY float32
	Zoom    float32

	dragging     bool
	lastX, lastY float32
}

// NewCamera creates a camera with default settings.
func NewCamera() *Camera {
	c := &Camera{}
	c.Reset()
	return c
}

// Reset restores the default view.
func (c *Camera) Reset() {
	c.OffsetX = 40
	c.OffsetY = 40
	c.Zoom = 1.0
}

// ZoneToScreen converts a (fractional) zone position, col then row, to
// screen coordinates.
func (c *Camera) ZoneToScreen(col, row float32) (x, y float32) {
	return col*CellSize*c.Zoom + c.OffsetX, row*CellSize*c.Zoom + c.OffsetY
}

// ScreenToZone is the inverse of ZoneToScreen.
func (c *Camera) ScreenToZone(x, y float32) (col, row float32) {
	return (x - c.OffsetX) / (CellSize * c.Zoom), (y - c.OffsetY) / (CellSize * c.Zoom)
}

// CellSide returns the on-screen side of one zone.
func (c *Camera) CellSide() float32 { return CellSize * c.Zoom }

// HandleEvent pans on secondary/tertiary drag and zooms on scroll.
func (c *Camera) HandleEvent(ev pointer.Event) {
	switch ev.Kind {
	case pointer.Press:
		c.dragging = ev.Buttons.Contain(pointer.ButtonSecondary) || ev.Buttons.Contain(pointer.ButtonTertiary)
		c.lastX, c.lastY = ev.Position.X, ev.Position.Y

	case pointer.Drag:
		if c.dragging {
			c.Pan(ev.Position.X-c.lastX, ev.Position.Y-c.lastY)
		}
		c.lastX, c.lastY = ev.Position.X, ev.Position.Y

	case pointer.Release:
		c.dragging = false

	case pointer.Scroll:
		switch {
		case ev.Scroll.Y > 0:
			c.ZoomBy(1/zoomFactor, ev.Position.X, ev.Position.Y)
		case ev.Scroll.Y < 0:
			c.ZoomBy(zoomFactor, ev.Position.X, ev.Position.Y)
		}
	}
}

// Pan moves the view by a screen delta.
func (c *Camera) Pan(dx, dy float32) {
	c.OffsetX += dx
	c.OffsetY += dy
}

// ZoomBy zooms by factor keeping the zone under (cx, cy) in place.
func (c *Camera) ZoomBy(factor, cx, cy float32) {
	col, row := c.ScreenToZone(cx, cy)
	c.Zoom = clampZoom(c.Zoom * factor)
	x, y := c.ZoneToScreen(col, row)
	c.OffsetX += cx - x
	c.OffsetY += cy - y
}

// FitGrid zooms and centres so a rows×cols grid fills the screen less margin.
func (c *Camera) FitGrid(rows, cols int, screenW, screenH, margin float32) {
	if rows <= 0 || cols <= 0 {
		return
	}
	zx := (screenW - 2*margin) / (float32(cols) * CellSize)
	zy := (screenH - 2*margin) / (float32(rows) * CellSize)
	c.Zoom = clampZoom(min(zx, zy))
	c.OffsetX = screenW/2 - float32(cols)*CellSize*c.Zoom/2
	c.OffsetY = screenH/2 - float32(rows)*CellSize*c.Zoom/2
}

func clampZoom(z float32) float32 {
	return min(max(z, minZoom), maxZoom)
}
