// Package draw provides rendering functions for visualization.
package draw

import (
	"image"
	"image/color"

	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"

	"github.com/elektrokombinacija/zoneplan/internal/core"
	"github.com/elektrokombinacija/zoneplan/internal/vis/interact"
)

// Colors for zone states.
var (
	ColorFree     = color.NRGBA{R: 60, G: 66, B: 74, A: 255}
	ColorBlocked  = color.NRGBA{R: 24, G: 26, B: 30, A: 255}
	ColorStart    = color.NRGBA{R: 80, G: 180, B: 100, A: 255}
	ColorEnd      = color.NRGBA{R: 230, G: 150, B: 60, A: 255}
	ColorConsumed = color.NRGBA{R: 150, G: 60, B: 160, A: 120}
	ColorGridLine = color.NRGBA{R: 40, G: 45, B: 50, A: 255}
)

// ZoneColor returns the fill for a zone state.
func ZoneColor(s core.CellState) color.NRGBA {
	switch s {
	case core.Blocked:
		return ColorBlocked
	case core.Start:
		return ColorStart
	case core.End:
		return ColorEnd
	}
	return ColorFree
}

// ZoneRect returns the screen rectangle of c, inset by gap pixels.
func ZoneRect(c core.Cell, camera *interact.Camera, gap int) image.Rectangle {
	x0, y0 := camera.ZoneToScreen(float32(c.Col), float32(c.Row))
	x1, y1 := camera.ZoneToScreen(float32(c.Col+1), float32(c.Row+1))
	return image.Rect(int(x0)+gap, int(y0)+gap, int(x1)-gap, int(y1)-gap)
}

// DrawZoneGrid fills every zone of g with its state colour.
func DrawZoneGrid(gtx layout.Context, g *core.OccupancyGrid, camera *interact.Camera) {
	paint.FillShape(gtx.Ops, ColorGridLine, clip.Rect(gridBounds(g, camera)).Op())
	for r := 0; r < g.Rows(); r++ {
		for c := 0; c < g.Cols(); c++ {
			cell := core.Cell{Row: r, Col: c}
			paint.FillShape(gtx.Ops, ZoneColor(g.State(cell)), clip.Rect(ZoneRect(cell, camera, 1)).Op())
		}
	}
}

// DrawConsumed shades zones the plan marked as used up.
func DrawConsumed(gtx layout.Context, zones []core.Cell, camera *interact.Camera) {
	for _, z := range zones {
		paint.FillShape(gtx.Ops, ColorConsumed, clip.Rect(ZoneRect(z, camera, 3)).Op())
	}
}

func gridBounds(g *core.OccupancyGrid, camera *interact.Camera) image.Rectangle {
	x0, y0 := camera.ZoneToScreen(0, 0)
	x1, y1 := camera.ZoneToScreen(float32(g.Cols()), float32(g.Rows()))
	return image.Rect(int(x0), int(y0), int(x1), int(y1))
}
