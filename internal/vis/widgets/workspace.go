// Package widgets provides Gio UI widgets for the visualizer.
package widgets

import (
	"image"
	"image/color"

	"gioui.org/io/event"
	"gioui.org/io/pointer"
	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/widget/material"

	"github.com/elektrokombinacija/zoneplan/internal/core"
	"github.com/elektrokombinacija/zoneplan/internal/vis/draw"
	"github.com/elektrokombinacija/zoneplan/internal/vis/interact"
	"github.com/elektrokombinacija/zoneplan/internal/vis/state"
)

// Workspace draws the current cycle's zone grid and route.
type Workspace struct {
	state  *state.State
	camera *interact.Camera

	fitted *core.OccupancyGrid
}

// NewWorkspace creates a new workspace widget.
func NewWorkspace(st *state.State, camera *interact.Camera) *Workspace {
	return &Workspace{state: st, camera: camera}
}

// Layout renders the workspace.
func (w *Workspace) Layout(gtx layout.Context, th *material.Theme) layout.Dimensions {
	bounds := gtx.Constraints.Max
	defer clip.Rect(image.Rect(0, 0, bounds.X, bounds.Y)).Push(gtx.Ops).Pop()

	paint.Fill(gtx.Ops, color.NRGBA{R: 25, G: 28, B: 32, A: 255})
	w.handlePointerEvents(gtx)

	p := w.state.Plan()
	if p == nil || p.Grid == nil {
		label := material.Label(th, 16, "no plan recorded")
		label.Color = color.NRGBA{R: 200, G: 200, B: 200, A: 255}
		return layout.Center.Layout(gtx, label.Layout)
	}

	// Refit when a cycle with a different grid comes on screen.
	if w.fitted != p.Grid {
		w.camera.FitGrid(p.Grid.Rows(), p.Grid.Cols(), float32(bounds.X), float32(bounds.Y), 40)
		w.fitted = p.Grid
	}

	draw.DrawZoneGrid(gtx, p.Grid, w.camera)
	draw.DrawConsumed(gtx, consumedZones(p.ConsumedRegions(), p.ZoneSize), w.camera)

	routeColor := draw.ColorRoute
	if p.Recovered {
		routeColor = draw.ColorRecover
	}
	draw.DrawRoute(gtx, w.state.Route(), w.camera, routeColor, 3)
	draw.DrawRoute(gtx, w.state.PathHistory(), w.camera, draw.ColorWalked, 9)

	if c, ok := w.state.AgentCell(); ok {
		draw.DrawAgent(gtx, c, w.camera)
	}
	return layout.Dimensions{Size: bounds}
}

func consumedZones(regions []core.Region, z int) []core.Cell {
	zones := make([]core.Cell, len(regions))
	for i, r := range regions {
		zones[i] = r.TopLeft().Zone(z)
	}
	return zones
}

func (w *Workspace) handlePointerEvents(gtx layout.Context) {
	area := clip.Rect(image.Rect(0, 0, gtx.Constraints.Max.X, gtx.Constraints.Max.Y)).Push(gtx.Ops)
	event.Op(gtx.Ops, w)
	area.Pop()

	for {
		ev, ok := gtx.Event(pointer.Filter{
			Target:  w,
			Kinds:   pointer.Press | pointer.Drag | pointer.Release | pointer.Scroll,
			ScrollY: pointer.ScrollRange{Min: -100, Max: 100},
		})
		if !ok {
			break
		}
		if pe, ok := ev.(pointer.Event); ok {
			w.camera.HandleEvent(pe)
		}
	}
}
