// Package vis implements a Gio viewer for recorded planning cycles.
package vis

import (
	"image/color"

	"gioui.org/app"
	"gioui.org/io/event"
	"gioui.org/io/key"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/paint"
	"gioui.org/widget/material"

	"github.com/elektrokombinacija/zoneplan/internal/planner"
	"github.com/elektrokombinacija/zoneplan/internal/vis/interact"
	"github.com/elektrokombinacija/zoneplan/internal/vis/state"
	"github.com/elektrokombinacija/zoneplan/internal/vis/widgets"
)

// App is the main visualization application.
type App struct {
	state     *state.State
	theme     *material.Theme
	workspace *widgets.Workspace
	timeline  *widgets.Timeline
	toolbar   *widgets.Toolbar
	camera    *interact.Camera
}

// NewApp creates a viewer over the given cycles.
func NewApp(cycles []*planner.Plan) *App {
	st := state.NewState(cycles)
	camera := interact.NewCamera()
	return &App{
		state:     st,
		theme:     material.NewTheme(),
		workspace: widgets.NewWorkspace(st, camera),
		timeline:  widgets.NewTimeline(st),
		toolbar:   widgets.NewToolbar(st),
		camera:    camera,
	}
}

// Run starts the application event loop.
func (a *App) Run(w *app.Window) error {
	var ops op.Ops
	tag := new(int)

	for {
		switch e := w.Event().(type) {
		case app.DestroyEvent:
			return e.Err

		case app.FrameEvent:
			gtx := app.NewContext(&ops, e)

			for {
				ev, ok := gtx.Event(key.Filter{Focus: tag})
				if !ok {
					break
				}
				if ke, ok := ev.(key.Event); ok && ke.State == key.Press {
					a.handleKey(ke.Name)
				}
			}
			event.Op(gtx.Ops, tag)

			a.layout(gtx)
			e.Frame(gtx.Ops)

			if a.state.Playback.Playing {
				a.state.Playback.Advance()
				w.Invalidate()
			}
		}
	}
}

func (a *App) handleKey(name key.Name) {
	switch name {
	case key.NameSpace:
		a.state.Playback.TogglePlay()
	case key.NameLeftArrow:
		a.state.Playback.StepBack()
	case key.NameRightArrow:
		a.state.Playback.StepForward()
	case key.NameUpArrow, key.NamePageUp:
		a.state.PrevCycle()
	case key.NameDownArrow, key.NamePageDown:
		a.state.NextCycle()
	case key.NameHome:
		a.state.Playback.Reset()
	case "R":
		a.camera.Reset()
	}
}

func (a *App) layout(gtx layout.Context) layout.Dimensions {
	paint.Fill(gtx.Ops, color.NRGBA{R: 30, G: 30, B: 35, A: 255})

	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return a.toolbar.Layout(gtx, a.theme)
		}),
		layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
			return a.workspace.Layout(gtx, a.theme)
		}),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return a.timeline.Layout(gtx, a.theme)
		}),
	)
}
