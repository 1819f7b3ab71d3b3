package widgets

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"

	"github.com/elektrokombinacija/zoneplan/internal/planner"
	"github.com/elektrokombinacija/zoneplan/internal/vis/state"
)

// Toolbar provides playback and cycle controls plus a plan summary.
type Toolbar struct {
	state *state.State

	playBtn      widget.Clickable
	resetBtn     widget.Clickable
	stepFwdBtn   widget.Clickable
	stepBackBtn  widget.Clickable
	speedUpBtn   widget.Clickable
	speedDownBtn widget.Clickable
	prevCycleBtn widget.Clickable
	nextCycleBtn widget.Clickable
}

// NewToolbar creates a new toolbar.
func NewToolbar(st *state.State) *Toolbar {
	return &Toolbar{state: st}
}

// Layout renders the toolbar.
func (t *Toolbar) Layout(gtx layout.Context, th *material.Theme) layout.Dimensions {
	height := 48
	rect := image.Rect(0, 0, gtx.Constraints.Max.X, height)
	paint.FillShape(gtx.Ops, color.NRGBA{R: 40, G: 43, B: 48, A: 255}, clip.Rect(rect).Op())

	t.handleClicks(gtx)

	return layout.Inset{Left: unit.Dp(10), Right: unit.Dp(10), Top: unit.Dp(8), Bottom: unit.Dp(8)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Middle}.Layout(gtx,
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return t.layoutPlaybackControls(gtx, th)
			}),
			layout.Rigid(t.layoutSeparator),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return t.layoutCycleControls(gtx, th)
			}),
			layout.Rigid(t.layoutSeparator),
			layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
				label := material.Label(th, 13, Summary(t.state.Plan()))
				label.Color = color.NRGBA{R: 210, G: 210, B: 210, A: 255}
				return label.Layout(gtx)
			}),
		)
	})
}

// Summary is the one-line description of p shown in the toolbar.
func Summary(p *planner.Plan) string {
	if p == nil {
		return "no plan"
	}
	target := "none"
	if p.Target != nil {
		target = p.Target.String()
	}
	parts := []string{
		fmt.Sprintf("branch %s", p.Branch),
		fmt.Sprintf("target %s", target),
		fmt.Sprintf("budget %d", p.Budget),
		fmt.Sprintf("%d moves", len(p.Moves)),
	}
	if p.Recovered {
		parts = append(parts, "recovery")
	}
	if p.BudgetGuarded {
		parts = append(parts, "budget guard")
	}
	if p.Stalled {
		parts = append(parts, "stalled")
	}
	return strings.Join(parts, "  ")
}

func (t *Toolbar) layoutPlaybackControls(gtx layout.Context, th *material.Theme) layout.Dimensions {
	play := ">"
	if t.state.Playback.Playing {
		play = "||"
	}
	return layout.Flex{Axis: layout.Horizontal}.Layout(gtx,
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return t.button(gtx, th, &t.stepBackBtn, "|<")
		}),
		layout.Rigid(layout.Spacer{Width: unit.Dp(4)}.Layout),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return t.button(gtx, th, &t.playBtn, play)
		}),
		layout.Rigid(layout.Spacer{Width: unit.Dp(4)}.Layout),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return t.button(gtx, th, &t.stepFwdBtn, ">|")
		}),
		layout.Rigid(layout.Spacer{Width: unit.Dp(4)}.Layout),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return t.button(gtx, th, &t.resetBtn, "[]")
		}),
		layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return t.button(gtx, th, &t.speedDownBtn, "-")
		}),
		layout.Rigid(layout.Spacer{Width: unit.Dp(4)}.Layout),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return t.button(gtx, th, &t.speedUpBtn, "+")
		}),
	)
}

func (t *Toolbar) layoutCycleControls(gtx layout.Context, th *material.Theme) layout.Dimensions {
	return layout.Flex{Axis: layout.Horizontal}.Layout(gtx,
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return t.button(gtx, th, &t.prevCycleBtn, "<<")
		}),
		layout.Rigid(layout.Spacer{Width: unit.Dp(4)}.Layout),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return t.button(gtx, th, &t.nextCycleBtn, ">>")
		}),
	)
}

func (t *Toolbar) layoutSeparator(gtx layout.Context) layout.Dimensions {
	return layout.Inset{Left: unit.Dp(8), Right: unit.Dp(8)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		rect := image.Rect(0, 0, 1, 24)
		paint.FillShape(gtx.Ops, color.NRGBA{R: 60, G: 65, B: 70, A: 255}, clip.Rect(rect).Op())
		return layout.Dimensions{Size: image.Point{X: 1, Y: 24}}
	})
}

func (t *Toolbar) button(gtx layout.Context, th *material.Theme, btn *widget.Clickable, text string) layout.Dimensions {
	bg := color.NRGBA{R: 55, G: 58, B: 65, A: 255}
	if btn.Hovered() {
		bg = color.NRGBA{R: 70, G: 73, B: 80, A: 255}
	}

	return btn.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Background{}.Layout(gtx,
			func(gtx layout.Context) layout.Dimensions {
				gtx.Constraints.Min = image.Point{X: 32, Y: 28}
				rect := image.Rect(0, 0, gtx.Constraints.Min.X, gtx.Constraints.Min.Y)
				paint.FillShape(gtx.Ops, bg, clip.Rect(rect).Op())
				return layout.Dimensions{Size: gtx.Constraints.Min}
			},
			func(gtx layout.Context) layout.Dimensions {
				return layout.Center.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
					label := material.Label(th, 12, text)
					label.Color = color.NRGBA{R: 220, G: 220, B: 220, A: 255}
					return label.Layout(gtx)
				})
			},
		)
	})
}

func (t *Toolbar) handleClicks(gtx layout.Context) {
	pb := t.state.Playback
	for t.playBtn.Clicked(gtx) {
		pb.TogglePlay()
	}
	for t.resetBtn.Clicked(gtx) {
		pb.Reset()
	}
	for t.stepFwdBtn.Clicked(gtx) {
		pb.StepForward()
	}
	for t.stepBackBtn.Clicked(gtx) {
		pb.StepBack()
	}
	for t.speedUpBtn.Clicked(gtx) {
		pb.SetSpeed(pb.Speed * 1.5)
	}
	for t.speedDownBtn.Clicked(gtx) {
		pb.SetSpeed(pb.Speed / 1.5)
	}
	for t.prevCycleBtn.Clicked(gtx) {
		t.state.PrevCycle()
	}
	for t.nextCycleBtn.Clicked(gtx) {
		t.state.NextCycle()
	}
}
