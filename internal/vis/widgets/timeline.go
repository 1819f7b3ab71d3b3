package widgets

import (
	"fmt"
	"image"
	"image/color"

	"gioui.org/io/event"
	"gioui.org/io/pointer"
	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget/material"

	"github.com/elektrokombinacija/zoneplan/internal/vis/state"
)

const (
	timelineHeight = 60
	timelineMargin = 20
)

// Timeline is a move scrubber.
type Timeline struct {
	state    *state.State
	dragging bool
}

// NewTimeline creates a new timeline widget.
func NewTimeline(st *state.State) *Timeline {
	return &Timeline{state: st}
}

// Layout renders the timeline.
func (t *Timeline) Layout(gtx layout.Context, th *material.Theme) layout.Dimensions {
	rect := image.Rect(0, 0, gtx.Constraints.Max.X, timelineHeight)
	paint.FillShape(gtx.Ops, color.NRGBA{R: 35, G: 38, B: 42, A: 255}, clip.Rect(rect).Op())

	trackWidth := gtx.Constraints.Max.X - 2*timelineMargin
	t.handlePointerEvents(gtx, trackWidth)

	trackY := timelineHeight / 2
	trackHeight := 6
	trackRect := image.Rect(timelineMargin, trackY-trackHeight/2, timelineMargin+trackWidth, trackY+trackHeight/2)
	paint.FillShape(gtx.Ops, color.NRGBA{R: 60, G: 65, B: 70, A: 255}, clip.Rect(trackRect).Op())

	pb := t.state.Playback
	fillWidth := int(float64(trackWidth) * pb.Progress())
	if fillWidth > 0 {
		fillRect := image.Rect(timelineMargin, trackY-trackHeight/2, timelineMargin+fillWidth, trackY+trackHeight/2)
		paint.FillShape(gtx.Ops, color.NRGBA{R: 100, G: 180, B: 255, A: 255}, clip.Rect(fillRect).Op())
	}

	// One tick per move.
	for i := 1; i < pb.MaxStep; i++ {
		x := timelineMargin + trackWidth*i/pb.MaxStep
		tick := image.Rect(x, trackY+trackHeight, x+1, trackY+trackHeight+4)
		paint.FillShape(gtx.Ops, color.NRGBA{R: 90, G: 95, B: 100, A: 255}, clip.Rect(tick).Op())
	}

	head := timelineMargin + fillWidth
	headRect := image.Rect(head-6, trackY-6, head+6, trackY+6)
	paint.FillShape(gtx.Ops, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, clip.Rect(headRect).Op())

	t.drawLabels(gtx, th)
	return layout.Dimensions{Size: image.Point{X: gtx.Constraints.Max.X, Y: timelineHeight}}
}

func (t *Timeline) drawLabels(gtx layout.Context, th *material.Theme) {
	pb := t.state.Playback
	step := material.Label(th, 12, fmt.Sprintf("move %d/%d", pb.Step, pb.MaxStep))
	step.Color = color.NRGBA{R: 200, G: 200, B: 200, A: 255}

	cycle := material.Label(th, 12, fmt.Sprintf("cycle %d/%d", t.state.Current+1, len(t.state.Cycles)))
	cycle.Color = color.NRGBA{R: 150, G: 150, B: 150, A: 255}

	speed := material.Label(th, 12, fmt.Sprintf("%.2gx", pb.Speed))
	speed.Color = color.NRGBA{R: 150, G: 180, B: 200, A: 255}

	layout.Inset{Top: unit.Dp(4), Left: unit.Dp(timelineMargin), Right: unit.Dp(timelineMargin)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{Axis: layout.Horizontal, Spacing: layout.SpaceBetween}.Layout(gtx,
			layout.Rigid(step.Layout),
			layout.Rigid(speed.Layout),
			layout.Rigid(cycle.Layout),
		)
	})
}

func (t *Timeline) handlePointerEvents(gtx layout.Context, trackWidth int) {
	area := clip.Rect(image.Rect(0, 0, gtx.Constraints.Max.X, timelineHeight)).Push(gtx.Ops)
	event.Op(gtx.Ops, t)
	area.Pop()

	for {
		ev, ok := gtx.Event(pointer.Filter{
			Target: t,
			Kinds:  pointer.Press | pointer.Drag | pointer.Release,
		})
		if !ok {
			break
		}
		pe, ok := ev.(pointer.Event)
		if !ok {
			continue
		}
		switch pe.Kind {
		case pointer.Press:
			t.dragging = true
			t.seek(pe.Position.X, trackWidth)
		case pointer.Drag:
			if t.dragging {
				t.seek(pe.Position.X, trackWidth)
			}
		case pointer.Release:
			t.dragging = false
		}
	}
}

func (t *Timeline) seek(screenX float32, trackWidth int) {
	if trackWidth <= 0 {
		return
	}
	progress := (float64(screenX) - timelineMargin) / float64(trackWidth)
	progress = min(max(progress, 0), 1)
	pb := t.state.Playback
	pb.Pause()
	pb.SetStep(int(progress*float64(pb.MaxStep) + 0.5))
}
