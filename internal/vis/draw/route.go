package draw

import (
	"image/color"
	"math"

	"gioui.org/f32"
	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"

	"github.com/elektrokombinacija/zoneplan/internal/core"
	"github.com/elektrokombinacija/zoneplan/internal/vis/interact"
)

var (
	ColorRoute   = color.NRGBA{R: 100, G: 180, B: 255, A: 255}
	ColorWalked  = color.NRGBA{R: 100, G: 180, B: 255, A: 90}
	ColorAgent   = color.NRGBA{R: 255, G: 200, B: 80, A: 255}
	ColorRecover = color.NRGBA{R: 220, G: 90, B: 90, A: 255}
)

// CellCenter returns the screen centre of zone c.
func CellCenter(c core.Cell, camera *interact.Camera) (x, y float32) {
	return camera.ZoneToScreen(float32(c.Col)+0.5, float32(c.Row)+0.5)
}

// DrawRoute draws cells as connected segments with a direction arrow on each.
// Repeated segments of a round trip overlap.
func DrawRoute(gtx layout.Context, cells []core.Cell, camera *interact.Camera, col color.NRGBA, width float32) {
	if len(cells) < 2 {
		return
	}
	w := width * camera.Zoom
	for i := 0; i < len(cells)-1; i++ {
		x1, y1 := CellCenter(cells[i], camera)
		x2, y2 := CellCenter(cells[i+1], camera)
		drawSegment(gtx, x1, y1, x2, y2, w, col)
		drawArrow(gtx, (x1+x2)/2, (y1+y2)/2, x2-x1, y2-y1, camera.CellSide()/6, col)
	}
}

// DrawAgent marks the agent's zone.
func DrawAgent(gtx layout.Context, c core.Cell, camera *interact.Camera) {
	x, y := CellCenter(c, camera)
	drawFilledCircle(gtx, x, y, camera.CellSide()/4, ColorAgent)
}

func drawSegment(gtx layout.Context, x1, y1, x2, y2, width float32, col color.NRGBA) {
	dx := x2 - x1
	dy := y2 - y1
	length := float32(math.Sqrt(float64(dx*dx + dy*dy)))
	if length < 0.1 {
		return
	}

	dx /= length
	dy /= length
	px := -dy * width / 2
	py := dx * width / 2

	var path clip.Path
	path.Begin(gtx.Ops)
	path.MoveTo(f32.Pt(x1+px, y1+py))
	path.LineTo(f32.Pt(x2+px, y2+py))
	path.LineTo(f32.Pt(x2-px, y2-py))
	path.LineTo(f32.Pt(x1-px, y1-py))
	path.Close()

	paint.FillShape(gtx.Ops, col, clip.Outline{Path: path.End()}.Op())
}

func drawArrow(gtx layout.Context, x, y, dirX, dirY, size float32, col color.NRGBA) {
	length := float32(math.Sqrt(float64(dirX*dirX + dirY*dirY)))
	if length < 0.1 {
		return
	}
	dirX /= length
	dirY /= length

	tipX := x + dirX*size
	tipY := y + dirY*size
	perpX := -dirY * size * 0.5
	perpY := dirX * size * 0.5
	baseX := x - dirX*size*0.3
	baseY := y - dirY*size*0.3

	var path clip.Path
	path.Begin(gtx.Ops)
	path.MoveTo(f32.Pt(tipX, tipY))
	path.LineTo(f32.Pt(baseX+perpX, baseY+perpY))
	path.LineTo(f32.Pt(baseX-perpX, baseY-perpY))
	path.Close()

	paint.FillShape(gtx.Ops, col, clip.Outline{Path: path.End()}.Op())
}

func drawFilledCircle(gtx layout.Context, cx, cy, radius float32, col color.NRGBA) {
	var path clip.Path
	path.Begin(gtx.Ops)
	path.Move(f32.Pt(cx+radius, cy))

	segments := 16
	for i := 1; i <= segments; i++ {
		angle := float64(i) * 2 * math.Pi / float64(segments)
		x := cx + radius*float32(math.Cos(angle))
		y := cy + radius*float32(math.Sin(angle))
		path.Line(f32.Pt(x-path.Pos().X, y-path.Pos().Y))
	}
	path.Close()

	paint.FillShape(gtx.Ops, col, clip.Outline{Path: path.End()}.Op())
}
