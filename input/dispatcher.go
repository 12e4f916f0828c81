// Package input normalizes mouse, touch and wheel events into the chart's
// gesture vocabulary (drag, pinch, wheel-zoom, double-click reset, draw)
// and routes them to the viewport controller or the drawing manager.
package input

import (
	"math"
	"time"

	"marmot/drawing"
	"marmot/geometry"
	"marmot/model"
	"marmot/viewport"
)

type Mode int

const (
	ModeNormal Mode = iota
	ModeDrawing
)

// WheelZoomStep is the fixed zoom increment per wheel tick. Only the wheel
// direction is consulted, never its raw magnitude, so zoom velocity stays
// predictable across devices.
const WheelZoomStep = 0.05

// Touch is one active touch point in canvas coordinates.
type Touch struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dispatcher tracks one pointer/touch gesture at a time. Like the
// controller it is single-threaded by contract.
type Dispatcher struct {
	ctrl     *viewport.Controller
	drawings *drawing.Manager
	candles  func() []model.Candle

	mode Mode
	tool model.DrawingType

	dragging bool
	drawing  bool
	lastX    float64
	lastY    float64
	lastMove time.Time
	velocity float64

	pinching  bool
	pinchDist float64

	crosshair   model.CrosshairState
	onCrosshair func(model.CrosshairState)

	now func() time.Time
}

func NewDispatcher(ctrl *viewport.Controller, drawings *drawing.Manager, candles func() []model.Candle) *Dispatcher {
	return &Dispatcher{
		ctrl:     ctrl,
		drawings: drawings,
		candles:  candles,
		tool:     model.DrawingTrendline,
		now:      time.Now,
	}
}

func (d *Dispatcher) OnCrosshair(fn func(model.CrosshairState)) {
	d.onCrosshair = fn
}

// SetMode switches between pan/zoom and drawing. A pending drawing's placed
// points survive the switch; only starting a new object replaces them.
func (d *Dispatcher) SetMode(mode Mode) {
	d.mode = mode
}

func (d *Dispatcher) Mode() Mode {
	return d.mode
}

func (d *Dispatcher) SetTool(tool model.DrawingType) {
	d.tool = tool
}

func (d *Dispatcher) Tool() model.DrawingType {
	return d.tool
}

func (d *Dispatcher) Crosshair() model.CrosshairState {
	return d.crosshair
}

func (d *Dispatcher) PointerDown(x, y float64) {
	d.lastX, d.lastY = x, y
	d.lastMove = d.now()
	d.velocity = 0
	if d.mode == ModeDrawing {
		d.drawing = true
		d.drawings.Start(d.tool, d.point(x, y))
		return
	}
	d.ctrl.BeginGesture()
	d.dragging = true
}

func (d *Dispatcher) PointerMove(x, y float64) {
	d.updateCrosshair(x, y)

	switch {
	case d.drawing:
		d.drawings.Update(d.point(x, y))
	case d.dragging:
		dx := x - d.lastX
		d.ctrl.Pan(dx)
		if dt := d.now().Sub(d.lastMove); dt > 0 {
			// pixels per frame at a 60fps baseline
			d.velocity = dx / (dt.Seconds() * 60)
		}
	}
	d.lastX, d.lastY = x, y
	d.lastMove = d.now()
}

func (d *Dispatcher) PointerUp(x, y float64) {
	if d.drawing {
		d.drawing = false
		d.drawings.Commit(d.point(x, y))
		return
	}
	if d.dragging {
		d.dragging = false
		d.ctrl.StartInertia(d.velocity)
		d.velocity = 0
	}
}

// PointerLeave hides the crosshair; an in-flight drag keeps its state in
// case the pointer re-enters.
func (d *Dispatcher) PointerLeave() {
	d.crosshair = model.CrosshairState{}
	d.emitCrosshair()
}

// Wheel zooms by a fixed step centered at the cursor. deltaY > 0 (scroll
// down) zooms out.
func (d *Dispatcher) Wheel(x, _ float64, deltaY float64) {
	if deltaY == 0 {
		return
	}
	factor := 1 + WheelZoomStep
	if deltaY < 0 {
		factor = 1 - WheelZoomStep
	}
	d.ctrl.Zoom(factor, x)
}

// DoubleClick animates back to the full-data auto-fit range.
func (d *Dispatcher) DoubleClick() {
	d.ctrl.AnimateTo(d.ctrl.FitAll())
}

func (d *Dispatcher) TouchStart(touches []Touch) {
	switch len(touches) {
	case 1:
		d.PointerDown(touches[0].X, touches[0].Y)
	case 2:
		d.beginPinch(touches)
	}
}

func (d *Dispatcher) TouchMove(touches []Touch) {
	switch {
	case len(touches) >= 2:
		if !d.pinching {
			// second finger landed mid-gesture: reclassify and recompute
			// the anchor on this event, zoom from the next one
			d.beginPinch(touches)
			return
		}
		dist := touchDistance(touches[0], touches[1])
		if dist <= 0 || d.pinchDist <= 0 {
			d.pinchDist = dist
			return
		}
		centroidX := (touches[0].X + touches[1].X) / 2
		d.ctrl.Zoom(d.pinchDist/dist, centroidX)
		d.pinchDist = dist
	case len(touches) == 1:
		d.PointerMove(touches[0].X, touches[0].Y)
	}
}

func (d *Dispatcher) TouchEnd(remaining []Touch) {
	switch len(remaining) {
	case 0:
		d.pinching = false
		d.PointerUp(d.lastX, d.lastY)
	case 1:
		// back to a single-finger drag; restart tracking from the finger
		// that stayed down
		d.pinching = false
		d.dragging = d.mode == ModeNormal
		d.lastX, d.lastY = remaining[0].X, remaining[0].Y
		d.lastMove = d.now()
		d.velocity = 0
	}
}

func (d *Dispatcher) beginPinch(touches []Touch) {
	d.ctrl.BeginGesture()
	d.dragging = false
	d.pinching = true
	d.pinchDist = touchDistance(touches[0], touches[1])
	d.velocity = 0
}

func touchDistance(a, b Touch) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// point captures a drawing anchor in both pixel and data space.
func (d *Dispatcher) point(x, y float64) model.DrawingPoint {
	v := d.ctrl.Viewport()
	dims := d.ctrl.Dimensions()
	pt := model.DrawingPoint{
		X:     x,
		Y:     y,
		Price: geometry.YToPrice(y, v, dims),
		Index: geometry.XToIndex(x, v, dims),
	}
	if c := d.candleAt(pt.Index); c != nil {
		pt.Time = c.Timestamp()
	}
	return pt
}

func (d *Dispatcher) updateCrosshair(x, y float64) {
	v := d.ctrl.Viewport()
	dims := d.ctrl.Dimensions()
	state := model.CrosshairState{
		Visible: true,
		X:       x,
		Y:       y,
		Price:   geometry.YToPrice(y, v, dims),
	}
	if c := d.candleAt(geometry.XToIndex(x, v, dims)); c != nil {
		state.Candle = c
		state.Time = c.Timestamp()
	}
	d.crosshair = state
	d.emitCrosshair()
}

// candleAt rounds a fractional index to the nearest bar for lookups only;
// viewport math never rounds.
func (d *Dispatcher) candleAt(index float64) *model.Candle {
	candles := d.candles()
	i := int(math.Round(index))
	if i < 0 || i >= len(candles) {
		return nil
	}
	c := candles[i]
	return &c
}

func (d *Dispatcher) emitCrosshair() {
	if d.onCrosshair != nil {
		d.onCrosshair(d.crosshair)
	}
}
