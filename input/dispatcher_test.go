package input

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"marmot/drawing"
	"marmot/geometry"
	"marmot/model"
	"marmot/viewport"
)

type fakeScheduler struct {
	queue []func()
}

func (f *fakeScheduler) Schedule(fn func()) viewport.Handle {
	f.queue = append(f.queue, fn)
	return len(f.queue)
}

func (f *fakeScheduler) Cancel(viewport.Handle) {}

func makeCandles(n int) []model.Candle {
	candles := make([]model.Candle, n)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range candles {
		price := 100 + math.Sin(float64(i)/10)*20
		candles[i] = model.Candle{
			Time:   base.Add(time.Duration(i) * time.Minute),
			Open:   price,
			Close:  price + 1,
			Low:    price - 2,
			High:   price + 3,
			Volume: 10,
		}
	}
	return candles
}

func newTestDispatcher(n int) (*Dispatcher, *viewport.Controller, *drawing.Manager, *fakeScheduler) {
	sched := &fakeScheduler{}
	ctrl := viewport.NewController(sched)
	candles := makeCandles(n)
	ctrl.SetCandles(candles)
	drawings := drawing.NewManager()
	d := NewDispatcher(ctrl, drawings, func() []model.Candle { return candles })

	// deterministic clock: one frame per event
	now := time.Unix(0, 0)
	d.now = func() time.Time {
		now = now.Add(time.Second / 60)
		return now
	}
	return d, ctrl, drawings, sched
}

func TestDragPansViewport(t *testing.T) {
	d, ctrl, _, _ := newTestDispatcher(300)
	ctrl.Zoom(0.25, 400)
	start := ctrl.Viewport().StartIndex
	slot := geometry.SlotWidth(ctrl.Viewport(), ctrl.Dimensions())

	d.PointerDown(400, 300)
	d.PointerMove(360, 300)
	require.InDelta(t, start+40/slot, ctrl.Viewport().StartIndex, 1e-9)
}

func TestDragReleaseStartsInertia(t *testing.T) {
	d, ctrl, _, sched := newTestDispatcher(300)
	ctrl.Zoom(0.25, 400)

	d.PointerDown(400, 300)
	d.PointerMove(360, 300) // 40px in one frame, well over the epsilon
	d.PointerUp(360, 300)
	require.True(t, ctrl.Moving())
	require.NotEmpty(t, sched.queue)
}

func TestStillReleaseDoesNotStartInertia(t *testing.T) {
	d, ctrl, _, _ := newTestDispatcher(300)
	ctrl.Zoom(0.25, 400)

	d.PointerDown(400, 300)
	d.PointerUp(400, 300)
	require.False(t, ctrl.Moving())
}

func TestPointerDownCancelsMotion(t *testing.T) {
	d, ctrl, _, _ := newTestDispatcher(300)
	ctrl.Zoom(0.25, 400)
	ctrl.StartInertia(20)
	require.True(t, ctrl.Moving())

	d.PointerDown(400, 300)
	require.False(t, ctrl.Moving())
}

func TestWheelZoomFixedStep(t *testing.T) {
	d, ctrl, _, _ := newTestDispatcher(300)
	span := ctrl.Viewport().Span()

	// deltaY < 0 zooms in by exactly one step regardless of magnitude
	d.Wheel(400, 300, -1234)
	require.InDelta(t, span*(1-WheelZoomStep), ctrl.Viewport().Span(), 1e-9)

	spanIn := ctrl.Viewport().Span()
	d.Wheel(400, 300, 3)
	require.InDelta(t, spanIn*(1+WheelZoomStep), ctrl.Viewport().Span(), 1e-9)

	d.Wheel(400, 300, 0)
	require.InDelta(t, spanIn*(1+WheelZoomStep), ctrl.Viewport().Span(), 1e-9)
}

func TestDoubleClickAnimatesToFit(t *testing.T) {
	d, ctrl, _, sched := newTestDispatcher(300)
	ctrl.Zoom(0.2, 400)
	ctrl.Pan(-500)

	d.DoubleClick()
	require.True(t, ctrl.Moving())
	for len(sched.queue) > 0 {
		fn := sched.queue[0]
		sched.queue = sched.queue[1:]
		fn()
	}
	require.Equal(t, ctrl.FitAll(), ctrl.Viewport())
}

func TestDrawingModeRoutesToManager(t *testing.T) {
	d, ctrl, drawings, _ := newTestDispatcher(300)
	d.SetMode(ModeDrawing)
	d.SetTool(model.DrawingTrendline)
	before := ctrl.Viewport()

	d.PointerDown(100, 100)
	require.NotNil(t, drawings.Pending())
	d.PointerMove(200, 150)
	d.PointerUp(200, 150)
	require.Nil(t, drawings.Pending())
	require.Len(t, drawings.Objects(), 1)

	// the gesture never reached the viewport
	require.Equal(t, before, ctrl.Viewport())

	obj := drawings.Objects()[0]
	require.InDelta(t, geometry.YToPrice(100, before, ctrl.Dimensions()), obj.Points[0].Price, 1e-9)
	require.InDelta(t, geometry.XToIndex(200, before, ctrl.Dimensions()), obj.Points[1].Index, 1e-9)
}

func TestCrosshairTracksPointer(t *testing.T) {
	d, ctrl, _, _ := newTestDispatcher(300)
	var last model.CrosshairState
	d.OnCrosshair(func(s model.CrosshairState) { last = s })

	d.PointerMove(400, 200)
	require.True(t, last.Visible)
	require.InDelta(t, 400, last.X, 1e-9)
	require.InDelta(t, geometry.YToPrice(200, ctrl.Viewport(), ctrl.Dimensions()), last.Price, 1e-9)
	require.NotNil(t, last.Candle)

	d.PointerLeave()
	require.False(t, last.Visible)
}

func TestCrosshairOutsideDataHasNoCandle(t *testing.T) {
	d, _, _, _ := newTestDispatcher(10)

	// far right of the last bar: price readout still works, candle is nil
	d.PointerMove(799, 200)
	require.True(t, d.Crosshair().Visible)
	require.Nil(t, d.Crosshair().Candle)
}

func TestPinchZoomsAroundCentroid(t *testing.T) {
	d, ctrl, _, _ := newTestDispatcher(300)
	span := ctrl.Viewport().Span()

	d.TouchStart([]Touch{{X: 300, Y: 300}, {X: 500, Y: 300}})
	// fingers spread apart: prev/dist < 1 zooms in
	d.TouchMove([]Touch{{X: 200, Y: 300}, {X: 600, Y: 300}})
	require.InDelta(t, span*0.5, ctrl.Viewport().Span(), 1e-6)
}

func TestSecondFingerMidDragReclassifies(t *testing.T) {
	d, ctrl, _, _ := newTestDispatcher(300)
	ctrl.Zoom(0.25, 400)

	d.TouchStart([]Touch{{X: 400, Y: 300}})
	d.TouchMove([]Touch{{X: 390, Y: 300}})
	start := ctrl.Viewport().StartIndex
	span := ctrl.Viewport().Span()

	// second finger lands: this event only re-anchors, no zoom yet
	d.TouchMove([]Touch{{X: 390, Y: 300}, {X: 500, Y: 300}})
	require.InDelta(t, span, ctrl.Viewport().Span(), 1e-9)
	require.InDelta(t, start, ctrl.Viewport().StartIndex, 1e-9)

	d.TouchMove([]Touch{{X: 380, Y: 300}, {X: 510, Y: 300}})
	require.Less(t, ctrl.Viewport().Span(), span)
}

func TestTouchEndBackToSingleFingerDrag(t *testing.T) {
	d, ctrl, _, _ := newTestDispatcher(300)
	ctrl.Zoom(0.25, 400)

	d.TouchStart([]Touch{{X: 300, Y: 300}, {X: 500, Y: 300}})
	d.TouchMove([]Touch{{X: 290, Y: 300}, {X: 510, Y: 300}})
	d.TouchEnd([]Touch{{X: 290, Y: 300}})

	start := ctrl.Viewport().StartIndex
	d.TouchMove([]Touch{{X: 250, Y: 300}})
	require.Greater(t, ctrl.Viewport().StartIndex, start)
}

func TestPendingDrawingSurvivesModeSwitch(t *testing.T) {
	d, _, drawings, _ := newTestDispatcher(300)
	d.SetMode(ModeDrawing)
	d.PointerDown(100, 100)
	d.PointerUp(100, 100)
	require.Len(t, drawings.Objects(), 1)

	d.PointerDown(150, 150)
	d.SetMode(ModeNormal)
	require.NotNil(t, drawings.Pending(), "placed points survive the mode switch")
}
