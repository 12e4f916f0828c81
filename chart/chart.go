// Package chart wires the engine together: candles, viewport physics,
// drawings, input normalization and the render pipeline behind one
// serialized facade. All state mutation goes through here; repainting is a
// pure read of the current state, so callers repaint after every mutation
// and nothing else needs dirty tracking.
package chart

import (
	"sync"

	"marmot/drawing"
	"marmot/input"
	"marmot/model"
	"marmot/render"
	"marmot/viewport"
)

type Chart struct {
	mu sync.Mutex

	candles    []model.Candle
	ctrl       *viewport.Controller
	drawings   *drawing.Manager
	dispatcher *input.Dispatcher
	pipeline   *render.Pipeline

	theme model.Theme
	specs []model.IndicatorSpec

	scheduler   viewport.FrameScheduler
	onViewport  []func(model.Viewport)
	onCrosshair []func(model.CrosshairState)
}

type Option func(*Chart)

func WithTheme(theme model.Theme) Option {
	return func(c *Chart) { c.theme = theme }
}

func WithIndicators(specs ...model.IndicatorSpec) Option {
	return func(c *Chart) { c.specs = specs }
}

// WithScheduler swaps the frame scheduler driving inertia and animated
// resets; tests use a synchronous fake.
func WithScheduler(s viewport.FrameScheduler) Option {
	return func(c *Chart) { c.scheduler = s }
}

func New(width, height int, opts ...Option) *Chart {
	c := &Chart{
		theme:     model.DarkTheme(),
		pipeline:  render.NewPipeline(width, height),
		scheduler: viewport.NewTimerScheduler(),
	}
	for _, opt := range opts {
		opt(c)
	}
	// scheduler callbacks fire on timer goroutines, so they re-enter
	// through the chart lock like every other entry point
	c.ctrl = viewport.NewController(&lockedScheduler{chart: c, inner: c.scheduler})
	c.ctrl.SetDimensions(model.NewDimensions(float64(width), float64(height)))
	c.drawings = drawing.NewManager()
	c.dispatcher = input.NewDispatcher(c.ctrl, c.drawings, func() []model.Candle { return c.candles })

	c.ctrl.OnChange(func(v model.Viewport) {
		for _, fn := range c.onViewport {
			fn(v)
		}
	})
	c.dispatcher.OnCrosshair(func(s model.CrosshairState) {
		for _, fn := range c.onCrosshair {
			fn(s)
		}
	})
	return c
}

// lockedScheduler wraps the real scheduler so motion-loop ticks hold the
// chart lock for the duration of one step.
type lockedScheduler struct {
	chart *Chart
	inner viewport.FrameScheduler
}

func (s *lockedScheduler) Schedule(fn func()) viewport.Handle {
	return s.inner.Schedule(func() {
		s.chart.mu.Lock()
		defer s.chart.mu.Unlock()
		fn()
	})
}

func (s *lockedScheduler) Cancel(h viewport.Handle) {
	s.inner.Cancel(h)
}

// SetCandles replaces the sequence wholesale (symbol/timeframe change) and
// fits the viewport to it. The input is copied: the feed owns its slice and
// the engine never mutates or aliases it.
func (c *Chart) SetCandles(candles []model.Candle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.candles = make([]model.Candle, len(candles))
	copy(c.candles, candles)
	c.ctrl.SetCandles(c.candles)
}

// UpdateCandle applies one live tick: a candle matching the last bar's open
// time rewrites that bar in place (unfinished live bar), anything newer is
// appended. The viewport stays where the user put it.
func (c *Chart) UpdateCandle(candle model.Candle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.candles)
	if n > 0 && c.candles[n-1].Time.Equal(candle.Time) {
		c.candles[n-1] = candle
	} else {
		c.candles = append(c.candles, candle)
	}
	c.ctrl.UpdateCandles(c.candles)
}

// Candles returns a copy of the current sequence.
func (c *Chart) Candles() []model.Candle {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Candle, len(c.candles))
	copy(out, c.candles)
	return out
}

// Resize re-derives the pixel layout. Viewport and drawings are untouched.
func (c *Chart) Resize(width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pipeline.Resize(width, height)
	c.ctrl.SetDimensions(model.NewDimensions(float64(width), float64(height)))
}

// Frame renders the current state to a PNG.
func (c *Chart) Frame() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pipeline.Frame(render.State{
		Candles:    c.candles,
		Viewport:   c.ctrl.Viewport(),
		Dims:       c.ctrl.Dimensions(),
		Indicators: c.specs,
		Drawings:   c.drawings.Objects(),
		Pending:    c.drawings.Pending(),
		Crosshair:  c.dispatcher.Crosshair(),
		Theme:      c.theme,
	})
}

// SetTheme swaps the color record. Repaint-only: viewport and drawings are
// deliberately untouched.
func (c *Chart) SetTheme(theme model.Theme) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.theme = theme
}

func (c *Chart) SetIndicators(specs []model.IndicatorSpec) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.specs = specs
}

func (c *Chart) AddIndicator(spec model.IndicatorSpec) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.specs = append(c.specs, spec)
}

// ToggleIndicator flips a spec's visibility, reporting whether the id was
// found.
func (c *Chart) ToggleIndicator(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.specs {
		if c.specs[i].ID == id {
			c.specs[i].Visible = !c.specs[i].Visible
			return true
		}
	}
	return false
}

func (c *Chart) Indicators() []model.IndicatorSpec {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.IndicatorSpec, len(c.specs))
	copy(out, c.specs)
	return out
}

func (c *Chart) Viewport() model.Viewport {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ctrl.Viewport()
}

func (c *Chart) Crosshair() model.CrosshairState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dispatcher.Crosshair()
}

func (c *Chart) Dimensions() model.Dimensions {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ctrl.Dimensions()
}

// OnViewport registers a viewport change listener. Listeners run with the
// engine lock held and must not call back into the chart.
func (c *Chart) OnViewport(fn func(model.Viewport)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onViewport = append(c.onViewport, fn)
}

// OnCrosshair registers a crosshair change listener; same contract as
// OnViewport.
func (c *Chart) OnCrosshair(fn func(model.CrosshairState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onCrosshair = append(c.onCrosshair, fn)
}

// OnDrawingCommitted fires whenever a drawing reaches the committed list;
// persistence collaborators hook in here.
func (c *Chart) OnDrawingCommitted(fn func(model.DrawingObject)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drawings.OnCommit(fn)
}

func (c *Chart) Drawings() []model.DrawingObject {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.drawings.Objects()
}

func (c *Chart) RemoveDrawing(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drawings.Remove(id)
}

func (c *Chart) ClearDrawings() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drawings.Clear()
}

func (c *Chart) RestoreDrawings(objects []model.DrawingObject) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.drawings.Restore(objects)
}

func (c *Chart) SetMode(mode input.Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dispatcher.SetMode(mode)
}

func (c *Chart) SetTool(tool model.DrawingType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dispatcher.SetTool(tool)
}

func (c *Chart) PointerDown(x, y float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dispatcher.PointerDown(x, y)
}

func (c *Chart) PointerMove(x, y float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dispatcher.PointerMove(x, y)
}

func (c *Chart) PointerUp(x, y float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dispatcher.PointerUp(x, y)
}

func (c *Chart) PointerLeave() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dispatcher.PointerLeave()
}

func (c *Chart) Wheel(x, y, deltaY float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dispatcher.Wheel(x, y, deltaY)
}

func (c *Chart) DoubleClick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dispatcher.DoubleClick()
}

func (c *Chart) TouchStart(touches []input.Touch) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dispatcher.TouchStart(touches)
}

func (c *Chart) TouchMove(touches []input.Touch) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dispatcher.TouchMove(touches)
}

func (c *Chart) TouchEnd(remaining []input.Touch) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dispatcher.TouchEnd(remaining)
}

// Stop cancels any in-flight motion loop.
func (c *Chart) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ctrl.CancelMotion()
}
