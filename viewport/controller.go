// Package viewport owns the mutable Viewport and the motion physics behind
// it: pan, anchored zoom, inertia decay and animated reset. At most one
// motion driver (manual drag, inertia, animated reset) is active at a time;
// every entry point that starts a new one first cancels the others.
package viewport

import (
	"math"

	"marmot/geometry"
	"marmot/model"
	"marmot/utils/collection"
)

const (
	// MinVisibleBars is the lower clamp on the zoom width.
	MinVisibleBars = 5.0

	pricePadRatio  = 0.05
	zoomBlend      = 0.3
	animateEase    = 0.15
	animateEpsilon = 1e-3
	inertiaDecay   = 0.95
	// InertiaEpsilon is the velocity (px/frame) under which inertia stops.
	InertiaEpsilon = 0.01
)

// Controller mutates the viewport exclusively. It is not safe for
// concurrent use; the owning chart engine serializes access.
type Controller struct {
	viewport model.Viewport
	dims     model.Dimensions
	candles  []model.Candle

	scheduler FrameScheduler
	motion    Handle
	animating bool
	inertial  bool
	velocity  float64
	target    model.Viewport

	onChange func(model.Viewport)
}

func NewController(scheduler FrameScheduler) *Controller {
	return &Controller{
		scheduler: scheduler,
		dims:      model.NewDimensions(800, 600),
	}
}

// OnChange registers the single change listener. It fires after every
// viewport mutation, including each animation tick.
func (c *Controller) OnChange(fn func(model.Viewport)) {
	c.onChange = fn
}

func (c *Controller) Viewport() model.Viewport {
	return c.viewport
}

func (c *Controller) Dimensions() model.Dimensions {
	return c.dims
}

func (c *Controller) SetDimensions(dims model.Dimensions) {
	c.dims = dims
}

// SetCandles replaces the candle sequence wholesale (symbol or timeframe
// change) and resets the viewport to fit everything.
func (c *Controller) SetCandles(candles []model.Candle) {
	c.CancelMotion()
	c.candles = candles
	c.viewport = c.FitAll()
	c.emit()
}

// UpdateCandles swaps in a sequence that grew or had its unfinished last
// bar rewritten. The viewport is left where the user put it; only an
// out-of-range end (sequence shrank) is clamped.
func (c *Controller) UpdateCandles(candles []model.Candle) {
	c.candles = candles
	n := len(candles)
	if n < 2 {
		return
	}
	if c.viewport.EndIndex > float64(n-1) {
		span := c.viewport.Span()
		c.viewport.EndIndex = float64(n - 1)
		c.viewport.StartIndex = math.Max(0, c.viewport.EndIndex-span)
		c.emit()
	}
}

// FitAll computes the viewport showing the whole sequence with an
// auto-fitted price range. It does not mutate state; pass the result to
// AnimateTo for the reset gesture.
func (c *Controller) FitAll() model.Viewport {
	n := len(c.candles)
	if n == 0 {
		return c.viewport
	}
	end := float64(n - 1)
	if end <= 0 {
		// single candle: keep a token index span so geometry stays finite
		end = 1e-6
	}
	min, max := c.fitPriceRange(0, end)
	return model.Viewport{StartIndex: 0, EndIndex: end, PriceMin: min, PriceMax: max}
}

// BeginGesture must be called when a new manual drag starts. It cancels
// whatever motion loop is in flight so two drivers never fight over the
// viewport within one frame.
func (c *Controller) BeginGesture() {
	c.CancelMotion()
}

// Pan shifts the window by a pixel delta, converted to a fractional index
// delta at the current scale. Positive delta pans back in time (content
// follows the pointer). The window hugs the data edges without shrinking,
// and the price range re-fits to what is now on screen.
func (c *Controller) Pan(deltaPixels float64) {
	n := len(c.candles)
	if n < 2 || deltaPixels == 0 {
		return
	}
	slot := geometry.SlotWidth(c.viewport, c.dims)
	if slot <= 0 {
		return
	}
	c.shiftIndex(-deltaPixels / slot)
}

func (c *Controller) shiftIndex(deltaIndex float64) {
	n := len(c.candles)
	span := c.viewport.Span()
	maxStart := math.Max(0, float64(n-1)-span)
	start := c.viewport.StartIndex + deltaIndex
	if start < 0 {
		start = 0
	}
	if start > maxStart {
		start = maxStart
	}
	c.viewport.StartIndex = start
	c.viewport.EndIndex = start + span
	c.viewport.PriceMin, c.viewport.PriceMax = c.fitPriceRange(start, start+span)
	c.emit()
}

// Zoom scales the visible width by factor (>1 zooms out) around the index
// under pixelCenter. The anchor keeps its fraction of the window so the
// chart does not jump under the cursor; the price range eases toward the
// new auto-fit instead of snapping.
func (c *Controller) Zoom(factor, pixelCenter float64) {
	n := len(c.candles)
	if n < 2 || factor <= 0 {
		return
	}
	c.CancelMotion()

	v := c.viewport
	anchor := geometry.XToIndex(pixelCenter, v, c.dims)
	span := v.Span()
	// the pixel mapping runs over span+RightMarginBars, so the anchor's
	// fraction must be taken over that same width or the index under the
	// cursor drifts with every zoom
	frac := 0.5
	if width := span + geometry.RightMarginBars; width > 0 {
		frac = (anchor - v.StartIndex) / width
	}

	maxSpan := float64(n - 1)
	newSpan := span * factor
	if minSpan := math.Min(MinVisibleBars, maxSpan); newSpan < minSpan {
		newSpan = minSpan
	}
	if newSpan > maxSpan {
		newSpan = maxSpan
	}

	start := anchor - frac*(newSpan+geometry.RightMarginBars)
	if start < 0 {
		start = 0
	}
	if start > maxSpan-newSpan {
		start = maxSpan - newSpan
	}
	c.viewport.StartIndex = start
	c.viewport.EndIndex = start + newSpan

	targetMin, targetMax := c.fitPriceRange(start, start+newSpan)
	c.viewport.PriceMin += zoomBlend * (targetMin - c.viewport.PriceMin)
	c.viewport.PriceMax += zoomBlend * (targetMax - c.viewport.PriceMax)
	c.emit()
}

// AnimateTo eases every viewport field toward target, snapping exactly
// onto it once the remaining delta is negligible.
func (c *Controller) AnimateTo(target model.Viewport) {
	if len(c.candles) == 0 {
		return
	}
	c.CancelMotion()
	c.target = target
	c.animating = true
	c.motion = c.scheduler.Schedule(c.animateTick)
}

func (c *Controller) animateTick() {
	if !c.animating {
		return
	}
	v := &c.viewport
	v.StartIndex += animateEase * (c.target.StartIndex - v.StartIndex)
	v.EndIndex += animateEase * (c.target.EndIndex - v.EndIndex)
	v.PriceMin += animateEase * (c.target.PriceMin - v.PriceMin)
	v.PriceMax += animateEase * (c.target.PriceMax - v.PriceMax)

	priceEps := math.Max(math.Abs(c.target.PriceSpan())*animateEpsilon, 1e-9)
	done := math.Abs(c.target.StartIndex-v.StartIndex) < animateEpsilon &&
		math.Abs(c.target.EndIndex-v.EndIndex) < animateEpsilon &&
		math.Abs(c.target.PriceMin-v.PriceMin) < priceEps &&
		math.Abs(c.target.PriceMax-v.PriceMax) < priceEps
	if done {
		c.viewport = c.target
		c.animating = false
		c.motion = nil
		c.emit()
		return
	}
	c.emit()
	c.motion = c.scheduler.Schedule(c.animateTick)
}

// StartInertia begins the post-drag decay loop: pan by velocity, multiply
// by the decay, stop under the epsilon. Velocity is pixels per frame at a
// 60fps baseline.
func (c *Controller) StartInertia(velocity float64) {
	if math.Abs(velocity) < InertiaEpsilon || len(c.candles) < 2 {
		return
	}
	c.CancelMotion()
	c.inertial = true
	c.velocity = velocity
	c.motion = c.scheduler.Schedule(c.inertiaTick)
}

func (c *Controller) inertiaTick() {
	if !c.inertial {
		return
	}
	c.Pan(c.velocity)
	c.velocity *= inertiaDecay
	if math.Abs(c.velocity) < InertiaEpsilon {
		c.inertial = false
		c.motion = nil
		return
	}
	c.motion = c.scheduler.Schedule(c.inertiaTick)
}

// Moving reports whether a motion loop (inertia or animated reset) is
// currently armed.
func (c *Controller) Moving() bool {
	return c.inertial || c.animating
}

// CancelMotion stops any in-flight inertia or animation loop.
func (c *Controller) CancelMotion() {
	if c.motion != nil {
		c.scheduler.Cancel(c.motion)
		c.motion = nil
	}
	c.animating = false
	c.inertial = false
	c.velocity = 0
}

// fitPriceRange scans the candles inside the integer cover of
// [startIndex, endIndex] and pads the low/high extent symmetrically. A flat
// extent falls back to a minimal span so geometry never divides by zero.
func (c *Controller) fitPriceRange(startIndex, endIndex float64) (float64, float64) {
	n := len(c.candles)
	if n == 0 {
		return c.viewport.PriceMin, c.viewport.PriceMax
	}
	lo := int(math.Floor(startIndex))
	hi := int(math.Ceil(endIndex))
	if lo < 0 {
		lo = 0
	}
	if hi > n-1 {
		hi = n - 1
	}
	if hi < lo {
		hi = lo
	}
	visible := c.candles[lo : hi+1]
	min, _ := collection.MinBy(visible, func(c model.Candle) float64 { return c.Low })
	max, _ := collection.MaxBy(visible, func(c model.Candle) float64 { return c.High })

	span := max - min
	var pad float64
	if span <= 0 {
		pad = math.Max(math.Abs(max)*0.005, 1e-9)
	} else {
		pad = span * pricePadRatio
	}
	return min - pad, max + pad
}

func (c *Controller) emit() {
	if c.onChange != nil {
		c.onChange(c.viewport)
	}
}
