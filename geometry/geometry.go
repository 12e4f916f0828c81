// Package geometry holds the pure coordinate transforms between data space
// (bar index, price) and canvas pixels. Nothing here has state; everything
// is a function of (viewport, dimensions).
package geometry

import "marmot/model"

const (
	// RightMarginBars is the empty margin kept at the right edge, in bar
	// widths, so the newest candle is not flush against the border.
	RightMarginBars = 5.0

	// MinPriceSpan substitutes a flat price range before any division so a
	// run of identical prices cannot produce NaN coordinates.
	MinPriceSpan = 1e-9

	minIndexSpan = 1e-9
)

// PriceToY maps a price into the chart area, inverted (higher price, smaller
// y). The vertical padding is applied on both edges.
func PriceToY(price float64, v model.Viewport, dims model.Dimensions) float64 {
	span := v.PriceSpan()
	if span < MinPriceSpan {
		span = MinPriceSpan
	}
	area := dims.ChartArea
	usable := area.Height - 2*dims.Padding
	return area.Y + dims.Padding + (v.PriceMax-price)/span*usable
}

// YToPrice is the exact inverse of PriceToY.
func YToPrice(y float64, v model.Viewport, dims model.Dimensions) float64 {
	span := v.PriceSpan()
	if span < MinPriceSpan {
		span = MinPriceSpan
	}
	area := dims.ChartArea
	usable := area.Height - 2*dims.Padding
	if usable == 0 {
		return v.PriceMax
	}
	return v.PriceMax - (y-area.Y-dims.Padding)/usable*span
}

// SlotWidth returns the pixel width of one bar slot under the current
// viewport, counting the reserved right margin.
func SlotWidth(v model.Viewport, dims model.Dimensions) float64 {
	span := v.Span()
	if span < minIndexSpan {
		span = minIndexSpan
	}
	return dims.ChartArea.Width / (span + RightMarginBars)
}

// IndexToX maps a (fractional) bar index into the chart area, leaving
// RightMarginBars of empty slots at the right edge.
func IndexToX(index float64, v model.Viewport, dims model.Dimensions) float64 {
	return dims.ChartArea.X + (index-v.StartIndex)*SlotWidth(v, dims)
}

// XToIndex is the exact inverse of IndexToX. The result is a float: the
// fractional position within a bar is meaningful and callers round only
// when they index into the candle slice.
func XToIndex(x float64, v model.Viewport, dims model.Dimensions) float64 {
	slot := SlotWidth(v, dims)
	if slot == 0 {
		return v.StartIndex
	}
	return v.StartIndex + (x-dims.ChartArea.X)/slot
}
