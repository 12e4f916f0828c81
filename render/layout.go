package render

import (
	"math"

	"marmot/geometry"
	"marmot/model"
)

// Point is a canvas-space vertex of a computed polyline.
type Point struct {
	X float64
	Y float64
}

// CandleBox is the computed pixel layout of one visible candle.
type CandleBox struct {
	Index      int
	X          float64 // center of the bar slot
	HalfWidth  float64
	BodyTop    float64
	BodyBottom float64
	WickTop    float64
	WickBottom float64
	Up         bool
}

// VolumeBar is the computed pixel layout of one volume lane bar.
type VolumeBar struct {
	Index     int
	X         float64
	HalfWidth float64
	Top       float64
	Bottom    float64
	Up        bool
}

// VisibleRange returns the integer candle range covered by the viewport,
// clamped to the sequence. ok is false when nothing is visible.
func VisibleRange(v model.Viewport, candleCount int) (int, int, bool) {
	if candleCount == 0 {
		return 0, 0, false
	}
	lo := int(math.Floor(v.StartIndex))
	hi := int(math.Ceil(v.EndIndex))
	if lo < 0 {
		lo = 0
	}
	if hi > candleCount-1 {
		hi = candleCount - 1
	}
	if hi < lo {
		return 0, 0, false
	}
	return lo, hi, true
}

// CandleLayout computes the box for every candle in view. The body spans
// open/close, the wick high/low; a flat body still gets a minimal 1px
// height so dojis stay visible.
func CandleLayout(candles []model.Candle, v model.Viewport, dims model.Dimensions) []CandleBox {
	lo, hi, ok := VisibleRange(v, len(candles))
	if !ok {
		return nil
	}
	half := geometry.SlotWidth(v, dims) * 0.4
	if half < 0.5 {
		half = 0.5
	}
	boxes := make([]CandleBox, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		c := candles[i]
		top := geometry.PriceToY(math.Max(c.Open, c.Close), v, dims)
		bottom := geometry.PriceToY(math.Min(c.Open, c.Close), v, dims)
		if bottom-top < 1 {
			bottom = top + 1
		}
		boxes = append(boxes, CandleBox{
			Index:      i,
			X:          geometry.IndexToX(float64(i), v, dims),
			HalfWidth:  half,
			BodyTop:    top,
			BodyBottom: bottom,
			WickTop:    geometry.PriceToY(c.High, v, dims),
			WickBottom: geometry.PriceToY(c.Low, v, dims),
			Up:         c.Bullish(),
		})
	}
	return boxes
}

// VolumeLayout scales the visible volumes into the volume lane.
func VolumeLayout(candles []model.Candle, v model.Viewport, dims model.Dimensions) []VolumeBar {
	lo, hi, ok := VisibleRange(v, len(candles))
	if !ok {
		return nil
	}
	maxVolume := 0.0
	for i := lo; i <= hi; i++ {
		if candles[i].Volume > maxVolume {
			maxVolume = candles[i].Volume
		}
	}
	if maxVolume <= 0 {
		return nil
	}
	area := dims.VolumeArea
	half := geometry.SlotWidth(v, dims) * 0.4
	if half < 0.5 {
		half = 0.5
	}
	bars := make([]VolumeBar, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		c := candles[i]
		height := c.Volume / maxVolume * (area.Height - dims.Padding)
		bars = append(bars, VolumeBar{
			Index:     i,
			X:         geometry.IndexToX(float64(i), v, dims),
			HalfWidth: half,
			Top:       area.Y + area.Height - height,
			Bottom:    area.Y + area.Height,
			Up:        c.Bullish(),
		})
	}
	return bars
}

// PriceSegments turns an indicator series (aligned to startIndex) into
// chart-area polyline segments. NaN entries split the line: the gap is left
// empty, never bridged.
func PriceSegments(values []float64, startIndex int, v model.Viewport, dims model.Dimensions) [][]Point {
	return segments(values, startIndex, v, dims, func(val float64) float64 {
		return geometry.PriceToY(val, v, dims)
	})
}

// LaneSegments maps a series with its own scale (CVD, RSI, MACD) into the
// volume lane, normalized to the series' visible min/max.
func LaneSegments(values []float64, startIndex int, v model.Viewport, dims model.Dimensions) [][]Point {
	min, max := math.Inf(1), math.Inf(-1)
	for _, val := range values {
		if math.IsNaN(val) {
			continue
		}
		min = math.Min(min, val)
		max = math.Max(max, val)
	}
	if min > max {
		return nil
	}
	span := max - min
	if span <= 0 {
		span = 1
	}
	area := dims.VolumeArea
	usable := area.Height - dims.Padding
	return segments(values, startIndex, v, dims, func(val float64) float64 {
		return area.Y + area.Height - (val-min)/span*usable
	})
}

func segments(values []float64, startIndex int, v model.Viewport, dims model.Dimensions, yOf func(float64) float64) [][]Point {
	var out [][]Point
	var current []Point
	for i, val := range values {
		if math.IsNaN(val) || math.IsInf(val, 0) {
			if len(current) > 1 {
				out = append(out, current)
			}
			current = nil
			continue
		}
		current = append(current, Point{
			X: geometry.IndexToX(float64(startIndex+i), v, dims),
			Y: yOf(val),
		})
	}
	if len(current) > 1 {
		out = append(out, current)
	}
	return out
}
