package render

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"marmot/geometry"
	"marmot/model"
)

func makeCandles(n int) []model.Candle {
	candles := make([]model.Candle, n)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range candles {
		price := 100 + float64(i)
		candles[i] = model.Candle{
			Time:   base.Add(time.Duration(i) * time.Minute),
			Open:   price,
			Close:  price + 1,
			Low:    price - 2,
			High:   price + 3,
			Volume: float64(1 + i%5),
		}
	}
	return candles
}

func TestVisibleRangeClamps(t *testing.T) {
	v := model.Viewport{StartIndex: -3.7, EndIndex: 25.2}
	lo, hi, ok := VisibleRange(v, 10)
	require.True(t, ok)
	require.Equal(t, 0, lo)
	require.Equal(t, 9, hi)

	_, _, ok = VisibleRange(v, 0)
	require.False(t, ok)

	_, _, ok = VisibleRange(model.Viewport{StartIndex: 50, EndIndex: 60}, 10)
	require.False(t, ok)
}

func TestVisibleRangeFractionalCover(t *testing.T) {
	lo, hi, ok := VisibleRange(model.Viewport{StartIndex: 2.3, EndIndex: 7.1}, 100)
	require.True(t, ok)
	require.Equal(t, 2, lo, "partially visible bars are included")
	require.Equal(t, 8, hi)
}

func TestCandleLayoutGeometry(t *testing.T) {
	candles := makeCandles(20)
	v := model.Viewport{StartIndex: 0, EndIndex: 19, PriceMin: 90, PriceMax: 130}
	dims := model.NewDimensions(800, 600)

	boxes := CandleLayout(candles, v, dims)
	require.Len(t, boxes, 20)

	box := boxes[5]
	require.Equal(t, 5, box.Index)
	require.InDelta(t, geometry.IndexToX(5, v, dims), box.X, 1e-9)
	require.True(t, box.Up)
	require.Less(t, box.BodyTop, box.BodyBottom)
	require.LessOrEqual(t, box.WickTop, box.BodyTop)
	require.GreaterOrEqual(t, box.WickBottom, box.BodyBottom)
}

func TestCandleLayoutDojiKeepsMinimalBody(t *testing.T) {
	doji := []model.Candle{{Open: 100, Close: 100, Low: 99, High: 101, Volume: 1}}
	v := model.Viewport{StartIndex: 0, EndIndex: 1e-6, PriceMin: 98, PriceMax: 102}
	dims := model.NewDimensions(800, 600)

	boxes := CandleLayout(doji, v, dims)
	require.Len(t, boxes, 1)
	require.GreaterOrEqual(t, boxes[0].BodyBottom-boxes[0].BodyTop, 1.0)
}

func TestVolumeLayoutScalesToMax(t *testing.T) {
	candles := makeCandles(10)
	v := model.Viewport{StartIndex: 0, EndIndex: 9, PriceMin: 90, PriceMax: 120}
	dims := model.NewDimensions(800, 600)

	bars := VolumeLayout(candles, v, dims)
	require.Len(t, bars, 10)

	tallest := 0.0
	for _, bar := range bars {
		require.InDelta(t, dims.VolumeArea.Y+dims.VolumeArea.Height, bar.Bottom, 1e-9)
		tallest = math.Max(tallest, bar.Bottom-bar.Top)
	}
	require.InDelta(t, dims.VolumeArea.Height-dims.Padding, tallest, 1e-9)
}

func TestVolumeLayoutAllZeroVolumes(t *testing.T) {
	candles := []model.Candle{{High: 1, Low: 0}, {High: 1, Low: 0}}
	v := model.Viewport{StartIndex: 0, EndIndex: 1, PriceMin: 0, PriceMax: 1}
	require.Nil(t, VolumeLayout(candles, v, model.NewDimensions(800, 600)))
}

func TestPriceSegmentsSplitOnNaN(t *testing.T) {
	v := model.Viewport{StartIndex: 0, EndIndex: 9, PriceMin: 0, PriceMax: 10}
	dims := model.NewDimensions(800, 600)
	values := []float64{1, 2, 3, math.NaN(), 5, 6, math.Inf(1), 8, 9}

	segs := PriceSegments(values, 0, v, dims)
	require.Len(t, segs, 3, "NaN and Inf gaps must not be bridged")
	require.Len(t, segs[0], 3)
	require.Len(t, segs[1], 2)
	require.Len(t, segs[2], 2)
}

func TestPriceSegmentsDropSinglePoints(t *testing.T) {
	v := model.Viewport{StartIndex: 0, EndIndex: 4, PriceMin: 0, PriceMax: 10}
	dims := model.NewDimensions(800, 600)
	values := []float64{math.NaN(), 3, math.NaN(), 4, math.NaN()}

	require.Empty(t, PriceSegments(values, 0, v, dims))
}

func TestLaneSegmentsNormalizeToOwnScale(t *testing.T) {
	v := model.Viewport{StartIndex: 0, EndIndex: 2, PriceMin: 0, PriceMax: 10}
	dims := model.NewDimensions(800, 600)
	values := []float64{-50, 0, 50}

	segs := LaneSegments(values, 0, v, dims)
	require.Len(t, segs, 1)
	require.Len(t, segs[0], 3)

	area := dims.VolumeArea
	// min maps to the lane bottom, max to the padded top
	require.InDelta(t, area.Y+area.Height, segs[0][0].Y, 1e-9)
	require.InDelta(t, area.Y+dims.Padding, segs[0][2].Y, 1e-9)

	for _, pt := range segs[0] {
		require.GreaterOrEqual(t, pt.Y, area.Y)
	}
}

func TestLaneSegmentsAllNaN(t *testing.T) {
	v := model.Viewport{StartIndex: 0, EndIndex: 2, PriceMin: 0, PriceMax: 10}
	values := []float64{math.NaN(), math.NaN(), math.NaN()}
	require.Nil(t, LaneSegments(values, 0, v, model.NewDimensions(800, 600)))
}
