package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"marmot/model"
)

func testDims() model.Dimensions {
	return model.NewDimensions(800, 600)
}

func testViewport() model.Viewport {
	return model.Viewport{StartIndex: 10, EndIndex: 60, PriceMin: 100, PriceMax: 200}
}

func TestPriceToYRoundTrip(t *testing.T) {
	v := testViewport()
	dims := testDims()

	for _, price := range []float64{100, 123.45, 150, 199.99, 200} {
		y := PriceToY(price, v, dims)
		require.InDelta(t, price, YToPrice(y, v, dims), 1e-9)
	}
}

func TestPriceToYInverted(t *testing.T) {
	v := testViewport()
	dims := testDims()

	yLow := PriceToY(v.PriceMin, v, dims)
	yHigh := PriceToY(v.PriceMax, v, dims)
	require.Greater(t, yLow, yHigh, "higher price must map to smaller y")

	// padding keeps both extremes inside the chart area
	require.InDelta(t, dims.ChartArea.Y+dims.Padding, yHigh, 1e-9)
	require.InDelta(t, dims.ChartArea.Y+dims.ChartArea.Height-dims.Padding, yLow, 1e-9)
}

func TestIndexToXRoundTrip(t *testing.T) {
	v := testViewport()
	dims := testDims()

	for _, index := range []float64{10, 17.25, 35, 59.999} {
		x := IndexToX(index, v, dims)
		require.InDelta(t, index, XToIndex(x, v, dims), 1e-9)
	}
}

func TestSlotWidthReservesRightMargin(t *testing.T) {
	v := testViewport()
	dims := testDims()

	slot := SlotWidth(v, dims)
	require.InDelta(t, dims.ChartArea.Width/(v.Span()+RightMarginBars), slot, 1e-9)

	// the last visible bar sits RightMarginBars slots from the right edge
	lastX := IndexToX(v.EndIndex, v, dims)
	require.InDelta(t, dims.ChartArea.Width-RightMarginBars*slot, lastX, 1e-9)
}

func TestFlatPriceRangeStaysFinite(t *testing.T) {
	v := model.Viewport{StartIndex: 0, EndIndex: 10, PriceMin: 150, PriceMax: 150}
	dims := testDims()

	y := PriceToY(150, v, dims)
	require.False(t, math.IsNaN(y))
	require.False(t, math.IsInf(y, 0))

	price := YToPrice(y, v, dims)
	require.False(t, math.IsNaN(price))
}

func TestZeroIndexSpanStaysFinite(t *testing.T) {
	v := model.Viewport{StartIndex: 5, EndIndex: 5, PriceMin: 100, PriceMax: 200}
	dims := testDims()

	x := IndexToX(5, v, dims)
	require.False(t, math.IsNaN(x))
	require.False(t, math.IsInf(x, 0))
}
