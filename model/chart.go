package model

// Viewport is the visible sub-range of the candle sequence plus the
// displayed price range. Indices are floats on purpose: panning and zooming
// move the window by fractions of a bar, which is what keeps smooth
// scrolling free of per-bar stepping. They are only rounded at the moment a
// candle is looked up by index.
type Viewport struct {
	StartIndex float64 `json:"startIndex"`
	EndIndex   float64 `json:"endIndex"`
	PriceMin   float64 `json:"priceMin"`
	PriceMax   float64 `json:"priceMax"`
}

// Span returns the visible index-range width in bars.
func (v Viewport) Span() float64 {
	return v.EndIndex - v.StartIndex
}

// PriceSpan returns the displayed price range height.
func (v Viewport) PriceSpan() float64 {
	return v.PriceMax - v.PriceMin
}

// Rect is an axis-aligned box in canvas pixels.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains checks if a point is inside the rect.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height
}

// IsEmpty checks if the rect has zero or negative area.
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Center returns the center point of the rect.
func (r Rect) Center() (float64, float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Dimensions describes the pixel layout of the chart surface. It is derived
// once per resize and passed by reference to geometry and rendering.
type Dimensions struct {
	ChartArea  Rect    `json:"chartArea"`
	VolumeArea Rect    `json:"volumeArea"`
	Padding    float64 `json:"padding"`
}

// NewDimensions splits a canvas of the given pixel size into the price
// chart area (top) and the volume lane (bottom fifth).
func NewDimensions(width, height float64) Dimensions {
	volumeHeight := height * 0.2
	return Dimensions{
		ChartArea:  Rect{X: 0, Y: 0, Width: width, Height: height - volumeHeight},
		VolumeArea: Rect{X: 0, Y: height - volumeHeight, Width: width, Height: volumeHeight},
		Padding:    10,
	}
}

type DrawingType string

const (
	DrawingTrendline  DrawingType = "trendline"
	DrawingHorizontal DrawingType = "horizontal"
	DrawingVertical   DrawingType = "vertical"
	DrawingFibonacci  DrawingType = "fibonacci"
)

// PointCount returns how many anchor points the tool needs before it is
// complete. Horizontal/vertical guides commit on a single point.
func (t DrawingType) PointCount() int {
	switch t {
	case DrawingHorizontal, DrawingVertical:
		return 1
	default:
		return 2
	}
}

// DrawingPoint anchors a drawing both in pixel space (where it was placed)
// and in data space (price + bar index + time), so the object can be
// re-projected when the viewport moves.
type DrawingPoint struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Price float64 `json:"price"`
	Index float64 `json:"index"`
	Time  int64   `json:"time"`
}

type DrawingObject struct {
	ID         string         `json:"id"`
	Type       DrawingType    `json:"type"`
	Points     []DrawingPoint `json:"points"`
	Color      string         `json:"color"`
	LineWidth  float64        `json:"lineWidth"`
	IsComplete bool           `json:"isComplete"`
}

// CrosshairState is the pointer-synced readout at the current cursor
// position. It is fully derived from the viewport and the last pointer
// event; there is no lifecycle beyond "last computed value".
type CrosshairState struct {
	Visible bool    `json:"visible"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Price   float64 `json:"price"`
	Time    int64   `json:"time"`
	Candle  *Candle `json:"candle,omitempty"`
}

type IndicatorKind string

const (
	IndicatorSMA       IndicatorKind = "sma"
	IndicatorEMA       IndicatorKind = "ema"
	IndicatorBollinger IndicatorKind = "bollinger"
	IndicatorCVD       IndicatorKind = "cvd"
	IndicatorRSI       IndicatorKind = "rsi"
	IndicatorMACD      IndicatorKind = "macd"
	IndicatorCustom    IndicatorKind = "custom"
)

// IndicatorSpec selects an overlay series and its parameters. Specs are
// re-read every frame; a spec that produces NaNs simply leaves gaps in the
// drawn line.
type IndicatorSpec struct {
	ID      string             `json:"id"`
	Kind    IndicatorKind      `json:"kind"`
	Visible bool               `json:"visible"`
	Params  map[string]float64 `json:"params,omitempty"`
	Color   string             `json:"color"`

	// Custom is only consulted for IndicatorCustom specs. It receives the
	// full candle slice and the visible absolute index range and must return
	// one value per visible index.
	Custom func(candles []Candle, start, end int) []float64 `json:"-"`
}

// Param returns a named parameter with a fallback default.
func (s IndicatorSpec) Param(name string, def float64) float64 {
	if v, ok := s.Params[name]; ok {
		return v
	}
	return def
}
