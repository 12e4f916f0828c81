// Package render turns the current chart state into a raster frame. Layout
// computation (layout.go) is pure and testable; the Pipeline only walks the
// computed shapes and paints them through a go-chart raster renderer.
package render

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/golang/freetype/truetype"
	"github.com/wcharczuk/go-chart/v2"
	chartdraw "github.com/wcharczuk/go-chart/v2/drawing"

	"marmot/drawing"
	"marmot/geometry"
	"marmot/indicator"
	"marmot/model"
	"marmot/utils/log"
)

// State is everything one frame depends on. Painting is a pure function of
// it, which is what makes "repaint after every mutation" a safe discipline.
type State struct {
	Candles    []model.Candle
	Viewport   model.Viewport
	Dims       model.Dimensions
	Indicators []model.IndicatorSpec
	Drawings   []model.DrawingObject
	Pending    *model.DrawingObject
	Crosshair  model.CrosshairState
	Theme      model.Theme
}

type Pipeline struct {
	width  int
	height int
	font   *truetype.Font
}

func NewPipeline(width, height int) *Pipeline {
	font, err := chart.GetDefaultFont()
	if err != nil {
		log.Warnf("render: default font unavailable, labels disabled: %v", err)
		font = nil
	}
	return &Pipeline{width: width, height: height, font: font}
}

func (p *Pipeline) Resize(width, height int) {
	p.width = width
	p.height = height
}

func (p *Pipeline) Size() (int, int) {
	return p.width, p.height
}

// Frame paints the full layer stack (background, grid, volume, candles,
// indicators, drawings, crosshair, axes) and returns the encoded PNG.
func (p *Pipeline) Frame(s State) ([]byte, error) {
	r, err := chart.PNG(p.width, p.height)
	if err != nil {
		return nil, err
	}

	r.SetFillColor(hexColor(s.Theme.Background))
	fillBox(r, 0, 0, float64(p.width), float64(p.height))
	p.paintGrid(r, s)
	p.paintVolume(r, s)
	p.paintCandles(r, s)
	p.paintIndicators(r, s)
	for _, obj := range s.Drawings {
		p.paintDrawing(r, s, obj, false)
	}
	if s.Pending != nil {
		p.paintDrawing(r, s, *s.Pending, true)
	}
	p.paintCrosshair(r, s)

	var buf bytes.Buffer
	if err := r.Save(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

const (
	priceTicks = 5
	timeTicks  = 5
)

func (p *Pipeline) paintGrid(r chart.Renderer, s State) {
	area := s.Dims.ChartArea
	grid := hexColor(s.Theme.Grid)
	text := hexColor(s.Theme.AxisText)
	v := s.Viewport

	r.SetStrokeWidth(1)
	for i := 0; i <= priceTicks; i++ {
		price := v.PriceMax - float64(i)*v.PriceSpan()/priceTicks
		y := geometry.PriceToY(price, v, s.Dims)
		r.SetStrokeColor(grid)
		strokeLine(r, area.X, y, area.X+area.Width, y)
		p.text(r, formatPrice(price), area.X+area.Width-55, y-3, text)
	}

	lo, hi, ok := VisibleRange(v, len(s.Candles))
	if !ok {
		return
	}
	step := (hi - lo) / timeTicks
	if step < 1 {
		step = 1
	}
	for i := lo; i <= hi; i += step {
		x := geometry.IndexToX(float64(i), v, s.Dims)
		r.SetStrokeColor(grid)
		strokeLine(r, x, area.Y, x, area.Y+area.Height)
		p.text(r, s.Candles[i].Time.Format("01/02 15:04"), x-28, float64(p.height)-4, text)
	}
}

func (p *Pipeline) paintCandles(r chart.Renderer, s State) {
	up := hexColor(s.Theme.CandleUp)
	down := hexColor(s.Theme.CandleDown)
	wickUp := hexColor(s.Theme.WickUp)
	wickDown := hexColor(s.Theme.WickDown)

	r.SetStrokeWidth(1)
	for _, box := range CandleLayout(s.Candles, s.Viewport, s.Dims) {
		if box.Up {
			r.SetStrokeColor(wickUp)
			r.SetFillColor(up)
		} else {
			r.SetStrokeColor(wickDown)
			r.SetFillColor(down)
		}
		strokeLine(r, box.X, box.WickTop, box.X, box.WickBottom)
		fillBox(r, box.X-box.HalfWidth, box.BodyTop, box.X+box.HalfWidth, box.BodyBottom)
	}
}

func (p *Pipeline) paintVolume(r chart.Renderer, s State) {
	up := hexColor(s.Theme.VolumeUp)
	down := hexColor(s.Theme.VolumeDown)
	for _, bar := range VolumeLayout(s.Candles, s.Viewport, s.Dims) {
		if bar.Up {
			r.SetFillColor(up)
		} else {
			r.SetFillColor(down)
		}
		fillBox(r, bar.X-bar.HalfWidth, bar.Top, bar.X+bar.HalfWidth, bar.Bottom)
	}
}

// indicatorLine is one computed polyline of a spec: bollinger yields three,
// macd two.
type indicatorLine struct {
	values []float64
	color  string
	lane   bool
}

// computeIndicator never lets indicator math abort the frame: a panicking
// series func (custom kinds run user code) drops its own overlay only.
func computeIndicator(spec model.IndicatorSpec, s State, lo, hi int) (lines []indicatorLine) {
	defer func() {
		if r := recover(); r != nil {
			log.Warnf("[Render] indicator %s panicked, overlay skipped: %v", spec.ID, r)
			lines = nil
		}
	}()
	switch spec.Kind {
	case model.IndicatorSMA:
		return []indicatorLine{{indicator.SMA(s.Candles, lo, hi, int(spec.Param("length", 20))), spec.Color, false}}
	case model.IndicatorEMA:
		return []indicatorLine{{indicator.EMA(s.Candles, lo, hi, int(spec.Param("length", 9))), spec.Color, false}}
	case model.IndicatorBollinger:
		basis, upper, lower := indicator.BollingerBands(s.Candles, lo, hi,
			int(spec.Param("length", 20)), spec.Param("mult", 2))
		return []indicatorLine{
			{basis, spec.Color, false},
			{upper, spec.Color, false},
			{lower, spec.Color, false},
		}
	case model.IndicatorCVD:
		cumulative := spec.Param("cumulative", 1) != 0
		return []indicatorLine{{indicator.CVD(s.Candles, lo, hi, cumulative), spec.Color, true}}
	case model.IndicatorRSI:
		return []indicatorLine{{indicator.RSI(s.Candles, lo, hi, int(spec.Param("length", 14))), spec.Color, true}}
	case model.IndicatorMACD:
		macd, sig, _ := indicator.MACD(s.Candles, lo, hi,
			int(spec.Param("fast", 12)), int(spec.Param("slow", 26)), int(spec.Param("signal", 9)))
		return []indicatorLine{
			{macd, spec.Color, true},
			{sig, s.Theme.AxisText, true},
		}
	case model.IndicatorCustom:
		if spec.Custom == nil {
			return nil
		}
		return []indicatorLine{{spec.Custom(s.Candles, lo, hi), spec.Color, false}}
	}
	return nil
}

func (p *Pipeline) paintIndicators(r chart.Renderer, s State) {
	lo, hi, ok := VisibleRange(s.Viewport, len(s.Candles))
	if !ok {
		return
	}
	for _, spec := range s.Indicators {
		if !spec.Visible {
			continue
		}
		for _, line := range computeIndicator(spec, s, lo, hi) {
			if len(line.values) == 0 {
				continue
			}
			var segs [][]Point
			if line.lane {
				segs = LaneSegments(line.values, lo, s.Viewport, s.Dims)
			} else {
				segs = PriceSegments(line.values, lo, s.Viewport, s.Dims)
			}
			r.SetStrokeColor(hexColor(line.color))
			r.SetStrokeWidth(1.5)
			for _, seg := range segs {
				strokePolyline(r, seg)
			}
		}
	}
}

func (p *Pipeline) paintDrawing(r chart.Renderer, s State, obj model.DrawingObject, preview bool) {
	if len(obj.Points) == 0 {
		return
	}
	area := s.Dims.ChartArea
	v := s.Viewport
	color := hexColor(obj.Color)
	if obj.Color == "" {
		color = hexColor(s.Theme.DrawingLine)
	}
	r.SetStrokeColor(color)
	width := obj.LineWidth
	if width <= 0 {
		width = 1.5
	}
	r.SetStrokeWidth(width)
	if preview {
		r.SetStrokeDashArray([]float64{5, 5})
		defer r.SetStrokeDashArray(nil)
	}

	// anchors are re-projected from data space so drawings track the
	// viewport, not the pixels they were placed at
	x0 := geometry.IndexToX(obj.Points[0].Index, v, s.Dims)
	y0 := geometry.PriceToY(obj.Points[0].Price, v, s.Dims)

	switch obj.Type {
	case model.DrawingHorizontal:
		strokeLine(r, area.X, y0, area.X+area.Width, y0)
		p.text(r, formatPrice(obj.Points[0].Price), area.X+4, y0-3, color)
	case model.DrawingVertical:
		strokeLine(r, x0, area.Y, x0, area.Y+area.Height)
	case model.DrawingTrendline:
		if len(obj.Points) < 2 {
			return
		}
		x1 := geometry.IndexToX(obj.Points[1].Index, v, s.Dims)
		y1 := geometry.PriceToY(obj.Points[1].Price, v, s.Dims)
		strokeLine(r, x0, y0, x1, y1)
	case model.DrawingFibonacci:
		if len(obj.Points) < 2 {
			return
		}
		x1 := geometry.IndexToX(obj.Points[1].Index, v, s.Dims)
		left, right := math.Min(x0, x1), math.Max(x0, x1)
		levels := drawing.FibonacciLevels(obj.Points[0].Price, obj.Points[1].Price)
		for i, price := range levels {
			y := geometry.PriceToY(price, v, s.Dims)
			strokeLine(r, left, y, right, y)
			label := fmt.Sprintf("%.3f  %s", drawing.FibonacciRatios[i], formatPrice(price))
			p.text(r, label, right+4, y+3, color)
		}
	}
}

func (p *Pipeline) paintCrosshair(r chart.Renderer, s State) {
	if !s.Crosshair.Visible {
		return
	}
	area := s.Dims.ChartArea
	color := hexColor(s.Theme.Crosshair)
	r.SetStrokeColor(color)
	r.SetStrokeWidth(1)
	r.SetStrokeDashArray([]float64{4, 4})
	strokeLine(r, area.X, s.Crosshair.Y, area.X+area.Width, s.Crosshair.Y)
	strokeLine(r, s.Crosshair.X, 0, s.Crosshair.X, float64(p.height))
	r.SetStrokeDashArray(nil)

	p.text(r, formatPrice(s.Crosshair.Price), area.X+area.Width-55, s.Crosshair.Y-3, color)
	if s.Crosshair.Candle != nil {
		label := time.UnixMilli(s.Crosshair.Time).UTC().Format("01/02 15:04")
		p.text(r, label, s.Crosshair.X+4, float64(p.height)-14, color)
	}
}

func (p *Pipeline) text(r chart.Renderer, body string, x, y float64, color chartdraw.Color) {
	if p.font == nil {
		return
	}
	r.SetFont(p.font)
	r.SetFontSize(10)
	r.SetFontColor(color)
	r.Text(body, int(math.Round(x)), int(math.Round(y)))
}

func hexColor(hex string) chartdraw.Color {
	if hex == "" {
		return chartdraw.Color{}
	}
	return chartdraw.ColorFromHex(strings.TrimPrefix(hex, "#"))
}

func strokeLine(r chart.Renderer, x1, y1, x2, y2 float64) {
	r.MoveTo(int(math.Round(x1)), int(math.Round(y1)))
	r.LineTo(int(math.Round(x2)), int(math.Round(y2)))
	r.Stroke()
}

func strokePolyline(r chart.Renderer, points []Point) {
	if len(points) < 2 {
		return
	}
	r.MoveTo(int(math.Round(points[0].X)), int(math.Round(points[0].Y)))
	for _, pt := range points[1:] {
		r.LineTo(int(math.Round(pt.X)), int(math.Round(pt.Y)))
	}
	r.Stroke()
}

func fillBox(r chart.Renderer, x1, y1, x2, y2 float64) {
	l, t := int(math.Round(x1)), int(math.Round(y1))
	rt, b := int(math.Round(x2)), int(math.Round(y2))
	r.MoveTo(l, t)
	r.LineTo(rt, t)
	r.LineTo(rt, b)
	r.LineTo(l, b)
	r.Close()
	r.Fill()
}

func formatPrice(v float64) string {
	abs := math.Abs(v)
	switch {
	case abs >= 10000:
		return fmt.Sprintf("%.0f", v)
	case abs >= 1:
		return fmt.Sprintf("%.2f", v)
	default:
		return fmt.Sprintf("%.6f", v)
	}
}
