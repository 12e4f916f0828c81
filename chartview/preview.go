package chartview

import (
	"fmt"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/gofiber/fiber/v2"

	"marmot/indicator"
	"marmot/model"
)

// previewPage renders the whole candle history as an interactive echarts
// page. This is a data sanity view; the canonical raster output is /frame.
func (s *Server) previewPage(ctx *fiber.Ctx) error {
	page := components.NewPage()
	page.PageTitle = "Marmot Chart"

	candles := s.chart.Candles()
	page.AddCharts(buildCandleChart(candles), buildOverlayChart(candles))

	ctx.Set("Content-Type", "text/html")
	return page.Render(ctx.Response().BodyWriter())
}

func buildCandleChart(candles []model.Candle) *charts.Kline {
	n := len(candles)
	if n == 0 {
		return charts.NewKLine()
	}

	xVals := make([]string, n)
	kValues := make([]opts.KlineData, n)
	closes := make(model.Series[float64], n)

	// go-echarts Kline wants [open, close, low, high]
	for i, c := range candles {
		xVals[i] = c.Time.Format("01/02 15:04")
		kValues[i] = opts.KlineData{
			Value: [4]float64{c.Open, c.Close, c.Low, c.High},
		}
		closes[i] = c.Close
	}

	kline := charts.NewKLine()
	kline.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: fmt.Sprintf("Candle Chart (last %.2f)", closes.Last(0)),
			Show:  opts.Bool(true),
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show: opts.Bool(true),
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(true),
		}),
	)
	kline.SetXAxis(xVals).
		AddSeries("KLine", kValues).
		SetSeriesOptions(charts.WithItemStyleOpts(opts.ItemStyle{
			Color:        "#ec0000",
			Color0:       "#00da3c",
			BorderColor:  "#8A0000",
			BorderColor0: "#008F28",
		}))
	return kline
}

// buildOverlayChart plots SMA(20) and EMA(9) over the full history so the
// overlay math can be eyeballed against the kline above.
func buildOverlayChart(candles []model.Candle) *charts.Line {
	n := len(candles)
	if n == 0 {
		return charts.NewLine()
	}

	sma := indicator.SMA(candles, 0, n, 20)
	ema := indicator.EMA(candles, 0, n, 9)

	xVals := make([]string, n)
	smaSeries := make([]opts.LineData, n)
	emaSeries := make([]opts.LineData, n)
	for i, c := range candles {
		xVals[i] = c.Time.Format("01/02 15:04")
		smaSeries[i] = lineValue(sma[i])
		emaSeries[i] = lineValue(ema[i])
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: "Overlays",
			Show:  opts.Bool(true),
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show: opts.Bool(true),
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(true),
		}),
	)
	line.SetXAxis(xVals).
		AddSeries("SMA(20)", smaSeries).
		AddSeries("EMA(9)", emaSeries).
		SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{
			Smooth: opts.Bool(true),
		}))
	return line
}

// lineValue maps NaN warmup samples to nil so echarts leaves a gap.
func lineValue(v float64) opts.LineData {
	if math.IsNaN(v) {
		return opts.LineData{Value: nil}
	}
	return opts.LineData{Value: v}
}
