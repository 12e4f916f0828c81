package indicator

import (
	"math"

	"github.com/markcheno/go-talib"

	"marmot/model"
)

func closes(candles []model.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// window cuts the visible range out of a full-length series, replacing the
// first warmup entries (talib emits zeros there) with NaN.
func window(full []float64, start, end, warmup int) []float64 {
	out := make([]float64, end-start+1)
	for i := start; i <= end; i++ {
		if i < warmup {
			out[i-start] = math.NaN()
		} else {
			out[i-start] = full[i]
		}
	}
	return out
}

// RSI delegates to ta-lib's Wilder RSI over the full close series and cuts
// out the visible window.
func RSI(candles []model.Candle, start, end, length int) []float64 {
	start, end, ok := clampWindow(len(candles), start, end)
	if !ok || length < 1 {
		return nil
	}
	if len(candles) <= length {
		return nanSlice(end - start + 1)
	}
	full := talib.Rsi(closes(candles), length)
	return window(full, start, end, length)
}

// MACD delegates to ta-lib, returning the MACD line, signal line and
// histogram for the visible window.
func MACD(candles []model.Candle, start, end, fast, slow, signal int) (macd, sig, hist []float64) {
	start, end, ok := clampWindow(len(candles), start, end)
	if !ok || fast < 1 || slow < 1 || signal < 1 {
		return nil, nil, nil
	}
	warmup := slow + signal - 2
	if len(candles) <= warmup {
		size := end - start + 1
		return nanSlice(size), nanSlice(size), nanSlice(size)
	}
	m, s, h := talib.Macd(closes(candles), fast, slow, signal)
	return window(m, start, end, warmup), window(s, start, end, warmup), window(h, start, end, warmup)
}
