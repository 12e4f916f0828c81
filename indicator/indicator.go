// Package indicator computes overlay series from a candle window. Every
// function is stateless: given the full candle slice and the visible
// absolute index range [start, end] it returns one value per visible index,
// with NaN wherever the trailing lookback is not yet satisfied.
package indicator

import (
	"math"

	"marmot/model"
)

// clampWindow normalizes a visible range against the candle count. ok is
// false when nothing is visible.
func clampWindow(n, start, end int) (int, int, bool) {
	if n == 0 {
		return 0, 0, false
	}
	if start < 0 {
		start = 0
	}
	if end > n-1 {
		end = n - 1
	}
	if end < start {
		return 0, 0, false
	}
	return start, end, true
}

func nanSlice(size int) []float64 {
	out := make([]float64, size)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// SMA is the arithmetic mean of close over the trailing length bars.
func SMA(candles []model.Candle, start, end, length int) []float64 {
	start, end, ok := clampWindow(len(candles), start, end)
	if !ok || length < 1 {
		return nil
	}
	out := make([]float64, end-start+1)
	for i := start; i <= end; i++ {
		if i < length-1 {
			out[i-start] = math.NaN()
			continue
		}
		sum := 0.0
		for j := i - length + 1; j <= i; j++ {
			sum += candles[j].Close
		}
		out[i-start] = sum / float64(length)
	}
	return out
}

// EMA is seeded at the first visible close and follows the standard
// recurrence ema = close*k + ema*(1-k) with k = 2/(length+1).
func EMA(candles []model.Candle, start, end, length int) []float64 {
	start, end, ok := clampWindow(len(candles), start, end)
	if !ok || length < 1 {
		return nil
	}
	k := 2.0 / (float64(length) + 1)
	out := make([]float64, end-start+1)
	prev := candles[start].Close
	out[0] = prev
	for i := start + 1; i <= end; i++ {
		prev = candles[i].Close*k + prev*(1-k)
		out[i-start] = prev
	}
	return out
}

// BollingerBands returns the SMA basis plus bands at basis +/- mult times
// the population standard deviation over the same trailing window. Indices
// with an unsatisfied lookback are NaN in all three series.
func BollingerBands(candles []model.Candle, start, end, length int, mult float64) (basis, upper, lower []float64) {
	start, end, ok := clampWindow(len(candles), start, end)
	if !ok || length < 1 {
		return nil, nil, nil
	}
	size := end - start + 1
	basis = make([]float64, size)
	upper = make([]float64, size)
	lower = make([]float64, size)
	for i := start; i <= end; i++ {
		o := i - start
		if i < length-1 {
			basis[o], upper[o], lower[o] = math.NaN(), math.NaN(), math.NaN()
			continue
		}
		sum := 0.0
		for j := i - length + 1; j <= i; j++ {
			sum += candles[j].Close
		}
		ma := sum / float64(length)
		variance := 0.0
		for j := i - length + 1; j <= i; j++ {
			variance += math.Pow(candles[j].Close-ma, 2)
		}
		stdev := math.Sqrt(variance / float64(length))
		basis[o] = ma
		upper[o] = ma + mult*stdev
		lower[o] = ma - mult*stdev
	}
	return basis, upper, lower
}

// VolumeDelta estimates per-bar buy and sell volume from where the close
// landed within the bar's range. This is an estimate, not order flow: with
// no tick data behind it, volume is split by closeRatio = (close-low)/(high-low).
func VolumeDelta(c model.Candle) (buy, sell float64) {
	span := c.High - c.Low
	if span <= 0 {
		return c.Volume / 2, c.Volume / 2
	}
	closeRatio := (c.Close - c.Low) / span
	buy = c.Volume * closeRatio
	sell = c.Volume * (1 - closeRatio)
	return buy, sell
}

// CVD is the estimated cumulative volume delta over the visible window.
// With cumulative=false it returns the raw per-bar delta instead of the
// running sum. The sum starts at zero on the first visible bar.
func CVD(candles []model.Candle, start, end int, cumulative bool) []float64 {
	start, end, ok := clampWindow(len(candles), start, end)
	if !ok {
		return nil
	}
	out := make([]float64, end-start+1)
	running := 0.0
	for i := start; i <= end; i++ {
		buy, sell := VolumeDelta(candles[i])
		delta := buy - sell
		if cumulative {
			running += delta
			out[i-start] = running
		} else {
			out[i-start] = delta
		}
	}
	return out
}
