package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"marmot/model"
)

func secondCandle(sec int, open, high, low, close, volume float64) model.Candle {
	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	t := base.Add(time.Duration(sec) * time.Second)
	return model.Candle{
		Pair: "KRW-BTC", Time: t, UpdatedAt: t,
		Open: open, High: high, Low: low, Close: close,
		Volume: volume, Complete: true,
	}
}

func TestAggregatorBuildsPartialBar(t *testing.T) {
	agg := &candleAggregator{pair: "KRW-BTC", frame: time.Minute}

	_, partial, rolled := agg.push(secondCandle(0, 100, 105, 99, 104, 2))
	require.False(t, rolled)
	require.False(t, partial.Complete)
	require.InDelta(t, 100, partial.Open, 1e-9)
	require.InDelta(t, 104, partial.Close, 1e-9)

	_, partial, rolled = agg.push(secondCandle(30, 104, 110, 103, 108, 3))
	require.False(t, rolled)
	require.InDelta(t, 100, partial.Open, 1e-9)
	require.InDelta(t, 108, partial.Close, 1e-9)
	require.InDelta(t, 110, partial.High, 1e-9)
	require.InDelta(t, 99, partial.Low, 1e-9)
	require.InDelta(t, 5, partial.Volume, 1e-9)
	require.Equal(t, time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC), partial.Time)
}

func TestAggregatorRollsOverOnFrameBoundary(t *testing.T) {
	agg := &candleAggregator{pair: "KRW-BTC", frame: time.Minute}

	agg.push(secondCandle(0, 100, 105, 99, 104, 2))
	agg.push(secondCandle(59, 104, 106, 100, 105, 1))

	finished, partial, rolled := agg.push(secondCandle(60, 105, 107, 104, 106, 4))
	require.True(t, rolled)

	require.True(t, finished.Complete)
	require.Equal(t, time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC), finished.Time)
	require.InDelta(t, 100, finished.Open, 1e-9)
	require.InDelta(t, 105, finished.Close, 1e-9)
	require.InDelta(t, 106, finished.High, 1e-9)
	require.InDelta(t, 99, finished.Low, 1e-9)
	require.InDelta(t, 3, finished.Volume, 1e-9)

	require.False(t, partial.Complete)
	require.Equal(t, time.Date(2026, 1, 1, 9, 1, 0, 0, time.UTC), partial.Time)
	require.InDelta(t, 105, partial.Open, 1e-9)
	require.InDelta(t, 4, partial.Volume, 1e-9)
}

func TestTimeframeDuration(t *testing.T) {
	cases := map[string]time.Duration{
		"1m":  time.Minute,
		"5m":  5 * time.Minute,
		"15m": 15 * time.Minute,
		"1h":  time.Hour,
		"4h":  4 * time.Hour,
		"1d":  24 * time.Hour,
	}
	for in, want := range cases {
		got, err := TimeframeDuration(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "m", "0m", "-5m", "3x", "1w"} {
		_, err := TimeframeDuration(bad)
		require.Error(t, err, bad)
	}
}

func TestTimeframeMinutesUpbitUnits(t *testing.T) {
	minutes, err := TimeframeMinutes("15m")
	require.NoError(t, err)
	require.Equal(t, 15, minutes)

	minutes, err = TimeframeMinutes("4h")
	require.NoError(t, err)
	require.Equal(t, 240, minutes)

	// upbit has no 2h REST unit
	_, err = TimeframeMinutes("2h")
	require.Error(t, err)

	_, err = TimeframeMinutes("1d")
	require.Error(t, err)
}

func TestConvertRESTCandlesSortsAscending(t *testing.T) {
	raw := []upbitRESTCandle{
		{Market: "KRW-BTC", CandleDateTimeUtc: "2026-01-01T09:02:00", OpeningPrice: 3, HighPrice: 4, LowPrice: 2, TradePrice: 3.5, CandleAccTradeVolume: 1},
		{Market: "KRW-BTC", CandleDateTimeUtc: "2026-01-01T09:01:00", OpeningPrice: 2, HighPrice: 3, LowPrice: 1, TradePrice: 2.5, CandleAccTradeVolume: 1},
		{Market: "KRW-BTC", CandleDateTimeUtc: "not-a-time", OpeningPrice: 9, HighPrice: 9, LowPrice: 9, TradePrice: 9, CandleAccTradeVolume: 9},
		{Market: "KRW-BTC", CandleDateTimeUtc: "2026-01-01T09:00:00", OpeningPrice: 1, HighPrice: 2, LowPrice: 0, TradePrice: 1.5, CandleAccTradeVolume: 1},
	}

	candles := convertRESTCandles(raw)
	require.Len(t, candles, 3, "unparseable rows are dropped")
	require.True(t, candles[0].Time.Before(candles[1].Time))
	require.True(t, candles[1].Time.Before(candles[2].Time))
	require.InDelta(t, 1, candles[0].Open, 1e-9)
	require.True(t, candles[0].Complete)
}
