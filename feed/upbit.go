package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"marmot/model"
	"marmot/utils/collection"
	"marmot/utils/log"
	utilresty "marmot/utils/resty"
)

const (
	upbitBaseREST = "https://api.upbit.com"
	upbitBaseWS   = "wss://api.upbit.com/websocket/v1"
)

// UpbitSource serves candles from Upbit's public endpoints only: REST for
// history, the candle.1s websocket stream for live data. No credentials
// are involved anywhere.
type UpbitSource struct {
	rest utilresty.RestyClient

	candleCh chan model.Candle
	errCh    chan error

	aggMtx      sync.Mutex
	aggregators map[string]*candleAggregator

	wsMtx     sync.Mutex
	wsRunning bool
	wsConn    *websocket.Conn

	ctx    context.Context
	cancel context.CancelFunc
}

func NewUpbitSource() *UpbitSource {
	ctx, cancel := context.WithCancel(context.Background())
	return &UpbitSource{
		rest:        utilresty.NewDefaultRestyClient(2),
		candleCh:    make(chan model.Candle, 64),
		errCh:       make(chan error, 8),
		aggregators: make(map[string]*candleAggregator),
		ctx:         ctx,
		cancel:      cancel,
	}
}

type upbitRESTCandle struct {
	Market               string  `json:"market"`
	CandleDateTimeUtc    string  `json:"candle_date_time_utc"`
	OpeningPrice         float64 `json:"opening_price"`
	HighPrice            float64 `json:"high_price"`
	LowPrice             float64 `json:"low_price"`
	TradePrice           float64 `json:"trade_price"`
	CandleAccTradeVolume float64 `json:"candle_acc_trade_volume"`
}

// CandlesByLimit fetches the most recent `limit` candles, oldest first.
func (u *UpbitSource) CandlesByLimit(ctx context.Context, pair, timeframe string, limit int) ([]model.Candle, error) {
	minutes, err := TimeframeMinutes(timeframe)
	if err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/v1/candles/minutes/%d", upbitBaseREST, minutes)
	res, err := u.rest.MakeRequest(ctx, nil).Get(url,
		utilresty.QueryParam{Key: "market", Value: strings.ToUpper(pair)},
		utilresty.QueryParam{Key: "count", Value: strconv.Itoa(limit)},
	)
	if err != nil {
		return nil, fmt.Errorf("upbit candles request: %w", err)
	}
	if res.StatusCode() != 200 {
		return nil, fmt.Errorf("upbit candles request: status %d", res.StatusCode())
	}
	var raw []upbitRESTCandle
	if err := json.Unmarshal(res.Body(), &raw); err != nil {
		return nil, fmt.Errorf("upbit candles decode: %w", err)
	}
	return convertRESTCandles(raw), nil
}

// convertRESTCandles maps Upbit's newest-first payload into an ascending
// model.Candle slice.
func convertRESTCandles(raw []upbitRESTCandle) []model.Candle {
	candles := make([]model.Candle, 0, len(raw))
	for _, rc := range raw {
		t, err := time.Parse("2006-01-02T15:04:05", rc.CandleDateTimeUtc)
		if err != nil {
			continue
		}
		candles = append(candles, model.Candle{
			Pair:      rc.Market,
			Time:      t,
			UpdatedAt: t,
			Open:      rc.OpeningPrice,
			High:      rc.HighPrice,
			Low:       rc.LowPrice,
			Close:     rc.TradePrice,
			Volume:    rc.CandleAccTradeVolume,
			Complete:  true,
		})
	}
	sort.Slice(candles, func(i, j int) bool {
		return candles[i].Time.Before(candles[j].Time)
	})
	return candles
}

// CandlesSubscription opens (or joins) the live websocket stream. Upbit
// only streams candle.1s, so an aggregator folds the 1s bars into the
// requested timeframe, emitting the in-progress bar after every tick and a
// completed bar when the frame rolls over.
func (u *UpbitSource) CandlesSubscription(ctx context.Context, pair, timeframe string) (chan model.Candle, chan error) {
	dur, err := TimeframeDuration(timeframe)
	if err != nil {
		u.errCh <- err
		return u.candleCh, u.errCh
	}
	u.aggMtx.Lock()
	u.aggregators[strings.ToUpper(pair)] = &candleAggregator{pair: pair, frame: dur}
	u.aggMtx.Unlock()

	go u.wsRunIfNeeded()
	return u.candleCh, u.errCh
}

func (u *UpbitSource) wsRunIfNeeded() {
	u.wsMtx.Lock()
	defer u.wsMtx.Unlock()
	if u.wsRunning {
		return
	}
	u.wsRunning = true
	go u.runWebsocket()
}

func (u *UpbitSource) runWebsocket() {
	defer func() {
		u.wsMtx.Lock()
		u.wsRunning = false
		u.wsMtx.Unlock()
	}()

	conn, _, err := websocket.DefaultDialer.Dial(upbitBaseWS, nil)
	if err != nil {
		u.errCh <- fmt.Errorf("websocket dial fail: %w", err)
		return
	}
	u.wsConn = conn
	log.Info("[UpbitWS] connected")

	u.aggMtx.Lock()
	codes := make([]string, 0, len(u.aggregators))
	for p := range u.aggregators {
		codes = append(codes, p)
	}
	u.aggMtx.Unlock()

	subMsg := []interface{}{
		map[string]string{"ticket": "marmot-chart-candle"},
		map[string]interface{}{"type": "candle.1s", "codes": codes},
		map[string]string{"format": "DEFAULT"},
	}
	if err := conn.WriteJSON(subMsg); err != nil {
		u.errCh <- fmt.Errorf("websocket subscribe fail: %w", err)
		return
	}

	for {
		select {
		case <-u.ctx.Done():
			log.Info("[UpbitWS] context canceled, closing ws")
			conn.Close()
			return
		default:
			_, msg, err := conn.ReadMessage()
			if err != nil {
				u.errCh <- fmt.Errorf("websocket read fail: %w", err)
				return
			}
			var base model.WSCandleBase
			if e := json.Unmarshal(msg, &base); e != nil {
				log.Warnf("[UpbitWS] unmarshal fail: %v", e)
				continue
			}
			if base.Error.Name != "" {
				u.errCh <- fmt.Errorf("upbit ws error: %s - %s", base.Error.Name, base.Error.Message)
				continue
			}
			if base.Type == "candle.1s" {
				u.handleCandle1s(msg)
			}
		}
	}
}

func (u *UpbitSource) handleCandle1s(msg []byte) {
	var raw model.WSCandle
	if err := json.Unmarshal(msg, &raw); err != nil {
		log.Errorf("handleCandle1s unmarshal: %v", err)
		return
	}
	t, err := time.Parse("2006-01-02T15:04:05", raw.CandleDateTimeUtc)
	if err != nil {
		return
	}
	second := model.Candle{
		Pair:      raw.Code,
		Time:      t,
		UpdatedAt: t,
		Open:      raw.OpeningPrice,
		High:      raw.HighPrice,
		Low:       raw.LowPrice,
		Close:     raw.TradePrice,
		Volume:    raw.CandleAccTradeVolume,
		Complete:  true,
	}

	u.aggMtx.Lock()
	agg, ok := u.aggregators[strings.ToUpper(raw.Code)]
	u.aggMtx.Unlock()
	if !ok {
		return
	}
	finished, partial, rolled := agg.push(second)
	if rolled {
		u.candleCh <- finished
	}
	u.candleCh <- partial
}

func (u *UpbitSource) Stop() {
	u.cancel()
	u.wsMtx.Lock()
	if u.wsConn != nil {
		u.wsConn.Close()
	}
	u.wsMtx.Unlock()
	log.Info("[Upbit] source stopped")
}

// candleAggregator folds candle.1s bars into one target-timeframe bar,
// keyed by the truncated frame start.
type candleAggregator struct {
	pair       string
	frame      time.Duration
	frameStart time.Time
	buffer     []model.Candle
}

// push adds a 1s bar. partial is the current in-progress aggregate
// (Complete=false); when the frame rolled over, finished holds the closed
// previous bar and rolled is true.
func (agg *candleAggregator) push(c model.Candle) (finished, partial model.Candle, rolled bool) {
	start := c.Time.Truncate(agg.frame)
	if agg.frameStart.IsZero() {
		agg.frameStart = start
	}
	if start.After(agg.frameStart) {
		finished = agg.aggregateBuffer()
		finished.Complete = true
		rolled = true
		agg.buffer = agg.buffer[:0]
		agg.frameStart = start
	}
	agg.buffer = append(agg.buffer, c)
	partial = agg.aggregateBuffer()
	partial.Complete = false
	return finished, partial, rolled
}

func (agg *candleAggregator) aggregateBuffer() model.Candle {
	if len(agg.buffer) == 0 {
		return model.Candle{Pair: agg.pair, Time: agg.frameStart}
	}
	first := agg.buffer[0]
	out := model.Candle{
		Pair:      agg.pair,
		Time:      agg.frameStart,
		UpdatedAt: agg.buffer[len(agg.buffer)-1].Time,
		Open:      first.Open,
		High:      first.High,
		Low:       first.Low,
		Close:     agg.buffer[len(agg.buffer)-1].Close,
		Volume:    collection.SumBy(agg.buffer, func(c model.Candle) float64 { return c.Volume }),
	}
	for _, sub := range agg.buffer[1:] {
		if sub.High > out.High {
			out.High = sub.High
		}
		if sub.Low < out.Low {
			out.Low = sub.Low
		}
	}
	return out
}

// TimeframeMinutes parses a minute-based timeframe string ("1m", "15m",
// "1h", "4h") into Upbit's REST unit.
func TimeframeMinutes(timeframe string) (int, error) {
	dur, err := TimeframeDuration(timeframe)
	if err != nil {
		return 0, err
	}
	minutes := int(dur / time.Minute)
	switch minutes {
	case 1, 3, 5, 10, 15, 30, 60, 240:
		return minutes, nil
	}
	return 0, fmt.Errorf("unsupported upbit timeframe %q", timeframe)
}

// TimeframeDuration parses "1m", "5m", "1h", "4h", "1d" style timeframes.
func TimeframeDuration(timeframe string) (time.Duration, error) {
	if len(timeframe) < 2 {
		return 0, fmt.Errorf("invalid timeframe %q", timeframe)
	}
	value, err := strconv.Atoi(timeframe[:len(timeframe)-1])
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("invalid timeframe %q", timeframe)
	}
	switch timeframe[len(timeframe)-1] {
	case 'm':
		return time.Duration(value) * time.Minute, nil
	case 'h':
		return time.Duration(value) * time.Hour, nil
	case 'd':
		return time.Duration(value) * 24 * time.Hour, nil
	}
	return 0, fmt.Errorf("invalid timeframe %q", timeframe)
}
