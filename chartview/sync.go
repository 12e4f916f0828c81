package chartview

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"marmot/model"
	"marmot/utils/log"
)

// SyncHub streams chart state changes (viewport, crosshair, candles,
// drawings) to browsers over SSE, so any number of passive views stay in
// step with the single interactive engine.
type SyncHub struct {
	mu sync.RWMutex

	candlesticks []CandleData
	lastViewport *model.Viewport

	sseClients map[chan []byte]bool
	sseMu      sync.Mutex

	server *http.Server
}

// CandleData is the compact OHLC wire form.
type CandleData struct {
	X int64   `json:"x"`
	O float64 `json:"o"`
	H float64 `json:"h"`
	L float64 `json:"l"`
	C float64 `json:"c"`

	Volume   float64 `json:"volume,omitempty"`
	Complete bool    `json:"complete,omitempty"`
}

func NewSyncHub() *SyncHub {
	return &SyncHub{
		candlesticks: []CandleData{},
		sseClients:   make(map[chan []byte]bool),
	}
}

// OnCandle records a (partial or complete) bar and broadcasts it. A bar
// sharing the last timestamp replaces it, mirroring the engine's live-bar
// update rule.
func (h *SyncHub) OnCandle(candle model.Candle) {
	cd := CandleData{
		X:        candle.Time.UnixMilli(),
		O:        candle.Open,
		H:        candle.High,
		L:        candle.Low,
		C:        candle.Close,
		Volume:   candle.Volume,
		Complete: candle.Complete,
	}
	h.mu.Lock()
	n := len(h.candlesticks)
	if n > 0 && h.candlesticks[n-1].X == cd.X {
		h.candlesticks[n-1] = cd
	} else {
		h.candlesticks = append(h.candlesticks, cd)
	}
	h.mu.Unlock()

	h.broadcastSSE("candle", cd)
}

func (h *SyncHub) OnViewport(v model.Viewport) {
	h.mu.Lock()
	h.lastViewport = &v
	h.mu.Unlock()

	h.broadcastSSE("viewport", v)
}

func (h *SyncHub) OnCrosshair(state model.CrosshairState) {
	h.broadcastSSE("crosshair", state)
}

func (h *SyncHub) OnDrawing(object model.DrawingObject) {
	h.broadcastSSE("drawing", object)
}

func (h *SyncHub) broadcastSSE(typ string, data interface{}) {
	h.sseMu.Lock()
	defer h.sseMu.Unlock()

	payload, _ := json.Marshal(struct {
		Type string      `json:"type"`
		Data interface{} `json:"data"`
	}{
		Type: typ,
		Data: data,
	})

	for ch := range h.sseClients {
		select {
		case ch <- payload:
		default:
		}
	}
}

func (h *SyncHub) sseHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	f, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported!", http.StatusInternalServerError)
		return
	}

	clientChan := make(chan []byte, 50)
	h.sseMu.Lock()
	h.sseClients[clientChan] = true
	h.sseMu.Unlock()

	notify := r.Context().Done()
	go func() {
		<-notify
		h.sseMu.Lock()
		delete(h.sseClients, clientChan)
		close(clientChan)
		h.sseMu.Unlock()
	}()

	// replay current state so a late joiner starts in sync
	h.mu.RLock()
	for _, c := range h.candlesticks {
		msg, _ := json.Marshal(struct {
			Type string     `json:"type"`
			Data CandleData `json:"data"`
		}{
			"candle", c,
		})
		fmt.Fprintf(w, "data: %s\n\n", string(msg))
	}
	if h.lastViewport != nil {
		msg, _ := json.Marshal(struct {
			Type string         `json:"type"`
			Data model.Viewport `json:"data"`
		}{
			"viewport", *h.lastViewport,
		})
		fmt.Fprintf(w, "data: %s\n\n", string(msg))
	}
	h.mu.RUnlock()
	f.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-clientChan:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", string(msg))
			f.Flush()
		}
	}
}

// Start serves /sse until the listener fails or Shutdown is called.
func (h *SyncHub) Start(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/sse", h.sseHandler)

	h.server = &http.Server{Addr: addr, Handler: mux}
	log.Infof("[SyncHub] listening on %s", addr)
	return h.server.ListenAndServe()
}

func (h *SyncHub) Shutdown(ctx context.Context) error {
	if h.server == nil {
		return nil
	}
	return h.server.Shutdown(ctx)
}
