// Package app assembles the running service: config, chart engine, sqlite
// drawing store, Upbit data feed and the two HTTP surfaces.
package app

import (
	"context"

	"marmot/chart"
	"marmot/chartview"
	"marmot/config"
	"marmot/feed"
	"marmot/model"
	"marmot/store"
	"marmot/utils/log"
)

type Marmot struct {
	cfg config.Config

	chart    *chart.Chart
	store    *store.DrawingStore
	source   *feed.UpbitSource
	dataFeed *feed.DataFeedSubscription
	server   *chartview.Server
	hub      *chartview.SyncHub

	cancel context.CancelFunc
}

func NewMarmot(cfg config.Config) (*Marmot, error) {
	log.SetLevel(cfg.App.LogLevel)

	engine := chart.New(cfg.Chart.Width, cfg.Chart.Height,
		chart.WithTheme(model.ThemeByName(cfg.Chart.Theme)),
		chart.WithIndicators(defaultIndicators()...),
	)

	drawingStore, err := store.OpenDrawingStore(cfg.Store.Path)
	if err != nil {
		return nil, err
	}

	m := &Marmot{
		cfg:    cfg,
		chart:  engine,
		store:  drawingStore,
		source: feed.NewUpbitSource(),
		hub:    chartview.NewSyncHub(),
	}
	m.dataFeed = feed.NewDataFeed(m.source)
	m.server = chartview.NewServer(engine)

	saved, err := drawingStore.Load(context.Background(), cfg.Chart.Pair)
	if err != nil {
		return nil, err
	}
	engine.RestoreDrawings(saved)
	log.Infof("[SETUP] restored %d drawings for %s", len(saved), cfg.Chart.Pair)

	// persistence and fan-out hooks; listeners run under the engine lock,
	// so anything slow goes through a goroutine
	engine.OnDrawingCommitted(func(object model.DrawingObject) {
		m.hub.OnDrawing(object)
		go func() {
			if err := drawingStore.Save(context.Background(), cfg.Chart.Pair, object); err != nil {
				log.Error("persist drawing: ", err)
			}
		}()
	})
	engine.OnViewport(m.hub.OnViewport)
	engine.OnCrosshair(m.hub.OnCrosshair)

	return m, nil
}

func defaultIndicators() []model.IndicatorSpec {
	return []model.IndicatorSpec{
		{ID: "sma-20", Kind: model.IndicatorSMA, Visible: true, Params: map[string]float64{"length": 20}, Color: "#f0a020"},
		{ID: "ema-9", Kind: model.IndicatorEMA, Visible: true, Params: map[string]float64{"length": 9}, Color: "#40a0f0"},
		{ID: "bb-20", Kind: model.IndicatorBollinger, Visible: false, Params: map[string]float64{"length": 20, "mult": 2}, Color: "#9070d0"},
		{ID: "cvd", Kind: model.IndicatorCVD, Visible: false, Params: map[string]float64{"cumulative": 1}, Color: "#50c0a0"},
	}
}

// Start seeds history, opens the live feed and brings up both HTTP
// surfaces. It returns once everything is running.
func (m *Marmot) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	pair, timeframe := m.cfg.Chart.Pair, m.cfg.Chart.Timeframe

	// the hub subscribes before preload so SSE late-joiners replay the
	// seed; the engine gets the seed wholesale via SetCandles instead,
	// which also fits the viewport
	m.dataFeed.Subscribe(pair, timeframe, m.hub.OnCandle, false)

	seed, err := m.source.CandlesByLimit(ctx, pair, timeframe, m.cfg.Chart.SeedCandles)
	if err != nil {
		return err
	}
	m.dataFeed.Preload(pair, timeframe, seed)
	m.chart.SetCandles(seed)

	m.dataFeed.Subscribe(pair, timeframe, m.chart.UpdateCandle, false)
	m.dataFeed.Start(ctx)

	go func() {
		if err := m.hub.Start(m.cfg.App.SyncAddr); err != nil {
			log.Error("sync hub stopped: ", err)
		}
	}()
	go m.server.Start(m.cfg.App.ListenAddr)

	log.Infof("marmot up: pair=%s timeframe=%s seed=%d", pair, timeframe, len(seed))
	return nil
}

func (m *Marmot) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
	m.dataFeed.Stop()
	m.chart.Stop()
	if err := m.server.Shutdown(); err != nil {
		log.Error("server shutdown: ", err)
	}
	if err := m.hub.Shutdown(context.Background()); err != nil {
		log.Error("sync hub shutdown: ", err)
	}
	if err := m.store.Close(); err != nil {
		log.Error("store close: ", err)
	}
}
