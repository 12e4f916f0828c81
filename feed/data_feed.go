// Package feed moves candles from a market-data source into the chart
// engine: seed history once, then live updates. The engine itself never
// fetches anything; this is its only data boundary.
package feed

import (
	"context"
	"fmt"
	"strings"

	"github.com/StudioSol/set"

	"marmot/model"
	"marmot/utils/log"
)

// CandleSource is a provider of historical and live candles for one or
// more pairs. Live subscriptions may emit the unfinished bar repeatedly
// (Complete=false) before closing it.
type CandleSource interface {
	CandlesByLimit(ctx context.Context, pair, timeframe string, limit int) ([]model.Candle, error)
	CandlesSubscription(ctx context.Context, pair, timeframe string) (chan model.Candle, chan error)
	Stop()
}

type DataFeedSubscription struct {
	source                  CandleSource
	Feeds                   *set.LinkedHashSetString
	DataFeeds               map[string]*DataFeed
	SubscriptionsByDataFeed map[string][]Subscription
}

type DataFeed struct {
	Data chan model.Candle
	Err  chan error
}

type Subscription struct {
	onCandleClose bool
	consumer      DataFeedConsumer
}

type DataFeedConsumer func(model.Candle)

// Flow: New -> Subscribe -> Preload -> Start.

func NewDataFeed(source CandleSource) *DataFeedSubscription {
	return &DataFeedSubscription{
		source:                  source,
		Feeds:                   set.NewLinkedHashSetString(),
		DataFeeds:               make(map[string]*DataFeed),
		SubscriptionsByDataFeed: make(map[string][]Subscription),
	}
}

// Subscribe registers a consumer for (pair, timeframe). With onCandleClose
// set, only completed bars are delivered; the chart wants partials too and
// subscribes with it unset.
func (d *DataFeedSubscription) Subscribe(pair, timeframe string, consumer DataFeedConsumer, onCandleClose bool) {
	key := d.makeFeedKey(pair, timeframe)
	d.Feeds.Add(key)
	d.SubscriptionsByDataFeed[key] = append(d.SubscriptionsByDataFeed[key], Subscription{
		onCandleClose: onCandleClose,
		consumer:      consumer,
	})
}

// Preload hands already-fetched history to every subscriber of the feed.
func (d *DataFeedSubscription) Preload(pair, timeframe string, candles []model.Candle) {
	log.Infof("[SETUP] preloading %d candles for %s-%s", len(candles), pair, timeframe)
	key := d.makeFeedKey(pair, timeframe)
	for _, candle := range candles {
		if !candle.Complete {
			continue
		}
		for _, subscription := range d.SubscriptionsByDataFeed[key] {
			subscription.consumer(candle)
		}
	}
}

// Start connects every registered feed and fans incoming candles out to
// its subscribers until the context ends or the source closes the channel.
func (d *DataFeedSubscription) Start(ctx context.Context) {
	d.Connect(ctx)

	for key, feed := range d.DataFeeds {
		go func(key string, feed *DataFeed) {
			for {
				select {
				case <-ctx.Done():
					return
				case candle, ok := <-feed.Data:
					if !ok {
						return
					}
					for _, subscription := range d.SubscriptionsByDataFeed[key] {
						if subscription.onCandleClose && !candle.Complete {
							continue
						}
						subscription.consumer(candle)
					}
				case err := <-feed.Err:
					if err != nil {
						log.Error("datafeed: ", err)
					}
				}
			}
		}(key, feed)
	}
	log.Infof("Data feed connected.")
}

// Connect opens the live subscription channels for every registered feed.
func (d *DataFeedSubscription) Connect(ctx context.Context) {
	for feed := range d.Feeds.Iter() {
		pair, timeframe := d.getPairTimeframeFromKey(feed)
		cCandle, cErr := d.source.CandlesSubscription(ctx, pair, timeframe)
		d.DataFeeds[feed] = &DataFeed{Data: cCandle, Err: cErr}
	}
}

func (d *DataFeedSubscription) Stop() {
	d.source.Stop()
}

func (d *DataFeedSubscription) makeFeedKey(pair, timeframe string) string {
	return fmt.Sprintf("%s_%s", pair, timeframe)
}

func (d *DataFeedSubscription) getPairTimeframeFromKey(key string) (string, string) {
	parts := strings.Split(key, "_")
	return parts[0], parts[1]
}
