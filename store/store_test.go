package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"marmot/model"
)

func openTestStore(t *testing.T) *DrawingStore {
	t.Helper()
	s, err := OpenDrawingStore(filepath.Join(t.TempDir(), "drawings.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func trendline(id string, p1, p2 float64) model.DrawingObject {
	return model.DrawingObject{
		ID:   id,
		Type: model.DrawingTrendline,
		Points: []model.DrawingPoint{
			{Index: 10, Price: p1, Time: 1000},
			{Index: 20, Price: p2, Time: 2000},
		},
		Color:      "#f0a020",
		LineWidth:  1.5,
		IsComplete: true,
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "KRW-BTC", trendline("d-001", 100, 200)))
	require.NoError(t, s.Save(ctx, "KRW-BTC", model.DrawingObject{
		ID:         "d-002",
		Type:       model.DrawingHorizontal,
		Points:     []model.DrawingPoint{{Index: 5, Price: 150, Time: 500}},
		Color:      "#40a0f0",
		LineWidth:  1,
		IsComplete: true,
	}))
	require.NoError(t, s.Save(ctx, "KRW-ETH", trendline("d-001", 1, 2)))

	objects, err := s.Load(ctx, "KRW-BTC")
	require.NoError(t, err)
	require.Len(t, objects, 2)

	require.Equal(t, "d-001", objects[0].ID)
	require.Equal(t, model.DrawingTrendline, objects[0].Type)
	require.Len(t, objects[0].Points, 2)
	require.InDelta(t, 100, objects[0].Points[0].Price, 1e-9)
	require.InDelta(t, 20, objects[0].Points[1].Index, 1e-9)
	require.Equal(t, int64(2000), objects[0].Points[1].Time)
	require.Equal(t, "#f0a020", objects[0].Color)
	require.InDelta(t, 1.5, objects[0].LineWidth, 1e-9)
	require.True(t, objects[0].IsComplete)

	require.Equal(t, "d-002", objects[1].ID)
	require.Equal(t, model.DrawingHorizontal, objects[1].Type)
}

func TestSaveReplacesExistingID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "KRW-BTC", trendline("d-001", 100, 200)))
	require.NoError(t, s.Save(ctx, "KRW-BTC", trendline("d-001", 300, 400)))

	objects, err := s.Load(ctx, "KRW-BTC")
	require.NoError(t, err)
	require.Len(t, objects, 1)
	require.InDelta(t, 300, objects[0].Points[0].Price, 1e-9)
}

func TestDeleteAndClearScopeToPair(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "KRW-BTC", trendline("d-001", 100, 200)))
	require.NoError(t, s.Save(ctx, "KRW-BTC", trendline("d-002", 110, 210)))
	require.NoError(t, s.Save(ctx, "KRW-ETH", trendline("d-001", 1, 2)))

	require.NoError(t, s.Delete(ctx, "KRW-BTC", "d-001"))
	objects, err := s.Load(ctx, "KRW-BTC")
	require.NoError(t, err)
	require.Len(t, objects, 1)
	require.Equal(t, "d-002", objects[0].ID)

	require.NoError(t, s.Clear(ctx, "KRW-BTC"))
	objects, err = s.Load(ctx, "KRW-BTC")
	require.NoError(t, err)
	require.Empty(t, objects)

	others, err := s.Load(ctx, "KRW-ETH")
	require.NoError(t, err)
	require.Len(t, others, 1)
}

func TestLoadReturnsInsertionOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// counter-minted ids sort lexicographically out of order; insertion
	// time must win
	require.NoError(t, s.Save(ctx, "KRW-BTC", trendline("drawing-2", 100, 200)))
	time.Sleep(time.Millisecond)
	require.NoError(t, s.Save(ctx, "KRW-BTC", trendline("drawing-10", 110, 210)))

	objects, err := s.Load(ctx, "KRW-BTC")
	require.NoError(t, err)
	require.Len(t, objects, 2)
	require.Equal(t, "drawing-2", objects[0].ID)
	require.Equal(t, "drawing-10", objects[1].ID)
}

func TestLoadEmptyPair(t *testing.T) {
	s := openTestStore(t)

	objects, err := s.Load(context.Background(), "KRW-XRP")
	require.NoError(t, err)
	require.Empty(t, objects)
}
