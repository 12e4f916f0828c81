package drawing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"marmot/model"
)

func pt(x, y, price, index float64) model.DrawingPoint {
	return model.DrawingPoint{X: x, Y: y, Price: price, Index: index}
}

func TestFibonacciLevels(t *testing.T) {
	levels := FibonacciLevels(100, 200)
	want := []float64{100, 123.6, 138.2, 150, 161.8, 178.6, 200}
	require.Len(t, levels, len(want))
	for i, w := range want {
		require.InDelta(t, w, levels[i], 1e-9)
	}
}

func TestFibonacciLevelsDescending(t *testing.T) {
	levels := FibonacciLevels(200, 100)
	require.InDelta(t, 200, levels[0], 1e-9)
	require.InDelta(t, 150, levels[3], 1e-9)
	require.InDelta(t, 100, levels[6], 1e-9)
}

func TestTrendlineLifecycle(t *testing.T) {
	m := NewManager()
	var committed []model.DrawingObject
	m.OnCommit(func(obj model.DrawingObject) { committed = append(committed, obj) })

	m.Start(model.DrawingTrendline, pt(10, 10, 100, 1))
	pending := m.Pending()
	require.NotNil(t, pending)
	require.False(t, pending.IsComplete)
	// preview point mirrors the anchor until the pointer moves
	require.Len(t, pending.Points, 2)
	require.Equal(t, pending.Points[0], pending.Points[1])
	require.Empty(t, m.Objects())
	require.Empty(t, committed)

	m.Update(pt(50, 40, 140, 5))
	require.InDelta(t, 140, m.Pending().Points[1].Price, 1e-9)

	m.Commit(pt(60, 50, 150, 6))
	require.Nil(t, m.Pending())
	objects := m.Objects()
	require.Len(t, objects, 1)
	require.True(t, objects[0].IsComplete)
	require.InDelta(t, 150, objects[0].Points[1].Price, 1e-9)
	require.Len(t, committed, 1)
}

func TestSinglePointToolsCommitImmediately(t *testing.T) {
	m := NewManager()

	m.Start(model.DrawingHorizontal, pt(10, 10, 100, 1))
	require.Nil(t, m.Pending())
	require.Len(t, m.Objects(), 1)
	require.True(t, m.Objects()[0].IsComplete)

	// the trailing pointer-up commit is a harmless no-op
	m.Commit(pt(10, 10, 100, 1))
	require.Len(t, m.Objects(), 1)

	m.Start(model.DrawingVertical, pt(20, 20, 110, 2))
	require.Len(t, m.Objects(), 2)
}

func TestStartReplacesPending(t *testing.T) {
	m := NewManager()

	m.Start(model.DrawingTrendline, pt(1, 1, 10, 0))
	first := m.Pending().ID
	m.Start(model.DrawingFibonacci, pt(2, 2, 20, 1))
	require.NotEqual(t, first, m.Pending().ID)
	require.Equal(t, model.DrawingFibonacci, m.Pending().Type)
	require.Empty(t, m.Objects(), "abandoned pending object must never commit")
}

func TestUpdateAndCommitWithoutPending(t *testing.T) {
	m := NewManager()
	m.Update(pt(1, 1, 10, 0))
	m.Commit(pt(1, 1, 10, 0))
	require.Empty(t, m.Objects())
}

func TestAbortDiscardsPending(t *testing.T) {
	m := NewManager()
	m.Start(model.DrawingTrendline, pt(1, 1, 10, 0))
	m.Abort()
	require.Nil(t, m.Pending())
	m.Commit(pt(2, 2, 20, 1))
	require.Empty(t, m.Objects())
}

func TestRemoveAndClear(t *testing.T) {
	m := NewManager()
	m.Start(model.DrawingHorizontal, pt(1, 1, 10, 0))
	m.Start(model.DrawingHorizontal, pt(2, 2, 20, 1))
	objects := m.Objects()
	require.Len(t, objects, 2)

	m.Remove(objects[0].ID)
	require.Len(t, m.Objects(), 1)
	require.Equal(t, objects[1].ID, m.Objects()[0].ID)

	// clearing the board leaves an in-progress stroke alone
	m.Start(model.DrawingTrendline, pt(3, 3, 30, 2))
	m.Clear()
	require.Empty(t, m.Objects())
	require.NotNil(t, m.Pending())
}

func TestRestoreDropsIncomplete(t *testing.T) {
	m := NewManager()
	m.Restore([]model.DrawingObject{
		{ID: "a", Type: model.DrawingTrendline, IsComplete: true, Points: []model.DrawingPoint{pt(1, 1, 10, 0), pt(2, 2, 20, 1)}},
		{ID: "b", Type: model.DrawingTrendline, IsComplete: false, Points: []model.DrawingPoint{pt(1, 1, 10, 0)}},
		{ID: "c", Type: model.DrawingTrendline, IsComplete: true, Points: []model.DrawingPoint{pt(1, 1, 10, 0)}},
	})
	objects := m.Objects()
	require.Len(t, objects, 1)
	require.Equal(t, "a", objects[0].ID)
}

func TestRestoreResumesIDsPastRestored(t *testing.T) {
	m := NewManager()
	m.Restore([]model.DrawingObject{
		{ID: "drawing-2", Type: model.DrawingHorizontal, IsComplete: true, Points: []model.DrawingPoint{pt(1, 1, 10, 0)}},
	})

	m.Start(model.DrawingHorizontal, pt(2, 2, 20, 1))
	objects := m.Objects()
	require.Len(t, objects, 2)
	require.Equal(t, "drawing-3", objects[1].ID)
}
