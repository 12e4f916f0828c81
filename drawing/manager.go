// Package drawing owns the annotation list and the in-progress drawing
// state machine: Idle until a first point is placed, Pending while the
// preview follows the pointer, Committed once the tool has all its points.
package drawing

import (
	"fmt"

	"github.com/samber/lo"

	"marmot/model"
)

// FibonacciRatios are the standard retracement levels derived from two
// anchor prices.
var FibonacciRatios = []float64{0, 0.236, 0.382, 0.5, 0.618, 0.786, 1}

// FibonacciLevels returns the guide price for each ratio between the two
// anchors: price1 + (price2-price1)*ratio.
func FibonacciLevels(price1, price2 float64) []float64 {
	levels := make([]float64, len(FibonacciRatios))
	for i, r := range FibonacciRatios {
		levels[i] = price1 + (price2-price1)*r
	}
	return levels
}

// Manager holds committed drawings for the chart session plus at most one
// pending object. Committed objects are immutable besides removal; there is
// no persistence here, a calling collaborator saves them if it wants to.
type Manager struct {
	objects []model.DrawingObject
	pending *model.DrawingObject
	nextID  int

	color     string
	lineWidth float64

	onCommit func(model.DrawingObject)
}

func NewManager() *Manager {
	return &Manager{
		color:     "#59a6ff",
		lineWidth: 1.5,
	}
}

// OnCommit registers a listener fired whenever an object reaches the
// committed list.
func (m *Manager) OnCommit(fn func(model.DrawingObject)) {
	m.onCommit = fn
}

// SetStyle changes the color/width applied to objects started afterwards.
func (m *Manager) SetStyle(color string, lineWidth float64) {
	if color != "" {
		m.color = color
	}
	if lineWidth > 0 {
		m.lineWidth = lineWidth
	}
}

// Start places the first point of a new object. Single-point tools
// (horizontal, vertical) commit immediately; two-point tools enter the
// pending state with the second point mirroring the first as a preview.
// Starting while another object is pending replaces it.
func (m *Manager) Start(tool model.DrawingType, pt model.DrawingPoint) {
	m.nextID++
	obj := model.DrawingObject{
		ID:        fmt.Sprintf("drawing-%d", m.nextID),
		Type:      tool,
		Points:    []model.DrawingPoint{pt},
		Color:     m.color,
		LineWidth: m.lineWidth,
	}
	if tool.PointCount() == 1 {
		obj.IsComplete = true
		m.commit(obj)
		return
	}
	obj.Points = append(obj.Points, pt)
	m.pending = &obj
}

// Update moves the pending preview point. No-op when nothing is pending.
func (m *Manager) Update(pt model.DrawingPoint) {
	if m.pending == nil {
		return
	}
	m.pending.Points[1] = pt
}

// Commit finalizes the pending object with its second anchor and appends
// it to the committed list. No-op when nothing is pending, so single-point
// tools (already committed at Start) tolerate the trailing pointer-up.
func (m *Manager) Commit(pt model.DrawingPoint) {
	if m.pending == nil {
		return
	}
	obj := *m.pending
	obj.Points[1] = pt
	obj.IsComplete = true
	m.pending = nil
	m.commit(obj)
}

// Abort discards the pending object without committing.
func (m *Manager) Abort() {
	m.pending = nil
}

func (m *Manager) commit(obj model.DrawingObject) {
	m.objects = append(m.objects, obj)
	if m.onCommit != nil {
		m.onCommit(obj)
	}
}

// Pending returns the in-progress object, nil when idle. Render passes
// include it with a dashed preview stroke.
func (m *Manager) Pending() *model.DrawingObject {
	return m.pending
}

// Objects returns a copy of the committed list.
func (m *Manager) Objects() []model.DrawingObject {
	out := make([]model.DrawingObject, len(m.objects))
	copy(out, m.objects)
	return out
}

// Remove deletes a committed object by id.
func (m *Manager) Remove(id string) {
	m.objects = lo.Filter(m.objects, func(obj model.DrawingObject, _ int) bool {
		return obj.ID != id
	})
}

// Clear drops every committed drawing. The pending object, if any, stays:
// clearing the board is not the same as aborting the stroke in progress.
func (m *Manager) Clear() {
	m.objects = nil
}

// Restore seeds the committed list, e.g. from a persistence collaborator.
// Restored objects that are not complete are dropped. The id counter
// resumes past the highest restored suffix so newly started objects can
// never reuse a persisted id.
func (m *Manager) Restore(objects []model.DrawingObject) {
	m.objects = lo.Filter(objects, func(obj model.DrawingObject, _ int) bool {
		return obj.IsComplete && len(obj.Points) >= obj.Type.PointCount()
	})
	m.nextID = len(m.objects)
	for _, obj := range m.objects {
		var n int
		if _, err := fmt.Sscanf(obj.ID, "drawing-%d", &n); err == nil && n > m.nextID {
			m.nextID = n
		}
	}
}
