package store

import "github.com/go-jet/jet/v2/sqlite"

// drawingsTable mirrors what jet's generator would emit for the drawings
// table. The schema is small enough that hand-written definitions beat a
// generation step.
type drawingsTable struct {
	sqlite.Table

	ID        sqlite.ColumnString
	Pair      sqlite.ColumnString
	Kind      sqlite.ColumnString
	Color     sqlite.ColumnString
	LineWidth sqlite.ColumnFloat
	Points    sqlite.ColumnString
	CreatedAt sqlite.ColumnInteger

	AllColumns sqlite.ColumnList
}

var tableDrawings = newDrawingsTable()

func newDrawingsTable() drawingsTable {
	var (
		IDColumn        = sqlite.StringColumn("id")
		PairColumn      = sqlite.StringColumn("pair")
		KindColumn      = sqlite.StringColumn("kind")
		ColorColumn     = sqlite.StringColumn("color")
		LineWidthColumn = sqlite.FloatColumn("line_width")
		PointsColumn    = sqlite.StringColumn("points")
		CreatedAtColumn = sqlite.IntegerColumn("created_at")
		allColumns      = sqlite.ColumnList{IDColumn, PairColumn, KindColumn, ColorColumn, LineWidthColumn, PointsColumn, CreatedAtColumn}
	)
	return drawingsTable{
		Table:      sqlite.NewTable("", "drawings", "", allColumns...),
		ID:         IDColumn,
		Pair:       PairColumn,
		Kind:       KindColumn,
		Color:      ColorColumn,
		LineWidth:  LineWidthColumn,
		Points:     PointsColumn,
		CreatedAt:  CreatedAtColumn,
		AllColumns: allColumns,
	}
}

// Drawings is the qrm destination row for the drawings table.
type Drawings struct {
	ID        string
	Pair      string
	Kind      string
	Color     string
	LineWidth float64
	Points    string
	CreatedAt int64
}
