// Package store persists drawing objects to sqlite so trendlines and fib
// levels survive restarts. Candles are deliberately not stored; they are
// re-seeded from the feed on startup.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-jet/jet/v2/sqlite"
	_ "github.com/mattn/go-sqlite3"

	"marmot/model"
	"marmot/utils/db"
	"marmot/utils/db/tx"
	utiljson "marmot/utils/json"
	"marmot/utils/log"
)

const createDrawingsTable = `
CREATE TABLE IF NOT EXISTS drawings (
    id         TEXT NOT NULL,
    pair       TEXT NOT NULL,
    kind       TEXT NOT NULL,
    color      TEXT NOT NULL,
    line_width REAL NOT NULL,
    points     TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    PRIMARY KEY (pair, id)
);`

type DrawingStore struct {
	database *db.Database
	tx       tx.TxExtension
}

func OpenDrawingStore(path string) (*DrawingStore, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	if _, err := conn.Exec(createDrawingsTable); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create drawings table: %w", err)
	}
	database := &db.Database{DbForJet: conn}
	log.Infof("[Store] sqlite opened at %s", path)
	return &DrawingStore{
		database: database,
		tx:       tx.TxExtension{Sqlite: database},
	}, nil
}

// Save upserts one drawing for the pair. Replace-by-delete keeps the
// statement set tiny and runs inside one transaction.
func (s *DrawingStore) Save(ctx context.Context, pair string, object model.DrawingObject) error {
	err, _ := db.Transaction(func(ctx context.Context) (error, any) {
		deleteStmt := tableDrawings.DELETE().
			WHERE(tableDrawings.Pair.EQ(sqlite.String(pair)).
				AND(tableDrawings.ID.EQ(sqlite.String(object.ID))))
		if _, err := deleteStmt.ExecContext(ctx, s.tx.GetTx(ctx)); err != nil {
			return err, nil
		}

		points := string(utiljson.SerializeMessageBody(object.Points))
		insertStmt := tableDrawings.INSERT(tableDrawings.AllColumns).
			VALUES(object.ID, pair, string(object.Type), object.Color, object.LineWidth, points,
				time.Now().UnixNano())
		if _, err := insertStmt.ExecContext(ctx, s.tx.GetTx(ctx)); err != nil {
			return err, nil
		}
		return nil, nil
	}).Run(ctx, s.database.DbForJet)
	if err != nil {
		return fmt.Errorf("save drawing %s: %w", object.ID, err)
	}
	return nil
}

// Load returns every stored drawing for the pair, oldest first. Counter
// minted ids sort lexicographically (drawing-10 before drawing-2), so the
// insertion timestamp carries the order.
func (s *DrawingStore) Load(ctx context.Context, pair string) ([]model.DrawingObject, error) {
	stmt := sqlite.SELECT(tableDrawings.AllColumns).
		FROM(tableDrawings).
		WHERE(tableDrawings.Pair.EQ(sqlite.String(pair))).
		ORDER_BY(tableDrawings.CreatedAt.ASC())

	var rows []Drawings
	if err := stmt.QueryContext(ctx, s.tx.GetTx(ctx), &rows); err != nil {
		return nil, fmt.Errorf("load drawings for %s: %w", pair, err)
	}

	objects := make([]model.DrawingObject, 0, len(rows))
	for _, row := range rows {
		objects = append(objects, model.DrawingObject{
			ID:         row.ID,
			Type:       model.DrawingType(row.Kind),
			Points:     utiljson.DeserializeMessageBody[[]model.DrawingPoint]([]byte(row.Points)),
			Color:      row.Color,
			LineWidth:  row.LineWidth,
			IsComplete: true,
		})
	}
	return objects, nil
}

func (s *DrawingStore) Delete(ctx context.Context, pair, id string) error {
	stmt := tableDrawings.DELETE().
		WHERE(tableDrawings.Pair.EQ(sqlite.String(pair)).
			AND(tableDrawings.ID.EQ(sqlite.String(id))))
	if _, err := stmt.ExecContext(ctx, s.tx.GetTx(ctx)); err != nil {
		return fmt.Errorf("delete drawing %s: %w", id, err)
	}
	return nil
}

func (s *DrawingStore) Clear(ctx context.Context, pair string) error {
	stmt := tableDrawings.DELETE().
		WHERE(tableDrawings.Pair.EQ(sqlite.String(pair)))
	if _, err := stmt.ExecContext(ctx, s.tx.GetTx(ctx)); err != nil {
		return fmt.Errorf("clear drawings for %s: %w", pair, err)
	}
	return nil
}

func (s *DrawingStore) Close() error {
	return s.database.DbForJet.Close()
}
