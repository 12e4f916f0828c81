package tx

import (
	"context"
	"database/sql"

	"github.com/go-jet/jet/v2/qrm"

	"marmot/utils/db"
)

type TxExtension struct {
	Sqlite *db.Database
}

func (p TxExtension) GetTx(ctx context.Context) qrm.DB {
	tx := ctx.Value("tx")
	if tx != nil {
		result, ok := tx.(*sql.Tx)
		if !ok {
			return p.Sqlite.DbForJet
		}
		return result
	} else {
		return p.Sqlite.DbForJet
	}
}
