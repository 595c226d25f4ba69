package repository

import (
	"context"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/nutrifill/internal/common"
)

const passesTable = "fill_passes"

// passesDDL renders the history table for dialect d. started_at is unix
// milliseconds so both backends scan it the same way.
func passesDDL(d string) string {
	b := entsql.Dialect(d)
	idType, intType := "varchar(36)", "bigint"
	if d == dialect.SQLite {
		idType, intType = "text", "integer"
	}
	cols := []entsql.Querier{
		b.Column("id").Type(idType + " PRIMARY KEY"),
		b.Column("source").Type("varchar(16) NOT NULL"),
		b.Column("entries").Type(intType + " NOT NULL"),
		b.Column("filled").Type(intType + " NOT NULL"),
		b.Column("failures_json").Type("text NOT NULL"),
		b.Column("started_at").Type(intType + " NOT NULL"),
		b.Column("duration_ms").Type(intType + " NOT NULL"),
	}
	return b.String(func(sb *entsql.Builder) {
		sb.WriteString("CREATE TABLE IF NOT EXISTS ").Ident(passesTable).Pad().Wrap(func(w *entsql.Builder) {
			w.JoinComma(cols...)
		})
	})
}

func passesIndexDDL(d string) string {
	return entsql.Dialect(d).String(func(sb *entsql.Builder) {
		sb.WriteString("CREATE INDEX IF NOT EXISTS ").Ident(passesTable + "_started_at").
			WriteString(" ON ").Ident(passesTable).Pad().Wrap(func(w *entsql.Builder) {
			w.Ident("started_at")
		})
	})
}

func (db *DB) migrate(ctx context.Context) error {
	for _, s := range []string{passesDDL(db.Dialect()), passesIndexDDL(db.Dialect())} {
		if err := db.Driver.Exec(ctx, s, []any{}, nil); err != nil {
			return common.NewAppError(common.CodeDatabase, "migrate history schema", err)
		}
	}
	return nil
}
