package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// CopyRows bulk-inserts structs into table with the COPY protocol.
// Columns come from T's db tags. Must run inside a transaction.
// Used for demo and import data where per-row audit is not wanted.
func CopyRows[T any](ctx context.Context, txm *TxManager, table string, rows []T) (int64, error) {
	t := txm.txFrom(ctx)
	if t == nil {
		return 0, fmt.Errorf("copy into %s requires transaction context", table)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	columns := Columns[T]()
	values := copyValues(columns, rows)
	n, err := t.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(values))
	if err != nil {
		return n, MapError(fmt.Errorf("copy into %s: %w", table, err), table)
	}
	return n, nil
}

// copyValues lays rows out in column order.
func copyValues[T any](columns []string, rows []T) [][]any {
	out := make([][]any, 0, len(rows))
	for _, row := range rows {
		m := Values(row)
		vals := make([]any, len(columns))
		for i, col := range columns {
			vals[i] = m[col]
		}
		out = append(out, vals)
	}
	return out
}
