package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
	"github.com/shopspring/decimal"
)

func init() {
	goose.AddMigrationContext(upRecomputeDifferences, downRecomputeDifferences)
}

// upRecomputeDifferences rewrites reconciliations.difference from the two
// stored totals. Totals are TEXT decimals, so the subtraction happens here
// rather than in SQL where it would go through floating point.
func upRecomputeDifferences(ctx context.Context, tx *sql.Tx) error {
	rows, err := tx.QueryContext(ctx, `SELECT id, expected_total, actual_total FROM reconciliations`)
	if err != nil {
		return err
	}

	type totals struct {
		id       string
		expected decimal.Decimal
		actual   decimal.Decimal
	}

	var all []totals
	for rows.Next() {
		var t totals
		if err := rows.Scan(&t.id, &t.expected, &t.actual); err != nil {
			_ = rows.Close()
			return err
		}
		all = append(all, t)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	_ = rows.Close()

	for _, t := range all {
		_, err := tx.ExecContext(ctx,
			`UPDATE reconciliations SET difference = ? WHERE id = ?`,
			t.actual.Sub(t.expected).String(), t.id,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

// downRecomputeDifferences is a no-op - the difference column is derived data
func downRecomputeDifferences(ctx context.Context, tx *sql.Tx) error {
	return nil
}
