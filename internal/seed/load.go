package seed

import (
	"context"
	"database/sql"
	"fmt"
)

const insertRecordSQL = `INSERT INTO fertility_stats (
	id, region, total_number, total_rate, total_number_white, total_rate_white, total_number_black, total_rate_black
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

// Load replaces the contents of fertility_stats with records in a single
// transaction and returns the number of rows written.
func Load(ctx context.Context, db *sql.DB, records []Record) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM fertility_stats`); err != nil {
		return 0, fmt.Errorf("clear fertility_stats: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, insertRecordSQL)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, record := range records {
		if _, err := stmt.ExecContext(ctx,
			int64(i+1),
			record.Region,
			nullableInt(record.TotalNumber),
			nullableFloat(record.TotalRate),
			nullableInt(record.TotalNumberWhite),
			nullableFloat(record.TotalRateWhite),
			nullableInt(record.TotalNumberBlack),
			nullableFloat(record.TotalRateBlack),
		); err != nil {
			return 0, fmt.Errorf("insert row %d (%s): %w", i+1, record.Region, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed: %w", err)
	}
	return len(records), nil
}

func nullableInt(value *int64) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableFloat(value *float64) any {
	if value == nil {
		return nil
	}
	return *value
}
