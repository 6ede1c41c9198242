package history

import (
	"context"
	"database/sql"
	"time"

	"github.com/quantlab/signalcore/internal/core"
)

// PostgresStore persists bars in the price_history table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a Postgres-backed history store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Upsert inserts or refreshes bars.
func (p *PostgresStore) Upsert(ctx context.Context, bars []core.DailyBar) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return core.WrapError(core.ErrPersistence, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO price_history (symbol, date, open, high, low, close, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (symbol, date) DO UPDATE SET
			open = EXCLUDED.open, high = EXCLUDED.high, low = EXCLUDED.low,
			close = EXCLUDED.close, volume = EXCLUDED.volume`)
	if err != nil {
		return core.WrapError(core.ErrPersistence, err)
	}
	defer stmt.Close()

	for _, bar := range bars {
		day := bar.Date.UTC().Truncate(24 * time.Hour)
		if _, err := stmt.ExecContext(ctx, bar.Symbol, day,
			bar.Open, bar.High, bar.Low, bar.Close, bar.Volume); err != nil {
			return core.WrapError(core.ErrPersistence, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return core.WrapError(core.ErrPersistence, err)
	}
	return nil
}

// Load returns bars within [from, to], ascending.
func (p *PostgresStore) Load(ctx context.Context, symbol string, from, to time.Time) ([]core.DailyBar, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT symbol, date, open, high, low, close, volume
		FROM price_history
		WHERE symbol = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC`,
		symbol, from.UTC(), to.UTC())
	if err != nil {
		return nil, core.WrapError(core.ErrPersistence, err)
	}
	defer rows.Close()

	var out []core.DailyBar
	for rows.Next() {
		var bar core.DailyBar
		if err := rows.Scan(&bar.Symbol, &bar.Date, &bar.Open, &bar.High,
			&bar.Low, &bar.Close, &bar.Volume); err != nil {
			return nil, core.WrapError(core.ErrPersistence, err)
		}
		out = append(out, bar)
	}
	if err := rows.Err(); err != nil {
		return nil, core.WrapError(core.ErrPersistence, err)
	}
	return out, nil
}

// Count returns the number of rows for the symbol.
func (p *PostgresStore) Count(ctx context.Context, symbol string) (int, error) {
	var n int
	err := p.db.QueryRowContext(ctx,
		`SELECT count(*) FROM price_history WHERE symbol = $1`, symbol).Scan(&n)
	if err != nil {
		return 0, core.WrapError(core.ErrPersistence, err)
	}
	return n, nil
}

// DeleteAll removes every row for the symbol.
func (p *PostgresStore) DeleteAll(ctx context.Context, symbol string) (int64, error) {
	res, err := p.db.ExecContext(ctx,
		`DELETE FROM price_history WHERE symbol = $1`, symbol)
	if err != nil {
		return 0, core.WrapError(core.ErrPersistence, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, core.WrapError(core.ErrPersistence, err)
	}
	return n, nil
}

// DeleteBefore removes rows strictly older than cutoff.
func (p *PostgresStore) DeleteBefore(ctx context.Context, symbol string, cutoff time.Time) (int64, error) {
	res, err := p.db.ExecContext(ctx,
		`DELETE FROM price_history WHERE symbol = $1 AND date < $2`,
		symbol, cutoff.UTC())
	if err != nil {
		return 0, core.WrapError(core.ErrPersistence, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, core.WrapError(core.ErrPersistence, err)
	}
	return n, nil
}

// Reclaim vacuums the table so deleted rows release their space.
func (p *PostgresStore) Reclaim(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, `VACUUM price_history`); err != nil {
		return core.WrapError(core.ErrPersistence, err)
	}
	return nil
}
