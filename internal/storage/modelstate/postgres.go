package modelstate

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/quantlab/signalcore/internal/core"
)

// PostgresStore persists the state blob in the online_model_state table,
// which holds a single row.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a Postgres-backed model state store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Save upserts the single state row, guarding version monotonicity in SQL so
// concurrent writers cannot move the counter backwards.
func (p *PostgresStore) Save(ctx context.Context, state []byte, version int64) error {
	res, err := p.db.ExecContext(ctx, `
		INSERT INTO online_model_state (id, version, state, updated_at)
		VALUES (1, $1, $2, now())
		ON CONFLICT (id) DO UPDATE
		SET version = EXCLUDED.version, state = EXCLUDED.state, updated_at = now()
		WHERE online_model_state.version < EXCLUDED.version`,
		version, state)
	if err != nil {
		return core.WrapError(core.ErrPersistence, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return core.WrapError(core.ErrPersistence, err)
	}
	if affected == 0 {
		return core.WrapError(core.ErrPersistence,
			fmt.Errorf("version %d not greater than stored version", version))
	}
	return nil
}

// Load returns the latest blob and version.
func (p *PostgresStore) Load(ctx context.Context) ([]byte, int64, error) {
	var (
		state   []byte
		version int64
	)
	err := p.db.QueryRowContext(ctx,
		`SELECT state, version FROM online_model_state WHERE id = 1`).Scan(&state, &version)
	if err == sql.ErrNoRows {
		return nil, 0, core.ErrNotFound
	}
	if err != nil {
		return nil, 0, core.WrapError(core.ErrPersistence, err)
	}
	return state, version, nil
}

// Reset removes the stored state.
func (p *PostgresStore) Reset(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM online_model_state WHERE id = 1`); err != nil {
		return core.WrapError(core.ErrPersistence, err)
	}
	return nil
}
