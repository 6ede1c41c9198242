package label

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/quantlab/signalcore/internal/core"
)

// PostgresStore persists labels in the labels table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a Postgres-backed label store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create persists a label exactly once per article.
func (p *PostgresStore) Create(ctx context.Context, label core.Label) error {
	if label.ArticleID == "" {
		return core.WrapError(core.ErrValidation, fmt.Errorf("empty article id"))
	}

	res, err := p.db.ExecContext(ctx, `
		INSERT INTO labels (article_id, outcome, realized_return, threshold, entry_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (article_id) DO NOTHING`,
		label.ArticleID, label.Outcome, label.RealizedReturn,
		label.Threshold, label.EntryDate.UTC(), label.CreatedAt.UTC())
	if err != nil {
		return core.WrapError(core.ErrPersistence, err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return core.WrapError(core.ErrPersistence, err)
	}
	if inserted == 0 {
		return core.WrapError(core.ErrIntegrity,
			fmt.Errorf("article %s already labeled", label.ArticleID))
	}
	return nil
}

// Exists reports whether an article has a label.
func (p *PostgresStore) Exists(ctx context.Context, articleID string) (bool, error) {
	var one int
	err := p.db.QueryRowContext(ctx,
		`SELECT 1 FROM labels WHERE article_id = $1`, articleID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, core.WrapError(core.ErrPersistence, err)
	}
	return true, nil
}

// Get retrieves a label by article ID.
func (p *PostgresStore) Get(ctx context.Context, articleID string) (*core.Label, error) {
	var label core.Label
	err := p.db.QueryRowContext(ctx, `
		SELECT article_id, outcome, realized_return, threshold, entry_date, created_at
		FROM labels WHERE article_id = $1`,
		articleID).Scan(&label.ArticleID, &label.Outcome, &label.RealizedReturn,
		&label.Threshold, &label.EntryDate, &label.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, core.WrapError(core.ErrPersistence, err)
	}
	return &label, nil
}

// Count returns the number of labels.
func (p *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := p.db.QueryRowContext(ctx, `SELECT count(*) FROM labels`).Scan(&n); err != nil {
		return 0, core.WrapError(core.ErrPersistence, err)
	}
	return n, nil
}
