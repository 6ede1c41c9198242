package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/quantlab/signalcore/internal/core"
)

// PostgresStore persists snapshots in the feature_snapshots table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a Postgres-backed snapshot store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Store persists a snapshot, enforcing the frozen-at-publish-time invariant.
func (p *PostgresStore) Store(ctx context.Context, snap core.FeatureSnapshot) error {
	if snap.ArticleID == "" {
		return core.WrapError(core.ErrValidation, fmt.Errorf("empty article id"))
	}

	features, err := json.Marshal(snap.Features)
	if err != nil {
		return core.WrapError(core.ErrPersistence, err)
	}

	// Insert-if-absent; on conflict read back the stored publish time to
	// distinguish an idempotent re-store from an integrity violation.
	res, err := p.db.ExecContext(ctx, `
		INSERT INTO feature_snapshots (article_id, symbol, published_at, features)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (article_id) DO NOTHING`,
		snap.ArticleID, snap.Symbol, snap.PublishedAt.UTC(), features)
	if err != nil {
		return core.WrapError(core.ErrPersistence, err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return core.WrapError(core.ErrPersistence, err)
	}
	if inserted > 0 {
		return nil
	}

	var stored time.Time
	err = p.db.QueryRowContext(ctx,
		`SELECT published_at FROM feature_snapshots WHERE article_id = $1`,
		snap.ArticleID).Scan(&stored)
	if err != nil {
		return core.WrapError(core.ErrPersistence, err)
	}
	if !stored.Equal(snap.PublishedAt) {
		return core.WrapError(core.ErrIntegrity,
			fmt.Errorf("article %s already snapshotted at %s", snap.ArticleID,
				stored.Format(time.RFC3339)))
	}
	return nil
}

// Get retrieves a snapshot by article ID.
func (p *PostgresStore) Get(ctx context.Context, articleID string) (*core.FeatureSnapshot, error) {
	var (
		snap     core.FeatureSnapshot
		features []byte
	)
	err := p.db.QueryRowContext(ctx, `
		SELECT article_id, symbol, published_at, features
		FROM feature_snapshots WHERE article_id = $1`,
		articleID).Scan(&snap.ArticleID, &snap.Symbol, &snap.PublishedAt, &features)
	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, core.WrapError(core.ErrPersistence, err)
	}

	if err := json.Unmarshal(features, &snap.Features); err != nil {
		return nil, core.WrapError(core.ErrPersistence, err)
	}
	return &snap, nil
}

// ListUnlabeled returns unlabeled snapshots older than the given time,
// keyset-paginated by article ID.
func (p *PostgresStore) ListUnlabeled(ctx context.Context, olderThan time.Time, limit int, afterID string) ([]core.FeatureSnapshot, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT s.article_id, s.symbol, s.published_at, s.features
		FROM feature_snapshots s
		LEFT JOIN labels l ON l.article_id = s.article_id
		WHERE l.article_id IS NULL
		  AND s.published_at < $1
		  AND s.article_id > $2
		ORDER BY s.article_id ASC
		LIMIT $3`,
		olderThan.UTC(), afterID, limit)
	if err != nil {
		return nil, core.WrapError(core.ErrPersistence, err)
	}
	defer rows.Close()

	var out []core.FeatureSnapshot
	for rows.Next() {
		var (
			snap     core.FeatureSnapshot
			features []byte
		)
		if err := rows.Scan(&snap.ArticleID, &snap.Symbol, &snap.PublishedAt, &features); err != nil {
			return nil, core.WrapError(core.ErrPersistence, err)
		}
		if err := json.Unmarshal(features, &snap.Features); err != nil {
			return nil, core.WrapError(core.ErrPersistence, err)
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, core.WrapError(core.ErrPersistence, err)
	}
	return out, nil
}
