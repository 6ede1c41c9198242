package registry

import (
	"context"
	"database/sql"
	"strings"

	"github.com/quantlab/signalcore/internal/core"
)

// PostgresStore persists registry entries in the model_registry table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a Postgres-backed registry.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Add persists an entry, overwriting a previous run of the same configuration.
func (p *PostgresStore) Add(ctx context.Context, md core.ModelMetadata) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO model_registry
			(id, ticker, mode, config_hash, r2, rmse, mae, observations,
			 trained_at, artifact_path, runtime, range_from, range_to,
			 indicator_config, archive_path)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (ticker, mode, config_hash) DO UPDATE SET
			id = EXCLUDED.id,
			r2 = EXCLUDED.r2,
			rmse = EXCLUDED.rmse,
			mae = EXCLUDED.mae,
			observations = EXCLUDED.observations,
			trained_at = EXCLUDED.trained_at,
			artifact_path = EXCLUDED.artifact_path,
			runtime = EXCLUDED.runtime,
			archive_path = EXCLUDED.archive_path`,
		md.ID, strings.ToUpper(md.Ticker), string(md.Mode), md.ConfigHash,
		md.Metrics.R2, md.Metrics.RMSE, md.Metrics.MAE, md.Observations,
		md.TrainedAt.UTC(), md.ArtifactPath, md.Runtime,
		md.Range.From.UTC(), md.Range.To.UTC(), md.IndicatorConfig,
		nullable(md.ArchivePath))
	if err != nil {
		return core.WrapError(core.ErrPersistence, err)
	}
	return nil
}

// Get returns the newest entry for (ticker, mode).
func (p *PostgresStore) Get(ctx context.Context, ticker string, mode core.TrainingMode) (*core.ModelMetadata, error) {
	row := p.db.QueryRowContext(ctx, selectColumns+`
		WHERE ticker = $1 AND mode = $2
		ORDER BY trained_at DESC
		LIMIT 1`,
		strings.ToUpper(ticker), string(mode))
	return scanEntry(row)
}

// GetByHash returns the entry for an exact configuration.
func (p *PostgresStore) GetByHash(ctx context.Context, ticker string, mode core.TrainingMode, configHash string) (*core.ModelMetadata, error) {
	row := p.db.QueryRowContext(ctx, selectColumns+`
		WHERE ticker = $1 AND mode = $2 AND config_hash = $3`,
		strings.ToUpper(ticker), string(mode), configHash)
	return scanEntry(row)
}

// List returns all entries, newest first.
func (p *PostgresStore) List(ctx context.Context) ([]core.ModelMetadata, error) {
	rows, err := p.db.QueryContext(ctx, selectColumns+` ORDER BY trained_at DESC`)
	if err != nil {
		return nil, core.WrapError(core.ErrPersistence, err)
	}
	defer rows.Close()

	var out []core.ModelMetadata
	for rows.Next() {
		md, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *md)
	}
	if err := rows.Err(); err != nil {
		return nil, core.WrapError(core.ErrPersistence, err)
	}
	return out, nil
}

const selectColumns = `
	SELECT id, ticker, mode, config_hash, r2, rmse, mae, observations,
	       trained_at, artifact_path, runtime, range_from, range_to,
	       indicator_config, archive_path
	FROM model_registry`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*core.ModelMetadata, error) {
	var (
		md      core.ModelMetadata
		mode    string
		archive sql.NullString
	)
	err := row.Scan(&md.ID, &md.Ticker, &mode, &md.ConfigHash,
		&md.Metrics.R2, &md.Metrics.RMSE, &md.Metrics.MAE, &md.Observations,
		&md.TrainedAt, &md.ArtifactPath, &md.Runtime,
		&md.Range.From, &md.Range.To, &md.IndicatorConfig, &archive)
	if err == sql.ErrNoRows {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, core.WrapError(core.ErrPersistence, err)
	}
	md.Mode = core.TrainingMode(mode)
	if archive.Valid {
		md.ArchivePath = archive.String
	}
	return &md, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
