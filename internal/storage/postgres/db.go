// Package postgres opens the shared database connection and owns the schema
// for the snapshot, label, model-state, registry and price-history tables.
package postgres

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// Open connects to PostgreSQL, verifies the connection and ensures the
// schema exists.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}

	return db, nil
}

func createTables(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS feature_snapshots (
			article_id   TEXT PRIMARY KEY,
			symbol       TEXT NOT NULL,
			published_at TIMESTAMPTZ NOT NULL,
			features     JSONB NOT NULL,
			created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_feature_snapshots_published
			ON feature_snapshots (published_at)`,

		`CREATE TABLE IF NOT EXISTS labels (
			article_id      TEXT PRIMARY KEY REFERENCES feature_snapshots (article_id),
			outcome         SMALLINT NOT NULL,
			realized_return DOUBLE PRECISION NOT NULL,
			threshold       DOUBLE PRECISION NOT NULL,
			entry_date      TIMESTAMPTZ NOT NULL,
			created_at      TIMESTAMPTZ NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS online_model_state (
			id         INT PRIMARY KEY DEFAULT 1 CHECK (id = 1),
			version    BIGINT NOT NULL,
			state      BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,

		`CREATE TABLE IF NOT EXISTS model_registry (
			id               TEXT NOT NULL,
			ticker           TEXT NOT NULL,
			mode             TEXT NOT NULL,
			config_hash      TEXT NOT NULL,
			r2               DOUBLE PRECISION NOT NULL,
			rmse             DOUBLE PRECISION NOT NULL,
			mae              DOUBLE PRECISION NOT NULL,
			observations     INT NOT NULL,
			trained_at       TIMESTAMPTZ NOT NULL,
			artifact_path    TEXT NOT NULL,
			runtime          TEXT NOT NULL,
			range_from       TIMESTAMPTZ NOT NULL,
			range_to         TIMESTAMPTZ NOT NULL,
			indicator_config TEXT NOT NULL,
			archive_path     TEXT,
			PRIMARY KEY (ticker, mode, config_hash)
		)`,

		`CREATE TABLE IF NOT EXISTS price_history (
			symbol TEXT NOT NULL,
			date   TIMESTAMPTZ NOT NULL,
			open   DOUBLE PRECISION NOT NULL,
			high   DOUBLE PRECISION NOT NULL,
			low    DOUBLE PRECISION NOT NULL,
			close  DOUBLE PRECISION NOT NULL,
			volume BIGINT NOT NULL,
			PRIMARY KEY (symbol, date)
		)`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
