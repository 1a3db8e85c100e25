package storage

import (
	"context"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/rohankatakam/gitemails/internal/errors"
	"github.com/sirupsen/logrus"
)

// PostgresStore mirrors a run into PostgreSQL
type PostgresStore struct {
	*sqlStore
}

// NewPostgresStore connects through the pgx stdlib driver
func NewPostgresStore(ctx context.Context, dsn, runID string, logger *logrus.Logger) (*PostgresStore, error) {
	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		return nil, errors.DatabaseErrorf(err, "connect to postgres")
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		db.Close()
		return nil, errors.DatabaseErrorf(err, "init postgres schema")
	}

	logger.WithField("dsn", redact(dsn)).Debug("Postgres mirror opened")
	return &PostgresStore{&sqlStore{
		db:    db,
		runID: runID,
		insertRow: `
			INSERT INTO identity_rows (run_id, seq, repo_name, repo_url, repo_owner, login, name,
				role, type, email, commit_url, commit_api_url)
			VALUES (:run_id, :seq, :repo_name, :repo_url, :repo_owner, :login, :name,
				:role, :type, :email, :commit_url, :commit_api_url)`,
		insertCombo: `
			INSERT INTO unique_combos (run_id, seq, login, email, name)
			VALUES (:run_id, :seq, :login, :email, :name)
			ON CONFLICT (run_id, login, email, name) DO NOTHING`,
		logger: logger.WithField("store", "postgres"),
	}}, nil
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS identity_rows (
	run_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	repo_name TEXT NOT NULL,
	repo_url TEXT NOT NULL,
	repo_owner TEXT NOT NULL,
	login TEXT NOT NULL,
	name TEXT NOT NULL,
	role TEXT NOT NULL,
	type TEXT NOT NULL,
	email TEXT NOT NULL,
	commit_url TEXT,
	commit_api_url TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (run_id, seq)
);

CREATE TABLE IF NOT EXISTS unique_combos (
	run_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	login TEXT NOT NULL,
	email TEXT NOT NULL,
	name TEXT NOT NULL,
	PRIMARY KEY (run_id, login, email, name)
);

CREATE INDEX IF NOT EXISTS idx_identity_rows_email ON identity_rows(email);
`
