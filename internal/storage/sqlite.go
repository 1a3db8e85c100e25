package storage

import (
	"context"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rohankatakam/gitemails/internal/errors"
	"github.com/sirupsen/logrus"
)

// SQLiteStore mirrors a run into a local SQLite file
type SQLiteStore struct {
	*sqlStore
}

// NewSQLiteStore opens (creating if needed) the database at path
func NewSQLiteStore(ctx context.Context, path, runID string, logger *logrus.Logger) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.ConfigErrorf("sqlite dsn has no path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.FileSystemErrorf(err, "create database directory")
	}

	db, err := sqlx.ConnectContext(ctx, "sqlite3", path)
	if err != nil {
		return nil, errors.DatabaseErrorf(err, "connect to sqlite")
	}
	// one writer; avoids SQLITE_BUSY between the row and combo writes
	db.SetMaxOpenConns(1)
	db.ExecContext(ctx, "PRAGMA journal_mode = WAL")

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, errors.DatabaseErrorf(err, "init sqlite schema")
	}

	logger.WithField("path", path).Debug("SQLite mirror opened")
	return &SQLiteStore{&sqlStore{
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
		logger: logger.WithField("store", "sqlite"),
	}}, nil
}

const sqliteSchema = `
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
