package storage

import (
	"context"
	"strings"

	"github.com/rohankatakam/gitemails/internal/errors"
	"github.com/rohankatakam/gitemails/internal/models"
	"github.com/sirupsen/logrus"
)

// Store mirrors the rows and unique combinations of a run into a database
type Store interface {
	WriteRow(ctx context.Context, row models.Row) error
	SaveCombos(ctx context.Context, combos []models.Identity) error

	// Rows returns the rows stored for the current run, in insertion order
	Rows(ctx context.Context) ([]models.Row, error)
	// Combos returns the combinations stored for the current run
	Combos(ctx context.Context) ([]models.Identity, error)

	Close() error
}

// Open connects to the database named by dsn and prepares its schema.
// Supported forms are sqlite://<path> and postgres://... (or postgresql://).
func Open(ctx context.Context, dsn, runID string, logger *logrus.Logger) (Store, error) {
	switch {
	case strings.HasPrefix(dsn, "sqlite://"):
		return NewSQLiteStore(ctx, strings.TrimPrefix(dsn, "sqlite://"), runID, logger)
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return NewPostgresStore(ctx, dsn, runID, logger)
	default:
		return nil, errors.ConfigErrorf("unsupported storage dsn %q (want sqlite:// or postgres://)", redact(dsn))
	}
}

// redact hides the password of a URL-style dsn
func redact(dsn string) string {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return dsn
	}
	creds, host, ok := strings.Cut(rest, "@")
	if !ok {
		return dsn
	}
	if user, _, hasPass := strings.Cut(creds, ":"); hasPass {
		return scheme + "://" + user + ":***@" + host
	}
	return dsn
}
