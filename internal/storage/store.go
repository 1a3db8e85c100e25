package storage

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/rohankatakam/gitemails/internal/errors"
	"github.com/rohankatakam/gitemails/internal/models"
	"github.com/sirupsen/logrus"
)

// rowRecord is the identity_rows layout
type rowRecord struct {
	RunID     string `db:"run_id"`
	Seq       int    `db:"seq"`
	RepoName  string `db:"repo_name"`
	RepoURL   string `db:"repo_url"`
	RepoOwner string `db:"repo_owner"`
	Login     string `db:"login"`
	Name      string `db:"name"`
	Role      string `db:"role"`
	Type      string `db:"type"`
	Email     string `db:"email"`
	CommitURL string `db:"commit_url"`
	CommitAPI string `db:"commit_api_url"`
}

// comboRecord is the unique_combos layout
type comboRecord struct {
	RunID string `db:"run_id"`
	Seq   int    `db:"seq"`
	Login string `db:"login"`
	Email string `db:"email"`
	Name  string `db:"name"`
}

// sqlStore holds the queries shared by both drivers; schema and upserts differ
type sqlStore struct {
	db          *sqlx.DB
	runID       string
	seq         int
	insertRow   string
	insertCombo string
	logger      *logrus.Entry
}

func (s *sqlStore) WriteRow(ctx context.Context, row models.Row) error {
	s.seq++
	rec := rowRecord{
		RunID:     s.runID,
		Seq:       s.seq,
		RepoName:  row.RepoName,
		RepoURL:   row.RepoURL,
		RepoOwner: row.RepoOwner,
		Login:     row.Login,
		Name:      row.Name,
		Role:      string(row.Role),
		Type:      string(row.Type),
		Email:     row.Email,
		CommitURL: row.CommitURL,
		CommitAPI: row.CommitAPI,
	}
	if _, err := s.db.NamedExecContext(ctx, s.insertRow, rec); err != nil {
		return errors.DatabaseErrorf(err, "save identity row for %s", row.RepoName)
	}
	return nil
}

func (s *sqlStore) SaveCombos(ctx context.Context, combos []models.Identity) error {
	if len(combos) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.DatabaseErrorf(err, "begin transaction")
	}
	defer tx.Rollback()

	for i, c := range combos {
		rec := comboRecord{RunID: s.runID, Seq: i + 1, Login: c.Login, Email: c.Email, Name: c.Name}
		if _, err := tx.NamedExecContext(ctx, s.insertCombo, rec); err != nil {
			return errors.DatabaseErrorf(err, "save unique combination")
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseErrorf(err, "commit unique combinations")
	}
	s.logger.WithField("count", len(combos)).Debug("Unique combinations stored")
	return nil
}

func (s *sqlStore) Rows(ctx context.Context) ([]models.Row, error) {
	var recs []rowRecord
	query := s.db.Rebind(`
		SELECT run_id, seq, repo_name, repo_url, repo_owner, login, name, role, type, email,
			COALESCE(commit_url, '') AS commit_url, COALESCE(commit_api_url, '') AS commit_api_url
		FROM identity_rows WHERE run_id = ? ORDER BY seq`)
	if err := s.db.SelectContext(ctx, &recs, query, s.runID); err != nil {
		return nil, errors.DatabaseErrorf(err, "load identity rows")
	}

	rows := make([]models.Row, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, models.Row{
			RepoName:  r.RepoName,
			RepoURL:   r.RepoURL,
			RepoOwner: r.RepoOwner,
			Login:     r.Login,
			Name:      r.Name,
			Role:      models.Role(r.Role),
			Type:      models.CommitRole(r.Type),
			Email:     r.Email,
			CommitURL: r.CommitURL,
			CommitAPI: r.CommitAPI,
		})
	}
	return rows, nil
}

func (s *sqlStore) Combos(ctx context.Context) ([]models.Identity, error) {
	var combos []models.Identity
	query := s.db.Rebind(`SELECT login, email, name FROM unique_combos WHERE run_id = ? ORDER BY seq`)
	if err := s.db.SelectContext(ctx, &combos, query, s.runID); err != nil {
		return nil, errors.DatabaseErrorf(err, "load unique combinations")
	}
	return combos, nil
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}
