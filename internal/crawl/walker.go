package crawl

import (
	"context"

	"github.com/rohankatakam/gitemails/internal/github"
	"github.com/rohankatakam/gitemails/internal/models"
	"github.com/sirupsen/logrus"
)

// Source is the part of the GitHub client a crawl needs
type Source interface {
	ListRepositories(ctx context.Context, account models.Account) ([]models.Repository, error)
	WalkCommits(ctx context.Context, repo models.Repository, fn github.CommitPageFunc) error
}

// RowSink receives every identity row as it is found
type RowSink interface {
	WriteRow(ctx context.Context, row models.Row) error
}

// Stats counts what a run has done so far
type Stats struct {
	Accounts       int
	Repositories   int
	Commits        int
	SkippedCommits int
	Rows           int
}

// Walker extracts identity rows from repository commit histories
type Walker struct {
	source Source
	sink   RowSink
	combos *Combos
	stats  *Stats
	logger *logrus.Entry
}

// NewWalker creates a walker writing to sink and recording into combos
func NewWalker(source Source, sink RowSink, combos *Combos, stats *Stats, logger *logrus.Entry) *Walker {
	if stats == nil {
		stats = &Stats{}
	}
	return &Walker{
		source: source,
		sink:   sink,
		combos: combos,
		stats:  stats,
		logger: logger,
	}
}

// Walk reads every commit of repo and writes one row per identity tuple not yet
// seen in this repository, skipping noreply addresses. It returns the distinct
// GitHub logins of commit authors, in first-seen order.
func (w *Walker) Walk(ctx context.Context, repo models.Repository) ([]string, error) {
	log := w.logger.WithField("repo", repo.Name)
	seen := make(map[models.Identity]struct{})
	loginSeen := make(map[string]struct{})
	var logins []string

	err := w.source.WalkCommits(ctx, repo, func(commits []models.Commit) error {
		for _, commit := range commits {
			w.stats.Commits++
			if commit.Author == nil || commit.Committer == nil {
				w.stats.SkippedCommits++
				log.WithFields(logrus.Fields{
					"sha":           commit.SHA,
					"has_author":    commit.Author != nil,
					"has_committer": commit.Committer != nil,
				}).Warn("Skipping commit with missing author or committer fields")
				continue
			}

			if login := commit.Author.Login; login != "" {
				if _, ok := loginSeen[login]; !ok {
					loginSeen[login] = struct{}{}
					logins = append(logins, login)
				}
			}

			signatures := []struct {
				sig  *models.Signature
				kind models.CommitRole
			}{
				{commit.Author, models.CommitAuthor},
				{commit.Committer, models.CommitCommitter},
			}
			for _, s := range signatures {
				id := models.IdentityOf(s.sig)
				if id.IsNoReply() {
					continue
				}
				if _, dup := seen[id]; dup {
					continue
				}
				seen[id] = struct{}{}

				row := models.Row{
					RepoName:  repo.Name,
					RepoURL:   repo.URL,
					RepoOwner: repo.Owner,
					Login:     id.Login,
					Name:      id.Name,
					Role:      models.RoleFor(id, repo.Owner),
					Type:      s.kind,
					Email:     id.Email,
					CommitURL: commit.HTMLURL,
					CommitAPI: commit.APIURL,
				}
				if err := w.sink.WriteRow(ctx, row); err != nil {
					return err
				}
				w.stats.Rows++
				w.combos.Add(id)

				log.WithFields(logrus.Fields{
					"type":  s.kind,
					"email": id.Email,
				}).Info("Email logged")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	w.stats.Repositories++
	return logins, nil
}
