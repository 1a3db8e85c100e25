package crawl

import (
	"context"
	"strings"

	"github.com/rohankatakam/gitemails/internal/models"
	"github.com/sirupsen/logrus"
)

// Expander crawls accounts level by level, feeding the commit author logins
// found at one level into the next until the depth bound.
type Expander struct {
	source Source
	walker *Walker
	stats  *Stats
	logger *logrus.Entry
}

func NewExpander(source Source, walker *Walker, logger *logrus.Entry) *Expander {
	return &Expander{
		source: source,
		walker: walker,
		stats:  walker.stats,
		logger: logger,
	}
}

// Expand crawls start at depth 0. With maxDepth 0 nothing beyond start is
// fetched. An account is crawled at most once per run (case-insensitive).
func (e *Expander) Expand(ctx context.Context, start []models.Account, maxDepth int) error {
	visited := make(map[string]struct{})
	level := start

	for depth := 0; len(level) > 0; depth++ {
		log := e.logger.WithFields(logrus.Fields{
			"depth":    depth,
			"accounts": len(level),
		})
		log.Info("Crawling level")

		var discovered []string
		for _, account := range level {
			key := strings.ToLower(account.Name)
			if _, ok := visited[key]; ok {
				continue
			}
			visited[key] = struct{}{}

			logins, err := e.crawlAccount(ctx, account)
			if err != nil {
				return err
			}
			discovered = append(discovered, logins...)
		}

		if depth >= maxDepth {
			break
		}
		level = nextLevel(discovered, visited)
	}

	return nil
}

// crawlAccount walks every repository of account and returns the author logins found
func (e *Expander) crawlAccount(ctx context.Context, account models.Account) ([]string, error) {
	repos, err := e.source.ListRepositories(ctx, account)
	if err != nil {
		return nil, err
	}
	e.stats.Accounts++

	var logins []string
	for _, repo := range repos {
		found, err := e.walker.Walk(ctx, repo)
		if err != nil {
			return nil, err
		}
		logins = append(logins, found...)
	}
	return logins, nil
}

// nextLevel turns discovered logins into user accounts not yet visited, first-seen order
func nextLevel(logins []string, visited map[string]struct{}) []models.Account {
	queued := make(map[string]struct{})
	var next []models.Account
	for _, login := range logins {
		key := strings.ToLower(login)
		if _, ok := visited[key]; ok {
			continue
		}
		if _, ok := queued[key]; ok {
			continue
		}
		queued[key] = struct{}{}
		next = append(next, models.Account{Name: login, Kind: models.AccountUser})
	}
	return next
}
