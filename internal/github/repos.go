package github

import (
	"context"
	"fmt"

	"github.com/google/go-github/v57/github"
	"github.com/rohankatakam/gitemails/internal/models"
	"github.com/sirupsen/logrus"
)

// ListRepositories pages through every repository of a user or organization.
// Owner on each record is the queried account name.
func (c *Client) ListRepositories(ctx context.Context, account models.Account) ([]models.Repository, error) {
	log := c.logger.WithFields(logrus.Fields{
		"account": account.Name,
		"kind":    account.Kind,
	})
	log.Info("Searching for repositories")

	opts := c.listOptions()
	var repos []models.Repository

	for {
		var batch []*github.Repository
		resp, err := c.do(ctx, func(client *github.Client) (*github.Response, error) {
			var resp *github.Response
			var err error
			switch account.Kind {
			case models.AccountOrg:
				batch, resp, err = client.Repositories.ListByOrg(ctx, account.Name,
					&github.RepositoryListByOrgOptions{ListOptions: opts})
			default:
				batch, resp, err = client.Repositories.ListByUser(ctx, account.Name,
					&github.RepositoryListByUserOptions{ListOptions: opts})
			}
			return resp, err
		})
		if err != nil {
			return nil, fmt.Errorf("list repositories for %s: %w", account.Name, err)
		}

		for _, repo := range batch {
			repos = append(repos, models.Repository{
				Name:        repo.GetName(),
				URL:         repo.GetHTMLURL(),
				Description: repo.Description,
				Owner:       account.Name,
			})
			log.WithField("repo", repo.GetName()).Debug("Found repository")
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	log.WithField("count", len(repos)).Info("Repositories listed")
	return repos, nil
}
