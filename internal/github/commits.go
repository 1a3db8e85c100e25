package github

import (
	"context"
	"fmt"

	"github.com/google/go-github/v57/github"
	"github.com/rohankatakam/gitemails/internal/models"
	"github.com/sirupsen/logrus"
)

// CommitPageFunc receives one listing page at a time, in page order
type CommitPageFunc func(commits []models.Commit) error

// WalkCommits pages through a repository's commit listing and hands each page
// to fn. A non-nil error from fn stops the walk and is returned.
func (c *Client) WalkCommits(ctx context.Context, repo models.Repository, fn CommitPageFunc) error {
	opts := &github.CommitsListOptions{ListOptions: c.listOptions()}
	page := 1

	for {
		var batch []*github.RepositoryCommit
		resp, err := c.do(ctx, func(client *github.Client) (*github.Response, error) {
			var resp *github.Response
			var err error
			batch, resp, err = client.Repositories.ListCommits(ctx, repo.Owner, repo.Name, opts)
			return resp, err
		})
		if err != nil {
			return fmt.Errorf("list commits for %s/%s: %w", repo.Owner, repo.Name, err)
		}

		apiURL := c.pageURL(resp, repo, opts.Page)
		c.logger.WithFields(logrus.Fields{
			"repo": repo.Name,
			"page": page,
			"url":  apiURL,
		}).Info("Searching project commits")

		commits := make([]models.Commit, 0, len(batch))
		for _, rc := range batch {
			commits = append(commits, toCommit(rc, apiURL))
		}
		if err := fn(commits); err != nil {
			return err
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
		page++
	}

	return nil
}

// pageURL is the listing URL the response was served for
func (c *Client) pageURL(resp *github.Response, repo models.Repository, page int) string {
	if resp != nil && resp.Response != nil && resp.Request != nil && resp.Request.URL != nil {
		return resp.Request.URL.String()
	}
	u := fmt.Sprintf("%srepos/%s/%s/commits?per_page=%d", c.baseURL, repo.Owner, repo.Name, c.opts.PerPage)
	if page > 0 {
		u += fmt.Sprintf("&page=%d", page)
	}
	return u
}

func toCommit(rc *github.RepositoryCommit, apiURL string) models.Commit {
	commit := rc.GetCommit()
	return models.Commit{
		SHA:       rc.GetSHA(),
		HTMLURL:   rc.GetHTMLURL(),
		APIURL:    apiURL,
		Author:    toSignature(commit.GetAuthor(), rc.GetAuthor()),
		Committer: toSignature(commit.GetCommitter(), rc.GetCommitter()),
	}
}

// toSignature returns nil when the git signature, its name or its email is absent.
// user is the linked GitHub account and may be nil.
func toSignature(sig *github.CommitAuthor, user *github.User) *models.Signature {
	if sig == nil || sig.Email == nil || sig.Name == nil {
		return nil
	}
	return &models.Signature{
		Login: user.GetLogin(),
		Name:  sig.GetName(),
		Email: sig.GetEmail(),
	}
}
