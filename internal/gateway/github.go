// Package gateway provides a gateway to the GitHub API, abstracting away
// the underlying REST client.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/go-github/v62/github"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"

	"github.com/repopulse/repopulse/internal/domain"
)

// Fetcher defines the behavior of a gateway for fetching repository
// statistics from GitHub.
type Fetcher interface {
	FetchRepoStats(ctx context.Context, owner, repo string) (domain.StatsSnapshot, error)
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
// It issues a single unauthenticated GET per fetch; there is no retry and
// no backoff beyond the rate-limit-aware transport.
type GitHubGateway struct {
	client *github.Client
	logger *log.Logger
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
func NewGitHubGateway(logger *log.Logger) (Fetcher, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	httpClient := &http.Client{Transport: rateLimitWaiter}
	return &GitHubGateway{
		client: github.NewClient(httpClient),
		logger: logger,
	}, nil
}

// FetchRepoStats retrieves the four public counters for owner/repo.
// The response must carry all four fields; an absent or negative field is
// treated as a malformed response and reported as an error, never as a
// partial snapshot.
func (g *GitHubGateway) FetchRepoStats(ctx context.Context, owner, repo string) (domain.StatsSnapshot, error) {
	g.logger.Debug("fetching repository statistics", "owner", owner, "repo", repo)

	repository, _, err := g.client.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return domain.StatsSnapshot{}, fmt.Errorf("failed to fetch repository %s/%s: %w", owner, repo, err)
	}

	if repository.StargazersCount == nil || repository.ForksCount == nil ||
		repository.SubscribersCount == nil || repository.OpenIssuesCount == nil {
		return domain.StatsSnapshot{}, fmt.Errorf("repository %s/%s response is missing statistics fields", owner, repo)
	}

	snapshot, err := domain.NewStatsSnapshot(
		repository.GetStargazersCount(),
		repository.GetForksCount(),
		repository.GetSubscribersCount(),
		repository.GetOpenIssuesCount(),
	)
	if err != nil {
		return domain.StatsSnapshot{}, fmt.Errorf("repository %s/%s response is malformed: %w", owner, repo, err)
	}

	g.logger.Debug("fetched repository statistics",
		"stars", snapshot.Stars,
		"forks", snapshot.Forks,
		"watchers", snapshot.Watchers,
		"open_issues", snapshot.OpenIssues,
	)
	return snapshot, nil
}
