// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v84/github"
	"github.com/montanaflynn/stats"
	"github.com/naka-gawa/repo-vet/internal/domain"
	"github.com/shurcooL/githubv4"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// SummarySource selects the API used for the repository summary.
type SummarySource string

const (
	SummaryREST    SummarySource = "rest"
	SummaryGraphQL SummarySource = "graphql"
)

// Fetcher defines the behavior of a gateway for fetching repository metrics from GitHub.
type Fetcher interface {
	FetchSummary(ctx context.Context, ref domain.RepositoryRef) (*domain.RepoSummary, error)
	CountContributors(ctx context.Context, ref domain.RepositoryRef) (int, error)
	CountCommits(ctx context.Context, ref domain.RepositoryRef) (int, error)
	// CountCommitsLastYear sums the weekly commit totals of the last 52 weeks.
	CountCommitsLastYear(ctx context.Context, ref domain.RepositoryRef) (int, error)
}

// Options tunes a GitHubGateway.
type Options struct {
	// BaseURL points the gateway at a GitHub Enterprise server. Empty means github.com.
	BaseURL          string
	SummarySource    SummarySource
	IncludeAnonymous bool
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient       *github.Client
	graphqlClient    *githubv4.Client
	logger           logrus.FieldLogger
	summarySource    SummarySource
	includeAnonymous bool
}

// NewGitHubGateway creates a gateway authenticated with token. Requests are
// logged at debug level. Secondary rate limits are detected and logged but
// never waited out: the limited response is returned as is.
func NewGitHubGateway(token string, logger logrus.FieldLogger, opts Options) (*GitHubGateway, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(
		&loggingRoundTripper{base: http.DefaultTransport, logger: logger},
		github_ratelimit.WithSingleSleepLimit(0, func(cbCtx *github_ratelimit.CallbackContext) {
			if cbCtx.Request != nil {
				logger.Warnf("GitHub secondary rate limit hit on %s %s, not retrying", cbCtx.Request.Method, cbCtx.Request.URL.Path)
				return
			}
			logger.Warn("GitHub secondary rate limit hit, not retrying")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
		},
	}

	restClient := github.NewClient(httpClient)
	graphqlClient := githubv4.NewClient(httpClient)
	if opts.BaseURL != "" {
		restClient, err = restClient.WithEnterpriseURLs(opts.BaseURL, opts.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API URL %q: %w", opts.BaseURL, err)
		}
		graphqlClient = githubv4.NewEnterpriseClient(graphqlURL(restClient.BaseURL.String()), httpClient)
	}

	return &GitHubGateway{
		restClient:       restClient,
		graphqlClient:    graphqlClient,
		logger:           logger,
		summarySource:    opts.SummarySource,
		includeAnonymous: opts.IncludeAnonymous,
	}, nil
}

// graphqlURL maps an enterprise REST base such as https://ghe/api/v3/ to https://ghe/api/graphql.
func graphqlURL(restBase string) string {
	return strings.TrimSuffix(strings.TrimSuffix(restBase, "/"), "/v3") + "/graphql"
}

// FetchSummary returns stars, watchers, open issues and forks. Every failure
// is reported as a *domain.NotFoundError.
func (g *GitHubGateway) FetchSummary(ctx context.Context, ref domain.RepositoryRef) (*domain.RepoSummary, error) {
	g.logger.Infof("[1/4] Fetching repository summary for %s via %s...", ref, g.source())
	var (
		summary *domain.RepoSummary
		err     error
	)
	if g.source() == SummaryGraphQL {
		summary, err = g.fetchSummaryGraphQL(ctx, ref)
	} else {
		summary, err = g.fetchSummaryREST(ctx, ref)
	}
	if err != nil {
		return nil, &domain.NotFoundError{Repo: ref.String(), Err: err}
	}
	g.logger.Info("Completed fetching repository summary.")
	return summary, nil
}

func (g *GitHubGateway) source() SummarySource {
	if g.summarySource == "" {
		return SummaryREST
	}
	return g.summarySource
}

func (g *GitHubGateway) fetchSummaryREST(ctx context.Context, ref domain.RepositoryRef) (*domain.RepoSummary, error) {
	repo, _, err := g.restClient.Repositories.Get(ctx, ref.Owner, ref.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to get repository with REST API: %w", err)
	}
	return &domain.RepoSummary{
		Stars:      repo.GetStargazersCount(),
		Watchers:   repo.GetSubscribersCount(),
		OpenIssues: repo.GetOpenIssuesCount(),
		Forks:      repo.GetForksCount(),
	}, nil
}

// CountContributors derives the contributor count from the last page number
// of a one-per-page listing. GitHub refuses this listing for very large
// repositories, so callers should expect errors here.
func (g *GitHubGateway) CountContributors(ctx context.Context, ref domain.RepositoryRef) (int, error) {
	g.logger.Infof("[2/4] Counting contributors of %s...", ref)
	opts := &github.ListContributorsOptions{ListOptions: github.ListOptions{PerPage: 1}}
	if g.includeAnonymous {
		opts.Anon = "true"
	}
	contributors, resp, err := g.restClient.Repositories.ListContributors(ctx, ref.Owner, ref.Name, opts)
	if err != nil {
		return 0, fmt.Errorf("failed to list contributors with REST API: %w", err)
	}
	count, err := countFromLink(resp, len(contributors))
	if err != nil {
		return 0, fmt.Errorf("failed to read contributor count: %w", err)
	}
	g.logger.Infof("Completed counting contributors: %d", count)
	return count, nil
}

// CountCommits derives the commit count on the default branch the same way
// CountContributors does.
func (g *GitHubGateway) CountCommits(ctx context.Context, ref domain.RepositoryRef) (int, error) {
	g.logger.Infof("[3/4] Counting commits of %s...", ref)
	opts := &github.CommitsListOptions{ListOptions: github.ListOptions{PerPage: 1}}
	commits, resp, err := g.restClient.Repositories.ListCommits(ctx, ref.Owner, ref.Name, opts)
	if err != nil {
		return 0, fmt.Errorf("failed to list commits with REST API: %w", err)
	}
	count, err := countFromLink(resp, len(commits))
	if err != nil {
		return 0, fmt.Errorf("failed to read commit count: %w", err)
	}
	g.logger.Infof("Completed counting commits: %d", count)
	return count, nil
}

// CountCommitsLastYear sums the totals of the weekly commit activity buckets,
// which cover the last 52 weeks. GitHub answers 202 while it computes the
// statistics; that is reported as an error, not retried.
func (g *GitHubGateway) CountCommitsLastYear(ctx context.Context, ref domain.RepositoryRef) (int, error) {
	g.logger.Infof("[4/4] Fetching weekly commit activity of %s...", ref)
	weeks, _, err := g.restClient.Repositories.ListCommitActivity(ctx, ref.Owner, ref.Name)
	if err != nil {
		var accepted *github.AcceptedError
		if errors.As(err, &accepted) {
			return 0, fmt.Errorf("commit activity is still being computed by GitHub: %w", err)
		}
		return 0, fmt.Errorf("failed to list commit activity with REST API: %w", err)
	}
	if len(weeks) == 0 {
		return 0, nil
	}

	totals := make([]int, 0, len(weeks))
	for _, week := range weeks {
		totals = append(totals, week.GetTotal())
	}
	sum, err := stats.Sum(stats.LoadRawData(totals))
	if err != nil {
		return 0, fmt.Errorf("failed to sum weekly commit totals: %w", err)
	}
	g.logger.Infof("Completed fetching commit activity: %d commits", int(sum))
	return int(sum), nil
}

// countFromLink reads the total item count of a per_page=1 listing. Without a
// last relation everything fit on one page, so the item count is the total.
func countFromLink(resp *github.Response, items int) (int, error) {
	var link string
	if resp != nil && resp.Response != nil {
		link = resp.Header.Get("Link")
	}
	page, err := LastPage(link)
	if errors.Is(err, ErrNoLastRelation) {
		return items, nil
	}
	return page, err
}
