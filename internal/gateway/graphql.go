package gateway

import (
	"context"
	"fmt"

	"github.com/naka-gawa/repo-vet/internal/domain"
	"github.com/shurcooL/githubv4"
)

// repoSummaryQuery mirrors the REST repository counters. Open pull requests are
// fetched too because REST's open_issues_count includes them.
type repoSummaryQuery struct {
	Repository struct {
		StargazerCount int
		ForkCount      int
		Watchers       struct {
			TotalCount int
		}
		Issues struct {
			TotalCount int
		} `graphql:"issues(states: OPEN)"`
		PullRequests struct {
			TotalCount int
		} `graphql:"pullRequests(states: OPEN)"`
	} `graphql:"repository(owner: $owner, name: $name)"`
}

func (g *GitHubGateway) fetchSummaryGraphQL(ctx context.Context, ref domain.RepositoryRef) (*domain.RepoSummary, error) {
	variables := map[string]interface{}{
		"owner": githubv4.String(ref.Owner),
		"name":  githubv4.String(ref.Name),
	}
	var q repoSummaryQuery
	if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
		return nil, fmt.Errorf("failed to execute GraphQL query for repository summary: %w", err)
	}
	return &domain.RepoSummary{
		Stars:      q.Repository.StargazerCount,
		Watchers:   q.Repository.Watchers.TotalCount,
		OpenIssues: q.Repository.Issues.TotalCount + q.Repository.PullRequests.TotalCount,
		Forks:      q.Repository.ForkCount,
	}, nil
}
