// Package usecase contains the business logic of the application.
package usecase

import (
	"context"

	"github.com/naka-gawa/repo-vet/internal/domain"
	"github.com/naka-gawa/repo-vet/internal/gateway"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Reporter receives named outputs as soon as they are known.
// Implementations must be safe for concurrent use.
type Reporter interface {
	SetOutput(key string, value any) error
}

// Aggregator is the use case for vetting a repository.
// It orchestrates the fetching and evaluation of every metric.
type Aggregator struct {
	fetcher  gateway.Fetcher
	reporter Reporter
	policies Policies
	logger   logrus.FieldLogger
}

// NewAggregator creates a new Aggregator instance.
func NewAggregator(fetcher gateway.Fetcher, reporter Reporter, policies Policies, logger logrus.FieldLogger) *Aggregator {
	return &Aggregator{
		fetcher:  fetcher,
		reporter: reporter,
		policies: policies,
		logger:   logger,
	}
}

// Vet extracts the repository referenced by text and checks it against req.
//
// The summary and the three derivations run concurrently and each reports its
// own outputs when it settles. Vet waits for all of them; if any non-tolerated
// branch failed, that error is returned and final_pass is never reported.
func (a *Aggregator) Vet(ctx context.Context, text string, req domain.MetricRequirement) (*domain.RunOutcome, error) {
	ref, err := domain.ExtractRepo(text)
	if err != nil {
		return nil, err
	}
	a.logger.Infof("Usecase: Vetting %s...", ref)

	outcome := &domain.RunOutcome{Repo: ref.String()}
	if err := a.reporter.SetOutput(domain.KeyRepo, outcome.Repo); err != nil {
		return nil, err
	}

	// Every branch writes to its own fields of outcome. A plain Group is used
	// so that one failure does not cancel the others.
	var eg errgroup.Group

	eg.Go(func() error {
		summary, err := a.fetcher.FetchSummary(ctx, ref)
		if err != nil {
			return err
		}
		outcome.Stars = domain.PassCheck(summary.Stars, req.MinStars)
		outcome.Watchers = domain.PassCheck(summary.Watchers, req.MinWatchers)
		outcome.OpenIssues = domain.PassCheck(summary.OpenIssues, req.MinOpenIssues)
		outcome.Forks = domain.PassCheck(summary.Forks, req.MinForks)
		return a.report(
			domain.NamedResult{Key: domain.KeyStars, Result: outcome.Stars},
			domain.NamedResult{Key: domain.KeyWatchers, Result: outcome.Watchers},
			domain.NamedResult{Key: domain.KeyOpenIssues, Result: outcome.OpenIssues},
			domain.NamedResult{Key: domain.KeyForks, Result: outcome.Forks},
		)
	})

	eg.Go(func() error {
		d, err := a.derive(ctx, domain.KeyContributors, a.policies.Contributors, func() (int, error) {
			return a.fetcher.CountContributors(ctx, ref)
		})
		if err != nil {
			return err
		}
		outcome.Contributors = d.Evaluate(req.MinContributors)
		return a.report(domain.NamedResult{Key: domain.KeyContributors, Result: outcome.Contributors})
	})

	eg.Go(func() error {
		d, err := a.derive(ctx, domain.KeyCommits, a.policies.Commits, func() (int, error) {
			return a.fetcher.CountCommits(ctx, ref)
		})
		if err != nil {
			return err
		}
		outcome.Commits = d.Evaluate(req.MinCommits)
		return a.report(domain.NamedResult{Key: domain.KeyCommits, Result: outcome.Commits})
	})

	eg.Go(func() error {
		d, err := a.derive(ctx, domain.KeyCommitsLastYear, a.policies.CommitsLastYear, func() (int, error) {
			return a.fetcher.CountCommitsLastYear(ctx, ref)
		})
		if err != nil {
			return err
		}
		outcome.CommitsLastYear = d.Evaluate(req.MinCommitsLastYear)
		return a.report(domain.NamedResult{Key: domain.KeyCommitsLastYear, Result: outcome.CommitsLastYear})
	})

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	a.logger.Info("Usecase: All metrics settled.")

	outcome.FinalPass = domain.AllPass(outcome.Results())
	if err := a.reporter.SetOutput(domain.KeyFinalPass, outcome.FinalPass); err != nil {
		return nil, err
	}
	a.logger.Infof("Usecase: Vetting complete, final_pass=%t", outcome.FinalPass)
	return outcome, nil
}

// derive runs count under policy. A tolerated failure becomes a fallback
// derivation, unless ctx itself is done.
func (a *Aggregator) derive(ctx context.Context, metric string, policy FailurePolicy, count func() (int, error)) (domain.Derivation, error) {
	n, err := count()
	if err == nil {
		return domain.Derivation{Count: n}, nil
	}
	if policy == Tolerate && ctx.Err() == nil {
		a.logger.WithError(err).Warnf("Could not derive %s; reporting %s", metric, domain.FallbackCount)
		return domain.Derivation{Fallback: true}, nil
	}
	return domain.Derivation{}, &domain.DerivationError{Metric: metric, Err: err}
}

func (a *Aggregator) report(results ...domain.NamedResult) error {
	for _, r := range results {
		if err := a.reporter.SetOutput(r.Key, r.Result); err != nil {
			return err
		}
	}
	return nil
}
