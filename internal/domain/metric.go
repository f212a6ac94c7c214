package domain

import (
	"encoding/json"
	"strconv"
)

// FallbackCount is reported in place of a count when a tolerated derivation
// fails. It stands for a value above any realistic threshold.
const FallbackCount = "5000+"

// Output keys, in the order they are reported.
const (
	KeyRepo            = "repo"
	KeyStars           = "stars"
	KeyWatchers        = "watchers"
	KeyOpenIssues      = "open_issues"
	KeyForks           = "forks"
	KeyContributors    = "contributors"
	KeyCommits         = "commits"
	KeyCommitsLastYear = "commits_last_year"
	KeyFinalPass       = "final_pass"
)

// MetricRequirement holds the configured minimum for every metric.
type MetricRequirement struct {
	MinStars           int `json:"min_stars"`
	MinWatchers        int `json:"min_watchers"`
	MinContributors    int `json:"min_contributors"`
	MinForks           int `json:"min_forks"`
	MinCommits         int `json:"min_commits"`
	MinCommitsLastYear int `json:"min_commits_last_year"`
	MinOpenIssues      int `json:"min_open_issues"`
}

// MetricResult is the evaluated value of one metric.
type MetricResult struct {
	Count int
	// Fallback marks a substituted result; Count is meaningless and
	// FallbackCount is reported instead.
	Fallback bool
	Pass     bool
}

// PassCheck compares count against requirement. Equality passes.
func PassCheck(count, requirement int) MetricResult {
	return MetricResult{Count: count, Pass: count >= requirement}
}

// FallbackResult is the fixed substitute for a tolerated derivation failure.
// It always passes.
func FallbackResult() MetricResult {
	return MetricResult{Fallback: true, Pass: true}
}

// DisplayCount returns the count as reported to users.
func (r MetricResult) DisplayCount() string {
	if r.Fallback {
		return FallbackCount
	}
	return strconv.Itoa(r.Count)
}

type metricResultJSON struct {
	Count any  `json:"count"`
	Pass  bool `json:"pass"`
}

// MarshalJSON encodes the count as a number, or as FallbackCount for fallbacks.
func (r MetricResult) MarshalJSON() ([]byte, error) {
	out := metricResultJSON{Count: r.Count, Pass: r.Pass}
	if r.Fallback {
		out.Count = FallbackCount
	}
	return json.Marshal(out)
}

// RepoSummary holds the counts returned by a single repository lookup.
type RepoSummary struct {
	Stars      int
	Watchers   int
	OpenIssues int
	Forks      int
}

// Derivation is the outcome of one derived count.
type Derivation struct {
	Count    int
	Fallback bool
}

// Evaluate applies requirement to the derivation.
func (d Derivation) Evaluate(requirement int) MetricResult {
	if d.Fallback {
		return FallbackResult()
	}
	return PassCheck(d.Count, requirement)
}

// RunOutcome is the full result of vetting one repository.
type RunOutcome struct {
	Repo            string       `json:"repo"`
	Stars           MetricResult `json:"stars"`
	Watchers        MetricResult `json:"watchers"`
	OpenIssues      MetricResult `json:"open_issues"`
	Forks           MetricResult `json:"forks"`
	Contributors    MetricResult `json:"contributors"`
	Commits         MetricResult `json:"commits"`
	CommitsLastYear MetricResult `json:"commits_last_year"`
	FinalPass       bool         `json:"final_pass"`
}

// Results returns the seven metric results in output order, keyed by output name.
func (o *RunOutcome) Results() []NamedResult {
	return []NamedResult{
		{KeyStars, o.Stars},
		{KeyWatchers, o.Watchers},
		{KeyOpenIssues, o.OpenIssues},
		{KeyForks, o.Forks},
		{KeyContributors, o.Contributors},
		{KeyCommits, o.Commits},
		{KeyCommitsLastYear, o.CommitsLastYear},
	}
}

// NamedResult pairs an output key with its result.
type NamedResult struct {
	Key    string
	Result MetricResult
}

// AllPass reports whether every result passes.
func AllPass(results []NamedResult) bool {
	for _, r := range results {
		if !r.Result.Pass {
			return false
		}
	}
	return true
}
