package usecase

import "fmt"

// FailurePolicy decides what happens when a metric derivation fails.
type FailurePolicy int

const (
	// Strict propagates the failure and fails the run.
	Strict FailurePolicy = iota
	// Tolerate substitutes domain.FallbackResult and lets the run continue.
	Tolerate
)

func (p FailurePolicy) String() string {
	switch p {
	case Strict:
		return "strict"
	case Tolerate:
		return "tolerate"
	default:
		return fmt.Sprintf("FailurePolicy(%d)", int(p))
	}
}

// Policies holds the failure policy of each derived metric. The repository
// summary has no policy: its failure is always fatal.
type Policies struct {
	Contributors    FailurePolicy
	Commits         FailurePolicy
	CommitsLastYear FailurePolicy
}

// DefaultPolicies tolerates contributor count failures only. GitHub refuses
// the contributor listing for very large repositories.
func DefaultPolicies() Policies {
	return Policies{Contributors: Tolerate, Commits: Strict, CommitsLastYear: Strict}
}

// UniformPolicies applies p to every derivation.
func UniformPolicies(p FailurePolicy) Policies {
	return Policies{Contributors: p, Commits: p, CommitsLastYear: p}
}
