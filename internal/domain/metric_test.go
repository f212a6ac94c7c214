package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassCheck(t *testing.T) {
	testCases := []struct {
		name        string
		count       int
		requirement int
		expected    bool
	}{
		{name: "equal passes", count: 10, requirement: 10, expected: true},
		{name: "below fails", count: 9, requirement: 10, expected: false},
		{name: "above passes", count: 11, requirement: 10, expected: true},
		{name: "zero requirement", count: 0, requirement: 0, expected: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := PassCheck(tc.count, tc.requirement)
			assert.Equal(t, tc.expected, r.Pass)
			assert.Equal(t, tc.count, r.Count)
			assert.False(t, r.Fallback)
		})
	}
}

func TestDerivation_Evaluate(t *testing.T) {
	fallback := Derivation{Fallback: true}.Evaluate(10000)
	assert.Equal(t, FallbackResult(), fallback)
	assert.True(t, fallback.Pass)

	assert.False(t, Derivation{Count: 3}.Evaluate(4).Pass)
}

func TestMetricResult_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(PassCheck(42, 10))
	require.NoError(t, err)
	assert.JSONEq(t, `{"count":42,"pass":true}`, string(data))

	data, err = json.Marshal(FallbackResult())
	require.NoError(t, err)
	assert.JSONEq(t, `{"count":"5000+","pass":true}`, string(data))
	assert.Equal(t, "5000+", FallbackResult().DisplayCount())
}

func TestAllPass(t *testing.T) {
	outcome := &RunOutcome{
		Stars:           PassCheck(1, 0),
		Watchers:        PassCheck(1, 0),
		OpenIssues:      PassCheck(1, 0),
		Forks:           PassCheck(1, 0),
		Contributors:    FallbackResult(),
		Commits:         PassCheck(1, 0),
		CommitsLastYear: PassCheck(1, 0),
	}
	assert.True(t, AllPass(outcome.Results()))

	outcome.Forks = PassCheck(0, 1)
	assert.False(t, AllPass(outcome.Results()))
	assert.Len(t, outcome.Results(), 7)
}
