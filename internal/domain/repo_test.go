package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractRepo(t *testing.T) {
	testCases := []struct {
		name     string
		text     string
		expected RepositoryRef
	}{
		{
			name:     "url in a sentence",
			text:     "See https://github.com/octocat/Hello-World for details",
			expected: RepositoryRef{Owner: "octocat", Name: "Hello-World"},
		},
		{
			name:     "url with path suffix",
			text:     "https://github.com/golang/go/tree/master/src",
			expected: RepositoryRef{Owner: "golang", Name: "go"},
		},
		{
			name:     "url with query suffix",
			text:     "link: https://github.com/spf13/cobra?tab=readme-ov-file",
			expected: RepositoryRef{Owner: "spf13", Name: "cobra"},
		},
		{
			name:     "dots and underscores in identifiers",
			text:     "https://github.com/my.org/my_repo.js",
			expected: RepositoryRef{Owner: "my.org", Name: "my_repo.js"},
		},
		{
			name:     "trailing period is not part of the name",
			text:     "Please review https://github.com/octocat/Spoon-Knife.",
			expected: RepositoryRef{Owner: "octocat", Name: "Spoon-Knife"},
		},
		{
			name:     "first of several urls wins",
			text:     "https://github.com/first/one and https://github.com/second/two",
			expected: RepositoryRef{Owner: "first", Name: "one"},
		},
		{
			name:     "other hosts are accepted",
			text:     "mirror at https://git.example.com/team/service/",
			expected: RepositoryRef{Owner: "team", Name: "service"},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ref, err := ExtractRepo(tc.text)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, ref)
		})
	}
}

func TestExtractRepo_NoReference(t *testing.T) {
	for _, text := range []string{
		"",
		"no links here",
		"http://github.com/octocat/Hello-World",
		"https://github.com/octocat",
	} {
		t.Run(text, func(t *testing.T) {
			_, err := ExtractRepo(text)
			require.Error(t, err)
			var cfgErr *ConfigError
			assert.True(t, errors.As(err, &cfgErr))
			assert.ErrorIs(t, err, ErrNoRepositoryReference)
			assert.Contains(t, err.Error(), "no repository reference found")
		})
	}
}

func TestRepositoryRef_String(t *testing.T) {
	assert.Equal(t, "octocat/Hello-World", RepositoryRef{Owner: "octocat", Name: "Hello-World"}.String())
}
