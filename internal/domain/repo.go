// Package domain contains the core data structures and domain logic for the application.
package domain

import (
	"fmt"
	"regexp"
)

// repoURLPattern matches https://<host>/<owner>/<name>. The name may not end in
// a period so that "repo./path" resolves to "repo".
var repoURLPattern = regexp.MustCompile(`https://[^/\s]+/([\w.-]+)/([\w.-]*[\w-])`)

// RepositoryRef identifies a hosted repository.
type RepositoryRef struct {
	Owner string
	Name  string
}

// String returns the "owner/name" form of the reference.
func (r RepositoryRef) String() string {
	return fmt.Sprintf("%s/%s", r.Owner, r.Name)
}

// ExtractRepo returns the first repository reference found in text.
// It fails with a *ConfigError wrapping ErrNoRepositoryReference when there is none.
func ExtractRepo(text string) (RepositoryRef, error) {
	m := repoURLPattern.FindStringSubmatch(text)
	if m == nil {
		return RepositoryRef{}, &ConfigError{Key: "text", Err: ErrNoRepositoryReference}
	}
	return RepositoryRef{Owner: m[1], Name: m[2]}, nil
}
