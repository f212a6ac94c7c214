// Package config loads and validates the run configuration from flags,
// INPUT_* environment variables and an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/naka-gawa/repo-vet/internal/domain"
	"github.com/naka-gawa/repo-vet/internal/gateway"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Configuration keys. Flags use the same names with hyphens.
const (
	KeyConfig                       = "config"
	KeyGitHubToken                  = "github_token"
	KeyText                         = "text"
	KeyTextFile                     = "text_file"
	KeyMinStars                     = "min_stars"
	KeyMinWatchers                  = "min_watchers"
	KeyMinContributors              = "min_contributors"
	KeyMinForks                     = "min_forks"
	KeyMinCommits                   = "min_commits"
	KeyMinCommitsLastYear           = "min_commits_last_year"
	KeyMinOpenIssues                = "min_open_issues"
	KeyTolerateDerivationErrors     = "tolerate_derivation_errors"
	KeyIncludeAnonymousContributors = "include_anonymous_contributors"
	KeySummarySource                = "summary_source"
	KeyAPIURL                       = "api_url"
	KeyOutput                       = "output"
	KeyGitHubOutput                 = "github_output"
	KeyTimeout                      = "timeout"
	KeyFailOnReject                 = "fail_on_reject"
	KeyVerbose                      = "verbose"
)

// EnvPrefix is the prefix the GitHub Actions runner gives step inputs.
const EnvPrefix = "INPUT"

var errMissing = errors.New("required value is missing")

// Config is the validated configuration of one run.
type Config struct {
	Token        string
	Text         string
	Requirement  domain.MetricRequirement
	GitHubOutput string
	Output       string
	Timeout      time.Duration
	FailOnReject bool
	Verbose      bool

	// TolerateDerivationErrors extends the contributor fallback to the
	// commit and commit activity derivations.
	TolerateDerivationErrors bool
	Gateway                  gateway.Options
}

// New returns a viper instance with defaults, config file lookup and
// environment bindings set up.
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigName(".repo-vet")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	// Aliases: the token the runner exports, the original pr_body input, and
	// the runner's output file.
	_ = v.BindEnv(KeyGitHubToken, "INPUT_GITHUB_TOKEN", "GITHUB_TOKEN")
	_ = v.BindEnv(KeyText, "INPUT_TEXT", "INPUT_PR_BODY")
	_ = v.BindEnv(KeyGitHubOutput, "INPUT_GITHUB_OUTPUT", "GITHUB_OUTPUT")

	v.SetDefault(KeySummarySource, string(gateway.SummaryREST))
	v.SetDefault(KeyOutput, "text")
	return v
}

// BindFlags binds every flag to the key of the same name with underscores.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var errs []error
	flags.VisitAll(func(f *pflag.Flag) {
		errs = append(errs, v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f))
	})
	return errors.Join(errs...)
}

// Load reads the config file, if any, and validates every value. stdin is
// read when text_file is "-".
func Load(v *viper.Viper, stdin io.Reader) (*Config, error) {
	if file := v.GetString(KeyConfig); file != "" {
		v.SetConfigFile(file)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, &domain.ConfigError{Key: KeyConfig, Err: fmt.Errorf("error reading config file: %w", err)}
		}
	}

	cfg := &Config{
		Token:                    strings.TrimSpace(v.GetString(KeyGitHubToken)),
		GitHubOutput:             v.GetString(KeyGitHubOutput),
		Output:                   v.GetString(KeyOutput),
		FailOnReject:             v.GetBool(KeyFailOnReject),
		Verbose:                  v.GetBool(KeyVerbose),
		TolerateDerivationErrors: v.GetBool(KeyTolerateDerivationErrors),
		Gateway: gateway.Options{
			BaseURL:          v.GetString(KeyAPIURL),
			SummarySource:    gateway.SummarySource(v.GetString(KeySummarySource)),
			IncludeAnonymous: v.GetBool(KeyIncludeAnonymousContributors),
		},
	}
	if cfg.Token == "" {
		return nil, &domain.ConfigError{Key: KeyGitHubToken, Err: errMissing}
	}

	text, err := loadText(v, stdin)
	if err != nil {
		return nil, err
	}
	cfg.Text = text

	timeout, err := parseDuration(v, KeyTimeout)
	if err != nil {
		return nil, err
	}
	cfg.Timeout = timeout

	switch cfg.Gateway.SummarySource {
	case gateway.SummaryREST, gateway.SummaryGraphQL:
	default:
		return nil, &domain.ConfigError{Key: KeySummarySource, Err: fmt.Errorf("must be %q or %q, got %q", gateway.SummaryREST, gateway.SummaryGraphQL, cfg.Gateway.SummarySource)}
	}
	switch cfg.Output {
	case "text", "json", "ndjson":
	default:
		return nil, &domain.ConfigError{Key: KeyOutput, Err: fmt.Errorf("must be text, json or ndjson, got %q", cfg.Output)}
	}

	thresholds := []struct {
		key string
		dst *int
	}{
		{KeyMinStars, &cfg.Requirement.MinStars},
		{KeyMinWatchers, &cfg.Requirement.MinWatchers},
		{KeyMinContributors, &cfg.Requirement.MinContributors},
		{KeyMinForks, &cfg.Requirement.MinForks},
		{KeyMinCommits, &cfg.Requirement.MinCommits},
		{KeyMinCommitsLastYear, &cfg.Requirement.MinCommitsLastYear},
		{KeyMinOpenIssues, &cfg.Requirement.MinOpenIssues},
	}
	for _, th := range thresholds {
		n, err := parseThreshold(v, th.key)
		if err != nil {
			return nil, err
		}
		*th.dst = n
	}
	return cfg, nil
}

func loadText(v *viper.Viper, stdin io.Reader) (string, error) {
	if text := v.GetString(KeyText); text != "" {
		return text, nil
	}
	var (
		data []byte
		err  error
	)
	switch file := v.GetString(KeyTextFile); file {
	case "":
		return "", &domain.ConfigError{Key: KeyText, Err: errMissing}
	case "-":
		data, err = io.ReadAll(stdin)
	default:
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return "", &domain.ConfigError{Key: KeyTextFile, Err: err}
	}
	return string(data), nil
}

// parseThreshold reads a non-negative integer. Unset means 0; anything
// non-numeric is rejected rather than silently failing every comparison.
func parseThreshold(v *viper.Viper, key string) (int, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &domain.ConfigError{Key: key, Err: fmt.Errorf("%q is not an integer", raw)}
	}
	if n < 0 {
		return 0, &domain.ConfigError{Key: key, Err: fmt.Errorf("%d is negative", n)}
	}
	return n, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" || raw == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, &domain.ConfigError{Key: key, Err: err}
	}
	if d < 0 {
		return 0, &domain.ConfigError{Key: key, Err: fmt.Errorf("%s is negative", d)}
	}
	return d, nil
}
