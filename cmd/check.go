package cmd

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"

	"github.com/naka-gawa/repo-vet/internal/config"
	"github.com/naka-gawa/repo-vet/internal/gateway"
	"github.com/naka-gawa/repo-vet/internal/sink"
	"github.com/naka-gawa/repo-vet/internal/usecase"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const exitRejected = 2

var errRejected = errors.New("repository does not meet the configured minimums")

func newCheckCmd() *cobra.Command {
	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Vets the GitHub repository linked in a text",
		Long: `Extracts the first https://<host>/<owner>/<name> link from the given text,
fetches the repository's metrics concurrently and compares each with its
minimum. Prints a per-metric PASS/FAIL report and the final verdict.`,
		Example: `  repo-vet check --text "See https://github.com/octocat/Hello-World" --min-stars 10
  gh pr view 42 --json body -q .body | repo-vet check --text-file - --output json`,
		Args: cobra.NoArgs,
		RunE: runCheck,
	}

	flags := checkCmd.Flags()
	flags.String("github-token", "", "GitHub token (default $GITHUB_TOKEN)")
	flags.String("text", "", "Text to scan for a repository link")
	flags.String("text-file", "", "Read the text from a file, or stdin when '-'")
	flags.String("min-stars", "", "Minimum number of stars")
	flags.String("min-watchers", "", "Minimum number of watchers")
	flags.String("min-contributors", "", "Minimum number of contributors")
	flags.String("min-forks", "", "Minimum number of forks")
	flags.String("min-commits", "", "Minimum number of commits")
	flags.String("min-commits-last-year", "", "Minimum number of commits over the last 52 weeks")
	flags.String("min-open-issues", "", "Minimum number of open issues")
	flags.Bool("tolerate-derivation-errors", false, "Report commit counts as 5000+ instead of failing when they cannot be derived")
	flags.Bool("include-anonymous-contributors", false, "Count anonymous contributors")
	flags.String("summary-source", string(gateway.SummaryREST), "API used for the repository summary (rest or graphql)")
	flags.String("api-url", "", "GitHub Enterprise API base URL")
	flags.StringP("output", "o", "text", "Output format (text, json or ndjson)")
	flags.String("github-output", "", "File to append key=value outputs to (default $GITHUB_OUTPUT)")
	flags.Duration("timeout", 0, "Abort the run after this long (0 disables)")
	flags.Bool("fail-on-reject", false, "Exit with status 2 when the final verdict is FAIL")
	return checkCmd
}

func runCheck(cmd *cobra.Command, _ []string) error {
	v := config.New()
	if err := config.BindFlags(v, cmd.Flags()); err != nil {
		return err
	}
	cfg, err := config.Load(v, cmd.InOrStdin())
	if err != nil {
		return failConfig(cmd, v.GetString(config.KeyGitHubOutput), err)
	}
	logger := newLogger(cfg.Verbose, cmd.ErrOrStderr())

	console, err := sink.NewConsoleSink(cmd.OutOrStdout(), cfg.Output)
	if err != nil {
		return err
	}
	var actions sink.Sink
	if cfg.GitHubOutput != "" {
		s, err := sink.NewActionsSink(cfg.GitHubOutput, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		actions = s
	}
	outputs := sink.NewMulti(console, actions)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	// Inject dependencies and run the main business logic.
	githubGateway, err := gateway.NewGitHubGateway(cfg.Token, logger, cfg.Gateway)
	if err != nil {
		return fail(outputs, err)
	}
	policies := usecase.DefaultPolicies()
	if cfg.TolerateDerivationErrors {
		policies = usecase.UniformPolicies(usecase.Tolerate)
	}
	aggregator := usecase.NewAggregator(githubGateway, outputs, policies, logger)

	outcome, err := aggregator.Vet(ctx, cfg.Text, cfg.Requirement)
	if err != nil {
		return fail(outputs, err)
	}
	if err := outputs.Close(); err != nil {
		return err
	}
	if cfg.FailOnReject && !outcome.FinalPass {
		return &exitError{code: exitRejected, err: errRejected}
	}
	return nil
}

// fail marks every sink failed, flushes them and returns err.
// failConfig annotates the workflow run when the configuration could not be
// loaded, as long as the output file itself is usable.
func failConfig(cmd *cobra.Command, githubOutput string, err error) error {
	if githubOutput == "" {
		return err
	}
	actions, openErr := sink.NewActionsSink(githubOutput, cmd.ErrOrStderr())
	if openErr != nil {
		return errors.Join(err, openErr)
	}
	return fail(actions, err)
}

func fail(outputs sink.Sink, err error) error {
	return errors.Join(err, outputs.Fail(err), outputs.Close())
}

func newLogger(verbose bool, w io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logger.SetOutput(io.Discard) // Default: discard all logs.
	if verbose {
		logger.SetOutput(w)
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}
