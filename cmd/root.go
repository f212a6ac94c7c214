// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Set by the linker at release time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "repo-vet",
		Short: "A CLI tool to vet a GitHub repository against minimum popularity and activity metrics.",
		Long: `repo-vet finds a GitHub repository link in free-form text (such as a pull
request description), fetches its stars, watchers, open issues, forks,
contributors, commits and commits over the last year, and checks each of them
against a configured minimum.

It runs as a plain CLI or as a GitHub Actions step: inputs are read from
INPUT_* environment variables and outputs are appended to $GITHUB_OUTPUT.`,
		Version:       fmt.Sprintf("%s (%s) %s", version, commit, date),
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	// Add a persistent flag for verbose output, available to all commands.
	root.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	root.PersistentFlags().String("config", "", "Config file (default is ./.repo-vet.yaml, then $HOME/.repo-vet.yaml)")
	root.AddCommand(newCheckCmd())
	return root
}

// exitError carries the process exit code for an error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return 1
}
