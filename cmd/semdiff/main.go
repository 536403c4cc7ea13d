// Package main provides the semdiff CLI entry point.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sourcelens/semdiff/cmd/semdiff/commands"
	"github.com/sourcelens/semdiff/pkg/version"
)

// Exit codes per §6 "Exit-code contract for driver programs": 0 = no
// changes, 1 = changes present, 2 = error. A renderer or CI step that
// treats any non-zero code as a failure is wrong about this contract.
const (
	exitNoChanges    = 0
	exitChangesFound = 1
	exitError        = 2
)

var cfgFile string //nolint:gochecknoglobals // CLI flag variable

func main() {
	rootCmd := &cobra.Command{
		Use:   "semdiff",
		Short: "Semantic, structure-aware diff for source trees",
		Long: `semdiff compares two source trees (folder mode) or a VCS
ref-range (ref-range mode) at the declaration level instead of the
text line level, classifying each change by impact: breaking-public,
breaking-internal, non-breaking, or formatting-only.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: .semdiff.yaml in CWD or $HOME)")

	rootCmd.AddCommand(commands.NewDiffCommand(&cfgFile))
	rootCmd.AddCommand(commands.NewMCPCommand())
	rootCmd.AddCommand(versionCmd())

	os.Exit(run(rootCmd))
}

// run executes rootCmd and maps its outcome to the §6 exit-code
// contract. commands.ErrChangesFound is not a failure: it is how the
// diff command signals "ran fine, found changes" without cobra
// printing anything for it.
func run(rootCmd *cobra.Command) int {
	err := rootCmd.Execute()

	switch {
	case err == nil:
		return exitNoChanges
	case errors.Is(err, commands.ErrChangesFound):
		return exitChangesFound
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		return exitError
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "semdiff %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
