package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/fakeyudi/paws/internal/config"
	"github.com/fakeyudi/paws/internal/log"
)

// cfg holds the merged configuration, populated in PersistentPreRunE.
var cfg config.Config

// logger is built in PersistentPreRunE once -v is known.
var logger *log.Logger

var verbose bool

// stdinIsTerminal reports whether prompts can be answered. Tests replace it.
var stdinIsTerminal = func() bool { return term.IsTerminal(os.Stdin.Fd()) }

// stdoutIsTerminal decides between the TUI and plain output, and whether text
// reports are colored.
var stdoutIsTerminal = func() bool { return term.IsTerminal(os.Stdout.Fd()) }

var rootCmd = &cobra.Command{
	Use:   "paws",
	Short: "Bundle files into one text artifact and extract them back",
	Long: `paws packs a set of files into a single self-describing text bundle
and unpacks bundles back into files, tolerating bundles that were re-emitted
by a language model and only loosely follow the format.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = log.New(log.Options{Verbose: verbose, Output: cmd.ErrOrStderr()})

		// Load and merge config files.
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = c
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}
