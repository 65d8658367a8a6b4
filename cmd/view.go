package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/paws/internal/bundle"
	"github.com/fakeyudi/paws/internal/tui"
)

var (
	plainOutput     bool
	viewInputFormat string
)

var viewCmd = &cobra.Command{
	Use:   "view <bundle>",
	Short: "Browse the contents of a bundle without extracting it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]

		text, err := readBundle(path)
		if err != nil {
			return err
		}
		override, err := inputOverride(cmd, viewInputFormat)
		if err != nil {
			return err
		}

		res := (&bundle.Parser{Override: override, Log: logger}).Parse(text)
		if plainOutput || !stdoutIsTerminal() {
			printBundle(cmd.OutOrStdout(), res)
			return nil
		}
		return tui.Run(res, path)
	},
}

// printBundle writes a plain-text listing of a parsed bundle.
func printBundle(w io.Writer, res *bundle.ParseResult) {
	fmt.Fprintln(w, "## Summary")
	fmt.Fprintf(w, "  Format:    %s\n", res.Format.Description)
	fmt.Fprintf(w, "  Files:     %d\n", len(res.Records))
	fmt.Fprintf(w, "  Failures:  %d\n", len(res.Failures))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "## Files")
	if len(res.Records) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, r := range res.Records {
		note := ""
		if r.Forced {
			note = ", unterminated"
		}
		fmt.Fprintf(w, "  %s  (%d bytes, %s, line %d%s)\n", r.Path, len(r.Content), r.Source, r.Line, note)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "## Issues")
	if len(res.Failures) == 0 && len(res.Warnings) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, f := range res.Failures {
		fmt.Fprintf(w, "  error: %v\n", f)
	}
	for _, warn := range res.Warnings {
		fmt.Fprintf(w, "  warning: %s\n", warn)
	}
}

func init() {
	viewCmd.Flags().BoolVar(&plainOutput, "plain", false, "plain text output instead of TUI")
	viewCmd.Flags().StringVarP(&viewInputFormat, "input-format", "i", "auto", "payload format: auto, b64 or utf8")
	rootCmd.AddCommand(viewCmd)
}
