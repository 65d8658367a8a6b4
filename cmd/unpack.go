package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/paws/internal/bundle"
	"github.com/fakeyudi/paws/internal/extract"
	"github.com/fakeyudi/paws/internal/prompt"
	"github.com/fakeyudi/paws/internal/render"
)

var (
	unpackInputFormat string
	unpackYes         bool
	unpackNo          bool
	unpackDryRun      bool
	unpackReport      string
)

var unpackCmd = &cobra.Command{
	Use:   "unpack [BUNDLE] [OUTDIR]",
	Short: "Extract the files of a bundle into a directory",
	Long: `Parse BUNDLE (default: cats_out.bundle) and write its files under OUTDIR
(default: the current directory). Paths are sanitized and can never leave
OUTDIR. Existing files are only replaced with -y or after confirmation.`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		bundlePath := cfg.Output
		if bundlePath == "" {
			bundlePath = bundle.DefaultFilename
		}
		if len(args) > 0 {
			bundlePath = args[0]
		}
		outDir := "."
		if len(args) > 1 {
			outDir = args[1]
		}

		text, err := readBundle(bundlePath)
		if err != nil {
			return err
		}
		override, err := inputOverride(cmd, unpackInputFormat)
		if err != nil {
			return err
		}
		policy, err := overwritePolicy()
		if err != nil {
			return err
		}
		reportName := cfg.ReportFormat
		if cmd.Flags().Changed("report") {
			reportName = unpackReport
		}
		format, err := render.ParseFormat(reportName)
		if err != nil {
			return err
		}

		interactive := stdinIsTerminal()
		p := prompt.New(cmd.InOrStdin(), cmd.ErrOrStderr())
		if interactive && policy == extract.PolicyPrompt && !unpackDryRun {
			ok, err := confirmPlan(cmd.ErrOrStderr(), p, text, outDir, override)
			if err != nil || !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Extraction cancelled.")
				return nil
			}
		}

		rep, err := extract.ExtractBundle(text, outDir, extract.Options{
			Override:    override,
			Policy:      policy,
			Prompter:    p,
			Interactive: interactive,
			DryRun:      unpackDryRun,
			Log:         logger,
		})
		if err != nil {
			return err
		}

		color := format == render.FormatText && stdoutIsTerminal()
		return render.New(format, color, cmd.OutOrStdout()).Render(rep)
	},
}

// readBundle reads path as text, replacing invalid UTF-8.
func readBundle(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("bundle not found: %s", path)
		}
		return "", fmt.Errorf("reading bundle: %w", err)
	}
	return strings.ToValidUTF8(string(data), "�"), nil
}

// inputOverride resolves -i, falling back to the configured input format.
func inputOverride(cmd *cobra.Command, flagVal string) (*bundle.Mode, error) {
	name := cfg.InputFormat
	if cmd.Flags().Changed("input-format") {
		name = flagVal
	}
	mode, ok, err := bundle.ParseOverride(name)
	if err != nil || !ok {
		return nil, err
	}
	return &mode, nil
}

func overwritePolicy() (extract.Policy, error) {
	switch {
	case unpackYes && unpackNo:
		return 0, errors.New("-y and -n cannot be used together")
	case unpackYes:
		return extract.PolicyYes, nil
	case unpackNo:
		return extract.PolicyNo, nil
	}
	return extract.ParsePolicy(cfg.Overwrite)
}

// confirmPlan lists what the bundle would produce and asks to continue.
func confirmPlan(w io.Writer, p *prompt.Prompter, text, outDir string, override *bundle.Mode) (bool, error) {
	parsed := (&bundle.Parser{Override: override, Log: logger}).Parse(text)
	fmt.Fprintf(w, "Bundle format: %s\n", parsed.Format.Description)
	fmt.Fprintf(w, "Files to extract into %s (%d):\n", outDir, len(parsed.Records))
	for _, r := range parsed.Records {
		fmt.Fprintf(w, "  - %s\n", extract.SanitizePath(r.Path))
	}
	if len(parsed.Failures) > 0 {
		fmt.Fprintf(w, "%d record(s) could not be decoded and will be reported as errors.\n", len(parsed.Failures))
	}
	if len(parsed.Records) == 0 {
		return true, nil
	}
	return p.Confirm("Proceed with extraction?", true)
}

func init() {
	unpackCmd.Flags().StringVarP(&unpackInputFormat, "input-format", "i", "auto", "payload format: auto, b64 or utf8")
	unpackCmd.Flags().BoolVarP(&unpackYes, "yes", "y", false, "overwrite existing files without asking")
	unpackCmd.Flags().BoolVarP(&unpackNo, "no", "n", false, "never overwrite existing files")
	unpackCmd.Flags().BoolVar(&unpackDryRun, "dry-run", false, "report what would be written without touching disk")
	unpackCmd.Flags().StringVar(&unpackReport, "report", "text", "report format: text, json or yaml")
	unpackCmd.MarkFlagsMutuallyExclusive("yes", "no")
	rootCmd.AddCommand(unpackCmd)
}
