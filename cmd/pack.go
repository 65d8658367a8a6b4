package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/paws/internal/bundle"
	"github.com/fakeyudi/paws/internal/collector"
	"github.com/fakeyudi/paws/internal/prompt"
)

var (
	packOutput   string
	packExcludes []string
	packForceB64 bool
	packDialect  string
	packYes      bool
	packWatch    bool
)

var packCmd = &cobra.Command{
	Use:   "pack [PATH...]",
	Short: "Bundle files and directories into a single text file",
	Long: `Collect the given files and directories (default: the current directory)
and write them as one bundle. Text files are stored verbatim; if any file is not
plain UTF-8 text the whole bundle is stored as Base64.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPacker(cmd, args)
		if err != nil {
			return err
		}

		roots, err := p.run(cmd.Context(), !packYes && stdinIsTerminal())
		if errors.Is(err, errCancelled) {
			fmt.Fprintln(cmd.OutOrStdout(), "Bundling cancelled.")
			return nil
		}
		if err != nil || !packWatch {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		fmt.Fprintln(cmd.ErrOrStderr(), "Watching for changes (Ctrl+C to stop)...")
		return collector.Watch(ctx, roots, collector.WatchOptions{
			Skip: p.isOutput,
			OnChange: func() {
				if _, err := p.run(ctx, false); err != nil {
					logger.Errorf("re-pack failed: %v", err)
				}
			},
			Log: logger,
		})
	},
}

// errCancelled is returned by run when the confirmation is declined.
var errCancelled = errors.New("bundling cancelled")

// packer holds everything one pack run needs, so --watch can repeat it.
type packer struct {
	opts    collector.Options
	encoder *bundle.Encoder
	output  string
	in      io.Reader
	out     io.Writer
	errOut  io.Writer
}

func newPacker(cmd *cobra.Command, args []string) (*packer, error) {
	output := cfg.Output
	if cmd.Flags().Changed("output") {
		output = packOutput
	}
	if output == "" {
		output = bundle.DefaultFilename
	}
	abs, err := filepath.Abs(output)
	if err != nil {
		return nil, err
	}

	dialectName := cfg.Dialect
	if cmd.Flags().Changed("dialect") {
		dialectName = packDialect
	}
	dialect, err := bundle.ParseDialect(dialectName)
	if err != nil {
		return nil, err
	}

	excludes := append(append([]string(nil), cfg.Exclude...), packExcludes...)
	return &packer{
		opts: collector.Options{
			Include:              args,
			Exclude:              excludes,
			OutputFile:           abs,
			IgnorePatterns:       cfg.IgnorePatterns,
			ConventionalIncludes: cfg.ConventionalIncludes,
		},
		encoder: &bundle.Encoder{
			ForceBase64: packForceB64 || cfg.ForceBase64Enabled(),
			Dialect:     dialect,
			Log:         logger,
		},
		output: abs,
		in:     cmd.InOrStdin(),
		out:    cmd.OutOrStdout(),
		errOut: cmd.ErrOrStderr(),
	}, nil
}

// run collects, encodes and writes the bundle once. It returns the include
// roots so callers can watch them.
func (p *packer) run(ctx context.Context, confirm bool) ([]string, error) {
	fc := &collector.FileCollector{Options: p.opts}
	res, err := fc.Collect(ctx)
	if err != nil {
		return nil, err
	}
	for _, w := range res.Warnings {
		logger.Warnf("%s", w)
	}
	if len(res.Files) == 0 {
		return res.Roots, errors.New("no files to bundle")
	}

	ancestor := bundle.CommonAncestor(res.Files)
	enc, err := p.encoder.Encode(res.Files, ancestor)
	if err != nil {
		return res.Roots, err
	}

	if confirm {
		fmt.Fprintf(p.errOut, "Files to bundle (%d), relative to %s:\n", len(enc.Files), ancestor)
		for _, f := range enc.Files {
			fmt.Fprintf(p.errOut, "  - %s\n", f)
		}
		fmt.Fprintf(p.errOut, "Format: %s\n", enc.Format)
		ok, err := prompt.New(p.in, p.errOut).Confirm("Proceed with bundling to "+p.output+"?", true)
		if err != nil || !ok {
			return res.Roots, errCancelled
		}
	}

	if err := os.MkdirAll(filepath.Dir(p.output), 0o755); err != nil {
		return res.Roots, fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(p.output, []byte(enc.Text), 0o644); err != nil {
		return res.Roots, fmt.Errorf("writing bundle: %w", err)
	}
	fmt.Fprintf(p.out, "Bundled %d files into %s (%s)\n", len(enc.Files), p.output, enc.Format)
	return res.Roots, nil
}

// isOutput reports whether path is the bundle being written, so writing it
// does not trigger another pack.
func (p *packer) isOutput(path string) bool {
	if path == p.output {
		return true
	}
	dir, err := filepath.EvalSymlinks(filepath.Dir(p.output))
	if err != nil {
		return false
	}
	return path == filepath.Join(dir, filepath.Base(p.output))
}

func init() {
	packCmd.Flags().StringVarP(&packOutput, "output", "o", bundle.DefaultFilename, "bundle file to write")
	packCmd.Flags().StringSliceVarP(&packExcludes, "exclude", "x", nil, "path to exclude (repeatable)")
	packCmd.Flags().BoolVar(&packForceB64, "force-b64", false, "store every file as Base64")
	packCmd.Flags().StringVar(&packDialect, "dialect", "cats", "marker dialect: cats or dogs")
	packCmd.Flags().BoolVarP(&packYes, "yes", "y", false, "skip the confirmation prompt")
	packCmd.Flags().BoolVar(&packWatch, "watch", false, "re-pack whenever an input changes")
	rootCmd.AddCommand(packCmd)
}
