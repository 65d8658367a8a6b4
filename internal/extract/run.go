package extract

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/fakeyudi/paws/internal/bundle"
	"github.com/fakeyudi/paws/internal/log"
)

// Options configures ExtractBundle.
type Options struct {
	// Override forces the payload mode instead of trusting the header.
	Override *bundle.Mode
	Policy   Policy
	Prompter Prompter
	// Interactive must be true for PolicyPrompt to take effect; otherwise
	// existing files are kept.
	Interactive bool
	DryRun      bool
	Log         *log.Logger
}

// Report is the outcome of ExtractBundle.
type Report struct {
	OutputDir string        `json:"output_dir" yaml:"output_dir"`
	Format    bundle.Format `json:"-" yaml:"-"`
	// FormatDescription mirrors Format.Description for serialized reports.
	FormatDescription string   `json:"format" yaml:"format"`
	DryRun            bool     `json:"dry_run" yaml:"dry_run"`
	Results           []Result `json:"results" yaml:"results"`
	Summary           Summary  `json:"summary" yaml:"summary"`
	Warnings          []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// ExtractBundle parses text and writes its files under outDir. Only an
// unusable output directory is returned as an error; per-file problems are
// reported in the results.
func ExtractBundle(text, outDir string, opts Options) (*Report, error) {
	root, fsys, err := openRoot(outDir, opts.DryRun)
	if err != nil {
		return nil, err
	}

	policy := opts.Policy
	if policy == PolicyPrompt && (!opts.Interactive || opts.Prompter == nil) {
		opts.Log.Debugf("not interactive; existing files will not be overwritten")
		policy = PolicyNo
	}

	p := &bundle.Parser{Override: opts.Override, Log: opts.Log}
	parsed := p.Parse(text)
	opts.Log.Infof("bundle format: %s", parsed.Format.Description)

	rep := &Report{
		OutputDir:         root,
		Format:            parsed.Format,
		FormatDescription: parsed.Format.Description,
		DryRun:            opts.DryRun,
		Warnings:          parsed.Warnings,
	}
	if len(parsed.Records) == 0 && len(parsed.Failures) == 0 {
		rep.Results = []Result{{Path: "bundle", Status: StatusSkipped, Message: "no files found in bundle"}}
		rep.Summary = Summarize(rep.Results)
		return rep, nil
	}

	ex := &Extractor{
		FS:       fsys,
		Policy:   policy,
		Prompter: opts.Prompter,
		DryRun:   opts.DryRun,
		Log:      opts.Log,
	}

	// Records and failures are each in line order; merge them.
	recs, fails := parsed.Records, parsed.Failures
	for len(recs) > 0 || len(fails) > 0 {
		if len(fails) > 0 && (len(recs) == 0 || fails[0].Line < recs[0].Line) {
			rep.Results = append(rep.Results, failureResult(fails[0]))
			fails = fails[1:]
			continue
		}
		rep.Results = append(rep.Results, ex.ExtractRecord(recs[0]))
		recs = recs[1:]
	}
	rep.Summary = Summarize(rep.Results)
	return rep, nil
}

func failureResult(f *bundle.RecordError) Result {
	p := f.Path
	if p == "" {
		p = fmt.Sprintf("line %d", f.Line)
	}
	return Result{Path: p, Status: StatusError, Message: f.Err.Error()}
}

// openRoot resolves outDir to an absolute real path, creating it if missing.
// A dry run against a missing directory uses an empty in-memory filesystem.
func openRoot(outDir string, dryRun bool) (string, billy.Filesystem, error) {
	abs, err := filepath.Abs(outDir)
	if err != nil {
		return "", nil, fmt.Errorf("resolving output directory %q: %w", outDir, err)
	}
	fi, err := os.Stat(abs)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if dryRun {
			return abs, memfs.New(), nil
		}
		if err := os.MkdirAll(abs, 0o755); err != nil {
			return "", nil, fmt.Errorf("creating output directory %s: %w", abs, err)
		}
	case err != nil:
		return "", nil, fmt.Errorf("output directory %s: %w", abs, err)
	case !fi.IsDir():
		return "", nil, fmt.Errorf("output path %s exists and is not a directory", abs)
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", nil, fmt.Errorf("resolving output directory %s: %w", abs, err)
	}
	return real, osfs.New(real), nil
}
