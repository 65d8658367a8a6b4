// Package extract writes parsed bundle records to disk under an output root,
// enforcing path sanitization, root containment and the overwrite policy.
package extract

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/google/uuid"

	"github.com/fakeyudi/paws/internal/bundle"
	"github.com/fakeyudi/paws/internal/log"
)

var (
	// ErrOutsideRoot is returned for a record whose target resolves outside
	// the output root.
	ErrOutsideRoot = errors.New("path resolves outside the output directory")
	// ErrIsDirectory is returned when a directory already occupies the target.
	ErrIsDirectory = errors.New("target exists and is a directory")
	// ErrUnsafePath is returned for a bundle path that is absolute or
	// contains a ".." component.
	ErrUnsafePath = errors.New("absolute or parent-relative path in bundle")
)

// Policy decides what happens when a target file already exists.
type Policy int

const (
	PolicyPrompt Policy = iota
	PolicyYes
	PolicyNo
)

func (p Policy) String() string {
	switch p {
	case PolicyYes:
		return "yes"
	case PolicyNo:
		return "no"
	default:
		return "prompt"
	}
}

// ParsePolicy accepts yes, no or prompt.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "prompt":
		return PolicyPrompt, nil
	case "yes", "y":
		return PolicyYes, nil
	case "no", "n":
		return PolicyNo, nil
	}
	return PolicyPrompt, fmt.Errorf("unknown overwrite policy %q (must be yes, no or prompt)", s)
}

// Choice is an answer to an overwrite prompt.
type Choice int

const (
	ChoiceNo Choice = iota
	ChoiceYes
	ChoiceAll
	ChoiceSkipAll
	ChoiceQuit
)

// Prompter asks whether an existing file may be overwritten. A returned
// error is treated like ChoiceQuit.
type Prompter interface {
	ConfirmOverwrite(path string) (Choice, error)
}

// Status is the outcome of a single record.
type Status string

const (
	StatusExtracted Status = "extracted"
	StatusSkipped   Status = "skipped"
	StatusError     Status = "error"
)

// Result reports what happened to one record.
type Result struct {
	Path    string `json:"path" yaml:"path"`
	Status  Status `json:"status" yaml:"status"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

// Summary counts results by status.
type Summary struct {
	Extracted int `json:"extracted" yaml:"extracted"`
	Skipped   int `json:"skipped" yaml:"skipped"`
	Errors    int `json:"errors" yaml:"errors"`
}

// Summarize tallies results.
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		switch r.Status {
		case StatusExtracted:
			s.Extracted++
		case StatusSkipped:
			s.Skipped++
		case StatusError:
			s.Errors++
		}
	}
	return s
}

// Extractor writes records into FS, which is rooted at the output directory.
type Extractor struct {
	FS       billy.Filesystem
	Policy   Policy
	Prompter Prompter
	// DryRun runs every check and decision without writing.
	DryRun bool
	Log    *log.Logger

	quit bool
}

// Extract processes records in order. The policy may be upgraded to Yes or
// downgraded to No by prompt answers; after a quit every remaining record is
// skipped.
func (e *Extractor) Extract(records []bundle.FileRecord) []Result {
	results := make([]Result, 0, len(records))
	for _, rec := range records {
		results = append(results, e.ExtractRecord(rec))
	}
	return results
}

// ExtractRecord writes a single record.
func (e *Extractor) ExtractRecord(rec bundle.FileRecord) Result {
	rel := SanitizePath(rec.Path)
	res := Result{Path: filepath.ToSlash(rel)}
	if e.quit {
		res.Status = StatusSkipped
		res.Message = "skipped after quit"
		return res
	}

	if unsafePath(rec.Path) {
		return e.fail(res, rec.Path, ErrUnsafePath)
	}

	target, err := e.target(rel)
	if err != nil {
		return e.fail(res, rec.Path, err)
	}

	fi, err := e.FS.Lstat(target)
	if err == nil && fi.Mode()&fs.ModeSymlink != 0 {
		if st, serr := e.FS.Stat(target); serr == nil && st.IsDir() {
			return e.fail(res, rec.Path, ErrIsDirectory)
		}
	}
	switch {
	case err == nil && fi.IsDir():
		return e.fail(res, rec.Path, ErrIsDirectory)
	case err == nil:
		overwrite, msg := e.decide(res.Path)
		if !overwrite {
			res.Status = StatusSkipped
			res.Message = msg
			e.Log.Infof("skipped %s: %s", res.Path, msg)
			return res
		}
		if fi.Mode()&fs.ModeSymlink != 0 && !e.DryRun {
			if err := e.FS.Remove(target); err != nil {
				return e.fail(res, rec.Path, fmt.Errorf("removing existing symlink: %w", err))
			}
		}
	case !errors.Is(err, fs.ErrNotExist):
		return e.fail(res, rec.Path, err)
	}

	if !e.DryRun {
		if err := e.write(target, rec.Content); err != nil {
			return e.fail(res, rec.Path, err)
		}
	}
	res.Status = StatusExtracted
	if e.DryRun {
		res.Message = "dry run, not written"
	}
	e.Log.Debugf("extracted %s (%d bytes)", res.Path, len(rec.Content))
	return res
}

// target returns the root-relative location to write rel to. Symlinked parent
// directories are resolved; a symlink in the final position is checked but
// left for the caller to replace.
func (e *Extractor) target(rel string) (string, error) {
	if !filepath.IsLocal(rel) {
		return "", ErrOutsideRoot
	}
	slashed := filepath.ToSlash(rel)
	parent, err := resolve(e.FS, path.Dir(slashed))
	if err != nil {
		return "", err
	}
	t := path.Join(parent, path.Base(slashed))
	if _, err := resolve(e.FS, t); err != nil {
		return "", err
	}
	return t, nil
}

func (e *Extractor) decide(p string) (bool, string) {
	switch e.Policy {
	case PolicyYes:
		return true, ""
	case PolicyNo:
		return false, "exists, not overwritten"
	}
	if e.Prompter == nil {
		return false, "exists, not overwritten"
	}
	choice, err := e.Prompter.ConfirmOverwrite(p)
	if err != nil {
		e.Log.Debugf("prompt ended: %v", err)
		choice = ChoiceQuit
	}
	switch choice {
	case ChoiceYes:
		return true, ""
	case ChoiceAll:
		e.Policy = PolicyYes
		return true, ""
	case ChoiceSkipAll:
		e.Policy = PolicyNo
		return false, "exists, skipped"
	case ChoiceQuit:
		e.quit = true
		return false, "skipped after quit"
	default:
		return false, "exists, skipped"
	}
}

// write creates parent directories and replaces target atomically.
func (e *Extractor) write(target string, content []byte) error {
	dir := path.Dir(target)
	if dir != "." {
		if err := e.FS.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory: %w", err)
		}
	}
	tmp := path.Join(dir, ".paws-"+uuid.NewString()+".tmp")
	f, err := e.FS.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		_ = e.FS.Remove(tmp)
		return fmt.Errorf("writing: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = e.FS.Remove(tmp)
		return fmt.Errorf("writing: %w", err)
	}
	if err := e.FS.Rename(tmp, target); err != nil {
		_ = e.FS.Remove(tmp)
		return fmt.Errorf("replacing file: %w", err)
	}
	return nil
}

func (e *Extractor) fail(res Result, original string, err error) Result {
	res.Status = StatusError
	res.Message = err.Error()
	e.Log.Errorf("%q: %v", original, err)
	return res
}
