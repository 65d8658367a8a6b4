// Package bundle encodes file sets into a single self-describing text artifact
// and parses such artifacts back into file records, tolerating bundles that
// were re-emitted by a process which only loosely follows the format.
package bundle

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Header and format line prefixes.
const (
	CatsHeader   = "# Cats Bundle"
	DogsHeader   = "# Dogs Bundle"
	FormatPrefix = "# Format: "

	// DefaultFilename is the bundle written by pack and read by unpack when no
	// name is given.
	DefaultFilename = "cats_out.bundle"
)

// Dialect is a start/end marker keyword family.
type Dialect string

const (
	DialectCats Dialect = "CATS"
	DialectDogs Dialect = "DOGS"
)

// ParseDialect accepts "cats" or "dogs" in any case. Empty means cats.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "CATS":
		return DialectCats, nil
	case "DOGS":
		return DialectDogs, nil
	}
	return "", fmt.Errorf("unknown dialect %q (must be cats or dogs)", s)
}

// Header returns the bundle-kind tag written for d.
func (d Dialect) Header() string {
	if d == DialectDogs {
		return DogsHeader
	}
	return CatsHeader
}

// StartMarker returns the start marker line for path.
func (d Dialect) StartMarker(path string) string {
	return fmt.Sprintf("--- %s_START_FILE: %s ---", d, path)
}

// EndMarker returns the end marker line.
func (d Dialect) EndMarker() string {
	return fmt.Sprintf("--- %s_END_FILE ---", d)
}

// Mode is the payload encoding declared for a whole bundle.
type Mode int

const (
	ModeRawText Mode = iota
	ModeBase64
)

func (m Mode) String() string {
	if m == ModeBase64 {
		return "Base64"
	}
	return "Raw UTF-8"
}

// ParseOverride maps a caller-supplied format override to a Mode.
// "auto" and "" return ok == false.
func ParseOverride(s string) (mode Mode, ok bool, err error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ModeRawText, false, nil
	case "b64", "base64":
		return ModeBase64, true, nil
	case "utf8", "utf-8", "raw":
		return ModeRawText, true, nil
	}
	return ModeRawText, false, fmt.Errorf("unknown input format %q (must be auto, b64 or utf8)", s)
}

// Source records which grammar produced a FileRecord.
type Source string

const (
	SourceCats      Source = "cats"
	SourceDogs      Source = "dogs"
	SourceHeuristic Source = "heuristic"
)

// FileRecord is one file recovered from a bundle.
type FileRecord struct {
	Path    string // bundle-relative, forward slashes, never empty
	Content []byte
	Mode    Mode
	Source  Source
	Line    int  // 1-based line of the start marker
	Forced  bool // closed by a later start marker or end of input
}

// ErrEmptyPath is wrapped by a RecordError for a marker without a path.
var ErrEmptyPath = errors.New("empty path in start marker")

// RecordError reports a record that was dropped during parsing.
type RecordError struct {
	Path string
	Line int
	Err  error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %q at line %d: %v", e.Path, e.Line, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

var (
	catsStartRe = regexp.MustCompile(`(?i)^-{3,}\s*CATS_START_FILE\s*:\s*(.+?)\s*-{3,}$`)
	catsEndRe   = regexp.MustCompile(`(?i)^-{3,}\s*CATS_END_FILE\s*-{3,}$`)
	dogsStartRe = regexp.MustCompile(`(?i)^-{3,}\s*DOGS_START_FILE\s*:\s*(.+?)\s*-{3,}$`)
	dogsEndRe   = regexp.MustCompile(`(?i)^-{3,}\s*DOGS_END_FILE\s*-{3,}$`)

	// narrationRe recognises "Editing `path`:" style lines. The keyword must be
	// followed by a colon or whitespace, so code like file.write(x) is not
	// narration. Anything not listed falls through as noise.
	narrationRe = regexp.MustCompile(
		"(?i)^\\s*(?:\\*\\*|__)?(?:now generating file|current file|editing|generating|processing|file)(?:\\s*:\\s*|\\s+)" +
			"[`\"]?(?P<path>[\\w./\\\\~-]+)[`\"]?:?" +
			"(?:\\s*\\(.*\\)|\\s*\\b(?:and|also|with|which)\\b.*|\\s+`?#.*|\\s*(?:\\*\\*|__).*)?:?\\s*$")

	fenceRe = regexp.MustCompile("^\\s*```(?:[\\w+\\-.]+)?\\s*$")

	continuationRe = regexp.MustCompile(`(?i)^\s*(?:continue|proceed|c|next|go on|resume|okay,? continue|cont\.?)\s*[:.!]?\s*$`)
)

// matchStart reports whether line is an explicit start marker and returns the
// path and dialect.
func matchStart(line string) (path string, src Source, ok bool) {
	trimmed := strings.TrimSpace(line)
	if m := dogsStartRe.FindStringSubmatch(trimmed); m != nil {
		return strings.TrimSpace(m[1]), SourceDogs, true
	}
	if m := catsStartRe.FindStringSubmatch(trimmed); m != nil {
		return strings.TrimSpace(m[1]), SourceCats, true
	}
	return "", "", false
}

func matchEnd(line string) bool {
	trimmed := strings.TrimSpace(line)
	return dogsEndRe.MatchString(trimmed) || catsEndRe.MatchString(trimmed)
}

func matchNarration(line string) (string, bool) {
	m := narrationRe.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[narrationRe.SubexpIndex("path")]), true
}

func isFence(line string) bool {
	return fenceRe.MatchString(strings.TrimSpace(line))
}

func isContinuation(line string) bool {
	return continuationRe.MatchString(strings.TrimSpace(line))
}
