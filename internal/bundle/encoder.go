package bundle

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/fakeyudi/paws/internal/log"
)

// Encoder serializes a set of files into bundle text.
type Encoder struct {
	// ForceBase64 skips per-file text detection and encodes every payload.
	ForceBase64 bool
	// Dialect selects the header and markers. Empty means DialectCats.
	Dialect Dialect
	// ReadFile defaults to os.ReadFile.
	ReadFile func(name string) ([]byte, error)
	Log      *log.Logger
}

// EncodeResult is the output of Encoder.Encode.
type EncodeResult struct {
	Text     string
	Format   string // the description written on the format line
	Mode     Mode
	Files    []string // bundle-relative paths, in bundle order
	Warnings []string // files that could not be read
}

type sourceFile struct {
	rel     string
	content []byte
	text    bool
}

// Encode reads each path and renders the bundle. paths must be absolute and
// already filtered; ancestor is the directory relative paths are computed
// against (see CommonAncestor).
func (e *Encoder) Encode(paths []string, ancestor string) (*EncodeResult, error) {
	readFile := e.ReadFile
	if readFile == nil {
		readFile = os.ReadFile
	}
	dialect := e.Dialect
	if dialect == "" {
		dialect = DialectCats
	}

	sorted := make([]string, len(paths))
	copy(sorted, paths)
	sort.Strings(sorted)

	res := &EncodeResult{}
	var files []sourceFile
	taintedBy := ""
	for _, p := range sorted {
		data, err := readFile(p)
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("error reading file %q: %v; skipping", p, err))
			e.Log.Warnf("error reading %s: %v; skipping", p, err)
			continue
		}
		f := sourceFile{rel: RelativePath(p, ancestor), content: data}
		if !e.ForceBase64 {
			f.text = utf8.Valid(data) && !containsMarkerLine(data)
			if !f.text && taintedBy == "" {
				taintedBy = f.rel
			}
		}
		files = append(files, f)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files could be read")
	}

	switch {
	case e.ForceBase64:
		res.Mode = ModeBase64
		res.Format = "Base64 (Forced)"
	case taintedBy != "":
		res.Mode = ModeBase64
		res.Format = "Base64 (Auto-Detected due to non-UTF-8 content)"
		e.Log.Debugf("%s is not raw-text safe; encoding whole bundle as Base64", taintedBy)
	default:
		res.Mode = ModeRawText
		res.Format = "Raw UTF-8 (All files appear UTF-8 compatible)"
	}

	var sb strings.Builder
	sb.WriteString(dialect.Header())
	sb.WriteString("\n")
	sb.WriteString(FormatPrefix + res.Format)
	sb.WriteString("\n")
	for _, f := range files {
		sb.WriteString("\n")
		sb.WriteString(dialect.StartMarker(f.rel))
		sb.WriteString("\n")
		if res.Mode == ModeBase64 {
			sb.WriteString(base64.StdEncoding.EncodeToString(f.content))
		} else {
			sb.Write(f.content)
		}
		sb.WriteString("\n")
		sb.WriteString(dialect.EndMarker())
		sb.WriteString("\n")
		res.Files = append(res.Files, f.rel)
	}
	res.Text = sb.String()
	return res, nil
}

// containsMarkerLine reports whether raw text would be misread by the parser
// because one of its lines is itself an explicit marker.
func containsMarkerLine(data []byte) bool {
	for _, line := range strings.Split(string(data), "\n") {
		if _, _, ok := matchStart(line); ok {
			return true
		}
		if matchEnd(line) {
			return true
		}
	}
	return false
}

// RelativePath returns p relative to ancestor using forward slashes. Paths
// outside ancestor fall back to their base name.
func RelativePath(p, ancestor string) string {
	rel, err := filepath.Rel(ancestor, p)
	if err != nil || rel == "." || rel == "" || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.Base(p)
	}
	return filepath.ToSlash(rel)
}

// CommonAncestor returns the longest directory shared by the parents of all
// paths. A single path yields its parent directory.
func CommonAncestor(paths []string) string {
	if len(paths) == 0 {
		if wd, err := os.Getwd(); err == nil {
			return wd
		}
		return "."
	}
	common := filepath.Dir(filepath.Clean(paths[0]))
	for _, p := range paths[1:] {
		dir := filepath.Dir(filepath.Clean(p))
		for !isWithin(common, dir) {
			parent := filepath.Dir(common)
			if parent == common {
				break
			}
			common = parent
		}
	}
	return common
}

// isWithin reports whether p equals dir or lies below it.
func isWithin(dir, p string) bool {
	if dir == p {
		return true
	}
	prefix := dir
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(p, prefix)
}
