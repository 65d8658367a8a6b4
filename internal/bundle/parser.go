package bundle

import (
	"encoding/base64"
	"fmt"
	"strings"
	"unicode"

	"github.com/fakeyudi/paws/internal/log"
)

// headerScanLines is how many leading lines are searched for the header.
const headerScanLines = 10

// Format describes how a bundle's payloads were interpreted.
type Format struct {
	Mode        Mode
	Description string
	Kind        string // "Cats Bundle", "Dogs Bundle" or "" when no header was found
	Overridden  bool
	// Assumed is set when neither a header nor an override decided the mode.
	Assumed bool
	// Unrecognized is set when a format line was found but named neither
	// Base64 nor raw UTF-8.
	Unrecognized bool
}

// ParseResult is the output of Parser.Parse.
type ParseResult struct {
	Format   Format
	Records  []FileRecord
	Failures []*RecordError
	Warnings []string
}

// Parser converts bundle text of uncertain conformance into file records.
type Parser struct {
	// Override, when set, decides the payload mode regardless of the header.
	Override *Mode
	Log      *log.Logger
}

// Parse never fails as a whole: malformed records are reported in Failures
// and everything recoverable is returned in Records.
func (p *Parser) Parse(text string) *ParseResult {
	lines := strings.Split(text, "\n")
	res := &ParseResult{}

	format, consumed := detectFormat(lines)
	if p.Override != nil {
		format.Mode = *p.Override
		format.Overridden = true
		format.Assumed = false
		format.Unrecognized = false
		if format.Kind != "" {
			format.Description = fmt.Sprintf("%s - Format: %s (Overridden by user)", format.Kind, format.Mode)
		} else {
			format.Description = fmt.Sprintf("Forced by user: %s", format.Mode)
		}
	}
	switch {
	case format.Overridden:
	case format.Assumed:
		res.Warnings = append(res.Warnings, "no valid bundle header found; assuming raw UTF-8 (override with --input-format if needed)")
		p.Log.Warnf("no valid bundle header found; assuming raw UTF-8")
	case format.Unrecognized:
		res.Warnings = append(res.Warnings, "unrecognized format line; defaulting to raw UTF-8")
		p.Log.Warnf("unrecognized format line in %s header; defaulting to raw UTF-8", format.Kind)
	}
	res.Format = format

	var st parseState
	for i := consumed; i < len(lines); i++ {
		lineNo := i + 1
		before := st.phase
		var act action
		st, act = step(st, lines[i], lineNo)
		switch act.Kind {
		case actFinalize:
			p.finalize(res, act.Record, false)
		case actForceFinalize:
			p.Log.Debugf("line %d: new file start, closing %s block for %q", lineNo, before, act.Record.path)
			p.finalize(res, act.Record, true)
		case actIgnore:
			if strings.TrimSpace(lines[i]) != "" && !isContinuation(lines[i]) {
				p.Log.Debugf("line %d: ignoring %q", lineNo, truncate(strings.TrimSpace(lines[i]), 100))
			}
		}
		if path, ok := st.openPath(); ok && st.phase != before && act.Kind == actNone {
			p.Log.Debugf("line %d: %s block for %q", lineNo, st.phase, path)
		}
	}

	if st.open != nil {
		// Split leaves one empty trailing element for text ending in "\n";
		// it is not content.
		if n := len(st.open.lines); n > 0 && st.open.lines[n-1] == "" && strings.HasSuffix(text, "\n") {
			st.open.lines = st.open.lines[:n-1]
		}
		p.Log.Debugf("end of input, closing %s block for %q", st.phase, st.open.path)
		p.finalize(res, st.open, true)
	}
	return res
}

func (p *Parser) finalize(res *ParseResult, rec *openRecord, forced bool) {
	if rec.path == "" {
		res.Failures = append(res.Failures, &RecordError{Path: rec.path, Line: rec.line, Err: ErrEmptyPath})
		p.Log.Warnf("line %d: start marker without a path; skipped", rec.line)
		return
	}
	raw := strings.Join(rec.lines, "\n")
	content, err := decodePayload(raw, res.Format.Mode)
	if err != nil {
		rerr := &RecordError{Path: rec.path, Line: rec.line, Err: err}
		res.Failures = append(res.Failures, rerr)
		p.Log.Errorf("failed to decode content for %q (line %d); skipped: %v", rec.path, rec.line, err)
		return
	}
	res.Records = append(res.Records, FileRecord{
		Path:    rec.path,
		Content: content,
		Mode:    res.Format.Mode,
		Source:  rec.source,
		Line:    rec.line,
		Forced:  forced,
	})
}

func decodePayload(raw string, mode Mode) ([]byte, error) {
	if mode != ModeBase64 {
		return []byte(raw), nil
	}
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
	data, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		return nil, fmt.Errorf("base64 decode: %w", err)
	}
	return data, nil
}

// detectFormat scans the leading lines for a bundle-kind prefix followed by a
// format line. It returns the number of lines belonging to the header.
func detectFormat(lines []string) (Format, int) {
	kinds := []struct{ prefix, desc string }{
		{DogsHeader, "Dogs Bundle (LLM Output)"},
		{CatsHeader, "Cats Bundle (Original Source)"},
	}

	kind := ""
	consumed := 0
	limit := min(len(lines), headerScanLines)
	for i := 0; i < limit; i++ {
		trimmed := strings.TrimSpace(lines[i])
		if kind == "" {
			for _, k := range kinds {
				if strings.HasPrefix(trimmed, k.prefix) {
					kind = k.desc
					consumed = i + 1
					break
				}
			}
			if kind != "" {
				continue
			}
		}
		if kind == "" || !strings.HasPrefix(trimmed, strings.TrimSpace(FormatPrefix)) {
			continue
		}

		consumed = i + 1
		desc := strings.TrimSpace(strings.TrimPrefix(trimmed, strings.TrimSpace(FormatPrefix)))
		lower := strings.ToLower(desc)
		f := Format{Kind: kind, Description: fmt.Sprintf("%s - Format: %s", kind, desc)}
		switch {
		case strings.Contains(lower, "base64"):
			f.Mode = ModeBase64
		case strings.Contains(lower, "raw utf-8"), strings.Contains(lower, "utf-8 compatible"):
			f.Mode = ModeRawText
		default:
			f.Mode = ModeRawText
			f.Unrecognized = true
			f.Description += " (Unrecognized format details, defaulting to Raw UTF-8)"
		}
		return f, consumed
	}

	return Format{
		Mode:        ModeRawText,
		Kind:        kind,
		Description: "Raw UTF-8 (Assumed, no valid header found. Override with --input-format if needed.)",
		Assumed:     true,
	}, consumed
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
