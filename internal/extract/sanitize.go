package extract

import (
	"path/filepath"
	"regexp"
	"strings"
)

const (
	emptyComponent = "sanitized_empty_comp"
	unnamedFile    = "unnamed_file_from_bundle"
)

var (
	driveLetter = regexp.MustCompile(`^[A-Za-z]:`)
	unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.\-]`)
	underscores = regexp.MustCompile(`_+`)
)

// SanitizeComponent makes a single path component safe to create on disk.
func SanitizeComponent(c string) string {
	c = unsafeChars.ReplaceAllString(c, "_")
	c = underscores.ReplaceAllString(c, "_")
	c = strings.Trim(c, "._")
	if c == "" {
		return emptyComponent
	}
	return c
}

// SanitizePath turns a bundle path into a relative OS path. The result is
// never empty, never absolute and contains no "." or ".." components; those
// are replaced by a placeholder component.
func SanitizePath(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	var parts []string
	for _, c := range strings.Split(p, "/") {
		if c == "" {
			continue
		}
		parts = append(parts, SanitizeComponent(c))
	}
	if len(parts) == 0 {
		return unnamedFile
	}
	return filepath.Join(parts...)
}

// unsafePath reports whether a raw bundle path is absolute or climbs with
// "..". Such records are rejected before sanitization gets a say.
func unsafePath(p string) bool {
	p = strings.ReplaceAll(p, `\`, "/")
	if strings.HasPrefix(p, "/") || driveLetter.MatchString(p) {
		return true
	}
	for _, c := range strings.Split(p, "/") {
		if c == ".." {
			return true
		}
	}
	return false
}
