package collector

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// FileCollector walks the include paths of Options.
type FileCollector struct {
	Options
}

// Collect resolves include and exclude paths and walks directories without
// following symlinked directories. Only context cancellation is an error;
// unreadable or missing paths become warnings.
func (fc *FileCollector) Collect(ctx context.Context) (Result, error) {
	var res Result
	workDir := fc.WorkDir
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return res, err
		}
		workDir = wd
	}

	excluded := make(map[string]bool)
	for _, p := range fc.Exclude {
		if real, ok := realPath(workDir, p); ok {
			excluded[real] = true
		}
	}
	if fc.OutputFile != "" {
		if abs, err := absPath(workDir, fc.OutputFile); err == nil {
			excluded[abs] = true
		}
		if real, ok := realPath(workDir, fc.OutputFile); ok {
			excluded[real] = true
		}
	}

	includes := fc.Include
	if len(includes) == 0 {
		includes = []string{workDir}
	}
	includes = fc.withConventional(workDir, includes, excluded)

	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			res.Files = append(res.Files, p)
		}
	}

	for _, inc := range includes {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		root, ok := realPath(workDir, inc)
		if !ok {
			res.Warnings = append(res.Warnings, fmt.Sprintf("input path not found: %s", inc))
			continue
		}
		if isExcluded(root, excluded) {
			continue
		}
		info, err := os.Stat(root)
		if err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("cannot stat %s: %v", inc, err))
			continue
		}
		res.Roots = append(res.Roots, root)
		if !info.IsDir() {
			add(root)
			continue
		}

		patterns := append([]string(nil), fc.IgnorePatterns...)
		extra, err := readPatternFile(filepath.Join(root, IgnoreFile))
		if err != nil && !os.IsNotExist(err) {
			res.Warnings = append(res.Warnings, fmt.Sprintf("failed to load ignore patterns: %v", err))
		}
		patterns = append(patterns, extra...)

		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				res.Warnings = append(res.Warnings, fmt.Sprintf("cannot read %s: %v", path, err))
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if cerr := ctx.Err(); cerr != nil {
				return cerr
			}
			if d.IsDir() {
				if path != root && (excluded[path] || isIgnored(root, path, patterns)) {
					return filepath.SkipDir
				}
				return nil
			}
			if excluded[path] || isIgnored(root, path, patterns) {
				return nil
			}
			if d.Type()&fs.ModeSymlink != 0 {
				real, err := filepath.EvalSymlinks(path)
				if err != nil {
					res.Warnings = append(res.Warnings, fmt.Sprintf("broken symlink %s", path))
					return nil
				}
				if fi, err := os.Stat(real); err != nil || fi.IsDir() || isExcluded(real, excluded) {
					return nil
				}
				add(real)
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			add(path)
			return nil
		})
		if err != nil {
			return res, err
		}
	}

	sort.Strings(res.Files)
	return res, nil
}

// withConventional prepends conventional files found in workDir that are
// neither listed nor excluded.
func (fc *FileCollector) withConventional(workDir string, includes []string, excluded map[string]bool) []string {
	listed := make(map[string]bool, len(includes))
	for _, inc := range includes {
		if real, ok := realPath(workDir, inc); ok {
			listed[real] = true
		}
	}
	var extra []string
	for _, name := range fc.ConventionalIncludes {
		real, ok := realPath(workDir, name)
		if !ok || listed[real] || isExcluded(real, excluded) {
			continue
		}
		if fi, err := os.Stat(real); err != nil || !fi.Mode().IsRegular() {
			continue
		}
		listed[real] = true
		extra = append(extra, real)
	}
	return append(extra, includes...)
}

func absPath(workDir, p string) (string, error) {
	if !filepath.IsAbs(p) {
		p = filepath.Join(workDir, p)
	}
	return filepath.Abs(p)
}

// realPath returns the absolute, symlink-free form of p, or false if p does
// not exist.
func realPath(workDir, p string) (string, bool) {
	abs, err := absPath(workDir, p)
	if err != nil {
		return "", false
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", false
	}
	return real, true
}

// isExcluded reports whether p is an excluded path or lies below one.
func isExcluded(p string, excluded map[string]bool) bool {
	for dir := p; ; {
		if excluded[dir] {
			return true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return false
		}
		dir = parent
	}
}

// isIgnored reports whether path matches any of the given glob patterns,
// tried against both the base name and the slash-separated path relative to
// root. "*" stays within one path segment, "**" crosses segments and "{a,b}"
// alternates. Invalid patterns never match.
func isIgnored(root, path string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}
	rel := path
	if r, err := filepath.Rel(root, path); err == nil {
		rel = filepath.ToSlash(r)
	}
	base := filepath.Base(path)

	for _, pattern := range patterns {
		g, err := glob.Compile(strings.TrimSuffix(pattern, "/"), '/')
		if err != nil {
			continue
		}
		if g.Match(base) || g.Match(rel) {
			return true
		}
	}
	return false
}

// readPatternFile reads a gitignore-style file and returns non-empty, non-comment lines.
func readPatternFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return patterns, scanner.Err()
}
