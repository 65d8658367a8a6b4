// Package collector decides which files go into a bundle and watches them for
// changes.
package collector

// DefaultConventionalIncludes are picked up from the working directory when
// present, even if they were not named.
var DefaultConventionalIncludes = []string{"sys_human.txt"}

// IgnoreFile holds extra ignore patterns in an include root.
const IgnoreFile = ".pawsignore"

// Options controls a collection run. Every input is explicit; nothing is read
// from the process environment except the filesystem itself.
type Options struct {
	// Include lists files and directories. Empty means WorkDir.
	Include []string
	// Exclude lists files and directories to leave out. Directories are pruned.
	Exclude []string
	// OutputFile is never collected, so a bundle cannot contain itself.
	OutputFile string
	// IgnorePatterns are glob patterns matched against base names and
	// root-relative paths of files found by walking a directory.
	IgnorePatterns []string
	// ConventionalIncludes are file names looked up in WorkDir.
	ConventionalIncludes []string
	// WorkDir resolves relative paths. Empty means the current directory.
	WorkDir string
}

// Result holds the output of Collect.
type Result struct {
	// Files are absolute real paths, sorted and deduplicated.
	Files []string
	// Roots are the resolved include paths that exist.
	Roots    []string
	Warnings []string // non-fatal issues encountered
}
