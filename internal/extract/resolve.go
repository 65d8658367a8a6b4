package extract

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
)

// maxLinkHops bounds symlink chains while resolving a path.
const maxLinkHops = 40

// resolve follows every existing symlink along rel and returns the
// root-relative location it points at. Components that do not exist yet are
// appended unchanged. Absolute link targets are interpreted relative to the
// filesystem root. Any step that leaves the root returns ErrOutsideRoot.
func resolve(fsys billy.Filesystem, rel string) (string, error) {
	if !filepath.IsLocal(rel) {
		return "", ErrOutsideRoot
	}
	if rel == "." {
		return "", nil
	}
	pending := strings.Split(filepath.ToSlash(rel), "/")
	resolved := ""
	hops := 0
	for len(pending) > 0 {
		name := pending[0]
		pending = pending[1:]
		next := path.Join(resolved, name)

		fi, err := fsys.Lstat(next)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return path.Join(append([]string{next}, pending...)...), nil
			}
			return "", err
		}
		if fi.Mode()&fs.ModeSymlink == 0 {
			resolved = next
			continue
		}

		hops++
		if hops > maxLinkHops {
			return "", fmt.Errorf("%s: too many levels of symbolic links", next)
		}
		target, err := fsys.Readlink(next)
		if err != nil {
			return "", err
		}
		target = filepath.ToSlash(target)
		base := resolved
		if strings.HasPrefix(target, "/") {
			base = ""
			target = strings.TrimLeft(target, "/")
		}
		joined := path.Join(base, target)
		if joined != "." && !filepath.IsLocal(joined) {
			return "", ErrOutsideRoot
		}
		resolved = ""
		if joined != "." {
			pending = append(strings.Split(joined, "/"), pending...)
		}
	}
	return resolved, nil
}
