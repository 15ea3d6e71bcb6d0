package pathsafe

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// SymloopMax bounds how many times CheckSymlinkLoop follows a readlink
// chain before giving up. POSIX SYMLOOP_MAX is typically 40.
const SymloopMax = 40

// CheckSymlinkLoop follows p's symlink chain (if any), tracking visited
// string forms, and fails if a link is revisited or the chain exceeds
// SymloopMax hops. Relative link targets are resolved against the link's
// own parent directory. A path with no symlinks (or that does not exist)
// is reported safe.
func CheckSymlinkLoop(p string) error {
	current := p
	visited := make(map[string]bool)

	for depth := 0; depth <= SymloopMax; depth++ {
		if !IsSymlink(current) {
			return nil
		}
		if visited[current] {
			return newErr(ErrSymlinkLoop, p)
		}
		visited[current] = true

		target, err := os.Readlink(current)
		if err != nil {
			return errors.Wrapf(err, "read symlink: %s", current)
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(current), target)
		}
		current = filepath.Clean(target)
	}

	return newErr(ErrSymlinkLoop, p)
}
