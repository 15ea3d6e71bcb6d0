package pathsafe

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Validator classifies and validates paths. It is pure (no mutable state)
// so a single instance may be shared across goroutines.
type Validator struct{}

// NewValidator returns a ready-to-use path validator.
func NewValidator() *Validator { return &Validator{} }

// canonicalize resolves a path to an absolute, symlink-free form. It
// requires that the path exist. Unlike normalize, it touches the
// filesystem.
func canonicalize(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", errors.Wrap(err, "resolve absolute path")
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", errors.Wrap(err, "resolve symlinks")
	}
	return resolved, nil
}

// bestEffortCanonicalize behaves like canonicalize but falls back to a
// cleaned absolute path when the path cannot be resolved (e.g. it does not
// exist yet). Used by IsProtected, which must classify paths that are
// about to be created.
func bestEffortCanonicalize(p string) string {
	if resolved, err := canonicalize(p); err == nil {
		return resolved
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return filepath.Clean(abs)
}

// IsProtected reports whether p, after best-effort canonicalization, is a
// hard-coded system root, a direct child of one, or the user's home
// directory itself. Subdirectories of home are never protected even when
// they shadow a protected root's name (e.g. ~/Library is user-owned; the
// root /Library is not).
func (v *Validator) IsProtected(p string) bool {
	check := bestEffortCanonicalize(p)
	home, haveHome := os.UserHomeDir()
	homeOK := haveHome == nil && home != ""

	for _, root := range protectedRoots {
		root = filepath.Clean(root)
		if check == root {
			return true
		}
		if !pathHasPrefix(check, root) {
			continue
		}
		if homeOK && pathHasPrefix(check, home) {
			// A path under the user's home directory is user-owned even if
			// it happens to share a name with a protected root.
			continue
		}
		if filepath.Dir(check) == root {
			return true
		}
	}

	if homeOK && check == filepath.Clean(home) {
		return true
	}

	return false
}

// pathHasPrefix reports whether child is root or a descendant of root,
// comparing whole path components rather than raw string prefixes (so
// "/var2" is not considered a descendant of "/var").
func pathHasPrefix(child, root string) bool {
	child = filepath.Clean(child)
	root = filepath.Clean(root)
	if child == root {
		return true
	}
	if root == string(filepath.Separator) {
		return strings.HasPrefix(child, root)
	}
	return strings.HasPrefix(child, root+string(filepath.Separator))
}

// ValidateForRead ensures p exists, is not protected, and (if boundary is
// non-empty) lives within boundary. It returns the canonicalized path.
func (v *Validator) ValidateForRead(p string, boundary string) (string, error) {
	canonical, err := canonicalize(p)
	if err != nil {
		return "", errors.Wrapf(err, "path does not exist or cannot be resolved: %s", p)
	}
	if v.IsProtected(canonical) {
		return "", newErr(ErrProtectedPath, canonical)
	}
	if boundary != "" {
		canonicalBoundary, err := canonicalize(boundary)
		if err != nil {
			return "", errors.Wrapf(err, "boundary does not exist: %s", boundary)
		}
		if !pathHasPrefix(canonical, canonicalBoundary) {
			return "", newErr(ErrPathTraversal, canonical)
		}
	}
	return canonical, nil
}

// ValidateForWrite ensures p's parent exists and is canonicalizable, is not
// protected, and (if boundary is non-empty) the parent lives within
// boundary. It returns canonical(parent)/file_name(p) — p itself need not
// exist yet.
func (v *Validator) ValidateForWrite(p string, boundary string) (string, error) {
	parent := filepath.Dir(p)
	canonicalParent, err := canonicalize(parent)
	if err != nil {
		return "", errors.Wrapf(err, "parent does not exist or cannot be resolved: %s", parent)
	}
	if v.IsProtected(canonicalParent) {
		return "", newErr(ErrProtectedPath, canonicalParent)
	}
	if boundary != "" {
		canonicalBoundary, err := canonicalize(boundary)
		if err != nil {
			return "", errors.Wrapf(err, "boundary does not exist: %s", boundary)
		}
		if !pathHasPrefix(canonicalParent, canonicalBoundary) {
			return "", newErr(ErrPathTraversal, canonicalParent)
		}
	}
	return filepath.Join(canonicalParent, filepath.Base(p)), nil
}

// ValidateDestination resolves dest relative to root (unless dest is
// already absolute and allowAbsolute is set), normalizes it by walking
// path components (never letting ".." pop above root), and rejects the
// result if it is protected or not under root.
//
// root must exist; it is canonicalized once and used as the containment
// boundary.
func (v *Validator) ValidateDestination(dest, root string, allowAbsolute bool) (string, error) {
	canonicalRoot, err := canonicalize(root)
	if err != nil {
		return "", errors.Wrapf(err, "root does not exist: %s", root)
	}

	target := dest
	if !filepath.IsAbs(target) || !allowAbsolute {
		if filepath.IsAbs(target) {
			// Absolute destinations are not permitted unless explicitly
			// allowed; re-root them under canonicalRoot using only the
			// final path component so callers cannot smuggle an absolute
			// escape through dest.
			target = filepath.Base(target)
		}
		target = filepath.Join(canonicalRoot, target)
	}

	normalized, err := normalizeUnderRoot(target, canonicalRoot)
	if err != nil {
		return "", err
	}

	if v.IsProtected(normalized) {
		return "", newErr(ErrProtectedPath, normalized)
	}
	if !pathHasPrefix(normalized, canonicalRoot) {
		return "", newErr(ErrPathTraversal, normalized)
	}
	return normalized, nil
}

// normalizeUnderRoot walks the components of p (which must already be
// rooted under root, e.g. via filepath.Join), skipping "." and popping on
// "..", refusing to pop past root. It does not require p to exist.
func normalizeUnderRoot(p, root string) (string, error) {
	root = filepath.Clean(root)
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return "", errors.Wrap(err, "compute path relative to root")
	}

	parts := strings.Split(rel, string(filepath.Separator))
	var stack []string
	for _, part := range parts {
		switch part {
		case "", ".":
			continue
		case "..":
			if len(stack) == 0 {
				return "", newErr(ErrPathTraversal, p)
			}
			stack = stack[:len(stack)-1]
		default:
			stack = append(stack, part)
		}
	}

	return filepath.Join(root, filepath.Join(stack...)), nil
}

// IsSymlink reports whether p is a symbolic link, using metadata that does
// not follow links. Non-existent paths report false.
func IsSymlink(p string) bool {
	info, err := os.Lstat(p)
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeSymlink != 0
}

// RefuseSymlink returns an error if p is a symlink, naming the operation
// for the caller's error message.
func RefuseSymlink(p, operation string) error {
	if IsSymlink(p) {
		return errors.Errorf("refusing to %s symlink: %s", operation, p)
	}
	return nil
}
