package opruntime

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// recursiveCopy copies src to dst: a directory is walked and rebuilt
// entry-by-entry at dst, recursing into subdirectories; a single file is
// treated as a one-node tree and byte-copied. Errors are wrapped with the
// offending path so a deep failure still names exactly what went wrong.
func recursiveCopy(src, dst string) error {
	info, err := os.Lstat(src)
	if err != nil {
		return errors.Wrapf(err, "stat source: %s", src)
	}

	if info.Mode()&os.ModeSymlink != 0 {
		return copySymlink(src, dst)
	}
	if info.IsDir() {
		return copyDir(src, dst, info)
	}
	return copyFile(src, dst, info)
}

func copyDir(src, dst string, info os.FileInfo) error {
	if err := os.MkdirAll(dst, info.Mode().Perm()); err != nil {
		return errors.Wrapf(err, "create directory: %s", dst)
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return errors.Wrapf(err, "read directory: %s", src)
	}

	for _, entry := range entries {
		srcChild := filepath.Join(src, entry.Name())
		dstChild := filepath.Join(dst, entry.Name())
		if err := recursiveCopy(srcChild, dstChild); err != nil {
			return err
		}
	}
	return nil
}

// copyFile streams src into a temp file beside dst and renames it into
// place once fully written, the same "never leave a partial file at the
// final name" shape.
func copyFile(src, dst string, info os.FileInfo) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrapf(err, "open source: %s", src)
	}
	defer in.Close()

	tmp := dst + ".tmp"
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return errors.Wrapf(err, "create temp file: %s", tmp)
	}

	closed := false
	defer func() {
		if !closed {
			out.Close()
			os.Remove(tmp)
		}
	}()

	buf := make([]byte, 256*1024)
	if _, err := io.CopyBuffer(out, in, buf); err != nil {
		return errors.Wrapf(err, "copy bytes: %s -> %s", src, dst)
	}
	if err := out.Close(); err != nil {
		return errors.Wrapf(err, "close temp file: %s", tmp)
	}
	closed = true

	if err := os.Rename(tmp, dst); err != nil {
		return errors.Wrapf(err, "finalize copy: %s -> %s", tmp, dst)
	}
	return nil
}

func copySymlink(src, dst string) error {
	target, err := os.Readlink(src)
	if err != nil {
		return errors.Wrapf(err, "read symlink: %s", src)
	}
	if err := os.Symlink(target, dst); err != nil {
		return errors.Wrapf(err, "recreate symlink: %s", dst)
	}
	return nil
}
