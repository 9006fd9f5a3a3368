package platform

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteFile creates path with the contents of r, creating missing parent
// directories. The permission bits of mode are applied after writing so the
// process umask does not strip them.
func WriteFile(path string, r io.Reader, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), DirPerm); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}

	mode = NormalizeMode(mode)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return Chmod(path, mode)
}

// CopyFile copies a regular file from src to dst, preserving permissions.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}
	return WriteFile(dst, in, info.Mode())
}

// ReplaceDir moves the fully populated staging directory to target,
// removing any existing target first. Parent directories of target are
// created as needed. The staging directory is removed if the move fails.
func ReplaceDir(staging, target string) error {
	if err := os.RemoveAll(target); err != nil {
		_ = os.RemoveAll(staging)
		return fmt.Errorf("removing existing %s: %w", target, err)
	}
	if err := os.MkdirAll(filepath.Dir(target), DirPerm); err != nil {
		_ = os.RemoveAll(staging)
		return fmt.Errorf("creating %s: %w", filepath.Dir(target), err)
	}
	if err := os.Rename(staging, target); err != nil {
		_ = os.RemoveAll(staging)
		return fmt.Errorf("moving %s to %s: %w", staging, target, err)
	}
	return nil
}

// Exists reports whether path exists. Errors other than "not exist" are
// returned so callers do not mistake an unreadable path for a missing one.
func Exists(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}
