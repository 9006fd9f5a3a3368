package platform

import (
	"os"
	"runtime"
)

// Permission modes for directories and files created in the store and in
// rendered projects.
const (
	DirPerm  os.FileMode = 0o755
	FilePerm os.FileMode = 0o644
)

// Chmod sets file permissions. On Windows this is a no-op because Windows
// does not support Unix-style permission bits.
func Chmod(path string, mode os.FileMode) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	return os.Chmod(path, mode)
}

// NormalizeMode returns the permission bits of mode, falling back to FilePerm
// when none are set (as with archive entries created on some platforms).
func NormalizeMode(mode os.FileMode) os.FileMode {
	perm := mode.Perm()
	if perm == 0 {
		return FilePerm
	}
	return perm
}
