package builder

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/m4sc0/new/internal/platform"
	"github.com/m4sc0/new/internal/store"
)

// copyFiles copies each tracked file into dst at its relative path,
// preserving permissions. dst is created even when files is empty.
func copyFiles(files []store.TrackedFile, dst string) error {
	if err := os.MkdirAll(dst, platform.DirPerm); err != nil {
		return err
	}
	for _, f := range files {
		out := filepath.Join(dst, filepath.FromSlash(f.Rel))
		if err := platform.CopyFile(f.Path, out); err != nil {
			return fmt.Errorf("copying %s: %w", f.Rel, err)
		}
	}
	return nil
}
