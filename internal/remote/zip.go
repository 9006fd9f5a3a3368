package remote

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/m4sc0/new/internal/platform"
)

// writeZip archives every regular file under dir, template.json included.
// Entry names are slash-separated and relative to dir.
func writeZip(dir string, w io.Writer) error {
	zw := zip.NewWriter(w)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}

		hdr, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		hdr.Method = zip.Deflate

		out, err := zw.CreateHeader(hdr)
		if err != nil {
			return err
		}
		in, err := os.Open(path)
		if err != nil {
			return err
		}
		_, err = io.Copy(out, in)
		in.Close()
		return err
	})
	if err != nil {
		return err
	}
	return zw.Close()
}

// extractZip unpacks data into destDir. Entries that would land outside
// destDir are rejected, and symlinks are skipped.
func extractZip(data []byte, destDir string) error {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Errorf("opening zip archive: %w", err)
	}

	if err := os.MkdirAll(destDir, platform.DirPerm); err != nil {
		return err
	}

	for _, f := range r.File {
		name := strings.TrimSuffix(f.Name, "/")
		if name == "" {
			continue
		}
		local := filepath.FromSlash(name)
		if strings.Contains(name, `\`) || !filepath.IsLocal(local) {
			return fmt.Errorf("zip entry %q escapes the extraction directory", f.Name)
		}
		destPath := filepath.Join(destDir, local)

		mode := f.Mode()
		switch {
		case mode.IsDir():
			if err := os.MkdirAll(destPath, platform.DirPerm); err != nil {
				return err
			}
			continue
		case mode&fs.ModeSymlink != 0:
			continue
		}

		if err := extractFile(f, destPath); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(f *zip.File, destPath string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("opening zip entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	if err := platform.WriteFile(destPath, rc, f.Mode()); err != nil {
		return fmt.Errorf("extracting %s: %w", f.Name, err)
	}
	return nil
}
