package store

import (
	"encoding/binary"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/opencontainers/go-digest"

	"github.com/m4sc0/new/internal/metadata"
)

// TrackedFile is a regular file that contributes to an image's content hash.
type TrackedFile struct {
	Rel  string // slash-separated path relative to the image root
	Path string // absolute path on disk
	Size int64
	Mode fs.FileMode
}

// TrackedFiles walks dir and returns every tracked file sorted by relative
// path. The root template.json and non-regular files are left out.
func TrackedFiles(dir string) ([]TrackedFile, error) {
	var files []TrackedFile
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == dir {
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == metadata.FileName {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		files = append(files, TrackedFile{Rel: rel, Path: path, Size: info.Size(), Mode: info.Mode()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Rel < files[j].Rel })
	return files, nil
}

// Exclude drops the files matching any of patterns.
//
// Patterns use path.Match syntax. A pattern without a slash is matched
// against every element of a file's relative path, so "node_modules" drops
// the whole directory; a pattern with a slash is matched against the leading
// elements of the path, so "docs/*.tmp" only applies under docs. A malformed
// pattern is an error.
func Exclude(files []TrackedFile, patterns []string) ([]TrackedFile, error) {
	if len(patterns) == 0 {
		return files, nil
	}
	for _, p := range patterns {
		if _, err := path.Match(p, ""); err != nil {
			return nil, fmt.Errorf("ignore pattern %q: %w", p, err)
		}
	}

	kept := make([]TrackedFile, 0, len(files))
	for _, f := range files {
		if !excluded(f.Rel, patterns) {
			kept = append(kept, f)
		}
	}
	return kept, nil
}

func excluded(rel string, patterns []string) bool {
	elems := strings.Split(rel, "/")
	for _, p := range patterns {
		p = strings.Trim(p, "/")
		if !strings.Contains(p, "/") {
			for _, e := range elems {
				if ok, _ := path.Match(p, e); ok {
					return true
				}
			}
			continue
		}
		depth := strings.Count(p, "/") + 1
		if depth > len(elems) {
			continue
		}
		if ok, _ := path.Match(p, strings.Join(elems[:depth], "/")); ok {
			return true
		}
	}
	return false
}

// ContentHash digests the tracked files of dir and returns the digest and
// the total size of their contents.
//
// For each file in path order the digester receives the path length as a
// little-endian uint64, the slash-separated path, the content length, and
// the content. The result therefore depends only on the set of relative
// paths and their bytes, never on walk order or template.json.
func ContentHash(dir string) (digest.Digest, int64, error) {
	files, err := TrackedFiles(dir)
	if err != nil {
		return "", 0, err
	}
	return HashFiles(files)
}

// HashFiles digests an already collected, sorted file list.
func HashFiles(files []TrackedFile) (digest.Digest, int64, error) {
	digester := digest.Canonical.Digester()
	h := digester.Hash()
	buf := make([]byte, 8)
	var total int64

	for _, f := range files {
		binary.LittleEndian.PutUint64(buf, uint64(len(f.Rel)))
		_, _ = h.Write(buf)
		_, _ = io.WriteString(h, f.Rel)

		n, err := hashFile(h, buf, f.Path)
		if err != nil {
			return "", 0, err
		}
		total += n
	}
	return digester.Digest(), total, nil
}

func hashFile(h io.Writer, buf []byte, path string) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}
	binary.LittleEndian.PutUint64(buf, uint64(info.Size()))
	_, _ = h.Write(buf)

	n, err := io.Copy(h, file)
	if err != nil {
		return 0, fmt.Errorf("hashing %s: %w", path, err)
	}
	if n != info.Size() {
		return 0, fmt.Errorf("hashing %s: file changed while reading", path)
	}
	return n, nil
}
