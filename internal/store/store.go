package store

import (
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/m4sc0/new/internal/image"
	"github.com/m4sc0/new/internal/metadata"
)

// stagingDir is the directory under the root where new entries are
// assembled before being moved into place.
const stagingDir = ".staging"

// Store is the local image cache rooted at a single directory.
type Store struct {
	root   string
	logger *zerolog.Logger
}

// New returns a store rooted at root. The directory is created lazily by
// the first write. A nil logger disables logging.
func New(root string, logger *zerolog.Logger) *Store {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Store{root: root, logger: logger}
}

// Root returns the store's root directory.
func (s *Store) Root() string { return s.root }

// Path returns the directory of ref. ref must carry a version.
func (s *Store) Path(ref image.Reference) string {
	return filepath.Join(s.root, ref.Category, ref.Name, ref.Version)
}

// MetadataPath returns the path of ref's template.json.
func (s *Store) MetadataPath(ref image.Reference) string {
	return filepath.Join(s.Path(ref), metadata.FileName)
}

// Exists reports whether the directory for ref exists, complete or not.
func (s *Store) Exists(ref image.Reference) bool {
	info, err := os.Stat(s.Path(ref))
	return err == nil && info.IsDir()
}

// Has reports whether ref is a complete entry with a readable template.json.
func (s *Store) Has(ref image.Reference) bool {
	f, err := os.Open(s.MetadataPath(ref))
	if err != nil {
		return false
	}
	f.Close()
	return true
}

// Resolve fills in a missing version with the highest version that is a
// complete entry, so an interrupted or hand-made version directory without
// template.json never shadows a usable lower version. References that
// already carry a version are returned as-is.
func (s *Store) Resolve(ref image.Reference) (image.Reference, error) {
	if ref.HasVersion() {
		return ref, nil
	}
	version, err := image.ResolveVersionFunc(s.root, ref.Category, ref.Name, func(v string) bool {
		return s.Has(ref.WithVersion(v))
	})
	if err != nil {
		return image.Reference{}, err
	}
	s.logger.Debug().Str("ref", ref.Repository()).Str("version", version).Msg("resolved version")
	return ref.WithVersion(version), nil
}

// Load reads the metadata of a complete entry.
func (s *Store) Load(ref image.Reference) (*metadata.Record, error) {
	if !s.Exists(ref) {
		return nil, fmt.Errorf("%w: image %s is not in the local store", image.ErrNotFound, ref)
	}
	record, err := metadata.Load(s.MetadataPath(ref))
	if err != nil {
		return nil, fmt.Errorf("loading metadata for %s: %w", ref, err)
	}
	return record, nil
}

// Enumerate yields every complete entry under the root. Entries without a
// readable template.json and unreadable directories are skipped silently.
// The sequence can be ranged over any number of times; each pass re-reads
// the filesystem. No order is guaranteed; use image.Sort for display.
func (s *Store) Enumerate() iter.Seq[image.Reference] {
	return func(yield func(image.Reference) bool) {
		for _, category := range subdirs(s.root) {
			for _, name := range subdirs(filepath.Join(s.root, category)) {
				for _, version := range subdirs(filepath.Join(s.root, category, name)) {
					ref := image.Reference{Category: category, Name: name, Version: version}
					if !s.Has(ref) {
						s.logger.Debug().Str("path", s.Path(ref)).Msg("skipping entry without metadata")
						continue
					}
					if !yield(ref) {
						return
					}
				}
			}
		}
	}
}

// List collects Enumerate into a sorted slice.
func (s *Store) List() []image.Reference {
	var refs []image.Reference
	for ref := range s.Enumerate() {
		refs = append(refs, ref)
	}
	image.Sort(refs)
	return refs
}

// Remove deletes the entry for ref. Empty name and category directories
// left behind are pruned.
func (s *Store) Remove(ref image.Reference) error {
	dir := s.Path(ref)

	info, err := os.Stat(dir)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: image %s is not in the local store", image.ErrNotFound, ref)
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("removing %s: %w", dir, err)
	}
	s.logger.Debug().Str("ref", ref.ID()).Str("path", dir).Msg("removed image")

	// os.Remove fails on non-empty directories, which is what stops the pruning.
	nameDir := filepath.Dir(dir)
	if os.Remove(nameDir) == nil {
		_ = os.Remove(filepath.Dir(nameDir))
	}
	return nil
}

// StagingPath returns a scratch directory for assembling ref before it is
// moved into place. Any leftover from an earlier failed attempt is removed.
func (s *Store) StagingPath(ref image.Reference) (string, error) {
	dir := filepath.Join(s.root, stagingDir, ref.Category+"-"+ref.Name+"-"+ref.Version)
	if err := os.RemoveAll(dir); err != nil {
		return "", fmt.Errorf("clearing staging dir %s: %w", dir, err)
	}
	return dir, nil
}

// subdirs lists the non-hidden subdirectories of dir, or nil if dir cannot
// be read.
func subdirs(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			names = append(names, e.Name())
		}
	}
	return names
}
