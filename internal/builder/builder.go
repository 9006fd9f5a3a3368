package builder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/m4sc0/new/internal/image"
	"github.com/m4sc0/new/internal/metadata"
	"github.com/m4sc0/new/internal/platform"
	"github.com/m4sc0/new/internal/store"
)

// Options control a single build.
type Options struct {
	// Force replaces an existing entry instead of failing.
	Force bool
	// DryRun computes the result without touching the filesystem.
	DryRun bool
}

// Result describes a finished (or simulated) build.
type Result struct {
	Ref      image.Reference
	Path     string
	Metadata *metadata.Record
	Files    int
	DryRun   bool
	Replaced bool
}

// Builder writes images into a store.
type Builder struct {
	store  *store.Store
	logger *zerolog.Logger
	now    func() time.Time
}

// Option configures a Builder.
type Option func(*Builder)

// WithClock overrides the clock used for the created timestamp.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// New returns a builder writing into s.
func New(s *store.Store, logger *zerolog.Logger, opts ...Option) *Builder {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	b := &Builder{store: s, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build stamps sourceDir into the store as ref.
//
// The source metadata is validated and its identity overwritten with ref.
// An existing entry fails with image.ErrAlreadyExists unless opts.Force is
// set. With opts.DryRun the hash is computed over the source folder and
// nothing is written, regardless of opts.Force.
func (b *Builder) Build(ref image.Reference, sourceDir string, opts Options) (*Result, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	if !ref.HasVersion() {
		return nil, fmt.Errorf("%w: %s (a version is required to build)", image.ErrInvalidReference, ref)
	}

	info, err := os.Stat(sourceDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: source folder %s", image.ErrNotFound, sourceDir)
	}
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", sourceDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", image.ErrNotFound, sourceDir)
	}

	record, err := metadata.LoadValid(filepath.Join(sourceDir, metadata.FileName))
	if err != nil {
		return nil, fmt.Errorf("reading template metadata: %w", err)
	}
	record.Stamp(ref)

	target := b.store.Path(ref)
	exists := b.store.Exists(ref)
	if exists && !opts.Force {
		return nil, fmt.Errorf("%w: image %s at %s (use --force to overwrite)", image.ErrAlreadyExists, ref, target)
	}

	result := &Result{Ref: ref, Path: target, Metadata: record, DryRun: opts.DryRun, Replaced: exists}
	log := b.logger.With().Str("ref", ref.ID()).Str("source", sourceDir).Logger()

	if opts.DryRun {
		files, err := sourceFiles(record, sourceDir)
		if err != nil {
			return nil, err
		}
		if err := stampHash(record, files); err != nil {
			return nil, err
		}
		result.Files = len(files)
		log.Debug().Int("files", result.Files).Msg("dry run complete")
		return result, nil
	}

	staging, err := b.store.StagingPath(ref)
	if err != nil {
		return nil, err
	}

	n, err := b.assemble(record, sourceDir, staging)
	if err != nil {
		_ = os.RemoveAll(staging)
		return nil, err
	}
	result.Files = n

	if err := platform.ReplaceDir(staging, target); err != nil {
		return nil, fmt.Errorf("installing %s: %w", ref, err)
	}

	log.Debug().Str("path", target).Str("hash", record.HashString()).Bool("replaced", exists).Msg("built image")
	return result, nil
}

// assemble fills staging with the tracked files of sourceDir and the
// stamped metadata, returning the number of files copied.
func (b *Builder) assemble(record *metadata.Record, sourceDir, staging string) (int, error) {
	files, err := sourceFiles(record, sourceDir)
	if err != nil {
		return 0, err
	}
	if err := copyFiles(files, staging); err != nil {
		return 0, fmt.Errorf("copying %s: %w", sourceDir, err)
	}

	// Hash the copied tree, not the source, so the stored hash describes
	// exactly what is on disk.
	copied, err := store.TrackedFiles(staging)
	if err != nil {
		return 0, err
	}
	if err := stampHash(record, copied); err != nil {
		return 0, err
	}
	created := b.now().UTC()
	record.Created = &created

	if err := record.Save(filepath.Join(staging, metadata.FileName)); err != nil {
		return 0, err
	}
	return len(copied), nil
}

// sourceFiles lists the files of sourceDir that go into the image, leaving
// out those matching the template's ignore patterns.
func sourceFiles(record *metadata.Record, sourceDir string) ([]store.TrackedFile, error) {
	files, err := store.TrackedFiles(sourceDir)
	if err != nil {
		return nil, err
	}
	return store.Exclude(files, record.Ignore)
}

func stampHash(record *metadata.Record, files []store.TrackedFile) error {
	d, size, err := store.HashFiles(files)
	if err != nil {
		return err
	}
	hash := d.String()
	record.Hash = &hash
	record.Size = &size
	return nil
}
