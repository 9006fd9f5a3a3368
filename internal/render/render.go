package render

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/m4sc0/new/internal/image"
	"github.com/m4sc0/new/internal/metadata"
	"github.com/m4sc0/new/internal/platform"
)

// Result holds the outcome of a render.
type Result struct {
	TargetDir string
	Files     []string // rendered file paths relative to TargetDir, slash-separated
	Binary    []string // subset of Files copied without substitution
}

// Renderer writes projects from images.
type Renderer struct {
	logger *zerolog.Logger
}

// New returns a renderer. A nil logger disables logging.
func New(logger *zerolog.Logger) *Renderer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Renderer{logger: logger}
}

type plannedEntry struct {
	src  string
	from string // template-relative path before substitution
	rel  string // substituted, slash-separated
	dir  bool
	mode fs.FileMode
}

// Render copies templatePath into targetDir, applying replacements to every
// relative path and to the contents of every text file. The root
// template.json is not copied. Files that are not valid UTF-8 are copied
// byte for byte.
//
// targetDir must not exist; otherwise Render fails with
// image.ErrAlreadyExists before anything is written. Every output path is
// computed and checked before the first write. If writing fails midway the
// partially created targetDir is removed.
func (r *Renderer) Render(templatePath, targetDir string, replacements map[string]string) (*Result, error) {
	exists, err := platform.Exists(targetDir)
	if err != nil {
		return nil, fmt.Errorf("checking %s: %w", targetDir, err)
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", image.ErrAlreadyExists, targetDir)
	}

	info, err := os.Stat(templatePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: template %s", image.ErrNotFound, templatePath)
	}
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", templatePath, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: template %s is not a directory", image.ErrNotFound, templatePath)
	}

	replacer := NewReplacer(replacements)
	plan, err := planEntries(templatePath, replacer)
	if err != nil {
		return nil, err
	}

	result := &Result{TargetDir: targetDir}
	if err := r.write(plan, targetDir, replacer, result); err != nil {
		_ = os.RemoveAll(targetDir)
		return nil, err
	}

	r.logger.Debug().
		Str("template", templatePath).
		Str("target", targetDir).
		Int("files", len(result.Files)).
		Int("binary", len(result.Binary)).
		Msg("rendered project")
	return result, nil
}

// planEntries walks the template and computes every output path.
func planEntries(templatePath string, replacer *strings.Replacer) ([]plannedEntry, error) {
	var plan []plannedEntry
	seen := map[string]plannedEntry{}

	err := filepath.WalkDir(templatePath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == templatePath {
			return nil
		}
		rel, err := filepath.Rel(templatePath, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == metadata.FileName || !(d.IsDir() || d.Type().IsRegular()) {
			return nil
		}

		out := path.Clean(replacer.Replace(rel))
		if !filepath.IsLocal(filepath.FromSlash(out)) {
			return fmt.Errorf("path %q renders to %q, which escapes the target directory", rel, out)
		}
		if out == "." {
			if d.IsDir() {
				return nil
			}
			return fmt.Errorf("file %q renders to an empty name", rel)
		}
		if prev, dup := seen[out]; dup {
			// Directories that render to the same path are merged.
			if prev.dir && d.IsDir() {
				return nil
			}
			return fmt.Errorf("paths %q and %q both render to %q", prev.from, rel, out)
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		entry := plannedEntry{src: p, from: rel, rel: out, dir: d.IsDir(), mode: info.Mode()}
		seen[out] = entry
		plan = append(plan, entry)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("planning render of %s: %w", templatePath, err)
	}
	return plan, nil
}

func (r *Renderer) write(plan []plannedEntry, targetDir string, replacer *strings.Replacer, result *Result) error {
	if err := os.MkdirAll(targetDir, platform.DirPerm); err != nil {
		return fmt.Errorf("creating %s: %w", targetDir, err)
	}

	for _, e := range plan {
		dst := filepath.Join(targetDir, filepath.FromSlash(e.rel))
		if e.dir {
			if err := os.MkdirAll(dst, platform.DirPerm); err != nil {
				return fmt.Errorf("creating %s: %w", dst, err)
			}
			continue
		}

		data, err := os.ReadFile(e.src)
		if err != nil {
			return fmt.Errorf("reading %s: %w", e.src, err)
		}
		if utf8.Valid(data) {
			data = []byte(replacer.Replace(string(data)))
		} else {
			result.Binary = append(result.Binary, e.rel)
		}
		if err := platform.WriteFile(dst, bytes.NewReader(data), e.mode); err != nil {
			return err
		}
		result.Files = append(result.Files, e.rel)
	}
	return nil
}

// Substitute replaces every {{key}} in s with replacements[key] in a single
// pass. Unknown tokens are left as they are.
func Substitute(s string, replacements map[string]string) string {
	return NewReplacer(replacements).Replace(s)
}

// NewReplacer builds the single-pass replacer used for paths and contents.
// Keys are sorted so the replacer is deterministic.
func NewReplacer(replacements map[string]string) *strings.Replacer {
	keys := make([]string, 0, len(replacements))
	for k := range replacements {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, Token(k), replacements[k])
	}
	return strings.NewReplacer(pairs...)
}

// Token returns the placeholder token for key, e.g. "{{project_name}}".
func Token(key string) string {
	return "{{" + key + "}}"
}
