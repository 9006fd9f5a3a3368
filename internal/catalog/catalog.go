package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"

	"github.com/m4sc0/new/internal/image"
	"github.com/m4sc0/new/internal/metadata"
)

// IndexFile is the name of the index inside a template folder.
const IndexFile = "templates.json"

// Template is one catalog entry.
type Template struct {
	Category string
	Name     string
	// Dir is the absolute template directory.
	Dir string
	// Index is the templates.json the entry came from.
	Index    string
	Metadata *metadata.Record
}

// Reference returns the entry's unversioned reference.
func (t Template) Reference() image.Reference {
	return image.Reference{Category: t.Category, Name: t.Name}
}

// Catalog holds the entries of every readable index, in folder order.
type Catalog struct {
	entries []Template
}

// Load reads the index of each folder in dirs. Missing or unreadable
// indexes and invalid entries are logged and skipped. A nil logger
// disables logging.
func Load(dirs []string, logger *zerolog.Logger) *Catalog {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	c := &Catalog{}
	for _, dir := range dirs {
		entries, err := loadIndex(dir, logger)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				logger.Debug().Str("dir", dir).Msg("no template index")
			} else {
				logger.Warn().Err(err).Str("dir", dir).Msg("skipping template folder")
			}
			continue
		}
		c.entries = append(c.entries, entries...)
	}
	return c
}

func loadIndex(dir string, logger *zerolog.Logger) ([]Template, error) {
	index := filepath.Join(dir, IndexFile)
	data, err := os.ReadFile(index)
	if err != nil {
		return nil, err
	}

	var raw map[string]map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", index, err)
	}

	var out []Template
	for category, names := range raw {
		for name, entry := range names {
			t, err := parseEntry(dir, category, name, entry)
			if err != nil {
				logger.Warn().Err(err).Str("index", index).Str("template", category+"/"+name).Msg("skipping template")
				continue
			}
			t.Index = index
			out = append(out, t)
		}
	}
	sortTemplates(out)
	return out, nil
}

func parseEntry(dir, category, name string, entry json.RawMessage) (Template, error) {
	ref := image.Reference{Category: category, Name: name}
	if err := ref.Validate(); err != nil {
		return Template{}, err
	}

	result, err := metadata.Validate(entry)
	if err != nil {
		return Template{}, err
	}
	if err := result.Err(); err != nil {
		return Template{}, err
	}
	record, err := metadata.Parse(entry)
	if err != nil {
		return Template{}, err
	}
	if record.Name == "" {
		record.Name = name
	}

	var loc struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal(entry, &loc); err != nil {
		return Template{}, fmt.Errorf("parsing path: %w", err)
	}
	rel := loc.Path
	if rel == "" {
		rel = name
	}
	path := rel
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, filepath.FromSlash(rel))
	}

	return Template{Category: category, Name: name, Dir: path, Metadata: record}, nil
}

// Lookup returns the first entry for category/name whose directory exists.
// It fails with image.ErrNotFound when there is none.
func (c *Catalog) Lookup(category, name string) (Template, error) {
	for _, t := range c.entries {
		if t.Category != category || t.Name != name {
			continue
		}
		if info, err := os.Stat(t.Dir); err == nil && info.IsDir() {
			return t, nil
		}
	}
	return Template{}, fmt.Errorf("%w: template %s/%s", image.ErrNotFound, category, name)
}

// All returns the entry Lookup would pick for each category/name, sorted.
func (c *Catalog) All() []Template {
	seen := map[image.Reference]bool{}
	var out []Template
	for _, t := range c.entries {
		ref := t.Reference()
		if seen[ref] {
			continue
		}
		found, err := c.Lookup(t.Category, t.Name)
		if err != nil {
			continue
		}
		seen[ref] = true
		out = append(out, found)
	}
	sortTemplates(out)
	return out
}

func sortTemplates(ts []Template) {
	sort.Slice(ts, func(i, j int) bool {
		if ts[i].Category != ts[j].Category {
			return ts[i].Category < ts[j].Category
		}
		return ts[i].Name < ts[j].Name
	})
}
