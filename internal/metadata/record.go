package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/m4sc0/new/internal/image"
)

// FileName is the metadata file at the root of every template and image.
const FileName = "template.json"

// SchemaVersion is written into every record saved by this package.
// Records without one are treated as version 1.
const SchemaVersion = 1

// Record is the parsed form of template.json.
//
// Name, Description, Placeholders, Open, and Ignore are author-controlled.
// The remaining fields are populated by the builder when a template is stamped
// into the local store.
type Record struct {
	SchemaVersion int      `json:"schema_version,omitempty" yaml:"schema_version,omitempty"`
	Name          string   `json:"name" yaml:"name"`
	Description   string   `json:"description" yaml:"description"`
	Placeholders  []string `json:"placeholders" yaml:"placeholders"`
	Open          *string  `json:"open" yaml:"open"`
	Ignore        []string `json:"ignore,omitempty" yaml:"ignore,omitempty"`

	Category string     `json:"category,omitempty" yaml:"category,omitempty"`
	Version  string     `json:"version,omitempty" yaml:"version,omitempty"`
	Created  *time.Time `json:"created" yaml:"created"`
	Hash     *string    `json:"hash" yaml:"hash"`
	Size     *int64     `json:"size" yaml:"size"`
}

// Load reads and decodes the record at path. Unknown fields are ignored and
// missing fields keep their zero values. A missing file yields image.ErrNotFound.
func Load(path string) (*Record, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// LoadDir reads dir/template.json.
func LoadDir(dir string) (*Record, error) {
	return Load(filepath.Join(dir, FileName))
}

// Parse decodes raw template.json bytes.
func Parse(data []byte) (*Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", FileName, err)
	}
	if r.SchemaVersion == 0 {
		r.SchemaVersion = SchemaVersion
	}
	r.Placeholders = normalizePlaceholders(r.Placeholders)
	return &r, nil
}

// Save writes the record to path as indented JSON.
func (r *Record) Save(path string) error {
	data, err := r.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Marshal encodes the record the way Save writes it.
func (r *Record) Marshal() ([]byte, error) {
	out := *r
	out.SchemaVersion = SchemaVersion
	out.Placeholders = normalizePlaceholders(r.Placeholders)
	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", FileName, err)
	}
	return append(data, '\n'), nil
}

// Stamp overwrites the record's identity with ref. The published identity
// always replaces whatever the template author recorded.
func (r *Record) Stamp(ref image.Reference) {
	r.Category = ref.Category
	r.Name = ref.Name
	r.Version = ref.Version
}

// Reference returns the identity stamped into the record.
func (r *Record) Reference() image.Reference {
	return image.Reference{Category: r.Category, Name: r.Name, Version: r.Version}
}

// Template formats the stamped identity as "category/name:version".
func (r *Record) Template() string {
	return r.Reference().ID()
}

// OpenFile returns the author's main file, or "" when none is declared.
func (r *Record) OpenFile() string {
	if r.Open == nil {
		return ""
	}
	return *r.Open
}

// HashString returns the content hash, or "" for unbuilt records.
func (r *Record) HashString() string {
	if r.Hash == nil {
		return ""
	}
	return *r.Hash
}

func (r *Record) String() string {
	version := r.Version
	if version == "" {
		version = "N/A"
	}
	return fmt.Sprintf("%s/%s:%s - %s", r.Category, r.Name, version, r.Description)
}

// normalizePlaceholders trims names and drops blanks and duplicates while
// keeping the author's order. The result is never nil.
func normalizePlaceholders(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, p := range in {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
