package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/list"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"go.yaml.in/yaml/v3"

	"github.com/m4sc0/new/internal/image"
)

// Output formats accepted by the list and info commands.
const (
	FormatTree  = "tree"
	FormatTable = "table"
	FormatQuiet = "quiet"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Origins of a listed image.
const (
	OriginLocal    = "local"
	OriginRemote   = "remote"
	OriginTemplate = "template"
)

// Entry is one row of an image listing.
type Entry struct {
	Origin      string          `json:"origin" yaml:"origin"`
	Ref         image.Reference `json:"ref" yaml:"ref"`
	ID          string          `json:"id" yaml:"id"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
}

// NewEntry builds an entry for ref.
func NewEntry(origin string, ref image.Reference, description string) Entry {
	return Entry{Origin: origin, Ref: ref, ID: ref.String(), Description: description}
}

// ValidListFormat reports whether format is a known listing format.
func ValidListFormat(format string) bool {
	switch format {
	case FormatTree, FormatTable, FormatQuiet, FormatJSON, FormatYAML:
		return true
	}
	return false
}

// RenderList writes entries in the requested format. Entries are expected
// to be sorted already.
func RenderList(w io.Writer, format string, entries []Entry) error {
	switch format {
	case FormatTree, "":
		_, err := io.WriteString(w, Tree(entries))
		return err
	case FormatTable:
		_, err := fmt.Fprintln(w, Table(entries))
		return err
	case FormatQuiet:
		for _, e := range entries {
			if _, err := fmt.Fprintf(w, "%s\t%s\n", e.Origin, e.ID); err != nil {
				return err
			}
		}
		return nil
	case FormatJSON, FormatYAML:
		if entries == nil {
			entries = []Entry{}
		}
		return Encode(w, format, entries)
	default:
		return fmt.Errorf("unknown output format %q (use tree, table, quiet, json, or yaml)", format)
	}
}

// Tree renders entries grouped by category and name.
func Tree(entries []Entry) string {
	l := list.NewWriter()
	l.SetStyle(list.StyleConnectedLight)

	var category, name string
	for _, e := range entries {
		if e.Ref.Category != category {
			if category != "" {
				l.UnIndent()
				l.UnIndent()
			}
			category, name = e.Ref.Category, ""
			l.AppendItem(TitleStyle.Render(category))
			l.Indent()
		}
		if e.Ref.Name != name {
			if name != "" {
				l.UnIndent()
			}
			name = e.Ref.Name
			l.AppendItem(BoldStyle.Render(name))
			l.Indent()
		}
		item := e.Ref.Version
		if item == "" {
			item = e.Origin
		}
		if e.Description != "" {
			item += "  " + DimStyle.Render(e.Description)
		}
		l.AppendItem(item)
	}

	out := l.Render()
	if out == "" {
		return ""
	}
	return out + "\n"
}

// Table renders entries as a bordered table.
func Table(entries []Entry) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Category", "Name", "Version", "Origin", "Description"})
	for _, e := range entries {
		t.AppendRow(table.Row{e.Ref.Category, e.Ref.Name, e.Ref.Version, e.Origin, e.Description})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 5, WidthMax: 60},
	})
	return t.Render()
}

// Encode writes v as indented JSON or YAML.
func Encode(w io.Writer, format string, v any) error {
	switch strings.ToLower(format) {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown encoding %q (use json or yaml)", format)
	}
}
