// Package filetypes maps file names to the type labels used by the dashboard
// filters. The catalog is embedded YAML.
package filetypes

import (
	"embed"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed config/*.yaml
var configFiles embed.FS

const catalogFile = "config/filetypes.yaml"

// FileType is one label and the extensions that map to it.
type FileType struct {
	Label      string   `yaml:"label" json:"label"`
	Extensions []string `yaml:"extensions" json:"extensions"`
}

type catalogFileSchema struct {
	Fallback string     `yaml:"fallback"`
	Types    []FileType `yaml:"types"`
}

// Catalog resolves file names to type labels. Immutable after construction,
// safe for concurrent use.
type Catalog struct {
	types    []FileType
	byExt    map[string]string
	fallback string
}

// Load parses the embedded catalog.
func Load() (*Catalog, error) {
	data, err := configFiles.ReadFile(catalogFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", catalogFile, err)
	}
	return Parse(data)
}

// Parse builds a catalog from YAML. An extension may belong to one label only.
func Parse(data []byte) (*Catalog, error) {
	var schema catalogFileSchema
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("failed to unmarshal file types: %w", err)
	}

	c := &Catalog{
		types:    make([]FileType, 0, len(schema.Types)),
		byExt:    make(map[string]string),
		fallback: schema.Fallback,
	}
	for _, ft := range schema.Types {
		if strings.TrimSpace(ft.Label) == "" {
			return nil, fmt.Errorf("file type without label")
		}
		exts := make([]string, 0, len(ft.Extensions))
		for _, ext := range ft.Extensions {
			ext = normalizeExt(ext)
			if ext == "" {
				continue
			}
			if owner, dup := c.byExt[ext]; dup {
				return nil, fmt.Errorf("extension %q listed under both %s and %s", ext, owner, ft.Label)
			}
			c.byExt[ext] = ft.Label
			exts = append(exts, ext)
		}
		c.types = append(c.types, FileType{Label: ft.Label, Extensions: exts})
	}
	return c, nil
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// Lookup returns the label for a file name, or the fallback label when the
// extension is unknown or missing.
func (c *Catalog) Lookup(name string) string {
	ext := normalizeExt(filepath.Ext(name))
	if label, ok := c.byExt[ext]; ok && ext != "" {
		return label
	}
	return c.fallback
}

// Labels returns the labels in catalog order.
func (c *Catalog) Labels() []string {
	labels := make([]string, len(c.types))
	for i, ft := range c.types {
		labels[i] = ft.Label
	}
	return labels
}

// Types returns a copy of the catalog entries.
func (c *Catalog) Types() []FileType {
	out := make([]FileType, len(c.types))
	for i, ft := range c.types {
		out[i] = FileType{Label: ft.Label, Extensions: append([]string(nil), ft.Extensions...)}
	}
	return out
}
