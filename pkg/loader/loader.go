// Package loader parses declarative wizard definitions from YAML or JSON
// documents. Text destined for display (titles, labels, descriptions, help)
// is sanitised before it reaches a renderer.
package loader

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-wizard/pkg/model"
	"github.com/goliatone/go-wizard/pkg/session"
)

// Document is the on-disk wizard definition.
type Document struct {
	Name        string       `json:"name" yaml:"name"`
	Title       string       `json:"title,omitempty" yaml:"title,omitempty"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Steps       []model.Step `json:"steps" yaml:"steps"`
}

// Parse decodes a document. YAML is a superset of JSON, so both formats go
// through the same decoder. Structural validation is deferred to Session,
// where the model constructors own the rules.
func Parse(data []byte) (Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("loader: parse: %w", err)
	}
	if strings.TrimSpace(doc.Name) == "" {
		return Document{}, fmt.Errorf("loader: document has no name")
	}
	if len(doc.Steps) == 0 {
		return Document{}, fmt.Errorf("loader: document %q has no steps", doc.Name)
	}
	sanitizeDocument(&doc)
	return doc, nil
}

// LoadFile reads and parses a definition from disk.
func LoadFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("loader: read %s: %w", path, err)
	}
	return Parse(data)
}

// LoadFS walks a filesystem and parses every definition file, keyed by
// document name. Duplicate names across files fail the whole load.
func LoadFS(fsys fs.FS) (map[string]Document, error) {
	out := make(map[string]Document)
	if fsys == nil {
		return out, nil
	}
	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isDefinitionFile(path) {
			return nil
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("loader: read %s: %w", path, err)
		}
		doc, err := Parse(data)
		if err != nil {
			return fmt.Errorf("loader: %s: %w", path, err)
		}
		if _, exists := out[doc.Name]; exists {
			return fmt.Errorf("loader: duplicate wizard %q (file %s)", doc.Name, path)
		}
		out[doc.Name] = doc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Session materialises the document into a built session. Every model rule
// applies: duplicate names, bad patterns, unknown dependency references, and
// cycles all fail here with the offending identifier.
func (d Document) Session(options ...session.Option) (*session.Session, error) {
	s := session.New(options...)
	for _, step := range d.Steps {
		controls := step.Controls
		step.Controls = nil
		if err := s.AddStep(step); err != nil {
			return nil, err
		}
		for _, control := range controls {
			if err := s.AddControl(step.Name, control); err != nil {
				return nil, err
			}
		}
	}
	if err := s.Build(); err != nil {
		return nil, err
	}
	return s, nil
}

func isDefinitionFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return true
	default:
		return false
	}
}
