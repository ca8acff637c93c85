package templates

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultTemplatesFile is the file name used under the data directory
const DefaultTemplatesFile = "templates.yaml"

type yamlDocument struct {
	Templates []templateRecord `yaml:"templates"`
}

// YAMLStore keeps user templates in a single YAML file
type YAMLStore struct {
	path   string
	logger *log.Logger
}

// NewYAMLStore creates a store backed by path. The file is created on first save.
func NewYAMLStore(path string, logger *log.Logger) *YAMLStore {
	if logger == nil {
		panic("YAMLStore: logger cannot be nil")
	}
	return &YAMLStore{path: path, logger: logger}
}

// Path returns the backing file
func (s *YAMLStore) Path() string { return s.path }

// LoadDefinitions reads all user templates. A missing file means no templates.
func (s *YAMLStore) LoadDefinitions(ctx context.Context) ([]Template, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Printf("YAMLStore: load %s (no existing file)", s.path)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read templates file %s: %w", s.path, err)
	}

	var doc yamlDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse templates file %s: %w", s.path, err)
	}
	out := make([]Template, 0, len(doc.Templates))
	for _, rec := range doc.Templates {
		out = append(out, fromRecord(rec))
	}
	s.logger.Printf("YAMLStore: load %s -> %d templates", s.path, len(out))
	return out, nil
}

// SaveDefinitions replaces the file contents with templates
func (s *YAMLStore) SaveDefinitions(ctx context.Context, templates []Template) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc := yamlDocument{Templates: make([]templateRecord, 0, len(templates))}
	for _, t := range templates {
		if t.BuiltIn {
			continue
		}
		doc.Templates = append(doc.Templates, toRecord(t))
	}
	raw, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal templates: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create templates dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".templates-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write templates: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace templates file: %w", err)
	}
	s.logger.Printf("YAMLStore: save %s -> %d templates", s.path, len(doc.Templates))
	return nil
}
