package templates

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/lowaak/intervals/internal/timer"
)

// Library combines the built-in templates with user templates kept in a Store.
type Library struct {
	store  Store
	logger *log.Logger
	newID  func() string

	mu sync.Mutex // serializes load-modify-save cycles
}

// NewLibrary creates a Library over store
func NewLibrary(store Store, logger *log.Logger) *Library {
	if store == nil {
		panic("Library: store cannot be nil")
	}
	if logger == nil {
		panic("Library: logger cannot be nil")
	}
	return &Library{
		store:  store,
		logger: logger,
		newID:  func() string { return "user_" + uuid.NewString() },
	}
}

// All returns the built-ins followed by the user templates
func (l *Library) All(ctx context.Context) ([]Template, error) {
	user, err := l.User(ctx)
	if err != nil {
		return nil, err
	}
	return append(BuiltInTemplates(), user...), nil
}

// User returns only the stored templates
func (l *Library) User(ctx context.Context) ([]Template, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loadLocked(ctx)
}

// Get finds a template by id
func (l *Library) Get(ctx context.Context, id string) (Template, error) {
	all, err := l.All(ctx)
	if err != nil {
		return Template{}, err
	}
	for _, t := range all {
		if t.ID == id {
			return t, nil
		}
	}
	return Template{}, fmt.Errorf("get %q: %w", id, ErrTemplateNotFound)
}

// Save stores def as a new user template. The description lists the segment names
// and the colour follows the first segment's type.
func (l *Library) Save(ctx context.Context, name string, def timer.WorkoutDefinition) (Template, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Template{}, ErrTemplateName
	}
	if err := def.Validate(); err != nil {
		return Template{}, fmt.Errorf("save %q: %w", name, err)
	}

	def = def.Normalized()
	color := timer.SegmentWork.Color()
	if len(def.Segments) > 0 {
		color = def.Segments[0].Type.Color()
	}
	t := Template{
		ID:          l.newID(),
		Name:        name,
		Description: def.Description(),
		Color:       color,
		Definition:  def,
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	user, err := l.loadLocked(ctx)
	if err != nil {
		return Template{}, err
	}
	if err := l.store.SaveDefinitions(ctx, append(user, t)); err != nil {
		return Template{}, fmt.Errorf("save %q: %w", name, err)
	}
	l.logger.Printf("Library: Saved template %q (%s)", t.Name, t.ID)
	return t, nil
}

// Delete removes a user template. Built-ins cannot be deleted.
func (l *Library) Delete(ctx context.Context, id string) error {
	if isBuiltInID(id) {
		return fmt.Errorf("delete %q: %w", id, ErrBuiltInTemplate)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	user, err := l.loadLocked(ctx)
	if err != nil {
		return err
	}
	kept := make([]Template, 0, len(user))
	found := false
	for _, t := range user {
		if t.ID == id {
			found = true
			continue
		}
		kept = append(kept, t)
	}
	if !found {
		return fmt.Errorf("delete %q: %w", id, ErrTemplateNotFound)
	}
	if err := l.store.SaveDefinitions(ctx, kept); err != nil {
		return fmt.Errorf("delete %q: %w", id, err)
	}
	l.logger.Printf("Library: Deleted template %s", id)
	return nil
}

// Export writes the user templates as a YAML document
func (l *Library) Export(ctx context.Context, w io.Writer) error {
	user, err := l.User(ctx)
	if err != nil {
		return err
	}
	doc := yamlDocument{Templates: make([]templateRecord, 0, len(user))}
	for _, t := range user {
		doc.Templates = append(doc.Templates, toRecord(t))
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode templates yaml: %w", err)
	}
	return enc.Close()
}

// Import reads templates from a YAML document written by Export and adds them
// as new user templates with fresh ids. Returns how many were added.
func (l *Library) Import(ctx context.Context, r io.Reader) (int, error) {
	var doc yamlDocument
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return 0, fmt.Errorf("parse templates yaml: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	user, err := l.loadLocked(ctx)
	if err != nil {
		return 0, err
	}
	added := 0
	for _, rec := range doc.Templates {
		t := fromRecord(rec)
		if strings.TrimSpace(t.Name) == "" || t.Definition.Validate() != nil {
			l.logger.Printf("Library: Import skipped invalid template %q", rec.Name)
			continue
		}
		t.ID = l.newID()
		if t.Description == "" {
			t.Description = t.Definition.Description()
		}
		if t.Color == "" {
			t.Color = t.Definition.Segments[0].Type.Color()
		}
		user = append(user, t)
		added++
	}
	if added == 0 {
		return 0, nil
	}
	if err := l.store.SaveDefinitions(ctx, user); err != nil {
		return 0, fmt.Errorf("import templates: %w", err)
	}
	l.logger.Printf("Library: Imported %d templates", added)
	return added, nil
}

// MUST be called with mu held.
func (l *Library) loadLocked(ctx context.Context) ([]Template, error) {
	user, err := l.store.LoadDefinitions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	for i := range user {
		user[i].BuiltIn = false
	}
	return user, nil
}
