// Package form loads and serves the registry of published form definitions.
package form

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"digital-forms-platform/runner/internal/form/domain"
)

// Registry holds the published forms for this runner instance, keyed by form ID.
// Loaded once at startup; read-only afterwards.
type Registry struct {
	forms map[string]*domain.Form
}

// NewRegistry returns a registry over the given forms. Forms without an ID are rejected.
func NewRegistry(forms []*domain.Form) (*Registry, error) {
	m := make(map[string]*domain.Form, len(forms))
	for _, f := range forms {
		if err := f.Validate(); err != nil {
			return nil, err
		}
		if _, ok := m[f.ID]; ok {
			return nil, fmt.Errorf("form: duplicate id %q", f.ID)
		}
		m[f.ID] = f
	}
	return &Registry{forms: m}, nil
}

// LoadRegistry reads every *.json file in dir as a form definition.
// A definition without an explicit id takes the file name (without extension).
func LoadRegistry(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("form: read dir %s: %w", dir, err)
	}
	var forms []*domain.Form
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("form: read %s: %w", e.Name(), err)
		}
		var f domain.Form
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("form: parse %s: %w", e.Name(), err)
		}
		if f.ID == "" {
			f.ID = strings.TrimSuffix(e.Name(), ".json")
		}
		forms = append(forms, &f)
	}
	return NewRegistry(forms)
}

// Get returns the form for id, or nil if it is not published on this instance.
func (r *Registry) Get(id string) *domain.Form {
	if r == nil {
		return nil
	}
	return r.forms[id]
}

// Exists reports whether id is published on this instance.
func (r *Registry) Exists(id string) bool {
	return r.Get(id) != nil
}

// IDs returns the published form IDs in sorted order.
func (r *Registry) IDs() []string {
	out := make([]string, 0, len(r.forms))
	for id := range r.forms {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
