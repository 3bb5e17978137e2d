// Package taxonomy holds the archive's category and status vocabulary,
// loaded from an embedded YAML file.
package taxonomy

import (
	"embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed config/taxonomy.yaml
var configFiles embed.FS

// Category describes a document/folder classification
type Category struct {
	ID          string `yaml:"id" json:"id"`
	DisplayName string `yaml:"display_name" json:"display_name"`
	Description string `yaml:"description" json:"description"`
}

// taxonomyFile is the on-disk YAML shape
type taxonomyFile struct {
	Categories      []Category `yaml:"categories"`
	Statuses        []string   `yaml:"statuses"`
	DefaultCategory string     `yaml:"default_category"`
	DefaultStatus   string     `yaml:"default_status"`
}

// Registry answers category/status lookups for validation and defaults
type Registry struct {
	mu         sync.RWMutex
	categories map[string]Category
	ordered    []Category
	statuses   map[string]struct{}
	defaults   struct {
		category string
		status   string
	}
}

// NewRegistry creates a registry from the embedded taxonomy file
func NewRegistry() (*Registry, error) {
	data, err := configFiles.ReadFile("config/taxonomy.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read taxonomy config: %w", err)
	}

	var file taxonomyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal taxonomy config: %w", err)
	}

	r := &Registry{
		categories: make(map[string]Category, len(file.Categories)),
		ordered:    file.Categories,
		statuses:   make(map[string]struct{}, len(file.Statuses)),
	}
	for _, c := range file.Categories {
		r.categories[c.ID] = c
	}
	for _, s := range file.Statuses {
		r.statuses[s] = struct{}{}
	}
	r.defaults.category = file.DefaultCategory
	r.defaults.status = file.DefaultStatus

	if _, ok := r.categories[r.defaults.category]; !ok {
		return nil, fmt.Errorf("default category %q not in category list", r.defaults.category)
	}
	if _, ok := r.statuses[r.defaults.status]; !ok {
		return nil, fmt.Errorf("default status %q not in status list", r.defaults.status)
	}

	return r, nil
}

// ValidCategory reports whether id is a known category. The empty string
// is valid and means "use the default".
func (r *Registry) ValidCategory(id string) bool {
	if id == "" {
		return true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.categories[id]
	return ok
}

// ValidStatus reports whether s is a known status. The empty string is
// valid and means "use the default".
func (r *Registry) ValidStatus(s string) bool {
	if s == "" {
		return true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.statuses[s]
	return ok
}

// DefaultCategory returns the fallback category id
func (r *Registry) DefaultCategory() string {
	return r.defaults.category
}

// DefaultStatus returns the fallback status
func (r *Registry) DefaultStatus() string {
	return r.defaults.status
}

// Categories returns all categories in file order
func (r *Registry) Categories() []Category {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Category, len(r.ordered))
	copy(out, r.ordered)
	return out
}
