package templates

import (
	"fmt"
	"iter"
	"slices"
)

// Store is an immutable, ordered set of templates
type Store struct {
	templates  []Template
	byID       map[string]int
	categories []string
}

// NewStore builds a store from templates, keeping their order.
// Template ids must be unique.
func NewStore(ts []Template) (*Store, error) {
	s := &Store{
		templates: make([]Template, 0, len(ts)),
		byID:      make(map[string]int, len(ts)),
	}
	for _, t := range ts {
		if t.ID == "" {
			return nil, fmt.Errorf("template with empty id")
		}
		if _, dup := s.byID[t.ID]; dup {
			return nil, fmt.Errorf("duplicate template id %q", t.ID)
		}
		s.byID[t.ID] = len(s.templates)
		s.templates = append(s.templates, t.clone())
		if !slices.Contains(s.categories, t.Category) {
			s.categories = append(s.categories, t.Category)
		}
	}
	return s, nil
}

// Get returns the template with the given id
func (s *Store) Get(id string) (Template, error) {
	i, ok := s.byID[id]
	if !ok {
		return Template{}, &NotFoundError{ID: id}
	}
	return s.templates[i].clone(), nil
}

// List yields templates in insertion order, restricted to category unless
// it is empty. The sequence can be ranged over any number of times.
func (s *Store) List(category string) iter.Seq[Template] {
	return func(yield func(Template) bool) {
		for _, t := range s.templates {
			if category != "" && t.Category != category {
				continue
			}
			if !yield(t.clone()) {
				return
			}
		}
	}
}

// Categories returns the categories present, in order of first appearance
func (s *Store) Categories() []string {
	return slices.Clone(s.categories)
}

// Len returns the number of templates
func (s *Store) Len() int {
	return len(s.templates)
}
