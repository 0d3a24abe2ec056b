// Copyright 2026 The QUDAH Authors
// SPDX-License-Identifier: Apache-2.0

package roles

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/qudah-works/qudah/store"
)

// Catalog limits.
const (
	// MaxCategories bounds the number of role categories.
	MaxCategories = 10
	// MaxRolesPerCategory bounds the roles under one category: four
	// full select-menu pages.
	MaxRolesPerCategory = 100
)

// categoryNamePattern constrains category names to what fits in
// component custom IDs without escaping.
var categoryNamePattern = regexp.MustCompile(`^[A-Za-z0-9]{1,32}$`)

// Catalog operation errors.
var (
	ErrInvalidCategoryName = errors.New("category names can only contain 1-32 alphanumeric characters")
	ErrCategoryLimit       = fmt.Errorf("at most %d categories can be registered", MaxCategories)
	ErrDuplicateCategory   = errors.New("category already exists")
	ErrUnknownCategory     = errors.New("unknown category")
	ErrRoleLimit           = fmt.Errorf("no more than %d roles can be registered under a single category", MaxRolesPerCategory)
	ErrDuplicateRole       = errors.New("role already registered under this category")
	ErrOrderMismatch       = errors.New("ordering must list every existing category exactly once")
)

// OrderError details an OrderCategories rejection: exactly one of the
// slices is non-empty.
type OrderError struct {
	// Missing are existing categories the ordering left out.
	Missing []string
	// Unknown are ordering entries that match no category.
	Unknown []string
	// Duplicated are ordering entries listed more than once.
	Duplicated []string
}

func (e *OrderError) Error() string {
	switch {
	case len(e.Missing) > 0:
		return fmt.Sprintf("roles: categories not included: %s", strings.Join(e.Missing, ", "))
	case len(e.Unknown) > 0:
		return fmt.Sprintf("roles: categories do not exist: %s", strings.Join(e.Unknown, ", "))
	default:
		return fmt.Sprintf("roles: duplicated categories: %s", strings.Join(e.Duplicated, ", "))
	}
}

// Is makes errors.Is(err, ErrOrderMismatch) hold for every OrderError.
func (e *OrderError) Is(target error) bool { return target == ErrOrderMismatch }

// Catalog provides the administrator-facing operations over the
// persisted role catalog. A mutex serializes the check-then-mutate
// cycle of each operation against the store.
type Catalog struct {
	mu    sync.Mutex
	store *store.Store
}

// NewCatalog creates a Catalog over the given store.
func NewCatalog(st *store.Store) *Catalog {
	return &Catalog{store: st}
}

// Categories returns the current catalog in order.
func (c *Catalog) Categories() store.Catalog {
	return c.store.Read().Roles
}

// RegisterCategory adds an empty category at the end of the catalog.
func (c *Catalog) RegisterCategory(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !categoryNamePattern.MatchString(name) {
		return ErrInvalidCategoryName
	}
	catalog := c.store.Read().Roles
	if len(catalog) >= MaxCategories {
		return ErrCategoryLimit
	}
	if catalog.Find(name) != nil {
		return fmt.Errorf("roles: %q: %w", name, ErrDuplicateCategory)
	}

	if _, err := c.store.Update(func(s *store.Snapshot) {
		s.Roles = append(s.Roles, store.Category{Name: name})
	}); err != nil {
		return fmt.Errorf("roles: registering category %q: %w", name, err)
	}
	return nil
}

// RegisterRole appends a role ID to a category.
func (c *Catalog) RegisterRole(category, roleID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	existing := c.store.Read().Roles.Find(category)
	if existing == nil {
		return fmt.Errorf("roles: %q: %w", category, ErrUnknownCategory)
	}
	if len(existing.Roles) >= MaxRolesPerCategory {
		return ErrRoleLimit
	}
	for _, id := range existing.Roles {
		if id == roleID {
			return fmt.Errorf("roles: %s in %q: %w", roleID, category, ErrDuplicateRole)
		}
	}

	if _, err := c.store.Update(func(s *store.Snapshot) {
		if target := s.Roles.Find(category); target != nil {
			target.Roles = append(target.Roles, roleID)
		}
	}); err != nil {
		return fmt.Errorf("roles: registering role in %q: %w", category, err)
	}
	return nil
}

// OrderCategories reorders the catalog to match names, which must be
// a permutation of the existing category names.
func (c *Catalog) OrderCategories(names []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	catalog := c.store.Read().Roles
	existing := catalog.Names()

	if missing := difference(existing, names); len(missing) > 0 {
		return &OrderError{Missing: missing}
	}
	if unknown := difference(names, existing); len(unknown) > 0 {
		return &OrderError{Unknown: unknown}
	}
	if len(names) != len(existing) {
		return &OrderError{Duplicated: duplicates(names)}
	}

	if _, err := c.store.Update(func(s *store.Snapshot) {
		ordered := make(store.Catalog, 0, len(names))
		for _, name := range names {
			if category := s.Roles.Find(name); category != nil {
				ordered = append(ordered, *category)
			}
		}
		s.Roles = ordered
	}); err != nil {
		return fmt.Errorf("roles: ordering categories: %w", err)
	}
	return nil
}

// difference returns the elements of a that do not appear in b,
// preserving order.
func difference(a, b []string) []string {
	var out []string
	for _, s := range a {
		found := false
		for _, t := range b {
			if s == t {
				found = true
				break
			}
		}
		if !found {
			out = append(out, s)
		}
	}
	return out
}

// duplicates returns the elements of names that appear more than
// once, one entry per extra occurrence.
func duplicates(names []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, name := range names {
		if seen[name] {
			out = append(out, name)
		}
		seen[name] = true
	}
	return out
}
