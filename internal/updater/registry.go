package updater

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrUpdaterExists   = errors.New("updater already exists")
	ErrUpdaterNil      = errors.New("updater is nil")
	ErrInvalidMetadata = errors.New("invalid updater metadata")
)

// Registry stores updaters by stable identifier.
type Registry struct {
	items map[string]Updater
}

// NewRegistry creates an empty updater registry.
func NewRegistry() *Registry {
	return &Registry{items: make(map[string]Updater)}
}

// ValidateMetadata checks required metadata fields and id format.
func ValidateMetadata(meta Metadata) error {
	id := strings.TrimSpace(meta.ID)
	name := strings.TrimSpace(meta.Name)
	archive := strings.TrimSpace(meta.Archive)
	if id == "" || name == "" || archive == "" {
		return fmt.Errorf("%w: id, name, and archive are required", ErrInvalidMetadata)
	}
	if !isValidID(id) {
		return fmt.Errorf("%w: invalid id format %q", ErrInvalidMetadata, id)
	}
	return nil
}

// Register adds an updater to the registry.
func (r *Registry) Register(u Updater) error {
	if u == nil {
		return ErrUpdaterNil
	}

	meta := u.Metadata()
	if err := ValidateMetadata(meta); err != nil {
		return err
	}

	if _, ok := r.items[meta.ID]; ok {
		return ErrUpdaterExists
	}
	r.items[meta.ID] = u
	return nil
}

// Resolve returns an updater by id.
func (r *Registry) Resolve(id string) (Updater, bool) {
	u, ok := r.items[id]
	return u, ok
}

// IDs returns registered ids in deterministic order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.items))
	for id := range r.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ListMetadata returns deterministic metadata ordering by id.
func (r *Registry) ListMetadata() []Metadata {
	list := make([]Metadata, 0, len(r.items))
	for _, u := range r.items {
		list = append(list, u.Metadata())
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].ID < list[j].ID
	})
	return list
}

func isValidID(id string) bool {
	if id == "" {
		return false
	}
	lastSep := false
	for i := 0; i < len(id); i++ {
		c := id[i]
		isLower := c >= 'a' && c <= 'z'
		isDigit := c >= '0' && c <= '9'
		isSep := c == '.' || c == '-' || c == '_'
		if !(isLower || isDigit || isSep) {
			return false
		}
		if i == 0 || i == len(id)-1 {
			if isSep {
				return false
			}
		}
		if isSep && lastSep {
			return false
		}
		lastSep = isSep
	}
	return true
}
