package state

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Store tracks which versions of one product already have a published
// docset. It is backed by a small YAML file so the cron host keeps its
// history across runs and the file stays hand-editable.
type Store struct {
	path  string
	names map[string]struct{}
	order []string
}

type fileFormat struct {
	Processed []string `yaml:"processed"`
}

// Load reads the store at path. A missing file is an empty store.
func Load(path string) (*Store, error) {
	s := &Store{path: path, names: make(map[string]struct{})}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("state load failed (%s): %w", path, err)
	}

	var raw fileFormat
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("state parse failed (%s): %w", path, err)
	}
	for _, name := range raw.Processed {
		if _, ok := s.names[name]; ok {
			continue
		}
		s.names[name] = struct{}{}
		s.order = append(s.order, name)
	}
	return s, nil
}

func (s *Store) Contains(name string) bool {
	_, ok := s.names[name]
	return ok
}

// Names returns processed version names in insertion order.
func (s *Store) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Mark records name as processed and persists immediately. Marking an
// already-known name is a no-op.
func (s *Store) Mark(name string) error {
	if s.Contains(name) {
		return nil
	}
	s.names[name] = struct{}{}
	s.order = append(s.order, name)
	return s.save()
}

func (s *Store) save() error {
	data, err := yaml.Marshal(fileFormat{Processed: s.Names()})
	if err != nil {
		return fmt.Errorf("state encode failed (%s): %w", s.path, err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("state dir create failed (%s): %w", s.path, err)
	}

	// Write-then-rename so a crashed run never truncates the history.
	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("state temp create failed (%s): %w", s.path, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("state write failed (%s): %w", s.path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("state close failed (%s): %w", s.path, err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("state rename failed (%s): %w", s.path, err)
	}
	return nil
}
