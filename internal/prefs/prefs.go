// Package prefs keeps device-local composer state: recently added item
// names and starred favorites. Both lists are order-preserving and
// case-insensitively deduplicated; they never enter the shared store.
package prefs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MaxRecents caps the recents list.
const MaxRecents = 12

type fileData struct {
	Recents   []string `json:"recents"`
	Favorites []string `json:"favorites"`
}

// Store is a file-backed preference store.
type Store struct {
	path string
}

// NewStore creates the store under basePath, ensuring the directory exists.
func NewStore(basePath string) (*Store, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create prefs directory %s: %w", basePath, err)
	}
	return &Store{path: filepath.Join(basePath, "prefs.json")}, nil
}

// Recents returns the recent item names, most recent first.
func (s *Store) Recents() []string {
	return s.load().Recents
}

// PushRecent moves name to the front of the recents, dropping older
// case-insensitive duplicates and truncating to MaxRecents. Blank names are
// ignored.
func (s *Store) PushRecent(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	data := s.load()
	next := []string{name}
	for _, n := range data.Recents {
		if !strings.EqualFold(n, name) {
			next = append(next, n)
		}
	}
	if len(next) > MaxRecents {
		next = next[:MaxRecents]
	}
	data.Recents = next
	return s.save(data)
}

// Favorites returns the starred names in insertion order (newest first).
func (s *Store) Favorites() []string {
	return s.load().Favorites
}

// IsFavorite reports whether name is starred (case-insensitive).
func (s *Store) IsFavorite(name string) bool {
	name = strings.TrimSpace(name)
	for _, f := range s.load().Favorites {
		if strings.EqualFold(strings.TrimSpace(f), name) {
			return true
		}
	}
	return false
}

// ToggleFavorite stars an unstarred name and unstars a starred one.
func (s *Store) ToggleFavorite(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	data := s.load()
	var next []string
	removed := false
	for _, f := range data.Favorites {
		if strings.EqualFold(strings.TrimSpace(f), name) {
			removed = true
			continue
		}
		next = append(next, f)
	}
	if !removed {
		next = append([]string{name}, next...)
	}
	data.Favorites = next
	return s.save(data)
}

// Suggestions returns the empty-query composer suggestions: favorites first,
// then recents, case-insensitively deduplicated.
func (s *Store) Suggestions() []string {
	data := s.load()
	var out []string
	seen := make(map[string]bool)
	for _, n := range append(append([]string{}, data.Favorites...), data.Recents...) {
		key := strings.ToLower(strings.TrimSpace(n))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	return out
}

// load tolerates a missing or corrupt file: local preferences are best
// effort, never fatal.
func (s *Store) load() fileData {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return fileData{}
	}
	var data fileData
	if err := json.Unmarshal(raw, &data); err != nil {
		return fileData{}
	}
	return data
}

func (s *Store) save(data fileData) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal prefs: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0644); err != nil {
		return fmt.Errorf("failed to write prefs file: %w", err)
	}
	return nil
}
