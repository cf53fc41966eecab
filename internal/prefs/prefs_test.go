package prefs

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	return s
}

func TestPushRecent(t *testing.T) {
	s := newTestStore(t)

	s.PushRecent("Melk")
	s.PushRecent("Brood")
	s.PushRecent("melk") // case-insensitive duplicate moves to the front

	got := s.Recents()
	want := []string{"melk", "Brood"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Recents = %v, want %v", got, want)
	}
}

func TestPushRecentIgnoresBlank(t *testing.T) {
	s := newTestStore(t)
	s.PushRecent("   ")
	if got := s.Recents(); len(got) != 0 {
		t.Errorf("Expected no recents, got %v", got)
	}
}

func TestPushRecentCaps(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < MaxRecents+5; i++ {
		s.PushRecent(string(rune('a' + i)))
	}
	if got := len(s.Recents()); got != MaxRecents {
		t.Errorf("Expected %d recents, got %d", MaxRecents, got)
	}
}

func TestToggleFavorite(t *testing.T) {
	s := newTestStore(t)

	s.ToggleFavorite("Melk")
	if !s.IsFavorite("melk") {
		t.Error("Expected 'Melk' starred, lookup case-insensitive")
	}
	s.ToggleFavorite("MELK")
	if s.IsFavorite("Melk") {
		t.Error("Expected the second toggle to unstar")
	}
}

func TestSuggestionsFavoritesFirst(t *testing.T) {
	s := newTestStore(t)

	s.PushRecent("Brood")
	s.PushRecent("Melk")
	s.ToggleFavorite("Kaas")
	s.ToggleFavorite("melk") // also recent; the favorite entry wins

	got := s.Suggestions()
	want := []string{"melk", "Kaas", "Brood"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Suggestions = %v, want %v", got, want)
	}
}

func TestLoadToleratesCorruptFile(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "prefs.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if got := s.Recents(); got != nil {
		t.Errorf("Expected empty recents from corrupt file, got %v", got)
	}
	// Writes recover the file.
	if err := s.PushRecent("Melk"); err != nil {
		t.Fatalf("PushRecent failed: %v", err)
	}
	if got := s.Recents(); len(got) != 1 || got[0] != "Melk" {
		t.Errorf("Expected recovery after write, got %v", got)
	}
}
