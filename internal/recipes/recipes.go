// Package recipes manages user-authored recipe definitions: parsing the
// free-text ingredient field, persistence, and the cleanup that keeps item
// origins consistent when an active recipe disappears.
package recipes

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"grocify/internal/catalog"
	"grocify/internal/docstore"
	"grocify/internal/household"
)

// Validation failures are surfaced synchronously to the caller; no partial
// write is attempted.
var (
	ErrNameRequired  = errors.New("recipe name is required")
	ErrItemsRequired = errors.New("recipe needs at least one item")
)

// Definition is one custom recipe document.
type Definition struct {
	ID    string
	Name  string
	Items []string
}

// Service persists custom recipes in the shared document store.
type Service struct {
	store docstore.Store
}

// NewService creates a recipe service over the given store.
func NewService(store docstore.Store) *Service {
	return &Service{store: store}
}

var itemSeparators = regexp.MustCompile(`[\n,]+`)

// ParseItems splits a raw ingredient field on newlines and commas, trims
// each entry, drops blanks, and removes duplicates preserving first-seen
// order.
func ParseItems(raw string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, part := range itemSeparators.Split(raw, -1) {
		item := strings.TrimSpace(part)
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}

// List returns every custom recipe ordered by document id.
func (s *Service) List(ctx context.Context) ([]Definition, error) {
	snaps, err := s.store.GetAll(ctx, household.ColRecipes)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	var defs []Definition
	for _, snap := range snaps {
		name, _ := snap.Data["name"].(string)
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		defs = append(defs, Definition{ID: snap.ID, Name: name, Items: stringList(snap.Data["items"])})
	}
	return defs, nil
}

// Save creates or updates a custom recipe. The name doubles as the origin
// tag on list items, so editing keeps the name locked to its document id.
func (s *Service) Save(ctx context.Context, name, rawItems string) (*Definition, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	items := ParseItems(rawItems)
	if len(items) == 0 {
		return nil, ErrItemsRequired
	}

	id := catalog.Slug(name)
	if id == "" {
		return nil, ErrNameRequired
	}
	fields := docstore.Document{
		"name":      name,
		"items":     anyList(items),
		"updatedAt": docstore.ServerTimestamp(),
	}
	if _, ok, err := s.store.Get(ctx, household.ColRecipes, id); err != nil {
		return nil, fmt.Errorf("failed to read recipe %q: %w", name, err)
	} else if !ok {
		fields["createdAt"] = docstore.ServerTimestamp()
	}
	if err := s.store.Set(ctx, household.ColRecipes, id, fields, true); err != nil {
		return nil, fmt.Errorf("failed to save recipe %q: %w", name, err)
	}
	return &Definition{ID: id, Name: name, Items: items}, nil
}

// Delete removes a custom recipe. If the recipe is currently active its
// contribution is unwound first: each item loses one count and the recipe's
// origin tag inside a transaction (deleted when the count empties), and the
// meal is dropped from the active set.
func (s *Service) Delete(ctx context.Context, name string) error {
	id := catalog.Slug(name)
	doc, ok, err := s.store.Get(ctx, household.ColRecipes, id)
	if err != nil {
		return fmt.Errorf("failed to read recipe %q: %w", name, err)
	}
	if !ok {
		return nil
	}

	active, err := s.activeMeals(ctx)
	if err != nil {
		return err
	}
	if active[name] {
		for _, item := range stringList(doc["items"]) {
			if err := s.removeItemContribution(ctx, item, name); err != nil {
				return err
			}
		}
		delete(active, name)
		names := make([]any, 0, len(active))
		for m := range active {
			names = append(names, m)
		}
		err := s.store.Set(ctx, household.ColMeta, household.DocUIState,
			docstore.Document{"activeMeals": names}, true)
		if err != nil {
			return fmt.Errorf("failed to deactivate recipe %q: %w", name, err)
		}
	}

	if err := s.store.Delete(ctx, household.ColRecipes, id); err != nil {
		return fmt.Errorf("failed to delete recipe %q: %w", name, err)
	}
	return nil
}

// removeItemContribution decrements one item by a single count and drops the
// recipe origin, deleting the document when the count reaches zero. The
// read-modify-write runs in the store's transaction primitive so concurrent
// edits can't resurrect a zeroed item.
func (s *Service) removeItemContribution(ctx context.Context, item, origin string) error {
	id := catalog.Slug(item)
	err := s.store.RunTransaction(ctx, func(tx docstore.Tx) error {
		doc, exists, err := tx.Get(household.ColItems, id)
		if err != nil {
			return err
		}
		if !exists {
			return nil
		}
		count, _ := doc["count"].(float64)
		if count-1 <= 0 {
			tx.Delete(household.ColItems, id)
			return nil
		}
		tx.Set(household.ColItems, id, docstore.Document{
			"count":   count - 1,
			"origins": docstore.ArrayRemove(origin),
		}, true)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to unwind item %q: %w", item, err)
	}
	return nil
}

func (s *Service) activeMeals(ctx context.Context) (map[string]bool, error) {
	doc, ok, err := s.store.Get(ctx, household.ColMeta, household.DocUIState)
	if err != nil {
		return nil, fmt.Errorf("failed to read ui state: %w", err)
	}
	active := make(map[string]bool)
	if !ok {
		return active, nil
	}
	for _, name := range stringList(doc["activeMeals"]) {
		active[name] = true
	}
	return active, nil
}

func stringList(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, e := range arr {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func anyList(items []string) []any {
	out := make([]any, len(items))
	for i, s := range items {
		out[i] = s
	}
	return out
}
