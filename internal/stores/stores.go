// Package stores manages store (winkel) definitions and the active-store
// selection. Each store carries its own ordering of the canonical sections;
// the active one reorders the shopping list.
package stores

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"grocify/internal/catalog"
	"grocify/internal/docstore"
	"grocify/internal/household"
)

// Store is one store definition.
type Store struct {
	ID    string
	Name  string
	Order []string
}

// Service owns store CRUD and mirrors the stores collection plus the active
// store id so CurrentSectionOrder answers without a read.
type Service struct {
	store docstore.Store

	mu       sync.Mutex
	stores   map[string]Store
	activeID string
	unsubs   []func()
}

// NewService creates the service over the given document store.
func NewService(ds docstore.Store) *Service {
	return &Service{store: ds, stores: make(map[string]Store)}
}

// Start subscribes to the stores collection and the ui-state document.
func (s *Service) Start() {
	s.unsubs = append(s.unsubs,
		s.store.Subscribe(household.ColStores, s.handleStores),
		s.store.Subscribe(household.ColMeta, s.handleMeta),
	)
}

// Stop tears down the subscriptions.
func (s *Service) Stop() {
	for _, unsub := range s.unsubs {
		unsub()
	}
	s.unsubs = nil
}

// Refresh loads both feeds once for one-shot commands.
func (s *Service) Refresh(ctx context.Context) error {
	snaps, err := s.store.GetAll(ctx, household.ColStores)
	if err != nil {
		return fmt.Errorf("failed to load stores: %w", err)
	}
	meta, err := s.store.GetAll(ctx, household.ColMeta)
	if err != nil {
		return fmt.Errorf("failed to load ui state: %w", err)
	}
	s.handleStores(snaps)
	s.handleMeta(meta)
	return nil
}

func (s *Service) handleStores(snaps []docstore.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stores = make(map[string]Store, len(snaps))
	for _, snap := range snaps {
		name, _ := snap.Data["name"].(string)
		s.stores[snap.ID] = Store{
			ID:    snap.ID,
			Name:  name,
			Order: stringList(snap.Data["order"]),
		}
	}
}

func (s *Service) handleMeta(snaps []docstore.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, snap := range snaps {
		if snap.ID != household.DocUIState {
			continue
		}
		id, _ := snap.Data["activeStoreId"].(string)
		s.activeID = id
	}
}

// CurrentSectionOrder returns the active store's section ordering, or the
// canonical order when no store is active or the active store has none.
func (s *Service) CurrentSectionOrder() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.stores[s.activeID]; ok && len(st.Order) > 0 {
		return append([]string(nil), st.Order...)
	}
	return append([]string(nil), catalog.SectionOrder...)
}

// List returns all stores sorted by name.
func (s *Service) List() []Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Store, 0, len(s.stores))
	for _, st := range s.stores {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ActiveID returns the active store id, or empty.
func (s *Service) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// Create adds a store with the default section order and returns its id.
func (s *Service) Create(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Winkel"
	}
	id := uuid.NewString()
	err := s.store.Set(ctx, household.ColStores, id, docstore.Document{
		"name":      name,
		"order":     anyList(catalog.SectionOrder),
		"createdAt": docstore.ServerTimestamp(),
		"updatedAt": docstore.ServerTimestamp(),
	}, true)
	if err != nil {
		return "", fmt.Errorf("failed to create store %q: %w", name, err)
	}
	return id, nil
}

// Update renames a store and/or replaces its section order.
func (s *Service) Update(ctx context.Context, id, name string, order []string) error {
	fields := docstore.Document{"updatedAt": docstore.ServerTimestamp()}
	if name = strings.TrimSpace(name); name != "" {
		fields["name"] = name
	}
	if len(order) > 0 {
		fields["order"] = anyList(order)
	}
	if err := s.store.Set(ctx, household.ColStores, id, fields, true); err != nil {
		return fmt.Errorf("failed to update store %s: %w", id, err)
	}
	return nil
}

// Delete removes a store. Deleting the active store clears the selection.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, household.ColStores, id); err != nil {
		return fmt.Errorf("failed to delete store %s: %w", id, err)
	}
	if s.ActiveID() == id {
		return s.SetActive(ctx, "")
	}
	return nil
}

// SetActive selects the active store; an empty id deactivates.
func (s *Service) SetActive(ctx context.Context, id string) error {
	var value any = id
	if id == "" {
		value = docstore.DeleteField()
	}
	err := s.store.Set(ctx, household.ColMeta, household.DocUIState,
		docstore.Document{"activeStoreId": value}, true)
	if err != nil {
		return fmt.Errorf("failed to set active store: %w", err)
	}
	return nil
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
