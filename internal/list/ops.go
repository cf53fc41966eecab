package list

import (
	"context"
	"fmt"
	"log"

	"grocify/internal/catalog"
	"grocify/internal/docstore"
	"grocify/internal/household"
)

// Mutations write through the document store with its commutative field
// primitives. In-memory state is never mutated optimistically here: the
// store's snapshot notification is the single path back into the mirror, so
// a failed write leaves nothing to roll back.

// AddItem increments the named item by qty, tags it with source, and creates
// the document if absent. An empty unit clears the stored unit.
func (p *Projector) AddItem(ctx context.Context, name, section, source string, qty float64, unit string) error {
	if qty < 1 {
		qty = 1
	}
	fields := docstore.Document{
		"name":      name,
		"section":   section,
		"count":     docstore.Increment(qty),
		"origins":   docstore.ArrayUnion(source),
		"updatedAt": docstore.ServerTimestamp(),
	}
	if unit != "" {
		fields["unit"] = unit
	} else {
		fields["unit"] = docstore.DeleteField()
	}
	if err := p.store.Set(ctx, household.ColItems, catalog.Slug(name), fields, true); err != nil {
		return fmt.Errorf("failed to add item %q: %w", name, err)
	}
	return nil
}

// AddDraft adds a parsed composer draft under the manual origin tag and
// returns the quantity applied, for a matching UndoAdd.
func (p *Projector) AddDraft(ctx context.Context, d *Draft) (float64, error) {
	qty := d.Quantity
	if qty < 1 {
		qty = 1
	}
	return qty, p.AddItem(ctx, d.Name, d.Section, ManualSource, qty, d.Unit)
}

// RemoveSource drops one origin tag from an item. When the last origin goes,
// the document is deleted outright: an item exists iff something wants it.
// Quantity is untouched; this is a different policy from UndoAdd.
func (p *Projector) RemoveSource(ctx context.Context, name, source string) error {
	id := catalog.Slug(name)
	doc, ok, err := p.store.Get(ctx, household.ColItems, id)
	if err != nil {
		return fmt.Errorf("failed to read item %q: %w", name, err)
	}
	if !ok {
		return nil
	}
	var next []any
	for _, o := range docStrings(doc, "origins") {
		if o != source {
			next = append(next, o)
		}
	}
	if len(next) == 0 {
		if err := p.store.Delete(ctx, household.ColItems, id); err != nil {
			return fmt.Errorf("failed to delete item %q: %w", name, err)
		}
		return nil
	}
	if err := p.store.Set(ctx, household.ColItems, id, docstore.Document{"origins": next}, true); err != nil {
		return fmt.Errorf("failed to update origins of %q: %w", name, err)
	}
	return nil
}

// UndoAdd unwinds a prior AddItem: decrement by qty and drop the source tag.
// If the quantity would drop to zero or below the document is deleted
// entirely, even when other origins still reference it: the add is treated
// as having created the item, so the whole thing is unwound.
func (p *Projector) UndoAdd(ctx context.Context, name string, qty float64, source string) error {
	id := catalog.Slug(name)
	doc, ok, err := p.store.Get(ctx, household.ColItems, id)
	if err != nil {
		return fmt.Errorf("failed to read item %q: %w", name, err)
	}
	if !ok {
		return nil
	}
	if qty < 1 {
		qty = 1
	}
	if docNumber(doc, "count")-qty <= 0 {
		if err := p.store.Delete(ctx, household.ColItems, id); err != nil {
			return fmt.Errorf("failed to delete item %q: %w", name, err)
		}
		return nil
	}
	err = p.store.Set(ctx, household.ColItems, id, docstore.Document{
		"count":   docstore.Increment(-qty),
		"origins": docstore.ArrayRemove(source),
	}, true)
	if err != nil {
		return fmt.Errorf("failed to undo add of %q: %w", name, err)
	}
	return nil
}

// ToggleChecked sets the checked flag. The resulting snapshot drives the
// completion-edge check.
func (p *Projector) ToggleChecked(ctx context.Context, name string, checked bool) error {
	err := p.store.Set(ctx, household.ColItems, catalog.Slug(name),
		docstore.Document{"checked": checked}, true)
	if err != nil {
		return fmt.Errorf("failed to toggle %q: %w", name, err)
	}
	return nil
}

// RemovedItem is a deleted item document retained for a single-shot undo.
type RemovedItem struct {
	Name  string
	store docstore.Store
	doc   docstore.Document
}

// Restore writes the removed document back.
func (r *RemovedItem) Restore(ctx context.Context) error {
	doc := make(docstore.Document, len(r.doc))
	for k, v := range r.doc {
		if k == "updatedAt" {
			continue
		}
		doc[k] = v
	}
	doc["updatedAt"] = docstore.ServerTimestamp()
	if err := r.store.Set(ctx, household.ColItems, catalog.Slug(r.Name), doc, true); err != nil {
		return fmt.Errorf("failed to restore item %q: %w", r.Name, err)
	}
	return nil
}

// DeleteItem removes an item outright, returning its prior document for the
// undo window. Returns nil for an unknown item.
func (p *Projector) DeleteItem(ctx context.Context, name string) (*RemovedItem, error) {
	id := catalog.Slug(name)
	doc, ok, err := p.store.Get(ctx, household.ColItems, id)
	if err != nil {
		return nil, fmt.Errorf("failed to read item %q: %w", name, err)
	}
	if !ok {
		return nil, nil
	}
	if err := p.store.Delete(ctx, household.ColItems, id); err != nil {
		return nil, fmt.Errorf("failed to delete item %q: %w", name, err)
	}
	return &RemovedItem{Name: name, store: p.store, doc: doc}, nil
}

// AdjustQuantity applies delta to an item's quantity. Decrementing at
// quantity ≤1 routes to a full delete-with-undo instead of leaving a zero
// row; the returned RemovedItem is non-nil exactly in that case.
func (p *Projector) AdjustQuantity(ctx context.Context, name string, delta float64) (*RemovedItem, error) {
	p.mu.Lock()
	current := 1.0
	if it, ok := p.items[name]; ok {
		current = it.quantity
	}
	p.mu.Unlock()

	if delta < 0 && current <= 1 {
		return p.DeleteItem(ctx, name)
	}
	err := p.store.Set(ctx, household.ColItems, catalog.Slug(name),
		docstore.Document{"count": docstore.Increment(delta)}, true)
	if err != nil {
		return nil, fmt.Errorf("failed to adjust quantity of %q: %w", name, err)
	}
	return nil, nil
}

// ActivateMeal adds every item of the meal's recipe in one batch, each with
// the meal name as origin, then records the meal as active.
func (p *Projector) ActivateMeal(ctx context.Context, name string) error {
	items, ok := p.MealItems(name)
	if !ok {
		return fmt.Errorf("unknown meal %q", name)
	}

	batch := &docstore.Batch{}
	for _, item := range items {
		batch.Set(household.ColItems, catalog.Slug(item), docstore.Document{
			"name":      item,
			"section":   catalog.InferSection(item),
			"count":     docstore.Increment(1),
			"origins":   docstore.ArrayUnion(name),
			"updatedAt": docstore.ServerTimestamp(),
		}, true)
	}
	if err := p.store.Commit(ctx, batch); err != nil {
		return fmt.Errorf("failed to activate meal %q: %w", name, err)
	}

	p.mu.Lock()
	p.activeMeals[name] = struct{}{}
	active := setToSorted(p.activeMeals)
	p.mu.Unlock()
	return p.saveMealState(ctx, active)
}

// DeactivateMeal removes the meal's origin from each of its items in one
// transaction, deleting items whose origin set empties. All-or-nothing: a
// failure leaves every item untouched.
func (p *Projector) DeactivateMeal(ctx context.Context, name string) error {
	items, ok := p.MealItems(name)
	if !ok {
		return fmt.Errorf("unknown meal %q", name)
	}

	err := p.store.RunTransaction(ctx, func(tx docstore.Tx) error {
		for _, item := range items {
			id := catalog.Slug(item)
			doc, exists, err := tx.Get(household.ColItems, id)
			if err != nil {
				return err
			}
			if !exists {
				continue
			}
			var next []any
			for _, o := range docStrings(doc, "origins") {
				if o != name {
					next = append(next, o)
				}
			}
			if len(next) == 0 {
				tx.Delete(household.ColItems, id)
			} else {
				tx.Set(household.ColItems, id, docstore.Document{"origins": next}, true)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to deactivate meal %q: %w", name, err)
	}

	p.mu.Lock()
	delete(p.activeMeals, name)
	active := setToSorted(p.activeMeals)
	p.mu.Unlock()
	return p.saveMealState(ctx, active)
}

// ClearSnapshot retains the state removed by ClearList for one undo.
type ClearSnapshot struct {
	store docstore.Store
	items []docstore.Snapshot
	meals []string
}

// Empty reports whether the clear removed anything.
func (c *ClearSnapshot) Empty() bool { return len(c.items) == 0 }

// Restore writes every deleted item back and reinstates the active meals.
func (c *ClearSnapshot) Restore(ctx context.Context) error {
	batch := &docstore.Batch{}
	for _, snap := range c.items {
		doc := make(docstore.Document, len(snap.Data))
		for k, v := range snap.Data {
			if k == "updatedAt" {
				continue
			}
			doc[k] = v
		}
		batch.Set(household.ColItems, snap.ID, doc, true)
	}
	if err := c.store.Commit(ctx, batch); err != nil {
		return fmt.Errorf("failed to restore cleared items: %w", err)
	}
	err := c.store.Set(ctx, household.ColMeta, household.DocUIState,
		docstore.Document{"activeMeals": anyList(c.meals)}, true)
	if err != nil {
		return fmt.Errorf("failed to restore active meals: %w", err)
	}
	return nil
}

// ClearList deletes every item and empties the active-meal set, returning a
// snapshot that can restore both.
func (p *Projector) ClearList(ctx context.Context) (*ClearSnapshot, error) {
	items, err := p.store.GetAll(ctx, household.ColItems)
	if err != nil {
		return nil, fmt.Errorf("failed to read items: %w", err)
	}

	p.mu.Lock()
	prevMeals := setToSorted(p.activeMeals)
	// Emptying the list makes it vacuously complete; that must not read as a
	// cooking milestone, so drop local meal state before the delete lands.
	p.activeMeals = make(map[string]struct{})
	p.wasComplete = true
	p.mu.Unlock()

	batch := &docstore.Batch{}
	for _, snap := range items {
		batch.Delete(household.ColItems, snap.ID)
	}
	if err := p.store.Commit(ctx, batch); err != nil {
		return nil, fmt.Errorf("failed to clear list: %w", err)
	}
	if err := p.saveMealState(ctx, nil); err != nil {
		return nil, err
	}
	return &ClearSnapshot{store: p.store, items: items, meals: prevMeals}, nil
}

func (p *Projector) saveMealState(ctx context.Context, active []string) error {
	err := p.store.Set(ctx, household.ColMeta, household.DocUIState,
		docstore.Document{"activeMeals": anyList(active)}, true)
	if err != nil {
		return fmt.Errorf("failed to save meal state: %w", err)
	}
	return nil
}

func anyList(names []string) []any {
	out := make([]any, len(names))
	for i, n := range names {
		out[i] = n
	}
	return out
}

func logf(format string, args ...any) {
	log.Printf(format, args...)
}
