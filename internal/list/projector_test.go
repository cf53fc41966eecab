package list

import (
	"context"
	"testing"

	"grocify/internal/docstore"
	"grocify/internal/household"
)

func newTestProjector(t *testing.T, opts ...Option) (*Projector, *docstore.MemStore) {
	t.Helper()
	store := docstore.NewMemStore()
	p := NewProjector(store, opts...)
	p.Start()
	t.Cleanup(p.Stop)
	return p, store
}

func findItem(view View, name string) (ItemEntry, bool) {
	for _, sec := range view.Sections {
		for _, item := range sec.Items {
			if item.Name == name {
				return item, true
			}
		}
	}
	return ItemEntry{}, false
}

func TestAddDraftCreatesItem(t *testing.T) {
	p, _ := newTestProjector(t)
	ctx := context.Background()

	qty, err := p.AddDraft(ctx, ParseDraft("2x melk"))
	if err != nil {
		t.Fatalf("AddDraft failed: %v", err)
	}
	if qty != 2 {
		t.Errorf("Expected applied quantity 2, got %g", qty)
	}

	item, ok := findItem(p.View(), "melk")
	if !ok {
		t.Fatal("Expected 'melk' on the list")
	}
	if item.Quantity != 2 || item.Checked {
		t.Errorf("Unexpected item state: %+v", item)
	}
	if len(item.Origins) != 1 || item.Origins[0] != ManualSource {
		t.Errorf("Expected manual origin, got %v", item.Origins)
	}
}

func TestAddItemAccumulates(t *testing.T) {
	p, _ := newTestProjector(t)
	ctx := context.Background()

	if err := p.AddItem(ctx, "Melk", "Zuivel", "Pizza", 1, ""); err != nil {
		t.Fatal(err)
	}
	if err := p.AddItem(ctx, "Melk", "Zuivel", ManualSource, 1, ""); err != nil {
		t.Fatal(err)
	}

	item, ok := findItem(p.View(), "Melk")
	if !ok {
		t.Fatal("Expected 'Melk' on the list")
	}
	if item.Quantity != 2 {
		t.Errorf("Expected quantity 2, got %g", item.Quantity)
	}
	if len(item.Origins) != 2 {
		t.Errorf("Expected two origins, got %v", item.Origins)
	}
}

func TestRemoveSource(t *testing.T) {
	p, _ := newTestProjector(t)
	ctx := context.Background()

	p.AddItem(ctx, "Melk", "Zuivel", "Pizza", 1, "")
	p.AddItem(ctx, "Melk", "Zuivel", ManualSource, 1, "")

	if err := p.RemoveSource(ctx, "Melk", "Pizza"); err != nil {
		t.Fatal(err)
	}
	item, ok := findItem(p.View(), "Melk")
	if !ok {
		t.Fatal("Item must survive while another origin remains")
	}
	// Quantity is untouched; only the origin tag goes.
	if item.Quantity != 2 {
		t.Errorf("Expected quantity 2, got %g", item.Quantity)
	}
	if len(item.Origins) != 1 || item.Origins[0] != ManualSource {
		t.Errorf("Expected only the manual origin, got %v", item.Origins)
	}

	if err := p.RemoveSource(ctx, "Melk", ManualSource); err != nil {
		t.Fatal(err)
	}
	if _, ok := findItem(p.View(), "Melk"); ok {
		t.Error("Item must be deleted when the last origin goes")
	}
}

func TestUndoAddDeletesDespiteOtherOrigins(t *testing.T) {
	p, store := newTestProjector(t)
	ctx := context.Background()

	p.AddItem(ctx, "Melk", "Zuivel", "Pizza", 1, "")
	p.AddItem(ctx, "Melk", "Zuivel", ManualSource, 1, "")

	// Undoing a quantity that drains the count removes the document outright,
	// even though the Pizza origin still references it.
	if err := p.UndoAdd(ctx, "Melk", 2, ManualSource); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := store.Get(ctx, household.ColItems, "melk"); ok {
		t.Error("Expected the document to be deleted")
	}
}

func TestUndoAddDecrementsWhenCountRemains(t *testing.T) {
	p, _ := newTestProjector(t)
	ctx := context.Background()

	p.AddItem(ctx, "Melk", "Zuivel", "Pizza", 2, "")
	p.AddItem(ctx, "Melk", "Zuivel", ManualSource, 1, "")

	if err := p.UndoAdd(ctx, "Melk", 1, ManualSource); err != nil {
		t.Fatal(err)
	}
	item, ok := findItem(p.View(), "Melk")
	if !ok {
		t.Fatal("Expected the item to survive")
	}
	if item.Quantity != 2 {
		t.Errorf("Expected quantity 2, got %g", item.Quantity)
	}
	if len(item.Origins) != 1 || item.Origins[0] != "Pizza" {
		t.Errorf("Expected the manual origin dropped, got %v", item.Origins)
	}
}

func TestActivateMealCountsDuplicateEntries(t *testing.T) {
	p, _ := newTestProjector(t, WithBuiltins(map[string][]string{
		"Pizza": {"Paprika", "Paprika", "Pizzadeeg"},
	}))
	ctx := context.Background()

	if err := p.ActivateMeal(ctx, "Pizza"); err != nil {
		t.Fatal(err)
	}
	if !p.IsMealActive("Pizza") {
		t.Error("Expected Pizza to be active")
	}

	paprika, ok := findItem(p.View(), "Paprika")
	if !ok {
		t.Fatal("Expected 'Paprika' on the list")
	}
	if paprika.Quantity != 2 {
		t.Errorf("Duplicate recipe entry must count twice, got %g", paprika.Quantity)
	}
	if paprika.Section != "Groente & Fruit" {
		t.Errorf("Expected inferred section, got %q", paprika.Section)
	}
}

func TestActivateUnknownMeal(t *testing.T) {
	p, _ := newTestProjector(t, WithBuiltins(map[string][]string{}))
	if err := p.ActivateMeal(context.Background(), "Niets"); err == nil {
		t.Fatal("Expected an error for an unknown meal")
	}
}

func TestDeactivateMealKeepsSharedItems(t *testing.T) {
	p, _ := newTestProjector(t, WithBuiltins(map[string][]string{
		"Pizza": {"Paprika", "Paprika", "Pizzadeeg"},
	}))
	ctx := context.Background()

	p.AddItem(ctx, "Paprika", "Groente & Fruit", ManualSource, 1, "")
	if err := p.ActivateMeal(ctx, "Pizza"); err != nil {
		t.Fatal(err)
	}
	if err := p.DeactivateMeal(ctx, "Pizza"); err != nil {
		t.Fatal(err)
	}

	if p.IsMealActive("Pizza") {
		t.Error("Expected Pizza to be inactive")
	}
	// Shared item keeps its quantity; only the meal's origin tag goes.
	paprika, ok := findItem(p.View(), "Paprika")
	if !ok {
		t.Fatal("Expected 'Paprika' to survive via its manual origin")
	}
	if len(paprika.Origins) != 1 || paprika.Origins[0] != ManualSource {
		t.Errorf("Expected only the manual origin, got %v", paprika.Origins)
	}
	// Item owned solely by the meal disappears.
	if _, ok := findItem(p.View(), "Pizzadeeg"); ok {
		t.Error("Expected 'Pizzadeeg' to be deleted with its last origin")
	}
}

func TestCompletionEdgeMarksMealsReadyOnce(t *testing.T) {
	p, _ := newTestProjector(t, WithBuiltins(map[string][]string{
		"Pizza": {"Melk", "Brood"},
	}))
	ctx := context.Background()

	if err := p.ActivateMeal(ctx, "Pizza"); err != nil {
		t.Fatal(err)
	}
	if view := p.View(); view.Complete {
		t.Fatal("List with unchecked items must not be complete")
	}

	p.ToggleChecked(ctx, "Melk", true)
	if view := p.View(); len(view.ReadyMeals) != 0 {
		t.Fatal("Partially checked list must not mark meals ready")
	}

	p.ToggleChecked(ctx, "Brood", true)
	view := p.View()
	if !view.Complete {
		t.Fatal("Expected the list to be complete")
	}
	if len(view.ReadyMeals) != 1 || view.ReadyMeals[0] != "Pizza" {
		t.Fatalf("Expected Pizza ready, got %v", view.ReadyMeals)
	}
	if len(view.ActiveMeals) != 0 {
		t.Errorf("Ready meals must leave the active set, got %v", view.ActiveMeals)
	}

	// A later false→true transition with no active meals changes nothing.
	p.ToggleChecked(ctx, "Melk", false)
	p.ToggleChecked(ctx, "Melk", true)
	view = p.View()
	if len(view.ReadyMeals) != 1 || view.ReadyMeals[0] != "Pizza" {
		t.Errorf("Ready meals must be stable across re-completion, got %v", view.ReadyMeals)
	}
}

func TestCustomRecipeOverridesBuiltin(t *testing.T) {
	p, store := newTestProjector(t, WithBuiltins(map[string][]string{
		"Pizza": {"Pizzadeeg"},
	}))
	ctx := context.Background()

	err := store.Set(ctx, household.ColRecipes, "pizza", docstore.Document{
		"name":  "Pizza",
		"items": []any{"Tofu", "Broccoli"},
	}, true)
	if err != nil {
		t.Fatal(err)
	}

	items, ok := p.MealItems("Pizza")
	if !ok {
		t.Fatal("Expected Pizza to be known")
	}
	if len(items) != 2 || items[0] != "Tofu" {
		t.Errorf("Custom recipe must shadow the built-in, got %v", items)
	}
}

func TestKnownItemsFeedSuggestions(t *testing.T) {
	p, _ := newTestProjector(t, WithBuiltins(map[string][]string{
		"Smoothie": {"Mangoblokjes"},
	}))
	ctx := context.Background()
	p.AddItem(ctx, "Mandarijnen", "Groente & Fruit", ManualSource, 1, "")

	got := p.Suggest("man", 8)
	if len(got) != 2 {
		t.Fatalf("Expected recipe item and live item in the pool, got %v", got)
	}
}

func TestAdjustQuantity(t *testing.T) {
	p, _ := newTestProjector(t)
	ctx := context.Background()

	p.AddItem(ctx, "Melk", "Zuivel", ManualSource, 1, "")

	removed, err := p.AdjustQuantity(ctx, "Melk", 2)
	if err != nil {
		t.Fatal(err)
	}
	if removed != nil {
		t.Fatal("Incrementing must not remove the item")
	}
	if item, _ := findItem(p.View(), "Melk"); item.Quantity != 3 {
		t.Errorf("Expected quantity 3, got %g", item.Quantity)
	}

	p.AdjustQuantity(ctx, "Melk", -1)
	p.AdjustQuantity(ctx, "Melk", -1)
	// At quantity 1 a decrement deletes instead of going to zero.
	removed, err = p.AdjustQuantity(ctx, "Melk", -1)
	if err != nil {
		t.Fatal(err)
	}
	if removed == nil {
		t.Fatal("Expected a delete-with-undo at quantity 1")
	}
	if _, ok := findItem(p.View(), "Melk"); ok {
		t.Error("Expected the item to be gone")
	}

	if err := removed.Restore(ctx); err != nil {
		t.Fatal(err)
	}
	if item, ok := findItem(p.View(), "Melk"); !ok || item.Quantity != 1 {
		t.Errorf("Expected the restored item at quantity 1, got %+v", item)
	}
}

func TestClearListAndRestore(t *testing.T) {
	p, _ := newTestProjector(t, WithBuiltins(map[string][]string{
		"Pizza": {"Pizzadeeg"},
	}))
	ctx := context.Background()

	p.AddItem(ctx, "Melk", "Zuivel", ManualSource, 2, "")
	if err := p.ActivateMeal(ctx, "Pizza"); err != nil {
		t.Fatal(err)
	}

	snap, err := p.ClearList(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Empty() {
		t.Fatal("Expected the snapshot to hold the cleared items")
	}

	view := p.View()
	if len(view.Sections) != 0 {
		t.Errorf("Expected an empty list, got %+v", view.Sections)
	}
	if len(view.ActiveMeals) != 0 {
		t.Errorf("Expected no active meals, got %v", view.ActiveMeals)
	}
	// Emptying the list completes it vacuously; that must not promote the
	// cleared meals to ready.
	if len(view.ReadyMeals) != 0 {
		t.Errorf("Clearing must not mark meals ready, got %v", view.ReadyMeals)
	}

	if err := snap.Restore(ctx); err != nil {
		t.Fatal(err)
	}
	view = p.View()
	if _, ok := findItem(view, "Melk"); !ok {
		t.Error("Expected 'Melk' restored")
	}
	if _, ok := findItem(view, "Pizzadeeg"); !ok {
		t.Error("Expected 'Pizzadeeg' restored")
	}
	if len(view.ActiveMeals) != 1 || view.ActiveMeals[0] != "Pizza" {
		t.Errorf("Expected Pizza active again, got %v", view.ActiveMeals)
	}
}

func TestClearEmptyList(t *testing.T) {
	p, _ := newTestProjector(t)
	snap, err := p.ClearList(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !snap.Empty() {
		t.Error("Clearing an empty list must yield an empty snapshot")
	}
}

func TestViewSectionOrdering(t *testing.T) {
	orderCalls := 0
	p, _ := newTestProjector(t, WithSectionOrder(func() []string {
		orderCalls++
		return []string{"Zuivel", "Brood"}
	}))
	ctx := context.Background()

	p.AddItem(ctx, "Brood", "Brood", ManualSource, 1, "")
	p.AddItem(ctx, "Melk", "Zuivel", ManualSource, 1, "")
	p.AddItem(ctx, "Paprika", "Groente & Fruit", ManualSource, 1, "")

	view := p.View()
	if orderCalls == 0 {
		t.Fatal("Expected the order provider to be consulted")
	}
	var got []string
	for _, sec := range view.Sections {
		got = append(got, sec.Section)
	}
	// Ordered sections first, unknown ones after.
	want := []string{"Zuivel", "Brood", "Groente & Fruit"}
	if len(got) != len(want) {
		t.Fatalf("Expected sections %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Expected sections %v, got %v", want, got)
		}
	}
}
