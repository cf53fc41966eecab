package list

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"grocify/internal/catalog"
	"grocify/internal/docstore"
	"grocify/internal/household"
)

// ManualSource is the origin tag for items typed into the composer, as
// opposed to items contributed by activating a meal.
const ManualSource = "Eigen"

// ItemEntry is one row of the shopping list as exposed to the view layer.
type ItemEntry struct {
	Name     string
	Section  string
	Quantity float64
	Unit     string
	Origins  []string
	Checked  bool
}

// SectionGroup is one shelf section of the rendered list.
type SectionGroup struct {
	Section   string
	Items     []ItemEntry
	Unchecked int
	Total     int
}

// View is the plain-data snapshot handed to a renderer after every recompute.
type View struct {
	Sections    []SectionGroup
	Meals       map[string][]string
	KnownItems  []string
	ActiveMeals []string
	ReadyMeals  []string
	Complete    bool
}

// entry is the projector's mutable mirror of one item document.
type entry struct {
	name     string
	section  string
	quantity float64
	unit     string
	origins  map[string]struct{}
	checked  bool
}

// Projector owns the in-memory mirror of the shopping list, derived from the
// item, recipe and ui-state feeds plus the static built-in meal table. Local
// state is a cache: every feed event replaces the corresponding copy
// wholesale and the next upstream snapshot reconciles any drift after a
// failed write.
type Projector struct {
	store    docstore.Store
	builtins map[string][]string
	orderFn  func() []string

	mu          sync.Mutex
	items       map[string]*entry
	activeMeals map[string]struct{}
	readyMeals  map[string]struct{}
	customs     map[string][]string
	combined    map[string][]string
	known       []string
	wasComplete bool

	onChange func(View)
	unsubs   []func()
}

// Option configures a Projector.
type Option func(*Projector)

// WithSectionOrder injects the section-order provider (normally the stores
// service). Absent an override the canonical catalog order is used.
func WithSectionOrder(fn func() []string) Option {
	return func(p *Projector) { p.orderFn = fn }
}

// WithBuiltins overrides the built-in meal table (used by tests).
func WithBuiltins(meals map[string][]string) Option {
	return func(p *Projector) { p.builtins = meals }
}

// OnChange registers the render callback invoked after every recompute.
func OnChange(fn func(View)) Option {
	return func(p *Projector) { p.onChange = fn }
}

// NewProjector creates a Projector over the given store. Call Start for live
// subscriptions or Refresh for a one-shot load.
func NewProjector(store docstore.Store, opts ...Option) *Projector {
	p := &Projector{
		store:       store,
		builtins:    catalog.Builtins(),
		items:       make(map[string]*entry),
		activeMeals: make(map[string]struct{}),
		readyMeals:  make(map[string]struct{}),
		customs:     make(map[string][]string),
		// An empty list counts as complete; starting complete keeps process
		// startup from firing the ready-meals transition.
		wasComplete: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.recomputeLocked()
	return p
}

// Start subscribes to the three live feeds. The store delivers an initial
// snapshot per feed, so no separate priming read is needed.
func (p *Projector) Start() {
	p.unsubs = append(p.unsubs,
		p.store.Subscribe(household.ColItems, p.handleItems),
		p.store.Subscribe(household.ColRecipes, p.handleRecipes),
		p.store.Subscribe(household.ColMeta, p.handleMeta),
	)
}

// Stop tears down the feed subscriptions.
func (p *Projector) Stop() {
	for _, unsub := range p.unsubs {
		unsub()
	}
	p.unsubs = nil
}

// Refresh loads every feed once. Used by one-shot commands that don't keep a
// subscription open.
func (p *Projector) Refresh(ctx context.Context) error {
	items, err := p.store.GetAll(ctx, household.ColItems)
	if err != nil {
		return fmt.Errorf("failed to load items: %w", err)
	}
	recipes, err := p.store.GetAll(ctx, household.ColRecipes)
	if err != nil {
		return fmt.Errorf("failed to load recipes: %w", err)
	}
	meta, err := p.store.GetAll(ctx, household.ColMeta)
	if err != nil {
		return fmt.Errorf("failed to load ui state: %w", err)
	}
	p.handleItems(items)
	p.handleRecipes(recipes)
	p.handleMeta(meta)
	return nil
}

/* ---------- Feed handlers ---------- */

func (p *Projector) handleItems(snaps []docstore.Snapshot) {
	p.mu.Lock()
	p.items = make(map[string]*entry, len(snaps))
	for _, snap := range snaps {
		name := docString(snap.Data, "name")
		if name == "" {
			name = snap.ID
		}
		section := docString(snap.Data, "section")
		if section == "" {
			section = catalog.InferSection(name)
		}
		qty := docNumber(snap.Data, "count")
		if qty <= 0 {
			qty = 1
		}
		origins := make(map[string]struct{})
		for _, o := range docStrings(snap.Data, "origins") {
			origins[o] = struct{}{}
		}
		p.items[name] = &entry{
			name:     name,
			section:  section,
			quantity: qty,
			unit:     docString(snap.Data, "unit"),
			origins:  origins,
			checked:  docBool(snap.Data, "checked"),
		}
	}
	p.finishRecompute()
}

func (p *Projector) handleRecipes(snaps []docstore.Snapshot) {
	p.mu.Lock()
	p.customs = make(map[string][]string, len(snaps))
	for _, snap := range snaps {
		name := docString(snap.Data, "name")
		if name == "" {
			continue
		}
		p.customs[name] = docStrings(snap.Data, "items")
	}
	p.finishRecompute()
}

func (p *Projector) handleMeta(snaps []docstore.Snapshot) {
	p.mu.Lock()
	for _, snap := range snaps {
		if snap.ID != household.DocUIState {
			continue
		}
		p.activeMeals = toSet(docStrings(snap.Data, "activeMeals"))
		p.readyMeals = toSet(docStrings(snap.Data, "readyMeals"))
	}
	p.finishRecompute()
}

/* ---------- Recompute ---------- */

// finishRecompute recomputes derived state, releases the lock, then runs any
// deferred effects (completion persist, render callback). Effects must not
// run under the lock: store writes can synchronously re-enter the handlers.
func (p *Projector) finishRecompute() {
	effects := p.recomputeLocked()
	view := p.viewLocked()
	onChange := p.onChange
	p.mu.Unlock()

	for _, effect := range effects {
		effect()
	}
	if onChange != nil {
		onChange(view)
	}
}

func (p *Projector) recomputeLocked() []func() {
	// Merged recipe table: customs override same-named built-ins.
	p.combined = make(map[string][]string, len(p.builtins)+len(p.customs))
	for name, items := range p.builtins {
		p.combined[name] = items
	}
	for name, items := range p.customs {
		p.combined[name] = items
	}

	// Known-item pool: catalog ∪ recipe items ∪ live items.
	pool := make(map[string]struct{})
	for name := range catalog.ItemToSection {
		pool[name] = struct{}{}
	}
	for _, items := range p.combined {
		for _, name := range items {
			pool[name] = struct{}{}
		}
	}
	for name := range p.items {
		pool[name] = struct{}{}
	}
	p.known = p.known[:0]
	for name := range pool {
		p.known = append(p.known, name)
	}
	sort.Strings(p.known)

	// Completion edge: only the false→true transition of "all checked" may
	// mark meals ready. Toggling while already complete must not re-fire.
	complete := p.uncheckedCountLocked() == 0
	var effects []func()
	if complete && !p.wasComplete && len(p.activeMeals) > 0 {
		ready := setToSorted(p.activeMeals)
		p.readyMeals = toSet(ready)
		p.activeMeals = make(map[string]struct{})
		store := p.store
		effects = append(effects, func() {
			err := store.Set(context.Background(), household.ColMeta, household.DocUIState, docstore.Document{
				"activeMeals": []any{},
				"readyMeals":  anyList(ready),
			}, true)
			if err != nil {
				// Next ui-state snapshot reconciles; nothing to roll back.
				logf("failed to persist ready meals: %v", err)
			}
		})
	}
	p.wasComplete = complete
	return effects
}

func (p *Projector) uncheckedCountLocked() int {
	n := 0
	for _, it := range p.items {
		if !it.checked {
			n++
		}
	}
	return n
}

/* ---------- Queries ---------- */

// View returns the current derived state as plain data.
func (p *Projector) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.viewLocked()
}

func (p *Projector) viewLocked() View {
	order := catalog.SectionOrder
	if p.orderFn != nil {
		order = p.orderFn()
	}

	bySection := make(map[string][]ItemEntry)
	for _, it := range p.items {
		bySection[it.section] = append(bySection[it.section], ItemEntry{
			Name:     it.name,
			Section:  it.section,
			Quantity: it.quantity,
			Unit:     it.unit,
			Origins:  setToSorted(it.origins),
			Checked:  it.checked,
		})
	}

	sections := make([]string, 0, len(bySection))
	seen := make(map[string]bool, len(order))
	for _, sec := range order {
		seen[sec] = true
		if _, ok := bySection[sec]; ok {
			sections = append(sections, sec)
		}
	}
	// Sections outside the active order (e.g. a store with a trimmed list)
	// still render, after the ordered ones.
	var extra []string
	for sec := range bySection {
		if !seen[sec] {
			extra = append(extra, sec)
		}
	}
	sort.Strings(extra)
	sections = append(sections, extra...)

	view := View{
		Meals:       make(map[string][]string, len(p.combined)),
		KnownItems:  append([]string(nil), p.known...),
		ActiveMeals: setToSorted(p.activeMeals),
		ReadyMeals:  setToSorted(p.readyMeals),
		Complete:    p.uncheckedCountLocked() == 0,
	}
	for name, items := range p.combined {
		view.Meals[name] = append([]string(nil), items...)
	}
	for _, sec := range sections {
		items := bySection[sec]
		sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
		unchecked := 0
		for _, it := range items {
			if !it.Checked {
				unchecked++
			}
		}
		view.Sections = append(view.Sections, SectionGroup{
			Section:   sec,
			Items:     items,
			Unchecked: unchecked,
			Total:     len(items),
		})
	}
	return view
}

// KnownItems returns the autocomplete pool.
func (p *Projector) KnownItems() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.known...)
}

// Suggest returns autocomplete suggestions for query against the known pool.
func (p *Projector) Suggest(query string, limit int) []string {
	return catalog.SuggestMatches(query, p.KnownItems(), limit)
}

// MealItems returns the merged item list for a meal name.
func (p *Projector) MealItems(name string) ([]string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	items, ok := p.combined[name]
	if !ok {
		return nil, false
	}
	return append([]string(nil), items...), true
}

// IsMealActive reports whether a meal is currently active.
func (p *Projector) IsMealActive(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.activeMeals[name]
	return ok
}

/* ---------- Decode helpers ---------- */

func docString(d docstore.Document, key string) string {
	s, _ := d[key].(string)
	return s
}

func docBool(d docstore.Document, key string) bool {
	b, _ := d[key].(bool)
	return b
}

func docNumber(d docstore.Document, key string) float64 {
	switch n := d[key].(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

func docStrings(d docstore.Document, key string) []string {
	arr, ok := d[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func toSet(names []string) map[string]struct{} {
	out := make(map[string]struct{}, len(names))
	for _, n := range names {
		out[n] = struct{}{}
	}
	return out
}

func setToSorted(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
