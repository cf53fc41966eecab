package docstore

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemStore is an in-memory Store with the same merge semantics as the SQLite
// implementation. It backs tests and is handy for throwaway sessions.
type MemStore struct {
	mu   sync.Mutex
	data map[string]map[string]Document
	subs *subscribers
	now  func() time.Time
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		data: make(map[string]map[string]Document),
		subs: newSubscribers(),
		now:  time.Now,
	}
}

// Get returns a copy of one document.
func (m *MemStore) Get(_ context.Context, collection, id string) (Document, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.data[collection][id]
	if !ok {
		return nil, false, nil
	}
	return cloneDocument(doc), true, nil
}

// GetAll returns a snapshot of the collection ordered by document id.
func (m *MemStore) GetAll(_ context.Context, collection string) ([]Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked(collection), nil
}

// Set upserts one document and notifies the collection's subscribers.
func (m *MemStore) Set(_ context.Context, collection, id string, fields Document, merge bool) error {
	m.mu.Lock()
	m.applyLocked(write{collection: collection, id: id, fields: fields, merge: merge})
	snaps := m.snapshotLocked(collection)
	m.mu.Unlock()

	m.subs.notify(collection, snaps)
	return nil
}

// Delete removes one document and notifies subscribers. Deleting a missing
// document is a no-op.
func (m *MemStore) Delete(_ context.Context, collection, id string) error {
	m.mu.Lock()
	m.applyLocked(write{collection: collection, id: id, delete: true})
	snaps := m.snapshotLocked(collection)
	m.mu.Unlock()

	m.subs.notify(collection, snaps)
	return nil
}

// Commit applies a batch atomically; each touched collection is notified once.
func (m *MemStore) Commit(_ context.Context, batch *Batch) error {
	m.mu.Lock()
	touched := make(map[string]bool)
	for _, w := range batch.writes {
		m.applyLocked(w)
		touched[w.collection] = true
	}
	snapsByCol := make(map[string][]Snapshot, len(touched))
	for col := range touched {
		snapsByCol[col] = m.snapshotLocked(col)
	}
	m.mu.Unlock()

	for col, snaps := range snapsByCol {
		m.subs.notify(col, snaps)
	}
	return nil
}

// RunTransaction runs fn against a staged view of the store and applies its
// writes atomically if it returns nil.
func (m *MemStore) RunTransaction(_ context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	tx := &memTx{store: m}
	if err := fn(tx); err != nil {
		m.mu.Unlock()
		return err
	}
	touched := make(map[string]bool)
	for _, w := range tx.writes {
		m.applyLocked(w)
		touched[w.collection] = true
	}
	snapsByCol := make(map[string][]Snapshot, len(touched))
	for col := range touched {
		snapsByCol[col] = m.snapshotLocked(col)
	}
	m.mu.Unlock()

	for col, snaps := range snapsByCol {
		m.subs.notify(col, snaps)
	}
	return nil
}

// Subscribe registers a handler for full-collection snapshots. The handler
// fires once immediately with the current state, then on every change.
func (m *MemStore) Subscribe(collection string, handler func([]Snapshot)) func() {
	unsub := m.subs.add(collection, handler)
	m.mu.Lock()
	snaps := m.snapshotLocked(collection)
	m.mu.Unlock()
	handler(snaps)
	return unsub
}

func (m *MemStore) applyLocked(w write) {
	col := m.data[w.collection]
	if w.delete {
		delete(col, w.id)
		return
	}
	if col == nil {
		col = make(map[string]Document)
		m.data[w.collection] = col
	}
	col[w.id] = applyFields(col[w.id], w.fields, w.merge, m.now())
}

func (m *MemStore) snapshotLocked(collection string) []Snapshot {
	col := m.data[collection]
	snaps := make([]Snapshot, 0, len(col))
	for id, doc := range col {
		snaps = append(snaps, Snapshot{ID: id, Data: cloneDocument(doc)})
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].ID < snaps[j].ID })
	return snaps
}

// memTx stages writes and serves reads from committed state overlaid with
// earlier staged writes in the same transaction.
type memTx struct {
	store  *MemStore
	writes []write
}

func (t *memTx) Get(collection, id string) (Document, bool, error) {
	doc, ok := t.store.data[collection][id]
	var cur Document
	if ok {
		cur = cloneDocument(doc)
	}
	exists := ok
	for _, w := range t.writes {
		if w.collection != collection || w.id != id {
			continue
		}
		if w.delete {
			cur, exists = nil, false
			continue
		}
		cur = applyFields(cur, w.fields, w.merge, t.store.now())
		exists = true
	}
	return cur, exists, nil
}

func (t *memTx) Set(collection, id string, fields Document, merge bool) {
	t.writes = append(t.writes, write{collection: collection, id: id, fields: fields, merge: merge})
}

func (t *memTx) Delete(collection, id string) {
	t.writes = append(t.writes, write{collection: collection, id: id, delete: true})
}
