package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// SQLiteStore is the durable Store implementation. Documents are stored as
// JSON rows keyed by (collection, id); merge resolution happens in Go inside
// a database transaction so concurrent writers serialize per write.
type SQLiteStore struct {
	db   *sql.DB
	subs *subscribers
	now  func() time.Time
}

// NewSQLiteStore wraps an opened database (schema managed by the database
// package's migrations).
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, subs: newSubscribers(), now: time.Now}
}

// Get reads one document.
func (s *SQLiteStore) Get(ctx context.Context, collection, id string) (Document, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND id = ?`, collection, id,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read document %s/%s: %w", collection, id, err)
	}
	doc, err := decodeDocument(raw)
	if err != nil {
		return nil, false, err
	}
	return doc, true, nil
}

// GetAll reads a full collection ordered by document id.
func (s *SQLiteStore) GetAll(ctx context.Context, collection string) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, data FROM documents WHERE collection = ? ORDER BY id`, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to list collection %s: %w", collection, err)
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan document row: %w", err)
		}
		doc, err := decodeDocument(raw)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, Snapshot{ID: id, Data: doc})
	}
	return snaps, rows.Err()
}

// Set upserts one document and notifies the collection's subscribers.
func (s *SQLiteStore) Set(ctx context.Context, collection, id string, fields Document, merge bool) error {
	b := &Batch{}
	b.Set(collection, id, fields, merge)
	return s.Commit(ctx, b)
}

// Delete removes one document. Deleting a missing document is a no-op.
func (s *SQLiteStore) Delete(ctx context.Context, collection, id string) error {
	b := &Batch{}
	b.Delete(collection, id)
	return s.Commit(ctx, b)
}

// Commit applies a batch in one database transaction, then notifies every
// touched collection once.
func (s *SQLiteStore) Commit(ctx context.Context, batch *Batch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin batch: %w", err)
	}
	touched := make(map[string]bool)
	for _, w := range batch.writes {
		if err := s.applyTx(ctx, tx, w); err != nil {
			tx.Rollback()
			return err
		}
		touched[w.collection] = true
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}

	s.notifyCollections(ctx, touched)
	return nil
}

// RunTransaction executes fn against a staged view and commits its writes
// atomically if it returns nil.
func (s *SQLiteStore) RunTransaction(ctx context.Context, fn func(tx Tx) error) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	stx := &sqliteTx{ctx: ctx, store: s, tx: dbTx}
	if err := fn(stx); err != nil {
		dbTx.Rollback()
		return err
	}
	touched := make(map[string]bool)
	for _, w := range stx.writes {
		if err := s.applyTx(ctx, dbTx, w); err != nil {
			dbTx.Rollback()
			return err
		}
		touched[w.collection] = true
	}
	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.notifyCollections(ctx, touched)
	return nil
}

// Subscribe registers a snapshot handler for a collection. The handler fires
// once with the current state, then after every committed change.
func (s *SQLiteStore) Subscribe(collection string, handler func([]Snapshot)) func() {
	unsub := s.subs.add(collection, handler)
	if snaps, err := s.GetAll(context.Background(), collection); err == nil {
		handler(snaps)
	}
	return unsub
}

func (s *SQLiteStore) applyTx(ctx context.Context, tx *sql.Tx, w write) error {
	if w.delete {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM documents WHERE collection = ? AND id = ?`, w.collection, w.id); err != nil {
			return fmt.Errorf("failed to delete document %s/%s: %w", w.collection, w.id, err)
		}
		return nil
	}

	var base Document
	var raw string
	err := tx.QueryRowContext(ctx,
		`SELECT data FROM documents WHERE collection = ? AND id = ?`, w.collection, w.id,
	).Scan(&raw)
	switch {
	case err == sql.ErrNoRows:
		// First write for this id.
	case err != nil:
		return fmt.Errorf("failed to read document %s/%s: %w", w.collection, w.id, err)
	default:
		if base, err = decodeDocument(raw); err != nil {
			return err
		}
	}

	next := applyFields(base, w.fields, w.merge, s.now())
	encoded, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("failed to encode document %s/%s: %w", w.collection, w.id, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO documents (collection, id, data, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (collection, id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		w.collection, w.id, string(encoded), s.now().UTC()); err != nil {
		return fmt.Errorf("failed to write document %s/%s: %w", w.collection, w.id, err)
	}
	return nil
}

func (s *SQLiteStore) notifyCollections(ctx context.Context, touched map[string]bool) {
	for col := range touched {
		snaps, err := s.GetAll(ctx, col)
		if err != nil {
			// Subscribers reconcile on the next successful snapshot.
			continue
		}
		s.subs.notify(col, snaps)
	}
}

func decodeDocument(raw string) (Document, error) {
	var doc Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document JSON: %w", err)
	}
	return doc, nil
}

// sqliteTx stages writes; reads see committed state overlaid with writes
// staged earlier in the same transaction.
type sqliteTx struct {
	ctx    context.Context
	store  *SQLiteStore
	tx     *sql.Tx
	writes []write
}

func (t *sqliteTx) Get(collection, id string) (Document, bool, error) {
	var cur Document
	exists := false

	var raw string
	err := t.tx.QueryRowContext(t.ctx,
		`SELECT data FROM documents WHERE collection = ? AND id = ?`, collection, id,
	).Scan(&raw)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return nil, false, fmt.Errorf("failed to read document %s/%s: %w", collection, id, err)
	default:
		if cur, err = decodeDocument(raw); err != nil {
			return nil, false, err
		}
		exists = true
	}

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

func (t *sqliteTx) Set(collection, id string, fields Document, merge bool) {
	t.writes = append(t.writes, write{collection: collection, id: id, fields: fields, merge: merge})
}

func (t *sqliteTx) Delete(collection, id string) {
	t.writes = append(t.writes, write{collection: collection, id: id, delete: true})
}
