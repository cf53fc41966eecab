package docstore

import "context"

// Document is the schemaless field map stored per id. Values are restricted
// to JSON types: string, bool, float64, []any of those, and nested maps.
type Document map[string]any

// Snapshot is one document as delivered to readers and subscribers.
type Snapshot struct {
	ID   string
	Data Document
}

// Tx is the view offered inside RunTransaction. Reads observe the committed
// state plus writes staged earlier in the same transaction.
type Tx interface {
	Get(collection, id string) (Document, bool, error)
	Set(collection, id string, fields Document, merge bool)
	Delete(collection, id string)
}

// Store is the document database contract the rest of the application
// depends on: merge-writes with field sentinels, multi-document batches, a
// single-document read-modify-write transaction, and live collection
// subscriptions that deliver a full snapshot on every change.
type Store interface {
	Get(ctx context.Context, collection, id string) (Document, bool, error)
	GetAll(ctx context.Context, collection string) ([]Snapshot, error)
	Set(ctx context.Context, collection, id string, fields Document, merge bool) error
	Delete(ctx context.Context, collection, id string) error
	Commit(ctx context.Context, batch *Batch) error
	RunTransaction(ctx context.Context, fn func(tx Tx) error) error
	Subscribe(collection string, handler func([]Snapshot)) (unsubscribe func())
}

// Batch accumulates writes that are applied together. Subscribers see a
// single snapshot per touched collection after the batch lands.
type Batch struct {
	writes []write
}

type write struct {
	collection string
	id         string
	fields     Document
	merge      bool
	delete     bool
}

// Set stages an upsert.
func (b *Batch) Set(collection, id string, fields Document, merge bool) {
	b.writes = append(b.writes, write{collection: collection, id: id, fields: fields, merge: merge})
}

// Delete stages a document deletion.
func (b *Batch) Delete(collection, id string) {
	b.writes = append(b.writes, write{collection: collection, id: id, delete: true})
}

// Len reports the number of staged writes.
func (b *Batch) Len() int { return len(b.writes) }
