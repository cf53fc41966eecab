package docstore

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMergeSentinels(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	t.Run("increment on missing field starts at zero", func(t *testing.T) {
		store.Set(ctx, "c", "doc", Document{"count": Increment(2)}, true)
		store.Set(ctx, "c", "doc", Document{"count": Increment(3)}, true)
		doc, _, _ := store.Get(ctx, "c", "doc")
		if doc["count"].(float64) != 5 {
			t.Errorf("Expected 5, got %v", doc["count"])
		}
	})

	t.Run("array union skips duplicates", func(t *testing.T) {
		store.Set(ctx, "c", "doc", Document{"tags": ArrayUnion("a", "b")}, true)
		store.Set(ctx, "c", "doc", Document{"tags": ArrayUnion("b", "c")}, true)
		doc, _, _ := store.Get(ctx, "c", "doc")
		tags := doc["tags"].([]any)
		if len(tags) != 3 || tags[0] != "a" || tags[2] != "c" {
			t.Errorf("Expected [a b c], got %v", tags)
		}
	})

	t.Run("array remove drops every occurrence", func(t *testing.T) {
		store.Set(ctx, "c", "doc", Document{"tags": ArrayRemove("b")}, true)
		doc, _, _ := store.Get(ctx, "c", "doc")
		tags := doc["tags"].([]any)
		if len(tags) != 2 || tags[0] != "a" || tags[1] != "c" {
			t.Errorf("Expected [a c], got %v", tags)
		}
	})

	t.Run("delete field", func(t *testing.T) {
		store.Set(ctx, "c", "doc", Document{"tags": DeleteField()}, true)
		doc, _, _ := store.Get(ctx, "c", "doc")
		if _, ok := doc["tags"]; ok {
			t.Error("Expected 'tags' removed")
		}
	})

	t.Run("server timestamp is RFC3339", func(t *testing.T) {
		store.Set(ctx, "c", "doc", Document{"at": ServerTimestamp()}, true)
		doc, _, _ := store.Get(ctx, "c", "doc")
		if _, err := time.Parse(time.RFC3339Nano, doc["at"].(string)); err != nil {
			t.Errorf("Expected parseable timestamp, got %v: %v", doc["at"], err)
		}
	})

	t.Run("non-merge replaces the document", func(t *testing.T) {
		store.Set(ctx, "c", "doc", Document{"only": "this"}, false)
		doc, _, _ := store.Get(ctx, "c", "doc")
		if len(doc) != 1 || doc["only"] != "this" {
			t.Errorf("Expected a full replace, got %v", doc)
		}
	})
}

func TestGetMissing(t *testing.T) {
	store := NewMemStore()
	_, ok, err := store.Get(context.Background(), "c", "nope")
	if err != nil || ok {
		t.Errorf("Expected (nil, false, nil), got ok=%v err=%v", ok, err)
	}
}

func TestGetAllOrderedByID(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()
	store.Set(ctx, "c", "b", Document{"v": 1.0}, true)
	store.Set(ctx, "c", "a", Document{"v": 2.0}, true)

	snaps, err := store.GetAll(ctx, "c")
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 2 || snaps[0].ID != "a" || snaps[1].ID != "b" {
		t.Errorf("Expected id order, got %+v", snaps)
	}
}

func TestBatchNotifiesOncePerCollection(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	var calls int
	unsub := store.Subscribe("c", func([]Snapshot) { calls++ })
	defer unsub()
	if calls != 1 {
		t.Fatalf("Expected the immediate snapshot, got %d calls", calls)
	}

	batch := &Batch{}
	batch.Set("c", "a", Document{"v": 1.0}, true)
	batch.Set("c", "b", Document{"v": 2.0}, true)
	batch.Delete("c", "a")
	if err := store.Commit(ctx, batch); err != nil {
		t.Fatal(err)
	}

	if calls != 2 {
		t.Errorf("Expected one notification for the whole batch, got %d calls", calls)
	}
	snaps, _ := store.GetAll(ctx, "c")
	if len(snaps) != 1 || snaps[0].ID != "b" {
		t.Errorf("Expected only 'b' to remain, got %+v", snaps)
	}
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	store := NewMemStore()
	var calls int
	unsub := store.Subscribe("c", func([]Snapshot) { calls++ })
	unsub()
	store.Set(context.Background(), "c", "a", Document{"v": 1.0}, true)
	if calls != 1 {
		t.Errorf("Expected no calls after unsubscribe, got %d", calls)
	}
}

func TestRunTransactionReadsStagedWrites(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()
	store.Set(ctx, "c", "doc", Document{"count": 1.0}, true)

	err := store.RunTransaction(ctx, func(tx Tx) error {
		doc, ok, err := tx.Get("c", "doc")
		if err != nil || !ok {
			t.Fatalf("Expected the committed document, ok=%v err=%v", ok, err)
		}
		tx.Set("c", "doc", Document{"count": doc["count"].(float64) + 1}, true)

		// Reads observe the staged write.
		doc, _, _ = tx.Get("c", "doc")
		if doc["count"].(float64) != 2 {
			t.Fatalf("Expected staged count 2, got %v", doc["count"])
		}

		tx.Delete("c", "doc")
		if _, ok, _ := tx.Get("c", "doc"); ok {
			t.Fatal("Expected the staged delete to be visible")
		}
		tx.Set("c", "doc", Document{"count": 9.0}, true)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	doc, _, _ := store.Get(ctx, "c", "doc")
	if doc["count"].(float64) != 9 {
		t.Errorf("Expected the final staged state, got %v", doc["count"])
	}
}

func TestRunTransactionErrorDiscardsWrites(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()
	store.Set(ctx, "c", "doc", Document{"count": 1.0}, true)

	wantErr := errors.New("boom")
	err := store.RunTransaction(ctx, func(tx Tx) error {
		tx.Set("c", "doc", Document{"count": 99.0}, true)
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Expected the callback error, got %v", err)
	}

	doc, _, _ := store.Get(ctx, "c", "doc")
	if doc["count"].(float64) != 1 {
		t.Errorf("Expected the write discarded, got %v", doc["count"])
	}
}

func TestSubscriberCanWriteBack(t *testing.T) {
	store := NewMemStore()
	ctx := context.Background()

	// Handlers run outside the store lock, so a handler may issue writes to
	// another collection without deadlocking.
	done := false
	store.Subscribe("items", func(snaps []Snapshot) {
		if len(snaps) == 1 && !done {
			done = true
			store.Set(ctx, "meta", "state", Document{"seen": true}, true)
		}
	})
	store.Set(ctx, "items", "a", Document{"v": 1.0}, true)

	doc, ok, _ := store.Get(ctx, "meta", "state")
	if !ok || doc["seen"] != true {
		t.Error("Expected the handler's write to land")
	}
}
