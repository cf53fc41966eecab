package docstore

import "sync"

// subscribers fans collection snapshots out to registered handlers. Handlers
// are invoked outside any store lock, so they are free to issue new writes.
type subscribers struct {
	mu   sync.Mutex
	next int
	subs map[string]map[int]func([]Snapshot)
}

func newSubscribers() *subscribers {
	return &subscribers{subs: make(map[string]map[int]func([]Snapshot))}
}

func (s *subscribers) add(collection string, handler func([]Snapshot)) func() {
	s.mu.Lock()
	id := s.next
	s.next++
	if s.subs[collection] == nil {
		s.subs[collection] = make(map[int]func([]Snapshot))
	}
	s.subs[collection][id] = handler
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs[collection], id)
		s.mu.Unlock()
	}
}

func (s *subscribers) notify(collection string, snaps []Snapshot) {
	s.mu.Lock()
	handlers := make([]func([]Snapshot), 0, len(s.subs[collection]))
	for _, h := range s.subs[collection] {
		handlers = append(handlers, h)
	}
	s.mu.Unlock()

	for _, h := range handlers {
		h(snaps)
	}
}
