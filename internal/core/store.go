package core

// Store is the authoritative in-memory queue of print requests. Insertion
// order is display order; a queue-number index keeps lookup and removal off
// the linear path. The store is not safe for concurrent use on its own —
// every mutation goes through the engine.
type Store struct {
	seq      int64
	requests []*PrintRequest
	byNumber map[int64]*PrintRequest
}

func NewStore() *Store {
	return &Store{
		byNumber: make(map[int64]*PrintRequest),
	}
}

// PeekNext returns the queue number the next admission will receive without
// consuming it. Numbers are only consumed once admission is certain to
// succeed, so the sequence stays gapless.
func (s *Store) PeekNext() int64 {
	return s.seq + 1
}

func (s *Store) NextNumber() int64 {
	s.seq++
	return s.seq
}

func (s *Store) Add(r *PrintRequest) {
	s.requests = append(s.requests, r)
	s.byNumber[r.QueueNumber] = r
}

func (s *Store) Get(queueNumber int64) (*PrintRequest, bool) {
	r, ok := s.byNumber[queueNumber]
	return r, ok
}

// Remove deletes the request from the store. Removal is the terminal action
// for both completion and cancellation.
func (s *Store) Remove(queueNumber int64) (*PrintRequest, bool) {
	r, ok := s.byNumber[queueNumber]
	if !ok {
		return nil, false
	}
	delete(s.byNumber, queueNumber)
	for i, candidate := range s.requests {
		if candidate.QueueNumber == queueNumber {
			s.requests = append(s.requests[:i], s.requests[i+1:]...)
			break
		}
	}
	return r, true
}

// Snapshot returns value copies of every request in admission order, safe to
// hand to other goroutines for serialization.
func (s *Store) Snapshot() []PrintRequest {
	out := make([]PrintRequest, len(s.requests))
	for i, r := range s.requests {
		out[i] = *r
	}
	return out
}

func (s *Store) Len() int {
	return len(s.requests)
}

func (s *Store) Stats() QueueStats {
	stats := QueueStats{Total: len(s.requests)}
	for _, r := range s.requests {
		switch r.State {
		case StatePending:
			stats.Pending++
		case StateConfirmed:
			stats.Confirmed++
		case StatePrinting:
			stats.Printing++
		}
	}
	return stats
}
