package engine

import (
	"sort"
	"sync"
	"time"
)

// entry pairs a data point with the insertion sequence number assigned
// inside the append critical section. The sequence breaks ties between
// points carrying the same timestamp, giving retrieval a stable total
// order regardless of producer interleaving.
type entry struct {
	point DataPoint
	seq   uint64
}

// memoryStore is the append-only data point collection. A single mutex
// guards append plus sequence assignment; readers get a snapshot copy,
// never a view into the live slice.
type memoryStore struct {
	mu      sync.Mutex
	entries []entry
	nextSeq uint64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{}
}

func (s *memoryStore) append(p DataPoint) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	seq := s.nextSeq
	s.nextSeq++
	s.entries = append(s.entries, entry{point: p, seq: seq})

	return seq
}

// snapshot returns the points matching q, sorted by timestamp with
// insertion sequence as tie-breaker.
func (s *memoryStore) snapshot(q Query) []DataPoint {
	s.mu.Lock()
	matched := make([]entry, 0, len(s.entries))
	for _, e := range s.entries {
		if q.matches(e.point) {
			matched = append(matched, e)
		}
	}
	s.mu.Unlock()

	sort.SliceStable(matched, func(i, j int) bool {
		ti, tj := matched[i].point.Timestamp, matched[j].point.Timestamp
		if ti.Equal(tj) {
			return matched[i].seq < matched[j].seq
		}
		return ti.Before(tj)
	})

	points := make([]DataPoint, len(matched))
	for i, e := range matched {
		points[i] = e.point
	}

	return points
}

func (s *memoryStore) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}

func (s *memoryStore) stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{
		TotalPoints: len(s.entries),
		BySource:    make(map[string]int),
	}
	for _, e := range s.entries {
		st.BySource[e.point.Source]++
		ts := e.point.Timestamp
		if st.Oldest.IsZero() || ts.Before(st.Oldest) {
			st.Oldest = ts
		}
		if st.Newest.IsZero() || ts.After(st.Newest) {
			st.Newest = ts
		}
	}

	return st
}

func (q Query) matches(p DataPoint) bool {
	if q.Source != "" && p.Source != q.Source {
		return false
	}
	if q.Type != "" && p.Type != q.Type {
		return false
	}
	if !q.Since.IsZero() && p.Timestamp.Before(q.Since) {
		return false
	}
	if !q.Until.IsZero() && p.Timestamp.After(q.Until) {
		return false
	}
	return true
}

func copyPayload(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	c := make(map[string]any, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

// truncateMonotonic strips the monotonic clock reading so stored
// timestamps compare and round-trip purely on wall time.
func truncateMonotonic(t time.Time) time.Time {
	return t.Round(0)
}
