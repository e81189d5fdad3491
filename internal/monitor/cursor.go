package monitor

import (
	"sync"

	"github.com/marcin-skalski/gh-monitor/internal/github"
)

// CursorKey identifies a rotation cursor. Shared rotation uses an empty
// Facet so pull requests and issues of a repository move the same cursor.
type CursorKey struct {
	ID    int
	Facet string
}

// SharedCursor returns the key of the cursor shared by both facets of the
// repository at configuration index id.
func SharedCursor(id int) CursorKey {
	return CursorKey{ID: id}
}

// CursorStore holds rotation positions keyed by configuration index. It
// outlives refresh cycles.
type CursorStore struct {
	mu      sync.Mutex
	cursors map[CursorKey]int
}

// NewCursorStore starts every configured repository at position 0.
func NewCursorStore(repos int) *CursorStore {
	s := &CursorStore{cursors: make(map[CursorKey]int, repos)}
	for id := 0; id < repos; id++ {
		s.cursors[SharedCursor(id)] = 0
	}
	return s
}

// Get returns the cursor position, 0 if it has never moved.
func (s *CursorStore) Get(key CursorKey) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursors[key]
}

// Advance selects step items, each time moving the cursor to the next
// index or, past the end, back to 0 and selecting items[0]. The item
// selected right after a wrap is therefore items[0] even when items[0]
// was the cursor's previous position.
func (s *CursorStore) Advance(key CursorKey, items []github.Item, step int) []github.Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	selected := make([]github.Item, 0, max(step, 0))
	for i := 0; i < step; i++ {
		cur := s.cursors[key]
		if cur+1 < len(items) {
			selected = append(selected, items[cur+1])
			s.cursors[key] = cur + 1
			continue
		}
		s.cursors[key] = 0
		if len(items) > 0 {
			selected = append(selected, items[0])
		}
	}
	return selected
}

// RoundRobin selects step items starting at the cursor, wrapping modulo
// the list length.
func (s *CursorStore) RoundRobin(key CursorKey, items []github.Item, step int) []github.Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(items) == 0 {
		s.cursors[key] = 0
		return []github.Item{}
	}

	selected := make([]github.Item, 0, max(step, 0))
	cur := s.cursors[key]
	if cur >= len(items) {
		cur = 0
	}
	for i := 0; i < step; i++ {
		selected = append(selected, items[cur])
		cur = (cur + 1) % len(items)
	}
	s.cursors[key] = cur
	return selected
}
