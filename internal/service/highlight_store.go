package service

import (
	"strings"
	"sync"
	"time"

	"study-highlights/internal/domain"
)

// pendingIDPrefix marks optimistic highlights the backend has not confirmed yet.
const pendingIDPrefix = "pending-"

func isPendingID(id string) bool {
	return strings.HasPrefix(id, pendingIDPrefix)
}

// HighlightFetcher reads highlights for a set of content items from the backend.
type HighlightFetcher func(contentItemIDs []string) ([]*domain.Highlight, error)

// HighlightStore caches one user's highlights keyed by content item id.
//
// It mirrors what the backend says exists plus in-flight optimistic entries.
// Overlaps are kept as-is; Render resolves them at read time.
type HighlightStore struct {
	mu     sync.RWMutex
	items  map[string][]*domain.Highlight
	loaded map[string]bool
}

// NewHighlightStore creates an empty store.
func NewHighlightStore() *HighlightStore {
	return &HighlightStore{
		items:  make(map[string][]*domain.Highlight),
		loaded: make(map[string]bool),
	}
}

// Load refreshes the given content items from the backend. When fetch fails
// the store keeps its previous contents and the error is returned unchanged.
// Optimistic entries still waiting on the backend survive a refresh.
func (s *HighlightStore) Load(contentItemIDs []string, fetch HighlightFetcher) (map[string][]*domain.Highlight, error) {
	ids := uniqueNonEmpty(contentItemIDs)
	out := make(map[string][]*domain.Highlight, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := fetch(ids)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]*domain.Highlight, len(ids))
	for _, id := range ids {
		grouped[id] = make([]*domain.Highlight, 0)
	}
	for _, h := range rows {
		if h == nil {
			continue
		}
		if _, ok := grouped[h.ContentItemID]; !ok {
			continue
		}
		grouped[h.ContentItemID] = append(grouped[h.ContentItemID], cloneHighlight(h))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		next := grouped[id]
		for _, h := range s.items[id] {
			if isPendingID(h.ID) {
				next = append(next, h)
			}
		}
		s.items[id] = next
		s.loaded[id] = true
		out[id] = cloneHighlights(next)
	}
	return out, nil
}

// Loaded reports whether the content item has been fetched at least once.
func (s *HighlightStore) Loaded(contentItemID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded[contentItemID]
}

// Get returns the cached highlights of a content item in insertion order.
func (s *HighlightStore) Get(contentItemID string) []*domain.Highlight {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneHighlights(s.items[contentItemID])
}

// Upsert adds h, or replaces the entry with the same id in place.
func (s *HighlightStore) Upsert(contentItemID string, h *domain.Highlight) {
	if h == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.items[contentItemID]
	if i := indexOf(list, h.ID); i >= 0 {
		list[i] = cloneHighlight(h)
		return
	}
	s.items[contentItemID] = append(list, cloneHighlight(h))
}

// Remove deletes the highlight with the given id. It reports whether
// anything was removed; removing a missing id is a no-op.
func (s *HighlightStore) Remove(contentItemID, highlightID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.items[contentItemID]
	i := indexOf(list, highlightID)
	if i < 0 {
		return false
	}
	s.items[contentItemID] = append(list[:i:i], list[i+1:]...)
	return true
}

// Find locates a highlight by id across all content items.
func (s *HighlightStore) Find(highlightID string) (contentItemID string, index int, h *domain.Highlight, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for cid, list := range s.items {
		if i := indexOf(list, highlightID); i >= 0 {
			return cid, i, cloneHighlight(list[i]), true
		}
	}
	return "", -1, nil, false
}

// InsertAt puts h back at position index. It does nothing when an entry with
// the same id already exists.
func (s *HighlightStore) InsertAt(contentItemID string, index int, h *domain.Highlight) {
	if h == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.items[contentItemID]
	if indexOf(list, h.ID) >= 0 {
		return
	}
	index = clampInt(index, 0, len(list))
	next := make([]*domain.Highlight, 0, len(list)+1)
	next = append(next, list[:index]...)
	next = append(next, cloneHighlight(h))
	next = append(next, list[index:]...)
	s.items[contentItemID] = next
}

// Replace swaps the entry oldID for h, keeping its position. When oldID is
// gone h is upserted instead.
func (s *HighlightStore) Replace(contentItemID, oldID string, h *domain.Highlight) {
	if h == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.items[contentItemID]
	i := indexOf(list, oldID)
	if i < 0 {
		if j := indexOf(list, h.ID); j >= 0 {
			list[j] = cloneHighlight(h)
			return
		}
		s.items[contentItemID] = append(list, cloneHighlight(h))
		return
	}
	list[i] = cloneHighlight(h)
	if oldID != h.ID {
		// a concurrent Load may already have brought in the confirmed row
		for j := len(list) - 1; j >= 0; j-- {
			if j != i && list[j].ID == h.ID {
				list = append(list[:j:j], list[j+1:]...)
			}
		}
		s.items[contentItemID] = list
	}
}

// storeIdleTTL is how long a user's store is kept after its last use.
const storeIdleTTL = 30 * time.Minute

type registryEntry struct {
	store    *HighlightStore
	lastUsed time.Time
}

// StoreRegistry hands out one HighlightStore per user. Stores not used for
// idleTTL are released; a released user starts over with an empty store that
// the next render reloads from the backend.
type StoreRegistry struct {
	mu      sync.Mutex
	stores  map[string]*registryEntry
	idleTTL time.Duration
	now     func() time.Time
}

func NewStoreRegistry() *StoreRegistry {
	return &StoreRegistry{
		stores:  make(map[string]*registryEntry),
		idleTTL: storeIdleTTL,
		now:     time.Now,
	}
}

// For returns the store of userID, creating it on first use.
func (r *StoreRegistry) For(userID string) *HighlightStore {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	r.pruneLocked(now)
	e, ok := r.stores[userID]
	if !ok {
		e = &registryEntry{store: NewHighlightStore()}
		r.stores[userID] = e
	}
	e.lastUsed = now
	return e.store
}

func (r *StoreRegistry) pruneLocked(now time.Time) {
	for userID, e := range r.stores {
		if now.Sub(e.lastUsed) >= r.idleTTL {
			delete(r.stores, userID)
		}
	}
}

func indexOf(list []*domain.Highlight, id string) int {
	for i, h := range list {
		if h.ID == id {
			return i
		}
	}
	return -1
}

func cloneHighlight(h *domain.Highlight) *domain.Highlight {
	cp := *h
	if h.Note != nil {
		note := *h.Note
		cp.Note = &note
	}
	return &cp
}

func cloneHighlights(list []*domain.Highlight) []*domain.Highlight {
	out := make([]*domain.Highlight, 0, len(list))
	for _, h := range list {
		out = append(out, cloneHighlight(h))
	}
	return out
}

func uniqueNonEmpty(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
