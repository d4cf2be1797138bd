package app

import (
	"context"
	"sort"
	"sync"
	"time"

	"newsflash/domain"
)

const (
	DefaultMaxItems  = 500
	lastUpdateLayout = "2006-01-02 15:04:05"
)

// NewsStore holds the newest-first, capped snapshot and persists it through a SnapshotStore.
type NewsStore struct {
	kv  domain.SnapshotStore
	key string
	max int
	now func() time.Time

	mu         sync.Mutex
	items      []domain.NewsItem
	lastUpdate string
	loaded     bool
}

func NewNewsStore(kv domain.SnapshotStore, key string, maxItems int) *NewsStore {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	return &NewsStore{kv: kv, key: key, max: maxItems, now: time.Now}
}

// Merge orders the batch newest first, puts it ahead of the retained items and truncates to the
// cap. Retained items keep their order. Batch items whose id is already held are skipped. It
// returns the number of items inserted and a copy of the snapshot.
func (s *NewsStore) Merge(batch []domain.NewsItem) (int, []domain.NewsItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	held := make(map[string]struct{}, len(s.items))
	for _, it := range s.items {
		held[it.ID] = struct{}{}
	}
	fresh := make([]domain.NewsItem, 0, len(batch))
	for _, it := range batch {
		if _, ok := held[it.ID]; ok {
			continue
		}
		held[it.ID] = struct{}{}
		fresh = append(fresh, it)
	}

	sortNewestFirst(fresh)
	merged := make([]domain.NewsItem, 0, len(fresh)+len(s.items))
	merged = append(merged, fresh...)
	merged = append(merged, s.items...)
	if len(merged) > s.max {
		merged = merged[:s.max]
	}
	s.items = merged
	if len(fresh) > 0 {
		s.lastUpdate = s.now().Format(lastUpdateLayout)
	}
	return len(fresh), s.copyLocked()
}

// Persist writes the current snapshot under the cache key.
func (s *NewsStore) Persist(ctx context.Context) error {
	s.mu.Lock()
	data := &domain.CacheData{Items: s.copyLocked(), LastUpdate: s.now().Format(lastUpdateLayout)}
	s.mu.Unlock()
	return s.kv.Set(ctx, s.key, data)
}

// Restore loads the persisted snapshot. A missing or unreadable entry leaves the store empty.
// It returns the restored items so callers can seed deduplication.
func (s *NewsStore) Restore(ctx context.Context) []domain.NewsItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loaded = true
	data, err := s.kv.Get(ctx, s.key)
	if err != nil || data == nil || len(data.Items) == 0 {
		return nil
	}
	items := data.Items
	if len(items) > s.max {
		items = items[:s.max]
	}
	s.items = append([]domain.NewsItem(nil), items...)
	s.lastUpdate = data.LastUpdate
	return s.copyLocked()
}

// Clear empties the snapshot and erases the persisted entry.
func (s *NewsStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.items = nil
	s.lastUpdate = ""
	s.mu.Unlock()
	return s.kv.Set(ctx, s.key, nil)
}

func (s *NewsStore) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

func (s *NewsStore) Items() []domain.NewsItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

func (s *NewsStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *NewsStore) LastUpdate() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUpdate
}

func (s *NewsStore) copyLocked() []domain.NewsItem {
	return append([]domain.NewsItem(nil), s.items...)
}

// sortNewestFirst is stable so items sharing a timestamp keep their relative order.
func sortNewestFirst(items []domain.NewsItem) {
	type keyed struct {
		at   time.Time
		item domain.NewsItem
	}
	ks := make([]keyed, len(items))
	for i, it := range items {
		ks[i] = keyed{at: it.ParsedTime(), item: it}
	}
	sort.SliceStable(ks, func(i, j int) bool { return ks[i].at.After(ks[j].at) })
	for i := range ks {
		items[i] = ks[i].item
	}
}
