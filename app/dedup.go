package app

import (
	"sync"

	"newsflash/domain"
)

const (
	SeenCeiling = 1000
	SeenRetain  = 500
)

// Deduplicator remembers which item ids were already delivered. When the window grows past
// SeenCeiling it keeps only the SeenRetain most recently inserted ids; rediscovery of an id does
// not refresh its position.
type Deduplicator struct {
	mu    sync.Mutex
	order []string
	seen  map[string]struct{}
}

func NewDeduplicator() *Deduplicator {
	return &Deduplicator{seen: make(map[string]struct{})}
}

// Filter returns the unseen items of batch in input order and marks them seen.
func (d *Deduplicator) Filter(batch []domain.NewsItem) []domain.NewsItem {
	d.mu.Lock()
	defer d.mu.Unlock()

	fresh := make([]domain.NewsItem, 0, len(batch))
	for _, it := range batch {
		if d.addLocked(it.ID) {
			fresh = append(fresh, it)
		}
	}
	d.trimLocked()
	return fresh
}

// MarkSeen records id without emitting it.
func (d *Deduplicator) MarkSeen(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.addLocked(id)
	d.trimLocked()
}

func (d *Deduplicator) Seen(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.seen[id]
	return ok
}

func (d *Deduplicator) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.order)
}

func (d *Deduplicator) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.order = nil
	d.seen = make(map[string]struct{})
}

func (d *Deduplicator) addLocked(id string) bool {
	if _, ok := d.seen[id]; ok {
		return false
	}
	d.seen[id] = struct{}{}
	d.order = append(d.order, id)
	return true
}

func (d *Deduplicator) trimLocked() {
	if len(d.order) <= SeenCeiling {
		return
	}
	keep := append([]string(nil), d.order[len(d.order)-SeenRetain:]...)
	d.order = keep
	d.seen = make(map[string]struct{}, len(keep))
	for _, id := range keep {
		d.seen[id] = struct{}{}
	}
}
