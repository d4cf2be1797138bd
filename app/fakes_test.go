package app

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"newsflash/domain"
)

type memoryKV struct {
	mu     sync.Mutex
	data   map[string][]byte
	setErr error
	sets   int
}

func newMemoryKV() *memoryKV { return &memoryKV{data: map[string][]byte{}} }

func (m *memoryKV) Get(_ context.Context, key string) (*domain.CacheData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	var cd domain.CacheData
	if err := json.Unmarshal(raw, &cd); err != nil {
		return nil, err
	}
	return &cd, nil
}

func (m *memoryKV) Set(_ context.Context, key string, data *domain.CacheData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	if m.setErr != nil {
		return m.setErr
	}
	if data == nil {
		delete(m.data, key)
		return nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	m.data[key] = raw
	return nil
}

func (m *memoryKV) setCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sets
}

func (m *memoryKV) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

type brokenKV struct{}

func (brokenKV) Get(context.Context, string) (*domain.CacheData, error) {
	return nil, errors.New("connection refused")
}

func (brokenKV) Set(context.Context, string, *domain.CacheData) error {
	return errors.New("connection refused")
}

// recordingOutput keeps every call as a line of text.
type recordingOutput struct {
	mu     sync.Mutex
	lines  []string
	news   []string
	clears int
	shown  int
	closed bool
}

func (o *recordingOutput) Line(msg string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if strings.TrimSpace(msg) != "" {
		o.lines = append(o.lines, msg)
	}
}

func (o *recordingOutput) Header(title string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lines = append(o.lines, "# "+title)
}

func (o *recordingOutput) Separator() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lines = append(o.lines, "====")
}

func (o *recordingOutput) News(entry string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lines = append(o.lines, entry)
	o.news = append(o.news, entry)
}

func (o *recordingOutput) Clear() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.clears++
	o.news = nil
}

func (o *recordingOutput) Show() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.shown++
}

func (o *recordingOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	return nil
}

func (o *recordingOutput) counts() (lines, clears int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.lines), o.clears
}

func (o *recordingOutput) snapshotNews() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.news...)
}

func (o *recordingOutput) contains(sub string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, l := range o.lines {
		if strings.Contains(l, sub) {
			return true
		}
	}
	return false
}

// scriptedFetcher returns queued batches in order, then empty batches. When hold is set, Fetch
// signals entered and blocks until release is closed.
type scriptedFetcher struct {
	mu      sync.Mutex
	batches [][]domain.NewsItem
	calls   int
	panicOn int

	hold    bool
	entered chan struct{}
	release chan struct{}
}

func (f *scriptedFetcher) blockNext() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hold = true
	f.entered = make(chan struct{})
	f.release = make(chan struct{})
}

func (f *scriptedFetcher) Fetch(context.Context) []domain.NewsItem {
	f.mu.Lock()
	if f.hold {
		f.hold = false
		entered, release := f.entered, f.release
		f.mu.Unlock()
		close(entered)
		<-release
		f.mu.Lock()
	}
	defer f.mu.Unlock()
	f.calls++
	if f.panicOn != 0 && f.calls == f.panicOn {
		panic("decoder exploded")
	}
	if len(f.batches) == 0 {
		return nil
	}
	b := f.batches[0]
	f.batches = f.batches[1:]
	return b
}

func (f *scriptedFetcher) push(batch ...domain.NewsItem) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, batch)
}

func (f *scriptedFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type countingObserver struct {
	mu       sync.Mutex
	fresh    int
	failures int
	stored   int
}

func (c *countingObserver) ObservePoll(_, fresh, stored int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fresh += fresh
	c.stored = stored
}

func (c *countingObserver) ObserveSnapshot(stored int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stored = stored
}

func (c *countingObserver) ObserveFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures++
}

func item(id, at string, importance int, title string) domain.NewsItem {
	return domain.NewsItem{ID: id, Time: at, Importance: importance, Data: domain.Payload{Title: title}}
}
