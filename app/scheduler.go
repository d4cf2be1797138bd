package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"newsflash/domain"
	"newsflash/internal/logger"
)

const (
	DefaultInterval = 30 * time.Second
	MinInterval     = time.Second

	paneTitle = "Flash News"
	clockFmt  = "15:04:05"
	stampFmt  = "2006-01-02 15:04:05"
)

var (
	ErrAlreadyRunning  = errors.New("polling is already running")
	ErrNotRunning      = errors.New("polling is not running")
	ErrDisposed        = errors.New("scheduler has been disposed")
	ErrInvalidInterval = fmt.Errorf("interval must be at least %s", MinInterval)
)

// PollObserver receives per-cycle counters.
type PollObserver interface {
	ObservePoll(fetched, fresh, stored int)
	ObserveFailure()
	ObserveSnapshot(stored int)
}

// AddressRefresher re-resolves the endpoint pool in the background.
type AddressRefresher interface {
	RefreshAsync()
}

type SchedulerOptions struct {
	Interval          time.Duration
	ShowImportantOnly bool
	Observer          PollObserver
	Resolver          AddressRefresher
}

// Scheduler drives the fetch, dedup, merge, persist and render cycle on a ticker.
type Scheduler struct {
	fetcher       domain.FeedClient
	dedup         *Deduplicator
	store         *NewsStore
	out           domain.Output
	log           logger.Logger
	obs           PollObserver
	resolver      AddressRefresher
	importantOnly bool
	now           func() time.Time

	mu             sync.Mutex
	interval       time.Duration
	cancel         context.CancelFunc
	tickerStopChan chan struct{}
	started        bool
	disposed       bool

	pollMu sync.Mutex
	loops  sync.WaitGroup
}

func NewScheduler(fetcher domain.FeedClient, dedup *Deduplicator, store *NewsStore, out domain.Output, log logger.Logger, opts SchedulerOptions) *Scheduler {
	interval := opts.Interval
	if interval == 0 {
		interval = DefaultInterval
	}
	if interval < MinInterval {
		interval = MinInterval
	}
	if log == nil {
		log = logger.NewNop()
	}
	obs := opts.Observer
	if obs == nil {
		obs = nopObserver{}
	}
	return &Scheduler{
		fetcher:       fetcher,
		dedup:         dedup,
		store:         store,
		out:           out,
		log:           log.With(logger.String("component", "scheduler")),
		obs:           obs,
		resolver:      opts.Resolver,
		importantOnly: opts.ShowImportantOnly,
		now:           time.Now,
		interval:      interval,
	}
}

// Load restores the persisted snapshot once and seeds deduplication with its ids.
func (s *Scheduler) Load(ctx context.Context) int {
	if s.store.Loaded() {
		return s.store.Len()
	}
	restored := s.store.Restore(ctx)
	for _, it := range restored {
		s.dedup.MarkSeen(it.ID)
	}
	if len(restored) > 0 {
		s.log.Info("restored cached snapshot",
			logger.Int("items", len(restored)), logger.String("last_update", s.store.LastUpdate()))
	}
	s.obs.ObserveSnapshot(len(restored))
	return len(restored)
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrDisposed
	}
	if s.started {
		s.mu.Unlock()
		s.out.Line("Flash news polling is already running")
		return ErrAlreadyRunning
	}
	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.tickerStopChan = make(chan struct{})
	s.started = true
	interval := s.interval
	s.mu.Unlock()

	if s.resolver != nil {
		s.resolver.RefreshAsync()
	}
	cached := s.Load(ctx)

	s.out.Clear()
	s.out.Header(paneTitle)
	if cached > 0 {
		s.out.Line(fmt.Sprintf("Loaded %d cached items", cached))
	}
	s.out.Line("Started: " + s.now().Format(stampFmt))
	s.out.Line("Newest first | deduplicated | cached locally")
	s.out.Separator()
	if cached > 0 {
		s.renderItems(s.store.Items())
	}
	s.out.Show()

	s.poll(loopCtx)

	s.loops.Add(1)
	go s.loop(loopCtx)

	s.log.Info("polling started", logger.Duration("interval", interval))
	return nil
}

func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrDisposed
	}
	if !s.started {
		s.mu.Unlock()
		return ErrNotRunning
	}
	cancel := s.cancel
	s.cancel = nil
	s.started = false
	s.mu.Unlock()

	cancel()
	if err := s.store.Persist(ctx); err != nil {
		s.log.Warn("persist on stop failed", logger.Error(err))
	}

	s.out.Separator()
	s.out.Line("Stopped: " + s.now().Format(stampFmt))
	s.out.Line(fmt.Sprintf("Cached %d items", s.store.Len()))
	s.out.Header(paneTitle + " - stopped")

	s.log.Info("polling stopped")
	return nil
}

// Refresh polls once out of band when running and starts polling otherwise.
func (s *Scheduler) Refresh(ctx context.Context) error {
	s.mu.Lock()
	disposed, running := s.disposed, s.started
	s.mu.Unlock()

	if disposed {
		return ErrDisposed
	}
	if !running {
		return s.Start(ctx)
	}
	s.poll(ctx)
	return nil
}

// ClearCache drops the snapshot, the dedup window and the persisted entry without touching the
// running state.
func (s *Scheduler) ClearCache(ctx context.Context) error {
	s.mu.Lock()
	disposed := s.disposed
	s.mu.Unlock()
	if disposed {
		return ErrDisposed
	}

	s.pollMu.Lock()
	defer s.pollMu.Unlock()

	if err := s.store.Clear(ctx); err != nil {
		s.log.Warn("erase persisted snapshot failed", logger.Error(err))
	}
	s.dedup.Clear()
	s.obs.ObserveSnapshot(0)

	s.out.Clear()
	s.out.Line("Cache cleared")
	s.log.Info("cache cleared")
	return nil
}

// Dispose persists the snapshot, stops polling and releases the output. It is terminal.
func (s *Scheduler) Dispose(ctx context.Context) error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrDisposed
	}
	running := s.started
	s.mu.Unlock()

	// a never-loaded store would overwrite the persisted snapshot with nothing
	if s.store.Loaded() {
		if err := s.store.Persist(ctx); err != nil {
			s.log.Warn("persist on dispose failed", logger.Error(err))
		}
	}
	if running {
		if err := s.Stop(ctx); err != nil && !errors.Is(err, ErrNotRunning) {
			return err
		}
	}

	s.mu.Lock()
	s.disposed = true
	s.mu.Unlock()

	s.loops.Wait()
	return s.out.Close()
}

func (s *Scheduler) SetInterval(d time.Duration) error {
	if d < MinInterval {
		return ErrInvalidInterval
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return ErrDisposed
	}
	s.interval = d
	if s.started {
		// wake the loop so it re-arms with the new period
		close(s.tickerStopChan)
		s.tickerStopChan = make(chan struct{})
	}
	return nil
}

func (s *Scheduler) CurrentInterval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interval
}

func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started && !s.disposed
}

// Snapshot returns the current items and the time of the last merge.
func (s *Scheduler) Snapshot() ([]domain.NewsItem, string) {
	return s.store.Items(), s.store.LastUpdate()
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.loops.Done()
	for {
		s.mu.Lock()
		interval := s.interval
		stopCh := s.tickerStopChan
		s.mu.Unlock()

		ticker := time.NewTicker(interval)
	wait:
		for {
			select {
			case <-ctx.Done():
				ticker.Stop()
				return
			case <-stopCh:
				ticker.Stop()
				break wait
			case <-ticker.C:
				s.poll(ctx)
			}
		}
	}
}

// poll runs one cycle. Failures are reported as a single line and never escape.
func (s *Scheduler) poll(ctx context.Context) {
	s.pollMu.Lock()
	defer s.pollMu.Unlock()

	stamp := s.now().Format(clockFmt)
	log := s.log.With(logger.String("cycle", uuid.NewString()))
	defer func() {
		if r := recover(); r != nil {
			s.fail(log, stamp, fmt.Errorf("panic: %v", r))
		}
	}()

	// an in-flight fetch is allowed to finish after Stop
	ctx = context.WithoutCancel(ctx)

	fetched := s.fetcher.Fetch(ctx)
	fresh := s.dedup.Filter(fetched)
	if s.importantOnly {
		fresh = importantOnly(fresh)
	}
	if len(fresh) == 0 {
		s.obs.ObservePoll(len(fetched), 0, s.store.Len())
		log.Debug("no new items", logger.Int("fetched", len(fetched)))
		return
	}

	added, snapshot := s.store.Merge(fresh)
	s.obs.ObservePoll(len(fetched), added, len(snapshot))
	persistErr := s.store.Persist(ctx)

	if s.Running() {
		s.renderSnapshot(stamp, added, snapshot)
	}
	if persistErr != nil {
		s.fail(log, stamp, fmt.Errorf("persist snapshot: %w", persistErr))
	}
	log.Info("merged new items",
		logger.Int("fetched", len(fetched)), logger.Int("new", added), logger.Int("total", len(snapshot)))
}

func (s *Scheduler) fail(log logger.Logger, stamp string, err error) {
	s.obs.ObserveFailure()
	log.Error("poll cycle failed", logger.Error(err))
	s.out.Line(fmt.Sprintf("[%s] ❌ failed to fetch news: %v", stamp, err))
}

func (s *Scheduler) renderSnapshot(updateTime string, added int, items []domain.NewsItem) {
	s.out.Clear()
	s.out.Header(paneTitle)
	s.out.Line(fmt.Sprintf("Last update: %s | New: %d | Total: %d (cached)", updateTime, added, len(items)))
	s.out.Separator()
	s.renderItems(items)
}

func (s *Scheduler) renderItems(items []domain.NewsItem) {
	for _, it := range items {
		if entry := FormatItem(it); entry != "" {
			s.out.News(entry)
		}
	}
}

func importantOnly(items []domain.NewsItem) []domain.NewsItem {
	out := items[:0]
	for _, it := range items {
		if it.Importance >= 1 {
			out = append(out, it)
		}
	}
	return out
}

type nopObserver struct{}

func (nopObserver) ObservePoll(int, int, int) {}
func (nopObserver) ObserveFailure()           {}
func (nopObserver) ObserveSnapshot(int)       {}
