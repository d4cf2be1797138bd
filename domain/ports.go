package domain

import (
	"context"
	"time"
)

// FeedClient fetches one batch from the upstream endpoint. Failures yield an empty batch.
type FeedClient interface {
	Fetch(ctx context.Context) []NewsItem
}

// SnapshotStore is the key-value persistence port. Set with a nil value erases the key.
type SnapshotStore interface {
	Get(ctx context.Context, key string) (*CacheData, error)
	Set(ctx context.Context, key string, data *CacheData) error
}

// Output is the render collaborator owned by the host.
type Output interface {
	Line(msg string)
	Header(title string)
	Separator()
	News(entry string)
	Clear()
	Show()
	Close() error
}

// Scheduler exposes lifecycle controls to the host.
type Scheduler interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Refresh(ctx context.Context) error
	ClearCache(ctx context.Context) error
	Dispose(ctx context.Context) error

	SetInterval(d time.Duration) error
	CurrentInterval() time.Duration
	Running() bool
	Snapshot() ([]NewsItem, string)
}
