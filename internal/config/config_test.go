package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{
		"NEWSFLASH_REFRESH_INTERVAL_SECONDS", "NEWSFLASH_SHOW_IMPORTANT_ONLY", "NEWSFLASH_DEBUG_LOGGING",
		"FEED_HOST", "FEED_RESOLVE_DOMAIN", "FEED_FALLBACK_ADDRS", "CACHE_BACKEND", "LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
	t.Chdir(t.TempDir())

	cfg := Load()

	assert.Equal(t, 30*time.Second, cfg.RefreshInterval)
	assert.False(t, cfg.ShowImportantOnly)
	assert.False(t, cfg.DebugLogging)
	assert.Equal(t, 500, cfg.MaxItems)
	assert.Equal(t, "www.jin10.com", cfg.FeedHost)
	assert.Equal(t, "www.jin10.com", cfg.ResolveDomain)
	assert.Empty(t, cfg.FallbackAddrs)
	assert.Equal(t, 15*time.Second, cfg.FeedTimeout)
	assert.Equal(t, "file", cfg.CacheBackend)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_Overrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("NEWSFLASH_REFRESH_INTERVAL_SECONDS", "0")
	t.Setenv("NEWSFLASH_SHOW_IMPORTANT_ONLY", "true")
	t.Setenv("NEWSFLASH_DEBUG_LOGGING", "1")
	t.Setenv("FEED_FALLBACK_ADDRS", " 10.0.0.1, ,10.0.0.2 ")
	t.Setenv("CACHE_BACKEND", "Redis")

	cfg := Load()

	assert.Equal(t, time.Second, cfg.RefreshInterval)
	assert.True(t, cfg.ShowImportantOnly)
	assert.True(t, cfg.DebugLogging)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.FallbackAddrs)
	assert.Equal(t, "redis", cfg.CacheBackend)
}
