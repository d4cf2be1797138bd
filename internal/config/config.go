package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultRefreshInterval = 30 * time.Second
	MinRefreshInterval     = time.Second
	DefaultMaxItems        = 500
	DefaultCacheKey        = "jin10-news-cache"
)

type Config struct {
	RefreshInterval   time.Duration
	ShowImportantOnly bool
	DebugLogging      bool
	MaxItems          int
	CacheKey          string
	LogLevel          string

	FeedHost      string
	FeedPath      string
	FeedPort      int
	ResolveDomain string
	FallbackAddrs []string
	FeedTimeout   time.Duration
	InsecureTLS   bool

	CacheBackend string
	CacheFile    string

	PGHost     string
	PGPort     int
	PGUser     string
	PGPassword string
	PGDatabase string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	S3Bucket       string
	S3Prefix       string
	S3Region       string
	S3Profile      string
	S3UsePathStyle bool

	ControlAddr string
}

// Load reads .env.local and .env (when present) and then the process environment.
func Load() Config {
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load()

	interval := time.Duration(parseIntEnv("NEWSFLASH_REFRESH_INTERVAL_SECONDS", int(DefaultRefreshInterval/time.Second))) * time.Second
	if interval < MinRefreshInterval {
		interval = MinRefreshInterval
	}
	maxItems := parseIntEnv("NEWSFLASH_MAX_ITEMS", DefaultMaxItems)
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	debug := parseBoolEnv("NEWSFLASH_DEBUG_LOGGING", false)
	level := getenv("LOG_LEVEL", "info")
	if debug {
		level = "debug"
	}
	host := getenv("FEED_HOST", "www.jin10.com")

	return Config{
		RefreshInterval:   interval,
		ShowImportantOnly: parseBoolEnv("NEWSFLASH_SHOW_IMPORTANT_ONLY", false),
		DebugLogging:      debug,
		MaxItems:          maxItems,
		CacheKey:          getenv("NEWSFLASH_CACHE_KEY", DefaultCacheKey),
		LogLevel:          level,

		FeedHost:      host,
		FeedPath:      getenv("FEED_PATH", "/flash_newest.js"),
		FeedPort:      parseIntEnv("FEED_PORT", 443),
		ResolveDomain: getenv("FEED_RESOLVE_DOMAIN", host),
		FallbackAddrs: parseListEnv("FEED_FALLBACK_ADDRS"),
		FeedTimeout:   parseDurationEnv("FEED_TIMEOUT", 15*time.Second),
		InsecureTLS:   parseBoolEnv("FEED_INSECURE_TLS", true),

		CacheBackend: strings.ToLower(getenv("CACHE_BACKEND", "file")),
		CacheFile:    getenv("CACHE_FILE", "newsflash-cache.json"),

		PGHost:     getenv("POSTGRES_HOST", "localhost"),
		PGPort:     parseIntEnv("POSTGRES_PORT", 5432),
		PGUser:     getenv("POSTGRES_USER", "postgres"),
		PGPassword: getenv("POSTGRES_PASSWORD", "changeme"),
		PGDatabase: getenv("POSTGRES_DBNAME", "newsflash"),

		RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       parseIntEnv("REDIS_DB", 0),

		S3Bucket:       os.Getenv("S3_BUCKET"),
		S3Prefix:       os.Getenv("S3_PREFIX"),
		S3Region:       os.Getenv("S3_REGION"),
		S3Profile:      os.Getenv("S3_PROFILE"),
		S3UsePathStyle: parseBoolEnv("S3_USE_PATH_STYLE", false),

		ControlAddr: getenv("CONTROL_ADDR", "127.0.0.1:8089"),
	}
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func parseIntEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

func parseBoolEnv(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return def
}

func parseDurationEnv(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(v)); err == nil {
			return d
		}
	}
	return def
}

func parseListEnv(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
