package feed

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedPicker string

func (p fixedPicker) Pick() string { return string(p) }

func newTestFetcher(t *testing.T, srv *httptest.Server) *HTTPFetcher {
	t.Helper()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	host, portStr, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	return NewHTTPFetcher(fixedPicker(host), Options{
		Host:        "feed.example",
		Path:        "/flash_newest.js",
		Port:        port,
		Timeout:     5 * time.Second,
		InsecureTLS: true,
		Debug:       true,
	}, nil)
}

func TestHTTPFetcher_FetchSendsVirtualHost(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "feed.example", r.Host)
		assert.Equal(t, "/flash_newest.js", r.URL.Path)
		assert.Equal(t, "https://feed.example/", r.Header.Get("Referer"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`var newest = [{"id":"1","time":"10:00:00","important":1,"data":{"title":"A"}}];`))
	}))
	defer srv.Close()

	items := newTestFetcher(t, srv).Fetch(context.Background())

	require.Len(t, items, 1)
	assert.Equal(t, "1", items[0].ID)
}

func TestHTTPFetcher_NonSuccessStatusYieldsEmpty(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `[{"id":"1"}]`, http.StatusBadGateway)
	}))
	defer srv.Close()

	assert.Empty(t, newTestFetcher(t, srv).Fetch(context.Background()))
}

func TestHTTPFetcher_UnreachableYieldsEmpty(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	f := newTestFetcher(t, srv)
	srv.Close()

	assert.Empty(t, f.Fetch(context.Background()))
}

func TestHTTPFetcher_TimeoutYieldsEmpty(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewTLSServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	f := newTestFetcher(t, srv)
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	assert.Empty(t, f.Fetch(ctx))
}

func TestHTTPFetcher_SuppressesAndRestoresProxyEnv(t *testing.T) {
	t.Setenv("HTTPS_PROXY", "http://127.0.0.1:1")
	t.Setenv("http_proxy", "http://127.0.0.1:1")

	var seenDuringFetch string
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		seenDuringFetch = os.Getenv("HTTPS_PROXY") + os.Getenv("http_proxy")
		_, _ = w.Write([]byte(`[{"id":"7"}]`))
	}))
	defer srv.Close()

	items := newTestFetcher(t, srv).Fetch(context.Background())

	require.Len(t, items, 1)
	assert.Empty(t, seenDuringFetch)
	assert.Equal(t, "http://127.0.0.1:1", os.Getenv("HTTPS_PROXY"))
	assert.Equal(t, "http://127.0.0.1:1", os.Getenv("http_proxy"))
}

func TestWithoutProxy_RestoresOnPanic(t *testing.T) {
	t.Setenv("HTTP_PROXY", "http://proxy.local:3128")

	assert.Panics(t, func() {
		_ = withoutProxy(func() error { panic("boom") })
	})
	assert.Equal(t, "http://proxy.local:3128", os.Getenv("HTTP_PROXY"))
}
