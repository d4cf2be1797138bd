// Package feed fetches the flash feed from the upstream endpoint and decodes its loosely
// formatted body.
package feed

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/net/http2"

	"newsflash/domain"
	"newsflash/internal/logger"
)

const (
	DefaultTimeout = 15 * time.Second
	maxBodyBytes   = 8 << 20
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// AddressPicker supplies the address dialled for one request.
type AddressPicker interface {
	Pick() string
}

type Options struct {
	// Host is the virtual hostname sent in the Host header and as TLS server name.
	Host string
	Path string
	Port int
	// Timeout bounds the whole request. Zero means DefaultTimeout.
	Timeout time.Duration
	// InsecureTLS skips certificate verification; the certificate is bound to Host, not the address.
	InsecureTLS bool
	// Debug enables per-branch trace logging.
	Debug bool
}

type HTTPFetcher struct {
	client *http.Client
	picker AddressPicker
	opts   Options
	log    logger.Logger
}

func NewHTTPFetcher(picker AddressPicker, opts Options, log logger.Logger) *HTTPFetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Port == 0 {
		opts.Port = 443
	}
	if opts.Path == "" {
		opts.Path = "/"
	}
	if log == nil {
		log = logger.NewNop()
	}

	tr := &http.Transport{
		Proxy: nil,
		DialContext: (&net.Dialer{
			Timeout:   opts.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSClientConfig: &tls.Config{
			ServerName: opts.Host,
			// #nosec G402 -- upstream is addressed by IP; configurable via FEED_INSECURE_TLS.
			InsecureSkipVerify: opts.InsecureTLS,
			MinVersion:         tls.VersionTLS12,
		},
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: opts.Timeout,
		MaxIdleConns:          4,
		IdleConnTimeout:       90 * time.Second,
	}
	// A custom dialer and TLS config turn off the transport's automatic HTTP/2 upgrade.
	if err := http2.ConfigureTransport(tr); err != nil {
		log.Warn("http2 not enabled for feed transport", logger.Error(err))
	}

	return &HTTPFetcher{
		client: &http.Client{Timeout: opts.Timeout, Transport: tr},
		picker: picker,
		opts:   opts,
		log:    log.With(logger.String("component", "feed")),
	}
}

// Fetch performs one request and returns the decoded items. Every failure yields an empty batch.
func (f *HTTPFetcher) Fetch(ctx context.Context) []domain.NewsItem {
	addr := f.picker.Pick()
	url := f.endpoint(addr)
	f.trace("requesting feed", logger.String("url", url), logger.String("host", f.opts.Host))

	var body []byte
	err := withoutProxy(func() error {
		var err error
		body, err = f.get(ctx, url)
		return err
	})
	if err != nil {
		f.trace("request failed", logger.String("address", addr), logger.Error(err))
		return nil
	}

	f.trace("response received", logger.Int("bytes", len(body)), logger.String("head", head(string(body), 100)))
	return ParseBody(string(body), f.trace)
}

func (f *HTTPFetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Host = f.opts.Host
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", "https://"+f.opts.Host+"/")
	req.Header.Set("Accept", "*/*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	f.trace("response status", logger.Int("status", resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
}

func (f *HTTPFetcher) endpoint(addr string) string {
	return "https://" + net.JoinHostPort(addr, strconv.Itoa(f.opts.Port)) + f.opts.Path
}

func (f *HTTPFetcher) trace(msg string, fields ...logger.Field) {
	if f.opts.Debug {
		f.log.Debug(msg, fields...)
	}
}

func head(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
