package control

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"newsflash/domain"
)

// ErrNotReachable means no instance is listening on the control address.
var ErrNotReachable = errors.New("no running instance")

type Client struct {
	addr string
	http *http.Client
}

func NewClient(addr string) *Client {
	return &Client{addr: addr, http: &http.Client{Timeout: 30 * time.Second}}
}

func (c *Client) Start() (bool, error)      { return c.lifecycle("/start") }
func (c *Client) Stop() (bool, error)       { return c.lifecycle("/stop") }
func (c *Client) Refresh() (bool, error)    { return c.lifecycle("/refresh") }
func (c *Client) ClearCache() (bool, error) { return c.lifecycle("/clear-cache") }

func (c *Client) SetInterval(d time.Duration) (time.Duration, error) {
	var r struct {
		Old string `json:"old"`
		New string `json:"new"`
	}
	if err := c.do(http.MethodPost, "/set-interval", map[string]string{"duration": d.String()}, &r); err != nil {
		return 0, err
	}
	if r.Old != "" {
		if old, err := time.ParseDuration(r.Old); err == nil {
			return old, nil
		}
	}
	return 0, nil
}

func (c *Client) Status() (Status, error) {
	var st Status
	err := c.do(http.MethodGet, "/status", nil, &st)
	return st, err
}

// News returns up to n items of the snapshot. n <= 0 returns all of them.
func (c *Client) News(n int) (domain.CacheData, error) {
	path := "/news"
	if n > 0 {
		path += "?num=" + strconv.Itoa(n)
	}
	var data domain.CacheData
	err := c.do(http.MethodGet, path, nil, &data)
	return data, err
}

func (c *Client) lifecycle(path string) (bool, error) {
	var r struct {
		Running bool `json:"running"`
	}
	err := c.do(http.MethodPost, path, nil, &r)
	return r.Running, err
}

func (c *Client) do(method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, "http://"+c.addr+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w at %s: %v", ErrNotReachable, c.addr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&e) == nil && e.Error != "" {
			return fmt.Errorf("server error: %s: %s", resp.Status, e.Error)
		}
		return fmt.Errorf("server error: %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
