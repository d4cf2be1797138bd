package domain

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// NewsItem is one flash entry as delivered by the upstream feed.
type NewsItem struct {
	ID         string   `json:"id"`
	Time       string   `json:"time"`
	Type       int      `json:"type,omitempty"`
	Importance int      `json:"important"`
	Tags       []string `json:"tags,omitempty"`
	Data       Payload  `json:"data"`
}

type Payload struct {
	Title   string `json:"title,omitempty"`
	Content string `json:"content,omitempty"`
	Pic     string `json:"pic,omitempty"`
}

// CacheData is the persisted form of a snapshot.
type CacheData struct {
	Items      []NewsItem `json:"items"`
	LastUpdate string     `json:"lastUpdate"`
}

// UnmarshalJSON accepts numeric ids and importance values encoded as strings.
func (n *NewsItem) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID         json.RawMessage `json:"id"`
		Time       string          `json:"time"`
		Type       json.Number     `json:"type"`
		Importance json.Number     `json:"important"`
		Tags       []string        `json:"tags"`
		Data       Payload         `json:"data"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*n = NewsItem{Time: raw.Time, Tags: raw.Tags, Data: raw.Data}
	n.ID = rawText(raw.ID)
	if v, err := raw.Type.Int64(); err == nil {
		n.Type = int(v)
	}
	if v, err := raw.Importance.Int64(); err == nil && v > 0 {
		n.Importance = int(v)
	}
	return nil
}

func rawText(r json.RawMessage) string {
	r = bytes.TrimSpace(r)
	if len(r) == 0 || string(r) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(r, &s); err == nil {
		return s
	}
	return strings.Trim(string(r), `"`)
}

var timeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02 15:04:05",
	"2006-01-02 15:04",
	"15:04:05",
	"15:04",
}

// ParsedTime interprets Time in local time. Unparseable values yield the zero time.
func (n NewsItem) ParsedTime() time.Time {
	s := strings.TrimSpace(n.Time)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}
