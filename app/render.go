package app

import (
	"regexp"
	"strings"
	"time"

	"newsflash/domain"
)

var (
	markupTag       = regexp.MustCompile(`<[^>]+>`)
	entityUnescaper = strings.NewReplacer("&nbsp;", " ", "&lt;", "<", "&gt;", ">", "&amp;", "&")
)

const importanceMarker = "⭐"

// FormatItem renders one item as a single entry. It returns "" when the item has no visible text.
func FormatItem(it domain.NewsItem) string {
	body := it.Data.Title
	if it.Data.Content != "" {
		if body != "" {
			body += "\n   " + it.Data.Content
		} else {
			body = it.Data.Content
		}
	}
	body = markupTag.ReplaceAllString(body, "")
	body = entityUnescaper.Replace(body)
	if strings.TrimSpace(body) == "" {
		return ""
	}

	ts := it.Time
	if ts == "" {
		ts = time.Now().Format("15:04:05")
	}

	var b strings.Builder
	b.WriteString("[" + ts + "] ")
	if it.Importance >= 1 {
		b.WriteString(strings.Repeat(importanceMarker, min(it.Importance, 3)))
	}
	if len(it.Tags) > 0 {
		b.WriteString("[" + strings.Join(it.Tags, ", ") + "]")
	}
	b.WriteString(" " + body)
	return b.String()
}
