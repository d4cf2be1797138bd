package feed

import (
	"encoding/json"
	"regexp"
	"strings"

	"newsflash/domain"
	"newsflash/internal/logger"
)

var arrayPattern = regexp.MustCompile(`\[[\s\S]*\]`)

// TraceFunc receives diagnostic messages describing each parse decision.
type TraceFunc func(msg string, fields ...logger.Field)

// ParseBody decodes a strict JSON array, an array wrapped in an assignment statement such as
// `var newest = [...];`, or the first bracketed span found anywhere in the body. Anything else
// yields an empty batch.
func ParseBody(body string, trace TraceFunc) []domain.NewsItem {
	if trace == nil {
		trace = func(string, ...logger.Field) {}
	}

	candidate := strings.TrimSpace(body)
	if !strings.HasPrefix(candidate, "[") {
		if eq := strings.Index(candidate, "="); eq >= 0 {
			candidate = strings.TrimSpace(candidate[eq+1:])
			trace("stripped assignment prefix")
		}
	}
	candidate = strings.TrimSpace(strings.TrimSuffix(candidate, ";"))

	if strings.HasPrefix(candidate, "[") {
		items, err := decodeItems(candidate)
		if err == nil {
			trace("decoded feed", logger.Int("items", len(items)))
			return items
		}
		trace("json decode failed", logger.Error(err))
	} else {
		trace("body is not an array after unwrapping", logger.String("head", head(candidate, 50)))
	}

	match := arrayPattern.FindString(body)
	if match == "" {
		trace("no bracketed array in body")
		return nil
	}
	items, err := decodeItems(match)
	if err != nil {
		trace("bracket extraction decode failed", logger.Error(err))
		return nil
	}
	trace("decoded feed via bracket extraction", logger.Int("items", len(items)))
	return items
}

func decodeItems(s string) ([]domain.NewsItem, error) {
	var raw []domain.NewsItem
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, err
	}
	items := raw[:0]
	for _, it := range raw {
		if it.ID != "" {
			items = append(items, it)
		}
	}
	return items, nil
}
