package brief

import (
	"fmt"
	"strings"
	"time"

	"daybrief/internal/identity"
	"daybrief/internal/services"
)

const maxSummaryLen = 500

// Normalize converts one raw connector item into the canonical Item. A raw
// item with no usable identity or text is rejected with an ErrNormalization
// so the caller can drop it and continue the batch.
func Normalize(source, itemType string, raw identity.RawItem, prefs Preferences, now time.Time) (*Item, error) {
	if raw == nil {
		return nil, services.Wrap(services.ErrNormalization, "normalize", source, "nil raw item", nil)
	}

	title := firstNonEmpty(raw, "title", "subject", "name")
	summary := firstNonEmpty(raw, "summary", "snippet", "preview", "description", "content", "body")
	if title == "" && summary == "" {
		return nil, services.Wrap(services.ErrNormalization, "normalize", source, "item has no title or summary", nil)
	}
	if len(summary) > maxSummaryLen {
		summary = summary[:maxSummaryLen]
	}

	fingerprint := identity.Fingerprint(source, itemType, raw)
	item := &Item{
		ItemRef:     fmt.Sprintf("%s/%s", source, fingerprint),
		Source:      source,
		Type:        itemType,
		Timestamp:   parseTimestamp(raw, now),
		Title:       title,
		Summary:     summary,
		Fingerprint: fingerprint,
		ContentHash: identity.ContentHash(raw),
	}

	if link := firstNonEmpty(raw, "url", "link", "html_link", "permalink"); link != "" {
		item.Evidence = append(item.Evidence, link)
	}
	item.SuggestedActions = stringSlice(raw["suggested_actions"])
	item.Attendees = attendeeCount(raw["attendees"])
	item.Entities = ExtractEntities(title+" "+summary, prefs)

	return item, nil
}

var timestampKeys = []string{
	"timestamp", "date", "received_at", "start", "start_time",
	"due", "published_at", "created_at", "updated",
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTimestamp(raw identity.RawItem, fallback time.Time) time.Time {
	for _, key := range timestampKeys {
		value, ok := raw[key]
		if !ok || value == nil {
			continue
		}
		switch v := value.(type) {
		case time.Time:
			return v.UTC()
		case string:
			trimmed := strings.TrimSpace(v)
			for _, layout := range timestampLayouts {
				if parsed, err := time.Parse(layout, trimmed); err == nil {
					return parsed.UTC()
				}
			}
		}
	}
	return fallback.UTC()
}

func firstNonEmpty(raw identity.RawItem, keys ...string) string {
	for _, key := range keys {
		if value, ok := raw[key]; ok && value != nil {
			if s, ok := value.(string); ok {
				if trimmed := strings.TrimSpace(s); trimmed != "" {
					return trimmed
				}
			}
		}
	}
	return ""
}

func stringSlice(value any) []string {
	switch v := value.(type) {
	case []string:
		out := make([]string, 0, len(v))
		for _, s := range v {
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, entry := range v {
			if s, ok := entry.(string); ok {
				if trimmed := strings.TrimSpace(s); trimmed != "" {
					out = append(out, trimmed)
				}
			}
		}
		return out
	default:
		return nil
	}
}

func attendeeCount(value any) int {
	switch v := value.(type) {
	case []string:
		return len(v)
	case []any:
		return len(v)
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}
