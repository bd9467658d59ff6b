package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// RawItem is the source-specific payload produced by a connector. The core
// treats it as opaque apart from a handful of well-known keys.
type RawItem = map[string]any

// Type tags keep fingerprints from different item types disjoint.
const (
	TagEmail   = "email"
	TagEvent   = "event"
	TagTask    = "task"
	TagPost    = "post"
	TagArticle = "article"
	TagItem    = "item"
)

const digestHexLen = 32 // 128 bits of a sha-256 digest

// Fingerprint derives a stable identity string for a raw item. The same
// logical item always yields the same fingerprint across runs; the type tag
// prefix guarantees items of different types never collide.
func Fingerprint(source, itemType string, raw RawItem) string {
	tag := typeTag(itemType)
	if raw == nil {
		return tag + ":" + digest(source+"|"+itemType)
	}

	var key string
	switch tag {
	case TagEmail:
		key = firstString(raw, "message_id", "id")
		if key == "" {
			key = firstString(raw, "thread_id")
		}
		if key == "" {
			key = digest(firstString(raw, "subject") + "|" + firstString(raw, "timestamp", "date", "received_at"))
		}
	case TagEvent:
		key = firstString(raw, "event_id", "id")
		if key == "" {
			key = digest(firstString(raw, "title", "summary") + "|" + firstString(raw, "start", "start_time"))
		}
	case TagTask:
		key = firstString(raw, "task_id", "id")
		if key == "" {
			key = digest(firstString(raw, "title"))
		}
	case TagPost:
		key = firstString(raw, "post_id", "id")
		if key == "" {
			key = digest(firstString(raw, "author") + "|" + firstString(raw, "content", "text"))
		}
	case TagArticle:
		key = firstString(raw, "article_id", "id")
		if key == "" {
			key = firstString(raw, "url", "link")
		}
	default:
		key = firstString(raw, "id")
	}

	if key == "" {
		key = digest(canonical(raw))
	}
	return tag + ":" + shorten(key)
}

// ContentHash hashes the substantive mutable fields of a raw item. Two
// sightings of the same logical item with unchanged content hash identically
// even when volatile fields such as fetch time differ.
func ContentHash(raw RawItem) string {
	if raw == nil {
		return digest("")
	}
	fields := []string{
		"title", "subject", "summary", "snippet", "body", "content",
		"status", "start", "start_time", "due", "updated", "description",
	}
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		value, ok := raw[field]
		if !ok || value == nil {
			continue
		}
		rendered := strings.TrimSpace(stringify(value))
		if rendered == "" {
			continue
		}
		parts = append(parts, field+"="+rendered)
	}
	return digest(strings.Join(parts, "\n"))
}

func typeTag(itemType string) string {
	switch strings.ToLower(strings.TrimSpace(itemType)) {
	case "email", "mail", "message":
		return TagEmail
	case "event", "meeting":
		return TagEvent
	case "task", "todo":
		return TagTask
	case "post", "social":
		return TagPost
	case "article", "paper", "news":
		return TagArticle
	default:
		return TagItem
	}
}

// canonical renders a raw map deterministically: keys sorted, nil values
// dropped.
func canonical(raw RawItem) string {
	keys := make([]string, 0, len(raw))
	for key, value := range raw {
		if value == nil {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for _, key := range keys {
		sb.WriteString(key)
		sb.WriteByte('=')
		sb.WriteString(stringify(raw[key]))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func firstString(raw RawItem, keys ...string) string {
	for _, key := range keys {
		if value, ok := raw[key]; ok && value != nil {
			if s := strings.TrimSpace(stringify(value)); s != "" {
				return s
			}
		}
	}
	return ""
}

// stringify renders a value deterministically; fmt sorts map keys so nested
// maps are stable.
func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

func digest(input string) string {
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])[:digestHexLen]
}

// shorten hashes identifiers that are already long so fingerprints stay
// compact and uniform.
func shorten(key string) string {
	if len(key) <= digestHexLen {
		return key
	}
	return digest(key)
}
