package identity_test

import (
	"strings"
	"testing"

	"daybrief/internal/identity"
)

func TestFingerprintDeterministic(t *testing.T) {
	raw := map[string]any{
		"message_id": "msg-123",
		"subject":    "Quarterly review",
		"fetched_at": "2026-08-23T07:00:00Z",
	}
	first := identity.Fingerprint("gmail", "email", raw)
	second := identity.Fingerprint("gmail", "email", raw)
	if first != second {
		t.Fatalf("fingerprint not stable: %q vs %q", first, second)
	}
	if !strings.HasPrefix(first, "email:") {
		t.Fatalf("missing type tag: %q", first)
	}
}

func TestFingerprintTypeSeparation(t *testing.T) {
	raw := map[string]any{"id": "shared-id"}
	email := identity.Fingerprint("gmail", "email", raw)
	task := identity.Fingerprint("tasks", "task", raw)
	if email == task {
		t.Fatalf("fingerprints collide across types: %q", email)
	}
}

func TestFingerprintIDPreference(t *testing.T) {
	withMessageID := identity.Fingerprint("gmail", "email", map[string]any{
		"message_id": "m1",
		"thread_id":  "t1",
	})
	withThreadID := identity.Fingerprint("gmail", "email", map[string]any{
		"thread_id": "t1",
	})
	if withMessageID == withThreadID {
		t.Fatal("message id should take precedence over thread id")
	}
}

func TestFingerprintFallbackHashOfSubjectAndTimestamp(t *testing.T) {
	a := identity.Fingerprint("gmail", "email", map[string]any{
		"subject": "Standup notes", "timestamp": "2026-08-23T09:00:00Z",
	})
	b := identity.Fingerprint("gmail", "email", map[string]any{
		"subject": "Standup notes", "timestamp": "2026-08-23T09:00:00Z",
		"fetched_at": "different volatile value",
	})
	if a != b {
		t.Fatal("subject+timestamp fallback should ignore other fields")
	}
}

func TestFingerprintWholeMapFallback(t *testing.T) {
	raw := map[string]any{"payload": "opaque", "weight": 3}
	a := identity.Fingerprint("misc", "widget", raw)
	b := identity.Fingerprint("misc", "widget", map[string]any{"weight": 3, "payload": "opaque"})
	if a != b {
		t.Fatal("whole-map fallback must be key-order independent")
	}
	if !strings.HasPrefix(a, "item:") {
		t.Fatalf("unknown type should use generic tag: %q", a)
	}
}

func TestFingerprintArticleStableAcrossAbstractEdits(t *testing.T) {
	a := identity.Fingerprint("arxiv", "paper", map[string]any{
		"article_id": "2403.01234", "summary": "original abstract",
	})
	b := identity.Fingerprint("arxiv", "paper", map[string]any{
		"article_id": "2403.01234", "summary": "revised abstract",
	})
	if a != b {
		t.Fatal("article fingerprint should key on the article id, not the abstract")
	}
	if !strings.HasPrefix(a, "article:") {
		t.Fatalf("paper should map to the article tag: %q", a)
	}

	byURL := identity.Fingerprint("news", "article", map[string]any{
		"url": "https://example.com/story",
	})
	if !strings.HasPrefix(byURL, "article:") {
		t.Fatalf("url fallback should keep the article tag: %q", byURL)
	}
}

func TestContentHashIgnoresVolatileFields(t *testing.T) {
	a := identity.ContentHash(map[string]any{
		"title": "Draft", "status": "open", "fetched_at": "run-1",
	})
	b := identity.ContentHash(map[string]any{
		"title": "Draft", "status": "open", "fetched_at": "run-2",
	})
	if a != b {
		t.Fatal("content hash must ignore volatile fields")
	}
}

func TestContentHashDetectsEdits(t *testing.T) {
	a := identity.ContentHash(map[string]any{"title": "Draft"})
	b := identity.ContentHash(map[string]any{"title": "Draft v2"})
	if a == b {
		t.Fatal("content hash must change when a substantive field changes")
	}
}

func TestContentHashDropsNulls(t *testing.T) {
	a := identity.ContentHash(map[string]any{"title": "Draft", "body": nil})
	b := identity.ContentHash(map[string]any{"title": "Draft"})
	if a != b {
		t.Fatal("nil fields must not affect the content hash")
	}
}

func TestFingerprintNilRaw(t *testing.T) {
	a := identity.Fingerprint("gmail", "email", nil)
	b := identity.Fingerprint("gmail", "email", nil)
	if a != b || a == "" {
		t.Fatalf("nil raw should still fingerprint deterministically: %q %q", a, b)
	}
}
