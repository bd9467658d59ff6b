package novelty_test

import (
	"context"
	"testing"
	"time"

	"daybrief/internal/brief"
	"daybrief/internal/logging"
	"daybrief/internal/novelty"
	"daybrief/internal/testsupport"
)

func newDetector(t *testing.T) *novelty.Detector {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenMemory(t, cfg)
	return novelty.NewDetector(store, logging.NewNop())
}

func mailItem(title string) *brief.Item {
	raw := map[string]any{"message_id": "m-1", "subject": title, "snippet": "body"}
	item, err := brief.Normalize("gmail", "email", raw, brief.Preferences{}, time.Now())
	if err != nil {
		panic(err)
	}
	return item
}

func TestFirstSightingIsNew(t *testing.T) {
	detector := newDetector(t)
	item := mailItem("Quarterly review")

	if err := detector.DetectBatch(context.Background(), "u1", []*brief.Item{item}); err != nil {
		t.Fatalf("DetectBatch failed: %v", err)
	}
	if item.Novelty == nil || item.Novelty.Label != brief.NoveltyNew {
		t.Fatalf("expected NEW, got %#v", item.Novelty)
	}
	if item.Novelty.SeenCount != 1 {
		t.Fatalf("expected seen count 1, got %d", item.Novelty.SeenCount)
	}
}

func TestSecondSightingIsRepeat(t *testing.T) {
	detector := newDetector(t)
	ctx := context.Background()

	first := mailItem("Quarterly review")
	if err := detector.DetectBatch(ctx, "u1", []*brief.Item{first}); err != nil {
		t.Fatalf("first DetectBatch failed: %v", err)
	}

	second := mailItem("Quarterly review")
	if err := detector.DetectBatch(ctx, "u1", []*brief.Item{second}); err != nil {
		t.Fatalf("second DetectBatch failed: %v", err)
	}
	if second.Novelty.Label != brief.NoveltyRepeat {
		t.Fatalf("expected REPEAT, got %s", second.Novelty.Label)
	}
	if second.Novelty.SeenCount != 2 {
		t.Fatalf("expected seen count 2, got %d", second.Novelty.SeenCount)
	}
}

func TestChangedContentIsUpdated(t *testing.T) {
	detector := newDetector(t)
	ctx := context.Background()

	makeTask := func(title string) *brief.Item {
		item, err := brief.Normalize("tasks", "task", map[string]any{
			"task_id": "t-1", "title": title,
		}, brief.Preferences{}, time.Now())
		if err != nil {
			t.Fatalf("Normalize failed: %v", err)
		}
		return item
	}

	first := makeTask("Draft")
	if err := detector.DetectBatch(ctx, "u1", []*brief.Item{first}); err != nil {
		t.Fatalf("first DetectBatch failed: %v", err)
	}

	second := makeTask("Draft v2")
	if first.Fingerprint != second.Fingerprint {
		t.Fatalf("task id should pin the fingerprint: %q vs %q", first.Fingerprint, second.Fingerprint)
	}
	if err := detector.DetectBatch(ctx, "u1", []*brief.Item{second}); err != nil {
		t.Fatalf("second DetectBatch failed: %v", err)
	}
	if second.Novelty.Label != brief.NoveltyUpdated {
		t.Fatalf("expected UPDATED, got %s", second.Novelty.Label)
	}
}

func TestDuplicateFingerprintWithinBatch(t *testing.T) {
	detector := newDetector(t)
	ctx := context.Background()

	// Classification depends only on pre-batch state, so in-batch duplicates
	// classify identically; both sightings are still persisted.
	first := mailItem("Same mail")
	duplicate := mailItem("Same mail")
	if err := detector.DetectBatch(ctx, "u1", []*brief.Item{first, duplicate}); err != nil {
		t.Fatalf("DetectBatch failed: %v", err)
	}
	if first.Novelty.Label != brief.NoveltyNew {
		t.Fatalf("first duplicate should be NEW, got %s", first.Novelty.Label)
	}
	if duplicate.Novelty.Label != brief.NoveltyNew {
		t.Fatalf("in-batch duplicate should also be NEW, got %s", duplicate.Novelty.Label)
	}

	// The next batch sees both prior sightings.
	later := mailItem("Same mail")
	if err := detector.DetectBatch(ctx, "u1", []*brief.Item{later}); err != nil {
		t.Fatalf("second DetectBatch failed: %v", err)
	}
	if later.Novelty.Label != brief.NoveltyRepeat {
		t.Fatalf("expected REPEAT in the following batch, got %s", later.Novelty.Label)
	}
	if later.Novelty.SeenCount != 3 {
		t.Fatalf("both in-batch writes must count, got seen count %d", later.Novelty.SeenCount)
	}
}

func TestRepeatReasonIdenticalForInBatchDuplicates(t *testing.T) {
	detector := newDetector(t)
	ctx := context.Background()

	seed := mailItem("Weekly digest")
	if err := detector.DetectBatch(ctx, "u1", []*brief.Item{seed}); err != nil {
		t.Fatalf("seed DetectBatch failed: %v", err)
	}

	// Both duplicates classify from pre-batch state, so the reason must not
	// carry a count the ongoing writes would make stale.
	first := mailItem("Weekly digest")
	second := mailItem("Weekly digest")
	if err := detector.DetectBatch(ctx, "u1", []*brief.Item{first, second}); err != nil {
		t.Fatalf("DetectBatch failed: %v", err)
	}
	for i, item := range []*brief.Item{first, second} {
		if item.Novelty.Label != brief.NoveltyRepeat {
			t.Fatalf("duplicate %d: expected REPEAT, got %s", i, item.Novelty.Label)
		}
		if item.Novelty.Reason != "unchanged since last sighting" {
			t.Fatalf("duplicate %d: unexpected reason %q", i, item.Novelty.Reason)
		}
	}
}

func TestBatchPreservesOrderAndClassifiesEveryItem(t *testing.T) {
	detector := newDetector(t)

	items := make([]*brief.Item, 0, 5)
	for i := 0; i < 5; i++ {
		raw := map[string]any{"message_id": string(rune('a' + i)), "subject": "subject"}
		item, err := brief.Normalize("gmail", "email", raw, brief.Preferences{}, time.Now())
		if err != nil {
			t.Fatalf("Normalize failed: %v", err)
		}
		items = append(items, item)
	}
	refs := make([]string, len(items))
	for i, item := range items {
		refs[i] = item.ItemRef
	}

	if err := detector.DetectBatch(context.Background(), "u1", items); err != nil {
		t.Fatalf("DetectBatch failed: %v", err)
	}
	for i, item := range items {
		if item.ItemRef != refs[i] {
			t.Fatalf("batch reordered at %d", i)
		}
		if item.Novelty == nil {
			t.Fatalf("item %d not classified", i)
		}
	}
}

func TestUserIsolation(t *testing.T) {
	detector := newDetector(t)
	ctx := context.Background()

	forU1 := mailItem("Shared mail")
	if err := detector.DetectBatch(ctx, "u1", []*brief.Item{forU1}); err != nil {
		t.Fatalf("DetectBatch u1 failed: %v", err)
	}
	forU2 := mailItem("Shared mail")
	if err := detector.DetectBatch(ctx, "u2", []*brief.Item{forU2}); err != nil {
		t.Fatalf("DetectBatch u2 failed: %v", err)
	}
	if forU1.Novelty.Label != brief.NoveltyNew || forU2.Novelty.Label != brief.NoveltyNew {
		t.Fatalf("both users should see NEW independently: %s / %s",
			forU1.Novelty.Label, forU2.Novelty.Label)
	}
}

func TestMarkLowSignalOverridesLabel(t *testing.T) {
	item := mailItem("Noise")
	item.Novelty = &brief.NoveltyInfo{Label: brief.NoveltyNew}
	novelty.MarkLowSignal(item, "muted thread")
	if item.Novelty.Label != brief.NoveltyLowSignal {
		t.Fatalf("expected LOW_SIGNAL, got %s", item.Novelty.Label)
	}
	if item.Novelty.Reason != "muted thread" {
		t.Fatalf("unexpected reason: %q", item.Novelty.Reason)
	}
}
