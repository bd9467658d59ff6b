package bundles_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"daybrief/internal/brief"
	"daybrief/internal/bundles"
	"daybrief/internal/testsupport"
)

func sampleBundle(briefID, userID string, generatedAt time.Time) *brief.Bundle {
	return &brief.Bundle{
		BriefID:     briefID,
		UserID:      userID,
		GeneratedAt: generatedAt,
		Since:       generatedAt.Add(-24 * time.Hour),
		Summary:     "quiet day",
		TopHighlights: []*brief.Item{
			{ItemRef: "gmail/abc", Source: "gmail", Type: "email", Title: "Budget approval"},
		},
		Modules: map[string]brief.ModuleResult{
			"gmail": {
				Status:   brief.ModuleOK,
				NewCount: 1,
				Items: []*brief.Item{
					{ItemRef: "gmail/abc", Source: "gmail", Type: "email", Title: "Budget approval"},
				},
			},
		},
		RunMetadata: brief.RunMetadata{Status: brief.RunOK, LatencyMS: 1200},
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	store := testsupport.MustOpenBundles(t, testsupport.NewConfig(t))
	ctx := context.Background()

	saved := sampleBundle("b-1", "u1", time.Date(2026, 3, 10, 7, 0, 0, 0, time.UTC))
	if err := store.Save(ctx, saved); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load(ctx, "b-1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.UserID != "u1" || loaded.Summary != "quiet day" {
		t.Fatalf("round trip lost fields: %+v", loaded)
	}
	if item := loaded.FindItem("gmail/abc"); item == nil || item.Title != "Budget approval" {
		t.Fatalf("bundled item missing after round trip")
	}
	if loaded.RunMetadata.Status != brief.RunOK {
		t.Fatalf("unexpected status %s", loaded.RunMetadata.Status)
	}
}

func TestLoadMissingBundle(t *testing.T) {
	store := testsupport.MustOpenBundles(t, testsupport.NewConfig(t))
	if _, err := store.Load(context.Background(), "nope"); !errors.Is(err, bundles.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadLatestPicksNewestPerUser(t *testing.T) {
	store := testsupport.MustOpenBundles(t, testsupport.NewConfig(t))
	ctx := context.Background()
	base := time.Date(2026, 3, 10, 7, 0, 0, 0, time.UTC)

	for i, id := range []string{"b-old", "b-new"} {
		if err := store.Save(ctx, sampleBundle(id, "u1", base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("Save %s failed: %v", id, err)
		}
	}
	if err := store.Save(ctx, sampleBundle("b-other", "u2", base.Add(48*time.Hour))); err != nil {
		t.Fatalf("Save for u2 failed: %v", err)
	}

	latest, err := store.LoadLatest(ctx, "u1")
	if err != nil {
		t.Fatalf("LoadLatest failed: %v", err)
	}
	if latest.BriefID != "b-new" {
		t.Fatalf("expected b-new, got %s", latest.BriefID)
	}
}

func TestSaveReplacesExistingBriefID(t *testing.T) {
	store := testsupport.MustOpenBundles(t, testsupport.NewConfig(t))
	ctx := context.Background()
	when := time.Date(2026, 3, 10, 7, 0, 0, 0, time.UTC)

	first := sampleBundle("b-1", "u1", when)
	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}
	second := sampleBundle("b-1", "u1", when)
	second.Summary = "revised"
	if err := store.Save(ctx, second); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	loaded, err := store.Load(ctx, "b-1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Summary != "revised" {
		t.Fatalf("replacement did not stick: %q", loaded.Summary)
	}
}

func TestListRecentNewestFirst(t *testing.T) {
	store := testsupport.MustOpenBundles(t, testsupport.NewConfig(t))
	ctx := context.Background()
	base := time.Date(2026, 3, 10, 7, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		bundle := sampleBundle("b-"+string(rune('a'+i)), "u1", base.Add(time.Duration(i)*time.Hour))
		if err := store.Save(ctx, bundle); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
	}

	summaries, err := store.ListRecent(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("ListRecent failed: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(summaries))
	}
	if summaries[0].BriefID != "b-c" || summaries[1].BriefID != "b-b" {
		t.Fatalf("unexpected order: %s, %s", summaries[0].BriefID, summaries[1].BriefID)
	}
}

func TestSaveRejectsIncompleteBundle(t *testing.T) {
	store := testsupport.MustOpenBundles(t, testsupport.NewConfig(t))
	if err := store.Save(context.Background(), &brief.Bundle{}); err == nil {
		t.Fatal("expected error for bundle without IDs")
	}
	if err := store.Save(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil bundle")
	}
}
