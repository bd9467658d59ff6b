package novelty

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"daybrief/internal/brief"
	"daybrief/internal/logging"
	"daybrief/internal/memory"
)

// Detector labels items by comparing their fingerprints and content hashes
// against persisted per-user memory.
type Detector struct {
	store  *memory.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewDetector constructs a detector over the given memory store.
func NewDetector(store *memory.Store, logger *slog.Logger) *Detector {
	return &Detector{
		store:  store,
		logger: logging.NewComponentLogger(logger, "novelty"),
		now:    time.Now,
	}
}

// WithClock overrides the detector's time source (used in tests).
func (d *Detector) WithClock(now func() time.Time) *Detector {
	d.now = now
	return d
}

// DetectBatch classifies each item in input order, mutating item.Novelty in
// place. Classification depends only on the state before the batch started:
// the same fingerprint appearing twice in one batch classifies identically
// both times. Writes are still applied per item in input order, so the
// persisted seen count reflects every occurrence.
func (d *Detector) DetectBatch(ctx context.Context, userID string, items []*brief.Item) error {
	if len(items) == 0 {
		return nil
	}

	release := d.store.LockUser(userID)
	defer release()

	d.logger.Debug("classifying batch",
		logging.String(logging.FieldUserID, userID),
		logging.Int("items", len(items)),
	)

	// Lazily loaded pre-batch snapshot per fingerprint. The first load for a
	// fingerprint happens before its first write, so later duplicates see the
	// same pre-batch record (or absence).
	preBatch := make(map[string]*memory.ItemMemory, len(items))
	current := make(map[string]*memory.ItemMemory, len(items))
	loaded := make(map[string]bool, len(items))

	for _, item := range items {
		if item == nil {
			continue
		}
		if !loaded[item.Fingerprint] {
			record, err := d.store.Get(ctx, userID, item.Fingerprint)
			if err != nil {
				return fmt.Errorf("detect %s: %w", item.ItemRef, err)
			}
			loaded[item.Fingerprint] = true
			preBatch[item.Fingerprint] = record
			current[item.Fingerprint] = record
		}

		d.classify(item, preBatch[item.Fingerprint])

		written, err := d.writeSighting(ctx, userID, item, current[item.Fingerprint])
		if err != nil {
			return fmt.Errorf("detect %s: %w", item.ItemRef, err)
		}
		current[item.Fingerprint] = written
	}
	return nil
}

// classify labels the item against the pre-batch record.
func (d *Detector) classify(item *brief.Item, record *memory.ItemMemory) {
	now := d.now().UTC()
	if record == nil {
		item.Novelty = &brief.NoveltyInfo{
			Label:     brief.NoveltyNew,
			Reason:    "first sighting",
			FirstSeen: now,
			SeenCount: 1,
		}
		return
	}

	seenCount := record.SeenCount + 1
	if record.ContentHash == item.ContentHash {
		// The reason carries no count: SeenCount here is relative to the
		// pre-batch record, while the persisted count keeps advancing for
		// in-batch duplicates.
		item.Novelty = &brief.NoveltyInfo{
			Label:     brief.NoveltyRepeat,
			Reason:    "unchanged since last sighting",
			FirstSeen: record.FirstSeen,
			LastSeen:  &now,
			SeenCount: seenCount,
		}
		return
	}
	item.Novelty = &brief.NoveltyInfo{
		Label:     brief.NoveltyUpdated,
		Reason:    "content changed since last sighting",
		FirstSeen: record.FirstSeen,
		LastSeen:  &now,
		SeenCount: seenCount,
	}
}

// writeSighting records one occurrence against the current persisted state
// and returns the record as written.
func (d *Detector) writeSighting(ctx context.Context, userID string, item *brief.Item, record *memory.ItemMemory) (*memory.ItemMemory, error) {
	now := d.now().UTC()
	if record == nil {
		record = &memory.ItemMemory{
			UserID:      userID,
			Fingerprint: item.Fingerprint,
			ContentHash: item.ContentHash,
			FirstSeen:   now,
			LastSeen:    now,
			SeenCount:   1,
			Source:      item.Source,
			ItemType:    item.Type,
			Title:       item.Title,
		}
		if err := d.store.Insert(ctx, record); err != nil {
			return nil, err
		}
		return record, nil
	}

	record.SeenCount++
	record.LastSeen = now
	record.ContentHash = item.ContentHash
	record.Title = item.Title
	if err := d.store.Update(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// MarkLowSignal downgrades an item's classification irrespective of memory
// state. Callers apply this for items external policy deems low-value.
func MarkLowSignal(item *brief.Item, reason string) {
	if item == nil {
		return
	}
	if item.Novelty == nil {
		item.Novelty = &brief.NoveltyInfo{}
	}
	item.Novelty.Label = brief.NoveltyLowSignal
	item.Novelty.Reason = reason
}
