package brief

import "time"

// EntityKind classifies a mention attached to an item.
type EntityKind string

const (
	EntityPerson  EntityKind = "person"
	EntityProject EntityKind = "project"
	EntityTopic   EntityKind = "topic"
)

// Entity is a {kind, key} mention extracted from an item's text.
type Entity struct {
	Kind EntityKind `json:"kind"`
	Key  string     `json:"key"`
}

// NoveltyLabel classifies how an item relates to what the user has seen.
type NoveltyLabel string

const (
	NoveltyNew       NoveltyLabel = "NEW"
	NoveltyUpdated   NoveltyLabel = "UPDATED"
	NoveltyRepeat    NoveltyLabel = "REPEAT"
	NoveltyLowSignal NoveltyLabel = "LOW_SIGNAL"
)

// NoveltyInfo records an item's novelty classification for one user.
type NoveltyInfo struct {
	Label     NoveltyLabel `json:"label"`
	Reason    string       `json:"reason"`
	FirstSeen time.Time    `json:"first_seen"`
	LastSeen  *time.Time   `json:"last_seen,omitempty"`
	SeenCount int          `json:"seen_count"`
}

// RankingScores holds the five feature scores and their weighted combination.
// All values lie in [0,1]; FinalScore is a convex combination of the five
// features.
type RankingScores struct {
	Relevance     float64 `json:"relevance"`
	Urgency       float64 `json:"urgency"`
	Credibility   float64 `json:"credibility"`
	Impact        float64 `json:"impact"`
	Actionability float64 `json:"actionability"`
	FinalScore    float64 `json:"final_score"`
}

// Features returns the five feature scores in canonical order.
func (s RankingScores) Features() [5]float64 {
	return [5]float64{s.Relevance, s.Urgency, s.Credibility, s.Impact, s.Actionability}
}

// Item is the canonical unit flowing through the pipeline. It is created once
// by normalization, then annotated in place by the novelty detector and the
// ranker; after bundling it is never mutated.
type Item struct {
	ItemRef          string         `json:"item_ref"`
	Source           string         `json:"source"`
	Type             string         `json:"type"`
	Timestamp        time.Time      `json:"timestamp"`
	Title            string         `json:"title"`
	Summary          string         `json:"summary"`
	Entities         []Entity       `json:"entities,omitempty"`
	Novelty          *NoveltyInfo   `json:"novelty,omitempty"`
	Ranking          *RankingScores `json:"ranking,omitempty"`
	Evidence         []string       `json:"evidence,omitempty"`
	SuggestedActions []string       `json:"suggested_actions,omitempty"`
	Attendees        int            `json:"attendees,omitempty"`

	// Fingerprint and ContentHash identify the item for novelty detection.
	Fingerprint string `json:"fingerprint"`
	ContentHash string `json:"content_hash"`
}

// FinalScore returns the ranked score, or zero when the item has not been
// scored yet.
func (i *Item) FinalScore() float64 {
	if i == nil || i.Ranking == nil {
		return 0
	}
	return i.Ranking.FinalScore
}

// HasEntity reports whether the item mentions the given kind/key pair.
func (i *Item) HasEntity(kind EntityKind, key string) bool {
	for _, e := range i.Entities {
		if e.Kind == kind && e.Key == key {
			return true
		}
	}
	return false
}

// Preferences captures the per-user interests that drive feature extraction
// and connector queries.
type Preferences struct {
	Topics   []string `json:"topics,omitempty"`
	VIPs     []string `json:"vips,omitempty"`
	Projects []string `json:"projects,omitempty"`
}

// FeedbackAction enumerates recognized user reactions to a brief item.
type FeedbackAction string

const (
	FeedbackSave         FeedbackAction = "save"
	FeedbackThumbUp      FeedbackAction = "thumb_up"
	FeedbackOpen         FeedbackAction = "open"
	FeedbackThumbDown    FeedbackAction = "thumb_down"
	FeedbackDismiss      FeedbackAction = "dismiss"
	FeedbackLessLikeThis FeedbackAction = "less_like_this"
)

// FeedbackEvent records one user reaction to a brief item.
type FeedbackEvent struct {
	UserID    string         `json:"user_id"`
	ItemRef   string         `json:"item_ref"`
	Action    FeedbackAction `json:"action"`
	CreatedAt time.Time      `json:"created_at"`
}
