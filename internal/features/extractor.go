package features

import (
	"strings"
	"time"

	"daybrief/internal/brief"
)

// Extractor derives ranking features from items. The zero value is not
// usable; construct with NewExtractor.
type Extractor struct {
	now func() time.Time
}

// NewExtractor builds an extractor using the wall clock.
func NewExtractor() *Extractor {
	return &Extractor{now: time.Now}
}

// WithClock overrides the time source (used in tests).
func (e *Extractor) WithClock(now func() time.Time) *Extractor {
	e.now = now
	return e
}

// Extract computes the five feature scores for an item. FinalScore is left
// zero; the ranker fills it in.
func (e *Extractor) Extract(item *brief.Item, prefs brief.Preferences) brief.RankingScores {
	if item == nil {
		return brief.RankingScores{
			Relevance: 0.3, Urgency: 0.5, Credibility: 0.5, Impact: 0.4, Actionability: 0,
		}
	}
	return brief.RankingScores{
		Relevance:     clamp01(relevance(item, prefs)),
		Urgency:       clamp01(e.urgency(item)),
		Credibility:   clamp01(credibility(item)),
		Impact:        clamp01(impact(item)),
		Actionability: clamp01(actionability(item)),
	}
}

func relevance(item *brief.Item, prefs brief.Preferences) float64 {
	var score float64

	text := strings.ToLower(item.Title + " " + item.Summary)
	if len(prefs.Topics) == 0 {
		score = 0.3
	} else {
		matched := 0
		for _, topic := range prefs.Topics {
			trimmed := strings.ToLower(strings.TrimSpace(topic))
			if trimmed != "" && strings.Contains(text, trimmed) {
				matched++
			}
		}
		score = 0.5 * float64(matched) / float64(len(prefs.Topics))
	}

	if hasEntityMatch(item, brief.EntityPerson, prefs.VIPs) {
		score += 0.3
	}
	if hasEntityMatch(item, brief.EntityProject, prefs.Projects) {
		score += 0.2
	}
	return score
}

func (e *Extractor) urgency(item *brief.Item) float64 {
	now := e.now().UTC()
	switch item.Type {
	case "email":
		age := now.Sub(item.Timestamp)
		switch {
		case age < time.Hour:
			return 0.9
		case age < 4*time.Hour:
			return 0.7
		case age < 24*time.Hour:
			return 0.5
		default:
			return 0.3
		}
	case "event":
		until := item.Timestamp.Sub(now)
		if until < 0 {
			return 0.2
		}
		switch {
		case until < time.Hour:
			return 1.0
		case until < 4*time.Hour:
			return 0.8
		case until < 24*time.Hour:
			return 0.6
		case until < 48*time.Hour:
			return 0.4
		default:
			return 0.2
		}
	case "task":
		text := strings.ToUpper(item.Title + " " + item.Summary)
		switch {
		case strings.Contains(text, "OVERDUE"):
			return 1.0
		case strings.Contains(text, "TODAY"),
			strings.Contains(text, now.Format("2006-01-02")):
			return 0.9
		case strings.Contains(text, "DUE"):
			return 0.6
		default:
			return 0.3
		}
	default:
		return 0.5
	}
}

var sourcePriors = map[string]float64{
	"gmail":    0.9,
	"calendar": 0.95,
	"tasks":    0.9,
	"arxiv":    0.95,
	"news":     0.7,
	"x":        0.5,
	"linkedin": 0.6,
	"podcast":  0.6,
}

func credibility(item *brief.Item) float64 {
	score, ok := sourcePriors[strings.ToLower(item.Source)]
	if !ok {
		score = 0.5
	}
	if item.Type == "email" && strings.Contains(strings.ToLower(item.Summary), "important") {
		score += 0.1
	}
	return score
}

func impact(item *brief.Item) float64 {
	var score float64

	if vips := countEntities(item, brief.EntityPerson); vips > 0 {
		score += min(0.3*float64(vips), 0.6)
	}
	if projects := countEntities(item, brief.EntityProject); projects > 0 {
		score += min(0.2*float64(projects), 0.4)
	}
	if item.Type == "event" {
		switch {
		case item.Attendees >= 5:
			score += 0.3
		case item.Attendees >= 2:
			score += 0.2
		}
	}
	if score == 0 {
		return 0.4
	}
	return score
}

var actionKeywords = []string{
	"please", "need", "required", "urgent", "asap",
	"action", "respond", "reply", "review", "approve",
}

func actionability(item *brief.Item) float64 {
	score := min(0.2*float64(len(item.SuggestedActions)), 0.6)

	switch item.Type {
	case "email":
		score += 0.3
	case "task":
		score += 0.4
	case "event":
		score += 0.2
	}

	text := strings.ToLower(item.Title + " " + item.Summary)
	var keywordBonus float64
	for _, keyword := range actionKeywords {
		if strings.Contains(text, keyword) {
			keywordBonus += 0.1
		}
	}
	score += min(keywordBonus, 0.3)

	return score
}

func hasEntityMatch(item *brief.Item, kind brief.EntityKind, keys []string) bool {
	for _, entity := range item.Entities {
		if entity.Kind != kind {
			continue
		}
		for _, key := range keys {
			if strings.EqualFold(entity.Key, strings.TrimSpace(key)) {
				return true
			}
		}
	}
	return false
}

func countEntities(item *brief.Item, kind brief.EntityKind) int {
	count := 0
	for _, entity := range item.Entities {
		if entity.Kind == kind {
			count++
		}
	}
	return count
}

func clamp01(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}
