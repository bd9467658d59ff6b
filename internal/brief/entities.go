package brief

import "strings"

// ExtractEntities finds configured people, projects, and topics mentioned in
// an item's text. Matching is case-insensitive substring search — a
// best-effort heuristic feeding the ranking features, not real NLP.
func ExtractEntities(text string, prefs Preferences) []Entity {
	lowered := strings.ToLower(text)
	var entities []Entity

	appendMatches := func(kind EntityKind, keys []string) {
		for _, key := range keys {
			trimmed := strings.TrimSpace(key)
			if trimmed == "" {
				continue
			}
			if strings.Contains(lowered, strings.ToLower(trimmed)) {
				entities = append(entities, Entity{Kind: kind, Key: trimmed})
			}
		}
	}

	appendMatches(EntityPerson, prefs.VIPs)
	appendMatches(EntityProject, prefs.Projects)
	appendMatches(EntityTopic, prefs.Topics)

	return entities
}
