// Package features computes the five bounded ranking signals for an item:
// relevance, urgency, credibility, impact, and actionability. Extraction is
// pure given a clock and never fails — malformed fields degrade to the type
// default for the signal.
package features
