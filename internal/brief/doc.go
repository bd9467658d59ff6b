// Package brief defines the canonical data model flowing through the
// pipeline: normalized items, novelty labels, ranking scores, per-source
// module results, and the terminal BriefBundle artifact.
package brief
