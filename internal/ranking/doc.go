// Package ranking turns feature scores into a deterministic ordering and
// applies the highlight, per-module, and total selection caps. Weights always
// form a convex combination; selection is stable and idempotent.
package ranking
