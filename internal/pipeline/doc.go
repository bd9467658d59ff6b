// Package pipeline drives brief generation end to end: parallel source
// fetches, normalization, novelty classification, ranking, selection,
// synthesis, and packaging into a persisted bundle. The run always terminates
// with a bundle; per-source failures are folded into the bundle's run
// metadata instead of aborting.
package pipeline
