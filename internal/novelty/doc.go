// Package novelty classifies incoming items as NEW, UPDATED, REPEAT, or
// LOW_SIGNAL against the per-user memory store.
//
// Batch semantics: items are processed strictly in input order with a
// read-then-write step per item, so a fingerprint appearing twice in one
// batch classifies NEW on its first sighting and REPEAT afterwards. The whole
// batch runs under the user's store lock, making concurrent runs for the same
// user serialize instead of losing updates.
package novelty
