// Package identity derives stable fingerprints and content hashes for raw
// source items. Fingerprints key novelty detection; content hashes detect
// edits to an already-seen item.
package identity
