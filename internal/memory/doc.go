// Package memory persists per-user item sightings keyed by fingerprint,
// alongside feedback events and learning training samples. Writes are
// transactional; batches for one user serialize through a per-user lock so
// concurrent runs cannot lose updates.
package memory
