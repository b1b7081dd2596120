// Package history loads and cleans the streaming viewing-history export.
//
// It parses the Title/Date CSV, drops rows whose title or date cannot be
// recovered, and derives the canonical search key used to join viewing events
// with catalog metadata.
package history
