// Package services defines shared failure-classification utilities consumed
// by the enrichment pipeline and external integrations.
//
// Key responsibilities:
//   - Structured error markers plus the Wrap helper that keep stage and
//     operation context attached to failures.
//   - Transient-failure detection used by the catalog retry loop.
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, retries, reporting) stays uniform across the tool.
package services
