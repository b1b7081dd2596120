// Package enrich resolves viewing-history search keys against the external
// catalog.
//
// The Matcher owns one key's lifecycle: multi search, best-candidate
// selection, details fetch, retry on transient failures, and pacing against
// the catalog rate limit. The Orchestrator fans out over the distinct key set,
// reuses checkpointed results from earlier runs, partitions outcomes into
// matched / no-match / failed, and persists the failed keys for later retry.
package enrich
