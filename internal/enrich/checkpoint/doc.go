// Package checkpoint persists resolved search keys between runs so an
// interrupted or partially failed enrichment can resume without re-querying
// the catalog for keys it already settled.
package checkpoint
