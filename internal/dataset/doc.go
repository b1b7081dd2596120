// Package dataset merges catalog resolutions back onto the cleaned viewing
// history and writes the analysis-ready artifacts.
//
// The merge is a strict left join: every cleaned viewing event produces
// exactly one output row in input order, with catalog-derived columns empty
// when the key had no match or failed. Derived calendar, quality, and
// media-kind fields are computed here, and the aggregate extracts are
// projections over the same table.
package dataset
