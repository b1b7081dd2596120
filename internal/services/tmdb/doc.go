// Package tmdb provides a typed client for The Movie Database API, covering
// the multi search and detail endpoints the enrichment pipeline consumes.
package tmdb
