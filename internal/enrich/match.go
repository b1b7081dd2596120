package enrich

import "strings"

// Status classifies the outcome of resolving one search key.
type Status string

const (
	// StatusMatched means the catalog returned a usable series or film.
	StatusMatched Status = "matched"
	// StatusNoMatch means the catalog had no series/film candidate. This is
	// a normal outcome, not a failure.
	StatusNoMatch Status = "nomatch"
	// StatusFailed means lookups exhausted their retry budget.
	StatusFailed Status = "failed"
)

// CatalogMatch holds the metadata resolved for one search key.
type CatalogMatch struct {
	TMDBID         int64
	MediaType      string
	Title          string
	Genres         []string
	Popularity     float64
	VoteAverage    float64
	VoteCount      int64
	ReleaseDate    string
	RuntimeMinutes int
	PosterPath     string
}

// GenresJoined renders the genre list the way the dataset stores it.
func (m *CatalogMatch) GenresJoined() string {
	return strings.Join(m.Genres, ", ")
}

// Resolution pairs a search key with its outcome. Match is non-nil only when
// Status is StatusMatched; Failure carries the final error text for failed
// keys.
type Resolution struct {
	Key     string
	Status  Status
	Match   *CatalogMatch
	Failure string
}
