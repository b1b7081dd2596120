package dataset

import (
	"sort"
	"strconv"
)

// Extract is one secondary aggregate table, a convenience projection over the
// enriched dataset rather than independently maintained state.
type Extract struct {
	Name   string
	Header []string
	Rows   [][]string
}

// RatingByKind computes the mean catalog rating per media kind over matched
// rows.
func RatingByKind(events []EnrichedEvent) Extract {
	sums := map[string]float64{}
	counts := map[string]int{}
	for _, event := range events {
		if event.Match == nil {
			continue
		}
		sums[event.Match.MediaType] += event.Match.VoteAverage
		counts[event.Match.MediaType]++
	}

	kinds := sortedKeys(counts)
	rows := make([][]string, 0, len(kinds))
	for _, kind := range kinds {
		mean := sums[kind] / float64(counts[kind])
		rows = append(rows, []string{kind, formatMean(mean), strconv.Itoa(counts[kind])})
	}
	return Extract{
		Name:   "rating_by_kind",
		Header: []string{"media_type", "mean_vote_average", "views"},
		Rows:   rows,
	}
}

// QualityByKind counts views per (media kind, quality tier).
func QualityByKind(events []EnrichedEvent) Extract {
	type group struct{ kind, tier string }
	counts := map[group]int{}
	for _, event := range events {
		if event.Match == nil {
			continue
		}
		counts[group{event.Match.MediaType, event.QualityTier}]++
	}

	groups := make([]group, 0, len(counts))
	for g := range counts {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].kind != groups[j].kind {
			return groups[i].kind < groups[j].kind
		}
		return groups[i].tier < groups[j].tier
	})

	rows := make([][]string, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, []string{g.kind, g.tier, strconv.Itoa(counts[g])})
	}
	return Extract{
		Name:   "quality_by_kind",
		Header: []string{"media_type", "quality_tier", "views"},
		Rows:   rows,
	}
}

// GenreLong explodes the genre list into long format: one row per
// (event, genre) pair. Events without genres contribute no rows.
func GenreLong(events []EnrichedEvent) Extract {
	var rows [][]string
	for _, event := range events {
		if event.Match == nil {
			continue
		}
		for _, genre := range event.Match.Genres {
			rows = append(rows, []string{
				genre,
				event.Match.Title,
				event.Match.MediaType,
				event.WatchedAt.Format(watchedAtLayout),
				strconv.Itoa(event.Calendar.Year),
				formatFloat(event.Match.Popularity),
				formatFloat(event.Match.VoteAverage),
			})
		}
	}
	return Extract{
		Name:   "genre_long",
		Header: []string{"genre", "tmdb_title", "media_type", "watched_at", "year", "popularity", "vote_average"},
		Rows:   rows,
	}
}

// GenrePopularity ranks genres by view count with mean popularity and rating,
// most-watched first; ties break alphabetically for deterministic output.
func GenrePopularity(events []EnrichedEvent) Extract {
	counts := map[string]int{}
	popularitySums := map[string]float64{}
	ratingSums := map[string]float64{}
	for _, event := range events {
		if event.Match == nil {
			continue
		}
		for _, genre := range event.Match.Genres {
			counts[genre]++
			popularitySums[genre] += event.Match.Popularity
			ratingSums[genre] += event.Match.VoteAverage
		}
	}

	genres := sortedKeys(counts)
	sort.SliceStable(genres, func(i, j int) bool {
		return counts[genres[i]] > counts[genres[j]]
	})

	rows := make([][]string, 0, len(genres))
	for _, genre := range genres {
		n := float64(counts[genre])
		rows = append(rows, []string{
			genre,
			strconv.Itoa(counts[genre]),
			formatMean(popularitySums[genre] / n),
			formatMean(ratingSums[genre] / n),
		})
	}
	return Extract{
		Name:   "genre_popularity",
		Header: []string{"genre", "views", "mean_popularity", "mean_vote_average"},
		Rows:   rows,
	}
}

// Extracts computes every secondary extract over the enriched dataset.
func Extracts(events []EnrichedEvent) []Extract {
	return []Extract{
		RatingByKind(events),
		QualityByKind(events),
		GenreLong(events),
		GenrePopularity(events),
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func formatMean(value float64) string {
	return strconv.FormatFloat(value, 'f', 4, 64)
}
