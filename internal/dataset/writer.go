package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"streamlens/internal/fileutil"
	"streamlens/internal/services"
)

// enrichedHeader is the column order of the canonical processed dataset.
var enrichedHeader = []string{
	"raw_title", "watched_at", "search_key",
	"tmdb_id", "media_type", "tmdb_title", "genres",
	"popularity", "vote_average", "vote_count",
	"release_date", "runtime_minutes", "poster_path",
	"year", "month_num", "month_name", "day_of_month",
	"weekday_num", "weekday_name", "hour", "iso_week",
	"quality", "quality_tier", "days_from_release",
	"is_series", "is_film", "est_watched_minutes",
}

const watchedAtLayout = "2006-01-02 15:04:05"

// WriteEnriched writes the canonical processed dataset, replacing the target
// atomically so an interrupted run never leaves a partial file.
func WriteEnriched(path string, events []EnrichedEvent) error {
	rows := make([][]string, 0, len(events))
	for _, event := range events {
		rows = append(rows, enrichedRow(event))
	}
	return WriteCSV(path, enrichedHeader, rows)
}

func enrichedRow(event EnrichedEvent) []string {
	row := []string{
		event.RawTitle,
		event.WatchedAt.Format(watchedAtLayout),
		event.SearchKey,
	}
	if match := event.Match; match != nil {
		row = append(row,
			strconv.FormatInt(match.TMDBID, 10),
			match.MediaType,
			match.Title,
			match.GenresJoined(),
			formatFloat(match.Popularity),
			formatFloat(match.VoteAverage),
			strconv.FormatInt(match.VoteCount, 10),
			match.ReleaseDate,
			strconv.Itoa(match.RuntimeMinutes),
			match.PosterPath,
		)
	} else {
		// Unmatched and failed keys leave catalog columns empty, not zero.
		row = append(row, "", "", "", "", "", "", "", "", "", "")
	}
	row = append(row,
		strconv.Itoa(event.Calendar.Year),
		strconv.Itoa(event.Calendar.MonthNum),
		event.Calendar.MonthName,
		strconv.Itoa(event.Calendar.DayOfMonth),
		strconv.Itoa(event.Calendar.WeekdayNum),
		event.Calendar.WeekdayName,
		strconv.Itoa(event.Calendar.Hour),
		strconv.Itoa(event.Calendar.ISOWeek),
		event.QualityCategory,
		event.QualityTier,
		formatOptionalInt(event.DaysFromRelease),
		formatBool(event.IsSeries),
		formatBool(event.IsFilm),
		formatOptionalInt(event.EstWatchedMinutes),
	)
	return row
}

// WriteCSV renders a header plus rows and writes the file atomically.
func WriteCSV(path string, header []string, rows [][]string) error {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(header); err != nil {
		return services.Wrap(nil, "dataset", "write", path, err)
	}
	for _, row := range rows {
		if len(row) != len(header) {
			return services.Wrap(services.ErrValidation, "dataset", "write",
				fmt.Sprintf("%s: row has %d columns, header has %d", path, len(row), len(header)), nil)
		}
		if err := writer.Write(row); err != nil {
			return services.Wrap(nil, "dataset", "write", path, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return services.Wrap(nil, "dataset", "write", path, err)
	}
	if err := fileutil.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return services.Wrap(nil, "dataset", "write", path, err)
	}
	return nil
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func formatBool(value bool) string {
	if value {
		return "true"
	}
	return "false"
}

func formatOptionalInt(value *int) string {
	if value == nil {
		return ""
	}
	return strconv.Itoa(*value)
}
