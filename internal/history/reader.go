package history

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"streamlens/internal/services"
)

// ViewingEvent is one watch event from the history export. Immutable once
// loaded; the source of truth for the time series.
type ViewingEvent struct {
	RawTitle  string
	WatchedAt time.Time
}

// Key returns the event's canonical search key.
func (e ViewingEvent) Key() string {
	return SearchKey(e.RawTitle)
}

// LoadResult carries the cleaned events plus the count of rows dropped for
// missing or unparseable titles and dates.
type LoadResult struct {
	Events  []ViewingEvent
	Dropped int
}

// dateLayouts is the fallback chain tried when no strict format is
// configured. Netflix exports use month-first short dates; ISO and
// datetime forms cover other services.
var dateLayouts = []string{
	"1/2/06",
	"1/2/2006",
	"2006-01-02",
	"02/01/2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// Load reads the viewing-history CSV at path. The file must carry a header
// row with Title and Date columns; anything else is a precondition failure.
// Rows that cannot be parsed are dropped and counted, never fatal.
func Load(path, dateFormat string) (*LoadResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "history", "open", path, err)
	}
	defer file.Close()

	return Parse(file, dateFormat)
}

// Parse reads viewing events from r. Split out from Load so tests can feed
// in-memory documents.
func Parse(r io.Reader, dateFormat string) (*LoadResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, services.Wrap(services.ErrValidation, "history", "parse", "empty history file", nil)
		}
		return nil, services.Wrap(services.ErrValidation, "history", "parse", "read header", err)
	}

	titleIdx, dateIdx := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "title":
			titleIdx = i
		case "date":
			dateIdx = i
		}
	}
	if titleIdx < 0 || dateIdx < 0 {
		return nil, services.Wrap(services.ErrValidation, "history", "parse",
			fmt.Sprintf("history file must contain Title and Date columns, got %v", header), nil)
	}

	result := &LoadResult{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Malformed row, recover locally.
			result.Dropped++
			continue
		}
		if titleIdx >= len(record) || dateIdx >= len(record) {
			result.Dropped++
			continue
		}
		title := strings.TrimSpace(record[titleIdx])
		watched, ok := parseDate(record[dateIdx], dateFormat)
		if title == "" || !ok {
			result.Dropped++
			continue
		}
		result.Events = append(result.Events, ViewingEvent{RawTitle: title, WatchedAt: watched})
	}
	return result, nil
}

// parseDate tries the strict format first when configured, then falls back to
// the generic layout chain.
func parseDate(raw, dateFormat string) (time.Time, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, false
	}
	if dateFormat != "" {
		if parsed, err := time.Parse(dateFormat, value); err == nil {
			return parsed, true
		}
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// DistinctKeys returns the distinct non-empty search keys across events in
// order of first occurrence.
func DistinctKeys(events []ViewingEvent) []string {
	seen := make(map[string]struct{}, len(events))
	keys := make([]string, 0, len(events))
	for _, event := range events {
		key := event.Key()
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	return keys
}
