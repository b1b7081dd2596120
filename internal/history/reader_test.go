package history

import (
	"strings"
	"testing"
	"time"
)

func TestParseCleansRows(t *testing.T) {
	doc := strings.Join([]string{
		"Title,Date",
		`"Stranger Things: Season 1","1/2/23"`,
		`"Stranger Things: Season 2","1/5/23"`,
		`"Heat","2023-03-10"`,
		`"","1/9/23"`,
		`"No Date Show",""`,
		`"Bad Date Show","not a date"`,
	}, "\n")

	result, err := Parse(strings.NewReader(doc), "")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(result.Events) != 3 {
		t.Fatalf("expected 3 surviving events, got %d", len(result.Events))
	}
	if result.Dropped != 3 {
		t.Fatalf("expected 3 dropped rows, got %d", result.Dropped)
	}
	if got := result.Events[0].WatchedAt; got.Year() != 2023 || got.Month() != time.January || got.Day() != 2 {
		t.Fatalf("first event date parsed wrong: %v", got)
	}
}

func TestParseRequiresColumns(t *testing.T) {
	if _, err := Parse(strings.NewReader("Name,When\nfoo,1/2/23\n"), ""); err == nil {
		t.Fatal("expected error for missing Title/Date columns")
	}
}

func TestParseEmptyFile(t *testing.T) {
	if _, err := Parse(strings.NewReader(""), ""); err == nil {
		t.Fatal("expected error for empty file")
	}
}

func TestParseStrictFormatFirst(t *testing.T) {
	// 02/03 is ambiguous; the configured day-first format must win.
	result, err := Parse(strings.NewReader("Title,Date\nShow,02/03/2023\n"), "02/01/2006")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := result.Events[0].WatchedAt; got.Month() != time.March || got.Day() != 2 {
		t.Fatalf("strict format not preferred: %v", got)
	}
}

func TestDistinctKeysOrderAndDedup(t *testing.T) {
	events := []ViewingEvent{
		{RawTitle: "Stranger Things: Season 1"},
		{RawTitle: "Heat"},
		{RawTitle: "Stranger Things: Season 2"},
		{RawTitle: ":"},
	}
	keys := DistinctKeys(events)
	if len(keys) != 2 || keys[0] != "Stranger Things" || keys[1] != "Heat" {
		t.Fatalf("unexpected keys: %v", keys)
	}
}
