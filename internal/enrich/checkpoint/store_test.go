package checkpoint

import (
	"context"
	"path/filepath"
	"testing"

	"streamlens/internal/enrich"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "checkpoint.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSaveAndLookupMatched(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	res := enrich.Resolution{
		Key:    "Stranger Things",
		Status: enrich.StatusMatched,
		Match: &enrich.CatalogMatch{
			TMDBID:         66732,
			MediaType:      "tv",
			Title:          "Stranger Things",
			Genres:         []string{"Drama", "Sci-Fi & Fantasy"},
			Popularity:     450.5,
			VoteAverage:    8.6,
			VoteCount:      12000,
			ReleaseDate:    "2016-07-15",
			RuntimeMinutes: 50,
		},
	}
	if err := store.Save(ctx, res, "run-1"); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, ok, err := store.Lookup(ctx, "Stranger Things")
	if err != nil || !ok {
		t.Fatalf("Lookup: ok=%v err=%v", ok, err)
	}
	if got.Status != enrich.StatusMatched || got.Match == nil {
		t.Fatalf("unexpected resolution: %+v", got)
	}
	if got.Match.TMDBID != 66732 || got.Match.VoteAverage != 8.6 {
		t.Fatalf("match fields lost: %+v", got.Match)
	}
	if len(got.Match.Genres) != 2 || got.Match.Genres[1] != "Sci-Fi & Fantasy" {
		t.Fatalf("genres round trip failed: %v", got.Match.Genres)
	}
}

func TestLookupMissingKey(t *testing.T) {
	store := newStore(t)
	if _, ok, err := store.Lookup(context.Background(), "absent"); err != nil || ok {
		t.Fatalf("expected clean miss, ok=%v err=%v", ok, err)
	}
}

func TestSaveOverwritesFailedWithMatch(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	failed := enrich.Resolution{Key: "Dark", Status: enrich.StatusFailed, Failure: "timeout"}
	if err := store.Save(ctx, failed, "run-1"); err != nil {
		t.Fatalf("Save failed resolution: %v", err)
	}

	keys, err := store.FailedKeys(ctx)
	if err != nil || len(keys) != 1 || keys[0] != "Dark" {
		t.Fatalf("FailedKeys: %v %v", keys, err)
	}

	matched := enrich.Resolution{
		Key:    "Dark",
		Status: enrich.StatusMatched,
		Match:  &enrich.CatalogMatch{TMDBID: 70523, MediaType: "tv", Title: "Dark"},
	}
	if err := store.Save(ctx, matched, "run-2"); err != nil {
		t.Fatalf("Save matched resolution: %v", err)
	}

	keys, err = store.FailedKeys(ctx)
	if err != nil || len(keys) != 0 {
		t.Fatalf("failed key should be cleared: %v %v", keys, err)
	}

	counts, err := store.Counts(ctx)
	if err != nil {
		t.Fatalf("Counts: %v", err)
	}
	if counts[enrich.StatusMatched] != 1 || counts[enrich.StatusFailed] != 0 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}

func TestNoMatchRoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, enrich.Resolution{Key: "Obscure", Status: enrich.StatusNoMatch}, "run-1"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, ok, err := store.Lookup(ctx, "Obscure")
	if err != nil || !ok {
		t.Fatalf("Lookup: ok=%v err=%v", ok, err)
	}
	if got.Status != enrich.StatusNoMatch || got.Match != nil {
		t.Fatalf("no-match should carry no payload: %+v", got)
	}
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	if _, err := Open(" "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
