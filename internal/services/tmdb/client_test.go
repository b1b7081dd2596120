package tmdb_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"streamlens/internal/services/tmdb"
)

func TestNewRequiresAccessToken(t *testing.T) {
	if _, err := tmdb.New("", "https://example.com", "es-ES"); err == nil {
		t.Fatal("expected error when access token missing")
	}
}

func TestSearchMultiSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer token" {
			t.Fatalf("expected bearer auth header, got %q", got)
		}
		if got := r.URL.Query().Get("language"); got != "es-ES" {
			t.Fatalf("expected language parameter, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"page":1,"results":[{"id":7,"name":"Example","media_type":"tv"}]}`))
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("token", server.URL, "es-ES")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	resp, err := client.SearchMulti(context.Background(), "Example")
	if err != nil {
		t.Fatalf("SearchMulti returned error: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].MediaType != tmdb.MediaTypeTV {
		t.Fatalf("unexpected response: %#v", resp)
	}
}

func TestSearchMultiEmptyQuery(t *testing.T) {
	client, err := tmdb.New("token", "https://example.com", "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.SearchMulti(context.Background(), "  "); err == nil {
		t.Fatal("expected error for blank query")
	}
}

func TestMovieDetailsHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("token", server.URL, "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.MovieDetails(context.Background(), 42); err == nil {
		t.Fatal("expected error when TMDB returns non-200")
	}
}

func TestTVDetailsResolvesSeriesFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tv/99" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id":99,"name":"Stranger Things","first_air_date":"2016-07-15",
			"genres":[{"id":18,"name":"Drama"},{"id":10765,"name":"Sci-Fi & Fantasy"}],
			"episode_run_time":[50,42],"vote_average":8.6,"vote_count":12000
		}`))
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("token", server.URL, "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	details, err := client.TVDetails(context.Background(), 99)
	if err != nil {
		t.Fatalf("TVDetails returned error: %v", err)
	}
	if details.CanonicalTitle() != "Stranger Things" {
		t.Fatalf("canonical title: %q", details.CanonicalTitle())
	}
	if details.FirstRelease() != "2016-07-15" {
		t.Fatalf("first release: %q", details.FirstRelease())
	}
	if details.RuntimeMinutes() != 50 {
		t.Fatalf("runtime should take first episode runtime, got %d", details.RuntimeMinutes())
	}
	if got := details.GenreNames(); len(got) != 2 || got[0] != "Drama" {
		t.Fatalf("genre names: %v", got)
	}
}

func TestMovieDetailsRuntime(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":1,"title":"Heat","release_date":"1995-12-15","runtime":170}`))
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("token", server.URL, "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	details, err := client.MovieDetails(context.Background(), 1)
	if err != nil {
		t.Fatalf("MovieDetails returned error: %v", err)
	}
	if details.RuntimeMinutes() != 170 {
		t.Fatalf("movie runtime: %d", details.RuntimeMinutes())
	}
	if details.MediaType != tmdb.MediaTypeMovie {
		t.Fatalf("media type: %q", details.MediaType)
	}
}
