package pipeline_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"streamlens/internal/config"
	"streamlens/internal/logging"
	"streamlens/internal/pipeline"
	"streamlens/internal/testsupport"
)

// catalogStub serves a fixed two-title catalog: one series, one film, and a
// counter so tests can assert how many search calls a run made.
func catalogStub(t *testing.T, searchCalls *atomic.Int64) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/search/multi":
			searchCalls.Add(1)
			query := r.URL.Query().Get("query")
			switch {
			case strings.Contains(query, "Stranger"):
				_, _ = w.Write([]byte(`{"page":1,"results":[{"id":99,"name":"Stranger Things","media_type":"tv"}]}`))
			case strings.Contains(query, "Heat"):
				_, _ = w.Write([]byte(`{"page":1,"results":[{"id":1,"title":"Heat","media_type":"movie"}]}`))
			default:
				_, _ = w.Write([]byte(`{"page":1,"results":[]}`))
			}
		case r.URL.Path == "/tv/99":
			_, _ = w.Write([]byte(`{
				"id":99,"name":"Stranger Things","first_air_date":"2016-07-15",
				"genres":[{"id":18,"name":"Drama"},{"id":10765,"name":"Sci-Fi & Fantasy"}],
				"episode_run_time":[50],"vote_average":8.6,"vote_count":12000,"popularity":450.5
			}`))
		case r.URL.Path == "/movie/1":
			_, _ = w.Write([]byte(`{
				"id":1,"title":"Heat","release_date":"1995-12-15","runtime":170,
				"genres":[{"id":80,"name":"Crime"}],"vote_average":7.9,"vote_count":7000,"popularity":60
			}`))
		default:
			t.Errorf("unexpected request path %q", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func newPipeline(t *testing.T, cfg *config.Config) *pipeline.Pipeline {
	t.Helper()
	p, err := pipeline.New(cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestEnrichEndToEnd(t *testing.T) {
	var searches atomic.Int64
	server := catalogStub(t, &searches)
	cfg := testsupport.NewConfig(t, testsupport.WithBaseURL(server.URL))
	testsupport.WriteHistory(t, cfg,
		`"Stranger Things: Season 1","1/2/23"`,
		`"Stranger Things: Season 2","1/3/23"`,
		`"Heat","1/4/23"`,
		`"Totally Unknown Title","1/5/23"`,
	)

	report, err := newPipeline(t, cfg).Enrich(context.Background(), false)
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}

	if report.RowsLoaded != 4 || report.RowsWritten != 4 {
		t.Fatalf("row counts: %+v", report)
	}
	if report.DistinctKeys != 3 || report.Matched != 2 || report.NoMatch != 1 || report.Failed != 0 {
		t.Fatalf("key counts: %+v", report)
	}
	if searches.Load() != 3 {
		t.Fatalf("expected one search per distinct key, got %d", searches.Load())
	}

	data, err := os.ReadFile(report.DatasetPath)
	if err != nil {
		t.Fatalf("read dataset: %v", err)
	}
	if !strings.Contains(string(data), "Stranger Things") || !strings.Contains(string(data), "Heat") {
		t.Fatalf("dataset missing matched titles:\n%s", data)
	}

	for _, extract := range report.Extracts {
		if _, err := os.Stat(extract.Path); err != nil {
			t.Fatalf("extract %s not written: %v", extract.Name, err)
		}
	}

	failed, err := os.ReadFile(report.FailedKeysPath)
	if err != nil {
		t.Fatalf("read failed keys: %v", err)
	}
	if strings.TrimSpace(string(failed)) != "" {
		t.Fatalf("no keys should have failed: %q", failed)
	}
}

func TestEnrichSecondRunReusesCheckpoint(t *testing.T) {
	var searches atomic.Int64
	server := catalogStub(t, &searches)
	cfg := testsupport.NewConfig(t, testsupport.WithBaseURL(server.URL))
	testsupport.WriteHistory(t, cfg, `"Heat","1/4/23"`)

	p := newPipeline(t, cfg)
	if _, err := p.Enrich(context.Background(), false); err != nil {
		t.Fatalf("first run: %v", err)
	}
	report, err := p.Enrich(context.Background(), false)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if searches.Load() != 1 {
		t.Fatalf("second run should reuse the checkpoint, saw %d searches", searches.Load())
	}
	if report.Reused != 1 || report.Matched != 1 {
		t.Fatalf("reuse counts: %+v", report)
	}
}

func TestRetryFailedRecoversAfterOutage(t *testing.T) {
	var failing atomic.Bool
	failing.Store(true)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if failing.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/search/multi" {
			_, _ = w.Write([]byte(`{"page":1,"results":[{"id":1,"title":"Heat","media_type":"movie"}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":1,"title":"Heat","release_date":"1995-12-15","runtime":170,"vote_average":7.9}`))
	}))
	t.Cleanup(server.Close)

	cfg := testsupport.NewConfig(t,
		testsupport.WithBaseURL(server.URL),
		testsupport.WithRetryAttempts(1))
	testsupport.WriteHistory(t, cfg, `"Heat","1/4/23"`)

	p := newPipeline(t, cfg)
	report, err := p.Enrich(context.Background(), false)
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if report.Failed != 1 {
		t.Fatalf("outage should record a failure: %+v", report)
	}
	failedDoc, err := os.ReadFile(report.FailedKeysPath)
	if err != nil {
		t.Fatalf("read failed keys: %v", err)
	}
	if strings.TrimSpace(string(failedDoc)) != "Heat" {
		t.Fatalf("failed keys file: %q", failedDoc)
	}

	failing.Store(false)
	report, err = p.RetryFailed(context.Background())
	if err != nil {
		t.Fatalf("RetryFailed: %v", err)
	}
	if report.Failed != 0 || report.Matched != 1 {
		t.Fatalf("retry should settle the key: %+v", report)
	}
	failedDoc, _ = os.ReadFile(report.FailedKeysPath)
	if strings.TrimSpace(string(failedDoc)) != "" {
		t.Fatalf("failed keys should be cleared: %q", failedDoc)
	}
}

func TestPrepareRegeneratesWithoutCatalogCalls(t *testing.T) {
	var searches atomic.Int64
	server := catalogStub(t, &searches)
	cfg := testsupport.NewConfig(t, testsupport.WithBaseURL(server.URL))
	testsupport.WriteHistory(t, cfg, `"Heat","1/4/23"`)

	p := newPipeline(t, cfg)
	first, err := p.Enrich(context.Background(), false)
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if err := os.Remove(first.DatasetPath); err != nil {
		t.Fatalf("remove dataset: %v", err)
	}
	before := searches.Load()

	report, err := p.Prepare(context.Background())
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if searches.Load() != before {
		t.Fatal("Prepare must not touch the catalog")
	}
	if report.Matched != 1 || report.RowsWritten != 1 {
		t.Fatalf("prepare report: %+v", report)
	}
	if _, err := os.Stat(report.DatasetPath); err != nil {
		t.Fatalf("dataset not regenerated: %v", err)
	}
}

func TestEnrichMissingHistoryFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.HistoryFile = filepath.Join(t.TempDir(), "absent.csv")

	if _, err := newPipeline(t, cfg).Enrich(context.Background(), false); err == nil {
		t.Fatal("expected error for missing history file")
	}
}
