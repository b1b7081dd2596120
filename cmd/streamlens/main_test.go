package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	server     *httptest.Server
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/search/multi":
			if strings.Contains(r.URL.Query().Get("query"), "Heat") {
				_, _ = w.Write([]byte(`{"page":1,"results":[{"id":1,"title":"Heat","media_type":"movie"}]}`))
				return
			}
			_, _ = w.Write([]byte(`{"page":1,"results":[]}`))
		case r.URL.Path == "/movie/1":
			_, _ = w.Write([]byte(`{
				"id":1,"title":"Heat","release_date":"1995-12-15","runtime":170,
				"genres":[{"id":80,"name":"Crime"}],"vote_average":7.9,"vote_count":7000,"popularity":60
			}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)

	base := t.TempDir()
	historyPath := filepath.Join(base, "history.csv")
	history := "Title,Date\n\"Heat\",\"1/4/23\"\n\"Unknown Pilot: Part 1\",\"1/5/23\"\n"
	if err := os.WriteFile(historyPath, []byte(history), 0o644); err != nil {
		t.Fatalf("write history: %v", err)
	}

	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[paths]
history_file = %q
processed_dir = %q
log_dir = %q

[tmdb]
access_token = "test"
base_url = %q
language = "en-US"

[enrichment]
retry_attempts = 1
retry_delay_seconds = 0
request_delay_millis = 0

[logging]
level = "error"
`, historyPath, filepath.Join(base, "processed"), filepath.Join(base, "logs"), server.URL)
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	return &cliTestEnv{baseDir: base, configPath: configPath, server: server}
}

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

func TestCLIEnrichCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env.configPath, "enrich")
	if err != nil {
		t.Fatalf("enrich: %v", err)
	}
	requireContains(t, out, "Enrichment run")
	requireContains(t, out, "Matched")
	requireContains(t, out, "viewing_enriched.csv")

	dataset := filepath.Join(env.baseDir, "processed", "viewing_enriched.csv")
	data, err := os.ReadFile(dataset)
	if err != nil {
		t.Fatalf("read dataset: %v", err)
	}
	requireContains(t, string(data), "Heat")
	// The unmatched title keeps its row with empty catalog columns.
	requireContains(t, string(data), "Unknown Pilot: Part 1")
}

func TestCLIPrepareAfterEnrich(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, env.configPath, "enrich"); err != nil {
		t.Fatalf("enrich: %v", err)
	}
	// Prepare must succeed even with the catalog unreachable.
	env.server.Close()

	out, _, err := runCLI(t, env.configPath, "prepare")
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	requireContains(t, out, "Prepare run")
	requireContains(t, out, "Rows written")
}

func TestCLIRetryFailedWithNothingToRetry(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, env.configPath, "enrich"); err != nil {
		t.Fatalf("enrich: %v", err)
	}
	out, _, err := runCLI(t, env.configPath, "retry-failed")
	if err != nil {
		t.Fatalf("retry-failed: %v", err)
	}
	requireContains(t, out, "nothing to retry")
}

func TestCLIRejectsMissingConfigPath(t *testing.T) {
	_, _, err := runCLI(t, filepath.Join(os.TempDir(), "definitely-absent.toml"), "enrich")
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}
