package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"streamlens/internal/config"
)

// WriteHistory writes a viewing-history CSV at the config's history path.
// Each row is "title,date" in the export's raw form.
func WriteHistory(t testing.TB, cfg *config.Config, rows ...string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(cfg.Paths.HistoryFile), 0o755); err != nil {
		t.Fatalf("mkdir history dir: %v", err)
	}
	doc := "Title,Date\n" + strings.Join(rows, "\n") + "\n"
	if err := os.WriteFile(cfg.Paths.HistoryFile, []byte(doc), 0o644); err != nil {
		t.Fatalf("write history: %v", err)
	}
}
