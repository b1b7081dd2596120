// Package pipeline drives the end-to-end enrichment runs: load the viewing
// history, resolve distinct titles against the catalog, and regenerate the
// analysis datasets. Commands call into here so the CLI layer stays thin.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"streamlens/internal/config"
	"streamlens/internal/dataset"
	"streamlens/internal/enrich"
	"streamlens/internal/enrich/checkpoint"
	"streamlens/internal/history"
	"streamlens/internal/logging"
	"streamlens/internal/services"
	"streamlens/internal/services/tmdb"
)

// Output file names inside the processed directory.
const (
	DatasetFileName    = "viewing_enriched.csv"
	FailedKeysFileName = "failed_titles.txt"
	CheckpointFileName = "checkpoint.db"
	lockFileName       = ".streamlens.lock"
)

// ExtractFile records where one secondary aggregate landed.
type ExtractFile struct {
	Name string
	Path string
	Rows int
}

// Report summarizes a completed run for the CLI summary table.
type Report struct {
	RunID          string
	RowsLoaded     int
	RowsDropped    int
	DistinctKeys   int
	Matched        int
	NoMatch        int
	Failed         int
	Reused         int
	Resolved       int
	RowsWritten    int
	DatasetPath    string
	FailedKeysPath string
	Extracts       []ExtractFile
}

// Pipeline binds a validated config and a logger for one or more runs.
type Pipeline struct {
	cfg    *config.Config
	logger *slog.Logger
}

// New builds a pipeline over a validated config.
func New(cfg *config.Config, logger *slog.Logger) (*Pipeline, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{cfg: cfg, logger: logger}, nil
}

// Enrich performs a full run: every distinct key is resolved, reusing the
// checkpoint for keys settled by earlier runs unless refresh is set. Failed
// keys are always re-attempted.
func (p *Pipeline) Enrich(ctx context.Context, refresh bool) (*Report, error) {
	return p.run(ctx, refresh, nil)
}

// RetryFailed re-attempts only the keys the checkpoint recorded as failed,
// then regenerates the datasets from the updated checkpoint. It is a no-op
// when no failures are recorded.
func (p *Pipeline) RetryFailed(ctx context.Context) (*Report, error) {
	return p.run(ctx, false, func(ctx context.Context, store *checkpoint.Store) ([]string, error) {
		return store.FailedKeys(ctx)
	})
}

// Prepare regenerates the enriched dataset and extracts from the checkpoint
// without any catalog calls. Keys the checkpoint has not settled stay
// unmatched in the output.
func (p *Pipeline) Prepare(ctx context.Context) (*Report, error) {
	unlock, err := p.acquireLock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	loaded, err := p.loadHistory()
	if err != nil {
		return nil, err
	}

	store, err := p.openCheckpoint()
	if err != nil {
		return nil, err
	}
	defer store.Close()

	keys := history.DistinctKeys(loaded.Events)
	resolutions, reused, err := storedResolutions(ctx, store, keys)
	if err != nil {
		return nil, err
	}

	report := &Report{
		RunID:        "",
		RowsLoaded:   len(loaded.Events),
		RowsDropped:  loaded.Dropped,
		DistinctKeys: len(keys),
		Reused:       reused,
	}
	countStatuses(report, resolutions)
	if err := p.writeOutputs(report, loaded.Events, resolutions); err != nil {
		return nil, err
	}
	p.logger.Info("datasets regenerated",
		logging.String("dataset", report.DatasetPath),
		logging.Int("rows", report.RowsWritten))
	return report, nil
}

// run is the shared enrichment path. keyFilter, when non-nil, narrows the
// resolve set (retry-failed); the dataset is always rebuilt over the full
// history afterwards.
func (p *Pipeline) run(ctx context.Context, refresh bool, keyFilter func(context.Context, *checkpoint.Store) ([]string, error)) (*Report, error) {
	unlock, err := p.acquireLock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	loaded, err := p.loadHistory()
	if err != nil {
		return nil, err
	}

	store, err := p.openCheckpoint()
	if err != nil {
		return nil, err
	}
	defer store.Close()

	allKeys := history.DistinctKeys(loaded.Events)
	resolveKeys := allKeys
	if keyFilter != nil {
		resolveKeys, err = keyFilter(ctx, store)
		if err != nil {
			return nil, err
		}
	}

	runID := uuid.NewString()
	report := &Report{
		RunID:       runID,
		RowsLoaded:  len(loaded.Events),
		RowsDropped: loaded.Dropped,
	}
	p.logger.Info("run starting",
		logging.String("run_id", runID),
		logging.Int("rows", report.RowsLoaded),
		logging.Int("rows_dropped", report.RowsDropped),
		logging.Int("distinct_keys", len(allKeys)),
		logging.Int("resolve_keys", len(resolveKeys)))

	orchestrator, err := p.newOrchestrator(store)
	if err != nil {
		return nil, err
	}
	outcome, err := orchestrator.Run(ctx, resolveKeys, runID, refresh)
	if err != nil {
		return nil, err
	}

	// The resolve set may be narrower than the history (retry-failed), so
	// rebuild the full resolution map from the checkpoint before merging.
	resolutions, _, err := storedResolutions(ctx, store, allKeys)
	if err != nil {
		return nil, err
	}
	report.DistinctKeys = len(allKeys)
	report.Reused = outcome.Reused
	report.Resolved = outcome.DistinctKeys() - outcome.Reused
	countStatuses(report, resolutions)

	if err := p.writeOutputs(report, loaded.Events, resolutions); err != nil {
		return nil, err
	}
	p.logger.Info("run complete",
		logging.String("run_id", runID),
		logging.Int("matched", report.Matched),
		logging.Int("no_match", report.NoMatch),
		logging.Int("failed", report.Failed),
		logging.Int("rows_written", report.RowsWritten))
	return report, nil
}

// acquireLock guards the processed directory against concurrent runs.
func (p *Pipeline) acquireLock() (func(), error) {
	if err := p.cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	lockPath := filepath.Join(p.cfg.Paths.ProcessedDir, lockFileName)
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another run holds the lock at %s", lockPath)
	}
	return func() { _ = lock.Unlock() }, nil
}

func (p *Pipeline) loadHistory() (*history.LoadResult, error) {
	loaded, err := history.Load(p.cfg.Paths.HistoryFile, p.cfg.History.DateFormat)
	if err != nil {
		return nil, err
	}
	if loaded.Dropped > 0 {
		p.logger.Warn("rows dropped during ingest", logging.Int("dropped", loaded.Dropped))
	}
	return loaded, nil
}

func (p *Pipeline) openCheckpoint() (*checkpoint.Store, error) {
	return checkpoint.Open(filepath.Join(p.cfg.Paths.ProcessedDir, CheckpointFileName))
}

func (p *Pipeline) newOrchestrator(store enrich.ResultStore) (*enrich.Orchestrator, error) {
	client, err := tmdb.New(p.cfg.TMDB.AccessToken, p.cfg.TMDB.BaseURL, p.cfg.TMDB.Language,
		tmdb.WithTimeout(p.cfg.Enrichment.RequestTimeout()))
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "client", "build catalog client", err)
	}
	matcher, err := enrich.NewMatcher(client, p.logger, enrich.MatcherOptions{
		Attempts:     p.cfg.Enrichment.RetryAttempts,
		RetryDelay:   p.cfg.Enrichment.RetryDelay(),
		RequestDelay: p.cfg.Enrichment.RequestDelay(),
	})
	if err != nil {
		return nil, err
	}
	return enrich.NewOrchestrator(matcher, store, p.logger)
}

// writeOutputs merges history with resolutions and writes the dataset, the
// secondary extracts, and the failed-keys file. Every write is atomic.
func (p *Pipeline) writeOutputs(report *Report, events []history.ViewingEvent, resolutions map[string]enrich.Resolution) error {
	merged := dataset.Merge(events, resolutions, p.cfg.TMDB.Language)

	report.DatasetPath = filepath.Join(p.cfg.Paths.ProcessedDir, DatasetFileName)
	if err := dataset.WriteEnriched(report.DatasetPath, merged); err != nil {
		return err
	}
	report.RowsWritten = len(merged)

	for _, extract := range dataset.Extracts(merged) {
		path := filepath.Join(p.cfg.Paths.ProcessedDir, extract.Name+".csv")
		if err := dataset.WriteCSV(path, extract.Header, extract.Rows); err != nil {
			return err
		}
		report.Extracts = append(report.Extracts, ExtractFile{
			Name: extract.Name,
			Path: path,
			Rows: len(extract.Rows),
		})
	}

	report.FailedKeysPath = filepath.Join(p.cfg.Paths.ProcessedDir, FailedKeysFileName)
	return enrich.WriteFailedKeys(report.FailedKeysPath, failedKeys(resolutions))
}

// storedResolutions loads the checkpointed resolution for each key. Keys the
// checkpoint has never seen are simply absent from the map.
func storedResolutions(ctx context.Context, store *checkpoint.Store, keys []string) (map[string]enrich.Resolution, int, error) {
	resolutions := make(map[string]enrich.Resolution, len(keys))
	for _, key := range keys {
		res, ok, err := store.Lookup(ctx, key)
		if err != nil {
			return nil, 0, err
		}
		if ok {
			resolutions[key] = *res
		}
	}
	return resolutions, len(resolutions), nil
}

func countStatuses(report *Report, resolutions map[string]enrich.Resolution) {
	report.Matched, report.NoMatch, report.Failed = 0, 0, 0
	for _, res := range resolutions {
		switch res.Status {
		case enrich.StatusMatched:
			report.Matched++
		case enrich.StatusNoMatch:
			report.NoMatch++
		case enrich.StatusFailed:
			report.Failed++
		}
	}
}

func failedKeys(resolutions map[string]enrich.Resolution) []string {
	var keys []string
	for key, res := range resolutions {
		if res.Status == enrich.StatusFailed {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}
