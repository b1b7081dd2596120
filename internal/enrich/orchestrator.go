package enrich

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"streamlens/internal/fileutil"
	"streamlens/internal/logging"
)

// ResultStore is the persistence surface the orchestrator needs. The SQLite
// checkpoint store implements it; tests use an in-memory stand-in.
type ResultStore interface {
	Lookup(ctx context.Context, key string) (*Resolution, bool, error)
	Save(ctx context.Context, res Resolution, runID string) error
}

// Outcome summarizes one orchestrator run over a set of distinct keys.
type Outcome struct {
	Resolutions map[string]Resolution
	FailedKeys  []string
	Matched     int
	NoMatch     int
	Failed      int
	Reused      int
}

// DistinctKeys reports how many keys the run covered.
func (o *Outcome) DistinctKeys() int {
	return len(o.Resolutions)
}

// Orchestrator fans the matcher out over the distinct key set. It performs no
// retries of its own; the matcher already owns the retry budget.
type Orchestrator struct {
	matcher *Matcher
	store   ResultStore
	logger  *slog.Logger
}

// NewOrchestrator builds an orchestrator. The store may be nil, in which case
// nothing is checkpointed and every key is resolved fresh.
func NewOrchestrator(matcher *Matcher, store ResultStore, logger *slog.Logger) (*Orchestrator, error) {
	if matcher == nil {
		return nil, errors.New("matcher is nil")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Orchestrator{matcher: matcher, store: store, logger: logger}, nil
}

// Run resolves every distinct key exactly once. Keys the checkpoint already
// settled (matched or no-match) are reused without a catalog call unless
// refresh is set; keys previously recorded as failed are always re-attempted.
// One key's failure never aborts the batch.
func (o *Orchestrator) Run(ctx context.Context, keys []string, runID string, refresh bool) (*Outcome, error) {
	outcome := &Outcome{Resolutions: make(map[string]Resolution, len(keys))}

	total := len(keys)
	for i, key := range keys {
		if key == "" {
			continue
		}
		if _, done := outcome.Resolutions[key]; done {
			continue
		}

		if o.store != nil && !refresh {
			stored, ok, err := o.store.Lookup(ctx, key)
			if err != nil {
				return nil, err
			}
			if ok && stored.Status != StatusFailed {
				outcome.record(*stored, true)
				continue
			}
		}

		o.logger.Info("resolving title",
			logging.String("key", key),
			logging.Int("position", i+1),
			logging.Int("total", total))
		res, err := o.matcher.Resolve(ctx, key)
		if err != nil {
			// Only invalid input or context cancellation reach here.
			return nil, err
		}
		if o.store != nil {
			if err := o.store.Save(ctx, res, runID); err != nil {
				return nil, err
			}
		}
		outcome.record(res, false)
	}

	o.logger.Info("enrichment complete",
		logging.Int("distinct_keys", outcome.DistinctKeys()),
		logging.Int("matched", outcome.Matched),
		logging.Int("no_match", outcome.NoMatch),
		logging.Int("failed", outcome.Failed),
		logging.Int("reused", outcome.Reused))
	return outcome, nil
}

func (o *Outcome) record(res Resolution, reused bool) {
	o.Resolutions[res.Key] = res
	switch res.Status {
	case StatusMatched:
		o.Matched++
	case StatusNoMatch:
		o.NoMatch++
	case StatusFailed:
		o.Failed++
		o.FailedKeys = append(o.FailedKeys, res.Key)
	}
	if reused {
		o.Reused++
	}
}

// WriteFailedKeys persists the failed keys, one per line in UTF-8, so a later
// run can re-attempt only the failures. An empty key set still truncates the
// file so stale failures from earlier runs do not linger.
func WriteFailedKeys(path string, keys []string) error {
	var builder strings.Builder
	for _, key := range keys {
		builder.WriteString(key)
		builder.WriteByte('\n')
	}
	return fileutil.WriteFileAtomic(path, []byte(builder.String()), 0o644)
}
