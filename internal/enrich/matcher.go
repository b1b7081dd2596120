package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"streamlens/internal/logging"
	"streamlens/internal/services"
	"streamlens/internal/services/tmdb"
)

// MatcherOptions tunes retry and pacing behaviour. Zero delays are valid and
// used by tests; a zero Attempts falls back to the default budget.
type MatcherOptions struct {
	Attempts     int
	RetryDelay   time.Duration
	RequestDelay time.Duration
}

const defaultAttempts = 3

// Matcher resolves a single search key to a catalog match. It is safe for
// sequential reuse across many keys.
type Matcher struct {
	client     tmdb.API
	logger     *slog.Logger
	attempts   int
	retryDelay time.Duration
	limiter    *rate.Limiter
}

// NewMatcher builds a Matcher over the supplied catalog client.
func NewMatcher(client tmdb.API, logger *slog.Logger, opts MatcherOptions) (*Matcher, error) {
	if client == nil {
		return nil, errors.New("catalog client is nil")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	attempts := opts.Attempts
	if attempts <= 0 {
		attempts = defaultAttempts
	}
	limit := rate.Inf
	if opts.RequestDelay > 0 {
		limit = rate.Every(opts.RequestDelay)
	}
	return &Matcher{
		client:     client,
		logger:     logger,
		attempts:   attempts,
		retryDelay: opts.RetryDelay,
		limiter:    rate.NewLimiter(limit, 1),
	}, nil
}

// Resolve looks up one non-empty search key. A key that produces no
// series/film candidate resolves as StatusNoMatch without retrying; only
// exhausted network steps demote the key to StatusFailed. Resolve never
// returns an error for key-level failures, only for invalid input or a
// cancelled context.
func (m *Matcher) Resolve(ctx context.Context, key string) (Resolution, error) {
	if key == "" {
		return Resolution{}, errors.New("search key must not be empty")
	}

	var response *tmdb.Response
	if err := m.withRetry(ctx, key, "search", func(callCtx context.Context) error {
		var searchErr error
		response, searchErr = m.client.SearchMulti(callCtx, key)
		return searchErr
	}); err != nil {
		if ctx.Err() != nil {
			return Resolution{}, ctx.Err()
		}
		return Resolution{Key: key, Status: StatusFailed, Failure: err.Error()}, nil
	}

	candidate := selectCandidate(response)
	if candidate == nil {
		m.logger.Info("no catalog match", logging.String("key", key))
		return Resolution{Key: key, Status: StatusNoMatch}, nil
	}

	var details *tmdb.Details
	if err := m.withRetry(ctx, key, "details", func(callCtx context.Context) error {
		var detailsErr error
		details, detailsErr = m.fetchDetails(callCtx, candidate)
		return detailsErr
	}); err != nil {
		if ctx.Err() != nil {
			return Resolution{}, ctx.Err()
		}
		return Resolution{Key: key, Status: StatusFailed, Failure: err.Error()}, nil
	}

	match := &CatalogMatch{
		TMDBID:         candidate.ID,
		MediaType:      candidate.MediaType,
		Title:          details.CanonicalTitle(),
		Genres:         details.GenreNames(),
		Popularity:     details.Popularity,
		VoteAverage:    details.VoteAverage,
		VoteCount:      details.VoteCount,
		ReleaseDate:    details.FirstRelease(),
		RuntimeMinutes: details.RuntimeMinutes(),
		PosterPath:     details.PosterPath,
	}
	m.logger.Info("catalog match resolved",
		logging.String("key", key),
		logging.Int64("tmdb_id", match.TMDBID),
		logging.String("media_type", match.MediaType),
		logging.String("title", match.Title))
	return Resolution{Key: key, Status: StatusMatched, Match: match}, nil
}

// selectCandidate applies the first-match-wins policy: the first result whose
// media type is series or film, in the catalog's ranking order. No secondary
// ranking by popularity or string similarity.
func selectCandidate(response *tmdb.Response) *tmdb.Result {
	if response == nil {
		return nil
	}
	for i := range response.Results {
		result := &response.Results[i]
		switch result.MediaType {
		case tmdb.MediaTypeMovie, tmdb.MediaTypeTV:
			return result
		}
	}
	return nil
}

func (m *Matcher) fetchDetails(ctx context.Context, candidate *tmdb.Result) (*tmdb.Details, error) {
	switch candidate.MediaType {
	case tmdb.MediaTypeTV:
		return m.client.TVDetails(ctx, candidate.ID)
	case tmdb.MediaTypeMovie:
		return m.client.MovieDetails(ctx, candidate.ID)
	default:
		return nil, fmt.Errorf("unsupported media type %q", candidate.MediaType)
	}
}

// withRetry drives one network-bound step: pace against the rate limit, run
// the call, and retry transient failures up to the attempt budget with a
// fixed inter-attempt delay.
func (m *Matcher) withRetry(ctx context.Context, key, operation string, op func(context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= m.attempts; attempt++ {
		if err := m.limiter.Wait(ctx); err != nil {
			return err
		}
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !services.IsRetriable(lastErr) {
			m.logger.Warn("catalog call failed",
				logging.String("key", key),
				logging.String("operation", operation),
				logging.Error(lastErr))
			return services.Wrap(nil, "enrich", operation, key, lastErr)
		}
		m.logger.Warn("catalog call attempt failed",
			logging.String("key", key),
			logging.String("operation", operation),
			logging.Int("attempt", attempt),
			logging.Int("attempts", m.attempts),
			logging.Error(lastErr))
		if attempt < m.attempts {
			if err := sleepWithContext(ctx, m.retryDelay); err != nil {
				return err
			}
		}
	}
	return services.Wrap(services.ErrTransient, "enrich", operation, key+": retries exhausted", lastErr)
}

// sleepWithContext blocks for d, returning early if the context is cancelled.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
