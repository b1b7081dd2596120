package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Media kinds returned by the multi search endpoint. Anything else ("person",
// collections) is ignored by callers.
const (
	MediaTypeMovie = "movie"
	MediaTypeTV    = "tv"
)

// Result represents a single TMDB search match.
type Result struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	MediaType    string  `json:"media_type"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	Popularity   float64 `json:"popularity"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int64   `json:"vote_count"`
}

// Response models the TMDB paginated search response.
type Response struct {
	Page         int      `json:"page"`
	Results      []Result `json:"results"`
	TotalPages   int      `json:"total_pages"`
	TotalResults int      `json:"total_results"`
}

// Genre is a single genre tag on a details payload.
type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Details captures the full movie or TV payload. Movie and TV responses share
// most fields; the ones that differ (title vs name, runtime vs per-episode
// runtimes) are all present here and resolved by the accessors.
type Details struct {
	ID             int64   `json:"id"`
	Title          string  `json:"title"`
	Name           string  `json:"name"`
	MediaType      string  `json:"-"`
	Genres         []Genre `json:"genres"`
	Popularity     float64 `json:"popularity"`
	VoteAverage    float64 `json:"vote_average"`
	VoteCount      int64   `json:"vote_count"`
	ReleaseDate    string  `json:"release_date"`
	FirstAirDate   string  `json:"first_air_date"`
	Runtime        int     `json:"runtime"`
	EpisodeRunTime []int   `json:"episode_run_time"`
	PosterPath     string  `json:"poster_path"`
}

// CanonicalTitle returns the movie title or TV name, whichever is set.
func (d *Details) CanonicalTitle() string {
	if title := strings.TrimSpace(d.Title); title != "" {
		return title
	}
	return strings.TrimSpace(d.Name)
}

// FirstRelease returns the release date for movies or the first air date for
// series.
func (d *Details) FirstRelease() string {
	if d.MediaType == MediaTypeTV {
		return strings.TrimSpace(d.FirstAirDate)
	}
	return strings.TrimSpace(d.ReleaseDate)
}

// RuntimeMinutes resolves the runtime: movies expose a single value, series a
// per-episode list whose first element is taken when present.
func (d *Details) RuntimeMinutes() int {
	if d.MediaType == MediaTypeTV {
		if len(d.EpisodeRunTime) > 0 {
			return d.EpisodeRunTime[0]
		}
		return 0
	}
	return d.Runtime
}

// GenreNames flattens the genre tags into names.
func (d *Details) GenreNames() []string {
	if len(d.Genres) == 0 {
		return nil
	}
	names := make([]string, 0, len(d.Genres))
	for _, genre := range d.Genres {
		if name := strings.TrimSpace(genre.Name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// API defines the TMDB operations used by the enrichment pipeline.
type API interface {
	SearchMulti(ctx context.Context, query string) (*Response, error)
	MovieDetails(ctx context.Context, movieID int64) (*Details, error)
	TVDetails(ctx context.Context, showID int64) (*Details, error)
}

// Client provides access to the TMDB API.
type Client struct {
	accessToken string
	baseURL     string
	language    string
	httpClient  *http.Client
}

var _ API = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// New creates a TMDB client authenticating with a read access token.
func New(accessToken, baseURL, language string, opts ...Option) (*Client, error) {
	accessToken = strings.TrimSpace(accessToken)
	if accessToken == "" {
		return nil, errors.New("tmdb access token required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tmdb base url required")
	}
	client := &Client{
		accessToken: accessToken,
		baseURL:     strings.TrimRight(baseURL, "/"),
		language:    strings.TrimSpace(language),
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// SearchMulti queries the multi-type search endpoint. Results keep the
// catalog's ranking order.
func (c *Client) SearchMulti(ctx context.Context, query string) (*Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}
	endpoint, err := url.Parse(c.baseURL + "/search/multi")
	if err != nil {
		return nil, fmt.Errorf("parse tmdb url: %w", err)
	}
	params := url.Values{}
	params.Set("query", query)
	if c.language != "" {
		params.Set("language", c.language)
	}
	endpoint.RawQuery = params.Encode()

	var payload Response
	if err := c.get(ctx, endpoint.String(), "tmdb search", &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// MovieDetails fetches movie details by TMDB ID.
func (c *Client) MovieDetails(ctx context.Context, movieID int64) (*Details, error) {
	if movieID <= 0 {
		return nil, errors.New("movie id must be positive")
	}
	details, err := c.details(ctx, fmt.Sprintf("%s/movie/%d", c.baseURL, movieID), "tmdb movie details")
	if err != nil {
		return nil, err
	}
	details.MediaType = MediaTypeMovie
	return details, nil
}

// TVDetails fetches TV show details by TMDB ID.
func (c *Client) TVDetails(ctx context.Context, showID int64) (*Details, error) {
	if showID <= 0 {
		return nil, errors.New("show id must be positive")
	}
	details, err := c.details(ctx, fmt.Sprintf("%s/tv/%d", c.baseURL, showID), "tmdb tv details")
	if err != nil {
		return nil, err
	}
	details.MediaType = MediaTypeTV
	return details, nil
}

func (c *Client) details(ctx context.Context, rawURL, label string) (*Details, error) {
	endpoint, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse tmdb url: %w", err)
	}
	params := url.Values{}
	if c.language != "" {
		params.Set("language", c.language)
	}
	endpoint.RawQuery = params.Encode()

	var payload Details
	if err := c.get(ctx, endpoint.String(), label, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *Client) get(ctx context.Context, endpoint, label string, payload any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned %d (latency=%v)", label, resp.StatusCode, latency)
	}

	if err := json.NewDecoder(resp.Body).Decode(payload); err != nil {
		return fmt.Errorf("decode %s response: %w", label, err)
	}
	return nil
}
