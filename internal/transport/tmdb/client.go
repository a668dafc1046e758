// Package tmdb fetches per-movie metadata from The Movie Database API.
package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/movierec/internal/domain"
	"github.com/kailas-cloud/movierec/internal/domain/enrichment"
	"github.com/kailas-cloud/movierec/internal/metrics"
)

const (
	providerName = "tmdb"
	maxBodyBytes = 1 << 20
)

// Compile-time check: Client is an enrichment lookup.
var _ domain.EnrichmentLookup = (*Client)(nil)

// Config holds TMDb client settings.
type Config struct {
	APIKey       string
	BaseURL      string // e.g. https://api.themoviedb.org/3
	ImageBaseURL string // e.g. https://image.tmdb.org/t/p/w500
	Timeout      time.Duration
	// RateLimit is the sustained requests per second; 0 disables throttling.
	RateLimit float64
	Burst     int
	// BreakerFailures is the number of consecutive transient failures that open the breaker.
	BreakerFailures uint32
	// BreakerCooldown is how long the breaker stays open before probing again.
	BreakerCooldown time.Duration
	HTTPClient      *http.Client
	Logger          *zap.Logger
}

// Client implements domain.EnrichmentLookup over the TMDb v3 REST API.
type Client struct {
	http         *http.Client
	baseURL      string
	imageBaseURL string
	apiKey       string
	limiter      *rate.Limiter
	breaker      *gobreaker.CircuitBreaker[enrichment.Record]
	logger       *zap.Logger
}

// movieResponse mirrors the subset of GET /movie/{id} we use.
type movieResponse struct {
	ID          int64   `json:"id"`
	PosterPath  *string `json:"poster_path"`
	IMDbID      *string `json:"imdb_id"`
	ReleaseDate *string `json:"release_date"`
	Genres      []struct {
		Name string `json:"name"`
	} `json:"genres"`
}

// NewClient creates a TMDb client.
func NewClient(cfg *Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	cooldown := cfg.BreakerCooldown
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}

	c := &Client{
		http:         httpClient,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		imageBaseURL: strings.TrimRight(cfg.ImageBaseURL, "/"),
		apiKey:       cfg.APIKey,
		limiter:      limiter,
		logger:       logger,
	}

	c.breaker = gobreaker.NewCircuitBreaker[enrichment.Record](gobreaker.Settings{
		Name:        providerName,
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// Only transient failures count against the provider's health.
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, ErrTransient)
		},
		// A caller that went away counts neither way.
		IsExcluded: func(err error) bool {
			return errors.Is(err, ErrCanceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Enrichment circuit breaker state changed",
				zap.String("provider", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return c
}

// Lookup fetches metadata for a TMDb movie id.
func (c *Client) Lookup(ctx context.Context, externalID string) (enrichment.Record, error) {
	start := time.Now()

	rec, err := c.breaker.Execute(func() (enrichment.Record, error) {
		return c.fetch(ctx, externalID)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = fmt.Errorf("%w: %w", ErrCircuitOpen, err)
	}

	if err != nil {
		kind := Kind(err)
		metrics.EnrichmentRequestsTotal.WithLabelValues(providerName, "error").Inc()
		metrics.EnrichmentErrorsTotal.WithLabelValues(providerName, kind).Inc()
		return enrichment.Record{}, err
	}

	metrics.EnrichmentRequestsTotal.WithLabelValues(providerName, "success").Inc()
	metrics.EnrichmentRequestDuration.WithLabelValues(providerName).Observe(time.Since(start).Seconds())
	return rec, nil
}

// HealthCheck reports an open circuit as unhealthy. It never calls the provider.
func (c *Client) HealthCheck(_ context.Context) error {
	if st := c.breaker.State(); st == gobreaker.StateOpen {
		return fmt.Errorf("tmdb circuit %s: %w", st, ErrCircuitOpen)
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, externalID string) (enrichment.Record, error) {
	// The limiter is local; failing to get a token within the caller's deadline is not a provider failure.
	if err := c.limiter.Wait(ctx); err != nil {
		return enrichment.Record{}, fmt.Errorf("rate limit wait: %w: %w", ErrCanceled, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.movieURL(externalID), http.NoBody)
	if err != nil {
		return enrichment.Record{}, fmt.Errorf("build request: %w: %w", ErrMalformed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return enrichment.Record{}, c.transient(ctx, "tmdb request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return enrichment.Record{}, c.transient(ctx, "read body", err)
	}

	if err := statusError(resp.StatusCode, body); err != nil {
		return enrichment.Record{}, err
	}

	return c.decode(body)
}

// transient classifies a transport failure. When the caller's context is done the
// failure is ErrCanceled instead, so it is not held against the provider.
func (c *Client) transient(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%s: %w: %w", op, ErrCanceled, ctxErr)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrTransient, err)
}

func (c *Client) movieURL(externalID string) string {
	q := url.Values{}
	if c.apiKey != "" {
		q.Set("api_key", c.apiKey)
	}
	u := c.baseURL + "/movie/" + url.PathEscape(externalID)
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}
	return u
}

func (c *Client) decode(body []byte) (enrichment.Record, error) {
	var m movieResponse
	if err := json.Unmarshal(body, &m); err != nil {
		return enrichment.Record{}, fmt.Errorf("decode movie: %w: %w", ErrMalformed, err)
	}
	if m.ID == 0 {
		return enrichment.Record{}, fmt.Errorf("movie payload without id: %w", ErrMalformed)
	}

	poster := ""
	if p := deref(m.PosterPath); p != "" {
		poster = c.imageBaseURL + p
	}
	genres := make([]string, len(m.Genres))
	for i, g := range m.Genres {
		genres[i] = g.Name
	}

	return enrichment.New(poster, deref(m.IMDbID), deref(m.ReleaseDate), genres), nil
}

// statusError maps a non-2xx status to a failure kind.
func statusError(status int, body []byte) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusTooManyRequests || status >= 500:
		return fmt.Errorf("tmdb status %d: %s: %w", status, extractMessage(status, body), ErrTransient)
	default:
		return fmt.Errorf("tmdb status %d: %s: %w", status, extractMessage(status, body), ErrNotFound)
	}
}

// extractMessage pulls "status_message" out of a TMDb error body.
func extractMessage(status int, body []byte) string {
	var parsed struct {
		StatusMessage string `json:"status_message"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.StatusMessage != "" {
		return parsed.StatusMessage
	}
	return http.StatusText(status)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
