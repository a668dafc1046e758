package tmdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/movierec/internal/domain"
	"github.com/kailas-cloud/movierec/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterEnrichmentMetrics()
	os.Exit(m.Run())
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...func(*Config)) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &Config{
		APIKey:       "test-key",
		BaseURL:      server.URL + "/3/",
		ImageBaseURL: "https://image.tmdb.org/t/p/w500",
		Timeout:      2 * time.Second,
		Logger:       zap.NewNop(),
	}
	for _, o := range opts {
		o(cfg)
	}
	return NewClient(cfg)
}

func TestLookup_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/3/movie/603" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("api_key") != "test-key" {
			t.Errorf("unexpected api_key: %q", r.URL.Query().Get("api_key"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": 603,
			"title": "The Matrix",
			"poster_path": "/f89U3ADr1oiB1s9GkdPOEpXUk5H.jpg",
			"imdb_id": "tt0133093",
			"release_date": "1999-03-30",
			"genres": [{"id": 28, "name": "Action"}, {"id": 878, "name": "Science Fiction"}]
		}`))
	})

	rec, err := c.Lookup(context.Background(), "603")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if rec.PosterURL != "https://image.tmdb.org/t/p/w500/f89U3ADr1oiB1s9GkdPOEpXUk5H.jpg" {
		t.Errorf("unexpected poster: %s", rec.PosterURL)
	}
	if rec.IMDbID != "tt0133093" {
		t.Errorf("unexpected imdb id: %s", rec.IMDbID)
	}
	if rec.Year != 1999 || rec.ReleaseDate != "1999-03-30" {
		t.Errorf("unexpected year/date: %d %s", rec.Year, rec.ReleaseDate)
	}
	if rec.Genres != "Action, Science Fiction" {
		t.Errorf("unexpected genres: %s", rec.Genres)
	}
}

func TestLookup_MissingOptionalFields(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id": 42, "poster_path": null, "release_date": "", "genres": []}`))
	})

	rec, err := c.Lookup(context.Background(), "42")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if rec.PosterURL != "" || rec.IMDbID != "" {
		t.Errorf("expected empty poster and imdb id, got %+v", rec)
	}
	if rec.Year != 0 {
		t.Errorf("expected unknown year, got %d", rec.Year)
	}
	if rec.Genres != "Unknown" {
		t.Errorf("expected Unknown genres, got %q", rec.Genres)
	}
}

func TestLookup_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   error
	}{
		{"not found", http.StatusNotFound, `{"status_code":34,"status_message":"The resource you requested could not be found."}`, ErrNotFound},
		{"unauthorized", http.StatusUnauthorized, `{"status_message":"Invalid API key"}`, ErrNotFound},
		{"rate limited", http.StatusTooManyRequests, ``, ErrTransient},
		{"server error", http.StatusBadGateway, `oops`, ErrTransient},
		{"bad json", http.StatusOK, `{"id":`, ErrMalformed},
		{"missing id", http.StatusOK, `{"title":"x"}`, ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.Lookup(context.Background(), "1")
			if !errors.Is(err, tt.kind) {
				t.Fatalf("expected %v, got %v", tt.kind, err)
			}
			if !errors.Is(err, domain.ErrEnrichmentUnavailable) {
				t.Errorf("expected ErrEnrichmentUnavailable in chain, got %v", err)
			}
		})
	}
}

func TestLookup_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	c := NewClient(&Config{BaseURL: url, Timeout: time.Second})
	_, err := c.Lookup(context.Background(), "1")
	if !errors.Is(err, ErrTransient) {
		t.Fatalf("expected ErrTransient, got %v", err)
	}
	if Kind(err) != "transient" {
		t.Errorf("Kind = %q", Kind(err))
	}
}

func TestLookup_BreakerOpensOnTransientOnly(t *testing.T) {
	var calls atomic.Int32
	status := atomic.Int32{}
	status.Store(http.StatusNotFound)

	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(int(status.Load()))
	}, func(cfg *Config) {
		cfg.BreakerFailures = 2
		cfg.BreakerCooldown = time.Hour
	})
	ctx := context.Background()

	// 404s are the provider answering correctly; they never trip the breaker.
	for i := 0; i < 3; i++ {
		if _, err := c.Lookup(ctx, "1"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	}
	if err := c.HealthCheck(ctx); err != nil {
		t.Fatalf("expected healthy after 404s, got %v", err)
	}

	status.Store(http.StatusServiceUnavailable)
	for i := 0; i < 2; i++ {
		if _, err := c.Lookup(ctx, "1"); !errors.Is(err, ErrTransient) {
			t.Fatalf("expected ErrTransient, got %v", err)
		}
	}

	before := calls.Load()
	_, err := c.Lookup(ctx, "1")
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if calls.Load() != before {
		t.Error("open breaker must not call the provider")
	}
	if err := c.HealthCheck(ctx); !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected unhealthy with open circuit, got %v", err)
	}
	if Kind(err) != "circuit_open" {
		t.Errorf("Kind = %q", Kind(err))
	}
}

func TestLookup_RateLimitRespectsContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id": 1}`))
	}, func(cfg *Config) {
		cfg.RateLimit = 0.001
		cfg.Burst = 1
	})

	if _, err := c.Lookup(context.Background(), "1"); err != nil {
		t.Fatalf("first lookup should use the burst: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := c.Lookup(ctx, "1"); !errors.Is(err, ErrCanceled) {
		t.Fatalf("expected ErrCanceled when the limiter cannot admit in time, got %v", err)
	}
}

func TestLookup_CanceledCallerDoesNotTripBreaker(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"id": 1, "release_date": "1999-03-31"}`))
	}, func(cfg *Config) {
		cfg.BreakerFailures = 2
		cfg.BreakerCooldown = time.Hour
	})

	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 5; i++ {
		_, err := c.Lookup(canceled, "1")
		if !errors.Is(err, ErrCanceled) || !errors.Is(err, context.Canceled) {
			t.Fatalf("expected ErrCanceled wrapping context.Canceled, got %v", err)
		}
		if errors.Is(err, ErrTransient) {
			t.Fatalf("canceled lookup must not be transient: %v", err)
		}
		if Kind(err) != "canceled" {
			t.Errorf("Kind = %q", Kind(err))
		}
	}

	if err := c.HealthCheck(context.Background()); err != nil {
		t.Fatalf("expected healthy after canceled lookups, got %v", err)
	}
	rec, err := c.Lookup(context.Background(), "1")
	if err != nil {
		t.Fatalf("live lookup after cancellations: %v", err)
	}
	if rec.Year != 1999 {
		t.Errorf("expected year 1999, got %d", rec.Year)
	}
}

func TestLookup_CanceledMidRequest(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		<-release
		_, _ = w.Write([]byte(`{"id": 1}`))
	}, func(cfg *Config) {
		cfg.BreakerFailures = 1
		cfg.BreakerCooldown = time.Hour
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := c.Lookup(ctx, "1"); !errors.Is(err, ErrCanceled) {
		t.Fatalf("expected ErrCanceled, got %v", err)
	}
	if err := c.HealthCheck(context.Background()); err != nil {
		t.Errorf("expected healthy after a caller timeout, got %v", err)
	}
}

func TestLookup_EscapesID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.EscapedPath() != "/3/movie/a%2Fb" {
			t.Errorf("unexpected escaped path: %s", r.URL.EscapedPath())
		}
		_, _ = w.Write([]byte(`{"id": 1}`))
	})
	if _, err := c.Lookup(context.Background(), "a/b"); err != nil {
		t.Fatalf("Lookup: %v", err)
	}
}

func TestKind(t *testing.T) {
	if Kind(nil) != "" {
		t.Error("expected empty kind for nil")
	}
	if Kind(errors.New("x")) != "unknown" {
		t.Error("expected unknown kind")
	}
}
