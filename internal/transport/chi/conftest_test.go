package chi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/kailas-cloud/movierec/internal/domain"
	"github.com/kailas-cloud/movierec/internal/domain/catalog"
	"github.com/kailas-cloud/movierec/internal/domain/credential"
	"github.com/kailas-cloud/movierec/internal/domain/enrichment"
	"github.com/kailas-cloud/movierec/internal/domain/recommendation"
	healthuc "github.com/kailas-cloud/movierec/internal/usecase/health"
	recommenduc "github.com/kailas-cloud/movierec/internal/usecase/recommend"
)

// --- Mocks ---

type recommendCall struct {
	title      string
	years      recommendation.YearRange
	maxResults int
	window     int
	unfiltered bool
}

type mockRecommender struct {
	set     recommendation.Set
	err     error
	detail  recommenduc.Detail
	titles  []string
	last    recommendCall
	called  bool
	lastPfx string
	lastLim int
}

func (m *mockRecommender) Recommend(
	_ context.Context, title string, years recommendation.YearRange, maxResults, window int,
) (recommendation.Set, error) {
	m.called = true
	m.last = recommendCall{title: title, years: years, maxResults: maxResults, window: window}
	return m.set, m.err
}

func (m *mockRecommender) RecommendUnfiltered(
	_ context.Context, title string, maxResults int,
) (recommendation.Set, error) {
	m.called = true
	m.last = recommendCall{title: title, maxResults: maxResults, unfiltered: true}
	return m.set, m.err
}

func (m *mockRecommender) Details(_ context.Context, title string) (recommenduc.Detail, error) {
	if m.err != nil {
		return recommenduc.Detail{}, m.err
	}
	if title != m.detail.Item.Title() {
		return recommenduc.Detail{}, domain.ErrNotFound
	}
	return m.detail, nil
}

func (m *mockRecommender) Titles(_ context.Context, prefix string, limit int) []string {
	m.lastPfx, m.lastLim = prefix, limit
	return m.titles
}

type mockUsers struct {
	rows        []credential.Credential
	err         error
	adminPass   string
	registered  []string
	updatedFrom string
	deleted     string
}

func (m *mockUsers) AuthenticateAdmin(_ context.Context, username, pass string) (credential.Credential, error) {
	if m.err != nil {
		return credential.Credential{}, m.err
	}
	if username != credential.AdminUsername || pass != m.adminPass {
		return credential.Credential{}, domain.ErrInvalidCredentials
	}
	return credential.Credential{Username: username}, nil
}

func (m *mockUsers) Register(_ context.Context, username, _, _ string) error {
	if m.err != nil {
		return m.err
	}
	m.registered = append(m.registered, username)
	return nil
}

func (m *mockUsers) Login(_ context.Context, username, _ string) (credential.Credential, error) {
	if m.err != nil {
		return credential.Credential{}, m.err
	}
	return credential.Credential{Username: username, Email: username + "@example.com"}, nil
}

func (m *mockUsers) List(_ context.Context) ([]credential.Credential, error) {
	return m.rows, m.err
}

func (m *mockUsers) Update(_ context.Context, original, _, _ string) error {
	m.updatedFrom = original
	return m.err
}

func (m *mockUsers) Delete(_ context.Context, username string) error {
	m.deleted = username
	return m.err
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

// reservedUsers applies the admin guard the real user service enforces.
type reservedUsers struct {
	*mockUsers
}

func (r *reservedUsers) Delete(ctx context.Context, username string) error {
	if credential.IsAdmin(username) {
		return fmt.Errorf("delete %q: %w", username, domain.ErrReservedUsername)
	}
	return r.mockUsers.Delete(ctx, username)
}

// --- Helpers ---

var errBoom = errors.New("boom")

func nopLogger() *zap.Logger { return zap.NewNop() }

type testEnv struct {
	rec     *mockRecommender
	users   *mockUsers
	health  *mockHealth
	handler http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		rec:   &mockRecommender{},
		users: &mockUsers{adminPass: "adminpw"},
		health: &mockHealth{report: healthuc.Report{
			Status: healthuc.Healthy,
			Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckOK},
		}},
	}
	srv := NewServer(env.rec, env.users, env.health, zap.NewNop())
	env.handler = NewRouter(srv, RouterConfig{LoginRateLimit: 3}, zap.NewNop())
	return env
}

func (e *testEnv) do(t *testing.T, method, target, body string, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for _, m := range mutate {
		m(req)
	}
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func asAdmin(pass string) func(*http.Request) {
	return func(r *http.Request) { r.SetBasicAuth(credential.AdminUsername, pass) }
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body=%q)", err, rr.Body.String())
	}
	return v
}

func sampleSet() recommendation.Set {
	return recommendation.Set{
		Status:  recommendation.StatusOK,
		Scanned: 3,
		Took:    42 * time.Millisecond,
		Results: []recommendation.Result{
			{
				Index: 2, Title: "Heat", Score: 0.91, Enriched: true,
				Enrichment: enrichment.New("https://img/heat.jpg", "tt0113277", "1995-12-15", []string{"Crime", "Drama"}),
			},
			{Index: 5, Title: "Ronin", Score: 0.80},
		},
	}
}

func sampleItem(t *testing.T) catalog.Item {
	t.Helper()
	it, err := catalog.NewItem(949, "Heat", "949")
	if err != nil {
		t.Fatal(err)
	}
	return it
}
