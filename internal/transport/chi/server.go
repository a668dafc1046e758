package chi

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/movierec/internal/domain"
	"github.com/kailas-cloud/movierec/internal/domain/credential"
	"github.com/kailas-cloud/movierec/internal/domain/enrichment"
	"github.com/kailas-cloud/movierec/internal/domain/recommendation"
	healthuc "github.com/kailas-cloud/movierec/internal/usecase/health"
	recommenduc "github.com/kailas-cloud/movierec/internal/usecase/recommend"
)

// Query defaults mirror the year slider of the original UI.
const (
	defaultStartYear   = 2000
	defaultEndYear     = 2025
	defaultTitlesLimit = 20
	maxTitlesLimit     = 100
	maxBodyBytes       = 1 << 16
	imdbTitleURL       = "https://www.imdb.com/title/"
)

// Recommender is the recommendation use case.
type Recommender interface {
	Recommend(
		ctx context.Context, title string, years recommendation.YearRange, maxResults, window int,
	) (recommendation.Set, error)
	RecommendUnfiltered(ctx context.Context, title string, maxResults int) (recommendation.Set, error)
	Details(ctx context.Context, title string) (recommenduc.Detail, error)
	Titles(ctx context.Context, prefix string, limit int) []string
}

// Users is the account use case.
type Users interface {
	AdminAuthenticator
	Register(ctx context.Context, username, email, password string) error
	Login(ctx context.Context, username, password string) (credential.Credential, error)
	List(ctx context.Context) ([]credential.Credential, error)
	Update(ctx context.Context, original, newUsername, newEmail string) error
	Delete(ctx context.Context, username string) error
}

// HealthChecker aggregates component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers.
type Server struct {
	recommend     Recommender
	users         Users
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(recommend Recommender, users Users, health HealthChecker, logger *zap.Logger) *Server {
	s := &Server{
		recommend: recommend,
		users:     users,
		health:    health,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrReservedUsername, http.StatusConflict, codeReservedUsername),
		sentinelHandler(domain.ErrAlreadyExists, http.StatusConflict, codeAlreadyExists),
		sentinelHandler(domain.ErrInvalidCredentials, http.StatusUnauthorized, codeInvalidCredentials),
		sentinelHandler(domain.ErrStorageUnavailable, http.StatusServiceUnavailable, codeStorageUnavailable),
		sentinelHandler(domain.ErrEnrichmentUnavailable, http.StatusBadGateway, codeEnrichmentFailed),
	}
	return s
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// Register handles POST /api/v1/auth/register.
func (s *Server) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := s.users.Register(r.Context(), req.Username, req.Email, req.Password); err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, userResponse{Username: req.Username, Email: req.Email})
}

// Login handles POST /api/v1/auth/login.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeBody(w, r, &req) {
		return
	}

	c, err := s.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, userResponse{
		Username: c.Username,
		Email:    c.Email,
		IsAdmin:  credential.IsAdmin(c.Username),
	})
}

// ListTitles handles GET /api/v1/movies.
func (s *Server) ListTitles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := intParam(q.Get("limit"), defaultTitlesLimit)
	if err != nil || limit <= 0 || limit > maxTitlesLimit {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			"limit must be between 1 and "+strconv.Itoa(maxTitlesLimit))
		return
	}

	titles := s.recommend.Titles(r.Context(), q.Get("prefix"), limit)
	if titles == nil {
		titles = []string{}
	}
	writeJSON(w, http.StatusOK, listResponse[string]{Items: titles})
}

// MovieDetails handles GET /api/v1/movies/details.
func (s *Server) MovieDetails(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	if title == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "title is required")
		return
	}

	d, err := s.recommend.Details(r.Context(), title)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp := movieResponse{
		ID:         d.Item.ID(),
		Title:      d.Item.Title(),
		ExternalID: d.Item.ExternalID(),
		Enriched:   d.Enriched,
	}
	if d.Enriched {
		resp.PosterURL = d.Enrichment.PosterURL
		resp.IMDbID = d.Enrichment.IMDbID
		resp.IMDbURL = imdbURL(d.Enrichment.IMDbID)
		resp.Year = d.Enrichment.Year
		resp.ReleaseDate = d.Enrichment.ReleaseDate
		resp.Genres = d.Enrichment.Genres
	}
	writeJSON(w, http.StatusOK, resp)
}

// Recommend handles GET /api/v1/recommendations.
func (s *Server) Recommend(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	title := q.Get("title")
	if title == "" {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "title is required")
		return
	}

	limit, err := intParam(q.Get("limit"), 0)
	if err != nil || limit < 0 {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "limit must be a non-negative integer")
		return
	}
	unfiltered, err := boolParam(q.Get("unfiltered"))
	if err != nil {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "unfiltered must be a boolean")
		return
	}

	var set recommendation.Set
	if unfiltered {
		set, err = s.recommend.RecommendUnfiltered(r.Context(), title, limit)
	} else {
		years, window, perr := recommendParams(q)
		if perr != nil {
			writeError(w, http.StatusBadRequest, codeValidationFailed, perr.Error())
			return
		}
		set, err = s.recommend.Recommend(r.Context(), title, years, limit, window)
	}
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]recommendationItem, len(set.Results))
	for i, res := range set.Results {
		items[i] = recommendationToResponse(res)
	}
	writeJSON(w, http.StatusOK, recommendationResponse{
		Status:  string(set.Status),
		TookMs:  set.Took.Milliseconds(),
		Scanned: set.Scanned,
		Items:   items,
	})
}

// ListUsers handles GET /api/v1/admin/users.
func (s *Server) ListUsers(w http.ResponseWriter, r *http.Request) {
	rows, err := s.users.List(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]userResponse, len(rows))
	for i, c := range rows {
		items[i] = userResponse{Username: c.Username, Email: c.Email, IsAdmin: credential.IsAdmin(c.Username)}
	}
	writeJSON(w, http.StatusOK, listResponse[userResponse]{Items: items})
}

// UpdateUser handles PUT /api/v1/admin/users/{username}.
func (s *Server) UpdateUser(w http.ResponseWriter, r *http.Request) {
	original := chi.URLParam(r, "username")

	var req updateUserRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := s.users.Update(r.Context(), original, req.Username, req.Email); err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, userResponse{Username: req.Username, Email: req.Email})
}

// DeleteUser handles DELETE /api/v1/admin/users/{username}.
func (s *Server) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := s.users.Delete(r.Context(), chi.URLParam(r, "username")); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func recommendParams(q map[string][]string) (recommendation.YearRange, int, error) {
	get := func(k string) string {
		if v := q[k]; len(v) > 0 {
			return v[0]
		}
		return ""
	}

	start, err := intParam(get("start_year"), defaultStartYear)
	if err != nil {
		return recommendation.YearRange{}, 0, errors.New("start_year must be an integer")
	}
	end, err := intParam(get("end_year"), defaultEndYear)
	if err != nil {
		return recommendation.YearRange{}, 0, errors.New("end_year must be an integer")
	}
	includeUnknown, err := boolParam(get("include_unknown"))
	if err != nil {
		return recommendation.YearRange{}, 0, errors.New("include_unknown must be a boolean")
	}
	window, err := intParam(get("window"), 0)
	if err != nil || window < 0 {
		return recommendation.YearRange{}, 0, errors.New("window must be a non-negative integer")
	}

	years, err := recommendation.NewYearRange(start, end, includeUnknown)
	if err != nil {
		return recommendation.YearRange{}, 0, err
	}
	return years, window, nil
}

func recommendationToResponse(res recommendation.Result) recommendationItem {
	item := recommendationItem{
		Title:    res.Title,
		Score:    finiteScore(res.Score),
		Enriched: res.Enriched,
	}
	if res.Enriched {
		item.PosterURL = res.Enrichment.PosterURL
		item.IMDbID = res.Enrichment.IMDbID
		item.IMDbURL = imdbURL(res.Enrichment.IMDbID)
		item.Year = res.Enrichment.Year
		item.Genres = res.Enrichment.Genres
	} else {
		item.Year = enrichment.UnknownYear
	}
	return item
}

// finiteScore maps NaN and infinite similarities to 0; JSON cannot carry them.
func finiteScore(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func imdbURL(id string) string {
	if id == "" {
		return ""
	}
	return imdbTitleURL + id
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(strings.TrimSpace(raw))
}

func boolParam(raw string) (bool, error) {
	if raw == "" {
		return false, nil
	}
	return strconv.ParseBool(raw)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

// writeJSON encodes v before committing the status, so an unencodable value becomes a 500
// with an error body instead of an empty 200.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		data, _ = json.Marshal(errorResponse{Code: codeInternalError, Message: "internal error"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(data, '\n'))
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
// Validation errors carry user input only, so they are returned verbatim.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrInvalidInput) {
		return err.Error()
	}
	sentinels := []error{
		domain.ErrInvalidInput,
		domain.ErrNotFound,
		domain.ErrReservedUsername,
		domain.ErrAlreadyExists,
		domain.ErrInvalidCredentials,
		domain.ErrStorageUnavailable,
		domain.ErrEnrichmentUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
