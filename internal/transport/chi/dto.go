package chi

// errorCode is the machine-readable error code in every error body.
type errorCode string

const (
	codeBadRequest         errorCode = "bad_request"
	codeValidationFailed   errorCode = "validation_failed"
	codeNotFound           errorCode = "not_found"
	codeAlreadyExists      errorCode = "already_exists"
	codeReservedUsername   errorCode = "reserved_username"
	codeInvalidCredentials errorCode = "invalid_credentials"
	codeUnauthorized       errorCode = "unauthorized"
	codeRateLimited        errorCode = "rate_limited"
	codeStorageUnavailable errorCode = "storage_unavailable"
	codeEnrichmentFailed   errorCode = "enrichment_unavailable"
	codeInternalError      errorCode = "internal_error"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userResponse struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	IsAdmin  bool   `json:"is_admin,omitempty"`
}

type updateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type listResponse[T any] struct {
	Items []T `json:"items"`
}

type movieResponse struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	ExternalID  string `json:"external_id"`
	PosterURL   string `json:"poster_url,omitempty"`
	IMDbID      string `json:"imdb_id,omitempty"`
	IMDbURL     string `json:"imdb_url,omitempty"`
	Year        int    `json:"year"`
	ReleaseDate string `json:"release_date,omitempty"`
	Genres      string `json:"genres,omitempty"`
	Enriched    bool   `json:"enriched"`
}

type recommendationItem struct {
	Title     string  `json:"title"`
	Score     float64 `json:"score"`
	PosterURL string  `json:"poster_url,omitempty"`
	IMDbID    string  `json:"imdb_id,omitempty"`
	IMDbURL   string  `json:"imdb_url,omitempty"`
	Year      int     `json:"year"`
	Genres    string  `json:"genres,omitempty"`
	Enriched  bool    `json:"enriched"`
}

type recommendationResponse struct {
	Status  string               `json:"status"`
	TookMs  int64                `json:"took_ms"`
	Scanned int                  `json:"scanned"`
	Items   []recommendationItem `json:"items"`
}
