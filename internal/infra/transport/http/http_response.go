package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mkrupp/collabgames/internal/domain"
	context_ "github.com/mkrupp/collabgames/internal/infra/context"
)

const (
	AuthorizationHeader   = "Authorization"
	WWWAuthenticateHeader = "WWW-Authenticate"
	BearerChallenge       = "Bearer"
)

// Machine-readable codes carried in ErrorResponse.Code.
const (
	ErrorCodeInvalidToken    = "invalid_token"
	ErrorCodeUnauthenticated = "unauthenticated"
)

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Detail  string `json:"detail"`
	Code    string `json:"error,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

// ErrorCode classifies an authentication error for ErrorResponse.Code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidToken):
		return ErrorCodeInvalidToken
	case errors.Is(err, domain.ErrUnauthenticated):
		return ErrorCodeUnauthenticated
	default:
		return ""
	}
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	//nolint:wrapcheck
	return json.NewEncoder(w).Encode(v)
}

// WriteError writes an ErrorResponse. Server errors carry the trace ID so that
// clients can quote it.
func WriteError(w http.ResponseWriter, r *http.Request, status int, detail string) {
	resp := ErrorResponse{Detail: detail}

	if status >= http.StatusInternalServerError {
		resp.TraceID, _ = context_.TraceIDFromContext(r.Context())
	}

	_ = WriteJSON(w, status, resp)
}

// WriteUnauthorized writes a 401 with a Bearer challenge.
func WriteUnauthorized(w http.ResponseWriter, detail, code string) {
	w.Header().Set(WWWAuthenticateHeader, BearerChallenge)

	//nolint:exhaustruct
	_ = WriteJSON(w, http.StatusUnauthorized, ErrorResponse{Detail: detail, Code: code})
}
