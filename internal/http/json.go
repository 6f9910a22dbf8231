package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	domainauth "github.com/gatewatch/ui-gateway/internal/domain/auth"
	apperrors "github.com/gatewatch/ui-gateway/internal/errors"
)

const maxJSONBody = 1 << 20 // 1 MiB

// DecodeJSON decodes the request body into dst, rejecting unknown fields and
// oversized bodies.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

// WriteJSON encodes v to a buffer first so an encoding failure never leaves a
// half-written response on the wire.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
		http.Error(w, `{"error":"internal_error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// ErrorParams describes a JSON error response.
type ErrorParams struct {
	Code    int    // HTTP status
	ErrCode string // stable machine-readable code
	Err     error  // optional detail, included as message when present
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteError writes a JSON error envelope.
func WriteError(w http.ResponseWriter, p ErrorParams) {
	body := errorBody{Error: p.ErrCode}
	if p.Err != nil {
		body.Message = p.Err.Error()
	}
	WriteJSON(w, p.Code, body)
}

// WriteDomainError maps domain and application errors onto HTTP statuses and
// stable error codes. Unknown errors become an opaque 500 so internals never
// leak to clients.
func WriteDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domainauth.ErrInvalidCredentials):
		WriteError(w, ErrorParams{Code: http.StatusUnauthorized, ErrCode: "invalid_credentials"})
	case errors.Is(err, domainauth.ErrUnknownRole):
		WriteError(w, ErrorParams{Code: http.StatusForbidden, ErrCode: "unknown_role"})
	case errors.Is(err, domainauth.ErrUnauthorizedEmail):
		WriteError(w, ErrorParams{Code: http.StatusForbidden, ErrCode: "unauthorized_email"})
	case errors.Is(err, domainauth.ErrSessionNotFound):
		WriteError(w, ErrorParams{Code: http.StatusUnauthorized, ErrCode: "authentication_required"})
	case errors.Is(err, domainauth.ErrUpstreamUnavailable):
		WriteError(w, ErrorParams{Code: http.StatusServiceUnavailable, ErrCode: "upstream_unavailable"})
	case errors.Is(err, domainauth.ErrUpstreamFailure):
		WriteError(w, ErrorParams{Code: http.StatusBadGateway, ErrCode: "upstream_failure"})
	case apperrors.IsValidation(err):
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation_error", Err: err})
	case apperrors.IsNotFound(err):
		WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found"})
	case apperrors.IsConflict(err):
		WriteError(w, ErrorParams{Code: http.StatusConflict, ErrCode: "conflict"})
	case apperrors.IsUnavailable(err):
		WriteError(w, ErrorParams{Code: http.StatusServiceUnavailable, ErrCode: "unavailable"})
	default:
		slog.Error("unhandled error", "error", err)
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "internal_error"})
	}
}
