package httpx

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gatewatch/ui-gateway/internal/data"
)

// AuditReader is the read side of the sign-in audit log.
type AuditReader interface {
	Recent(ctx context.Context, limit int) ([]data.SignInAttempt, error)
	RecentByEmail(ctx context.Context, email string, limit int) ([]data.SignInAttempt, error)
}

// AuditHandlers serves the admin-only sign-in audit endpoints.
type AuditHandlers struct {
	Repo AuditReader
}

type auditResponse struct {
	Attempts []data.SignInAttempt `json:"attempts"`
}

// RecentSignIns handles GET /api/admin/signin-audit. Optional query
// parameters: limit (row cap) and email (filter to one account).
func (h *AuditHandlers) RecentSignIns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_limit"})
			return
		}
		limit = n
	}

	var (
		attempts []data.SignInAttempt
		err      error
	)
	if email := r.URL.Query().Get("email"); email != "" {
		attempts, err = h.Repo.RecentByEmail(r.Context(), email, limit)
	} else {
		attempts, err = h.Repo.Recent(r.Context(), limit)
	}
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	if attempts == nil {
		attempts = []data.SignInAttempt{}
	}
	WriteJSON(w, http.StatusOK, auditResponse{Attempts: attempts})
}
