package httpx

import (
	"bytes"
	"log/slog"
	"net/http"

	domainauth "github.com/gatewatch/ui-gateway/internal/domain/auth"
)

// RouterServices holds everything the HTTP router needs.
type RouterServices struct {
	Auth         AuthServiceInterface
	Audit        AuditReader // optional; admin audit routes are skipped when nil
	CookieDomain string
	Logger       *slog.Logger
}

// NewRouter assembles the full route table: auth API, admin API, health and
// the guarded view routes, wrapped in the logging, recovery and browser
// detection middleware.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	authHandlers := &AuthHandlers{
		Svc:          services.Auth,
		CookieDomain: services.CookieDomain,
		Logger:       logger,
	}
	viewHandlers := &ViewHandlers{}

	registerAuthRoutes(mux, authHandlers)
	if services.Audit != nil {
		registerAdminRoutes(mux, &AuditHandlers{Repo: services.Audit}, services.Auth)
	}
	mux.HandleFunc("GET /healthz", healthHandler)
	mux.HandleFunc("HEAD /healthz", healthHandler)
	registerViewRoutes(mux, viewHandlers, services.Auth)

	handler := &notFoundHandler{mux: mux, views: viewHandlers}

	return Chain(handler,
		Recover(logger),
		Logging(logger),
		BrowserDetection(),
	)
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers) {
	mux.HandleFunc("POST /api/auth/login", h.SignIn)
	mux.HandleFunc("POST /api/auth/logout", h.SignOut)
	mux.HandleFunc("GET /api/auth/session", h.SessionStatus)
	mux.HandleFunc("POST /api/auth/refresh", h.Refresh)
	mux.HandleFunc("POST /api/auth/forgot-password", h.ForgotPassword)
}

func registerAdminRoutes(mux *http.ServeMux, h *AuditHandlers, sessions SessionResolver) {
	admin := RequireRole(sessions, domainauth.RoleAdmin)
	mux.Handle("GET /api/admin/signin-audit", admin(http.HandlerFunc(h.RecentSignIns)))
}

func registerViewRoutes(mux *http.ServeMux, h *ViewHandlers, sessions SessionResolver) {
	guard := Guard(sessions)
	mux.Handle("GET /{$}", guard(http.HandlerFunc(h.Home)))
	for _, view := range declaredViews {
		mux.Handle("GET "+view.Path, guard(h.ServeView(view)))
	}
}

// notFoundHandler wraps the mux so unmatched routes get the application 404
// instead of the bare ServeMux one.
type notFoundHandler struct {
	mux   *http.ServeMux
	views *ViewHandlers
}

func (h *notFoundHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cw := newCaptureWriter(w)
	h.mux.ServeHTTP(cw, r)
	if cw.status == http.StatusNotFound {
		h.views.NotFound(w, r)
		return
	}
	cw.flushTo(w)
}

// captureWriter buffers headers, status and body so the 404 decision can be
// made after dispatch.
type captureWriter struct {
	rw     http.ResponseWriter
	header http.Header
	status int
	buf    bytes.Buffer
}

func newCaptureWriter(w http.ResponseWriter) *captureWriter {
	return &captureWriter{rw: w, header: make(http.Header), status: http.StatusOK}
}

func (c *captureWriter) Header() http.Header         { return c.header }
func (c *captureWriter) WriteHeader(code int)        { c.status = code }
func (c *captureWriter) Write(b []byte) (int, error) { return c.buf.Write(b) }

func (c *captureWriter) flushTo(w http.ResponseWriter) {
	for k, vs := range c.header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	w.WriteHeader(c.status)
	if _, err := w.Write(c.buf.Bytes()); err != nil {
		slog.Error("write captured response", "error", err)
	}
}
