package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"dsr-ledger/internal/app"

	"github.com/go-chi/chi/v5"
)

// Options configures the HTTP adapter.
type Options struct {
	AllowedOrigins     string // comma-separated; empty disables CORS
	JWTSecret          string
	SecureCookies      bool
	LoginRatePerMinute int // 0 disables login throttling
}

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc           app.ApplicationService
	router        chi.Router
	jwtSecret     string
	secureCookies bool
	limiter       *loginLimiter
	metrics       *metrics
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, opts Options) http.Handler {
	h := &Handler{
		svc:           svc,
		jwtSecret:     opts.JWTSecret,
		secureCookies: opts.SecureCookies,
		limiter:       newLoginLimiter(opts.LoginRatePerMinute),
		metrics:       newMetrics(),
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(h.metrics.Middleware)
	r.Use(CORS(opts.AllowedOrigins))

	r.Method(http.MethodGet, "/metrics", h.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(RequestBodyLimit(maxBodyBytes))

		r.Get("/health", h.health)

		// ── Auth (public) ────────────────────────────────────────────────────
		r.Post("/auth/signup", h.signup)
		r.With(h.limiter.Middleware).Post("/auth/login", h.login)
		r.With(h.limiter.Middleware).Post("/auth/admin-login", h.adminLogin)
		r.Post("/auth/logout", h.logout)

		r.Group(func(r chi.Router) {
			r.Use(h.RequireAuth)

			r.Get("/auth/me", h.me)
			// Export serves both roles; admins see every user.
			r.Get("/ledger/export", h.exportLedger)

			// ── Day entry and personal ledger (user role) ────────────────────
			r.Group(func(r chi.Router) {
				r.Use(RequireRole(app.RoleUser))
				r.Get("/days/{date}", h.getDay)
				r.Put("/days/{date}", h.saveDay)
				r.Get("/days/{date}/report", h.dayReport)
				r.Get("/bills/{bill}/carry-forward", h.carryForward)
				r.Get("/ledger", h.userLedger)
				r.Put("/ledger/entries", h.editEntry)
				r.Post("/ai/draft", h.draftEntry)
			})

			// ── Administration (admin role) ──────────────────────────────────
			r.Group(func(r chi.Router) {
				r.Use(RequireRole(app.RoleAdmin))
				r.Get("/admin/ledger", h.adminLedger)
				r.Put("/admin/entries", h.adminEditEntry)
				r.Delete("/admin/entries", h.adminDeleteEntry)
				r.Get("/admin/users", h.listUsers)
				r.Delete("/admin/users/{name}", h.deleteUser)
			})
		})
	})

	h.router = r
	return r
}

// health returns service status.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}
