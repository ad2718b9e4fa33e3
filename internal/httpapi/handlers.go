package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"mservice.org/internal/auth"
	"mservice.org/internal/obs"
)

// ReadyProbe checks backing stores before the service reports ready.
type ReadyProbe struct {
	DB   *sql.DB
	Ping func(ctx context.Context) error
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB != nil {
		if err := rp.DB.PingContext(ctx); err != nil {
			return err
		}
	}
	if rp.Ping != nil {
		return rp.Ping(ctx)
	}
	return nil
}

// API is the HTTP layer.
type API struct {
	mux          *http.ServeMux
	svc          *auth.Service
	accessTokens *auth.AccessTokens
	readyProbe   ReadyProbe
	version      string

	maxBodyBytes int64
	rateBurst    int
	ratePerSec   int
}

// Option configures the API.
type Option func(*API)

// WithLimits tunes body size and per-IP rate limiting.
func WithLimits(maxBodyBytes int64, rateBurst, ratePerSec int) Option {
	return func(a *API) {
		if maxBodyBytes > 0 {
			a.maxBodyBytes = maxBodyBytes
		}
		if rateBurst > 0 {
			a.rateBurst = rateBurst
		}
		if ratePerSec > 0 {
			a.ratePerSec = ratePerSec
		}
	}
}

// New wires the routes. accessTokens may be nil, which disables the
// secondary-token check on ACL-guarded routes.
func New(svc *auth.Service, accessTokens *auth.AccessTokens, rp ReadyProbe, version string, opts ...Option) *API {
	a := &API{
		mux:          http.NewServeMux(),
		svc:          svc,
		accessTokens: accessTokens,
		readyProbe:   rp,
		version:      version,
		maxBodyBytes: 1 << 20,
		rateBurst:    100,
		ratePerSec:   50,
	}
	for _, opt := range opts {
		opt(a)
	}

	// health/ready/info
	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)

	// Prometheus metrics
	a.mux.Handle("/metrics", obs.Handler())

	// session lifecycle
	a.mux.HandleFunc("/api/v1/auth/login", a.handleLogin)
	a.mux.HandleFunc("/api/v1/auth/logout", a.handleLogout)
	a.mux.HandleFunc("/api/v1/auth/refresh", a.handleRefresh)
	a.Protect("/api/v1/auth/whoami", auth.RequireUser(), http.HandlerFunc(a.handleWhoami))

	// admin surface
	a.Protect("/api/v1/admin/ping", auth.RequireAdmin(), http.HandlerFunc(a.handleAdminPing))

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return a
}

// Protect mounts a handler behind the mode guard.
func (a *API) Protect(pattern string, req auth.Requirement, h http.Handler) {
	a.mux.Handle(pattern, a.withGuard(req, h))
}

// ProtectACL mounts a handler behind the full ACL guard: access token plus
// resolved api closure against the request path and method.
func (a *API) ProtectACL(pattern string, h http.Handler) {
	a.mux.Handle(pattern, a.withAPIGuard(h))
}

// Handler returns the full middleware chain around the mux.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = MaxBodyBytes(h, a.maxBodyBytes)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "m-service-api",
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "m-service-api",
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	})
}

func (a *API) handleAdminPing(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "pong"})
}
