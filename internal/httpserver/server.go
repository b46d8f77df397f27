// internal/httpserver/server.go
//
// HTTP server wiring for the Cows and Bulls backend.
// Responsibilities:
//   - Router + middleware (request IDs, real IP, panic recovery, timeouts,
//     access logging, JSON content type, CORS).
//   - Diagnostics: "/", "/health", "/metrics".
//   - Daily game endpoints (optional auth): mounted under /daily.
//   - Auth + profile/stat endpoints: /auth/*, /stats/me.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Guests are identified by an anonymous cookie; signed-in players by
//     their JWT (cookie or bearer header).
//   - Guess endpoints are rate limited per client IP.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/cowsbulls/internal/auth"
	"github.com/robalobadob/cowsbulls/internal/config"
	"github.com/robalobadob/cowsbulls/internal/daily"
	"github.com/robalobadob/cowsbulls/internal/game"
	"github.com/robalobadob/cowsbulls/internal/session"
)

// Deps are the collaborators the server routes to.
type Deps struct {
	Config   config.Config
	Sessions *session.Manager
	Results  *daily.Store
	Users    *auth.Service
	Tokens   *auth.Tokens
	Metrics  http.Handler // optional
	Clock    game.Clock   // defaults to game.SystemClock
}

// Server bundles the router and its dependencies.
type Server struct {
	r       *chi.Mux
	cfg     config.Config
	deps    Deps
	clock   game.Clock
	limiter *ipLimiter
}

// New constructs a Server, installs middleware, and registers routes.
func New(d Deps) *Server {
	if d.Clock == nil {
		d.Clock = game.SystemClock
	}
	s := &Server{
		r:       chi.NewRouter(),
		cfg:     d.Config,
		deps:    d,
		clock:   d.Clock,
		limiter: newIPLimiter(d.Config.RateLimitRPS, d.Config.RateLimitBurst),
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(hlog.NewHandler(log.Logger))     // request-scoped logger
	s.r.Use(accessLog)                       // one line per request
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(s.cors)                          // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"service":   "cowsbulls",
			"endpoints": []string{"/health", "POST /daily/new", "POST /daily/guess", "GET /daily/state", "GET /daily/leaderboard", "/auth/*"},
		})
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "date": daily.DateKey(s.clock.Now())})
	})
	if d.Metrics != nil {
		s.r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	// Daily game: optional auth (guests can play; results persisted on win)
	s.mountDaily(s.r.With(s.withOptionalAuth()))

	// Auth + profile/stats
	s.mountAuthRoutes()

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", r.URL.Path)
	})

	return s
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// Start serves HTTP on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		t := time.NewTicker(5 * time.Minute)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.limiter.prune(15 * time.Minute)
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() { errCh <- hs.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info().Msg("shutting down http server")
		return hs.Shutdown(shutdownCtx)
	}
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// accessLog writes one structured line per request.
var accessLog = hlog.AccessHandler(func(r *http.Request, status, size int, d time.Duration) {
	hlog.FromRequest(r).Info().
		Str("req_id", chimw.GetReqID(r.Context())).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("duration", d).
		Msg("request")
})

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	origin := s.cfg.ClientOrigin
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------- responses ---------------------------------

type errorRes struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorRes{Error: code, Message: msg})
}

// writeGameError maps engine and session errors onto HTTP responses.
func writeGameError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *game.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Code, ve.Error())
	case errors.Is(err, game.ErrGameAlreadyWon):
		writeError(w, http.StatusConflict, "game_already_won", err.Error())
	case errors.Is(err, game.ErrAttemptsExhausted):
		writeError(w, http.StatusConflict, "attempts_exhausted", err.Error())
	case errors.Is(err, session.ErrNotFound):
		writeError(w, http.StatusNotFound, "session_not_found", err.Error())
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("daily request failed")
		writeError(w, http.StatusInternalServerError, "server_error", "")
	}
}
