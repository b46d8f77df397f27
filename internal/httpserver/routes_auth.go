// internal/httpserver/routes_auth.go
//
// Account endpoints and the auth middleware.
//   - POST /auth/signup, /auth/login, /auth/logout
//   - GET  /auth/me, /stats/me (require auth)
//
// Tokens travel in an HttpOnly cookie (or Authorization: Bearer). Guests get
// a separate anonymous cookie so their daily session survives reloads.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/hlog"

	"github.com/robalobadob/cowsbulls/internal/auth"
	"github.com/robalobadob/cowsbulls/internal/daily"
)

// signupReq / loginReq payloads.
type signupReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// authUser is placed into request context by the auth middleware.
type authUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// ctxUserKey is the context key type for storing authUser.
type ctxUserKey struct{}

func userFrom(ctx context.Context) *authUser {
	u, _ := ctx.Value(ctxUserKey{}).(*authUser)
	return u
}

// mountAuthRoutes registers authentication + gated routes.
func (s *Server) mountAuthRoutes() {
	s.r.Post("/auth/signup", s.handleSignup)
	s.r.Post("/auth/login", s.handleLogin)
	s.r.Post("/auth/logout", s.handleLogout)

	s.r.With(s.requireAuth()).Get("/auth/me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, userFrom(r.Context()))
	})
	s.r.With(s.requireAuth()).Get("/stats/me", s.handleStats)
}

// handleSignup creates a user, signs a JWT and sets the auth cookie.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body signupReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "")
		return
	}
	u, err := s.deps.Users.CreateUser(r.Context(), body.Username, body.Email, body.Password)
	var se *auth.SignupError
	switch {
	case errors.Is(err, auth.ErrUsernameTaken), errors.Is(err, auth.ErrEmailTaken):
		writeError(w, http.StatusConflict, "conflict", err.Error())
		return
	case errors.As(err, &se):
		writeError(w, http.StatusBadRequest, "invalid_signup", se.Error())
		return
	case err != nil:
		hlog.FromRequest(r).Error().Err(err).Msg("signup failed")
		writeError(w, http.StatusInternalServerError, "server_error", "")
		return
	}
	if !s.issueToken(w, r, u) {
		return
	}
	hlog.FromRequest(r).Info().Str("user", u.ID).Msg("user signed up")
	writeJSON(w, http.StatusCreated, u)
}

// handleLogin authenticates a user and sets the auth cookie.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body loginReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "")
		return
	}
	u, err := s.deps.Users.Authenticate(r.Context(), body.Username, body.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, "invalid_credentials", err.Error())
		return
	}
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("login failed")
		writeError(w, http.StatusInternalServerError, "server_error", "")
		return
	}
	if !s.issueToken(w, r, u) {
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// handleLogout clears the auth cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.setCookie(w, s.cfg.CookieName, "", time.Time{}, -1)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type statsRes struct {
	*auth.User
	History []daily.Result `json:"history"`
}

// handleStats returns the player's counters and recent daily results.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	me := userFrom(r.Context())
	u, err := s.deps.Users.FindByID(r.Context(), me.ID)
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found", "")
		return
	}
	hist, err := s.deps.Results.History(r.Context(), me.ID, 30)
	if err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("load history")
		hist = []daily.Result{}
	}
	writeJSON(w, http.StatusOK, statsRes{User: u, History: hist})
}

func (s *Server) issueToken(w http.ResponseWriter, r *http.Request, u *auth.User) bool {
	tok, exp, err := s.deps.Tokens.Sign(u.ID, u.Username)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("sign token")
		writeError(w, http.StatusInternalServerError, "sign_failed", "")
		return false
	}
	s.setCookie(w, s.cfg.CookieName, tok, exp, 0)
	return true
}

// --------------------------- auth middleware -------------------------------

// authenticate resolves the request's token to a live user, or nil.
func (s *Server) authenticate(r *http.Request) *authUser {
	raw := s.bearerOrCookie(r)
	if raw == "" {
		return nil
	}
	claims, err := s.deps.Tokens.Parse(raw)
	if err != nil {
		return nil
	}
	// Ensure user still exists.
	if _, err := s.deps.Users.FindByID(r.Context(), claims.ID); err != nil {
		return nil
	}
	return &authUser{ID: claims.ID, Username: claims.Username}
}

// withOptionalAuth decorates requests with user context if a valid JWT is
// present. It never 401s.
func (s *Server) withOptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if me := s.authenticate(r); me != nil {
				r = r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, me))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requireAuth enforces a valid JWT.
func (s *Server) requireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			me := s.authenticate(r)
			if me == nil {
				writeError(w, http.StatusUnauthorized, "unauthorized", "")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxUserKey{}, me)))
		})
	}
}

// bearerOrCookie extracts a token from the Authorization header or auth cookie.
func (s *Server) bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(s.cfg.CookieName); err == nil {
		return c.Value
	}
	return ""
}

const anonCookieName = "cowsbulls_anon"

// playerID returns the signed-in user's id, or a stable anonymous id from
// (or newly set in) the guest cookie.
func (s *Server) playerID(w http.ResponseWriter, r *http.Request) string {
	if me := userFrom(r.Context()); me != nil {
		return me.ID
	}
	if c, err := r.Cookie(anonCookieName); err == nil && c.Value != "" {
		return "anon:" + c.Value
	}
	id := uuid.NewString()
	s.setCookie(w, anonCookieName, id, time.Now().Add(180*24*time.Hour), 0)
	return "anon:" + id
}

// setCookie writes an HttpOnly cookie; SameSite=None+Secure in production.
func (s *Server) setCookie(w http.ResponseWriter, name, value string, exp time.Time, maxAge int) {
	sameSite := http.SameSiteLaxMode
	if s.cfg.Production {
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.Production,
		SameSite: sameSite,
		Expires:  exp,
		MaxAge:   maxAge,
	})
}
