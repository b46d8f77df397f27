// internal/httpserver/routes_daily.go
//
// HTTP routes for the daily game.
// Exposes four endpoints under /daily:
//   - POST /daily/new         → start today's game (creates or reuses session)
//   - POST /daily/guess       → submit a guess for today's game
//   - GET  /daily/state       → current attempts and guess history
//   - GET  /daily/leaderboard → top results for today (or a given date)
//
// Each player plays once per day key: the session manager reuses today's
// session, and a recorded result (won, or lost under an attempt cap) blocks
// a fresh one. The target is only revealed once the game is finished.

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"
	"github.com/samber/lo"

	"github.com/robalobadob/cowsbulls/internal/daily"
	"github.com/robalobadob/cowsbulls/internal/game"
	"github.com/robalobadob/cowsbulls/internal/session"
)

// mountDaily registers all /daily routes.
func (s *Server) mountDaily(r chi.Router) {
	r.Route("/daily", func(r chi.Router) {
		r.Post("/new", s.handleDailyNew)
		r.With(s.limiter.middleware).Post("/guess", s.handleDailyGuess)
		r.Get("/state", s.handleDailyState)
		r.Get("/leaderboard", s.handleLeaderboard)
	})
}

// guessView is one history entry as the client sees it.
type guessView struct {
	Guess     string    `json:"guess"`
	Cows      int       `json:"cows"`
	Bulls     int       `json:"bulls"`
	IsCorrect bool      `json:"isCorrect"`
	Timestamp time.Time `json:"timestamp"`
}

func viewOf(g game.GuessResult) guessView {
	return guessView{
		Guess:     game.FormatGuess(g.Guess),
		Cows:      g.Cows,
		Bulls:     g.Bulls,
		IsCorrect: g.IsCorrect,
		Timestamp: g.Timestamp,
	}
}

// revealTarget returns the formatted target once sess is finished.
func (s *Server) revealTarget(sess session.Session) string {
	if !s.deps.Sessions.Finished(sess) {
		return ""
	}
	return daily.Format(sess.State.Target)
}

// -----------------------------------------------------------------------------
// /daily/new

type newRes struct {
	SessionID   string `json:"sessionId"`
	Date        string `json:"date"`
	Played      bool   `json:"played"`
	State       string `json:"state,omitempty"`
	Attempts    int    `json:"attempts"`
	MaxAttempts int    `json:"maxAttempts,omitempty"`
}

// handleDailyNew creates or reuses today's session.
//   - A recorded result for today → Played=true, no session.
//   - Otherwise the (possibly already finished) session for today.
func (s *Server) handleDailyNew(w http.ResponseWriter, r *http.Request) {
	pid := s.playerID(w, r)
	sess, err := s.deps.Sessions.Start(r.Context(), pid)
	if errors.Is(err, session.ErrAlreadyPlayed) {
		writeJSON(w, http.StatusOK, newRes{Date: daily.DateKey(s.clock.Now()), Played: true})
		return
	}
	if err != nil {
		writeGameError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newRes{
		SessionID:   sess.ID,
		Date:        sess.Date,
		Played:      s.deps.Sessions.Finished(sess),
		State:       string(s.deps.Sessions.Status(sess)),
		Attempts:    sess.State.Attempts,
		MaxAttempts: s.deps.Sessions.MaxAttempts(),
	})
}

// -----------------------------------------------------------------------------
// /daily/guess

type dailyGuessReq struct {
	SessionID string `json:"sessionId"`
	Guess     string `json:"guess"`
}

type dailyGuessRes struct {
	Guess     string `json:"guess"`
	Cows      int    `json:"cows"`
	Bulls     int    `json:"bulls"`
	IsCorrect bool   `json:"isCorrect"`
	Feedback  string `json:"feedback"`
	Attempts  int    `json:"attempts"`
	State     string `json:"state"`
	Remaining *int   `json:"remaining,omitempty"`
	Target    string `json:"target,omitempty"`
}

// handleDailyGuess validates and applies a guess to the caller's session.
func (s *Server) handleDailyGuess(w http.ResponseWriter, r *http.Request) {
	pid := s.playerID(w, r)

	var p dailyGuessReq
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "")
		return
	}
	if p.SessionID == "" {
		writeError(w, http.StatusBadRequest, "missing_session", "sessionId is required")
		return
	}

	sess, res, err := s.deps.Sessions.Guess(r.Context(), pid, p.SessionID, p.Guess)
	if err != nil {
		writeGameError(w, r, err)
		return
	}

	out := dailyGuessRes{
		Guess:     game.FormatGuess(res.Guess),
		Cows:      res.Cows,
		Bulls:     res.Bulls,
		IsCorrect: res.IsCorrect,
		Feedback:  game.FeedbackMessage(res.Cows, res.Bulls),
		Attempts:  sess.State.Attempts,
		State:     string(s.deps.Sessions.Status(sess)),
		Target:    s.revealTarget(sess),
	}
	if rem := s.deps.Sessions.Remaining(sess); rem >= 0 {
		out.Remaining = &rem
	}
	writeJSON(w, http.StatusOK, out)
}

// -----------------------------------------------------------------------------
// /daily/state

type stateRes struct {
	SessionID       string      `json:"sessionId"`
	Date            string      `json:"date"`
	State           string      `json:"state"`
	Attempts        int         `json:"attempts"`
	IsWon           bool        `json:"isWon"`
	DurationSeconds int         `json:"durationSeconds"`
	Guesses         []guessView `json:"guesses"`
	Target          string      `json:"target,omitempty"`
}

// handleDailyState returns the caller's session snapshot.
func (s *Server) handleDailyState(w http.ResponseWriter, r *http.Request) {
	pid := s.playerID(w, r)
	id := r.URL.Query().Get("sessionId")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing_session", "sessionId is required")
		return
	}
	sess, err := s.deps.Sessions.Get(r.Context(), pid, id)
	if err != nil {
		writeGameError(w, r, err)
		return
	}
	st := sess.State
	writeJSON(w, http.StatusOK, stateRes{
		SessionID:       sess.ID,
		Date:            sess.Date,
		State:           string(s.deps.Sessions.Status(sess)),
		Attempts:        st.Attempts,
		IsWon:           st.IsWon,
		DurationSeconds: game.Summarize(st, s.clock.Now()).DurationSeconds,
		Guesses:         lo.Map(st.History(), func(g game.GuessResult, _ int) guessView { return viewOf(g) }),
		Target:          s.revealTarget(sess),
	})
}

// -----------------------------------------------------------------------------
// /daily/leaderboard

type lbRes struct {
	Date string        `json:"date"`
	Top  []daily.LBRow `json:"top"`
}

// handleLeaderboard returns the leaderboard for the given date (default today).
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	date := daily.DateKey(s.clock.Now())
	if q := r.URL.Query().Get("date"); q != "" {
		key, _, err := daily.ParseDateKey(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_date", "date must be YYYY-MM-DD")
			return
		}
		date = key
	}
	limit := 20
	if q := r.URL.Query().Get("limit"); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	rows, err := s.deps.Results.Leaderboard(r.Context(), date, limit)
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("leaderboard query")
		writeError(w, http.StatusInternalServerError, "server_error", "")
		return
	}
	// Player ids are account ids or guest cookie values; only names go out.
	for i := range rows {
		rows[i].PlayerID = ""
		if rows[i].Username == "" {
			rows[i].Username = "guest"
		}
	}
	if rows == nil {
		rows = []daily.LBRow{}
	}
	writeJSON(w, http.StatusOK, lbRes{Date: date, Top: rows})
}
