package httpserver

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/robalobadob/cowsbulls/assets"
	"github.com/robalobadob/cowsbulls/internal/auth"
	"github.com/robalobadob/cowsbulls/internal/config"
	"github.com/robalobadob/cowsbulls/internal/daily"
	"github.com/robalobadob/cowsbulls/internal/database"
	"github.com/robalobadob/cowsbulls/internal/game"
	"github.com/robalobadob/cowsbulls/internal/metrics"
	"github.com/robalobadob/cowsbulls/internal/session"
	"github.com/robalobadob/cowsbulls/internal/store"
)

var t0 = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func testConfig() config.Config {
	return config.Config{
		ClientOrigin:   "http://localhost:5173",
		JWTSecret:      "test-secret",
		TokenTTL:       time.Hour,
		CookieName:     "cowsbulls_token",
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
	}
}

type harness struct {
	t      *testing.T
	db     *sql.DB
	srv    *httptest.Server
	client *http.Client
}

func newHarness(t *testing.T, cfg config.Config, db *sql.DB) *harness {
	t.Helper()
	if db == nil {
		var err error
		db, err = database.OpenAndMigrate(database.MemoryDSN, assets.Migrations())
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })
	}

	clk := &stepClock{now: t0}
	results := daily.NewStore(db)
	users := auth.NewService(db, bcrypt.MinCost)
	reg := prometheus.NewRegistry()
	mgr := session.NewManager(store.NewMemoryStore(),
		session.WithProvider(daily.FixedProvider{Target: 235}),
		session.WithClock(clk),
		session.WithMaxAttempts(cfg.MaxAttempts),
		session.WithMetrics(metrics.NewCollector(reg)),
		session.WithSink(session.ResultSink{Results: results, Stats: auth.AccountStats{Users: users}}),
	)

	s := New(Deps{
		Config:   cfg,
		Sessions: mgr,
		Results:  results,
		Users:    users,
		Tokens:   auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL),
		Metrics:  metrics.Handler(reg),
		Clock:    clk,
	})
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &harness{t: t, db: db, srv: ts, client: &http.Client{Jar: jar}}
}

// do sends a request and decodes the JSON response into out (if non-nil).
func (h *harness) do(method, path string, body any, out any) int {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, h.srv.URL+path, &buf)
	require.NoError(h.t, err)
	req.Header.Set("Content-Type", "application/json")
	res, err := h.client.Do(req)
	require.NoError(h.t, err)
	defer res.Body.Close()
	if out != nil {
		require.NoError(h.t, json.NewDecoder(res.Body).Decode(out))
	}
	return res.StatusCode
}

func (h *harness) newGame() newRes {
	h.t.Helper()
	var nr newRes
	require.Equal(h.t, http.StatusOK, h.do(http.MethodPost, "/daily/new", nil, &nr))
	return nr
}

func (h *harness) guess(id, g string) (int, dailyGuessRes, errorRes) {
	h.t.Helper()
	var raw json.RawMessage
	code := h.do(http.MethodPost, "/daily/guess", dailyGuessReq{SessionID: id, Guess: g}, &raw)
	var ok dailyGuessRes
	var bad errorRes
	if code == http.StatusOK {
		require.NoError(h.t, json.Unmarshal(raw, &ok))
	} else {
		require.NoError(h.t, json.Unmarshal(raw, &bad))
	}
	return code, ok, bad
}

func TestHealth(t *testing.T) {
	h := newHarness(t, testConfig(), nil)
	var body map[string]any
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/health", nil, &body))
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "2024-01-01", body["date"])
}

func TestDaily_GuestPlaysToWin(t *testing.T) {
	h := newHarness(t, testConfig(), nil)

	nr := h.newGame()
	require.NotEmpty(t, nr.SessionID)
	assert.Equal(t, "2024-01-01", nr.Date)
	assert.False(t, nr.Played)
	assert.Equal(t, string(game.StatusNotStarted), nr.State)

	// Reusing the anonymous cookie returns the same session.
	assert.Equal(t, nr.SessionID, h.newGame().SessionID)

	code, res, _ := h.guess(nr.SessionID, "203")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1, res.Bulls)
	assert.Equal(t, 1, res.Cows)
	assert.Equal(t, "1 Bull, 1 Cow", res.Feedback)
	assert.Equal(t, "in_progress", res.State)
	assert.Empty(t, res.Target)
	assert.Nil(t, res.Remaining)

	code, res, _ = h.guess(nr.SessionID, "235")
	require.Equal(t, http.StatusOK, code)
	assert.True(t, res.IsCorrect)
	assert.Equal(t, "won", res.State)
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, "235", res.Target)
	assert.Equal(t, "Congratulations! You've found the number!", res.Feedback)

	code, _, bad := h.guess(nr.SessionID, "456")
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "game_already_won", bad.Error)

	var st stateRes
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/daily/state?sessionId="+nr.SessionID, nil, &st))
	assert.True(t, st.IsWon)
	assert.Equal(t, "235", st.Target)
	require.Len(t, st.Guesses, 2)
	assert.Equal(t, "203", st.Guesses[0].Guess)

	var lb lbRes
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/daily/leaderboard", nil, &lb))
	require.Len(t, lb.Top, 1)
	assert.Equal(t, 2, lb.Top[0].Attempts)
	assert.Equal(t, "guest", lb.Top[0].Username)
	assert.Empty(t, lb.Top[0].PlayerID)
}

func TestDaily_ValidationErrors(t *testing.T) {
	h := newHarness(t, testConfig(), nil)
	nr := h.newGame()

	cases := map[string]string{
		"":      "empty_input",
		"12a":   "non_digit_character",
		"1234":  "wrong_length",
		"112":   "duplicate_digits",
		" 123":  "non_digit_character",
		"123\n": "non_digit_character",
	}
	for in, want := range cases {
		code, _, bad := h.guess(nr.SessionID, in)
		assert.Equal(t, http.StatusBadRequest, code, in)
		assert.Equal(t, want, bad.Error, in)
	}

	var st stateRes
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/daily/state?sessionId="+nr.SessionID, nil, &st))
	assert.Equal(t, 0, st.Attempts)
	assert.Empty(t, st.Guesses)
}

func TestDaily_UnknownSession(t *testing.T) {
	h := newHarness(t, testConfig(), nil)
	h.newGame()
	code, _, bad := h.guess("does-not-exist", "123")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "session_not_found", bad.Error)

	code, _, bad = h.guess("", "123")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "missing_session", bad.Error)
}

func TestDaily_AlreadyPlayedAfterRestart(t *testing.T) {
	h := newHarness(t, testConfig(), nil)
	nr := h.newGame()
	code, _, _ := h.guess(nr.SessionID, "235")
	require.Equal(t, http.StatusOK, code)

	// Same database, fresh in-memory sessions. The cookie jar ignores ports,
	// so the guest cookie carries over.
	h2 := newHarness(t, testConfig(), h.db)
	h2.client = h.client
	var again newRes
	require.Equal(t, http.StatusOK, h2.do(http.MethodPost, "/daily/new", nil, &again))
	assert.True(t, again.Played)
	assert.Empty(t, again.SessionID)
	assert.Equal(t, "2024-01-01", again.Date)
}

func TestDaily_MaxAttempts(t *testing.T) {
	cfg := testConfig()
	cfg.MaxAttempts = 1
	h := newHarness(t, cfg, nil)
	nr := h.newGame()
	assert.Equal(t, 1, nr.MaxAttempts)

	code, res, _ := h.guess(nr.SessionID, "123")
	require.Equal(t, http.StatusOK, code)
	require.NotNil(t, res.Remaining)
	assert.Equal(t, 0, *res.Remaining)
	assert.Equal(t, "lost", res.State)
	assert.Equal(t, "235", res.Target)

	code, _, bad := h.guess(nr.SessionID, "235")
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "attempts_exhausted", bad.Error)

	again := h.newGame()
	assert.Equal(t, nr.SessionID, again.SessionID)
	assert.True(t, again.Played)
	assert.Equal(t, "lost", again.State)

	// Losses stay off the leaderboard.
	var lb lbRes
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/daily/leaderboard", nil, &lb))
	assert.Empty(t, lb.Top)

	// A restart does not hand out fresh attempts.
	h2 := newHarness(t, cfg, h.db)
	h2.client = h.client
	var fresh newRes
	require.Equal(t, http.StatusOK, h2.do(http.MethodPost, "/daily/new", nil, &fresh))
	assert.True(t, fresh.Played)
	assert.Empty(t, fresh.SessionID)
}

func TestDaily_RateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitRPS = 0.001
	cfg.RateLimitBurst = 1
	h := newHarness(t, cfg, nil)
	nr := h.newGame()

	code, _, _ := h.guess(nr.SessionID, "123")
	assert.Equal(t, http.StatusOK, code)
	code, _, bad := h.guess(nr.SessionID, "456")
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, "rate_limited", bad.Error)
}

func TestLeaderboard_InvalidDate(t *testing.T) {
	h := newHarness(t, testConfig(), nil)
	var bad errorRes
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, "/daily/leaderboard?date=yesterday", nil, &bad))
	assert.Equal(t, "invalid_date", bad.Error)

	var lb lbRes
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/daily/leaderboard?date=2023-12-31", nil, &lb))
	assert.Equal(t, "2023-12-31", lb.Date)
	assert.Empty(t, lb.Top)
}

func TestAuth_SignupPlayStats(t *testing.T) {
	h := newHarness(t, testConfig(), nil)

	var bad errorRes
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/stats/me", nil, &bad))

	assert.Equal(t, http.StatusBadRequest,
		h.do(http.MethodPost, "/auth/signup", signupReq{Username: "x", Password: "secret1"}, &bad))
	assert.Equal(t, "invalid_signup", bad.Error)

	var u auth.User
	require.Equal(t, http.StatusCreated,
		h.do(http.MethodPost, "/auth/signup", signupReq{Username: "ana", Password: "secret1"}, &u))
	assert.Equal(t, "ana", u.Username)

	assert.Equal(t, http.StatusConflict,
		h.do(http.MethodPost, "/auth/signup", signupReq{Username: "ANA", Password: "secret1"}, &bad))

	var me authUser
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/auth/me", nil, &me))
	assert.Equal(t, u.ID, me.ID)

	nr := h.newGame()
	code, _, _ := h.guess(nr.SessionID, "235")
	require.Equal(t, http.StatusOK, code)

	var stats struct {
		Wins    int            `json:"wins"`
		Streak  int            `json:"streak"`
		History []daily.Result `json:"history"`
	}
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/stats/me", nil, &stats))
	assert.Equal(t, 1, stats.Wins)
	assert.Equal(t, 1, stats.Streak)
	require.Len(t, stats.History, 1)
	assert.Equal(t, 235, stats.History[0].Target)

	var lb lbRes
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/daily/leaderboard", nil, &lb))
	require.Len(t, lb.Top, 1)
	assert.Equal(t, "ana", lb.Top[0].Username)
	assert.Empty(t, lb.Top[0].PlayerID)

	require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/auth/logout", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/auth/me", nil, &bad))
}

func TestAuth_Login(t *testing.T) {
	h := newHarness(t, testConfig(), nil)
	require.Equal(t, http.StatusCreated,
		h.do(http.MethodPost, "/auth/signup", signupReq{Username: "bella", Password: "secret1"}, nil))
	require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/auth/logout", nil, nil))

	var bad errorRes
	assert.Equal(t, http.StatusUnauthorized,
		h.do(http.MethodPost, "/auth/login", loginReq{Username: "bella", Password: "wrong-pass"}, &bad))
	assert.Equal(t, "invalid_credentials", bad.Error)

	var u auth.User
	require.Equal(t, http.StatusOK,
		h.do(http.MethodPost, "/auth/login", loginReq{Username: "Bella", Password: "secret1"}, &u))
	assert.Equal(t, "bella", u.Username)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t, testConfig(), nil)
	h.newGame()

	res, err := h.client.Get(h.srv.URL + "/metrics")
	require.NoError(t, err)
	defer res.Body.Close()
	var buf bytes.Buffer
	_, err = buf.ReadFrom(res.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "cowsbulls_games_started_total 1")
}

func TestCORSPreflight(t *testing.T) {
	h := newHarness(t, testConfig(), nil)
	req, err := http.NewRequest(http.MethodOptions, h.srv.URL+"/daily/guess", nil)
	require.NoError(t, err)
	res, err := h.client.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusNoContent, res.StatusCode)
	assert.Equal(t, "http://localhost:5173", res.Header.Get("Access-Control-Allow-Origin"))
}
