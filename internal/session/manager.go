package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/cowsbulls/internal/daily"
	"github.com/robalobadob/cowsbulls/internal/game"
	"github.com/robalobadob/cowsbulls/internal/metrics"
)

// Manager owns every state transition of daily sessions.
type Manager struct {
	store    Store
	provider daily.TargetProvider
	clock    game.Clock
	policy   game.Capped
	metrics  metrics.Recorder
	sink     Sink

	// mu serialises read-modify-write on the store so two guesses for the
	// same session cannot both append to the same base state.
	mu sync.Mutex
}

// Option configures a Manager.
type Option func(*Manager)

func WithProvider(p daily.TargetProvider) Option { return func(m *Manager) { m.provider = p } }
func WithClock(c game.Clock) Option              { return func(m *Manager) { m.clock = c } }
func WithMaxAttempts(n int) Option               { return func(m *Manager) { m.policy = game.Capped{Max: n} } }
func WithMetrics(r metrics.Recorder) Option      { return func(m *Manager) { m.metrics = r } }
func WithSink(s Sink) Option                     { return func(m *Manager) { m.sink = s } }

// NewManager builds a Manager over store. Defaults: DefaultProvider,
// SystemClock, uncapped, no metrics, NopSink.
func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{
		store:    store,
		provider: daily.DefaultProvider{},
		clock:    game.SystemClock,
		metrics:  metrics.Nop{},
		sink:     NopSink{},
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// MaxAttempts reports the configured cap (0 when uncapped).
func (m *Manager) MaxAttempts() int { return m.policy.Max }

// Remaining reports attempts left in s, or -1 when uncapped.
func (m *Manager) Remaining(s Session) int { return m.policy.Remaining(s.State) }

// Status reports s's progression, including a loss under the attempt cap.
func (m *Manager) Status(s Session) game.Status { return m.policy.Status(s.State) }

// Finished reports whether s is won or out of attempts.
func (m *Manager) Finished(s Session) bool { return game.IsOver(s.State, m.policy.Max) }

// Start returns the player's session for today, creating it if needed.
//
// A player with an in-memory session for today gets it back unchanged,
// finished or not. Otherwise, if the sink already holds a result for today,
// Start returns ErrAlreadyPlayed. A sink lookup error is logged and play
// continues.
func (m *Manager) Start(ctx context.Context, playerID string) (Session, error) {
	now := m.clock.Now()
	date, target := m.provider.TargetFor(now)

	m.mu.Lock()
	defer m.mu.Unlock()

	if s, err := m.store.FindByPlayerDate(ctx, playerID, date); err == nil {
		s.LastAccess = now
		if err := m.store.Save(ctx, s); err != nil {
			return Session{}, err
		}
		return s, nil
	} else if !errors.Is(err, ErrNotFound) {
		return Session{}, err
	}

	played, err := m.sink.AlreadyPlayed(ctx, playerID, date)
	if err != nil {
		log.Warn().Err(err).Str("player", playerID).Str("date", date).
			Msg("already-played lookup failed; continuing")
	}
	if played {
		return Session{}, ErrAlreadyPlayed
	}

	s := Session{
		ID:         uuid.NewString(),
		PlayerID:   playerID,
		Date:       date,
		State:      game.New(target, m.clock),
		LastAccess: now,
	}
	if err := m.store.Save(ctx, s); err != nil {
		return Session{}, err
	}
	m.metrics.GameStarted()
	log.Debug().Str("session", s.ID).Str("player", playerID).Str("date", date).Msg("daily game started")
	return s, nil
}

// Get returns the session with id if it belongs to playerID.
func (m *Manager) Get(ctx context.Context, playerID, id string) (Session, error) {
	s, err := m.store.Get(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if s.PlayerID != playerID {
		return Session{}, ErrNotFound
	}
	return s, nil
}

// Guess validates raw, scores it, and saves the resulting state.
//
// Validation errors, ErrGameAlreadyWon and ErrAttemptsExhausted leave the
// session untouched. On the guess that finishes the game (a win, or the
// last allowed attempt) the result is handed to the sink after the state
// has been saved; sink errors are logged and never change what is returned.
func (m *Manager) Guess(ctx context.Context, playerID, id, raw string) (Session, game.GuessResult, error) {
	m.mu.Lock()
	s, err := m.store.Get(ctx, id)
	if err != nil {
		m.mu.Unlock()
		return Session{}, game.GuessResult{}, err
	}
	if s.PlayerID != playerID {
		m.mu.Unlock()
		return Session{}, game.GuessResult{}, ErrNotFound
	}

	next, res, err := m.policy.SubmitRaw(s.State, raw, m.clock)
	if err != nil {
		m.mu.Unlock()
		if code := game.ErrorCode(err); code != "" {
			m.metrics.GuessRejected(code)
		}
		return s, game.GuessResult{}, err
	}

	s.State = next
	s.LastAccess = m.clock.Now()
	if err := m.store.Save(ctx, s); err != nil {
		m.mu.Unlock()
		return Session{}, game.GuessResult{}, err
	}
	m.mu.Unlock()

	m.metrics.GuessAccepted(res.Bulls)
	switch {
	case next.IsWon:
		m.metrics.GameWon(next.Attempts)
		m.record(context.WithoutCancel(ctx), s)
	case m.policy.Status(next) == game.StatusLost:
		m.metrics.GameLost()
		m.record(context.WithoutCancel(ctx), s)
	}
	return s, res, nil
}

func (m *Manager) record(ctx context.Context, s Session) {
	elapsed := game.Elapsed(s.State)
	if last, ok := s.State.Last(); ok && !s.State.IsWon {
		elapsed = last.Timestamp.Sub(s.State.StartTime)
	}
	r := daily.Result{
		PlayerID:  s.PlayerID,
		Date:      s.Date,
		Target:    s.State.Target,
		Attempts:  s.State.Attempts,
		Won:       s.State.IsWon,
		ElapsedMs: elapsed.Milliseconds(),
	}
	if err := m.sink.RecordResult(ctx, r); err != nil {
		m.metrics.SinkFailed()
		log.Warn().Err(err).Str("session", s.ID).Str("player", s.PlayerID).
			Msg("failed to record daily result")
		return
	}
	log.Info().Str("player", s.PlayerID).Str("date", s.Date).Int("attempts", r.Attempts).
		Bool("won", r.Won).Msg("daily game finished")
}

// RunJanitor evicts sessions idle for longer than ttl, checking every
// interval, until ctx is done.
func (m *Manager) RunJanitor(ctx context.Context, interval, ttl time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.Sweep(ctx, ttl)
		}
	}
}

// Sweep evicts sessions idle for longer than ttl and reports how many.
func (m *Manager) Sweep(ctx context.Context, ttl time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, err := m.store.Sweep(ctx, m.clock.Now().Add(-ttl))
	if err != nil {
		log.Warn().Err(err).Msg("session sweep failed")
		return 0
	}
	if n > 0 {
		log.Debug().Int("evicted", n).Msg("expired sessions swept")
	}
	return n
}
