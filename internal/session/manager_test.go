package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/cowsbulls/internal/daily"
	"github.com/robalobadob/cowsbulls/internal/game"
	"github.com/robalobadob/cowsbulls/internal/session"
	"github.com/robalobadob/cowsbulls/internal/store"
)

var t0 = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type fakeSink struct {
	mu       sync.Mutex
	played   bool
	lookErr  error
	writeErr error
	results  []daily.Result
}

func (f *fakeSink) AlreadyPlayed(context.Context, string, string) (bool, error) {
	return f.played, f.lookErr
}

func (f *fakeSink) RecordResult(_ context.Context, r daily.Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.results = append(f.results, r)
	return nil
}

func newManager(sink session.Sink, opts ...session.Option) *session.Manager {
	base := []session.Option{
		session.WithProvider(daily.FixedProvider{Target: 235}),
		session.WithClock(&testClock{now: t0}),
		session.WithSink(sink),
	}
	return session.NewManager(store.NewMemoryStore(), append(base, opts...)...)
}

func TestManager_StartIsIdempotentPerDay(t *testing.T) {
	ctx := context.Background()
	m := newManager(session.NopSink{})

	a, err := m.Start(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", a.Date)
	assert.Equal(t, game.StatusNotStarted, a.State.Status())

	b, err := m.Start(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)

	c, err := m.Start(ctx, "p2")
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, c.ID)
}

func TestManager_PlayToWinRecordsResult(t *testing.T) {
	ctx := context.Background()
	sink := &fakeSink{}
	m := newManager(sink)

	s, err := m.Start(ctx, "p1")
	require.NoError(t, err)

	s, res, err := m.Guess(ctx, "p1", s.ID, "203")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Bulls)
	assert.Equal(t, 1, res.Cows)
	assert.Equal(t, game.StatusInProgress, s.State.Status())

	s, res, err = m.Guess(ctx, "p1", s.ID, "235")
	require.NoError(t, err)
	assert.True(t, res.IsCorrect)
	assert.True(t, s.State.IsWon)
	assert.Equal(t, 2, s.State.Attempts)

	require.Len(t, sink.results, 1)
	assert.Equal(t, daily.Result{PlayerID: "p1", Date: "2024-01-01", Target: 235, Attempts: 2, Won: true, ElapsedMs: sink.results[0].ElapsedMs}, sink.results[0])
	assert.Positive(t, sink.results[0].ElapsedMs)

	_, _, err = m.Guess(ctx, "p1", s.ID, "987")
	assert.ErrorIs(t, err, game.ErrGameAlreadyWon)
	_, _, err = m.Guess(ctx, "p1", s.ID, "oops")
	assert.ErrorIs(t, err, game.ErrGameAlreadyWon)
	assert.Len(t, sink.results, 1)
}

func TestManager_SinkFailureKeepsWin(t *testing.T) {
	ctx := context.Background()
	m := newManager(&fakeSink{writeErr: errors.New("disk full")})

	s, err := m.Start(ctx, "p1")
	require.NoError(t, err)
	_, _, err = m.Guess(ctx, "p1", s.ID, "456")
	require.NoError(t, err)
	won, res, err := m.Guess(ctx, "p1", s.ID, "235")
	require.NoError(t, err)
	assert.True(t, res.IsCorrect)
	assert.True(t, won.State.IsWon)

	got, err := m.Get(ctx, "p1", s.ID)
	require.NoError(t, err)
	assert.True(t, got.State.IsWon)
	assert.Len(t, got.State.Guesses, 2)
}

func TestManager_InvalidGuessLeavesSession(t *testing.T) {
	ctx := context.Background()
	m := newManager(session.NopSink{})
	s, err := m.Start(ctx, "p1")
	require.NoError(t, err)

	for _, raw := range []string{"", "12a", "1234", "112"} {
		_, _, err := m.Guess(ctx, "p1", s.ID, raw)
		var ve *game.ValidationError
		assert.ErrorAs(t, err, &ve, raw)
	}
	got, err := m.Get(ctx, "p1", s.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.State.Attempts)
	assert.Empty(t, got.State.Guesses)
}

func TestManager_AlreadyPlayed(t *testing.T) {
	ctx := context.Background()
	m := newManager(&fakeSink{played: true})
	_, err := m.Start(ctx, "p1")
	assert.ErrorIs(t, err, session.ErrAlreadyPlayed)
}

func TestManager_LookupErrorStillStarts(t *testing.T) {
	ctx := context.Background()
	m := newManager(&fakeSink{lookErr: errors.New("db down")})
	s, err := m.Start(ctx, "p1")
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
}

func TestManager_SessionsArePerPlayer(t *testing.T) {
	ctx := context.Background()
	m := newManager(session.NopSink{})
	s, err := m.Start(ctx, "p1")
	require.NoError(t, err)

	_, err = m.Get(ctx, "p2", s.ID)
	assert.ErrorIs(t, err, session.ErrNotFound)
	_, _, err = m.Guess(ctx, "p2", s.ID, "123")
	assert.ErrorIs(t, err, session.ErrNotFound)
	_, _, err = m.Guess(ctx, "p1", "missing", "123")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestManager_MaxAttempts(t *testing.T) {
	ctx := context.Background()
	m := newManager(session.NopSink{}, session.WithMaxAttempts(2))
	s, err := m.Start(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, m.Remaining(s))

	_, _, err = m.Guess(ctx, "p1", s.ID, "123")
	require.NoError(t, err)
	s, _, err = m.Guess(ctx, "p1", s.ID, "456")
	require.NoError(t, err)
	assert.Equal(t, 0, m.Remaining(s))

	assert.Equal(t, game.StatusLost, m.Status(s))
	assert.True(t, m.Finished(s))

	_, _, err = m.Guess(ctx, "p1", s.ID, "235")
	assert.ErrorIs(t, err, game.ErrAttemptsExhausted)
}

// playedSink answers AlreadyPlayed from the results it has recorded.
type playedSink struct{ fakeSink }

func (p *playedSink) AlreadyPlayed(_ context.Context, playerID, date string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, r := range p.results {
		if r.PlayerID == playerID && r.Date == date {
			return true, nil
		}
	}
	return false, nil
}

func TestManager_LossIsRecordedAndBlocksReplay(t *testing.T) {
	ctx := context.Background()
	sink := &playedSink{}
	m := newManager(sink, session.WithMaxAttempts(1))

	s, err := m.Start(ctx, "p1")
	require.NoError(t, err)
	s, res, err := m.Guess(ctx, "p1", s.ID, "987")
	require.NoError(t, err)
	assert.False(t, res.IsCorrect)
	assert.Equal(t, game.StatusLost, m.Status(s))

	require.Len(t, sink.results, 1)
	lost := sink.results[0]
	assert.False(t, lost.Won)
	assert.Equal(t, 1, lost.Attempts)
	assert.Equal(t, "2024-01-01", lost.Date)
	assert.Positive(t, lost.ElapsedMs)

	// Same session store: the finished session comes back.
	again, err := m.Start(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, s.ID, again.ID)
	assert.True(t, m.Finished(again))

	// Restarted manager over the same sink: no fresh attempts.
	restarted := newManager(sink, session.WithMaxAttempts(1))
	_, err = restarted.Start(ctx, "p1")
	assert.ErrorIs(t, err, session.ErrAlreadyPlayed)
}

func TestManager_UncappedNeverLoses(t *testing.T) {
	ctx := context.Background()
	sink := &fakeSink{}
	m := newManager(sink)
	s, err := m.Start(ctx, "p1")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		s, _, err = m.Guess(ctx, "p1", s.ID, "987")
		require.NoError(t, err)
	}
	assert.Equal(t, game.StatusInProgress, m.Status(s))
	assert.False(t, m.Finished(s))
	assert.Empty(t, sink.results)
}

func TestManager_ConcurrentGuessesAllCounted(t *testing.T) {
	ctx := context.Background()
	m := newManager(session.NopSink{})
	s, err := m.Start(ctx, "p1")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = m.Guess(ctx, "p1", s.ID, "987")
		}()
	}
	wg.Wait()

	got, err := m.Get(ctx, "p1", s.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, got.State.Attempts)
	assert.Len(t, got.State.Guesses, 20)
}

func TestManager_Sweep(t *testing.T) {
	ctx := context.Background()
	clk := &testClock{now: t0}
	m := session.NewManager(store.NewMemoryStore(),
		session.WithProvider(daily.FixedProvider{Target: 235}),
		session.WithClock(clk))
	s, err := m.Start(ctx, "p1")
	require.NoError(t, err)

	assert.Equal(t, 0, m.Sweep(ctx, time.Hour))
	clk.mu.Lock()
	clk.now = clk.now.Add(2 * time.Hour)
	clk.mu.Unlock()
	assert.Equal(t, 1, m.Sweep(ctx, time.Hour))

	_, err = m.Get(ctx, "p1", s.ID)
	assert.ErrorIs(t, err, session.ErrNotFound)
}
