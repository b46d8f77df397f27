package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/cowsbulls/internal/game"
	"github.com/robalobadob/cowsbulls/internal/session"
)

var t0 = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func fixed(t time.Time) game.Clock { return game.ClockFunc(func() time.Time { return t }) }

func TestMemory_SaveGetFind(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	_, err := m.Get(ctx, "nope")
	require.ErrorIs(t, err, session.ErrNotFound)

	s := session.Session{ID: "s1", PlayerID: "p1", Date: "2024-01-01", State: game.New(235, fixed(t0)), LastAccess: t0}
	require.NoError(t, m.Save(ctx, s))

	got, err := m.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "p1", got.PlayerID)

	got, err = m.FindByPlayerDate(ctx, "p1", "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, "s1", got.ID)

	_, err = m.FindByPlayerDate(ctx, "p1", "2024-01-02")
	require.ErrorIs(t, err, session.ErrNotFound)
}

func TestMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	st, _, err := game.SubmitRaw(game.New(235, fixed(t0)), "123", fixed(t0))
	require.NoError(t, err)
	require.NoError(t, m.Save(ctx, session.Session{ID: "s1", PlayerID: "p1", Date: "d", State: st}))

	a, err := m.Get(ctx, "s1")
	require.NoError(t, err)
	a.State.Guesses[0].Bulls = 99

	b, err := m.Get(ctx, "s1")
	require.NoError(t, err)
	assert.NotEqual(t, 99, b.State.Guesses[0].Bulls)
}

func TestMemory_Sweep(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	require.NoError(t, m.Save(ctx, session.Session{ID: "old", PlayerID: "p1", Date: "d", LastAccess: t0}))
	require.NoError(t, m.Save(ctx, session.Session{ID: "new", PlayerID: "p2", Date: "d", LastAccess: t0.Add(time.Hour)}))

	n, err := m.Sweep(ctx, t0.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	cnt, _ := m.Count(ctx)
	assert.Equal(t, 1, cnt)
	_, err = m.FindByPlayerDate(ctx, "p1", "d")
	assert.ErrorIs(t, err, session.ErrNotFound)
	_, err = m.Get(ctx, "new")
	assert.NoError(t, err)
}
