package session

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker/v2"

	"github.com/robalobadob/cowsbulls/internal/daily"
)

// Sink records finished games. It is optional: the Manager plays
// identically with a NopSink.
type Sink interface {
	AlreadyPlayed(ctx context.Context, playerID, date string) (bool, error)
	RecordResult(ctx context.Context, r daily.Result) error
}

// NopSink records nothing and reports nothing played.
type NopSink struct{}

func (NopSink) AlreadyPlayed(context.Context, string, string) (bool, error) { return false, nil }
func (NopSink) RecordResult(context.Context, daily.Result) error            { return nil }

// StatsRecorder updates per-player counters after a finished game.
type StatsRecorder interface {
	RecordGame(ctx context.Context, playerID, date string, won bool) error
}

// ResultSink writes the result row, then the player's stats.
type ResultSink struct {
	Results Sink
	Stats   StatsRecorder // optional
}

func (s ResultSink) AlreadyPlayed(ctx context.Context, playerID, date string) (bool, error) {
	return s.Results.AlreadyPlayed(ctx, playerID, date)
}

func (s ResultSink) RecordResult(ctx context.Context, r daily.Result) error {
	if err := s.Results.RecordResult(ctx, r); err != nil {
		return err
	}
	if s.Stats == nil {
		return nil
	}
	return s.Stats.RecordGame(ctx, r.PlayerID, r.Date, r.Won)
}

// BreakerSettings configures BreakerSink.
type BreakerSettings struct {
	// FailureThreshold consecutive failures open the breaker.
	FailureThreshold uint32
	// OpenTimeout is how long the breaker stays open before probing.
	OpenTimeout time.Duration
}

// BreakerSink guards a Sink with a circuit breaker so a failing backend is
// skipped quickly instead of being hit on every finished game.
type BreakerSink struct {
	next Sink
	cb   *gobreaker.CircuitBreaker[bool]
}

// NewBreakerSink wraps next.
func NewBreakerSink(next Sink, cfg BreakerSettings) *BreakerSink {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	cb := gobreaker.NewCircuitBreaker[bool](gobreaker.Settings{
		Name:        "result-sink",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})
	return &BreakerSink{next: next, cb: cb}
}

func (b *BreakerSink) AlreadyPlayed(ctx context.Context, playerID, date string) (bool, error) {
	return b.cb.Execute(func() (bool, error) {
		return b.next.AlreadyPlayed(ctx, playerID, date)
	})
}

func (b *BreakerSink) RecordResult(ctx context.Context, r daily.Result) error {
	_, err := b.cb.Execute(func() (bool, error) {
		return true, b.next.RecordResult(ctx, r)
	})
	return err
}

// State reports the breaker state ("closed", "open", "half-open").
func (b *BreakerSink) State() string { return b.cb.State().String() }
