package daily

import "time"

// TargetProvider supplies the day key and target for an instant.
type TargetProvider interface {
	TargetFor(t time.Time) (key string, target int)
}

// DefaultProvider derives the target with DateKey + NumberFor.
type DefaultProvider struct{}

// TargetFor implements TargetProvider.
func (DefaultProvider) TargetFor(t time.Time) (string, int) {
	key := DateKey(t)
	return key, NumberFor(key)
}

// FixedProvider always returns Target; the key still follows the clock.
type FixedProvider struct {
	Target int
}

// TargetFor implements TargetProvider.
func (p FixedProvider) TargetFor(t time.Time) (string, int) {
	return DateKey(t), p.Target
}
