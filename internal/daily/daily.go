// internal/daily/daily.go
//
// Deterministic daily target for the Cows and Bulls game.
//
// Every player worldwide gets the same target for a calendar day. The day is
// fixed in a reference offset (UTC+05:30) so that the rollover happens at the
// same instant for everyone, regardless of the caller's local timezone.
//
// Pipeline:
//   time.Time → DateKey ("YYYY-MM-DD" in the reference offset)
//             → Seed (32-bit fold over the key's characters)
//             → NumberFor (3 digits drawn without replacement from 0–9)
//
// The seed fold and the draw must never change: a given key maps to the
// same target forever.
package daily

import (
	"fmt"
	"time"
)

// ReferenceOffsetMinutes is the fixed offset (UTC+05:30) used to cut days.
const ReferenceOffsetMinutes = 330

// keyLayout is the CalendarDayKey format.
const keyLayout = "2006-01-02"

// Digits is the number of digits in a target or guess.
const Digits = 3

// DateKey returns the calendar day of t in the reference offset.
func DateKey(t time.Time) string {
	return DateKeyAt(t, ReferenceOffsetMinutes)
}

// DateKeyAt returns the calendar day of t shifted by offsetMinutes from UTC.
func DateKeyAt(t time.Time, offsetMinutes int) string {
	return t.UTC().Add(time.Duration(offsetMinutes) * time.Minute).Format(keyLayout)
}

// ParseDateKey checks that s is a well-formed day key and returns it
// normalized. The returned time is midnight of that day in the reference
// offset.
func ParseDateKey(s string) (string, time.Time, error) {
	loc := time.FixedZone("REF", ReferenceOffsetMinutes*60)
	t, err := time.ParseInLocation(keyLayout, s, loc)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("invalid date key %q: %w", s, err)
	}
	return t.Format(keyLayout), t, nil
}

// Seed folds the key into a non-negative integer: h = int32(h*31 + c) for
// every character, then the absolute value. The absolute value is taken in
// 64 bits so math.MinInt32 folds to 2^31 rather than overflowing.
func Seed(key string) int64 {
	var h int32
	for _, c := range key {
		h = h*31 + int32(c)
	}
	s := int64(h)
	if s < 0 {
		s = -s
	}
	return s
}

// NumberFor returns the target for a day key.
//
// Three digits are drawn from the pool 0..9 (ascending). At each step the
// digit at index seed%len(pool) is removed and emitted, and the seed becomes
// seed/10 + digit. The first emitted digit is the most significant, so the
// result may be below 100 when the first draw is 0.
func NumberFor(key string) int {
	seed := Seed(key)
	pool := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	n := 0
	for i := 0; i < Digits; i++ {
		idx := int(seed % int64(len(pool)))
		d := pool[idx]
		pool = append(pool[:idx], pool[idx+1:]...)
		n = n*10 + d
		seed = seed/10 + int64(d)
	}
	return n
}

// NumberForTime is NumberFor(DateKey(t)).
func NumberForTime(t time.Time) int {
	return NumberFor(DateKey(t))
}

// Format renders n zero-padded to three characters.
func Format(n int) string {
	return fmt.Sprintf("%03d", n)
}

// IsValidNumberShape reports whether n, zero-padded to three digits, has
// three pairwise-distinct digits. 12 ("012") is valid; 112 and 1000 are not.
func IsValidNumberShape(n int) bool {
	if n < 0 || n > 999 {
		return false
	}
	a, b, c := n/100, n/10%10, n%10
	return a != b && a != c && b != c
}
