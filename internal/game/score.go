package game

// digitsOf decomposes n into Width digits, zero-padded, most significant
// first. Padding matters for values below 100: 12 → [0 1 2].
func digitsOf(n int) [Width]int {
	var d [Width]int
	for i := Width - 1; i >= 0; i-- {
		d[i] = n % 10
		n /= 10
	}
	return d
}

// ScoreGuess computes bulls (same digit, same position) and cows (digit
// present in the target at another position).
//
// Both sides are expected to have distinct digits, in which case
// cows = |shared digits| - bulls and bulls == Width iff guess == target.
func ScoreGuess(guess Guess, target int) Score {
	g := digitsOf(int(guess))
	t := digitsOf(target)

	var inTarget [10]bool
	for _, d := range t {
		inTarget[d] = true
	}

	var s Score
	for i := 0; i < Width; i++ {
		switch {
		case g[i] == t[i]:
			s.Bulls++
		case inTarget[g[i]]:
			s.Cows++
		}
	}
	return s
}
