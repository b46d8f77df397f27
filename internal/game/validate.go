package game

import (
	"errors"
	"strconv"
	"strings"
)

// Width is the number of digits in a guess or target.
const Width = 3

// Sentinel validation errors. A *ValidationError wraps exactly one of them.
var (
	ErrEmptyInput        = errors.New("please enter a number")
	ErrNonDigitCharacter = errors.New("please enter only digits")
	ErrWrongLength       = errors.New("please enter exactly 3 digits")
	ErrDuplicateDigits   = errors.New("all digits must be unique")
)

// Validation error codes surfaced to clients.
const (
	CodeEmptyInput        = "empty_input"
	CodeNonDigitCharacter = "non_digit_character"
	CodeWrongLength       = "wrong_length"
	CodeDuplicateDigits   = "duplicate_digits"
)

// ValidationError describes why raw input was rejected.
type ValidationError struct {
	Code  string
	Input string
	err   error
}

func (e *ValidationError) Error() string { return e.err.Error() }

func (e *ValidationError) Unwrap() error { return e.err }

func reject(code, input string, err error) *ValidationError {
	return &ValidationError{Code: code, Input: input, err: err}
}

// Validate checks raw input and returns the parsed guess.
//
// Rules, first failure wins:
//  1. non-empty after trimming whitespace
//  2. every character of raw an ASCII digit (surrounding whitespace included)
//  3. exactly three characters
//  4. three distinct characters
//
// Leading zeros are allowed: "012" parses to 12 and is scored as "012".
func Validate(raw string) (Guess, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, reject(CodeEmptyInput, raw, ErrEmptyInput)
	}
	s := raw
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, reject(CodeNonDigitCharacter, raw, ErrNonDigitCharacter)
		}
	}
	if len(s) != Width {
		return 0, reject(CodeWrongLength, raw, ErrWrongLength)
	}
	if s[0] == s[1] || s[0] == s[2] || s[1] == s[2] {
		return 0, reject(CodeDuplicateDigits, raw, ErrDuplicateDigits)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		// unreachable: three ASCII digits always parse
		return 0, reject(CodeNonDigitCharacter, raw, ErrNonDigitCharacter)
	}
	return Guess(n), nil
}

// ErrorCode returns the client-facing code of a validation error, or "" if
// err is not one.
func ErrorCode(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Code
	}
	return ""
}
