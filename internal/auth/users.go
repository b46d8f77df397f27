// internal/auth/users.go
//
// Player accounts.
// Responsibilities:
//   - Signup validation (username, optional email, password length).
//   - bcrypt password hashing and verification.
//   - User lookup by id / username.
//   - Per-user counters (games played, wins, daily win streak).

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"

	"github.com/robalobadob/cowsbulls/internal/daily"
)

var (
	ErrUsernameTaken      = errors.New("username taken")
	ErrEmailTaken         = errors.New("email taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNotFound           = errors.New("user not found")
)

var (
	usernameRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	emailRe    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// User matches the users table shape.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	GamesPlayed  int       `json:"gamesPlayed"`
	Wins         int       `json:"wins"`
	Streak       int       `json:"streak"`
	LastWinDate  string    `json:"lastWinDate,omitempty"`
}

// Service manages accounts in SQLite.
type Service struct {
	db   *sql.DB
	cost int
}

// NewService constructs a Service. cost <= 0 uses bcrypt.DefaultCost.
func NewService(db *sql.DB, cost int) *Service {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &Service{db: db, cost: cost}
}

// SignupError is a rejected signup field.
type SignupError struct{ msg string }

func (e *SignupError) Error() string { return e.msg }

// ValidateSignup enforces basic username/email/password rules.
func ValidateSignup(username, email, password string) error {
	if len(username) < 3 || len(username) > 20 {
		return &SignupError{"username must be 3–20 chars"}
	}
	if !usernameRe.MatchString(username) {
		return &SignupError{"username: letters, numbers, underscore only"}
	}
	if email != "" && !emailRe.MatchString(email) {
		return &SignupError{"please enter a valid email address"}
	}
	if len(password) < 6 || len(password) > 128 {
		return &SignupError{"password must be 6–128 chars"}
	}
	return nil
}

// CreateUser validates input, checks uniqueness, hashes the password and
// inserts a new user.
func (s *Service) CreateUser(ctx context.Context, username, email, password string) (*User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if err := ValidateSignup(username, email, password); err != nil {
		return nil, err
	}

	if err := s.ensureFree(ctx, `SELECT 1 FROM users WHERE lower(username)=lower(?)`, username, ErrUsernameTaken); err != nil {
		return nil, err
	}
	if email != "" {
		if err := s.ensureFree(ctx, `SELECT 1 FROM users WHERE lower(email)=?`, email, ErrEmailTaken); err != nil {
			return nil, err
		}
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(h),
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, created_at) VALUES (?,?,?,?,?)`,
		u.ID, u.Username, nullIfEmpty(u.Email), u.PasswordHash, u.CreatedAt.Format(time.RFC3339))
	if err != nil {
		// A concurrent signup can win the race past ensureFree.
		if taken := uniqueViolation(err); taken != nil {
			return nil, taken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// ensureFree returns taken if query finds a row for arg.
func (s *Service) ensureFree(ctx context.Context, query, arg string, taken error) error {
	var one int
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&one)
	switch {
	case err == nil:
		return taken
	case errors.Is(err, sql.ErrNoRows):
		return nil
	default:
		return fmt.Errorf("lookup users: %w", err)
	}
}

// uniqueViolation maps a UNIQUE constraint failure on users to the matching
// sentinel, or returns nil.
func uniqueViolation(err error) error {
	var se sqlite3.Error
	if !errors.As(err, &se) || se.ExtendedCode != sqlite3.ErrConstraintUnique {
		return nil
	}
	if strings.Contains(se.Error(), "email") {
		return ErrEmailTaken
	}
	return ErrUsernameTaken
}

// Authenticate checks username/password and stamps last_login_at.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	u, err := s.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE users SET last_login_at=? WHERE id=?`,
		time.Now().UTC().Format(time.RFC3339), u.ID); err != nil {
		return nil, fmt.Errorf("stamp login: %w", err)
	}
	return u, nil
}

// FindByUsername loads a user by case-insensitive username.
func (s *Service) FindByUsername(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE lower(username)=lower(?)`, username)
	return scanUser(row)
}

// FindByID loads a user by id.
func (s *Service) FindByID(ctx context.Context, id string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id=?`, id)
	return scanUser(row)
}

// RecordGame bumps the counters for a finished daily game on date. A win
// continues the streak when the previous win was the day before, otherwise
// it restarts at 1; a loss resets it to 0. Recording the same date twice is
// a no-op.
func (s *Service) RecordGame(ctx context.Context, userID, date string, won bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var gp, wins, streak int
	var lastWin, lastPlayed sql.NullString
	row := tx.QueryRowContext(ctx,
		`SELECT games_played, wins, streak, last_win_date, last_played_date FROM users WHERE id=?`, userID)
	if err := row.Scan(&gp, &wins, &streak, &lastWin, &lastPlayed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if lastPlayed.String == date {
		return nil
	}

	gp++
	switch {
	case !won:
		streak = 0
	case lastWin.Valid && lastWin.String == previousDay(date):
		wins++
		streak++
		lastWin.String = date
	default:
		wins++
		streak = 1
		lastWin = sql.NullString{String: date, Valid: true}
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE users SET games_played=?, wins=?, streak=?, last_win_date=?, last_played_date=? WHERE id=?`,
		gp, wins, streak, lastWin, date, userID); err != nil {
		return err
	}
	return tx.Commit()
}

// AccountStats records finished games for any player id, skipping players
// without an account (guests).
type AccountStats struct{ Users *Service }

func (a AccountStats) RecordGame(ctx context.Context, playerID, date string, won bool) error {
	if err := a.Users.RecordGame(ctx, playerID, date, won); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

const userColumns = `id, username, COALESCE(email,''), password_hash, created_at,
	games_played, wins, streak, COALESCE(last_win_date,'')`

func scanUser(row *sql.Row) (*User, error) {
	var u User
	var created string
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &created,
		&u.GamesPlayed, &u.Wins, &u.Streak, &u.LastWinDate); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &u, nil
}

// previousDay returns the day key before date, or "" if date is malformed.
func previousDay(date string) string {
	_, t, err := daily.ParseDateKey(date)
	if err != nil {
		return ""
	}
	return daily.DateKey(t.AddDate(0, 0, -1))
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
