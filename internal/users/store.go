// Package users is the application's user model: accounts with a bcrypt
// password hash and a staff flag.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	authmw "github.com/talentlink/talentlink-backend/internal/auth/middleware"
	"github.com/talentlink/talentlink-backend/internal/auth/password"
	"github.com/talentlink/talentlink-backend/internal/rbac"
)

var (
	ErrNotFound         = errors.New("user not found")
	ErrUsernameTaken    = errors.New("username already taken")
	ErrUsernameRequired = errors.New("username required")
)

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Staff     bool      `json:"is_staff"`
	CreatedAt time.Time `json:"created_at"`
}

type Store struct {
	db     *sql.DB
	policy *password.Policy
}

func NewStore(db *sql.DB, policy *password.Policy) *Store {
	return &Store{db: db, policy: policy}
}

type NewUser struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Staff    bool   `json:"-"`
}

// Create validates the password against the policy, hashes it and inserts
// the user. Password problems come back as *password.ValidationError.
func (s *Store) Create(ctx context.Context, nu NewUser) (User, error) {
	nu.Username = strings.TrimSpace(nu.Username)
	nu.Email = strings.TrimSpace(nu.Email)
	if nu.Username == "" {
		return User{}, ErrUsernameRequired
	}
	if err := s.policy.Validate(nu.Password, password.Attributes{Username: nu.Username, Email: nu.Email}); err != nil {
		return User{}, err
	}

	if _, err := s.getBy(ctx, "username", nu.Username); err == nil {
		return User{}, ErrUsernameTaken
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	hash, err := password.Hash(nu.Password)
	if err != nil {
		return User{}, err
	}
	u := User{
		ID:        uuid.NewString(),
		Username:  nu.Username,
		Email:     nu.Email,
		Staff:     nu.Staff,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, is_staff, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		u.ID, u.Username, u.Email, hash, boolToInt(u.Staff), u.CreatedAt.Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, ErrUsernameTaken
		}
		return User{}, fmt.Errorf("users: insert: %w", err)
	}
	return u, nil
}

func (s *Store) Get(ctx context.Context, id string) (User, error) {
	return s.getBy(ctx, "id", id)
}

// Authenticate implements the token obtain flow's credential check.
func (s *Store) Authenticate(ctx context.Context, username, plain string) (rbac.Principal, error) {
	var (
		id, hash string
		staff    int
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, password_hash, is_staff FROM users WHERE username=$1`, username,
	).Scan(&id, &hash, &staff)
	if errors.Is(err, sql.ErrNoRows) {
		return rbac.Principal{}, authmw.ErrInvalidCredentials
	}
	if err != nil {
		return rbac.Principal{}, fmt.Errorf("users: authenticate: %w", err)
	}
	if password.Compare(hash, plain) != nil {
		return rbac.Principal{}, authmw.ErrInvalidCredentials
	}
	return rbac.Principal{UserID: id, Staff: staff != 0}, nil
}

func (s *Store) getBy(ctx context.Context, col, val string) (User, error) {
	var (
		u       User
		staff   int
		created int64
	)
	// col is one of a fixed set of identifiers, never user input
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, email, is_staff, created_at FROM users WHERE `+col+`=$1`, val,
	).Scan(&u.ID, &u.Username, &u.Email, &staff, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("users: get: %w", err)
	}
	u.Staff = staff != 0
	u.CreatedAt = time.Unix(created, 0).UTC()
	return u, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || // sqlite
		strings.Contains(msg, "duplicate key value") // postgres
}

// ChangePassword checks the old password, validates the new one and stores
// its hash.
func (s *Store) ChangePassword(ctx context.Context, id, oldPlain, newPlain string) error {
	var hash string
	err := s.db.QueryRowContext(ctx, `SELECT password_hash FROM users WHERE id=$1`, id).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("users: change password: %w", err)
	}
	if password.Compare(hash, oldPlain) != nil {
		return authmw.ErrInvalidCredentials
	}
	u, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.policy.Validate(newPlain, password.Attributes{Username: u.Username, Email: u.Email}); err != nil {
		return err
	}
	newHash, err := password.Hash(newPlain)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE users SET password_hash=$1 WHERE id=$2`, newHash, id); err != nil {
		return fmt.Errorf("users: change password: %w", err)
	}
	return nil
}
