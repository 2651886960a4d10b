// Package blacklist records refresh tokens that may no longer be used,
// keyed by their jti claim.
package blacklist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLStore keeps blacklisted tokens in the blacklisted_tokens table.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Add(ctx context.Context, jti, userID string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO blacklisted_tokens (jti, user_id, expires_at, blacklisted_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (jti) DO NOTHING`,
		jti, userID, expiresAt.Unix(), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("blacklist: add %s: %w", jti, err)
	}
	return nil
}

func (s *SQLStore) Contains(ctx context.Context, jti string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM blacklisted_tokens WHERE jti=$1`, jti).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("blacklist: lookup %s: %w", jti, err)
	}
	return true, nil
}

// PurgeExpired drops entries whose token has expired anyway and returns how
// many were removed.
func (s *SQLStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM blacklisted_tokens WHERE expires_at < $1`, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("blacklist: purge: %w", err)
	}
	return res.RowsAffected()
}
