package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/talentlink/talentlink-backend/internal/config"
)

var (
	ErrInvalidToken       = errors.New("token is invalid or expired")
	ErrWrongTokenType     = errors.New("token has wrong type")
	ErrTokenBlacklisted   = errors.New("token is blacklisted")
	ErrBlacklistDisabled  = errors.New("token blacklist is not enabled")
	ErrInvalidCredentials = errors.New("no active account found with the given credentials")
)

const issuer = "talentlink"

type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

type Claims struct {
	TokenType TokenType `json:"token_type"`
	UserID    string    `json:"user_id"`
	Staff     bool      `json:"is_staff,omitempty"`
	jwt.RegisteredClaims
}

type Pair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// Blacklist stores refresh tokens that must no longer be accepted.
type Blacklist interface {
	Add(ctx context.Context, jti, userID string, expiresAt time.Time) error
	Contains(ctx context.Context, jti string) (bool, error)
}

// TokenService issues and checks access/refresh JWT pairs signed with the
// application secret key.
type TokenService struct {
	key       []byte
	method    jwt.SigningMethod
	settings  config.TokenSettings
	blacklist Blacklist // nil when the token_blacklist app is not installed
	logger    log.FieldLogger
	now       func() time.Time
}

func NewTokenService(secret string, settings config.TokenSettings, bl Blacklist) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("auth: empty signing key")
	}
	m, ok := jwt.GetSigningMethod(settings.SigningMethod).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("auth: unsupported signing method %q", settings.SigningMethod)
	}
	return &TokenService{
		key:       []byte(secret),
		method:    m,
		settings:  settings,
		blacklist: bl,
		logger:    log.StandardLogger(),
		now:       time.Now,
	}, nil
}

// SetLogger routes rejected-token causes to l.
func (s *TokenService) SetLogger(l log.FieldLogger) {
	if l != nil {
		s.logger = l
	}
}

func (s *TokenService) HeaderTypes() []string { return s.settings.AuthHeaderTypes }

func (s *TokenService) BlacklistEnabled() bool { return s.blacklist != nil }

func (s *TokenService) IssuePair(userID string, staff bool) (Pair, error) {
	refresh, err := s.issue(RefreshToken, userID, staff, s.settings.RefreshLifetime)
	if err != nil {
		return Pair{}, err
	}
	access, err := s.issue(AccessToken, userID, staff, s.settings.AccessLifetime)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Access: access, Refresh: refresh}, nil
}

func (s *TokenService) issue(typ TokenType, userID string, staff bool, lifetime time.Duration) (string, error) {
	now := s.now()
	claims := &Claims{
		TokenType: typ,
		UserID:    userID,
		Staff:     staff,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(lifetime)),
		},
	}
	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("auth: sign %s token: %w", typ, err)
	}
	return signed, nil
}

// Parse checks signature, algorithm and expiry. It does not consult the
// blacklist.
func (s *TokenService) Parse(raw string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || c.ID == "" || c.UserID == "" {
		return nil, ErrInvalidToken
	}
	if c.TokenType != AccessToken && c.TokenType != RefreshToken {
		return nil, ErrWrongTokenType
	}
	return c, nil
}

// ParseAccess accepts only access tokens.
func (s *TokenService) ParseAccess(raw string) (*Claims, error) {
	c, err := s.Parse(raw)
	if err != nil {
		return nil, err
	}
	if c.TokenType != AccessToken {
		return nil, ErrWrongTokenType
	}
	return c, nil
}

func (s *TokenService) parseRefresh(ctx context.Context, raw string) (*Claims, error) {
	c, err := s.Parse(raw)
	if err != nil {
		return nil, err
	}
	if c.TokenType != RefreshToken {
		return nil, ErrWrongTokenType
	}
	if err := s.checkBlacklist(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Refresh exchanges a refresh token for a new access token. When rotation is
// on, a new refresh token is returned too and the old one is blacklisted if
// BlacklistAfterRotation is set.
func (s *TokenService) Refresh(ctx context.Context, raw string) (Pair, error) {
	c, err := s.parseRefresh(ctx, raw)
	if err != nil {
		return Pair{}, err
	}
	access, err := s.issue(AccessToken, c.UserID, c.Staff, s.settings.AccessLifetime)
	if err != nil {
		return Pair{}, err
	}
	out := Pair{Access: access}
	if !s.settings.RotateRefreshTokens {
		return out, nil
	}

	if s.settings.BlacklistAfterRotation && s.blacklist != nil {
		if err := s.blacklist.Add(ctx, c.ID, c.UserID, c.ExpiresAt.Time); err != nil {
			return Pair{}, fmt.Errorf("auth: blacklist rotated token: %w", err)
		}
	}
	if out.Refresh, err = s.issue(RefreshToken, c.UserID, c.Staff, s.settings.RefreshLifetime); err != nil {
		return Pair{}, err
	}
	return out, nil
}

// Verify accepts any valid token; blacklisted refresh tokens fail.
func (s *TokenService) Verify(ctx context.Context, raw string) error {
	c, err := s.Parse(raw)
	if err != nil {
		return err
	}
	if c.TokenType == RefreshToken {
		return s.checkBlacklist(ctx, c)
	}
	return nil
}

// Blacklist revokes a refresh token.
func (s *TokenService) Blacklist(ctx context.Context, raw string) error {
	if s.blacklist == nil {
		return ErrBlacklistDisabled
	}
	c, err := s.parseRefresh(ctx, raw)
	if err != nil {
		return err
	}
	if err := s.blacklist.Add(ctx, c.ID, c.UserID, c.ExpiresAt.Time); err != nil {
		return fmt.Errorf("auth: blacklist: %w", err)
	}
	return nil
}

func (s *TokenService) checkBlacklist(ctx context.Context, c *Claims) error {
	if s.blacklist == nil {
		return nil
	}
	listed, err := s.blacklist.Contains(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("auth: blacklist lookup: %w", err)
	}
	if listed {
		return ErrTokenBlacklisted
	}
	return nil
}
