package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/talentlink/talentlink-backend/internal/rbac"
)

// Authenticator checks a username/password pair.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (rbac.Principal, error)
}

// JWTMiddleware attaches the principal carried by a valid access token.
// Requests without an Authorization header, or with a scheme not listed in
// the auth header types, pass through as anonymous; permission classes
// decide what anonymous callers may do.
func JWTMiddleware(s *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			parts := strings.Fields(r.Header.Get("Authorization"))
			if len(parts) == 0 || !headerTypeAllowed(s.HeaderTypes(), parts[0]) {
				next.ServeHTTP(w, r)
				return
			}
			if len(parts) != 2 {
				unauthorized(w, parts[0], "authorization header must contain two space-delimited values")
				return
			}
			c, err := s.ParseAccess(parts[1])
			if err != nil {
				unauthorized(w, parts[0], "given token not valid for any token type")
				return
			}
			p := rbac.Principal{UserID: c.UserID, Staff: c.Staff}
			next.ServeHTTP(w, r.WithContext(rbac.WithPrincipal(r.Context(), p)))
		})
	}
}

func headerTypeAllowed(types []string, got string) bool {
	for _, t := range types {
		if t == got {
			return true
		}
	}
	return false
}

func unauthorized(w http.ResponseWriter, scheme, msg string) {
	w.Header().Set("WWW-Authenticate", scheme+` realm="api"`)
	http.Error(w, msg, http.StatusUnauthorized)
}

// POST /api/token/  { "username": "...", "password": "..." }
func ObtainPairHandler(s *TokenService, authn Authenticator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
			http.Error(w, "username and password required", http.StatusBadRequest)
			return
		}
		p, err := authn.Authenticate(r.Context(), req.Username, req.Password)
		if errors.Is(err, ErrInvalidCredentials) {
			http.Error(w, ErrInvalidCredentials.Error(), http.StatusUnauthorized)
			return
		}
		if err != nil {
			http.Error(w, "authentication failed", http.StatusInternalServerError)
			return
		}
		pair, err := s.IssuePair(p.UserID, p.Staff)
		if err != nil {
			http.Error(w, "issue token", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, pair)
	}
}

// POST /api/token/refresh/  { "refresh": "..." }
func RefreshHandler(s *TokenService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := decodeField(w, r, "refresh")
		if !ok {
			return
		}
		pair, err := s.Refresh(r.Context(), raw)
		if err != nil {
			tokenError(w, s.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, pair)
	}
}

// POST /api/token/verify/  { "token": "..." }
func VerifyHandler(s *TokenService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := decodeField(w, r, "token")
		if !ok {
			return
		}
		if err := s.Verify(r.Context(), raw); err != nil {
			tokenError(w, s.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, struct{}{})
	}
}

// POST /api/token/blacklist/  { "refresh": "..." }
func BlacklistHandler(s *TokenService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, ok := decodeField(w, r, "refresh")
		if !ok {
			return
		}
		if err := s.Blacklist(r.Context(), raw); err != nil {
			tokenError(w, s.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, struct{}{})
	}
}

func decodeField(w http.ResponseWriter, r *http.Request, field string) (string, bool) {
	var body map[string]string
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body[field] == "" {
		http.Error(w, field+" required", http.StatusBadRequest)
		return "", false
	}
	return body[field], true
}

// tokenError answers with the sentinel text only; the wrapped cause (jwt
// parser detail, store failure) goes to the log.
func tokenError(w http.ResponseWriter, logger log.FieldLogger, err error) {
	for _, sentinel := range []error{ErrInvalidToken, ErrWrongTokenType, ErrTokenBlacklisted} {
		if errors.Is(err, sentinel) {
			logger.WithError(err).Debug("token rejected")
			http.Error(w, sentinel.Error(), http.StatusUnauthorized)
			return
		}
	}
	if errors.Is(err, ErrBlacklistDisabled) {
		http.Error(w, ErrBlacklistDisabled.Error(), http.StatusNotFound)
		return
	}
	logger.WithError(err).Error("token check failed")
	http.Error(w, "token check failed", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
