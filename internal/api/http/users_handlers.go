package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/talentlink/talentlink-backend/internal/auth/password"
	"github.com/talentlink/talentlink-backend/internal/rbac"
	"github.com/talentlink/talentlink-backend/internal/users"
)

// Errors renders handler failures; internal details are shown only in debug.
type Errors struct {
	Debug bool
}

func (e Errors) Internal(w http.ResponseWriter, err error) {
	msg := "internal server error"
	if e.Debug {
		msg = err.Error()
	}
	http.Error(w, msg, http.StatusInternalServerError)
}

// POST /api/register/  { "username": "...", "email": "...", "password": "..." }
func RegisterHandler(store *users.Store, errs Errors) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req users.NewUser
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		req.Staff = false

		u, err := store.Create(r.Context(), req)
		var ve *password.ValidationError
		switch {
		case err == nil:
		case errors.As(err, &ve):
			writeJSON(w, http.StatusBadRequest, map[string][]string{"password": ve.Problems})
			return
		case errors.Is(err, users.ErrUsernameTaken), errors.Is(err, users.ErrUsernameRequired):
			writeJSON(w, http.StatusBadRequest, map[string][]string{"username": {err.Error()}})
			return
		default:
			errs.Internal(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, u)
	}
}

// GET /api/me/
func MeHandler(store *users.Store, errs Errors) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := rbac.PrincipalFromContext(r.Context())
		u, err := store.Get(r.Context(), p.UserID)
		if errors.Is(err, users.ErrNotFound) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		if err != nil {
			errs.Internal(w, err)
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
