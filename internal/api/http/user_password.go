package http

import (
	"encoding/json"
	"errors"
	"net/http"

	authmw "github.com/talentlink/talentlink-backend/internal/auth/middleware"
	"github.com/talentlink/talentlink-backend/internal/auth/password"
	"github.com/talentlink/talentlink-backend/internal/rbac"
	"github.com/talentlink/talentlink-backend/internal/users"
)

type changePasswordReq struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// POST /api/me/password/
func ChangePasswordHandler(store *users.Store, errs Errors) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := rbac.PrincipalFromContext(r.Context()).UserID
		if userID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req changePasswordReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if req.NewPassword == "" {
			http.Error(w, "new password required", http.StatusBadRequest)
			return
		}

		err := store.ChangePassword(r.Context(), userID, req.OldPassword, req.NewPassword)
		var ve *password.ValidationError
		switch {
		case err == nil:
			w.WriteHeader(http.StatusNoContent)
		case errors.As(err, &ve):
			writeJSON(w, http.StatusBadRequest, map[string][]string{"new_password": ve.Problems})
		case errors.Is(err, authmw.ErrInvalidCredentials):
			http.Error(w, "incorrect old password", http.StatusForbidden)
		case errors.Is(err, users.ErrNotFound):
			http.Error(w, "user not found", http.StatusNotFound)
		default:
			errs.Internal(w, err)
		}
	}
}
