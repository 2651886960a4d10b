package rbac

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestChecker_Allows(t *testing.T) {
	c := NewChecker(nil)
	anon := Principal{}
	user := Principal{UserID: "u1"}
	staff := Principal{UserID: "u2", Staff: true}

	tests := []struct {
		name    string
		p       Principal
		classes []string
		want    bool
	}{
		{"anon allow any", anon, []string{"AllowAny"}, true},
		{"anon authenticated", anon, []string{"IsAuthenticated"}, false},
		{"user authenticated", user, []string{"IsAuthenticated"}, true},
		{"user admin", user, []string{"IsAdminUser"}, false},
		{"staff admin", staff, []string{"IsAuthenticated", "IsAdminUser"}, true},
		{"all must grant", user, []string{"AllowAny", "IsAdminUser"}, false},
		{"unknown denies", staff, []string{"IsOwner"}, false},
		{"no classes", anon, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Allows(tt.p, tt.classes...); got != tt.want {
				t.Errorf("Allows(%+v, %v) = %v, want %v", tt.p, tt.classes, got, tt.want)
			}
		})
	}
}

func TestRequire_UnknownClass(t *testing.T) {
	if _, err := Require("IsOwner"); err == nil {
		t.Fatal("expected error for unknown class")
	}
}

func TestRequire_StatusCodes(t *testing.T) {
	mw, err := Require("IsAdminUser")
	if err != nil {
		t.Fatal(err)
	}
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	tests := []struct {
		name string
		p    *Principal
		want int
	}{
		{"anonymous", nil, http.StatusUnauthorized},
		{"regular user", &Principal{UserID: "u1"}, http.StatusForbidden},
		{"staff", &Principal{UserID: "u2", Staff: true}, http.StatusTeapot},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.p != nil {
				req = req.WithContext(WithPrincipal(req.Context(), *tt.p))
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusUnauthorized && rec.Header().Get("WWW-Authenticate") == "" {
				t.Error("missing WWW-Authenticate header")
			}
		})
	}
}
