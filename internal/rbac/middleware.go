package rbac

import (
	"net/http"
)

var defaultChecker = NewChecker(nil)

// Require builds a middleware that lets a request through only when every
// listed class grants it. Anonymous callers that are denied get 401,
// authenticated ones get 403.
func Require(classes ...string) (func(http.Handler) http.Handler, error) {
	return defaultChecker.Require(classes...)
}

func (c *Checker) Require(classes ...string) (func(http.Handler) http.Handler, error) {
	if err := c.Validate(classes...); err != nil {
		return nil, err
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := PrincipalFromContext(r.Context())
			if c.Allows(p, classes...) {
				next.ServeHTTP(w, r)
				return
			}
			if !p.Authenticated() {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
				http.Error(w, "authentication credentials were not provided", http.StatusUnauthorized)
				return
			}
			http.Error(w, "forbidden", http.StatusForbidden)
		})
	}, nil
}
