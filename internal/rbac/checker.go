package rbac

import (
	"context"
	"fmt"
)

// Principal is the identity attached to a request by the authentication
// middleware. The zero value is the anonymous user.
type Principal struct {
	UserID string
	Staff  bool
}

func (p Principal) Authenticated() bool { return p.UserID != "" }

type Rule func(Principal) bool

type Checker struct {
	Classes map[string]Rule
}

func NewChecker(classes map[string]Rule) *Checker {
	if classes == nil {
		classes = PermissionClasses
	}
	return &Checker{Classes: classes}
}

// Validate returns an error naming the first unknown class.
func (c *Checker) Validate(classes ...string) error {
	for _, name := range classes {
		if _, ok := c.Classes[name]; !ok {
			return fmt.Errorf("rbac: unknown permission class %q", name)
		}
	}
	return nil
}

// Allows reports whether every class grants access to p. Unknown classes deny.
func (c *Checker) Allows(p Principal, classes ...string) bool {
	for _, name := range classes {
		rule, ok := c.Classes[name]
		if !ok || !rule(p) {
			return false
		}
	}
	return true
}

// ---- principal in context ----

type ctxKey struct{}

var ctxKeyPrincipal = ctxKey{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKeyPrincipal, p)
}

func PrincipalFromContext(ctx context.Context) Principal {
	if v := ctx.Value(ctxKeyPrincipal); v != nil {
		if p, ok := v.(Principal); ok {
			return p
		}
	}
	return Principal{}
}
