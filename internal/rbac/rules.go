package rbac

// PermissionClasses are the permission classes a route group may require.
var PermissionClasses = map[string]Rule{
	"AllowAny": func(Principal) bool { return true },
	"IsAuthenticated": func(p Principal) bool {
		return p.Authenticated()
	},
	"IsAdminUser": func(p Principal) bool {
		return p.Authenticated() && p.Staff
	},
}
