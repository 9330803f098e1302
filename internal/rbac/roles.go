package rbac

import "strings"

// Viewer roles. Keep these stable; they are part of the auth and route contracts.
// There is no hierarchy: a role grants access to exactly one dashboard.
const (
	RoleL1 = "L1"
	RoleL2 = "L2"
	RoleL3 = "L3"
)

func IsValid(role string) bool {
	switch role {
	case RoleL1, RoleL2, RoleL3:
		return true
	default:
		return false
	}
}

// DashboardPath maps a role to its dashboard route, e.g. "L2" -> "/l2/dashboard".
func DashboardPath(role string) string {
	return "/" + strings.ToLower(role) + "/dashboard"
}

// RedirectURL is the post-login destination in the shape the login response
// uses: no leading slash, e.g. "l1/dashboard".
func RedirectURL(role string) string {
	return strings.ToLower(role) + "/dashboard"
}
