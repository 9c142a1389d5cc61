// internal/security/security.go
package security

import (
	"net/http"

	"iqrabackend/internal/config"
)

// Role is supplied by the external identity layer via the X-User-Role
// header. The backend performs no authentication of its own; it only
// gates which mutation endpoints a role may reach.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleUser   Role = "user"
	RoleViewer Role = "viewer"
)

var roleRank = map[Role]int{
	RoleViewer: 0,
	RoleUser:   1,
	RoleAdmin:  2,
}

// RoleFromRequest reads the caller's role. Unknown or missing values
// degrade to viewer, the most restrictive role.
func RoleFromRequest(r *http.Request) Role {
	role := Role(r.Header.Get("X-User-Role"))
	if _, ok := roleRank[role]; !ok {
		return RoleViewer
	}
	return role
}

// AtLeast reports whether the role meets a minimum: viewer < user < admin.
func (role Role) AtLeast(min Role) bool {
	return roleRank[role] >= roleRank[min]
}

// AddCORSHeaders adds CORS headers and handles OPTIONS requests globally.
func AddCORSHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", config.AllowedOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-User-Role")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
