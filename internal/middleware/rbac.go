package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-adp-timetable/internal/models"
	appErrors "github.com/noah-isme/sma-adp-timetable/pkg/errors"
)

const (
	// Self admits callers whose user id matches the :id route parameter.
	Self = "SELF"
	// SelfParam lets a caller address their own resource without knowing its id.
	SelfParam = "me"
)

type accessPolicy struct {
	roles map[models.UserRole]struct{}
	self  bool
}

func newAccessPolicy(allowed []string) accessPolicy {
	policy := accessPolicy{roles: make(map[models.UserRole]struct{}, len(allowed))}
	for _, a := range allowed {
		if a == Self {
			policy.self = true
			continue
		}
		policy.roles[models.UserRole(a)] = struct{}{}
	}
	return policy
}

func (p accessPolicy) admits(claims *models.JWTClaims, target string) bool {
	if _, ok := p.roles[claims.Role]; ok {
		return true
	}
	if !p.self || target == "" {
		return false
	}
	return target == SelfParam || target == claims.UserID
}

// RBAC admits callers holding one of the allowed roles, or Self.
func RBAC(allowed ...string) gin.HandlerFunc {
	policy := newAccessPolicy(allowed)
	return func(c *gin.Context) {
		claims, ok := CurrentClaims(c)
		if !ok {
			abort(c, appErrors.ErrUnauthorized)
			return
		}
		if !policy.admits(claims, c.Param("id")) {
			abort(c, appErrors.ErrForbidden)
			return
		}
		c.Next()
	}
}

// RequireRoles is RBAC for typed roles.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make([]string, len(roles))
	for i, r := range roles {
		allowed[i] = string(r)
	}
	return RBAC(allowed...)
}
