package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-adp-timetable/internal/middleware"
)

// resolveSelf maps the "me" path alias to the caller's user id. It returns
// false when the alias is used without authenticated claims.
func resolveSelf(c *gin.Context, id string) (string, bool) {
	if id != middleware.SelfParam {
		return id, true
	}
	claims, ok := middleware.CurrentClaims(c)
	if !ok || claims.UserID == "" {
		return "", false
	}
	return claims.UserID, true
}
