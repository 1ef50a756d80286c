package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sagha-api/internal/models"
	appErrors "github.com/noah-isme/sagha-api/pkg/errors"
	"github.com/noah-isme/sagha-api/pkg/response"
)

// RoleSelf admits a student whose token matches the :domain and
// :studentId route parameters.
const RoleSelf = "SELF"

// RBAC enforces role-based access control for routes.
func RBAC(allowed ...string) gin.HandlerFunc {
	allowSelf := false
	allowedRoles := make(map[models.UserRole]struct{})
	for _, a := range allowed {
		if a == RoleSelf {
			allowSelf = true
			continue
		}
		allowedRoles[models.UserRole(a)] = struct{}{}
	}

	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if _, ok := allowedRoles[claims.Role]; ok {
			c.Next()
			return
		}

		if allowSelf && isSelf(c, claims) {
			c.Next()
			return
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}

// RequireRoles is a helper that accepts a list of roles.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make([]string, len(roles))
	for i, r := range roles {
		allowed[i] = string(r)
	}
	return RBAC(allowed...)
}

// RequireStaff admits administrators and employees.
func RequireStaff() gin.HandlerFunc {
	return RequireRoles(models.RoleAdmin, models.RoleEmployee)
}

func isSelf(c *gin.Context, claims *models.JWTClaims) bool {
	if claims.Role != models.RoleStudent || claims.StudentID == "" {
		return false
	}
	domain := c.Param("domain")
	if domain == "" || domain != claims.Domain {
		return false
	}
	if studentID := c.Param("studentId"); studentID != "" {
		return studentID == claims.StudentID
	}
	return true
}
