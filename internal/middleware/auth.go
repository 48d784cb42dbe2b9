package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/epi-platform/admin-api/internal/backend"
	"github.com/epi-platform/admin-api/internal/model"
	"github.com/epi-platform/admin-api/internal/service/audit"
	"github.com/epi-platform/admin-api/pkg/auth"
	"github.com/epi-platform/admin-api/pkg/errors"
	"github.com/epi-platform/admin-api/pkg/httputil"
)

const ContextClaims = "claims"

type AuthMiddleware struct {
	authService auth.JWTService
}

func NewAuthMiddleware(authService auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
	}
}

// Authenticate verifies the bearer token and stores the admin claims. The
// raw token is forwarded to the catalog backend on every call made for this
// request, and the admin becomes the actor of any audit entry.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httputil.RespondWithError(c, errors.Unauthorized(nil))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			httputil.RespondWithError(c, errors.Unauthorized(nil))
			return
		}

		claims, err := m.authService.ValidateToken(parts[1])
		if err != nil {
			httputil.RespondWithError(c, errors.Unauthorized(err))
			return
		}

		c.Set(ContextClaims, claims)
		c.Set("user_id", claims.UserID)

		ctx := backend.WithToken(c.Request.Context(), parts[1])
		ctx = audit.WithActor(ctx, model.Actor{
			UserID:    claims.UserID,
			Email:     claims.Email,
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireModule lets through super admins and sub-admins granted module.
func (m *AuthMiddleware) RequireModule(module string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFrom(c)
		if !ok {
			httputil.RespondWithError(c, errors.Unauthorized(nil))
			return
		}
		if !claims.CanAccess(module) {
			httputil.RespondWithError(c, errors.Forbidden("you do not have access to "+module))
			return
		}
		c.Next()
	}
}

func (m *AuthMiddleware) RequireSuperAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFrom(c)
		if !ok {
			httputil.RespondWithError(c, errors.Unauthorized(nil))
			return
		}
		if !claims.IsSuperAdmin {
			httputil.RespondWithError(c, errors.Forbidden("super admin access required"))
			return
		}
		c.Next()
	}
}

func ClaimsFrom(c *gin.Context) (*model.AdminClaims, bool) {
	v, ok := c.Get(ContextClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*model.AdminClaims)
	return claims, ok
}
