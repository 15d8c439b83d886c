package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"parley/tools/api"
	"parley/tools/errs"
	"parley/tools/security"
)

// CtxUserIDKey is the gin context key downstream handlers read the
// authenticated user id from.
const CtxUserIDKey = "userId"

type AuthOptions struct {
	JWT security.Options

	// CookieName is checked when no bearer header is present; browser
	// clients keep their token in an httpOnly cookie.
	CookieName string
}

func DefaultAuthOptions(jwt security.Options) *AuthOptions {
	return &AuthOptions{JWT: jwt, CookieName: "jwt"}
}

// Auth extracts the token from `Authorization: Bearer ...` or the jwt cookie,
// verifies it and stores the subject user id in the request context.
func Auth(opts *AuthOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string

		if authz := strings.TrimSpace(c.GetHeader("Authorization")); authz != "" {
			if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				token = strings.TrimSpace(authz[len("bearer "):])
			}
		}
		if token == "" && opts.CookieName != "" {
			if v, err := c.Cookie(opts.CookieName); err == nil {
				token = strings.TrimSpace(v)
			}
		}
		if token == "" {
			api.Fail(c, errs.ErrUnauthorized.WithDetail("bearer token missing"))
			return
		}

		userID, err := security.Verify(opts.JWT, token)
		if err != nil {
			api.Fail(c, errs.ErrTokenExpired)
			return
		}

		c.Set(CtxUserIDKey, userID)
		c.Next()
	}
}

// UserID reads the authenticated user id set by Auth.
func UserID(c *gin.Context) string {
	return c.GetString(CtxUserIDKey)
}
