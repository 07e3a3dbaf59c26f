// README: Bearer token auth middleware and role gate.
package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"jeepney/internal/infra"
	"jeepney/internal/types"
)

// Both wrap types.ErrAuthentication.
var (
	ErrMissingToken = fmt.Errorf("%w: missing or malformed authorization header", types.ErrAuthentication)
	ErrInvalidToken = fmt.Errorf("%w: invalid or expired token", types.ErrAuthentication)
)

const (
	ctxCallerUID  = "auth.uid"
	ctxCallerRole = "auth.role"
)

// Auth verifies the "Authorization: Bearer <token>" header and stores the
// caller identity on the context. Requests without a valid token stop here.
func Auth(verifier infra.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortUnauthorized(c, ErrMissingToken)
			return
		}
		identity, err := verifier.VerifyIDToken(c.Request.Context(), raw)
		if err != nil || identity == nil || identity.UID == "" {
			if err != nil {
				_ = c.Error(err)
			}
			abortUnauthorized(c, ErrInvalidToken)
			return
		}
		c.Set(ctxCallerUID, identity.UID)
		c.Set(ctxCallerRole, identity.Role())
		c.Next()
	}
}

// RequireRole rejects callers whose role claim differs from role. It must run after Auth.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if CallerRole(c) != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden: " + role + " role required"})
			return
		}
		c.Next()
	}
}

func CallerUID(c *gin.Context) string {
	return c.GetString(ctxCallerUID)
}

func CallerRole(c *gin.Context) string {
	return c.GetString(ctxCallerRole)
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func abortUnauthorized(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
}
