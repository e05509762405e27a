package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type contextKey string

const userContextKey contextKey = "clinstudyUser"

// ContextUser represents the authenticated principal stored in the request context.
type ContextUser struct {
	ID    uuid.UUID
	Email string
	Role  Role
}

// IsAdmin reports whether the principal holds the admin role.
func (u ContextUser) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type tokenVerifier interface {
	Verify(token string, kind TokenKind) (Claims, error)
}

// AuthMiddleware validates bearer access tokens and injects the authenticated user.
func AuthMiddleware(verifier tokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		token := extractBearerToken(authHeader)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}

		claims, err := verifier.Verify(token, TokenAccess)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		setContextUser(c, claims)
		c.Next()
	}
}

// RefreshMiddleware validates the refresh token carried in the named cookie.
func RefreshMiddleware(verifier tokenVerifier, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookieName)
		if err != nil || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing refresh token"})
			return
		}

		claims, err := verifier.Verify(token, TokenRefresh)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired refresh token"})
			return
		}

		setContextUser(c, claims)
		c.Next()
	}
}

// RequireRoles rejects principals whose role is not in roles. It must run after
// AuthMiddleware.
func RequireRoles(roles ...Role) gin.HandlerFunc {
	allowed := make(map[Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if _, ok := allowed[user.Role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
			return
		}
		c.Next()
	}
}

// CurrentUser extracts the authenticated user from the context.
func CurrentUser(c *gin.Context) (ContextUser, bool) {
	value, exists := c.Get(string(userContextKey))
	if !exists {
		return ContextUser{}, false
	}
	user, ok := value.(ContextUser)
	return user, ok
}

// RequireUser fetches the authenticated user and its identifier.
func RequireUser(c *gin.Context) (uuid.UUID, ContextUser, bool) {
	user, ok := CurrentUser(c)
	if !ok || user.ID == uuid.Nil {
		return uuid.Nil, ContextUser{}, false
	}
	return user.ID, user, true
}

func setContextUser(c *gin.Context, claims Claims) {
	id, _ := claims.UserID()
	c.Set(string(userContextKey), ContextUser{
		ID:    id,
		Email: claims.Email,
		Role:  claims.Role,
	})
}

func extractBearerToken(header string) string {
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
