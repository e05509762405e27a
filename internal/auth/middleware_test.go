package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func guardedRouter(issuer *TokenIssuer, reached *bool, guards ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	handlers := append([]gin.HandlerFunc{AuthMiddleware(issuer)}, guards...)
	handlers = append(handlers, func(c *gin.Context) {
		*reached = true
		user, _ := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"id": user.ID.String(), "role": user.Role})
	})
	router.GET("/protected", handlers...)
	return router
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	reached := false
	router := guardedRouter(NewTokenIssuer(testAuthConfig()), &reached)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/protected", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached, "handler must not run without a token")
}

func TestAuthMiddlewareRejectsMalformedHeader(t *testing.T) {
	reached := false
	router := guardedRouter(NewTokenIssuer(testAuthConfig()), &reached)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)
}

func TestAuthMiddlewareRejectsRefreshToken(t *testing.T) {
	issuer := NewTokenIssuer(testAuthConfig())
	reached := false
	router := guardedRouter(issuer, &reached)

	refresh, _, err := issuer.IssueRefreshToken(testUser())
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+refresh)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached)
}

func TestAuthMiddlewareInjectsUser(t *testing.T) {
	issuer := NewTokenIssuer(testAuthConfig())
	reached := false
	router := guardedRouter(issuer, &reached)

	user := testUser()
	access, _, err := issuer.IssueAccessToken(user)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "bearer "+access)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, reached)
	assert.Contains(t, rec.Body.String(), user.ID.String())
}

func TestRequireRoles(t *testing.T) {
	issuer := NewTokenIssuer(testAuthConfig())

	cases := []struct {
		name   string
		role   Role
		status int
	}{
		{name: "user is forbidden", role: RoleUser, status: http.StatusForbidden},
		{name: "admin is allowed", role: RoleAdmin, status: http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			reached := false
			router := guardedRouter(issuer, &reached, RequireRoles(RoleAdmin))

			user := testUser()
			user.Role = tc.role
			access, _, err := issuer.IssueAccessToken(user)
			require.NoError(t, err)

			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			req.Header.Set("Authorization", "Bearer "+access)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.status == http.StatusOK, reached)
		})
	}
}

func TestRequireRolesWithoutIdentity(t *testing.T) {
	router := gin.New()
	router.GET("/admin", RequireRoles(RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshMiddleware(t *testing.T) {
	issuer := NewTokenIssuer(testAuthConfig())
	user := testUser()
	access, _, err := issuer.IssueAccessToken(user)
	require.NoError(t, err)
	refresh, _, err := issuer.IssueRefreshToken(user)
	require.NoError(t, err)

	cases := map[string]struct {
		cookie string
		status int
	}{
		"no cookie":     {status: http.StatusUnauthorized},
		"access token":  {cookie: access, status: http.StatusUnauthorized},
		"refresh token": {cookie: refresh, status: http.StatusOK},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			router := gin.New()
			router.POST("/refresh", RefreshMiddleware(issuer, "refreshToken"), func(c *gin.Context) {
				id, _, ok := RequireUser(c)
				require.True(t, ok)
				assert.Equal(t, user.ID, id)
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodPost, "/refresh", nil)
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "refreshToken", Value: tc.cookie})
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
		})
	}
}
