package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/abduss/clinstudy/internal/config"
	"github.com/abduss/clinstudy/internal/httpx"
	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
)

const msgLoggedOut = "session closed"

// RouteConfig parameterizes the authentication routes.
type RouteConfig struct {
	Cookie config.CookieConfig
	// CredentialLimiter guards the unauthenticated credential endpoints. Optional.
	CredentialLimiter gin.HandlerFunc
}

// RegisterRoutes mounts authentication and user management endpoints under /auth.
func RegisterRoutes(router gin.IRouter, service *Service, verifier tokenVerifier, cfg RouteConfig) {
	handler := &httpHandler{service: service, cookie: cfg.Cookie}

	authenticate := AuthMiddleware(verifier)
	limit := cfg.CredentialLimiter
	if limit == nil {
		limit = func(c *gin.Context) { c.Next() }
	}

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", limit, handler.login)
		authGroup.POST("/refresh", RefreshMiddleware(verifier, cfg.Cookie.Name), handler.refresh)
		authGroup.POST("/logout", handler.logout)
		authGroup.POST("/register", authenticate, handler.register)
		authGroup.POST("/change-password", limit, handler.changePassword)

		authGroup.GET("/user", authenticate, RequireRoles(RoleAdmin), handler.getUserByEmail)
		authGroup.GET("/user/:id", authenticate, handler.getUserByID)
		authGroup.GET("/users", authenticate, handler.listUsers)
		authGroup.PUT("/user/edit/:id", authenticate, handler.updateUser)
		authGroup.DELETE("/user/:id", authenticate, handler.deleteUser)

		authGroup.PATCH("/user/:id/documents", authenticate, handler.updateDocuments)
		authGroup.POST("/user/:id/documents/upload", authenticate, handler.uploadDocument)
		authGroup.GET("/user/:id/documents/:name/url", authenticate, handler.documentURL)
	}
}

type httpHandler struct {
	service *Service
	cookie  config.CookieConfig
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,max=72"`
}

type registerRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8,max=72"`
	FirstName string `json:"first_name" binding:"omitempty,max=100"`
	LastName  string `json:"last_name" binding:"omitempty,max=100"`
	Phone     string `json:"phone" binding:"omitempty,max=32"`
	Role      Role   `json:"role" binding:"omitempty,oneof=admin user"`
}

type changePasswordRequest struct {
	Email           string `json:"email" binding:"required,email"`
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=72"`
}

type documentsRequest struct {
	IdentityType   *string `json:"identity_type" binding:"omitempty,max=64"`
	IdentityNumber *string `json:"identity_number" binding:"omitempty,max=128"`
	LicenseNumber  *string `json:"license_number" binding:"omitempty,max=128"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresAt   int64  `json:"expires_at"`
}

type urlResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *httpHandler) login(c *gin.Context) {
	var req loginRequest
	if !httpx.BindJSON(c, &req) {
		return
	}

	result, err := h.service.Login(c.Request.Context(), LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			httpx.Error(c, http.StatusUnauthorized, "invalid credentials")
		default:
			httpx.InternalError(c, err, "failed to authenticate")
		}
		return
	}

	h.setRefreshCookie(c, result.Tokens.RefreshToken, result.Tokens.RefreshTokenExpiry)
	c.JSON(http.StatusOK, tokenResponse{
		AccessToken: result.Tokens.AccessToken,
		TokenType:   "Bearer",
		ExpiresAt:   result.Tokens.AccessTokenExpiry.Unix(),
	})
}

func (h *httpHandler) refresh(c *gin.Context) {
	token, _ := c.Cookie(h.cookie.Name)

	access, err := h.service.Refresh(c.Request.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidToken):
			httpx.Error(c, http.StatusUnauthorized, "invalid or expired refresh token")
		default:
			httpx.InternalError(c, err, "failed to refresh token")
		}
		return
	}

	c.JSON(http.StatusOK, tokenResponse{
		AccessToken: access.Token,
		TokenType:   "Bearer",
		ExpiresAt:   access.ExpiresAt.Unix(),
	})
}

// logout only clears the cookie; issued tokens stay valid until they expire.
func (h *httpHandler) logout(c *gin.Context) {
	h.clearRefreshCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": msgLoggedOut})
}

func (h *httpHandler) register(c *gin.Context) {
	_, caller, ok := RequireUser(c)
	if !ok {
		httpx.Error(c, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req registerRequest
	if !httpx.BindJSON(c, &req) {
		return
	}

	if req.Role != "" && req.Role != DefaultRole && !caller.IsAdmin() {
		httpx.Error(c, http.StatusForbidden, "only admins can assign roles")
		return
	}

	user, err := h.service.Register(c.Request.Context(), RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Role:      req.Role,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrEmailAlreadyExists):
			httpx.Error(c, http.StatusConflict, "email already registered")
		case httpx.IsValidation(err):
			httpx.RespondValidation(c, err)
		default:
			httpx.InternalError(c, err, "failed to register user")
		}
		return
	}

	c.JSON(http.StatusCreated, user)
}

func (h *httpHandler) changePassword(c *gin.Context) {
	var req changePasswordRequest
	if !httpx.BindJSON(c, &req) {
		return
	}

	message, err := h.service.ChangePassword(c.Request.Context(), ChangePasswordInput{
		Email:           req.Email,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			httpx.Error(c, http.StatusUnauthorized, "invalid credentials")
		case httpx.IsValidation(err):
			httpx.RespondValidation(c, err)
		default:
			httpx.InternalError(c, err, "failed to change password")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": message})
}

func (h *httpHandler) getUserByEmail(c *gin.Context) {
	email := strings.TrimSpace(c.Query("email"))
	if email == "" {
		httpx.RespondValidation(c, validation.Errors{"email": errors.New("is required")})
		return
	}

	user, err := h.service.GetUserByEmail(c.Request.Context(), email)
	if err != nil {
		httpx.InternalError(c, err, "failed to fetch user")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *httpHandler) getUserByID(c *gin.Context) {
	id, ok := httpx.ParseID(c, "id")
	if !ok {
		return
	}

	user, err := h.service.GetUserByID(c.Request.Context(), id)
	if err != nil {
		httpx.InternalError(c, err, "failed to fetch user")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *httpHandler) listUsers(c *gin.Context) {
	users, err := h.service.ListUsers(c.Request.Context())
	if err != nil {
		httpx.InternalError(c, err, "failed to list users")
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *httpHandler) updateUser(c *gin.Context) {
	id, caller, ok := h.targetUser(c)
	if !ok {
		return
	}

	var patch UserPatch
	if !httpx.BindJSON(c, &patch) {
		return
	}
	if patch.Role != nil && !caller.IsAdmin() {
		httpx.Error(c, http.StatusForbidden, "only admins can change roles")
		return
	}

	user, err := h.service.UpdateUser(c.Request.Context(), id, patch)
	if err != nil {
		h.writeUserError(c, err, "failed to update user")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *httpHandler) deleteUser(c *gin.Context) {
	id, _, ok := h.targetUser(c)
	if !ok {
		return
	}

	message, err := h.service.DeleteUser(c.Request.Context(), id)
	if err != nil {
		h.writeUserError(c, err, "failed to delete user")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": message})
}

func (h *httpHandler) updateDocuments(c *gin.Context) {
	id, _, ok := h.targetUser(c)
	if !ok {
		return
	}

	var req documentsRequest
	if !httpx.BindJSON(c, &req) {
		return
	}

	user, err := h.service.UpdateUserDocuments(c.Request.Context(), id, DocumentsPatch{
		IdentityType:   req.IdentityType,
		IdentityNumber: req.IdentityNumber,
		LicenseNumber:  req.LicenseNumber,
	})
	if err != nil {
		h.writeUserError(c, err, "failed to update documents")
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *httpHandler) uploadDocument(c *gin.Context) {
	id, _, ok := h.targetUser(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		httpx.RespondValidation(c, validation.Errors{"file": errors.New("is required")})
		return
	}

	user, err := h.service.UploadUserDocument(c.Request.Context(), id, c.PostForm("name"), fileHeader)
	if err != nil {
		h.writeUserError(c, err, "failed to upload document")
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *httpHandler) documentURL(c *gin.Context) {
	id, _, ok := h.targetUser(c)
	if !ok {
		return
	}

	url, expiresAt, err := h.service.DocumentURL(c.Request.Context(), id, c.Param("name"))
	if err != nil {
		h.writeUserError(c, err, "failed to generate document url")
		return
	}
	c.JSON(http.StatusOK, urlResponse{URL: url, ExpiresAt: expiresAt.UTC()})
}

// targetUser parses the :id parameter and allows the request only for the user
// themself or an admin.
func (h *httpHandler) targetUser(c *gin.Context) (uuid.UUID, ContextUser, bool) {
	callerID, caller, ok := RequireUser(c)
	if !ok {
		httpx.Error(c, http.StatusUnauthorized, "unauthorized")
		return uuid.Nil, ContextUser{}, false
	}

	id, ok := httpx.ParseID(c, "id")
	if !ok {
		return uuid.Nil, ContextUser{}, false
	}

	if id != callerID && !caller.IsAdmin() {
		httpx.Error(c, http.StatusForbidden, "cannot modify another user")
		return uuid.Nil, ContextUser{}, false
	}
	return id, caller, true
}

func (h *httpHandler) writeUserError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, ErrUserNotFound):
		httpx.Error(c, http.StatusNotFound, "user not found")
	case errors.Is(err, ErrDocumentNotFound):
		httpx.Error(c, http.StatusNotFound, "document not found")
	case errors.Is(err, ErrEmailAlreadyExists):
		httpx.Error(c, http.StatusConflict, "email already registered")
	case errors.Is(err, ErrDocumentTooLarge):
		httpx.Error(c, http.StatusRequestEntityTooLarge, "document too large")
	case errors.Is(err, ErrDocumentsUnavailable):
		httpx.Error(c, http.StatusServiceUnavailable, "document storage unavailable")
	case httpx.IsValidation(err):
		httpx.RespondValidation(c, err)
	default:
		httpx.InternalError(c, err, message)
	}
}

func (h *httpHandler) setRefreshCookie(c *gin.Context, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge <= 0 {
		maxAge = 1
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, token, maxAge, h.cookie.Path, h.cookie.Domain, h.cookie.Secure, true)
}

func (h *httpHandler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, "", -1, h.cookie.Path, h.cookie.Domain, h.cookie.Secure, true)
}
