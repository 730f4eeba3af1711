package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/authkit/api/internal/auth"
	"github.com/authkit/api/internal/metrics"
	"github.com/authkit/api/internal/middleware"
	"github.com/authkit/api/internal/model"
	"github.com/authkit/api/internal/password"
	"github.com/authkit/api/internal/store"
	"github.com/gin-gonic/gin"
)

// TokenManager is the slice of the token service the auth endpoints use.
type TokenManager interface {
	CreateAndBuildTokenPair(ctx context.Context, user *model.User) (auth.TokenPair, *model.AuthToken, error)
	RotateTokenPair(ctx context.Context, user *model.User, token *model.AuthToken) (auth.TokenPair, error)
	LogoutToken(ctx context.Context, token *model.AuthToken) error
	DeleteAllForUser(ctx context.Context, user *model.User) error
}

// now is a seam for tests.
var now = time.Now

type AuthHandler struct {
	users         store.UserStore
	tokens        TokenManager
	hasher        password.Hasher
	signUpEnabled bool
}

func NewAuthHandler(users store.UserStore, tokens TokenManager, hasher password.Hasher, signUpEnabled bool) *AuthHandler {
	return &AuthHandler{
		users:         users,
		tokens:        tokens,
		hasher:        hasher,
		signUpEnabled: signUpEnabled,
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type SignUpRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8"`
}

// Login authenticates with email and password and issues a fresh token pair.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	user, err := h.users.FindByEmail(c.Request.Context(), req.Email)
	if err != nil {
		// same response as a wrong password, no user-existence oracle
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	if err := h.hasher.Compare([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	pair, _, err := h.tokens.CreateAndBuildTokenPair(c.Request.Context(), user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue tokens"})
		return
	}

	metrics.RecordPairIssued("login")

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"user":         user,
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}})
}

// SignUp creates an account and logs the new user in.
func (h *AuthHandler) SignUp(c *gin.Context) {
	if !h.signUpEnabled {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "sign up is disabled"})
		return
	}

	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name, email and password are required"})
		return
	}

	if _, err := h.users.FindByEmail(c.Request.Context(), req.Email); err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "email already taken"})
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}

	hash, err := h.hasher.Hash([]byte(req.Password))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}

	user := model.NewUser(req.Name, req.Email, string(hash), now())

	if err := h.users.Create(c.Request.Context(), user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		return
	}

	pair, _, err := h.tokens.CreateAndBuildTokenPair(c.Request.Context(), user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue tokens"})
		return
	}

	metrics.RecordPairIssued("sign-up")

	c.JSON(http.StatusCreated, gin.H{"data": gin.H{
		"user":         user,
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}})
}

// Refresh rotates the presented refresh token's lineage and returns the new
// pair. The guard has already validated the refresh token; losing the
// rotation race surfaces here as a 401.
func (h *AuthHandler) Refresh(c *gin.Context) {
	user := middleware.CurrentUser(c)
	token := middleware.CurrentAuthToken(c)

	pair, err := h.tokens.RotateTokenPair(c.Request.Context(), user, token)
	if err != nil {
		if errors.Is(err, auth.ErrUnauthorized) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue tokens"})
		return
	}

	metrics.RecordPairIssued("refresh")

	c.JSON(http.StatusCreated, gin.H{"data": gin.H{
		"user":         user,
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}})
}

// Logout deletes the current session's token record.
func (h *AuthHandler) Logout(c *gin.Context) {
	token := middleware.CurrentAuthToken(c)

	if err := h.tokens.LogoutToken(c.Request.Context(), token); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to log out"})
		return
	}

	c.Status(http.StatusNoContent)
}

// GetAuthenticatedUser returns the current user.
func (h *AuthHandler) GetAuthenticatedUser(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": middleware.CurrentUser(c)})
}

// ChangePassword re-hashes the password, revokes every outstanding session
// and issues a fresh pair so the current client stays logged in.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "currentPassword and newPassword are required"})
		return
	}

	user := middleware.CurrentUser(c)

	if err := h.hasher.Compare([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	hash, err := h.hasher.Hash([]byte(req.NewPassword))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}

	user.PasswordHash = string(hash)
	user.UpdatedAt = now()

	if err := h.users.Update(c.Request.Context(), user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update password"})
		return
	}

	if err := h.tokens.DeleteAllForUser(c.Request.Context(), user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke sessions"})
		return
	}

	pair, _, err := h.tokens.CreateAndBuildTokenPair(c.Request.Context(), user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue tokens"})
		return
	}

	metrics.RecordPairIssued("password-change")

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}})
}
