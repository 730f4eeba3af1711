package handler

import (
	"errors"
	"net/http"

	"github.com/authkit/api/internal/middleware"
	"github.com/authkit/api/internal/verification"
	"github.com/gin-gonic/gin"
)

type VerificationHandler struct {
	verification *verification.Service
}

func NewVerificationHandler(service *verification.Service) *VerificationHandler {
	return &VerificationHandler{verification: service}
}

type VerifyEmailRequest struct {
	Token string `json:"token" binding:"required"`
}

func (h *VerificationHandler) Verify(c *gin.Context) {
	var req VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}

	user := middleware.CurrentUser(c)

	if err := h.verification.VerifyEmail(c.Request.Context(), user, req.Token); err != nil {
		if errors.Is(err, verification.ErrInvalidToken) {
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid token"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify email"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *VerificationHandler) Resend(c *gin.Context) {
	user := middleware.CurrentUser(c)

	token, err := h.verification.ResendToken(user)
	if err != nil {
		if errors.Is(err, verification.ErrAlreadyVerified) {
			c.JSON(http.StatusForbidden, gin.H{"error": "email already verified"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate verification token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"token": token}})
}
