package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"approvalhub.io/approvalhub/internal/api/middleware"
	apperrors "approvalhub.io/approvalhub/internal/pkg/errors"
	"approvalhub.io/approvalhub/internal/pkg/logger"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /auth/login.
func (s *Server) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.BadRequest(apperrors.CodeValidationFailed, "username and password are required"))
		return
	}

	user, err := s.users.GetByUsername(c.Request.Context(), req.Username)
	if err != nil {
		logger.Warn("login failed: invalid credentials")
		_ = c.Error(apperrors.Unauthorized(apperrors.CodeAuthFailed, "invalid credentials"))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		logger.Warn("login failed: invalid credentials")
		_ = c.Error(apperrors.Unauthorized(apperrors.CodeAuthFailed, "invalid credentials"))
		return
	}

	token, expiresAt, err := middleware.GenerateToken(s.jwtCfg, user.ID, user.Username, user.DisplayName)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":     token,
		"expiresAt": expiresAt,
		"user": gin.H{
			"id":          user.ID,
			"username":    user.Username,
			"displayName": user.DisplayName,
		},
	})
}

// GetCurrentUser handles GET /auth/me.
func (s *Server) GetCurrentUser(c *gin.Context) {
	user, err := s.actor(c)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":          user.ID,
		"username":    user.Username,
		"displayName": user.DisplayName,
	})
}
