package handler

import (
	"github.com/brightmart/inventory/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler 注册与登录
type AuthHandler struct {
	auth   *service.AuthService
	logger *zap.Logger
}

func NewAuthHandler(auth *service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Signup POST /api/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "email and password are required")
		return
	}

	user, err := h.auth.Signup(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Created(c, user)
}

// Login POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "email and password are required")
		return
	}

	user, err := h.auth.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	if user == nil {
		Unauthorized(c, "incorrect email or password")
		return
	}

	token, expiresAt, err := h.auth.IssueToken(user)
	if err != nil {
		HandleError(c, h.logger, err)
		return
	}
	Success(c, gin.H{
		"access_token": token,
		"token_type":   "bearer",
		"expires_at":   expiresAt,
		"user":         user,
	})
}

// Me GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, exists := c.Get("user")
	if !exists {
		Unauthorized(c, "unauthorized")
		return
	}
	Success(c, user)
}
