package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/cleaning-scheduler/internal/api/domain"
	"github.com/cuongbtq/cleaning-scheduler/internal/api/dto"
)

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, bindingMessage(err))
		return
	}

	if err := h.auth.CheckPassword(req.Password); err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			h.logger.Warn("Failed login attempt", slog.String("client_ip", c.ClientIP()))
			respondError(c, http.StatusUnauthorized, "Incorrect password")
			return
		}
		h.logger.Error("Failed to check password", slog.String("error", err.Error()))
		respondError(c, http.StatusInternalServerError, "Login failed")
		return
	}

	token, expiresAt, err := h.auth.Mint()
	if err != nil {
		h.logger.Error("Failed to mint session token", slog.String("error", err.Error()))
		respondError(c, http.StatusInternalServerError, "Login failed")
		return
	}

	h.auth.SetCookie(c.Writer, token)

	respondOK(c, http.StatusOK, dto.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
	})
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	h.auth.ClearCookie(c.Writer)
	respondOK(c, http.StatusOK, nil)
}
