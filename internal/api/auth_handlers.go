package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/medipulse/medipulse/internal/auth"
)

// AuthHandler handles authentication requests
type AuthHandler struct {
	auth   *auth.Authenticator
	logger *slog.Logger
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authenticator *auth.Authenticator, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:   authenticator,
		logger: logger,
	}
}

// LoginRequest represents a login request
type LoginRequest struct {
	Password string `json:"password"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decode(r, &req); err != nil {
		writeJSON(w, h.logger, http.StatusBadRequest, ErrorResponse{Error: "Invalid request body"})
		return
	}

	token, expires, err := h.auth.Login(req.Password)
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrDisabled):
		writeJSON(w, h.logger, http.StatusServiceUnavailable, ErrorResponse{Error: "Admin authentication not configured"})
		return
	case errors.Is(err, auth.ErrInvalidCredentials):
		h.logger.Warn("Failed login attempt", "ip", r.RemoteAddr)
		writeJSON(w, h.logger, http.StatusUnauthorized, ErrorResponse{Error: "Invalid credentials"})
		return
	default:
		h.logger.Error("Failed to generate token", "error", err)
		writeJSON(w, h.logger, http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
		return
	}

	h.logger.Info("Successful login", "ip", r.RemoteAddr)
	writeJSON(w, h.logger, http.StatusOK, LoginResponse{Token: token, ExpiresAt: expires})
}

// ValidateToken handles GET /api/auth/validate. The auth middleware has
// already accepted the token when this runs.
func (h *AuthHandler) ValidateToken(w http.ResponseWriter, r *http.Request) {
	subject, _ := auth.SubjectFromContext(r.Context())
	writeJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"valid":   true,
		"subject": subject,
	})
}
