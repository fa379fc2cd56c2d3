// Package handlers implements the HTTP surface of the read API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/venuepulse/venuepulse/api/internal/middleware"
	"github.com/venuepulse/venuepulse/api/internal/models"
	"github.com/venuepulse/venuepulse/api/internal/repository"
	"github.com/venuepulse/venuepulse/api/internal/service"
	"github.com/venuepulse/venuepulse/common/logging"
)

type AuthHandler struct {
	auth *service.AuthService
	log  *logging.Logger
}

func NewAuthHandler(auth *service.AuthService, log *logging.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, log: log}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	user, err := h.auth.Register(r.Context(), &req)
	switch {
	case errors.Is(err, service.ErrInvalidEmail), errors.Is(err, service.ErrWeakPassword):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, repository.ErrDuplicateEmail):
		writeError(w, http.StatusConflict, "email already registered")
		return
	case err != nil:
		h.log.ErrorContext(r.Context(), "register failed", logging.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.log.InfoContext(r.Context(), "user registered", logging.UserID(user.ID))
	writeJSON(w, http.StatusCreated, user)
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	resp, err := h.auth.Login(r.Context(), &req)
	if errors.Is(err, service.ErrInvalidCredentials) {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		h.log.ErrorContext(r.Context(), "login failed", logging.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Me handles GET /auth/me for the authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	user, err := h.auth.GetUser(r.Context(), userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		h.log.ErrorContext(r.Context(), "load user failed", logging.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
