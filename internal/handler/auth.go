package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/sakif/social-platform/internal/auth"
	"github.com/sakif/social-platform/internal/model"
	"github.com/sakif/social-platform/internal/service"
)

const (
	msgRegistered  = "Регистрация успешна"
	msgLoggedIn    = "Вход успешен"
	msgProfile     = "Профиль пользователя"
	msgAuthFailure = "Ошибка сервера"
	msgNoToken     = "Токен отсутствует"
)

// AuthService is what AuthHandler needs from the auth flow.
// *service.AuthService satisfies it.
type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*service.AuthResult, error)
	Login(ctx context.Context, identifier, password string) (*service.AuthResult, error)
	Profile(ctx context.Context, userID string) (*model.User, error)
}

// AuthHandler serves registration, login and the caller's profile.
//
// HANDLER RESPONSIBILITIES:
//   - HandleRegister → POST /auth/register
//   - HandleLogin    → POST /auth/login
//   - HandleProfile  → GET  /auth/profile (behind auth.RequireAuth)
type AuthHandler struct {
	auth   AuthService
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(svc AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: svc, logger: logger}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// loginRequest.Username accepts an email too.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse is the body of a successful register or login.
// User is always the public view.
type AuthResponse struct {
	Message string           `json:"message"`
	Token   string           `json:"token"`
	User    model.PublicUser `json:"user"`
}

// ProfileResponse is the body of GET /auth/profile.
type ProfileResponse struct {
	Message string           `json:"message"`
	User    model.PublicUser `json:"user"`
}

// HandleRegister creates an account.
//
// HTTP: POST /auth/register
// REQUEST BODY: {"username": "alice", "email": "alice@x.com", "password": "secret1"}
// RESPONSE: 201 {"message": "...", "token": "<jwt>", "user": {...}}
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err, msgAuthFailure)
		return
	}

	res, err := h.auth.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, err, msgAuthFailure)
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{
		Message: msgRegistered,
		Token:   res.Token,
		User:    res.User.ToPublic(),
	})
}

// HandleLogin exchanges credentials for a token.
//
// HTTP: POST /auth/login
// REQUEST BODY: {"username": "alice" | "alice@x.com", "password": "secret1"}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err, msgAuthFailure)
		return
	}

	res, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, h.logger, err, msgAuthFailure)
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Message: msgLoggedIn,
		Token:   res.Token,
		User:    res.User.ToPublic(),
	})
}

// HandleProfile returns the authenticated caller.
//
// HTTP: GET /auth/profile
// Requires auth.RequireAuth middleware.
func (h *AuthHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: msgNoToken})
		return
	}

	user, err := h.auth.Profile(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err, msgAuthFailure)
		return
	}

	writeJSON(w, http.StatusOK, ProfileResponse{
		Message: msgProfile,
		User:    user.ToPublic(),
	})
}
