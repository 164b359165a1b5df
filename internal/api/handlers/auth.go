package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"airline/internal/auth"
	"airline/internal/core"
	"airline/internal/types"
)

// --- DTOs ---

// SignupRequest is the request body for POST /v1/auth/signup.
type SignupRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"required,oneof=USER ADMIN"`
}

// LoginRequest is the request body for POST /v1/auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// SignupResponse is the public view of a newly registered user. The password
// hash never leaves the service layer.
type SignupResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// LoginResponse carries the issued bearer token alongside the user identity.
type LoginResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

// --- Service Interface ---

// AuthService orchestrates account registration and credential verification.
// Mirrors the concrete auth.Service methods.
type AuthService interface {
	Register(ctx context.Context, in auth.RegisterInput) (*types.User, error)
	Login(ctx context.Context, username, password string) (*auth.LoginResult, error)
}

// --- Handler ---

// AuthHandler maps HTTP requests to the auth service layer.
type AuthHandler struct {
	service   AuthService
	validator *core.Validator
	logger    *slog.Logger
}

// NewAuthHandler creates an AuthHandler with the provided dependencies.
func NewAuthHandler(service AuthService, v *core.Validator, l *slog.Logger) *AuthHandler {
	if l == nil {
		l = slog.Default()
	}
	return &AuthHandler{
		service:   service,
		validator: v,
		logger:    l,
	}
}

// RegisterRoutes mounts auth routes on the provided chi.Router. Both routes
// are public; the auth middleware skips them by path.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", h.Signup)
		r.Post("/login", h.Login)
	})
}

// --- Handler Methods ---

// Signup handles POST /v1/auth/signup. Duplicate usernames and emails yield
// 409 conflicts.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	user, err := h.service.Register(r.Context(), auth.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: SignupResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     string(user.Role),
	}})
}

// Login handles POST /v1/auth/login. Unknown usernames and wrong passwords
// are indistinguishable in the response.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	result, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: LoginResponse{
		Token:     result.Token,
		TokenType: result.TokenType,
		ID:        result.User.ID,
		Username:  result.User.Username,
		Email:     result.User.Email,
		Role:      string(result.User.Role),
	}})
}
