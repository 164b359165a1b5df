package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airline/internal/auth"
	"airline/internal/core"
	"airline/internal/types"
)

// =============================================================================
// Mock AuthService
// =============================================================================

type mockAuthService struct {
	registerFn func(ctx context.Context, in auth.RegisterInput) (*types.User, error)
	loginFn    func(ctx context.Context, username, password string) (*auth.LoginResult, error)

	lastRegisterInput *auth.RegisterInput
}

func (m *mockAuthService) Register(ctx context.Context, in auth.RegisterInput) (*types.User, error) {
	m.lastRegisterInput = &in
	if m.registerFn != nil {
		return m.registerFn(ctx, in)
	}
	return &types.User{
		ID:       "u_new",
		Username: in.Username,
		Email:    in.Email,
		Role:     types.UserRole(in.Role),
	}, nil
}

func (m *mockAuthService) Login(ctx context.Context, username, password string) (*auth.LoginResult, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, username, password)
	}
	return &auth.LoginResult{
		Token:     "signed.jwt.token",
		TokenType: "Bearer",
		User: &types.User{
			ID:       "u_test",
			Username: username,
			Email:    username + "@example.com",
			Role:     types.RoleUser,
		},
	}, nil
}

func newTestAuthRouter(t *testing.T, svc *mockAuthService) chi.Router {
	t.Helper()

	v, err := core.NewValidator()
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewAuthHandler(svc, v, logger)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r
}

// =============================================================================
// Signup
// =============================================================================

func TestAuthHandler_Signup_Success(t *testing.T) {
	svc := &mockAuthService{}
	router := newTestAuthRouter(t, svc)

	rr := doJSON(t, router, http.MethodPost, "/auth/signup", map[string]any{
		"username": "captain",
		"email":    "captain@example.com",
		"password": "secret-password",
		"role":     "ADMIN",
	})

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Data SignupResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "u_new", resp.Data.ID)
	assert.Equal(t, "captain", resp.Data.Username)
	assert.Equal(t, "ADMIN", resp.Data.Role)

	// The password hash must never appear in the response.
	assert.NotContains(t, rr.Body.String(), "password")
}

func TestAuthHandler_Signup_InvalidRole(t *testing.T) {
	svc := &mockAuthService{}
	router := newTestAuthRouter(t, svc)

	rr := doJSON(t, router, http.MethodPost, "/auth/signup", map[string]any{
		"username": "captain",
		"email":    "captain@example.com",
		"password": "secret-password",
		"role":     "SUPERUSER",
	})

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Nil(t, svc.lastRegisterInput)
}

func TestAuthHandler_Signup_InvalidEmail(t *testing.T) {
	svc := &mockAuthService{}
	router := newTestAuthRouter(t, svc)

	rr := doJSON(t, router, http.MethodPost, "/auth/signup", map[string]any{
		"username": "captain",
		"email":    "not-an-email",
		"password": "secret-password",
		"role":     "USER",
	})

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, string(types.ErrCodeValidationInvalidField), decodeErrorCode(t, rr))
}

func TestAuthHandler_Signup_UsernameConflict(t *testing.T) {
	svc := &mockAuthService{
		registerFn: func(ctx context.Context, in auth.RegisterInput) (*types.User, error) {
			return nil, types.NewAppError(types.ErrCodeConflictUsername,
				"There is already a user with username: "+in.Username, nil)
		},
	}
	router := newTestAuthRouter(t, svc)

	rr := doJSON(t, router, http.MethodPost, "/auth/signup", map[string]any{
		"username": "captain",
		"email":    "captain@example.com",
		"password": "secret-password",
		"role":     "USER",
	})

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, string(types.ErrCodeConflictUsername), decodeErrorCode(t, rr))
}

// =============================================================================
// Login
// =============================================================================

func TestAuthHandler_Login_Success(t *testing.T) {
	svc := &mockAuthService{}
	router := newTestAuthRouter(t, svc)

	rr := doJSON(t, router, http.MethodPost, "/auth/login", map[string]any{
		"username": "captain",
		"password": "secret-password",
	})

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Data LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "signed.jwt.token", resp.Data.Token)
	assert.Equal(t, "Bearer", resp.Data.TokenType)
	assert.Equal(t, "captain", resp.Data.Username)
}

func TestAuthHandler_Login_BadCredentials(t *testing.T) {
	svc := &mockAuthService{
		loginFn: func(ctx context.Context, username, password string) (*auth.LoginResult, error) {
			return nil, types.NewAppError(types.ErrCodeAuthInvalidCreds, "Invalid username or password", nil)
		},
	}
	router := newTestAuthRouter(t, svc)

	rr := doJSON(t, router, http.MethodPost, "/auth/login", map[string]any{
		"username": "captain",
		"password": "wrong",
	})

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, string(types.ErrCodeAuthInvalidCreds), decodeErrorCode(t, rr))
}

func TestAuthHandler_Login_MissingPassword(t *testing.T) {
	svc := &mockAuthService{}
	router := newTestAuthRouter(t, svc)

	rr := doJSON(t, router, http.MethodPost, "/auth/login", map[string]any{
		"username": "captain",
	})

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, string(types.ErrCodeValidationMissingField), decodeErrorCode(t, rr))
}
