// Package auth implements account registration, credential verification, and
// JWT access token issuing for the airline API.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"airline/internal/types"
)

// bcryptCost is the bcrypt cost factor used for password hashing.
const bcryptCost = 12

// UserRepo defines the data access methods needed by the auth service.
type UserRepo interface {
	Create(ctx context.Context, u *types.User) error
	GetByUsername(ctx context.Context, username string) (*types.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// TokenIssuer abstracts access token creation for testability.
type TokenIssuer interface {
	Issue(u *types.User) (string, error)
}

// PasswordHasher abstracts bcrypt operations for testability.
type PasswordHasher interface {
	CompareHashAndPassword(hashedPassword, password string) error
	GenerateFromPassword(password string) (string, error)
}

// bcryptHasher is the production implementation of PasswordHasher.
type bcryptHasher struct{}

func (b *bcryptHasher) CompareHashAndPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func (b *bcryptHasher) GenerateFromPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// NewBcryptHasher returns the production bcrypt-backed PasswordHasher.
func NewBcryptHasher() PasswordHasher {
	return &bcryptHasher{}
}

// RegisterInput carries a signup request. Format validation (email shape,
// password length) happens at the transport layer.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     string
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Token     string      `json:"token"`
	TokenType string      `json:"token_type"`
	User      *types.User `json:"user"`
}

// Service implements registration and login.
type Service struct {
	users  UserRepo
	hasher PasswordHasher
	tokens TokenIssuer
	logger *slog.Logger
}

// NewService creates an auth Service.
func NewService(users UserRepo, hasher PasswordHasher, tokens TokenIssuer, logger *slog.Logger) *Service {
	return &Service{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		logger: logger,
	}
}

// Register creates a new account. Username and email must be unused
// (conflict otherwise, with the legacy message format) and the role must be
// a known value. The password is stored as a bcrypt hash only.
//
// The pre-insert uniqueness checks give precise conflict messages; the
// database unique constraints remain the authority under concurrent signups
// and surface the same typed conflicts.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*types.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)

	role, err := types.ParseRole(in.Role)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeValidationInvalidRole,
			fmt.Sprintf("Invalid role: %s", in.Role), err)
	}

	taken, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, types.NewAppError(types.ErrCodeConflictUsername,
			fmt.Sprintf("There is already a user with username: %s", username), nil)
	}

	taken, err = s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, types.NewAppError(types.ErrCodeConflictEmail,
			fmt.Sprintf("There is already a user with email: %s", email), nil)
	}

	hash, err := s.hasher.GenerateFromPassword(in.Password)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to hash password", err)
	}

	user := &types.User{
		ID:           "u_" + uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
		slog.String("role", string(user.Role)),
	)

	return user, nil
}

// Login verifies credentials and issues an access token. Unknown usernames
// and wrong passwords both return the same generic auth_invalid_credentials
// error so the endpoint cannot be used to enumerate accounts.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		var appErr *types.AppError
		if errors.As(err, &appErr) && appErr.Code == types.ErrCodeNotFoundUser {
			return nil, invalidCredentials()
		}
		return nil, err
	}

	if err := s.hasher.CompareHashAndPassword(user.PasswordHash, password); err != nil {
		s.logger.Warn("login failed: password mismatch", slog.String("username", user.Username))
		return nil, invalidCredentials()
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))

	return &LoginResult{
		Token:     token,
		TokenType: "Bearer",
		User:      user,
	}, nil
}

func invalidCredentials() *types.AppError {
	return types.NewAppError(types.ErrCodeAuthInvalidCreds, "Invalid username or password", nil)
}
