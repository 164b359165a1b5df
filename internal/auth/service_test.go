package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"airline/internal/types"
)

// --- Mock UserRepo ---

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, u *types.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*types.User, error) {
	args := m.Called(ctx, username)
	if u := args.Get(0); u != nil {
		return u.(*types.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

// --- Mock PasswordHasher ---

type mockPasswordHasher struct {
	mock.Mock
}

func (m *mockPasswordHasher) CompareHashAndPassword(hashedPassword, password string) error {
	args := m.Called(hashedPassword, password)
	return args.Error(0)
}

func (m *mockPasswordHasher) GenerateFromPassword(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

// --- Mock TokenIssuer ---

type mockTokenIssuer struct {
	mock.Mock
}

func (m *mockTokenIssuer) Issue(u *types.User) (string, error) {
	args := m.Called(u)
	return args.String(0), args.Error(1)
}

// --- Fixtures ---

func storedUser() *types.User {
	return &types.User{
		ID:           "u_test123",
		Username:     "captain",
		Email:        "captain@example.com",
		PasswordHash: "$2a$12$hashedpassword",
		Role:         types.RoleAdmin,
	}
}

func newTestService() (*Service, *mockUserRepo, *mockPasswordHasher, *mockTokenIssuer) {
	users := new(mockUserRepo)
	hasher := new(mockPasswordHasher)
	tokens := new(mockTokenIssuer)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(users, hasher, tokens, logger), users, hasher, tokens
}

func errCode(t *testing.T, err error) types.ErrorCode {
	t.Helper()
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	return appErr.Code
}

// ============================================================
// Register
// ============================================================

func TestRegister_Success(t *testing.T) {
	svc, users, hasher, _ := newTestService()

	users.On("ExistsByUsername", mock.Anything, "captain").Return(false, nil)
	users.On("ExistsByEmail", mock.Anything, "captain@example.com").Return(false, nil)
	hasher.On("GenerateFromPassword", "secret-password").Return("$2a$12$hash", nil)
	users.On("Create", mock.Anything, mock.MatchedBy(func(u *types.User) bool {
		return u.Username == "captain" && u.Role == types.RoleAdmin && u.PasswordHash == "$2a$12$hash"
	})).Return(nil)

	user, err := svc.Register(context.Background(), RegisterInput{
		Username: " captain ",
		Email:    "captain@example.com",
		Password: "secret-password",
		Role:     "ADMIN",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "captain", user.Username)
	assert.Equal(t, types.RoleAdmin, user.Role)
}

func TestRegister_InvalidRole(t *testing.T) {
	svc, users, _, _ := newTestService()

	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "captain",
		Email:    "captain@example.com",
		Password: "secret-password",
		Role:     "SUPERUSER",
	})
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeValidationInvalidRole, errCode(t, err))

	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegister_UsernameTaken(t *testing.T) {
	svc, users, _, _ := newTestService()

	users.On("ExistsByUsername", mock.Anything, "captain").Return(true, nil)

	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "captain",
		Email:    "captain@example.com",
		Password: "secret-password",
		Role:     "USER",
	})
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeConflictUsername, errCode(t, err))
	assert.Contains(t, err.Error(), "There is already a user with username: captain")

	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegister_EmailTaken(t *testing.T) {
	svc, users, _, _ := newTestService()

	users.On("ExistsByUsername", mock.Anything, "captain").Return(false, nil)
	users.On("ExistsByEmail", mock.Anything, "captain@example.com").Return(true, nil)

	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "captain",
		Email:    "captain@example.com",
		Password: "secret-password",
		Role:     "USER",
	})
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeConflictEmail, errCode(t, err))
	assert.Contains(t, err.Error(), "There is already a user with email: captain@example.com")
}

// ============================================================
// Login
// ============================================================

func TestLogin_Success(t *testing.T) {
	svc, users, hasher, tokens := newTestService()
	user := storedUser()

	users.On("GetByUsername", mock.Anything, "captain").Return(user, nil)
	hasher.On("CompareHashAndPassword", user.PasswordHash, "correct-password").Return(nil)
	tokens.On("Issue", user).Return("signed.jwt.token", nil)

	result, err := svc.Login(context.Background(), "captain", "correct-password")
	require.NoError(t, err)
	assert.Equal(t, "signed.jwt.token", result.Token)
	assert.Equal(t, "Bearer", result.TokenType)
	assert.Equal(t, user, result.User)
}

func TestLogin_UnknownUser(t *testing.T) {
	svc, users, hasher, _ := newTestService()

	users.On("GetByUsername", mock.Anything, "ghost").Return(nil,
		types.NewAppError(types.ErrCodeNotFoundUser, "user not found", nil))

	_, err := svc.Login(context.Background(), "ghost", "whatever")
	require.Error(t, err)
	// Unknown user is indistinguishable from a wrong password.
	assert.Equal(t, types.ErrCodeAuthInvalidCreds, errCode(t, err))

	hasher.AssertNotCalled(t, "CompareHashAndPassword", mock.Anything, mock.Anything)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, users, hasher, tokens := newTestService()
	user := storedUser()

	users.On("GetByUsername", mock.Anything, "captain").Return(user, nil)
	hasher.On("CompareHashAndPassword", user.PasswordHash, "wrong-password").
		Return(bcrypt.ErrMismatchedHashAndPassword)

	_, err := svc.Login(context.Background(), "captain", "wrong-password")
	require.Error(t, err)
	assert.Equal(t, types.ErrCodeAuthInvalidCreds, errCode(t, err))

	tokens.AssertNotCalled(t, "Issue", mock.Anything)
}
