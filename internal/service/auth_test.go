package service_test

import (
	"database/sql"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"equipviz/internal/models"
	"equipviz/internal/service"
)

type fakeAuthRepo struct {
	users  map[string]*models.User
	nextID int64
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{users: map[string]*models.User{}}
}

func (f *fakeAuthRepo) CreateUser(user *models.User) error {
	f.nextID++
	user.ID = f.nextID
	user.CreatedAt = time.Now()
	f.users[user.Username] = user
	return nil
}

func (f *fakeAuthRepo) GetUserByUsername(username string) (*models.User, error) {
	user, ok := f.users[username]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (f *fakeAuthRepo) UsernameTaken(username string) (bool, error) {
	_, ok := f.users[username]
	return ok, nil
}

func TestRegisterAndLogin(t *testing.T) {
	svc := service.NewAuthService(newFakeAuthRepo(), zap.NewNop())

	user, err := svc.Register("alice", "alice@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotContains(t, user.PasswordHash, "s3cret")

	token, expires, err := svc.Login("alice", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, expires.After(time.Now()))

	claims := &models.Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return service.GetJWTSecret(), nil
	})
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
	assert.Equal(t, "alice", claims.Username)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc := service.NewAuthService(newFakeAuthRepo(), zap.NewNop())

	_, err := svc.Register("alice", "", "pw")
	require.NoError(t, err)

	_, err = svc.Register("alice", "", "other")
	assert.ErrorIs(t, err, service.ErrUserAlreadyExists)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := service.NewAuthService(newFakeAuthRepo(), zap.NewNop())

	_, err := svc.Register("alice", "", "correct")
	require.NoError(t, err)

	_, _, err = svc.Login("alice", "wrong")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestLoginUnknownUser(t *testing.T) {
	svc := service.NewAuthService(newFakeAuthRepo(), zap.NewNop())

	_, _, err := svc.Login("nobody", "pw")
	assert.ErrorIs(t, err, service.ErrUserNotFound)
}
