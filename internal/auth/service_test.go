package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUserStore struct {
	users  map[string]*User
	nextID int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[string]*User{}, nextID: 1}
}

func (f *fakeUserStore) Create(ctx context.Context, email, passwordHash, name string) (int, error) {
	if _, exists := f.users[email]; exists {
		return 0, ErrEmailTaken
	}
	u := &User{ID: f.nextID, Email: email, PasswordHash: passwordHash, Name: name}
	f.users[email] = u
	f.nextID++
	return u.ID, nil
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	u, exists := f.users[email]
	if !exists {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserStore) GetByID(ctx context.Context, userID int) (*User, error) {
	for _, u := range f.users {
		if u.ID == userID {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

func newTestAuthService(t *testing.T) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	tokens := NewTokenManager(TokenConfig{Secret: []byte("test-secret"), TTL: time.Hour})
	return NewService(newFakeUserStore(), tokens, NewDenyList(client), zerolog.Nop())
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("testpassword123")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	assert.NoError(t, VerifyPassword(hash, "testpassword123"))
	assert.Error(t, VerifyPassword(hash, "wrongpassword"))
}

func TestHashPasswordTooShort(t *testing.T) {
	_, err := HashPassword("short")
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	userID, token, err := svc.Register(ctx, "admin@example.com", "testpassword123", "Admin")
	require.NoError(t, err)
	assert.NotZero(t, userID)
	assert.NotEmpty(t, token)

	claims, err := svc.Validate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "Admin", claims.Name)

	loginID, loginToken, err := svc.Login(ctx, "admin@example.com", "testpassword123")
	require.NoError(t, err)
	assert.Equal(t, userID, loginID)
	assert.NotEmpty(t, loginToken)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "admin@example.com", "testpassword123", "Admin")
	require.NoError(t, err)

	_, _, err = svc.Register(ctx, "admin@example.com", "otherpassword", "Other")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginWrongCredentials(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "admin@example.com", "testpassword123", "Admin")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "admin@example.com", "wrongpassword")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody@example.com", "testpassword123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogoutRevokesToken(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	_, token, err := svc.Register(ctx, "admin@example.com", "testpassword123", "Admin")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, token))

	_, err = svc.Validate(ctx, token)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestLogoutRevokesOnlyThatToken(t *testing.T) {
	svc := newTestAuthService(t)
	ctx := context.Background()

	_, first, err := svc.Register(ctx, "admin@example.com", "testpassword123", "Admin")
	require.NoError(t, err)
	_, second, err := svc.Login(ctx, "admin@example.com", "testpassword123")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, first))

	_, err = svc.Validate(ctx, first)
	assert.ErrorIs(t, err, ErrTokenRevoked)
	_, err = svc.Validate(ctx, second)
	assert.NoError(t, err, "each token has its own jti")
}

func TestValidateGarbageToken(t *testing.T) {
	svc := newTestAuthService(t)

	_, err := svc.Validate(context.Background(), "not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenRejectedWithWrongSecret(t *testing.T) {
	tokens := NewTokenManager(TokenConfig{Secret: []byte("secret-a")})
	other := NewTokenManager(TokenConfig{Secret: []byte("secret-b")})

	token, err := tokens.Generate(7, "Admin")
	require.NoError(t, err)

	_, err = other.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
