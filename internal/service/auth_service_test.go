package service

import (
	"context"
	"testing"

	"socialpost/internal/auth"
	"socialpost/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func register(t *testing.T, h *harness, name, email, username string) *AuthResult {
	t.Helper()
	res, err := h.auth.Register(context.Background(), RegisterInput{
		Name: name, Email: email, Username: username, Password: "correct horse",
	})
	require.NoError(t, err)
	return res
}

func TestAuthService_Register(t *testing.T) {
	h := newHarness(t, "")
	res := register(t, h, "  Élodie ", "Elodie@Example.COM ", " Elodie_B ")

	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "Élodie", res.User.Name)
	assert.Equal(t, "elodie@example.com", res.User.Email)
	assert.Equal(t, "elodie_b", res.User.Username)
	assert.Equal(t, models.DefaultProfilePicBase+"%C3%89", res.User.ProfilePic)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(res.User.Password), []byte("correct horse")))
}

func TestAuthService_RegisterRejects(t *testing.T) {
	h := newHarness(t, "")
	register(t, h, "Alice", "alice@example.com", "alice")
	ctx := context.Background()

	tests := []struct {
		name string
		in   RegisterInput
		code string
	}{
		{"missing name", RegisterInput{Email: "x@example.com", Username: "xxx", Password: "password1"}, models.CodeValidation},
		{"missing username", RegisterInput{Name: "X", Email: "x@example.com", Password: "password1"}, models.CodeValidation},
		{"short username", RegisterInput{Name: "X", Email: "x@example.com", Username: "xy", Password: "password1"}, models.CodeValidation},
		{"bad email", RegisterInput{Name: "X", Email: "nope", Username: "xyz", Password: "password1"}, models.CodeValidation},
		{"short password", RegisterInput{Name: "X", Email: "x@example.com", Username: "xyz", Password: "pw"}, models.CodeValidation},
		{"email taken", RegisterInput{Name: "X", Email: "ALICE@example.com", Username: "xyz", Password: "password1"}, models.CodeConflict},
		{"username taken", RegisterInput{Name: "X", Email: "x@example.com", Username: "Alice", Password: "password1"}, models.CodeConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.auth.Register(ctx, tt.in)
			require.Error(t, err)
			assert.Equal(t, tt.code, models.ErrorCode(err))
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	h := newHarness(t, "")
	reg := register(t, h, "Alice", "alice@example.com", "alice")
	ctx := context.Background()

	res, err := h.auth.Login(ctx, " ALICE@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, res.User.ID)

	_, err = h.auth.Login(ctx, "alice@example.com", "wrong horse")
	assert.True(t, models.IsCode(err, models.CodeUnauth))
	_, err = h.auth.Login(ctx, "nobody@example.com", "correct horse")
	assert.True(t, models.IsCode(err, models.CodeUnauth))
	_, err = h.auth.Login(ctx, "", "x")
	assert.True(t, models.IsCode(err, models.CodeValidation))
}

func TestAuthService_LogoutRevokesToken(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	h := newHarness(t, "")
	issuer := auth.NewTokenIssuer("test-secret-that-is-long-enough-0123456789", 0)
	revocations := auth.NewRevocations(rdb)
	svc := NewAuthService(h.users, issuer, revocations).WithHashCost(bcrypt.MinCost)
	authn := auth.NewAuthenticator(issuer, revocations, nil)
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterInput{Name: "Alice", Email: "alice@example.com", Username: "alice", Password: "correct horse"})
	require.NoError(t, err)

	claims, err := authn.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, claims))

	_, err = authn.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, auth.ErrRevoked)
	assert.True(t, models.IsCode(svc.Logout(ctx, nil), models.CodeUnauth))
}
