package service

import (
	"context"
	"testing"
	"time"

	"recipebox/internal/cache"
	"recipebox/internal/config"
	"recipebox/internal/models"
	"recipebox/internal/repository"
	"recipebox/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-with-enough-length-0123456789"

func newAuth(repo *userRepoStub) *AuthService {
	return NewAuthService(&config.Config{JWTSecret: testSecret, JWTTTLHours: 1}, repo)
}

func TestAuthService_IssueAndParse(t *testing.T) {
	auth := newAuth(noopUserRepo())

	token, err := auth.IssueToken(42)
	require.NoError(t, err)

	ident, err := auth.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), ident.UserID)
	assert.NotEmpty(t, ident.TokenID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), ident.ExpiresAt, time.Minute)
}

func TestAuthService_RejectsForeignTokens(t *testing.T) {
	auth := newAuth(noopUserRepo())
	now := time.Now()

	sign := func(secret string, claims jwt.RegisteredClaims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return s
	}
	valid := jwt.RegisteredClaims{
		Subject:   "1",
		Issuer:    TokenIssuer,
		Audience:  jwt.ClaimStrings{TokenAudience},
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}

	wrongIssuer := valid
	wrongIssuer.Issuer = "someone-else"
	expired := valid
	expired.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Minute))
	noSubject := valid
	noSubject.Subject = ""

	for name, token := range map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": sign("another-secret", valid),
		"wrong issuer": sign(testSecret, wrongIssuer),
		"expired":      sign(testSecret, expired),
		"no subject":   sign(testSecret, noSubject),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := auth.ParseToken(token)
			requireCode(t, err, models.CodeUnauthenticated)
		})
	}
}

func TestAuthService_AuthenticateAndRevoke(t *testing.T) {
	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(nil) })

	repo := noopUserRepo()
	repo.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
		if id == 2 {
			return &models.User{ID: 2, IsActive: false}, nil
		}
		if id == 3 {
			return nil, models.NewNotFoundError("User", id)
		}
		return &models.User{ID: id, IsActive: true}, nil
	}
	auth := newAuth(repo)
	ctx := context.Background()

	token, err := auth.IssueToken(1)
	require.NoError(t, err)
	user, ident, err := auth.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, uint(1), user.ID)

	require.NoError(t, auth.Revoke(ctx, ident))
	assert.True(t, mr.Exists(cache.RevokedTokenKey(ident.TokenID)))
	_, _, err = auth.Authenticate(ctx, token)
	requireCode(t, err, models.CodeUnauthenticated)

	for _, id := range []uint{2, 3} {
		token, err := auth.IssueToken(id)
		require.NoError(t, err)
		_, _, err = auth.Authenticate(ctx, token)
		requireCode(t, err, models.CodeUnauthenticated)
	}
}

func TestAuthService_DeactivationDropsCachedUser(t *testing.T) {
	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(nil) })

	db := testutil.NewTestDB(t)
	repo := repository.NewUserRepository(db)
	auth := NewAuthService(&config.Config{JWTSecret: testSecret, JWTTTLHours: 1}, repo)
	users := NewUserService(repo)
	ctx := context.Background()

	user := testutil.CreateUser(t, db, "cook@example.com")
	token, err := auth.IssueToken(user.ID)
	require.NoError(t, err)

	_, _, err = auth.Authenticate(ctx, token)
	require.NoError(t, err)
	require.True(t, mr.Exists(cache.UserKey(user.ID)), "user record should be cached after authenticating")

	updated, err := users.SetActive(ctx, "cook@EXAMPLE.com", false)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	_, _, err = auth.Authenticate(ctx, token)
	requireCode(t, err, models.CodeUnauthenticated)

	_, err = users.SetActive(ctx, "cook@example.com", true)
	require.NoError(t, err)
	_, _, err = auth.Authenticate(ctx, token)
	assert.NoError(t, err)

	_, err = users.SetActive(ctx, "nobody@example.com", false)
	requireCode(t, err, models.CodeNotFound)
}
