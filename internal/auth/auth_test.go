package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/testutil"
	apperrors "github.com/spec-kit/complaint-service/pkg/util/errorutil"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	user := &domain.User{ID: 42, Username: "tech", Role: domain.RoleDepartment, Department: "technology"}

	token, exp, err := tm.GenerateToken(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), exp, 5*time.Second)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, domain.RoleDepartment, claims.Role)
	assert.Equal(t, "technology", claims.Department)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenManager_RejectsForeignSecret(t *testing.T) {
	token, _, err := NewTokenManager("a", 5).GenerateToken(&domain.User{ID: 1, Role: domain.RoleStudent})
	require.NoError(t, err)
	_, err = NewTokenManager("b", 5).ParseToken(token)
	require.Error(t, err)
}

func TestPassword_ExactMatch(t *testing.T) {
	hash, err := HashPassword("student123", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NoError(t, ComparePassword(hash, "student123"))
	assert.Error(t, ComparePassword(hash, "student123 "))
}

func TestRedisRevocationStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisRevocationStore(client)
	ctx := context.Background()

	revoked, err := store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, "jti-1", time.Now().Add(time.Minute)))
	revoked, err = store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(2 * time.Minute)
	revoked, err = store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, "jti-2", time.Now().Add(-time.Minute)))
	assert.False(t, mr.Exists("auth:revoked:jti-2"))
}

func newProtectedApp(t *testing.T, revoked RevocationStore, roles ...domain.Role) (*fiber.App, *TokenManager, *testutil.UserStore) {
	t.Helper()
	users := testutil.NewUserStore()
	tm := NewTokenManager("secret", 5)
	mw := NewAuthMiddleware(tm, users, revoked, zap.NewNop())

	app := fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error {
		de := apperrors.ToDomainError(err)
		return c.Status(de.HTTPStatus).SendString(de.Code)
	}})
	app.Get("/me", mw.Handle, RequireRole(roles...), func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		require.True(t, ok)
		return c.SendString(string(principal.Actor().Role))
	})
	return app, tm, users
}

func TestAuthMiddleware(t *testing.T) {
	app, tm, users := newProtectedApp(t, nil, domain.RoleAdmin)
	ctx := context.Background()

	admin := &domain.User{Username: "admin", Email: "admin@example.com", Role: domain.RoleAdmin}
	student := &domain.User{Username: "student", Email: "student@example.com", Role: domain.RoleStudent}
	require.NoError(t, users.Create(ctx, admin))
	require.NoError(t, users.Create(ctx, student))
	adminToken, _, _ := tm.GenerateToken(admin)
	studentToken, _, _ := tm.GenerateToken(student)
	ghostToken, _, _ := tm.GenerateToken(&domain.User{ID: 999, Role: domain.RoleAdmin})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"garbage token", "Bearer nope", http.StatusUnauthorized},
		{"unknown user", "Bearer " + ghostToken, http.StatusUnauthorized},
		{"wrong role", "Bearer " + studentToken, http.StatusForbidden},
		{"admin", "Bearer " + adminToken, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestAuthMiddleware_RevokedToken(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewRedisRevocationStore(redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1}))
	app, tm, users := newProtectedApp(t, store)

	user := &domain.User{Username: "student", Email: "s@example.com", Role: domain.RoleStudent}
	require.NoError(t, users.Create(context.Background(), user))
	token, exp, err := tm.GenerateToken(user)
	require.NoError(t, err)
	claims, err := tm.ParseToken(token)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, store.Revoke(context.Background(), claims.ID, exp))
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// An unreachable Redis does not block authentication.
	mr.Close()
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
