package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/isdelr/voting-be/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateJWT(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)

	token, err := m.GenerateJWT("user-1")
	require.NoError(t, err)

	claims, err := m.ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)

	other := NewTokenManager("other-secret", time.Hour)
	_, err = other.ValidateJWT(token)
	assert.Error(t, err)
}

func TestValidateJWTExpired(t *testing.T) {
	m := NewTokenManager("test-secret", -time.Minute)
	token, err := m.GenerateJWT("user-1")
	require.NoError(t, err)

	_, err = m.ValidateJWT(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestValidateJWTRejectsOtherAlgorithms(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)
	token := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "user-1"})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = m.ValidateJWT(signed)
	assert.Error(t, err)
}

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body["message"]
}

func TestMiddleware(t *testing.T) {
	m := NewTokenManager("test-secret", time.Hour)
	var seen string
	h := m.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		require.True(t, ok)
		seen = claims.UserID
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("missing token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Token not found", decodeMessage(t, rec))
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Invalid token", decodeMessage(t, rec))
	})

	t.Run("valid token", func(t *testing.T) {
		token, err := m.GenerateJWT("user-7")
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "user-7", seen)
	})
}

type staticRoles map[string]models.Role

func (s staticRoles) HasRole(_ context.Context, userID string, role models.Role) bool {
	r, ok := s[userID]
	return ok && r == role
}

func TestRequireRole(t *testing.T) {
	checker := staticRoles{"admin-1": models.RoleAdmin, "voter-1": models.RoleVoter}
	h := RequireRole(checker, models.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	serve := func(ctx context.Context) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil).WithContext(ctx))
		return rec
	}
	withUser := func(id string) context.Context {
		return context.WithValue(context.Background(), UserClaimsKey, &Claims{UserID: id})
	}

	assert.Equal(t, http.StatusNoContent, serve(withUser("admin-1")).Code)

	rec := serve(withUser("voter-1"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "User does not have admin role", decodeMessage(t, rec))

	assert.Equal(t, http.StatusForbidden, serve(withUser("ghost")).Code)
	assert.Equal(t, http.StatusForbidden, serve(context.Background()).Code)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)
	assert.True(t, CheckPassword(hash, "hunter22"))
	assert.False(t, CheckPassword(hash, "hunter23"))
}
