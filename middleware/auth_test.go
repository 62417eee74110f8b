package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v4"
	"github.com/matchlive/matchlive/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestAuthenticate(t *testing.T) {
	var gotUserID int
	var gotRole models.UserRole
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error
		gotUserID, err = GetUserIDFromContext(r.Context())
		require.NoError(t, err)
		gotRole, err = GetUserRoleFromContext(r.Context())
		require.NoError(t, err)
		w.WriteHeader(http.StatusOK)
	})
	handler := Authenticate(testSecret)(next)

	t.Run("valid bearer token", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.MapClaims{"user_id": float64(7), "role": "organizer"})
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 7, gotUserID)
		assert.Equal(t, models.RoleOrganizer, gotRole)
	})

	t.Run("token via query parameter", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.MapClaims{"user_id": float64(9), "role": "admin"})
		req := httptest.NewRequest(http.MethodGet, "/?token="+token, nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 9, gotUserID)
	})

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong signing key", func(t *testing.T) {
		token := signToken(t, "other-secret", jwt.MapClaims{"user_id": float64(7), "role": "organizer"})
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAuthenticateOptional(t *testing.T) {
	var gotUserID int
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = GetUserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := AuthenticateOptional(testSecret)(next)

	t.Run("token via query parameter", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.MapClaims{"user_id": float64(5), "role": "organizer"})
		req := httptest.NewRequest(http.MethodGet, "/?token="+token, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 5, gotUserID)
	})

	t.Run("anonymous passes through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("invalid token is still rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/?token=garbage", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAuthorize(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := Authenticate(testSecret)(Authorize("organizer", "admin")(next))

	t.Run("allowed role", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.MapClaims{"user_id": float64(7), "role": "organizer"})
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("viewer is forbidden", func(t *testing.T) {
		token := signToken(t, testSecret, jwt.MapClaims{"user_id": float64(7), "role": "viewer"})
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
