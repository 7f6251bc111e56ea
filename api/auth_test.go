package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-engine/api"
	"github.com/warp/leave-engine/leave"
)

func TestToken_RoundTrip(t *testing.T) {
	actor := leave.Actor{PersonID: "emp-1", Role: leave.RoleDepartmentManager}

	token, err := api.GenerateToken("secret", actor, time.Hour)
	require.NoError(t, err)

	claims, err := api.ParseToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, "emp-1", claims.PersonID)
	assert.Equal(t, string(leave.RoleDepartmentManager), claims.Role)
}

func TestToken_WrongSecretRejected(t *testing.T) {
	token, err := api.GenerateToken("secret", leave.Actor{PersonID: "emp-1"}, time.Hour)
	require.NoError(t, err)

	_, err = api.ParseToken("other-secret", token)

	assert.Error(t, err)
}

func TestToken_ExpiredRejected(t *testing.T) {
	token, err := api.GenerateToken("secret", leave.Actor{PersonID: "emp-1"}, -time.Minute)
	require.NoError(t, err)

	_, err = api.ParseToken("secret", token)

	assert.Error(t, err)
}

func TestAuthMiddleware_BearerMode(t *testing.T) {
	fx := newAPIFixture(t)
	secured := api.NewRouter(fx.handler, api.RouterConfig{JWTSecret: "test-secret"})

	t.Run("no token is 401", func(t *testing.T) {
		rec := httptest.NewRecorder()
		secured.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/leave-types", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("identity headers are not trusted", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/leave-types", nil)
		req.Header.Set("X-Person-ID", "emp-1")
		rec := httptest.NewRecorder()
		secured.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid bearer token passes", func(t *testing.T) {
		token, err := api.GenerateToken("test-secret", leave.Actor{PersonID: "emp-1", Role: leave.RoleEmployee}, time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/leave-types", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		secured.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestToken_ForeignSigningMethodRejected(t *testing.T) {
	// An unsigned token must never pass, whatever its claims say.
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, api.Claims{PersonID: "admin-1", Role: "admin"})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = api.ParseToken("secret", raw)

	assert.Error(t, err)
}
