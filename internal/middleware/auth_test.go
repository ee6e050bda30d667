package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivansh47201/vartalap/pkg/jwt"
)

type fakeValidator struct {
	claims *jwt.Claims
	err    error
}

func (f *fakeValidator) ValidateToken(ctx context.Context, tokenString string) (*jwt.Claims, error) {
	return f.claims, f.err
}

func setupRouter(v TokenValidator) (*gin.Engine, *uuid.UUID) {
	gin.SetMode(gin.TestMode)
	var seen uuid.UUID
	r := gin.New()
	r.GET("/protected", Auth(v), func(c *gin.Context) {
		seen = c.MustGet("user_id").(uuid.UUID)
		c.Status(http.StatusOK)
	})
	return r, &seen
}

func TestAuthMissingHeader(t *testing.T) {
	r, _ := setupRouter(&fakeValidator{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMalformedHeader(t *testing.T) {
	r, _ := setupRouter(&fakeValidator{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Token abc")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthInvalidToken(t *testing.T) {
	r, _ := setupRouter(&fakeValidator{err: errors.New("expired")})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthValidTokenSetsIdentity(t *testing.T) {
	userID := uuid.New()
	r, seen := setupRouter(&fakeValidator{
		claims: &jwt.Claims{UserID: userID, Username: "shivansh"},
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID, *seen)
}
