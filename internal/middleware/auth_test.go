package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParseToken(t *testing.T) {
	a := NewAuthenticator("secret", time.Hour, zerolog.Nop())

	token, err := a.IssueToken(UserClaims{UserID: "u1", Username: "official", Role: "operator"}, time.Now())
	require.NoError(t, err)

	claims, err := a.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, UserClaims{UserID: "u1", Username: "official", Role: "operator"}, claims)
}

func TestParseTokenRejects(t *testing.T) {
	a := NewAuthenticator("secret", time.Hour, zerolog.Nop())

	other := NewAuthenticator("other", time.Hour, zerolog.Nop())
	foreign, err := other.IssueToken(UserClaims{UserID: "u1", Role: "operator"}, time.Now())
	require.NoError(t, err)
	_, err = a.ParseToken(foreign)
	assert.Error(t, err)

	expired, err := a.IssueToken(UserClaims{UserID: "u1", Role: "operator"}, time.Now().Add(-2*time.Hour))
	require.NoError(t, err)
	_, err = a.ParseToken(expired)
	assert.Error(t, err)

	noClaims, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = a.ParseToken(noClaims)
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	a := NewAuthenticator("secret", time.Hour, zerolog.Nop())
	var seen UserClaims
	h := a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetUserFromContext(r)
		w.WriteHeader(http.StatusNoContent)
	}))

	token, err := a.IssueToken(UserClaims{UserID: "u1", Username: "official", Role: "operator"}, time.Now())
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/register_bin", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
	assert.Equal(t, "official", seen.Username)
}

func TestRequireRole(t *testing.T) {
	h := RequireRole("operator")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
