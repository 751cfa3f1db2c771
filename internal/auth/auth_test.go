package auth_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/AyeshaQadir7/taskie-todo-app/internal/auth"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := auth.HashPassword("correct-horse")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=3,p=4$"))

	ok, err := auth.VerifyPassword("correct-horse", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = auth.VerifyPassword("wrong-password", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPasswordSaltsDiffer(t *testing.T) {
	first, err := auth.HashPassword("same-password")
	require.NoError(t, err)
	second, err := auth.HashPassword("same-password")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	for _, encoded := range []string{
		"",
		"not-a-hash",
		"$bcrypt$v=19$m=65536,t=3,p=4$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=65536,t=3,p=4$c2FsdA$aGFzaA",
	} {
		_, err := auth.VerifyPassword("password", encoded)
		assert.ErrorIs(t, err, auth.ErrInvalidHash, "hash %q", encoded)
	}
}

func TestIssueAndVerifyToken(t *testing.T) {
	tokens := auth.NewTokens(testSecret, time.Hour)

	signed, err := tokens.Issue("user-1", "alice@example.com")
	require.NoError(t, err)

	claims, err := tokens.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, auth.Issuer, claims.Issuer)
}

func TestVerifyExpiredToken(t *testing.T) {
	tokens := auth.NewTokens(testSecret, -time.Minute)

	signed, err := tokens.Issue("user-1", "alice@example.com")
	require.NoError(t, err)

	_, err = tokens.Verify(signed)
	assert.ErrorIs(t, err, auth.ErrTokenExpired)
}

func TestVerifyWrongSecret(t *testing.T) {
	signed, err := auth.NewTokens(testSecret, time.Hour).
		Issue("user-1", "alice@example.com")
	require.NoError(t, err)

	other := auth.NewTokens("another-secret-another-secret!!!", time.Hour)
	_, err = other.Verify(signed)
	assert.ErrorIs(t, err, auth.ErrTokenInvalid)
}

func TestVerifyGarbage(t *testing.T) {
	tokens := auth.NewTokens(testSecret, time.Hour)
	_, err := tokens.Verify("not.a.jwt")
	assert.ErrorIs(t, err, auth.ErrTokenInvalid)
}

func TestParseBearer(t *testing.T) {
	assert.Equal(t, "abc", auth.ParseBearer("Bearer abc"))
	assert.Equal(t, "abc", auth.ParseBearer("bearer abc"))
	assert.Equal(t, "", auth.ParseBearer(""))
	assert.Equal(t, "", auth.ParseBearer("Basic abc"))
	assert.Equal(t, "", auth.ParseBearer("Bearer"))
	assert.Equal(t, "", auth.ParseBearer("Bearer a b"))
}

// router wires the middleware pair the API uses for ownership-checked
// routes.
func testRouter(tokens *auth.Tokens) http.Handler {
	r := chi.NewRouter()
	r.Route("/api/{userID}", func(r chi.Router) {
		r.Use(auth.Authenticator(tokens, zap.NewNop()))
		r.Use(auth.RequireOwner(zap.NewNop()))
		r.Get("/ping", func(w http.ResponseWriter, req *http.Request) {
			user, _ := auth.FromContext(req.Context())
			w.Write([]byte(user.ID))
		})
	})
	return r
}

func TestAuthenticatorRejections(t *testing.T) {
	tokens := auth.NewTokens(testSecret, time.Hour)
	router := testRouter(tokens)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"malformed token", "Bearer garbage"},
		{"wrong scheme", "Basic abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/user-1/ping", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
		})
	}
}

func TestAuthenticatorExpired(t *testing.T) {
	expired := auth.NewTokens(testSecret, -time.Minute)
	signed, err := expired.Issue("user-1", "alice@example.com")
	require.NoError(t, err)

	router := testRouter(auth.NewTokens(testSecret, time.Hour))
	req := httptest.NewRequest(http.MethodGet, "/api/user-1/ping", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "token expired")
}

func TestRequireOwner(t *testing.T) {
	tokens := auth.NewTokens(testSecret, time.Hour)
	signed, err := tokens.Issue("user-1", "alice@example.com")
	require.NoError(t, err)
	router := testRouter(tokens)

	// Own resources pass.
	req := httptest.NewRequest(http.MethodGet, "/api/user-1/ping", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", rec.Body.String())

	// Another user's path is forbidden, however valid the token is.
	req = httptest.NewRequest(http.MethodGet, "/api/user-2/ping", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
