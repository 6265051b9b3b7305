package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-0123456789"

func TestIssueAndVerify(t *testing.T) {
	token, err := NewIssuer(testSecret, "fintrack").Issue("user-1", "Ada", time.Hour)
	require.NoError(t, err)

	p, err := NewVerifier(testSecret, "fintrack").Verify(token)
	require.NoError(t, err)
	assert.Equal(t, Principal{ID: "user-1", Name: "Ada"}, p)
}

func TestVerifyRejects(t *testing.T) {
	valid, err := NewIssuer(testSecret, "fintrack").Issue("user-1", "", time.Hour)
	require.NoError(t, err)

	expiredIssuer := NewIssuer(testSecret, "fintrack")
	expiredIssuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := expiredIssuer.Issue("user-1", "", time.Hour)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name     string
		verifier *Verifier
		token    string
	}{
		{"wrong secret", NewVerifier("another-secret-0123456", "fintrack"), valid},
		{"wrong issuer", NewVerifier(testSecret, "someone-else"), valid},
		{"expired", NewVerifier(testSecret, ""), expired},
		{"no expiry", NewVerifier(testSecret, ""), noExpiry},
		{"no subject", NewVerifier(testSecret, ""), noSubject},
		{"alg none", NewVerifier(testSecret, ""), unsigned},
		{"garbage", NewVerifier(testSecret, ""), "not.a.token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.verifier.Verify(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestMiddleware(t *testing.T) {
	token, err := NewIssuer(testSecret, "").Issue("user-1", "", time.Hour)
	require.NoError(t, err)

	var gotErr error
	handler := Middleware(NewVerifier(testSecret, ""), func(w http.ResponseWriter, r *http.Request, err error) {
		gotErr = err
		w.WriteHeader(http.StatusUnauthorized)
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFrom(r.Context())
		require.True(t, ok)
		_, _ = w.Write([]byte(p.ID))
	}))

	tests := []struct {
		name    string
		header  string
		want    int
		wantErr error
	}{
		{"valid bearer", "Bearer " + token, http.StatusOK, nil},
		{"lowercase scheme", "bearer " + token, http.StatusOK, nil},
		{"missing header", "", http.StatusUnauthorized, ErrMissingToken},
		{"basic scheme", "Basic abc", http.StatusUnauthorized, ErrMissingToken},
		{"bad token", "Bearer abc", http.StatusUnauthorized, ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotErr = nil
			r := httptest.NewRequest(http.MethodGet, "/expenses", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, r)

			assert.Equal(t, tt.want, rec.Code)
			if tt.wantErr == nil {
				assert.Equal(t, "user-1", rec.Body.String())
				return
			}
			assert.True(t, errors.Is(gotErr, tt.wantErr), "got %v", gotErr)
		})
	}
}

func TestPrincipalFromEmptyContext(t *testing.T) {
	_, ok := PrincipalFrom(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	assert.False(t, ok)
}
