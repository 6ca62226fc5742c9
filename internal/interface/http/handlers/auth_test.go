package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testAuth(t *testing.T, pin string, ttl time.Duration) *AdminPINAuth {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.MinCost)
	require.NoError(t, err)
	auth := NewAdminPINAuth(string(hash), ttl)
	require.NotNil(t, auth)
	return auth
}

func TestNewAdminPINAuth_EmptyHashDisables(t *testing.T) {
	assert.Nil(t, NewAdminPINAuth("", time.Hour))
}

func TestNewAdminPINAuth_DefaultTTL(t *testing.T) {
	auth := testAuth(t, "1234", 0)
	assert.Equal(t, 12*time.Hour, auth.SessionTTL())
}

func TestAdminPINAuth_Verify(t *testing.T) {
	auth := testAuth(t, "1234", time.Hour)

	assert.True(t, auth.Verify("1234"))
	assert.False(t, auth.Verify("0000"))
	assert.False(t, auth.Verify(""))

	// A verified PIN is memoized.
	auth.mu.Lock()
	_, memoized := auth.verified["1234"]
	auth.mu.Unlock()
	assert.True(t, memoized)

	// Second check hits the memo and still passes.
	assert.True(t, auth.Verify("1234"))
}

func TestAdminPINAuth_Verify_ExpiredMemo(t *testing.T) {
	auth := testAuth(t, "1234", time.Hour)
	require.True(t, auth.Verify("1234"))

	// Force the memo entry into the past; the next check re-verifies
	// against the hash and succeeds again.
	auth.mu.Lock()
	auth.verified["1234"] = time.Now().Add(-time.Minute)
	auth.mu.Unlock()

	assert.True(t, auth.Verify("1234"))
}

func TestAdminPINAuth_Authorize(t *testing.T) {
	auth := testAuth(t, "1234", time.Hour)

	r := httptest.NewRequest(http.MethodPost, "/api/v1/admin/backfill", nil)
	assert.False(t, auth.Authorize(r))

	r.Header.Set(PINHeader, "1234")
	assert.True(t, auth.Authorize(r))

	r.Header.Set(PINHeader, "9999")
	assert.False(t, auth.Authorize(r))
}

func TestAdminPINAuth_Middleware(t *testing.T) {
	auth := testAuth(t, "1234", time.Hour)

	called := false
	h := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusNoContent)
	}))

	// Missing PIN: 401, handler never runs.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)

	// Valid PIN passes through.
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	r.Header.Set(PINHeader, "1234")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.True(t, called)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
