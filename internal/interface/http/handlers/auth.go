package handlers

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN PIN AUTHENTICATION
// ══════════════════════════════════════════════════════════════════════════════

// PINHeader is the request header carrying the admin PIN.
const PINHeader = "X-Admin-PIN"

// AdminPINAuth authorizes admin requests against a bcrypt-hashed PIN.
//
// There is a single shared PIN for the whole deployment. Successful
// comparisons are memoized for the session TTL so the bcrypt cost is
// paid once per session, not on every admin request.
type AdminPINAuth struct {
	pinHash    []byte
	sessionTTL time.Duration

	mu       sync.Mutex
	verified map[string]time.Time // PIN -> expiry of the memoized check
}

// NewAdminPINAuth creates an authenticator from a bcrypt hash of the
// admin PIN. Returns nil when no hash is configured, which keeps the
// admin API closed.
func NewAdminPINAuth(pinHash string, sessionTTL time.Duration) *AdminPINAuth {
	if pinHash == "" {
		return nil
	}
	if sessionTTL <= 0 {
		sessionTTL = 12 * time.Hour
	}
	return &AdminPINAuth{
		pinHash:    []byte(pinHash),
		sessionTTL: sessionTTL,
		verified:   make(map[string]time.Time),
	}
}

// SessionTTL returns how long a verified PIN stays memoized.
func (a *AdminPINAuth) SessionTTL() time.Duration {
	return a.sessionTTL
}

// Authorize checks the PIN header of an admin request.
func (a *AdminPINAuth) Authorize(r *http.Request) bool {
	return a.Verify(r.Header.Get(PINHeader))
}

// Verify compares a PIN against the configured hash.
func (a *AdminPINAuth) Verify(pin string) bool {
	if pin == "" {
		return false
	}

	now := time.Now()

	a.mu.Lock()
	expiry, ok := a.verified[pin]
	if ok && now.Before(expiry) {
		a.mu.Unlock()
		return true
	}
	if ok {
		delete(a.verified, pin)
	}
	a.mu.Unlock()

	if err := bcrypt.CompareHashAndPassword(a.pinHash, []byte(pin)); err != nil {
		return false
	}

	a.mu.Lock()
	a.verified[pin] = now.Add(a.sessionTTL)
	a.mu.Unlock()
	return true
}

// Middleware wraps a handler with the PIN check.
func (a *AdminPINAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Authorize(r) {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"success":false,"error":{"code":"unauthorized","message":"Valid admin PIN required"}}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
