package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/campusrec/sportsarena/internal/api/authz"
)

const (
	sessionCookieName      = "arena_session"
	sessionTokenBytes      = 32
	defaultSessionTTL      = 8 * time.Hour
	sessionCleanupInterval = 15 * time.Minute
)

type sessionRecord struct {
	Principal authz.Principal
	ExpiresAt time.Time
}

var (
	sessionMu sync.RWMutex
	// Sessions are intentionally ephemeral: a restart logs everyone out.
	sessionStore       = make(map[string]sessionRecord)
	sessionCleanupOnce sync.Once

	sessionTTL    = defaultSessionTTL
	secureCookies = true
)

// ConfigureSessions sets the session TTL and whether cookies require TLS.
// Call once during startup before serving requests.
func ConfigureSessions(ttl time.Duration, environment string) {
	if ttl > 0 {
		sessionTTL = ttl
	}
	secureCookies = environment != "development"
}

// CreateSession stores a principal under a fresh random token and sets the
// session cookie.
func CreateSession(w http.ResponseWriter, principal authz.Principal) error {
	if w == nil {
		return errors.New("session requires response writer")
	}

	startSessionCleanup()

	token, err := newSessionToken()
	if err != nil {
		return err
	}

	expiresAt := time.Now().Add(sessionTTL)
	sessionMu.Lock()
	sessionStore[token] = sessionRecord{
		Principal: principal,
		ExpiresAt: expiresAt,
	}
	sessionMu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secureCookies,
		SameSite: http.SameSiteLaxMode,
		Expires:  expiresAt,
		MaxAge:   int(sessionTTL.Seconds()),
	})

	return nil
}

// PrincipalFromRequest resolves the session cookie into a principal.
// It returns nil without error when the request carries no usable session.
func PrincipalFromRequest(r *http.Request) *authz.Principal {
	if r == nil {
		return nil
	}

	startSessionCleanup()

	cookie, err := r.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	sessionMu.RLock()
	record, ok := sessionStore[cookie.Value]
	sessionMu.RUnlock()
	if !ok {
		return nil
	}
	if time.Now().After(record.ExpiresAt) {
		deleteSession(cookie.Value)
		return nil
	}

	principal := record.Principal
	return &principal
}

// ClearSession invalidates the request's session token and expires the
// cookie.
func ClearSession(w http.ResponseWriter, r *http.Request) {
	if r != nil {
		if cookie, err := r.Cookie(sessionCookieName); err == nil {
			deleteSession(cookie.Value)
		}
	}

	if w == nil {
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   secureCookies,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}

func newSessionToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func deleteSession(token string) {
	sessionMu.Lock()
	delete(sessionStore, token)
	sessionMu.Unlock()
}

func startSessionCleanup() {
	sessionCleanupOnce.Do(func() {
		go func() {
			ticker := time.NewTicker(sessionCleanupInterval)
			defer ticker.Stop()
			for range ticker.C {
				now := time.Now()
				sessionMu.Lock()
				for token, record := range sessionStore {
					if now.After(record.ExpiresAt) {
						delete(sessionStore, token)
					}
				}
				sessionMu.Unlock()
			}
		}()
	})
}
