// Package auth provides password hashing, session tokens and the
// request-scoped current-user context.
//
// SESSION FLOW:
//  1. POST /auth/login succeeds → SessionManager.Issue signs a token for the user id
//  2. The token is stored in the HttpOnly "session" cookie
//  3. On every request the session middleware reads the cookie, Parses the
//     token and looks the user up; the result is put in the request context
//  4. GET /auth/logout expires the cookie
//
// The token is a JWT (HS256) whose Subject is the user id and whose ID (jti)
// is a fresh xid, so every login yields a brand-new session value and a
// pre-login cookie can never be promoted to an authenticated one.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"
)

const (
	// SessionCookieName is the cookie carrying the session token.
	SessionCookieName = "session"

	sessionIssuer   = "blog"
	minSecretLength = 16
)

// ErrInvalidSession wraps every reason a session token is rejected.
var ErrInvalidSession = errors.New("auth: invalid session")

// Session is the decoded content of a valid session token.
type Session struct {
	ID        string // random per login
	UserID    int64
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// SessionManager issues and validates session tokens and owns the cookie format.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewSessionManager creates a SessionManager.
// The secret must be at least 16 characters; ttl must be positive.
func NewSessionManager(secret string, ttl time.Duration, secureCookies bool) (*SessionManager, error) {
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("auth: session secret must be at least %d characters", minSecretLength)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("auth: session ttl must be positive, got %s", ttl)
	}
	return &SessionManager{
		secret: []byte(secret),
		ttl:    ttl,
		secure: secureCookies,
		now:    time.Now,
	}, nil
}

// TTL reports how long an issued session stays valid.
func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}

type sessionClaims struct {
	jwt.RegisteredClaims
}

// Issue signs a new session token bound to userID.
func (m *SessionManager) Issue(userID int64) (string, *Session, error) {
	if userID <= 0 {
		return "", nil, fmt.Errorf("auth: cannot issue a session for user id %d", userID)
	}

	now := m.now()
	s := &Session{
		ID:        xid.New().String(),
		UserID:    userID,
		IssuedAt:  now,
		ExpiresAt: now.Add(m.ttl),
	}

	c := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.ID,
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    sessionIssuer,
			IssuedAt:  jwt.NewNumericDate(s.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("auth: signing session: %w", err)
	}
	return signed, s, nil
}

// Parse validates a session token and returns its content.
// Every failure (bad signature, expired, malformed subject) wraps ErrInvalidSession.
func (m *SessionManager) Parse(token string) (*Session, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", ErrInvalidSession)
	}

	parsed, err := jwt.ParseWithClaims(
		token,
		&sessionClaims{},
		func(t *jwt.Token) (any, error) {
			return m.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: session expired", ErrInvalidSession)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	c, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("%w: unexpected claims", ErrInvalidSession)
	}

	userID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return nil, fmt.Errorf("%w: bad subject %q", ErrInvalidSession, c.Subject)
	}

	return &Session{
		ID:        c.ID,
		UserID:    userID,
		IssuedAt:  c.IssuedAt.Time,
		ExpiresAt: c.ExpiresAt.Time,
	}, nil
}

// TokenFromRequest returns the raw session cookie value, or "" when absent.
func (m *SessionManager) TokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// SetCookie stores token in the session cookie, replacing any previous one.
//
// HttpOnly keeps scripts away from it; SameSite=Lax stops it riding along on
// cross-site POSTs. Secure is enabled by configuration (requires HTTPS).
func (m *SessionManager) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie tells the browser to drop the session cookie. Safe to call
// whether or not a cookie is present.
func (m *SessionManager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
