package internal

import (
	"errors"
	"net/http"
	"time"

	"github.com/dmitrymomot/gatekeeper/pkg/cookie"
)

// Default cookie settings.
const (
	defaultSessionCookieName = "__sid"
	defaultSavedRequestName  = "__continue"
	defaultSessionMaxAge     = 30 * 24 * time.Hour
	defaultSavedRequestAge   = 10 * time.Minute
)

// SessionManager binds session tokens and saved request URIs to cookies.
// The token cookie is signed; the saved request is encrypted.
type SessionManager struct {
	cookies      *cookie.Manager
	cookieName   string
	savedName    string
	maxAge       time.Duration
	savedRequest time.Duration
}

// SessionOption configures the SessionManager.
type SessionOption func(*SessionManager)

// WithSessionCookieName sets the session cookie name.
func WithSessionCookieName(name string) SessionOption {
	return func(sm *SessionManager) {
		if name != "" {
			sm.cookieName = name
		}
	}
}

// WithSavedRequestCookieName sets the name of the cookie holding the
// request URI to continue to after login.
func WithSavedRequestCookieName(name string) SessionOption {
	return func(sm *SessionManager) {
		if name != "" {
			sm.savedName = name
		}
	}
}

// WithSessionMaxAge sets the session cookie lifetime.
func WithSessionMaxAge(d time.Duration) SessionOption {
	return func(sm *SessionManager) {
		if d > 0 {
			sm.maxAge = d
		}
	}
}

// WithSavedRequestMaxAge sets how long a saved request URI is kept.
func WithSavedRequestMaxAge(d time.Duration) SessionOption {
	return func(sm *SessionManager) {
		if d > 0 {
			sm.savedRequest = d
		}
	}
}

// NewSessionManager creates a SessionManager writing through cookies.
func NewSessionManager(cookies *cookie.Manager, opts ...SessionOption) *SessionManager {
	sm := &SessionManager{
		cookies:      cookies,
		cookieName:   defaultSessionCookieName,
		savedName:    defaultSavedRequestName,
		maxAge:       defaultSessionMaxAge,
		savedRequest: defaultSavedRequestAge,
	}
	for _, opt := range opts {
		opt(sm)
	}
	return sm
}

// CookieName returns the session cookie name.
func (sm *SessionManager) CookieName() string {
	return sm.cookieName
}

// Token returns the session token carried by r.
// Returns cookie.ErrNotFound without a cookie and cookie.ErrBadSig for a
// forged or corrupted one.
func (sm *SessionManager) Token(r *http.Request) (string, error) {
	token, err := sm.cookies.GetSigned(r, sm.cookieName)
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", cookie.ErrNotFound
	}
	return token, nil
}

// HasToken reports whether r carries a session cookie at all, valid or not.
func (sm *SessionManager) HasToken(r *http.Request) bool {
	_, err := r.Cookie(sm.cookieName)
	return err == nil
}

// SaveToken writes the session cookie.
func (sm *SessionManager) SaveToken(w http.ResponseWriter, token string) error {
	return sm.cookies.SetSigned(w, sm.cookieName, token, sm.maxAge)
}

// DeleteToken expires the session cookie.
func (sm *SessionManager) DeleteToken(w http.ResponseWriter) {
	sm.cookies.Delete(w, sm.cookieName)
}

// SaveRequest remembers uri so the client can continue there after login.
func (sm *SessionManager) SaveRequest(w http.ResponseWriter, uri string) error {
	return sm.cookies.SetEncrypted(w, sm.savedName, uri, sm.savedRequest)
}

// SavedRequest returns the remembered URI, or "" if none or unreadable.
func (sm *SessionManager) SavedRequest(r *http.Request) string {
	uri, err := sm.cookies.GetEncrypted(r, sm.savedName)
	if err != nil {
		return ""
	}
	return uri
}

// HasSavedRequest reports whether r carries a saved request cookie.
func (sm *SessionManager) HasSavedRequest(r *http.Request) bool {
	_, err := r.Cookie(sm.savedName)
	return err == nil
}

// DeleteSavedRequest expires the saved request cookie.
func (sm *SessionManager) DeleteSavedRequest(w http.ResponseWriter) {
	sm.cookies.Delete(w, sm.savedName)
}

// IsForged reports whether err means the cookie was present but invalid.
func IsForged(err error) bool {
	return errors.Is(err, cookie.ErrBadSig) || errors.Is(err, cookie.ErrDecrypt)
}
