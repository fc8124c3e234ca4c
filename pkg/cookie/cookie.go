package cookie

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hkdf"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"
)

// MinSecretLen is the minimum secret length accepted by New.
const MinSecretLen = 32

var (
	ErrNotFound  = errors.New("cookie: not found")
	ErrBadSecret = errors.New("cookie: secret must be 32+ bytes")
	ErrBadSig    = errors.New("cookie: invalid signature")
	ErrDecrypt   = errors.New("cookie: decryption failed")
	ErrTooLarge  = errors.New("cookie: value too large")
)

// maxCookieSize is the size browsers are guaranteed to keep.
const maxCookieSize = 4096

// Manager writes and reads cookies with shared attributes. Signed values
// are bound to the cookie name, so a value cannot be replayed under
// another name.
type Manager struct {
	signKey  []byte
	aead     cipher.AEAD
	domain   string
	path     string
	sameSite http.SameSite
	secure   bool
	httpOnly bool
}

// Option configures the Manager.
type Option func(*Manager)

// WithDomain sets the cookie domain.
func WithDomain(domain string) Option {
	return func(m *Manager) {
		m.domain = domain
	}
}

// WithPath sets the cookie path.
// Default: "/".
func WithPath(path string) Option {
	return func(m *Manager) {
		m.path = path
	}
}

// WithSecure sets the Secure flag.
// Default: false.
func WithSecure(secure bool) Option {
	return func(m *Manager) {
		m.secure = secure
	}
}

// WithHTTPOnly sets the HttpOnly flag.
// Default: true.
func WithHTTPOnly(httpOnly bool) Option {
	return func(m *Manager) {
		m.httpOnly = httpOnly
	}
}

// WithSameSite sets the SameSite attribute.
// Default: http.SameSiteLaxMode.
func WithSameSite(ss http.SameSite) Option {
	return func(m *Manager) {
		m.sameSite = ss
	}
}

// New creates a Manager. Signing and encryption keys are derived from
// secret, which must be at least MinSecretLen bytes.
func New(secret string, opts ...Option) (*Manager, error) {
	if len(secret) < MinSecretLen {
		return nil, ErrBadSecret
	}

	signKey, err := hkdf.Key(sha256.New, []byte(secret), nil, "cookie-sign", 32)
	if err != nil {
		return nil, errors.Join(ErrBadSecret, err)
	}
	encKey, err := hkdf.Key(sha256.New, []byte(secret), nil, "cookie-encrypt", 32)
	if err != nil {
		return nil, errors.Join(ErrBadSecret, err)
	}
	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, errors.Join(ErrBadSecret, err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Join(ErrBadSecret, err)
	}

	m := &Manager{
		signKey:  signKey,
		aead:     aead,
		path:     "/",
		httpOnly: true,
		sameSite: http.SameSiteLaxMode,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Get returns a plain cookie value.
func (m *Manager) Get(r *http.Request, name string) (string, error) {
	c, err := r.Cookie(name)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", ErrNotFound
		}
		return "", err
	}
	return c.Value, nil
}

// Set writes a plain cookie. A zero maxAge makes it a session cookie.
func (m *Manager) Set(w http.ResponseWriter, name, value string, maxAge time.Duration) error {
	c := m.cookie(name, value, maxAge)
	if len(c.String()) > maxCookieSize {
		return ErrTooLarge
	}
	http.SetCookie(w, c)
	return nil
}

// Delete expires a cookie.
func (m *Manager) Delete(w http.ResponseWriter, name string) {
	c := m.cookie(name, "", 0)
	c.MaxAge = -1
	http.SetCookie(w, c)
}

// SetSigned writes value with an HMAC-SHA256 signature.
// Format: base64(value).base64(mac).
func (m *Manager) SetSigned(w http.ResponseWriter, name, value string, maxAge time.Duration) error {
	encoded := base64.RawURLEncoding.EncodeToString([]byte(value)) +
		"." + base64.RawURLEncoding.EncodeToString(m.sign(name, value))
	return m.Set(w, name, encoded, maxAge)
}

// GetSigned returns a signed cookie value after verifying its signature.
func (m *Manager) GetSigned(r *http.Request, name string) (string, error) {
	raw, err := m.Get(r, name)
	if err != nil {
		return "", err
	}

	encValue, encSig, ok := strings.Cut(raw, ".")
	if !ok {
		return "", ErrBadSig
	}
	value, err := base64.RawURLEncoding.DecodeString(encValue)
	if err != nil {
		return "", ErrBadSig
	}
	sig, err := base64.RawURLEncoding.DecodeString(encSig)
	if err != nil {
		return "", ErrBadSig
	}
	if !hmac.Equal(sig, m.sign(name, string(value))) {
		return "", ErrBadSig
	}
	return string(value), nil
}

// SetEncrypted writes value sealed with AES-GCM. The cookie name is used
// as additional data.
func (m *Manager) SetEncrypted(w http.ResponseWriter, name, value string, maxAge time.Duration) error {
	nonce := make([]byte, m.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return err
	}
	sealed := m.aead.Seal(nonce, nonce, []byte(value), []byte(name))
	return m.Set(w, name, base64.RawURLEncoding.EncodeToString(sealed), maxAge)
}

// GetEncrypted returns the plaintext of an encrypted cookie.
func (m *Manager) GetEncrypted(r *http.Request, name string) (string, error) {
	raw, err := m.Get(r, name)
	if err != nil {
		return "", err
	}

	data, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil || len(data) < m.aead.NonceSize() {
		return "", ErrDecrypt
	}
	nonce, sealed := data[:m.aead.NonceSize()], data[m.aead.NonceSize():]
	plain, err := m.aead.Open(nil, nonce, sealed, []byte(name))
	if err != nil {
		return "", ErrDecrypt
	}
	return string(plain), nil
}

func (m *Manager) sign(name, value string) []byte {
	mac := hmac.New(sha256.New, m.signKey)
	mac.Write([]byte(name))
	mac.Write([]byte{0})
	mac.Write([]byte(value))
	return mac.Sum(nil)
}

func (m *Manager) cookie(name, value string, maxAge time.Duration) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     m.path,
		Domain:   m.domain,
		Secure:   m.secure,
		HttpOnly: m.httpOnly,
		SameSite: m.sameSite,
	}
	if maxAge > 0 {
		c.MaxAge = int(maxAge.Seconds())
		c.Expires = time.Now().Add(maxAge)
	}
	return c
}
