package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/cuongbtq/cleaning-scheduler/internal/api/domain"
)

const (
	DefaultCookieName = "scheduler_session"
	DefaultTokenTTL   = 12 * time.Hour

	subject = "scheduler"
)

var (
	ErrMissingToken = errors.New("missing session token")
	ErrInvalidToken = errors.New("invalid session token")
)

// Config holds the shared password and session settings
type Config struct {
	Password     string // plain shared password
	PasswordHash string // bcrypt hash, takes precedence over Password
	JWTSecret    string
	TokenTTL     time.Duration
	CookieName   string
	CookieDomain string
	CookieSecure bool
}

// Claims carried by a session token
type Claims struct {
	jwt.RegisteredClaims
}

// Manager checks the shared password and issues HS256 session tokens
type Manager struct {
	cfg    Config
	secret []byte
	now    func() time.Time
}

func NewManager(cfg Config) (*Manager, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	if cfg.Password == "" && cfg.PasswordHash == "" {
		return nil, fmt.Errorf("password or password hash is required")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = DefaultTokenTTL
	}
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}

	return &Manager{
		cfg:    cfg,
		secret: []byte(cfg.JWTSecret),
		now:    time.Now,
	}, nil
}

// CheckPassword returns domain.ErrInvalidCredentials when password does not match
func (m *Manager) CheckPassword(password string) error {
	if m.cfg.PasswordHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(m.cfg.PasswordHash), []byte(password)); err != nil {
			return domain.ErrInvalidCredentials
		}
		return nil
	}

	if subtle.ConstantTimeCompare([]byte(password), []byte(m.cfg.Password)) != 1 {
		return domain.ErrInvalidCredentials
	}
	return nil
}

// Mint signs a new session token and returns it with its expiry
func (m *Manager) Mint() (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.cfg.TokenTTL)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, expiresAt, nil
}

// Parse validates a session token's signature, algorithm and expiry
func (m *Manager) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithSubject(subject),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	return claims, nil
}

// TokenFromRequest reads a bearer token, falling back to the session cookie
func (m *Manager) TokenFromRequest(r *http.Request) (string, error) {
	if hdr := r.Header.Get("Authorization"); hdr != "" {
		if len(hdr) > 7 && strings.EqualFold(hdr[:7], "bearer ") {
			return strings.TrimSpace(hdr[7:]), nil
		}
	}

	if c, err := r.Cookie(m.cfg.CookieName); err == nil && c.Value != "" {
		return c.Value, nil
	}

	return "", ErrMissingToken
}

// SetCookie stores token in an HttpOnly session cookie
func (m *Manager) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, m.cookie(token, int(m.cfg.TokenTTL.Seconds())))
}

// ClearCookie expires the session cookie
func (m *Manager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, m.cookie("", -1))
}

func (m *Manager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    value,
		Path:     "/",
		Domain:   m.cfg.CookieDomain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.cfg.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	}
}

// CookieName returns the configured session cookie name
func (m *Manager) CookieName() string {
	return m.cfg.CookieName
}
