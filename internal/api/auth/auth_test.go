package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/cuongbtq/cleaning-scheduler/internal/api/domain"
)

func newTestManager(t *testing.T, cfg Config) *Manager {
	t.Helper()
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "test-secret"
	}
	if cfg.Password == "" && cfg.PasswordHash == "" {
		cfg.Password = "letmein"
	}
	m, err := NewManager(cfg)
	require.NoError(t, err)
	return m
}

func TestNewManager_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "missing secret", cfg: Config{Password: "x"}, wantErr: "jwt secret is required"},
		{name: "missing password", cfg: Config{JWTSecret: "s"}, wantErr: "password or password hash is required"},
		{name: "valid", cfg: Config{JWTSecret: "s", Password: "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewManager(tt.cfg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, DefaultCookieName, m.CookieName())
			assert.Equal(t, DefaultTokenTTL, m.cfg.TokenTTL)
		})
	}
}

func TestManager_CheckPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hashed-secret"), bcrypt.MinCost)
	require.NoError(t, err)

	plain := newTestManager(t, Config{Password: "letmein"})
	hashed := newTestManager(t, Config{PasswordHash: string(hash), Password: "ignored"})

	assert.NoError(t, plain.CheckPassword("letmein"))
	assert.ErrorIs(t, plain.CheckPassword("LetMeIn"), domain.ErrInvalidCredentials)
	assert.ErrorIs(t, plain.CheckPassword(""), domain.ErrInvalidCredentials)

	assert.NoError(t, hashed.CheckPassword("hashed-secret"))
	assert.ErrorIs(t, hashed.CheckPassword("ignored"), domain.ErrInvalidCredentials)
}

func TestManager_MintAndParse(t *testing.T) {
	m := newTestManager(t, Config{TokenTTL: time.Hour})

	token, expiresAt, err := m.Mint()
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, subject, claims.Subject)
}

func TestManager_Parse_Rejects(t *testing.T) {
	m := newTestManager(t, Config{TokenTTL: time.Minute})

	t.Run("other secret", func(t *testing.T) {
		other := newTestManager(t, Config{JWTSecret: "different"})
		token, _, err := other.Mint()
		require.NoError(t, err)

		_, err = m.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		past := newTestManager(t, Config{TokenTTL: time.Minute})
		past.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		token, _, err := past.Mint()
		require.NoError(t, err)

		_, err = m.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unsigned algorithm", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: subject}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = m.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.Parse("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestManager_TokenFromRequest(t *testing.T) {
	m := newTestManager(t, Config{})

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
		req.Header.Set("Authorization", "Bearer abc.def.ghi")

		token, err := m.TokenFromRequest(req)
		require.NoError(t, err)
		assert.Equal(t, "abc.def.ghi", token)
	})

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
		req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "from-cookie"})

		token, err := m.TokenFromRequest(req)
		require.NoError(t, err)
		assert.Equal(t, "from-cookie", token)
	})

	t.Run("missing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)

		_, err := m.TokenFromRequest(req)
		assert.ErrorIs(t, err, ErrMissingToken)
	})
}

func TestManager_Cookies(t *testing.T) {
	m := newTestManager(t, Config{TokenTTL: 30 * time.Minute, CookieSecure: true})

	rec := httptest.NewRecorder()
	m.SetCookie(rec, "tok")
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, DefaultCookieName, cookies[0].Name)
	assert.Equal(t, "tok", cookies[0].Value)
	assert.Equal(t, 1800, cookies[0].MaxAge)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)

	rec = httptest.NewRecorder()
	m.ClearCookie(rec)
	cookies = rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "", cookies[0].Value)
	assert.Less(t, cookies[0].MaxAge, 0)
}
