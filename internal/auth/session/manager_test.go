package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/facture/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCookieContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func TestManagerCookieNameFromConfig(t *testing.T) {
	m := NewManager(config.Config{AuthCookieName: "alt_sid"})
	assert.Equal(t, "alt_sid", m.CookieName())

	c, _ := newCookieContext(t)
	c.Request.AddCookie(&http.Cookie{Name: "alt_sid", Value: "tok-1"})

	token, ok := m.ReadToken(c)
	require.True(t, ok)
	assert.Equal(t, "tok-1", token)
}

func TestManagerDefaultCookieName(t *testing.T) {
	m := NewManager(config.Config{})
	assert.Equal(t, DefaultCookieName, m.CookieName())
}

func TestManagerReadTokenMissingOrBlank(t *testing.T) {
	m := NewManager(config.Config{})

	c, _ := newCookieContext(t)
	_, ok := m.ReadToken(c)
	assert.False(t, ok)

	c, _ = newCookieContext(t)
	c.Request.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "  "})
	_, ok = m.ReadToken(c)
	assert.False(t, ok)
}

func TestManagerSetWritesHTTPOnlyCookie(t *testing.T) {
	m := NewManager(config.Config{})

	c, w := newCookieContext(t)
	m.Set(c, "tok-2", time.Now().Add(time.Hour))

	header := w.Header().Get("Set-Cookie")
	assert.True(t, strings.HasPrefix(header, DefaultCookieName+"=tok-2"))
	assert.Contains(t, header, "HttpOnly")
	assert.Contains(t, header, "SameSite=Lax")
}
