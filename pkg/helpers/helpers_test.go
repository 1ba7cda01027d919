package helpers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/amy-emails/pkg/helpers"
)

func TestJWTManager(t *testing.T) {
	m := helpers.NewJWTManager("access", "refresh", time.Minute, time.Hour)

	access, exp, err := m.GenerateAccessToken("42", "session-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), exp, 5*time.Second)

	claims, err := m.ParseAccessToken(access)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.PersonID)
	assert.Equal(t, "session-1", claims.SessionID)

	_, err = m.ParseRefreshToken(access)
	assert.Error(t, err, "access tokens are not valid refresh tokens")

	expired := helpers.NewJWTManager("access", "refresh", -time.Minute, time.Hour)
	old, _, err := expired.GenerateAccessToken("42", "session-1")
	require.NoError(t, err)
	_, err = m.ParseAccessToken(old)
	assert.Error(t, err)
}

func TestPassword(t *testing.T) {
	hash, err := helpers.HashPassword("alohomora")
	require.NoError(t, err)
	assert.True(t, helpers.CompareHashAndPassword(hash, "alohomora"))
	assert.False(t, helpers.CompareHashAndPassword(hash, "Alohomora"))
	assert.False(t, helpers.CompareHashAndPassword("", ""))
}

func TestCookieManager(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := helpers.NewCookie("amy.carpentries.org", true)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	m.SetPair(c, "a", time.Now().Add(time.Hour), "r", time.Now().Add(-time.Hour))
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 2)
	assert.Equal(t, helpers.AccessCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
	assert.InDelta(t, 3600, cookies[0].MaxAge, 5)
	assert.Equal(t, 0, cookies[1].MaxAge)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	m.Clear(c)
	for _, ck := range w.Result().Cookies() {
		assert.Empty(t, ck.Value)
		assert.Negative(t, ck.MaxAge)
	}
}

func TestNewLogger(t *testing.T) {
	assert.Equal(t, "debug", helpers.NewLogger("amy-emails", "development", "").GetLevel().String())
	assert.Equal(t, "info", helpers.NewLogger("amy-emails", "production", "").GetLevel().String())
	assert.Equal(t, "warning", helpers.NewLogger("amy-emails", "production", "warn").GetLevel().String())
	assert.Equal(t, "info", helpers.NewLogger("amy-emails", "production", "chatty").GetLevel().String())
}
