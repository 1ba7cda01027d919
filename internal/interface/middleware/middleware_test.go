package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/amy-emails/internal/application/auth"
	"github.com/oksasatya/amy-emails/internal/interface/middleware"
)

func init() { gin.SetMode(gin.TestMode) }

type tokens map[string]*auth.Session

func (t tokens) Authorize(_ context.Context, token string) (*auth.Session, error) {
	if s, ok := t[token]; ok {
		return s, nil
	}
	return nil, errors.New("unknown token")
}

func whoami(c *gin.Context) {
	if c.GetBool(middleware.CtxWorker) {
		c.String(http.StatusOK, "worker")
		return
	}
	c.String(http.StatusOK, middleware.SessionFrom(c).Email)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuth(t *testing.T) {
	r := gin.New()
	r.GET("/me", middleware.Auth(tokens{"good": {PersonID: 1, Email: "admin@carpentries.org"}}), whoami)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: "good"})
	w := serve(r, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin@carpentries.org", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer bad")
	w = serve(r, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "invalid session")
}

func TestWorkerOrAdmin(t *testing.T) {
	r := gin.New()
	r.GET("/me", middleware.WorkerOrAdmin(tokens{"good": {PersonID: 1, Email: "a@b.c"}}, "worker-token"), whoami)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer worker-token")
	w := serve(r, req)
	assert.Equal(t, "worker", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	w = serve(r, req)
	assert.Equal(t, "a@b.c", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer guess")
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)
}

func TestRateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	r := gin.New()
	r.Use(middleware.RealIP())
	r.GET("/ping", middleware.RateLimit(rdb, 2, time.Minute, middleware.KeyByIP(), nil), func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	call := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("X-Forwarded-For", ip)
		return serve(r, req)
	}
	assert.Equal(t, http.StatusOK, call("203.0.113.9").Code)
	w := call("203.0.113.9")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = call("203.0.113.9")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "60", w.Header().Get("Retry-After"))
	assert.Equal(t, http.StatusOK, call("198.51.100.1").Code)
}

func TestRateLimit_AllowPrivateIP(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	r := gin.New()
	r.Use(middleware.RealIP())
	allow := middleware.AnyOf(middleware.AllowWorker(), middleware.AllowPrivateIP())
	r.GET("/ping", middleware.RateLimit(rdb, 1, time.Minute, middleware.KeyByIP(), allow), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("X-Forwarded-For", "10.0.0.5")
		assert.Equal(t, http.StatusNoContent, serve(r, req).Code)
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "0b6c4a4e-8f1e-4a57-9a5e-5d5c6f0f1c11")
	w := serve(r, req)
	assert.Equal(t, "0b6c4a4e-8f1e-4a57-9a5e-5d5c6f0f1c11", w.Body.String())

	w = serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, w.Body.String(), 36)
	assert.Equal(t, w.Body.String(), w.Header().Get("X-Request-ID"))
}

func TestRealIP(t *testing.T) {
	r := gin.New()
	r.Use(middleware.RealIP())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(middleware.CtxRealIP)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", serve(r, req).Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Real-IP", "198.51.100.4")
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	assert.Equal(t, "198.51.100.4", serve(r, req).Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("CF-Connecting-IP", "not-an-ip")
	req.RemoteAddr = "192.0.2.10:1234"
	assert.Equal(t, "192.0.2.10", serve(r, req).Body.String())
}
