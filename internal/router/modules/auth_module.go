package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/amy-emails/internal/container"
	handlers "github.com/oksasatya/amy-emails/internal/interface/http"
	"github.com/oksasatya/amy-emails/internal/interface/middleware"
)

// AuthModule serves administrator login.
// Public: POST /api/auth/login, POST /api/auth/refresh
// Protected: GET /api/auth/me, POST /api/auth/logout
type AuthModule struct {
	Handler *handlers.AuthHandler
	Auth    middleware.Authorizer
}

func NewAuthModule(h *handlers.AuthHandler, a middleware.Authorizer) *AuthModule {
	return &AuthModule{Handler: h, Auth: a}
}

func (m *AuthModule) Name() string { return "auth" }

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	loginLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIP(), nil)
	refreshLimiter := middleware.RateLimit(container.GetRedis(), 60, time.Minute, middleware.KeyByIPAndPath(), nil)

	rg.POST("/auth/login", loginLimiter, m.Handler.Login)
	rg.POST("/auth/refresh", refreshLimiter, m.Handler.Refresh)

	auth := rg.Group("/auth")
	auth.Use(middleware.Auth(m.Auth))
	{
		auth.GET("/me", m.Handler.Me)
		auth.POST("/logout", m.Handler.Logout)
	}
}
