package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/amy-emails/internal/container"
	handlers "github.com/oksasatya/amy-emails/internal/interface/http"
	"github.com/oksasatya/amy-emails/internal/interface/middleware"
)

// WorkerModule exposes the v2 scheduled email API used by external email
// workers. Callers authenticate with WORKER_API_TOKEN or an admin session.
type WorkerModule struct {
	Handler     *handlers.WorkerAPIHandler
	Auth        middleware.Authorizer
	WorkerToken string
}

func (m *WorkerModule) Name() string { return "worker" }

func (m *WorkerModule) Register(rg *gin.RouterGroup) {
	v2 := rg.Group("/v2/scheduledemails")
	v2.Use(middleware.WorkerOrAdmin(m.Auth, m.WorkerToken))
	v2.Use(middleware.RateLimit(container.GetRedis(), 600, time.Minute, middleware.KeyByPerson(), middleware.AllowWorker()))
	{
		v2.GET("", m.Handler.List)
		v2.GET("/scheduled_to_run", m.Handler.ScheduledToRun)
		v2.GET("/:id", m.Handler.Get)
		v2.POST("/:id/lock", m.Handler.Lock)
		v2.POST("/:id/succeed", m.Handler.Succeed)
		v2.POST("/:id/fail", m.Handler.Fail)
		v2.POST("/:id/cancel", m.Handler.Cancel)
	}
}
