package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/amy-emails/internal/container"
	handlers "github.com/oksasatya/amy-emails/internal/interface/http"
	"github.com/oksasatya/amy-emails/internal/interface/middleware"
)

// EmailModule is the administrator surface: triggers, create-only actions,
// scheduled email management, templates and feature flags.
type EmailModule struct {
	Triggers  *handlers.TriggerHandler
	Scheduled *handlers.ScheduledEmailHandler
	Templates *handlers.TemplateHandler
	Flags     *handlers.FlagHandler
	Auth      middleware.Authorizer
}

func (m *EmailModule) Name() string { return "emails" }

func (m *EmailModule) Register(rg *gin.RouterGroup) {
	admin := rg.Group("/")
	admin.Use(middleware.Auth(m.Auth))
	admin.Use(middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByPerson(), nil))
	{
		admin.POST("/emails/triggers/:kind/:id", m.Triggers.Trigger)
		admin.POST("/emails/actions/persons-merged/:id", m.Triggers.PersonsMerged)
		admin.POST("/emails/actions/instructor-signs-up/:id", m.Triggers.InstructorSignsUp)
		admin.POST("/emails/actions/admin-signs-instructor-up/:id", m.Triggers.AdminSignsInstructorUp)

		admin.GET("/emails/scheduled", m.Scheduled.List)
		admin.GET("/emails/scheduled/search", m.Scheduled.SearchEmails)
		admin.GET("/emails/scheduled/:id", m.Scheduled.Get)
		admin.PUT("/emails/scheduled/:id", m.Scheduled.Edit)
		admin.POST("/emails/scheduled/:id/reschedule", m.Scheduled.Reschedule)
		admin.POST("/emails/scheduled/:id/cancel", m.Scheduled.Cancel)
		admin.POST("/emails/scheduled/:id/attachments", m.Scheduled.AddAttachment)

		admin.GET("/emails/templates", m.Templates.List)
		admin.POST("/emails/templates", m.Templates.Create)
		admin.GET("/emails/templates/:id", m.Templates.Get)
		admin.PUT("/emails/templates/:id", m.Templates.Update)
		admin.DELETE("/emails/templates/:id", m.Templates.Delete)

		admin.GET("/flags", m.Flags.List)
		admin.PUT("/flags/:name", m.Flags.Set)
		admin.DELETE("/flags/:name", m.Flags.Reset)
	}
}
