package router

import (
	"github.com/oksasatya/amy-emails/internal/container"
	handlers "github.com/oksasatya/amy-emails/internal/interface/http"
	"github.com/oksasatya/amy-emails/internal/router/modules"
	"github.com/oksasatya/amy-emails/pkg/helpers"
)

type EmailModuleDeps struct {
	Triggers  *handlers.TriggerHandler
	Scheduled *handlers.ScheduledEmailHandler
	Templates *handlers.TemplateHandler
	Flags     *handlers.FlagHandler
}

func buildEmailDeps(svc *container.Services) EmailModuleDeps {
	logger := container.GetLogger()
	return EmailModuleDeps{
		Triggers:  handlers.NewTriggerHandler(svc.Actions, svc.Domain, logger),
		Scheduled: handlers.NewScheduledEmailHandler(svc.Emails, svc.Controller, svc.Index, logger),
		Templates: handlers.NewTemplateHandler(svc.Templates, svc.Renderer, logger),
		Flags:     handlers.NewFlagHandler(svc.Flags, logger),
	}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	svc := container.GetServices()

	cookies := helpers.NewCookie(cfg.CookieDomain, cfg.CookieSecure)
	r.Add(modules.NewAuthModule(handlers.NewAuthHandler(svc.Auth, cookies, logger), svc.Auth))

	deps := buildEmailDeps(svc)
	r.Add(&modules.EmailModule{
		Triggers:  deps.Triggers,
		Scheduled: deps.Scheduled,
		Templates: deps.Templates,
		Flags:     deps.Flags,
		Auth:      svc.Auth,
	})
	workerAPI := handlers.NewWorkerAPIHandler(svc.Emails, svc.Controller, logger)
	workerAPI.MaxRetries = cfg.WorkerMaxRetries
	r.Add(&modules.WorkerModule{
		Handler:     workerAPI,
		Auth:        svc.Auth,
		WorkerToken: cfg.WorkerAPIToken,
	})
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
