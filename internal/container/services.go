package container

import (
	"sync"

	"github.com/oksasatya/amy-emails/internal/application/auth"
	"github.com/oksasatya/amy-emails/internal/application/emails"
	"github.com/oksasatya/amy-emails/internal/application/emails/actions"
	"github.com/oksasatya/amy-emails/internal/application/flags"
	"github.com/oksasatya/amy-emails/internal/domain/repository"
	"github.com/oksasatya/amy-emails/internal/infrastructure/cache"
	pginfra "github.com/oksasatya/amy-emails/internal/infrastructure/postgres"
	"github.com/oksasatya/amy-emails/internal/infrastructure/search"
	gcsstore "github.com/oksasatya/amy-emails/internal/infrastructure/storage"
)

// Services is the application graph shared by the HTTP router and the
// background commands.
type Services struct {
	Domain    repository.DomainRepository
	Emails    repository.ScheduledEmailRepository
	Templates repository.EmailTemplateRepository

	Renderer   *emails.Renderer
	Controller *emails.Controller
	Engine     *emails.Engine
	Actions    *actions.Actions
	Flags      *flags.Service
	Auth       *auth.Service

	// Storage is nil when no bucket is configured.
	Storage *gcsstore.GCS
	Index   *search.ScheduledEmailIndex
}

var (
	services     *Services
	servicesOnce sync.Once
)

// GetServices builds the graph on first use from the registered singletons.
func GetServices() *Services {
	servicesOnce.Do(func() { services = buildServices() })
	return services
}

func buildServices() *Services {
	c := GetConfig()
	log := GetLogger()
	pool := GetPGPool()

	s := &Services{
		Domain:   pginfra.NewDomainRepository(pool),
		Emails:   pginfra.NewScheduledEmailRepository(pool),
		Renderer: emails.NewRenderer(),
		Flags:    flags.NewService(GetRedis(), map[string]bool{flags.EmailModule: c.FlagEmailModule}, log),
	}
	s.Templates = cache.NewTemplateCache(pginfra.NewEmailTemplateRepository(pool), GetRedis(), c.TemplateCacheTTL)

	s.Controller = emails.NewController(s.Emails, s.Templates, s.Renderer, log)
	if gcs := GetGCS(); gcs != nil && c.GCSBucket != "" {
		s.Storage = gcsstore.NewGCS(gcs, c.GCSBucket)
		s.Controller.Storage = s.Storage
	}
	s.Index = search.NewScheduledEmailIndex(GetES(), c.ESEmailsIndex, log)
	s.Controller.Indexer = s.Index

	s.Engine = emails.NewEngine(s.Emails, s.Controller, s.Flags, log)
	s.Engine.BaseURL = c.BaseURL
	s.Actions = actions.New(s.Engine, s.Domain, s.Controller)
	s.Auth = auth.NewService(s.Domain, GetJWT(), GetRedis(), log)
	return s
}
