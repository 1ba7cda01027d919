package router

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Module is one feature area of the API: auth, emails, the worker API or
// debug endpoints. Register mounts its routes under /api.
type Module interface {
	Name() string
	Register(rg *gin.RouterGroup)
}

// Registry collects modules and mounts them on the /api group once the
// process is configured.
type Registry struct {
	Engine  *gin.Engine
	API     *gin.RouterGroup
	Logger  logrus.FieldLogger
	modules []Module
}

func NewRegistry(engine *gin.Engine) *Registry {
	return &Registry{Engine: engine, API: engine.Group("/api")}
}

// Add queues mod. A second module with the same name is a wiring bug.
func (r *Registry) Add(mod Module) {
	for _, m := range r.modules {
		if m.Name() == mod.Name() {
			panic(fmt.Sprintf("router: module %q added twice", mod.Name()))
		}
	}
	r.modules = append(r.modules, mod)
}

// Names lists the queued modules in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.modules))
	for i, m := range r.modules {
		out[i] = m.Name()
	}
	return out
}

func (r *Registry) RegisterAll() {
	for _, m := range r.modules {
		m.Register(r.API)
		if r.Logger != nil {
			r.Logger.WithField("module", m.Name()).Debug("routes registered")
		}
	}
}
