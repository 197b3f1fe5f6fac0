package router

import (
	"github.com/gin-gonic/gin"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router manages HTTP route registration. Registrars are either global
// (mounted directly under the versioned API prefix) or team scoped (mounted
// under /teams/:teamId behind the team access middleware).
type Router struct {
	engine         *gin.Engine
	apiVersion     string
	apiMiddleware  []gin.HandlerFunc
	teamMiddleware []gin.HandlerFunc
	registrars     []RouteRegistrar
	teamRegistrars []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g., "v1", "v2")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// WithTeamMiddleware sets the middleware guarding the team-scoped group
func WithTeamMiddleware(middleware ...gin.HandlerFunc) RouterOption {
	return func(r *Router) {
		r.teamMiddleware = middleware
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Use adds middleware applied to every route under the API prefix
func (r *Router) Use(middleware ...gin.HandlerFunc) *Router {
	r.apiMiddleware = append(r.apiMiddleware, middleware...)
	return r
}

// Register adds a RouteRegistrar mounted under the API prefix
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// RegisterTeamScoped adds a RouteRegistrar mounted under /teams/:teamId
func (r *Router) RegisterTeamScoped(registrar RouteRegistrar) *Router {
	r.teamRegistrars = append(r.teamRegistrars, registrar)
	return r
}

// Setup registers all routes with the engine
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.apiVersion)
	if len(r.apiMiddleware) > 0 {
		api.Use(r.apiMiddleware...)
	}

	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}

	if len(r.teamRegistrars) == 0 {
		return
	}

	teamScope := api.Group("/teams/:teamId")
	if len(r.teamMiddleware) > 0 {
		teamScope.Use(r.teamMiddleware...)
	}
	for _, registrar := range r.teamRegistrars {
		registrar.RegisterRoutes(teamScope)
	}
}
