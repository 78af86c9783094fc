// Package router assembles the gin engine: middleware chain, route groups
// and the handlers behind them.
package router

import (
	"github.com/gin-gonic/gin"
)

// Route is one endpoint of a resource, relative to the resource prefix
type Route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
}

// Resource is a set of routes sharing a path prefix and middleware
type Resource struct {
	Name       string
	Prefix     string
	Middleware []gin.HandlerFunc
	Routes     []Route
}

func (res Resource) mount(parent *gin.RouterGroup) {
	group := parent.Group(res.Prefix, res.Middleware...)
	for _, rt := range res.Routes {
		group.Handle(rt.Method, rt.Path, rt.Handler)
	}
}

// API mounts resources under /api/<version> behind a shared middleware
// chain. Routes registered directly on the engine stay outside that chain.
type API struct {
	version    string
	middleware []gin.HandlerFunc
	resources  []Resource
}

// NewAPI creates an API for the given version, e.g. "v1"
func NewAPI(version string) *API {
	return &API{version: version}
}

// Prefix returns the path every resource is mounted under
func (a *API) Prefix() string {
	return "/api/" + a.version
}

// Use appends middleware run before every API route
func (a *API) Use(middleware ...gin.HandlerFunc) *API {
	a.middleware = append(a.middleware, middleware...)
	return a
}

// Add appends resources
func (a *API) Add(resources ...Resource) *API {
	a.resources = append(a.resources, resources...)
	return a
}

// Mount registers every resource on engine
func (a *API) Mount(engine *gin.Engine) {
	api := engine.Group(a.Prefix(), a.middleware...)
	for _, res := range a.resources {
		res.mount(api)
	}
}
