// Package router groups the storefront routes by domain and mounts them on the engine.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RouteRegistrar adds routes to a group
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router mounts registrars at the root of the engine. The storefront
// clients call unversioned paths such as /events and /shipping.
type Router struct {
	engine     *gin.Engine
	registrars []RouteRegistrar
}

func NewRouter(engine *gin.Engine) *Router {
	return &Router{engine: engine}
}

// Register queues a registrar for Setup
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup registers every queued registrar in order
func (r *Router) Setup() {
	root := r.engine.Group("/")
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(root)
	}
}

// DomainGroup is the routes of one domain under a shared prefix, behind the
// middleware that guards them
type DomainGroup struct {
	name       string
	prefix     string
	middleware []gin.HandlerFunc
	routes     []route
	mounted    []RouteRegistrar
}

type route struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{name: name, prefix: prefix}
}

// Name identifies the domain
func (dg *DomainGroup) Name() string { return dg.name }

// Use guards every route of the group, mounted registrars included
func (dg *DomainGroup) Use(middleware ...gin.HandlerFunc) *DomainGroup {
	dg.middleware = append(dg.middleware, middleware...)
	return dg
}

func (dg *DomainGroup) GET(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	dg.routes = append(dg.routes, route{http.MethodGet, path, handlers})
	return dg
}

func (dg *DomainGroup) POST(path string, handlers ...gin.HandlerFunc) *DomainGroup {
	dg.routes = append(dg.routes, route{http.MethodPost, path, handlers})
	return dg
}

// Mount lets a registrar add its own routes under the group prefix
func (dg *DomainGroup) Mount(registrar RouteRegistrar) *DomainGroup {
	dg.mounted = append(dg.mounted, registrar)
	return dg
}

func (dg *DomainGroup) RegisterRoutes(rg *gin.RouterGroup) {
	group := rg.Group(dg.prefix, dg.middleware...)
	for _, rt := range dg.routes {
		group.Handle(rt.method, rt.path, rt.handlers...)
	}
	for _, registrar := range dg.mounted {
		registrar.RegisterRoutes(group)
	}
}
