// Package router assembles the gin engine and registers the API routes.
package router

import (
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
)

// APIVersion is the path segment every domain group is mounted under
const APIVersion = "v1"

// Mount registers groups under /api/<version> on engine. An empty version
// uses APIVersion.
func Mount(engine *gin.Engine, version string, groups ...*DomainGroup) {
	if version == "" {
		version = APIVersion
	}
	api := engine.Group("/api/" + version)
	for _, g := range groups {
		if g != nil {
			g.mount(api)
		}
	}
}

// DomainGroup collects one domain's routes under a prefix. Routes are
// buffered so a group can be built before the engine exists.
type DomainGroup struct {
	name       string
	prefix     string
	routes     []route
	subgroups  []*DomainGroup
	middleware []gin.HandlerFunc
}

type route struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// NewDomainGroup creates an empty group
func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{name: name, prefix: prefix}
}

// Use adds group-scoped middleware
func (dg *DomainGroup) Use(middleware ...gin.HandlerFunc) *DomainGroup {
	dg.middleware = append(dg.middleware, middleware...)
	return dg
}

func (dg *DomainGroup) GET(p string, h ...gin.HandlerFunc) *DomainGroup {
	return dg.add(http.MethodGet, p, h)
}

func (dg *DomainGroup) POST(p string, h ...gin.HandlerFunc) *DomainGroup {
	return dg.add(http.MethodPost, p, h)
}

func (dg *DomainGroup) PUT(p string, h ...gin.HandlerFunc) *DomainGroup {
	return dg.add(http.MethodPut, p, h)
}

func (dg *DomainGroup) DELETE(p string, h ...gin.HandlerFunc) *DomainGroup {
	return dg.add(http.MethodDelete, p, h)
}

func (dg *DomainGroup) add(method, p string, h []gin.HandlerFunc) *DomainGroup {
	dg.routes = append(dg.routes, route{method: method, path: p, handlers: h})
	return dg
}

// Group nests a sub-group under this group's prefix
func (dg *DomainGroup) Group(name, prefix string) *DomainGroup {
	sub := NewDomainGroup(name, prefix)
	dg.subgroups = append(dg.subgroups, sub)
	return sub
}

// Name returns the group name
func (dg *DomainGroup) Name() string { return dg.name }

// Paths lists "METHOD /prefix/path" for every route, sub-groups included
func (dg *DomainGroup) Paths() []string {
	var out []string
	dg.walk("", func(method, full string) { out = append(out, method+" "+full) })
	return out
}

func (dg *DomainGroup) walk(base string, visit func(method, full string)) {
	prefix := path.Join("/", base, dg.prefix)
	for _, r := range dg.routes {
		full := prefix
		if r.path != "" {
			full = path.Join(prefix, r.path)
		}
		visit(r.method, full)
	}
	for _, sub := range dg.subgroups {
		sub.walk(prefix, visit)
	}
}

func (dg *DomainGroup) mount(rg *gin.RouterGroup) {
	group := rg.Group(dg.prefix)
	if len(dg.middleware) > 0 {
		group.Use(dg.middleware...)
	}
	for _, r := range dg.routes {
		group.Handle(r.method, r.path, r.handlers...)
	}
	for _, sub := range dg.subgroups {
		sub.mount(group)
	}
}
