package core

import (
	"github.com/karics-io/karics/core/http"
	"github.com/karics-io/karics/core/router"
)

// Service turns one parsed request into one response. Call is invoked
// exactly once per frame, always from the connection's own goroutine, so a
// Service needs no internal locking for connection-local state. Blocking
// work inside Call suspends only that goroutine. The request and its views
// must not be retained past the call.
type Service interface {
	Call(req *http.Request, resp *http.Response) error
}

// ServiceFactory creates one Service per accepted connection. NewService
// must be pure with respect to shared state: it reads shared immutable
// structures (typically the router) and allocates a fresh Service.
type ServiceFactory interface {
	NewService(connID uint64) Service
}

// ServiceFunc adapts a plain function to the Service interface.
type ServiceFunc func(req *http.Request, resp *http.Response) error

func (f ServiceFunc) Call(req *http.Request, resp *http.Response) error {
	return f(req, resp)
}

// FactoryFunc adapts a plain function to the ServiceFactory interface.
type FactoryFunc func(connID uint64) Service

func (f FactoryFunc) NewService(connID uint64) Service {
	return f(connID)
}

// RouterService is the default Service: it delegates to Router.Handle,
// which already maps missing routes to the fixed 404/405 responses.
type RouterService struct {
	router *router.Router
	ctx    any
}

func (s *RouterService) Call(req *http.Request, resp *http.Response) error {
	out := s.router.Handle(req.Method, req.Path)
	resp.CopyFrom(out)
	return nil
}

// Context returns the shared application state handed to the factory, or
// nil.
func (s *RouterService) Context() any {
	return s.ctx
}

// RouterFactory builds RouterServices over one shared router. The router
// is frozen on construction; every service reads the same immutable table.
type RouterFactory struct {
	router *router.Router
	ctx    any
}

// NewRouterFactory freezes rt and returns a factory serving it.
func NewRouterFactory(rt *router.Router) *RouterFactory {
	return &RouterFactory{router: rt.Freeze()}
}

// NewRouterFactoryWithContext additionally carries shared application
// state that every RouterService can reach through Context.
func NewRouterFactoryWithContext(rt *router.Router, ctx any) *RouterFactory {
	return &RouterFactory{router: rt.Freeze(), ctx: ctx}
}

func (f *RouterFactory) NewService(connID uint64) Service {
	return &RouterService{router: f.router, ctx: f.ctx}
}
