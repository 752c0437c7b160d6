// Package router implements the ordered, first-match-wins route table.
//
// Registration order is load-bearing: Handle walks the routes in the order
// they were registered and the first route whose method and pattern both
// match wins, even when a later route would match "better". Overlapping and
// duplicate registrations are therefore legal; later ones are simply
// shadowed.
package router

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/karics-io/karics/core/http"
)

// Params are the capture-group values of a pattern match, in group order.
// Literal matches carry no params.
type Params []string

// Handler turns the captured params of a matched route into a response.
type Handler func(params Params) *http.Response

// MatchKind selects how a pattern is compared against request paths.
type MatchKind int

const (
	// Exact compares the whole path. Patterns without regexp
	// metacharacters use a plain string comparison; trailing slashes are
	// significant, so "/users" does not match "/users/".
	Exact MatchKind = iota
	// Prefix matches any path beginning with the pattern.
	Prefix
	// Regex matches the whole path against the pattern, which may contain
	// capture groups. The pattern is compiled once at registration.
	Regex
)

var (
	ErrNotFound         = errors.New("no route matches path")
	ErrMethodNotAllowed = errors.New("no routes registered for method")
	ErrFrozen           = errors.New("router is frozen")
	ErrNilHandler       = errors.New("nil handler")
)

// Route is one immutable (method, pattern, handler) registration, owned by
// the router.
type Route struct {
	method  string
	pattern string
	kind    MatchKind
	literal bool // plain string comparison suffices
	re      *regexp.Regexp
	handler Handler
}

func (rt *Route) match(path string) (Params, bool) {
	if rt.literal {
		switch rt.kind {
		case Exact:
			return nil, path == rt.pattern
		case Prefix:
			return nil, strings.HasPrefix(path, rt.pattern)
		}
	}
	m := rt.re.FindStringSubmatch(path)
	if m == nil {
		return nil, false
	}
	if len(m) == 1 {
		return nil, true
	}
	return Params(m[1:]), true
}

// Router is an ordered route table. It is built single-threaded before the
// server starts, then frozen and shared read-only by every connection; no
// mutation happens after Freeze, so concurrent matching needs no locking.
type Router struct {
	routes []*Route
	frozen atomic.Bool
}

// New creates an empty router.
func New() *Router {
	return &Router{routes: make([]*Route, 0, 32)}
}

// Route registers a handler. Pattern compilation errors surface here, at
// registration time, never at match time.
func (r *Router) Route(method, pattern string, kind MatchKind, handler Handler) error {
	if r.frozen.Load() {
		return ErrFrozen
	}
	if handler == nil {
		return ErrNilHandler
	}

	rt := &Route{
		method:  method,
		pattern: pattern,
		kind:    kind,
		handler: handler,
	}

	if kind != Regex && pattern == regexp.QuoteMeta(pattern) {
		rt.literal = true
	} else {
		var expr string
		switch kind {
		case Exact:
			expr = `\A(?:` + pattern + `)\z`
		case Prefix:
			expr = `\A(?:` + pattern + `)`
		case Regex:
			expr = `\A(?:` + pattern + `)\z`
		default:
			return fmt.Errorf("invalid match kind %d", kind)
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return fmt.Errorf("compile pattern %q: %w", pattern, err)
		}
		rt.re = re
	}

	r.routes = append(r.routes, rt)
	return nil
}

// GET registers a Regex-kind route for GET.
func (r *Router) GET(pattern string, handler Handler) error {
	return r.Route("GET", pattern, Regex, handler)
}

// POST registers a Regex-kind route for POST.
func (r *Router) POST(pattern string, handler Handler) error {
	return r.Route("POST", pattern, Regex, handler)
}

// PUT registers a Regex-kind route for PUT.
func (r *Router) PUT(pattern string, handler Handler) error {
	return r.Route("PUT", pattern, Regex, handler)
}

// DELETE registers a Regex-kind route for DELETE.
func (r *Router) DELETE(pattern string, handler Handler) error {
	return r.Route("DELETE", pattern, Regex, handler)
}

// PATCH registers a Regex-kind route for PATCH.
func (r *Router) PATCH(pattern string, handler Handler) error {
	return r.Route("PATCH", pattern, Regex, handler)
}

// HEAD registers a Regex-kind route for HEAD.
func (r *Router) HEAD(pattern string, handler Handler) error {
	return r.Route("HEAD", pattern, Regex, handler)
}

// OPTIONS registers a Regex-kind route for OPTIONS.
func (r *Router) OPTIONS(pattern string, handler Handler) error {
	return r.Route("OPTIONS", pattern, Regex, handler)
}

// Any registers the same pattern and handler for several methods.
func (r *Router) Any(methods []string, pattern string, handler Handler) error {
	for _, m := range methods {
		if err := r.Route(m, pattern, Regex, handler); err != nil {
			return err
		}
	}
	return nil
}

// Freeze marks the table immutable. Further Route calls fail with
// ErrFrozen. Returns the router for chaining into a factory.
func (r *Router) Freeze() *Router {
	r.frozen.Store(true)
	return r
}

// Len returns the number of registered routes.
func (r *Router) Len() int {
	return len(r.routes)
}

// Match finds the first route matching (method, path) in registration
// order. A query string on path is ignored. ErrMethodNotAllowed is returned
// when not a single route is registered for the method,
// ErrNotFound otherwise.
func (r *Router) Match(method, path string) (Handler, Params, error) {
	if idx := strings.IndexByte(path, '?'); idx != -1 {
		path = path[:idx]
	}

	methodSeen := false
	for _, rt := range r.routes {
		if rt.method != method {
			continue
		}
		methodSeen = true
		if params, ok := rt.match(path); ok {
			return rt.handler, params, nil
		}
	}

	if !methodSeen {
		return nil, nil, ErrMethodNotAllowed
	}
	return nil, nil, ErrNotFound
}

// Handle matches and invokes the winning handler, returning its response
// unchanged. Misses map to the fixed JSON error responses.
func (r *Router) Handle(method, path string) *http.Response {
	handler, params, err := r.Match(method, path)
	if err != nil {
		switch {
		case errors.Is(err, ErrMethodNotAllowed):
			return errorResponse(http.StatusMethodNotAllowed, `{"error": "Method Not Allowed"}`)
		default:
			return errorResponse(http.StatusNotFound, `{"error": "Not Found"}`)
		}
	}
	return handler(params)
}

func errorResponse(code int, body string) *http.Response {
	resp := http.NewResponse()
	resp.StatusCode(code, "").
		Header("Content-Type", "application/json").
		BodyString(body)
	return resp
}
