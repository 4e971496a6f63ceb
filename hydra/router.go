package hydra

// router.go - the routing table shared by the API and its tests.
//
// resource operations are registered on a chi mux together with their resource class,
// so the same table serves requests, generates IRIs and resolves IRIs to resource classes.

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
)

// Route is the result of matching an IRI.
type Route struct {
	ResourceClass string
	Operation     Operation
	Pattern       string
	Params        map[string]string
}

type routeContextKey struct{}

// RouteFromContext returns the route of the resource operation handling the request.
func RouteFromContext(ctx context.Context) (*Route, bool) {
	route, ok := ctx.Value(routeContextKey{}).(*Route)
	return route, ok
}

// Router is a chi mux that records the resource class and operation of every resource route.
type Router struct {
	mux *chi.Mux

	mu sync.RWMutex

	// operations by resource class, in registration order
	operations map[string][]Operation

	// resource class by "METHOD pattern"
	routes map[string]string
}

// NewRouter returns an empty router.
func NewRouter() *Router {
	return &Router{
		mux:        chi.NewRouter(),
		operations: make(map[string][]Operation),
		routes:     make(map[string]string),
	}
}

// Use appends middleware to the router.
// Middleware must be added before the first route is registered (a chi restriction).
func (rt *Router) Use(middlewares ...func(http.Handler) http.Handler) {
	rt.mux.Use(middlewares...)
}

// Mux returns the underlying chi mux, used to register non-resource routes such as /health.
func (rt *Router) Mux() *chi.Mux {
	return rt.mux
}

func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rt.mux.ServeHTTP(w, r)
}

// Handle registers the handler for an operation on a resource class.
// The handler can retrieve the matched class and operation with RouteFromContext.
func (rt *Router) Handle(class string, op Operation, h http.HandlerFunc) error {
	if h == nil {
		return fmt.Errorf("nil handler for %s %s", op.Method, op.URITemplate)
	}
	if err := rt.add(class, op); err != nil {
		return err
	}

	rt.mux.Method(op.Method, op.URITemplate, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := &Route{
			ResourceClass: class,
			Operation:     op,
			Pattern:       op.URITemplate,
			Params:        urlParams(chi.RouteContext(r.Context())),
		}
		h(w, r.WithContext(context.WithValue(r.Context(), routeContextKey{}, route)))
	}))
	return nil
}

// Register records resource operations without a handler.
// The routes answer 501 Not Implemented but are available to Match and IRI.
func (rt *Router) Register(class string, ops ...Operation) error {
	for _, op := range ops {
		if err := rt.Handle(class, op, notImplemented); err != nil {
			return err
		}
	}
	return nil
}

func notImplemented(w http.ResponseWriter, _ *http.Request) {
	RespondWithStatusCodeOnly(w, http.StatusNotImplemented)
}

func (rt *Router) add(class string, op Operation) error {
	if class == "" {
		return fmt.Errorf("resource class is required")
	}
	if op.Method == "" {
		return fmt.Errorf("operation %q on %s has no method", op.Name, class)
	}
	if !strings.HasPrefix(op.URITemplate, "/") {
		return fmt.Errorf("URI template %q must start with /", op.URITemplate)
	}
	if op.URITemplate != "/" && strings.HasSuffix(op.URITemplate, "/") {
		return fmt.Errorf("URI template %q must not end with /", op.URITemplate)
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	key := op.Method + " " + op.URITemplate
	if existing, ok := rt.routes[key]; ok {
		return fmt.Errorf("route %s is already registered for %s", key, existing)
	}
	for k, existing := range rt.routes {
		if existing != class && strings.HasSuffix(k, " "+op.URITemplate) {
			return fmt.Errorf("URI template %s is already used by %s", op.URITemplate, existing)
		}
	}
	for _, o := range rt.operations[class] {
		if op.Name != "" && o.Name == op.Name {
			return fmt.Errorf("operation %q is already registered for %s", op.Name, class)
		}
	}

	rt.routes[key] = class
	rt.operations[class] = append(rt.operations[class], op)
	return nil
}

// Match resolves an IRI (a path or an absolute URL) to the resource route that serves it with GET.
// Query strings and fragments are ignored.
// Returns an error wrapping ErrResourceNotFound when no resource route matches.
func (rt *Router) Match(iri string) (*Route, error) {
	u, err := url.Parse(iri)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a valid IRI: %v", ErrResourceNotFound, iri, err)
	}
	path := u.EscapedPath()
	if path == "" {
		return nil, fmt.Errorf("%w: %q has no path", ErrResourceNotFound, iri)
	}

	rctx := chi.NewRouteContext()
	pattern := rt.mux.Find(rctx, http.MethodGet, path)
	if pattern == "" {
		return nil, fmt.Errorf("%w: no route matches %q", ErrResourceNotFound, iri)
	}

	rt.mu.RLock()
	defer rt.mu.RUnlock()

	class, ok := rt.routes[http.MethodGet+" "+pattern]
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a resource route", ErrResourceNotFound, iri)
	}
	op, _ := rt.find(class, func(o Operation) bool {
		return o.Method == http.MethodGet && o.URITemplate == pattern
	})

	return &Route{
		ResourceClass: class,
		Operation:     op,
		Pattern:       pattern,
		Params:        urlParams(rctx),
	}, nil
}

// Resources returns the registered resource classes, sorted.
func (rt *Router) Resources() []string {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	classes := make([]string, 0, len(rt.operations))
	for class := range rt.operations {
		classes = append(classes, class)
	}
	slices.Sort(classes)
	return classes
}

// Operations returns the operations registered for a resource class.
func (rt *Router) Operations(class string) []Operation {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return slices.Clone(rt.operations[class])
}

// find must be called with the read lock held
func (rt *Router) find(class string, pred func(Operation) bool) (Operation, bool) {
	for _, op := range rt.operations[class] {
		if pred(op) {
			return op, true
		}
	}
	return Operation{}, false
}

func urlParams(rctx *chi.Context) map[string]string {
	params := make(map[string]string)
	if rctx == nil {
		return params
	}
	for i, k := range rctx.URLParams.Keys {
		if k == "*" || i >= len(rctx.URLParams.Values) {
			continue
		}
		v := rctx.URLParams.Values[i]
		if unescaped, err := url.PathUnescape(v); err == nil {
			v = unescaped
		}
		params[k] = v
	}
	return params
}
