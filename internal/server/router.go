package server

import (
	"net/http"

	"github.com/gorilla/mux"
)

// MuxRouter is an HTTP router implementing the [Router] interface on top of [mux.Router].
//
// Middleware runs after route matching, so it can read the matched path template.
type MuxRouter struct {
	mux *mux.Router
}

// NewMuxRouter creates a new [MuxRouter] instance.
func NewMuxRouter() *MuxRouter {
	return &MuxRouter{mux: mux.NewRouter()}
}

// Use adds [Middleware] to the router's middleware stack, applied in the order it's added.
func (r *MuxRouter) Use(middleware ...Middleware) {
	for _, m := range middleware {
		r.mux.Use(mux.MiddlewareFunc(m))
	}
}

// Handle registers a handler for the specified HTTP method and path template.
//
// Requests with another method get 405.
func (r *MuxRouter) Handle(method, path string, handler http.Handler) {
	r.mux.Handle(path, handler).Methods(method)
}

// Handler registers every route returned by [Handler.Routes].
func (r *MuxRouter) Handler(handler Handler) {
	for _, route := range handler.Routes() {
		r.mux.Handle(route.Path, route.Handler).Methods(route.Method).Name(route.Name)
	}
}

// ServeHTTP implements [http.Handler] for the entire router.
func (r *MuxRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// routeTemplate returns the matched path template, or "unmatched".
func routeTemplate(req *http.Request) string {
	if route := mux.CurrentRoute(req); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}
