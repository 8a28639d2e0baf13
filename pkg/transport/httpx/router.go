// Package httpx is the HTTP routing seam used by the keyset service.
package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimd "github.com/go-chi/chi/v5/middleware"
)

// Router is the minimal HTTP router contract the service depends on.
type Router interface {
	Get(path string, h http.Handler)
	Post(path string, h http.Handler)
	// With returns a Router whose routes run through the extra middleware.
	With(mw ...func(http.Handler) http.Handler) Router
	Use(mw ...func(http.Handler) http.Handler)
	Mux() http.Handler
}

type chiRouter struct{ r chi.Router }

// NewChi returns a Chi-backed Router with request ids and panic recovery.
func NewChi() Router {
	mux := chi.NewRouter()
	mux.Use(chimd.RequestID, chimd.Recoverer)
	return &chiRouter{r: mux}
}

func (c *chiRouter) Get(path string, h http.Handler)  { c.r.Method(http.MethodGet, path, h) }
func (c *chiRouter) Post(path string, h http.Handler) { c.r.Method(http.MethodPost, path, h) }
func (c *chiRouter) Use(mw ...func(http.Handler) http.Handler) {
	c.r.Use(mw...)
}
func (c *chiRouter) With(mw ...func(http.Handler) http.Handler) Router {
	return &chiRouter{r: c.r.With(mw...)}
}
func (c *chiRouter) Mux() http.Handler { return c.r }

// Param returns a named path parameter ("/keys/{kid}").
func Param(r *http.Request, name string) string { return chi.URLParam(r, name) }
