package testing

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// Middleware wraps an [http.Handler].
type Middleware func(http.Handler) http.Handler

// Router is a method-aware router over [http.ServeMux] for fake back ends.
//
// Several methods can share a path; unknown methods get 405.
type Router struct {
	mu          sync.Mutex
	mux         *http.ServeMux
	routes      map[string]map[string]http.Handler
	middlewares []Middleware
}

// NewRouter creates an empty [Router].
func NewRouter() *Router {
	return &Router{mux: http.NewServeMux(), routes: map[string]map[string]http.Handler{}}
}

// Use adds [Middleware], applied in the order it's added.
func (r *Router) Use(middleware ...Middleware) {
	r.middlewares = append(r.middlewares, middleware...)
}

// Handle registers handler for method on path. Paths accept [http.ServeMux] wildcards such as {id}.
func (r *Router) Handle(method, path string, handler http.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	methods, ok := r.routes[path]
	if !ok {
		methods = map[string]http.Handler{}
		r.routes[path] = methods
		r.mux.Handle(path, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			r.mu.Lock()
			h, found := methods[strings.ToUpper(req.Method)]
			r.mu.Unlock()
			if !found {
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
				return
			}
			h.ServeHTTP(w, req)
		}))
	}
	methods[strings.ToUpper(method)] = handler
}

// ServeHTTP implements [http.Handler] for the entire router.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.Apply(r.mux).ServeHTTP(w, req)
}

// Apply wraps a handler with all registered middleware (last added wraps first).
func (r *Router) Apply(handler http.Handler) http.Handler {
	wrapped := handler
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		wrapped = r.middlewares[i](wrapped)
	}
	return wrapped
}

// Request is a request observed by a [Backend].
type Request struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   []byte
}

// Backend is an httptest server standing in for the media manager API.
type Backend struct {
	*Router
	Server *httptest.Server

	mu       sync.Mutex
	requests []Request
}

// NewBackend starts a fake back end that records every request. It is closed with the test.
func NewBackend(t *testing.T) *Backend {
	t.Helper()

	b := &Backend{Router: NewRouter()}
	b.Use(b.record)
	b.Server = httptest.NewServer(b.Router)
	t.Cleanup(b.Server.Close)
	return b
}

func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		b.mu.Lock()
		b.requests = append(b.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Header: r.Header.Clone(),
			Body:   body,
		})
		b.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

// URL is the base URL to hand to a client.
func (b *Backend) URL() string {
	return b.Server.URL
}

// HandleFunc registers fn for method on path.
func (b *Backend) HandleFunc(method, path string, fn http.HandlerFunc) {
	b.Handle(method, path, fn)
}

// JSON registers a handler answering method on path with status and body encoded as JSON.
func (b *Backend) JSON(method, path string, status int, body any) {
	b.Handle(method, path, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, status, body)
	}))
}

// Requests returns a copy of every recorded request.
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Request, len(b.requests))
	copy(out, b.requests)
	return out
}

// Count returns how many requests hit method and path.
func (b *Backend) Count(method, path string) int {
	n := 0
	for _, r := range b.Requests() {
		if strings.EqualFold(r.Method, method) && r.Path == path {
			n++
		}
	}
	return n
}

// Last returns the most recent request to method and path.
func (b *Backend) Last(method, path string) (Request, bool) {
	reqs := b.Requests()
	for i := len(reqs) - 1; i >= 0; i-- {
		if strings.EqualFold(reqs[i].Method, method) && reqs[i].Path == path {
			return reqs[i], true
		}
	}
	return Request{}, false
}

// WriteJSON writes body as JSON with status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}
