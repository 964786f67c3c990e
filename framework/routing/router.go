package routing

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/km-arc/go-autowire/framework/container"
	gohttp "github.com/km-arc/go-autowire/framework/http"
)

// Router wraps chi.Router with Laravel-style helpers. Controllers named by
// abstract are resolved from the container on every request.
type Router struct {
	mux   chi.Router
	state *state
}

// state is shared by a router and its groups.
type state struct {
	mu       sync.Mutex // the container is not safe for concurrent use
	resolver container.Resolver
	logger   *zap.Logger
	debug    bool
}

// Option configures a Router.
type Option func(*state)

// WithResolver sets the container controllers are resolved from.
func WithResolver(r container.Resolver) Option { return func(s *state) { s.resolver = r } }

// WithLogger sets the request and resolution logger.
func WithLogger(l *zap.Logger) Option { return func(s *state) { s.logger = l } }

// WithDebug puts resolution errors in response bodies.
func WithDebug(debug bool) Option { return func(s *state) { s.debug = debug } }

// New creates a Router with request ids, zap request logging, panic
// recovery and real-IP handling.
func New(opts ...Option) *Router {
	s := &state{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(s.logger))
	r.Use(middleware.Recoverer)
	return &Router{mux: r, state: s}
}

// RequestLogger logs one line per request.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("took", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}

// ── HTTP verbs ───────────────────────────────────────────────────────────────

func (r *Router) Get(pattern string, h http.HandlerFunc)    { r.mux.Get(pattern, h) }
func (r *Router) Post(pattern string, h http.HandlerFunc)   { r.mux.Post(pattern, h) }
func (r *Router) Put(pattern string, h http.HandlerFunc)    { r.mux.Put(pattern, h) }
func (r *Router) Patch(pattern string, h http.HandlerFunc)  { r.mux.Patch(pattern, h) }
func (r *Router) Delete(pattern string, h http.HandlerFunc) { r.mux.Delete(pattern, h) }

// Any registers a handler for all common HTTP methods.
func (r *Router) Any(pattern string, h http.HandlerFunc) {
	for _, m := range []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"} {
		r.mux.Method(m, pattern, h)
	}
}

// ── Groups & Prefixes ────────────────────────────────────────────────────────

// Group creates an inline group. Laravel: Route::group([], fn)
func (r *Router) Group(fn func(r *Router)) {
	r.mux.Group(func(mx chi.Router) {
		fn(&Router{mux: mx, state: r.state})
	})
}

// Prefix creates a sub-router under pattern. Laravel: Route::prefix('/api')
func (r *Router) Prefix(pattern string, fn func(r *Router)) {
	r.mux.Route(pattern, func(mx chi.Router) {
		fn(&Router{mux: mx, state: r.state})
	})
}

// Middleware adds one or more middleware to the router.
func (r *Router) Middleware(mw ...func(http.Handler) http.Handler) {
	r.mux.Use(mw...)
}

// ── Controllers ──────────────────────────────────────────────────────────────

// ResourceController handles the standard RESTful actions.
type ResourceController interface {
	Index(w http.ResponseWriter, r *http.Request)
	Store(w http.ResponseWriter, r *http.Request)
	Show(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Destroy(w http.ResponseWriter, r *http.Request)
}

// Resource registers RESTful routes for the controller abstract resolves to.
//
//	GET    /photos           → Index
//	POST   /photos           → Store
//	GET    /photos/{id}      → Show
//	PUT    /photos/{id}      → Update
//	DELETE /photos/{id}      → Destroy
//
//	// Laravel: Route::resource('photos', PhotoController::class)
//	router.Resource("/photos", "PhotoController")
func (r *Router) Resource(pattern, abstract string) {
	act := func(fn func(ResourceController, http.ResponseWriter, *http.Request)) http.HandlerFunc {
		return Action(r, abstract, fn)
	}
	r.mux.Get(pattern, act(ResourceController.Index))
	r.mux.Post(pattern, act(ResourceController.Store))
	r.mux.Get(pattern+"/{id}", act(ResourceController.Show))
	r.mux.Put(pattern+"/{id}", act(ResourceController.Update))
	r.mux.Patch(pattern+"/{id}", act(ResourceController.Update))
	r.mux.Delete(pattern+"/{id}", act(ResourceController.Destroy))
}

// Action returns a handler that resolves abstract, asserts it to T and calls
// fn. A registered service id is shared across requests; anything else is
// built fresh per request.
//
//	// Laravel: Route::get('/users', [UserController::class, 'index'])
//	router.Get("/users", routing.Action(router, "UserController", (*UserController).Index))
func Action[T any](r *Router, abstract string, fn func(T, http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		v, err := r.resolve(abstract)
		if err != nil {
			r.fail(w, req, abstract, err)
			return
		}
		ctrl, ok := v.(T)
		if !ok {
			var zero T
			r.fail(w, req, abstract, fmt.Errorf("routing: [%s] resolved to %T, want %T", abstract, v, &zero))
			return
		}
		fn(ctrl, w, req)
	}
}

func (r *Router) resolve(abstract string) (any, error) {
	s := r.state
	if s.resolver == nil {
		return nil, fmt.Errorf("routing: no container to resolve [%s]", abstract)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.resolver.Has(abstract) {
		return s.resolver.Get(abstract)
	}
	return s.resolver.Instance(abstract, nil)
}

func (r *Router) fail(w http.ResponseWriter, req *http.Request, abstract string, err error) {
	r.state.logger.Error("controller resolution failed",
		zap.String("abstract", abstract),
		zap.String("path", req.URL.Path),
		zap.String("request_id", middleware.GetReqID(req.Context())),
		zap.Error(err))
	gohttp.NewResponse(w).Failure(err, r.state.debug)
}

// ── Params ───────────────────────────────────────────────────────────────────

// Param extracts a URL param. Laravel: $request->route('id')
func Param(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Handler returns the underlying http.Handler.
func (r *Router) Handler() http.Handler {
	return r.mux
}
