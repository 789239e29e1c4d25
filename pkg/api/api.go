// Package api exposes the catalog, validator and serializer over HTTP.
//
// The surface is stateless: every request carries the workflow it is about,
// so any number of servers can run behind a load balancer. Validation
// reports are memoized in a [cache.Cache] keyed by a hash of the payload and
// the catalog, which makes Redis the natural backend for shared
// deployments.
//
//	srv := api.New(cat, api.WithCache(redisCache, time.Hour), api.WithLogger(logger))
//	err := srv.ListenAndServe(ctx, ":8080")
//
// Routes:
//
//	GET  /healthz
//	GET  /catalog                  node types grouped by category (?q= filters)
//	GET  /catalog/{id}             one node type
//	GET  /catalog/{id}/defaults    default configuration of a node type
//	POST /definitions/validate     { activatable, violations }
//	POST /definitions/canvas       definition -> canvas (?id=&name=&status=)
//	POST /canvas/definition        canvas -> definition
//	POST /definitions/migrate      any version -> current definition
//	POST /workflows/transition     { from, to, definition }
//	GET  /templates                template summaries (?category=&search=)
//	GET  /templates/{id}           one template with its definition
//	POST /templates/{id}/instantiate  { id, name, description } -> draft canvas
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/flowgraph/pkg/cache"
	"github.com/matzehuels/flowgraph/pkg/catalog"
	flowio "github.com/matzehuels/flowgraph/pkg/io"
	"github.com/matzehuels/flowgraph/pkg/observability"
)

// MaxBodyBytes bounds request payloads.
const MaxBodyBytes = 4 << 20

// DefaultCacheTTL is how long validation reports are kept.
const DefaultCacheTTL = 24 * time.Hour

// Server serves the HTTP surface for one catalog.
type Server struct {
	cat     *catalog.Catalog
	catHash string
	cache   cache.Cache
	keyer   cache.Keyer
	ttl     time.Duration
	logger  *log.Logger

	templates []flowio.Template
}

// Option configures a Server.
type Option func(*Server)

// WithCache memoizes validation reports in c for ttl (0 keeps them forever).
func WithCache(c cache.Cache, ttl time.Duration) Option {
	return func(s *Server) {
		if c != nil {
			s.cache = c
			s.ttl = ttl
		}
	}
}

// WithKeyer replaces the default cache keyer, e.g. with a scoped one.
func WithKeyer(k cache.Keyer) Option {
	return func(s *Server) {
		if k != nil {
			s.keyer = k
		}
	}
}

// WithLogger sets the request logger. By default nothing is logged.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTemplates replaces the builtin workflow templates. Their definitions
// must reference the server's catalog.
func WithTemplates(ts []flowio.Template) Option {
	return func(s *Server) {
		if ts != nil {
			s.templates = ts
		}
	}
}

// New returns a server for cat.
func New(cat *catalog.Catalog, opts ...Option) *Server {
	s := &Server{
		cat:    cat,
		cache:  cache.NewNullCache(),
		keyer:  cache.NewDefaultKeyer(),
		ttl:    DefaultCacheTTL,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.templates == nil {
		ts, err := flowio.BuiltinTemplates()
		if err != nil {
			s.logger.Warn("builtin templates unavailable", "err", err)
		}
		s.templates = ts
	}
	s.catHash = catalogHash(cat)
	return s
}

// catalogHash identifies a catalog's content for cache keys.
func catalogHash(cat *catalog.Catalog) string {
	data, _ := json.Marshal(cat.All())
	return cache.Hash(data)
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)
	r.Route("/catalog", func(r chi.Router) {
		r.Get("/", s.listCatalog)
		r.Get("/{typeID}", s.getNodeType)
		r.Get("/{typeID}/defaults", s.getDefaults)
	})
	r.Route("/definitions", func(r chi.Router) {
		r.Post("/validate", s.validateDefinition)
		r.Post("/canvas", s.definitionToCanvas)
		r.Post("/migrate", s.migrateDefinition)
	})
	r.Post("/canvas/definition", s.canvasToDefinition)
	r.Post("/workflows/transition", s.transition)
	r.Route("/templates", func(r chi.Router) {
		r.Get("/", s.listTemplates)
		r.Get("/{templateID}", s.getTemplate)
		r.Post("/{templateID}/instantiate", s.instantiateTemplate)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, errorBody{Code: "NOT_FOUND", Message: "no route for " + r.URL.Path})
	})
	return r
}

// logRequests logs each request at info level and feeds the HTTP hooks.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		hooks := observability.HTTP()
		hooks.OnRequest(r.Context(), r.Method, r.URL.Path)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		hooks.OnResponse(r.Context(), r.Method, r.URL.Path, status, elapsed)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", elapsed.Round(time.Microsecond),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
