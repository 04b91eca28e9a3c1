// Package web hosts the single-page app: the emitted bundle, the page route
// table, the backend proxy and the metrics endpoint.
package web

import (
	"fmt"
	"io/fs"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/luck/internal/bundle"
	"github.com/okian/luck/internal/router"
	"github.com/okian/luck/pkg/logger"
	"github.com/okian/luck/pkg/metrics"
)

// Server is the http.Handler of luck-web. It is built once by New.
type Server struct {
	cfg         bundle.Config
	dev         bool
	files       fs.FS
	routes      *router.Table
	log         logger.Logger
	metrics     *metrics.Manager
	gatherer    prometheus.Gatherer
	corsOrigins []string

	index   []byte
	handler http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithDev serves the bundle from cfg.OutDir on disk and re-reads index.html
// on every request.
func WithDev(dev bool) Option {
	return func(s *Server) { s.dev = dev }
}

// WithFS serves the bundle from fsys instead of the embedded or on-disk copy.
func WithFS(fsys fs.FS) Option {
	return func(s *Server) { s.files = fsys }
}

// WithRoutes replaces the default route table.
func WithRoutes(t *router.Table) Option {
	return func(s *Server) {
		if t != nil {
			s.routes = t
		}
	}
}

// WithLogger sets the access and proxy logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics records request metrics on m and exposes g on /metrics.
func WithMetrics(m *metrics.Manager, g prometheus.Gatherer) Option {
	return func(s *Server) {
		if m != nil {
			s.metrics = m
		}
		if g != nil {
			s.gatherer = g
		}
	}
}

// WithCORSOrigins enables CORS for origins. An empty list leaves it off.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) { s.corsOrigins = origins }
}

// New validates cfg, opens the bundle and wires the router.
func New(cfg bundle.Config, opts ...Option) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Server{
		cfg:      cfg,
		routes:   router.Default(),
		log:      logger.Nop(),
		metrics:  metrics.Default(),
		gatherer: metrics.GetRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.files == nil {
		if s.dev {
			s.files = os.DirFS(cfg.OutDir)
		} else {
			s.files = EmbeddedFS()
		}
	}

	index, err := s.readIndex()
	if err != nil {
		return nil, fmt.Errorf("open bundle: %w", err)
	}
	s.index = index

	if n, err := countFiles(s.files); err == nil {
		s.metrics.SetBundleFiles(n)
	}

	h, err := s.buildRouter()
	if err != nil {
		return nil, err
	}
	s.handler = h
	return s, nil
}

func (s *Server) buildRouter() (http.Handler, error) {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(accessLog(s.log))
	r.Use(chimiddleware.Recoverer)
	r.Use(metricsMiddleware(s.metrics))
	if len(s.corsOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.corsOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", RequestIDHeader},
			ExposedHeaders: []string{RequestIDHeader},
			MaxAge:         300,
		}))
	}

	for _, rule := range s.cfg.ProxyRules() {
		p, err := newProxy(rule, s.log, s.metrics)
		if err != nil {
			return nil, err
		}
		r.Handle(rule.Prefix, p)
		r.Handle(rule.Prefix+"/*", p)
	}

	r.Get(s.cfg.AssetPath()+"*", s.serveAsset)
	r.Head(s.cfg.AssetPath()+"*", s.serveAsset)
	r.Get("/favicon.ico", s.serveFavicon)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	pages := s.pages()
	r.Handle("/", pages)
	r.Handle("/*", pages)
	r.NotFound(pages.ServeHTTP)
	return r, nil
}

// pages serves the route table with the bundle's index.html.
func (s *Server) pages() http.Handler {
	if !s.dev {
		return s.routes.Handler(s.index)
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		index, err := s.readIndex()
		if err != nil {
			s.log.Error(r.Context(), "read index", logger.Error(err))
			http.Error(w, "bundle unavailable", http.StatusServiceUnavailable)
			return
		}
		s.routes.Handler(index).ServeHTTP(w, r)
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Routes returns the page route table being served.
func (s *Server) Routes() *router.Table { return s.routes }

