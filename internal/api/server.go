// Package api serves the wishlist library over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/ramonehamilton/wishlist-companion/internal/api/response"
	"github.com/ramonehamilton/wishlist-companion/internal/api/websocket"
	"github.com/ramonehamilton/wishlist-companion/internal/config"
	"github.com/ramonehamilton/wishlist-companion/internal/library"
)

var (
	errRateLimited  = errors.New("rate limit exceeded")
	errContentType  = errors.New("content type must be application/json")
	errAlreadyStart = errors.New("api: server already started")
)

// Server represents the REST API server.
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	listener   net.Listener
	cfg        Config

	svc    *library.Service
	logger *slog.Logger

	// WebSocket hub for real-time events
	wsHub      *websocket.Hub
	wsObserver *websocket.Observer
	hubDone    chan struct{}

	limiter *rate.Limiter

	mu      sync.Mutex
	started bool
}

// Config holds configuration for the API server.
type Config struct {
	Port           int
	RateLimit      float64 // requests per second, 0 disables limiting
	Burst          int
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	CORSOrigins    []string
}

// DefaultConfig returns the default API server configuration.
func DefaultConfig() *Config {
	return &Config{
		Port:           8080,
		RequestTimeout: 60 * time.Second,
		MaxBodyBytes:   32 << 20,
		CORSOrigins:    []string{"*"},
	}
}

// ConfigFrom converts the [api] section of the application config.
func ConfigFrom(c *config.Config) (*Config, error) {
	timeout, err := c.GetRequestTimeout()
	if err != nil {
		return nil, err
	}
	return &Config{
		Port:           c.API.Port,
		RateLimit:      c.API.RateLimit,
		Burst:          c.API.Burst,
		RequestTimeout: timeout,
		MaxBodyBytes:   c.API.MaxBodyBytes,
		CORSOrigins:    c.API.CORSOrigins,
	}, nil
}

// NewServer creates a new API server backed by svc.
func NewServer(cfg *Config, svc *library.Service, logger *slog.Logger) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "api")

	s := &Server{
		router:  chi.NewRouter(),
		cfg:     *cfg,
		svc:     svc,
		logger:  logger,
		wsHub:   websocket.NewHub(logger, cfg.CORSOrigins...),
		hubDone: make(chan struct{}),
	}
	s.wsObserver = websocket.NewObserver(s.wsHub)
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = int(cfg.RateLimit) + 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures the middleware stack shared by every route.
func (s *Server) setupMiddleware() {
	// Request ID for tracing
	s.router.Use(middleware.RequestID)

	// Real IP detection
	s.router.Use(middleware.RealIP)

	s.router.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  slog.NewLogLogger(s.logger.Handler(), slog.LevelInfo),
		NoColor: true,
	}))

	// Panic recovery
	s.router.Use(middleware.Recoverer)

	s.router.Use(s.metricsMiddleware)

	origins := s.cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:*", "http://127.0.0.1:*", "https://localhost:*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

// apiMiddleware applies to /api/v1 only. /ws is long-lived and must not
// inherit the request timeout.
func (s *Server) apiMiddleware(r chi.Router) {
	if s.cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(s.cfg.RequestTimeout))
	}
	r.Use(s.rateLimitMiddleware)
	if s.cfg.MaxBodyBytes > 0 {
		r.Use(middleware.RequestSize(s.cfg.MaxBodyBytes))
	}
	// Content-Type enforcement for POST only (not GET/DELETE/OPTIONS)
	r.Use(s.jsonContentTypeMiddleware)
}

// rateLimitMiddleware rejects requests beyond the configured rate with 429.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			response.TooManyRequests(w, errRateLimited)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// metricsMiddleware counts requests and server errors.
func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.svc.Metrics().RecordRequest(ww.Status() >= http.StatusInternalServerError)
	})
}

// jsonContentTypeMiddleware enforces application/json content-type for requests with bodies.
func (s *Server) jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			// Skip if there's no content
			if r.ContentLength == 0 {
				next.ServeHTTP(w, r)
				return
			}

			contentType := r.Header.Get("Content-Type")
			if contentType != "application/json" && !strings.HasPrefix(contentType, "application/json;") {
				response.UnsupportedMediaType(w, errContentType)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured port and serves in a goroutine. Port 0
// picks a free port; see Addr.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return errAlreadyStart
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", s.cfg.Port, err)
	}
	s.listener = ln
	s.started = true

	go func() {
		s.wsHub.Run()
		close(s.hubDone)
	}()
	s.svc.Dispatcher().Register(s.wsObserver)

	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      s.cfg.RequestTimeout + 15*time.Second,
		IdleTimeout:       120 * time.Second,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	go func() {
		s.logger.Info("API server starting", "addr", ln.Addr().String())
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Addr returns the listening address once started, or "".
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown gracefully shuts down the API server and the WebSocket hub.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if !started {
		return nil
	}

	s.logger.Info("shutting down API server")
	s.svc.Dispatcher().Unregister(s.wsObserver)
	s.wsHub.Stop()

	err := s.httpServer.Shutdown(ctx)

	select {
	case <-s.hubDone:
	case <-ctx.Done():
		if err == nil {
			err = ctx.Err()
		}
	}
	return err
}

// Port returns the port the server is configured to listen on.
func (s *Server) Port() int {
	return s.cfg.Port
}

// WebSocketHub returns the WebSocket hub.
func (s *Server) WebSocketHub() *websocket.Hub {
	return s.wsHub
}
