package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/jonathan/portfolio/internal/blog"
	"github.com/jonathan/portfolio/internal/cache"
	"github.com/jonathan/portfolio/internal/db"
	"github.com/jonathan/portfolio/internal/server/middleware"
	"github.com/jonathan/portfolio/internal/server/ratelimit"
)

// PortfolioStore reads portfolio content. *db.DB implements it.
type PortfolioStore interface {
	Ping(ctx context.Context) error
	GetUserProfile(ctx context.Context) (*db.UserProfile, error)
	ListEducation(ctx context.Context) ([]db.Education, error)
	ListExperience(ctx context.Context) ([]db.Experience, error)
	ListSkills(ctx context.Context) ([]db.Skill, error)
	ListProjects(ctx context.Context) ([]db.Project, error)
	ListRecentBlogPosts(ctx context.Context, limit int) ([]db.BlogPostSummary, error)
	ListCertificates(ctx context.Context) ([]db.Certificate, error)
	ListProjectHighlights(ctx context.Context, limit int) ([]db.ProjectHighlight, error)
}

// BlogService serves posts from Notion. *blog.Service implements it.
type BlogService interface {
	ListPosts(ctx context.Context) ([]blog.Post, error)
	GetPost(ctx context.Context, slug string) (*blog.Post, error)
	ViewPost(ctx context.Context, slug string) (int, error)
	Views(ctx context.Context, slug string) (int, error)
}

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	store       PortfolioStore
	blog        BlogService
	cache       *cache.Cache
	rateLimiter *ratelimit.Limiter
	log         *logrus.Logger
}

// Config holds server configuration
type Config struct {
	Port               int
	CORSAllowedOrigins []string
	CacheTTL           time.Duration
	RateLimit          *ratelimit.Config // nil loads RATE_LIMIT_* from the environment
	Logger             *logrus.Logger
}

// New creates a new server instance
func New(cfg Config, store PortfolioStore, posts BlogService) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	rateCfg := cfg.RateLimit
	if rateCfg == nil {
		rateCfg = ratelimit.LoadConfig()
	}

	s := &Server{
		store:       store,
		blog:        posts,
		cache:       cache.New(cfg.CacheTTL, logger),
		rateLimiter: ratelimit.NewLimiter(rateCfg),
		log:         logger,
	}

	// Setup router
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	// Portfolio content (Postgres, cached)
	mux.HandleFunc("GET /profile", s.handleProfile)
	mux.HandleFunc("GET /education", s.handleListEducation)
	mux.HandleFunc("GET /experience", s.handleListExperience)
	mux.HandleFunc("GET /skills", s.handleListSkills)
	mux.HandleFunc("GET /projects", s.handleListProjects)
	mux.HandleFunc("GET /projects/highlights", s.handleProjectHighlights)
	mux.HandleFunc("GET /certificates", s.handleListCertificates)
	mux.HandleFunc("GET /blog/recent", s.handleRecentPosts)

	// Blog (Notion, never cached)
	mux.HandleFunc("GET /blog/posts", s.handleListPosts)
	mux.HandleFunc("GET /blog/posts/{slug}", s.handleGetPost)
	mux.HandleFunc("GET /blog/posts/{slug}/markdown", s.handleGetPostMarkdown)
	mux.HandleFunc("GET /blog/posts/{slug}/views", s.handleGetPostViews)

	// CORS answers preflights and decorates 429s; throttled requests are logged.
	handler := s.withCORS(
		middleware.RequestID()(
			middleware.Logging(logger)(
				s.withRateLimit(mux))),
		cfg.CORSAllowedOrigins)

	// Create HTTP server
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // Post listings render every body from Notion
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the fully wrapped HTTP handler
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening for requests and blocks until SIGINT or SIGTERM,
// then shuts down gracefully.
func (s *Server) Start() error {
	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	// SIGHUP drops cached portfolio reads after the database is edited
	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)
	defer signal.Stop(reload)

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.httpServer.Addr).Info("Server starting")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	for running := true; running; {
		select {
		case err := <-errCh:
			s.rateLimiter.Stop()
			return fmt.Errorf("server error: %w", err)
		case <-reload:
			s.PurgeCache()
		case <-stop:
			running = false
		}
	}

	s.log.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.Shutdown(ctx)
}

// PurgeCache drops every cached portfolio read and returns how many were removed
func (s *Server) PurgeCache() int {
	n := s.cache.DeletePrefix(cachePrefix)
	s.log.WithField("entries", n).Info("Portfolio cache purged")
	return n
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	defer s.rateLimiter.Stop()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.log.Info("Server stopped")
	return nil
}

// withCORS adds CORS headers. No origins allows any origin.
func (s *Server) withCORS(next http.Handler, origins []string) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{
			middleware.RequestIDHeader,
			"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After",
		},
		MaxAge: 600,
	})
	return c.Handler(next)
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Extract client identifier (IP address)
		clientID := s.extractClientID(r)

		// Check rate limit
		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)

		if !allowed {
			s.rateLimitResponse(w, r, clientID, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleHealth reports server health and database reachability
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		s.log.WithError(err).Warn("health check: database unreachable")
		s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "degraded",
			"database": "unreachable",
		})
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok", "database": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.WithError(err).Error("Error encoding JSON response")
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// writeError maps err to a status and writes it. Server-side details are
// logged, not returned.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	entry := s.log.WithError(err).WithFields(logrus.Fields{"path": r.URL.Path, "status": status})
	if id, idErr := middleware.GetRequestID(r); idErr == nil {
		entry = entry.WithField("request_id", id)
	}

	switch status {
	case http.StatusInternalServerError:
		entry.Error("request failed")
		s.errorResponse(w, status, "Internal server error")
	case http.StatusBadGateway:
		entry.Error("content service failed")
		s.errorResponse(w, status, "Content service error")
	case http.StatusServiceUnavailable:
		entry.Warn("content service throttled")
		s.errorResponse(w, status, "Content service is busy, try again later")
	default:
		s.errorResponse(w, status, err.Error())
	}
}

// extractClientID extracts the client identifier from the request.
// This uses the IP address from RemoteAddr; forwarded headers are not
// trusted.
func (s *Server) extractClientID(r *http.Request) string {
	// Get IP from RemoteAddr (format: "IP:port")
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// If parsing fails, use the whole RemoteAddr
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with rate limit information.
func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, clientID string, info ratelimit.Info) {
	response := map[string]any{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"limit":     info.Limit,
		"remaining": info.Remaining,
		"reset_at":  info.ResetTime.Format(time.RFC3339),
	}

	if info.RetryAfter > 0 {
		// Round up so clients never retry early
		retryAfter := int((info.RetryAfter + time.Second - 1) / time.Second)
		response["retry_after"] = retryAfter
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	}

	s.log.WithFields(logrus.Fields{
		"client": clientID,
		"path":   r.URL.Path,
		"limit":  info.Limit,
	}).Warn("Rate limit exceeded")

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
