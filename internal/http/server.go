package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"habits/internal/cache"
	"habits/internal/core"
	"habits/internal/log"
	"habits/internal/services"
	"habits/internal/session"
	appweb "habits/web"
)

type Server struct {
	http.Server
	templates   *template.Template
	service     *services.HabitService
	sess        session.Session
	windowDays  int
	rateLimiter *rateLimiter
	logger      *log.Logger

	// Read-side caches with eviction; mutations bump the generation so
	// stale entries simply stop being addressed and age out.
	calendarCache *cache.LRUCache[[]services.DayAggregate]
	summaryCache  *cache.LRUCache[core.Summary]
	cacheManager  *cache.Manager
	generation    atomic.Uint64

	shutdownOnce sync.Once
	now          func() time.Time
}

// NewServer configures routes and templates, returning a ready-to-run
// http.Server. A template set that fails to parse is a build defect, so
// it aborts construction instead of leaving handlers to panic later.
func NewServer(addr string, svc *services.HabitService, sess session.Session, windowDays int) (*Server, error) {
	templates, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		templates:     templates,
		service:       svc,
		sess:          sess,
		windowDays:    windowDays,
		rateLimiter:   newRateLimiter(),
		logger:        log.New(log.DefaultConfig()).WithComponent(log.ComponentHTTP),
		calendarCache: cache.NewLRUCache[[]services.DayAggregate](100, 5*time.Minute),
		summaryCache:  cache.NewLRUCache[core.Summary](50, 5*time.Minute),
		cacheManager:  cache.NewManager(),
		now:           time.Now,
	}
	s.cacheManager.Register(s.calendarCache)
	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("/", s.withSecurityHeaders(s.handleIndex))
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/habits", s.withSecurityHeaders(s.handleCreateHabit))
	mux.HandleFunc("/habits/toggle", s.withSecurityHeaders(s.handleToggleCompletion))
	mux.HandleFunc("/habits/delete", s.withSecurityHeaders(s.handleDeleteHabit))
	mux.HandleFunc("/habits/update", s.withSecurityHeaders(s.handleUpdateHabit))
	// UI partials
	mux.HandleFunc("/ui/heatmap", s.withSecurityHeaders(s.handleHeatmap))
	mux.HandleFunc("/ui/weekly-tracker", s.withSecurityHeaders(s.handleWeeklyTracker))
	mux.HandleFunc("/ui/summary", s.withSecurityHeaders(s.handleSummary))
	mux.HandleFunc("/export", s.withSecurityHeaders(s.handleExport))

	return s, nil
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting, and request logging to responses
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Extract client IP (considering proxies)
		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		s.logger.InfoContext(ctx, "Request started",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldClientIP, clientIP,
			log.FieldUserAgent, r.Header.Get("User-Agent"))

		// Rate limit mutations only.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			s.logger.WarnContext(ctx, "Rate limit exceeded",
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' https://unpkg.com 'unsafe-eval'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		s.logger.InfoContext(ctx, "Request completed",
			log.FieldRequestID, requestID,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.statusCode,
			log.FieldDuration, duration.Milliseconds(),
			log.FieldClientIP, clientIP)
	}
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// invalidateReadCaches makes every cached calendar and summary entry
// unreachable after a mutation.
func (s *Server) invalidateReadCaches() {
	s.generation.Add(1)
}

func (s *Server) calendarKey(windowDays int, categoryID string) string {
	return strconv.FormatUint(s.generation.Load(), 10) + ":" + strconv.Itoa(windowDays) + ":" + categoryID
}

func (s *Server) summaryKey(year, quarter int) string {
	return strconv.FormatUint(s.generation.Load(), 10) + ":" + strconv.Itoa(year) + "-q" + strconv.Itoa(quarter)
}

// getCalendar returns the aggregated heatmap window, cached per
// (window, category filter) until the next mutation.
func (s *Server) getCalendar(ctx context.Context, windowDays int, categoryID string) ([]services.DayAggregate, error) {
	key := s.calendarKey(windowDays, categoryID)
	if days, found := s.calendarCache.Get(key); found {
		s.logger.DebugContext(ctx, "Calendar cache hit", "window", windowDays, log.FieldCategoryID, categoryID)
		return days, nil
	}

	days, err := services.BuildCalendar(s.service.Categories(), windowDays, categoryID, s.now())
	if err != nil {
		return nil, fmt.Errorf("build calendar (window=%d): %w", windowDays, err)
	}
	s.calendarCache.Set(key, days)
	return days, nil
}

func (s *Server) getSummary(ctx context.Context, year, quarter int) (core.Summary, error) {
	key := s.summaryKey(year, quarter)
	if sum, found := s.summaryCache.Get(key); found {
		s.logger.DebugContext(ctx, "Summary cache hit", log.FieldYear, year, log.FieldQuarter, quarter)
		return sum, nil
	}

	cctx, cancel := context.WithTimeout(ctx, 7*time.Second)
	defer cancel()
	sum, err := s.service.QuarterlySummary(cctx, s.sess, year, quarter)
	if err != nil {
		return core.Summary{}, err
	}
	s.summaryCache.Set(key, sum)
	return sum, nil
}
