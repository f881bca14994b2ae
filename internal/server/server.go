package server

import (
	"context"
	"embed"
	"io/fs"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/heal-ops/heal/internal/hub"
	"github.com/heal-ops/heal/internal/model"
	"github.com/heal-ops/heal/internal/series"
)

//go:embed all:web
var webFS embed.FS

// Archive is the read-only history source behind the /api/history routes.
type Archive interface {
	DateRange(ctx context.Context) (time.Time, time.Time, error)
	StorageHistory(ctx context.Context, subModule string, from, to time.Time) ([]model.TimedMessage, error)
	ServiceHistory(ctx context.Context, subModules []string, from, to time.Time) ([]model.StatusSample, error)
	ModuleHistory(ctx context.Context, moduleID string, from, to time.Time) ([]model.LogRecord, error)
}

// Options carries the fleet layout the API resolves filters against.
type Options struct {
	Port       string
	Servers    []string
	Partitions []string
	Services   []series.ServiceLabel
}

// Server holds the Gin engine and dependencies for the health API.
type Server struct {
	engine  *gin.Engine
	hub     *hub.Hub
	archive Archive
	opts    Options
	srv     *http.Server
}

// New creates the web server. archive may be nil, in which case history
// routes answer 503 while live status keeps working.
func New(h *hub.Hub, archive Archive, opts Options) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	// Disable automatic redirects that cause 301 issues.
	engine.RedirectTrailingSlash = false
	engine.RedirectFixedPath = false

	s := &Server{
		engine:  engine,
		hub:     h,
		archive: archive,
		opts:    opts,
	}

	s.setupRoutes()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// serveEmbedded reads a file from the embedded FS and writes it with the given content type.
func serveEmbedded(webContent fs.FS, name string, contentType string) gin.HandlerFunc {
	// Pre-read the file at startup so we don't read on every request.
	data, err := fs.ReadFile(webContent, name)
	return func(c *gin.Context) {
		if err != nil {
			c.String(http.StatusNotFound, "file not found: %s", name)
			return
		}
		c.Data(http.StatusOK, contentType, data)
	}
}

func (s *Server) setupRoutes() {
	webContent, _ := fs.Sub(webFS, "web")

	s.engine.GET("/", serveEmbedded(webContent, "index.html", "text/html; charset=utf-8"))
	s.engine.GET("/style.css", serveEmbedded(webContent, "style.css", "text/css; charset=utf-8"))
	s.engine.GET("/app.js", serveEmbedded(webContent, "app.js", "application/javascript; charset=utf-8"))

	s.engine.GET("/healthz", s.handleHealthz)

	api := s.engine.Group("/api")
	api.GET("/status", s.handleStatus)
	api.GET("/servers", s.handleServers)
	api.GET("/modules", s.handleModules)
	api.GET("/services/:sub", s.handleServices)
	api.GET("/storage", s.handleStorage)

	history := api.Group("/history")
	history.GET("/range", s.handleRange)
	history.GET("/storage", s.handleStorageHistory)
	history.GET("/services", s.handleServiceHistory)
	history.GET("/modules/:id", s.handleModuleHistory)

	s.engine.GET("/ws", s.handleWebSocket)

	// pprof profiling endpoints.
	s.engine.GET("/debug/pprof/", gin.WrapF(pprof.Index))
	s.engine.GET("/debug/pprof/cmdline", gin.WrapF(pprof.Cmdline))
	s.engine.GET("/debug/pprof/profile", gin.WrapF(pprof.Profile))
	s.engine.GET("/debug/pprof/symbol", gin.WrapF(pprof.Symbol))
	s.engine.GET("/debug/pprof/trace", gin.WrapF(pprof.Trace))
	s.engine.GET("/debug/pprof/heap", gin.WrapH(pprof.Handler("heap")))
	s.engine.GET("/debug/pprof/goroutine", gin.WrapH(pprof.Handler("goroutine")))
}

// Start runs the server. Blocks until the server is stopped.
func (s *Server) Start() error {
	s.srv = &http.Server{
		Addr:              ":" + s.opts.Port,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
