package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ziadkadry99/docchat/internal/audit"
	"github.com/ziadkadry99/docchat/internal/chat"
	"github.com/ziadkadry99/docchat/internal/ingest"
	"github.com/ziadkadry99/docchat/internal/vectordb"
)

// Config holds server configuration.
type Config struct {
	Port      int
	DocsDir   string // ingestion source directory; uploads end up here
	UploadDir string // staging directory for incoming uploads
	AllowAll  bool   // allow all CORS origins (dev mode)
	// RequestTimeout bounds a whole request, including ingestion on upload.
	RequestTimeout time.Duration
	// MaxUploadBytes caps the multipart body size.
	MaxUploadBytes int64
}

const (
	defaultRequestTimeout = 5 * time.Minute
	defaultMaxUploadBytes = 50 << 20
)

// Server is the document chat HTTP server.
type Server struct {
	cfg        Config
	chat       *chat.Service
	pipeline   *ingest.Pipeline
	store      vectordb.VectorStore
	audit      *audit.Store
	router     chi.Router
	timeout    func(http.Handler) http.Handler
	httpServer *http.Server
}

// New creates a new server with all dependencies.
func New(cfg Config, svc *chat.Service, pipeline *ingest.Pipeline, store vectordb.VectorStore) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	s := &Server{
		cfg:      cfg,
		chat:     svc,
		pipeline: pipeline,
		store:    store,
		timeout:  middleware.Timeout(cfg.RequestTimeout),
	}

	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Long-lived routes such as the dashboard websocket are registered on
	// Router() and stay outside the request timeout.
	r.Group(func(r chi.Router) {
		r.Use(s.timeout)
		r.Post("/upload", s.handleUpload)
		r.Post("/ask", s.handleAsk)
		r.Post("/clear", s.handleClear)
		r.Get("/api/stats", s.handleStats)
	})
	return r
}

// EnableAudit records uploads and cleared sessions in store and serves
// them under /api/audit.
func (s *Server) EnableAudit(store *audit.Store) {
	s.audit = store
	audit.RegisterRoutes(s.router.With(s.timeout), store)
}

// Router returns the chi router for registering additional routes.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured port.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      s.cfg.RequestTimeout + 10*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("docchat server listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
