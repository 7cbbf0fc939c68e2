package api

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"reportclaw/database"
	"reportclaw/database/reports"
	"reportclaw/digest"
	"reportclaw/realtime"
)

// Server handles HTTP API requests
type Server struct {
	repo    *database.ReportRepository
	ingest  *reports.Repository
	sqldb   *database.SQLDB
	digest  *digest.Digest
	hub     *realtime.Hub
	crawler CrawlTrigger
}

// CrawlTrigger schedules an immediate crawl run. The crawler satisfies
// this; tests stub it.
type CrawlTrigger interface {
	TriggerNow() bool
}

// NewServer creates a new API server instance
func NewServer(repo *database.ReportRepository, ingest *reports.Repository, sqldb *database.SQLDB, dig *digest.Digest, hub *realtime.Hub, crawler CrawlTrigger) *Server {
	return &Server{
		repo:    repo,
		ingest:  ingest,
		sqldb:   sqldb,
		digest:  dig,
		hub:     hub,
		crawler: crawler,
	}
}

// Start starts the HTTP server on the specified port
func (s *Server) Start(port int) error {
	mux := http.NewServeMux()

	// Report routes
	mux.HandleFunc("GET /api/reports", s.handleListReports)
	mux.HandleFunc("GET /api/reports/recent", s.handleRecentIngests)
	mux.HandleFunc("GET /api/reports/{id}", s.handleGetReport)
	mux.HandleFunc("GET /api/reports/{id}/mda", s.handleGetReportMDA)
	mux.HandleFunc("DELETE /api/reports/{id}", s.handleDeleteReport)
	mux.HandleFunc("GET /api/stats", s.handleGetStats)

	// Digest routes
	mux.HandleFunc("GET /api/digest/preview", s.handleDigestPreview)

	// Crawl control
	mux.HandleFunc("POST /api/crawl/run", s.handleTriggerCrawl)

	// Realtime event feed
	mux.Handle("GET /api/events/ws", s.hub)

	mux.HandleFunc("GET /health", s.handleHealth)

	// Add middleware
	handler := s.corsMiddleware(s.loggingMiddleware(mux))

	serverAddr := fmt.Sprintf("0.0.0.0:%d", port)
	log.Printf("🚀 API Server starting on %s", serverAddr)
	return http.ListenAndServe(serverAddr, handler)
}

// Middleware
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %v", r.Method, r.URL.Path, time.Since(start))
	})
}
