// internal/monitoring/server.go
package monitoring

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/promptharvest/promptharvest/internal/utils"
)

// Status is the health endpoint payload.
type Status struct {
	Status       string    `json:"status"`
	StartedAt    time.Time `json:"started_at"`
	Uptime       string    `json:"uptime"`
	ItemsScanned int64     `json:"items_scanned"`
	LastItemAt   time.Time `json:"last_item_at,omitempty"`
}

// Server exposes /metrics and health endpoints during a scan.
type Server struct {
	server    *http.Server
	logger    utils.Logger
	startedAt time.Time

	mu         sync.Mutex
	items      int64
	lastItemAt time.Time
}

// NewServer builds the monitoring HTTP server on the given address.
func NewServer(addr string, gatherer prometheus.Gatherer, logger utils.Logger) *Server {
	s := &Server{
		logger:    logger,
		startedAt: time.Now(),
	}

	router := mux.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/readyz", s.handleHealth).Methods(http.MethodGet)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// Start serves in the background until Shutdown.
func (s *Server) Start() {
	go func() {
		s.logger.WithField("addr", s.server.Addr).Info("monitoring server listening")
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Errorf("monitoring server failed: %v", err)
		}
	}()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// NoteItem updates liveness info after each processed item.
func (s *Server) NoteItem() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.items++
	s.lastItemAt = time.Now()
	s.mu.Unlock()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	status := Status{
		Status:       "healthy",
		StartedAt:    s.startedAt,
		Uptime:       time.Since(s.startedAt).String(),
		ItemsScanned: s.items,
		LastItemAt:   s.lastItemAt,
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(status); err != nil {
		s.logger.Errorf("failed to encode health status: %v", err)
	}
}
