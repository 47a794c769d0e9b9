// Package health exposes a lightweight HTTP health endpoint for container probes.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"ramadan_diary_bot/internal/logging"
)

const (
	storePingTimeout  = 2 * time.Second
	readHeaderTimeout = 2 * time.Second
)

// StoreChecker is the subset of the Mongo manager needed to probe the store.
type StoreChecker interface {
	Ping(ctx context.Context) error
}

// Server hosts the health endpoint and owns the underlying HTTP server.
type Server struct {
	server  *http.Server
	logger  *logrus.Entry
	store   StoreChecker
	started time.Time
}

type response struct {
	Status        string `json:"status"`
	Store         string `json:"store"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// NewServer constructs a health server that exposes GET /healthz on the given port.
func NewServer(port int, store StoreChecker, logger *logrus.Entry) *Server {
	if logger == nil {
		logger = logging.Logger()
	}

	srv := &Server{
		logger:  logger,
		store:   store,
		started: time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", srv.handleHealth)

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	return srv
}

// ListenAndServe starts the health server and blocks until shutdown.
func (s *Server) ListenAndServe() error {
	s.logger.WithFields(logging.Fields{
		"event": "health_listen",
		"addr":  s.server.Addr,
	}).Info("starting health server")

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("health server listen: %w", err)
	}

	s.logger.WithField("event", "health_stopped").Info("health server stopped")
	return nil
}

// Shutdown gracefully stops the health server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}

	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := response{
		Status:        "ok",
		Store:         "ok",
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
	}

	ctx := r.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if s.store == nil {
		resp.Store = "error"
		s.logger.WithField("event", "health_store_missing").Warn("store checker is not configured for health endpoint")
	} else {
		pingCtx, cancel := context.WithTimeout(ctx, storePingTimeout)
		err := s.store.Ping(pingCtx)
		cancel()

		if err != nil {
			resp.Store = "error"
			s.logger.WithField("event", "health_store_error").WithError(err).Warn("store ping failed during health check")
		}
	}

	if resp.Store != "ok" {
		resp.Status = "degraded"
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.WithField("event", "health_write_error").WithError(err).Error("failed to encode health response")
	}
}
