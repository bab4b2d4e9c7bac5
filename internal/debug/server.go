// Package debug serves engine diagnostics over HTTP: Prometheus metrics and
// a JSON snapshot of the engine state.
package debug

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/novaengine/nova/internal/engine"
)

// StatusSource provides the engine snapshot. *engine.Engine satisfies it.
type StatusSource interface {
	Status() engine.Status
}

// Server is the debug HTTP endpoint.
type Server struct {
	http     *http.Server
	listener net.Listener
	log      *zap.Logger
}

// NewRouter builds the debug routes.
func NewRouter(src StatusSource) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/debug/scene", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(src.Status()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return r
}

// Listen binds addr and starts serving in the background.
func Listen(addr string, src StatusSource, log *zap.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	s := &Server{
		http: &http.Server{
			Handler:           NewRouter(src),
			ReadHeaderTimeout: 5 * time.Second,
		},
		listener: ln,
		log:      log,
	}
	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("debug server stopped", zap.Error(err))
		}
	}()
	log.Info("debug endpoint listening", zap.String("addr", ln.Addr().String()))
	return s, nil
}

func (s *Server) Addr() net.Addr { return s.listener.Addr() }

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
