// Package metrics serves prometheus metrics and health probes over HTTP.
package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/m3rciful/zalogbot/core/buildinfo"
	"github.com/m3rciful/zalogbot/core/logger"
)

// Check reports whether a dependency is usable. *sqlx.DB satisfies it via PingContext.
type Check interface {
	PingContext(ctx context.Context) error
}

// Server exposes /metrics, /healthz/live and /healthz/ready.
type Server struct {
	http   *http.Server
	checks map[string]Check
}

// New builds a server listening on addr. checks are probed by /healthz/ready.
func New(addr string, checks map[string]Check) *Server {
	s := &Server{checks: checks}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/healthz/live", s.live)
	r.Get("/healthz/ready", s.ready)
	return r
}

type probeResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

func (s *Server) live(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, probeResponse{Status: "ok", Version: buildinfo.Version})
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := probeResponse{Status: "ok", Version: buildinfo.Version, Checks: map[string]string{}}
	code := http.StatusOK
	for name, c := range s.checks {
		if err := c.PingContext(ctx); err != nil {
			resp.Checks[name] = "fail"
			resp.Status = "fail"
			code = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	writeJSON(w, code, resp)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Start binds the listener and serves in the background. Bind errors are returned.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return err
	}
	logger.Info(ctx, logger.CompMetrics, "listen", slog.String("addr", ln.Addr().String()))
	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(context.Background(), logger.CompMetrics, "serve", logger.Err(err))
		}
	}()
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
