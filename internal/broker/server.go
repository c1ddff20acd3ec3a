package broker

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gobwas/ws"
)

// ServerConfig configures the downstream listener.
type ServerConfig struct {
	Addr string // host:port to listen on
}

// Server accepts downstream WebSocket connections and hands them to the hub.
type Server struct {
	cfg    ServerConfig
	hub    *Hub
	logger *slog.Logger

	httpSrv *http.Server
}

// NewServer creates the downstream server.
func NewServer(cfg ServerConfig, hub *Hub, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{cfg: cfg, hub: hub, logger: logger}
}

// Start begins listening. It returns immediately; listener errors other than
// a normal shutdown are logged.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		conn, _, _, err := ws.UpgradeHTTP(r, w)
		if err != nil {
			s.logger.Warn("upgrade failed", "remote", r.RemoteAddr, "err", err)
			return
		}

		c := NewConn(conn, s.hub, s.logger)
		s.logger.Info("connection opened", "conn", c.ID(), "remote", r.RemoteAddr)
		c.Start()
	})

	s.httpSrv = &http.Server{Addr: s.cfg.Addr, Handler: mux}

	go func() {
		s.logger.Info("broker listening", "addr", s.cfg.Addr)
		if err := s.httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("broker listener error", "err", err)
		}
	}()

	return nil
}

// Stop shuts the listener down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	if s.httpSrv == nil {
		return nil
	}
	err := s.httpSrv.Shutdown(ctx)
	s.logger.Info("broker stopped")
	return err
}
