package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/driving-passion/import-bot/internal/config"
)

type HTTPServer struct {
	s *http.Server

	shutdownTimeout time.Duration
}

func NewHTTPServer(ctx context.Context, cfg config.ServerConfig, handler http.Handler) *HTTPServer {
	return &HTTPServer{
		s: &http.Server{
			Handler:           handler,
			Addr:              ":" + cfg.Port,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			BaseContext: func(listener net.Listener) context.Context {
				return ctx
			},
		},
		shutdownTimeout: cfg.ShutdownTimeout,
	}
}

func (s *HTTPServer) Start() error {
	return s.s.ListenAndServe()
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.s.Shutdown(ctx)
}

// Run serves until ctx is cancelled, then drains in-flight requests
// within the shutdown timeout.
func (s *HTTPServer) Run(ctx context.Context) error {
	errCh := make(chan error)
	go func() {
		errCh <- s.Start()
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
