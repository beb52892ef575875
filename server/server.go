package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"stockbuddy/core"
	"stockbuddy/lib/sl"
)

// Server exposes the prompt relay pipeline over HTTP.
type Server struct {
	log       *slog.Logger
	service   core.PromptService
	srv       *http.Server
	uploadDir string
}

func New(conf *core.Config, log *slog.Logger, service core.PromptService) (*Server, error) {
	uploadDir := filepath.Join(os.TempDir(), "stockbuddy-uploads")
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, err
	}

	s := &Server{
		log:       log.With(sl.Module("http")),
		service:   service,
		uploadDir: uploadDir,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /promt", s.handlePromt)
	mux.HandleFunc("GET /history", s.handleHistory)

	s.srv = &http.Server{
		Addr:              net.JoinHostPort(conf.HTTP.Host, conf.HTTP.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) Start() error {
	s.log.Info("listening", slog.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
