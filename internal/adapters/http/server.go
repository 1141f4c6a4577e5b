package http

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hsdfat8/drivetrack/internal/logger"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	ListenAddr      string // e.g. "0.0.0.0:8080"
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	EnableTLS       bool
	TLSCertFile     string
	TLSKeyFile      string
	EnableH2C       bool // HTTP/2 cleartext behind a TLS-terminating proxy
	MaxHeaderBytes  int
	ShutdownTimeout time.Duration
}

// Server represents the HTTP/2 server
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	listener   net.Listener
	router     *gin.Engine
	logger     logger.Logger
}

// NewServer creates a new HTTP server exposing the engine routes
func NewServer(config ServerConfig, routes RouterConfig) *Server {
	if config.ReadTimeout == 0 {
		config.ReadTimeout = 30 * time.Second
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = 30 * time.Second
	}
	if config.IdleTimeout == 0 {
		config.IdleTimeout = 120 * time.Second
	}
	if config.MaxHeaderBytes == 0 {
		config.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = 10 * time.Second
	}

	return &Server{
		config: config,
		router: SetupRouter(routes),
		logger: logger.New("http-server", ""),
	}
}

// Start starts the HTTP/2 server
func (s *Server) Start() error {
	// Create listener first (supports port 0 for testing)
	listener, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	s.listener = listener

	s.config.ListenAddr = listener.Addr().String()

	s.httpServer = &http.Server{
		Addr:           s.config.ListenAddr,
		Handler:        s.router,
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		IdleTimeout:    s.config.IdleTimeout,
		MaxHeaderBytes: s.config.MaxHeaderBytes,
	}

	switch {
	case s.config.EnableTLS:
		return s.startTLS()
	case s.config.EnableH2C:
		return s.startH2C()
	default:
		return s.startHTTP1()
	}
}

// startTLS starts the server with TLS (proper HTTP/2)
func (s *Server) startTLS() error {
	s.httpServer.TLSConfig = &tls.Config{
		MinVersion: tls.VersionTLS12,
		NextProtos: []string{"h2", "http/1.1"},
	}

	if err := http2.ConfigureServer(s.httpServer, s.http2Server()); err != nil {
		return fmt.Errorf("failed to configure HTTP/2: %w", err)
	}

	s.logger.Infow("Starting HTTP/2 server with TLS", "address", s.config.ListenAddr)

	go func() {
		if err := s.httpServer.ServeTLS(s.listener, s.config.TLSCertFile, s.config.TLSKeyFile); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Errorw("HTTP/2 TLS server error", "error", err)
		}
	}()

	return nil
}

// startH2C starts the server with H2C (HTTP/2 Cleartext)
func (s *Server) startH2C() error {
	s.httpServer.Handler = h2c.NewHandler(s.router, s.http2Server())

	s.logger.Infow("Starting HTTP/2 (H2C) server", "address", s.config.ListenAddr)

	go func() {
		if err := s.httpServer.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Errorw("HTTP/2 H2C server error", "error", err)
		}
	}()

	return nil
}

// startHTTP1 starts a standard HTTP/1.1 server
func (s *Server) startHTTP1() error {
	s.logger.Infow("Starting HTTP/1.1 server", "address", s.config.ListenAddr)

	go func() {
		if err := s.httpServer.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Errorw("HTTP/1.1 server error", "error", err)
		}
	}()

	return nil
}

func (s *Server) http2Server() *http2.Server {
	return &http2.Server{
		MaxConcurrentStreams: 250,
		MaxReadFrameSize:     1 << 20,
	}
}

// Handler returns the routed handler without starting a listener
func (s *Server) Handler() http.Handler {
	return s.router
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Infow("Stopping HTTP server", "address", s.config.ListenAddr)

	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Infow("HTTP server stopped", "address", s.config.ListenAddr)
	return nil
}

// GetAddr returns the server's listen address
func (s *Server) GetAddr() string {
	return s.config.ListenAddr
}

// IsRunning checks if the server is running
func (s *Server) IsRunning() bool {
	return s.httpServer != nil && s.listener != nil
}
