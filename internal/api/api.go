package api

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/curaious/timesheet/internal/config"
	"github.com/curaious/timesheet/internal/migrations"
	"github.com/curaious/timesheet/internal/pubsub"
	"github.com/curaious/timesheet/internal/services"
)

// Server is the timesheet HTTP server
type Server struct {
	srv            *fasthttp.Server
	addr           string
	allowedHeaders string
	services       *services.Services
	pubsub         *pubsub.PubSub
}

// New connects to the database, applies pending migrations and builds the routes.
func New(conf *config.Config) *Server {
	svc := services.NewServices(conf)

	m, err := migrations.NewMigrator(svc.DB)
	if err != nil {
		panic("unable to create migrator: " + err.Error())
	}

	if err := m.Up(context.Background(), 0); err != nil {
		panic("unable to run migrations: " + err.Error())
	}

	s := NewWithServices(conf, svc)

	// Projects renamed or deleted by another instance must not be served from this one's cache.
	s.pubsub = pubsub.NewPubSub(conf.DSN())
	s.pubsub.Subscribe(func(event pubsub.ChangeEvent) {
		slog.Debug("Invalidating project directory", slog.String("operation", event.Operation))
		svc.Directory.Invalidate()
	})

	return s
}

// NewWithServices builds a server around already wired services.
func NewWithServices(conf *config.Config, svc *services.Services) *Server {
	s := &Server{
		srv:            &fasthttp.Server{},
		addr:           conf.HTTP_ADDR,
		allowedHeaders: conf.ALLOWED_HEADERS,
		services:       svc,
	}

	s.srv.Handler = s.initRoutes()

	return s
}

// Start the rest server
func (s *Server) Start() {
	if s.pubsub != nil {
		if err := s.pubsub.Start(); err != nil {
			slog.Warn("Project change notifications unavailable, cached directory relies on local invalidation",
				slog.Any("error", err))
		}
	}

	slog.Info("Starting REST server...", slog.String("addr", s.addr))
	go func() {
		if err := s.srv.ListenAndServe(s.addr); err != nil {
			slog.Error("Server shutdown", slog.Any("error", err))
		}
	}()
	slog.Info("REST server started!")

	// Listen for OS interrupts
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	// Block till we receive an interrupt
	<-c
	slog.Info("Received interrupt...")

	// Create a timeout
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	s.shutdown(ctx)
}

// Handler exposes the routed handler, middlewares included.
func (s *Server) Handler() fasthttp.RequestHandler {
	return s.srv.Handler
}

// Shutdown shuts down the rest server
func (s *Server) shutdown(ctx context.Context) {
	slog.Info("Gracefully shutting down REST server...")
	if err := s.srv.ShutdownWithContext(ctx); err != nil {
		slog.Error("Failed to shutdown the server", slog.Any("error", err))
	}
	if s.pubsub != nil {
		s.pubsub.Stop()
	}
	if s.services.DB != nil {
		if err := s.services.DB.Close(); err != nil {
			slog.Error("Failed to close database", slog.Any("error", err))
		}
	}
	slog.Info("REST server shutdown!")
}
