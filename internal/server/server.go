// Package server exposes the platform's view-models over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/spigell/nexaforge/internal/filtering"
	"github.com/spigell/nexaforge/internal/identity"
	"github.com/spigell/nexaforge/internal/insights"
	"github.com/spigell/nexaforge/internal/interview"
	"github.com/spigell/nexaforge/internal/jobs"
	"github.com/spigell/nexaforge/internal/profile"
	"github.com/spigell/nexaforge/internal/recruiter"
	"github.com/spigell/nexaforge/internal/videos"
)

const (
	defaultAddr         = ":8080"
	defaultMaxBodyBytes = 1 << 20
	shutdownTimeout     = 10 * time.Second
)

type Config struct {
	Addr         string   `mapstructure:"addr"`
	AllowOrigins []string `mapstructure:"allow-origins"`
	MaxBodyBytes int64    `mapstructure:"max-body-bytes"`
}

// Deps are the view-models the API serves. Every one of them is required.
type Deps struct {
	Session   *identity.Session
	Profile   *profile.Builder
	Interview *interview.Session
	Jobs      *jobs.Board
	Filters   []filtering.Filter
	Recruiter *recruiter.Portal
	Insights  *insights.Dashboard
	Videos    *videos.Vault
	Gatherer  prometheus.Gatherer
	Logger    *zap.Logger
}

func (c Config) withDefaults() Config {
	if c.Addr == "" {
		c.Addr = defaultAddr
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = defaultMaxBodyBytes
	}
	return c
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}
	return d
}

type Server struct {
	http   *http.Server
	logger *zap.Logger
}

func New(cfg Config, deps Deps) (*Server, error) {
	if deps.Session == nil || deps.Profile == nil || deps.Interview == nil || deps.Jobs == nil ||
		deps.Recruiter == nil || deps.Insights == nil || deps.Videos == nil {
		return nil, errors.New("every view-model is required")
	}
	cfg = cfg.withDefaults()
	deps = deps.withDefaults()

	return &Server{
		http: &http.Server{
			Addr:              cfg.Addr,
			Handler:           RegisterRoutes(cfg, deps),
			IdleTimeout:       time.Minute,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: deps.Logger,
	}, nil
}

// Run serves until ctx is done, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}
