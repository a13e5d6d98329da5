// Package server assembles the HTTP surface and the background workers of the
// bot from a profile and a store.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hrygo/wabot/internal/profile"
	"github.com/hrygo/wabot/plugin/ai"
	"github.com/hrygo/wabot/plugin/ai/cache"
	"github.com/hrygo/wabot/plugin/ai/intent"
	"github.com/hrygo/wabot/plugin/ai/metrics"
	"github.com/hrygo/wabot/plugin/ai/module"
	"github.com/hrygo/wabot/plugin/ai/registry"
	"github.com/hrygo/wabot/plugin/ai/selector"
	"github.com/hrygo/wabot/plugin/ai/session"
	"github.com/hrygo/wabot/plugin/whatsapp"
	"github.com/hrygo/wabot/server/conversation"
	"github.com/hrygo/wabot/server/internal/observability"
	ratelimit "github.com/hrygo/wabot/server/middleware"
	apiv1 "github.com/hrygo/wabot/server/router/api/v1"
	"github.com/hrygo/wabot/server/router/webhook"
	"github.com/hrygo/wabot/server/runner/message"
	"github.com/hrygo/wabot/store"
)

// shutdownGrace bounds the wait for in-flight messages on shutdown.
const shutdownGrace = 30 * time.Second

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer   *echo.Echo
	registry     *registry.Registry
	runner       *message.Runner
	cleanupJob   *session.CleanupJob
	limiter      *ratelimit.RateLimiter
	closeCache   func() error
	cancelPrune  context.CancelFunc
	metricsReg   *prometheus.Registry
	observations *observability.Metrics
}

// Option overrides a dependency of the server.
type Option func(*options)

type options struct {
	llm       ai.LLMService
	transport whatsapp.Transport
}

// WithLLMService replaces the provider client built from the profile.
func WithLLMService(llm ai.LLMService) Option {
	return func(o *options) { o.llm = llm }
}

// WithTransport replaces the Kapso client built from the profile.
func WithTransport(t whatsapp.Transport) Option {
	return func(o *options) { o.transport = t }
}

func NewServer(ctx context.Context, profile *profile.Profile, store *store.Store, opts ...Option) (*Server, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	s := &Server{
		Profile:    profile,
		Store:      store,
		metricsReg: prometheus.NewRegistry(),
	}
	s.metricsReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	s.observations = observability.NewMetrics(s.metricsReg)

	llm := o.llm
	if llm == nil {
		aiConfig := ai.NewConfigFromProfile(profile)
		if !aiConfig.Enabled {
			return nil, errors.Errorf("no API key configured for AI processor %q", profile.AIProcessor)
		}
		if err := aiConfig.Validate(); err != nil {
			return nil, errors.Wrap(err, "invalid AI config")
		}
		var err error
		if llm, err = ai.NewLLMService(&aiConfig.LLM); err != nil {
			return nil, errors.Wrap(err, "failed to create LLM service")
		}
	}

	transportConfigured := true
	transport := o.transport
	if transport == nil {
		client := whatsapp.NewClient(whatsapp.Config{
			APIKey:  profile.KapsoAPIKey,
			BaseURL: profile.KapsoBaseURL,
		})
		transportConfigured = client.Configured()
		transport = client
	}
	if !transportConfigured {
		slog.Warn("kapso api key not configured, inbound messages will be dropped")
	}

	s.registry = registry.New(store)
	if err := s.registry.Seed(ctx, profile.ModelSeeds()); err != nil {
		return nil, errors.Wrap(err, "failed to seed model registry")
	}
	for _, number := range profile.InitialWhitelist() {
		if err := store.AddToWhitelist(ctx, number); err != nil {
			return nil, errors.Wrap(err, "failed to seed whitelist")
		}
	}

	cacheConfig := cache.DefaultServiceConfig()
	cacheConfig.Redis = cache.RedisConfig{
		Addr:     profile.RedisAddr,
		Password: profile.RedisPassword,
		DB:       profile.RedisDB,
	}
	sessionCache, closeCache, err := cache.New(cacheConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create session cache")
	}
	s.closeCache = closeCache

	metricsSvc := metrics.NewService(s.metricsReg)
	sessions := session.NewSessionStore(store, sessionCache)
	classifier := intent.NewClassifier(llm, selector.New(s.registry, metricsSvc, selector.DefaultConfig()))
	orchestrator := conversation.New(store, sessions, classifier, module.NewRouter(store), transport, metricsSvc, conversation.Config{
		TransportConfigured: transportConfigured,
	})

	s.runner = message.NewRunner(orchestrator, s.observations, message.Config{
		MaxConcurrent: profile.MaxConcurrentMessages,
	})
	s.cleanupJob = session.NewCleanupJob(sessions, session.CleanupConfig{
		RetentionDays: profile.SessionRetentionDays,
		Spec:          profile.SessionCleanupSpec,
	})
	s.limiter = ratelimit.NewRateLimiter(ratelimit.DefaultRate, ratelimit.DefaultBurst)

	echoServer := echo.New()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.Use(middleware.Recover())
	s.echoServer = echoServer

	echoServer.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})
	echoServer.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.metricsReg, promhttp.HandlerOpts{})))

	webhook.NewService(webhook.Config{
		VerifyToken:   profile.VerifyToken,
		AppSecret:     profile.AppSecret,
		PhoneNumberID: profile.PhoneNumberID,
	}, s.runner, s.limiter, s.observations).RegisterRoutes(echoServer)

	if profile.Secret != "" {
		apiv1.NewAPIV1Service(profile.Secret, store, s.registry, sessions, metricsSvc, s.observations).RegisterRoutes(echoServer)
	} else {
		slog.Warn("no admin secret configured, admin API disabled")
	}

	return s, nil
}

// Start begins the background workers and serves HTTP until Shutdown.
func (s *Server) Start(ctx context.Context) error {
	if err := s.cleanupJob.Start(ctx); err != nil {
		return errors.Wrap(err, "failed to start session cleanup")
	}

	pruneCtx, cancel := context.WithCancel(ctx)
	s.cancelPrune = cancel
	go s.pruneLimiter(pruneCtx)

	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return errors.Wrap(err, "failed to listen")
	}
	slog.Info("wabot listening", "address", listener.Addr().String(), "mode", s.Profile.Mode)

	s.echoServer.Listener = listener
	go func() {
		if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to start echo server", "error", err)
		}
	}()
	return nil
}

// Shutdown stops HTTP intake first, then drains in-flight messages.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, shutdownGrace)
	defer cancel()

	slog.Info("server shutting down")

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}
	if err := s.runner.Shutdown(ctx); err != nil {
		slog.Error("message runner did not drain in time", "error", err)
	}
	s.cleanupJob.Stop()
	if s.cancelPrune != nil {
		s.cancelPrune()
	}
	if s.closeCache != nil {
		if err := s.closeCache(); err != nil {
			slog.Error("failed to close session cache", "error", err)
		}
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close database", "error", err)
	}

	slog.Info("server stopped properly")
}

// Handler exposes the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echoServer
}

// Registry exposes the model registry.
func (s *Server) Registry() *registry.Registry {
	return s.registry
}

func (s *Server) pruneLimiter(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.limiter.Prune(); n > 0 {
				slog.Debug("pruned idle rate limiters", "count", n)
			}
		}
	}
}
