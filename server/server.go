package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/metric"

	"github.com/jonwraymond/domquery/auth"
	"github.com/jonwraymond/domquery/cache"
	"github.com/jonwraymond/domquery/config"
	"github.com/jonwraymond/domquery/health"
	"github.com/jonwraymond/domquery/observe"
	"github.com/jonwraymond/domquery/query"
	"github.com/jonwraymond/domquery/resilience"
	"github.com/jonwraymond/domquery/secret"
	"github.com/jonwraymond/domquery/tools"
)

// Server owns the components of a running process.
type Server struct {
	cfg    config.Config
	obs    observe.Observer
	tel    observe.Telemetry
	store  *cache.MemoryCache
	engine *query.Engine
	tools  *tools.Dispatcher
	health *health.Aggregator
	mux    *http.ServeMux
	gauge  metric.Registration
}

// New builds a Server reading documents from docs. Close releases what New
// acquires.
func New(ctx context.Context, cfg config.Config, docs tools.DocumentSource) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	keys, err := resolveKeys(ctx, cfg.Server.Auth)
	if err != nil {
		return nil, err
	}

	obs, err := observe.NewObserver(ctx, cfg.Observe)
	if err != nil {
		return nil, err
	}
	tel, err := observe.TelemetryFromObserver(obs)
	if err != nil {
		_ = obs.Shutdown(ctx)
		return nil, err
	}

	s := &Server{cfg: cfg, obs: obs, tel: tel}
	s.store = cache.NewMemoryCache(cfg.Cache)

	s.gauge, err = observe.ObserveCacheSize(obs.Meter(), s.store.Size)
	if err != nil {
		_ = obs.Shutdown(ctx)
		return nil, fmt.Errorf("server: register cache gauge: %w", err)
	}

	s.engine = query.New(s.store,
		query.WithTelemetry(tel),
		query.WithDedupe(cfg.Query.Dedupe),
	)
	s.tools = tools.NewDispatcher(s.engine, s.store, docs,
		tools.WithTelemetry(tel),
		tools.WithExecutor(newExecutor(cfg.Tools)),
	)

	s.health = health.NewAggregator(health.AggregatorConfig{})
	s.health.Register(health.NewCacheChecker(s.store))
	s.health.Register(health.NewDocumentChecker(docs.Document))

	toolsMux := http.NewServeMux()
	tools.RegisterHandlers(toolsMux, s.tools)
	guarded := auth.Middleware(keys, toolsMux)
	if keys.Len() > 0 {
		tel.Logger.Info(ctx, "tool routes require an API key", observe.Field{Key: "keys", Value: keys.Len()})
	}

	s.mux = http.NewServeMux()
	s.mux.Handle("/tools", guarded)
	s.mux.Handle("/tools/", guarded)
	health.RegisterHandlers(s.mux, s.health)
	if cfg.Observe.Metrics.Enabled && cfg.Observe.Metrics.Exporter == "prometheus" {
		s.mux.Handle("GET /metrics", promhttp.Handler())
	}
	return s, nil
}

// resolveKeys expands and dereferences the configured API keys.
func resolveKeys(ctx context.Context, cfg config.AuthConfig) (*auth.KeySet, error) {
	resolver := secret.NewResolver()
	keys := make([]auth.APIKey, len(cfg.APIKeys))
	for i, k := range cfg.APIKeys {
		v, err := resolver.ResolveValue(ctx, k.Key)
		if err != nil {
			return nil, fmt.Errorf("server: api key %q: %w", k.Name, err)
		}
		keys[i] = auth.APIKey{Name: k.Name, Key: v}
	}
	return auth.NewKeySet(keys)
}

func newExecutor(cfg config.ToolsConfig) *resilience.Executor {
	opts := []resilience.ExecutorOption{
		resilience.WithBulkhead(resilience.NewBulkhead(cfg.Bulkhead)),
		resilience.WithTimeout(cfg.Timeout),
	}
	if cfg.RateLimit.Rate > 0 {
		opts = append(opts, resilience.WithRateLimiter(resilience.NewRateLimiter(cfg.RateLimit)))
	}
	return resilience.NewExecutor(opts...)
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Dispatcher returns the tool dispatcher.
func (s *Server) Dispatcher() *tools.Dispatcher {
	return s.tools
}

// Logger returns the process logger.
func (s *Server) Logger() observe.Logger {
	return s.tel.Logger
}

// ListenAndServe listens on the configured address and serves until ctx
// ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.cfg.Server.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx ends, then drains in-flight requests for up
// to ShutdownTimeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.mux,
		ReadHeaderTimeout: s.cfg.Server.ReadTimeout,
		ReadTimeout:       s.cfg.Server.ReadTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Serve(ln)
	}()
	s.tel.Logger.Info(ctx, "serving", observe.Field{Key: "addr", Value: ln.Addr().String()})

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	s.tel.Logger.Info(shutdownCtx, "shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close unregisters the cache gauge and flushes telemetry.
func (s *Server) Close(ctx context.Context) error {
	var errs []error
	if s.gauge != nil {
		errs = append(errs, s.gauge.Unregister())
	}
	errs = append(errs, s.obs.Shutdown(ctx))
	return errors.Join(errs...)
}
