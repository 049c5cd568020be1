package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/noah-isme/backend-rental/internal/app"
	"github.com/noah-isme/backend-rental/internal/cache"
	"github.com/noah-isme/backend-rental/internal/commission"
	"github.com/noah-isme/backend-rental/internal/common"
	"github.com/noah-isme/backend-rental/internal/config"
	"github.com/noah-isme/backend-rental/internal/health"
	"github.com/noah-isme/backend-rental/internal/insurance"
	"github.com/noah-isme/backend-rental/internal/listing"
	"github.com/noah-isme/backend-rental/internal/lock"
	"github.com/noah-isme/backend-rental/internal/money"
	"github.com/noah-isme/backend-rental/internal/obs"
	"github.com/noah-isme/backend-rental/internal/pricing"
	"github.com/noah-isme/backend-rental/internal/ratelimit"
	"github.com/noah-isme/backend-rental/internal/resilience"
	"github.com/noah-isme/backend-rental/internal/security"
	"github.com/noah-isme/backend-rental/internal/shipping"
	"github.com/noah-isme/backend-rental/internal/transaction"
	"github.com/noah-isme/backend-rental/internal/voucher"
)

const serviceName = "rental-api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := obs.NewLogger(cfg.Obs.LogFormat, cfg.Obs.LogLevel).With().Str("env", cfg.AppEnv).Logger()
	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("rental api stopped")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	obs.MustRegisterDomainMetrics(cfg.Obs.MetricsNamespace, nil)

	tracingEnabled := cfg.Obs.TracingEnabled
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:    serviceName,
			ServiceVersion: cfg.Obs.ServiceVersion,
			Endpoint:       cfg.Obs.OTLPEndpoint,
			Exporter:       cfg.Obs.TracingExporter,
			SamplingRatio:  cfg.Obs.SamplingRatio,
			Environment:    cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	if cfg.MigrationsDir != "" {
		if err := app.RunMigrations(cfg.MigrationsDir, cfg.DatabaseURL); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	deps, err := openDependencies(cfg, logger)
	if err != nil {
		return err
	}
	defer deps.Close(logger)

	newBreaker := func(target string) *resilience.Breaker {
		return resilience.NewBreaker(cfg.CircuitMinRequests, cfg.CircuitFailureRatio, cfg.CircuitOpenFor).
			WithTarget(target).
			WithLogger(logger)
	}

	listingBreaker := newBreaker("listing-store")
	listingService, err := listing.NewService(listing.ServiceConfig{
		Store:   listing.PGStore{DB: deps.DB},
		Cache:   cache.NewJSON(deps.Redis, cfg.ListingCacheTTL),
		Breaker: listingBreaker,
	})
	if err != nil {
		return fmt.Errorf("initialise listing service: %w", err)
	}

	assetBreaker := newBreaker("commission-assets")
	commissionLoader := &commission.Loader{
		HTTP: resilience.HTTPClient{
			Client:      &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
			Breaker:     assetBreaker,
			BaseBackoff: cfg.RetryBase,
			MaxAttempts: cfg.RetryMaxAttempts,
			Jitter:      cfg.RetryJitter,
			Timeout:     cfg.OutboundTimeout,
		},
		URL:      cfg.CommissionAssetURL,
		Cache:    cache.NewJSON(deps.Redis, cfg.CommissionCacheTTL),
		Lock:     &lock.Locker{R: deps.Redis},
		Defaults: defaultCommissions(cfg),
	}

	voucherService := &voucher.Service{Store: voucher.PGStore{DB: deps.DB}}
	shippingService := &shipping.Service{Client: shipping.FlatClient{Fees: cfg.ShippingBookingFees}}

	transactionService, err := transaction.NewService(transaction.ServiceConfig{
		Listings:    listingService,
		Commissions: commissionLoader,
		Coupons:     voucherService,
		Shipping:    shippingService,
		Insurance:   insurance.RateCalculator{RateBps: cfg.InsuranceRateBps, Minimums: cfg.InsuranceMinimums},
	})
	if err != nil {
		return fmt.Errorf("initialise transaction service: %w", err)
	}

	r := newRouter(cfg, logger, tracingEnabled)
	healthHandler := health.Handler{Probes: []health.Probe{
		{Name: "db", Timeout: cfg.Lifecycle.DBProbeTimeout, Check: deps.DB.Ping},
		{Name: "redis", Timeout: cfg.Lifecycle.RedisProbeTimeout, Check: func(ctx context.Context) error {
			return deps.Redis.Ping(ctx).Err()
		}},
		health.BreakerProbe("listing-store", listingBreaker),
		health.BreakerProbe("commission-assets", assetBreaker),
	}}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	limit := ratelimit.Handler{
		Limiter: deps.Limiter,
		Config:  ratelimit.Config{Key: ratelimit.KeyByClientIP, Window: cfg.RateLimitWindow, Max: cfg.RateLimitMax},
	}
	mountAPI(r, limit, cfg.BodyLimitBytes, apiHandlers{
		LineItems:     transaction.NewHandler(transactionService, deps.Validator).LineItems,
		Listing:       listing.NewHandler(listingService).Get,
		CouponPreview: (&voucher.Handler{Svc: voucherService, Validator: deps.Validator}).Preview,
	})

	return serve(cfg, logger, r)
}

func openDependencies(cfg *config.Config, logger zerolog.Logger) (*app.Dependencies, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := app.OpenPostgres(ctx, cfg.DatabaseURL, serviceName)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	redisClient, err := app.OpenRedis(ctx, cfg.RedisURL, cfg.Obs.MetricsEnabled, logger)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("open redis: %w", err)
	}
	deps := &app.Dependencies{
		DB:        pool,
		Redis:     redisClient,
		Validator: common.NewValidator(nil),
	}
	if deps.Limiter, err = app.NewLimiter(cfg, redisClient); err != nil {
		deps.Close(logger)
		return nil, fmt.Errorf("initialise rate limiter: %w", err)
	}
	return deps, nil
}

type apiHandlers struct {
	LineItems     http.HandlerFunc
	Listing       http.HandlerFunc
	CouponPreview http.HandlerFunc
}

// mountAPI registers the /api/v1 endpoints. The limiter is attached per
// endpoint so it keys on the matched route pattern, not the raw path.
func mountAPI(r chi.Router, limit ratelimit.Handler, bodyLimit int64, h apiHandlers) {
	r.Route("/api/v1", func(v chi.Router) {
		v.Use(security.BodyLimit{Max: bodyLimit}.Middleware)
		limited := v.With(limit.Middleware)
		limited.Post("/transaction-line-items", h.LineItems)
		limited.Get("/listings/{id}", h.Listing)
		limited.Post("/coupons/preview", h.CouponPreview)
	})
}

// newRouter builds the chi router with the shared middleware stack plus the
// metrics and profiling endpoints.
func newRouter(cfg *config.Config, logger zerolog.Logger, tracing bool) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracing {
		r.Use(obs.TracingMiddleware)
	}
	if cfg.Obs.MetricsEnabled {
		buckets := obs.ParseBucketsCSV(cfg.Obs.MetricsBuckets)
		r.Use(obs.HTTPObs{Metrics: obs.NewHTTPMetrics(cfg.Obs.MetricsNamespace, buckets, nil)}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(cfg),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "X-RateLimit-Remaining", "Retry-After"},
		MaxAge:         300,
	}))
	r.Use(security.Headers{
		Enable:                cfg.Security.HeadersEnabled,
		EnableHSTS:            cfg.Security.HSTSEnabled,
		HSTSMaxAge:            cfg.Security.HSTSMaxAge,
		HSTSIncludeSubdomains: cfg.Security.HSTSIncludeSubdomains,
	}.Middleware)

	if cfg.Obs.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	if cfg.Obs.PprofEnabled {
		r.Group(func(d chi.Router) {
			if cfg.Obs.PprofUser != "" {
				d.Use(middleware.BasicAuth("pprof", map[string]string{cfg.Obs.PprofUser: cfg.Obs.PprofPass}))
			}
			d.Mount("/debug", middleware.Profiler())
		})
	}
	return r
}

// serve runs the server until SIGINT or SIGTERM. Readiness flips to failing
// first, then the drain delay elapses before in-flight requests are awaited.
func serve(cfg *config.Config, logger zerolog.Logger, handler http.Handler) error {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	stop, stopCancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopCancel()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-stop.Done():
	}
	health.SetReady(false)
	logger.Info().Msg("shutdown requested")

	if cfg.Lifecycle.ShutdownDrain > 0 {
		time.Sleep(cfg.Lifecycle.ShutdownDrain)
	}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Lifecycle.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}

// defaultCommissions builds the commission used while the hosted asset is
// unreachable. The minimum has no currency and takes the listing's.
func defaultCommissions(cfg *config.Config) commission.Assets {
	var assets commission.Assets
	if cfg.CommissionProviderPercentage != nil {
		c := &pricing.Commission{Percentage: cfg.CommissionProviderPercentage}
		if cfg.CommissionProviderMinimum > 0 {
			minimum := money.New(cfg.CommissionProviderMinimum, "")
			c.MinimumAmount = &minimum
		}
		assets.Provider = c
	}
	if cfg.CommissionCustomerPercentage != nil {
		assets.Customer = &pricing.Commission{Percentage: cfg.CommissionCustomerPercentage}
	}
	return assets
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}
