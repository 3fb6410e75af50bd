package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"officeflow-api/internal/auth"
	"officeflow-api/internal/config"
	"officeflow-api/internal/http/handler"
	"officeflow-api/internal/observability/logger"
	"officeflow-api/internal/ratelimit"
	"officeflow-api/internal/telemetry"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

// rs256Issuer names the issuer whose tokens are checked against
// JWT_RS256_PUBLIC_KEY.
const rs256Issuer = "officeflow-idp"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long:  `Start the OfficeFlow API HTTP server with all middlewares and observability`,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log, err := logger.New(cfg.OTELServiceName, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info(ctx, "starting officeflow api",
		zap.String("version", cfg.Version),
		zap.String("service", cfg.OTELServiceName),
		zap.String("store_backend", cfg.StoreBackend),
	)

	// Initialize telemetry strictly as opt-in
	var tracerProvider *sdktrace.TracerProvider
	var meterProvider *sdkmetric.MeterProvider
	var metrics *telemetry.Metrics

	if cfg.TelemetryEnabled() {
		log.Info(ctx, "initializing telemetry", zap.String("endpoint", cfg.OTELExporterEndpoint))

		tp, err := telemetry.InitTracer(ctx, cfg.OTELServiceName, cfg.Version, cfg.OTELExporterEndpoint, cfg.OTELSamplingRatio)
		if err != nil {
			log.Warn(ctx, "failed to initialize tracer, continuing without tracing", zap.Error(err))
		} else {
			tracerProvider = tp
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
					log.Error(shutdownCtx, "failed to shutdown tracer provider", zap.Error(err))
				}
			}()
		}

		mp, m, err := telemetry.InitMetrics(ctx, cfg.OTELServiceName, cfg.Version, cfg.OTELExporterEndpoint)
		if err != nil {
			log.Warn(ctx, "failed to initialize metrics, continuing without metrics", zap.Error(err))
		} else {
			meterProvider = mp
			metrics = m
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := meterProvider.Shutdown(shutdownCtx); err != nil {
					log.Error(shutdownCtx, "failed to shutdown meter provider", zap.Error(err))
				}
			}()
		}

		log.Info(ctx, "telemetry initialized", zap.Bool("tracing", tracerProvider != nil), zap.Bool("metrics", metrics != nil))
	} else {
		log.Info(ctx, "telemetry disabled (opt-in only or missing endpoint)")
	}

	bootCtx, cancelBoot := context.WithTimeout(ctx, bootTimeout)
	a, err := openApp(bootCtx, cfg, log, metrics)
	cancelBoot()
	if err != nil {
		return err
	}
	defer a.Close()

	resolver, err := buildResolver(ctx, cfg, log)
	if err != nil {
		return err
	}

	// Rate limiting needs redis; without it requests are not limited.
	var rateLimiter *ratelimit.RedisRateLimiter
	if a.redis != nil {
		var rejections metric.Int64Counter
		if metrics != nil {
			rejections = metrics.RateLimitRejections
		}
		rateLimiter = ratelimit.NewRedisRateLimiter(a.redis, rejections)
	} else {
		log.Warn(ctx, "REDIS_URL not set, rate limiting disabled")
	}

	r := buildRouter(RouterDeps{
		Cfg:              cfg,
		Log:              log,
		Resolver:         resolver,
		RateLimiter:      rateLimiter,
		Metrics:          metrics,
		Registry:         a.registry,
		ReadyChecks:      a.readyChecks(),
		WorkspaceHandler: handler.NewWorkspaceHandler(a.workspaces),
		OfficeHandler:    handler.NewOfficeHandler(a.offices),
		RoomHandler:      handler.NewRoomHandler(a.rooms),
		DomainHandler:    handler.NewDomainHandler(a.domains, a.members),
		UserHandler:      handler.NewUserHandler(a.users),
		AuditHandler:     handler.NewAuditHandler(a.audit),
		DebugHandler:     handler.NewDebugHandler(cfg.IsDev(), a.store, a.backend),
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting http server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
		close(serveErr)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case <-sigChan:
		log.Info(ctx, "shutdown signal received, starting graceful shutdown")
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "server shutdown error", zap.Error(err))
	}

	log.Info(shutdownCtx, "shutdown complete")
	return nil
}

// buildResolver registers an HS256 validator for every allowed issuer and,
// when a public key is configured, an RS256 validator for rs256Issuer.
func buildResolver(ctx context.Context, cfg *config.Config, log *logger.Logger) (*auth.KeyResolver, error) {
	secret, err := cfg.HS256Secret()
	if err != nil {
		return nil, err
	}

	issuers := cfg.GetAllowedIssuers()
	clockSkew := time.Duration(cfg.JWTClockSkewSeconds) * time.Second

	keyStore := auth.NewKeyStore()
	for _, issuer := range issuers {
		keyStore.LoadHS256Key(issuer, auth.DefaultKID, secret)
	}

	if cfg.JWTRS256PublicKey != "" {
		if err := keyStore.LoadRS256Key(rs256Issuer, auth.DefaultKID, cfg.JWTRS256PublicKey); err != nil {
			return nil, fmt.Errorf("failed to load RS256 public key: %w", err)
		}
		issuers = appendUnique(issuers, rs256Issuer)
	}

	resolver := auth.NewKeyResolver(issuers, []string{cfg.JWTAudience})
	for _, issuer := range cfg.GetAllowedIssuers() {
		resolver.RegisterValidator(issuer, auth.NewHS256Validator(keyStore, issuer, clockSkew))
	}
	if cfg.JWTRS256PublicKey != "" {
		resolver.RegisterValidator(rs256Issuer, auth.NewRS256Validator(keyStore, rs256Issuer, clockSkew))
	}

	log.Info(ctx, "JWT authentication initialized",
		zap.Strings("allowed_issuers", issuers),
		zap.Int("clock_skew_seconds", cfg.JWTClockSkewSeconds),
	)
	return resolver, nil
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
