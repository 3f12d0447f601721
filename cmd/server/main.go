package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	invoicingapp "github.com/invoicer/backend/internal/application/invoicing"
	"github.com/invoicer/backend/internal/infrastructure/auth"
	"github.com/invoicer/backend/internal/infrastructure/cache"
	"github.com/invoicer/backend/internal/infrastructure/config"
	"github.com/invoicer/backend/internal/infrastructure/crypto"
	"github.com/invoicer/backend/internal/infrastructure/logger"
	"github.com/invoicer/backend/internal/infrastructure/mail"
	"github.com/invoicer/backend/internal/infrastructure/persistence"
	"github.com/invoicer/backend/internal/infrastructure/printing"
	"github.com/invoicer/backend/internal/infrastructure/storage"
	"github.com/invoicer/backend/internal/infrastructure/telemetry"
	"github.com/invoicer/backend/internal/interfaces/http/handler"
	"github.com/invoicer/backend/internal/interfaces/http/middleware"
	"github.com/invoicer/backend/internal/interfaces/http/router"
	"go.uber.org/zap"

	_ "github.com/invoicer/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			Invoice Renderer API
//	@version		1.0
//	@description	Renders invoices to PDF, publishes them to object storage and emails them through Gmail.

//	@BasePath	/

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Identity token as "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	ctx := context.Background()

	// Bootstrap logger for telemetry setup; replaced once the OTLP core exists.
	bootLog, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	telemetryCfg := telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}

	logsCfg := telemetryCfg
	logsCfg.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled
	logProvider, err := telemetry.NewLoggerProvider(ctx, logsCfg, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize log exporter", zap.Error(err))
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}, logProvider.Core(cfg.Telemetry.ServiceName, logger.ParseLevel(cfg.Log.Level)))
	if err != nil {
		bootLog.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer func() {
		_ = log.Sync()
	}()
	zap.ReplaceGlobals(log)

	log.Info("Starting invoice renderer",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Pyroscope.Enabled,
		ServerAddress:   cfg.Pyroscope.ServerAddress,
		ApplicationName: cfg.Telemetry.ServiceName,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.IsEnabled() {
		tracerProvider.EnableSpanProfiles()
	}

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), 200*time.Millisecond)
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithGormLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if db.Driver() == "sqlite" {
		// postgres schemas are managed by cmd/migrate
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to migrate sqlite schema", zap.Error(err))
		}
	}
	dbSystem := "postgresql"
	if db.Driver() == "sqlite" {
		dbSystem = "sqlite"
	}
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:          cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		DBSystem:         dbSystem,
		IncludeVariables: !cfg.App.IsProduction(),
	}, log); err != nil {
		log.Warn("Failed to enable database tracing", zap.Error(err))
	}
	log.Info("Database connected successfully", zap.String("driver", db.Driver()))

	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	clientRepo := persistence.NewGormClientRepository(db.DB)
	profileRepo := persistence.NewGormIssuerProfileRepository(db.DB)

	// Shared coordination: render locks and OAuth state nonces
	coordination, err := cache.NewFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.App.IsProduction()),
	).Create()
	if err != nil {
		log.Fatal("Failed to initialize coordination stores", zap.Error(err))
	}
	defer func() {
		_ = coordination.Close()
	}()

	tokenKey, err := cfg.Crypto.TokenKeyBytes()
	if err != nil {
		log.Fatal("crypto.token_key is not valid base64", zap.Error(err))
	}
	sealer, err := crypto.NewSealer(tokenKey)
	if err != nil {
		log.Fatal("Failed to initialize token sealer", zap.Error(err))
	}

	objectStore := newObjectStore(ctx, cfg, log)

	renderer, err := printing.NewTemplateRenderer()
	if err != nil {
		log.Fatal("Failed to parse invoice template", zap.Error(err))
	}
	rasterizer := printing.NewChromedpRasterizer(printing.ChromedpConfig{
		Timeout:       cfg.Chrome.RenderTimeout,
		RemoteURL:     cfg.Chrome.RemoteURL,
		ExecPath:      cfg.Chrome.ExecPath,
		MarginPx:      cfg.Chrome.MarginPx,
		MaxConcurrent: cfg.Chrome.MaxConcurrent,
		Logger:        log,
	})
	defer func() {
		_ = rasterizer.Close()
	}()

	gmail, err := mail.NewGmail(mail.GmailConfig{
		ClientID:         cfg.Gmail.ClientID,
		ClientSecret:     cfg.Gmail.ClientSecret,
		RedirectURL:      cfg.Gmail.RedirectURL,
		SendEndpoint:     cfg.Gmail.SendEndpoint,
		UserinfoEndpoint: cfg.Gmail.UserinfoEndpoint,
		Logger:           log,
	})
	if err != nil {
		log.Fatal("Failed to initialize Gmail client", zap.Error(err))
	}
	stateCodec := mail.NewStateCodec(cfg.Gmail.StateSecret, cfg.Gmail.StateTTL, coordination.StateStore)

	verifier, err := auth.NewVerifier(cfg.Auth, &http.Client{Timeout: 10 * time.Second}, log)
	if err != nil {
		log.Fatal("Failed to initialize token verifier", zap.Error(err))
	}

	metrics, err := telemetry.NewPipelineMetrics(meterProvider.Meter("invoice-pipeline"))
	if err != nil {
		log.Fatal("Failed to register pipeline metrics", zap.Error(err))
	}

	// Application services
	publishService := invoicingapp.NewPublishService(invoicingapp.PublishDeps{
		Invoices:   invoiceRepo,
		Clients:    clientRepo,
		Profiles:   profileRepo,
		Renderer:   renderer,
		Rasterizer: rasterizer,
		Store:      objectStore,
		Mailer:     gmail,
		Sealer:     sealer,
		Locker:     coordination.Locker,
		Metrics:    metrics,
		Logger:     log,
	}, invoicingapp.PublishOptions{
		SignedURLTTL: cfg.Storage.SignedURLTTL,
		LockTTL:      cfg.Render.LockTTL,
		LockWait:     cfg.Render.LockWait,
	})
	mailService := invoicingapp.NewMailConnectionService(gmail, stateCodec, sealer, profileRepo, log)

	// HTTP
	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Tracing - Server span per request
	// 5. Security - Add security headers
	// 6. CORS - Handle cross-origin requests
	// 7. BodyLimit - Limit request body size
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     tracerProvider.IsEnabled(),
	}))
	engine.Use(middleware.SpanAttributes())
	engine.Use(middleware.SecureWithConfig(middleware.DefaultSecurityConfig()))

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if !cfg.App.IsProduction() {
		engine.GET("/swagger/*any",
			middleware.SwaggerProtection(middleware.SwaggerConfig{
				Enabled:    cfg.Swagger.Enabled,
				AllowedIPs: cfg.Swagger.AllowedIPs,
			}),
			ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	r := router.NewRouter(engine)
	router.Register(r, router.Handlers{
		System:  handler.NewSystemHandler(objectStore, db),
		Invoice: handler.NewInvoiceHandler(publishService, verifier),
		Gmail:   handler.NewGmailHandler(mailService, cfg.Gmail.FrontendURL),
	}, middleware.BearerAuth(verifier, log))
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	shutdownTelemetry(shutdownCtx, log, tracerProvider, meterProvider, logProvider, profiler)

	log.Info("Server exited gracefully")
}

// documentStore is the storage surface the server wires into the pipeline and
// the health check.
type documentStore interface {
	invoicingapp.ObjectStore
	handler.BucketProbe
}

// newObjectStore returns the S3 store, or a process-local store when no
// bucket is configured outside production.
func newObjectStore(ctx context.Context, cfg *config.Config, log *zap.Logger) documentStore {
	if cfg.Storage.Bucket == "" {
		if cfg.App.IsProduction() {
			log.Fatal("storage.bucket is required in production")
		}
		log.Warn("storage.bucket not set, keeping documents in memory")
		return storage.NewMemoryObjectStore("local")
	}
	store, err := storage.NewS3ObjectStore(ctx, &cfg.Storage, storage.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to initialize object store", zap.Error(err))
	}
	return store
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

func shutdownTelemetry(ctx context.Context, log *zap.Logger, tp, mp shutdowner, lp shutdowner, profiler *telemetry.Profiler) {
	for name, s := range map[string]shutdowner{"tracer": tp, "meter": mp} {
		if err := s.Shutdown(ctx); err != nil {
			log.Warn("Telemetry shutdown failed", zap.String("provider", name), zap.Error(err))
		}
	}
	if err := profiler.Stop(); err != nil {
		log.Warn("Profiler shutdown failed", zap.Error(err))
	}
	// Flushed last so the shutdown warnings above are exported.
	if err := lp.Shutdown(ctx); err != nil {
		log.Warn("Log exporter shutdown failed", zap.Error(err))
	}
}
