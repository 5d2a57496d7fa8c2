package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"crypto-invoice.backend/internal/config"
	"crypto-invoice.backend/internal/infrastructure/blockchain"
	"crypto-invoice.backend/internal/infrastructure/jobs"
	"crypto-invoice.backend/internal/infrastructure/mailer"
	"crypto-invoice.backend/internal/infrastructure/models"
	"crypto-invoice.backend/internal/infrastructure/repositories"
	"crypto-invoice.backend/internal/interfaces/http/handlers"
	"crypto-invoice.backend/internal/interfaces/http/middleware"
	"crypto-invoice.backend/internal/usecases"
	"crypto-invoice.backend/pkg/jwt"
	"crypto-invoice.backend/pkg/logger"
	"crypto-invoice.backend/pkg/metrics"
	"crypto-invoice.backend/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

var (
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
	initLog    = logger.Init
	initRedis  = redis.Init
	openDB     = func(dsn string) (*gorm.DB, error) {
		return gorm.Open(postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			PrepareStmt: false,
		})
	}
	migrate = func(db *gorm.DB) error {
		return db.AutoMigrate(&models.Invoice{}, &models.UserProfile{})
	}
	newBackOff = func() backoff.BackOff {
		return backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 4)
	}
	runServer = func(srv *http.Server) error { return srv.ListenAndServe() }
	getStdDB  = func(db *gorm.DB) (*sql.DB, error) { return db.DB() }
	// nil means wait for SIGINT/SIGTERM
	shutdownSignal func() <-chan struct{}
)

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

func runMainProcess() error {
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := loadCfg()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	initLog(cfg.Server.Env)
	ctx := context.Background()
	logger.Info(ctx, "Logger initialized", zap.String("env", cfg.Server.Env))

	if err := retry(ctx, "redis", func() error { return initRedis(cfg.Redis.URL, cfg.Redis.Password) }); err != nil {
		return fmt.Errorf("failed to initialize redis: %w", err)
	}
	defer func() { _ = redis.Close() }()
	logger.Info(ctx, "Redis initialized")

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	var db *gorm.DB
	if err := retry(ctx, "database", func() error {
		var openErr error
		db, openErr = openDB(cfg.Database.URL())
		return openErr
	}); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := getStdDB(db)
	if err != nil {
		return fmt.Errorf("failed to get generic database object: %w", err)
	}
	defer sqlDB.Close()

	if err := migrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	logger.Info(ctx, "Connected to PostgreSQL via GORM")

	reg := metrics.New()

	// Repositories
	invoiceRepo := repositories.NewInvoiceRepository(db)
	profileRepo := repositories.NewUserProfileRepository(db)
	attemptStore := redis.NewAttemptStore(cfg.Wallet.AttemptTTL)

	// Blockchain
	tokenRegistry := blockchain.NewTokenRegistry(blockchain.DefaultTokens)
	clientFactory := blockchain.NewClientFactory(cfg.Blockchain.RPCURLs)
	defer clientFactory.Close()

	// Usecases
	mailClient := mailer.NewResendClient(cfg.Mail.ResendAPIKey, cfg.Mail.ResendURL, cfg.Mail.Timeout)
	notificationUsecase := usecases.NewNotificationUsecase(mailClient, cfg.Mail.From, reg)
	profileUsecase := usecases.NewProfileUsecase(profileRepo)
	dataValidationUsecase := usecases.NewDataValidationUsecase(usecases.ValidationRules{
		BlockedEmailDomain: cfg.Validation.BlockedEmailDomain,
		BlockedCountryCode: cfg.Validation.BlockedCountryCode,
		BlockedCity:        cfg.Validation.BlockedCity,
		PostalCodeMin:      cfg.Validation.PostalCodeMin,
		PostalCodeMax:      cfg.Validation.PostalCodeMax,
	}, reg)

	callbackURL := cfg.Server.PublicURL + "/functions/v1/data-validation"
	invoiceUsecase := usecases.NewInvoiceUsecase(invoiceRepo, profileRepo, attemptStore, tokenRegistry, notificationUsecase, usecases.InvoiceSettings{
		AppOrigin:      cfg.Server.AppOrigin,
		CallbackURL:    callbackURL,
		DefaultChainID: cfg.Wallet.DefaultChainID,
		DefaultToken:   cfg.Wallet.DefaultToken,
	}, reg)
	if cfg.Blockchain.VerifyReceipts {
		invoiceUsecase.SetReceiptVerifier(clientFactory)
	}
	if cfg.Blockchain.CheckBalance {
		invoiceUsecase.SetBalanceReader(clientFactory)
	}

	// Handlers
	invoiceHandler := handlers.NewInvoiceHandler(invoiceUsecase)
	profileHandler := handlers.NewProfileHandler(profileUsecase)
	configHandler := handlers.NewConfigHandler(handlers.ClientConfig{
		WalletAPIKey:   cfg.Wallet.APIKey,
		DefaultChainID: cfg.Wallet.DefaultChainID,
		DefaultToken:   cfg.Wallet.DefaultToken,
		Tokens:         blockchain.DefaultTokens,
		AppOrigin:      cfg.Server.AppOrigin,
		CallbackURL:    callbackURL,
	})
	dataValidationHandler := handlers.NewDataValidationHandler(dataValidationUsecase)
	notificationHandler := handlers.NewNotificationHandler(notificationUsecase)

	var tokenVerifier middleware.TokenVerifier
	if cfg.Functions.JWTSecret != "" {
		tokenVerifier = jwt.NewVerifier(cfg.Functions.JWTSecret)
	}
	limiter := middleware.NewRateLimiter(cfg.Functions.RateLimitRPS, cfg.Functions.RateLimitBurst)

	// Background jobs
	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	expiryJob := jobs.NewInvoiceExpiryJob(invoiceRepo, reg, cfg.Jobs.ExpiryInterval, cfg.Jobs.ExpiryBatchSize)
	go expiryJob.Start(jobCtx)

	r := gin.New()
	r.Use(gin.Recovery())
	applyCORSMiddleware(r)
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware(reg))

	deps := routeDeps{
		invoiceHandler:        invoiceHandler,
		profileHandler:        profileHandler,
		configHandler:         configHandler,
		dataValidationHandler: dataValidationHandler,
		notificationHandler:   notificationHandler,
		callbackAuth:          middleware.CallbackAuthMiddleware(cfg.Functions.AllowedOrigins, tokenVerifier),
		notificationAuth:      middleware.NotifierAuthMiddleware(tokenVerifier),
		rateLimit:             limiter.Middleware(),
		metrics:               reg,
	}
	registerHealthRoute(r)
	registerMetricsRoute(r, deps.metrics)
	registerAPIV1Routes(r, deps)
	registerFunctionRoutes(r, deps)

	for _, route := range r.Routes() {
		logger.Debug(ctx, "Route registered", zap.String("method", route.Method), zap.String("path", route.Path))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		<-waitForShutdown()
		logger.Info(ctx, "Shutting down server")
		expiryJob.Stop()
		cancel()

		shutdownCtx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		defer done()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error(ctx, "Server shutdown failed", zap.Error(err))
		}
	}()

	logger.Info(ctx, "Crypto Invoice backend starting",
		zap.String("port", cfg.Server.Port),
		zap.String("api", "http://localhost:"+cfg.Server.Port+"/api/v1"),
		zap.String("callback", callbackURL),
	)

	if err := runServer(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func waitForShutdown() <-chan struct{} {
	if shutdownSignal != nil {
		return shutdownSignal()
	}
	done := make(chan struct{})
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		close(done)
	}()
	return done
}

// retry runs op with exponential backoff, logging each failed attempt.
func retry(ctx context.Context, name string, op func() error) error {
	return backoff.RetryNotify(op, backoff.WithContext(newBackOff(), ctx), func(err error, wait time.Duration) {
		logger.Warn(ctx, "Dependency not ready, retrying",
			zap.String("dependency", name),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	})
}
