package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/cuongbtq/cleaning-scheduler/internal/api/auth"
	"github.com/cuongbtq/cleaning-scheduler/internal/api/handler"
	"github.com/cuongbtq/cleaning-scheduler/internal/api/router"
	"github.com/cuongbtq/cleaning-scheduler/internal/api/storage"
	"github.com/cuongbtq/cleaning-scheduler/internal/config"
	"github.com/cuongbtq/cleaning-scheduler/internal/events"
	"github.com/cuongbtq/cleaning-scheduler/internal/history"
	"github.com/cuongbtq/cleaning-scheduler/internal/metrics"
	"github.com/cuongbtq/cleaning-scheduler/shared/logger"
	"github.com/cuongbtq/cleaning-scheduler/shared/postgresql"
	"github.com/cuongbtq/cleaning-scheduler/shared/rabbitmq"
	"github.com/cuongbtq/cleaning-scheduler/shared/sheets"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	defaultConfigPath := os.Getenv("API_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/api-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.ValidateAPIConfig(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	appLogger, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer appLogger.Close()

	appLogger.Info("Starting API service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
	)

	ctx := context.Background()
	healthChecks := make(map[string]router.HealthCheck)

	sheetsClient, err := initSheets(ctx, &cfg.Sheets, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	healthChecks["sheets"] = sheetsClient.HealthCheck

	table := sheets.NewTable(sheetsClient, cfg.Sheets.SheetName, storage.FirstDataRow, storage.LastColumn)
	jobStore := storage.NewStorage(table, appLogger.With(slog.String("component", "storage")).Logger)

	appLogger.Info("Job store ready",
		slog.String("spreadsheet_id", cfg.Sheets.SpreadsheetID),
		slog.String("sheet", cfg.Sheets.SheetName),
	)

	deps := &handler.Dependencies{
		Logger: appLogger.Logger,
		Store:  jobStore,
	}

	var dbClient *postgresql.Client
	if cfg.Database.Enabled {
		dbClient, err = initPostgreSQL(ctx, &cfg.Database, cfg.App.Name, appLogger.Logger)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer dbClient.Close()

		repo := history.NewRepository(dbClient.GetDB(), appLogger.Logger)
		if err := repo.EnsureSchema(ctx); err != nil {
			return err
		}
		deps.History = repo
		healthChecks["database"] = dbClient.HealthCheck

		appLogger.Info("Database connection established")
	}

	var rabbitClient *rabbitmq.Client
	if cfg.RabbitMQ.Enabled {
		rabbitClient, err = initRabbitMQ(&cfg.RabbitMQ, appLogger.Logger)
		if err != nil {
			return fmt.Errorf("failed to initialize RabbitMQ: %w", err)
		}
		defer rabbitClient.Close()

		deps.Events = events.NewRabbitPublisher(rabbitClient, appLogger.Logger).WithTimeout(cfg.RabbitMQ.Publish.Timeout)
		healthChecks["rabbitmq"] = func(context.Context) error { return rabbitClient.HealthCheck() }

		appLogger.Info("RabbitMQ connection established")
	}

	deps.Auth, err = auth.NewManager(auth.Config{
		Password:     cfg.Auth.Password,
		PasswordHash: cfg.Auth.PasswordHash,
		JWTSecret:    cfg.Auth.JWTSecret,
		TokenTTL:     cfg.Auth.TokenTTL,
		CookieName:   cfg.Auth.CookieName,
		CookieDomain: cfg.Auth.CookieDomain,
		CookieSecure: cfg.Auth.CookieSecure,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize auth: %w", err)
	}

	if cfg.Metrics.Enabled {
		metrics.MustRegister()
	}

	loginLimiter := router.NewIPRateLimiter(
		cfg.Auth.LoginRateLimit.RequestsPerMinute,
		cfg.Auth.LoginRateLimit.Burst,
		cfg.Auth.LoginRateLimit.IdleTTL,
	)
	defer loginLimiter.Stop()

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	r := router.SetupRouter(deps, router.Options{
		ServiceName:      cfg.App.Name,
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		MetricsEnabled:   cfg.Metrics.Enabled,
		MetricsPath:      cfg.Metrics.Path,
		LoginRateLimiter: loginLimiter,
		HealthChecks:     healthChecks,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	appLogger.Info("API service is running",
		slog.String("address", addr),
		slog.Duration("read_timeout", cfg.Server.ReadTimeout),
		slog.Duration("write_timeout", cfg.Server.WriteTimeout),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		appLogger.Info("Shutting down server...",
			slog.String("signal", sig.String()),
		)
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("Server forced to shutdown",
			slog.Any("error", err),
		)
		return err
	}

	appLogger.Info("Server shutdown complete")
	return nil
}

// initLogger initializes and configures the application logger
func initLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		Output:       cfg.Logging.Output,
		EnableSource: cfg.Logging.EnableCaller,
		TimeFormat:   time.RFC3339,
		Service:      cfg.App.Name,
	})
}

// initSheets builds the Google Sheets client for the job sheet
func initSheets(ctx context.Context, cfg *config.SheetsConfig, logger *slog.Logger) (*sheets.Client, error) {
	return sheets.NewClient(ctx, &sheets.Config{
		SpreadsheetID:     cfg.SpreadsheetID,
		CredentialsJSON:   cfg.ServiceAccountKey,
		CredentialsFile:   cfg.ServiceAccountFile,
		Endpoint:          cfg.Endpoint,
		RequestTimeout:    cfg.RequestTimeout,
		RetryAttempts:     cfg.RetryAttempts,
		RetryInterval:     cfg.RetryInterval,
		BackoffMultiplier: cfg.BackoffMultiplier,
	}, logger)
}

// initPostgreSQL initializes the PostgreSQL database client
func initPostgreSQL(ctx context.Context, cfg *config.DatabaseConfig, appName string, logger *slog.Logger) (*postgresql.Client, error) {
	dbConfig := &postgresql.Config{
		Host:            cfg.Host,
		Port:            cfg.Port,
		User:            cfg.User,
		Password:        cfg.Password,
		Database:        cfg.Database,
		SSLMode:         cfg.SSLMode,
		ApplicationName: appName,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
		ConnectRetries:  cfg.ConnectRetries,
		RetryInterval:   cfg.RetryInterval,
	}

	return postgresql.NewClient(ctx, dbConfig, logger)
}

// initRabbitMQ initializes a publish-only RabbitMQ client. The queue belongs
// to the worker, so none is declared here.
func initRabbitMQ(cfg *config.RabbitMQConfig, logger *slog.Logger) (*rabbitmq.Client, error) {
	rabbitConfig := &rabbitmq.Config{
		Host:               cfg.Host,
		Port:               cfg.Port,
		User:               cfg.User,
		Password:           cfg.Password,
		VHost:              cfg.VHost,
		ExchangeName:       cfg.Exchange.Name,
		ExchangeType:       cfg.Exchange.Type,
		ExchangeDurable:    cfg.Exchange.Durable,
		ExchangeAutoDelete: cfg.Exchange.AutoDelete,
		RetryAttempts:      cfg.Connection.RetryAttempts,
		RetryInterval:      cfg.Connection.RetryInterval,
		Heartbeat:          cfg.Connection.Heartbeat,
		ConnectionTimeout:  cfg.Connection.ConnectionTimeout,
		PublishRetries:     cfg.Publish.RetryAttempts,
		PublishRetryDelay:  cfg.Publish.RetryInterval,
		PublishBackoffMult: cfg.Publish.BackoffMultiplier,
		ConfirmPublishes:   true,
	}

	return rabbitmq.NewClient(rabbitConfig, logger)
}
