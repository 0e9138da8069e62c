package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/neemfurnitech/procurement-api/docs"
	"github.com/neemfurnitech/procurement-api/internal/auth"
	"github.com/neemfurnitech/procurement-api/internal/config"
	"github.com/neemfurnitech/procurement-api/internal/database"
	"github.com/neemfurnitech/procurement-api/internal/http/handler"
	"github.com/neemfurnitech/procurement-api/internal/http/middleware"
	"github.com/neemfurnitech/procurement-api/internal/http/router"
	"github.com/neemfurnitech/procurement-api/internal/jobs"
	"github.com/neemfurnitech/procurement-api/internal/logger"
	"github.com/neemfurnitech/procurement-api/internal/repository"
	"github.com/neemfurnitech/procurement-api/internal/service"
	"go.uber.org/zap"
)

// @title NeemFurniTech Procurement API
// @version 1.0
// @description Purchase order lifecycle API for vendor procurement, approval and invoicing

// @contact.name API Support
// @contact.email support@neemfurnitech.com

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
// @description API Key for system operations
// @Security BearerAuth
// @Security ApiKeyAuth

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	// Configure Swagger host based on environment
	switch basicCfg.App.Environment {
	case "staging":
		docs.SwaggerInfo.Host = "procurement-staging.neemfurnitech.com"
	case "production":
		docs.SwaggerInfo.Host = "procurement.neemfurnitech.com"
	default:
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	}

	// Load full configuration with secrets
	// In development: uses environment variables
	// In staging/production: fetches from Azure Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	// Connect to database with retry logic
	db, err := database.NewDatabase(&cfg.Database, log)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Initialize repositories
	poRepo := repository.NewPurchaseOrderRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	notificationRepo := repository.NewFinanceNotificationRepository(db)
	auditRepo := repository.NewAuditTrailRepository(db)
	numberSequenceRepo := repository.NewNumberSequenceRepository(db)

	// Initialize services
	numberService := service.NewNumberService(numberSequenceRepo, log)
	auditService := service.NewAuditTrailService(auditRepo, log)
	financeService := service.NewFinanceNotificationService(notificationRepo, cfg.Procurement.FinanceEmail, log)
	poService := service.NewPurchaseOrderService(poRepo, invoiceRepo, auditService, financeService, numberService, log, db)
	invoiceService := service.NewInvoiceService(invoiceRepo, poService, log)

	// Initialize middleware
	authMiddleware := auth.NewMiddleware(cfg, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	// Initialize handlers
	poHandler := handler.NewPurchaseOrderHandler(poService, log)
	invoiceHandler := handler.NewInvoiceHandler(invoiceService, log)
	auditHandler := handler.NewAuditHandler(auditService, log)
	notificationHandler := handler.NewNotificationHandler(financeService, log)

	// Setup router
	rt := router.NewRouter(
		cfg,
		log,
		db,
		authMiddleware,
		rateLimiter,
		poHandler,
		invoiceHandler,
		auditHandler,
		notificationHandler,
	)

	// Initialize and start scheduler for background jobs
	var scheduler *jobs.Scheduler
	if cfg.Jobs.Enabled {
		scheduler = jobs.NewScheduler(log)

		// The reconcile job re-generates invoices for approved orders whose
		// invoice step failed during approval.
		if err := jobs.RegisterInvoiceReconcileJob(
			scheduler,
			invoiceService,
			cfg.Procurement.ReconcileBatchSize,
			log,
			cfg.Jobs.InvoiceReconcileSchedule,
		); err != nil {
			log.Error("Failed to register invoice reconcile job", zap.Error(err))
		} else {
			scheduler.Start()
			log.Info("Scheduler started with invoice reconcile job",
				zap.String("cron_expr", cfg.Jobs.InvoiceReconcileSchedule),
				zap.Int("batch_size", cfg.Procurement.ReconcileBatchSize),
			)
		}
	} else {
		log.Info("Background jobs disabled")
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		// Stop scheduler if running
		if scheduler != nil {
			ctx := scheduler.Stop()
			<-ctx.Done()
			log.Info("Scheduler stopped")
		}

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
