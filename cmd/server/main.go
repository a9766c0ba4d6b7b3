// Package main is the entry point for the tradedesk API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"tradedesk/internal/config"
	"tradedesk/internal/domain/catalogs/party"
	"tradedesk/internal/domain/catalogs/product"
	"tradedesk/internal/domain/documents/invoice"
	"tradedesk/internal/domain/documents/purchase"
	"tradedesk/internal/domain/documents/sale"
	"tradedesk/internal/domain/ledger"
	"tradedesk/internal/domain/registers/stock"
	"tradedesk/internal/domain/reports"
	v1 "tradedesk/internal/infrastructure/http/v1"
	"tradedesk/internal/infrastructure/http/v1/middleware"
	"tradedesk/internal/infrastructure/metrics"
	"tradedesk/internal/infrastructure/storage/postgres"
	"tradedesk/internal/infrastructure/storage/postgres/catalog_repo"
	"tradedesk/internal/infrastructure/storage/postgres/document_repo"
	"tradedesk/internal/infrastructure/storage/postgres/register_repo"
	"tradedesk/internal/infrastructure/storage/postgres/report_repo"
	"tradedesk/pkg/logger"
	"tradedesk/pkg/numerator"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Development: cfg.App.IsDev(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if cfg.App.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := logger.WithLogger(context.Background(), log)
	log.Infow("starting tradedesk server", "version", version, "env", cfg.App.Env)

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.DB.DSN)
	poolCfg.MaxConns = cfg.DB.MaxConns
	poolCfg.MinConns = cfg.DB.MinConns
	poolCfg.MaxConnLifetime = cfg.DB.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.DB.MaxConnIdleTime
	poolCfg.HealthCheckPeriod = cfg.DB.HealthCheckPeriod

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)
	numbers := numerator.New(txManager.NumeratorQuerier())

	auditTrail, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit trail", "error", err)
	}

	// --- Metrics ---
	var (
		registry    *prometheus.Registry
		httpMetrics *metrics.HTTPMetrics
	)
	if cfg.Metrics.Enabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics.RegisterPoolStats(registry, func() metrics.PoolStats {
			s := pool.Stats()
			return metrics.PoolStats{Total: s.TotalConns, Acquired: s.AcquiredConns, Idle: s.IdleConns, Max: s.MaxConns}
		})
		httpMetrics = metrics.NewHTTPMetrics(registry)
	}
	// A nil registerer yields a no-op observer.
	var registerer prometheus.Registerer
	if registry != nil {
		registerer = registry
	}
	submissions := metrics.NewSubmissionMetrics(registerer)

	// --- Catalogs and registers ---
	products := product.NewService(catalog_repo.NewProductRepo(txManager), txManager, numbers)
	parties := party.NewService(catalog_repo.NewPartyRepo(txManager), txManager, numbers)
	stockRegister := stock.NewService(register_repo.NewStockRepo(txManager), products, txManager)

	// --- Documents ---
	payments := document_repo.NewPaymentRepo(txManager)
	saleRepo := document_repo.NewSaleRepo(txManager)
	invoices := invoice.NewService(invoice.Config{
		Repo:      document_repo.NewInvoiceRepo(txManager),
		Sales:     saleRepo,
		Numerator: numbers,
		TxManager: txManager,
		Audit:     auditTrail,
		TermDays:  cfg.Ledger.InvoiceTermDays,
	})
	purchases := purchase.NewService(purchase.ServiceConfig{
		Repo:      document_repo.NewPurchaseRepo(txManager),
		Payments:  payments,
		Catalog:   products,
		Parties:   parties,
		Stock:     stockRegister,
		Numerator: numbers,
		TxManager: txManager,
		Audit:     auditTrail,
		Observer:  submissions,
		Defaults: ledger.Settings{
			TaxRate:     cfg.Ledger.TaxRate,
			ShippingFee: cfg.Ledger.PurchaseShippingFee,
		},
	})
	sales := sale.NewService(sale.ServiceConfig{
		Repo:      saleRepo,
		Payments:  payments,
		Invoices:  invoices,
		Catalog:   products,
		Parties:   parties,
		Stock:     stockRegister,
		Numerator: numbers,
		TxManager: txManager,
		Audit:     auditTrail,
		Observer:  submissions,
		Defaults: ledger.Settings{
			TaxRate:     cfg.Ledger.TaxRate,
			ShippingFee: cfg.Ledger.SaleShippingFee,
		},
	})

	dashboard := reports.NewService(report_repo.NewReportRepo(txManager))

	// --- Router ---
	routerCfg := v1.RouterConfig{
		Logger:      log,
		DB:          pool,
		Products:    products,
		Parties:     parties,
		Purchases:   purchases,
		Sales:       sales,
		Stock:       stockRegister,
		Invoices:    invoices,
		Reports:     dashboard,
		HTTPMetrics: httpMetrics,
		MetricsPath: cfg.Metrics.Path,
		Version:     version,
	}
	if registry != nil {
		routerCfg.Gatherer = registry
	}
	if cfg.HTTP.IdempotencyEnabled {
		var store middleware.IdempotencyStore = postgres.NewIdempotencyStore(txManager, cfg.HTTP.IdempotencyTTL)
		routerCfg.Idempotency = store
	}
	router := v1.NewRouter(routerCfg)

	// --- HTTP Server ---
	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Infow("server starting", "port", cfg.App.Port, "idempotency", cfg.HTTP.IdempotencyEnabled)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")
	pool.LogStats(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
