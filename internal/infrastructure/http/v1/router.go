// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"tradedesk/internal/domain/catalogs/party"
	"tradedesk/internal/domain/catalogs/product"
	"tradedesk/internal/infrastructure/http/v1/handlers"
	"tradedesk/internal/infrastructure/http/v1/middleware"
	"tradedesk/internal/infrastructure/metrics"
	"tradedesk/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	Logger *logger.Logger

	// DB answers readiness probes
	DB handlers.Pinger

	Products  *product.Service
	Parties   *party.Service
	Purchases handlers.PurchaseService
	Sales     handlers.SaleService
	Stock     handlers.StockService
	Invoices  handlers.InvoiceService
	Reports   handlers.ReportService

	// Idempotency is nil when X-Idempotency-Key handling is disabled
	Idempotency middleware.IdempotencyStore

	// HTTPMetrics is nil when metrics are disabled
	HTTPMetrics *metrics.HTTPMetrics
	// Gatherer serves /metrics when set
	Gatherer    prometheus.Gatherer
	MetricsPath string

	Version string
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Trace())
	router.Use(middleware.ClientID())
	router.Use(middleware.Logger(cfg.Logger))
	if cfg.HTTPMetrics != nil {
		router.Use(middleware.Metrics(cfg.HTTPMetrics))
	}
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Recovery())

	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Version)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}

	if cfg.Gatherer != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.GET(path, gin.WrapH(metrics.Handler(cfg.Gatherer)))
	}

	api := router.Group("/api/v1")
	if cfg.Idempotency != nil {
		api.Use(middleware.Idempotency(cfg.Idempotency))
	}

	base := handlers.NewBaseHandler()
	registerCatalogRoutes(api, base, cfg)
	registerDocumentRoutes(api, base, cfg)
	registerRegisterRoutes(api, base, cfg)
	registerDashboardRoutes(api, base, cfg)

	return router
}

// CatalogRouteHandler is implemented by every catalog handler.
type CatalogRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
}

// RegisterCatalogRoutes registers standard CRUD routes for a catalog.
func RegisterCatalogRoutes(group *gin.RouterGroup, handler CatalogRouteHandler) {
	group.GET("", handler.List)
	group.POST("", handler.Create)
	group.GET("/:id", handler.Get)
	group.PUT("/:id", handler.Update)
	group.DELETE("/:id", handler.Delete)
}

// DocumentRouteHandler is implemented by the purchase and sale handlers.
type DocumentRouteHandler interface {
	CatalogRouteHandler
	Quote(c *gin.Context)
}

// RegisterDocumentRoutes registers the draft, submit and CRUD routes of a document type.
func RegisterDocumentRoutes(group *gin.RouterGroup, handler DocumentRouteHandler) {
	group.POST("/quote", handler.Quote)
	RegisterCatalogRoutes(group, handler)
}

func registerCatalogRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	catalogs := rg.Group("/catalog")

	if cfg.Products != nil {
		products := handlers.NewProductHandler(base, cfg.Products)
		group := catalogs.Group("/products")
		group.GET("/low-stock", products.LowStock)
		group.GET("/price-list", products.PriceList)
		RegisterCatalogRoutes(group, products)
	}
	if cfg.Parties != nil {
		RegisterCatalogRoutes(catalogs.Group("/parties"), handlers.NewPartyHandler(base, cfg.Parties))
	}
}

func registerDocumentRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	docs := rg.Group("/documents")

	if cfg.Purchases != nil {
		h := handlers.NewPurchaseHandler(base, cfg.Purchases)
		group := docs.Group("/purchases")
		RegisterDocumentRoutes(group, h)
		group.GET("/:id/payments", h.Payments)
		group.POST("/:id/payments", h.AddPayment)
		group.POST("/:id/receive", h.Receive)
	}
	if cfg.Sales != nil {
		var invoicer handlers.SaleInvoicer
		if cfg.Invoices != nil {
			invoicer = cfg.Invoices
		}
		h := handlers.NewSaleHandler(base, cfg.Sales, invoicer)
		group := docs.Group("/sales")
		RegisterDocumentRoutes(group, h)
		group.GET("/:id/payments", h.Payments)
		group.POST("/:id/payments", h.AddPayment)
		group.POST("/:id/deliver", h.Deliver)
		if invoicer != nil {
			group.POST("/:id/invoice", h.GenerateInvoice)
		}
	}
	if cfg.Invoices != nil {
		h := handlers.NewInvoiceHandler(base, cfg.Invoices)
		group := docs.Group("/invoices")
		group.GET("", h.List)
		group.GET("/:id", h.Get)
		group.POST("/:id/mark-sent", h.MarkSent)
		group.POST("/:id/mark-paid", h.MarkPaid)
		group.POST("/:id/cancel", h.Cancel)
	}
}

func registerDashboardRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	if cfg.Reports == nil {
		return
	}
	h := handlers.NewDashboardHandler(base, cfg.Reports)
	dashboard := rg.Group("/dashboard")
	dashboard.GET("/sales-summary", h.SalesSummary)
	dashboard.GET("/purchases-summary", h.PurchasesSummary)
	dashboard.GET("/supplier-payments", h.SupplierPayments)
	dashboard.GET("/customer-payments", h.CustomerPayments)
}

func registerRegisterRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	if cfg.Stock == nil {
		return
	}
	h := handlers.NewStockHandler(base, cfg.Stock)
	stock := rg.Group("/registers/stock")
	stock.GET("/:productId/balance", h.Balance)
	stock.GET("/:productId/movements", h.History)
	stock.POST("/entries", h.Enter)
}
