// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"khata/internal/domain/gst"
	"khata/internal/domain/sequence"
	"khata/internal/domain/valuation"
	"khata/internal/domain/voucher"
	"khata/internal/infrastructure/http/v1/handlers"
	"khata/internal/infrastructure/http/v1/middleware"
	"khata/internal/infrastructure/storage/postgres"
	"khata/internal/infrastructure/storage/postgres/master_repo"
	"khata/internal/infrastructure/storage/postgres/sequence_repo"
	"khata/internal/infrastructure/storage/postgres/valuation_repo"
	"khata/internal/infrastructure/storage/postgres/voucher_repo"
	"khata/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Pool is the database connection pool (also used by health checks).
	Pool *postgres.Pool

	// TxManager wraps the pool with transaction management.
	TxManager *postgres.TxManager

	// Logger for request logging.
	Logger *logger.Logger

	// AuditEnabled wires the voucher audit trail.
	AuditEnabled bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.UserContext())

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// Repositories
	voucherRepo := voucher_repo.NewVoucherRepo(cfg.TxManager)
	accountingRepo := voucher_repo.NewAccountingRepo(cfg.TxManager)
	inventoryRepo := voucher_repo.NewInventoryRepo(cfg.TxManager)
	gstRepo := voucher_repo.NewGSTRepo(cfg.TxManager)
	counterRepo := sequence_repo.NewCounterRepo(cfg.TxManager)
	aggregateRepo := valuation_repo.NewAggregateRepo(cfg.TxManager)
	companyRepo := master_repo.NewCompanyRepo(cfg.TxManager)
	ledgerRepo := master_repo.NewLedgerRepo(cfg.TxManager)
	stockItemRepo := master_repo.NewStockItemRepo(cfg.TxManager)

	// Services
	var auditStore *postgres.AuditStore
	if cfg.AuditEnabled {
		store, err := postgres.NewAuditStore(cfg.TxManager)
		if err != nil {
			return nil, err
		}
		auditStore = store
	}

	sequencer := sequence.NewSequencer(counterRepo)
	allocator := gst.NewAllocator(companyRepo, ledgerRepo, gstRepo)
	poster := voucher.NewPoster(accountingRepo)
	recorder := voucher.NewRecorder(inventoryRepo)
	var auditLogger voucher.AuditLogger
	if auditStore != nil {
		auditLogger = auditStore
	}
	voucherService := voucher.NewService(
		voucherRepo, poster, recorder, allocator, sequencer, cfg.TxManager, auditLogger,
	)
	valuationEngine := valuation.NewEngine(stockItemRepo, aggregateRepo, cfg.TxManager)

	baseHandler := handlers.NewBaseHandler()
	voucherHandler := handlers.NewVoucherHandler(baseHandler, voucherService, gstRepo, auditStore)
	counterHandler := handlers.NewCounterHandler(baseHandler, sequencer)
	valuationHandler := handlers.NewValuationHandler(baseHandler, valuationEngine)

	// API v1
	api := router.Group("/api/v1")
	{
		vouchers := api.Group("/vouchers")
		{
			vouchers.POST("", voucherHandler.Create)
			vouchers.GET("", voucherHandler.List)
			vouchers.GET("/:id", voucherHandler.Get)
			vouchers.PUT("/:id", voucherHandler.Update)
			vouchers.DELETE("/:id", voucherHandler.Delete)
			vouchers.GET("/:id/gst", voucherHandler.GetGST)
			if auditStore != nil {
				vouchers.GET("/:id/audit", voucherHandler.GetAudit)
			}
		}

		counters := api.Group("/counters")
		{
			counters.POST("", counterHandler.Create)
			counters.POST("/reserve", counterHandler.Reserve)
			counters.GET("/:voucherType", counterHandler.Get)
		}

		valuations := api.Group("/valuation")
		{
			valuations.GET("/items/:itemId", valuationHandler.GetItem)
			valuations.GET("/items/:itemId/timeline", valuationHandler.GetItemTimeline)
			valuations.GET("/company/:companyId", valuationHandler.GetCompany)
		}
	}

	return router, nil
}
