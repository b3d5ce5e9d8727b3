package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Compras-api/internal/application/approvals"
	"github.com/jhoicas/Compras-api/internal/application/audit"
	"github.com/jhoicas/Compras-api/internal/application/auth"
	"github.com/jhoicas/Compras-api/internal/application/dto"
	"github.com/jhoicas/Compras-api/internal/application/orders"
	"github.com/jhoicas/Compras-api/internal/application/receiving"
	"github.com/jhoicas/Compras-api/internal/application/stock"
	"github.com/jhoicas/Compras-api/internal/application/usecase"
	"github.com/jhoicas/Compras-api/internal/infrastructure/cache"
	"github.com/jhoicas/Compras-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/Compras-api/internal/interfaces/http"
	"github.com/jhoicas/Compras-api/pkg/config"
	"github.com/jhoicas/Compras-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	txRunner := postgres.NewTxRunner(pool)
	userRepo := postgres.NewUserRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	supplierRepo := postgres.NewSupplierRepository(pool)
	orderRepo := postgres.NewPurchaseOrderRepository(pool)
	itemRepo := postgres.NewPurchaseOrderItemRepository(pool)
	receivingRepo := postgres.NewReceivingRepository(pool)
	approvalRepo := postgres.NewApprovalRepository(pool)
	stockRepo := postgres.NewStockRepository(pool)
	movementRepo := postgres.NewStockMovementRepository(pool)
	auditRepo := postgres.NewAuditLogRepository(pool)
	historyRepo := postgres.NewStatusHistoryRepository(pool)
	veRepo := postgres.NewValidationErrorRepository(pool)

	// Cadena de aprobación: los límites vienen como string desde el entorno
	// (APPROVAL_LEVELS) y se parsean aquí, una sola vez.
	chain := approvals.ChainConfig{}
	for _, lvl := range cfg.Approval.Levels {
		limit, err := decimal.NewFromString(lvl.Limit)
		if err != nil {
			log.Fatal().Err(err).Int("level", lvl.Level).Msg("límite de aprobación inválido")
		}
		chain.Levels = append(chain.Levels, approvals.ChainLevel{
			Level: lvl.Level,
			Limit: limit,
			Role:  lvl.Role,
		})
	}

	summaryCache, err := cache.New[string, *dto.StockSummaryResponse](cfg.Cache.Capacity, cfg.Cache.CriticalMs)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar caché de stock")
	}

	authUC := auth.NewAuthUseCase(userRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	productUC := usecase.NewProductUseCase(txRunner, productRepo, veRepo)
	supplierUC := usecase.NewSupplierUseCase(txRunner, supplierRepo, veRepo)
	createOrderUC := orders.NewCreateOrderUseCase(txRunner, productRepo, supplierRepo, veRepo)
	transitionUC := orders.NewTransitionStatusUseCase(txRunner, orderRepo, veRepo)
	orderQueryUC := orders.NewQueryUseCase(orderRepo, itemRepo, historyRepo)
	decideUC := approvals.NewDecideUseCase(txRunner, orderRepo, approvalRepo, veRepo, chain)
	submitReceivingUC := receiving.NewSubmitReceivingUseCase(txRunner, orderRepo, receivingRepo, veRepo)
	receivingQueryUC := receiving.NewQueryUseCase(orderRepo, receivingRepo)
	ledgerUC := stock.NewLedgerUseCase(
		txRunner, stockRepo, movementRepo, productRepo, veRepo,
		summaryCache, cfg.Stock.AllowNegativeAdjustment,
	)
	batchUC := stock.NewBatchProcessor(ledgerUC, cfg.Batch.ChunkSize, cfg.Batch.Workers)
	auditQueryUC := audit.NewQueryUseCase(auditRepo)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Compras API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:          authUC,
		CreateOrder:     createOrderUC,
		TransitionOrder: transitionUC,
		OrderQuery:      orderQueryUC,
		DecideApproval:  decideUC,
		SubmitReceiving: submitReceivingUC,
		ReceivingQuery:  receivingQueryUC,
		Ledger:          ledgerUC,
		Batch:           batchUC,
		AuditQuery:      auditQueryUC,
		ProductUC:       productUC,
		SupplierUC:      supplierUC,
		CacheMetrics:    summaryCache.Metrics,
		JWTSecret:       cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
