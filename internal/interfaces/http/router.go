package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Compras-api/internal/application/approvals"
	"github.com/jhoicas/Compras-api/internal/application/audit"
	"github.com/jhoicas/Compras-api/internal/application/auth"
	"github.com/jhoicas/Compras-api/internal/application/orders"
	"github.com/jhoicas/Compras-api/internal/application/receiving"
	"github.com/jhoicas/Compras-api/internal/application/stock"
	"github.com/jhoicas/Compras-api/internal/application/usecase"
	"github.com/jhoicas/Compras-api/internal/domain/entity"
	"github.com/jhoicas/Compras-api/internal/infrastructure/cache"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC          *auth.AuthUseCase
	CreateOrder     *orders.CreateOrderUseCase
	TransitionOrder *orders.TransitionStatusUseCase
	OrderQuery      *orders.QueryUseCase
	DecideApproval  *approvals.DecideUseCase
	SubmitReceiving *receiving.SubmitReceivingUseCase
	ReceivingQuery  *receiving.QueryUseCase
	Ledger          *stock.LedgerUseCase
	Batch           *stock.BatchProcessor
	AuditQuery      *audit.QueryUseCase
	ProductUC       *usecase.ProductUseCase
	SupplierUC      *usecase.SupplierUseCase
	CacheMetrics    func() cache.Report
	JWTSecret       string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	// Products (protegido)
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Post("/", RequireRole(entity.RoleComprador), productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", RequireRole(entity.RoleComprador), productHandler.Update)

	// Suppliers (protegido)
	suppliers := protected.Group("/suppliers")
	supplierHandler := NewSupplierHandler(deps.SupplierUC)
	suppliers.Post("/", RequireRole(entity.RoleComprador), supplierHandler.Create)
	suppliers.Get("/", supplierHandler.List)
	suppliers.Get("/:id", supplierHandler.GetByID)
	suppliers.Put("/:id/active", RequireRole(entity.RoleComprador), supplierHandler.SetActive)

	// Purchase orders (protegido)
	ordersGroup := protected.Group("/orders")
	orderHandler := NewOrderHandler(deps.CreateOrder, deps.TransitionOrder, deps.OrderQuery)
	ordersGroup.Post("/", RequireRole(entity.RoleComprador), orderHandler.Create)
	ordersGroup.Get("/", orderHandler.List)
	ordersGroup.Get("/:id", orderHandler.GetByID)
	ordersGroup.Put("/:id/status", RequireRole(entity.RoleComprador, entity.RoleGerente), orderHandler.Transition)
	ordersGroup.Get("/:id/history", orderHandler.History)

	// Approvals (protegido, anidado en la orden)
	approvalHandler := NewApprovalHandler(deps.DecideApproval)
	ordersGroup.Post("/:id/approvals", RequireRole(entity.RoleAprobador, entity.RoleGerente), approvalHandler.Decide)
	ordersGroup.Get("/:id/approvals", approvalHandler.List)

	// Receivings (protegido)
	receivingHandler := NewReceivingHandler(deps.SubmitReceiving, deps.ReceivingQuery)
	ordersGroup.Post("/:id/receivings", RequireRole(entity.RoleBodeguero), receivingHandler.Submit)
	ordersGroup.Get("/:id/receivings", receivingHandler.ListByOrder)
	receivings := protected.Group("/receivings")
	receivings.Put("/:id/approve", RequireRole(entity.RoleAprobador, entity.RoleGerente), receivingHandler.Approve)
	receivings.Put("/:id/cancel", RequireRole(entity.RoleAprobador, entity.RoleGerente), receivingHandler.Cancel)

	// Stock ledger (protegido)
	stockGroup := protected.Group("/stock")
	stockHandler := NewStockHandler(deps.Ledger, deps.Batch, deps.CacheMetrics)
	stockGroup.Post("/movements", RequireRole(entity.RoleBodeguero), stockHandler.RecordMovement)
	stockGroup.Post("/batch", RequireRole(entity.RoleBodeguero), stockHandler.BatchApply)
	stockGroup.Get("/cache/metrics", stockHandler.CacheMetrics)
	stockGroup.Get("/:id/history", stockHandler.History)
	stockGroup.Get("/:id/summary", stockHandler.Summary)

	// Audit (protegido)
	auditGroup := protected.Group("/audit")
	auditHandler := NewAuditHandler(deps.AuditQuery)
	auditGroup.Get("/recent", auditHandler.Recent)
	auditGroup.Get("/:type/:id", auditHandler.TrailByEntity)
}
