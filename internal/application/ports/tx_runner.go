package ports

import (
	"context"

	"github.com/jhoicas/Compras-api/internal/domain/repository"
)

// TxRepos agrupa los repositorios atados a una misma transacción de BD.
// Dentro del callback de TxRunner.Run, todas las escrituras hechas a través
// de estos repos comparten la transacción: el ledger de stock y la
// auditoría de una acción hacen commit o rollback junto con la mutación
// primaria de esa acción.
type TxRepos struct {
	Orders     repository.PurchaseOrderRepository
	OrderItems repository.PurchaseOrderItemRepository
	Receivings repository.ReceivingRepository
	Approvals  repository.ApprovalRepository
	Stock      repository.StockRepository
	Movements  repository.StockMovementRepository
	Audit      repository.AuditLogRepository
	History    repository.StatusHistoryRepository
	Products   repository.ProductRepository
	Suppliers  repository.SupplierRepository
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Garantiza atomicidad para el motor de
// órdenes y el ledger de stock.
type TxRunner interface {
	Run(ctx context.Context, fn func(r TxRepos) error) error
}
