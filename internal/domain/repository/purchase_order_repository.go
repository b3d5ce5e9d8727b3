package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Compras-api/internal/domain/entity"
)

// PurchaseOrderRepository define el puerto de persistencia para órdenes de
// compra. UpdateStatus es compare-and-set: solo escribe si la versión
// observada sigue vigente; si no, devuelve domain.ErrConflict y el caller
// reintenta con estado fresco (nunca sobreescritura silenciosa).
type PurchaseOrderRepository interface {
	Create(ctx context.Context, order *entity.PurchaseOrder, items []*entity.PurchaseOrderItem) error
	GetByID(ctx context.Context, id string) (*entity.PurchaseOrder, error)
	GetByNumber(ctx context.Context, companyID, orderNumber string) (*entity.PurchaseOrder, error)
	ListByCompany(ctx context.Context, companyID, status string, limit, offset int) ([]*entity.PurchaseOrder, error)
	UpdateStatus(ctx context.Context, orderID, newStatus string, expectedVersion int) error
}

// PurchaseOrderItemRepository define el puerto para las líneas de una orden.
// IncrementReceived solo suma: la cantidad recibida es monótona no
// decreciente y únicamente el reconciliador la actualiza.
type PurchaseOrderItemRepository interface {
	ListByOrder(ctx context.Context, orderID string) ([]*entity.PurchaseOrderItem, error)
	IncrementReceived(ctx context.Context, itemID string, delta decimal.Decimal) error
}
