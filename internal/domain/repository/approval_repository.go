package repository

import (
	"context"

	"github.com/jhoicas/Compras-api/internal/domain/entity"
)

// ApprovalRepository define el puerto de persistencia para registros de
// aprobación. MaxLevel devuelve 0 si la orden no tiene registros.
type ApprovalRepository interface {
	Create(ctx context.Context, record *entity.ApprovalRecord) error
	ListByOrder(ctx context.Context, orderID string) ([]*entity.ApprovalRecord, error)
	GetByOrderAndLevel(ctx context.Context, orderID string, level int) (*entity.ApprovalRecord, error)
	MaxLevel(ctx context.Context, orderID string) (int, error)
}
