package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Compras-api/internal/domain/entity"
)

// ReceivingRepository define el puerto de persistencia para registros de
// recepción. Create falla con domain.ErrDuplicate si el número de recepción
// ya existe (idempotencia: el mismo envío dos veces se rechaza, no se
// aplica doble).
type ReceivingRepository interface {
	Create(ctx context.Context, record *entity.ReceivingRecord, items []*entity.ReceivingItem) error
	GetByID(ctx context.Context, id string) (*entity.ReceivingRecord, error)
	GetByNumber(ctx context.Context, companyID, receivingNumber string) (*entity.ReceivingRecord, error)
	ListByOrder(ctx context.Context, orderID string) ([]*entity.ReceivingRecord, error)
	ListItems(ctx context.Context, receivingID string) ([]*entity.ReceivingItem, error)
	Approve(ctx context.Context, receivingID, approvedBy string, approvedAt time.Time) error
	// Cancel marca un registro pending como cancelled. Un registro approved
	// no se cancela: las correcciones van por movimientos compensatorios.
	Cancel(ctx context.Context, receivingID string) error
}
