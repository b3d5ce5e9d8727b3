package repository

import (
	"context"

	"github.com/jhoicas/Compras-api/internal/domain/entity"
)

// StatusHistoryRepository define el puerto para el historial de estados de
// una orden. Se escribe en la misma transacción que el cambio de estado.
type StatusHistoryRepository interface {
	Create(ctx context.Context, h *entity.StatusHistory) error
	ListByOrder(ctx context.Context, orderID string) ([]*entity.StatusHistory, error)
}
