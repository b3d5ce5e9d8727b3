package repository

import (
	"context"

	"github.com/jhoicas/Compras-api/internal/domain/entity"
)

// AuditLogRepository define el puerto para el registro de auditoría.
// Append puro: no existe camino de update ni delete. Si la entrada lleva
// IdempotencyKey y ya existe, Append devuelve domain.ErrDuplicate.
type AuditLogRepository interface {
	Append(ctx context.Context, log *entity.AuditLog) error
	// ListByEntity devuelve todas las entradas de una entidad ordenadas por
	// (created_at, seq): reproducirlas reconstruye el estado actual.
	ListByEntity(ctx context.Context, entityType, entityID string) ([]*entity.AuditLog, error)
	// Recent devuelve las N entradas más recientes entre todas las entidades
	// (feed de actividad para dashboards operativos).
	Recent(ctx context.Context, limit int) ([]*entity.AuditLog, error)
}
