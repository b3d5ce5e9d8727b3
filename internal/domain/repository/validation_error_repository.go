package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Compras-api/internal/domain/entity"
)

// ValidationErrorRepository define el puerto para los rechazos persistidos
// de la puerta de validación.
type ValidationErrorRepository interface {
	Create(ctx context.Context, ve *entity.ValidationError) error
	ListByEntity(ctx context.Context, entityType, entityID string) ([]*entity.ValidationError, error)
	Resolve(ctx context.Context, id, resolvedBy string, resolvedAt time.Time) error
}
