package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Compras-api/internal/domain/entity"
)

// StockMovementRepository define el puerto de persistencia para el ledger de
// stock. Solo existe Create: las entradas nunca se actualizan ni borran.
type StockMovementRepository interface {
	Create(ctx context.Context, movement *entity.StockMovement) error
	GetByID(ctx context.Context, id string) (*entity.StockMovement, error)
	// ListByProduct devuelve el historial ordenado por fecha ascendente.
	// limit/offset permiten reanudar la consulta con un offset de continuación.
	ListByProduct(ctx context.Context, productID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error)
	// Summary agrega total entradas, total salidas, cambio neto y actores
	// distintos por producto (reporte de reconciliación).
	Summary(ctx context.Context, productID string) (*entity.StockSummary, error)
}
