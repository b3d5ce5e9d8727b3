package repository

import (
	"context"

	"github.com/jhoicas/Compras-api/internal/domain/entity"
)

// StockRepository define el puerto para el contador autoritativo de stock
// por producto. Usado dentro de transacciones para garantizar consistencia.
type StockRepository interface {
	Get(ctx context.Context, productID string) (*entity.Stock, error)
	Upsert(ctx context.Context, stock *entity.Stock) error
	// GetForUpdate bloquea la fila del producto (SELECT FOR UPDATE):
	// serializa las mutaciones concurrentes del mismo producto; productos
	// distintos se actualizan en paralelo.
	GetForUpdate(ctx context.Context, productID string) (*entity.Stock, error)
}
