package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Compras-api/internal/domain/entity"
	"github.com/jhoicas/Compras-api/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo implementación del ledger de stock sobre PostgreSQL.
// Solo inserta: no hay UPDATE ni DELETE sobre stock_movements.
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador del ledger.
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

// Create inserta una entrada del ledger.
func (r *StockMovementRepo) Create(ctx context.Context, m *entity.StockMovement) error {
	query := `
		INSERT INTO stock_movements
			(id, company_id, product_id, type, quantity_before, quantity_changed, quantity_after, reference_id, unit_cost, total_value, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.CompanyID, m.ProductID, m.Type, m.QuantityBefore, m.QuantityChanged,
		m.QuantityAfter, m.ReferenceID, m.UnitCost, m.TotalValue, m.CreatedBy, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert stock movement: %w", err)
	}
	return nil
}

// GetByID obtiene una entrada. Devuelve nil si no existe.
func (r *StockMovementRepo) GetByID(ctx context.Context, id string) (*entity.StockMovement, error) {
	query := `
		SELECT id, company_id, product_id, type, quantity_before, quantity_changed, quantity_after, reference_id, unit_cost, total_value, created_by, created_at
		FROM stock_movements WHERE id = $1`
	var m entity.StockMovement
	err := r.q.QueryRow(ctx, query, id).Scan(
		&m.ID, &m.CompanyID, &m.ProductID, &m.Type, &m.QuantityBefore, &m.QuantityChanged,
		&m.QuantityAfter, &m.ReferenceID, &m.UnitCost, &m.TotalValue, &m.CreatedBy, &m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get stock movement: %w", err)
	}
	return &m, nil
}

// ListByProduct devuelve el historial de un producto ordenado por fecha
// ascendente, con filtro opcional de rango y offset de continuación.
func (r *StockMovementRepo) ListByProduct(ctx context.Context, productID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	query := `
		SELECT id, company_id, product_id, type, quantity_before, quantity_changed, quantity_after, reference_id, unit_cost, total_value, created_by, created_at
		FROM stock_movements
		WHERE product_id = $1
		  AND ($2::timestamptz IS NULL OR created_at >= $2)
		  AND ($3::timestamptz IS NULL OR created_at <= $3)
		ORDER BY created_at, id
		LIMIT $4 OFFSET $5`
	rows, err := r.q.Query(ctx, query, productID, from, to, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list stock movements: %w", err)
	}
	defer rows.Close()

	var out []*entity.StockMovement
	for rows.Next() {
		var m entity.StockMovement
		if err := rows.Scan(
			&m.ID, &m.CompanyID, &m.ProductID, &m.Type, &m.QuantityBefore, &m.QuantityChanged,
			&m.QuantityAfter, &m.ReferenceID, &m.UnitCost, &m.TotalValue, &m.CreatedBy, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan stock movement: %w", err)
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

// Summary agrega entradas, salidas, cambio neto y actores distintos del
// producto en una sola consulta.
func (r *StockMovementRepo) Summary(ctx context.Context, productID string) (*entity.StockSummary, error) {
	query := `
		SELECT
			COALESCE(SUM(quantity_changed) FILTER (WHERE quantity_changed > 0), 0) AS total_in,
			COALESCE(SUM(-quantity_changed) FILTER (WHERE quantity_changed < 0), 0) AS total_out,
			COALESCE(SUM(quantity_changed), 0) AS net_change,
			COUNT(DISTINCT created_by) AS distinct_actors,
			COUNT(*) AS movement_count
		FROM stock_movements WHERE product_id = $1`
	s := entity.StockSummary{ProductID: productID}
	err := r.q.QueryRow(ctx, query, productID).Scan(
		&s.TotalIn, &s.TotalOut, &s.NetChange, &s.DistinctActors, &s.MovementCount,
	)
	if err != nil {
		return nil, fmt.Errorf("stock summary: %w", err)
	}
	return &s, nil
}
