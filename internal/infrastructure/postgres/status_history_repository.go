package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/Compras-api/internal/domain/entity"
	"github.com/jhoicas/Compras-api/internal/domain/repository"
)

var _ repository.StatusHistoryRepository = (*StatusHistoryRepo)(nil)

// StatusHistoryRepo persistencia del historial de estados de órdenes.
type StatusHistoryRepo struct {
	q Querier
}

// NewStatusHistoryRepository construye el adaptador.
func NewStatusHistoryRepository(q Querier) *StatusHistoryRepo {
	return &StatusHistoryRepo{q: q}
}

// Create inserta una transición (misma tx que el cambio de estado).
func (r *StatusHistoryRepo) Create(ctx context.Context, h *entity.StatusHistory) error {
	query := `
		INSERT INTO status_history (id, order_id, from_status, to_status, actor, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query, h.ID, h.OrderID, h.FromStatus, h.ToStatus, h.Actor, h.Reason, h.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert status history: %w", err)
	}
	return nil
}

// ListByOrder devuelve las transiciones de una orden en orden cronológico.
func (r *StatusHistoryRepo) ListByOrder(ctx context.Context, orderID string) ([]*entity.StatusHistory, error) {
	query := `
		SELECT id, order_id, from_status, to_status, actor, reason, created_at
		FROM status_history WHERE order_id = $1
		ORDER BY created_at, id`
	rows, err := r.q.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list status history: %w", err)
	}
	defer rows.Close()

	var out []*entity.StatusHistory
	for rows.Next() {
		var h entity.StatusHistory
		if err := rows.Scan(&h.ID, &h.OrderID, &h.FromStatus, &h.ToStatus, &h.Actor, &h.Reason, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan status history: %w", err)
		}
		out = append(out, &h)
	}
	return out, rows.Err()
}
