package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Compras-api/internal/domain"
	"github.com/jhoicas/Compras-api/internal/domain/entity"
	"github.com/jhoicas/Compras-api/internal/domain/repository"
)

var _ repository.ApprovalRepository = (*ApprovalRepo)(nil)

// ApprovalRepo implementación de ApprovalRepository sobre PostgreSQL.
type ApprovalRepo struct {
	q Querier
}

// NewApprovalRepository construye el adaptador de aprobaciones.
func NewApprovalRepository(q Querier) *ApprovalRepo {
	return &ApprovalRepo{q: q}
}

// Create inserta un registro de aprobación. El par (order_id, level) es
// único: dos decisiones concurrentes del mismo nivel devuelven
// domain.ErrDuplicate para la perdedora.
func (r *ApprovalRepo) Create(ctx context.Context, record *entity.ApprovalRecord) error {
	query := `
		INSERT INTO approval_records
			(id, order_id, level, status, approver_id, approver_role, amount, limit_amount, next_approver_id, chain_snapshot, comment, decided_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		record.ID, record.OrderID, record.Level, record.Status, record.ApproverID,
		record.ApproverRole, record.Amount, record.LimitAmount, record.NextApproverID,
		record.ChainSnapshot, record.Comment, record.DecidedAt, record.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert approval record: %w", err)
	}
	return nil
}

// ListByOrder devuelve los registros de una orden ordenados por nivel.
func (r *ApprovalRepo) ListByOrder(ctx context.Context, orderID string) ([]*entity.ApprovalRecord, error) {
	query := `
		SELECT id, order_id, level, status, approver_id, approver_role, amount, limit_amount, next_approver_id, chain_snapshot, comment, decided_at, created_at
		FROM approval_records WHERE order_id = $1
		ORDER BY level`
	rows, err := r.q.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list approvals: %w", err)
	}
	defer rows.Close()

	var out []*entity.ApprovalRecord
	for rows.Next() {
		rec, err := scanApproval(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// GetByOrderAndLevel obtiene el registro de un nivel. Devuelve nil si no existe.
func (r *ApprovalRepo) GetByOrderAndLevel(ctx context.Context, orderID string, level int) (*entity.ApprovalRecord, error) {
	query := `
		SELECT id, order_id, level, status, approver_id, approver_role, amount, limit_amount, next_approver_id, chain_snapshot, comment, decided_at, created_at
		FROM approval_records WHERE order_id = $1 AND level = $2`
	rec, err := scanApproval(r.q.QueryRow(ctx, query, orderID, level))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

// MaxLevel devuelve el nivel más alto decidido de la orden (0 si no hay).
func (r *ApprovalRepo) MaxLevel(ctx context.Context, orderID string) (int, error) {
	query := `SELECT COALESCE(MAX(level), 0) FROM approval_records WHERE order_id = $1`
	var max int
	if err := r.q.QueryRow(ctx, query, orderID).Scan(&max); err != nil {
		return 0, fmt.Errorf("max approval level: %w", err)
	}
	return max, nil
}

func scanApproval(row pgx.Row) (*entity.ApprovalRecord, error) {
	var rec entity.ApprovalRecord
	err := row.Scan(
		&rec.ID, &rec.OrderID, &rec.Level, &rec.Status, &rec.ApproverID,
		&rec.ApproverRole, &rec.Amount, &rec.LimitAmount, &rec.NextApproverID,
		&rec.ChainSnapshot, &rec.Comment, &rec.DecidedAt, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan approval: %w", err)
	}
	return &rec, nil
}
