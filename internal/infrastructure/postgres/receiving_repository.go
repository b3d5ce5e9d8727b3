package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Compras-api/internal/domain"
	"github.com/jhoicas/Compras-api/internal/domain/entity"
	"github.com/jhoicas/Compras-api/internal/domain/repository"
)

var _ repository.ReceivingRepository = (*ReceivingRepo)(nil)

// ReceivingRepo implementación de ReceivingRepository sobre PostgreSQL.
type ReceivingRepo struct {
	q Querier
}

// NewReceivingRepository construye el adaptador de recepciones.
func NewReceivingRepository(q Querier) *ReceivingRepo {
	return &ReceivingRepo{q: q}
}

// Create inserta el registro con sus líneas. El número de recepción es único
// por empresa: un reenvío devuelve domain.ErrDuplicate, no se aplica doble.
func (r *ReceivingRepo) Create(ctx context.Context, record *entity.ReceivingRecord, items []*entity.ReceivingItem) error {
	query := `
		INSERT INTO receiving_records
			(id, company_id, order_id, receiving_number, status, classification, inspection_notes, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		record.ID, record.CompanyID, record.OrderID, record.ReceivingNumber,
		record.Status, record.Classification, record.InspectionNotes,
		record.CreatedBy, record.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert receiving record: %w", err)
	}

	itemQuery := `
		INSERT INTO receiving_items (id, receiving_id, product_id, quantity, batch_number, expiry_date)
		VALUES ($1, $2, $3, $4, $5, $6)`
	for _, it := range items {
		if _, err := r.q.Exec(ctx, itemQuery,
			it.ID, it.ReceivingID, it.ProductID, it.Quantity, it.BatchNumber, it.ExpiryDate,
		); err != nil {
			return fmt.Errorf("insert receiving item: %w", err)
		}
	}
	return nil
}

// GetByID obtiene un registro de recepción. Devuelve nil si no existe.
func (r *ReceivingRepo) GetByID(ctx context.Context, id string) (*entity.ReceivingRecord, error) {
	query := `
		SELECT id, company_id, order_id, receiving_number, status, classification, inspection_notes, approved_by, approved_at, created_by, created_at
		FROM receiving_records WHERE id = $1`
	return r.scanOne(r.q.QueryRow(ctx, query, id))
}

// GetByNumber obtiene un registro por número dentro de una empresa.
func (r *ReceivingRepo) GetByNumber(ctx context.Context, companyID, receivingNumber string) (*entity.ReceivingRecord, error) {
	query := `
		SELECT id, company_id, order_id, receiving_number, status, classification, inspection_notes, approved_by, approved_at, created_by, created_at
		FROM receiving_records WHERE company_id = $1 AND receiving_number = $2`
	return r.scanOne(r.q.QueryRow(ctx, query, companyID, receivingNumber))
}

// ListByOrder devuelve las recepciones de una orden en orden de llegada.
func (r *ReceivingRepo) ListByOrder(ctx context.Context, orderID string) ([]*entity.ReceivingRecord, error) {
	query := `
		SELECT id, company_id, order_id, receiving_number, status, classification, inspection_notes, approved_by, approved_at, created_by, created_at
		FROM receiving_records WHERE order_id = $1
		ORDER BY created_at`
	rows, err := r.q.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list receivings: %w", err)
	}
	defer rows.Close()

	var out []*entity.ReceivingRecord
	for rows.Next() {
		var rec entity.ReceivingRecord
		if err := rows.Scan(
			&rec.ID, &rec.CompanyID, &rec.OrderID, &rec.ReceivingNumber, &rec.Status,
			&rec.Classification, &rec.InspectionNotes, &rec.ApprovedBy, &rec.ApprovedAt,
			&rec.CreatedBy, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan receiving: %w", err)
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

// ListItems devuelve las líneas de una recepción.
func (r *ReceivingRepo) ListItems(ctx context.Context, receivingID string) ([]*entity.ReceivingItem, error) {
	query := `
		SELECT id, receiving_id, product_id, quantity, batch_number, expiry_date
		FROM receiving_items WHERE receiving_id = $1
		ORDER BY id`
	rows, err := r.q.Query(ctx, query, receivingID)
	if err != nil {
		return nil, fmt.Errorf("list receiving items: %w", err)
	}
	defer rows.Close()

	var out []*entity.ReceivingItem
	for rows.Next() {
		var it entity.ReceivingItem
		if err := rows.Scan(&it.ID, &it.ReceivingID, &it.ProductID, &it.Quantity, &it.BatchNumber, &it.ExpiryDate); err != nil {
			return nil, fmt.Errorf("scan receiving item: %w", err)
		}
		out = append(out, &it)
	}
	return out, rows.Err()
}

// Approve marca un registro pending como approved; a partir de ahí es
// inmutable.
func (r *ReceivingRepo) Approve(ctx context.Context, receivingID, approvedBy string, approvedAt time.Time) error {
	query := `
		UPDATE receiving_records
		SET status = 'approved', approved_by = $2, approved_at = $3
		WHERE id = $1 AND status = 'pending'`
	tag, err := r.q.Exec(ctx, query, receivingID, approvedBy, approvedAt)
	if err != nil {
		return fmt.Errorf("approve receiving: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	return nil
}

// Cancel marca un registro pending como cancelled.
func (r *ReceivingRepo) Cancel(ctx context.Context, receivingID string) error {
	query := `
		UPDATE receiving_records
		SET status = 'cancelled'
		WHERE id = $1 AND status = 'pending'`
	tag, err := r.q.Exec(ctx, query, receivingID)
	if err != nil {
		return fmt.Errorf("cancel receiving: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (r *ReceivingRepo) scanOne(row pgx.Row) (*entity.ReceivingRecord, error) {
	var rec entity.ReceivingRecord
	err := row.Scan(
		&rec.ID, &rec.CompanyID, &rec.OrderID, &rec.ReceivingNumber, &rec.Status,
		&rec.Classification, &rec.InspectionNotes, &rec.ApprovedBy, &rec.ApprovedAt,
		&rec.CreatedBy, &rec.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get receiving: %w", err)
	}
	return &rec, nil
}
