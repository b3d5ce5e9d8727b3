package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Compras-api/internal/domain"
	"github.com/jhoicas/Compras-api/internal/domain/entity"
	"github.com/jhoicas/Compras-api/internal/domain/repository"
)

var _ repository.ValidationErrorRepository = (*ValidationErrorRepo)(nil)

// ValidationErrorRepo persistencia de rechazos de la puerta de validación.
type ValidationErrorRepo struct {
	q Querier
}

// NewValidationErrorRepository construye el adaptador.
func NewValidationErrorRepository(q Querier) *ValidationErrorRepo {
	return &ValidationErrorRepo{q: q}
}

// Create inserta un rechazo.
func (r *ValidationErrorRepo) Create(ctx context.Context, ve *entity.ValidationError) error {
	query := `
		INSERT INTO validation_errors
			(id, company_id, entity_type, entity_id, kind, field, message, context, resolved, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, false, $9)`
	_, err := r.q.Exec(ctx, query,
		ve.ID, ve.CompanyID, ve.EntityType, ve.EntityID, ve.Kind, ve.Field,
		ve.Message, ve.Context, ve.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert validation error: %w", err)
	}
	return nil
}

// ListByEntity devuelve los rechazos de una entidad, más recientes primero.
func (r *ValidationErrorRepo) ListByEntity(ctx context.Context, entityType, entityID string) ([]*entity.ValidationError, error) {
	query := `
		SELECT id, company_id, entity_type, entity_id, kind, field, message, context, resolved, COALESCE(resolved_by, ''), resolved_at, created_at
		FROM validation_errors
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC`
	rows, err := r.q.Query(ctx, query, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("list validation errors: %w", err)
	}
	defer rows.Close()

	var out []*entity.ValidationError
	for rows.Next() {
		var ve entity.ValidationError
		if err := rows.Scan(
			&ve.ID, &ve.CompanyID, &ve.EntityType, &ve.EntityID, &ve.Kind, &ve.Field,
			&ve.Message, &ve.Context, &ve.Resolved, &ve.ResolvedBy, &ve.ResolvedAt, &ve.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan validation error: %w", err)
		}
		out = append(out, &ve)
	}
	return out, rows.Err()
}

// Resolve marca un rechazo como resuelto.
func (r *ValidationErrorRepo) Resolve(ctx context.Context, id, resolvedBy string, resolvedAt time.Time) error {
	query := `
		UPDATE validation_errors
		SET resolved = true, resolved_by = $2, resolved_at = $3
		WHERE id = $1 AND resolved = false`
	tag, err := r.q.Exec(ctx, query, id, resolvedBy, resolvedAt)
	if err != nil {
		return fmt.Errorf("resolve validation error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
