package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Compras-api/internal/domain"
	"github.com/jhoicas/Compras-api/internal/domain/entity"
	"github.com/jhoicas/Compras-api/internal/domain/repository"
)

var _ repository.AuditLogRepository = (*AuditLogRepo)(nil)

// AuditLogRepo implementación del registro de auditoría sobre PostgreSQL.
// Append puro: la tabla no tiene camino de UPDATE ni DELETE. Seq es un
// bigserial que desempata timestamps iguales.
type AuditLogRepo struct {
	q Querier
}

// NewAuditLogRepository construye el adaptador de auditoría.
func NewAuditLogRepository(q Querier) *AuditLogRepo {
	return &AuditLogRepo{q: q}
}

// Append inserta una entrada y recupera el seq asignado. Si la entrada lleva
// idempotency_key y ya existe, devuelve domain.ErrDuplicate (reintentos de
// caminos post-commit no duplican la entrada).
func (r *AuditLogRepo) Append(ctx context.Context, log *entity.AuditLog) error {
	query := `
		INSERT INTO audit_logs
			(id, company_id, entity_type, entity_id, action, old_value, new_value, actor, reason, metadata, idempotency_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NULLIF($11, ''), $12)
		RETURNING seq`
	err := r.q.QueryRow(ctx, query,
		log.ID, log.CompanyID, log.EntityType, log.EntityID, log.Action,
		log.OldValue, log.NewValue, log.Actor, log.Reason, log.Metadata,
		log.IdempotencyKey, log.CreatedAt,
	).Scan(&log.Seq)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("append audit log: %w", err)
	}
	return nil
}

// ListByEntity devuelve todas las entradas de una entidad ordenadas por
// (created_at, seq): reproducirlas reconstruye el estado actual.
func (r *AuditLogRepo) ListByEntity(ctx context.Context, entityType, entityID string) ([]*entity.AuditLog, error) {
	query := `
		SELECT id, company_id, entity_type, entity_id, action, old_value, new_value, actor, reason, metadata, COALESCE(idempotency_key, ''), seq, created_at
		FROM audit_logs
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at, seq`
	rows, err := r.q.Query(ctx, query, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()
	return scanAuditLogs(rows)
}

// Recent devuelve las N entradas más recientes entre todas las entidades.
func (r *AuditLogRepo) Recent(ctx context.Context, limit int) ([]*entity.AuditLog, error) {
	query := `
		SELECT id, company_id, entity_type, entity_id, action, old_value, new_value, actor, reason, metadata, COALESCE(idempotency_key, ''), seq, created_at
		FROM audit_logs
		ORDER BY created_at DESC, seq DESC
		LIMIT $1`
	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("recent audit logs: %w", err)
	}
	defer rows.Close()
	return scanAuditLogs(rows)
}

func scanAuditLogs(rows pgx.Rows) ([]*entity.AuditLog, error) {
	var out []*entity.AuditLog
	for rows.Next() {
		var l entity.AuditLog
		if err := rows.Scan(
			&l.ID, &l.CompanyID, &l.EntityType, &l.EntityID, &l.Action,
			&l.OldValue, &l.NewValue, &l.Actor, &l.Reason, &l.Metadata,
			&l.IdempotencyKey, &l.Seq, &l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}
