// Package audit implementa el registro de auditoría: append puro de
// snapshots antes/después por cada acción mutadora, y las consultas de
// lectura (trail por entidad y feed de actividad reciente).
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Compras-api/internal/application/dto"
	"github.com/jhoicas/Compras-api/internal/domain/entity"
	"github.com/jhoicas/Compras-api/internal/domain/repository"
)

// Entry parámetros para construir una entrada de auditoría.
type Entry struct {
	CompanyID      string
	EntityType     string
	EntityID       string
	Action         string
	OldValue       any
	NewValue       any
	Actor          string
	Reason         string
	Metadata       map[string]any
	IdempotencyKey string
}

// NewLogEntry construye la entidad AuditLog serializando los snapshots.
// Seq lo asigna el repositorio al insertar (secuencia de inserción).
func NewLogEntry(e Entry, now time.Time) (*entity.AuditLog, error) {
	var oldJSON, newJSON, metaJSON json.RawMessage
	var err error
	if e.OldValue != nil {
		if oldJSON, err = json.Marshal(e.OldValue); err != nil {
			return nil, fmt.Errorf("serializar old_value: %w", err)
		}
	}
	if e.NewValue != nil {
		if newJSON, err = json.Marshal(e.NewValue); err != nil {
			return nil, fmt.Errorf("serializar new_value: %w", err)
		}
	}
	if len(e.Metadata) > 0 {
		if metaJSON, err = json.Marshal(e.Metadata); err != nil {
			return nil, fmt.Errorf("serializar metadata: %w", err)
		}
	}
	return &entity.AuditLog{
		ID:             uuid.New().String(),
		CompanyID:      e.CompanyID,
		EntityType:     e.EntityType,
		EntityID:       e.EntityID,
		Action:         e.Action,
		OldValue:       oldJSON,
		NewValue:       newJSON,
		Actor:          e.Actor,
		Reason:         e.Reason,
		Metadata:       metaJSON,
		IdempotencyKey: e.IdempotencyKey,
		CreatedAt:      now,
	}, nil
}

// Append construye y persiste una entrada usando el repositorio dado
// (normalmente el atado a la transacción en curso).
func Append(ctx context.Context, repo repository.AuditLogRepository, e Entry, now time.Time) error {
	log, err := NewLogEntry(e, now)
	if err != nil {
		return err
	}
	return repo.Append(ctx, log)
}

// QueryUseCase consultas de lectura sobre el registro de auditoría.
type QueryUseCase struct {
	repo repository.AuditLogRepository
}

// NewQueryUseCase construye el caso de uso.
func NewQueryUseCase(repo repository.AuditLogRepository) *QueryUseCase {
	return &QueryUseCase{repo: repo}
}

// TrailByEntity devuelve todas las entradas de una entidad ordenadas por
// (created_at, seq).
func (uc *QueryUseCase) TrailByEntity(ctx context.Context, entityType, entityID string) ([]dto.AuditEntryResponse, error) {
	logs, err := uc.repo.ListByEntity(ctx, entityType, entityID)
	if err != nil {
		return nil, err
	}
	return toResponses(logs), nil
}

// Recent devuelve las N entradas más recientes entre todas las entidades.
func (uc *QueryUseCase) Recent(ctx context.Context, limit int) ([]dto.AuditEntryResponse, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	logs, err := uc.repo.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	return toResponses(logs), nil
}

func toResponses(logs []*entity.AuditLog) []dto.AuditEntryResponse {
	out := make([]dto.AuditEntryResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, dto.AuditEntryResponse{
			ID:         l.ID,
			EntityType: l.EntityType,
			EntityID:   l.EntityID,
			Action:     l.Action,
			OldValue:   l.OldValue,
			NewValue:   l.NewValue,
			Actor:      l.Actor,
			Reason:     l.Reason,
			Metadata:   l.Metadata,
			Seq:        l.Seq,
			CreatedAt:  l.CreatedAt,
		})
	}
	return out
}
