// Package gate persiste los rechazos de la puerta de validación. Cada
// rechazo queda registrado en validation_errors aunque la operación se
// aborte, para que los fallos repetidos sean diagnosticables.
package gate

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Compras-api/internal/domain"
	"github.com/jhoicas/Compras-api/internal/domain/entity"
	"github.com/jhoicas/Compras-api/internal/domain/repository"
)

// Reject guarda el rechazo y devuelve el fallo tipado al caller. La
// escritura es best-effort: un fallo al persistir el registro no enmascara
// el error de validación original.
func Reject(ctx context.Context, repo repository.ValidationErrorRepository, companyID, entityType, entityID string, vf *domain.ValidationFailure) error {
	var ctxJSON json.RawMessage
	if len(vf.Context) > 0 {
		ctxJSON, _ = json.Marshal(vf.Context)
	}
	_ = repo.Create(ctx, &entity.ValidationError{
		ID:         uuid.New().String(),
		CompanyID:  companyID,
		EntityType: entityType,
		EntityID:   entityID,
		Kind:       string(vf.Kind),
		Field:      vf.Field,
		Message:    vf.Message,
		Context:    ctxJSON,
		CreatedAt:  time.Now(),
	})
	return vf
}
