package entity

import (
	"encoding/json"
	"time"
)

// ValidationError es el registro persistente de un rechazo de la puerta de
// validación. Se guarda aunque la operación se aborte, para que los fallos
// repetidos sean diagnosticables.
type ValidationError struct {
	ID         string
	CompanyID  string
	EntityType string
	EntityID   string
	Kind       string // domain.ErrorKind
	Field      string
	Message    string
	Context    json.RawMessage
	Resolved   bool
	ResolvedBy string
	ResolvedAt *time.Time
	CreatedAt  time.Time
}
