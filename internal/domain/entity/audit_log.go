package entity

import (
	"encoding/json"
	"time"
)

// Tipos de entidad auditables.
const (
	AuditEntityPurchaseOrder   = "purchase_order"
	AuditEntityReceivingRecord = "receiving_record"
	AuditEntityApprovalRecord  = "approval_record"
	AuditEntityStockMovement   = "stock_movement"
	AuditEntityProduct         = "product"
	AuditEntitySupplier        = "supplier"
)

// AuditLog es una entrada append-only del registro de auditoría: snapshot
// antes/después de cada mutación sobre cualquier entidad. El orden
// (CreatedAt, Seq) es la única fuente de verdad histórica: el estado actual
// de una entidad debe poder reconstruirse reproduciendo sus entradas.
// No existe camino de update ni delete.
type AuditLog struct {
	ID             string
	CompanyID      string
	EntityType     string
	EntityID       string
	Action         string
	OldValue       json.RawMessage
	NewValue       json.RawMessage
	Actor          string
	Reason         string
	Metadata       json.RawMessage
	IdempotencyKey string // vacío = sin deduplicación; único si presente
	Seq            int64  // desempate para timestamps iguales (secuencia de inserción)
	CreatedAt      time.Time
}
