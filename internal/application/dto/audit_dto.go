package dto

import (
	"encoding/json"
	"time"
)

// AuditEntryResponse entrada de auditoría en respuestas, ordenada por
// (created_at, seq).
type AuditEntryResponse struct {
	ID         string          `json:"id"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	Action     string          `json:"action"`
	OldValue   json.RawMessage `json:"old_value,omitempty"`
	NewValue   json.RawMessage `json:"new_value,omitempty"`
	Actor      string          `json:"actor"`
	Reason     string          `json:"reason,omitempty"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	Seq        int64           `json:"seq"`
	CreatedAt  time.Time       `json:"created_at"`
}
