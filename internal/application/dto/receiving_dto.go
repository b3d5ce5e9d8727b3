package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReceivingItemRequest línea entregada: producto, cantidad y lote opcional.
type ReceivingItemRequest struct {
	ProductID   string          `json:"product_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	BatchNumber string          `json:"batch_number,omitempty"`
	ExpiryDate  *time.Time      `json:"expiry_date,omitempty"`
}

// SubmitReceivingRequest registra una entrega contra una orden de compra.
type SubmitReceivingRequest struct {
	ReceivingNumber string                 `json:"receiving_number"`
	Items           []ReceivingItemRequest `json:"items"`
	InspectionNotes string                 `json:"inspection_notes,omitempty"`
}

// CancelReceivingRequest anula una recepción pendiente; el motivo queda en
// la auditoría.
type CancelReceivingRequest struct {
	Reason string `json:"reason,omitempty"`
}

// RejectedItemResponse ítem excluido de la recepción con su motivo. Los
// ítems rechazados no abortan a los demás: semántica de fallo parcial.
type RejectedItemResponse struct {
	ProductID string `json:"product_id"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// ReceivingResponse resultado de una recepción.
type ReceivingResponse struct {
	ID              string                 `json:"id"`
	OrderID         string                 `json:"order_id"`
	ReceivingNumber string                 `json:"receiving_number"`
	Status          string                 `json:"status"`
	Classification  string                 `json:"classification"`
	OrderStatus     string                 `json:"order_status"`
	AcceptedItems   int                    `json:"accepted_items"`
	RejectedItems   []RejectedItemResponse `json:"rejected_items,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
}
