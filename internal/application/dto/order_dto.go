package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItemRequest línea de una orden de compra nueva.
type OrderItemRequest struct {
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

// CreateOrderRequest crea una orden de compra en draft.
type CreateOrderRequest struct {
	SupplierID         string             `json:"supplier_id"`
	Items              []OrderItemRequest `json:"items"`
	AllowOverReceiving bool               `json:"allow_over_receiving"`
	Notes              string             `json:"notes"`
}

// TransitionStatusRequest solicita una transición de estado directa.
type TransitionStatusRequest struct {
	TargetStatus string `json:"target_status"`
	Reason       string `json:"reason"`
}

// OrderItemResponse línea de orden en respuestas.
type OrderItemResponse struct {
	ID               string          `json:"id"`
	ProductID        string          `json:"product_id"`
	Quantity         decimal.Decimal `json:"quantity"`
	QuantityReceived decimal.Decimal `json:"quantity_received"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
	Subtotal         decimal.Decimal `json:"subtotal"`
}

// OrderResponse orden de compra en respuestas.
type OrderResponse struct {
	ID                 string              `json:"id"`
	OrderNumber        string              `json:"order_number"`
	SupplierID         string              `json:"supplier_id"`
	Status             string              `json:"status"`
	Total              decimal.Decimal     `json:"total"`
	AllowOverReceiving bool                `json:"allow_over_receiving"`
	Notes              string              `json:"notes,omitempty"`
	Version            int                 `json:"version"`
	Items              []OrderItemResponse `json:"items,omitempty"`
	CreatedBy          string              `json:"created_by"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

// StatusHistoryResponse entrada del historial de estados.
type StatusHistoryResponse struct {
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	Actor      string    `json:"actor"`
	Reason     string    `json:"reason,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
