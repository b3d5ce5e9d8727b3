package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecordMovementRequest registra una entrada manual en el ledger de stock
// (ajustes, reconteos, mermas, devoluciones).
type RecordMovementRequest struct {
	ProductID   string          `json:"product_id"`
	Type        string          `json:"type"`
	Quantity    decimal.Decimal `json:"quantity"` // delta firmado
	UnitCost    decimal.Decimal `json:"unit_cost"`
	ReferenceID string          `json:"reference_id,omitempty"`
	Reason      string          `json:"reason,omitempty"`
}

// StockUpdateRequest un ítem de una actualización masiva.
type StockUpdateRequest struct {
	ProductID   string          `json:"product_id"`
	Type        string          `json:"type"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	ReferenceID string          `json:"reference_id,omitempty"`
}

// BatchApplyRequest actualización masiva de stock.
type BatchApplyRequest struct {
	Updates []StockUpdateRequest `json:"updates"`
}

// BatchFailedItem ítem fallido de un batch con su error; el fallo de un
// ítem nunca aborta a sus hermanos.
type BatchFailedItem struct {
	Index     int    `json:"index"`
	ProductID string `json:"product_id"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// BatchApplyResponse resultado agregado de un batch.
type BatchApplyResponse struct {
	Processed int               `json:"processed"`
	Failed    []BatchFailedItem `json:"failed"`
}

// MovementResponse entrada del ledger en respuestas.
type MovementResponse struct {
	ID              string          `json:"id"`
	ProductID       string          `json:"product_id"`
	Type            string          `json:"type"`
	QuantityBefore  decimal.Decimal `json:"quantity_before"`
	QuantityChanged decimal.Decimal `json:"quantity_changed"`
	QuantityAfter   decimal.Decimal `json:"quantity_after"`
	ReferenceID     string          `json:"reference_id,omitempty"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	TotalValue      decimal.Decimal `json:"total_value"`
	CreatedBy       string          `json:"created_by"`
	CreatedAt       time.Time       `json:"created_at"`
}

// StockSummaryResponse agregado por producto.
type StockSummaryResponse struct {
	ProductID      string          `json:"product_id"`
	CurrentStock   decimal.Decimal `json:"current_stock"`
	TotalIn        decimal.Decimal `json:"total_in"`
	TotalOut       decimal.Decimal `json:"total_out"`
	NetChange      decimal.Decimal `json:"net_change"`
	DistinctActors int             `json:"distinct_actors"`
	MovementCount  int             `json:"movement_count"`
}

// StockHistoryQuery rango y continuación para el historial de movimientos.
type StockHistoryQuery struct {
	From   *time.Time `query:"from"`
	To     *time.Time `query:"to"`
	Limit  int        `query:"limit"`
	Offset int        `query:"offset"`
}
