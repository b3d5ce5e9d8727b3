package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un registro de recepción: nace pending y una inspección lo
// deja approved o cancelled, ambos terminales.
const (
	ReceivingStatusPending   = "pending"
	ReceivingStatusApproved  = "approved"
	ReceivingStatusCancelled = "cancelled"
)

// Clasificación del registro contra lo pedido en la orden.
const (
	ReceivingFull    = "full"    // todo ítem quedó completamente recibido
	ReceivingPartial = "partial" // algún ítem quedó con cantidad pendiente
	ReceivingOver    = "over"    // algún ítem excedió lo pedido (política por orden)
)

// ReceivingRecord representa la recepción de mercancía contra una orden de
// compra. Inmutable una vez approved. ReceivingNumber es único: reenviar el
// mismo número se rechaza, no se aplica dos veces.
type ReceivingRecord struct {
	ID              string
	CompanyID       string
	OrderID         string
	ReceivingNumber string
	Status          string
	Classification  string // full, partial, over
	InspectionNotes string
	ApprovedBy      string
	ApprovedAt      *time.Time
	CreatedBy       string
	CreatedAt       time.Time
}

// ReceivingItem es una línea recibida: producto, cantidad y lote/vencimiento
// opcionales.
type ReceivingItem struct {
	ID          string
	ReceivingID string
	ProductID   string
	Quantity    decimal.Decimal
	BatchNumber string
	ExpiryDate  *time.Time
}
