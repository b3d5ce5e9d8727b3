package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseOrder representa una orden de compra a un proveedor.
// OrderNumber es inmutable una vez asignado. Version se usa para
// compare-and-set optimista: toda transición de estado que observe una
// versión vieja falla y el caller debe reintentar con estado fresco.
// Los ítems viven en purchase_order_items y se referencian por OrderID.
type PurchaseOrder struct {
	ID                 string
	CompanyID          string
	OrderNumber        string // único por empresa, inmutable
	SupplierID         string
	Status             string // ver domain/order.Status
	Total              decimal.Decimal
	AllowOverReceiving bool // política por orden: permitir recepción en exceso
	Notes              string
	Version            int
	CreatedBy          string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// PurchaseOrderItem es una línea de la orden: producto, cantidad pedida,
// cantidad recibida acumulada (monótona no decreciente) y costo unitario.
type PurchaseOrderItem struct {
	ID               string
	OrderID          string
	ProductID        string
	Quantity         decimal.Decimal
	QuantityReceived decimal.Decimal
	UnitCost         decimal.Decimal
}

// Subtotal devuelve cantidad × costo unitario.
func (i *PurchaseOrderItem) Subtotal() decimal.Decimal {
	return i.Quantity.Mul(i.UnitCost)
}

// Remaining devuelve la cantidad pendiente de recibir (pedida − recibida).
func (i *PurchaseOrderItem) Remaining() decimal.Decimal {
	return i.Quantity.Sub(i.QuantityReceived)
}

// OrderTotal suma los subtotales de los ítems. El invariante de la orden es
// Total == OrderTotal(items).
func OrderTotal(items []*PurchaseOrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}
