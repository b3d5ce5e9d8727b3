package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stock representa el contador autoritativo de stock de un producto.
// Solo se muta en la misma transacción que crea el StockMovement
// correspondiente; el invariante es que reproducir los movimientos del
// producto en orden reproduce exactamente Quantity.
type Stock struct {
	ProductID string
	CompanyID string
	Quantity  decimal.Decimal
	UpdatedAt time.Time
}
