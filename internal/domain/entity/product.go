package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product representa un producto o SKU comprable. Cost es el último costo
// de compra conocido; el stock autoritativo vive en Stock y se muta solo a
// través del ledger de movimientos.
type Product struct {
	ID          string
	CompanyID   string
	SKU         string // código único por empresa
	Name        string
	Description string
	Cost        decimal.Decimal
	Price       decimal.Decimal
	UnitMeasure string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
