package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de stock (value object conceptual).
const (
	MovementTypeReceipt    = "receipt"    // recepción de orden de compra
	MovementTypeSale       = "sale"       // salida por venta
	MovementTypeAdjustment = "adjustment" // ajuste manual con autorización
	MovementTypeTransfer   = "transfer"   // traslado
	MovementTypeReturn     = "return"     // devolución
	MovementTypeDamage     = "damage"     // daño
	MovementTypeExpiry     = "expiry"     // vencimiento
	MovementTypeShrinkage  = "shrinkage"  // merma
	MovementTypeRecount    = "recount"    // reconteo físico
	MovementTypeManual     = "manual"     // entrada manual
)

// ValidMovementTypes tipos aceptados por el ledger.
var ValidMovementTypes = map[string]bool{
	MovementTypeReceipt:    true,
	MovementTypeSale:       true,
	MovementTypeAdjustment: true,
	MovementTypeTransfer:   true,
	MovementTypeReturn:     true,
	MovementTypeDamage:     true,
	MovementTypeExpiry:     true,
	MovementTypeShrinkage:  true,
	MovementTypeRecount:    true,
	MovementTypeManual:     true,
}

// StockMovement es una entrada del ledger de stock: delta firmado con
// snapshot antes/después. Invariante: QuantityAfter = QuantityBefore +
// QuantityChanged. Las entradas nunca se actualizan ni borran; las
// correcciones son nuevas entradas compensatorias.
type StockMovement struct {
	ID              string
	CompanyID       string
	ProductID       string
	Type            string
	QuantityBefore  decimal.Decimal
	QuantityChanged decimal.Decimal // firmado: positivo entrada, negativo salida
	QuantityAfter   decimal.Decimal
	ReferenceID     string // orden, recepción o venta que causó el movimiento
	UnitCost        decimal.Decimal
	TotalValue      decimal.Decimal
	CreatedBy       string
	CreatedAt       time.Time
}

// StockSummary agregado por producto para reportes de reconciliación.
type StockSummary struct {
	ProductID      string
	TotalIn        decimal.Decimal
	TotalOut       decimal.Decimal
	NetChange      decimal.Decimal
	DistinctActors int
	MovementCount  int
}
