package entity

import "time"

// Supplier representa un proveedor al que se le emiten órdenes de compra.
// Una orden solo puede referenciar proveedores activos.
type Supplier struct {
	ID        string
	CompanyID string
	Name      string
	TaxID     string // NIT o identificación tributaria
	Email     string
	Phone     string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
