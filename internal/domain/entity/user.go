package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin     = "admin"
	RoleComprador = "comprador" // crea y envía órdenes de compra
	RoleAprobador = "aprobador" // decide aprobaciones de nivel bajo
	RoleGerente   = "gerente"   // decide aprobaciones de nivel alto
	RoleBodeguero = "bodeguero" // recibe mercancía y registra movimientos
)

// User representa un usuario del sistema (pertenece a una Company).
type User struct {
	ID           string
	CompanyID    string
	Email        string
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	Name         string
	Role         string // admin, comprador, aprobador, gerente, bodeguero
	Status       string // active, inactive, suspended
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
