package entity

import "time"

// StatusHistory registra cada transición de estado de una orden de compra.
// Se escribe atómicamente con el cambio de estado.
type StatusHistory struct {
	ID         string
	OrderID    string
	FromStatus string
	ToStatus   string
	Actor      string
	Reason     string
	CreatedAt  time.Time
}
