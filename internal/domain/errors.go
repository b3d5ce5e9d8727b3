package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound               = errors.New("recurso no encontrado")
	ErrUserNotFound           = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists     = errors.New("el email ya está registrado")
	ErrInvalidInput           = errors.New("entrada inválida")
	ErrDuplicate              = errors.New("recurso duplicado")
	ErrUnauthorized           = errors.New("no autorizado")
	ErrForbidden              = errors.New("acceso denegado")
	ErrConflict               = errors.New("conflicto con el estado actual")
	ErrInsufficientStock      = errors.New("stock insuficiente")
	ErrReconciliationRequired = errors.New("inconsistencia detectada: requiere reconciliación")
)

// ErrorKind clasifica un rechazo de la puerta de validación. Los valores son
// estables: se persisten en validation_errors y se devuelven al cliente.
type ErrorKind string

const (
	KindInsufficientStock       ErrorKind = "insufficient_stock"
	KindInvalidQuantity         ErrorKind = "invalid_quantity"
	KindPriceMismatch           ErrorKind = "price_mismatch"
	KindSupplierInactive        ErrorKind = "supplier_inactive"
	KindProductInactive         ErrorKind = "product_inactive"
	KindDuplicateItem           ErrorKind = "duplicate_item"
	KindMissingRequiredField    ErrorKind = "missing_required_field"
	KindInvalidStatusTransition ErrorKind = "invalid_status_transition"
	KindPermissionDenied        ErrorKind = "permission_denied"
	KindApprovalRequired        ErrorKind = "approval_required"
	KindOverReceiving           ErrorKind = "over_receiving"
	KindUnderReceiving          ErrorKind = "under_receiving"
)

// ValidationFailure es el error tipado que emite la puerta de validación.
// Siempre lleva el kind específico y el campo ofensor; nunca un fallo genérico.
type ValidationFailure struct {
	Kind    ErrorKind
	Field   string
	Message string
	Context map[string]any
}

// Error implementa error.
func (e *ValidationFailure) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewValidationFailure construye un fallo de validación.
func NewValidationFailure(kind ErrorKind, field, message string) *ValidationFailure {
	return &ValidationFailure{Kind: kind, Field: field, Message: message}
}

// WithContext agrega un par clave/valor al contexto del fallo (fluido).
func (e *ValidationFailure) WithContext(key string, value any) *ValidationFailure {
	if e.Context == nil {
		e.Context = map[string]any{}
	}
	e.Context[key] = value
	return e
}

// AsValidationFailure extrae el *ValidationFailure de un error, si lo es.
func AsValidationFailure(err error) (*ValidationFailure, bool) {
	var vf *ValidationFailure
	if errors.As(err, &vf) {
		return vf, true
	}
	return nil, false
}
