// Package validation es la puerta de validación: predicados puros que se
// evalúan antes de que cualquier mutación haga commit. Cada fallo produce
// exactamente un *domain.ValidationFailure con su kind específico; quien
// llama persiste el registro y aborta sin escrituras parciales.
package validation

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Compras-api/internal/domain"
	"github.com/jhoicas/Compras-api/internal/domain/entity"
	"github.com/jhoicas/Compras-api/internal/domain/order"
)

// Acciones sujetas a permiso por rol. Toda mutación pasa por aquí: no
// existe camino de escritura directa que salte la puerta.
const (
	ActionCreateOrder      = "create_order"
	ActionTransitionStatus = "transition_status"
	ActionDecideApproval   = "decide_approval"
	ActionSubmitReceiving  = "submit_receiving"
	ActionRecordMovement   = "record_movement"
	ActionBatchApply       = "batch_apply"
	ActionManageCatalog    = "manage_catalog"
)

// permissions roles permitidos por acción. Admin siempre puede.
var permissions = map[string][]string{
	ActionCreateOrder:      {entity.RoleComprador},
	ActionTransitionStatus: {entity.RoleComprador, entity.RoleGerente},
	ActionDecideApproval:   {entity.RoleAprobador, entity.RoleGerente},
	ActionSubmitReceiving:  {entity.RoleBodeguero},
	ActionRecordMovement:   {entity.RoleBodeguero},
	ActionBatchApply:       {entity.RoleBodeguero},
	ActionManageCatalog:    {entity.RoleComprador},
}

// Permission verifica que el rol del actor esté autorizado para la acción.
func Permission(role, action string) *domain.ValidationFailure {
	if role == entity.RoleAdmin {
		return nil
	}
	for _, r := range permissions[action] {
		if r == role {
			return nil
		}
	}
	return domain.NewValidationFailure(domain.KindPermissionDenied, "actor",
		"el rol no está autorizado para esta acción").
		WithContext("role", role).WithContext("action", action)
}

// RequiredFields verifica presencia de campos obligatorios (nombre → valor).
// Devuelve el primer faltante.
func RequiredFields(fields map[string]string) *domain.ValidationFailure {
	for name, value := range fields {
		if value == "" {
			return domain.NewValidationFailure(domain.KindMissingRequiredField, name,
				"campo obligatorio ausente")
		}
	}
	return nil
}

// PositiveQuantity verifica que una cantidad sea estrictamente positiva.
func PositiveQuantity(field string, qty decimal.Decimal) *domain.ValidationFailure {
	if !qty.GreaterThan(decimal.Zero) {
		return domain.NewValidationFailure(domain.KindInvalidQuantity, field,
			"la cantidad debe ser mayor que cero").
			WithContext("quantity", qty.String())
	}
	return nil
}

// NonNegativeCost verifica que un costo no sea negativo.
func NonNegativeCost(field string, cost decimal.Decimal) *domain.ValidationFailure {
	if cost.LessThan(decimal.Zero) {
		return domain.NewValidationFailure(domain.KindPriceMismatch, field,
			"el costo no puede ser negativo").
			WithContext("cost", cost.String())
	}
	return nil
}

// NoDuplicateProducts verifica que no haya dos líneas con el mismo producto
// dentro de una orden.
func NoDuplicateProducts(items []*entity.PurchaseOrderItem) *domain.ValidationFailure {
	seen := map[string]bool{}
	for _, it := range items {
		if seen[it.ProductID] {
			return domain.NewValidationFailure(domain.KindDuplicateItem, "product_id",
				"producto repetido en las líneas de la orden").
				WithContext("product_id", it.ProductID)
		}
		seen[it.ProductID] = true
	}
	return nil
}

// ProductActive verifica que el producto exista y esté activo.
func ProductActive(p *entity.Product, productID string) *domain.ValidationFailure {
	if p == nil || !p.Active {
		return domain.NewValidationFailure(domain.KindProductInactive, "product_id",
			"el producto no existe o está inactivo").
			WithContext("product_id", productID)
	}
	return nil
}

// SupplierActive verifica que el proveedor exista y esté activo.
func SupplierActive(s *entity.Supplier, supplierID string) *domain.ValidationFailure {
	if s == nil || !s.Active {
		return domain.NewValidationFailure(domain.KindSupplierInactive, "supplier_id",
			"el proveedor no existe o está inactivo").
			WithContext("supplier_id", supplierID)
	}
	return nil
}

// StatusTransition verifica la legalidad del par (actual, destino) contra la
// tabla fija. direct=true rechaza además los destinos reservados al
// reconciliador de recepciones.
func StatusTransition(from, to string, direct bool) *domain.ValidationFailure {
	if !order.IsValid(to) || !order.CanTransition(from, to) {
		return domain.NewValidationFailure(domain.KindInvalidStatusTransition, "status",
			"transición de estado no permitida").
			WithContext("from", from).WithContext("to", to)
	}
	if direct && order.ReceivingOnly(to) {
		return domain.NewValidationFailure(domain.KindInvalidStatusTransition, "status",
			"transición reservada al reconciliador de recepciones").
			WithContext("from", from).WithContext("to", to)
	}
	return nil
}

// StockSufficiency verifica que un movimiento decreciente no deje el stock
// negativo. adjustment y recount pueden ir a negativo solo si la
// configuración lo permite (allowNegative).
func StockSufficiency(current, delta decimal.Decimal, movementType string, allowNegative bool) *domain.ValidationFailure {
	after := current.Add(delta)
	if after.GreaterThanOrEqual(decimal.Zero) {
		return nil
	}
	if allowNegative && (movementType == entity.MovementTypeAdjustment || movementType == entity.MovementTypeRecount) {
		return nil
	}
	return domain.NewValidationFailure(domain.KindInsufficientStock, "quantity",
		"el movimiento dejaría el stock en negativo").
		WithContext("current", current.String()).
		WithContext("delta", delta.String())
}

// MovementType verifica que el tipo de movimiento sea uno de los conocidos.
func MovementType(t string) *domain.ValidationFailure {
	if !entity.ValidMovementTypes[t] {
		return domain.NewValidationFailure(domain.KindInvalidQuantity, "movement_type",
			"tipo de movimiento desconocido").
			WithContext("movement_type", t)
	}
	return nil
}
