// Package orders implementa los casos de uso del ciclo de vida de órdenes
// de compra: creación y transiciones de estado. La máquina de estados
// (tabla en domain/order) es la única dueña de PurchaseOrder.Status; las
// transiciones escriben historial y auditoría atómicamente con el cambio.
package orders

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Compras-api/internal/application/audit"
	"github.com/jhoicas/Compras-api/internal/application/dto"
	"github.com/jhoicas/Compras-api/internal/application/gate"
	"github.com/jhoicas/Compras-api/internal/application/ports"
	"github.com/jhoicas/Compras-api/internal/domain"
	"github.com/jhoicas/Compras-api/internal/domain/entity"
	"github.com/jhoicas/Compras-api/internal/domain/order"
	"github.com/jhoicas/Compras-api/internal/domain/repository"
	"github.com/jhoicas/Compras-api/internal/domain/validation"
)

// CreateOrderUseCase crea órdenes de compra en draft de forma transaccional
// (orden + líneas + auditoría en un solo commit).
type CreateOrderUseCase struct {
	txRunner     ports.TxRunner
	productRepo  repository.ProductRepository
	supplierRepo repository.SupplierRepository
	veRepo       repository.ValidationErrorRepository
}

// NewCreateOrderUseCase construye el caso de uso.
func NewCreateOrderUseCase(
	txRunner ports.TxRunner,
	productRepo repository.ProductRepository,
	supplierRepo repository.SupplierRepository,
	veRepo repository.ValidationErrorRepository,
) *CreateOrderUseCase {
	return &CreateOrderUseCase{
		txRunner:     txRunner,
		productRepo:  productRepo,
		supplierRepo: supplierRepo,
		veRepo:       veRepo,
	}
}

// Create valida contra la puerta, calcula el total y persiste la orden con
// sus líneas. Rechazos de validación quedan registrados en
// validation_errors y abortan sin escrituras parciales.
func (uc *CreateOrderUseCase) Create(ctx context.Context, actor ports.Actor, in dto.CreateOrderRequest) (*dto.OrderResponse, error) {
	if vf := validation.Permission(actor.Role, validation.ActionCreateOrder); vf != nil {
		return nil, gate.Reject(ctx, uc.veRepo, actor.CompanyID, entity.AuditEntityPurchaseOrder, "", vf)
	}
	if vf := validation.RequiredFields(map[string]string{"supplier_id": in.SupplierID}); vf != nil {
		return nil, gate.Reject(ctx, uc.veRepo, actor.CompanyID, entity.AuditEntityPurchaseOrder, "", vf)
	}
	if len(in.Items) == 0 {
		vf := domain.NewValidationFailure(domain.KindMissingRequiredField, "items", "la orden necesita al menos una línea")
		return nil, gate.Reject(ctx, uc.veRepo, actor.CompanyID, entity.AuditEntityPurchaseOrder, "", vf)
	}

	now := time.Now()
	orderID := uuid.New().String()
	items := make([]*entity.PurchaseOrderItem, 0, len(in.Items))
	for _, it := range in.Items {
		if vf := validation.PositiveQuantity("quantity", it.Quantity); vf != nil {
			return nil, gate.Reject(ctx, uc.veRepo, actor.CompanyID, entity.AuditEntityPurchaseOrder, orderID, vf.WithContext("product_id", it.ProductID))
		}
		if vf := validation.NonNegativeCost("unit_cost", it.UnitCost); vf != nil {
			return nil, gate.Reject(ctx, uc.veRepo, actor.CompanyID, entity.AuditEntityPurchaseOrder, orderID, vf.WithContext("product_id", it.ProductID))
		}
		items = append(items, &entity.PurchaseOrderItem{
			ID:        uuid.New().String(),
			OrderID:   orderID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitCost:  it.UnitCost,
		})
	}
	if vf := validation.NoDuplicateProducts(items); vf != nil {
		return nil, gate.Reject(ctx, uc.veRepo, actor.CompanyID, entity.AuditEntityPurchaseOrder, orderID, vf)
	}

	supplier, err := uc.supplierRepo.GetByID(ctx, in.SupplierID)
	if err != nil {
		return nil, err
	}
	if supplier != nil && supplier.CompanyID != actor.CompanyID {
		return nil, domain.ErrForbidden
	}
	if vf := validation.SupplierActive(supplier, in.SupplierID); vf != nil {
		return nil, gate.Reject(ctx, uc.veRepo, actor.CompanyID, entity.AuditEntityPurchaseOrder, orderID, vf)
	}
	for _, it := range items {
		product, err := uc.productRepo.GetByID(ctx, it.ProductID)
		if err != nil {
			return nil, err
		}
		if product != nil && product.CompanyID != actor.CompanyID {
			return nil, domain.ErrForbidden
		}
		if vf := validation.ProductActive(product, it.ProductID); vf != nil {
			return nil, gate.Reject(ctx, uc.veRepo, actor.CompanyID, entity.AuditEntityPurchaseOrder, orderID, vf)
		}
	}

	ord := &entity.PurchaseOrder{
		ID:                 orderID,
		CompanyID:          actor.CompanyID,
		OrderNumber:        newOrderNumber(now),
		SupplierID:         in.SupplierID,
		Status:             order.StatusDraft,
		Total:              entity.OrderTotal(items),
		AllowOverReceiving: in.AllowOverReceiving,
		Notes:              in.Notes,
		Version:            1,
		CreatedBy:          actor.UserID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	err = uc.txRunner.Run(ctx, func(r ports.TxRepos) error {
		if err := r.Orders.Create(ctx, ord, items); err != nil {
			return err
		}
		return audit.Append(ctx, r.Audit, audit.Entry{
			CompanyID:  actor.CompanyID,
			EntityType: entity.AuditEntityPurchaseOrder,
			EntityID:   ord.ID,
			Action:     "create",
			NewValue:   orderSnapshot(ord),
			Actor:      actor.UserID,
			Metadata:   map[string]any{"items": len(items)},
		}, now)
	})
	if err != nil {
		return nil, err
	}
	return ToOrderResponse(ord, items), nil
}

// newOrderNumber genera un número legible único: PO-fecha-sufijo corto.
func newOrderNumber(now time.Time) string {
	return "PO-" + now.Format("20060102") + "-" + uuid.New().String()[:8]
}

// TransitionStatusUseCase ejecuta transiciones directas de estado con
// compare-and-set sobre la versión de la orden.
type TransitionStatusUseCase struct {
	txRunner  ports.TxRunner
	orderRepo repository.PurchaseOrderRepository
	veRepo    repository.ValidationErrorRepository
}

// NewTransitionStatusUseCase construye el caso de uso.
func NewTransitionStatusUseCase(
	txRunner ports.TxRunner,
	orderRepo repository.PurchaseOrderRepository,
	veRepo repository.ValidationErrorRepository,
) *TransitionStatusUseCase {
	return &TransitionStatusUseCase{txRunner: txRunner, orderRepo: orderRepo, veRepo: veRepo}
}

// Transition valida el par (actual, destino) contra la tabla fija y aplica
// el cambio con CAS: si la versión observada está vieja devuelve
// domain.ErrConflict y el caller reintenta con estado fresco. Los destinos
// partially_received/received están reservados al reconciliador.
func (uc *TransitionStatusUseCase) Transition(ctx context.Context, actor ports.Actor, orderID, targetStatus, reason string) (string, error) {
	if vf := validation.Permission(actor.Role, validation.ActionTransitionStatus); vf != nil {
		return "", gate.Reject(ctx, uc.veRepo, actor.CompanyID, entity.AuditEntityPurchaseOrder, orderID, vf)
	}
	ord, err := uc.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return "", err
	}
	if ord == nil {
		return "", domain.ErrNotFound
	}
	if ord.CompanyID != actor.CompanyID {
		return "", domain.ErrForbidden
	}
	if vf := validation.StatusTransition(ord.Status, targetStatus, true); vf != nil {
		return "", gate.Reject(ctx, uc.veRepo, actor.CompanyID, entity.AuditEntityPurchaseOrder, orderID, vf)
	}
	// sent_to_supplier exige que ninguna aprobación siga pendiente.
	if targetStatus == order.StatusSentToSupplier {
		if err := uc.checkNoPendingApprovals(ctx, ord); err != nil {
			return "", err
		}
	}

	err = uc.txRunner.Run(ctx, func(r ports.TxRepos) error {
		return ApplyTransition(ctx, r, ord, targetStatus, actor, reason, time.Now())
	})
	if err != nil {
		return "", err
	}
	return targetStatus, nil
}

func (uc *TransitionStatusUseCase) checkNoPendingApprovals(ctx context.Context, ord *entity.PurchaseOrder) error {
	var pending bool
	err := uc.txRunner.Run(ctx, func(r ports.TxRepos) error {
		records, err := r.Approvals.ListByOrder(ctx, ord.ID)
		if err != nil {
			return err
		}
		for _, rec := range records {
			if rec.Status == entity.ApprovalStatusPending || rec.Status == entity.ApprovalStatusEscalated {
				pending = true
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if pending {
		vf := domain.NewValidationFailure(domain.KindApprovalRequired, "status",
			"la orden tiene aprobaciones pendientes o escaladas").
			WithContext("order_id", ord.ID)
		return gate.Reject(ctx, uc.veRepo, ord.CompanyID, entity.AuditEntityPurchaseOrder, ord.ID, vf)
	}
	return nil
}

// ApplyTransition escribe el cambio de estado (CAS), una entrada de
// historial y una de auditoría dentro de la transacción de r. La usan
// también el reconciliador de recepciones y el motor de aprobaciones, que
// son los únicos autorizados a disparar los destinos reservados.
func ApplyTransition(ctx context.Context, r ports.TxRepos, ord *entity.PurchaseOrder, targetStatus string, actor ports.Actor, reason string, now time.Time) error {
	if ord.Status == targetStatus {
		return nil // recepción parcial repetida: sin cambio de estado
	}
	if err := r.Orders.UpdateStatus(ctx, ord.ID, targetStatus, ord.Version); err != nil {
		return err
	}
	if err := r.History.Create(ctx, &entity.StatusHistory{
		ID:         uuid.New().String(),
		OrderID:    ord.ID,
		FromStatus: ord.Status,
		ToStatus:   targetStatus,
		Actor:      actor.UserID,
		Reason:     reason,
		CreatedAt:  now,
	}); err != nil {
		return err
	}
	if err := audit.Append(ctx, r.Audit, audit.Entry{
		CompanyID:  ord.CompanyID,
		EntityType: entity.AuditEntityPurchaseOrder,
		EntityID:   ord.ID,
		Action:     "status_change",
		OldValue:   map[string]string{"status": ord.Status},
		NewValue:   map[string]string{"status": targetStatus},
		Actor:      actor.UserID,
		Reason:     reason,
	}, now); err != nil {
		return err
	}
	ord.Status = targetStatus
	ord.Version++
	ord.UpdatedAt = now
	return nil
}

// QueryUseCase lecturas de órdenes.
type QueryUseCase struct {
	orderRepo   repository.PurchaseOrderRepository
	itemRepo    repository.PurchaseOrderItemRepository
	historyRepo repository.StatusHistoryRepository
}

// NewQueryUseCase construye el caso de uso.
func NewQueryUseCase(
	orderRepo repository.PurchaseOrderRepository,
	itemRepo repository.PurchaseOrderItemRepository,
	historyRepo repository.StatusHistoryRepository,
) *QueryUseCase {
	return &QueryUseCase{orderRepo: orderRepo, itemRepo: itemRepo, historyRepo: historyRepo}
}

// GetByID devuelve la orden con sus líneas.
func (uc *QueryUseCase) GetByID(ctx context.Context, companyID, orderID string) (*dto.OrderResponse, error) {
	ord, err := uc.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if ord == nil {
		return nil, nil
	}
	if ord.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	items, err := uc.itemRepo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return ToOrderResponse(ord, items), nil
}

// List devuelve las órdenes de la empresa, opcionalmente filtradas por estado.
func (uc *QueryUseCase) List(ctx context.Context, companyID, status string, page dto.PageRequest) ([]dto.OrderResponse, error) {
	page.DefaultPage()
	list, err := uc.orderRepo.ListByCompany(ctx, companyID, status, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.OrderResponse, 0, len(list))
	for _, ord := range list {
		out = append(out, *ToOrderResponse(ord, nil))
	}
	return out, nil
}

// History devuelve el historial de estados de la orden.
func (uc *QueryUseCase) History(ctx context.Context, companyID, orderID string) ([]dto.StatusHistoryResponse, error) {
	ord, err := uc.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if ord == nil {
		return nil, domain.ErrNotFound
	}
	if ord.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	list, err := uc.historyRepo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.StatusHistoryResponse, 0, len(list))
	for _, h := range list {
		out = append(out, dto.StatusHistoryResponse{
			FromStatus: h.FromStatus,
			ToStatus:   h.ToStatus,
			Actor:      h.Actor,
			Reason:     h.Reason,
			CreatedAt:  h.CreatedAt,
		})
	}
	return out, nil
}

// ToOrderResponse mapea la entidad al DTO de respuesta.
func ToOrderResponse(ord *entity.PurchaseOrder, items []*entity.PurchaseOrderItem) *dto.OrderResponse {
	resp := &dto.OrderResponse{
		ID:                 ord.ID,
		OrderNumber:        ord.OrderNumber,
		SupplierID:         ord.SupplierID,
		Status:             ord.Status,
		Total:              ord.Total,
		AllowOverReceiving: ord.AllowOverReceiving,
		Notes:              ord.Notes,
		Version:            ord.Version,
		CreatedBy:          ord.CreatedBy,
		CreatedAt:          ord.CreatedAt,
		UpdatedAt:          ord.UpdatedAt,
	}
	for _, it := range items {
		resp.Items = append(resp.Items, dto.OrderItemResponse{
			ID:               it.ID,
			ProductID:        it.ProductID,
			Quantity:         it.Quantity,
			QuantityReceived: it.QuantityReceived,
			UnitCost:         it.UnitCost,
			Subtotal:         it.Subtotal(),
		})
	}
	return resp
}

// orderSnapshot snapshot serializable de la orden para auditoría.
func orderSnapshot(ord *entity.PurchaseOrder) map[string]any {
	return map[string]any{
		"order_number":         ord.OrderNumber,
		"supplier_id":          ord.SupplierID,
		"status":               ord.Status,
		"total":                ord.Total.String(),
		"allow_over_receiving": ord.AllowOverReceiving,
	}
}
