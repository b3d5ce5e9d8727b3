// Package receiving implementa el reconciliador de recepciones: aplica una
// entrega contra las líneas pedidas de la orden, clasifica full/partial/
// over, actualiza el ledger de stock y avanza el estado de la orden. Es el
// único dueño de PurchaseOrderItem.QuantityReceived y de los movimientos de
// tipo receipt.
package receiving

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Compras-api/internal/application/audit"
	"github.com/jhoicas/Compras-api/internal/application/dto"
	"github.com/jhoicas/Compras-api/internal/application/gate"
	"github.com/jhoicas/Compras-api/internal/application/orders"
	"github.com/jhoicas/Compras-api/internal/application/ports"
	"github.com/jhoicas/Compras-api/internal/domain"
	"github.com/jhoicas/Compras-api/internal/domain/entity"
	"github.com/jhoicas/Compras-api/internal/domain/order"
	"github.com/jhoicas/Compras-api/internal/domain/repository"
	"github.com/jhoicas/Compras-api/internal/domain/validation"
)

// SubmitReceivingUseCase registra recepciones de mercancía de forma
// transaccional: toda línea aceptada hace commit junta (stock + línea +
// auditoría) o ninguna; las líneas que fallan validación se excluyen y se
// reportan individualmente sin abortar al resto.
type SubmitReceivingUseCase struct {
	txRunner  ports.TxRunner
	orderRepo repository.PurchaseOrderRepository
	recRepo   repository.ReceivingRepository
	veRepo    repository.ValidationErrorRepository
}

// NewSubmitReceivingUseCase construye el caso de uso.
func NewSubmitReceivingUseCase(
	txRunner ports.TxRunner,
	orderRepo repository.PurchaseOrderRepository,
	recRepo repository.ReceivingRepository,
	veRepo repository.ValidationErrorRepository,
) *SubmitReceivingUseCase {
	return &SubmitReceivingUseCase{
		txRunner:  txRunner,
		orderRepo: orderRepo,
		recRepo:   recRepo,
		veRepo:    veRepo,
	}
}

// accepted línea de entrega ya validada y clasificada, lista para aplicar.
type accepted struct {
	item     *entity.PurchaseOrderItem
	request  dto.ReceivingItemRequest
	quantity decimal.Decimal // cantidad a aplicar (ya recortada si aplica)
	over     bool            // excedió lo pedido (política de la orden lo permitió)
}

// Submit aplica la entrega contra la orden. La recepción completa es una
// transacción lógica; el mismo receiving_number reenviado se rechaza con
// ErrDuplicate, nunca se aplica doble.
func (uc *SubmitReceivingUseCase) Submit(ctx context.Context, actor ports.Actor, orderID string, in dto.SubmitReceivingRequest) (*dto.ReceivingResponse, error) {
	if vf := validation.Permission(actor.Role, validation.ActionSubmitReceiving); vf != nil {
		return nil, gate.Reject(ctx, uc.veRepo, actor.CompanyID, entity.AuditEntityReceivingRecord, "", vf)
	}
	if vf := validation.RequiredFields(map[string]string{"receiving_number": in.ReceivingNumber}); vf != nil {
		return nil, gate.Reject(ctx, uc.veRepo, actor.CompanyID, entity.AuditEntityReceivingRecord, "", vf)
	}
	if len(in.Items) == 0 {
		vf := domain.NewValidationFailure(domain.KindUnderReceiving, "items", "la entrega no trae ítems")
		return nil, gate.Reject(ctx, uc.veRepo, actor.CompanyID, entity.AuditEntityReceivingRecord, "", vf)
	}

	ord, err := uc.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if ord == nil {
		return nil, domain.ErrNotFound
	}
	if ord.CompanyID != actor.CompanyID {
		return nil, domain.ErrForbidden
	}
	if ord.Status != order.StatusSentToSupplier && ord.Status != order.StatusPartiallyReceived {
		vf := domain.NewValidationFailure(domain.KindInvalidStatusTransition, "status",
			"la orden no está en un estado que admita recepciones").
			WithContext("status", ord.Status)
		return nil, gate.Reject(ctx, uc.veRepo, actor.CompanyID, entity.AuditEntityReceivingRecord, orderID, vf)
	}
	// Idempotencia: mismo número de recepción = rechazo, no doble aplicación.
	if existing, err := uc.recRepo.GetByNumber(ctx, actor.CompanyID, in.ReceivingNumber); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, domain.ErrDuplicate
	}

	now := time.Now()
	recID := uuid.New().String()
	var resp *dto.ReceivingResponse

	err = uc.txRunner.Run(ctx, func(r ports.TxRepos) error {
		items, err := r.OrderItems.ListByOrder(ctx, orderID)
		if err != nil {
			return err
		}
		byProduct := make(map[string]*entity.PurchaseOrderItem, len(items))
		for _, it := range items {
			byProduct[it.ProductID] = it
		}

		var acceptedItems []accepted
		var rejected []dto.RejectedItemResponse
		overSeen := false
		partialDelivery := false

		for _, line := range in.Items {
			if vf := validation.PositiveQuantity("quantity", line.Quantity); vf != nil {
				rejected = append(rejected, rejectLine(ctx, uc.veRepo, actor.CompanyID, recID, line.ProductID, vf))
				continue
			}
			item, ok := byProduct[line.ProductID]
			if !ok {
				vf := domain.NewValidationFailure(domain.KindInvalidQuantity, "product_id",
					"el producto no pertenece a la orden").
					WithContext("product_id", line.ProductID)
				rejected = append(rejected, rejectLine(ctx, uc.veRepo, actor.CompanyID, recID, line.ProductID, vf))
				continue
			}
			remaining := item.Remaining()
			apply := line.Quantity
			over := false
			switch {
			case line.Quantity.GreaterThan(remaining):
				if !ord.AllowOverReceiving {
					vf := domain.NewValidationFailure(domain.KindOverReceiving, "quantity",
						"la cantidad entregada excede lo pendiente de la línea").
						WithContext("product_id", line.ProductID).
						WithContext("remaining", remaining.String()).
						WithContext("delivered", line.Quantity.String())
					rejected = append(rejected, rejectLine(ctx, uc.veRepo, actor.CompanyID, recID, line.ProductID, vf))
					continue
				}
				over = true
				overSeen = true
			case line.Quantity.LessThan(remaining):
				partialDelivery = true
			}
			acceptedItems = append(acceptedItems, accepted{item: item, request: line, quantity: apply, over: over})
		}

		// Aplicar cada línea aceptada: movimiento de stock + incremento de
		// recibido + auditoría, todo dentro de esta transacción.
		recItems := make([]*entity.ReceivingItem, 0, len(acceptedItems))
		for _, a := range acceptedItems {
			stock, err := r.Stock.GetForUpdate(ctx, a.item.ProductID)
			if err != nil {
				return err
			}
			if stock == nil {
				// primer movimiento del producto: el contador nace aquí
				stock = &entity.Stock{ProductID: a.item.ProductID, CompanyID: actor.CompanyID, Quantity: decimal.Zero}
			}
			before := stock.Quantity
			after := before.Add(a.quantity)
			mov := &entity.StockMovement{
				ID:              uuid.New().String(),
				CompanyID:       actor.CompanyID,
				ProductID:       a.item.ProductID,
				Type:            entity.MovementTypeReceipt,
				QuantityBefore:  before,
				QuantityChanged: a.quantity,
				QuantityAfter:   after,
				ReferenceID:     recID,
				UnitCost:        a.item.UnitCost,
				TotalValue:      a.quantity.Mul(a.item.UnitCost),
				CreatedBy:       actor.UserID,
				CreatedAt:       now,
			}
			if err := r.Movements.Create(ctx, mov); err != nil {
				return err
			}
			stock.Quantity = after
			stock.UpdatedAt = now
			if err := r.Stock.Upsert(ctx, stock); err != nil {
				return err
			}
			if err := r.OrderItems.IncrementReceived(ctx, a.item.ID, a.quantity); err != nil {
				return err
			}
			a.item.QuantityReceived = a.item.QuantityReceived.Add(a.quantity)
			meta := map[string]any{"receiving_id": recID, "order_id": orderID}
			if a.over {
				meta["over_receipt"] = true
			}
			if err := audit.Append(ctx, r.Audit, audit.Entry{
				CompanyID:  actor.CompanyID,
				EntityType: entity.AuditEntityStockMovement,
				EntityID:   mov.ID,
				Action:     "receipt",
				OldValue:   map[string]string{"quantity": before.String()},
				NewValue:   map[string]string{"quantity": after.String()},
				Actor:      actor.UserID,
				Metadata:   meta,
			}, now); err != nil {
				return err
			}
			recItems = append(recItems, &entity.ReceivingItem{
				ID:          uuid.New().String(),
				ReceivingID: recID,
				ProductID:   a.item.ProductID,
				Quantity:    a.quantity,
				BatchNumber: a.request.BatchNumber,
				ExpiryDate:  a.request.ExpiryDate,
			})
		}

		if len(acceptedItems) == 0 {
			// Nada aplicable: no se crea recepción ni se toca la orden.
			resp = &dto.ReceivingResponse{
				OrderID:         orderID,
				ReceivingNumber: in.ReceivingNumber,
				OrderStatus:     ord.Status,
				RejectedItems:   rejected,
				CreatedAt:       now,
			}
			return nil
		}

		classification := classify(items, partialDelivery, overSeen)
		rec := &entity.ReceivingRecord{
			ID:              recID,
			CompanyID:       actor.CompanyID,
			OrderID:         orderID,
			ReceivingNumber: in.ReceivingNumber,
			Status:          entity.ReceivingStatusPending,
			Classification:  classification,
			InspectionNotes: in.InspectionNotes,
			CreatedBy:       actor.UserID,
			CreatedAt:       now,
		}
		if err := r.Receivings.Create(ctx, rec, recItems); err != nil {
			return err
		}
		if err := audit.Append(ctx, r.Audit, audit.Entry{
			CompanyID:  actor.CompanyID,
			EntityType: entity.AuditEntityReceivingRecord,
			EntityID:   recID,
			Action:     "create",
			NewValue: map[string]any{
				"receiving_number": in.ReceivingNumber,
				"classification":   classification,
				"accepted_items":   len(acceptedItems),
			},
			Actor: actor.UserID,
		}, now); err != nil {
			return err
		}

		// Recalcular el estado de la orden tras aplicar los ítems.
		target := order.StatusPartiallyReceived
		if allReceived(items) {
			target = order.StatusReceived
		}
		if err := orders.ApplyTransition(ctx, r, ord, target, actor, "recepción "+in.ReceivingNumber, now); err != nil {
			return err
		}

		resp = &dto.ReceivingResponse{
			ID:              recID,
			OrderID:         orderID,
			ReceivingNumber: in.ReceivingNumber,
			Status:          rec.Status,
			Classification:  classification,
			OrderStatus:     ord.Status,
			AcceptedItems:   len(acceptedItems),
			RejectedItems:   rejected,
			CreatedAt:       now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// classify determina la clasificación del registro: over si alguna línea
// excedió lo pedido, full si toda línea quedó completamente recibida,
// partial en el resto de los casos.
func classify(items []*entity.PurchaseOrderItem, partialDelivery, overSeen bool) string {
	if overSeen {
		return entity.ReceivingOver
	}
	if partialDelivery || !allReceived(items) {
		return entity.ReceivingPartial
	}
	return entity.ReceivingFull
}

// allReceived indica si toda línea de la orden quedó sin cantidad pendiente.
func allReceived(items []*entity.PurchaseOrderItem) bool {
	for _, it := range items {
		if it.Remaining().GreaterThan(decimal.Zero) {
			return false
		}
	}
	return true
}

func rejectLine(ctx context.Context, repo repository.ValidationErrorRepository, companyID, recID, productID string, vf *domain.ValidationFailure) dto.RejectedItemResponse {
	_ = gate.Reject(ctx, repo, companyID, entity.AuditEntityReceivingRecord, recID, vf)
	return dto.RejectedItemResponse{
		ProductID: productID,
		Code:      string(vf.Kind),
		Message:   vf.Message,
	}
}

// Approve marca la recepción como approved tras la inspección. Una vez
// approved el registro es inmutable; cualquier corrección posterior va por
// entradas compensatorias del ledger, nunca editando la recepción.
func (uc *SubmitReceivingUseCase) Approve(ctx context.Context, actor ports.Actor, receivingID string) error {
	if vf := validation.Permission(actor.Role, validation.ActionDecideApproval); vf != nil {
		return gate.Reject(ctx, uc.veRepo, actor.CompanyID, entity.AuditEntityReceivingRecord, receivingID, vf)
	}
	rec, err := uc.recRepo.GetByID(ctx, receivingID)
	if err != nil {
		return err
	}
	if rec == nil {
		return domain.ErrNotFound
	}
	if rec.CompanyID != actor.CompanyID {
		return domain.ErrForbidden
	}
	if rec.Status != entity.ReceivingStatusPending {
		vf := domain.NewValidationFailure(domain.KindInvalidStatusTransition, "status",
			"la recepción ya fue decidida").
			WithContext("status", rec.Status)
		return gate.Reject(ctx, uc.veRepo, actor.CompanyID, entity.AuditEntityReceivingRecord, receivingID, vf)
	}
	now := time.Now()
	return uc.txRunner.Run(ctx, func(r ports.TxRepos) error {
		if err := r.Receivings.Approve(ctx, receivingID, actor.UserID, now); err != nil {
			return err
		}
		return audit.Append(ctx, r.Audit, audit.Entry{
			CompanyID:  actor.CompanyID,
			EntityType: entity.AuditEntityReceivingRecord,
			EntityID:   receivingID,
			Action:     "approve",
			OldValue:   map[string]string{"status": rec.Status},
			NewValue:   map[string]string{"status": entity.ReceivingStatusApproved},
			Actor:      actor.UserID,
		}, now)
	})
}

// Cancel anula una recepción pending tras una inspección fallida. El stock
// aplicado al crearla no se revierte aquí: la corrección va por movimientos
// compensatorios del ledger, que dejan su propio rastro.
func (uc *SubmitReceivingUseCase) Cancel(ctx context.Context, actor ports.Actor, receivingID, reason string) error {
	if vf := validation.Permission(actor.Role, validation.ActionDecideApproval); vf != nil {
		return gate.Reject(ctx, uc.veRepo, actor.CompanyID, entity.AuditEntityReceivingRecord, receivingID, vf)
	}
	rec, err := uc.recRepo.GetByID(ctx, receivingID)
	if err != nil {
		return err
	}
	if rec == nil {
		return domain.ErrNotFound
	}
	if rec.CompanyID != actor.CompanyID {
		return domain.ErrForbidden
	}
	if rec.Status != entity.ReceivingStatusPending {
		vf := domain.NewValidationFailure(domain.KindInvalidStatusTransition, "status",
			"la recepción ya fue decidida").
			WithContext("status", rec.Status)
		return gate.Reject(ctx, uc.veRepo, actor.CompanyID, entity.AuditEntityReceivingRecord, receivingID, vf)
	}
	now := time.Now()
	return uc.txRunner.Run(ctx, func(r ports.TxRepos) error {
		if err := r.Receivings.Cancel(ctx, receivingID); err != nil {
			return err
		}
		return audit.Append(ctx, r.Audit, audit.Entry{
			CompanyID:  actor.CompanyID,
			EntityType: entity.AuditEntityReceivingRecord,
			EntityID:   receivingID,
			Action:     "cancel",
			OldValue:   map[string]string{"status": rec.Status},
			NewValue:   map[string]string{"status": entity.ReceivingStatusCancelled},
			Actor:      actor.UserID,
			Reason:     reason,
		}, now)
	})
}

// QueryUseCase lecturas de recepciones.
type QueryUseCase struct {
	orderRepo repository.PurchaseOrderRepository
	recRepo   repository.ReceivingRepository
}

// NewQueryUseCase construye el caso de uso.
func NewQueryUseCase(orderRepo repository.PurchaseOrderRepository, recRepo repository.ReceivingRepository) *QueryUseCase {
	return &QueryUseCase{orderRepo: orderRepo, recRepo: recRepo}
}

// ListByOrder devuelve las recepciones de una orden.
func (uc *QueryUseCase) ListByOrder(ctx context.Context, companyID, orderID string) ([]*entity.ReceivingRecord, error) {
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
	return uc.recRepo.ListByOrder(ctx, orderID)
}
