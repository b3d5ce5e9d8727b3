// Package stock implementa el ledger de movimientos de stock: registro
// manual, historial con continuación y resumen agregado por producto. El
// ledger es append-only; el contador autoritativo se muta solo en la misma
// transacción que crea el movimiento.
package stock

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
	"github.com/jhoicas/Compras-api/internal/domain/repository"
	"github.com/jhoicas/Compras-api/internal/domain/validation"

	"github.com/shopspring/decimal"
)

// SummaryCache cachea resúmenes por producto. El ledger lo invalida en cada
// escritura para que las lecturas posteriores vean el estado real.
type SummaryCache interface {
	Get(productID string) (*dto.StockSummaryResponse, bool)
	Add(productID string, summary *dto.StockSummaryResponse)
	Remove(productID string)
}

// LedgerUseCase registra y consulta movimientos de stock.
type LedgerUseCase struct {
	txRunner     ports.TxRunner
	stockRepo    repository.StockRepository
	movementRepo repository.StockMovementRepository
	productRepo  repository.ProductRepository
	veRepo       repository.ValidationErrorRepository
	cache        SummaryCache
	// allowNegative permite que adjustment y recount dejen el contador en
	// negativo (STOCK_ALLOW_NEGATIVE_ADJUSTMENT).
	allowNegative bool
}

func NewLedgerUseCase(
	txRunner ports.TxRunner,
	stockRepo repository.StockRepository,
	movementRepo repository.StockMovementRepository,
	productRepo repository.ProductRepository,
	veRepo repository.ValidationErrorRepository,
	cache SummaryCache,
	allowNegative bool,
) *LedgerUseCase {
	return &LedgerUseCase{
		txRunner:      txRunner,
		stockRepo:     stockRepo,
		movementRepo:  movementRepo,
		productRepo:   productRepo,
		veRepo:        veRepo,
		cache:         cache,
		allowNegative: allowNegative,
	}
}

// Record registra una entrada manual en el ledger. Toma el lock de fila del
// producto, valida suficiencia sobre el contador bloqueado y escribe
// movimiento, contador y auditoría en una sola transacción. Dos salidas
// concurrentes del mismo producto se serializan: exactamente una ve el
// contador ya decrementado.
func (uc *LedgerUseCase) Record(ctx context.Context, actor ports.Actor, in dto.RecordMovementRequest) (*dto.MovementResponse, error) {
	if vf := uc.validateRecord(actor, in); vf != nil {
		return nil, gate.Reject(ctx, uc.veRepo, actor.CompanyID, entity.AuditEntityStockMovement, in.ProductID, vf)
	}

	product, err := uc.productRepo.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if product != nil && product.CompanyID != actor.CompanyID {
		return nil, domain.ErrForbidden
	}
	if vf := validation.ProductActive(product, in.ProductID); vf != nil {
		return nil, gate.Reject(ctx, uc.veRepo, actor.CompanyID, entity.AuditEntityStockMovement, in.ProductID, vf)
	}

	now := time.Now()
	var movement *entity.StockMovement
	err = uc.txRunner.Run(ctx, func(r ports.TxRepos) error {
		current, err := r.Stock.GetForUpdate(ctx, in.ProductID)
		if err != nil {
			return err
		}
		before := decimal.Zero
		if current != nil {
			before = current.Quantity
		}
		if vf := validation.StockSufficiency(before, in.Quantity, in.Type, uc.allowNegative); vf != nil {
			return gate.Reject(ctx, uc.veRepo, actor.CompanyID, entity.AuditEntityStockMovement, in.ProductID, vf)
		}
		after := before.Add(in.Quantity)
		movement = &entity.StockMovement{
			ID:              uuid.New().String(),
			CompanyID:       actor.CompanyID,
			ProductID:       in.ProductID,
			Type:            in.Type,
			QuantityBefore:  before,
			QuantityChanged: in.Quantity,
			QuantityAfter:   after,
			ReferenceID:     in.ReferenceID,
			UnitCost:        in.UnitCost,
			TotalValue:      in.UnitCost.Mul(in.Quantity.Abs()),
			CreatedBy:       actor.UserID,
			CreatedAt:       now,
		}
		if err := r.Movements.Create(ctx, movement); err != nil {
			return err
		}
		if err := r.Stock.Upsert(ctx, &entity.Stock{
			ProductID: in.ProductID,
			CompanyID: actor.CompanyID,
			Quantity:  after,
			UpdatedAt: now,
		}); err != nil {
			return err
		}
		return audit.Append(ctx, r.Audit, audit.Entry{
			CompanyID:  actor.CompanyID,
			EntityType: entity.AuditEntityStockMovement,
			EntityID:   movement.ID,
			Action:     "record",
			NewValue: map[string]any{
				"product_id": in.ProductID,
				"type":       in.Type,
				"before":     before.String(),
				"changed":    in.Quantity.String(),
				"after":      after.String(),
			},
			Actor:  actor.UserID,
			Reason: in.Reason,
		}, now)
	})
	if err != nil {
		return nil, err
	}
	if uc.cache != nil {
		uc.cache.Remove(in.ProductID)
	}
	return toMovementResponse(movement), nil
}

func (uc *LedgerUseCase) validateRecord(actor ports.Actor, in dto.RecordMovementRequest) *domain.ValidationFailure {
	if vf := validation.Permission(actor.Role, validation.ActionRecordMovement); vf != nil {
		return vf
	}
	if vf := validation.RequiredFields(map[string]string{"product_id": in.ProductID, "type": in.Type}); vf != nil {
		return vf
	}
	if vf := validation.MovementType(in.Type); vf != nil {
		return vf
	}
	// El delta es firmado; lo único prohibido es el movimiento nulo.
	if in.Quantity.IsZero() {
		return domain.NewValidationFailure(domain.KindInvalidQuantity, "quantity",
			"el movimiento no puede tener delta cero")
	}
	return validation.NonNegativeCost("unit_cost", in.UnitCost)
}

// History devuelve el historial de movimientos de un producto, ascendente
// por fecha, con límite y offset de continuación.
func (uc *LedgerUseCase) History(ctx context.Context, companyID, productID string, q dto.StockHistoryQuery) ([]dto.MovementResponse, error) {
	if err := uc.checkProductScope(ctx, companyID, productID); err != nil {
		return nil, err
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	movements, err := uc.movementRepo.ListByProduct(ctx, productID, q.From, q.To, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MovementResponse, 0, len(movements))
	for _, m := range movements {
		out = append(out, *toMovementResponse(m))
	}
	return out, nil
}

// Summary devuelve el agregado por producto (entradas, salidas, cambio neto,
// actores distintos) junto con el contador actual. El resultado se cachea;
// cualquier escritura del ledger lo invalida.
func (uc *LedgerUseCase) Summary(ctx context.Context, companyID, productID string) (*dto.StockSummaryResponse, error) {
	if err := uc.checkProductScope(ctx, companyID, productID); err != nil {
		return nil, err
	}
	if uc.cache != nil {
		if cached, ok := uc.cache.Get(productID); ok {
			return cached, nil
		}
	}
	summary, err := uc.movementRepo.Summary(ctx, productID)
	if err != nil {
		return nil, err
	}
	current := decimal.Zero
	if st, err := uc.stockRepo.Get(ctx, productID); err != nil {
		return nil, err
	} else if st != nil {
		current = st.Quantity
	}
	// Invariante del ledger: reproducir los movimientos reproduce el
	// contador. Si divergen hay una inconsistencia que exige reconciliación
	// manual, nunca se reporta un resumen corrupto como si nada.
	if !summary.NetChange.Equal(current) {
		return nil, domain.ErrReconciliationRequired
	}
	resp := &dto.StockSummaryResponse{
		ProductID:      productID,
		CurrentStock:   current,
		TotalIn:        summary.TotalIn,
		TotalOut:       summary.TotalOut,
		NetChange:      summary.NetChange,
		DistinctActors: summary.DistinctActors,
		MovementCount:  summary.MovementCount,
	}
	if uc.cache != nil {
		uc.cache.Add(productID, resp)
	}
	return resp, nil
}

func (uc *LedgerUseCase) checkProductScope(ctx context.Context, companyID, productID string) error {
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if product == nil {
		return domain.ErrNotFound
	}
	if product.CompanyID != companyID {
		return domain.ErrForbidden
	}
	return nil
}

func toMovementResponse(m *entity.StockMovement) *dto.MovementResponse {
	return &dto.MovementResponse{
		ID:              m.ID,
		ProductID:       m.ProductID,
		Type:            m.Type,
		QuantityBefore:  m.QuantityBefore,
		QuantityChanged: m.QuantityChanged,
		QuantityAfter:   m.QuantityAfter,
		ReferenceID:     m.ReferenceID,
		UnitCost:        m.UnitCost,
		TotalValue:      m.TotalValue,
		CreatedBy:       m.CreatedBy,
		CreatedAt:       m.CreatedAt,
	}
}
