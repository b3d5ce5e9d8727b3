// Package approvals implementa el motor de aprobaciones multinivel por
// umbral de monto. Es el único dueño de los ApprovalRecord y de la cadena
// de escalamiento; la cadena misma (niveles, límites, roles) llega por
// configuración externa, nunca se decide aquí.
package approvals

import (
	"context"
	"encoding/json"
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

// ChainLevel un nivel de la cadena de aprobación: límite de monto y rol
// autorizado a decidir en ese nivel.
type ChainLevel struct {
	Level int             `json:"level"`
	Limit decimal.Decimal `json:"limit"`
	Role  string          `json:"role"`
}

// ChainConfig cadena de aprobación configurada (niveles ordenados
// estrictamente crecientes).
type ChainConfig struct {
	Levels []ChainLevel
}

// LevelFor devuelve el nivel configurado n, si existe.
func (c ChainConfig) LevelFor(n int) (ChainLevel, bool) {
	for _, l := range c.Levels {
		if l.Level == n {
			return l, true
		}
	}
	return ChainLevel{}, false
}

// FinalLevel devuelve el último nivel configurado.
func (c ChainConfig) FinalLevel() int {
	max := 0
	for _, l := range c.Levels {
		if l.Level > max {
			max = l.Level
		}
	}
	return max
}

// DecideUseCase procesa decisiones de aprobación sobre órdenes en
// pending_approval.
type DecideUseCase struct {
	txRunner  ports.TxRunner
	orderRepo repository.PurchaseOrderRepository
	appRepo   repository.ApprovalRepository
	veRepo    repository.ValidationErrorRepository
	chain     ChainConfig
}

// NewDecideUseCase construye el caso de uso con la cadena configurada.
func NewDecideUseCase(
	txRunner ports.TxRunner,
	orderRepo repository.PurchaseOrderRepository,
	appRepo repository.ApprovalRepository,
	veRepo repository.ValidationErrorRepository,
	chain ChainConfig,
) *DecideUseCase {
	return &DecideUseCase{
		txRunner:  txRunner,
		orderRepo: orderRepo,
		appRepo:   appRepo,
		veRepo:    veRepo,
		chain:     chain,
	}
}

// Decide registra una decisión en el nivel indicado. Reglas:
//   - el nivel debe ser max(niveles existentes)+1 (1 si no hay);
//   - cada nivel lo decide únicamente el rol configurado para ese nivel
//     (admin siempre puede): el límite del nivel es el límite de ese rol;
//   - si el monto excede el límite del nivel, el registro queda escalated
//     con referencia al siguiente aprobador, nunca aprobación silenciosa;
//   - approve dentro del límite transita la orden a approved;
//   - reject transita la orden a rejected y detiene la cadena;
//   - re-decidir un nivel ya decidido falla con invalid_status_transition.
//
// Cada decisión escribe un ApprovalRecord y una entrada de auditoría en la
// misma transacción que la transición de la orden.
func (uc *DecideUseCase) Decide(ctx context.Context, actor ports.Actor, orderID string, in dto.DecideApprovalRequest) (*dto.ApprovalResponse, error) {
	if vf := validation.Permission(actor.Role, validation.ActionDecideApproval); vf != nil {
		return nil, gate.Reject(ctx, uc.veRepo, actor.CompanyID, entity.AuditEntityApprovalRecord, orderID, vf)
	}
	if in.Decision != entity.ApprovalDecisionApprove && in.Decision != entity.ApprovalDecisionReject {
		vf := domain.NewValidationFailure(domain.KindMissingRequiredField, "decision",
			"la decisión debe ser approve o reject")
		return nil, gate.Reject(ctx, uc.veRepo, actor.CompanyID, entity.AuditEntityApprovalRecord, orderID, vf)
	}
	if len(uc.chain.Levels) == 0 {
		vf := domain.NewValidationFailure(domain.KindApprovalRequired, "chain",
			"no hay cadena de aprobación configurada")
		return nil, gate.Reject(ctx, uc.veRepo, actor.CompanyID, entity.AuditEntityApprovalRecord, orderID, vf)
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
	if ord.Status != order.StatusPendingApproval {
		vf := domain.NewValidationFailure(domain.KindInvalidStatusTransition, "status",
			"la orden no está pendiente de aprobación").
			WithContext("status", ord.Status)
		return nil, gate.Reject(ctx, uc.veRepo, actor.CompanyID, entity.AuditEntityApprovalRecord, orderID, vf)
	}
	// El monto evaluado debe coincidir con el total vigente de la orden.
	if !in.Amount.Equal(ord.Total) {
		vf := domain.NewValidationFailure(domain.KindPriceMismatch, "amount",
			"el monto evaluado no coincide con el total de la orden").
			WithContext("amount", in.Amount.String()).
			WithContext("total", ord.Total.String())
		return nil, gate.Reject(ctx, uc.veRepo, actor.CompanyID, entity.AuditEntityApprovalRecord, orderID, vf)
	}

	maxLevel, err := uc.appRepo.MaxLevel(ctx, orderID)
	if err != nil {
		return nil, err
	}
	currentLevel := maxLevel + 1
	if in.Level != currentLevel {
		// Cubre también re-decidir un nivel ya decidido.
		vf := domain.NewValidationFailure(domain.KindInvalidStatusTransition, "level",
			"el nivel no corresponde al siguiente de la cadena").
			WithContext("expected", currentLevel).
			WithContext("got", in.Level)
		return nil, gate.Reject(ctx, uc.veRepo, actor.CompanyID, entity.AuditEntityApprovalRecord, orderID, vf)
	}
	chainLevel, ok := uc.chain.LevelFor(in.Level)
	if !ok {
		vf := domain.NewValidationFailure(domain.KindApprovalRequired, "level",
			"el nivel no está configurado en la cadena").
			WithContext("level", in.Level)
		return nil, gate.Reject(ctx, uc.veRepo, actor.CompanyID, entity.AuditEntityApprovalRecord, orderID, vf)
	}
	// El límite que se evalúa es el del rol dueño del nivel: un actor cuyo
	// nivel escaló no puede decidir él mismo el nivel siguiente.
	if actor.Role != entity.RoleAdmin && actor.Role != chainLevel.Role {
		vf := domain.NewValidationFailure(domain.KindPermissionDenied, "role",
			"el rol del actor no decide en este nivel de la cadena").
			WithContext("level", in.Level).
			WithContext("required_role", chainLevel.Role).
			WithContext("role", actor.Role)
		return nil, gate.Reject(ctx, uc.veRepo, actor.CompanyID, entity.AuditEntityApprovalRecord, orderID, vf)
	}

	now := time.Now()
	snapshot, _ := json.Marshal(uc.chain.Levels)
	record := &entity.ApprovalRecord{
		ID:            uuid.New().String(),
		OrderID:       orderID,
		Level:         in.Level,
		ApproverID:    actor.UserID,
		ApproverRole:  actor.Role,
		Amount:        in.Amount,
		LimitAmount:   chainLevel.Limit,
		ChainSnapshot: snapshot,
		Comment:       in.Comment,
		DecidedAt:     &now,
		CreatedAt:     now,
	}

	var targetStatus string
	switch {
	case in.Decision == entity.ApprovalDecisionReject:
		// Rechazo en cualquier nivel: la cadena se detiene, no se crean
		// niveles posteriores.
		record.Status = entity.ApprovalStatusRejected
		targetStatus = order.StatusRejected
	case in.Amount.GreaterThan(chainLevel.Limit):
		// Límite insuficiente: escalar al siguiente nivel, nunca aprobar
		// en silencio.
		next, ok := uc.chain.LevelFor(in.Level + 1)
		if !ok {
			vf := domain.NewValidationFailure(domain.KindApprovalRequired, "amount",
				"el monto excede el límite del último nivel configurado").
				WithContext("amount", in.Amount.String()).
				WithContext("limit", chainLevel.Limit.String())
			return nil, gate.Reject(ctx, uc.veRepo, actor.CompanyID, entity.AuditEntityApprovalRecord, orderID, vf)
		}
		record.Status = entity.ApprovalStatusEscalated
		record.NextApproverID = next.Role
	default:
		record.Status = entity.ApprovalStatusApproved
		targetStatus = order.StatusApproved
	}

	err = uc.txRunner.Run(ctx, func(r ports.TxRepos) error {
		if err := r.Approvals.Create(ctx, record); err != nil {
			return err
		}
		if err := audit.Append(ctx, r.Audit, audit.Entry{
			CompanyID:  actor.CompanyID,
			EntityType: entity.AuditEntityApprovalRecord,
			EntityID:   record.ID,
			Action:     "decide",
			NewValue: map[string]any{
				"level":  record.Level,
				"status": record.Status,
				"amount": record.Amount.String(),
				"limit":  record.LimitAmount.String(),
			},
			Actor:  actor.UserID,
			Reason: in.Comment,
			Metadata: map[string]any{
				"order_id": orderID,
			},
		}, now); err != nil {
			return err
		}
		if targetStatus != "" {
			return orders.ApplyTransition(ctx, r, ord, targetStatus, actor, "decisión de aprobación nivel "+itoa(record.Level), now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toApprovalResponse(record), nil
}

// ListByOrder devuelve la cadena de aprobaciones de una orden, ordenada por
// nivel.
func (uc *DecideUseCase) ListByOrder(ctx context.Context, companyID, orderID string) ([]dto.ApprovalResponse, error) {
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
	records, err := uc.appRepo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ApprovalResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, *toApprovalResponse(rec))
	}
	return out, nil
}

func toApprovalResponse(rec *entity.ApprovalRecord) *dto.ApprovalResponse {
	return &dto.ApprovalResponse{
		ID:             rec.ID,
		OrderID:        rec.OrderID,
		Level:          rec.Level,
		Status:         rec.Status,
		ApproverID:     rec.ApproverID,
		ApproverRole:   rec.ApproverRole,
		Amount:         rec.Amount,
		LimitAmount:    rec.LimitAmount,
		NextApproverID: rec.NextApproverID,
		Comment:        rec.Comment,
		DecidedAt:      rec.DecidedAt,
		CreatedAt:      rec.CreatedAt,
	}
}

func itoa(n int) string {
	return decimal.NewFromInt(int64(n)).String()
}
