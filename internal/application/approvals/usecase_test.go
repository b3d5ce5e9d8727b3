package approvals_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Compras-api/internal/application/approvals"
	"github.com/jhoicas/Compras-api/internal/application/apptest"
	"github.com/jhoicas/Compras-api/internal/application/dto"
	"github.com/jhoicas/Compras-api/internal/application/ports"
	"github.com/jhoicas/Compras-api/internal/domain"
	"github.com/jhoicas/Compras-api/internal/domain/entity"
	"github.com/jhoicas/Compras-api/internal/domain/order"
)

const (
	testCompany = "co-1"
	testOrderID = "ord-1"
)

// cadena de dos niveles: aprobador hasta 10 000, gerente hasta 50 000
func testChain() approvals.ChainConfig {
	return approvals.ChainConfig{Levels: []approvals.ChainLevel{
		{Level: 1, Limit: decimal.NewFromInt(10_000), Role: entity.RoleAprobador},
		{Level: 2, Limit: decimal.NewFromInt(50_000), Role: entity.RoleGerente},
	}}
}

func setup(t *testing.T, total int64) (*approvals.DecideUseCase, *apptest.World) {
	t.Helper()
	w := apptest.NewWorld()
	require.NoError(t, w.Orders.Create(context.Background(), &entity.PurchaseOrder{
		ID:          testOrderID,
		CompanyID:   testCompany,
		OrderNumber: "PO-TEST-1",
		SupplierID:  "sup-1",
		Status:      order.StatusPendingApproval,
		Total:       decimal.NewFromInt(total),
		Version:     2,
	}, nil))
	uc := approvals.NewDecideUseCase(w.Tx, w.Orders, w.Approvals, w.Errors, testChain())
	return uc, w
}

func aprobador() ports.Actor {
	return ports.Actor{UserID: "u-aprobador", CompanyID: testCompany, Role: entity.RoleAprobador}
}

func gerente() ports.Actor {
	return ports.Actor{UserID: "u-gerente", CompanyID: testCompany, Role: entity.RoleGerente}
}

// ──────────────────────────────────────────────────────────────────────────────
// Decisiones dentro del límite
// ──────────────────────────────────────────────────────────────────────────────

func TestDecide_AprobarDentroDelLimite(t *testing.T) {
	uc, w := setup(t, 8_000)

	resp, err := uc.Decide(context.Background(), aprobador(), testOrderID, dto.DecideApprovalRequest{
		Level:    1,
		Decision: entity.ApprovalDecisionApprove,
		Amount:   decimal.NewFromInt(8_000),
	})
	require.NoError(t, err)
	assert.Equal(t, entity.ApprovalStatusApproved, resp.Status)
	assert.Equal(t, 1, resp.Level)
	assert.Empty(t, resp.NextApproverID)

	ord, err := w.Orders.GetByID(context.Background(), testOrderID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusApproved, ord.Status, "la orden debe transitar a approved")
	assert.Equal(t, 3, ord.Version, "la transición incrementa la versión")
}

func TestDecide_RechazoDetieneLaCadena(t *testing.T) {
	uc, w := setup(t, 8_000)

	resp, err := uc.Decide(context.Background(), aprobador(), testOrderID, dto.DecideApprovalRequest{
		Level:    1,
		Decision: entity.ApprovalDecisionReject,
		Amount:   decimal.NewFromInt(8_000),
		Comment:  "proveedor sin certificación vigente",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.ApprovalStatusRejected, resp.Status)

	ord, _ := w.Orders.GetByID(context.Background(), testOrderID)
	assert.Equal(t, order.StatusRejected, ord.Status)

	// Tras el rechazo la orden ya no está pending_approval: no se puede
	// seguir decidiendo niveles.
	_, err = uc.Decide(context.Background(), gerente(), testOrderID, dto.DecideApprovalRequest{
		Level:    2,
		Decision: entity.ApprovalDecisionApprove,
		Amount:   decimal.NewFromInt(8_000),
	})
	vf, ok := domain.AsValidationFailure(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindInvalidStatusTransition, vf.Kind)
}

// ──────────────────────────────────────────────────────────────────────────────
// Escalamiento
// ──────────────────────────────────────────────────────────────────────────────

// Monto 30 000 sobre límite 10 000: el nivel 1 queda escalated con el rol
// del siguiente nivel, la orden sigue pendiente, y el nivel 2 (límite
// 50 000) sí puede aprobar.
func TestDecide_EscalaYAprueba(t *testing.T) {
	uc, w := setup(t, 30_000)
	amount := decimal.NewFromInt(30_000)

	resp, err := uc.Decide(context.Background(), aprobador(), testOrderID, dto.DecideApprovalRequest{
		Level:    1,
		Decision: entity.ApprovalDecisionApprove,
		Amount:   amount,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.ApprovalStatusEscalated, resp.Status,
		"sobre el límite nunca se aprueba en silencio: se escala")
	assert.Equal(t, entity.RoleGerente, resp.NextApproverID)
	assert.True(t, resp.LimitAmount.Equal(decimal.NewFromInt(10_000)))

	ord, _ := w.Orders.GetByID(context.Background(), testOrderID)
	assert.Equal(t, order.StatusPendingApproval, ord.Status,
		"el escalamiento no cambia el estado de la orden")
	assert.Equal(t, 2, ord.Version)

	resp2, err := uc.Decide(context.Background(), gerente(), testOrderID, dto.DecideApprovalRequest{
		Level:    2,
		Decision: entity.ApprovalDecisionApprove,
		Amount:   amount,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.ApprovalStatusApproved, resp2.Status)

	ord, _ = w.Orders.GetByID(context.Background(), testOrderID)
	assert.Equal(t, order.StatusApproved, ord.Status)

	records, err := uc.ListByOrder(context.Background(), testCompany, testOrderID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 1, records[0].Level)
	assert.Equal(t, entity.ApprovalStatusEscalated, records[0].Status)
	assert.Equal(t, 2, records[1].Level)
	assert.Equal(t, entity.ApprovalStatusApproved, records[1].Status)
}

// El escalamiento cambia de manos: el nivel escalado solo lo decide el rol
// configurado para ese nivel. Quien escaló el nivel 1 no puede aprobarse a
// sí mismo el nivel 2.
func TestDecide_NivelEscaladoExigeElRolDelNivel(t *testing.T) {
	uc, w := setup(t, 30_000)
	amount := decimal.NewFromInt(30_000)

	resp, err := uc.Decide(context.Background(), aprobador(), testOrderID, dto.DecideApprovalRequest{
		Level: 1, Decision: entity.ApprovalDecisionApprove, Amount: amount,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.ApprovalStatusEscalated, resp.Status)

	// El mismo aprobador (límite 10 000) intenta decidir el nivel 2.
	_, err = uc.Decide(context.Background(), aprobador(), testOrderID, dto.DecideApprovalRequest{
		Level: 2, Decision: entity.ApprovalDecisionApprove, Amount: amount,
	})
	vf, ok := domain.AsValidationFailure(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindPermissionDenied, vf.Kind)
	assert.Equal(t, "role", vf.Field)

	ord, _ := w.Orders.GetByID(context.Background(), testOrderID)
	assert.Equal(t, order.StatusPendingApproval, ord.Status,
		"30 000 nunca quedan aprobados por un actor con límite 10 000")

	records, err := uc.ListByOrder(context.Background(), testCompany, testOrderID)
	require.NoError(t, err)
	require.Len(t, records, 1, "la decisión rechazada no crea registro")
}

// El rol debe coincidir también hacia abajo: el gerente no decide el nivel
// del aprobador.
func TestDecide_RolDeOtroNivel(t *testing.T) {
	uc, _ := setup(t, 8_000)

	_, err := uc.Decide(context.Background(), gerente(), testOrderID, dto.DecideApprovalRequest{
		Level: 1, Decision: entity.ApprovalDecisionApprove, Amount: decimal.NewFromInt(8_000),
	})
	vf, ok := domain.AsValidationFailure(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindPermissionDenied, vf.Kind)
}

// Monto que excede incluso el último nivel configurado: no hay a quién
// escalar, el rechazo es approval_required.
func TestDecide_MontoExcedeUltimoNivel(t *testing.T) {
	uc, _ := setup(t, 60_000)
	amount := decimal.NewFromInt(60_000)

	// Nivel 1 escala sin problema.
	resp, err := uc.Decide(context.Background(), aprobador(), testOrderID, dto.DecideApprovalRequest{
		Level: 1, Decision: entity.ApprovalDecisionApprove, Amount: amount,
	})
	require.NoError(t, err)
	assert.Equal(t, entity.ApprovalStatusEscalated, resp.Status)

	// Nivel 2 es el último y 60 000 > 50 000: no puede ni aprobar ni escalar.
	_, err = uc.Decide(context.Background(), gerente(), testOrderID, dto.DecideApprovalRequest{
		Level: 2, Decision: entity.ApprovalDecisionApprove, Amount: amount,
	})
	vf, ok := domain.AsValidationFailure(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindApprovalRequired, vf.Kind)
}

// ──────────────────────────────────────────────────────────────────────────────
// Rechazos de la puerta
// ──────────────────────────────────────────────────────────────────────────────

func TestDecide_NivelFueraDeSecuencia(t *testing.T) {
	uc, w := setup(t, 8_000)

	// El primer registro debe ser nivel 1; saltar al 2 se rechaza.
	_, err := uc.Decide(context.Background(), gerente(), testOrderID, dto.DecideApprovalRequest{
		Level: 2, Decision: entity.ApprovalDecisionApprove, Amount: decimal.NewFromInt(8_000),
	})
	vf, ok := domain.AsValidationFailure(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindInvalidStatusTransition, vf.Kind)
	assert.Equal(t, "level", vf.Field)
	assert.Positive(t, w.Errors.Count(), "el rechazo queda persistido")
}

func TestDecide_MontoNoCoincideConTotal(t *testing.T) {
	uc, _ := setup(t, 8_000)

	_, err := uc.Decide(context.Background(), aprobador(), testOrderID, dto.DecideApprovalRequest{
		Level: 1, Decision: entity.ApprovalDecisionApprove, Amount: decimal.NewFromInt(7_999),
	})
	vf, ok := domain.AsValidationFailure(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindPriceMismatch, vf.Kind)
}

func TestDecide_RolSinPermiso(t *testing.T) {
	uc, _ := setup(t, 8_000)

	_, err := uc.Decide(context.Background(), ports.Actor{
		UserID: "u-1", CompanyID: testCompany, Role: entity.RoleBodeguero,
	}, testOrderID, dto.DecideApprovalRequest{
		Level: 1, Decision: entity.ApprovalDecisionApprove, Amount: decimal.NewFromInt(8_000),
	})
	vf, ok := domain.AsValidationFailure(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindPermissionDenied, vf.Kind)
}

func TestDecide_DecisionDesconocida(t *testing.T) {
	uc, _ := setup(t, 8_000)

	_, err := uc.Decide(context.Background(), aprobador(), testOrderID, dto.DecideApprovalRequest{
		Level: 1, Decision: "maybe", Amount: decimal.NewFromInt(8_000),
	})
	vf, ok := domain.AsValidationFailure(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindMissingRequiredField, vf.Kind)
}

func TestDecide_OrdenInexistente(t *testing.T) {
	uc, _ := setup(t, 8_000)

	_, err := uc.Decide(context.Background(), aprobador(), "ord-404", dto.DecideApprovalRequest{
		Level: 1, Decision: entity.ApprovalDecisionApprove, Amount: decimal.NewFromInt(8_000),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDecide_OtraEmpresa(t *testing.T) {
	uc, _ := setup(t, 8_000)

	_, err := uc.Decide(context.Background(), ports.Actor{
		UserID: "u-1", CompanyID: "co-otra", Role: entity.RoleAprobador,
	}, testOrderID, dto.DecideApprovalRequest{
		Level: 1, Decision: entity.ApprovalDecisionApprove, Amount: decimal.NewFromInt(8_000),
	})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestDecide_CadenaVacia(t *testing.T) {
	w := apptest.NewWorld()
	uc := approvals.NewDecideUseCase(w.Tx, w.Orders, w.Approvals, w.Errors, approvals.ChainConfig{})

	_, err := uc.Decide(context.Background(), aprobador(), testOrderID, dto.DecideApprovalRequest{
		Level: 1, Decision: entity.ApprovalDecisionApprove, Amount: decimal.NewFromInt(8_000),
	})
	vf, ok := domain.AsValidationFailure(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindApprovalRequired, vf.Kind)
}
