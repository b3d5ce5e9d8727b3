package receiving_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Compras-api/internal/application/apptest"
	"github.com/jhoicas/Compras-api/internal/application/dto"
	"github.com/jhoicas/Compras-api/internal/application/ports"
	"github.com/jhoicas/Compras-api/internal/application/receiving"
	"github.com/jhoicas/Compras-api/internal/domain"
	"github.com/jhoicas/Compras-api/internal/domain/entity"
	"github.com/jhoicas/Compras-api/internal/domain/order"
)

const (
	testCompany = "co-1"
	testOrderID = "ord-1"
	testItemID  = "item-1"
	testProduct = "prod-1"
)

func bodeguero() ports.Actor {
	return ports.Actor{UserID: "u-bodega", CompanyID: testCompany, Role: entity.RoleBodeguero}
}

// setup crea una orden sent_to_supplier con una línea de 100 unidades.
func setup(t *testing.T, allowOver bool) (*receiving.SubmitReceivingUseCase, *apptest.World) {
	t.Helper()
	w := apptest.NewWorld()
	require.NoError(t, w.Orders.Create(context.Background(), &entity.PurchaseOrder{
		ID:                 testOrderID,
		CompanyID:          testCompany,
		OrderNumber:        "PO-TEST-1",
		SupplierID:         "sup-1",
		Status:             order.StatusSentToSupplier,
		Total:              decimal.NewFromInt(5_000),
		AllowOverReceiving: allowOver,
		Version:            4,
	}, nil))
	w.OrderItems.Seed(&entity.PurchaseOrderItem{
		ID:        testItemID,
		OrderID:   testOrderID,
		ProductID: testProduct,
		Quantity:  decimal.NewFromInt(100),
		UnitCost:  decimal.NewFromInt(50),
	})
	uc := receiving.NewSubmitReceivingUseCase(w.Tx, w.Orders, w.Receivings, w.Errors)
	return uc, w
}

func submit(uc *receiving.SubmitReceivingUseCase, number string, qty int64) (*dto.ReceivingResponse, error) {
	return uc.Submit(context.Background(), bodeguero(), testOrderID, dto.SubmitReceivingRequest{
		ReceivingNumber: number,
		Items: []dto.ReceivingItemRequest{
			{ProductID: testProduct, Quantity: decimal.NewFromInt(qty)},
		},
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Reconciliación entrega → estado de la orden
// ──────────────────────────────────────────────────────────────────────────────

// Recibir 60 de 100 deja la orden partially_received; recibir los 40
// restantes la deja received. El stock acumula exactamente lo entregado.
func TestSubmit_ParcialLuegoCompleta(t *testing.T) {
	uc, w := setup(t, false)

	resp, err := submit(uc, "REC-001", 60)
	require.NoError(t, err)
	assert.Equal(t, entity.ReceivingPartial, resp.Classification)
	assert.Equal(t, order.StatusPartiallyReceived, resp.OrderStatus)
	assert.Equal(t, 1, resp.AcceptedItems)
	assert.Empty(t, resp.RejectedItems)

	st, err := w.Stock.Get(context.Background(), testProduct)
	require.NoError(t, err)
	assert.True(t, st.Quantity.Equal(decimal.NewFromInt(60)), "stock tras la primera entrega: %s", st.Quantity)

	resp, err = submit(uc, "REC-002", 40)
	require.NoError(t, err)
	assert.Equal(t, entity.ReceivingFull, resp.Classification)
	assert.Equal(t, order.StatusReceived, resp.OrderStatus)

	st, _ = w.Stock.Get(context.Background(), testProduct)
	assert.True(t, st.Quantity.Equal(decimal.NewFromInt(100)))

	ord, _ := w.Orders.GetByID(context.Background(), testOrderID)
	assert.Equal(t, order.StatusReceived, ord.Status)
	assert.Equal(t, 6, ord.Version, "dos transiciones desde la versión 4")

	items, _ := w.OrderItems.ListByOrder(context.Background(), testOrderID)
	require.Len(t, items, 1)
	assert.True(t, items[0].QuantityReceived.Equal(decimal.NewFromInt(100)))
}

// Una segunda entrega parcial no repite la transición: la orden sigue
// partially_received sin tocar la versión de más.
func TestSubmit_ParcialRepetidaNoCambiaEstado(t *testing.T) {
	uc, w := setup(t, false)

	_, err := submit(uc, "REC-001", 10)
	require.NoError(t, err)
	ord, _ := w.Orders.GetByID(context.Background(), testOrderID)
	versionTrasPrimera := ord.Version

	_, err = submit(uc, "REC-002", 10)
	require.NoError(t, err)
	ord, _ = w.Orders.GetByID(context.Background(), testOrderID)
	assert.Equal(t, order.StatusPartiallyReceived, ord.Status)
	assert.Equal(t, versionTrasPrimera, ord.Version,
		"partially_received → partially_received es un no-op de estado")
}

// ──────────────────────────────────────────────────────────────────────────────
// Idempotencia y sobre-recepción
// ──────────────────────────────────────────────────────────────────────────────

// El mismo número de recepción reenviado se rechaza: nunca doble aplicación.
func TestSubmit_NumeroDuplicado(t *testing.T) {
	uc, w := setup(t, false)

	_, err := submit(uc, "REC-001", 60)
	require.NoError(t, err)

	_, err = submit(uc, "REC-001", 60)
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	st, _ := w.Stock.Get(context.Background(), testProduct)
	assert.True(t, st.Quantity.Equal(decimal.NewFromInt(60)), "el stock no debe aplicarse dos veces")
}

func TestSubmit_SobreRecepcionProhibida(t *testing.T) {
	uc, w := setup(t, false)

	resp, err := submit(uc, "REC-001", 120)
	require.NoError(t, err, "la línea rechazada no aborta el envío")
	assert.Equal(t, 0, resp.AcceptedItems)
	require.Len(t, resp.RejectedItems, 1)
	assert.Equal(t, string(domain.KindOverReceiving), resp.RejectedItems[0].Code)
	assert.Empty(t, resp.ID, "sin líneas aplicables no se crea la recepción")

	ord, _ := w.Orders.GetByID(context.Background(), testOrderID)
	assert.Equal(t, order.StatusSentToSupplier, ord.Status, "la orden no cambia")
	st, _ := w.Stock.Get(context.Background(), testProduct)
	assert.Nil(t, st, "el stock no se toca")
}

func TestSubmit_SobreRecepcionPermitidaPorLaOrden(t *testing.T) {
	uc, w := setup(t, true)

	resp, err := submit(uc, "REC-001", 120)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.AcceptedItems)
	assert.Equal(t, entity.ReceivingOver, resp.Classification)
	assert.Equal(t, order.StatusReceived, resp.OrderStatus,
		"con 120 de 100 no queda cantidad pendiente")

	st, _ := w.Stock.Get(context.Background(), testProduct)
	assert.True(t, st.Quantity.Equal(decimal.NewFromInt(120)))
}

// ──────────────────────────────────────────────────────────────────────────────
// Rechazos por línea y por envío
// ──────────────────────────────────────────────────────────────────────────────

func TestSubmit_LineaConProductoAjeno(t *testing.T) {
	uc, _ := setup(t, false)

	resp, err := uc.Submit(context.Background(), bodeguero(), testOrderID, dto.SubmitReceivingRequest{
		ReceivingNumber: "REC-001",
		Items: []dto.ReceivingItemRequest{
			{ProductID: testProduct, Quantity: decimal.NewFromInt(10)},
			{ProductID: "prod-ajeno", Quantity: decimal.NewFromInt(5)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.AcceptedItems, "la línea buena se aplica")
	require.Len(t, resp.RejectedItems, 1)
	assert.Equal(t, "prod-ajeno", resp.RejectedItems[0].ProductID)
}

func TestSubmit_CantidadNoPositiva(t *testing.T) {
	uc, _ := setup(t, false)

	resp, err := uc.Submit(context.Background(), bodeguero(), testOrderID, dto.SubmitReceivingRequest{
		ReceivingNumber: "REC-001",
		Items: []dto.ReceivingItemRequest{
			{ProductID: testProduct, Quantity: decimal.Zero},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.AcceptedItems)
	require.Len(t, resp.RejectedItems, 1)
	assert.Equal(t, string(domain.KindInvalidQuantity), resp.RejectedItems[0].Code)
}

func TestSubmit_OrdenEnEstadoNoRecibible(t *testing.T) {
	w := apptest.NewWorld()
	require.NoError(t, w.Orders.Create(context.Background(), &entity.PurchaseOrder{
		ID: testOrderID, CompanyID: testCompany, OrderNumber: "PO-1",
		Status: order.StatusDraft, Version: 1,
	}, nil))
	uc := receiving.NewSubmitReceivingUseCase(w.Tx, w.Orders, w.Receivings, w.Errors)

	_, err := submit(uc, "REC-001", 10)
	vf, ok := domain.AsValidationFailure(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindInvalidStatusTransition, vf.Kind)
}

func TestSubmit_RolSinPermiso(t *testing.T) {
	uc, _ := setup(t, false)

	_, err := uc.Submit(context.Background(), ports.Actor{
		UserID: "u-1", CompanyID: testCompany, Role: entity.RoleComprador,
	}, testOrderID, dto.SubmitReceivingRequest{ReceivingNumber: "REC-001"})
	vf, ok := domain.AsValidationFailure(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindPermissionDenied, vf.Kind)
}

// ──────────────────────────────────────────────────────────────────────────────
// Aprobación de la recepción
// ──────────────────────────────────────────────────────────────────────────────

func TestApprove_RecepcionPendiente(t *testing.T) {
	uc, w := setup(t, false)

	resp, err := submit(uc, "REC-001", 60)
	require.NoError(t, err)

	aprobadorActor := ports.Actor{UserID: "u-aprobador", CompanyID: testCompany, Role: entity.RoleAprobador}
	require.NoError(t, uc.Approve(context.Background(), aprobadorActor, resp.ID))

	rec, _ := w.Receivings.GetByID(context.Background(), resp.ID)
	assert.Equal(t, entity.ReceivingStatusApproved, rec.Status)
	assert.Equal(t, "u-aprobador", rec.ApprovedBy)
	require.NotNil(t, rec.ApprovedAt)

	// Una recepción approved es inmutable: re-aprobarla se rechaza.
	err = uc.Approve(context.Background(), aprobadorActor, resp.ID)
	vf, ok := domain.AsValidationFailure(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindInvalidStatusTransition, vf.Kind)
}

// Una inspección fallida anula la recepción pendiente y deja el motivo en
// la auditoría. El stock aplicado no se revierte aquí: la corrección va por
// movimientos compensatorios.
func TestCancel_RecepcionPendiente(t *testing.T) {
	uc, w := setup(t, false)

	resp, err := submit(uc, "REC-001", 60)
	require.NoError(t, err)

	gerenteActor := ports.Actor{UserID: "u-gerente", CompanyID: testCompany, Role: entity.RoleGerente}
	require.NoError(t, uc.Cancel(context.Background(), gerenteActor, resp.ID, "mercancía dañada en tránsito"))

	rec, _ := w.Receivings.GetByID(context.Background(), resp.ID)
	assert.Equal(t, entity.ReceivingStatusCancelled, rec.Status)

	trail, err := w.Audit.ListByEntity(context.Background(), entity.AuditEntityReceivingRecord, resp.ID)
	require.NoError(t, err)
	require.NotEmpty(t, trail)
	last := trail[len(trail)-1]
	assert.Equal(t, "cancel", last.Action)
	assert.Equal(t, "mercancía dañada en tránsito", last.Reason)

	st, _ := w.Stock.Get(context.Background(), testProduct)
	assert.True(t, st.Quantity.Equal(decimal.NewFromInt(60)),
		"anular el registro no toca el contador")

	// cancelled es terminal: ni aprobar ni re-anular.
	err = uc.Approve(context.Background(), gerenteActor, resp.ID)
	vf, ok := domain.AsValidationFailure(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindInvalidStatusTransition, vf.Kind)
}

func TestCancel_RecepcionYaAprobada(t *testing.T) {
	uc, _ := setup(t, false)

	resp, err := submit(uc, "REC-001", 60)
	require.NoError(t, err)

	aprobadorActor := ports.Actor{UserID: "u-aprobador", CompanyID: testCompany, Role: entity.RoleAprobador}
	require.NoError(t, uc.Approve(context.Background(), aprobadorActor, resp.ID))

	err = uc.Cancel(context.Background(), aprobadorActor, resp.ID, "")
	vf, ok := domain.AsValidationFailure(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindInvalidStatusTransition, vf.Kind)
}

func TestCancel_RolSinPermiso(t *testing.T) {
	uc, _ := setup(t, false)

	resp, err := submit(uc, "REC-001", 60)
	require.NoError(t, err)

	err = uc.Cancel(context.Background(), bodeguero(), resp.ID, "")
	vf, ok := domain.AsValidationFailure(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindPermissionDenied, vf.Kind)
}
