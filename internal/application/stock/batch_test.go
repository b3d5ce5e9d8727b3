package stock_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Compras-api/internal/application/apptest"
	"github.com/jhoicas/Compras-api/internal/application/dto"
	"github.com/jhoicas/Compras-api/internal/application/ports"
	"github.com/jhoicas/Compras-api/internal/application/stock"
	"github.com/jhoicas/Compras-api/internal/domain"
	"github.com/jhoicas/Compras-api/internal/domain/entity"
)

func setupBatch(t *testing.T, chunkSize, workers int) (*stock.BatchProcessor, *apptest.World) {
	t.Helper()
	w := apptest.NewWorld()
	w.Products.Seed(&entity.Product{
		ID: testProduct, CompanyID: testCompany, SKU: "SKU-1", Name: "Tornillo 3/8", Active: true,
	})
	ledger := stock.NewLedgerUseCase(w.Tx, w.Stock, w.Movements, w.Products, w.Errors, newMemCache(), false)
	return stock.NewBatchProcessor(ledger, chunkSize, workers), w
}

func receiptUpdate(qty int64) dto.StockUpdateRequest {
	return dto.StockUpdateRequest{
		ProductID: testProduct,
		Type:      entity.MovementTypeReceipt,
		Quantity:  decimal.NewFromInt(qty),
		UnitCost:  decimal.NewFromInt(10),
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Aislamiento por ítem
// ──────────────────────────────────────────────────────────────────────────────

// 150 actualizaciones con una inválida: las otras 149 se aplican y el fallo
// se reporta con su índice y código, sin abortar a los hermanos.
func TestApply_UnItemInvalidoNoAbortaElBatch(t *testing.T) {
	bp, w := setupBatch(t, 50, 4)

	updates := make([]dto.StockUpdateRequest, 150)
	for i := range updates {
		updates[i] = receiptUpdate(1)
	}
	updates[7].Quantity = decimal.Zero // delta cero: inválido

	resp, err := bp.Apply(context.Background(), bodeguero(), dto.BatchApplyRequest{Updates: updates})
	require.NoError(t, err)
	assert.Equal(t, 149, resp.Processed)
	require.Len(t, resp.Failed, 1)
	assert.Equal(t, 7, resp.Failed[0].Index)
	assert.Equal(t, testProduct, resp.Failed[0].ProductID)
	assert.Equal(t, string(domain.KindInvalidQuantity), resp.Failed[0].Code)

	st, _ := w.Stock.Get(context.Background(), testProduct)
	assert.True(t, st.Quantity.Equal(decimal.NewFromInt(149)), "stock final: %s", st.Quantity)
}

// Los fallos se reportan ordenados por índice aunque los workers terminen
// en cualquier orden.
func TestApply_FallidosOrdenadosPorIndice(t *testing.T) {
	bp, _ := setupBatch(t, 10, 4)

	updates := make([]dto.StockUpdateRequest, 30)
	for i := range updates {
		updates[i] = receiptUpdate(1)
	}
	for _, idx := range []int{25, 3, 17} {
		updates[idx].Quantity = decimal.Zero
	}

	resp, err := bp.Apply(context.Background(), bodeguero(), dto.BatchApplyRequest{Updates: updates})
	require.NoError(t, err)
	assert.Equal(t, 27, resp.Processed)
	require.Len(t, resp.Failed, 3)
	assert.Equal(t, []int{3, 17, 25}, []int{resp.Failed[0].Index, resp.Failed[1].Index, resp.Failed[2].Index})
}

// Producto inexistente se reporta como not_found, no como error interno.
func TestApply_ProductoInexistente(t *testing.T) {
	bp, _ := setupBatch(t, 50, 4)

	updates := []dto.StockUpdateRequest{
		receiptUpdate(1),
		{ProductID: "prod-404", Type: entity.MovementTypeReceipt, Quantity: decimal.NewFromInt(1)},
	}
	resp, err := bp.Apply(context.Background(), bodeguero(), dto.BatchApplyRequest{Updates: updates})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Processed)
	require.Len(t, resp.Failed, 1)
	// ProductActive trata inexistente e inactivo igual
	assert.Equal(t, string(domain.KindProductInactive), resp.Failed[0].Code)
}

// ──────────────────────────────────────────────────────────────────────────────
// Cancelación y validación del envío
// ──────────────────────────────────────────────────────────────────────────────

// Un contexto ya cancelado detiene los chunks no iniciados; lo procesado se
// conserva y se reporta.
func TestApply_ContextoCancelado(t *testing.T) {
	bp, _ := setupBatch(t, 10, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	updates := make([]dto.StockUpdateRequest, 40)
	for i := range updates {
		updates[i] = receiptUpdate(1)
	}
	resp, err := bp.Apply(ctx, bodeguero(), dto.BatchApplyRequest{Updates: updates})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Processed, "con el contexto cancelado no arranca ningún chunk")
	assert.Empty(t, resp.Failed)
}

func TestApply_BatchVacio(t *testing.T) {
	bp, _ := setupBatch(t, 50, 4)

	_, err := bp.Apply(context.Background(), bodeguero(), dto.BatchApplyRequest{})
	vf, ok := domain.AsValidationFailure(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindMissingRequiredField, vf.Kind)
}

func TestApply_RolSinPermiso(t *testing.T) {
	bp, _ := setupBatch(t, 50, 4)

	_, err := bp.Apply(context.Background(), ports.Actor{
		UserID: "u-1", CompanyID: testCompany, Role: entity.RoleComprador,
	}, dto.BatchApplyRequest{Updates: []dto.StockUpdateRequest{receiptUpdate(1)}})
	vf, ok := domain.AsValidationFailure(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindPermissionDenied, vf.Kind)
}

// Varios productos en paralelo: cada contador termina con la suma de sus
// propios deltas.
func TestApply_VariosProductosEnParalelo(t *testing.T) {
	bp, w := setupBatch(t, 20, 4)

	var updates []dto.StockUpdateRequest
	for p := 0; p < 5; p++ {
		id := fmt.Sprintf("prod-%d", p)
		w.Products.Seed(&entity.Product{
			ID: id, CompanyID: testCompany, SKU: fmt.Sprintf("SKU-%d", p), Name: id, Active: true,
		})
		for i := 0; i < 10; i++ {
			updates = append(updates, dto.StockUpdateRequest{
				ProductID: id,
				Type:      entity.MovementTypeReceipt,
				Quantity:  decimal.NewFromInt(2),
			})
		}
	}

	resp, err := bp.Apply(context.Background(), bodeguero(), dto.BatchApplyRequest{Updates: updates})
	require.NoError(t, err)
	assert.Equal(t, 50, resp.Processed)
	assert.Empty(t, resp.Failed)

	for p := 0; p < 5; p++ {
		st, _ := w.Stock.Get(context.Background(), fmt.Sprintf("prod-%d", p))
		require.NotNil(t, st)
		assert.True(t, st.Quantity.Equal(decimal.NewFromInt(20)))
	}
}
