package stock_test

import (
	"context"
	"sync"
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

const (
	testCompany = "co-1"
	testProduct = "prod-1"
)

func bodeguero() ports.Actor {
	return ports.Actor{UserID: "u-bodega", CompanyID: testCompany, Role: entity.RoleBodeguero}
}

// memCache implementación mínima de SummaryCache que cuenta operaciones.
type memCache struct {
	mu      sync.Mutex
	data    map[string]*dto.StockSummaryResponse
	adds    int
	removes int
}

func newMemCache() *memCache {
	return &memCache{data: map[string]*dto.StockSummaryResponse{}}
}

func (c *memCache) Get(productID string) (*dto.StockSummaryResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[productID]
	return v, ok
}

func (c *memCache) Add(productID string, summary *dto.StockSummaryResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[productID] = summary
	c.adds++
}

func (c *memCache) Remove(productID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, productID)
	c.removes++
}

func setupLedger(t *testing.T, allowNegative bool) (*stock.LedgerUseCase, *apptest.World, *memCache) {
	t.Helper()
	w := apptest.NewWorld()
	w.Products.Seed(&entity.Product{
		ID: testProduct, CompanyID: testCompany, SKU: "SKU-1", Name: "Tornillo 3/8", Active: true,
	})
	c := newMemCache()
	uc := stock.NewLedgerUseCase(w.Tx, w.Stock, w.Movements, w.Products, w.Errors, c, allowNegative)
	return uc, w, c
}

func record(uc *stock.LedgerUseCase, movType string, qty int64) (*dto.MovementResponse, error) {
	return uc.Record(context.Background(), bodeguero(), dto.RecordMovementRequest{
		ProductID: testProduct,
		Type:      movType,
		Quantity:  decimal.NewFromInt(qty),
		UnitCost:  decimal.NewFromInt(50),
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Registro de movimientos
// ──────────────────────────────────────────────────────────────────────────────

// El primer movimiento de un producto crea el contador desde cero y la
// entrada del ledger lleva el snapshot antes/después coherente.
func TestRecord_PrimerMovimientoCreaElContador(t *testing.T) {
	uc, w, _ := setupLedger(t, false)

	resp, err := record(uc, entity.MovementTypeReceipt, 10)
	require.NoError(t, err)
	assert.True(t, resp.QuantityBefore.Equal(decimal.Zero))
	assert.True(t, resp.QuantityChanged.Equal(decimal.NewFromInt(10)))
	assert.True(t, resp.QuantityAfter.Equal(decimal.NewFromInt(10)))
	assert.True(t, resp.TotalValue.Equal(decimal.NewFromInt(500)), "valor = costo × |delta|")

	st, err := w.Stock.Get(context.Background(), testProduct)
	require.NoError(t, err)
	assert.True(t, st.Quantity.Equal(decimal.NewFromInt(10)))

	// La mutación y su entrada de auditoría hacen commit juntas.
	trail, err := w.Audit.ListByEntity(context.Background(), entity.AuditEntityStockMovement, resp.ID)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, "record", trail[0].Action)
}

// Reproducir los movimientos en orden reproduce exactamente el contador.
func TestRecord_ElLedgerReproduceElContador(t *testing.T) {
	uc, w, _ := setupLedger(t, false)

	deltas := []int64{10, 25, -8, 3, -12}
	for _, d := range deltas {
		tipo := entity.MovementTypeReceipt
		if d < 0 {
			tipo = entity.MovementTypeSale
		}
		_, err := record(uc, tipo, d)
		require.NoError(t, err)
	}

	movs, err := w.Movements.ListByProduct(context.Background(), testProduct, nil, nil, 100, 0)
	require.NoError(t, err)
	require.Len(t, movs, len(deltas))

	replayed := decimal.Zero
	for _, m := range movs {
		assert.True(t, m.QuantityAfter.Equal(m.QuantityBefore.Add(m.QuantityChanged)),
			"invariante after = before + changed")
		replayed = replayed.Add(m.QuantityChanged)
	}
	st, _ := w.Stock.Get(context.Background(), testProduct)
	assert.True(t, st.Quantity.Equal(replayed), "contador %s vs replay %s", st.Quantity, replayed)
}

func TestRecord_DeltaCero(t *testing.T) {
	uc, _, _ := setupLedger(t, false)

	_, err := record(uc, entity.MovementTypeAdjustment, 0)
	vf, ok := domain.AsValidationFailure(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindInvalidQuantity, vf.Kind)
}

func TestRecord_TipoDesconocido(t *testing.T) {
	uc, _, _ := setupLedger(t, false)

	_, err := record(uc, "teleport", 5)
	vf, ok := domain.AsValidationFailure(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindInvalidQuantity, vf.Kind)
	assert.Equal(t, "movement_type", vf.Field)
}

func TestRecord_ProductoInactivo(t *testing.T) {
	uc, w, _ := setupLedger(t, false)
	w.Products.Seed(&entity.Product{
		ID: "prod-inactivo", CompanyID: testCompany, SKU: "SKU-2", Name: "Obsoleto", Active: false,
	})

	_, err := uc.Record(context.Background(), bodeguero(), dto.RecordMovementRequest{
		ProductID: "prod-inactivo",
		Type:      entity.MovementTypeReceipt,
		Quantity:  decimal.NewFromInt(5),
	})
	vf, ok := domain.AsValidationFailure(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindProductInactive, vf.Kind)
}

// ──────────────────────────────────────────────────────────────────────────────
// Suficiencia y negativos
// ──────────────────────────────────────────────────────────────────────────────

func TestRecord_SalidaMayorAlStock(t *testing.T) {
	uc, w, _ := setupLedger(t, false)
	w.Stock.Seed(&entity.Stock{ProductID: testProduct, CompanyID: testCompany, Quantity: decimal.NewFromInt(5)})

	_, err := record(uc, entity.MovementTypeSale, -10)
	vf, ok := domain.AsValidationFailure(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindInsufficientStock, vf.Kind)

	st, _ := w.Stock.Get(context.Background(), testProduct)
	assert.True(t, st.Quantity.Equal(decimal.NewFromInt(5)), "el rechazo no deja escrituras parciales")
}

func TestRecord_AjusteNegativoConfigurado(t *testing.T) {
	uc, w, _ := setupLedger(t, true)
	w.Stock.Seed(&entity.Stock{ProductID: testProduct, CompanyID: testCompany, Quantity: decimal.NewFromInt(5)})

	resp, err := record(uc, entity.MovementTypeAdjustment, -10)
	require.NoError(t, err, "adjustment puede ir a negativo con la configuración activada")
	assert.True(t, resp.QuantityAfter.Equal(decimal.NewFromInt(-5)))

	// Una venta sigue sin poder dejar el contador en negativo.
	_, err = record(uc, entity.MovementTypeSale, -10)
	vf, ok := domain.AsValidationFailure(err)
	require.True(t, ok)
	assert.Equal(t, domain.KindInsufficientStock, vf.Kind)
}

// Dos salidas concurrentes sobre el mismo producto se serializan: con stock
// 15 y dos ventas de 10, exactamente una pasa y la otra recibe
// insufficient_stock. Nunca doble descuento.
func TestRecord_SalidasConcurrentesSeSerializan(t *testing.T) {
	uc, w, _ := setupLedger(t, false)
	w.Stock.Seed(&entity.Stock{ProductID: testProduct, CompanyID: testCompany, Quantity: decimal.NewFromInt(15)})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = record(uc, entity.MovementTypeSale, -10)
		}(i)
	}
	wg.Wait()

	var oks, insufficient int
	for _, err := range errs {
		if err == nil {
			oks++
			continue
		}
		vf, ok := domain.AsValidationFailure(err)
		require.True(t, ok, "error inesperado: %v", err)
		assert.Equal(t, domain.KindInsufficientStock, vf.Kind)
		insufficient++
	}
	assert.Equal(t, 1, oks, "exactamente una salida debe aplicarse")
	assert.Equal(t, 1, insufficient)

	st, _ := w.Stock.Get(context.Background(), testProduct)
	assert.True(t, st.Quantity.Equal(decimal.NewFromInt(5)), "stock final: %s", st.Quantity)
}

// ──────────────────────────────────────────────────────────────────────────────
// Resumen y caché
// ──────────────────────────────────────────────────────────────────────────────

func TestSummary_CacheaYSeInvalidaAlEscribir(t *testing.T) {
	uc, _, c := setupLedger(t, false)

	_, err := record(uc, entity.MovementTypeReceipt, 10)
	require.NoError(t, err)

	resp, err := uc.Summary(context.Background(), testCompany, testProduct)
	require.NoError(t, err)
	assert.True(t, resp.CurrentStock.Equal(decimal.NewFromInt(10)))
	assert.True(t, resp.TotalIn.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, 1, c.adds, "el primer resumen se guarda en caché")

	// Segunda lectura: sale del caché, no se vuelve a agregar.
	_, err = uc.Summary(context.Background(), testCompany, testProduct)
	require.NoError(t, err)
	assert.Equal(t, 1, c.adds)

	// Toda escritura invalida la entrada del producto.
	removesAntes := c.removes
	_, err = record(uc, entity.MovementTypeSale, -4)
	require.NoError(t, err)
	assert.Greater(t, c.removes, removesAntes)

	resp, err = uc.Summary(context.Background(), testCompany, testProduct)
	require.NoError(t, err)
	assert.True(t, resp.CurrentStock.Equal(decimal.NewFromInt(6)),
		"tras invalidar, el resumen refleja la escritura")
	assert.True(t, resp.TotalOut.Equal(decimal.NewFromInt(4)))
	assert.True(t, resp.NetChange.Equal(decimal.NewFromInt(6)))
}

// Si el contador diverge de lo que reproduce el ledger hay corrupción: el
// resumen no se entrega, se exige reconciliación.
func TestSummary_DivergenciaExigeReconciliacion(t *testing.T) {
	uc, w, _ := setupLedger(t, false)
	// contador tocado por fuera del ledger: sin movimientos que lo respalden
	w.Stock.Seed(&entity.Stock{ProductID: testProduct, CompanyID: testCompany, Quantity: decimal.NewFromInt(7)})

	_, err := uc.Summary(context.Background(), testCompany, testProduct)
	assert.ErrorIs(t, err, domain.ErrReconciliationRequired)
}

func TestSummary_ProductoDeOtraEmpresa(t *testing.T) {
	uc, _, _ := setupLedger(t, false)

	_, err := uc.Summary(context.Background(), "co-otra", testProduct)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestHistory_RangoYContinuacion(t *testing.T) {
	uc, _, _ := setupLedger(t, false)
	for i := 0; i < 5; i++ {
		_, err := record(uc, entity.MovementTypeReceipt, 1)
		require.NoError(t, err)
	}

	page, err := uc.History(context.Background(), testCompany, testProduct, dto.StockHistoryQuery{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page, 2)

	rest, err := uc.History(context.Background(), testCompany, testProduct, dto.StockHistoryQuery{Limit: 10, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, rest, 3, "el offset reanuda donde quedó la página anterior")
}
