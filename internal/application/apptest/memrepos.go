// Package apptest provee repositorios en memoria y un TxRunner falso para
// los tests de los casos de uso. Las transacciones se serializan con un
// mutex global, igual que lo haría el lock de fila en PostgreSQL.
package apptest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Compras-api/internal/application/ports"
	"github.com/jhoicas/Compras-api/internal/domain"
	"github.com/jhoicas/Compras-api/internal/domain/entity"
)

// World agrupa todos los repos en memoria más el TxRunner que los comparte.
type World struct {
	Orders     *MemOrders
	OrderItems *MemOrderItems
	Receivings *MemReceivings
	Approvals  *MemApprovals
	Stock      *MemStock
	Movements  *MemMovements
	Audit      *MemAudit
	History    *MemHistory
	Products   *MemProducts
	Suppliers  *MemSuppliers
	Errors     *MemValidationErrors
	Tx         *TxRunner
}

// NewWorld construye un mundo limpio para un test.
func NewWorld() *World {
	w := &World{
		Orders:     &MemOrders{byID: map[string]*entity.PurchaseOrder{}},
		OrderItems: &MemOrderItems{byID: map[string]*entity.PurchaseOrderItem{}},
		Receivings: &MemReceivings{byID: map[string]*entity.ReceivingRecord{}},
		Approvals:  &MemApprovals{},
		Stock:      &MemStock{byProduct: map[string]*entity.Stock{}},
		Movements:  &MemMovements{},
		Audit:      &MemAudit{},
		History:    &MemHistory{},
		Products:   &MemProducts{byID: map[string]*entity.Product{}},
		Suppliers:  &MemSuppliers{byID: map[string]*entity.Supplier{}},
		Errors:     &MemValidationErrors{},
	}
	w.Orders.items = w.OrderItems
	w.Tx = &TxRunner{repos: ports.TxRepos{
		Orders:     w.Orders,
		OrderItems: w.OrderItems,
		Receivings: w.Receivings,
		Approvals:  w.Approvals,
		Stock:      w.Stock,
		Movements:  w.Movements,
		Audit:      w.Audit,
		History:    w.History,
		Products:   w.Products,
		Suppliers:  w.Suppliers,
	}}
	return w
}

// TxRunner serializa las "transacciones" con un mutex: dos escrituras
// concurrentes sobre el mismo mundo nunca se intercalan, que es la garantía
// que da el SELECT FOR UPDATE real.
type TxRunner struct {
	mu    sync.Mutex
	repos ports.TxRepos
	// FailWith fuerza el fallo de la próxima transacción (para probar rollback).
	FailWith error
}

func (t *TxRunner) Run(_ context.Context, fn func(r ports.TxRepos) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.FailWith != nil {
		err := t.FailWith
		t.FailWith = nil
		return err
	}
	return fn(t.repos)
}

var _ ports.TxRunner = (*TxRunner)(nil)

// ── órdenes ──────────────────────────────────────────────────────────────────

type MemOrders struct {
	mu    sync.Mutex
	byID  map[string]*entity.PurchaseOrder
	items *MemOrderItems // las líneas se guardan junto con la orden
}

func (m *MemOrders) Create(_ context.Context, order *entity.PurchaseOrder, items []*entity.PurchaseOrderItem) error {
	m.mu.Lock()
	for _, o := range m.byID {
		if o.CompanyID == order.CompanyID && o.OrderNumber == order.OrderNumber {
			m.mu.Unlock()
			return domain.ErrDuplicate
		}
	}
	cp := *order
	m.byID[order.ID] = &cp
	m.mu.Unlock()
	if m.items != nil {
		m.items.Seed(items...)
	}
	return nil
}

func (m *MemOrders) GetByID(_ context.Context, id string) (*entity.PurchaseOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (m *MemOrders) GetByNumber(_ context.Context, companyID, orderNumber string) (*entity.PurchaseOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.byID {
		if o.CompanyID == companyID && o.OrderNumber == orderNumber {
			cp := *o
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemOrders) ListByCompany(_ context.Context, companyID, status string, limit, offset int) ([]*entity.PurchaseOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.PurchaseOrder
	for _, o := range m.byID {
		if o.CompanyID == companyID && (status == "" || o.Status == status) {
			cp := *o
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, limit, offset), nil
}

func (m *MemOrders) UpdateStatus(_ context.Context, orderID, newStatus string, expectedVersion int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[orderID]
	if !ok {
		return domain.ErrNotFound
	}
	if o.Version != expectedVersion {
		return domain.ErrConflict
	}
	o.Status = newStatus
	o.Version++
	o.UpdatedAt = time.Now()
	return nil
}

type MemOrderItems struct {
	mu   sync.Mutex
	byID map[string]*entity.PurchaseOrderItem
}

func (m *MemOrderItems) Seed(items ...*entity.PurchaseOrderItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range items {
		cp := *it
		m.byID[it.ID] = &cp
	}
}

func (m *MemOrderItems) ListByOrder(_ context.Context, orderID string) ([]*entity.PurchaseOrderItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.PurchaseOrderItem
	for _, it := range m.byID {
		if it.OrderID == orderID {
			cp := *it
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemOrderItems) IncrementReceived(_ context.Context, itemID string, delta decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.byID[itemID]
	if !ok {
		return domain.ErrNotFound
	}
	it.QuantityReceived = it.QuantityReceived.Add(delta)
	return nil
}

// ── recepciones ──────────────────────────────────────────────────────────────

type MemReceivings struct {
	mu    sync.Mutex
	byID  map[string]*entity.ReceivingRecord
	items []*entity.ReceivingItem
}

func (m *MemReceivings) Create(_ context.Context, record *entity.ReceivingRecord, items []*entity.ReceivingItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.byID {
		if r.CompanyID == record.CompanyID && r.ReceivingNumber == record.ReceivingNumber {
			return domain.ErrDuplicate
		}
	}
	cp := *record
	m.byID[record.ID] = &cp
	for _, it := range items {
		icp := *it
		m.items = append(m.items, &icp)
	}
	return nil
}

func (m *MemReceivings) GetByID(_ context.Context, id string) (*entity.ReceivingRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *MemReceivings) GetByNumber(_ context.Context, companyID, receivingNumber string) (*entity.ReceivingRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.byID {
		if r.CompanyID == companyID && r.ReceivingNumber == receivingNumber {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemReceivings) ListByOrder(_ context.Context, orderID string) ([]*entity.ReceivingRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.ReceivingRecord
	for _, r := range m.byID {
		if r.OrderID == orderID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemReceivings) ListItems(_ context.Context, receivingID string) ([]*entity.ReceivingItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.ReceivingItem
	for _, it := range m.items {
		if it.ReceivingID == receivingID {
			cp := *it
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MemReceivings) Approve(_ context.Context, receivingID, approvedBy string, approvedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.byID[receivingID]
	if !ok {
		return domain.ErrNotFound
	}
	if r.Status != entity.ReceivingStatusPending {
		return domain.ErrConflict
	}
	r.Status = entity.ReceivingStatusApproved
	r.ApprovedBy = approvedBy
	r.ApprovedAt = &approvedAt
	return nil
}

func (m *MemReceivings) Cancel(_ context.Context, receivingID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.byID[receivingID]
	if !ok {
		return domain.ErrNotFound
	}
	if r.Status != entity.ReceivingStatusPending {
		return domain.ErrConflict
	}
	r.Status = entity.ReceivingStatusCancelled
	return nil
}

// ── aprobaciones ─────────────────────────────────────────────────────────────

type MemApprovals struct {
	mu      sync.Mutex
	records []*entity.ApprovalRecord
}

func (m *MemApprovals) Create(_ context.Context, record *entity.ApprovalRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.OrderID == record.OrderID && r.Level == record.Level {
			return domain.ErrDuplicate
		}
	}
	cp := *record
	m.records = append(m.records, &cp)
	return nil
}

func (m *MemApprovals) ListByOrder(_ context.Context, orderID string) ([]*entity.ApprovalRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.ApprovalRecord
	for _, r := range m.records {
		if r.OrderID == orderID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Level < out[j].Level })
	return out, nil
}

func (m *MemApprovals) GetByOrderAndLevel(_ context.Context, orderID string, level int) (*entity.ApprovalRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.OrderID == orderID && r.Level == level {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemApprovals) MaxLevel(_ context.Context, orderID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	max := 0
	for _, r := range m.records {
		if r.OrderID == orderID && r.Level > max {
			max = r.Level
		}
	}
	return max, nil
}

// ── stock y movimientos ──────────────────────────────────────────────────────

type MemStock struct {
	mu        sync.Mutex
	byProduct map[string]*entity.Stock
}

func (m *MemStock) Seed(s *entity.Stock) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.byProduct[s.ProductID] = &cp
}

func (m *MemStock) Get(_ context.Context, productID string) (*entity.Stock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byProduct[productID]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *MemStock) GetForUpdate(ctx context.Context, productID string) (*entity.Stock, error) {
	// La serialización real la da el TxRunner; aquí basta leer.
	return m.Get(ctx, productID)
}

func (m *MemStock) Upsert(_ context.Context, stock *entity.Stock) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *stock
	m.byProduct[stock.ProductID] = &cp
	return nil
}

type MemMovements struct {
	mu        sync.Mutex
	movements []*entity.StockMovement
}

func (m *MemMovements) Create(_ context.Context, movement *entity.StockMovement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *movement
	m.movements = append(m.movements, &cp)
	return nil
}

func (m *MemMovements) GetByID(_ context.Context, id string) (*entity.StockMovement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mv := range m.movements {
		if mv.ID == id {
			cp := *mv
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemMovements) ListByProduct(_ context.Context, productID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.StockMovement
	for _, mv := range m.movements {
		if mv.ProductID != productID {
			continue
		}
		if from != nil && mv.CreatedAt.Before(*from) {
			continue
		}
		if to != nil && mv.CreatedAt.After(*to) {
			continue
		}
		cp := *mv
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return paginate(out, limit, offset), nil
}

func (m *MemMovements) Summary(_ context.Context, productID string) (*entity.StockSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := &entity.StockSummary{
		ProductID: productID,
		TotalIn:   decimal.Zero,
		TotalOut:  decimal.Zero,
		NetChange: decimal.Zero,
	}
	actors := map[string]bool{}
	for _, mv := range m.movements {
		if mv.ProductID != productID {
			continue
		}
		if mv.QuantityChanged.GreaterThan(decimal.Zero) {
			s.TotalIn = s.TotalIn.Add(mv.QuantityChanged)
		} else {
			s.TotalOut = s.TotalOut.Add(mv.QuantityChanged.Abs())
		}
		s.NetChange = s.NetChange.Add(mv.QuantityChanged)
		actors[mv.CreatedBy] = true
		s.MovementCount++
	}
	s.DistinctActors = len(actors)
	return s, nil
}

// ── auditoría e historial ────────────────────────────────────────────────────

type MemAudit struct {
	mu   sync.Mutex
	logs []*entity.AuditLog
	seq  int64
}

func (m *MemAudit) Append(_ context.Context, log *entity.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if log.IdempotencyKey != "" {
		for _, l := range m.logs {
			if l.IdempotencyKey == log.IdempotencyKey {
				return domain.ErrDuplicate
			}
		}
	}
	m.seq++
	cp := *log
	cp.Seq = m.seq
	log.Seq = m.seq
	m.logs = append(m.logs, &cp)
	return nil
}

func (m *MemAudit) ListByEntity(_ context.Context, entityType, entityID string) ([]*entity.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.AuditLog
	for _, l := range m.logs {
		if l.EntityType == entityType && l.EntityID == entityID {
			cp := *l
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Seq < out[j].Seq
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemAudit) Recent(_ context.Context, limit int) ([]*entity.AuditLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*entity.AuditLog, 0, len(m.logs))
	for _, l := range m.logs {
		cp := *l
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Seq > out[j].Seq
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type MemHistory struct {
	mu      sync.Mutex
	entries []*entity.StatusHistory
}

func (m *MemHistory) Create(_ context.Context, h *entity.StatusHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *h
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *MemHistory) ListByOrder(_ context.Context, orderID string) ([]*entity.StatusHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.StatusHistory
	for _, h := range m.entries {
		if h.OrderID == orderID {
			cp := *h
			out = append(out, &cp)
		}
	}
	return out, nil
}

// ── catálogo ─────────────────────────────────────────────────────────────────

type MemProducts struct {
	mu   sync.Mutex
	byID map[string]*entity.Product
}

func (m *MemProducts) Seed(products ...*entity.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range products {
		cp := *p
		m.byID[p.ID] = &cp
	}
}

func (m *MemProducts) Create(_ context.Context, product *entity.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.byID {
		if p.CompanyID == product.CompanyID && p.SKU == product.SKU {
			return domain.ErrDuplicate
		}
	}
	cp := *product
	m.byID[product.ID] = &cp
	return nil
}

func (m *MemProducts) GetByID(_ context.Context, id string) (*entity.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *MemProducts) GetByCompanyAndSKU(_ context.Context, companyID, sku string) (*entity.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.byID {
		if p.CompanyID == companyID && p.SKU == sku {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemProducts) ListByCompany(_ context.Context, companyID string, limit, offset int) ([]*entity.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Product
	for _, p := range m.byID {
		if p.CompanyID == companyID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return paginate(out, limit, offset), nil
}

func (m *MemProducts) Update(_ context.Context, product *entity.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[product.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *product
	m.byID[product.ID] = &cp
	return nil
}

func (m *MemProducts) UpdateCost(_ context.Context, id string, cost decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Cost = cost
	return nil
}

type MemSuppliers struct {
	mu   sync.Mutex
	byID map[string]*entity.Supplier
}

func (m *MemSuppliers) Seed(suppliers ...*entity.Supplier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range suppliers {
		cp := *s
		m.byID[s.ID] = &cp
	}
}

func (m *MemSuppliers) Create(_ context.Context, supplier *entity.Supplier) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *supplier
	m.byID[supplier.ID] = &cp
	return nil
}

func (m *MemSuppliers) GetByID(_ context.Context, id string) (*entity.Supplier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *MemSuppliers) ListByCompany(_ context.Context, companyID string, limit, offset int) ([]*entity.Supplier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Supplier
	for _, s := range m.byID {
		if s.CompanyID == companyID {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return paginate(out, limit, offset), nil
}

func (m *MemSuppliers) Update(_ context.Context, supplier *entity.Supplier) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[supplier.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *supplier
	m.byID[supplier.ID] = &cp
	return nil
}

// ── errores de validación ────────────────────────────────────────────────────

type MemValidationErrors struct {
	mu      sync.Mutex
	entries []*entity.ValidationError
}

func (m *MemValidationErrors) Create(_ context.Context, ve *entity.ValidationError) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *ve
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *MemValidationErrors) ListByEntity(_ context.Context, entityType, entityID string) ([]*entity.ValidationError, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.ValidationError
	for _, ve := range m.entries {
		if ve.EntityType == entityType && ve.EntityID == entityID {
			cp := *ve
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MemValidationErrors) Resolve(_ context.Context, id, resolvedBy string, resolvedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ve := range m.entries {
		if ve.ID == id && !ve.Resolved {
			ve.Resolved = true
			ve.ResolvedBy = resolvedBy
			ve.ResolvedAt = &resolvedAt
			return nil
		}
	}
	return domain.ErrNotFound
}

// Count devuelve cuántos rechazos quedaron persistidos.
func (m *MemValidationErrors) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func paginate[T any](in []T, limit, offset int) []T {
	if offset >= len(in) {
		return nil
	}
	in = in[offset:]
	if limit > 0 && len(in) > limit {
		in = in[:limit]
	}
	return in
}
