package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Compras-api/internal/domain"
	"github.com/jhoicas/Compras-api/internal/domain/entity"
	"github.com/jhoicas/Compras-api/internal/domain/repository"
)

var _ repository.PurchaseOrderRepository = (*PurchaseOrderRepo)(nil)

// PurchaseOrderRepo implementación de PurchaseOrderRepository sobre PostgreSQL (usable con pool o tx).
type PurchaseOrderRepo struct {
	q Querier
}

// NewPurchaseOrderRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPurchaseOrderRepository(q Querier) *PurchaseOrderRepo {
	return &PurchaseOrderRepo{q: q}
}

// Create inserta la orden con sus líneas. Devuelve domain.ErrDuplicate si el
// número de orden ya existe en la empresa.
func (r *PurchaseOrderRepo) Create(ctx context.Context, order *entity.PurchaseOrder, items []*entity.PurchaseOrderItem) error {
	query := `
		INSERT INTO purchase_orders
			(id, company_id, order_number, supplier_id, status, total, allow_over_receiving, notes, version, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		order.ID, order.CompanyID, order.OrderNumber, order.SupplierID, order.Status,
		order.Total, order.AllowOverReceiving, order.Notes, order.Version,
		order.CreatedBy, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert purchase order: %w", err)
	}

	itemQuery := `
		INSERT INTO purchase_order_items
			(id, order_id, product_id, quantity, quantity_received, unit_cost)
		VALUES ($1, $2, $3, $4, $5, $6)`
	for _, it := range items {
		if _, err := r.q.Exec(ctx, itemQuery,
			it.ID, it.OrderID, it.ProductID, it.Quantity, it.QuantityReceived, it.UnitCost,
		); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

// GetByID obtiene una orden por id. Devuelve nil si no existe.
func (r *PurchaseOrderRepo) GetByID(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	query := `
		SELECT id, company_id, order_number, supplier_id, status, total, allow_over_receiving, notes, version, created_by, created_at, updated_at
		FROM purchase_orders WHERE id = $1`
	return r.scanOne(r.q.QueryRow(ctx, query, id))
}

// GetByNumber obtiene una orden por número dentro de una empresa.
func (r *PurchaseOrderRepo) GetByNumber(ctx context.Context, companyID, orderNumber string) (*entity.PurchaseOrder, error) {
	query := `
		SELECT id, company_id, order_number, supplier_id, status, total, allow_over_receiving, notes, version, created_by, created_at, updated_at
		FROM purchase_orders WHERE company_id = $1 AND order_number = $2`
	return r.scanOne(r.q.QueryRow(ctx, query, companyID, orderNumber))
}

// ListByCompany lista órdenes de una empresa, opcionalmente filtradas por
// estado, de más reciente a más antigua.
func (r *PurchaseOrderRepo) ListByCompany(ctx context.Context, companyID, status string, limit, offset int) ([]*entity.PurchaseOrder, error) {
	query := `
		SELECT id, company_id, order_number, supplier_id, status, total, allow_over_receiving, notes, version, created_by, created_at, updated_at
		FROM purchase_orders
		WHERE company_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`
	rows, err := r.q.Query(ctx, query, companyID, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list purchase orders: %w", err)
	}
	defer rows.Close()

	var out []*entity.PurchaseOrder
	for rows.Next() {
		var o entity.PurchaseOrder
		if err := rows.Scan(
			&o.ID, &o.CompanyID, &o.OrderNumber, &o.SupplierID, &o.Status, &o.Total,
			&o.AllowOverReceiving, &o.Notes, &o.Version, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan purchase order: %w", err)
		}
		out = append(out, &o)
	}
	return out, rows.Err()
}

// UpdateStatus compare-and-set: escribe el nuevo estado solo si la versión
// observada sigue vigente. Si otra transición ganó, devuelve
// domain.ErrConflict y el caller reintenta con estado fresco.
func (r *PurchaseOrderRepo) UpdateStatus(ctx context.Context, orderID, newStatus string, expectedVersion int) error {
	query := `
		UPDATE purchase_orders
		SET status = $2, version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $3`
	tag, err := r.q.Exec(ctx, query, orderID, newStatus, expectedVersion)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (r *PurchaseOrderRepo) scanOne(row pgx.Row) (*entity.PurchaseOrder, error) {
	var o entity.PurchaseOrder
	err := row.Scan(
		&o.ID, &o.CompanyID, &o.OrderNumber, &o.SupplierID, &o.Status, &o.Total,
		&o.AllowOverReceiving, &o.Notes, &o.Version, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get purchase order: %w", err)
	}
	return &o, nil
}

var _ repository.PurchaseOrderItemRepository = (*PurchaseOrderItemRepo)(nil)

// PurchaseOrderItemRepo implementación de PurchaseOrderItemRepository.
type PurchaseOrderItemRepo struct {
	q Querier
}

// NewPurchaseOrderItemRepository construye el adaptador de líneas de orden.
func NewPurchaseOrderItemRepository(q Querier) *PurchaseOrderItemRepo {
	return &PurchaseOrderItemRepo{q: q}
}

// ListByOrder devuelve las líneas de una orden.
func (r *PurchaseOrderItemRepo) ListByOrder(ctx context.Context, orderID string) ([]*entity.PurchaseOrderItem, error) {
	query := `
		SELECT id, order_id, product_id, quantity, quantity_received, unit_cost
		FROM purchase_order_items WHERE order_id = $1
		ORDER BY id`
	rows, err := r.q.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer rows.Close()

	var out []*entity.PurchaseOrderItem
	for rows.Next() {
		var it entity.PurchaseOrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.QuantityReceived, &it.UnitCost); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		out = append(out, &it)
	}
	return out, rows.Err()
}

// IncrementReceived suma delta a la cantidad recibida acumulada de la línea.
func (r *PurchaseOrderItemRepo) IncrementReceived(ctx context.Context, itemID string, delta decimal.Decimal) error {
	query := `
		UPDATE purchase_order_items
		SET quantity_received = quantity_received + $2
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, itemID, delta)
	if err != nil {
		return fmt.Errorf("increment received: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
