package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Compras-api/internal/application/ports"
)

// Ensure TxRunner implements ports.TxRunner.
var _ ports.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace
// Commit o Rollback. El ledger, la auditoría y la mutación primaria de una
// acción comparten esta transacción.
func (r *TxRunner) Run(ctx context.Context, fn func(repos ports.TxRepos) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	repos := ports.TxRepos{
		Orders:     NewPurchaseOrderRepository(tx),
		OrderItems: NewPurchaseOrderItemRepository(tx),
		Receivings: NewReceivingRepository(tx),
		Approvals:  NewApprovalRepository(tx),
		Stock:      NewStockRepository(tx),
		Movements:  NewStockMovementRepository(tx),
		Audit:      NewAuditLogRepository(tx),
		History:    NewStatusHistoryRepository(tx),
		Products:   NewProductRepository(tx),
		Suppliers:  NewSupplierRepository(tx),
	}

	if err := fn(repos); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
