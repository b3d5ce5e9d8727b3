package stock

import (
	"context"
	"errors"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/Compras-api/internal/application/dto"
	"github.com/jhoicas/Compras-api/internal/application/ports"
	"github.com/jhoicas/Compras-api/internal/domain"
	"github.com/jhoicas/Compras-api/internal/domain/validation"
	"github.com/jhoicas/Compras-api/pkg/retry"
)

const maxConflictRetries = 3

// BatchProcessor aplica actualizaciones masivas de stock en chunks de tamaño
// fijo, con un pool acotado de workers por chunk. Cada ítem se procesa en su
// propia transacción: el fallo de uno nunca aborta a sus hermanos. La
// cancelación del contexto detiene los chunks no iniciados; los ítems en
// vuelo terminan.
type BatchProcessor struct {
	ledger    *LedgerUseCase
	chunkSize int
	workers   int
}

func NewBatchProcessor(ledger *LedgerUseCase, chunkSize, workers int) *BatchProcessor {
	if chunkSize <= 0 {
		chunkSize = 50
	}
	if workers <= 0 {
		workers = 4
	}
	return &BatchProcessor{ledger: ledger, chunkSize: chunkSize, workers: workers}
}

// Apply procesa todas las actualizaciones y devuelve el conteo de aplicadas
// más la lista de fallidas con índice, producto y código de error. Los
// conflictos de serialización se reintentan con backoff antes de contarse
// como fallo.
func (bp *BatchProcessor) Apply(ctx context.Context, actor ports.Actor, in dto.BatchApplyRequest) (*dto.BatchApplyResponse, error) {
	if vf := validation.Permission(actor.Role, validation.ActionBatchApply); vf != nil {
		return nil, vf
	}
	if len(in.Updates) == 0 {
		return nil, domain.NewValidationFailure(domain.KindMissingRequiredField, "updates",
			"el batch no tiene actualizaciones")
	}

	var (
		mu        sync.Mutex
		processed int
		failed    []dto.BatchFailedItem
	)

	for start := 0; start < len(in.Updates); start += bp.chunkSize {
		// Entre chunks se respeta la cancelación; el trabajo ya hecho se
		// conserva y se reporta.
		if ctx.Err() != nil {
			break
		}
		end := start + bp.chunkSize
		if end > len(in.Updates) {
			end = len(in.Updates)
		}

		g := new(errgroup.Group)
		g.SetLimit(bp.workers)
		for i := start; i < end; i++ {
			idx := i
			upd := in.Updates[idx]
			g.Go(func() error {
				err := bp.applyOne(ctx, actor, upd)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					failed = append(failed, dto.BatchFailedItem{
						Index:     idx,
						ProductID: upd.ProductID,
						Code:      failureCode(err),
						Message:   err.Error(),
					})
					return nil // aislamiento por ítem: no cancelar hermanos
				}
				processed++
				return nil
			})
		}
		_ = g.Wait()
	}

	sort.Slice(failed, func(i, j int) bool { return failed[i].Index < failed[j].Index })
	return &dto.BatchApplyResponse{Processed: processed, Failed: failed}, nil
}

func (bp *BatchProcessor) applyOne(ctx context.Context, actor ports.Actor, upd dto.StockUpdateRequest) error {
	return retry.Do(ctx, maxConflictRetries, func() error {
		_, err := bp.ledger.Record(ctx, actor, dto.RecordMovementRequest{
			ProductID:   upd.ProductID,
			Type:        upd.Type,
			Quantity:    upd.Quantity,
			UnitCost:    upd.UnitCost,
			ReferenceID: upd.ReferenceID,
			Reason:      "actualización masiva",
		})
		if err == nil {
			return nil
		}
		// Solo los conflictos de concurrencia son transitorios; validación,
		// permisos y entidades inexistentes no cambian al reintentar.
		if errors.Is(err, domain.ErrConflict) {
			return err
		}
		return retry.Permanent(err)
	})
}

func failureCode(err error) string {
	if vf, ok := domain.AsValidationFailure(err); ok {
		return string(vf.Kind)
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	default:
		return "internal"
	}
}
