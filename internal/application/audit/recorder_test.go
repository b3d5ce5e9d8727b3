package audit_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Compras-api/internal/application/apptest"
	"github.com/jhoicas/Compras-api/internal/application/audit"
	"github.com/jhoicas/Compras-api/internal/domain"
	"github.com/jhoicas/Compras-api/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// El registro de auditoría es append-only y (created_at, seq) es la fuente
// de verdad histórica: reproducir las entradas de una entidad debe
// reconstruir su estado actual.
// ──────────────────────────────────────────────────────────────────────────────

func TestAppend_AsignaSecuencia(t *testing.T) {
	w := apptest.NewWorld()
	now := time.Now()

	entry, err := audit.NewLogEntry(audit.Entry{
		CompanyID:  "co-1",
		EntityType: entity.AuditEntityPurchaseOrder,
		EntityID:   "ord-1",
		Action:     "create",
		NewValue:   map[string]string{"status": "draft"},
		Actor:      "u-1",
	}, now)
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.JSONEq(t, `{"status":"draft"}`, string(entry.NewValue))
	assert.Nil(t, entry.OldValue, "sin old_value no se serializa nada")

	require.NoError(t, w.Audit.Append(context.Background(), entry))
	assert.Equal(t, int64(1), entry.Seq)
}

// Reproducir el trail de una orden reconstruye su estado final: el último
// new_value con status gana.
func TestTrail_ReplayReconstruyeElEstado(t *testing.T) {
	w := apptest.NewWorld()
	ctx := context.Background()
	base := time.Now()

	transiciones := []struct{ from, to string }{
		{"", "draft"},
		{"draft", "pending_approval"},
		{"pending_approval", "approved"},
		{"approved", "sent_to_supplier"},
	}
	for i, tr := range transiciones {
		e := audit.Entry{
			CompanyID:  "co-1",
			EntityType: entity.AuditEntityPurchaseOrder,
			EntityID:   "ord-1",
			Action:     "status_change",
			NewValue:   map[string]string{"status": tr.to},
			Actor:      "u-1",
		}
		if tr.from != "" {
			e.OldValue = map[string]string{"status": tr.from}
		}
		require.NoError(t, audit.Append(ctx, w.Audit, e, base.Add(time.Duration(i)*time.Second)))
	}

	query := audit.NewQueryUseCase(w.Audit)
	trail, err := query.TrailByEntity(ctx, entity.AuditEntityPurchaseOrder, "ord-1")
	require.NoError(t, err)
	require.Len(t, trail, 4)

	estado := ""
	for _, e := range trail {
		var snap map[string]string
		require.NoError(t, json.Unmarshal(e.NewValue, &snap))
		if s, ok := snap["status"]; ok {
			estado = s
		}
	}
	assert.Equal(t, "sent_to_supplier", estado,
		"reproducir el trail en orden debe terminar en el estado actual")
}

// Con el mismo timestamp, seq desempata en orden de inserción.
func TestTrail_SeqDesempataTimestampsIguales(t *testing.T) {
	w := apptest.NewWorld()
	ctx := context.Background()
	mismoInstante := time.Now()

	for _, status := range []string{"draft", "pending_approval", "approved"} {
		require.NoError(t, audit.Append(ctx, w.Audit, audit.Entry{
			CompanyID:  "co-1",
			EntityType: entity.AuditEntityPurchaseOrder,
			EntityID:   "ord-1",
			Action:     "status_change",
			NewValue:   map[string]string{"status": status},
			Actor:      "u-1",
		}, mismoInstante))
	}

	trail, err := audit.NewQueryUseCase(w.Audit).TrailByEntity(ctx, entity.AuditEntityPurchaseOrder, "ord-1")
	require.NoError(t, err)
	require.Len(t, trail, 3)
	assert.Less(t, trail[0].Seq, trail[1].Seq)
	assert.Less(t, trail[1].Seq, trail[2].Seq)
}

// La clave de idempotencia deduplica: la segunda entrada igual se rechaza,
// no se registra doble.
func TestAppend_ClaveDeIdempotencia(t *testing.T) {
	w := apptest.NewWorld()
	ctx := context.Background()
	e := audit.Entry{
		CompanyID:      "co-1",
		EntityType:     entity.AuditEntityStockMovement,
		EntityID:       "mov-1",
		Action:         "record",
		Actor:          "u-1",
		IdempotencyKey: "mov-1:record",
	}
	require.NoError(t, audit.Append(ctx, w.Audit, e, time.Now()))

	err := audit.Append(ctx, w.Audit, e, time.Now())
	assert.ErrorIs(t, err, domain.ErrDuplicate)

	trail, _ := audit.NewQueryUseCase(w.Audit).TrailByEntity(ctx, entity.AuditEntityStockMovement, "mov-1")
	assert.Len(t, trail, 1)
}

func TestRecent_LimiteYOrdenDescendente(t *testing.T) {
	w := apptest.NewWorld()
	ctx := context.Background()
	base := time.Now()

	for i := 0; i < 10; i++ {
		require.NoError(t, audit.Append(ctx, w.Audit, audit.Entry{
			CompanyID:  "co-1",
			EntityType: entity.AuditEntityProduct,
			EntityID:   "prod-1",
			Action:     "update",
			Actor:      "u-1",
		}, base.Add(time.Duration(i)*time.Minute)))
	}

	recent, err := audit.NewQueryUseCase(w.Audit).Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.True(t, recent[0].CreatedAt.After(recent[1].CreatedAt),
		"el feed reciente va de lo más nuevo a lo más viejo")
}
