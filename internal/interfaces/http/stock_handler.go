package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Compras-api/internal/application/dto"
	"github.com/jhoicas/Compras-api/internal/application/stock"
	"github.com/jhoicas/Compras-api/internal/infrastructure/cache"
)

// StockHandler maneja el ledger de stock: movimientos manuales, historial,
// resumen, batch y métricas del caché.
type StockHandler struct {
	ledger  *stock.LedgerUseCase
	batch   *stock.BatchProcessor
	metrics func() cache.Report
}

// NewStockHandler construye el handler. metrics puede ser nil si el caché
// está deshabilitado.
func NewStockHandler(ledger *stock.LedgerUseCase, batch *stock.BatchProcessor, metrics func() cache.Report) *StockHandler {
	return &StockHandler{ledger: ledger, batch: batch, metrics: metrics}
}

// RecordMovement godoc
// @Summary      Registrar un movimiento manual en el ledger
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RecordMovementRequest  true  "product_id, type, quantity (delta firmado), unit_cost, reference_id, reason"
// @Success      201   {object}  dto.MovementResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/movements [post]
func (h *StockHandler) RecordMovement(c *fiber.Ctx) error {
	var in dto.RecordMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	resp, err := h.ledger.Record(c.Context(), actorFrom(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// BatchApply godoc
// @Summary      Actualización masiva de stock
// @Description  Procesa las actualizaciones en chunks con workers acotados.
//
//	Cada ítem es su propia transacción: los fallos se reportan por
//	índice sin abortar a los hermanos.
//
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.BatchApplyRequest  true  "updates"
// @Success      200   {object}  dto.BatchApplyResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/stock/batch [post]
func (h *StockHandler) BatchApply(c *fiber.Ctx) error {
	var in dto.BatchApplyRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	resp, err := h.batch.Apply(c.Context(), actorFrom(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(resp)
}

// History godoc
// @Summary      Historial de movimientos de un producto
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id      path   string  true   "ID del producto"
// @Param        from    query  string  false  "Desde (RFC3339)"
// @Param        to      query  string  false  "Hasta (RFC3339)"
// @Param        limit   query  int     false  "Límite de página"
// @Param        offset  query  int     false  "Offset de continuación"
// @Success      200  {array}  dto.MovementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/{id}/history [get]
func (h *StockHandler) History(c *fiber.Ctx) error {
	var q dto.StockHistoryQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	list, err := h.ledger.History(c.Context(), GetCompanyID(c), c.Params("id"), q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"total": len(list), "movements": list})
}

// Summary godoc
// @Summary      Resumen agregado de stock de un producto
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del producto"
// @Success      200  {object}  dto.StockSummaryResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/{id}/summary [get]
func (h *StockHandler) Summary(c *fiber.Ctx) error {
	resp, err := h.ledger.Summary(c.Context(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(resp)
}

// CacheMetrics godoc
// @Summary      Métricas del caché de lecturas de stock
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  cache.Report
// @Router       /api/stock/cache/metrics [get]
func (h *StockHandler) CacheMetrics(c *fiber.Ctx) error {
	if h.metrics == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "caché deshabilitado"})
	}
	return c.JSON(h.metrics())
}
