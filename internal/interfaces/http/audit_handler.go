package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Compras-api/internal/application/audit"
)

// AuditHandler lecturas del registro de auditoría.
type AuditHandler struct {
	query *audit.QueryUseCase
}

// NewAuditHandler construye el handler.
func NewAuditHandler(query *audit.QueryUseCase) *AuditHandler {
	return &AuditHandler{query: query}
}

// TrailByEntity godoc
// @Summary      Trail de auditoría de una entidad
// @Description  Entradas ordenadas por (created_at, seq); reproducirlas
//
//	reconstruye el estado actual de la entidad.
//
// @Tags         audit
// @Security     Bearer
// @Produce      json
// @Param        type  path  string  true  "Tipo de entidad (purchase_order, stock_movement, ...)"
// @Param        id    path  string  true  "ID de la entidad"
// @Success      200  {array}  dto.AuditEntryResponse
// @Router       /api/audit/{type}/{id} [get]
func (h *AuditHandler) TrailByEntity(c *fiber.Ctx) error {
	list, err := h.query.TrailByEntity(c.Context(), c.Params("type"), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"total": len(list), "entries": list})
}

// Recent godoc
// @Summary      Actividad reciente entre todas las entidades
// @Tags         audit
// @Security     Bearer
// @Produce      json
// @Param        limit  query  int  false  "Cuántas entradas (máx 500)"
// @Success      200  {array}  dto.AuditEntryResponse
// @Router       /api/audit/recent [get]
func (h *AuditHandler) Recent(c *fiber.Ctx) error {
	list, err := h.query.Recent(c.Context(), c.QueryInt("limit"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"total": len(list), "entries": list})
}
