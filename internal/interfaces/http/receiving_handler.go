package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Compras-api/internal/application/dto"
	"github.com/jhoicas/Compras-api/internal/application/receiving"
)

// ReceivingHandler maneja las recepciones de mercancía contra órdenes.
type ReceivingHandler struct {
	submit *receiving.SubmitReceivingUseCase
	query  *receiving.QueryUseCase
}

// NewReceivingHandler construye el handler.
func NewReceivingHandler(submit *receiving.SubmitReceivingUseCase, query *receiving.QueryUseCase) *ReceivingHandler {
	return &ReceivingHandler{submit: submit, query: query}
}

// Submit godoc
// @Summary      Registrar una recepción contra una orden
// @Description  Aplica los ítems entregados: stock + cantidad recibida +
//
//	auditoría en una transacción. Las líneas inválidas se excluyen
//	y reportan sin abortar al resto. El mismo receiving_number
//	reenviado devuelve 409, nunca se aplica doble.
//
// @Tags         receiving
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la orden"
// @Param        body  body  dto.SubmitReceivingRequest  true  "receiving_number, items, inspection_notes"
// @Success      201   {object}  dto.ReceivingResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/receivings [post]
func (h *ReceivingHandler) Submit(c *fiber.Ctx) error {
	var in dto.SubmitReceivingRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	resp, err := h.submit.Submit(c.Context(), actorFrom(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Approve godoc
// @Summary      Aprobar una recepción tras inspección
// @Tags         receiving
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la recepción"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/receivings/{id}/approve [put]
func (h *ReceivingHandler) Approve(c *fiber.Ctx) error {
	if err := h.submit.Approve(c.Context(), actorFrom(c), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "recepción aprobada"})
}

// Cancel godoc
// @Summary      Anular una recepción pendiente tras inspección fallida
// @Description  Marca el registro como cancelled. El stock ya aplicado se
//
//	corrige con movimientos compensatorios del ledger.
//
// @Tags         receiving
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la recepción"
// @Param        body  body  dto.CancelReceivingRequest  false  "motivo"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/receivings/{id}/cancel [put]
func (h *ReceivingHandler) Cancel(c *fiber.Ctx) error {
	var in dto.CancelReceivingRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
		}
	}
	if err := h.submit.Cancel(c.Context(), actorFrom(c), c.Params("id"), in.Reason); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "recepción anulada"})
}

// ListByOrder godoc
// @Summary      Recepciones de una orden
// @Tags         receiving
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la orden"
// @Success      200  {array}  map[string]any
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/receivings [get]
func (h *ReceivingHandler) ListByOrder(c *fiber.Ctx) error {
	list, err := h.query.ListByOrder(c.Context(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"total": len(list), "receivings": list})
}
