package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Compras-api/internal/application/approvals"
	"github.com/jhoicas/Compras-api/internal/application/dto"
)

// ApprovalHandler maneja las decisiones de aprobación sobre órdenes.
type ApprovalHandler struct {
	decide *approvals.DecideUseCase
}

// NewApprovalHandler construye el handler.
func NewApprovalHandler(decide *approvals.DecideUseCase) *ApprovalHandler {
	return &ApprovalHandler{decide: decide}
}

// Decide godoc
// @Summary      Decidir aprobación de una orden en un nivel
// @Description  approve dentro del límite aprueba la orden; si el monto
//
//	excede el límite del nivel, el registro queda escalated al
//	siguiente aprobador; reject rechaza la orden y detiene la cadena.
//
// @Tags         approvals
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID de la orden"
// @Param        body  body  dto.DecideApprovalRequest  true  "level, decision, amount, comment"
// @Success      201   {object}  dto.ApprovalResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/approvals [post]
func (h *ApprovalHandler) Decide(c *fiber.Ctx) error {
	var in dto.DecideApprovalRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	resp, err := h.decide.Decide(c.Context(), actorFrom(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// List godoc
// @Summary      Cadena de aprobaciones de una orden
// @Tags         approvals
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID de la orden"
// @Success      200  {array}  dto.ApprovalResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/orders/{id}/approvals [get]
func (h *ApprovalHandler) List(c *fiber.Ctx) error {
	list, err := h.decide.ListByOrder(c.Context(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(list)
}
