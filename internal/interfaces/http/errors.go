package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Compras-api/internal/application/dto"
	"github.com/jhoicas/Compras-api/internal/domain"
)

// writeError mapea un error de dominio al cuerpo y código HTTP. Los fallos
// de la puerta de validación conservan su kind, campo y contexto: el cliente
// nunca recibe un error genérico por un rechazo específico.
func writeError(c *fiber.Ctx, err error) error {
	if vf, ok := domain.AsValidationFailure(err); ok {
		return c.Status(validationStatus(vf.Kind)).JSON(dto.ErrorResponse{
			Code:    string(vf.Kind),
			Message: vf.Message,
			Field:   vf.Field,
			Context: vf.Context,
		})
	}
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "credenciales inválidas"})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado al recurso"})
	case errors.Is(err, domain.ErrEmailAlreadyExists):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "EMAIL_EXISTS", Message: "el email ya está registrado"})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: "el recurso ya existe"})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: "conflicto de concurrencia: reintentar con estado fresco"})
	case errors.Is(err, domain.ErrInsufficientStock):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: "stock insuficiente"})
	case errors.Is(err, domain.ErrReconciliationRequired):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "RECONCILIATION_REQUIRED", Message: "el ledger y el contador divergen: requiere reconciliación"})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}

// validationStatus elige el código HTTP por kind: permisos 403, conflictos
// de estado/stock 409, el resto de rechazos 400.
func validationStatus(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindPermissionDenied:
		return fiber.StatusForbidden
	case domain.KindInvalidStatusTransition, domain.KindInsufficientStock, domain.KindApprovalRequired:
		return fiber.StatusConflict
	default:
		return fiber.StatusBadRequest
	}
}
