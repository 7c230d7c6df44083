package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/vittoswine/vittos-api/internal/application/dto"
	"github.com/vittoswine/vittos-api/internal/domain"
)

// writeError traduce errores de dominio a HTTP. Los 500 se registran y no exponen detalles.
func writeError(c *fiber.Ctx, err error) error {
	status, code, msg := classify(err)
	if status >= fiber.StatusInternalServerError {
		requestLog(c).Error().Err(err).Str("path", c.Path()).Msg("error interno")
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

func classify(err error) (status int, code, msg string) {
	var (
		ve  *domain.ValidationError
		use *domain.UnknownStatusError
		ite *domain.InvalidTransitionError
	)
	switch {
	case errors.As(err, &ve):
		return fiber.StatusBadRequest, "VALIDATION", ve.Error()
	case errors.As(err, &use):
		return fiber.StatusBadRequest, "UNKNOWN_STATUS", use.Error()
	case errors.As(err, &ite):
		return fiber.StatusBadRequest, "INVALID_TRANSITION", ite.Error()
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, "UNAUTHORIZED", domain.ErrUnauthorized.Error()
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, "FORBIDDEN", domain.ErrForbidden.Error()
	case errors.Is(err, domain.ErrUserNotFound):
		return fiber.StatusNotFound, "NOT_FOUND", domain.ErrUserNotFound.Error()
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, "NOT_FOUND", domain.ErrNotFound.Error()
	case errors.Is(err, domain.ErrEmailAlreadyExists):
		return fiber.StatusConflict, "EMAIL_EXISTS", domain.ErrEmailAlreadyExists.Error()
	case errors.Is(err, domain.ErrInUse):
		return fiber.StatusConflict, "IN_USE", domain.ErrInUse.Error()
	case errors.Is(err, domain.ErrDuplicate):
		return fiber.StatusConflict, "DUPLICATE", domain.ErrDuplicate.Error()
	case errors.Is(err, domain.ErrCheckoutInProgress):
		return fiber.StatusConflict, "CHECKOUT_IN_PROGRESS", domain.ErrCheckoutInProgress.Error()
	case errors.Is(err, domain.ErrIdempotencyKeyReused):
		return fiber.StatusUnprocessableEntity, "IDEMPOTENCY_KEY_REUSED", domain.ErrIdempotencyKeyReused.Error()
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict, "CONFLICT", err.Error()
	case errors.Is(err, domain.ErrOrderRegistrationFailed):
		return fiber.StatusInternalServerError, "ORDER_REGISTRATION_FAILED", domain.ErrOrderRegistrationFailed.Error()
	default:
		return fiber.StatusInternalServerError, "INTERNAL", "error interno"
	}
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

// pageFromQuery lee limit/offset y los acota a [1,100] y >= 0.
func pageFromQuery(c *fiber.Ctx) dto.PageRequest {
	limit := c.QueryInt("limit", 20)
	offset := c.QueryInt("offset", 0)
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return dto.PageRequest{Limit: limit, Offset: offset}
}
