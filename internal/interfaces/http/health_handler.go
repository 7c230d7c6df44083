package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger verifica que el almacenamiento responda (pgxpool o memoria).
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler liveness y readiness.
type HealthHandler struct {
	service string
	checks  map[string]Pinger
}

// NewHealthHandler construye el handler. checks nil equivale a sin dependencias.
func NewHealthHandler(service string, checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{service: service, checks: checks}
}

// Live godoc
// @Summary  Liveness
// @Tags     health
// @Produce  json
// @Success  200  {object}  map[string]string
// @Router   /health [get]
func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok", "service": h.service})
}

// Ready godoc
// @Summary  Readiness (almacenamiento y dependencias opcionales)
// @Tags     health
// @Produce  json
// @Success  200  {object}  map[string]string
// @Failure  503  {object}  map[string]string
// @Router   /readyz [get]
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	result := fiber.Map{"status": "ok"}
	status := fiber.StatusOK
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			requestLog(c).Warn().Err(err).Str("check", name).Msg("readiness falló")
			result[name] = "down"
			result["status"] = "unavailable"
			status = fiber.StatusServiceUnavailable
			continue
		}
		result[name] = "up"
	}
	return c.Status(status).JSON(result)
}
