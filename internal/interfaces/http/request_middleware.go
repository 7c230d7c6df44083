package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/vittoswine/vittos-api/pkg/logger"
)

const localLogger = "logger"

// RequestLogger registra cada petición (método, ruta, status, latencia) con el request id
// y deja un sublogger en c.Locals para los handlers. Va después de requestid.New().
func RequestLogger(log *logger.Logger) fiber.Handler {
	if log == nil {
		log = logger.Nop()
	}
	return func(c *fiber.Ctx) error {
		start := time.Now()
		reqLog := log.With("request_id", c.GetRespHeader(fiber.HeaderXRequestID))
		c.Locals(localLogger, reqLog)

		err := c.Next()
		if err != nil {
			// deja que el ErrorHandler de Fiber escriba la respuesta antes de leer el status
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		evt := reqLog.Info()
		if status >= fiber.StatusInternalServerError {
			evt = reqLog.Error()
		} else if status >= fiber.StatusBadRequest {
			evt = reqLog.Warn()
		}
		evt.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request")
		return nil
	}
}

// requestLog sublogger de la petición; Nop si RequestLogger no está montado.
func requestLog(c *fiber.Ctx) *logger.Logger {
	if l, ok := c.Locals(localLogger).(*logger.Logger); ok {
		return l
	}
	return logger.Nop()
}
