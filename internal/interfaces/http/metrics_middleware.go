package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
)

// requestObserver contrato mínimo que necesita el middleware de métricas.
// Lo implementa *metrics.HTTPRequests.
type requestObserver interface {
	Observe(method, path string, status int, elapsed time.Duration)
}

// RequestMetrics registra método, ruta, status y latencia de cada petición. La ruta es el
// patrón registrado (/api/categories/:id) para acotar la cardinalidad.
func RequestMetrics(obs requestObserver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				status = fe.Code
			}
		}
		obs.Observe(c.Method(), c.Route().Path, status, time.Since(start))
		return err
	}
}
