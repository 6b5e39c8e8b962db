package handlers

import (
	"crypto/subtle"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postflow/internal/service"
)

const DispatchTokenHeader = "X-Dispatch-Token"

// DispatchHandler exposes the dispatcher to an external scheduler.
type DispatchHandler struct {
	s     service.DispatchService
	token string
}

func NewDispatchHandler(service service.DispatchService, token string) *DispatchHandler {
	return &DispatchHandler{s: service, token: token}
}

// RequireToken rejects requests without the shared dispatch token. An empty
// configured token disables the endpoints entirely.
func (h *DispatchHandler) RequireToken() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if h.token == "" {
			return errorJSON(c, fiber.StatusNotFound, "Cannot "+c.Method()+" "+c.Path())
		}
		got := c.Get(DispatchTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) != 1 {
			return errorJSON(c, fiber.StatusUnauthorized, "Invalid dispatch token")
		}
		return c.Next()
	}
}

func (h *DispatchHandler) Dispatch(c *fiber.Ctx) error {
	report, err := h.s.RunDispatchCycle(c.Context())
	if err != nil {
		slog.Error("dispatch cycle failed", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}

	return c.Status(fiber.StatusOK).JSON(toDispatchReportResponse(report))
}

func (h *DispatchHandler) Reconcile(c *fiber.Ctx) error {
	report, err := h.s.ReconcileStuckPending(c.Context())
	if err != nil {
		slog.Error("reconcile sweep failed", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}

	return c.Status(fiber.StatusOK).JSON(toDispatchReportResponse(report))
}
