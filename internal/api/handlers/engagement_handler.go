package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/service"
)

const defaultEngagementDays = 30

type EngagementHandler struct {
	s service.EngagementService
}

func NewEngagementHandler(service service.EngagementService) *EngagementHandler {
	return &EngagementHandler{s: service}
}

func (h *EngagementHandler) GetEngagement(c *fiber.Ctx) error {
	p, err := models.ParsePlatform(c.Params("platform"))
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, err.Error())
	}

	days := c.QueryInt("days", defaultEngagementDays)
	report := h.s.GetEngagement(c.Context(), GetWorkspaceID(c), p, days)

	return c.Status(fiber.StatusOK).JSON(toEngagementResponse(report))
}

func HealthCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
}
