package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postflow/internal/service"
)

type PostHandler struct {
	s service.PublishService
}

func NewPostHandler(service service.PublishService) *PostHandler {
	return &PostHandler{s: service}
}

func (h *PostHandler) GetPost(c *fiber.Ctx) error {
	post, err := h.s.GetPost(c.Context(), GetWorkspaceID(c), c.Params("id"))
	if err != nil {
		return errorJSON(c, publishErrorStatus(err), err.Error())
	}

	return c.Status(fiber.StatusOK).JSON(toPostResponse(post))
}

// PublishPost runs the publish orchestration synchronously for a post the
// caller's workspace owns.
func (h *PostHandler) PublishPost(c *fiber.Ctx) error {
	postID := c.Params("id")

	if _, err := h.s.GetPost(c.Context(), GetWorkspaceID(c), postID); err != nil {
		return errorJSON(c, publishErrorStatus(err), err.Error())
	}

	post, err := h.s.Publish(c.Context(), postID)
	if err != nil {
		slog.Error("manual publish failed", "post_id", postID, "error", err)
		return errorJSON(c, publishErrorStatus(err), err.Error())
	}

	return c.Status(fiber.StatusOK).JSON(toPostResponse(post))
}

func (h *PostHandler) UnpublishPlatform(c *fiber.Ctx) error {
	post, err := h.s.UnpublishPlatform(c.Context(), GetWorkspaceID(c), c.Params("id"), c.Params("platform"))
	if err != nil {
		return errorJSON(c, publishErrorStatus(err), err.Error())
	}

	return c.Status(fiber.StatusOK).JSON(toPostResponse(post))
}
