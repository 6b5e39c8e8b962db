package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/postflow/internal/models"
	"github.com/maheshrc27/postflow/internal/platform"
	"github.com/maheshrc27/postflow/internal/service"
	"github.com/maheshrc27/postflow/internal/transfer"
)

func GetWorkspaceID(c *fiber.Ctx) string {
	workspaceID, _ := c.Locals("workspace_id").(string)
	return workspaceID
}

func errorJSON(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(transfer.ErrorResponse{Error: msg})
}

// publishErrorStatus maps orchestration errors onto HTTP status codes.
func publishErrorStatus(err error) int {
	var (
		missing     *service.AccountMissingError
		reconnect   *service.AccountReconnectError
		unsupported *platform.UnsupportedPlatformError
		unknown     *models.UnknownPlatformError
		apiErr      *platform.APIError
	)

	switch {
	case errors.Is(err, service.ErrPostNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrPublishInProgress):
		return fiber.StatusConflict
	case errors.Is(err, service.ErrNoPlatforms),
		errors.Is(err, service.ErrNotPublishedOnPlatform),
		errors.As(err, &missing),
		errors.As(err, &reconnect),
		errors.As(err, &unsupported),
		errors.As(err, &unknown):
		return fiber.StatusUnprocessableEntity
	case errors.As(err, &apiErr):
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

func toPostResponse(p *models.Post) transfer.PostResponse {
	ids := make(map[string]string, len(p.PlatformPostIDs))
	for name, id := range p.PlatformPostIDs {
		ids[string(name)] = id
	}

	return transfer.PostResponse{
		ID:              p.ID,
		WorkspaceID:     p.WorkspaceID,
		Content:         p.Content,
		Platforms:       p.Platforms,
		Status:          string(p.Status),
		ScheduledAt:     p.ScheduledAt,
		PlatformPostIDs: ids,
		ErrorMessage:    p.ErrorMessage,
		Hashtags:        p.Hashtags,
		Mentions:        p.Mentions,
		UpdatedAt:       p.UpdatedAt,
	}
}

func toDispatchReportResponse(r *service.DispatchReport) transfer.DispatchReportResponse {
	errs := make([]transfer.DispatchErrorResponse, 0, len(r.Errors))
	for _, e := range r.Errors {
		errs = append(errs, transfer.DispatchErrorResponse{PostID: e.PostID, Error: e.Err.Error()})
	}

	return transfer.DispatchReportResponse{
		Found:        r.Found,
		Dispatched:   r.Dispatched,
		Deduplicated: r.Deduplicated,
		Skipped:      r.Skipped,
		Errors:       errs,
	}
}

func toEngagementResponse(r *models.EngagementReport) transfer.EngagementResponse {
	return transfer.EngagementResponse{
		Platform:         string(r.Platform),
		Available:        r.Available,
		Since:            r.Since,
		Until:            r.Until,
		Views:            r.Views,
		Likes:            r.Likes,
		Replies:          r.Replies,
		Reposts:          r.Reposts,
		Quotes:           r.Quotes,
		TotalEngagements: r.TotalEngagements,
		EngagementRate:   r.EngagementRate,
	}
}
