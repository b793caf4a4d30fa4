package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/refhub/backend/internal/middleware"
	"github.com/refhub/backend/internal/models"
	"github.com/refhub/backend/internal/services"
	"github.com/refhub/backend/pkg/utils"
)

type LogsHandler struct {
	Members *services.MembershipService
	Service *services.GroupLogService
}

func NewLogsHandler(members *services.MembershipService, logs *services.GroupLogService) *LogsHandler {
	return &LogsHandler{Members: members, Service: logs}
}

// Logs returns the group's activity log, newest first. Any member may
// read it.
func (h *LogsHandler) Logs(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseUUID(c.Query("group_id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}
	page, pageSize := pageParams(c)

	level, err := h.Members.Level(groupID, currentUser.ID)
	if err != nil {
		return respondServiceError(c, err, "failed checking membership")
	}
	if level == models.LevelNotMember {
		return utils.Error(c, fiber.StatusForbidden, "you are not in the group")
	}

	total, logs, err := h.Service.Read(groupID, page, pageSize)
	if err != nil {
		return respondServiceError(c, err, "failed reading logs")
	}
	return utils.Paginated(c, logs, page, pageSize, total)
}
