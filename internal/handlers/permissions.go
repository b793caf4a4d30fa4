package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/refhub/backend/internal/middleware"
	"github.com/refhub/backend/internal/models"
	"github.com/refhub/backend/internal/services"
	"github.com/refhub/backend/pkg/utils"
)

type PermissionsHandler struct {
	Perms *services.PermissionService
}

func NewPermissionsHandler(perms *services.PermissionService) *PermissionsHandler {
	return &PermissionsHandler{Perms: perms}
}

type permissionDefineRequest struct {
	GroupID    string `json:"group_id"`
	UserID     string `json:"user_id"`
	ItemType   int    `json:"item_type"`
	ItemID     string `json:"item_id"`
	Permission int    `json:"permission"`
}

func (h *PermissionsHandler) PermissionDefine(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req permissionDefineRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	groupID, err := parseUUID(req.GroupID)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}
	subjectID, err := parseUUID(req.UserID)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid user id")
	}
	itemID, err := parseUUID(req.ItemID)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid item id")
	}

	err = h.Perms.Define(currentUser, groupID, subjectID, models.ItemType(req.ItemType), itemID, models.Permission(req.Permission))
	if err != nil {
		return respondServiceError(c, err, "failed defining permission")
	}
	return utils.Message(c, fiber.StatusOK, "permission updated")
}

func (h *PermissionsHandler) GetPermissions(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseUUID(c.Query("group_id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}
	itemID, err := parseUUID(c.Query("item_id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid item id")
	}
	itemType := models.ItemType(c.QueryInt("item_type"))

	buckets, err := h.Perms.ListForItem(groupID, itemType, itemID)
	if err != nil {
		return respondServiceError(c, err, "failed listing permissions")
	}
	return utils.Success(c, fiber.StatusOK, buckets)
}
