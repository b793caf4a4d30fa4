package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/refhub/backend/internal/middleware"
	"github.com/refhub/backend/internal/models"
	"github.com/refhub/backend/internal/services"
	"github.com/refhub/backend/internal/storage"
	"github.com/refhub/backend/pkg/logger"
	"github.com/refhub/backend/pkg/utils"
)

type DeletionsHandler struct {
	Deletions *services.DeletionService
	Storage   *storage.MinIOClient
}

func NewDeletionsHandler(deletions *services.DeletionService, store *storage.MinIOClient) *DeletionsHandler {
	return &DeletionsHandler{Deletions: deletions, Storage: store}
}

type applyToDeleteRequest struct {
	GroupID  string `json:"group_id"`
	ItemType int    `json:"item_type"`
	ItemID   string `json:"item_id"`
}

func (h *DeletionsHandler) ApplyToDelete(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req applyToDeleteRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	groupID, err := parseUUID(req.GroupID)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}
	itemID, err := parseUUID(req.ItemID)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid item id")
	}

	err = h.Deletions.Apply(currentUser, groupID, models.ItemType(req.ItemType), itemID)
	if err != nil {
		return respondServiceError(c, err, "failed applying to delete")
	}
	return utils.Message(c, fiber.StatusOK, "application submitted")
}

func (h *DeletionsHandler) AllDeleteApplications(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseUUID(c.Query("group_id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}

	applications, err := h.Deletions.All(groupID)
	if err != nil {
		return respondServiceError(c, err, "failed listing applications")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"applications": applications})
}

type replyToDeleteRequest struct {
	ItemType int    `json:"item_type"`
	ItemID   string `json:"item_id"`
	Agree    bool   `json:"agree"`
}

func (h *DeletionsHandler) ReplyToDelete(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req replyToDeleteRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	itemID, err := parseUUID(req.ItemID)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid item id")
	}

	removedPaths, err := h.Deletions.Reply(currentUser, models.ItemType(req.ItemType), itemID, req.Agree)
	if err != nil {
		return respondServiceError(c, err, "failed replying to application")
	}

	if req.Agree && h.Storage != nil {
		h.Storage.RemoveAll(c.Context(), removedPaths)
	}
	logger.InfoWithUser(currentUser.ID.String(), "delete_application_replied", map[string]interface{}{
		"item_type": req.ItemType,
		"item_id":   req.ItemID,
		"agree":     req.Agree,
	})
	return utils.Message(c, fiber.StatusOK, "application handled")
}

type hardDeleteRequest struct {
	ItemType int    `json:"item_type"`
	ItemID   string `json:"item_id"`
}

func (h *DeletionsHandler) Delete(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req hardDeleteRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	itemID, err := parseUUID(req.ItemID)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid item id")
	}

	removedPaths, err := h.Deletions.HardDelete(currentUser, models.ItemType(req.ItemType), itemID)
	if err != nil {
		return respondServiceError(c, err, "failed deleting item")
	}

	if h.Storage != nil {
		h.Storage.RemoveAll(c.Context(), removedPaths)
	}
	return utils.Message(c, fiber.StatusOK, "item deleted")
}
