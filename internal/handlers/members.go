package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/refhub/backend/internal/middleware"
	"github.com/refhub/backend/internal/services"
	"github.com/refhub/backend/pkg/logger"
	"github.com/refhub/backend/pkg/utils"
)

type MembersHandler struct {
	Members *services.MembershipService
}

func NewMembersHandler(members *services.MembershipService) *MembersHandler {
	return &MembersHandler{Members: members}
}

type modifyAdminRequest struct {
	GroupID  string `json:"group_id"`
	UserID   string `json:"user_id"`
	AddAdmin bool   `json:"add_admin"`
}

func (h *MembersHandler) ModifyAdminList(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req modifyAdminRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	groupID, err := parseUUID(req.GroupID)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}
	targetID, err := parseUUID(req.UserID)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	if err := h.Members.SetAdmin(currentUser, groupID, targetID, req.AddAdmin); err != nil {
		return respondServiceError(c, err, "failed updating admin list")
	}

	logger.InfoWithUser(currentUser.ID.String(), "admin_list_modified", map[string]interface{}{
		"group_id":  groupID.String(),
		"target_id": targetID.String(),
		"add_admin": req.AddAdmin,
	})
	return utils.Message(c, fiber.StatusOK, "admin list updated")
}

type removeMemberRequest struct {
	GroupID string `json:"group_id"`
	UserID  string `json:"user_id"`
}

func (h *MembersHandler) RemoveMember(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req removeMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	groupID, err := parseUUID(req.GroupID)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}
	targetID, err := parseUUID(req.UserID)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	if err := h.Members.Remove(currentUser, groupID, targetID); err != nil {
		return respondServiceError(c, err, "failed removing member")
	}
	return utils.Message(c, fiber.StatusOK, "member removed")
}

type leaveGroupRequest struct {
	GroupID string `json:"group_id"`
}

func (h *MembersHandler) LeaveGroup(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req leaveGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	groupID, err := parseUUID(req.GroupID)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}

	if err := h.Members.Leave(currentUser, groupID); err != nil {
		return respondServiceError(c, err, "failed leaving group")
	}
	return utils.Message(c, fiber.StatusOK, "left the group")
}

func (h *MembersHandler) GetPeopleInfo(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseUUID(c.Query("group_id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}

	info, err := h.Members.PeopleInfo(groupID)
	if err != nil {
		return respondServiceError(c, err, "failed loading members")
	}
	return utils.Success(c, fiber.StatusOK, info)
}

func (h *MembersHandler) GetMyLevel(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseUUID(c.Query("group_id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}

	level, err := h.Members.Level(groupID, currentUser.ID)
	if err != nil {
		return respondServiceError(c, err, "failed checking membership")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"level": int(level)})
}

func (h *MembersHandler) AllGroups(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groups, err := h.Members.MyGroups(currentUser.ID)
	if err != nil {
		return respondServiceError(c, err, "failed listing groups")
	}
	return utils.Success(c, fiber.StatusOK, groups)
}
