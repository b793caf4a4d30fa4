package handlers

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/refhub/backend/internal/invite"
	"github.com/refhub/backend/internal/middleware"
	"github.com/refhub/backend/internal/models"
	"github.com/refhub/backend/internal/services"
	"github.com/refhub/backend/internal/storage"
	"github.com/refhub/backend/pkg/logger"
	"github.com/refhub/backend/pkg/utils"
	"gorm.io/gorm"
)

type GroupsHandler struct {
	DB      *gorm.DB
	Groups  *services.GroupService
	Members *services.MembershipService
	Storage *storage.MinIOClient
	Invites *invite.Service
}

func NewGroupsHandler(db *gorm.DB, groups *services.GroupService, members *services.MembershipService, store *storage.MinIOClient, invites *invite.Service) *GroupsHandler {
	return &GroupsHandler{DB: db, Groups: groups, Members: members, Storage: store, Invites: invites}
}

func (h *GroupsHandler) Create(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	name := strings.TrimSpace(c.FormValue("name"))
	description := strings.TrimSpace(c.FormValue("desc"))
	if name == "" || len(name) > 30 {
		return utils.Error(c, fiber.StatusBadRequest, "group name must be 1-30 characters")
	}
	if len(description) > 200 {
		return utils.Error(c, fiber.StatusBadRequest, "description must be at most 200 characters")
	}

	avatarPath, err := h.storeAvatar(c)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed storing avatar")
	}

	group, err := h.Groups.Create(currentUser, name, description, avatarPath)
	if err != nil {
		return respondServiceError(c, err, "failed creating group")
	}

	logger.InfoWithUser(currentUser.ID.String(), "group_created", map[string]interface{}{
		"group_id":   group.ID.String(),
		"group_name": group.Name,
	})

	return utils.Success(c, fiber.StatusCreated, fiber.Map{"group_id": group.ID.String()})
}

func (h *GroupsHandler) GetBasicInfo(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseUUID(c.Query("group_id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}

	info, err := h.Groups.BasicInfo(groupID)
	if err != nil {
		return respondServiceError(c, err, "failed loading group")
	}
	return utils.Success(c, fiber.StatusOK, info)
}

func (h *GroupsHandler) ModifyBasicInfo(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseUUID(c.FormValue("group_id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}

	form, err := c.MultipartForm()
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid form data")
	}

	var name, description *string
	if values := form.Value["name"]; len(values) > 0 {
		trimmed := strings.TrimSpace(values[0])
		if trimmed == "" || len(trimmed) > 30 {
			return utils.Error(c, fiber.StatusBadRequest, "group name must be 1-30 characters")
		}
		name = &trimmed
	}
	if values := form.Value["desc"]; len(values) > 0 {
		trimmed := strings.TrimSpace(values[0])
		if len(trimmed) > 200 {
			return utils.Error(c, fiber.StatusBadRequest, "description must be at most 200 characters")
		}
		description = &trimmed
	}

	var avatarPath *string
	if files := form.File["avatar"]; len(files) > 0 {
		stored, err := h.storeAvatar(c)
		if err != nil {
			return utils.Error(c, fiber.StatusInternalServerError, "failed storing avatar")
		}
		if stored != "" && stored != storage.DefaultGroupAvatar {
			avatarPath = &stored
		}
	}

	oldAvatar, err := h.Groups.ModifyBasicInfo(currentUser, groupID, name, description, avatarPath)
	if err != nil {
		return respondServiceError(c, err, "failed updating group")
	}
	if avatarPath != nil && h.Storage != nil {
		h.Storage.RemoveAll(c.Context(), []string{oldAvatar})
	}
	return utils.Message(c, fiber.StatusOK, "group updated")
}

type disbandRequest struct {
	GroupID string `json:"group_id"`
}

func (h *GroupsHandler) Disband(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req disbandRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	groupID, err := parseUUID(req.GroupID)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}

	result, err := h.Groups.Disband(currentUser, groupID)
	if err != nil {
		return respondServiceError(c, err, "failed disbanding group")
	}

	if h.Storage != nil {
		h.Storage.RemoveAll(c.Context(), append(result.ArticlePaths, result.AvatarPath))
	}
	logger.InfoWithUser(currentUser.ID.String(), "group_disbanded", map[string]interface{}{
		"group_id": groupID.String(),
	})
	return utils.Message(c, fiber.StatusOK, "group disbanded")
}

type genInviteRequest struct {
	GroupID string `json:"group_id"`
	Email   string `json:"email" validate:"required,email"`
}

func (h *GroupsHandler) GenInviteCode(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req genInviteRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "a valid email is required")
	}
	groupID, err := parseUUID(req.GroupID)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}

	level, err := h.Members.Level(groupID, currentUser.ID)
	if err != nil {
		return respondServiceError(c, err, "failed checking membership")
	}
	if level == models.LevelNotMember {
		return utils.Error(c, fiber.StatusForbidden, "you are not in the group")
	}

	var invited models.User
	err = h.DB.First(&invited, "email = ?", req.Email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.Error(c, fiber.StatusNotFound, "no user with that email")
	}
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed looking up user")
	}

	code, err := h.Invites.Issue(invited.Email, groupID)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed issuing invite code")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"invite_code": code})
}

type enterGroupRequest struct {
	InviteCode string `json:"invite_code"`
}

func (h *GroupsHandler) EnterGroup(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req enterGroupRequest
	if err := c.BodyParser(&req); err != nil || req.InviteCode == "" {
		return utils.Error(c, fiber.StatusBadRequest, "invite code is required")
	}

	groupID, err := h.Invites.Redeem(c.Context(), req.InviteCode, currentUser.Email)
	switch {
	case errors.Is(err, invite.ErrInvalidCode):
		return utils.Error(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, invite.ErrWrongEmail):
		return utils.Error(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, invite.ErrAlreadyUsed):
		return utils.Error(c, fiber.StatusConflict, err.Error())
	case err != nil:
		return utils.Error(c, fiber.StatusInternalServerError, "failed validating invite code")
	}

	if err := h.Members.Enter(currentUser, groupID); err != nil {
		return respondServiceError(c, err, "failed joining group")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"group_id": groupID.String()})
}

// storeAvatar uploads the optional "avatar" form file and returns its
// object name, or the default placeholder when no file was sent.
func (h *GroupsHandler) storeAvatar(c *fiber.Ctx) (string, error) {
	fileHeader, err := c.FormFile("avatar")
	if err != nil || fileHeader == nil {
		return storage.DefaultGroupAvatar, nil
	}
	if h.Storage == nil {
		return storage.DefaultGroupAvatar, nil
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", err
	}
	defer file.Close()

	objectName := "group-avatar/" + uuid.NewString() + filepath.Ext(fileHeader.Filename)
	contentType := fileHeader.Header.Get("Content-Type")
	if err := h.Storage.Upload(c.Context(), objectName, file, fileHeader.Size, contentType); err != nil {
		return "", err
	}
	return objectName, nil
}
