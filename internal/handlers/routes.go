package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/refhub/backend/internal/invite"
	"github.com/refhub/backend/internal/middleware"
	"github.com/refhub/backend/internal/services"
	"github.com/refhub/backend/internal/storage"
	"gorm.io/gorm"
)

// Deps bundles everything the group API needs; the composition root
// and the test harness build one each.
type Deps struct {
	DB      *gorm.DB
	Storage *storage.MinIOClient
	Invites *invite.Service

	Groups    *services.GroupService
	Members   *services.MembershipService
	Items     *services.ItemService
	Perms     *services.PermissionService
	Deletions *services.DeletionService
	Logs      *services.GroupLogService
}

// RegisterGroupRoutes mounts the whole group API under router (the
// /api prefix), auth required on every endpoint.
func RegisterGroupRoutes(router fiber.Router, auth *middleware.AuthMiddleware, deps Deps) {
	groupsHandler := NewGroupsHandler(deps.DB, deps.Groups, deps.Members, deps.Storage, deps.Invites)
	membersHandler := NewMembersHandler(deps.Members)
	itemsHandler := NewItemsHandler(deps.Items, deps.Storage)
	permissionsHandler := NewPermissionsHandler(deps.Perms)
	deletionsHandler := NewDeletionsHandler(deps.Deletions, deps.Storage)
	logsHandler := NewLogsHandler(deps.Members, deps.Logs)

	group := router.Group("/group", auth.RequireAuth)

	group.Post("/create", groupsHandler.Create)
	group.Post("/genInviteCode", groupsHandler.GenInviteCode)
	group.Post("/enterGroup", groupsHandler.EnterGroup)
	group.Post("/modifyBasicInfo", groupsHandler.ModifyBasicInfo)
	group.Get("/getBasicInfo", groupsHandler.GetBasicInfo)
	group.Delete("/disband", groupsHandler.Disband)

	group.Post("/modifyAdminList", membersHandler.ModifyAdminList)
	group.Post("/removeMember", membersHandler.RemoveMember)
	group.Post("/leaveGroup", membersHandler.LeaveGroup)
	group.Get("/getPeopleInfo", membersHandler.GetPeopleInfo)
	group.Get("/getMyLevel", membersHandler.GetMyLevel)
	group.Get("/allGroups", membersHandler.AllGroups)

	group.Post("/newFolder", itemsHandler.NewFolder)
	group.Post("/newArticle", itemsHandler.NewArticle)
	group.Post("/newNote", itemsHandler.NewNote)
	group.Post("/articleTags", itemsHandler.ArticleTags)
	group.Get("/fileTree", itemsHandler.FileTree)
	group.Post("/changeFolderName", itemsHandler.ChangeFolderName)
	group.Post("/changeArticleName", itemsHandler.ChangeArticleName)
	group.Post("/changeNote", itemsHandler.ChangeNote)
	group.Get("/readNote", itemsHandler.ReadNote)
	group.Get("/ifEditNote", itemsHandler.IfEditNote)

	group.Post("/permissionDefine", permissionsHandler.PermissionDefine)
	group.Get("/getPermissions", permissionsHandler.GetPermissions)

	group.Post("/applyToDelete", deletionsHandler.ApplyToDelete)
	group.Get("/allDeleteApplications", deletionsHandler.AllDeleteApplications)
	group.Post("/replyToDelete", deletionsHandler.ReplyToDelete)
	group.Delete("/delete", deletionsHandler.Delete)

	group.Get("/logs", logsHandler.Logs)
}
