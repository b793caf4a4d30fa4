package handlers

import (
	"bytes"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/refhub/backend/internal/middleware"
	"github.com/refhub/backend/internal/services"
	"github.com/refhub/backend/internal/storage"
	"github.com/refhub/backend/pkg/utils"
)

var pdfMagic = []byte("%PDF-")

type ItemsHandler struct {
	Items   *services.ItemService
	Storage *storage.MinIOClient
}

func NewItemsHandler(items *services.ItemService, store *storage.MinIOClient) *ItemsHandler {
	return &ItemsHandler{Items: items, Storage: store}
}

type newFolderRequest struct {
	GroupID string `json:"group_id"`
	Name    string `json:"name" validate:"required,max=30"`
}

func (h *ItemsHandler) NewFolder(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req newFolderRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := validate.Struct(req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "folder name must be 1-30 characters")
	}
	groupID, err := parseUUID(req.GroupID)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}

	folder, err := h.Items.NewFolder(currentUser, groupID, req.Name)
	if err != nil {
		return respondServiceError(c, err, "failed creating folder")
	}
	return utils.Success(c, fiber.StatusCreated, fiber.Map{"folder_id": folder.ID.String()})
}

// NewArticle accepts a multipart PDF upload: fields folder_id, name
// and the file itself. Only files starting with the PDF magic number
// are accepted.
func (h *ItemsHandler) NewArticle(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	folderID, err := parseUUID(c.FormValue("folder_id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid folder id")
	}
	name := strings.TrimSpace(c.FormValue("name"))
	if name == "" || len(name) > 30 {
		return utils.Error(c, fiber.StatusBadRequest, "article name must be 1-30 characters")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "a PDF file is required")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed reading upload")
	}
	defer file.Close()

	head := make([]byte, len(pdfMagic))
	if _, err := io.ReadFull(file, head); err != nil || !bytes.Equal(head, pdfMagic) {
		return utils.Error(c, fiber.StatusBadRequest, "file is not a PDF")
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed reading upload")
	}

	objectName := "article/" + uuid.NewString() + ".pdf"
	if h.Storage != nil {
		err := h.Storage.Upload(c.Context(), objectName, file, fileHeader.Size, "application/pdf")
		if err != nil {
			return utils.Error(c, fiber.StatusInternalServerError, "failed storing file")
		}
	}

	article, err := h.Items.NewArticle(currentUser, folderID, name, objectName)
	if err != nil {
		if h.Storage != nil {
			h.Storage.RemoveAll(c.Context(), []string{objectName})
		}
		return respondServiceError(c, err, "failed creating article")
	}
	return utils.Success(c, fiber.StatusCreated, fiber.Map{"article_id": article.ID.String()})
}

type newNoteRequest struct {
	ArticleID string `json:"article_id"`
	Title     string `json:"title" validate:"required,max=100"`
	Content   string `json:"content"`
}

func (h *ItemsHandler) NewNote(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req newNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	req.Title = strings.TrimSpace(req.Title)
	if err := validate.Struct(req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "note title must be 1-100 characters")
	}
	articleID, err := parseUUID(req.ArticleID)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid article id")
	}

	note, err := h.Items.NewNote(currentUser, articleID, req.Title, req.Content)
	if err != nil {
		return respondServiceError(c, err, "failed creating note")
	}
	return utils.Success(c, fiber.StatusCreated, fiber.Map{"note_id": note.ID.String()})
}

type articleTagsRequest struct {
	ArticleID string   `json:"article_id"`
	Tags      []string `json:"tags" validate:"dive,required,max=30"`
}

func (h *ItemsHandler) ArticleTags(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req articleTagsRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "tags must be 1-30 characters each")
	}
	articleID, err := parseUUID(req.ArticleID)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid article id")
	}

	if err := h.Items.ReplaceTags(currentUser, articleID, req.Tags); err != nil {
		return respondServiceError(c, err, "failed updating tags")
	}
	return utils.Message(c, fiber.StatusOK, "tags updated")
}

func (h *ItemsHandler) FileTree(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	groupID, err := parseUUID(c.Query("group_id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid group id")
	}
	page, pageSize := pageParams(c)

	total, tree, err := h.Items.FileTree(currentUser.ID, groupID, page, pageSize)
	if err != nil {
		return respondServiceError(c, err, "failed loading file tree")
	}
	return utils.Paginated(c, tree, page, pageSize, total)
}

type renameRequest struct {
	ID      string `json:"id"`
	NewName string `json:"new_name" validate:"required,max=30"`
}

func (h *ItemsHandler) ChangeFolderName(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req renameRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	req.NewName = strings.TrimSpace(req.NewName)
	if err := validate.Struct(req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "folder name must be 1-30 characters")
	}
	folderID, err := parseUUID(req.ID)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid folder id")
	}

	if err := h.Items.RenameFolder(currentUser, folderID, req.NewName); err != nil {
		return respondServiceError(c, err, "failed renaming folder")
	}
	return utils.Message(c, fiber.StatusOK, "folder renamed")
}

func (h *ItemsHandler) ChangeArticleName(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req renameRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	req.NewName = strings.TrimSpace(req.NewName)
	if err := validate.Struct(req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "article name must be 1-30 characters")
	}
	articleID, err := parseUUID(req.ID)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid article id")
	}

	if err := h.Items.RenameArticle(currentUser, articleID, req.NewName); err != nil {
		return respondServiceError(c, err, "failed renaming article")
	}
	return utils.Message(c, fiber.StatusOK, "article renamed")
}

type changeNoteRequest struct {
	NoteID  string  `json:"note_id"`
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

func (h *ItemsHandler) ChangeNote(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req changeNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Title != nil {
		trimmed := strings.TrimSpace(*req.Title)
		if trimmed == "" || len(trimmed) > 100 {
			return utils.Error(c, fiber.StatusBadRequest, "note title must be 1-100 characters")
		}
		req.Title = &trimmed
	}
	noteID, err := parseUUID(req.NoteID)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid note id")
	}

	if err := h.Items.ChangeNote(currentUser, noteID, req.Title, req.Content); err != nil {
		return respondServiceError(c, err, "failed updating note")
	}
	return utils.Message(c, fiber.StatusOK, "note updated")
}

func (h *ItemsHandler) ReadNote(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	noteID, err := parseUUID(c.Query("note_id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid note id")
	}

	content, err := h.Items.ReadNote(currentUser.ID, noteID)
	if err != nil {
		return respondServiceError(c, err, "failed reading note")
	}
	return utils.Success(c, fiber.StatusOK, content)
}

func (h *ItemsHandler) IfEditNote(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	noteID, err := parseUUID(c.Query("note_id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid note id")
	}

	editable, err := h.Items.CanEditNote(currentUser.ID, noteID)
	if err != nil {
		return respondServiceError(c, err, "failed checking note access")
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"editable": editable})
}
