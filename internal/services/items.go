package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/refhub/backend/internal/models"
	"gorm.io/gorm"
)

// ItemService implements the group-owned item tree: folders, PDF
// articles and notes. Every mutation checks membership (and the
// caller's overlay where one can exist) and appends its activity log
// entry inside the same transaction.
type ItemService struct {
	DB    *gorm.DB
	Logs  *GroupLogService
	Perms *PermissionService
}

func NewItemService(db *gorm.DB, logs *GroupLogService, perms *PermissionService) *ItemService {
	return &ItemService{DB: db, Logs: logs, Perms: perms}
}

func (s *ItemService) requireMember(groupID, userID uuid.UUID) (models.MemberLevel, error) {
	level, err := levelIn(s.DB, groupID, userID)
	if err != nil {
		return models.LevelNotMember, err
	}
	if level == models.LevelNotMember {
		return level, ErrNotInGroup
	}
	return level, nil
}

func (s *ItemService) NewFolder(actor *models.User, groupID uuid.UUID, name string) (*models.Folder, error) {
	if _, err := s.requireMember(groupID, actor.ID); err != nil {
		return nil, err
	}
	folder := models.Folder{Name: name, GroupID: &groupID, Visible: true}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&folder).Error; err != nil {
			return err
		}
		return s.Logs.Append(tx, groupID, FolderCreatedEntry(actor.ID, name))
	})
	if err != nil {
		return nil, err
	}
	return &folder, nil
}

// NewArticle registers an uploaded PDF under a folder. The object is
// already in storage when this runs; storagePath is its object name.
func (s *ItemService) NewArticle(actor *models.User, folderID uuid.UUID, name, storagePath string) (*models.Article, error) {
	parent, err := resolveItem(s.DB, models.ItemFolder, folderID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireMember(parent.GroupID, actor.ID); err != nil {
		return nil, err
	}
	article := models.Article{
		Name:        name,
		FolderID:    folderID,
		StoragePath: storagePath,
		GroupID:     &parent.GroupID,
		Visible:     true,
	}
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&article).Error; err != nil {
			return err
		}
		return s.Logs.Append(tx, parent.GroupID, ArticleCreatedEntry(actor.ID, parent.Name, name))
	})
	if err != nil {
		return nil, err
	}
	return &article, nil
}

// NewNote attaches a note to an article. Requires full access on the
// article, so read-only members cannot annotate it.
func (s *ItemService) NewNote(actor *models.User, articleID uuid.UUID, title, content string) (*models.Note, error) {
	parent, err := resolveItem(s.DB, models.ItemArticle, articleID)
	if err != nil {
		return nil, err
	}
	if err := s.requireFull(actor.ID, parent); err != nil {
		return nil, err
	}
	note := models.Note{
		Title:     title,
		Content:   content,
		ArticleID: articleID,
		GroupID:   &parent.GroupID,
		Visible:   true,
	}
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&note).Error; err != nil {
			return err
		}
		return s.Logs.Append(tx, parent.GroupID, NoteCreatedEntry(actor.ID, parent.FolderName, parent.Name, title))
	})
	if err != nil {
		return nil, err
	}
	return &note, nil
}

// ReplaceTags swaps an article's tag set wholesale and logs both the
// old and new snapshots.
func (s *ItemService) ReplaceTags(actor *models.User, articleID uuid.UUID, tags []string) error {
	parent, err := resolveItem(s.DB, models.ItemArticle, articleID)
	if err != nil {
		return err
	}
	if err := s.requireFull(actor.ID, parent); err != nil {
		return err
	}

	var oldTags []string
	if err := s.DB.Model(&models.Tag{}).Where("article_id = ?", articleID).Pluck("content", &oldTags).Error; err != nil {
		return err
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("article_id = ?", articleID).Delete(&models.Tag{}).Error; err != nil {
			return err
		}
		for _, content := range tags {
			if err := tx.Create(&models.Tag{Content: content, ArticleID: articleID}).Error; err != nil {
				return err
			}
		}
		return s.Logs.Append(tx, parent.GroupID, TagsChangedEntry(actor.ID, parent.FolderName, parent.Name, oldTags, tags))
	})
}

func (s *ItemService) RenameFolder(actor *models.User, folderID uuid.UUID, newName string) error {
	item, err := resolveItem(s.DB, models.ItemFolder, folderID)
	if err != nil {
		return err
	}
	if _, err := s.requireMember(item.GroupID, actor.ID); err != nil {
		return err
	}
	if item.Name == newName {
		return nil
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Folder{}).Where("id = ?", folderID).Update("name", newName).Error
		if err != nil {
			return err
		}
		return s.Logs.Append(tx, item.GroupID, FolderRenamedEntry(actor.ID, item.Name, newName))
	})
}

func (s *ItemService) RenameArticle(actor *models.User, articleID uuid.UUID, newName string) error {
	item, err := resolveItem(s.DB, models.ItemArticle, articleID)
	if err != nil {
		return err
	}
	if err := s.requireFull(actor.ID, item); err != nil {
		return err
	}
	if item.Name == newName {
		return nil
	}
	return s.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Article{}).Where("id = ?", articleID).Update("name", newName).Error
		if err != nil {
			return err
		}
		return s.Logs.Append(tx, item.GroupID, ArticleRenamedEntry(actor.ID, item.FolderName, item.Name, newName))
	})
}

// ChangeNote updates a note's title and/or content. Each changed
// aspect gets its own log entry so readers see exactly what moved.
func (s *ItemService) ChangeNote(actor *models.User, noteID uuid.UUID, title, content *string) error {
	item, err := resolveItem(s.DB, models.ItemNote, noteID)
	if err != nil {
		return err
	}
	if err := s.requireFull(actor.ID, item); err != nil {
		return err
	}

	var note models.Note
	if err := s.DB.First(&note, "id = ?", noteID).Error; err != nil {
		return itemLookupError(err)
	}

	updates := map[string]interface{}{}
	if title != nil && *title != note.Title {
		updates["title"] = *title
	}
	if content != nil && *content != note.Content {
		updates["content"] = *content
	}
	if len(updates) == 0 {
		return nil
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Note{}).Where("id = ?", noteID).Updates(updates).Error
		if err != nil {
			return err
		}
		if newTitle, ok := updates["title"]; ok {
			entry := NoteTitleChangedEntry(actor.ID, item.FolderName, item.ArticleName, note.Title, newTitle.(string))
			if err := s.Logs.Append(tx, item.GroupID, entry); err != nil {
				return err
			}
		}
		if newContent, ok := updates["content"]; ok {
			currentTitle := note.Title
			if newTitle, ok := updates["title"]; ok {
				currentTitle = newTitle.(string)
			}
			entry := NoteContentChangedEntry(actor.ID, item.FolderName, item.ArticleName, currentTitle, note.Content, newContent.(string))
			if err := s.Logs.Append(tx, item.GroupID, entry); err != nil {
				return err
			}
		}
		return nil
	})
}

// NoteContent is the read projection of a note.
type NoteContent struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	UpdatedAt string `json:"update_time"`
}

func (s *ItemService) ReadNote(viewerID, noteID uuid.UUID) (*NoteContent, error) {
	item, err := resolveItem(s.DB, models.ItemNote, noteID)
	if err != nil {
		return nil, err
	}
	access, err := s.Perms.checkResolved(viewerID, item)
	if err != nil {
		return nil, err
	}
	if access == models.AccessDenied {
		return nil, ErrAccessDenied
	}

	var note models.Note
	if err := s.DB.First(&note, "id = ?", noteID).Error; err != nil {
		return nil, itemLookupError(err)
	}
	return &NoteContent{
		Title:     note.Title,
		Content:   note.Content,
		UpdatedAt: note.UpdatedAt.Format(time.DateTime),
	}, nil
}

// CanEditNote reports whether the viewer holds full access on the note.
func (s *ItemService) CanEditNote(viewerID, noteID uuid.UUID) (bool, error) {
	item, err := resolveItem(s.DB, models.ItemNote, noteID)
	if err != nil {
		return false, err
	}
	access, err := s.Perms.checkResolved(viewerID, item)
	if err != nil {
		return false, err
	}
	return access == models.AccessFull, nil
}

func (s *ItemService) requireFull(userID uuid.UUID, item *itemRef) error {
	access, err := s.Perms.checkResolved(userID, item)
	if err != nil {
		return err
	}
	switch access {
	case models.AccessFull:
		return nil
	case models.AccessReadOnly:
		return ErrReadOnly
	default:
		return ErrAccessDenied
	}
}

type NoteNode struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
}

type ArticleNode struct {
	ID    uuid.UUID  `json:"id"`
	Name  string     `json:"name"`
	Tags  []string   `json:"tags"`
	Notes []NoteNode `json:"notes"`
}

type FolderNode struct {
	ID       uuid.UUID     `json:"id"`
	Name     string        `json:"name"`
	Articles []ArticleNode `json:"articles"`
}

// FileTree returns the group's folders (newest first, paginated) with
// their articles, tags and notes. Items the viewer is denied on are
// omitted entirely; read-only items are included, since the tree only
// exposes names.
func (s *ItemService) FileTree(viewerID, groupID uuid.UUID, page, pageSize int) (int64, []FolderNode, error) {
	level, err := s.requireMember(groupID, viewerID)
	if err != nil {
		return 0, nil, err
	}

	denied := map[uuid.UUID]bool{}
	if level == models.LevelMember {
		var overlays []models.PermissionOverlay
		err := s.DB.Where("group_id = ? AND user_id = ? AND accessible = ?", groupID, viewerID, false).
			Find(&overlays).Error
		if err != nil {
			return 0, nil, err
		}
		for _, o := range overlays {
			denied[o.ItemID] = true
		}
	}

	var total int64
	query := s.DB.Model(&models.Folder{}).Where("group_id = ? AND visible = ?", groupID, true)
	if err := query.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var folders []models.Folder
	err = s.DB.
		Preload("Articles", "visible = ?", true).
		Preload("Articles.Tags").
		Preload("Articles.Notes", "visible = ?", true).
		Where("group_id = ? AND visible = ?", groupID, true).
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&folders).Error
	if err != nil {
		return 0, nil, err
	}

	tree := make([]FolderNode, 0, len(folders))
	for _, folder := range folders {
		node := FolderNode{ID: folder.ID, Name: folder.Name, Articles: []ArticleNode{}}
		for _, article := range folder.Articles {
			if denied[article.ID] {
				continue
			}
			articleNode := ArticleNode{ID: article.ID, Name: article.Name, Tags: []string{}, Notes: []NoteNode{}}
			for _, tag := range article.Tags {
				articleNode.Tags = append(articleNode.Tags, tag.Content)
			}
			for _, note := range article.Notes {
				if denied[note.ID] {
					continue
				}
				articleNode.Notes = append(articleNode.Notes, NoteNode{ID: note.ID, Title: note.Title})
			}
			node.Articles = append(node.Articles, articleNode)
		}
		tree = append(tree, node)
	}
	return total, tree, nil
}
