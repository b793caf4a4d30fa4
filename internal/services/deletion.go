package services

import (
	"github.com/google/uuid"
	"github.com/refhub/backend/internal/models"
	"gorm.io/gorm"
)

// DeletionService runs the delete-approval workflow and the hard
// delete cascade it resolves into. Hard deletion is irreversible row
// removal, distinct from the personal recycle-bin soft delete.
type DeletionService struct {
	DB   *gorm.DB
	Logs *GroupLogService
}

func NewDeletionService(db *gorm.DB, logs *GroupLogService) *DeletionService {
	return &DeletionService{DB: db, Logs: logs}
}

// Apply files a member's request to delete an item. Duplicate
// applications for the same (user, item) are absorbed silently.
func (s *DeletionService) Apply(user *models.User, groupID uuid.UUID, itemType models.ItemType, itemID uuid.UUID) error {
	item, err := resolveItem(s.DB, itemType, itemID)
	if err != nil {
		return err
	}
	if item.GroupID != groupID {
		return ErrItemNotFound
	}

	level, err := levelIn(s.DB, groupID, user.ID)
	if err != nil {
		return err
	}
	if level == models.LevelNotMember {
		return ErrNotInGroup
	}

	var existing models.DeleteApplication
	err = s.DB.First(&existing, "user_id = ? AND item_type = ? AND item_id = ?", user.ID, itemType, itemID).Error
	if err == nil {
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}

	application := models.DeleteApplication{
		GroupID:   groupID,
		UserID:    user.ID,
		ItemType:  itemType,
		ItemID:    itemID,
		FolderID:  item.FolderID,
		ArticleID: item.ArticleID,
	}
	return s.DB.Create(&application).Error
}

// ApplicationView is the rendered pending application: who asked, and
// the display names of the item and its ancestors.
type ApplicationView struct {
	Applier     models.PersonRef `json:"applier"`
	ItemType    int              `json:"item_type"`
	ItemID      string           `json:"item_id"`
	FolderName  string           `json:"folder_name,omitempty"`
	ArticleName string           `json:"article_name,omitempty"`
	NoteTitle   string           `json:"note_title,omitempty"`
	AppliedAt   string           `json:"applied_at"`
}

// All lists the group's pending applications with display context.
// Read-only projection; no state transition.
func (s *DeletionService) All(groupID uuid.UUID) ([]ApplicationView, error) {
	var applications []models.DeleteApplication
	err := s.DB.Preload("User").
		Where("group_id = ?", groupID).
		Order("created_at ASC").
		Find(&applications).Error
	if err != nil {
		return nil, err
	}

	views := make([]ApplicationView, 0, len(applications))
	for i := range applications {
		app := applications[i]
		item, err := resolveItem(s.DB, app.ItemType, app.ItemID)
		if err == ErrItemNotFound {
			// Item vanished under the application; the cascade removes
			// such rows, so this is a transient read race. Skip it.
			continue
		}
		if err != nil {
			return nil, err
		}
		view := ApplicationView{
			Applier:     app.User.Ref(),
			ItemType:    int(app.ItemType),
			ItemID:      app.ItemID.String(),
			FolderName:  item.FolderName,
			ArticleName: item.ArticleName,
			AppliedAt:   app.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		}
		if app.ItemType == models.ItemNote {
			view.NoteTitle = item.Name
		}
		views = append(views, view)
	}
	return views, nil
}

// Reply resolves the pending application on an item. Approval runs the
// hard delete cascade in the same transaction; rejection just drops the
// application rows. Deleting the rows and checking the count is the
// concurrency control: whichever reply commits first wins, the loser
// finds no rows and gets ErrApplicationNotFound.
func (s *DeletionService) Reply(approver *models.User, itemType models.ItemType, itemID uuid.UUID, agree bool) ([]string, error) {
	item, err := resolveItem(s.DB, itemType, itemID)
	if err == ErrItemNotFound {
		// The item is gone, so any application about it is gone too.
		return nil, ErrApplicationNotFound
	}
	if err != nil {
		return nil, err
	}

	level, err := levelIn(s.DB, item.GroupID, approver.ID)
	if err != nil {
		return nil, err
	}
	if !level.CanModerate() {
		return nil, ErrInsufficientLevel
	}

	var paths []string
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("item_type = ? AND item_id = ?", itemType, itemID).
			Delete(&models.DeleteApplication{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrApplicationNotFound
		}
		if !agree {
			return nil
		}
		collected, err := s.cascade(tx, approver.ID, item)
		if err != nil {
			return err
		}
		paths = collected
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// HardDelete is the direct admin path around the approval workflow.
// Returns the storage object names whose physical removal is the
// caller's post-commit responsibility.
func (s *DeletionService) HardDelete(actor *models.User, itemType models.ItemType, itemID uuid.UUID) ([]string, error) {
	item, err := resolveItem(s.DB, itemType, itemID)
	if err != nil {
		return nil, err
	}

	level, err := levelIn(s.DB, item.GroupID, actor.ID)
	if err != nil {
		return nil, err
	}
	if !level.CanModerate() {
		return nil, ErrInsufficientLevel
	}

	var paths []string
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("item_type = ? AND item_id = ?", itemType, itemID).
			Delete(&models.DeleteApplication{}).Error
		if err != nil {
			return err
		}
		collected, err := s.cascade(tx, actor.ID, item)
		if err != nil {
			return err
		}
		paths = collected
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

// cascade removes the item row, its descendants, and every overlay and
// application row referencing any of them, then appends the matching
// log entry — one transaction with the caller. The cascade ignores the
// recycle-bin visible flag: folder deletion takes soft-deleted children
// with it.
func (s *DeletionService) cascade(tx *gorm.DB, actor uuid.UUID, item *itemRef) ([]string, error) {
	switch item.ItemType {
	case models.ItemFolder:
		if err := scrubItemRows(tx, "folder_id = ?", item.ItemID); err != nil {
			return nil, err
		}

		var paths []string
		err := tx.Model(&models.Article{}).
			Where("folder_id = ?", item.ItemID).
			Pluck("storage_path", &paths).Error
		if err != nil {
			return nil, err
		}

		childArticles := tx.Model(&models.Article{}).Select("id").Where("folder_id = ?", item.ItemID)
		if err := tx.Where("article_id IN (?)", childArticles).Delete(&models.Tag{}).Error; err != nil {
			return nil, err
		}
		if err := tx.Where("article_id IN (?)", childArticles).Delete(&models.Note{}).Error; err != nil {
			return nil, err
		}
		if err := tx.Where("folder_id = ?", item.ItemID).Delete(&models.Article{}).Error; err != nil {
			return nil, err
		}
		if err := tx.Delete(&models.Folder{}, "id = ?", item.ItemID).Error; err != nil {
			return nil, err
		}
		if err := s.Logs.Append(tx, item.GroupID, FolderDeletedEntry(actor, item.FolderName)); err != nil {
			return nil, err
		}
		return paths, nil

	case models.ItemArticle:
		// Rows about the article itself match on item_id; rows about
		// its notes match on the denormalized article_id.
		err := scrubItemRows(tx, "(item_type = ? AND item_id = ?) OR article_id = ?",
			models.ItemArticle, item.ItemID, item.ItemID)
		if err != nil {
			return nil, err
		}

		var article models.Article
		if err := tx.First(&article, "id = ?", item.ItemID).Error; err != nil {
			return nil, itemLookupError(err)
		}
		if err := tx.Where("article_id = ?", item.ItemID).Delete(&models.Tag{}).Error; err != nil {
			return nil, err
		}
		if err := tx.Where("article_id = ?", item.ItemID).Delete(&models.Note{}).Error; err != nil {
			return nil, err
		}
		if err := tx.Delete(&models.Article{}, "id = ?", item.ItemID).Error; err != nil {
			return nil, err
		}
		err = s.Logs.Append(tx, item.GroupID, ArticleDeletedEntry(actor, item.FolderName, item.ArticleName))
		if err != nil {
			return nil, err
		}
		return []string{article.StoragePath}, nil

	case models.ItemNote:
		if err := scrubItemRows(tx, "item_type = ? AND item_id = ?", models.ItemNote, item.ItemID); err != nil {
			return nil, err
		}
		if err := tx.Delete(&models.Note{}, "id = ?", item.ItemID).Error; err != nil {
			return nil, err
		}
		err := s.Logs.Append(tx, item.GroupID, NoteDeletedEntry(actor, item.FolderName, item.ArticleName, item.Name))
		if err != nil {
			return nil, err
		}
		return nil, nil

	default:
		return nil, ErrItemNotFound
	}
}

// scrubItemRows deletes overlay and application rows matching a
// condition over the denormalized ancestry columns, so descendants are
// swept without walking the tree.
func scrubItemRows(tx *gorm.DB, condition string, args ...interface{}) error {
	if err := tx.Where(condition, args...).Delete(&models.PermissionOverlay{}).Error; err != nil {
		return err
	}
	return tx.Where(condition, args...).Delete(&models.DeleteApplication{}).Error
}
