package services

import (
	"errors"

	"github.com/google/uuid"
	"github.com/refhub/backend/internal/models"
	"gorm.io/gorm"
)

// itemRef locates a group item and its ancestry. Only group-owned
// items resolve; personal items are outside the permission machinery.
type itemRef struct {
	GroupID   uuid.UUID
	ItemType  models.ItemType
	ItemID    uuid.UUID
	Name      string // folder name / article name / note title
	FolderID  *uuid.UUID
	ArticleID *uuid.UUID

	FolderName  string
	ArticleName string
}

// resolveItem loads the item row and walks up to its folder. A row
// already gone (racing delete) resolves to ErrItemNotFound so callers
// abort cleanly instead of logging against missing names.
func resolveItem(db *gorm.DB, itemType models.ItemType, itemID uuid.UUID) (*itemRef, error) {
	switch itemType {
	case models.ItemFolder:
		var folder models.Folder
		if err := db.First(&folder, "id = ?", itemID).Error; err != nil {
			return nil, itemLookupError(err)
		}
		if folder.GroupID == nil {
			return nil, ErrItemNotFound
		}
		return &itemRef{
			GroupID:    *folder.GroupID,
			ItemType:   models.ItemFolder,
			ItemID:     folder.ID,
			Name:       folder.Name,
			FolderName: folder.Name,
		}, nil

	case models.ItemArticle:
		var article models.Article
		if err := db.First(&article, "id = ?", itemID).Error; err != nil {
			return nil, itemLookupError(err)
		}
		if article.GroupID == nil {
			return nil, ErrItemNotFound
		}
		var folder models.Folder
		if err := db.First(&folder, "id = ?", article.FolderID).Error; err != nil {
			return nil, itemLookupError(err)
		}
		return &itemRef{
			GroupID:     *article.GroupID,
			ItemType:    models.ItemArticle,
			ItemID:      article.ID,
			Name:        article.Name,
			FolderID:    &folder.ID,
			FolderName:  folder.Name,
			ArticleName: article.Name,
		}, nil

	case models.ItemNote:
		var note models.Note
		if err := db.First(&note, "id = ?", itemID).Error; err != nil {
			return nil, itemLookupError(err)
		}
		if note.GroupID == nil {
			return nil, ErrItemNotFound
		}
		var article models.Article
		if err := db.First(&article, "id = ?", note.ArticleID).Error; err != nil {
			return nil, itemLookupError(err)
		}
		var folder models.Folder
		if err := db.First(&folder, "id = ?", article.FolderID).Error; err != nil {
			return nil, itemLookupError(err)
		}
		return &itemRef{
			GroupID:     *note.GroupID,
			ItemType:    models.ItemNote,
			ItemID:      note.ID,
			Name:        note.Title,
			FolderID:    &folder.ID,
			ArticleID:   &article.ID,
			FolderName:  folder.Name,
			ArticleName: article.Name,
		}, nil

	default:
		return nil, ErrItemNotFound
	}
}

func itemLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrItemNotFound
	}
	return err
}
