package models

import "github.com/google/uuid"

// DeleteApplication is a Member's pending request to hard-delete an
// item they cannot delete directly. At most one open application per
// (user, item); duplicates are absorbed. FolderID/ArticleID denormalize
// the ancestry for display and for cascade cleanup.
type DeleteApplication struct {
	BaseModel
	GroupID   uuid.UUID  `json:"groupID" gorm:"type:uuid;not null;index"`
	UserID    uuid.UUID  `json:"userID" gorm:"type:uuid;not null;uniqueIndex:idx_application_user_item"`
	ItemType  ItemType   `json:"itemType" gorm:"not null;uniqueIndex:idx_application_user_item"`
	ItemID    uuid.UUID  `json:"itemID" gorm:"type:uuid;not null;uniqueIndex:idx_application_user_item;index"`
	FolderID  *uuid.UUID `json:"folderID,omitempty" gorm:"type:uuid;index"`
	ArticleID *uuid.UUID `json:"articleID,omitempty" gorm:"type:uuid;index"`

	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
