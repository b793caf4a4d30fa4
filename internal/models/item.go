package models

import "github.com/google/uuid"

// ItemType discriminates the three node kinds of the document tree in
// overlay, application and deletion requests.
type ItemType int

const (
	ItemFolder  ItemType = 1
	ItemArticle ItemType = 2
	ItemNote    ItemType = 3
)

func (t ItemType) Valid() bool {
	return t == ItemFolder || t == ItemArticle || t == ItemNote
}

// Folder is owned by exactly one of (UserID, GroupID); the database
// enforces that with a CHECK constraint. Visible=false is the personal
// recycle-bin soft delete, orthogonal to group permission overlays.
type Folder struct {
	BaseModel
	Name    string     `json:"name" gorm:"type:varchar(30);not null"`
	UserID  *uuid.UUID `json:"userID,omitempty" gorm:"type:uuid;index"`
	GroupID *uuid.UUID `json:"groupID,omitempty" gorm:"type:uuid;index"`
	Visible bool       `json:"visible" gorm:"not null;default:true"`

	Articles []Article `json:"articles,omitempty" gorm:"foreignKey:FolderID"`
}

type Article struct {
	BaseModel
	Name        string     `json:"name" gorm:"type:varchar(30);not null"`
	FolderID    uuid.UUID  `json:"folderID" gorm:"type:uuid;not null;index"`
	StoragePath string     `json:"-" gorm:"type:text;not null"`
	UserID      *uuid.UUID `json:"userID,omitempty" gorm:"type:uuid;index"`
	GroupID     *uuid.UUID `json:"groupID,omitempty" gorm:"type:uuid;index"`
	Visible     bool       `json:"visible" gorm:"not null;default:true"`

	Notes []Note `json:"notes,omitempty" gorm:"foreignKey:ArticleID"`
	Tags  []Tag  `json:"tags,omitempty" gorm:"foreignKey:ArticleID"`
}

type Note struct {
	BaseModel
	Title     string     `json:"title" gorm:"type:varchar(100);not null"`
	Content   string     `json:"content" gorm:"type:text;not null"`
	ArticleID uuid.UUID  `json:"articleID" gorm:"type:uuid;not null;index"`
	UserID    *uuid.UUID `json:"userID,omitempty" gorm:"type:uuid;index"`
	GroupID   *uuid.UUID `json:"groupID,omitempty" gorm:"type:uuid;index"`
	Visible   bool       `json:"visible" gorm:"not null;default:true"`
}

type Tag struct {
	BaseModel
	Content   string    `json:"content" gorm:"type:varchar(30);not null"`
	ArticleID uuid.UUID `json:"articleID" gorm:"type:uuid;not null;index"`
}
