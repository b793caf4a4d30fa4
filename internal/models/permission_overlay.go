package models

import "github.com/google/uuid"

// Permission is the wire value of permissionDefine.
type Permission int

const (
	PermissionUnaccessible Permission = 0
	PermissionReadOnly     Permission = 1
	PermissionEditable     Permission = 2
)

func (p Permission) Valid() bool {
	return p == PermissionUnaccessible || p == PermissionReadOnly || p == PermissionEditable
}

// Access is the effective right a user holds on an item. Default-open:
// no overlay row means Full.
type Access int

const (
	AccessDenied Access = iota
	AccessReadOnly
	AccessFull
)

// PermissionOverlay restricts a single Member on a single article or
// note. Accessible=true means read-only, false means no view at all;
// full access is represented by row absence. FolderID and ArticleID
// denormalize the ancestry so cascade cleanup on hard delete can match
// overlays of descendants without walking the tree.
type PermissionOverlay struct {
	BaseModel
	GroupID    uuid.UUID  `json:"groupID" gorm:"type:uuid;not null;index"`
	UserID     uuid.UUID  `json:"userID" gorm:"type:uuid;not null;uniqueIndex:idx_overlay_subject_item"`
	ItemType   ItemType   `json:"itemType" gorm:"not null;uniqueIndex:idx_overlay_subject_item"`
	ItemID     uuid.UUID  `json:"itemID" gorm:"type:uuid;not null;uniqueIndex:idx_overlay_subject_item;index"`
	Accessible bool       `json:"accessible" gorm:"not null"`
	FolderID   *uuid.UUID `json:"folderID,omitempty" gorm:"type:uuid;index"`
	ArticleID  *uuid.UUID `json:"articleID,omitempty" gorm:"type:uuid;index"`
}

// Access converts the stored row to the effective right it encodes.
func (o *PermissionOverlay) Access() Access {
	if o.Accessible {
		return AccessReadOnly
	}
	return AccessDenied
}
