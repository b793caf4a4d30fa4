package models

import "github.com/google/uuid"

// Group is a collaboration workspace. LeaderID is immutable after
// creation; ownership transfer is not supported.
type Group struct {
	BaseModel
	LeaderID    uuid.UUID `json:"leaderID" gorm:"type:uuid;not null;index"`
	Name        string    `json:"name" gorm:"type:varchar(30);not null"`
	Description string    `json:"description" gorm:"type:varchar(200);not null"`
	AvatarPath  string    `json:"avatarPath" gorm:"type:text;not null"`

	Leader      User         `json:"-" gorm:"foreignKey:LeaderID"`
	Memberships []Membership `json:"-" gorm:"foreignKey:GroupID"`
	Folders     []Folder     `json:"-" gorm:"foreignKey:GroupID"`
}
