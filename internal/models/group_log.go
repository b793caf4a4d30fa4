package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GroupLogType enumerates every auditable group action. The integer
// values are a wire contract consumed by the frontend renderer; do not
// renumber.
type GroupLogType int

const (
	LogGroupCreated       GroupLogType = 0
	LogMemberJoined       GroupLogType = 1
	LogInfoEdited         GroupLogType = 2
	LogMemberPromoted     GroupLogType = 3
	LogMemberDemoted      GroupLogType = 4
	LogMemberRemoved      GroupLogType = 5
	LogMemberLeft         GroupLogType = 6
	LogFolderCreated      GroupLogType = 7
	LogArticleCreated     GroupLogType = 8
	LogNoteCreated        GroupLogType = 9
	LogFolderRenamed      GroupLogType = 10
	LogArticleRenamed     GroupLogType = 11
	LogTagsChanged        GroupLogType = 12
	LogNoteTitleChanged   GroupLogType = 13
	LogNoteContentChanged GroupLogType = 14
	LogFolderDeleted      GroupLogType = 15
	LogArticleDeleted     GroupLogType = 16
	LogNoteDeleted        GroupLogType = 17
)

func (t GroupLogType) Valid() bool {
	return t >= LogGroupCreated && t <= LogNoteDeleted
}

// GroupLog is an append-only record of one mutating group action. It
// does not use BaseModel because log rows are never updated; they are
// removed only when the whole group is disbanded. Details holds the
// sparse per-type context (names, old/new values, tag snapshots); the
// populated subset is fixed per Type and materialized by the typed
// constructors in the grouplog service.
type GroupLog struct {
	ID        uuid.UUID              `json:"id" gorm:"type:uuid;primaryKey"`
	GroupID   uuid.UUID              `json:"groupID" gorm:"type:uuid;not null;index"`
	Type      GroupLogType           `json:"type" gorm:"not null"`
	Person1   uuid.UUID              `json:"person1" gorm:"type:uuid;not null"`
	Person2   *uuid.UUID             `json:"person2,omitempty" gorm:"type:uuid"`
	Details   map[string]interface{} `json:"details,omitempty" gorm:"type:jsonb;serializer:json"`
	CreatedAt time.Time              `json:"createdAt" gorm:"not null;index"`
}

func (l *GroupLog) BeforeCreate(_ *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	return nil
}

func (GroupLog) TableName() string {
	return "group_logs"
}
