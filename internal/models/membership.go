package models

import "github.com/google/uuid"

// MemberLevel is the authorization tier inside a group. The integer
// values are part of the API contract (getMyLevel and friends).
type MemberLevel int

const (
	LevelLeader    MemberLevel = 1
	LevelAdmin     MemberLevel = 2
	LevelMember    MemberLevel = 3
	LevelNotMember MemberLevel = 4 // sentinel, never stored
)

func (l MemberLevel) String() string {
	switch l {
	case LevelLeader:
		return "leader"
	case LevelAdmin:
		return "admin"
	case LevelMember:
		return "member"
	case LevelNotMember:
		return "not_member"
	default:
		return "unknown"
	}
}

// CanModerate reports whether the level may approve deletions, define
// permission overlays and manage ordinary members.
func (l MemberLevel) CanModerate() bool {
	return l == LevelLeader || l == LevelAdmin
}

// Membership links a user to a group at a level. Every participant has
// a row, the leader included, so membership queries never special-case
// the leader.
type Membership struct {
	BaseModel
	UserID  uuid.UUID   `json:"userID" gorm:"type:uuid;not null;index;uniqueIndex:idx_user_group"`
	GroupID uuid.UUID   `json:"groupID" gorm:"type:uuid;not null;index;uniqueIndex:idx_user_group"`
	Level   MemberLevel `json:"level" gorm:"not null;default:3"`

	User  User  `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Group Group `json:"group,omitempty" gorm:"foreignKey:GroupID"`
}
