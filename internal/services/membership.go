package services

import (
	"errors"

	"github.com/google/uuid"
	"github.com/refhub/backend/internal/models"
	"github.com/refhub/backend/pkg/logger"
	"gorm.io/gorm"
)

// MembershipService owns the user-group relation: levels, joining,
// promotion and the cascade that scrubs a departing member's overlay
// and application rows.
type MembershipService struct {
	DB   *gorm.DB
	Logs *GroupLogService
}

func NewMembershipService(db *gorm.DB, logs *GroupLogService) *MembershipService {
	return &MembershipService{DB: db, Logs: logs}
}

// Level resolves a user's tier in a group; LevelNotMember when no
// membership row exists.
func (s *MembershipService) Level(groupID, userID uuid.UUID) (models.MemberLevel, error) {
	return levelIn(s.DB, groupID, userID)
}

func levelIn(db *gorm.DB, groupID, userID uuid.UUID) (models.MemberLevel, error) {
	var membership models.Membership
	err := db.First(&membership, "group_id = ? AND user_id = ?", groupID, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.LevelNotMember, nil
	}
	if err != nil {
		return models.LevelNotMember, err
	}
	return membership.Level, nil
}

// Enter adds the user as an ordinary member. Any existing membership,
// the leader's included, is a conflict.
func (s *MembershipService) Enter(user *models.User, groupID uuid.UUID) error {
	var group models.Group
	if err := s.DB.First(&group, "id = ?", groupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGroupNotFound
		}
		return err
	}

	level, err := s.Level(groupID, user.ID)
	if err != nil {
		return err
	}
	if level != models.LevelNotMember {
		return ErrAlreadyInGroup
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		membership := models.Membership{
			UserID:  user.ID,
			GroupID: groupID,
			Level:   models.LevelMember,
		}
		if err := tx.Create(&membership).Error; err != nil {
			return err
		}
		return s.Logs.Append(tx, groupID, MemberJoinedEntry(user.ID))
	})
}

// SetAdmin promotes the target to admin or demotes them back to
// member. Promotion clears any overlay rows for the target: an admin
// cannot be overlay-restricted. Demotion never creates overlays.
func (s *MembershipService) SetAdmin(actor *models.User, groupID, targetID uuid.UUID, addAdmin bool) error {
	actorLevel, err := s.Level(groupID, actor.ID)
	if err != nil {
		return err
	}
	if actorLevel != models.LevelLeader {
		return ErrOnlyLeader
	}

	targetLevel, err := s.Level(groupID, targetID)
	if err != nil {
		return err
	}
	if targetLevel == models.LevelNotMember {
		return ErrNotInGroup
	}
	if targetLevel == models.LevelLeader {
		return ErrLeaderImmutable
	}

	newLevel := models.LevelMember
	entry := MemberDemotedEntry(targetID)
	if addAdmin {
		newLevel = models.LevelAdmin
		entry = MemberPromotedEntry(targetID)
	}
	if targetLevel == newLevel {
		return nil
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Membership{}).
			Where("group_id = ? AND user_id = ?", groupID, targetID).
			Update("level", newLevel).Error
		if err != nil {
			return err
		}
		if addAdmin {
			err := tx.Where("group_id = ? AND user_id = ?", groupID, targetID).
				Delete(&models.PermissionOverlay{}).Error
			if err != nil {
				return err
			}
		}
		return s.Logs.Append(tx, groupID, entry)
	})
}

// Remove kicks the target out. Idempotent: removing an absent member
// succeeds as a no-op without writing a log entry.
func (s *MembershipService) Remove(actor *models.User, groupID, targetID uuid.UUID) error {
	actorLevel, err := s.Level(groupID, actor.ID)
	if err != nil {
		return err
	}
	if !actorLevel.CanModerate() {
		return ErrInsufficientLevel
	}

	targetLevel, err := s.Level(groupID, targetID)
	if err != nil {
		return err
	}
	if targetLevel == models.LevelNotMember {
		return nil
	}
	if targetLevel == models.LevelLeader {
		return ErrLeaderImmutable
	}
	if actorLevel == models.LevelAdmin && targetLevel == models.LevelAdmin {
		return ErrInsufficientLevel
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := scrubMemberRows(tx, groupID, targetID); err != nil {
			return err
		}
		return s.Logs.Append(tx, groupID, MemberRemovedEntry(actor.ID, targetID))
	})
}

// Leave is Remove with the member acting on themselves. The leader
// cannot leave; disbanding is the only exit for them.
func (s *MembershipService) Leave(user *models.User, groupID uuid.UUID) error {
	level, err := s.Level(groupID, user.ID)
	if err != nil {
		return err
	}
	if level == models.LevelNotMember {
		return nil
	}
	if level == models.LevelLeader {
		return ErrLeaderMustDisband
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := scrubMemberRows(tx, groupID, user.ID); err != nil {
			return err
		}
		return s.Logs.Append(tx, groupID, MemberLeftEntry(user.ID))
	})
}

// scrubMemberRows removes the membership plus every overlay and
// pending delete application the member holds in the group.
func scrubMemberRows(tx *gorm.DB, groupID, userID uuid.UUID) error {
	if err := tx.Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.PermissionOverlay{}).Error; err != nil {
		return err
	}
	if err := tx.Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.DeleteApplication{}).Error; err != nil {
		return err
	}
	return tx.Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.Membership{}).Error
}

// PeopleInfo partitions the group's participants by level.
type PeopleInfo struct {
	Leader  models.PersonRef   `json:"leader"`
	Admins  []models.PersonRef `json:"admins"`
	Members []models.PersonRef `json:"members"`
}

func (s *MembershipService) PeopleInfo(groupID uuid.UUID) (*PeopleInfo, error) {
	var memberships []models.Membership
	err := s.DB.Preload("User").
		Where("group_id = ?", groupID).
		Order("created_at ASC").
		Find(&memberships).Error
	if err != nil {
		return nil, err
	}
	if len(memberships) == 0 {
		return nil, ErrGroupNotFound
	}

	info := &PeopleInfo{
		Admins:  []models.PersonRef{},
		Members: []models.PersonRef{},
	}
	for i := range memberships {
		ref := memberships[i].User.Ref()
		switch memberships[i].Level {
		case models.LevelLeader:
			info.Leader = ref
		case models.LevelAdmin:
			info.Admins = append(info.Admins, ref)
		case models.LevelMember:
			info.Members = append(info.Members, ref)
		default:
			logger.Warn("membership_invalid_level", map[string]interface{}{
				"group_id": groupID.String(),
				"user_id":  memberships[i].UserID.String(),
				"level":    int(memberships[i].Level),
			})
		}
	}
	return info, nil
}

// GroupView is the projection of a group in listings.
type GroupView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"desc"`
	Avatar      string `json:"avatar"`
}

// MyGroups lists every group of the caller partitioned by their level.
type MyGroups struct {
	Leader []GroupView `json:"leader"`
	Admin  []GroupView `json:"admin"`
	Member []GroupView `json:"member"`
}

func (s *MembershipService) MyGroups(userID uuid.UUID) (*MyGroups, error) {
	var memberships []models.Membership
	err := s.DB.Preload("Group").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&memberships).Error
	if err != nil {
		return nil, err
	}

	out := &MyGroups{
		Leader: []GroupView{},
		Admin:  []GroupView{},
		Member: []GroupView{},
	}
	for i := range memberships {
		group := memberships[i].Group
		view := GroupView{
			ID:          group.ID.String(),
			Name:        group.Name,
			Description: group.Description,
			Avatar:      group.AvatarPath,
		}
		switch memberships[i].Level {
		case models.LevelLeader:
			out.Leader = append(out.Leader, view)
		case models.LevelAdmin:
			out.Admin = append(out.Admin, view)
		case models.LevelMember:
			out.Member = append(out.Member, view)
		}
	}
	return out, nil
}
