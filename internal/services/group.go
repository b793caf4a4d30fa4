package services

import (
	"errors"

	"github.com/google/uuid"
	"github.com/refhub/backend/internal/models"
	"github.com/refhub/backend/internal/storage"
	"gorm.io/gorm"
)

// GroupService orchestrates the group lifecycle: creation, basic-info
// edits and disbanding. It coordinates the other services' tables
// inside single transactions and leaves physical file removal to the
// caller (the database and the object store are not transactionally
// linked).
type GroupService struct {
	DB   *gorm.DB
	Logs *GroupLogService
}

func NewGroupService(db *gorm.DB, logs *GroupLogService) *GroupService {
	return &GroupService{DB: db, Logs: logs}
}

// Create inserts the group, the leader's membership row and the
// creation log entry in one transaction. The leader always has an
// explicit membership row; no query special-cases them.
func (s *GroupService) Create(leader *models.User, name, description, avatarPath string) (*models.Group, error) {
	if avatarPath == "" {
		avatarPath = storage.DefaultGroupAvatar
	}
	group := models.Group{
		LeaderID:    leader.ID,
		Name:        name,
		Description: description,
		AvatarPath:  avatarPath,
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&group).Error; err != nil {
			return err
		}
		membership := models.Membership{
			UserID:  leader.ID,
			GroupID: group.ID,
			Level:   models.LevelLeader,
		}
		if err := tx.Create(&membership).Error; err != nil {
			return err
		}
		return s.Logs.Append(tx, group.ID, GroupCreatedEntry(leader.ID))
	})
	if err != nil {
		return nil, err
	}
	return &group, nil
}

type BasicInfo struct {
	Name        string `json:"name"`
	Description string `json:"desc"`
	Avatar      string `json:"avatar"`
}

func (s *GroupService) BasicInfo(groupID uuid.UUID) (*BasicInfo, error) {
	var group models.Group
	if err := s.DB.First(&group, "id = ?", groupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	return &BasicInfo{Name: group.Name, Description: group.Description, Avatar: group.AvatarPath}, nil
}

// ModifyBasicInfo updates name/description/avatar and logs the edit.
// Returns the previous avatar path so the caller can unlink the old
// object after commit when it was replaced.
func (s *GroupService) ModifyBasicInfo(actor *models.User, groupID uuid.UUID, name, description, avatarPath *string) (string, error) {
	level, err := levelIn(s.DB, groupID, actor.ID)
	if err != nil {
		return "", err
	}
	if !level.CanModerate() {
		return "", ErrInsufficientLevel
	}

	var group models.Group
	if err := s.DB.First(&group, "id = ?", groupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrGroupNotFound
		}
		return "", err
	}
	oldAvatar := group.AvatarPath

	updates := map[string]interface{}{}
	if name != nil {
		updates["name"] = *name
	}
	if description != nil {
		updates["description"] = *description
	}
	if avatarPath != nil {
		updates["avatar_path"] = *avatarPath
	}
	if len(updates) == 0 {
		return oldAvatar, nil
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Group{}).Where("id = ?", groupID).Updates(updates).Error
		if err != nil {
			return err
		}
		return s.Logs.Append(tx, groupID, InfoEditedEntry(actor.ID))
	})
	if err != nil {
		return "", err
	}
	return oldAvatar, nil
}

// DisbandResult carries the storage objects whose physical removal is
// due after the commit: every child article file plus the group avatar
// (the shared default is filtered out by the storage client).
type DisbandResult struct {
	ArticlePaths []string
	AvatarPath   string
}

// Disband removes the group and everything under it. Leader only.
func (s *GroupService) Disband(actor *models.User, groupID uuid.UUID) (*DisbandResult, error) {
	var group models.Group
	if err := s.DB.First(&group, "id = ?", groupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}
	if group.LeaderID != actor.ID {
		return nil, ErrOnlyLeader
	}

	result := &DisbandResult{AvatarPath: group.AvatarPath}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Article{}).
			Where("group_id = ?", groupID).
			Pluck("storage_path", &result.ArticlePaths).Error
		if err != nil {
			return err
		}

		groupArticles := tx.Model(&models.Article{}).Select("id").Where("group_id = ?", groupID)
		if err := tx.Where("article_id IN (?)", groupArticles).Delete(&models.Tag{}).Error; err != nil {
			return err
		}
		for _, model := range []interface{}{
			&models.Note{},
			&models.Article{},
			&models.Folder{},
			&models.PermissionOverlay{},
			&models.DeleteApplication{},
			&models.GroupLog{},
			&models.Membership{},
		} {
			if err := tx.Where("group_id = ?", groupID).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Group{}, "id = ?", groupID).Error
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
