package services

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/refhub/backend/internal/models"
	"github.com/refhub/backend/pkg/logger"
	"gorm.io/gorm"
)

// PermissionService manages per-(member, item) visibility overrides on
// articles and notes. Default-open: without an overlay row a member has
// full edit access; admins and the leader are always fully privileged
// and can never be the subject of an overlay.
type PermissionService struct {
	DB *gorm.DB
}

func NewPermissionService(db *gorm.DB) *PermissionService {
	return &PermissionService{DB: db}
}

// Define sets, tightens or clears the overlay for one member on one
// item. Editable removes the row (the default state); Unaccessible and
// ReadOnly upsert it. Redefining replaces the prior row, so concurrent
// writers settle on last-write-wins over the unique subject+item key.
func (s *PermissionService) Define(actor *models.User, groupID, subjectID uuid.UUID, itemType models.ItemType, itemID uuid.UUID, permission models.Permission) error {
	if itemType != models.ItemArticle && itemType != models.ItemNote {
		return &DomainError{Status: fiber.StatusBadRequest, Message: "permissions apply to articles and notes only"}
	}
	if !permission.Valid() {
		return &DomainError{Status: fiber.StatusBadRequest, Message: "invalid permission value"}
	}

	actorLevel, err := levelIn(s.DB, groupID, actor.ID)
	if err != nil {
		return err
	}
	if !actorLevel.CanModerate() {
		return ErrInsufficientLevel
	}

	subjectLevel, err := levelIn(s.DB, groupID, subjectID)
	if err != nil {
		return err
	}
	if subjectLevel == models.LevelNotMember {
		return ErrNotInGroup
	}
	if subjectLevel != models.LevelMember {
		return ErrInvalidTarget
	}

	item, err := resolveItem(s.DB, itemType, itemID)
	if err != nil {
		return err
	}
	if item.GroupID != groupID {
		return ErrItemNotFound
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND item_type = ? AND item_id = ?", subjectID, itemType, itemID).
			Delete(&models.PermissionOverlay{}).Error
		if err != nil {
			return err
		}
		if permission == models.PermissionEditable {
			return nil
		}
		overlay := models.PermissionOverlay{
			GroupID:    groupID,
			UserID:     subjectID,
			ItemType:   itemType,
			ItemID:     itemID,
			Accessible: permission == models.PermissionReadOnly,
			FolderID:   item.FolderID,
			ArticleID:  item.ArticleID,
		}
		return tx.Create(&overlay).Error
	})
	if err != nil {
		return err
	}

	logger.InfoWithUser(actor.ID.String(), "permission_defined", map[string]interface{}{
		"group_id":   groupID.String(),
		"subject_id": subjectID.String(),
		"item_type":  int(itemType),
		"item_id":    itemID.String(),
		"permission": int(permission),
	})
	return nil
}

// Check resolves the effective access the user holds on the item.
func (s *PermissionService) Check(userID uuid.UUID, itemType models.ItemType, itemID uuid.UUID) (models.Access, error) {
	item, err := resolveItem(s.DB, itemType, itemID)
	if err != nil {
		return models.AccessDenied, err
	}
	return s.checkResolved(userID, item)
}

func (s *PermissionService) checkResolved(userID uuid.UUID, item *itemRef) (models.Access, error) {
	level, err := levelIn(s.DB, item.GroupID, userID)
	if err != nil {
		return models.AccessDenied, err
	}
	switch level {
	case models.LevelLeader, models.LevelAdmin:
		return models.AccessFull, nil
	case models.LevelNotMember:
		return models.AccessDenied, nil
	}

	var overlay models.PermissionOverlay
	err = s.DB.First(&overlay, "user_id = ? AND item_type = ? AND item_id = ?", userID, item.ItemType, item.ItemID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.AccessFull, nil
	}
	if err != nil {
		return models.AccessDenied, err
	}
	return overlay.Access(), nil
}

// PermissionBuckets partitions the group's ordinary members by their
// access to one item.
type PermissionBuckets struct {
	Unaccessible []models.PersonRef `json:"unaccessible"`
	ReadOnly     []models.PersonRef `json:"read_only"`
	Writeable    []models.PersonRef `json:"writeable"`
}

// ListForItem enumerates all Member-level users once and partitions
// them with a single overlay query, staying O(members) regardless of
// group size.
func (s *PermissionService) ListForItem(groupID uuid.UUID, itemType models.ItemType, itemID uuid.UUID) (*PermissionBuckets, error) {
	item, err := resolveItem(s.DB, itemType, itemID)
	if err != nil {
		return nil, err
	}
	if item.GroupID != groupID {
		return nil, ErrItemNotFound
	}

	var memberships []models.Membership
	err = s.DB.Preload("User").
		Where("group_id = ? AND level = ?", groupID, models.LevelMember).
		Order("created_at ASC").
		Find(&memberships).Error
	if err != nil {
		return nil, err
	}

	var overlays []models.PermissionOverlay
	err = s.DB.Where("group_id = ? AND item_type = ? AND item_id = ?", groupID, itemType, itemID).
		Find(&overlays).Error
	if err != nil {
		return nil, err
	}
	access := make(map[uuid.UUID]models.Access, len(overlays))
	for i := range overlays {
		access[overlays[i].UserID] = overlays[i].Access()
	}

	buckets := &PermissionBuckets{
		Unaccessible: []models.PersonRef{},
		ReadOnly:     []models.PersonRef{},
		Writeable:    []models.PersonRef{},
	}
	for i := range memberships {
		ref := memberships[i].User.Ref()
		switch level, ok := access[memberships[i].UserID]; {
		case !ok:
			buckets.Writeable = append(buckets.Writeable, ref)
		case level == models.AccessReadOnly:
			buckets.ReadOnly = append(buckets.ReadOnly, ref)
		default:
			buckets.Unaccessible = append(buckets.Unaccessible, ref)
		}
	}
	return buckets, nil
}
