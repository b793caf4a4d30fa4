package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/refhub/backend/internal/models"
	"github.com/refhub/backend/pkg/logger"
	"gorm.io/gorm"
)

// Detail payload keys. Each log type stores exactly the keys its
// renderer reads; the typed constructors below are the only writers.
const (
	detailFolderName  = "folder_name"
	detailArticleName = "article_name"
	detailNoteTitle   = "note_title"
	detailOldName     = "old_name"
	detailNewName     = "new_name"
	detailOldTitle    = "old_title"
	detailNewTitle    = "new_title"
	detailOldContent  = "old_content"
	detailNewContent  = "new_content"
	detailOldTags     = "old_tags"
	detailNewTags     = "new_tags"
)

// LogEntry is a group log record before it is written. Build one with
// the constructors; never assemble the details map by hand.
type LogEntry struct {
	Type    models.GroupLogType
	Person1 uuid.UUID
	Person2 *uuid.UUID
	Details map[string]interface{}
}

func GroupCreatedEntry(actor uuid.UUID) LogEntry {
	return LogEntry{Type: models.LogGroupCreated, Person1: actor}
}

func MemberJoinedEntry(actor uuid.UUID) LogEntry {
	return LogEntry{Type: models.LogMemberJoined, Person1: actor}
}

func InfoEditedEntry(actor uuid.UUID) LogEntry {
	return LogEntry{Type: models.LogInfoEdited, Person1: actor}
}

func MemberPromotedEntry(target uuid.UUID) LogEntry {
	return LogEntry{Type: models.LogMemberPromoted, Person1: target}
}

func MemberDemotedEntry(target uuid.UUID) LogEntry {
	return LogEntry{Type: models.LogMemberDemoted, Person1: target}
}

func MemberRemovedEntry(actor, target uuid.UUID) LogEntry {
	return LogEntry{Type: models.LogMemberRemoved, Person1: actor, Person2: &target}
}

func MemberLeftEntry(actor uuid.UUID) LogEntry {
	return LogEntry{Type: models.LogMemberLeft, Person1: actor}
}

func FolderCreatedEntry(actor uuid.UUID, folderName string) LogEntry {
	return LogEntry{Type: models.LogFolderCreated, Person1: actor, Details: map[string]interface{}{
		detailFolderName: folderName,
	}}
}

func ArticleCreatedEntry(actor uuid.UUID, folderName, articleName string) LogEntry {
	return LogEntry{Type: models.LogArticleCreated, Person1: actor, Details: map[string]interface{}{
		detailFolderName:  folderName,
		detailArticleName: articleName,
	}}
}

func NoteCreatedEntry(actor uuid.UUID, folderName, articleName, noteTitle string) LogEntry {
	return LogEntry{Type: models.LogNoteCreated, Person1: actor, Details: map[string]interface{}{
		detailFolderName:  folderName,
		detailArticleName: articleName,
		detailNoteTitle:   noteTitle,
	}}
}

func FolderRenamedEntry(actor uuid.UUID, oldName, newName string) LogEntry {
	return LogEntry{Type: models.LogFolderRenamed, Person1: actor, Details: map[string]interface{}{
		detailOldName: oldName,
		detailNewName: newName,
	}}
}

func ArticleRenamedEntry(actor uuid.UUID, folderName, oldName, newName string) LogEntry {
	return LogEntry{Type: models.LogArticleRenamed, Person1: actor, Details: map[string]interface{}{
		detailFolderName: folderName,
		detailOldName:    oldName,
		detailNewName:    newName,
	}}
}

func TagsChangedEntry(actor uuid.UUID, folderName, articleName string, oldTags, newTags []string) LogEntry {
	return LogEntry{Type: models.LogTagsChanged, Person1: actor, Details: map[string]interface{}{
		detailFolderName:  folderName,
		detailArticleName: articleName,
		detailOldTags:     oldTags,
		detailNewTags:     newTags,
	}}
}

func NoteTitleChangedEntry(actor uuid.UUID, folderName, articleName, oldTitle, newTitle string) LogEntry {
	return LogEntry{Type: models.LogNoteTitleChanged, Person1: actor, Details: map[string]interface{}{
		detailFolderName:  folderName,
		detailArticleName: articleName,
		detailOldTitle:    oldTitle,
		detailNewTitle:    newTitle,
	}}
}

func NoteContentChangedEntry(actor uuid.UUID, folderName, articleName, noteTitle, oldContent, newContent string) LogEntry {
	return LogEntry{Type: models.LogNoteContentChanged, Person1: actor, Details: map[string]interface{}{
		detailFolderName:  folderName,
		detailArticleName: articleName,
		detailNoteTitle:   noteTitle,
		detailOldContent:  oldContent,
		detailNewContent:  newContent,
	}}
}

func FolderDeletedEntry(actor uuid.UUID, folderName string) LogEntry {
	return LogEntry{Type: models.LogFolderDeleted, Person1: actor, Details: map[string]interface{}{
		detailFolderName: folderName,
	}}
}

func ArticleDeletedEntry(actor uuid.UUID, folderName, articleName string) LogEntry {
	return LogEntry{Type: models.LogArticleDeleted, Person1: actor, Details: map[string]interface{}{
		detailFolderName:  folderName,
		detailArticleName: articleName,
	}}
}

func NoteDeletedEntry(actor uuid.UUID, folderName, articleName, noteTitle string) LogEntry {
	return LogEntry{Type: models.LogNoteDeleted, Person1: actor, Details: map[string]interface{}{
		detailFolderName:  folderName,
		detailArticleName: articleName,
		detailNoteTitle:   noteTitle,
	}}
}

// LogView is the rendered form of one entry. Person names are resolved
// at read time, so historical entries always show current usernames.
type LogView struct {
	ID          string            `json:"id"`
	Type        int               `json:"type"`
	Time        string            `json:"time"`
	Person1     models.PersonRef  `json:"person1"`
	Person2     *models.PersonRef `json:"person2,omitempty"`
	FolderName  string            `json:"folder_name,omitempty"`
	ArticleName string            `json:"article_name,omitempty"`
	NoteTitle   string            `json:"note_title,omitempty"`
	OldName     string            `json:"old_name,omitempty"`
	NewName     string            `json:"new_name,omitempty"`
	OldTitle    string            `json:"old_title,omitempty"`
	NewTitle    string            `json:"new_title,omitempty"`
	OldContent  string            `json:"old_content,omitempty"`
	NewContent  string            `json:"new_content,omitempty"`
	OldTags     []string          `json:"old_tags,omitempty"`
	NewTags     []string          `json:"new_tags,omitempty"`
}

type GroupLogService struct {
	DB *gorm.DB
}

func NewGroupLogService(db *gorm.DB) *GroupLogService {
	return &GroupLogService{DB: db}
}

// Append writes one entry inside the caller's transaction. Every state
// mutation commits its log row atomically with itself; a mutation that
// committed without its entry would silently corrupt the audit trail.
func (s *GroupLogService) Append(tx *gorm.DB, groupID uuid.UUID, entry LogEntry) error {
	row := models.GroupLog{
		GroupID: groupID,
		Type:    entry.Type,
		Person1: entry.Person1,
		Person2: entry.Person2,
		Details: entry.Details,
	}
	return tx.Create(&row).Error
}

// Read returns entries newest-first with the total count. page and
// pageSize of zero disable pagination.
func (s *GroupLogService) Read(groupID uuid.UUID, page, pageSize int) (int64, []LogView, error) {
	var total int64
	if err := s.DB.Model(&models.GroupLog{}).Where("group_id = ?", groupID).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	query := s.DB.Where("group_id = ?", groupID).Order("created_at DESC, id DESC")
	if page > 0 && pageSize > 0 {
		query = query.Offset((page - 1) * pageSize).Limit(pageSize)
	}

	var rows []models.GroupLog
	if err := query.Find(&rows).Error; err != nil {
		return 0, nil, err
	}

	people, err := s.resolvePeople(rows)
	if err != nil {
		return 0, nil, err
	}

	views := make([]LogView, 0, len(rows))
	for _, row := range rows {
		view, ok := renderLog(row, people)
		if !ok {
			logger.Warn("group_log_unknown_type", map[string]interface{}{
				"log_id": row.ID.String(),
				"type":   int(row.Type),
			})
			continue
		}
		views = append(views, view)
	}

	return total, views, nil
}

func (s *GroupLogService) resolvePeople(rows []models.GroupLog) (map[uuid.UUID]models.PersonRef, error) {
	ids := make([]uuid.UUID, 0, len(rows))
	seen := make(map[uuid.UUID]struct{}, len(rows))
	add := func(id uuid.UUID) {
		if _, dup := seen[id]; !dup {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	for _, row := range rows {
		add(row.Person1)
		if row.Person2 != nil {
			add(*row.Person2)
		}
	}

	people := make(map[uuid.UUID]models.PersonRef, len(ids))
	if len(ids) == 0 {
		return people, nil
	}

	var users []models.User
	if err := s.DB.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for i := range users {
		people[users[i].ID] = users[i].Ref()
	}
	return people, nil
}

func renderLog(row models.GroupLog, people map[uuid.UUID]models.PersonRef) (LogView, bool) {
	view := LogView{
		ID:      row.ID.String(),
		Type:    int(row.Type),
		Time:    row.CreatedAt.Format(time.RFC3339),
		Person1: personOrStub(row.Person1, people),
	}
	if row.Person2 != nil {
		second := personOrStub(*row.Person2, people)
		view.Person2 = &second
	}

	switch row.Type {
	case models.LogGroupCreated, models.LogMemberJoined, models.LogInfoEdited,
		models.LogMemberPromoted, models.LogMemberDemoted, models.LogMemberRemoved,
		models.LogMemberLeft:
		// person(s) and time only
	case models.LogFolderCreated, models.LogFolderDeleted:
		view.FolderName = detailString(row.Details, detailFolderName)
	case models.LogArticleCreated, models.LogArticleDeleted:
		view.FolderName = detailString(row.Details, detailFolderName)
		view.ArticleName = detailString(row.Details, detailArticleName)
	case models.LogNoteCreated, models.LogNoteDeleted:
		view.FolderName = detailString(row.Details, detailFolderName)
		view.ArticleName = detailString(row.Details, detailArticleName)
		view.NoteTitle = detailString(row.Details, detailNoteTitle)
	case models.LogFolderRenamed:
		view.OldName = detailString(row.Details, detailOldName)
		view.NewName = detailString(row.Details, detailNewName)
	case models.LogArticleRenamed:
		view.FolderName = detailString(row.Details, detailFolderName)
		view.OldName = detailString(row.Details, detailOldName)
		view.NewName = detailString(row.Details, detailNewName)
	case models.LogTagsChanged:
		view.FolderName = detailString(row.Details, detailFolderName)
		view.ArticleName = detailString(row.Details, detailArticleName)
		view.OldTags = detailStrings(row.Details, detailOldTags)
		view.NewTags = detailStrings(row.Details, detailNewTags)
	case models.LogNoteTitleChanged:
		view.FolderName = detailString(row.Details, detailFolderName)
		view.ArticleName = detailString(row.Details, detailArticleName)
		view.OldTitle = detailString(row.Details, detailOldTitle)
		view.NewTitle = detailString(row.Details, detailNewTitle)
	case models.LogNoteContentChanged:
		view.FolderName = detailString(row.Details, detailFolderName)
		view.ArticleName = detailString(row.Details, detailArticleName)
		view.NoteTitle = detailString(row.Details, detailNoteTitle)
		view.OldContent = detailString(row.Details, detailOldContent)
		view.NewContent = detailString(row.Details, detailNewContent)
	default:
		return LogView{}, false
	}

	return view, true
}

func personOrStub(id uuid.UUID, people map[uuid.UUID]models.PersonRef) models.PersonRef {
	if ref, ok := people[id]; ok {
		return ref
	}
	// User row gone (account deleted); keep the id so the entry stays renderable.
	return models.PersonRef{ID: id.String(), Name: "unknown"}
}

func detailString(details map[string]interface{}, key string) string {
	if details == nil {
		return ""
	}
	value, _ := details[key].(string)
	return value
}

func detailStrings(details map[string]interface{}, key string) []string {
	if details == nil {
		return nil
	}
	switch raw := details[key].(type) {
	case []string:
		return raw
	case []interface{}:
		// JSON round-trip through the serializer yields []interface{}.
		values := make([]string, 0, len(raw))
		for _, item := range raw {
			if s, ok := item.(string); ok {
				values = append(values, s)
			}
		}
		return values
	default:
		return nil
	}
}
