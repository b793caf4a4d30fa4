package handlers

import (
	"net/http"
	"testing"

	"github.com/refhub/backend/internal/models"
)

func defineOverlay(t *testing.T, env *testEnv, token, groupID, userID string, itemType int, itemID string, permission int) *http.Response {
	t.Helper()

	return performJSONRequest(t, env.app, http.MethodPost, "/api/group/permissionDefine",
		map[string]any{
			"group_id":   groupID,
			"user_id":    userID,
			"item_type":  itemType,
			"item_id":    itemID,
			"permission": permission,
		}, authHeaders(token))
}

func TestPermissionDefineScenario(t *testing.T) {
	env := setupTestEnv(t)
	_, leaderToken := createTestUser(t, env.db, "leader@example.com", "leader")
	member, memberToken := createTestUser(t, env.db, "member@example.com", "member")

	groupID := createTestGroup(t, env, leaderToken, "Lab", "research")
	joinGroup(t, env, leaderToken, member, memberToken, groupID)
	_, articleID := createTestArticle(t, env, leaderToken, groupID)
	createTestNote(t, env, leaderToken, articleID, "draft")

	// unaccessible article: the member cannot touch its notes
	resp := defineOverlay(t, env, leaderToken, groupID, member.ID.String(), 2, articleID, 0)
	assertStatus(t, resp, http.StatusOK)
	resp = performJSONRequest(t, env.app, http.MethodPost, "/api/group/newNote",
		map[string]any{"article_id": articleID, "title": "blocked", "content": ""}, authHeaders(memberToken))
	assertEnvelopeError(t, resp, http.StatusForbidden)

	// editable is the exact inverse: the overlay row disappears and
	// access is back to full
	resp = defineOverlay(t, env, leaderToken, groupID, member.ID.String(), 2, articleID, 2)
	assertStatus(t, resp, http.StatusOK)

	var overlayCount int64
	env.db.Model(&models.PermissionOverlay{}).
		Where("user_id = ? AND item_type = ? AND item_id = ?", member.ID, models.ItemArticle, articleID).
		Count(&overlayCount)
	if overlayCount != 0 {
		t.Fatalf("expected no overlay row after editable define, got %d", overlayCount)
	}

	resp = performJSONRequest(t, env.app, http.MethodPost, "/api/group/newNote",
		map[string]any{"article_id": articleID, "title": "allowed", "content": ""}, authHeaders(memberToken))
	assertStatus(t, resp, http.StatusCreated)
}

func TestPermissionDefineRejectsPrivilegedSubjects(t *testing.T) {
	env := setupTestEnv(t)
	leader, leaderToken := createTestUser(t, env.db, "leader@example.com", "leader")
	admin, adminToken := createTestUser(t, env.db, "admin@example.com", "admin")

	groupID := createTestGroup(t, env, leaderToken, "Lab", "")
	joinGroup(t, env, leaderToken, admin, adminToken, groupID)
	resp := performJSONRequest(t, env.app, http.MethodPost, "/api/group/modifyAdminList",
		map[string]any{"group_id": groupID, "user_id": admin.ID.String(), "add_admin": true}, authHeaders(leaderToken))
	assertStatus(t, resp, http.StatusOK)

	_, articleID := createTestArticle(t, env, leaderToken, groupID)

	for _, subject := range []string{leader.ID.String(), admin.ID.String()} {
		resp := defineOverlay(t, env, leaderToken, groupID, subject, 2, articleID, 0)
		assertEnvelopeError(t, resp, http.StatusForbidden)
	}

	var overlayCount int64
	env.db.Model(&models.PermissionOverlay{}).Where("group_id = ?", groupID).Count(&overlayCount)
	if overlayCount != 0 {
		t.Fatalf("expected no overlay rows for privileged subjects, got %d", overlayCount)
	}
}

func TestPermissionDefineRequiresModerator(t *testing.T) {
	env := setupTestEnv(t)
	_, leaderToken := createTestUser(t, env.db, "leader@example.com", "leader")
	memberA, memberAToken := createTestUser(t, env.db, "a@example.com", "memberA")
	memberB, memberBToken := createTestUser(t, env.db, "b@example.com", "memberB")

	groupID := createTestGroup(t, env, leaderToken, "Lab", "")
	joinGroup(t, env, leaderToken, memberA, memberAToken, groupID)
	joinGroup(t, env, leaderToken, memberB, memberBToken, groupID)
	_, articleID := createTestArticle(t, env, leaderToken, groupID)

	resp := defineOverlay(t, env, memberAToken, groupID, memberB.ID.String(), 2, articleID, 0)
	assertEnvelopeError(t, resp, http.StatusForbidden)
}

func TestPermissionDefineRejectsFolders(t *testing.T) {
	env := setupTestEnv(t)
	_, leaderToken := createTestUser(t, env.db, "leader@example.com", "leader")
	member, memberToken := createTestUser(t, env.db, "member@example.com", "member")

	groupID := createTestGroup(t, env, leaderToken, "Lab", "")
	joinGroup(t, env, leaderToken, member, memberToken, groupID)
	folderID, _ := createTestArticle(t, env, leaderToken, groupID)

	resp := defineOverlay(t, env, leaderToken, groupID, member.ID.String(), 1, folderID, 0)
	assertEnvelopeError(t, resp, http.StatusBadRequest)
}

func TestGetPermissionsBuckets(t *testing.T) {
	env := setupTestEnv(t)
	_, leaderToken := createTestUser(t, env.db, "leader@example.com", "leader")
	denied, deniedToken := createTestUser(t, env.db, "denied@example.com", "denied")
	reader, readerToken := createTestUser(t, env.db, "reader@example.com", "reader")
	writer, writerToken := createTestUser(t, env.db, "writer@example.com", "writer")

	groupID := createTestGroup(t, env, leaderToken, "Lab", "")
	for _, join := range []struct {
		user  *models.User
		token string
	}{{denied, deniedToken}, {reader, readerToken}, {writer, writerToken}} {
		joinGroup(t, env, leaderToken, join.user, join.token, groupID)
	}
	_, articleID := createTestArticle(t, env, leaderToken, groupID)

	assertStatus(t, defineOverlay(t, env, leaderToken, groupID, denied.ID.String(), 2, articleID, 0), http.StatusOK)
	assertStatus(t, defineOverlay(t, env, leaderToken, groupID, reader.ID.String(), 2, articleID, 1), http.StatusOK)

	resp := performRequest(t, env.app, http.MethodGet,
		"/api/group/getPermissions?group_id="+groupID+"&item_type=2&item_id="+articleID, nil, authHeaders(leaderToken))
	assertStatus(t, resp, http.StatusOK)
	data := dataField(t, decodeJSONMap(t, resp))

	expect := map[string]string{
		"unaccessible": denied.ID.String(),
		"read_only":    reader.ID.String(),
		"writeable":    writer.ID.String(),
	}
	for bucket, userID := range expect {
		people := data[bucket].([]interface{})
		if len(people) != 1 {
			t.Fatalf("expected one person in %s, got %v", bucket, people)
		}
		if people[0].(map[string]interface{})["id"] != userID {
			t.Fatalf("wrong person in %s bucket: %v", bucket, people)
		}
	}
}
