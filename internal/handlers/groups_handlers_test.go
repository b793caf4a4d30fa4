package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/refhub/backend/internal/models"
)

func createTestGroup(t *testing.T, env *testEnv, token, name, description string) string {
	t.Helper()

	resp := performMultipartRequest(t, env.app, http.MethodPost, "/api/group/create",
		map[string]string{"name": name, "desc": description}, nil, authHeaders(token))
	assertStatus(t, resp, http.StatusCreated)

	data := dataField(t, decodeJSONMap(t, resp))
	groupID, ok := data["group_id"].(string)
	if !ok || groupID == "" {
		t.Fatalf("expected group_id in response, got %v", data)
	}
	return groupID
}

// joinGroup walks the full invite flow: the leader issues a code for
// the member's email, the member redeems it.
func joinGroup(t *testing.T, env *testEnv, leaderToken string, member *models.User, memberToken, groupID string) {
	t.Helper()

	resp := performJSONRequest(t, env.app, http.MethodPost, "/api/group/genInviteCode",
		map[string]any{"group_id": groupID, "email": member.Email}, authHeaders(leaderToken))
	assertStatus(t, resp, http.StatusOK)
	code := dataField(t, decodeJSONMap(t, resp))["invite_code"].(string)

	resp = performJSONRequest(t, env.app, http.MethodPost, "/api/group/enterGroup",
		map[string]any{"invite_code": code}, authHeaders(memberToken))
	assertStatus(t, resp, http.StatusOK)
}

func TestCreateGroupAndBasicInfo(t *testing.T) {
	env := setupTestEnv(t)
	leader, token := createTestUser(t, env.db, "leader@example.com", "leader")

	groupID := createTestGroup(t, env, token, "Lab", "research")

	resp := performRequest(t, env.app, http.MethodGet, "/api/group/getBasicInfo?group_id="+groupID, nil, authHeaders(token))
	assertStatus(t, resp, http.StatusOK)
	data := dataField(t, decodeJSONMap(t, resp))
	if data["name"] != "Lab" || data["desc"] != "research" {
		t.Fatalf("unexpected basic info: %v", data)
	}

	// the leader holds an explicit membership row
	var membership models.Membership
	err := env.db.First(&membership, "group_id = ? AND user_id = ?", groupID, leader.ID).Error
	if err != nil {
		t.Fatalf("expected leader membership row: %v", err)
	}
	if membership.Level != models.LevelLeader {
		t.Fatalf("expected leader level, got %d", membership.Level)
	}

	// creation is logged as type 0
	var logRow models.GroupLog
	if err := env.db.First(&logRow, "group_id = ? AND type = ?", groupID, models.LogGroupCreated).Error; err != nil {
		t.Fatalf("expected creation log entry: %v", err)
	}
	if logRow.Person1 != leader.ID {
		t.Fatalf("creation log names wrong actor")
	}
}

func TestCreateGroupValidation(t *testing.T) {
	env := setupTestEnv(t)
	_, token := createTestUser(t, env.db, "leader@example.com", "leader")

	resp := performMultipartRequest(t, env.app, http.MethodPost, "/api/group/create",
		map[string]string{"name": strings.Repeat("x", 31)}, nil, authHeaders(token))
	assertEnvelopeError(t, resp, http.StatusBadRequest)

	resp = performMultipartRequest(t, env.app, http.MethodPost, "/api/group/create",
		map[string]string{"name": "ok", "desc": strings.Repeat("d", 201)}, nil, authHeaders(token))
	assertEnvelopeError(t, resp, http.StatusBadRequest)
}

func TestInviteRoundTrip(t *testing.T) {
	env := setupTestEnv(t)
	_, leaderToken := createTestUser(t, env.db, "leader@example.com", "leader")
	member, memberToken := createTestUser(t, env.db, "member@example.com", "member")

	groupID := createTestGroup(t, env, leaderToken, "Lab", "")

	resp := performJSONRequest(t, env.app, http.MethodPost, "/api/group/genInviteCode",
		map[string]any{"group_id": groupID, "email": member.Email}, authHeaders(leaderToken))
	assertStatus(t, resp, http.StatusOK)
	code := dataField(t, decodeJSONMap(t, resp))["invite_code"].(string)

	resp = performJSONRequest(t, env.app, http.MethodPost, "/api/group/enterGroup",
		map[string]any{"invite_code": code}, authHeaders(memberToken))
	assertStatus(t, resp, http.StatusOK)

	resp = performRequest(t, env.app, http.MethodGet, "/api/group/getMyLevel?group_id="+groupID, nil, authHeaders(memberToken))
	assertStatus(t, resp, http.StatusOK)
	level := dataField(t, decodeJSONMap(t, resp))["level"].(float64)
	if int(level) != int(models.LevelMember) {
		t.Fatalf("expected member level after joining, got %v", level)
	}

	// a code is single use
	resp = performJSONRequest(t, env.app, http.MethodPost, "/api/group/enterGroup",
		map[string]any{"invite_code": code}, authHeaders(memberToken))
	assertEnvelopeError(t, resp, http.StatusConflict)
}

func TestInviteWrongEmailRejected(t *testing.T) {
	env := setupTestEnv(t)
	_, leaderToken := createTestUser(t, env.db, "leader@example.com", "leader")
	member, _ := createTestUser(t, env.db, "member@example.com", "member")
	_, strangerToken := createTestUser(t, env.db, "stranger@example.com", "stranger")

	groupID := createTestGroup(t, env, leaderToken, "Lab", "")

	resp := performJSONRequest(t, env.app, http.MethodPost, "/api/group/genInviteCode",
		map[string]any{"group_id": groupID, "email": member.Email}, authHeaders(leaderToken))
	assertStatus(t, resp, http.StatusOK)
	code := dataField(t, decodeJSONMap(t, resp))["invite_code"].(string)

	resp = performJSONRequest(t, env.app, http.MethodPost, "/api/group/enterGroup",
		map[string]any{"invite_code": code}, authHeaders(strangerToken))
	assertEnvelopeError(t, resp, http.StatusForbidden)
}

func TestInviteUnknownEmail(t *testing.T) {
	env := setupTestEnv(t)
	_, leaderToken := createTestUser(t, env.db, "leader@example.com", "leader")
	groupID := createTestGroup(t, env, leaderToken, "Lab", "")

	resp := performJSONRequest(t, env.app, http.MethodPost, "/api/group/genInviteCode",
		map[string]any{"group_id": groupID, "email": "nobody@example.com"}, authHeaders(leaderToken))
	assertEnvelopeError(t, resp, http.StatusNotFound)
}

func TestModifyBasicInfoRequiresModerator(t *testing.T) {
	env := setupTestEnv(t)
	_, leaderToken := createTestUser(t, env.db, "leader@example.com", "leader")
	member, memberToken := createTestUser(t, env.db, "member@example.com", "member")

	groupID := createTestGroup(t, env, leaderToken, "Lab", "")
	joinGroup(t, env, leaderToken, member, memberToken, groupID)

	resp := performMultipartRequest(t, env.app, http.MethodPost, "/api/group/modifyBasicInfo",
		map[string]string{"group_id": groupID, "name": "Renamed"}, nil, authHeaders(memberToken))
	assertEnvelopeError(t, resp, http.StatusForbidden)

	resp = performMultipartRequest(t, env.app, http.MethodPost, "/api/group/modifyBasicInfo",
		map[string]string{"group_id": groupID, "name": "Renamed"}, nil, authHeaders(leaderToken))
	assertStatus(t, resp, http.StatusOK)

	resp = performRequest(t, env.app, http.MethodGet, "/api/group/getBasicInfo?group_id="+groupID, nil, authHeaders(leaderToken))
	data := dataField(t, decodeJSONMap(t, resp))
	if data["name"] != "Renamed" {
		t.Fatalf("expected renamed group, got %v", data)
	}

	var logCount int64
	env.db.Model(&models.GroupLog{}).Where("group_id = ? AND type = ?", groupID, models.LogInfoEdited).Count(&logCount)
	if logCount != 1 {
		t.Fatalf("expected one info-edited log entry, got %d", logCount)
	}
}

func TestDisbandLeaderOnly(t *testing.T) {
	env := setupTestEnv(t)
	_, leaderToken := createTestUser(t, env.db, "leader@example.com", "leader")
	member, memberToken := createTestUser(t, env.db, "member@example.com", "member")

	groupID := createTestGroup(t, env, leaderToken, "Lab", "")
	joinGroup(t, env, leaderToken, member, memberToken, groupID)

	resp := performJSONRequest(t, env.app, http.MethodDelete, "/api/group/disband",
		map[string]any{"group_id": groupID}, authHeaders(memberToken))
	assertEnvelopeError(t, resp, http.StatusForbidden)

	resp = performJSONRequest(t, env.app, http.MethodDelete, "/api/group/disband",
		map[string]any{"group_id": groupID}, authHeaders(leaderToken))
	assertStatus(t, resp, http.StatusOK)

	for _, check := range []struct {
		name  string
		model interface{}
	}{
		{"memberships", &models.Membership{}},
		{"logs", &models.GroupLog{}},
	} {
		var count int64
		env.db.Model(check.model).Where("group_id = ?", groupID).Count(&count)
		if count != 0 {
			t.Fatalf("expected no %s after disband, found %d", check.name, count)
		}
	}
	var groupCount int64
	env.db.Model(&models.Group{}).Where("id = ?", groupID).Count(&groupCount)
	if groupCount != 0 {
		t.Fatalf("expected group row gone after disband")
	}
}
