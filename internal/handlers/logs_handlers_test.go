package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/refhub/backend/internal/models"
)

func TestLogsPagination(t *testing.T) {
	env := setupTestEnv(t)
	_, leaderToken := createTestUser(t, env.db, "leader@example.com", "leader")
	groupID := createTestGroup(t, env, leaderToken, "Lab", "")

	// creation log plus five folder-created entries
	for i := 0; i < 5; i++ {
		resp := performJSONRequest(t, env.app, http.MethodPost, "/api/group/newFolder",
			map[string]any{"group_id": groupID, "name": fmt.Sprintf("folder-%d", i)}, authHeaders(leaderToken))
		assertStatus(t, resp, http.StatusCreated)
	}

	resp := performRequest(t, env.app, http.MethodGet,
		"/api/group/logs?group_id="+groupID+"&page=1&page_size=4", nil, authHeaders(leaderToken))
	assertStatus(t, resp, http.StatusOK)
	payload := decodeJSONMap(t, resp)

	if total := payload["total_num"].(float64); int(total) != 6 {
		t.Fatalf("expected total of 6 entries, got %v", total)
	}
	logs := payload["data"].([]interface{})
	if len(logs) != 4 {
		t.Fatalf("expected 4 entries on the first page, got %d", len(logs))
	}

	// newest first
	first := logs[0].(map[string]interface{})
	if first["folder_name"] != "folder-4" {
		t.Fatalf("expected newest entry first, got %v", first)
	}

	resp = performRequest(t, env.app, http.MethodGet,
		"/api/group/logs?group_id="+groupID+"&page=2&page_size=4", nil, authHeaders(leaderToken))
	assertStatus(t, resp, http.StatusOK)
	payload = decodeJSONMap(t, resp)
	logs = payload["data"].([]interface{})
	if len(logs) != 2 {
		t.Fatalf("expected 2 entries on the second page, got %d", len(logs))
	}
	last := logs[len(logs)-1].(map[string]interface{})
	if int(last["type"].(float64)) != int(models.LogGroupCreated) {
		t.Fatalf("expected the creation entry last, got %v", last)
	}
}

func TestLogsMembersOnly(t *testing.T) {
	env := setupTestEnv(t)
	_, leaderToken := createTestUser(t, env.db, "leader@example.com", "leader")
	_, strangerToken := createTestUser(t, env.db, "stranger@example.com", "stranger")
	groupID := createTestGroup(t, env, leaderToken, "Lab", "")

	resp := performRequest(t, env.app, http.MethodGet, "/api/group/logs?group_id="+groupID, nil, authHeaders(strangerToken))
	assertEnvelopeError(t, resp, http.StatusForbidden)
}

func TestLogsShowCurrentUsernames(t *testing.T) {
	env := setupTestEnv(t)
	leader, leaderToken := createTestUser(t, env.db, "leader@example.com", "leader")
	groupID := createTestGroup(t, env, leaderToken, "Lab", "")

	env.db.Model(&models.User{}).Where("id = ?", leader.ID).Update("username", "renamed")

	resp := performRequest(t, env.app, http.MethodGet, "/api/group/logs?group_id="+groupID, nil, authHeaders(leaderToken))
	assertStatus(t, resp, http.StatusOK)
	logs := decodeJSONMap(t, resp)["data"].([]interface{})
	person := logs[0].(map[string]interface{})["person1"].(map[string]interface{})
	if person["name"] != "renamed" {
		t.Fatalf("expected current username in rendered log, got %v", person)
	}
}
