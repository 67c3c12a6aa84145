package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"dayplan/internal/auth"
	"dayplan/internal/config"
	"dayplan/internal/planner"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "api.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := gdb.AutoMigrate(&planner.User{}, &planner.Planner{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cfg := config.Config{JWTSecret: "test-secret"}
	srv := httptest.NewServer(NewRouter(cfg, gdb, auth.NewJWT(cfg.JWTSecret)))
	t.Cleanup(srv.Close)
	return srv
}

func request(t *testing.T, method, url, token string, body any) (*http.Response, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func signup(t *testing.T, srv *httptest.Server) (token, userID string) {
	t.Helper()
	resp, out := request(t, http.MethodPost, srv.URL+"/auth/register", "", map[string]string{
		"email":    "ada@example.com",
		"password": "correct-horse",
		"name":     "Ada",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("register status = %d", resp.StatusCode)
	}
	return out["token"].(string), out["userId"].(string)
}

func TestHealth(t *testing.T) {
	srv := testServer(t)
	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d", resp.StatusCode)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	srv := testServer(t)
	_, userID := signup(t, srv)

	resp, out := request(t, http.MethodPost, srv.URL+"/auth/login", "", map[string]string{
		"email":    "ada@example.com",
		"password": "correct-horse",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d", resp.StatusCode)
	}
	if out["userId"] != userID {
		t.Fatalf("login userId = %v, want %s", out["userId"], userID)
	}

	resp, _ = request(t, http.MethodPost, srv.URL+"/auth/login", "", map[string]string{
		"email":    "ada@example.com",
		"password": "wrong",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad login status = %d", resp.StatusCode)
	}
}

func TestSyncAndFetchPlanner(t *testing.T) {
	srv := testServer(t)
	token, userID := signup(t, srv)

	doc := map[string]any{
		"2024-01-10": map[string]any{
			"tasks": map[string]any{
				"6:00 AM": map[string]any{
					"subtasks": []map[string]any{{"text": "Read", "done": true}},
				},
			},
		},
	}

	resp, _ := request(t, http.MethodPost, srv.URL+"/sync", token, map[string]any{
		"user":    map[string]string{"email": "ada@example.com", "name": "Ada"},
		"planner": doc,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("sync status = %d", resp.StatusCode)
	}

	// GET /planner returns the bare date-to-record mapping.
	resp, out := request(t, http.MethodGet, srv.URL+"/planner/"+userID, token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get planner status = %d", resp.StatusCode)
	}
	day, ok := out["2024-01-10"].(map[string]any)
	if !ok {
		t.Fatalf("synced date missing: %v", out)
	}
	if _, ok := day["tasks"]; !ok {
		t.Fatalf("day record missing tasks: %v", day)
	}
}

func TestPlannerRequiresAuthAndOwnership(t *testing.T) {
	srv := testServer(t)
	token, userID := signup(t, srv)

	resp, _ := request(t, http.MethodGet, srv.URL+"/planner/"+userID, "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d", resp.StatusCode)
	}

	resp, _ = request(t, http.MethodGet, srv.URL+"/planner/somebody-else", token, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("cross-user status = %d", resp.StatusCode)
	}

	resp, _ = request(t, http.MethodGet, srv.URL+"/planner/"+userID, token, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("empty planner status = %d", resp.StatusCode)
	}
}

func TestGoalUpdateGateOverHTTP(t *testing.T) {
	srv := testServer(t)
	token, userID := signup(t, srv)

	resp, out := request(t, http.MethodGet, srv.URL+"/goals/"+userID, token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get goals status = %d", resp.StatusCode)
	}
	if out["weeklyNumericGoal"] != float64(10) {
		t.Fatalf("default numeric goal = %v, want 10", out["weeklyNumericGoal"])
	}

	resp, out = request(t, http.MethodPut, srv.URL+"/goals/"+userID, token, map[string]any{
		"weeklyTextGoal": "Ship the draft",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("first update status = %d", resp.StatusCode)
	}
	if out["weeklyTextGoal"] != "Ship the draft" {
		t.Fatalf("text goal = %v", out["weeklyTextGoal"])
	}

	resp, out = request(t, http.MethodPut, srv.URL+"/goals/"+userID, token, map[string]any{
		"weeklyNumericGoal": 15,
	})
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("gated update status = %d", resp.StatusCode)
	}
	if out["remainingHours"] != float64(24) {
		t.Fatalf("remainingHours = %v, want 24", out["remainingHours"])
	}

	resp, out = request(t, http.MethodGet, srv.URL+"/goals/"+userID, token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get goals status = %d", resp.StatusCode)
	}
	if out["weeklyNumericGoal"] != float64(10) {
		t.Fatalf("numeric goal after rejected update = %v, want 10", out["weeklyNumericGoal"])
	}
}

func TestGoalUpdateValidation(t *testing.T) {
	srv := testServer(t)
	token, userID := signup(t, srv)

	resp, _ := request(t, http.MethodPut, srv.URL+"/goals/"+userID, token, map[string]any{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty update status = %d", resp.StatusCode)
	}

	resp, _ = request(t, http.MethodPut, srv.URL+"/goals/"+userID, token, map[string]any{
		"weeklyNumericGoal": 0,
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("zero goal status = %d", resp.StatusCode)
	}
}
