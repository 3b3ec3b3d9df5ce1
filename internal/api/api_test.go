package api_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/psc-ict/frontdesk/internal/api"
	"github.com/psc-ict/frontdesk/internal/db"
	"github.com/psc-ict/frontdesk/internal/match"
	"github.com/psc-ict/frontdesk/internal/model"
	"github.com/psc-ict/frontdesk/internal/store"
)

const testSecret = "test-secret"

type testServer struct {
	handler http.Handler
	db      *sql.DB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	database := db.NewTestDB(t)
	ctx := context.Background()

	if err := store.EnsureDefaultSettings(ctx, database); err != nil {
		t.Fatalf("ensuring default settings: %v", err)
	}

	for _, u := range []struct{ name, role string }{
		{"admin", model.RoleAdmin},
		{"reception", model.RoleReception},
		{"staff", model.RoleStaff},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.name+"-password"), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("hashing password: %v", err)
		}
		if _, err := store.CreateUser(ctx, database, u.name, string(hash), u.role); err != nil {
			t.Fatalf("creating %s user: %v", u.name, err)
		}
	}

	engine := match.NewEngine(database, nil, nil, slog.Default())
	return &testServer{
		handler: api.NewRouter(database, testSecret, engine, nil, nil),
		db:      database,
	}
}

func (s *testServer) request(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(t *testing.T, username string) string {
	t.Helper()
	rec := s.request(t, "POST", "/api/auth/login", "", map[string]string{
		"username": username,
		"password": username + "-password",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login as %s failed: %d %s", username, rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
		Role  string `json:"role"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding login response: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("login must return a token")
	}
	return resp.Token
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	s := newTestServer(t)

	rec := s.request(t, "POST", "/api/auth/login", "", map[string]string{
		"username": "admin", "password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong password: got %d, want 401", rec.Code)
	}

	rec = s.request(t, "POST", "/api/auth/login", "", map[string]string{
		"username": "nobody", "password": "whatever",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unknown user: got %d, want 401", rec.Code)
	}
}

func TestRequestsRequireAuth(t *testing.T) {
	s := newTestServer(t)

	rec := s.request(t, "GET", "/api/lost-items", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing token: got %d, want 401", rec.Code)
	}

	rec = s.request(t, "GET", "/api/lost-items", "garbage-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("invalid token: got %d, want 401", rec.Code)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "staff")

	if rec := s.request(t, "GET", "/api/lost-items", token, nil); rec.Code != http.StatusOK {
		t.Fatalf("authenticated list failed: %d", rec.Code)
	}
	if rec := s.request(t, "POST", "/api/auth/logout", token, nil); rec.Code != http.StatusOK {
		t.Fatalf("logout failed: %d", rec.Code)
	}
	if rec := s.request(t, "GET", "/api/lost-items", token, nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("revoked token must be rejected, got %d", rec.Code)
	}
}

func TestRoleEnforcement(t *testing.T) {
	s := newTestServer(t)
	staff := s.login(t, "staff")
	admin := s.login(t, "admin")

	if rec := s.request(t, "GET", "/api/settings", staff, nil); rec.Code != http.StatusForbidden {
		t.Errorf("staff reading settings: got %d, want 403", rec.Code)
	}
	if rec := s.request(t, "GET", "/api/users", staff, nil); rec.Code != http.StatusForbidden {
		t.Errorf("staff listing users: got %d, want 403", rec.Code)
	}
	if rec := s.request(t, "GET", "/api/settings", admin, nil); rec.Code != http.StatusOK {
		t.Errorf("admin reading settings: got %d, want 200", rec.Code)
	}
}

func TestCreateLostItemAndTrack(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "staff")

	rec := s.request(t, "POST", "/api/lost-items", token, map[string]string{
		"type":           "item",
		"owner_name":     "Jane Wanjiku",
		"item_name":      "black wallet",
		"description":    "leather wallet",
		"place_lost":     "gym lobby",
		"reporter_phone": "0712345678",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create lost item: got %d: %s", rec.Code, rec.Body.String())
	}

	var created struct {
		Item    model.LostItem      `json:"item"`
		Matches []model.MatchResult `json:"matches"`
		Summary string              `json:"summary"`
	}
	decodeBody(t, rec, &created)
	if !strings.HasPrefix(created.Item.TrackingID, "LI-") {
		t.Errorf("unexpected tracking ID %q", created.Item.TrackingID)
	}
	if created.Matches == nil {
		t.Error("matches must be present, even when empty")
	}
	if !strings.Contains(created.Summary, created.Item.TrackingID) {
		t.Errorf("summary must mention the tracking ID: %q", created.Summary)
	}

	rec = s.request(t, "GET", "/api/lost-items/track/"+created.Item.TrackingID, token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("track: got %d", rec.Code)
	}
	var tracked model.LostItem
	decodeBody(t, rec, &tracked)
	if tracked.ID != created.Item.ID {
		t.Error("tracking lookup must return the created item")
	}

	if rec := s.request(t, "GET", "/api/lost-items/track/LI-MISSING1", token, nil); rec.Code != http.StatusNotFound {
		t.Errorf("unknown tracking ID: got %d, want 404", rec.Code)
	}
}

func TestCreateLostItemValidation(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "staff")

	rec := s.request(t, "POST", "/api/lost-items", token, map[string]string{
		"type": "card", "card_last_four": "not-a-card",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid card number: got %d, want 400", rec.Code)
	}

	rec = s.request(t, "POST", "/api/lost-items", token, map[string]string{
		"type": "bicycle",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid type: got %d, want 400", rec.Code)
	}
}

func TestFoundItemTriggersMatch(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "staff")

	rec := s.request(t, "POST", "/api/lost-items", token, map[string]string{
		"type":        "item",
		"item_name":   "iPhone 12 Pro Max",
		"description": "black phone with cracked screen",
		"place_lost":  "tennis court",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create lost item: %d", rec.Code)
	}

	rec = s.request(t, "POST", "/api/found-items", token, map[string]string{
		"type":        "item",
		"item_name":   "iPhone 12 Pro Max",
		"description": "black phone with cracked screen",
		"place_found": "tennis court",
		"finder_name": "Groundskeeper",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create found item: %d: %s", rec.Code, rec.Body.String())
	}

	var created struct {
		Item    model.FoundItem     `json:"item"`
		Matches []model.MatchResult `json:"matches"`
	}
	decodeBody(t, rec, &created)
	if len(created.Matches) == 0 {
		t.Fatal("expected the found item to match the lost report")
	}
	if created.Matches[0].Score <= 0.8 {
		t.Errorf("near-identical items must score high, got %f", created.Matches[0].Score)
	}
	if len(created.Matches[0].Reasons) == 0 {
		t.Error("matches must carry reasons")
	}
}

func TestPickFoundItemFlow(t *testing.T) {
	s := newTestServer(t)
	staff := s.login(t, "staff")
	reception := s.login(t, "reception")

	rec := s.request(t, "POST", "/api/found-items", staff, map[string]string{
		"type": "item", "item_name": "umbrella",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create found item: %d", rec.Code)
	}
	var created struct {
		Item model.FoundItem `json:"item"`
	}
	decodeBody(t, rec, &created)
	pickPath := fmt.Sprintf("/api/found-items/%d/pick", created.Item.ID)

	pickBody := map[string]string{
		"name": "Owner", "member_id": "M1", "phone": "0712345678",
	}
	if rec := s.request(t, "POST", pickPath, staff, pickBody); rec.Code != http.StatusForbidden {
		t.Errorf("staff picking: got %d, want 403", rec.Code)
	}
	if rec := s.request(t, "POST", pickPath, reception, pickBody); rec.Code != http.StatusCreated {
		t.Errorf("reception picking: got %d, want 201", rec.Code)
	}
	if rec := s.request(t, "POST", pickPath, reception, pickBody); rec.Code != http.StatusConflict {
		t.Errorf("second pick: got %d, want 409", rec.Code)
	}
}

func TestMarkLostItemFoundEndpoint(t *testing.T) {
	s := newTestServer(t)
	reception := s.login(t, "reception")

	rec := s.request(t, "POST", "/api/lost-items", reception, map[string]string{
		"type": "item", "item_name": "scarf",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create lost item: %d", rec.Code)
	}
	var created struct {
		Item model.LostItem `json:"item"`
	}
	decodeBody(t, rec, &created)

	rec = s.request(t, "POST", fmt.Sprintf("/api/lost-items/%d/found", created.Item.ID), reception,
		map[string]string{"finder_name": "Owner walked in"})
	if rec.Code != http.StatusOK {
		t.Fatalf("mark found: got %d: %s", rec.Code, rec.Body.String())
	}
	var found model.FoundItem
	decodeBody(t, rec, &found)
	if found.ItemName != "scarf" || found.FinderName != "Owner walked in" {
		t.Errorf("conversion mismatch: %+v", found)
	}

	if rec := s.request(t, "GET", fmt.Sprintf("/api/lost-items/%d", created.Item.ID), reception, nil); rec.Code != http.StatusNotFound {
		t.Errorf("converted lost item must be gone, got %d", rec.Code)
	}
}

func TestPackageLifecycle(t *testing.T) {
	s := newTestServer(t)
	staff := s.login(t, "staff")
	reception := s.login(t, "reception")

	rec := s.request(t, "POST", "/api/packages", staff, map[string]string{
		"type":            "package",
		"description":     "brown box",
		"recipient_name":  "Alice Mwangi",
		"recipient_phone": "0712345678",
		"dropped_by":      "Courier",
		"dropper_phone":   "0798765432",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create package: got %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		Package model.Package `json:"package"`
	}
	decodeBody(t, rec, &created)
	if created.Package.Shelf != "A1" {
		t.Errorf("first package for A goes on A1, got %q", created.Package.Shelf)
	}
	if !strings.HasPrefix(created.Package.Code, "A1") {
		t.Errorf("code must start with the shelf, got %q", created.Package.Code)
	}

	rec = s.request(t, "GET", "/api/packages/code/"+created.Package.Code, staff, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get by code: %d", rec.Code)
	}

	pickPath := fmt.Sprintf("/api/packages/%d/pick", created.Package.ID)
	pickBody := map[string]string{"picked_by": "Alice Mwangi", "picker_phone": "0712345678", "picker_id": "ID9"}
	if rec := s.request(t, "POST", pickPath, staff, pickBody); rec.Code != http.StatusForbidden {
		t.Errorf("staff picking package: got %d, want 403", rec.Code)
	}
	rec = s.request(t, "POST", pickPath, reception, pickBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("pick package: got %d: %s", rec.Code, rec.Body.String())
	}
	var picked model.Package
	decodeBody(t, rec, &picked)
	if picked.Status != model.PackageStatusPicked || picked.Shelf != "" {
		t.Errorf("picked package state: %+v", picked)
	}

	if rec := s.request(t, "POST", pickPath, reception, pickBody); rec.Code != http.StatusConflict {
		t.Errorf("second pick: got %d, want 409", rec.Code)
	}
}

func TestPackageExportCSV(t *testing.T) {
	s := newTestServer(t)
	reception := s.login(t, "reception")

	rec := s.request(t, "POST", "/api/packages", reception, map[string]string{
		"type":            "document",
		"description":     "contract",
		"recipient_name":  "Brian Omondi",
		"recipient_phone": "0722123456",
		"dropped_by":      "Lawyer",
		"dropper_phone":   "0733123456",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create package: %d", rec.Code)
	}

	rec = s.request(t, "GET", "/api/packages/export", reception, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export: got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/csv") {
		t.Errorf("export content type = %q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Brian Omondi") {
		t.Error("export must include the recipient")
	}
	if strings.Contains(body, "0722123456") {
		t.Error("export must mask phone numbers")
	}
	if !strings.Contains(body, "0722******56") {
		t.Errorf("masked phone missing from export:\n%s", body)
	}
}

func TestKeyCustodyFlow(t *testing.T) {
	s := newTestServer(t)
	staff := s.login(t, "staff")
	reception := s.login(t, "reception")

	if rec := s.request(t, "POST", "/api/keys", staff, map[string]string{
		"key_id": "GYM-01", "location": "Gym Store", "key_type": "Access",
	}); rec.Code != http.StatusForbidden {
		t.Errorf("staff registering keys: got %d, want 403", rec.Code)
	}

	rec := s.request(t, "POST", "/api/keys", reception, map[string]string{
		"key_id": "GYM-01", "location": "Gym Store", "key_type": "Access",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create key: got %d: %s", rec.Code, rec.Body.String())
	}
	var key model.SecurityKey
	decodeBody(t, rec, &key)

	checkoutPath := fmt.Sprintf("/api/keys/%d/checkout", key.ID)
	rec = s.request(t, "POST", checkoutPath, staff, map[string]string{
		"holder_name": "Mary Atieno", "holder_type": "staff", "holder_phone": "0733444555",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("checkout: got %d: %s", rec.Code, rec.Body.String())
	}

	rec = s.request(t, "POST", checkoutPath, staff, map[string]string{
		"holder_name": "Second", "holder_type": "staff",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("double checkout: got %d, want 409", rec.Code)
	}

	rec = s.request(t, "POST", fmt.Sprintf("/api/keys/%d/return", key.ID), staff,
		map[string]string{"notes": "intact"})
	if rec.Code != http.StatusOK {
		t.Fatalf("return: got %d: %s", rec.Code, rec.Body.String())
	}
	var returned model.SecurityKey
	decodeBody(t, rec, &returned)
	if returned.Status != model.KeyStatusAvailable || returned.CurrentHolderName != "" {
		t.Errorf("returned key state: %+v", returned)
	}

	rec = s.request(t, "GET", fmt.Sprintf("/api/keys/%d/history", key.ID), staff, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history: got %d", rec.Code)
	}
	var history []model.KeyHistory
	decodeBody(t, rec, &history)
	if len(history) != 2 || history[0].Action != model.KeyActionReturn {
		t.Errorf("unexpected history: %+v", history)
	}
}

func TestSettingsUpdate(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin")

	rec := s.request(t, "PUT", "/api/settings/lost_match_threshold", admin, map[string]string{
		"value": "0.6",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update setting: got %d: %s", rec.Code, rec.Body.String())
	}

	value, err := store.GetSetting(context.Background(), s.db, "lost_match_threshold", "")
	if err != nil {
		t.Fatalf("GetSetting: %v", err)
	}
	if value != "0.6" {
		t.Errorf("setting not persisted, got %q", value)
	}
}

func TestUserAdministration(t *testing.T) {
	s := newTestServer(t)
	admin := s.login(t, "admin")

	rec := s.request(t, "POST", "/api/users", admin, map[string]string{
		"username": "newstaff", "password": "password123", "role": "staff",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create user: got %d: %s", rec.Code, rec.Body.String())
	}
	var created model.User
	decodeBody(t, rec, &created)

	if rec := s.request(t, "POST", "/api/users", admin, map[string]string{
		"username": "badrole", "password": "password123", "role": "superuser",
	}); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid role: got %d, want 400", rec.Code)
	}

	if rec := s.request(t, "POST", "/api/users", admin, map[string]string{
		"username": "shortpw", "password": "short", "role": "staff",
	}); rec.Code != http.StatusBadRequest {
		t.Errorf("short password: got %d, want 400", rec.Code)
	}

	if rec := s.request(t, "DELETE", fmt.Sprintf("/api/users/%d", created.ID), admin, nil); rec.Code != http.StatusOK {
		t.Errorf("delete user: got %d", rec.Code)
	}

	rec = s.request(t, "POST", "/api/auth/login", "", map[string]string{
		"username": "newstaff", "password": "password123",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("deleted user login: got %d, want 401", rec.Code)
	}
}
