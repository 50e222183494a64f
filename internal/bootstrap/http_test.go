package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/backoffice/internal/clock"
	"github.com/spec-kit/backoffice/internal/config"
	"github.com/spec-kit/backoffice/internal/observability"
	"github.com/spec-kit/backoffice/internal/ratelimit"
	"github.com/spec-kit/backoffice/internal/repository/memstore"
)

var testNow = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

type apiClient struct {
	t   *testing.T
	app *fiber.App
}

func newTestApp(t *testing.T, limit int) *apiClient {
	t.Helper()
	ctx := context.Background()
	clk := clock.Fake(testNow)
	db := memstore.New(clk)
	db.SeedDefaultCatalog()

	cfg := &config.Config{
		App: config.AppConfig{Name: "backoffice", Version: "test"},
		Auth: config.AuthConfig{
			JWTSecret:              "test-secret",
			AccessTokenTTLSeconds:  900,
			RefreshTokenTTLSeconds: 86400,
			BcryptCost:             4,
			BootstrapAdminEmail:    "admin@example.com",
			BootstrapAdminPassword: "admin-pass-1",
		},
		Notification: config.NotificationConfig{RetentionDays: 30, ReminderWindowDays: 3},
	}
	services, err := BuildServices(ctx, db.Store(), cfg, zap.NewNop(), clk)
	if err != nil {
		t.Fatalf("BuildServices: %v", err)
	}
	app := NewHTTPApp(services, HTTPOptions{
		App:     cfg.App,
		Storage: "memory",
		Limiter: ratelimit.NewMemoryLimiter(clk, limit, time.Minute),
		Metrics: observability.NewMetrics(),
		Logger:  zap.NewNop(),
	})
	return &apiClient{t: t, app: app}
}

func (a *apiClient) do(method, path, token string, body any) (int, envelope, http.Header) {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			a.t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.app.Test(req, -1)
	if err != nil {
		a.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var env envelope
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			a.t.Fatalf("%s %s: decode %q: %v", method, path, raw, err)
		}
	}
	return resp.StatusCode, env, resp.Header
}

// must issues the request and decodes data into out, failing on any status
// other than want.
func (a *apiClient) must(want int, method, path, token string, body, out any) {
	a.t.Helper()
	status, env, _ := a.do(method, path, token, body)
	if status != want {
		a.t.Fatalf("%s %s: status %d, want %d, error %+v", method, path, status, want, env.Error)
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			a.t.Fatalf("%s %s: decode data: %v", method, path, err)
		}
	}
}

func (a *apiClient) login(email, password string) string {
	a.t.Helper()
	var auth struct {
		AccessToken string `json:"access_token"`
	}
	a.must(http.StatusOK, http.MethodPost, "/auth/login", "", map[string]string{"email": email, "password": password}, &auth)
	return auth.AccessToken
}

func expectError(t *testing.T, status int, env envelope, wantStatus int, wantCode string) {
	t.Helper()
	if status != wantStatus {
		t.Fatalf("status = %d, want %d (error %+v)", status, wantStatus, env.Error)
	}
	if env.Error == nil || env.Error.Code != wantCode {
		t.Fatalf("error = %+v, want code %s", env.Error, wantCode)
	}
}

func TestHealthAndRouting(t *testing.T) {
	api := newTestApp(t, 10)

	status, _, _ := api.do(http.MethodGet, "/health/live", "", nil)
	if status != http.StatusOK {
		t.Fatalf("live status = %d", status)
	}
	api.must(http.StatusOK, http.MethodGet, "/health/ready", "", nil, nil)

	status, env, _ := api.do(http.MethodGet, "/nope", "", nil)
	expectError(t, status, env, http.StatusNotFound, "NOT_FOUND")

	status, env, _ = api.do(http.MethodGet, "/tasks", "", nil)
	expectError(t, status, env, http.StatusUnauthorized, "UNAUTHORIZED")

	status, env, _ = api.do(http.MethodGet, "/tasks", "garbage", nil)
	expectError(t, status, env, http.StatusUnauthorized, "TOKEN_INVALID")
}

func TestLoginFailuresLookAlike(t *testing.T) {
	api := newTestApp(t, 10)

	s1, e1, _ := api.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "admin@example.com", "password": "wrong-pass"})
	s2, e2, _ := api.do(http.MethodPost, "/auth/login", "", map[string]string{"email": "ghost@example.com", "password": "wrong-pass"})
	expectError(t, s1, e1, http.StatusUnauthorized, "INVALID_CREDENTIALS")
	expectError(t, s2, e2, http.StatusUnauthorized, "INVALID_CREDENTIALS")
	if e1.Error.Message != e2.Error.Message {
		t.Fatalf("messages differ: %q vs %q", e1.Error.Message, e2.Error.Message)
	}
}

func TestRefreshAndMe(t *testing.T) {
	api := newTestApp(t, 10)

	var pair struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		User         struct {
			Role string `json:"role"`
		} `json:"user"`
	}
	api.must(http.StatusOK, http.MethodPost, "/auth/login", "",
		map[string]string{"email": "admin@example.com", "password": "admin-pass-1"}, &pair)
	if pair.User.Role != "ADMIN" {
		t.Fatalf("role = %q", pair.User.Role)
	}

	status, env, _ := api.do(http.MethodGet, "/auth/me", pair.RefreshToken, nil)
	expectError(t, status, env, http.StatusUnauthorized, "TOKEN_INVALID")

	var refreshed struct {
		AccessToken string `json:"access_token"`
	}
	api.must(http.StatusOK, http.MethodPost, "/auth/refresh", "", map[string]string{"refresh_token": pair.RefreshToken}, &refreshed)

	var me struct {
		Email string `json:"email"`
	}
	api.must(http.StatusOK, http.MethodGet, "/auth/me", refreshed.AccessToken, nil, &me)
	if me.Email != "admin@example.com" {
		t.Fatalf("me = %+v", me)
	}
}

func TestPublicLeadIntakeIsRateLimited(t *testing.T) {
	api := newTestApp(t, 2)
	lead := map[string]string{"name": "Asha Rao", "email": "asha@example.com", "source": "REFERRAL"}

	var created struct {
		LeadID string `json:"lead_id"`
		Status string `json:"status"`
	}
	api.must(http.StatusCreated, http.MethodPost, "/public/leads", "", lead, &created)
	if created.LeadID != "LEAD-2026-001" || created.Status != "NEW" {
		t.Fatalf("created = %+v", created)
	}
	api.must(http.StatusCreated, http.MethodPost, "/public/leads", "", lead, nil)

	status, env, header := api.do(http.MethodPost, "/public/leads", "", lead)
	expectError(t, status, env, http.StatusTooManyRequests, "RATE_LIMITED")
	if header.Get(fiber.HeaderRetryAfter) != "60" {
		t.Fatalf("Retry-After = %q", header.Get(fiber.HeaderRetryAfter))
	}

	admin := api.login("admin@example.com", "admin-pass-1")
	var leads []struct {
		Source string `json:"source"`
	}
	api.must(http.StatusOK, http.MethodGet, "/leads", admin, nil, &leads)
	if len(leads) != 2 || leads[0].Source != "WEBSITE" {
		t.Fatalf("leads = %+v", leads)
	}
}

func TestRoleTableAndScope(t *testing.T) {
	api := newTestApp(t, 10)
	admin := api.login("admin@example.com", "admin-pass-1")

	var staff struct {
		Profile struct {
			ID         string `json:"id"`
			EmployeeID string `json:"employee_id"`
		} `json:"profile"`
	}
	api.must(http.StatusCreated, http.MethodPost, "/staff", admin, map[string]any{
		"email": "sam@example.com", "password": "staff-pass-1", "first_name": "Sam", "designation": "Associate",
	}, &staff)
	if staff.Profile.EmployeeID != "EMP-2026-001" {
		t.Fatalf("employee id = %q", staff.Profile.EmployeeID)
	}

	type clientCreated struct {
		Profile struct {
			ID string `json:"id"`
		} `json:"profile"`
	}
	var mine, other clientCreated
	api.must(http.StatusCreated, http.MethodPost, "/clients", admin, map[string]any{
		"email": "acme@example.com", "password": "client-pass-1", "company_name": "Acme", "assigned_staff_id": staff.Profile.ID,
	}, &mine)
	api.must(http.StatusCreated, http.MethodPost, "/clients", admin, map[string]any{
		"email": "globex@example.com", "password": "client-pass-1", "company_name": "Globex",
	}, &other)

	due := testNow.Add(48 * time.Hour).Format(time.RFC3339)
	var task struct {
		ID       string  `json:"id"`
		Deadline string  `json:"deadline_status"`
		Hours    float64 `json:"estimated_hours"`
	}
	api.must(http.StatusCreated, http.MethodPost, "/tasks", admin, map[string]any{
		"title": "GST return", "client_id": mine.Profile.ID, "assigned_staff_id": staff.Profile.ID,
		"service_item_id": "item-gst-monthly", "due_date": due,
	}, &task)
	if task.Deadline != "DUE_SOON" || task.Hours != 4 {
		t.Fatalf("task = %+v", task)
	}
	var foreign struct {
		ID string `json:"id"`
	}
	api.must(http.StatusCreated, http.MethodPost, "/tasks", admin, map[string]any{
		"title": "Books", "client_id": other.Profile.ID,
	}, &foreign)

	staffToken := api.login("sam@example.com", "staff-pass-1")
	clientToken := api.login("acme@example.com", "client-pass-1")

	status, env, _ := api.do(http.MethodGet, "/users", staffToken, nil)
	expectError(t, status, env, http.StatusForbidden, "FORBIDDEN")
	status, env, _ = api.do(http.MethodGet, "/leads", clientToken, nil)
	expectError(t, status, env, http.StatusForbidden, "FORBIDDEN")

	var staffTasks []struct {
		ID string `json:"id"`
	}
	api.must(http.StatusOK, http.MethodGet, "/tasks", staffToken, nil, &staffTasks)
	if len(staffTasks) != 1 || staffTasks[0].ID != task.ID {
		t.Fatalf("staff tasks = %+v", staffTasks)
	}

	status, env, _ = api.do(http.MethodGet, "/tasks/"+foreign.ID, clientToken, nil)
	expectError(t, status, env, http.StatusForbidden, "FORBIDDEN")
	status, env, _ = api.do(http.MethodGet, "/clients/"+other.Profile.ID, staffToken, nil)
	expectError(t, status, env, http.StatusForbidden, "FORBIDDEN")

	var summary struct {
		Safe    int `json:"safe"`
		DueSoon int `json:"due_soon"`
		Overdue int `json:"overdue"`
	}
	api.must(http.StatusOK, http.MethodGet, "/tasks/deadline-summary", clientToken, nil, &summary)
	if summary.DueSoon != 1 || summary.Safe != 0 {
		t.Fatalf("summary = %+v", summary)
	}

	api.must(http.StatusOK, http.MethodPatch, "/tasks/"+task.ID+"/status", staffToken, map[string]string{"status": "in_progress"}, nil)
	status, env, _ = api.do(http.MethodPatch, "/tasks/"+task.ID+"/status", staffToken, map[string]string{"status": "PENDING"})
	expectError(t, status, env, http.StatusConflict, "INVALID_STATE_TRANSITION")

	var unread struct {
		Unread int `json:"unread"`
	}
	api.must(http.StatusOK, http.MethodGet, "/notifications/unread-count", staffToken, nil, &unread)
	if unread.Unread == 0 {
		t.Fatal("assignee should have been notified")
	}
}

func TestAdminEndpoints(t *testing.T) {
	api := newTestApp(t, 10)
	admin := api.login("admin@example.com", "admin-pass-1")

	var jobs []string
	api.must(http.StatusOK, http.MethodGet, "/admin/jobs", admin, nil, &jobs)
	if len(jobs) != 4 {
		t.Fatalf("jobs = %v", jobs)
	}
	var result struct {
		Sent int `json:"sent"`
	}
	api.must(http.StatusOK, http.MethodPost, "/admin/jobs/deadline-reminders", admin, nil, &result)

	status, env, _ := api.do(http.MethodPost, "/admin/jobs/unknown", admin, nil)
	expectError(t, status, env, http.StatusNotFound, "NOT_FOUND")

	var snapshot struct {
		Requests []struct {
			Key string `json:"key"`
		} `json:"requests"`
	}
	api.must(http.StatusOK, http.MethodGet, "/admin/metrics", admin, nil, &snapshot)
	if len(snapshot.Requests) == 0 {
		t.Fatal("metrics snapshot is empty")
	}

	var catalog []struct {
		Name string `json:"name"`
	}
	api.must(http.StatusOK, http.MethodGet, "/catalog", admin, nil, &catalog)
	if len(catalog) != 3 {
		t.Fatalf("catalog = %+v", catalog)
	}

	status, env, _ = api.do(http.MethodPost, "/clients", admin, nil)
	expectError(t, status, env, http.StatusBadRequest, "VALIDATION_FAILED")
}
