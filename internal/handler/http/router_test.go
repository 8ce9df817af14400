package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cmlabs-hris/schedule-core/internal/domain/employee"
	"github.com/cmlabs-hris/schedule-core/internal/domain/notification"
	"github.com/cmlabs-hris/schedule-core/internal/pkg/clock"
	"github.com/cmlabs-hris/schedule-core/internal/pkg/jwt"
	"github.com/cmlabs-hris/schedule-core/internal/pkg/realtime"
	"github.com/cmlabs-hris/schedule-core/internal/repository/memory"
	"github.com/cmlabs-hris/schedule-core/internal/repository/sqlite"
	holidaysvc "github.com/cmlabs-hris/schedule-core/internal/service/holiday"
	notificationsvc "github.com/cmlabs-hris/schedule-core/internal/service/notification"
	schedulesvc "github.com/cmlabs-hris/schedule-core/internal/service/schedule"
	schedulerequestsvc "github.com/cmlabs-hris/schedule-core/internal/service/schedulerequest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-jwt"

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

type testServer struct {
	router     http.Handler
	jwtService jwt.Service
	admin      string
	employee   string
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	store := memory.NewStore()
	tpl := employee.WeeklyTemplate{}
	for _, wd := range clock.AllWeekdays() {
		tpl[wd] = employee.TemplateDay{
			Enabled: wd != clock.Saturday && wd != clock.Sunday,
			TimeIn:  clock.MustParse("08:00"),
			TimeOut: clock.MustParse("17:00"),
		}
	}
	store.PutEmployee(employee.Employee{ID: "emp-1", FullName: "Dana Reyes", EmploymentClass: employee.EmploymentClassRegular, BaseTemplate: tpl})

	notifications := notificationsvc.NewNotificationService(store.Notifications(), realtime.NewHub(nil), notificationsvc.Config{}, nil)
	t.Cleanup(notifications.Stop)
	schedules := schedulesvc.NewScheduleService(store, store.Employees(), store.WeeklySchedules(), notifications, nil)
	requests := schedulerequestsvc.NewScheduleRequestService(store, store.ScheduleRequests(), store.Employees(), store.WeeklySchedules(), schedules, notifications, nil)

	markers, err := sqlite.NewAlertMarkerStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = markers.Close() })
	holidays := holidaysvc.NewHolidayService(store.Holidays(), markers, notifications, holidaysvc.Config{}, nil)

	jwtService := jwt.NewJWTService(testSecret, "1h")
	admin, _, err := jwtService.GenerateAccessToken("admin-1", true)
	require.NoError(t, err)
	staff, _, err := jwtService.GenerateAccessToken("emp-1", false)
	require.NoError(t, err)

	router := NewRouter(RouterOptions{}, jwtService, Handlers{
		ScheduleRequest: NewScheduleRequestHandler(requests),
		Schedule:        NewScheduleHandler(schedules, time.UTC),
		Notification:    NewNotificationHandler(notifications, jwtService, 16),
		Holiday:         NewHolidayHandler(holidays),
		Live:            realtime.NewSockJSHandler("/realtime", notifications, nil, nil),
	})
	return testServer{router: router, jwtService: jwtService, admin: admin, employee: staff}
}

func (s testServer) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func mondayBody() map[string]interface{} {
	return map[string]interface{}{
		"employee_id": "emp-1",
		"days": []map[string]interface{}{{
			"date":        "2024-06-10",
			"time_in":     "09:00",
			"time_out":    "18:00",
			"break_start": "12:00",
			"break_end":   "13:00",
		}},
	}
}

func TestRouter_RequiresAdmin(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodGet, "/api/v1/schedule-requests", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.False(t, env.Success)

	code, env = s.do(t, http.MethodGet, "/api/v1/schedule-requests", s.employee, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	sse, _, err := s.jwtService.GenerateSSEToken("admin-1")
	require.NoError(t, err)
	code, _ = s.do(t, http.MethodGet, "/api/v1/notifications/counts", sse, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRouter_ScheduleRequestLifecycle(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodPost, "/api/v1/schedule-requests", s.employee, mondayBody())
	require.Equal(t, http.StatusCreated, code)
	var created struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "pending", created.Status)

	code, env = s.do(t, http.MethodGet, "/api/v1/schedule-requests", s.admin, nil)
	require.Equal(t, http.StatusOK, code)
	var list struct {
		Total        int `json:"total"`
		PendingCount int `json:"pending_count"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Equal(t, 1, list.PendingCount)

	code, env = s.do(t, http.MethodGet, "/api/v1/notifications/counts", s.admin, nil)
	require.Equal(t, http.StatusOK, code)
	var counts notification.Counts
	require.NoError(t, json.Unmarshal(env.Data, &counts))
	assert.Equal(t, 1, counts.Schedule)

	code, env = s.do(t, http.MethodPatch, "/api/v1/schedule-requests/"+created.ID, s.admin, map[string]string{"status": "approved"})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, env.Error.Details, "processed_by")

	patch := map[string]string{"status": "approved", "processed_by": "admin-1", "admin_remarks": "ok"}
	code, _ = s.do(t, http.MethodPatch, "/api/v1/schedule-requests/"+created.ID, s.admin, patch)
	require.Equal(t, http.StatusOK, code)

	code, env = s.do(t, http.MethodPatch, "/api/v1/schedule-requests/"+created.ID, s.admin, patch)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "CONFLICT", env.Error.Code)

	code, env = s.do(t, http.MethodGet, "/api/v1/employees/emp-1/effective-schedule?date=2024-06-10", s.admin, nil)
	require.Equal(t, http.StatusOK, code)
	var eff struct {
		TimeIn  string `json:"time_in"`
		TimeOut string `json:"time_out"`
		Source  string `json:"source"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &eff))
	assert.Equal(t, "09:00", eff.TimeIn)
	assert.Equal(t, "18:00", eff.TimeOut)
	assert.Equal(t, "override", eff.Source)

	code, env = s.do(t, http.MethodGet, "/api/v1/notifications/counts", s.admin, nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &counts))
	assert.Equal(t, 0, counts.Schedule)
}

func TestRouter_Errors(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodGet, "/api/v1/schedule-requests/missing", s.admin, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	code, _ = s.do(t, http.MethodGet, "/api/v1/employees/emp-1/effective-schedule?date=10-06-2024", s.admin, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodGet, "/api/v1/employees/ghost/schedule", s.admin, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, env = s.do(t, http.MethodPost, "/api/v1/notifications/mark-read", s.admin, map[string]interface{}{"notification_ids": []string{}})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
}

func TestRouter_ApplySchedule(t *testing.T) {
	s := newTestServer(t)

	days := map[string]interface{}{
		"monday":    map[string]interface{}{"enabled": true, "time_in": "07:00", "time_out": "16:00"},
		"tuesday":   nil,
		"wednesday": nil,
		"thursday":  nil,
		"friday":    nil,
		"saturday":  map[string]interface{}{"enabled": true, "is_day_off": true},
		"sunday":    nil,
	}
	code, env := s.do(t, http.MethodPut, "/api/v1/employees/emp-1/schedule", s.admin, map[string]interface{}{"days": days, "permanent": true})
	require.Equal(t, http.StatusOK, code, string(env.Data))

	var result struct {
		Schedule struct {
			ScheduleType string  `json:"schedule_type"`
			AppliedBy    *string `json:"applied_by"`
		} `json:"schedule"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, "regular", result.Schedule.ScheduleType)
	require.NotNil(t, result.Schedule.AppliedBy)
	assert.Equal(t, "admin-1", *result.Schedule.AppliedBy)

	delete(days, "sunday")
	code, env = s.do(t, http.MethodPut, "/api/v1/employees/emp-1/schedule", s.admin, map[string]interface{}{"days": days})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, env.Error.Details, "days.sunday")
}

func TestRouter_Holidays(t *testing.T) {
	s := newTestServer(t)
	today := time.Now().UTC().Format(clock.DateLayout)

	code, _ := s.do(t, http.MethodPost, "/api/v1/holidays", s.admin, map[string]interface{}{"date": today, "type": "company", "title": "Founders Day"})
	require.Equal(t, http.StatusCreated, code)

	code, env := s.do(t, http.MethodGet, "/api/v1/holidays/today", s.admin, nil)
	require.Equal(t, http.StatusOK, code)
	var resp struct {
		Holidays []json.RawMessage `json:"holidays"`
		Alerted  []json.RawMessage `json:"alerted"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Len(t, resp.Holidays, 1)
	assert.Len(t, resp.Alerted, 1)

	code, env = s.do(t, http.MethodGet, "/api/v1/holidays/today", s.admin, nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Empty(t, resp.Alerted)

	code, _ = s.do(t, http.MethodPost, "/api/v1/holiday-mark-as-read", s.admin, nil)
	require.Equal(t, http.StatusOK, code)

	code, env = s.do(t, http.MethodGet, "/api/v1/holiday-notifications?unread_only=true", s.admin, nil)
	require.Equal(t, http.StatusOK, code)
	var list notification.NotificationListResponse
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Empty(t, list.Notifications)
	assert.Equal(t, 0, list.Counts.Holiday)
}

func TestRouter_HolidayMarkAsReadKeepsOtherCategories(t *testing.T) {
	s := newTestServer(t)

	code, _ := s.do(t, http.MethodPost, "/api/v1/schedule-requests", s.employee, mondayBody())
	require.Equal(t, http.StatusCreated, code)

	code, env := s.do(t, http.MethodGet, "/api/v1/notifications?category=schedule", s.admin, nil)
	require.Equal(t, http.StatusOK, code)
	var list notification.NotificationListResponse
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list.Notifications, 1)
	scheduleID := list.Notifications[0].ID

	body := map[string][]string{"notification_ids": {scheduleID}}
	code, env = s.do(t, http.MethodPost, "/api/v1/holiday-mark-as-read", s.admin, body)
	require.Equal(t, http.StatusOK, code)
	var marked notification.MarkReadResponse
	require.NoError(t, json.Unmarshal(env.Data, &marked))
	assert.Zero(t, marked.Updated)
	assert.Equal(t, 1, marked.Counts.Schedule)

	code, env = s.do(t, http.MethodGet, "/api/v1/notifications/counts", s.admin, nil)
	require.Equal(t, http.StatusOK, code)
	var counts notification.Counts
	require.NoError(t, json.Unmarshal(env.Data, &counts))
	assert.Equal(t, 1, counts.Schedule)
}

func TestRouter_StreamDeliversLiveHints(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.router)
	defer srv.Close()

	code, env := s.do(t, http.MethodGet, "/api/v1/notifications/sse-token", s.admin, nil)
	require.Equal(t, http.StatusOK, code)
	var token notification.SSETokenResponse
	require.NoError(t, json.Unmarshal(env.Data, &token))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/notifications/stream?token="+token.Token, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := make(chan string, 8)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			if name, ok := strings.CutPrefix(scanner.Text(), "event: "); ok {
				events <- name
			}
		}
		close(events)
	}()

	require.Equal(t, "connected", <-events)

	code, _ = s.do(t, http.MethodPost, "/api/v1/schedule-requests", s.employee, mondayBody())
	require.Equal(t, http.StatusCreated, code)

	select {
	case name := <-events:
		assert.Equal(t, notification.EventNewPendingRequest, name)
	case <-ctx.Done():
		t.Fatal("no live event received")
	}

	// Callers of the intake cannot pick the live event name.
	intake := map[string]string{"category": "leave", "title": "Leave request", "event": notification.EventHolidayAlert}
	code, _ = s.do(t, http.MethodPost, "/api/v1/notifications/events", s.employee, intake)
	require.Equal(t, http.StatusCreated, code)

	select {
	case name := <-events:
		assert.Equal(t, notification.EventRefreshNotifications, name)
	case <-ctx.Done():
		t.Fatal("no live event received")
	}

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/notifications/stream?token=bogus", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
