package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/SrgyS/yns-app-sub001/internal/dto"
	"github.com/SrgyS/yns-app-sub001/internal/model"
	"github.com/SrgyS/yns-app-sub001/internal/repository"
	"github.com/SrgyS/yns-app-sub001/internal/service"
	"github.com/SrgyS/yns-app-sub001/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = dto.RegisterValidators(v)
	}
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock EnrollmentService ──

type mockEnrollmentService struct {
	createResult *dto.EnrollmentResponse
	createErr    error
	closeErr     error
	weeksResult  *dto.AvailableWeeks
	weeksErr     error
	weekResult   *dto.ProgramWeekResponse
	weekErr      error
	dayResult    *dto.UserDailyPlanResponse
	dayErr       error

	gotUserID string
	gotDay    int
}

func (m *mockEnrollmentService) CreateEnrollment(_ context.Context, _ *dto.CreateEnrollmentRequest) (*dto.EnrollmentResponse, error) {
	return m.createResult, m.createErr
}
func (m *mockEnrollmentService) CloseAccess(_ context.Context, _ string) error {
	return m.closeErr
}
func (m *mockEnrollmentService) GetAvailableWeeks(_ context.Context, userID, _ string) (*dto.AvailableWeeks, error) {
	m.gotUserID = userID
	return m.weeksResult, m.weeksErr
}
func (m *mockEnrollmentService) GetProgramWeek(_ context.Context, userID, _ string) (*dto.ProgramWeekResponse, error) {
	m.gotUserID = userID
	return m.weekResult, m.weekErr
}
func (m *mockEnrollmentService) GetDailyPlan(_ context.Context, userID, _ string, day int) (*dto.UserDailyPlanResponse, error) {
	m.gotUserID = userID
	m.gotDay = day
	return m.dayResult, m.dayErr
}
func (m *mockEnrollmentService) ListDailyPlans(_ context.Context, _, _ string) (*model.Enrollment, []model.UserDailyPlan, error) {
	return nil, nil, nil
}

// ── Mock DailyPlanService ──

type mockDailyPlanService struct {
	updateErr error
	gotReq    *dto.UpdateWorkoutDaysRequest
}

func (m *mockDailyPlanService) GenerateForEnrollment(_ context.Context, _ *repository.Repository, _ string) (int, error) {
	return 0, nil
}
func (m *mockDailyPlanService) UpdateSelectedWorkoutDays(_ context.Context, req *dto.UpdateWorkoutDaysRequest) error {
	m.gotReq = req
	return m.updateErr
}
func (m *mockDailyPlanService) RegenerateWeek(_ context.Context, _ *model.Enrollment, _ int) (int, error) {
	return 0, nil
}

// ── Mock CalendarService ──

type mockCalendarService struct {
	body string
	err  error
}

func (m *mockCalendarService) BuildCalendar(_ context.Context, _, _ string) (string, error) {
	return m.body, m.err
}

// ── Mock CompletionService ──

type mockCompletionService struct {
	markResult *dto.CompletionResponse
	markErr    error
	unmarkErr  error
	listResult []dto.CompletionResponse
	listErr    error
	gotReq     *dto.CompletionRequest
}

func (m *mockCompletionService) Mark(_ context.Context, _, _ string, req *dto.CompletionRequest) (*dto.CompletionResponse, error) {
	m.gotReq = req
	return m.markResult, m.markErr
}
func (m *mockCompletionService) Unmark(_ context.Context, _, _ string, req *dto.CompletionRequest) error {
	m.gotReq = req
	return m.unmarkErr
}
func (m *mockCompletionService) List(_ context.Context, _, _ string) ([]dto.CompletionResponse, error) {
	return m.listResult, m.listErr
}

// ── Mock WeekService / PlanBatchService ──

type mockWeekService struct {
	result *dto.PublishWeekResponse
	err    error
}

func (m *mockWeekService) PublishWeek(_ context.Context, _ string, _ *dto.PublishWeekRequest) (*dto.PublishWeekResponse, error) {
	return m.result, m.err
}

type mockPlanBatchService struct {
	result  *dto.PlanUpdateResult
	err     error
	gotWeek int
}

func (m *mockPlanBatchService) UpdatePlansForNewWeek(_ context.Context, _ string, week int) (*dto.PlanUpdateResult, error) {
	m.gotWeek = week
	return m.result, m.err
}

// ── Mock ExportService ──

type mockExportService struct {
	runs     []dto.PlanUpdateRunResponse
	total    int64
	run      *dto.PlanUpdateRunResponse
	buf      *bytes.Buffer
	filename string
	err      error
}

func (m *mockExportService) ListRuns(_ context.Context, _ *dto.PlanUpdateRunListRequest) ([]dto.PlanUpdateRunResponse, int64, error) {
	return m.runs, m.total, m.err
}
func (m *mockExportService) GetRun(_ context.Context, _ string) (*dto.PlanUpdateRunResponse, error) {
	return m.run, m.err
}
func (m *mockExportService) ExportRun(_ context.Context, _ string) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

func setupGin() (*gin.Engine, *gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, r := gin.CreateTestContext(w)
	return r, c, w
}

func setAuth(c *gin.Context) {
	c.Set("user_id", "test-user-id")
	c.Set("role", "user")
}

func setAdmin(c *gin.Context) {
	c.Set("user_id", "test-admin-id")
	c.Set("role", "admin")
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

func withAuth(auth func(*gin.Context), h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth(c)
		h(c)
	}
}

// ═══════════════════════════════════════════════════════════
// EnrollmentHandler Tests
// ═══════════════════════════════════════════════════════════

func TestEnrollmentHandler_Create_Success(t *testing.T) {
	mock := &mockEnrollmentService{
		createResult: &dto.EnrollmentResponse{ID: "enr-1", PlanDays: 28},
	}
	h := NewEnrollmentHandler(mock)

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/enrollments", jsonBody(dto.CreateEnrollmentRequest{
		UserID:              "6f1c7a52-3b9e-4d0f-8a21-0c5e2d9b7f10",
		CourseID:            "0b8e4c1d-95a2-4f67-b3c8-7d2e1f0a9c44",
		StartDate:           "2025-03-19",
		SelectedWorkoutDays: []string{"MONDAY", "WEDNESDAY", "FRIDAY"},
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/enrollments", h.CreateEnrollment)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 0 {
		t.Errorf("expected code 0, got %d", resp.Code)
	}
}

func TestEnrollmentHandler_Create_BadWeekday(t *testing.T) {
	h := NewEnrollmentHandler(&mockEnrollmentService{})

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/enrollments", jsonBody(map[string]interface{}{
		"user_id":               "6f1c7a52-3b9e-4d0f-8a21-0c5e2d9b7f10",
		"course_id":             "0b8e4c1d-95a2-4f67-b3c8-7d2e1f0a9c44",
		"start_date":            "2025-03-19",
		"selected_workout_days": []string{"FUNDAY"},
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/enrollments", h.CreateEnrollment)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 20001 {
		t.Errorf("expected code 20001, got %d", resp.Code)
	}
}

func TestEnrollmentHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"CourseNotFound", service.ErrCourseNotFound, 404, 20004},
		{"EnrollmentNotFound", service.ErrEnrollmentNotFound, 404, 20005},
		{"InternalError", errors.New("unknown"), 500, 50000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewEnrollmentHandler(&mockEnrollmentService{closeErr: tt.err})

			_, _, w := setupGin()
			req := httptest.NewRequest("POST", "/enrollments/enr-1/close", nil)

			r := gin.New()
			r.POST("/enrollments/:id/close", h.CloseAccess)
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if resp := parseResponse(w); resp.Code != tt.wantCode {
				t.Errorf("expected code %d, got %d", tt.wantCode, resp.Code)
			}
		})
	}
}

// ═══════════════════════════════════════════════════════════
// ScheduleHandler Tests
// ═══════════════════════════════════════════════════════════

func TestScheduleHandler_GetDailyPlan_Success(t *testing.T) {
	mock := &mockEnrollmentService{dayResult: &dto.UserDailyPlanResponse{DayNumber: 3}}
	h := NewScheduleHandler(mock, &mockDailyPlanService{}, &mockCalendarService{})

	_, _, w := setupGin()
	req := httptest.NewRequest("GET", "/enrollments/enr-1/days/3", nil)

	r := gin.New()
	r.GET("/enrollments/:id/days/:day", withAuth(setAuth, h.GetDailyPlan))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if mock.gotDay != 3 {
		t.Errorf("expected day 3, got %d", mock.gotDay)
	}
	if mock.gotUserID != "test-user-id" {
		t.Errorf("expected owner scope test-user-id, got %q", mock.gotUserID)
	}
}

func TestScheduleHandler_GetDailyPlan_AdminScope(t *testing.T) {
	mock := &mockEnrollmentService{dayResult: &dto.UserDailyPlanResponse{DayNumber: 1}}
	h := NewScheduleHandler(mock, &mockDailyPlanService{}, &mockCalendarService{})

	_, _, w := setupGin()
	req := httptest.NewRequest("GET", "/enrollments/enr-1/days/1", nil)

	r := gin.New()
	r.GET("/enrollments/:id/days/:day", withAuth(setAdmin, h.GetDailyPlan))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if mock.gotUserID != "" {
		t.Errorf("admin should not be scoped, got %q", mock.gotUserID)
	}
}

func TestScheduleHandler_GetDailyPlan_BadDay(t *testing.T) {
	h := NewScheduleHandler(&mockEnrollmentService{}, &mockDailyPlanService{}, &mockCalendarService{})

	for _, day := range []string{"0", "abc", "-2"} {
		_, _, w := setupGin()
		req := httptest.NewRequest("GET", "/enrollments/enr-1/days/"+day, nil)

		r := gin.New()
		r.GET("/enrollments/:id/days/:day", withAuth(setAuth, h.GetDailyPlan))
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("day %q: expected 400, got %d", day, w.Code)
		}
	}
}

func TestScheduleHandler_Unauthenticated(t *testing.T) {
	h := NewScheduleHandler(&mockEnrollmentService{}, &mockDailyPlanService{}, &mockCalendarService{})

	_, _, w := setupGin()
	req := httptest.NewRequest("GET", "/enrollments/enr-1/program-week", nil)

	r := gin.New()
	r.GET("/enrollments/:id/program-week", h.GetProgramWeek)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestScheduleHandler_UpdateWorkoutDays(t *testing.T) {
	mock := &mockDailyPlanService{}
	h := NewScheduleHandler(&mockEnrollmentService{}, mock, &mockCalendarService{})

	_, _, w := setupGin()
	req := httptest.NewRequest("PUT", "/enrollments/enr-1/workout-days", jsonBody(map[string]interface{}{
		"selected_workout_days": []string{"TUESDAY", "THURSDAY"},
		"keep_progress":         true,
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.PUT("/enrollments/:id/workout-days", withAuth(setAuth, h.UpdateWorkoutDays))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if mock.gotReq == nil {
		t.Fatal("service not called")
	}
	if mock.gotReq.EnrollmentID != "enr-1" || mock.gotReq.UserID != "test-user-id" || !mock.gotReq.KeepProgress {
		t.Errorf("unexpected request: %+v", mock.gotReq)
	}
}

func TestScheduleHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"EnrollmentNotFound", service.ErrEnrollmentNotFound, 404, 21002},
		{"DailyPlanNotFound", service.ErrDailyPlanNotFound, 404, 21004},
		{"DayLocked", service.ErrDayLocked, 403, 21005},
		{"Inactive", service.ErrEnrollmentInactive, 409, 21006},
		{"InternalError", errors.New("unknown"), 500, 50000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockEnrollmentService{dayErr: tt.err}
			h := NewScheduleHandler(mock, &mockDailyPlanService{}, &mockCalendarService{})

			_, _, w := setupGin()
			req := httptest.NewRequest("GET", "/enrollments/enr-1/days/2", nil)

			r := gin.New()
			r.GET("/enrollments/:id/days/:day", withAuth(setAuth, h.GetDailyPlan))
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if resp := parseResponse(w); resp.Code != tt.wantCode {
				t.Errorf("expected code %d, got %d", tt.wantCode, resp.Code)
			}
		})
	}
}

func TestScheduleHandler_ExportCalendar(t *testing.T) {
	cal := &mockCalendarService{body: "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"}
	h := NewScheduleHandler(&mockEnrollmentService{}, &mockDailyPlanService{}, cal)

	_, _, w := setupGin()
	req := httptest.NewRequest("GET", "/enrollments/enr-1/calendar.ics", nil)

	r := gin.New()
	r.GET("/enrollments/:id/calendar.ics", withAuth(setAuth, h.ExportCalendar))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("unexpected content type: %s", ct)
	}
	if !strings.Contains(w.Body.String(), "BEGIN:VCALENDAR") {
		t.Error("expected calendar body")
	}
}

// ═══════════════════════════════════════════════════════════
// CompletionHandler Tests
// ═══════════════════════════════════════════════════════════

func TestCompletionHandler_Mark_Success(t *testing.T) {
	mock := &mockCompletionService{markResult: &dto.CompletionResponse{ContentType: "MAIN", StepIndex: 3}}
	h := NewCompletionHandler(mock)

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/enrollments/enr-1/completions", jsonBody(dto.CompletionRequest{
		ContentType: "MAIN",
		StepIndex:   3,
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/enrollments/:id/completions", withAuth(setAuth, h.MarkCompletion))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestCompletionHandler_Mark_BadContentType(t *testing.T) {
	h := NewCompletionHandler(&mockCompletionService{})

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/enrollments/enr-1/completions", jsonBody(map[string]interface{}{
		"content_type": "COOLDOWN",
		"step_index":   1,
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/enrollments/:id/completions", withAuth(setAuth, h.MarkCompletion))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestCompletionHandler_Unmark_FromQuery(t *testing.T) {
	mock := &mockCompletionService{}
	h := NewCompletionHandler(mock)

	_, _, w := setupGin()
	req := httptest.NewRequest("DELETE", "/enrollments/enr-1/completions?content_type=WARMUP&step_index=4", nil)

	r := gin.New()
	r.DELETE("/enrollments/:id/completions", withAuth(setAuth, h.UnmarkCompletion))
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if mock.gotReq == nil || mock.gotReq.ContentType != "WARMUP" || mock.gotReq.StepIndex != 4 {
		t.Errorf("unexpected request: %+v", mock.gotReq)
	}
}

func TestCompletionHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"StepNotFound", service.ErrStepNotFound, 404, 22004},
		{"NotFound", service.ErrCompletionNotFound, 404, 22005},
		{"Mismatch", service.ErrWorkoutMismatch, 400, 22006},
		{"InternalError", errors.New("unknown"), 500, 50000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewCompletionHandler(&mockCompletionService{unmarkErr: tt.err})

			_, _, w := setupGin()
			req := httptest.NewRequest("DELETE", "/enrollments/enr-1/completions?content_type=MAIN&step_index=1", nil)

			r := gin.New()
			r.DELETE("/enrollments/:id/completions", withAuth(setAuth, h.UnmarkCompletion))
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if resp := parseResponse(w); resp.Code != tt.wantCode {
				t.Errorf("expected code %d, got %d", tt.wantCode, resp.Code)
			}
		})
	}
}

// ═══════════════════════════════════════════════════════════
// WeekHandler Tests
// ═══════════════════════════════════════════════════════════

func TestWeekHandler_PublishWeek_Dispatched(t *testing.T) {
	mock := &mockWeekService{result: &dto.PublishWeekResponse{CourseID: "c-1", WeekNumber: 5, Dispatched: true}}
	h := NewWeekHandler(mock, &mockPlanBatchService{})

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/admin/courses/c-1/weeks", jsonBody(map[string]interface{}{
		"week_number": 5,
		"release_at":  "2025-04-14T09:00:00+03:00",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/admin/courses/:id/weeks", h.PublishWeek)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Errorf("expected 202, got %d", w.Code)
	}
}

func TestWeekHandler_PublishWeek_Inline(t *testing.T) {
	mock := &mockWeekService{result: &dto.PublishWeekResponse{
		CourseID:   "c-1",
		WeekNumber: 5,
		Result:     &dto.PlanUpdateResult{TotalUsers: 2, UpdatedUsers: 2},
	}}
	h := NewWeekHandler(mock, &mockPlanBatchService{})

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/admin/courses/c-1/weeks", jsonBody(map[string]interface{}{"week_number": 5}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/admin/courses/:id/weeks", h.PublishWeek)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestWeekHandler_RunPlanUpdate(t *testing.T) {
	mock := &mockPlanBatchService{result: &dto.PlanUpdateResult{TotalUsers: 3, UpdatedUsers: 3}}
	h := NewWeekHandler(&mockWeekService{}, mock)

	_, _, w := setupGin()
	req := httptest.NewRequest("POST", "/admin/courses/c-1/weeks/4/plan-update", nil)

	r := gin.New()
	r.POST("/admin/courses/:id/weeks/:week/plan-update", h.RunPlanUpdate)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if mock.gotWeek != 4 {
		t.Errorf("expected week 4, got %d", mock.gotWeek)
	}
}

func TestWeekHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"CourseNotFound", service.ErrCourseNotFound, 404, 23003},
		{"NotSubscription", service.ErrCourseNotSubscription, 400, 23004},
		{"InProgress", service.ErrPlanUpdateInProgress, 409, 23005},
		{"InternalError", errors.New("unknown"), 500, 50000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewWeekHandler(&mockWeekService{}, &mockPlanBatchService{err: tt.err})

			_, _, w := setupGin()
			req := httptest.NewRequest("POST", "/admin/courses/c-1/weeks/2/plan-update", nil)

			r := gin.New()
			r.POST("/admin/courses/:id/weeks/:week/plan-update", h.RunPlanUpdate)
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if resp := parseResponse(w); resp.Code != tt.wantCode {
				t.Errorf("expected code %d, got %d", tt.wantCode, resp.Code)
			}
		})
	}
}

// ═══════════════════════════════════════════════════════════
// ExportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestExportHandler_ExportRun_Success(t *testing.T) {
	mock := &mockExportService{
		buf:      bytes.NewBufferString("excel content"),
		filename: "plan_update_week3_20250331_090000.xlsx",
	}
	h := NewExportHandler(mock)

	_, _, w := setupGin()
	req := httptest.NewRequest("GET", "/admin/plan-update-runs/run-1/export", nil)

	r := gin.New()
	r.GET("/admin/plan-update-runs/:id/export", h.ExportRun)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	ct := w.Header().Get("Content-Type")
	if ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("unexpected content type: %s", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "plan_update_week3") {
		t.Errorf("unexpected Content-Disposition: %s", cd)
	}
}

func TestExportHandler_NotFound(t *testing.T) {
	h := NewExportHandler(&mockExportService{err: service.ErrPlanUpdateRunNotFound})

	_, _, w := setupGin()
	req := httptest.NewRequest("GET", "/admin/plan-update-runs/missing", nil)

	r := gin.New()
	r.GET("/admin/plan-update-runs/:id", h.GetRun)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 24002 {
		t.Errorf("expected code 24002, got %d", resp.Code)
	}
}

func TestExportHandler_ListRuns_Pagination(t *testing.T) {
	mock := &mockExportService{
		runs:  []dto.PlanUpdateRunResponse{{ID: "run-1"}, {ID: "run-2"}},
		total: 12,
	}
	h := NewExportHandler(mock)

	_, _, w := setupGin()
	req := httptest.NewRequest("GET", "/admin/plan-update-runs?page=2&page_size=10", nil)

	r := gin.New()
	r.GET("/admin/plan-update-runs", h.ListRuns)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Data response.PageData `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.Pagination.Page != 2 || body.Data.Pagination.Total != 12 || body.Data.Pagination.TotalPages != 2 {
		t.Errorf("unexpected pagination: %+v", body.Data.Pagination)
	}
}
