package employeehandler

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"emsconsole/internal/domain/leave"
	"emsconsole/internal/platform/session"
	"emsconsole/internal/transport/http/handlers/handlertest"
	"emsconsole/internal/transport/http/middleware"
	"emsconsole/internal/ui"
)

func setup(t *testing.T) (*handlertest.Env, func(chi.Router), *session.Session) {
	t.Helper()
	env := handlertest.New(t)
	env.Kit.Clock = ui.NewManualClock(time.Date(2025, 3, 10, 8, 30, 0, 0, time.Local))
	h := NewHandler(env.Client, env.Kit)
	return env, h.RegisterRoutes, env.SignIn(t, middleware.RoleEmployee)
}

func leaveHistory(env *handlertest.Env) {
	env.Upstream.JSON(http.MethodGet, "/employee/leave/history", http.StatusOK, map[string]any{
		"success": true,
		"history": []map[string]any{
			{"id": 31, "leave_type": "sick", "start_date": "2025-03-12", "end_date": "2025-03-13", "status": "pending"},
			{"id": 30, "leave_type": "vacation", "start_date": "2025-02-03", "end_date": "2025-02-07", "status": "approved", "leave_days": 5},
		},
		"stats": map[string]any{"total_requested": 7, "approved_days": 5, "pending_requests": 1, "remaining_balance": 15},
	})
}

func TestDashboardShowsClockOut(t *testing.T) {
	env, routes, sess := setup(t)
	env.Upstream.JSON(http.MethodGet, "/employee/dashboard-data", http.StatusOK, map[string]any{
		"success":          true,
		"stats":            map[string]any{"attendance_rate": 92.5, "leave_balance": 15, "pending_requests": 1, "team_size": 8},
		"today_attendance": map[string]any{"clock_in": "08:02 AM", "status": "present"},
		"recent_leave_requests": []map[string]any{
			{"id": 1, "leave_type": "sick", "start_date": "2025-03-12", "end_date": "2025-03-13", "status": "pending"},
		},
	})
	rec := env.Serve(routes, handlertest.Get("/employee/dashboard"), sess)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	doc := handlertest.Document(t, rec)
	if got := doc.Find(".kpi-value").First().Text(); got != "92.5%" {
		t.Fatalf("expected attendance rate, got %q", got)
	}
	if got, _ := doc.Find(`.clock-card input[name="action"]`).Attr("value"); got != "clock_out" {
		t.Fatalf("expected clock-out form, got %q", got)
	}
	if got := doc.Find(".clock-card dd").Eq(2).Text(); got != "N/A" {
		t.Fatalf("expected N/A clock out, got %q", got)
	}
}

func TestClockOutToastCarriesHours(t *testing.T) {
	env, routes, sess := setup(t)
	env.Upstream.JSON(http.MethodPost, "/employee/clock", http.StatusOK, map[string]any{
		"success": true, "action": "clock_out", "clock_out_time": "05:15 PM", "total_hours": 8.25,
	})

	rec := env.Serve(routes, handlertest.PostForm("/employee/clock", url.Values{"action": {"clock_out"}}), sess)
	handlertest.ExpectRedirect(t, rec, "/employee/dashboard")

	body := env.Upstream.Body(t, http.MethodPost, "/employee/clock")
	if body["action"] != "clock_out" {
		t.Fatalf("unexpected action %v", body["action"])
	}
	if ts, _ := body["timestamp"].(string); !strings.HasPrefix(ts, "2025-03-10T08:30:00") {
		t.Fatalf("expected clock timestamp, got %q", ts)
	}
	if !env.HasToast(sess, ui.SeveritySuccess, "Clocked out at 05:15 PM. Total hours: 8.25.") {
		t.Fatalf("expected clock-out toast, got %v", env.Messages(sess))
	}
}

func TestClockRejectedShowsUpstreamError(t *testing.T) {
	env, routes, sess := setup(t)
	env.Upstream.JSON(http.MethodPost, "/employee/clock", http.StatusBadRequest, map[string]any{
		"success": false, "error": "Attendance already completed for today",
	})
	rec := env.Serve(routes, handlertest.PostForm("/employee/clock", url.Values{"action": {"clock_in"}}), sess)
	handlertest.ExpectRedirect(t, rec, "/employee/dashboard")
	if !env.HasToast(sess, ui.SeverityError, "already completed") {
		t.Fatalf("expected error toast, got %v", env.Messages(sess))
	}
}

func TestAttendanceHistoryAndMark(t *testing.T) {
	env, routes, sess := setup(t)
	env.Upstream.JSON(http.MethodGet, "/employee/attendance/history", http.StatusOK, map[string]any{
		"success": true,
		"history": []map[string]any{{"id": 5, "date": "2025-03-07", "status": "present", "created_at": "2025-03-07T08:01:12"}},
		"stats":   map[string]any{"total_days": 5, "present_days": 4, "attendance_rate": 80, "marked_today": true, "current_month": "March 2025"},
	})
	env.Upstream.JSON(http.MethodPost, "/employee/attendance/mark", http.StatusOK, map[string]any{
		"success": true, "type": "info", "message": "Attendance already marked for today",
	})

	rec := env.Serve(routes, handlertest.Get("/employee/attendance"), sess)
	doc := handlertest.Document(t, rec)
	if got := env.Upstream.Query(http.MethodGet, "/employee/attendance/history").Get("limit"); got != "30" {
		t.Fatalf("expected history limit 30, got %q", got)
	}
	if _, disabled := doc.Find(".page-header button").Attr("disabled"); !disabled {
		t.Fatalf("expected mark button disabled once marked")
	}
	if got := doc.Find("#history-table tbody td").Eq(2).Text(); got != "2025-03-07 08:01" {
		t.Fatalf("unexpected recorded time %q", got)
	}

	rec = env.Serve(routes, handlertest.PostForm("/employee/attendance/mark", url.Values{}), sess)
	handlertest.ExpectRedirect(t, rec, "/employee/attendance")
	if !env.HasToast(sess, ui.SeverityInfo, "already marked") {
		t.Fatalf("expected info toast, got %v", env.Messages(sess))
	}
}

func TestLeavePageRestoresDraft(t *testing.T) {
	env, routes, sess := setup(t)
	leaveHistory(env)
	sess.Draft = leave.Draft{LeaveType: "personal", StartDate: "2025-03-14", EndDate: "2025-03-17", Reason: "Moving house"}
	if err := env.Kit.Sessions.Save(t.Context(), sess); err != nil {
		t.Fatalf("save session: %v", err)
	}

	rec := env.Serve(routes, handlertest.Get("/employee/leave"), sess)
	doc := handlertest.Document(t, rec)
	if _, ok := doc.Find(`#leave-type option[value="personal"]`).Attr("selected"); !ok {
		t.Fatalf("expected draft leave type selected")
	}
	if got := doc.Find("[data-leave-days]").Text(); got != "4 day(s), 2 working day(s)" {
		t.Fatalf("unexpected day count %q", got)
	}
	if doc.Find(".policy h1, .policy h2").Length() == 0 {
		t.Fatalf("expected rendered leave policy")
	}
	rows := doc.Find("#leave-history tbody tr")
	if rows.Length() != 2 {
		t.Fatalf("expected 2 history rows, got %d", rows.Length())
	}
	if rows.Eq(0).Find("form").Length() != 1 || rows.Eq(1).Find("form").Length() != 0 {
		t.Fatalf("only the pending request may be cancelled")
	}
	if got := rows.Eq(0).Find("td").Eq(3).Text(); got != "2" {
		t.Fatalf("expected derived 2 days, got %q", got)
	}
}

func TestSubmitInvalidKeepsDraft(t *testing.T) {
	env, routes, sess := setup(t)
	leaveHistory(env)
	form := url.Values{"leave_type": {"sick"}, "start_date": {"2025-03-07"}, "end_date": {"2025-03-08"}, "reason": {"short"}}

	rec := env.Serve(routes, handlertest.PostForm("/employee/leave/submit", form), sess)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if env.Upstream.Called(http.MethodPost, "/employee/leave/submit") {
		t.Fatalf("invalid form must not reach upstream")
	}
	doc := handlertest.Document(t, rec)
	for _, field := range []string{"start_date", "reason"} {
		if doc.Find(`[name="`+field+`"]`).NextAllFiltered(".field-error").Length() == 0 {
			t.Fatalf("expected inline error for %s", field)
		}
	}
	stored, err := env.Kit.Sessions.Store.Load(t.Context(), sess.ID)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	if stored.Draft.Reason != "short" || stored.Draft.LeaveType != "sick" {
		t.Fatalf("expected draft kept, got %+v", stored.Draft)
	}
}

func TestSubmitClearsDraft(t *testing.T) {
	env, routes, sess := setup(t)
	env.Upstream.JSON(http.MethodPost, "/employee/leave/submit", http.StatusOK, map[string]any{
		"success": true, "leave_request": map[string]any{"id": 40},
	})
	sess.Draft = leave.Draft{Reason: "old"}
	form := url.Values{"leave_type": {"vacation"}, "start_date": {"2025-03-10"}, "end_date": {"2025-03-14"}, "reason": {"Spring holiday with family"}}

	rec := env.Serve(routes, handlertest.PostForm("/employee/leave/submit", form), sess)
	handlertest.ExpectRedirect(t, rec, "/employee/leave")
	body := env.Upstream.Body(t, http.MethodPost, "/employee/leave/submit")
	if body["leave_type"] != "vacation" || body["end_date"] != "2025-03-14" {
		t.Fatalf("unexpected body %v", body)
	}
	if !sess.Draft.IsEmpty() {
		t.Fatalf("expected draft cleared, got %+v", sess.Draft)
	}
	if !env.HasToast(sess, ui.SeveritySuccess, "Leave request submitted successfully.") {
		t.Fatalf("expected submitted toast, got %v", env.Messages(sess))
	}
}

func TestDraftEndpointReturnsSpan(t *testing.T) {
	env, routes, sess := setup(t)
	form := url.Values{"leave_type": {"vacation"}, "start_date": {"2025-03-14"}, "end_date": {"2025-03-18"}}
	req := handlertest.PostForm("/employee/leave/draft", form)
	req.Header.Set("Accept", "application/json")

	rec := env.Serve(routes, req, sess)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Success bool        `json:"success"`
		Data    draftResult `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success || body.Data.Days != 5 || body.Data.Weekdays != 3 {
		t.Fatalf("unexpected draft span %+v", body)
	}
	if sess.Draft.StartDate != "2025-03-14" {
		t.Fatalf("expected draft stored, got %+v", sess.Draft)
	}
	if len(env.Upstream.Calls()) != 0 {
		t.Fatalf("drafts stay local, got %v", env.Upstream.Calls())
	}
}

func TestCancelOnlyPending(t *testing.T) {
	env, routes, sess := setup(t)
	leaveHistory(env)
	env.Upstream.JSON(http.MethodPost, "/employee/leave/31/cancel", http.StatusOK, map[string]any{"success": true})

	rec := env.Serve(routes, handlertest.PostForm("/employee/leave/30/cancel", url.Values{}), sess)
	handlertest.ExpectRedirect(t, rec, "/employee/leave")
	if env.Upstream.Called(http.MethodPost, "/employee/leave/30/cancel") {
		t.Fatalf("approved request must not be cancelled")
	}
	if !env.HasToast(sess, ui.SeverityWarning, "Only pending requests") {
		t.Fatalf("expected warning, got %v", env.Messages(sess))
	}

	rec = env.Serve(routes, handlertest.PostForm("/employee/leave/31/cancel", url.Values{}), sess)
	handlertest.ExpectRedirect(t, rec, "/employee/leave")
	if !env.HasToast(sess, ui.SeveritySuccess, "Leave request cancelled.") {
		t.Fatalf("expected cancelled toast, got %v", env.Messages(sess))
	}
}

func TestProfileModal(t *testing.T) {
	env, routes, sess := setup(t)
	env.Upstream.JSON(http.MethodGet, "/employee/profile-data", http.StatusOK, map[string]any{
		"success": true,
		"employee": map[string]any{
			"id": 7, "employee_id": "EMP-007", "first_name": "Ana", "name": "Ana Lopez",
			"email": "ana@example.com", "role": "employee", "image": "javascript:alert(1)",
		},
	})
	rec := env.Serve(routes, handlertest.Get("/employee/profile?modal=profile"), sess)
	doc := handlertest.Document(t, rec)
	if got := doc.Find("#modal-profile-title").Text(); got != "Ana Lopez" {
		t.Fatalf("expected name fallback in modal, got %q", got)
	}
	if strings.Contains(rec.Body.String(), "javascript:") {
		t.Fatalf("unsafe image source rendered")
	}
	if got := doc.Find(".profile-card dd").Eq(1).Text(); got != "Lopez" {
		t.Fatalf("expected last name split from the full name, got %q", got)
	}
}

func TestProfileFormatsDetails(t *testing.T) {
	cases := []struct {
		name     string
		employee map[string]any
		want     []string
	}{
		{
			name: "full record",
			employee: map[string]any{
				"id": 7, "employee_id": "EMP-2024-00017", "full_name": "  Ana   Maria Lopez ",
				"email": "ana@example.com", "phone": "555.123.4567", "created_at": "2024-02-01T09:30:00Z",
			},
			want: []string{"Ana", "Lopez", "ana@example.com", "(555) 123-4567", "EMP-2024...", "2024-02-01"},
		},
		{
			name:     "sparse record",
			employee: map[string]any{"id": 9, "name": "Plato", "email": "plato@example.com"},
			want:     []string{"Plato", "N/A", "plato@example.com", "Not provided", "9", "Unknown"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env, routes, sess := setup(t)
			env.Upstream.JSON(http.MethodGet, "/employee/profile-data", http.StatusOK, map[string]any{
				"success": true, "employee": tc.employee,
			})
			rec := env.Serve(routes, handlertest.Get("/employee/profile"), sess)
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			details := handlertest.Document(t, rec).Find(".profile-card dd")
			for i, want := range tc.want {
				if got := strings.TrimSpace(details.Eq(i).Text()); got != want {
					t.Fatalf("detail %d = %q, want %q", i, got, want)
				}
			}
		})
	}
}

func TestEmployeePagesRejectAdmins(t *testing.T) {
	env, routes, _ := setup(t)
	admin := env.SignIn(t, middleware.RoleAdmin)
	rec := env.Serve(routes, handlertest.Get("/employee/leave"), admin)
	handlertest.ExpectRedirect(t, rec, "/admin/dashboard")
}
