// Package employeehandler serves the self-service pages of a signed-in
// employee: dashboard and clock, own attendance, leave and profile.
package employeehandler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"emsconsole/internal/domain/employee"
	"emsconsole/internal/emsapi"
	"emsconsole/internal/transport/http/middleware"
	"emsconsole/internal/transport/http/shared"
	"emsconsole/internal/transport/http/web"
	"emsconsole/internal/ui"
	"emsconsole/internal/view"
)

const historyLimit = 30

type Upstream interface {
	EmployeeDashboard(ctx context.Context) (emsapi.EmployeeDashboard, error)
	Clock(ctx context.Context, action string, at time.Time) (emsapi.ClockResult, error)
	AttendanceHistory(ctx context.Context, limit int) ([]emsapi.OwnAttendance, emsapi.AttendanceStats, error)
	MarkOwnAttendance(ctx context.Context) (emsapi.MarkOwnResult, error)
	LeaveHistory(ctx context.Context) ([]emsapi.LeaveRequest, emsapi.LeaveStats, error)
	SubmitLeave(ctx context.Context, in emsapi.LeaveInput) (emsapi.LeaveRequest, string, error)
	CancelLeave(ctx context.Context, id string) (string, error)
	ProfileData(ctx context.Context) (emsapi.Profile, error)
}

type Handler struct {
	API Upstream
	Kit *web.Kit
}

func NewHandler(api Upstream, kit *web.Kit) *Handler {
	return &Handler{API: api, Kit: kit}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employee", func(r chi.Router) {
		r.Use(middleware.RequireRole("/login", middleware.RoleEmployee))
		r.Get("/dashboard", h.HandleDashboard)
		r.Post("/clock", h.HandleClock)
		r.Get("/attendance", h.HandleAttendance)
		r.Post("/attendance/mark", h.HandleMarkAttendance)
		r.Get("/leave", h.HandleLeave)
		r.Post("/leave/submit", h.HandleSubmitLeave)
		r.Post("/leave/draft", h.HandleSaveDraft)
		r.Post("/leave/{id}/cancel", h.HandleCancelLeave)
		r.Get("/profile", h.HandleProfile)
	})
}

type dashboardData struct {
	Dashboard  emsapi.EmployeeDashboard
	ClockedIn  bool
	ClockedOut bool
}

func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.API.EmployeeDashboard(r.Context())
	if err != nil && h.Kit.ToastFromError(w, r, err, "dashboard.load_failed") {
		return
	}
	p := h.Kit.Page(r, h.Kit.T(r, "nav.dashboard"))
	today := dash.TodayAttendance
	p.Data = dashboardData{
		Dashboard:  dash,
		ClockedIn:  today.ClockIn != "" && today.ClockOut == "",
		ClockedOut: today.ClockOut != "",
	}
	h.Kit.Render(w, r, http.StatusOK, "employee_dashboard", p)
}

const dashboardPath = "/employee/dashboard"

func (h *Handler) HandleClock(w http.ResponseWriter, r *http.Request) {
	if err := shared.ParseForm(r); err != nil {
		h.Kit.Toast(r, ui.SeverityError, "error.generic")
		web.SeeOther(w, r, dashboardPath)
		return
	}
	action := shared.Field(r, "action")
	if action != emsapi.ClockOut {
		action = emsapi.ClockIn
	}
	release, ok := h.Kit.Acquire(r, "clock")
	if !ok {
		web.SeeOther(w, r, dashboardPath)
		return
	}
	defer release()

	res, err := h.API.Clock(r.Context(), action, h.Kit.Clock.Now())
	if err != nil {
		if h.Kit.ToastFromError(w, r, err, "error.generic") {
			return
		}
		web.SeeOther(w, r, dashboardPath)
		return
	}
	if res.Action == emsapi.ClockOut {
		h.Kit.Toast(r, ui.SeveritySuccess, "clock.out", map[string]any{
			"Time":  res.Time,
			"Hours": view.FormatNumber(res.TotalHours.Float()),
		})
	} else {
		h.Kit.Toast(r, ui.SeveritySuccess, "clock.in", map[string]any{"Time": res.Time})
	}
	slog.InfoContext(r.Context(), "clock recorded", "action", res.Action)
	web.SeeOther(w, r, dashboardPath)
}

type attendanceData struct {
	Stats emsapi.AttendanceStats
	Table view.Table
}

const attendancePath = "/employee/attendance"

func (h *Handler) HandleAttendance(w http.ResponseWriter, r *http.Request) {
	history, stats, err := h.API.AttendanceHistory(r.Context(), historyLimit)
	if err != nil && h.Kit.ToastFromError(w, r, err, "attendance.load_failed") {
		return
	}
	p := h.Kit.Page(r, h.Kit.T(r, "nav.attendance"))
	p.Data = attendanceData{Stats: stats, Table: view.OwnAttendanceTable(history)}
	h.Kit.Render(w, r, http.StatusOK, "employee_attendance", p)
}

// HandleMarkAttendance records today as present. The upstream answers an
// already-marked day with a success envelope of type "info".
func (h *Handler) HandleMarkAttendance(w http.ResponseWriter, r *http.Request) {
	release, ok := h.Kit.Acquire(r, "attendance-self")
	if !ok {
		web.SeeOther(w, r, attendancePath)
		return
	}
	defer release()

	res, err := h.API.MarkOwnAttendance(r.Context())
	if err != nil {
		if h.Kit.ToastFromError(w, r, err, "error.generic") {
			return
		}
		web.SeeOther(w, r, attendancePath)
		return
	}
	message := res.Message
	if message == "" {
		message = h.Kit.T(r, "attendance.self_marked")
	}
	severity := ui.SeveritySuccess
	if res.Kind != "" {
		severity = ui.ParseSeverity(res.Kind)
	}
	h.Kit.Flash(r, severity, message)
	web.SeeOther(w, r, attendancePath)
}

type profileData struct {
	Profile profileView
}

// profileView is the profile record with its display fields filled in.
type profileView struct {
	emsapi.Profile
	ShortID      string
	DisplayPhone string
	Hired        string
}

func newProfileView(p emsapi.Profile) profileView {
	name := employee.SplitName(employee.OrDefault(p.FullName, p.Name))
	p.FullName = name.Full
	p.FirstName = employee.OrDefault(p.FirstName, name.First)
	p.LastName = employee.OrDefault(p.LastName, name.Last)
	return profileView{
		Profile:      p,
		ShortID:      employee.ShortID(employee.OrDefault(p.EmployeeID, string(p.ID))),
		DisplayPhone: employee.FormatPhone(p.Phone),
		Hired:        employee.HireDate(employee.OrDefault(p.HireDate, p.CreatedAt)),
	}
}

func (h *Handler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.API.ProfileData(r.Context())
	if err != nil && h.Kit.ToastFromError(w, r, err, "profile.load_failed") {
		return
	}
	p := h.Kit.Page(r, h.Kit.T(r, "nav.profile"))
	p.Data = profileData{Profile: newProfileView(profile)}
	if err == nil && r.URL.Query().Get("modal") == "profile" {
		html, err := h.Kit.Modal("profile", p)
		if err != nil {
			slog.ErrorContext(r.Context(), "render modal failed", "modal", "profile", "error", err)
		} else {
			p.Modal = html
		}
	}
	h.Kit.Render(w, r, http.StatusOK, "employee_profile", p)
}
