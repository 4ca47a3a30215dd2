package leaverequestshandler

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"emsconsole/internal/domain/leave"
	"emsconsole/internal/emsapi"
	"emsconsole/internal/transport/http/middleware"
	"emsconsole/internal/transport/http/shared"
	"emsconsole/internal/transport/http/web"
	"emsconsole/internal/ui"
	"emsconsole/internal/view"
)

const pagePath = "/admin/leave-requests"

type Upstream interface {
	ListLeaveRequests(ctx context.Context, status string) ([]emsapi.LeaveRequest, error)
	AdminLeaveStats(ctx context.Context) (emsapi.AdminLeaveStats, error)
	ListEmployees(ctx context.Context) ([]emsapi.Employee, error)
	CreateLeaveRequest(ctx context.Context, in emsapi.AdminLeaveInput) (emsapi.LeaveRequest, string, error)
	UpdateLeaveStatus(ctx context.Context, requestID, status string) (string, error)
	DeleteLeaveRequest(ctx context.Context, requestID string) (string, error)
}

type Handler struct {
	API Upstream
	Kit *web.Kit
}

func NewHandler(api Upstream, kit *web.Kit) *Handler {
	return &Handler{API: api, Kit: kit}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route(pagePath, func(r chi.Router) {
		r.Use(middleware.RequireRole("/login", middleware.RoleAdmin))
		r.Get("/", h.HandleList)
		r.Post("/create", h.HandleCreate)
		r.Post("/{id}/status", h.HandleStatus)
		r.Post("/{id}/delete", h.HandleDelete)
	})
}

type pageData struct {
	Stats      emsapi.AdminLeaveStats
	Status     string
	Statuses   []string
	Table      view.Table
	Employees  []emsapi.Employee
	LeaveTypes []leave.Type
}

// statusFilter is the ?status= tab; unknown values show every request.
func statusFilter(r *http.Request) string {
	status := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("status")))
	for _, s := range leave.Statuses {
		if s == status {
			return s
		}
	}
	return ""
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	var form map[string]string
	if r.URL.Query().Get("modal") == "create-leave" {
		form = map[string]string{}
	}
	h.render(w, r, http.StatusOK, nil, form)
}

// render draws the list. A non-nil form opens the create modal with it.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, errs, form map[string]string) {
	filter := statusFilter(r)
	requests, err := h.API.ListLeaveRequests(r.Context(), filter)
	if err != nil && h.Kit.ToastFromError(w, r, err, "leave.load_failed") {
		return
	}
	stats, err := h.API.AdminLeaveStats(r.Context())
	if err != nil {
		if emsapi.IsUnauthorized(err) {
			h.Kit.Expire(w, r)
			return
		}
		slog.WarnContext(r.Context(), "leave stats unavailable", "error", err)
		stats = countStats(requests, filter)
	}

	data := pageData{
		Stats:      stats,
		Status:     filter,
		Statuses:   leave.Statuses,
		Table:      view.LeaveRequestTable(view.FilterLeaveRequests(requests, filter)),
		LeaveTypes: leave.Types,
	}
	p := h.Kit.Page(r, h.Kit.T(r, "nav.leave_requests"))
	if form != nil {
		employees, err := h.API.ListEmployees(r.Context())
		if err != nil && h.Kit.ToastFromError(w, r, err, "employee.load_failed") {
			return
		}
		data.Employees = employees
		p.Errors = errs
		p.Form = form
	}
	p.Data = data
	if form != nil {
		html, err := h.Kit.Modal("create-leave", p)
		if err != nil {
			slog.ErrorContext(r.Context(), "render modal failed", "modal", "create-leave", "error", err)
		} else {
			p.Modal = html
		}
	}
	h.Kit.Render(w, r, status, "admin_leave_requests", p)
}

// countStats stands in for the stats endpoint from the unfiltered list.
func countStats(requests []emsapi.LeaveRequest, filter string) emsapi.AdminLeaveStats {
	var s emsapi.AdminLeaveStats
	if filter != "" {
		return s
	}
	s.TotalRequests = len(requests)
	for _, req := range requests {
		switch strings.ToLower(req.Status) {
		case leave.StatusPending:
			s.PendingRequests++
		case leave.StatusApproved:
			s.ApprovedRequests++
		case leave.StatusRejected:
			s.RejectedRequests++
		}
	}
	return s
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if err := shared.ParseForm(r); err != nil {
		h.render(w, r, http.StatusBadRequest, map[string]string{"employee_id": h.Kit.T(r, "error.generic")}, map[string]string{})
		return
	}
	draft := shared.LeaveForm(r)
	employeeID := shared.Field(r, "employee_id")
	form := map[string]string{
		"employee_id": employeeID,
		"leave_type":  draft.LeaveType,
		"start_date":  draft.StartDate,
		"end_date":    draft.EndDate,
		"reason":      draft.Reason,
	}

	v := shared.NewValidator()
	v.Required("employee_id", employeeID, "Employee is required")
	v.Leave(draft, h.Kit.Clock.Now())
	if v.HasIssues() {
		h.render(w, r, http.StatusUnprocessableEntity, v.FieldErrors(), form)
		return
	}

	release, ok := h.Kit.Acquire(r, "leave-create")
	if !ok {
		web.SeeOther(w, r, pagePath)
		return
	}
	defer release()

	_, message, err := h.API.CreateLeaveRequest(r.Context(), emsapi.AdminLeaveInput{
		EmployeeID: employeeID,
		LeaveInput: emsapi.LeaveInput{
			LeaveType: draft.LeaveType,
			StartDate: draft.StartDate,
			EndDate:   draft.EndDate,
			Reason:    draft.Reason,
		},
	})
	if err != nil {
		if h.Kit.ToastFromError(w, r, err, "error.generic") {
			return
		}
		h.render(w, r, http.StatusOK, nil, form)
		return
	}
	h.flashSuccess(r, message, "leave.created", nil)
	web.SeeOther(w, r, pagePath)
}

func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	back := returnPath(r)
	if err := shared.ParseForm(r); err != nil {
		h.Kit.Toast(r, ui.SeverityError, "error.generic")
		web.SeeOther(w, r, back)
		return
	}
	status := strings.ToLower(shared.Field(r, "status"))
	v := shared.NewValidator()
	if v.Required("status", status, "Status is required") {
		v.Enum("status", status, leave.Statuses, "Status must be pending, approved or rejected")
	}
	if v.HasIssues() {
		h.Kit.Flash(r, ui.SeverityError, v.FieldErrors()["status"])
		web.SeeOther(w, r, back)
		return
	}

	id := chi.URLParam(r, "id")
	release, ok := h.Kit.Acquire(r, "leave-status:"+id)
	if !ok {
		web.SeeOther(w, r, back)
		return
	}
	defer release()

	message, err := h.API.UpdateLeaveStatus(r.Context(), id, status)
	if err != nil {
		if h.Kit.ToastFromError(w, r, err, "error.generic") {
			return
		}
		web.SeeOther(w, r, back)
		return
	}
	h.flashSuccess(r, message, "leave.status_updated", map[string]any{"Status": view.Label(status)})
	web.SeeOther(w, r, back)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	back := returnPath(r)
	id := chi.URLParam(r, "id")
	release, ok := h.Kit.Acquire(r, "leave-delete:"+id)
	if !ok {
		web.SeeOther(w, r, back)
		return
	}
	defer release()

	message, err := h.API.DeleteLeaveRequest(r.Context(), id)
	if err != nil {
		if h.Kit.ToastFromError(w, r, err, "error.generic") {
			return
		}
		web.SeeOther(w, r, back)
		return
	}
	h.flashSuccess(r, message, "leave.deleted", nil)
	web.SeeOther(w, r, back)
}

// returnPath keeps the status tab the admin acted from.
func returnPath(r *http.Request) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Path != pagePath {
		return pagePath
	}
	if status := ref.Query().Get("status"); status != "" {
		return pagePath + "?status=" + url.QueryEscape(status)
	}
	return pagePath
}

func (h *Handler) flashSuccess(r *http.Request, message, fallbackID string, data map[string]any) {
	if message == "" {
		if data != nil {
			message = h.Kit.T(r, fallbackID, data)
		} else {
			message = h.Kit.T(r, fallbackID)
		}
	}
	h.Kit.Flash(r, ui.SeveritySuccess, message)
}
