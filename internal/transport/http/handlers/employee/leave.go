package employeehandler

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"emsconsole/internal/domain/leave"
	"emsconsole/internal/emsapi"
	"emsconsole/internal/platform/markdown"
	"emsconsole/internal/requestctx"
	"emsconsole/internal/transport/http/api"
	"emsconsole/internal/transport/http/shared"
	"emsconsole/internal/transport/http/web"
	"emsconsole/internal/ui"
	"emsconsole/internal/view"
)

const leavePath = "/employee/leave"

type historyRow struct {
	Row         view.Row
	Request     emsapi.LeaveRequest
	TypeLabel   string
	Days        int
	Cancellable bool
}

type leaveData struct {
	Stats         emsapi.LeaveStats
	LeaveTypes    []leave.Type
	DraftDays     int
	DraftWeekdays int
	Policy        template.HTML
	History       []historyRow
}

// draftSpan counts the days a draft covers; zero when its dates are
// missing or reversed.
func draftSpan(d leave.Draft) (days, weekdays int) {
	start, errStart := shared.ParseDate(d.StartDate)
	end, errEnd := shared.ParseDate(d.EndDate)
	if errStart != nil || errEnd != nil || start.IsZero() || end.IsZero() {
		return 0, 0
	}
	days, err := leave.InclusiveDays(start, end)
	if err != nil {
		return 0, 0
	}
	return days, leave.Weekdays(start, end)
}

func draftForm(d leave.Draft) map[string]string {
	return map[string]string{
		"leave_type": d.LeaveType,
		"start_date": d.StartDate,
		"end_date":   d.EndDate,
		"reason":     d.Reason,
	}
}

func (h *Handler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	var draft leave.Draft
	if sess := web.CurrentSession(r); sess != nil {
		draft = sess.Draft
	}
	h.renderLeave(w, r, http.StatusOK, nil, draft)
}

func (h *Handler) renderLeave(w http.ResponseWriter, r *http.Request, status int, errs map[string]string, draft leave.Draft) {
	history, stats, err := h.API.LeaveHistory(r.Context())
	if err != nil && h.Kit.ToastFromError(w, r, err, "leave.load_failed") {
		return
	}
	stats.RemainingBalance = leave.RemainingBalance(stats.ApprovedDays)
	policy, err := markdown.Document(markdown.LeavePolicy)
	if err != nil {
		slog.ErrorContext(r.Context(), "leave policy unavailable", "error", err)
	}

	data := leaveData{Stats: stats, LeaveTypes: leave.Types, Policy: policy}
	data.DraftDays, data.DraftWeekdays = draftSpan(draft)
	for i, req := range history {
		data.History = append(data.History, historyRow{
			Row:         view.Row{ID: req.ID.String(), Index: i},
			Request:     req,
			TypeLabel:   leave.TypeLabel(req.LeaveType),
			Days:        view.LeaveDays(req),
			Cancellable: leave.Cancellable(req.Status),
		})
	}
	p := h.Kit.Page(r, h.Kit.T(r, "nav.leave"))
	p.Data = data
	p.Errors = errs
	p.Form = draftForm(draft)
	h.Kit.Render(w, r, status, "employee_leave", p)
}

func (h *Handler) saveDraft(r *http.Request, draft leave.Draft) {
	if sess := web.CurrentSession(r); sess != nil {
		sess.Draft = draft
		h.Kit.SaveSession(r, sess)
	}
}

func (h *Handler) HandleSubmitLeave(w http.ResponseWriter, r *http.Request) {
	if err := shared.ParseForm(r); err != nil {
		h.Kit.Toast(r, ui.SeverityError, "error.generic")
		web.SeeOther(w, r, leavePath)
		return
	}
	draft := shared.LeaveForm(r)
	v := shared.NewValidator()
	v.Leave(draft, h.Kit.Clock.Now())
	v.LeaveReason(draft.Reason)
	if v.HasIssues() {
		h.saveDraft(r, draft)
		h.renderLeave(w, r, http.StatusUnprocessableEntity, v.FieldErrors(), draft)
		return
	}

	release, ok := h.Kit.Acquire(r, "leave-submit")
	if !ok {
		web.SeeOther(w, r, leavePath)
		return
	}
	defer release()

	_, message, err := h.API.SubmitLeave(r.Context(), emsapi.LeaveInput{
		LeaveType: draft.LeaveType,
		StartDate: draft.StartDate,
		EndDate:   draft.EndDate,
		Reason:    draft.Reason,
	})
	if err != nil {
		h.saveDraft(r, draft)
		if h.Kit.ToastFromError(w, r, err, "error.generic") {
			return
		}
		web.SeeOther(w, r, leavePath)
		return
	}
	h.saveDraft(r, leave.Draft{})
	if message == "" {
		message = h.Kit.T(r, "leave.submitted")
	}
	h.Kit.Flash(r, ui.SeveritySuccess, message)
	web.SeeOther(w, r, leavePath)
}

type draftResult struct {
	Days     int `json:"days"`
	Weekdays int `json:"weekdays"`
}

// HandleSaveDraft keeps whatever has been typed so far; nothing is
// validated until the form is submitted.
func (h *Handler) HandleSaveDraft(w http.ResponseWriter, r *http.Request) {
	if err := shared.ParseForm(r); err != nil {
		if api.WantsJSON(r) {
			api.Fail(w, http.StatusBadRequest, "bad_request", h.Kit.T(r, "error.generic"), requestctx.GetRequestID(r.Context()))
			return
		}
		web.SeeOther(w, r, leavePath)
		return
	}
	draft := shared.LeaveForm(r)
	h.saveDraft(r, draft)
	if api.WantsJSON(r) {
		days, weekdays := draftSpan(draft)
		api.Success(w, draftResult{Days: days, Weekdays: weekdays}, requestctx.GetRequestID(r.Context()))
		return
	}
	h.Kit.Toast(r, ui.SeverityInfo, "leave.draft_saved")
	web.SeeOther(w, r, leavePath)
}

// HandleCancelLeave withdraws one of the employee's own pending requests.
func (h *Handler) HandleCancelLeave(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	history, _, err := h.API.LeaveHistory(r.Context())
	if err != nil {
		if h.Kit.ToastFromError(w, r, err, "leave.load_failed") {
			return
		}
		web.SeeOther(w, r, leavePath)
		return
	}
	cancellable := false
	for _, req := range history {
		if req.ID.String() == id {
			cancellable = leave.Cancellable(req.Status)
			break
		}
	}
	if !cancellable {
		h.Kit.Toast(r, ui.SeverityWarning, "leave.cancel_not_pending")
		web.SeeOther(w, r, leavePath)
		return
	}

	release, ok := h.Kit.Acquire(r, "leave-cancel:"+id)
	if !ok {
		web.SeeOther(w, r, leavePath)
		return
	}
	defer release()

	message, err := h.API.CancelLeave(r.Context(), id)
	if err != nil {
		if h.Kit.ToastFromError(w, r, err, "error.generic") {
			return
		}
		web.SeeOther(w, r, leavePath)
		return
	}
	if message == "" {
		message = h.Kit.T(r, "leave.cancelled")
	}
	h.Kit.Flash(r, ui.SeveritySuccess, message)
	web.SeeOther(w, r, leavePath)
}
