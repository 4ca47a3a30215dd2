package attendancehandler

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"emsconsole/internal/domain/attendance"
	"emsconsole/internal/emsapi"
	"emsconsole/internal/export"
	"emsconsole/internal/requestctx"
	"emsconsole/internal/transport/http/middleware"
	"emsconsole/internal/transport/http/shared"
	"emsconsole/internal/transport/http/web"
	"emsconsole/internal/ui"
	"emsconsole/internal/view"
)

const (
	pagePath   = "/admin/attendance"
	tableID    = "attendance-table"
	dateLayout = "2006-01-02"
)

type Upstream interface {
	ListEmployees(ctx context.Context) ([]emsapi.Employee, error)
	MarkAttendance(ctx context.Context, in emsapi.MarkAttendanceInput) (string, error)
	BulkMarkAttendance(ctx context.Context, in emsapi.BulkMarkInput) (emsapi.BulkMarkResult, error)
	FilterAttendance(ctx context.Context, f emsapi.AttendanceFilter) ([]emsapi.AttendanceRecord, error)
	AttendanceReport(ctx context.Context, startDate, endDate, employeeID string) (emsapi.AttendanceReport, error)
	DeleteAttendance(ctx context.Context, id string) (string, error)
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
		r.Get("/", h.HandlePage)
		r.Post("/mark", h.HandleMark)
		r.Post("/bulk-mark", h.HandleBulkMark)
		r.Get("/report", h.HandleReport)
		r.Get("/export", h.HandleExport)
		r.Post("/{id}/delete", h.HandleDelete)
	})
}

type reportQuery struct {
	StartDate  string
	EndDate    string
	EmployeeID string
}

type reportView struct {
	Summary  emsapi.ReportSummary
	Table    view.Table
	CSVHref  template.URL
	Filename string
}

type pageData struct {
	Employees   []emsapi.Employee
	Statuses    []string
	Today       string
	Selection   *ui.Selection
	Filter      emsapi.AttendanceFilter
	FilterQuery template.URL
	Formats     []export.Format
	Table       view.Table
	Summary     attendance.Summary
	ReportQuery reportQuery
	Report      *reportView
}

// render builds the whole attendance page. Upstream failures while loading
// become toasts and leave their section empty.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, errs, form map[string]string, report *reportView, rq reportQuery) {
	employees, err := h.API.ListEmployees(r.Context())
	if err != nil && h.Kit.ToastFromError(w, r, err, "employee.load_failed") {
		return
	}
	filter := filterFrom(r.URL.Query())
	records, err := h.API.FilterAttendance(r.Context(), filter)
	if err != nil && h.Kit.ToastFromError(w, r, err, "attendance.load_failed") {
		return
	}

	var selected []string
	if sess := web.CurrentSession(r); sess != nil {
		selected = sess.Selection
	}
	data := pageData{
		Employees:   employees,
		Statuses:    attendance.MarkableStatuses,
		Today:       h.Kit.Clock.Now().Format(dateLayout),
		Selection:   ui.NewSelection(view.EmployeeIDs(employees), selected),
		Filter:      filter,
		FilterQuery: template.URL(filterQuery(filter).Encode()),
		Formats:     formats(),
		Table:       view.AttendanceTable(records),
		Summary:     tally(records),
		ReportQuery: rq,
		Report:      report,
	}
	p := h.Kit.Page(r, h.Kit.T(r, "nav.attendance"))
	p.Errors = errs
	p.Form = form
	p.Data = data
	h.Kit.Render(w, r, status, "admin_attendance", p)
}

func (h *Handler) HandlePage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, nil, nil, nil, reportQuery{})
}

func (h *Handler) HandleMark(w http.ResponseWriter, r *http.Request) {
	if err := shared.ParseForm(r); err != nil {
		h.render(w, r, http.StatusBadRequest, map[string]string{"employee_id": h.Kit.T(r, "error.generic")}, nil, nil, reportQuery{})
		return
	}
	in := emsapi.MarkAttendanceInput{
		EmployeeID: shared.Field(r, "employee_id"),
		Status:     shared.Field(r, "status"),
		Date:       shared.Field(r, "date"),
	}
	v := shared.NewValidator()
	v.Required("employee_id", in.EmployeeID, "Select an employee")
	if v.Required("status", in.Status, "Select a status") {
		v.Enum("status", in.Status, attendance.MarkableStatuses, "Status must be present, absent or late")
	}
	if v.Required("date", in.Date, "Date is required") {
		if date, ok := v.Date("date", in.Date); ok {
			if attendance.IsFutureDate(date, h.Kit.Clock.Now()) {
				v.Add("date", "Attendance cannot be marked for a future date")
			}
		}
	}
	if v.HasIssues() {
		form := map[string]string{"employee_id": in.EmployeeID, "status": in.Status, "date": in.Date}
		h.render(w, r, http.StatusUnprocessableEntity, v.FieldErrors(), form, nil, reportQuery{})
		return
	}

	release, ok := h.Kit.Acquire(r, "attendance-mark")
	if !ok {
		web.SeeOther(w, r, pagePath)
		return
	}
	defer release()

	in.Status = attendance.NormalizeStatus(in.Status)
	message, err := h.API.MarkAttendance(r.Context(), in)
	if err != nil {
		if h.Kit.ToastFromError(w, r, err, "error.generic") {
			return
		}
		web.SeeOther(w, r, pagePath)
		return
	}
	h.flashSuccess(r, message, "attendance.marked")
	web.SeeOther(w, r, pagePath)
}

func (h *Handler) HandleBulkMark(w http.ResponseWriter, r *http.Request) {
	if err := shared.ParseForm(r); err != nil {
		web.SeeOther(w, r, pagePath)
		return
	}
	sess := web.CurrentSession(r)
	ids := shared.Fields(r, "employee_ids")
	if shared.Field(r, "select_all") == "1" && len(ids) == 0 {
		employees, err := h.API.ListEmployees(r.Context())
		if err != nil {
			if h.Kit.ToastFromError(w, r, err, "employee.load_failed") {
				return
			}
			web.SeeOther(w, r, pagePath)
			return
		}
		ids = view.EmployeeIDs(employees)
	}
	in := emsapi.BulkMarkInput{EmployeeIDs: ids, Status: shared.Field(r, "status"), Date: shared.Field(r, "date")}

	v := shared.NewValidator()
	if len(ids) == 0 {
		v.Add("employee_ids", h.Kit.T(r, "attendance.bulk_none_selected"))
	}
	if v.Required("status", in.Status, "Select a status") {
		v.Enum("status", in.Status, attendance.MarkableStatuses, "Status must be present, absent or late")
	}
	if v.Required("bulk_date", in.Date, "Date is required") {
		if date, ok := v.Date("bulk_date", in.Date); ok {
			if attendance.IsFutureDate(date, h.Kit.Clock.Now()) {
				v.Add("bulk_date", "Attendance cannot be marked for a future date")
			}
		}
	}
	if v.HasIssues() {
		sess.Selection = ids
		h.Kit.SaveSession(r, sess)
		h.render(w, r, http.StatusUnprocessableEntity, v.FieldErrors(), nil, nil, reportQuery{})
		return
	}

	release, ok := h.Kit.Acquire(r, "attendance-bulk-mark")
	if !ok {
		web.SeeOther(w, r, pagePath)
		return
	}
	defer release()

	in.Status = attendance.NormalizeStatus(in.Status)
	result, err := h.API.BulkMarkAttendance(r.Context(), in)
	if err != nil {
		sess.Selection = ids
		h.Kit.SaveSession(r, sess)
		if h.Kit.ToastFromError(w, r, err, "error.generic") {
			return
		}
		web.SeeOther(w, r, pagePath)
		return
	}
	sess.Selection = nil
	h.Kit.SaveSession(r, sess)

	severity := ui.SeveritySuccess
	if result.FailedCount > 0 {
		severity = ui.SeverityWarning
	}
	h.Kit.Toast(r, severity, "attendance.bulk_result", map[string]any{"Success": result.SuccessCount, "Failed": result.FailedCount})
	web.SeeOther(w, r, pagePath)
}

// HandleReport renders the page with the period report and its CSV as a
// data URI download.
func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rq := reportQuery{StartDate: q.Get("start_date"), EndDate: q.Get("end_date"), EmployeeID: q.Get("employee_id")}

	v := shared.NewValidator()
	var start, end time.Time
	if v.Required("report", rq.StartDate, "Start date is required") {
		start, _ = v.Date("report", rq.StartDate)
	}
	if v.Required("report", rq.EndDate, "End date is required") {
		end, _ = v.Date("report", rq.EndDate)
	}
	v.DateOrder("report", start, "report", end)
	if v.HasIssues() {
		h.render(w, r, http.StatusUnprocessableEntity, v.FieldErrors(), nil, nil, rq)
		return
	}

	report, err := h.API.AttendanceReport(r.Context(), rq.StartDate, rq.EndDate, rq.EmployeeID)
	if err != nil {
		if h.Kit.ToastFromError(w, r, err, "attendance.export_failed") {
			return
		}
		h.render(w, r, http.StatusOK, nil, nil, nil, rq)
		return
	}
	csv, err := export.CSV(export.ReportSheet(report))
	if err != nil {
		slog.ErrorContext(r.Context(), "report csv failed", "error", err, "requestId", requestctx.GetRequestID(r.Context()))
		h.Kit.Toast(r, ui.SeverityError, "attendance.export_failed")
	}
	rv := &reportView{
		Summary:  report.Summary,
		Table:    view.ReportTable(report.Rows),
		CSVHref:  template.URL(export.DataURI("text/csv;charset=utf-8", csv)),
		Filename: export.Filename("attendance-report", rq.StartDate+"-to-"+rq.EndDate, "csv"),
	}
	h.Kit.Toast(r, ui.SeverityInfo, "attendance.report_ready", map[string]any{"Start": report.Summary.StartDate, "End": report.Summary.EndDate})
	h.render(w, r, http.StatusOK, nil, nil, rv, rq)
}

// HandleExport downloads the filtered records. The sheet is read back from
// the same table markup the page shows, minus the action column.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.Kit.Toast(r, ui.SeverityError, "attendance.export_failed")
		web.SeeOther(w, r, pagePath)
		return
	}
	filter := filterFrom(r.URL.Query())
	records, err := h.API.FilterAttendance(r.Context(), filter)
	if err != nil {
		if h.Kit.ToastFromError(w, r, err, "attendance.export_failed") {
			return
		}
		web.SeeOther(w, r, pagePath)
		return
	}

	table := view.AttendanceTable(records)
	sheet := export.FromTable("Attendance", table)
	if !table.Empty {
		html, err := h.Kit.Fragment("table", map[string]any{
			"Table": table, "Actions": "attendance", "Page": h.Kit.Page(r, ""), "ID": tableID,
		})
		if err == nil {
			sheet, err = export.TableFromHTML(html, "#"+tableID)
		}
		if err != nil && !errors.Is(err, export.ErrNoTable) {
			h.failExport(w, r, err)
			return
		}
		sheet.Title = "Attendance"
	}
	sheet.Summary = exportSummary(filter, tally(records))

	body, err := format.Render(sheet)
	if err != nil {
		h.failExport(w, r, err)
		return
	}
	name := export.Filename("attendance", h.Kit.Clock.Now().Format(dateLayout), format.Extension)
	w.Header().Set("Content-Type", format.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *Handler) failExport(w http.ResponseWriter, r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "attendance export failed", "error", err, "requestId", requestctx.GetRequestID(r.Context()))
	h.Kit.Toast(r, ui.SeverityError, "attendance.export_failed")
	web.SeeOther(w, r, pagePath)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	release, ok := h.Kit.Acquire(r, "attendance-delete")
	if !ok {
		web.Back(w, r, pagePath)
		return
	}
	defer release()

	message, err := h.API.DeleteAttendance(r.Context(), id)
	if err != nil {
		if h.Kit.ToastFromError(w, r, err, "error.generic") {
			return
		}
		web.Back(w, r, pagePath)
		return
	}
	h.flashSuccess(r, message, "attendance.deleted")
	web.Back(w, r, pagePath)
}

// flashSuccess prefers the upstream confirmation text.
func (h *Handler) flashSuccess(r *http.Request, message, fallbackID string) {
	if message == "" {
		message = h.Kit.T(r, fallbackID)
	}
	h.Kit.Flash(r, ui.SeveritySuccess, message)
}

func filterFrom(q url.Values) emsapi.AttendanceFilter {
	f := emsapi.AttendanceFilter{
		EmployeeID: q.Get("employee_id"),
		StartDate:  q.Get("start_date"),
		EndDate:    q.Get("end_date"),
		Status:     q.Get("status"),
	}
	if f.Status != "" && !attendance.IsMarkable(f.Status) {
		f.Status = ""
	}
	return f
}

func filterQuery(f emsapi.AttendanceFilter) url.Values {
	q := url.Values{}
	for key, value := range map[string]string{
		"employee_id": f.EmployeeID,
		"start_date":  f.StartDate,
		"end_date":    f.EndDate,
		"status":      f.Status,
	} {
		if value != "" {
			q.Set(key, value)
		}
	}
	return q
}

func tally(records []emsapi.AttendanceRecord) attendance.Summary {
	statuses := make([]string, len(records))
	for i, rec := range records {
		statuses[i] = rec.Status
	}
	return attendance.Summarize(statuses)
}

func exportSummary(f emsapi.AttendanceFilter, counts attendance.Summary) []string {
	from, to := f.StartDate, f.EndDate
	if from == "" {
		from = "first record"
	}
	if to == "" {
		to = "latest record"
	}
	summary := []string{"Period: " + from + " to " + to}
	if f.Status != "" {
		summary = append(summary, "Status: "+view.Label(f.Status))
	}
	return append(summary,
		"Records: "+strconv.Itoa(counts.Total),
		fmt.Sprintf("Present: %d, Absent: %d, Late: %d", counts.Present, counts.Absent, counts.Late),
	)
}

func formats() []export.Format {
	out := make([]export.Format, 0, 3)
	for _, name := range []string{"csv", "xlsx", "pdf"} {
		if f, err := export.ParseFormat(name); err == nil {
			out = append(out, f)
		}
	}
	return out
}
