package employeeshandler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"emsconsole/internal/domain/employee"
	"emsconsole/internal/emsapi"
	"emsconsole/internal/platform/imaging"
	"emsconsole/internal/transport/http/middleware"
	"emsconsole/internal/transport/http/shared"
	"emsconsole/internal/transport/http/web"
	"emsconsole/internal/ui"
	"emsconsole/internal/view"
)

const (
	pagePath       = "/admin/employees"
	defaultPerPage = 10
	maxPerPage     = 50
)

type Upstream interface {
	ListEmployees(ctx context.Context) ([]emsapi.Employee, error)
	GetEmployee(ctx context.Context, id string) (emsapi.Employee, error)
	AddEmployee(ctx context.Context, in emsapi.EmployeeInput) (emsapi.Employee, string, error)
	UpdateEmployee(ctx context.Context, id string, in emsapi.EmployeeInput) (string, error)
	DeleteEmployee(ctx context.Context, id string) (string, error)
	UploadEmployeeImage(ctx context.Context, employeeID, dataURL string) (string, error)
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
		r.Post("/add", h.HandleAdd)
		r.Post("/{id}/update", h.HandleUpdate)
		r.Post("/{id}/delete", h.HandleDelete)
	})
}

type pageData struct {
	Table      view.Table
	Query      string
	Pagination shared.Pagination
}

type modalState struct {
	name string
	errs map[string]string
	form map[string]string
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	var modal *modalState
	switch name := r.URL.Query().Get("modal"); name {
	case "add-employee":
		modal = &modalState{name: name, form: map[string]string{"role": employee.RoleEmployee}}
	case "edit-employee":
		id := r.URL.Query().Get("id")
		emp, err := h.API.GetEmployee(r.Context(), id)
		if err != nil {
			if h.Kit.ToastFromError(w, r, err, "employee.load_failed") {
				return
			}
			break
		}
		modal = &modalState{name: name, form: employeeForm(emp)}
	}
	h.render(w, r, http.StatusOK, modal)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, modal *modalState) {
	list, err := h.API.ListEmployees(r.Context())
	if err != nil && h.Kit.ToastFromError(w, r, err, "employee.load_failed") {
		return
	}
	q := r.URL.Query().Get("q")
	pagination := shared.ParsePagination(r, defaultPerPage, maxPerPage)
	page := shared.Slice(&pagination, view.FilterEmployees(list, q))
	table := view.EmployeeTable(page)
	if q != "" && table.Empty {
		table.EmptyMessage = "No employees match your search."
	}

	p := h.Kit.Page(r, h.Kit.T(r, "nav.employees"))
	p.Data = pageData{Table: table, Query: q, Pagination: pagination}
	if modal != nil {
		p.Errors = modal.errs
		p.Form = modal.form
		html, err := h.Kit.Modal(modal.name, p)
		if err != nil {
			slog.ErrorContext(r.Context(), "render modal failed", "modal", modal.name, "error", err)
		} else {
			p.Modal = html
		}
	}
	h.Kit.Render(w, r, status, "admin_employees", p)
}

// submission is a parsed and validated add/edit form. image is the data URL
// of the downsized photo, empty when none was chosen.
type submission struct {
	input emsapi.EmployeeInput
	image string
	form  map[string]string
}

func (h *Handler) parse(r *http.Request, requirePassword bool) (submission, *shared.Validator) {
	v := shared.NewValidator()
	if err := shared.ParseForm(r); err != nil {
		v.Add("image", h.Kit.T(r, "error.upload"))
		return submission{form: map[string]string{}}, v
	}
	in := emsapi.EmployeeInput{
		Name:       shared.Field(r, "name"),
		Email:      shared.Field(r, "email"),
		Password:   r.PostFormValue("password"),
		Phone:      shared.Field(r, "phone"),
		Position:   shared.Field(r, "position"),
		Department: shared.Field(r, "department"),
		Role:       shared.Field(r, "role"),
	}
	if in.Role == "" {
		in.Role = employee.RoleEmployee
	}
	v.Required("name", in.Name, "Name is required")
	if v.Required("email", in.Email, "Email is required") {
		v.Email("email", in.Email)
	}
	if requirePassword {
		if v.Required("password", in.Password, "Password is required") {
			v.MinLength("password", in.Password, 6, "Password must be at least 6 characters")
		}
	} else if in.Password != "" {
		v.MinLength("password", in.Password, 6, "Password must be at least 6 characters")
	}
	v.Enum("role", in.Role, employee.Roles, "Role must be employee or admin")

	sub := submission{input: in}
	raw, err := shared.File(r, "image", imaging.MaxUpload)
	switch {
	case err != nil:
		v.Add("image", h.Kit.T(r, "error.upload"))
	case len(raw) > 0:
		dataURL, err := imaging.DataURL(raw)
		if err != nil {
			v.Add("image", h.Kit.T(r, "error.upload"))
		} else {
			sub.image = dataURL
		}
	}
	sub.form = map[string]string{
		"name": in.Name, "email": in.Email, "phone": in.Phone,
		"position": in.Position, "department": in.Department, "role": in.Role,
		"image": sub.image,
	}
	return sub, v
}

func (h *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	sub, v := h.parse(r, true)
	if v.HasIssues() {
		h.render(w, r, http.StatusUnprocessableEntity, &modalState{name: "add-employee", errs: v.FieldErrors(), form: sub.form})
		return
	}
	release, ok := h.Kit.Acquire(r, "employee-add")
	if !ok {
		web.SeeOther(w, r, pagePath)
		return
	}
	defer release()

	created, message, err := h.API.AddEmployee(r.Context(), sub.input)
	if err != nil {
		if h.Kit.ToastFromError(w, r, err, "error.generic") {
			return
		}
		h.render(w, r, http.StatusOK, &modalState{name: "add-employee", form: sub.form})
		return
	}
	h.flashSuccess(r, message, "employee.added")
	if sub.image != "" {
		h.upload(w, r, created.ID.String(), sub.image)
	}
	web.SeeOther(w, r, pagePath)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sub, v := h.parse(r, false)
	sub.form["id"] = id
	sub.form["has_password"] = shared.Field(r, "has_password")
	if v.HasIssues() {
		h.render(w, r, http.StatusUnprocessableEntity, &modalState{name: "edit-employee", errs: v.FieldErrors(), form: sub.form})
		return
	}
	release, ok := h.Kit.Acquire(r, "employee-update")
	if !ok {
		web.SeeOther(w, r, pagePath)
		return
	}
	defer release()

	message, err := h.API.UpdateEmployee(r.Context(), id, sub.input)
	if err != nil {
		if h.Kit.ToastFromError(w, r, err, "error.generic") {
			return
		}
		h.render(w, r, http.StatusOK, &modalState{name: "edit-employee", form: sub.form})
		return
	}
	h.flashSuccess(r, message, "employee.updated")
	if sub.image != "" {
		h.upload(w, r, id, sub.image)
	}
	web.SeeOther(w, r, pagePath)
}

// upload sends the photo after the record is saved. A failure leaves the
// saved record alone and only warns.
func (h *Handler) upload(w http.ResponseWriter, r *http.Request, id, dataURL string) {
	if _, err := h.API.UploadEmployeeImage(r.Context(), id, dataURL); err != nil {
		slog.WarnContext(r.Context(), "employee image upload failed", "employeeId", id, "error", err)
		h.Kit.Toast(r, ui.SeverityWarning, "employee.image_failed")
	}
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	release, ok := h.Kit.Acquire(r, "employee-delete")
	if !ok {
		web.SeeOther(w, r, pagePath)
		return
	}
	defer release()

	message, err := h.API.DeleteEmployee(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if h.Kit.ToastFromError(w, r, err, "error.generic") {
			return
		}
		web.SeeOther(w, r, pagePath)
		return
	}
	h.flashSuccess(r, message, "employee.deleted")
	web.SeeOther(w, r, pagePath)
}

func (h *Handler) flashSuccess(r *http.Request, message, fallbackID string) {
	if message == "" {
		message = h.Kit.T(r, fallbackID)
	}
	h.Kit.Flash(r, ui.SeveritySuccess, message)
}

// employeeForm prefills the edit modal. The stored password is never sent
// back to the browser; the form only learns whether one exists.
func employeeForm(e emsapi.Employee) map[string]string {
	return map[string]string{
		"id":           e.ID.String(),
		"name":         e.Name,
		"email":        e.Email,
		"phone":        e.Phone,
		"position":     e.Position,
		"department":   e.Department,
		"role":         e.Role,
		"image":        e.Image,
		"has_password": strconv.FormatBool(e.HasPassword),
	}
}
