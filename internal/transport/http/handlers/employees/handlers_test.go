package employeeshandler

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"emsconsole/internal/platform/session"
	"emsconsole/internal/transport/http/handlers/handlertest"
	"emsconsole/internal/transport/http/middleware"
	"emsconsole/internal/ui"
)

func setup(t *testing.T, count int) (*handlertest.Env, func(chi.Router), *session.Session) {
	t.Helper()
	env := handlertest.New(t)
	employees := make([]map[string]any, 0, count)
	for i := 1; i <= count; i++ {
		employees = append(employees, map[string]any{
			"id": i, "name": fmt.Sprintf("Person %02d", i), "email": fmt.Sprintf("p%d@example.com", i),
			"position": "Engineer", "department": "Ops", "role": "employee",
		})
	}
	env.Upstream.JSON(http.MethodGet, "/admin/employees/list", http.StatusOK, map[string]any{"success": true, "employees": employees})
	h := NewHandler(env.Client, env.Kit)
	return env, h.RegisterRoutes, env.SignIn(t, middleware.RoleAdmin)
}

func multipartForm(t *testing.T, target string, fields url.Values, image []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for key, values := range fields {
		for _, v := range values {
			if err := mw.WriteField(key, v); err != nil {
				t.Fatalf("write field: %v", err)
			}
		}
	}
	if image != nil {
		part, err := mw.CreateFormFile("image", "photo.png")
		if err != nil {
			t.Fatalf("create file part: %v", err)
		}
		_, _ = part.Write(image)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 400, 300))
	for x := 0; x < 400; x++ {
		img.Set(x, x%300, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func validFields() url.Values {
	return url.Values{
		"name": {"Ana Lopez"}, "email": {"ana@example.com"}, "password": {"secret1"},
		"position": {"Engineer"}, "department": {"Ops"}, "role": {"employee"},
	}
}

func TestListPaginatesAndSearches(t *testing.T) {
	env, routes, sess := setup(t, 23)

	rec := env.Serve(routes, handlertest.Get("/admin/employees?page=3"), sess)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	doc := handlertest.Document(t, rec)
	if got := doc.Find("#employee-table tbody tr").Length(); got != 3 {
		t.Fatalf("expected 3 rows on the last page, got %d", got)
	}
	if got := doc.Find(".pagination span").Text(); got != "Page 3 of 3" {
		t.Fatalf("unexpected pager %q", got)
	}

	rec = env.Serve(routes, handlertest.Get("/admin/employees?q=person+1"), sess)
	doc = handlertest.Document(t, rec)
	if got := doc.Find("#employee-table tbody tr").Length(); got != 10 {
		t.Fatalf("expected 10 matches for person 1, got %d", got)
	}

	rec = env.Serve(routes, handlertest.Get("/admin/employees?q=nobody"), sess)
	doc = handlertest.Document(t, rec)
	if got := doc.Find("[data-empty-state]").Text(); !strings.Contains(got, "No employees match") {
		t.Fatalf("expected search empty state, got %q", got)
	}
}

func TestEditModalNeverShowsPassword(t *testing.T) {
	env, routes, sess := setup(t, 1)
	env.Upstream.JSON(http.MethodGet, "/admin/employees/get/1", http.StatusOK, map[string]any{
		"success": true,
		"employee": map[string]any{
			"id": 1, "name": "Person 01", "email": "p1@example.com", "role": "admin",
			"has_password": true, "plain_password": "hunter22",
		},
	})

	rec := env.Serve(routes, handlertest.Get("/admin/employees?modal=edit-employee&id=1"), sess)
	if strings.Contains(rec.Body.String(), "hunter22") {
		t.Fatalf("password leaked into the page")
	}
	doc := handlertest.Document(t, rec)
	modal := doc.Find("#modal-edit-employee")
	if modal.Length() == 0 {
		t.Fatalf("expected edit modal")
	}
	if got, _ := modal.Find(`input[name="email"]`).Attr("value"); got != "p1@example.com" {
		t.Fatalf("expected prefilled email, got %q", got)
	}
	if _, ok := modal.Find(`option[value="admin"]`).Attr("selected"); !ok {
		t.Fatalf("expected admin role selected")
	}
	if !strings.Contains(modal.Find(".hint").Text(), "Leave blank") {
		t.Fatalf("expected has-password hint")
	}
	if !doc.Find("body").HasClass("modal-open") {
		t.Fatalf("expected body marked modal-open")
	}
}

func TestAddValidation(t *testing.T) {
	cases := []struct {
		name  string
		edit  func(url.Values)
		field string
	}{
		{"missing name", func(v url.Values) { v.Del("name") }, "name"},
		{"bad email", func(v url.Values) { v.Set("email", "ana.example.com") }, "email"},
		{"missing password", func(v url.Values) { v.Del("password") }, "password"},
		{"short password", func(v url.Values) { v.Set("password", "abc") }, "password"},
		{"unknown role", func(v url.Values) { v.Set("role", "owner") }, "role"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env, routes, sess := setup(t, 1)
			fields := validFields()
			tc.edit(fields)
			rec := env.Serve(routes, multipartForm(t, "/admin/employees/add", fields, nil), sess)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("expected 422, got %d", rec.Code)
			}
			if env.Upstream.Called(http.MethodPost, "/admin/employees/add") {
				t.Fatalf("invalid form must not reach upstream")
			}
			doc := handlertest.Document(t, rec)
			input := doc.Find(`#modal-add-employee [name="` + tc.field + `"]`)
			if input.Length() == 0 || input.NextAllFiltered(".field-error").Length() == 0 {
				t.Fatalf("expected inline error for %s", tc.field)
			}
		})
	}
}

func TestAddRejectsNonImageUpload(t *testing.T) {
	env, routes, sess := setup(t, 1)
	rec := env.Serve(routes, multipartForm(t, "/admin/employees/add", validFields(), []byte("%PDF-1.4 not an image")), sess)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	doc := handlertest.Document(t, rec)
	if got := doc.Find(`#emp-image ~ .field-error`).Text(); !strings.Contains(got, "JPEG, PNG, GIF or WebP") {
		t.Fatalf("expected upload error, got %q", got)
	}
	if got, _ := doc.Find(`#emp-name`).Attr("value"); got != "Ana Lopez" {
		t.Fatalf("expected name kept, got %q", got)
	}
}

func TestAddUploadsThumbnailAfterCreate(t *testing.T) {
	env, routes, sess := setup(t, 1)
	env.Upstream.JSON(http.MethodPost, "/admin/employees/add", http.StatusOK, map[string]any{
		"success": true, "message": "Employee created", "employee": map[string]any{"id": 41, "name": "Ana Lopez"},
	})
	env.Upstream.JSON(http.MethodPost, "/admin/employees/upload-image", http.StatusOK, map[string]any{
		"success": true, "image_url": "/static/uploads/41.jpg",
	})

	rec := env.Serve(routes, multipartForm(t, "/admin/employees/add", validFields(), pngBytes(t)), sess)
	handlertest.ExpectRedirect(t, rec, "/admin/employees")

	body := env.Upstream.Body(t, http.MethodPost, "/admin/employees/add")
	if body["name"] != "Ana Lopez" || body["password"] != "secret1" || body["role"] != "employee" {
		t.Fatalf("unexpected add body %v", body)
	}
	upload := env.Upstream.Body(t, http.MethodPost, "/admin/employees/upload-image")
	if upload["employee_id"] != "41" {
		t.Fatalf("expected image for employee 41, got %v", upload["employee_id"])
	}
	if data, _ := upload["image_data"].(string); !strings.HasPrefix(data, "data:image/jpeg;base64,") {
		t.Fatalf("expected jpeg data url, got %.40q", data)
	}
	if !env.HasToast(sess, ui.SeveritySuccess, "Employee created") {
		t.Fatalf("expected upstream message toast, got %v", env.Messages(sess))
	}
}

func TestImageFailureOnlyWarns(t *testing.T) {
	env, routes, sess := setup(t, 1)
	env.Upstream.JSON(http.MethodPost, "/admin/employees/add", http.StatusOK, map[string]any{
		"success": true, "employee": map[string]any{"id": 41},
	})
	env.Upstream.JSON(http.MethodPost, "/admin/employees/upload-image", http.StatusInternalServerError, map[string]any{
		"success": false, "error": "disk full",
	})

	rec := env.Serve(routes, multipartForm(t, "/admin/employees/add", validFields(), pngBytes(t)), sess)
	handlertest.ExpectRedirect(t, rec, "/admin/employees")
	if !env.HasToast(sess, ui.SeveritySuccess, "Employee added successfully") {
		t.Fatalf("expected fallback success toast, got %v", env.Messages(sess))
	}
	if !env.HasToast(sess, ui.SeverityWarning, "image could not be uploaded") {
		t.Fatalf("expected image warning, got %v", env.Messages(sess))
	}
}

func TestUpdateKeepsPasswordWhenBlank(t *testing.T) {
	env, routes, sess := setup(t, 1)
	env.Upstream.JSON(http.MethodPost, "/admin/employees/update/1", http.StatusOK, map[string]any{"success": true})

	fields := validFields()
	fields.Del("password")
	rec := env.Serve(routes, multipartForm(t, "/admin/employees/1/update", fields, nil), sess)
	handlertest.ExpectRedirect(t, rec, "/admin/employees")

	body := env.Upstream.Body(t, http.MethodPost, "/admin/employees/update/1")
	if _, sent := body["password"]; sent {
		t.Fatalf("blank password must not be sent, got %v", body)
	}
	if env.Upstream.Called(http.MethodPost, "/admin/employees/upload-image") {
		t.Fatalf("no image chosen, nothing to upload")
	}
	if !env.HasToast(sess, ui.SeveritySuccess, "Employee updated successfully") {
		t.Fatalf("expected update toast, got %v", env.Messages(sess))
	}
}

func TestUpdateUpstreamErrorKeepsModal(t *testing.T) {
	env, routes, sess := setup(t, 1)
	env.Upstream.JSON(http.MethodPost, "/admin/employees/update/1", http.StatusBadRequest, map[string]any{
		"success": false, "error": "Email already exists",
	})

	rec := env.Serve(routes, multipartForm(t, "/admin/employees/1/update", validFields(), nil), sess)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected modal re-render, got %d", rec.Code)
	}
	doc := handlertest.Document(t, rec)
	if got, _ := doc.Find(`#modal-edit-employee form`).Attr("action"); got != "/admin/employees/1/update" {
		t.Fatalf("unexpected form action %q", got)
	}
	if !env.HasToast(sess, ui.SeverityError, "Email already exists") {
		t.Fatalf("expected upstream error toast, got %v", env.Messages(sess))
	}
	if env.Kit.Guard.InFlight(sess.ID + ":employee-update") {
		t.Fatalf("guard must be released")
	}
}

func TestDelete(t *testing.T) {
	env, routes, sess := setup(t, 2)
	env.Upstream.JSON(http.MethodPost, "/admin/employees/delete/2", http.StatusOK, map[string]any{"success": true})

	rec := env.Serve(routes, handlertest.PostForm("/admin/employees/2/delete", url.Values{}), sess)
	handlertest.ExpectRedirect(t, rec, "/admin/employees")
	if !env.HasToast(sess, ui.SeveritySuccess, "Employee deleted.") {
		t.Fatalf("expected delete toast, got %v", env.Messages(sess))
	}
}

func TestEmployeesRequireAdmin(t *testing.T) {
	env, routes, _ := setup(t, 1)
	sess := env.SignIn(t, middleware.RoleEmployee)
	rec := env.Serve(routes, handlertest.Get("/admin/employees"), sess)
	if rec.Code != http.StatusSeeOther && rec.Code != http.StatusForbidden {
		t.Fatalf("expected employee to be turned away, got %d", rec.Code)
	}
	if len(env.Upstream.Calls()) != 0 {
		t.Fatalf("expected no upstream call, got %v", env.Upstream.Calls())
	}
}
