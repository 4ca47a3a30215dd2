package web

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"emsconsole/internal/platform/i18n"
	"emsconsole/internal/requestctx"
	"emsconsole/internal/ui"
	"emsconsole/internal/view"
)

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	catalog, err := i18n.New("en")
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	r, err := New(catalog, ui.NewToastHub(ui.ToastOptions{Duration: time.Second}), nil)
	if err != nil {
		t.Fatalf("renderer: %v", err)
	}
	return r
}

func spanishRequest(target string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	return req.WithContext(requestctx.WithLocale(req.Context(), "es"))
}

func TestErrorPagesSendHTMLWithTheirStatus(t *testing.T) {
	r := newRenderer(t)
	cases := []struct {
		name    string
		handler http.Handler
		status  int
		notice  string
	}{
		{"not found", http.HandlerFunc(r.NotFound), http.StatusNotFound, "does not exist"},
		{"rate limited", r.ErrorPage("error.rate_limited", http.StatusTooManyRequests), http.StatusTooManyRequests, "slow down"},
		{"csrf", r.ErrorPage("error.csrf", http.StatusForbidden), http.StatusForbidden, "form expired"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tc.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/payroll", nil))
			res := rec.Result()
			if res.StatusCode != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, res.StatusCode)
			}
			if ct := res.Header.Get("Content-Type"); ct != "text/html; charset=utf-8" {
				t.Fatalf("expected html content type on the written response, got %q", ct)
			}
			if !strings.Contains(rec.Body.String(), tc.notice) {
				t.Fatalf("expected notice %q in page", tc.notice)
			}
		})
	}
}

func TestToastContainerCarriesLocalizedErrorCopy(t *testing.T) {
	r := newRenderer(t)
	rec := httptest.NewRecorder()
	r.NotFound(rec, spanishRequest("/payroll"))

	doc, err := goquery.NewDocumentFromReader(rec.Body)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	container := doc.Find(".toast-container")
	if got := container.AttrOr("data-error-generic", ""); got != "Algo salió mal. Inténtalo de nuevo." {
		t.Fatalf("unexpected generic error copy %q", got)
	}
	if got := container.AttrOr("data-error-network", ""); !strings.HasPrefix(got, "No se pudo contactar") {
		t.Fatalf("unexpected network error copy %q", got)
	}
}

func TestAppScriptReportsFailedRequests(t *testing.T) {
	rec := httptest.NewRecorder()
	Static().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/app.js", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected app.js, got %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	script := string(body)
	for _, want := range []string{
		`addEventListener("unhandledrejection"`,
		`addEventListener("error"`,
		"!res.ok || body.success === false",
		`querySelector(".toast-container")`,
		".catch(reportError)",
	} {
		if !strings.Contains(script, want) {
			t.Fatalf("app.js lacks %q", want)
		}
	}
	if strings.Contains(script, ".catch(function () {})") {
		t.Fatalf("app.js still swallows fetch failures")
	}
}

func TestTableActionsFollowLocale(t *testing.T) {
	r := newRenderer(t)
	table := view.Table{
		Headers: []string{"Employee"},
		Rows: []view.Row{
			{ID: "4", Index: 0, Cells: []view.Cell{{Text: "Ana"}}},
			{ID: "5", Index: 1, Cells: []view.Cell{{Text: "Ben"}}},
		},
	}
	html, err := r.Fragment("table", map[string]any{
		"Table": table, "Actions": "leave", "Page": &Page{Locale: "es"}, "ID": "leave-table",
	})
	if err != nil {
		t.Fatalf("Fragment: %v", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := doc.Find("th[data-export-skip]").Text(); got != "Acciones" {
		t.Fatalf("actions header = %q", got)
	}
	row := doc.Find("tbody tr").Eq(1)
	if got := row.AttrOr("style", ""); got != "--row-delay: 50ms" {
		t.Fatalf("row style = %q", got)
	}
	if got := row.Find(`option[value="approved"]`).Text(); got != "Aprobada" {
		t.Fatalf("status option = %q", got)
	}
	if got := row.Find(".inline-form button").Text(); got != "Actualizar" {
		t.Fatalf("update button = %q", got)
	}
	del := row.Find(`form[action="/admin/leave-requests/5/delete"]`)
	if got := del.AttrOr("data-confirm", ""); got != "¿Eliminar esta solicitud de permiso?" {
		t.Fatalf("confirm text = %q", got)
	}
	if got := del.Find("button").Text(); got != "Eliminar" {
		t.Fatalf("delete button = %q", got)
	}
}
