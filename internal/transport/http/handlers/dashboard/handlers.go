package dashboardhandler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"emsconsole/internal/emsapi"
	"emsconsole/internal/platform/cache"
	"emsconsole/internal/platform/jobs"
	"emsconsole/internal/requestctx"
	"emsconsole/internal/transport/http/api"
	"emsconsole/internal/transport/http/middleware"
	"emsconsole/internal/transport/http/web"
	"emsconsole/internal/ui"
	"emsconsole/internal/view"
)

type Cache interface {
	Get(ctx context.Context) (cache.DashboardSnapshot, error)
	Refresh(ctx context.Context) (cache.DashboardSnapshot, error)
}

type Queue interface {
	Enqueue(jobType string, run func(context.Context) error) bool
}

type Handler struct {
	Cache Cache
	Jobs  Queue
	Kit   *web.Kit

	refresh *ui.Debouncer
	mu      sync.Mutex
	pending emsapi.Credentials
}

func NewHandler(c Cache, queue Queue, kit *web.Kit) *Handler {
	h := &Handler{Cache: c, Jobs: queue, Kit: kit}
	h.refresh = ui.NewDebouncer(kit.Clock, ui.DefaultDebounce, h.enqueueRefresh)
	return h
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/admin/dashboard", func(r chi.Router) {
		r.Use(middleware.RequireRole("/login", middleware.RoleAdmin))
		r.Get("/", h.HandlePage)
		r.Get("/data", h.HandleData)
		r.Post("/refresh", h.HandleRefresh)
	})
}

func (h *Handler) HandlePage(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Cache.Get(r.Context())
	if err != nil && h.Kit.ToastFromError(w, r, err, "dashboard.load_failed") {
		return
	}
	data := view.NewAdminDashboard(snap.Data, nil)
	data.Stale = err != nil

	p := h.Kit.Page(r, h.Kit.T(r, "nav.dashboard"))
	p.Data = data
	h.Kit.Render(w, r, http.StatusOK, "admin_dashboard", p)
}

// HandleData refetches the aggregate for the polling page. The page sends the
// KPI values it shows so every KPI counts up from there.
func (h *Handler) HandleData(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())
	snap, err := h.Cache.Refresh(r.Context())
	if err != nil && (emsapi.IsUnauthorized(err) || snap.FetchedAt.IsZero()) {
		h.Kit.FailJSON(w, r, err, "dashboard.load_failed")
		return
	}
	data := view.NewAdminDashboard(snap.Data, shownValues(r))
	if err != nil {
		slog.WarnContext(r.Context(), "dashboard refresh failed, serving snapshot", "error", err, "requestId", reqID)
		data.Stale = true
	}
	api.Success(w, data, reqID)
}

func shownValues(r *http.Request) map[string]float64 {
	query := r.URL.Query()
	out := map[string]float64{}
	for key := range query {
		if v, err := strconv.ParseFloat(query.Get(key), 64); err == nil {
			out[key] = v
		}
	}
	return out
}

// HandleRefresh coalesces bursts of refresh clicks into one upstream fetch
// using the credentials of the latest click.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	h.pending = emsapi.CredentialsFrom(r.Context())
	h.mu.Unlock()
	h.refresh.Trigger()

	if api.WantsJSON(r) {
		api.Accepted(w, map[string]string{"status": "queued"}, requestctx.GetRequestID(r.Context()))
		return
	}
	h.Kit.Toast(r, ui.SeverityInfo, "dashboard.refresh_queued")
	web.SeeOther(w, r, "/admin/dashboard")
}

func (h *Handler) enqueueRefresh() {
	h.mu.Lock()
	creds := h.pending
	h.pending = nil
	h.mu.Unlock()
	if len(creds) == 0 {
		return
	}
	h.Jobs.Enqueue(jobs.JobDashboardRefresh, func(ctx context.Context) error {
		_, err := h.Cache.Refresh(emsapi.WithCredentials(ctx, creds))
		return err
	})
}
