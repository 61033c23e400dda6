package http

import (
	"encoding/hex"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"golang.org/x/crypto/blake2b"

	"github.com/abhimanyukatariya/msh-interactive-dashboard/internal/analytics"
	"github.com/abhimanyukatariya/msh-interactive-dashboard/internal/dataset"
	apierrors "github.com/abhimanyukatariya/msh-interactive-dashboard/internal/errors"
	"github.com/abhimanyukatariya/msh-interactive-dashboard/internal/services"
	"github.com/abhimanyukatariya/msh-interactive-dashboard/pkg/contracts/domain"
)

// Filter query parameters. Each may be repeated; values within one
// parameter are OR'ed, parameters are AND'ed.
const (
	ParamAccelerator = "accelerator"
	ParamState       = "state"
	ParamSector      = "sector"
	ParamTRLBucket   = "trl_bucket"
)

// DashboardHandler serves the dashboard view models with RFC 7807 errors
type DashboardHandler struct {
	service      DashboardServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// Response is the success envelope of every dashboard endpoint.
type Response struct {
	Status  string        `json:"status"`
	Data    interface{}   `json:"data"`
	Count   *int          `json:"count,omitempty"`
	Dataset *dataset.Meta `json:"dataset,omitempty"`
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service DashboardServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dashboard routes, to be mounted under /api.
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/dashboard", h.GetDashboard)
	r.Get("/summary", h.GetSummary)
	r.Get("/views/{view}", h.GetView)
	r.Get("/filters", h.GetFilterOptions)
	r.Get("/dataset", h.GetDataset)
	r.With(h.AcceleratorCtx).Get("/accelerators/{name}/startups", h.GetStartups)

	return r
}

// AcceleratorCtx validates the accelerator path parameter.
func (h *DashboardHandler) AcceleratorCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimSpace(chi.URLParam(r, "name"))
		if name == "" || len(name) > 256 {
			h.errorHandler.HandleError(w, r, apierrors.NewValidationErrors([]apierrors.ValidationError{
				{Field: "name", Message: "accelerator name must be 1 to 256 characters"},
			}))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetDashboard handles GET /api/dashboard
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	d, err := h.service.Dashboard(r.Context(), services.ChannelHTTP, f)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.DebugContext(r.Context(), "dashboard served",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Int("records", d.Summary.Records))

	h.respond(w, r, d.Dataset.Fingerprint, Response{Status: "success", Data: d})
}

// GetSummary handles GET /api/summary
func (h *DashboardHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	summary, meta, err := h.service.Summary(r.Context(), f)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respond(w, r, meta.Fingerprint, Response{Status: "success", Data: summary, Dataset: &meta})
}

// GetView handles GET /api/views/{view}
func (h *DashboardHandler) GetView(w http.ResponseWriter, r *http.Request) {
	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	name := analytics.ViewName(chi.URLParam(r, "view"))
	groups, meta, err := h.service.View(r.Context(), name, f)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	count := len(groups)
	h.respond(w, r, meta.Fingerprint, Response{Status: "success", Data: groups, Count: &count, Dataset: &meta})
}

// GetFilterOptions handles GET /api/filters
func (h *DashboardHandler) GetFilterOptions(w http.ResponseWriter, r *http.Request) {
	options, meta, err := h.service.Options(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respond(w, r, meta.Fingerprint, Response{Status: "success", Data: options, Dataset: &meta})
}

// GetStartups handles GET /api/accelerators/{name}/startups
func (h *DashboardHandler) GetStartups(w http.ResponseWriter, r *http.Request) {
	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	name := strings.TrimSpace(chi.URLParam(r, "name"))
	rows, meta, err := h.service.Startups(r.Context(), name, f)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	count := len(rows)
	h.respond(w, r, meta.Fingerprint, Response{Status: "success", Data: rows, Count: &count, Dataset: &meta})
}

// GetDataset handles GET /api/dataset
func (h *DashboardHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	meta, err := h.service.DatasetMeta(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.respond(w, r, meta.Fingerprint, Response{Status: "success", Data: meta})
}

// respond writes body with an ETag derived from the dataset fingerprint and
// the request, or 304 when the client already holds it.
func (h *DashboardHandler) respond(w http.ResponseWriter, r *http.Request, fingerprint string, body Response) {
	if fingerprint != "" {
		tag := ETag(fingerprint, r.URL)
		w.Header().Set("ETag", tag)
		w.Header().Set("Cache-Control", "no-cache")
		if etagMatches(r.Header.Get("If-None-Match"), tag) {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}
	render.JSON(w, r, body)
}

// ParseFilter reads the filter query parameters.
func ParseFilter(q url.Values) (analytics.Filter, error) {
	f := analytics.Filter{
		Accelerators: q[ParamAccelerator],
		States:       q[ParamState],
		Sectors:      q[ParamSector],
	}
	for _, raw := range q[ParamTRLBucket] {
		b, err := domain.ParseTRLBucket(raw)
		if err != nil {
			return analytics.Filter{}, apierrors.InvalidParameter(ParamTRLBucket, err)
		}
		f.TRLBuckets = append(f.TRLBuckets, b)
	}
	return f, nil
}

// ETag identifies one response: the same dataset and the same path and
// query always yield the same tag.
func ETag(fingerprint string, u *url.URL) string {
	sum := blake2b.Sum256([]byte(fingerprint + "\x1f" + u.Path + "?" + u.Query().Encode()))
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}

func etagMatches(header, tag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		candidate = strings.TrimPrefix(candidate, "W/")
		if candidate == "*" || candidate == tag {
			return true
		}
	}
	return false
}
