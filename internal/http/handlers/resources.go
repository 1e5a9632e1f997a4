package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/faysalsarker-dev/piercing-cms/internal/apiclient"
	"github.com/faysalsarker-dev/piercing-cms/internal/calendar"
	"github.com/faysalsarker-dev/piercing-cms/internal/http/middleware"
	"github.com/faysalsarker-dev/piercing-cms/internal/labels"
	"github.com/faysalsarker-dev/piercing-cms/internal/resources"
	"github.com/faysalsarker-dev/piercing-cms/pkg/logging"
)

// ResourcesHandler serves the CRUD pages for every catalog entity.
type ResourcesHandler struct {
	catalog   resources.Catalog
	labels    *labels.Renderer
	adminRole string
	logger    *logging.Logger
}

func NewResourcesHandler(catalog resources.Catalog, renderer *labels.Renderer, adminRole string, logger *logging.Logger) *ResourcesHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &ResourcesHandler{catalog: catalog, labels: renderer, adminRole: adminRole, logger: logger.Component("resources")}
}

// Routes mounts the generic entity endpoints. Admin-only entities are
// wrapped in a role check.
func (h *ResourcesHandler) Routes(r chi.Router) {
	r.Post("/stocks/labels", h.Labels)
	r.Get("/reports/sales", h.SalesReport)
	r.Route("/{entity}", func(r chi.Router) {
		r.Use(h.entityGuard)
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

type defKey struct{}

// entityGuard resolves the entity and enforces its role requirement.
func (h *ResourcesHandler) entityGuard(next http.Handler) http.Handler {
	roleCheck := middleware.RequireRole(h.adminRole, h.logger)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		def, err := h.catalog.Lookup(chi.URLParam(r, "entity"))
		if err != nil {
			respondError(w, h.logger, err, nil)
			return
		}
		r = r.WithContext(withDefinition(r.Context(), def))
		if def.AdminOnly {
			roleCheck(next).ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *ResourcesHandler) List(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspace(w, r)
	if !ok {
		return
	}
	def := definitionFrom(r.Context())
	page, err := ws.Resources.List(r.Context(), def, apiclient.ParseListParams(r.URL.Query()))
	if err != nil {
		respondError(w, h.logger, err, nil)
		return
	}
	if page.Items == nil {
		page.Items = []json.RawMessage{}
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *ResourcesHandler) Get(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspace(w, r)
	if !ok {
		return
	}
	rec, err := ws.Resources.Get(r.Context(), definitionFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, h.logger, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *ResourcesHandler) Create(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, "")
}

func (h *ResourcesHandler) Update(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, chi.URLParam(r, "id"))
}

func (h *ResourcesHandler) save(w http.ResponseWriter, r *http.Request, id string) {
	ws, ok := workspace(w, r)
	if !ok {
		return
	}
	def := definitionFrom(r.Context())
	payload := def.New()
	file, err := decodePayload(w, r, payload)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := ws.Resources.Save(r.Context(), def, id, payload, file)
	if err != nil {
		respondError(w, h.logger, err, nil)
		return
	}
	status := http.StatusOK
	if id == "" {
		status = http.StatusCreated
	}
	if len(out) == 0 {
		w.WriteHeader(status)
		return
	}
	writeJSON(w, status, out)
}

func (h *ResourcesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspace(w, r)
	if !ok {
		return
	}
	if err := ws.Resources.Delete(r.Context(), definitionFrom(r.Context()), chi.URLParam(r, "id")); err != nil {
		respondError(w, h.logger, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decodePayload reads a JSON body, or a multipart body with the record in a
// "payload" part and the upload in an "image" part.
func decodePayload(w http.ResponseWriter, r *http.Request, payload resources.Payload) (*apiclient.File, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := json.NewDecoder(r.Body).Decode(payload); err != nil {
			return nil, errors.New("invalid JSON body")
		}
		return nil, nil
	}
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, errors.New("invalid multipart body")
	}
	if err := json.Unmarshal([]byte(r.FormValue("payload")), payload); err != nil {
		return nil, errors.New("payload part must be JSON")
	}
	f, hdr, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.New("invalid image part")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.New("could not read image")
	}
	return &apiclient.File{
		Filename:    hdr.Filename,
		ContentType: hdr.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// Labels handles POST /api/stocks/labels and returns a printable HTML sheet.
func (h *ResourcesHandler) Labels(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspace(w, r)
	if !ok {
		return
	}
	var req resources.LabelRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sheet, err := ws.Resources.LabelSheet(r.Context(), h.catalog, h.labels, req)
	if err != nil {
		respondError(w, h.logger, err, nil)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(sheet)
}

// SalesReport handles GET /api/reports/sales?from=&to=.
func (h *ResourcesHandler) SalesReport(w http.ResponseWriter, r *http.Request) {
	ws, ok := workspace(w, r)
	if !ok {
		return
	}
	from, errFrom := calendar.ParseDate(r.URL.Query().Get("from"))
	to, errTo := calendar.ParseDate(r.URL.Query().Get("to"))
	if errFrom != nil || errTo != nil {
		writeError(w, http.StatusBadRequest, "from and to must be yyyy-MM-dd")
		return
	}
	report, err := ws.Resources.SalesReport(r.Context(), from, to)
	if err != nil {
		respondError(w, h.logger, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
