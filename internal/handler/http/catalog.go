package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/DavidAnato/AgriConnect/internal/catalog"
	apperrors "github.com/DavidAnato/AgriConnect/pkg/errors"
	"github.com/DavidAnato/AgriConnect/pkg/httputil"
)

// CatalogHandler handles product browsing endpoints.
type CatalogHandler struct {
	defaults catalog.Query
	logger   *slog.Logger
}

// NewCatalogHandler creates a new catalog HTTP handler. defaults is the
// state a URL without query parameters stands for.
func NewCatalogHandler(defaults catalog.Query, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{defaults: defaults, logger: logger}
}

// FilterRequest changes one browsing filter. Value is parsed according to
// Filter: page and producer take integers, the others text.
type FilterRequest struct {
	Filter string `json:"filter" validate:"required,oneof=unit_type commune village producer category ordering page"`
	Value  string `json:"value"`
}

// SearchRequest carries the search box text.
type SearchRequest struct {
	Text string `json:"text" validate:"max=200"`
}

type listView struct {
	Query   catalog.Query   `json:"query"`
	URL     string          `json:"url"`
	Results catalog.Results `json:"results"`
}

type browseView struct {
	catalog.Snapshot
	Error string `json:"error,omitempty"`
}

// List handles GET /api/catalog
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	q := catalog.ParseQueryWith(r.URL.Query(), h.defaults)

	res, err := workspaceFrom(r.Context()).Catalog.List(r.Context(), q)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, listView{
		Query:   q,
		URL:     q.Diff(h.defaults).Encode(),
		Results: res,
	})
}

// GetProduct handles GET /api/catalog/products/{id}
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	p, err := workspaceFrom(r.Context()).Catalog.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, p)
}

// Browse handles GET /api/catalog/browse
func (h *CatalogHandler) Browse(w http.ResponseWriter, r *http.Request) {
	writeSnapshot(w, workspaceFrom(r.Context()).Browser.Snapshot())
}

// LoadBrowse handles PUT /api/catalog/browse?<url state>
func (h *CatalogHandler) LoadBrowse(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, func(b *catalog.Browser) (catalog.Snapshot, error) {
		return b.Load(r.Context(), r.URL.Query())
	})
}

// Search handles POST /api/catalog/browse/search. The query runs once the
// visitor stopped typing; the response reports it as pending.
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	b := workspaceFrom(r.Context()).Browser
	b.SetSearch(r.Context(), req.Text)
	httputil.WriteData(w, http.StatusAccepted, browseView{Snapshot: b.Snapshot()})
}

// SetFilter handles POST /api/catalog/browse/filter
func (h *CatalogHandler) SetFilter(w http.ResponseWriter, r *http.Request) {
	var req FilterRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var number int64
	if req.Filter == "page" || req.Filter == "producer" {
		n, err := strconv.ParseInt(req.Value, 10, 64)
		if err != nil || n < 0 {
			writeError(w, r, apperrors.InvalidInput(req.Filter+" must be a non-negative integer"), h.logger)
			return
		}
		number = n
	}

	h.respond(w, r, func(b *catalog.Browser) (catalog.Snapshot, error) {
		ctx := r.Context()
		switch req.Filter {
		case "unit_type":
			return b.SetUnitType(ctx, req.Value)
		case "commune":
			return b.SetCommune(ctx, req.Value)
		case "village":
			return b.SetVillage(ctx, req.Value)
		case "producer":
			return b.SetProducer(ctx, number)
		case "category":
			return b.SetCategory(ctx, req.Value)
		case "ordering":
			return b.SetOrdering(ctx, req.Value)
		default:
			return b.SetPage(ctx, int(number))
		}
	})
}

// RefreshBrowse handles POST /api/catalog/browse/refresh
func (h *CatalogHandler) RefreshBrowse(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, func(b *catalog.Browser) (catalog.Snapshot, error) {
		return b.Refresh(r.Context())
	})
}

// respond runs a browser change and writes the resulting snapshot.
func (h *CatalogHandler) respond(w http.ResponseWriter, r *http.Request, change func(*catalog.Browser) (catalog.Snapshot, error)) {
	snap, err := change(workspaceFrom(r.Context()).Browser)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeSnapshot(w, snap)
}

// writeSnapshot reports a failed debounced query through the error field,
// next to the last results that were applied.
func writeSnapshot(w http.ResponseWriter, snap catalog.Snapshot) {
	view := browseView{Snapshot: snap}
	if snap.Err != nil {
		view.Error = snap.Err.Error()
	}
	httputil.WriteData(w, http.StatusOK, view)
}
