package http

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/DavidAnato/AgriConnect/internal/domain"
	apperrors "github.com/DavidAnato/AgriConnect/pkg/errors"
	"github.com/DavidAnato/AgriConnect/pkg/httputil"
	"github.com/DavidAnato/AgriConnect/pkg/pagination"
)

// maxUploadSize caps a product creation form including its picture.
const maxUploadSize = 10 << 20

// ProducerHandler handles the producer's products, orders and sales stats.
type ProducerHandler struct {
	logger *slog.Logger
}

// NewProducerHandler creates a new producer HTTP handler.
func NewProducerHandler(logger *slog.Logger) *ProducerHandler {
	return &ProducerHandler{logger: logger}
}

// PublishRequest toggles the visibility of a product.
type PublishRequest struct {
	Published *bool `json:"published" validate:"required"`
}

// ListProducts handles GET /api/producer/products
func (h *ProducerHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFrom(r.Context())
	u := ws.Session.User()
	if u == nil {
		writeError(w, r, apperrors.Unauthorized("sign in required"), h.logger)
		return
	}

	p := pagination.FromValues(r.URL.Query(), pagination.DefaultParams())
	res, err := ws.Catalog.ListByProducer(r.Context(), u.ID, true, p)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, res)
}

// CreateProduct handles POST /api/producer/products. A multipart body
// uploads the picture with the product; a JSON body creates it without one.
func (h *ProducerHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	ws := workspaceFrom(r.Context())

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		in, img, err := parseProductForm(w, r)
		if err != nil {
			writeError(w, r, err, h.logger)
			return
		}
		p, err := ws.Catalog.CreateWithImage(r.Context(), in, img)
		if err != nil {
			writeError(w, r, err, h.logger)
			return
		}
		httputil.WriteData(w, http.StatusCreated, p)
		return
	}

	var in domain.ProductInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	p, err := ws.Catalog.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, p)
}

// UpdateProduct handles PUT /api/producer/products/{id}
func (h *ProducerHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var in domain.ProductInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	p, err := workspaceFrom(r.Context()).Catalog.Update(r.Context(), id, in)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, p)
}

// PatchProduct handles PATCH /api/producer/products/{id}
func (h *ProducerHandler) PatchProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var patch domain.ProductPatch
	if err := decode(r, &patch); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	p, err := workspaceFrom(r.Context()).Catalog.Patch(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, p)
}

// PublishProduct handles PUT /api/producer/products/{id}/published
func (h *ProducerHandler) PublishProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var req PublishRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	p, err := workspaceFrom(r.Context()).Catalog.SetPublished(r.Context(), id, *req.Published)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, p)
}

// DeleteProduct handles DELETE /api/producer/products/{id}
func (h *ProducerHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := workspaceFrom(r.Context()).Catalog.Delete(r.Context(), id); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListOrders handles GET /api/producer/orders?status=
func (h *ProducerHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	status := domain.OrderStatus(r.URL.Query().Get("status"))
	switch status {
	case "", domain.OrderPending, domain.OrderConfirmed, domain.OrderDelivered, domain.OrderCancelled:
	default:
		writeError(w, r, apperrors.InvalidInput("unknown order status: "+string(status)), h.logger)
		return
	}

	list, err := workspaceFrom(r.Context()).Orders.VendorOrders(r.Context(), status)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, list)
}

// Stats handles GET /api/producer/stats?start=&end=
func (h *ProducerHandler) Stats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	period := domain.Period{Start: q.Get("start"), End: q.Get("end")}

	stats, err := workspaceFrom(r.Context()).Orders.VendorStats(r.Context(), period)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, stats)
}

// parseProductForm reads a multipart product form with its "image" file.
func parseProductForm(w http.ResponseWriter, r *http.Request) (domain.ProductInput, domain.Image, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return domain.ProductInput{}, domain.Image{}, apperrors.InvalidInput("invalid multipart form")
	}

	in := domain.ProductInput{
		Name:             r.FormValue("name"),
		ShortDescription: r.FormValue("short_description"),
		LongDescription:  r.FormValue("long_description"),
		Category:         r.FormValue("category"),
		UnitType:         r.FormValue("unit_type"),
		LocationCommune:  r.FormValue("location_commune"),
		LocationVillage:  r.FormValue("location_village"),
	}

	var err error
	if in.UnitPrice, err = formDecimal(r, "unit_price"); err != nil {
		return in, domain.Image{}, err
	}
	if in.QuantityAvailable, err = formDecimal(r, "quantity_available"); err != nil {
		return in, domain.Image{}, err
	}
	if raw := r.FormValue("is_published"); raw != "" {
		published, err := strconv.ParseBool(raw)
		if err != nil {
			return in, domain.Image{}, apperrors.InvalidInput("is_published must be a boolean")
		}
		in.IsPublished = &published
	}

	f, hdr, err := r.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return in, domain.Image{}, apperrors.InvalidInput("image is required")
		}
		return in, domain.Image{}, apperrors.InvalidInput("invalid image upload")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return in, domain.Image{}, apperrors.InvalidInput("invalid image upload")
	}
	return in, domain.Image{
		Filename:    hdr.Filename,
		ContentType: hdr.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func formDecimal(r *http.Request, field string) (domain.Decimal, error) {
	raw := r.FormValue(field)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, apperrors.InvalidInput(field + " must be a number")
	}
	return domain.Decimal(v), nil
}
