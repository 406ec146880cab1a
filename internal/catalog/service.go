package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/DavidAnato/AgriConnect/internal/domain"
	"github.com/DavidAnato/AgriConnect/internal/gateway"
	apperrors "github.com/DavidAnato/AgriConnect/pkg/errors"
	"github.com/DavidAnato/AgriConnect/pkg/pagination"
	"github.com/DavidAnato/AgriConnect/pkg/validator"
)

const pathProducts = "/products/products/"

// Results is one page of products.
type Results = pagination.Result[domain.Product]

// Service wraps the product endpoints.
type Service struct {
	gw *gateway.Gateway
}

// NewService creates a product Service.
func NewService(gw *gateway.Gateway) *Service {
	return &Service{gw: gw}
}

func productPath(id int64) string {
	return pathProducts + strconv.FormatInt(id, 10) + "/"
}

// List returns the published products matching q.
func (s *Service) List(ctx context.Context, q Query) (Results, error) {
	page, err := gateway.Fetch[pagination.Page[domain.Product]](ctx, s.gw, gateway.Request{
		Method: http.MethodGet,
		Path:   pathProducts,
		Query:  q.APIValues(),
	})
	if err != nil {
		return Results{}, err
	}
	return pagination.NewResult(page, q.Params()), nil
}

// Get returns one product.
func (s *Service) Get(ctx context.Context, id int64) (domain.Product, error) {
	return gateway.Fetch[domain.Product](ctx, s.gw, gateway.Request{
		Method: http.MethodGet,
		Path:   productPath(id),
	})
}

// ListByProducer returns a producer's listings. Unpublished products are
// only included on request, which the backend grants to their owner.
func (s *Service) ListByProducer(ctx context.Context, producerID int64, includeUnpublished bool, p pagination.Params) (Results, error) {
	v := url.Values{}
	if includeUnpublished {
		v.Set("include_unpublished", "true")
	}
	p.Apply(v)

	page, err := gateway.Fetch[pagination.Page[domain.Product]](ctx, s.gw, gateway.Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("%sproducer/%d/", pathProducts, producerID),
		Query:  v,
	})
	if err != nil {
		return Results{}, err
	}
	return pagination.NewResult(page, p), nil
}

// Create publishes a new product.
func (s *Service) Create(ctx context.Context, in domain.ProductInput) (domain.Product, error) {
	if err := validator.Validate(in); err != nil {
		return domain.Product{}, err
	}
	return gateway.Fetch[domain.Product](ctx, s.gw, gateway.Request{
		Method: http.MethodPost,
		Path:   pathProducts,
		Body:   in,
	})
}

// CreateWithImage publishes a new product with its picture as a multipart
// upload.
func (s *Service) CreateWithImage(ctx context.Context, in domain.ProductInput, img domain.Image) (domain.Product, error) {
	if err := validator.Validate(in); err != nil {
		return domain.Product{}, err
	}
	if len(img.Data) == 0 {
		return domain.Product{}, apperrors.InvalidInput("image is empty")
	}

	fields := map[string]string{
		"name":               in.Name,
		"short_description":  in.ShortDescription,
		"long_description":   in.LongDescription,
		"category":           in.Category,
		"unit_price":         in.UnitPrice.String(),
		"unit_type":          in.UnitType,
		"quantity_available": in.QuantityAvailable.String(),
		"location_commune":   in.LocationCommune,
		"location_village":   in.LocationVillage,
	}
	if in.IsPublished != nil {
		fields["is_published"] = strconv.FormatBool(*in.IsPublished)
	}

	return gateway.Fetch[domain.Product](ctx, s.gw, gateway.Request{
		Method: http.MethodPost,
		Path:   pathProducts,
		Form: &gateway.Form{
			Fields: fields,
			Files: []gateway.FormFile{{
				Field:       "image",
				Filename:    img.Filename,
				ContentType: img.ContentType,
				Data:        img.Data,
			}},
		},
	})
}

// Update replaces a product.
func (s *Service) Update(ctx context.Context, id int64, in domain.ProductInput) (domain.Product, error) {
	if err := validator.Validate(in); err != nil {
		return domain.Product{}, err
	}
	return gateway.Fetch[domain.Product](ctx, s.gw, gateway.Request{
		Method: http.MethodPut,
		Path:   productPath(id),
		Body:   in,
	})
}

// Patch changes some fields of a product.
func (s *Service) Patch(ctx context.Context, id int64, patch domain.ProductPatch) (domain.Product, error) {
	if err := validator.Validate(patch); err != nil {
		return domain.Product{}, err
	}
	return gateway.Fetch[domain.Product](ctx, s.gw, gateway.Request{
		Method: http.MethodPatch,
		Path:   productPath(id),
		Body:   patch,
	})
}

// Delete removes a product.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return gateway.Send(ctx, s.gw, gateway.Request{
		Method: http.MethodDelete,
		Path:   productPath(id),
	})
}

// SetPublished publishes or withdraws a product.
func (s *Service) SetPublished(ctx context.Context, id int64, published bool) (domain.Product, error) {
	return s.Patch(ctx, id, domain.ProductPatch{IsPublished: &published})
}
