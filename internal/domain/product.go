package domain

import "time"

// Unit types accepted by the backend for product quantities.
const (
	UnitKilogram = "kg"
	UnitPiece    = "unité"
)

// Product is a listing published by a producer.
type Product struct {
	ID                int64     `json:"id" validate:"required"`
	Name              string    `json:"name" validate:"required"`
	ShortDescription  string    `json:"short_description"`
	LongDescription   string    `json:"long_description"`
	Category          string    `json:"category"`
	UnitPrice         Decimal   `json:"unit_price" validate:"gte=0"`
	UnitType          string    `json:"unit_type"`
	QuantityAvailable Decimal   `json:"quantity_available" validate:"gte=0"`
	LocationCommune   string    `json:"location_commune"`
	LocationVillage   string    `json:"location_village"`
	Image             string    `json:"image,omitempty"`
	CreatedAt         time.Time `json:"created_at,omitzero"`
	ProducerID        int64     `json:"producer_id"`
	ProducerName      string    `json:"producer_name,omitempty"`
	IsPublished       bool      `json:"is_published"`
}

// InStock reports whether any quantity is left.
func (p *Product) InStock() bool {
	return p.QuantityAvailable > 0
}

// ProductInput is the body of a product create or full update.
type ProductInput struct {
	Name              string  `json:"name" validate:"required,max=200"`
	ShortDescription  string  `json:"short_description" validate:"max=255"`
	LongDescription   string  `json:"long_description"`
	Category          string  `json:"category"`
	UnitPrice         Decimal `json:"unit_price" validate:"gt=0"`
	UnitType          string  `json:"unit_type" validate:"required,oneof=kg unité"`
	QuantityAvailable Decimal `json:"quantity_available" validate:"gte=0"`
	LocationCommune   string  `json:"location_commune" validate:"required"`
	LocationVillage   string  `json:"location_village"`
	IsPublished       *bool   `json:"is_published,omitempty"`
}

// ProductPatch is a partial product update.
type ProductPatch struct {
	Name              *string  `json:"name,omitempty" validate:"omitempty,max=200"`
	ShortDescription  *string  `json:"short_description,omitempty"`
	LongDescription   *string  `json:"long_description,omitempty"`
	Category          *string  `json:"category,omitempty"`
	UnitPrice         *Decimal `json:"unit_price,omitempty" validate:"omitempty,gt=0"`
	UnitType          *string  `json:"unit_type,omitempty" validate:"omitempty,oneof=kg unité"`
	QuantityAvailable *Decimal `json:"quantity_available,omitempty" validate:"omitempty,gte=0"`
	LocationCommune   *string  `json:"location_commune,omitempty"`
	LocationVillage   *string  `json:"location_village,omitempty"`
	IsPublished       *bool    `json:"is_published,omitempty"`
}

// Image is an uploaded product picture.
type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}
