package domain

import "time"

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

// Order is one order created by checkout. A cart spanning several producers
// yields one order per producer.
type Order struct {
	ID              int64       `json:"id" validate:"required"`
	Status          OrderStatus `json:"status"`
	Total           Decimal     `json:"total"`
	CreatedAt       time.Time   `json:"created_at,omitzero"`
	ShippingAddress string      `json:"shipping_address,omitempty"`
	Producer        int64       `json:"producer,omitempty"`
	Items           []OrderItem `json:"items" validate:"dive"`
}

// OrderItem is one product line of an order.
type OrderItem struct {
	ID          int64   `json:"id"`
	Product     int64   `json:"product"`
	ProductName string  `json:"product_name"`
	Quantity    Decimal `json:"quantity"`
	Subtotal    Decimal `json:"subtotal"`
}

// VendorStats summarizes a producer's sales over a period.
type VendorStats struct {
	Totals      VendorTotals   `json:"totals"`
	ByStatus    map[string]int `json:"by_status"`
	TopProducts []TopProduct   `json:"top_products"`
	Period      Period         `json:"period"`
}

// VendorTotals are the headline figures of VendorStats.
type VendorTotals struct {
	Orders    int     `json:"orders"`
	Revenue   Decimal `json:"revenue"`
	ItemsSold Decimal `json:"items_sold"`
}

// TopProduct is one entry of the best sellers ranking.
type TopProduct struct {
	ProductName  string  `json:"product_name"`
	QuantitySold Decimal `json:"quantity_sold"`
	Revenue      Decimal `json:"revenue"`
}

// Period is an inclusive date range formatted as YYYY-MM-DD.
type Period struct {
	Start string `json:"start" validate:"omitempty,datetime=2006-01-02"`
	End   string `json:"end" validate:"omitempty,datetime=2006-01-02"`
}

// CurrentMonth returns the period covering the month of now.
func CurrentMonth(now time.Time) Period {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	last := first.AddDate(0, 1, -1)
	return Period{Start: first.Format(time.DateOnly), End: last.Format(time.DateOnly)}
}
