package domain

// Cart is the server-owned cart as returned by every cart endpoint.
type Cart struct {
	ID    int64      `json:"id"`
	Items []CartLine `json:"items" validate:"dive"`
	// Total is nil when the backend did not send one.
	Total *Decimal `json:"total"`
}

// CartLine is one product entry of the cart.
type CartLine struct {
	ID          int64   `json:"id" validate:"required"`
	Product     int64   `json:"product" validate:"required"`
	ProductName string  `json:"product_name"`
	Quantity    Decimal `json:"quantity"`
	UnitPrice   Decimal `json:"unit_price"`
	Subtotal    Decimal `json:"subtotal"`
}

// SubtotalSum adds up the line subtotals.
func (c *Cart) SubtotalSum() Decimal {
	var sum Decimal
	for _, l := range c.Items {
		sum += l.Subtotal
	}
	return sum
}

// DisplayTotal returns the server total when present, the sum of line
// subtotals otherwise.
func (c *Cart) DisplayTotal() Decimal {
	if c.Total != nil {
		return *c.Total
	}
	return c.SubtotalSum()
}

// ItemCount returns the total quantity across lines. Products sold by
// weight make it fractional.
func (c *Cart) ItemCount() Decimal {
	var n Decimal
	for _, l := range c.Items {
		n += l.Quantity
	}
	return n
}

// FindLine returns the line holding productID, or nil.
func (c *Cart) FindLine(productID int64) *CartLine {
	for i := range c.Items {
		if c.Items[i].Product == productID {
			return &c.Items[i]
		}
	}
	return nil
}
