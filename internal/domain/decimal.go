package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Decimal is a monetary or stock amount. The backend serializes decimal
// columns as strings ("1500.00") and computed values as numbers; both decode
// into the same value. It always encodes as a JSON number.
type Decimal float64

// UnmarshalJSON accepts a JSON number, a numeric string or null.
func (d *Decimal) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*d = 0
		return nil
	}

	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			*d = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("decimal %q: %w", s, err)
		}
		*d = Decimal(v)
		return nil
	}

	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("decimal: %w", err)
	}
	*d = Decimal(v)
	return nil
}

// MarshalJSON encodes d as a JSON number.
func (d Decimal) MarshalJSON() ([]byte, error) {
	return strconv.AppendFloat(nil, float64(d), 'f', -1, 64), nil
}

// Float64 returns d as a float64.
func (d Decimal) Float64() float64 {
	return float64(d)
}

// String formats d with two fraction digits, as the backend does.
func (d Decimal) String() string {
	return strconv.FormatFloat(float64(d), 'f', 2, 64)
}

// DecimalPtr returns a pointer to v. Handy for optional totals.
func DecimalPtr(v float64) *Decimal {
	d := Decimal(v)
	return &d
}
