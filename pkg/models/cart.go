package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is one entry in a cart or, copied by value, in an order.
// Repeat adds of the same item reference bump Quantity and keep the
// originally recorded name/price/type.
type LineItem struct {
	ItemID   string          `json:"item_id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Type     string          `json:"type"`
	Quantity int             `json:"quantity"`
	AddedAt  time.Time       `json:"added_at"`
}

// Subtotal returns price multiplied by quantity.
func (l LineItem) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
