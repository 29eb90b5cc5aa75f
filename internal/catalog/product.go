package catalog

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Product is a cached copy of a backend catalog entry. The backend owns the
// catalog; the storefront never mutates a product, it only prices against the
// copy it was handed.
type Product struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Unit      string          `json:"unit,omitempty"`
}

// IsCylinder reports whether the product is an exchange cylinder rather than a
// gas refill. The catalog carries no explicit flag, so the storefront matches
// on the display name the same way the product grid splits the two groups.
func (p Product) IsCylinder() bool {
	return strings.Contains(strings.ToLower(p.Name), "cylinder")
}
