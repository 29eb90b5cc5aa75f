package gasapi

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItem is one expanded line in the order payload. A bundled cylinder
// produces its own independent item at the same quantity; items are never
// merged even when they reference the same product.
type OrderItem struct {
	Product   int64  `json:"product"`
	Variant   *int64 `json:"variant"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

// OrderPayload is the order-creation request. All monetary fields travel as
// decimal strings fixed to 2 places.
type OrderPayload struct {
	CustomerName    string      `json:"customer_name"`
	CustomerEmail   string      `json:"customer_email"`
	CustomerPhone   string      `json:"customer_phone"`
	DeliveryAddress string      `json:"delivery_address"`
	DeliveryNotes   string      `json:"delivery_notes"`
	PaymentMethod   string      `json:"payment_method"`
	DeliveryZone    *int64      `json:"delivery_zone"`
	Subtotal        string      `json:"subtotal"`
	DeliveryFee     string      `json:"delivery_fee"`
	DiscountAmount  string      `json:"discount_amount"`
	Total           string      `json:"total"`
	YocoPaymentID   string      `json:"yoco_payment_id,omitempty"`
	Items           []OrderItem `json:"items"`
}

// Order is the backend-owned order record. The client treats it as an opaque
// result; the only mutations go through the status-update and payment
// endpoints.
type Order struct {
	ID              int64           `json:"id"`
	OrderNumber     string          `json:"order_number"`
	CustomerName    string          `json:"customer_name"`
	CustomerEmail   string          `json:"customer_email,omitempty"`
	CustomerPhone   string          `json:"customer_phone"`
	DeliveryAddress string          `json:"delivery_address"`
	DeliveryNotes   string          `json:"delivery_notes,omitempty"`
	Status          string          `json:"status"`
	PaymentStatus   string          `json:"payment_status"`
	PaymentMethod   string          `json:"payment_method"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DeliveryFee     decimal.Decimal `json:"delivery_fee"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	Total           decimal.Decimal `json:"total"`
	CreatedAt       time.Time       `json:"created_at"`
	Items           []OrderLine     `json:"items,omitempty"`
}

// OrderLine is a created order's line item as echoed by the backend.
type OrderLine struct {
	ID          int64  `json:"id"`
	Product     int64  `json:"product"`
	ProductName string `json:"product_name,omitempty"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
}

// CompanySettings carries the business display and banking details shown on
// the storefront and in EFT payment instructions.
type CompanySettings struct {
	ID                   int64  `json:"id"`
	CompanyName          string `json:"company_name"`
	RegistrationNumber   string `json:"registration_number,omitempty"`
	VATNumber            string `json:"vat_number,omitempty"`
	Phone                string `json:"phone"`
	Email                string `json:"email"`
	Address              string `json:"address"`
	LogoURL              string `json:"logo_url,omitempty"`
	BankName             string `json:"bank_name,omitempty"`
	AccountName          string `json:"account_name,omitempty"`
	AccountNumber        string `json:"account_number,omitempty"`
	AccountType          string `json:"account_type,omitempty"`
	BranchCode           string `json:"branch_code,omitempty"`
	PaymentReferenceNote string `json:"payment_reference_note,omitempty"`
}
