package storefront

import (
	"time"

	"github.com/shopspring/decimal"
)

// User is the identity returned by the remote auth endpoints.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

// AuthResult is the body of a successful sign-in or sign-up.
type AuthResult struct {
	User  User   `json:"user"`
	Token string `json:"token,omitempty"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"imageUrl"`
	Description string          `json:"description,omitempty"`
	InStock     bool            `json:"inStock"`
}

// ProductQuery narrows the product listing. Empty fields are omitted.
type ProductQuery struct {
	Category string
	Search   string
}

// DeliveryOption is a catalog entry as served by the remote API.
// Categories is optional; older catalogs only send a name.
type DeliveryOption struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	EstimatedDays string          `json:"estimatedDays"`
	Categories    []string        `json:"categories,omitempty"`
}

type CouponItem struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

type CouponRequest struct {
	Code     string          `json:"code"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Items    []CouponItem    `json:"items"`
}

// CouponVerdict is the outcome of remote coupon validation. A rejection is
// a verdict, never an error.
type CouponVerdict struct {
	Valid          bool
	DiscountAmount decimal.Decimal
	Description    string
	Message        string
}

type OrderItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

type Order struct {
	ID             string          `json:"id"`
	Status         string          `json:"status"`
	Items          []OrderItem     `json:"items"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Discount       decimal.Decimal `json:"discount"`
	DeliveryFee    decimal.Decimal `json:"deliveryFee"`
	Total          decimal.Decimal `json:"total"`
	CouponCode     string          `json:"couponCode,omitempty"`
	DeliveryOption string          `json:"deliveryOption,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// errorBody is the remote API's error payload.
type errorBody struct {
	Message string `json:"message"`
}
