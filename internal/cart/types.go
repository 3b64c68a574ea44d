package cart

import (
	"github.com/angelmondragon/floret-storefront/internal/delivery"
	"github.com/shopspring/decimal"
)

// Product is what a caller adds to the cart.
type Product struct {
	ID        string
	Name      string
	UnitPrice decimal.Decimal
	Category  string
	ImageRef  string
}

// Line is one product entry with its quantity.
type Line struct {
	ProductID string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
	Category  string
	ImageRef  string
}

// Subtotal is unit price times quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// AppliedCoupon is the single coupon held by a cart.
type AppliedCoupon struct {
	Code           string
	Description    string
	DiscountAmount decimal.Decimal
}

// CouponOutcome is returned by ApplyCoupon for accepted and rejected codes alike.
type CouponOutcome struct {
	Success        bool
	DiscountAmount decimal.Decimal
	Reason         string
}

// Snapshot is an immutable view of the cart at one point in time.
type Snapshot struct {
	SessionID   string
	Lines       []Line
	TotalItems  int
	TotalPrice  decimal.Decimal
	Discount    decimal.Decimal
	FinalAmount decimal.Decimal
	Coupon      *AppliedCoupon
	CouponError string
	Delivery    *delivery.Option
	DistanceKm  *float64
	// Payable adds the selected delivery price to FinalAmount.
	Payable decimal.Decimal
}
