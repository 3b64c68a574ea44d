package coupon

import (
	"context"
	"errors"
	"strings"

	pkgerrors "github.com/angelmondragon/floret-storefront/pkg/errors"
	"github.com/angelmondragon/floret-storefront/pkg/storefront"
	"github.com/shopspring/decimal"
)

// DefaultReason is shown when the remote rejects a code without saying why.
const DefaultReason = "invalid code"

// Validator is the remote validation port.
type Validator interface {
	ValidateCoupon(ctx context.Context, in storefront.CouponRequest) (storefront.CouponVerdict, error)
}

type resultRecorder interface {
	IncCouponResult(result string)
}

// Item is the cart context sent along with a code.
type Item struct {
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Result is the outcome of a well-formed evaluation. A business rejection is
// Accepted=false with a readable Reason; it is never returned as an error.
type Result struct {
	Accepted       bool
	Code           string
	DiscountAmount decimal.Decimal
	Description    string
	Reason         string
}

// Evaluator checks coupon codes against a cart subtotal.
type Evaluator interface {
	Evaluate(ctx context.Context, code string, subtotal decimal.Decimal, items []Item) (Result, error)
}

type evaluator struct {
	validator Validator
	metrics   resultRecorder
}

// NewEvaluator wraps the remote validator. metrics may be nil.
func NewEvaluator(v Validator, metrics resultRecorder) (Evaluator, error) {
	if v == nil {
		return nil, errors.New("coupon validator required")
	}
	return &evaluator{validator: v, metrics: metrics}, nil
}

// Normalize trims and upper-cases a code so re-application is idempotent.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (e *evaluator) Evaluate(ctx context.Context, code string, subtotal decimal.Decimal, items []Item) (Result, error) {
	normalized := Normalize(code)
	if normalized == "" {
		e.record("blank")
		return Result{}, pkgerrors.New(pkgerrors.CodeValidation, "coupon code is required").
			WithDetails(map[string]string{"code": "must not be blank"})
	}

	req := storefront.CouponRequest{
		Code:     normalized,
		Subtotal: subtotal,
		Items:    make([]storefront.CouponItem, 0, len(items)),
	}
	for _, item := range items {
		req.Items = append(req.Items, storefront.CouponItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	verdict, err := e.validator.ValidateCoupon(ctx, req)
	if err != nil {
		e.record("error")
		return Result{}, err
	}

	if !verdict.Valid {
		e.record("rejected")
		reason := strings.TrimSpace(verdict.Message)
		if reason == "" {
			reason = DefaultReason
		}
		return Result{Code: normalized, Reason: reason}, nil
	}

	e.record("accepted")
	discount := verdict.DiscountAmount
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	return Result{
		Accepted:       true,
		Code:           normalized,
		DiscountAmount: discount,
		Description:    verdict.Description,
	}, nil
}

func (e *evaluator) record(result string) {
	if e.metrics != nil {
		e.metrics.IncCouponResult(result)
	}
}
