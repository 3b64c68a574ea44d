package coupon

import (
	"context"
	"testing"

	pkgerrors "github.com/angelmondragon/floret-storefront/pkg/errors"
	"github.com/angelmondragon/floret-storefront/pkg/storefront"
	"github.com/shopspring/decimal"
)

type validatorFunc func(ctx context.Context, in storefront.CouponRequest) (storefront.CouponVerdict, error)

func (f validatorFunc) ValidateCoupon(ctx context.Context, in storefront.CouponRequest) (storefront.CouponVerdict, error) {
	return f(ctx, in)
}

type recorderStub struct {
	results []string
}

func (r *recorderStub) IncCouponResult(result string) {
	r.results = append(r.results, result)
}

func TestEvaluateNormalizesCode(t *testing.T) {
	var seen storefront.CouponRequest
	eval, err := NewEvaluator(validatorFunc(func(_ context.Context, in storefront.CouponRequest) (storefront.CouponVerdict, error) {
		seen = in
		return storefront.CouponVerdict{Valid: true, DiscountAmount: decimal.NewFromInt(100), Description: "10% off"}, nil
	}), nil)
	if err != nil {
		t.Fatalf("new evaluator: %v", err)
	}

	items := []Item{{ProductID: "rose", Quantity: 2, UnitPrice: decimal.NewFromInt(500)}}
	res, err := eval.Evaluate(context.Background(), " save10 ", decimal.NewFromInt(1000), items)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if seen.Code != "SAVE10" {
		t.Fatalf("expected normalized code sent, got %q", seen.Code)
	}
	if len(seen.Items) != 1 || seen.Items[0].ProductID != "rose" || !seen.Subtotal.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("unexpected request %+v", seen)
	}
	if !res.Accepted || res.Code != "SAVE10" || !res.DiscountAmount.Equal(decimal.NewFromInt(100)) || res.Description != "10% off" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestEvaluateBlankSkipsRemote(t *testing.T) {
	rec := &recorderStub{}
	eval, _ := NewEvaluator(validatorFunc(func(context.Context, storefront.CouponRequest) (storefront.CouponVerdict, error) {
		t.Fatalf("remote validator must not be called for a blank code")
		return storefront.CouponVerdict{}, nil
	}), rec)

	for _, code := range []string{"", "   ", "\t\n"} {
		_, err := eval.Evaluate(context.Background(), code, decimal.NewFromInt(10), nil)
		if !pkgerrors.Is(err, pkgerrors.CodeValidation) {
			t.Fatalf("expected validation error for %q, got %v", code, err)
		}
	}
	if len(rec.results) != 3 || rec.results[0] != "blank" {
		t.Fatalf("unexpected recorded results %v", rec.results)
	}
}

func TestEvaluateRejection(t *testing.T) {
	cases := []struct {
		name    string
		message string
		want    string
	}{
		{"remote reason", "minimum order not met", "minimum order not met"},
		{"default reason", "  ", DefaultReason},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			eval, _ := NewEvaluator(validatorFunc(func(context.Context, storefront.CouponRequest) (storefront.CouponVerdict, error) {
				return storefront.CouponVerdict{Valid: false, Message: tc.message}, nil
			}), nil)
			res, err := eval.Evaluate(context.Background(), "expired", decimal.NewFromInt(10), nil)
			if err != nil {
				t.Fatalf("rejection must not be an error: %v", err)
			}
			if res.Accepted || res.Reason != tc.want || res.Code != "EXPIRED" {
				t.Fatalf("unexpected result %+v", res)
			}
		})
	}
}

func TestEvaluateTransportFailure(t *testing.T) {
	rec := &recorderStub{}
	eval, _ := NewEvaluator(validatorFunc(func(context.Context, storefront.CouponRequest) (storefront.CouponVerdict, error) {
		return storefront.CouponVerdict{}, pkgerrors.New(pkgerrors.CodeDependency, "storefront unavailable")
	}), rec)

	_, err := eval.Evaluate(context.Background(), "SAVE10", decimal.NewFromInt(10), nil)
	if !pkgerrors.Is(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if len(rec.results) != 1 || rec.results[0] != "error" {
		t.Fatalf("unexpected recorded results %v", rec.results)
	}
}

func TestEvaluateKeepsOversizedDiscountAndClampsNegative(t *testing.T) {
	discount := decimal.NewFromInt(5000)
	eval, _ := NewEvaluator(validatorFunc(func(context.Context, storefront.CouponRequest) (storefront.CouponVerdict, error) {
		return storefront.CouponVerdict{Valid: true, DiscountAmount: discount}, nil
	}), nil)

	res, _ := eval.Evaluate(context.Background(), "BIG", decimal.NewFromInt(100), nil)
	if !res.DiscountAmount.Equal(discount) {
		t.Fatalf("discount above subtotal is kept for the cart to clamp, got %s", res.DiscountAmount)
	}

	discount = decimal.NewFromInt(-5)
	res, _ = eval.Evaluate(context.Background(), "NEG", decimal.NewFromInt(100), nil)
	if !res.DiscountAmount.IsZero() {
		t.Fatalf("negative discount should clamp to zero, got %s", res.DiscountAmount)
	}
}

func TestNewEvaluatorRequiresValidator(t *testing.T) {
	if _, err := NewEvaluator(nil, nil); err == nil {
		t.Fatalf("expected error")
	}
}
