package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/floret-storefront/api/middleware"
	"github.com/angelmondragon/floret-storefront/internal/address"
	"github.com/angelmondragon/floret-storefront/internal/cart"
	"github.com/angelmondragon/floret-storefront/internal/coupon"
	"github.com/angelmondragon/floret-storefront/internal/delivery"
	product "github.com/angelmondragon/floret-storefront/internal/products"
	"github.com/angelmondragon/floret-storefront/pkg/enums"
	pkgerrors "github.com/angelmondragon/floret-storefront/pkg/errors"
	"github.com/angelmondragon/floret-storefront/pkg/storefront"
)

type stubValidator struct {
	verdict storefront.CouponVerdict
	err     error
}

func (s stubValidator) ValidateCoupon(context.Context, storefront.CouponRequest) (storefront.CouponVerdict, error) {
	return s.verdict, s.err
}

type stubDeliveries struct {
	options []delivery.Option
}

func (s stubDeliveries) DeliveryOptions(context.Context) ([]delivery.Option, error) {
	return s.options, nil
}

func (s stubDeliveries) Policy() delivery.Policy {
	return delivery.NewPolicy(10)
}

type stubProducts struct {
	items map[string]product.ProductDTO
}

func (s stubProducts) GetProduct(_ context.Context, id string) (*product.ProductDTO, error) {
	p, ok := s.items[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return &p, nil
}

type stubPlaces struct {
	distance float64
}

func (s stubPlaces) Resolve(_ context.Context, placeID string) (address.Address, error) {
	return address.Address{PlaceID: placeID, DistanceKm: s.distance}, nil
}

var testCatalog = []delivery.Option{
	{ID: "sd", Name: "Same Day", Price: decimal.NewFromInt(199), EstimatedDays: "same day", Categories: []enums.DeliveryCategory{enums.DeliveryCategorySameDay}},
	{ID: "nd", Name: "Next Day", Price: decimal.NewFromInt(99), EstimatedDays: "1 day", Categories: []enums.DeliveryCategory{enums.DeliveryCategoryNextDay}},
	{ID: "std", Name: "Standard", Price: decimal.Zero, EstimatedDays: "3-5 days", Categories: []enums.DeliveryCategory{enums.DeliveryCategoryStandard}},
}

type cartEnv struct {
	router   chi.Router
	registry *cart.Registry
}

func newCartEnv(t *testing.T, validator stubValidator) cartEnv {
	t.Helper()
	eval, err := coupon.NewEvaluator(validator, nil)
	if err != nil {
		t.Fatalf("evaluator: %v", err)
	}
	deliveries := stubDeliveries{options: testCatalog}
	registry, err := cart.NewRegistry(eval, deliveries, nil)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	products := stubProducts{items: map[string]product.ProductDTO{
		"rose":  {ID: "rose", Name: "Red Roses", Price: decimal.NewFromInt(750), Category: "bouquets", InStock: true},
		"lily":  {ID: "lily", Name: "White Lilies", Price: decimal.RequireFromString("1500.50"), InStock: true},
		"tulip": {ID: "tulip", Name: "Tulips", Price: decimal.NewFromInt(900), InStock: false},
	}}

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithCartID(req.Context(), "cart-1")))
		})
	})
	r.Get("/api/cart", CartGet(registry, nil))
	r.Post("/api/cart/items", CartAddItem(registry, products, nil))
	r.Patch("/api/cart/items/{productId}", CartUpdateItem(registry, nil))
	r.Delete("/api/cart/items/{productId}", CartRemoveItem(registry, nil))
	r.Post("/api/cart/coupon", CartApplyCoupon(registry, nil))
	r.Delete("/api/cart/coupon", CartRemoveCoupon(registry, nil))
	r.Get("/api/cart/delivery-options", CartDeliveryOptions(registry, deliveries, stubPlaces{distance: 4.2}, nil))
	r.Put("/api/cart/delivery", CartSelectDelivery(registry, deliveries, nil))
	return cartEnv{router: r, registry: registry}
}

func (e cartEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeCart(t *testing.T, rec *httptest.ResponseRecorder) cartResponse {
	t.Helper()
	var envelope struct {
		Data cartResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode cart: %v", err)
	}
	return envelope.Data
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) (string, string) {
	t.Helper()
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return envelope.Error.Code, envelope.Error.Message
}

func TestCartAddItemUsesCatalogPrice(t *testing.T) {
	env := newCartEnv(t, stubValidator{})

	rec := env.do(t, http.MethodPost, "/api/cart/items", `{"productId":"rose","quantity":2}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	got := decodeCart(t, rec)
	if got.TotalItems != 2 || got.TotalPriceDisplay != "₹1,500" {
		t.Fatalf("unexpected totals %+v", got)
	}
	if got.Lines[0].UnitPriceDisplay != "₹750" || got.Lines[0].SubtotalDisplay != "₹1,500" {
		t.Fatalf("unexpected line %+v", got.Lines[0])
	}

	rec = env.do(t, http.MethodPost, "/api/cart/items", `{"productId":"lily"}`)
	got = decodeCart(t, rec)
	if got.TotalItems != 3 || got.TotalPriceDisplay != "₹3,000.5" {
		t.Fatalf("expected default quantity of one, got %+v", got)
	}
}

func TestCartAddItemRejections(t *testing.T) {
	env := newCartEnv(t, stubValidator{})

	rec := env.do(t, http.MethodPost, "/api/cart/items", `{"productId":"rose","quantity":0}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for zero quantity, got %d", rec.Code)
	}
	rec = env.do(t, http.MethodPost, "/api/cart/items", `{"productId":"tulip"}`)
	if code, msg := errorCode(t, rec); rec.Code != http.StatusUnprocessableEntity || code != string(pkgerrors.CodeRejected) || !strings.Contains(msg, "out of stock") {
		t.Fatalf("expected out of stock rejection, got %d %s %s", rec.Code, code, msg)
	}
	rec = env.do(t, http.MethodPost, "/api/cart/items", `{"productId":"orchid"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestCartUpdateAndRemoveItem(t *testing.T) {
	env := newCartEnv(t, stubValidator{})
	env.do(t, http.MethodPost, "/api/cart/items", `{"productId":"rose","quantity":2}`)
	env.do(t, http.MethodPost, "/api/cart/items", `{"productId":"lily"}`)

	rec := env.do(t, http.MethodPatch, "/api/cart/items/rose", `{"quantity":5}`)
	if got := decodeCart(t, rec); got.TotalItems != 6 {
		t.Fatalf("expected 6 items, got %d", got.TotalItems)
	}
	rec = env.do(t, http.MethodPatch, "/api/cart/items/rose", `{"quantity":0}`)
	if got := decodeCart(t, rec); len(got.Lines) != 1 || got.Lines[0].ProductID != "lily" {
		t.Fatalf("zero quantity should remove the line, got %+v", got.Lines)
	}
	rec = env.do(t, http.MethodPatch, "/api/cart/items/lily", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without quantity, got %d", rec.Code)
	}
	rec = env.do(t, http.MethodDelete, "/api/cart/items/lily", "")
	if got := decodeCart(t, rec); len(got.Lines) != 0 || got.TotalPriceDisplay != "₹0" {
		t.Fatalf("expected empty cart, got %+v", got)
	}
}

func TestCartApplyCouponAccepted(t *testing.T) {
	env := newCartEnv(t, stubValidator{verdict: storefront.CouponVerdict{Valid: true, DiscountAmount: decimal.NewFromInt(2000), Description: "Big"}})
	env.do(t, http.MethodPost, "/api/cart/items", `{"productId":"rose","quantity":2}`)

	rec := env.do(t, http.MethodPost, "/api/cart/coupon", `{"code":" big2000 "}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	got := decodeCart(t, rec)
	if got.Coupon == nil || got.Coupon.Code != "BIG2000" {
		t.Fatalf("expected normalized coupon, got %+v", got.Coupon)
	}
	if got.FinalAmountDisplay != "₹0" {
		t.Fatalf("final amount must not go negative, got %s", got.FinalAmountDisplay)
	}

	rec = env.do(t, http.MethodDelete, "/api/cart/coupon", "")
	if got := decodeCart(t, rec); got.Coupon != nil || got.FinalAmountDisplay != "₹1,500" {
		t.Fatalf("expected coupon removed, got %+v", got)
	}
}

func TestCartApplyCouponRejectedAndBlank(t *testing.T) {
	env := newCartEnv(t, stubValidator{verdict: storefront.CouponVerdict{Message: "coupon expired"}})
	env.do(t, http.MethodPost, "/api/cart/items", `{"productId":"rose"}`)

	rec := env.do(t, http.MethodPost, "/api/cart/coupon", `{"code":"old"}`)
	code, msg := errorCode(t, rec)
	if rec.Code != http.StatusUnprocessableEntity || code != string(pkgerrors.CodeRejected) || msg != "coupon expired" {
		t.Fatalf("expected rejection, got %d %s %s", rec.Code, code, msg)
	}
	if snap := env.registry.Open("cart-1").Snapshot(); snap.CouponError != "coupon expired" {
		t.Fatalf("expected couponError on the cart, got %q", snap.CouponError)
	}

	rec = env.do(t, http.MethodPost, "/api/cart/coupon", `{"code":"   "}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank code, got %d", rec.Code)
	}
}

func TestCartApplyCouponTransportFailure(t *testing.T) {
	env := newCartEnv(t, stubValidator{err: pkgerrors.New(pkgerrors.CodeDependency, "coupon api down")})
	env.do(t, http.MethodPost, "/api/cart/items", `{"productId":"rose"}`)

	rec := env.do(t, http.MethodPost, "/api/cart/coupon", `{"code":"SAVE10"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestCartDeliveryOptionsByDistance(t *testing.T) {
	env := newCartEnv(t, stubValidator{})
	env.do(t, http.MethodPost, "/api/cart/items", `{"productId":"rose"}`)

	rec := env.do(t, http.MethodGet, "/api/cart/delivery-options?distanceKm=25", "")
	var envelope struct {
		Data deliveryOptionsResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(envelope.Data.Options) != 1 || envelope.Data.Options[0].ID != "std" {
		t.Fatalf("expected only standard far away, got %+v", envelope.Data.Options)
	}
	if envelope.Data.Options[0].PriceDisplay != "Free" {
		t.Fatalf("expected Free label, got %q", envelope.Data.Options[0].PriceDisplay)
	}
	if envelope.Data.Options[0].Description != "Standard delivery within 3-5 days" {
		t.Fatalf("unexpected description %q", envelope.Data.Options[0].Description)
	}
	if envelope.Data.SelectedID != "nd" {
		t.Fatalf("expected next day default far away, got %q", envelope.Data.SelectedID)
	}

	rec = env.do(t, http.MethodGet, "/api/cart/delivery-options?placeId=ChIJ-near", "")
	envelope.Data = deliveryOptionsResponse{}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if envelope.Data.DistanceKm == nil || *envelope.Data.DistanceKm != 4.2 {
		t.Fatalf("expected resolved distance, got %v", envelope.Data.DistanceKm)
	}
	if len(envelope.Data.Options) != 1 || envelope.Data.SelectedID != "sd" {
		t.Fatalf("expected same day near the shop, got %+v", envelope.Data)
	}

	rec = env.do(t, http.MethodGet, "/api/cart/delivery-options?distanceKm=far", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad distance, got %d", rec.Code)
	}
}

func TestCartDeliveryOptionsRejectsNonFiniteDistance(t *testing.T) {
	env := newCartEnv(t, stubValidator{})
	for _, raw := range []string{"NaN", "Inf"} {
		rec := env.do(t, http.MethodGet, "/api/cart/delivery-options?distanceKm="+raw, "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d body=%q", raw, rec.Code, rec.Body.String())
		}
		if code, _ := errorCode(t, rec); code != "VALIDATION_ERROR" {
			t.Fatalf("%s: expected validation code, got %q", raw, code)
		}
	}
}

func TestCartSelectDelivery(t *testing.T) {
	env := newCartEnv(t, stubValidator{})
	env.do(t, http.MethodPost, "/api/cart/items", `{"productId":"rose","quantity":2}`)
	env.do(t, http.MethodGet, "/api/cart/delivery-options?distanceKm=3", "")

	rec := env.do(t, http.MethodPut, "/api/cart/delivery", `{"optionId":"std"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("standard is not offered nearby, got %d", rec.Code)
	}
	rec = env.do(t, http.MethodPut, "/api/cart/delivery", `{"optionId":"ghost"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown option, got %d", rec.Code)
	}

	env.do(t, http.MethodGet, "/api/cart/delivery-options", "")
	rec = env.do(t, http.MethodPut, "/api/cart/delivery", `{"optionId":"nd"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	got := decodeCart(t, rec)
	if got.Delivery == nil || got.Delivery.ID != "nd" || got.PayableDisplay != "₹1,599" {
		t.Fatalf("unexpected delivery selection %+v", got)
	}
}

func TestCartRequiresContext(t *testing.T) {
	rec := httptest.NewRecorder()
	CartGet(nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cart", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 without registry, got %d", rec.Code)
	}
}
