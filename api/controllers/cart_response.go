package controllers

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/floret-storefront/internal/cart"
	"github.com/angelmondragon/floret-storefront/internal/delivery"
	"github.com/angelmondragon/floret-storefront/pkg/enums"
	"github.com/angelmondragon/floret-storefront/pkg/money"
)

type cartLineResponse struct {
	ProductID        string          `json:"productId"`
	Name             string          `json:"name"`
	UnitPrice        decimal.Decimal `json:"unitPrice"`
	UnitPriceDisplay string          `json:"unitPriceDisplay"`
	Quantity         int             `json:"quantity"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	SubtotalDisplay  string          `json:"subtotalDisplay"`
	Category         string          `json:"category,omitempty"`
	ImageURL         string          `json:"imageUrl,omitempty"`
}

type couponResponse struct {
	Code            string          `json:"code"`
	Description     string          `json:"description,omitempty"`
	DiscountAmount  decimal.Decimal `json:"discountAmount"`
	DiscountDisplay string          `json:"discountDisplay"`
}

type deliveryOptionResponse struct {
	ID            string                   `json:"id"`
	Name          string                   `json:"name"`
	Price         decimal.Decimal          `json:"price"`
	PriceDisplay  string                   `json:"priceDisplay"`
	EstimatedDays string                   `json:"estimatedDays"`
	Description   string                   `json:"description"`
	Categories    []enums.DeliveryCategory `json:"categories"`
}

type cartResponse struct {
	Lines              []cartLineResponse      `json:"lines"`
	TotalItems         int                     `json:"totalItems"`
	TotalPrice         decimal.Decimal         `json:"totalPrice"`
	TotalPriceDisplay  string                  `json:"totalPriceDisplay"`
	Discount           decimal.Decimal         `json:"discount"`
	DiscountDisplay    string                  `json:"discountDisplay"`
	FinalAmount        decimal.Decimal         `json:"finalAmount"`
	FinalAmountDisplay string                  `json:"finalAmountDisplay"`
	Payable            decimal.Decimal         `json:"payable"`
	PayableDisplay     string                  `json:"payableDisplay"`
	Coupon             *couponResponse         `json:"coupon"`
	CouponError        string                  `json:"couponError,omitempty"`
	Delivery           *deliveryOptionResponse `json:"delivery"`
	DistanceKm         *float64                `json:"distanceKm"`
}

type deliveryOptionsResponse struct {
	DistanceKm *float64                 `json:"distanceKm"`
	Options    []deliveryOptionResponse `json:"options"`
	SelectedID string                   `json:"selectedId,omitempty"`
}

func newCartResponse(snap cart.Snapshot) cartResponse {
	lines := make([]cartLineResponse, 0, len(snap.Lines))
	for _, l := range snap.Lines {
		subtotal := l.Subtotal()
		lines = append(lines, cartLineResponse{
			ProductID:        l.ProductID,
			Name:             l.Name,
			UnitPrice:        l.UnitPrice,
			UnitPriceDisplay: money.FormatINR(l.UnitPrice),
			Quantity:         l.Quantity,
			Subtotal:         subtotal,
			SubtotalDisplay:  money.FormatINR(subtotal),
			Category:         l.Category,
			ImageURL:         l.ImageRef,
		})
	}

	resp := cartResponse{
		Lines:              lines,
		TotalItems:         snap.TotalItems,
		TotalPrice:         snap.TotalPrice,
		TotalPriceDisplay:  money.FormatINR(snap.TotalPrice),
		Discount:           snap.Discount,
		DiscountDisplay:    money.FormatINR(snap.Discount),
		FinalAmount:        snap.FinalAmount,
		FinalAmountDisplay: money.FormatINR(snap.FinalAmount),
		Payable:            snap.Payable,
		PayableDisplay:     money.FormatINR(snap.Payable),
		CouponError:        snap.CouponError,
		DistanceKm:         snap.DistanceKm,
	}
	if c := snap.Coupon; c != nil {
		resp.Coupon = &couponResponse{
			Code:            c.Code,
			Description:     c.Description,
			DiscountAmount:  c.DiscountAmount,
			DiscountDisplay: money.FormatINR(c.DiscountAmount),
		}
	}
	if snap.Delivery != nil {
		option := newDeliveryOptionResponse(*snap.Delivery)
		resp.Delivery = &option
	}
	return resp
}

func newDeliveryOptionResponse(o delivery.Option) deliveryOptionResponse {
	categories := o.Categories
	if categories == nil {
		categories = []enums.DeliveryCategory{}
	}
	return deliveryOptionResponse{
		ID:            o.ID,
		Name:          o.Name,
		Price:         o.Price,
		PriceDisplay:  money.FormatDeliveryPrice(o.Price),
		EstimatedDays: o.EstimatedDays,
		Description:   o.Description(),
		Categories:    categories,
	}
}
