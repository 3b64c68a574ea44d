package orders

import (
	"time"

	"github.com/angelmondragon/floret-storefront/pkg/money"
	"github.com/angelmondragon/floret-storefront/pkg/storefront"
	"github.com/shopspring/decimal"
)

type OrderItemDTO struct {
	ProductID        string          `json:"productId"`
	Name             string          `json:"name"`
	Quantity         int             `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unitPrice"`
	UnitPriceDisplay string          `json:"unitPriceDisplay"`
}

// OrderDTO is an order with display strings for every amount.
type OrderDTO struct {
	ID                 string          `json:"id"`
	Status             string          `json:"status"`
	Items              []OrderItemDTO  `json:"items"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	Discount           decimal.Decimal `json:"discount"`
	DeliveryFee        decimal.Decimal `json:"deliveryFee"`
	Total              decimal.Decimal `json:"total"`
	SubtotalDisplay    string          `json:"subtotalDisplay"`
	DiscountDisplay    string          `json:"discountDisplay"`
	DeliveryFeeDisplay string          `json:"deliveryFeeDisplay"`
	TotalDisplay       string          `json:"totalDisplay"`
	CouponCode         string          `json:"couponCode,omitempty"`
	DeliveryOption     string          `json:"deliveryOption,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
}

func toDTO(o storefront.Order) OrderDTO {
	items := make([]OrderItemDTO, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemDTO{
			ProductID:        it.ProductID,
			Name:             it.Name,
			Quantity:         it.Quantity,
			UnitPrice:        it.UnitPrice,
			UnitPriceDisplay: money.FormatINR(it.UnitPrice),
		})
	}
	return OrderDTO{
		ID:                 o.ID,
		Status:             o.Status,
		Items:              items,
		Subtotal:           o.Subtotal,
		Discount:           o.Discount,
		DeliveryFee:        o.DeliveryFee,
		Total:              o.Total,
		SubtotalDisplay:    money.FormatINR(o.Subtotal),
		DiscountDisplay:    money.FormatINR(o.Discount),
		DeliveryFeeDisplay: money.FormatDeliveryPrice(o.DeliveryFee),
		TotalDisplay:       money.FormatINR(o.Total),
		CouponCode:         o.CouponCode,
		DeliveryOption:     o.DeliveryOption,
		CreatedAt:          o.CreatedAt,
	}
}
