package product

import (
	"github.com/angelmondragon/floret-storefront/pkg/money"
	"github.com/angelmondragon/floret-storefront/pkg/storefront"
	"github.com/shopspring/decimal"
)

// ProductDTO is a catalog product with its display price.
type ProductDTO struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	PriceDisplay string          `json:"priceDisplay"`
	Category     string          `json:"category"`
	ImageURL     string          `json:"imageUrl"`
	Description  string          `json:"description,omitempty"`
	InStock      bool            `json:"inStock"`
}

// ListProductsInput filters the catalog listing.
type ListProductsInput struct {
	Category string
	Search   string
}

func toDTO(p storefront.Product) ProductDTO {
	return ProductDTO{
		ID:           p.ID,
		Name:         p.Name,
		Price:        p.Price,
		PriceDisplay: money.FormatINR(p.Price),
		Category:     p.Category,
		ImageURL:     p.ImageURL,
		Description:  p.Description,
		InStock:      p.InStock,
	}
}
