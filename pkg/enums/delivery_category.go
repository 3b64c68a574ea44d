package enums

import (
	"fmt"
	"strings"
)

// DeliveryCategory classifies a delivery option for eligibility and default selection.
type DeliveryCategory string

const (
	DeliveryCategorySameDay  DeliveryCategory = "SAME_DAY"
	DeliveryCategoryExpress  DeliveryCategory = "EXPRESS"
	DeliveryCategoryNextDay  DeliveryCategory = "NEXT_DAY"
	DeliveryCategoryStandard DeliveryCategory = "STANDARD"
)

var validDeliveryCategories = []DeliveryCategory{
	DeliveryCategorySameDay,
	DeliveryCategoryExpress,
	DeliveryCategoryNextDay,
	DeliveryCategoryStandard,
}

// String implements fmt.Stringer.
func (c DeliveryCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is a known DeliveryCategory.
func (c DeliveryCategory) IsValid() bool {
	for _, candidate := range validDeliveryCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseDeliveryCategory converts raw catalog input into a DeliveryCategory.
// Matching ignores case and treats '-' and ' ' like '_'.
func ParseDeliveryCategory(value string) (DeliveryCategory, error) {
	normalized := strings.ToUpper(strings.TrimSpace(value))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	for _, candidate := range validDeliveryCategories {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery category %q", value)
}
