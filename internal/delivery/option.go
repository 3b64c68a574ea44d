package delivery

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/floret-storefront/pkg/enums"
	"github.com/angelmondragon/floret-storefront/pkg/storefront"
	"github.com/shopspring/decimal"
)

// Option is an immutable delivery choice from the catalog.
type Option struct {
	ID            string
	Name          string
	Price         decimal.Decimal
	EstimatedDays string
	Categories    []enums.DeliveryCategory
}

// Description is the human-readable summary shown next to the option.
func (o Option) Description() string {
	return fmt.Sprintf("%s delivery within %s", o.Name, o.EstimatedDays)
}

// Has reports whether the option carries any of the given categories.
func (o Option) Has(categories ...enums.DeliveryCategory) bool {
	for _, have := range o.Categories {
		for _, want := range categories {
			if have == want {
				return true
			}
		}
	}
	return false
}

var nameRules = []struct {
	category enums.DeliveryCategory
	needles  []string
}{
	{enums.DeliveryCategorySameDay, []string{"same day"}},
	{enums.DeliveryCategoryExpress, []string{"express"}},
	{enums.DeliveryCategoryNextDay, []string{"next day", "next-day", "tomorrow"}},
	{enums.DeliveryCategoryStandard, []string{"standard", "regular"}},
}

// Classify derives categories from a free-text option name using
// case-insensitive substring matches. A name may match several rules.
func Classify(name string) []enums.DeliveryCategory {
	lower := strings.ToLower(name)
	var out []enums.DeliveryCategory
	for _, rule := range nameRules {
		for _, needle := range rule.needles {
			if strings.Contains(lower, needle) {
				out = append(out, rule.category)
				break
			}
		}
	}
	return out
}

// FromCatalog converts a remote catalog entry. Categories sent by the catalog
// win; unknown values are dropped and an untagged entry falls back to Classify.
func FromCatalog(raw storefront.DeliveryOption) Option {
	var categories []enums.DeliveryCategory
	for _, value := range raw.Categories {
		if c, err := enums.ParseDeliveryCategory(value); err == nil {
			categories = append(categories, c)
		}
	}
	if len(categories) == 0 {
		categories = Classify(raw.Name)
	}
	return Option{
		ID:            raw.ID,
		Name:          raw.Name,
		Price:         raw.Price,
		EstimatedDays: raw.EstimatedDays,
		Categories:    categories,
	}
}

func indexOf(options []Option, id string) int {
	for i, o := range options {
		if o.ID == id {
			return i
		}
	}
	return -1
}

// Find returns the option with id, if present.
func Find(options []Option, id string) (Option, bool) {
	if i := indexOf(options, id); i >= 0 {
		return options[i], true
	}
	return Option{}, false
}
