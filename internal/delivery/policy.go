package delivery

import "github.com/angelmondragon/floret-storefront/pkg/enums"

// DefaultThresholdKM splits nearby from distant addresses.
const DefaultThresholdKM = 10.0

var (
	nearCategories = []enums.DeliveryCategory{enums.DeliveryCategorySameDay, enums.DeliveryCategoryExpress}
	farCategories  = []enums.DeliveryCategory{enums.DeliveryCategoryStandard}
)

// Policy decides which options apply at a given distance and which one is
// selected by default.
type Policy struct {
	thresholdKM float64
}

// NewPolicy builds a policy; a non-positive threshold uses DefaultThresholdKM.
func NewPolicy(thresholdKM float64) Policy {
	if thresholdKM <= 0 {
		thresholdKM = DefaultThresholdKM
	}
	return Policy{thresholdKM: thresholdKM}
}

func (p Policy) ThresholdKM() float64 {
	if p.thresholdKM <= 0 {
		return DefaultThresholdKM
	}
	return p.thresholdKM
}

func (p Policy) near(distanceKm *float64) bool {
	return distanceKm != nil && *distanceKm < p.ThresholdKM()
}

// Filter narrows options to those applicable at distanceKm. A nil distance
// returns everything; an empty match falls back to the full list.
func (p Policy) Filter(options []Option, distanceKm *float64) []Option {
	if distanceKm == nil {
		return options
	}
	wanted := farCategories
	if p.near(distanceKm) {
		wanted = nearCategories
	}

	var eligible []Option
	for _, o := range options {
		if o.Has(wanted...) {
			eligible = append(eligible, o)
		}
	}
	if len(eligible) == 0 {
		return options
	}
	return eligible
}

// SelectDefault picks the selection after the eligible set changes.
// all is the full catalog in list order; current is the selected id or "".
// It returns the new selection ("" for none) and whether it differs from current.
func (p Policy) SelectDefault(all, eligible []Option, distanceKm *float64, current string) (string, bool) {
	if current != "" && indexOf(eligible, current) >= 0 {
		return current, false
	}
	if len(eligible) == 0 {
		return "", current != ""
	}
	if len(all) == 0 {
		all = eligible
	}

	var preferences [][]enums.DeliveryCategory
	if p.near(distanceKm) {
		preferences = [][]enums.DeliveryCategory{nearCategories}
	} else {
		preferences = [][]enums.DeliveryCategory{
			{enums.DeliveryCategoryNextDay},
			{enums.DeliveryCategoryStandard},
		}
	}

	chosen := eligible[0].ID
	for _, wanted := range preferences {
		if id, ok := firstWith(all, wanted); ok {
			chosen = id
			break
		}
	}
	return chosen, chosen != current
}

func firstWith(options []Option, categories []enums.DeliveryCategory) (string, bool) {
	for _, o := range options {
		if o.Has(categories...) {
			return o.ID, true
		}
	}
	return "", false
}
