package address

// Suggestion is one autocomplete match shown while typing an address.
type Suggestion struct {
	PlaceID     string `json:"placeId"`
	Description string `json:"description"`
}

// Address is a resolved delivery address with its distance from the shop.
type Address struct {
	PlaceID          string  `json:"placeId"`
	FormattedAddress string  `json:"formattedAddress"`
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
	DistanceKm       float64 `json:"distanceKm"`
}
