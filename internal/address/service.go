package address

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/angelmondragon/floret-storefront/internal/delivery"
	"github.com/angelmondragon/floret-storefront/pkg/config"
	"github.com/angelmondragon/floret-storefront/pkg/errors"
	"github.com/angelmondragon/floret-storefront/pkg/logger"
	"github.com/angelmondragon/floret-storefront/pkg/maps"
)

const placeCacheTTL = 24 * time.Hour

type placesClient interface {
	Autocomplete(ctx context.Context, input string) ([]maps.Suggestion, error)
	ResolvePlace(ctx context.Context, placeID string) (*maps.Place, error)
}

type placeCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CacheKey(parts ...string) string
}

type Service interface {
	Suggest(ctx context.Context, query string) ([]Suggestion, error)
	Resolve(ctx context.Context, placeID string) (Address, error)
}

type service struct {
	maps   placesClient
	cache  placeCache
	origin maps.LatLng
	logg   *logger.Logger
}

// NewService wires the places client. places may be nil when no maps key is
// configured; cache may be nil to always hit the places API.
func NewService(places placesClient, cache placeCache, cfg config.DeliveryConfig, logg *logger.Logger) Service {
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		maps:   places,
		cache:  cache,
		origin: maps.LatLng{Latitude: cfg.OriginLat, Longitude: cfg.OriginLng},
		logg:   logg,
	}
}

func (s *service) Suggest(ctx context.Context, query string) ([]Suggestion, error) {
	if s == nil || s.maps == nil {
		return nil, errors.New(errors.CodeDependency, "maps client unavailable")
	}
	if strings.TrimSpace(query) == "" {
		return nil, errors.New(errors.CodeValidation, "input is required").
			WithDetails(map[string]string{"input": "is required"})
	}

	resp, err := s.maps.Autocomplete(ctx, query)
	if err != nil {
		return nil, err
	}

	suggestions := make([]Suggestion, 0, len(resp))
	for _, item := range resp {
		suggestions = append(suggestions, Suggestion{
			PlaceID:     item.PlaceID,
			Description: item.Description,
		})
	}
	return suggestions, nil
}

func (s *service) Resolve(ctx context.Context, placeID string) (Address, error) {
	if s == nil || s.maps == nil {
		return Address{}, errors.New(errors.CodeDependency, "maps client unavailable")
	}
	placeID = strings.TrimSpace(placeID)
	if placeID == "" {
		return Address{}, errors.New(errors.CodeValidation, "placeId is required").
			WithDetails(map[string]string{"placeId": "is required"})
	}

	if cached, ok := s.cached(ctx, placeID); ok {
		return cached, nil
	}

	details, err := s.maps.ResolvePlace(ctx, placeID)
	if err != nil {
		return Address{}, err
	}
	addr, err := s.mapPlace(placeID, details)
	if err != nil {
		return Address{}, err
	}
	s.store(ctx, placeID, addr)
	return addr, nil
}

func (s *service) mapPlace(placeID string, details *maps.Place) (Address, error) {
	if details == nil {
		return Address{}, errors.New(errors.CodeDependency, "place details missing")
	}
	if details.Location.Latitude == 0 && details.Location.Longitude == 0 {
		return Address{}, errors.New(errors.CodeDependency, "place location missing")
	}
	id := details.PlaceID
	if id == "" {
		id = placeID
	}
	return Address{
		PlaceID:          id,
		FormattedAddress: details.FormattedAddress,
		Lat:              details.Location.Latitude,
		Lng:              details.Location.Longitude,
		DistanceKm:       delivery.DistanceKm(s.origin, details.Location),
	}, nil
}

// cached misses on any cache error; the places API stays the source of truth.
func (s *service) cached(ctx context.Context, placeID string) (Address, bool) {
	if s.cache == nil {
		return Address{}, false
	}
	raw, err := s.cache.Get(ctx, s.cache.CacheKey("place", placeID))
	if err != nil || raw == "" {
		return Address{}, false
	}
	var addr Address
	if err := json.Unmarshal([]byte(raw), &addr); err != nil {
		return Address{}, false
	}
	return addr, true
}

func (s *service) store(ctx context.Context, placeID string, addr Address) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(addr)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, s.cache.CacheKey("place", placeID), payload, placeCacheTTL); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "place_id", placeID), "place cache write failed")
	}
}
