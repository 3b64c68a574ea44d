package address

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/floret-storefront/pkg/config"
	pkgerrors "github.com/angelmondragon/floret-storefront/pkg/errors"
	"github.com/angelmondragon/floret-storefront/pkg/maps"
)

type placesStub struct {
	suggestions []maps.Suggestion
	place       *maps.Place
	err         error
	resolves    int
}

func (p *placesStub) Autocomplete(context.Context, string) ([]maps.Suggestion, error) {
	return p.suggestions, p.err
}

func (p *placesStub) ResolvePlace(context.Context, string) (*maps.Place, error) {
	p.resolves++
	return p.place, p.err
}

type memoryCache map[string]string

func (m memoryCache) Get(_ context.Context, key string) (string, error) {
	return m[key], nil
}

func (m memoryCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	switch v := value.(type) {
	case []byte:
		m[key] = string(v)
	case string:
		m[key] = v
	}
	return nil
}

func (m memoryCache) CacheKey(parts ...string) string {
	key := "test"
	for _, p := range parts {
		key += ":" + p
	}
	return key
}

var shop = config.DeliveryConfig{ThresholdKM: 10, OriginLat: 12.9716, OriginLng: 77.5946}

func TestSuggest(t *testing.T) {
	svc := NewService(&placesStub{suggestions: []maps.Suggestion{{PlaceID: "p1", Description: "Indiranagar, Bengaluru"}}}, nil, shop, nil)

	got, err := svc.Suggest(context.Background(), "indira")
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(got) != 1 || got[0].PlaceID != "p1" || got[0].Description != "Indiranagar, Bengaluru" {
		t.Fatalf("unexpected suggestions %+v", got)
	}

	if _, err := svc.Suggest(context.Background(), "  "); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestResolveComputesDistanceAndCaches(t *testing.T) {
	places := &placesStub{place: &maps.Place{
		PlaceID:          "whitefield",
		FormattedAddress: "Whitefield, Bengaluru",
		Location:         maps.LatLng{Latitude: 12.9698, Longitude: 77.7500},
	}}
	cache := memoryCache{}
	svc := NewService(places, cache, shop, nil)

	addr, err := svc.Resolve(context.Background(), "whitefield")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if addr.DistanceKm < 16 || addr.DistanceKm > 18 {
		t.Fatalf("unexpected distance %.2f", addr.DistanceKm)
	}
	if _, ok := cache["test:place:whitefield"]; !ok {
		t.Fatalf("expected resolved place to be cached, got %v", cache)
	}

	again, err := svc.Resolve(context.Background(), "whitefield")
	if err != nil {
		t.Fatalf("resolve cached: %v", err)
	}
	if places.resolves != 1 {
		t.Fatalf("expected one places call, got %d", places.resolves)
	}
	if again != addr {
		t.Fatalf("cached address differs: %+v vs %+v", again, addr)
	}
}

func TestResolveRejectsMissingLocation(t *testing.T) {
	svc := NewService(&placesStub{place: &maps.Place{PlaceID: "p"}}, nil, shop, nil)
	if _, err := svc.Resolve(context.Background(), "p"); !pkgerrors.Is(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if _, err := svc.Resolve(context.Background(), ""); !pkgerrors.Is(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestServiceWithoutMaps(t *testing.T) {
	svc := NewService(nil, nil, shop, nil)
	if _, err := svc.Suggest(context.Background(), "x"); !pkgerrors.Is(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
	if _, err := svc.Resolve(context.Background(), "x"); !pkgerrors.Is(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}
