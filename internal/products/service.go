package product

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/floret-storefront/pkg/errors"
	"github.com/angelmondragon/floret-storefront/pkg/logger"
	"github.com/angelmondragon/floret-storefront/pkg/storefront"
)

const productCacheTTL = 5 * time.Minute

type catalogClient interface {
	ListProducts(ctx context.Context, q storefront.ProductQuery) ([]storefront.Product, error)
	GetProduct(ctx context.Context, id string) (*storefront.Product, error)
}

type productCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CacheKey(parts ...string) string
}

// Service exposes the read-only product catalog.
type Service interface {
	ListProducts(ctx context.Context, input ListProductsInput) ([]ProductDTO, error)
	GetProduct(ctx context.Context, id string) (*ProductDTO, error)
}

type service struct {
	catalog catalogClient
	cache   productCache
	logg    *logger.Logger
}

// NewService builds a product service. cache may be nil.
func NewService(catalog catalogClient, cache productCache, logg *logger.Logger) (Service, error) {
	if catalog == nil {
		return nil, errors.New("catalog client required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{catalog: catalog, cache: cache, logg: logg}, nil
}

func (s *service) ListProducts(ctx context.Context, input ListProductsInput) ([]ProductDTO, error) {
	products, err := s.catalog.ListProducts(ctx, storefront.ProductQuery{
		Category: strings.TrimSpace(input.Category),
		Search:   strings.TrimSpace(input.Search),
	})
	if err != nil {
		return nil, err
	}
	out := make([]ProductDTO, 0, len(products))
	for _, p := range products {
		out = append(out, toDTO(p))
	}
	return out, nil
}

// GetProduct reads through the cache. Cart pricing uses it, so a product
// lookup never trusts prices sent by the browser.
func (s *service) GetProduct(ctx context.Context, id string) (*ProductDTO, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if dto, ok := s.cached(ctx, id); ok {
		return dto, nil
	}

	p, err := s.catalog.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	dto := toDTO(*p)
	s.store(ctx, id, dto)
	return &dto, nil
}

func (s *service) cached(ctx context.Context, id string) (*ProductDTO, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, s.cache.CacheKey("product", id))
	if err != nil || raw == "" {
		return nil, false
	}
	var dto ProductDTO
	if err := json.Unmarshal([]byte(raw), &dto); err != nil {
		return nil, false
	}
	return &dto, true
}

func (s *service) store(ctx context.Context, id string, dto ProductDTO) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(dto)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, s.cache.CacheKey("product", id), payload, productCacheTTL); err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "product_id", id), "product cache write failed")
	}
}
