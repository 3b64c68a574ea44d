package delivery

import (
	"context"
	"errors"

	"github.com/angelmondragon/floret-storefront/pkg/config"
	"github.com/angelmondragon/floret-storefront/pkg/storefront"
)

type catalogClient interface {
	DeliveryOptions(ctx context.Context) ([]storefront.DeliveryOption, error)
}

// Service loads the delivery catalog and carries the eligibility policy.
type Service interface {
	DeliveryOptions(ctx context.Context) ([]Option, error)
	Policy() Policy
}

type service struct {
	catalog catalogClient
	policy  Policy
}

func NewService(catalog catalogClient, cfg config.DeliveryConfig) (Service, error) {
	if catalog == nil {
		return nil, errors.New("delivery catalog client required")
	}
	return &service{
		catalog: catalog,
		policy:  NewPolicy(cfg.ThresholdKM),
	}, nil
}

func (s *service) DeliveryOptions(ctx context.Context) ([]Option, error) {
	raw, err := s.catalog.DeliveryOptions(ctx)
	if err != nil {
		return nil, err
	}
	options := make([]Option, 0, len(raw))
	for _, r := range raw {
		options = append(options, FromCatalog(r))
	}
	return options, nil
}

func (s *service) Policy() Policy {
	return s.policy
}
