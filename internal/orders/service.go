package orders

import (
	"context"
	"errors"
	"sort"
	"strings"

	pkgerrors "github.com/angelmondragon/floret-storefront/pkg/errors"
	"github.com/angelmondragon/floret-storefront/pkg/storefront"
)

type ordersClient interface {
	GetOrder(ctx context.Context, token, id string) (*storefront.Order, error)
	ListUserOrders(ctx context.Context, token string) ([]storefront.Order, error)
}

// Service reads the signed-in user's orders from the storefront API.
type Service interface {
	GetOrder(ctx context.Context, token, orderID string) (*OrderDTO, error)
	ListUserOrders(ctx context.Context, token string) ([]OrderDTO, error)
}

type service struct {
	client ordersClient
}

func NewService(client ordersClient) (Service, error) {
	if client == nil {
		return nil, errors.New("orders client required")
	}
	return &service{client: client}, nil
}

func (s *service) GetOrder(ctx context.Context, token, orderID string) (*OrderDTO, error) {
	if strings.TrimSpace(token) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.client.GetOrder(ctx, token, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	dto := toDTO(*order)
	return &dto, nil
}

// ListUserOrders returns orders newest first.
func (s *service) ListUserOrders(ctx context.Context, token string) ([]OrderDTO, error) {
	if strings.TrimSpace(token) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	orders, err := s.client.ListUserOrders(ctx, token)
	if err != nil {
		return nil, err
	}
	out := make([]OrderDTO, 0, len(orders))
	for _, o := range orders {
		out = append(out, toDTO(o))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
