package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/floret-storefront/api/middleware"
	"github.com/angelmondragon/floret-storefront/api/responses"
	"github.com/angelmondragon/floret-storefront/api/validators"
	"github.com/angelmondragon/floret-storefront/internal/address"
	"github.com/angelmondragon/floret-storefront/internal/cart"
	"github.com/angelmondragon/floret-storefront/internal/delivery"
	product "github.com/angelmondragon/floret-storefront/internal/products"
	pkgerrors "github.com/angelmondragon/floret-storefront/pkg/errors"
	"github.com/angelmondragon/floret-storefront/pkg/logger"
)

type cartOpener interface {
	Open(sessionID string) *cart.Store
}

type productLookup interface {
	GetProduct(ctx context.Context, id string) (*product.ProductDTO, error)
}

type deliveryPolicy interface {
	Policy() delivery.Policy
}

type placeResolver interface {
	Resolve(ctx context.Context, placeID string) (address.Address, error)
}

type addItemRequest struct {
	ProductID string `json:"productId" validate:"required,max=128"`
	Quantity  *int   `json:"quantity" validate:"omitempty,min=1"`
}

type updateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

type applyCouponRequest struct {
	Code string `json:"code" validate:"max=64"`
}

type selectDeliveryRequest struct {
	OptionID string `json:"optionId" validate:"required"`
}

// CartGet returns the caller's cart.
func CartGet(carts cartOpener, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := openCart(w, r, carts, logg)
		if !ok {
			return
		}
		responses.WriteSuccess(w, newCartResponse(store.Snapshot()))
	}
}

// CartAddItem adds a product by id. Name and price come from the catalog,
// never from the request.
func CartAddItem(carts cartOpener, products productLookup, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := openCart(w, r, carts, logg)
		if !ok {
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		qty := 1
		if payload.Quantity != nil {
			qty = *payload.Quantity
		}

		p, err := products.GetProduct(r.Context(), strings.TrimSpace(payload.ProductID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !p.InStock {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeRejected, p.Name+" is out of stock"))
			return
		}

		if err := store.AddItem(cart.Product{
			ID:        p.ID,
			Name:      p.Name,
			UnitPrice: p.Price,
			Category:  p.Category,
			ImageRef:  p.ImageURL,
		}, qty); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newCartResponse(store.Snapshot()))
	}
}

// CartUpdateItem replaces a line quantity; zero or less removes the line.
func CartUpdateItem(carts cartOpener, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := openCart(w, r, carts, logg)
		if !ok {
			return
		}

		var payload updateQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		store.UpdateQuantity(chi.URLParam(r, "productId"), *payload.Quantity)
		responses.WriteSuccess(w, newCartResponse(store.Snapshot()))
	}
}

func CartRemoveItem(carts cartOpener, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := openCart(w, r, carts, logg)
		if !ok {
			return
		}
		store.RemoveItem(chi.URLParam(r, "productId"))
		responses.WriteSuccess(w, newCartResponse(store.Snapshot()))
	}
}

// CartApplyCoupon answers 422 with the remote reason when the code is
// rejected. The rejection is also kept on the cart as couponError.
func CartApplyCoupon(carts cartOpener, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := openCart(w, r, carts, logg)
		if !ok {
			return
		}

		var payload applyCouponRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		outcome, err := store.ApplyCoupon(r.Context(), payload.Code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !outcome.Success {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeRejected, outcome.Reason).
				WithDetails(map[string]any{"cart": newCartResponse(store.Snapshot())}))
			return
		}
		responses.WriteSuccess(w, newCartResponse(store.Snapshot()))
	}
}

func CartRemoveCoupon(carts cartOpener, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := openCart(w, r, carts, logg)
		if !ok {
			return
		}
		store.RemoveCoupon()
		responses.WriteSuccess(w, newCartResponse(store.Snapshot()))
	}
}

// CartDeliveryOptions filters the catalog by distance. The distance comes
// from distanceKm or is resolved from placeId; with neither every option is
// eligible.
func CartDeliveryOptions(carts cartOpener, deliveries deliveryPolicy, places placeResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := openCart(w, r, carts, logg)
		if !ok {
			return
		}

		distance, err := validators.ParseQueryFloat(r, "distanceKm")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if placeID := validators.SanitizeString(r.URL.Query().Get("placeId"), 256); distance == nil && placeID != "" {
			addr, err := places.Resolve(r.Context(), placeID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			distance = &addr.DistanceKm
		}

		all, err := store.LoadDeliveryOptions(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		eligible := store.ApplyEligibility(deliveries.Policy(), all, distance)

		resp := deliveryOptionsResponse{
			DistanceKm: distance,
			Options:    make([]deliveryOptionResponse, 0, len(eligible)),
		}
		for _, o := range eligible {
			resp.Options = append(resp.Options, newDeliveryOptionResponse(o))
		}
		if selected, ok := store.SelectedDelivery(); ok {
			resp.SelectedID = selected.ID
		}
		responses.WriteSuccess(w, resp)
	}
}

func CartSelectDelivery(carts cartOpener, deliveries deliveryPolicy, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store, ok := openCart(w, r, carts, logg)
		if !ok {
			return
		}

		var payload selectDeliveryRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if _, err := store.SelectDelivery(r.Context(), deliveries.Policy(), strings.TrimSpace(payload.OptionID)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartResponse(store.Snapshot()))
	}
}

func openCart(w http.ResponseWriter, r *http.Request, carts cartOpener, logg *logger.Logger) (*cart.Store, bool) {
	if carts == nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart registry unavailable"))
		return nil, false
	}
	cartID := middleware.CartIDFromContext(r.Context())
	if cartID == "" {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart context missing"))
		return nil, false
	}
	return carts.Open(cartID), true
}
