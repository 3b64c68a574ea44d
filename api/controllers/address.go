package controllers

import (
	"net/http"

	"github.com/angelmondragon/floret-storefront/api/responses"
	"github.com/angelmondragon/floret-storefront/api/validators"
	"github.com/angelmondragon/floret-storefront/internal/address"
	pkgerrors "github.com/angelmondragon/floret-storefront/pkg/errors"
	"github.com/angelmondragon/floret-storefront/pkg/logger"
)

// AddressAutocomplete proxies address suggestions while the shopper types.
func AddressAutocomplete(svc address.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}
		input, err := validators.RequireQuery(r, "input", 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		suggestions, err := svc.Suggest(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, suggestions)
	}
}
