package checkout

import (
	"context"
	"errors"
	"net/http"

	"github.com/Haidepptrai/yoga-client/api/web"
	"github.com/Haidepptrai/yoga-client/api/weberr"
	"github.com/Haidepptrai/yoga-client/core/claims"
	"github.com/Haidepptrai/yoga-client/docstore"
)

// HandleCheckout runs checkout for the signed-in user.
//
// An incomplete profile answers 422 with reason "incomplete_profile"; the
// client reads the reason and navigates to profile completion. A partial
// failure answers 409 carrying the full result, so the client can show
// which entries remain and simply re-invoke checkout.
func HandleCheckout(store docstore.Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		res, err := Checkout(ctx, store, clm.UserID)

		var pe *PartialError
		switch {
		case err == nil:
			return web.Respond(ctx, w, res, http.StatusOK)

		case errors.Is(err, claims.ErrNotAuthenticated):
			return weberr.NotAuthorized(err)

		case errors.Is(err, ErrIncompleteProfile):
			return weberr.NewReasonError(
				err,
				"please complete your profile with your name and phone number to proceed to checkout",
				"incomplete_profile",
				http.StatusUnprocessableEntity,
			)

		case errors.As(err, &pe):
			return web.Respond(ctx, w, pe.Result, http.StatusConflict)

		default:
			return err
		}
	}
}
