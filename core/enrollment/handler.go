package enrollment

import (
	"context"
	"errors"
	"net/http"

	"github.com/Haidepptrai/yoga-client/api/web"
	"github.com/Haidepptrai/yoga-client/api/weberr"
	"github.com/Haidepptrai/yoga-client/core/claims"
	"github.com/Haidepptrai/yoga-client/docstore"
)

// HandleListJoined serves the signed-in user's joined classes, resolved
// for display.
func HandleListJoined(store docstore.Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		joined, err := FetchResolved(ctx, store, clm.UserID)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, joined, http.StatusOK)
	}
}
