package cart

import (
	"context"
	"errors"
	"net/http"

	"github.com/Haidepptrai/yoga-client/api/web"
	"github.com/Haidepptrai/yoga-client/api/weberr"
	"github.com/Haidepptrai/yoga-client/core/claims"
	"github.com/Haidepptrai/yoga-client/core/ident"
	"github.com/Haidepptrai/yoga-client/docstore"
	"github.com/Haidepptrai/yoga-client/validate"
)

type ItemNew struct {
	ClassID ident.ID `json:"classId" validate:"required"`
}

func HandleShow(store docstore.Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		items, err := FetchResolved(ctx, store, clm.UserID)
		if err != nil {
			return err
		}

		return web.Respond(ctx, w, items, http.StatusOK)
	}
}

func HandleCreateItem(store docstore.Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		var item ItemNew
		if err := web.Decode(w, r, &item); err != nil {
			return weberr.BadRequest(err)
		}

		if err := validate.Check(item); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		if err := Add(ctx, store, clm.UserID, item.ClassID); err != nil {
			if errors.Is(err, claims.ErrNotAuthenticated) {
				return weberr.NotAuthorized(err)
			}
			return err
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func HandleDeleteItem(store docstore.Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		classID := ident.ID(web.Param(r, "class_id"))
		if err := Remove(ctx, store, clm.UserID, classID); err != nil {
			return err
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
