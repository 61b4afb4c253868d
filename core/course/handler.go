package course

import (
	"context"
	"errors"
	"net/http"

	"github.com/Haidepptrai/yoga-client/api/web"
	"github.com/Haidepptrai/yoga-client/api/weberr"
	"github.com/Haidepptrai/yoga-client/core/ident"
	"github.com/Haidepptrai/yoga-client/docstore"
)

// HandleList serves the paginated published-course catalog. Query
// parameters: page_size, cursor, type, day.
func HandleList(store docstore.Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		filter := ListFilter{
			TypeOfClass: r.URL.Query().Get("type"),
			DayOfWeek:   r.URL.Query().Get("day"),
		}
		pageSize := web.QueryInt(r, "page_size", DefaultPageSize)
		cursor := r.URL.Query().Get("cursor")

		page, err := List(ctx, store, filter, pageSize, cursor)
		if err != nil {
			var fe *docstore.FetchError
			if errors.As(err, &fe) {
				return err
			}
			return weberr.BadRequest(err)
		}

		return web.Respond(ctx, w, page, http.StatusOK)
	}
}

func HandleShow(store docstore.Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := ident.ID(web.Param(r, "id"))

		c, err := Fetch(ctx, store, id)
		if err != nil {
			if errors.Is(err, docstore.ErrNotFound) {
				return weberr.NotFound(err)
			}
			return err
		}

		return web.Respond(ctx, w, c, http.StatusOK)
	}
}
