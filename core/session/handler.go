package session

import (
	"context"
	"errors"
	"net/http"

	"github.com/Haidepptrai/yoga-client/api/web"
	"github.com/Haidepptrai/yoga-client/api/weberr"
	"github.com/Haidepptrai/yoga-client/core/ident"
	"github.com/Haidepptrai/yoga-client/docstore"
)

// HandleListByCourse serves the paginated schedule of a course.
func HandleListByCourse(store docstore.Store) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		courseID := ident.ID(web.Param(r, "course_id"))
		pageSize := web.QueryInt(r, "page_size", DefaultPageSize)
		cursor := r.URL.Query().Get("cursor")

		page, err := ListByCourse(ctx, store, courseID, pageSize, cursor)
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
