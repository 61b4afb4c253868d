package middleware

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/Haidepptrai/yoga-client/api/web"
	"github.com/Haidepptrai/yoga-client/api/weberr"
)

// Panics converts a panic in a handler into an error carrying the stack,
// so the errors middleware can log it and answer with a 500.
func Panics() web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) (err error) {

			defer func() {
				if rec := recover(); rec != nil {
					trace := debug.Stack()
					err = weberr.InternalError(
						fmt.Errorf("panic: %v", rec),
						weberr.WithFields(map[string]interface{}{
							"stack": string(trace),
						}),
					)
				}
			}()

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
