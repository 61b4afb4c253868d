package middleware

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/Haidepptrai/yoga-client/api/web"
	"github.com/Haidepptrai/yoga-client/api/weberr"
	"github.com/Haidepptrai/yoga-client/core/auth"
	"github.com/Haidepptrai/yoga-client/rate"
	"github.com/alexedwards/scs/v2"
)

// RateLimit throttles per signed-in user, falling back to the remote
// address for anonymous requests. Runs inside the session middleware, so
// the identity is already loaded.
func RateLimit(lim *rate.Limiter, session *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			id := ""
			if clm, ok := auth.CurrentUser(ctx, session); ok {
				id = clm.UserID
			}
			if id == "" {
				host, _, err := net.SplitHostPort(r.RemoteAddr)
				if err != nil {
					host = r.RemoteAddr
				}
				id = host
			}

			if !lim.Check(id) {
				return weberr.NewError(
					errors.New("rate limit exceeded"),
					"too many requests",
					http.StatusTooManyRequests,
				)
			}

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
