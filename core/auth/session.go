package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/Haidepptrai/yoga-client/api/web"
	"github.com/Haidepptrai/yoga-client/api/weberr"
	"github.com/Haidepptrai/yoga-client/core/claims"
	"github.com/alexedwards/scs/v2"
)

// LoadAndSave adapts the scs session middleware to the handler type used
// across the API.
func LoadAndSave(session *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			var err error

			hf := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				err = handler(r.Context(), w, r)
			})

			session.LoadAndSave(hf).ServeHTTP(w, r.WithContext(ctx))
			return err
		}
		return h
	}
	return m
}

// Authenticate rejects requests without a signed-in session and stows the
// identity in the context claims for downstream handlers.
func Authenticate(session *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			userID := session.GetString(ctx, sessionUserID)
			if userID == "" {
				return weberr.NotAuthorized(errors.New("user not authenticated"))
			}

			clm := claims.Claims{
				UserID: userID,
				Email:  session.GetString(ctx, sessionEmail),
				Role:   session.GetString(ctx, sessionRole),
			}

			return handler(claims.Set(ctx, clm), w, r)
		}
		return h
	}
	return m
}

// signIn binds the account to the session, rotating the token to prevent
// fixation.
func signIn(ctx context.Context, session *scs.SessionManager, a Account) error {
	if err := session.RenewToken(ctx); err != nil {
		return err
	}

	session.Put(ctx, sessionUserID, a.UserID)
	session.Put(ctx, sessionEmail, a.Email)
	session.Put(ctx, sessionRole, claims.RoleUser)
	return nil
}

// CurrentUser reads the signed-in identity from the session, if any. This
// is the session-store read the core components consume.
func CurrentUser(ctx context.Context, session *scs.SessionManager) (claims.Claims, bool) {
	userID := session.GetString(ctx, sessionUserID)
	if userID == "" {
		return claims.Claims{}, false
	}
	return claims.Claims{
		UserID: userID,
		Email:  session.GetString(ctx, sessionEmail),
		Role:   session.GetString(ctx, sessionRole),
	}, true
}
