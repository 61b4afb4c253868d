package api

import (
	"context"
	"net/http"

	"github.com/Haidepptrai/yoga-client/api/middleware"
	"github.com/Haidepptrai/yoga-client/api/web"
	"github.com/Haidepptrai/yoga-client/core/auth"
	"github.com/Haidepptrai/yoga-client/core/cart"
	"github.com/Haidepptrai/yoga-client/core/checkout"
	"github.com/Haidepptrai/yoga-client/core/course"
	"github.com/Haidepptrai/yoga-client/core/enrollment"
	"github.com/Haidepptrai/yoga-client/core/profile"
	"github.com/Haidepptrai/yoga-client/core/session"
	"github.com/Haidepptrai/yoga-client/docstore"
	"github.com/Haidepptrai/yoga-client/rate"
	"github.com/alexedwards/scs/v2"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type APIConfig struct {
	CorsOrigin       string
	Log              logrus.FieldLogger
	Store            docstore.Store
	Session          *scs.SessionManager
	Limiter          *rate.Limiter
	Providers        map[string]auth.Provider
	LoginRedirectURL string
}

type api struct {
	*mux.Router
	mw  []web.Middleware
	log logrus.FieldLogger
}

func APIMux(cfg APIConfig) http.Handler {
	a := &api{
		Router: mux.NewRouter(),
		log:    cfg.Log,
	}

	a.mw = append(a.mw, auth.LoadAndSave(cfg.Session))
	a.mw = append(a.mw, middleware.RequestID())
	a.mw = append(a.mw, middleware.Logger(cfg.Log))
	a.mw = append(a.mw, middleware.Errors(cfg.Log))
	a.mw = append(a.mw, middleware.Panics())

	if cfg.Limiter != nil {
		a.mw = append(a.mw, middleware.RateLimit(cfg.Limiter, cfg.Session))
	}

	if cfg.CorsOrigin != "" {
		a.mw = append(a.mw, middleware.Cors(cfg.CorsOrigin))

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusNoContent)
			return nil
		}

		a.Handle(http.MethodOptions, "/{path:.*}", h)
	}

	authen := auth.Authenticate(cfg.Session)

	a.Handle(http.MethodPost, "/auth/signup", auth.HandleSignup(cfg.Store, cfg.Session))
	a.Handle(http.MethodPost, "/auth/login", auth.HandleLogin(cfg.Store, cfg.Session))
	a.Handle(http.MethodPost, "/auth/logout", auth.HandleLogout(cfg.Session))
	a.Handle(http.MethodGet, "/auth/me", auth.HandleMe(cfg.Session))
	a.Handle(http.MethodGet, "/auth/oauth-login/{provider}", auth.HandleOauthLogin(cfg.Session, cfg.Providers))
	a.Handle(http.MethodGet, "/auth/oauth-callback/{provider}", auth.HandleOauthCallback(cfg.Store, cfg.Session, cfg.Providers, cfg.LoginRedirectURL))

	a.Handle(http.MethodGet, "/profile", profile.HandleShowCurrent(cfg.Store), authen)
	a.Handle(http.MethodPut, "/profile", profile.HandleUpdate(cfg.Store), authen)

	a.Handle(http.MethodGet, "/courses/{course_id}/sessions", session.HandleListByCourse(cfg.Store))
	a.Handle(http.MethodGet, "/courses/{id}", course.HandleShow(cfg.Store))
	a.Handle(http.MethodGet, "/courses", course.HandleList(cfg.Store))

	a.Handle(http.MethodGet, "/cart", cart.HandleShow(cfg.Store), authen)
	a.Handle(http.MethodPut, "/cart/items", cart.HandleCreateItem(cfg.Store), authen)
	a.Handle(http.MethodDelete, "/cart/items/{class_id}", cart.HandleDeleteItem(cfg.Store), authen)

	a.Handle(http.MethodPost, "/checkout", checkout.HandleCheckout(cfg.Store), authen)

	a.Handle(http.MethodGet, "/classes/joined", enrollment.HandleListJoined(cfg.Store), authen)

	return a.Router
}

func (a *api) Handle(method string, path string, handler web.Handler, mw ...web.Middleware) {

	handler = web.WrapMiddleware(mw, handler)

	handler = web.WrapMiddleware(a.mw, handler)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		if err := handler(ctx, w, r); err != nil {

			a.log.WithFields(logrus.Fields{
				"req_id":  middleware.ContextRequestID(ctx),
				"message": err,
			}).Error("ERROR")
		}
	})

	a.Router.Handle(path, h).Methods(method)
}
