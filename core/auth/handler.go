package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/Haidepptrai/yoga-client/api/web"
	"github.com/Haidepptrai/yoga-client/api/weberr"
	"github.com/Haidepptrai/yoga-client/core/profile"
	"github.com/Haidepptrai/yoga-client/docstore"
	"github.com/Haidepptrai/yoga-client/validate"
	"github.com/alexedwards/scs/v2"
)

type SignupNew struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginNew struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UserResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func HandleSignup(store docstore.Store, session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var su SignupNew
		if err := web.Decode(w, r, &su); err != nil {
			return weberr.BadRequest(err)
		}

		if err := validate.Check(su); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		if _, err := fetchAccount(ctx, store, su.Email); err == nil {
			err := errors.New("email already in use")
			return weberr.NewError(err, err.Error(), http.StatusConflict)
		} else if !errors.Is(err, docstore.ErrNotFound) {
			return err
		}

		hash, err := hashPassword(su.Password)
		if err != nil {
			return err
		}

		a := Account{
			UserID:       validate.GenerateID(),
			Email:        normalizeEmail(su.Email),
			PasswordHash: hash,
			CreatedAt:    nowMillis(),
		}

		if err := createAccount(ctx, store, a); err != nil {
			return err
		}

		// Seed an empty profile so checkout's completeness gate has a
		// document to inspect.
		seed := map[string]any{"email": a.Email, "name": "", "phone": ""}
		if err := store.Set(ctx, profile.Collection, a.UserID, seed, true); err != nil {
			return err
		}

		if err := signIn(ctx, session, a); err != nil {
			return err
		}

		return web.Respond(ctx, w, UserResponse{ID: a.UserID, Email: a.Email}, http.StatusCreated)
	}
}

func HandleLogin(store docstore.Store, session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var ln LoginNew
		if err := web.Decode(w, r, &ln); err != nil {
			return weberr.BadRequest(err)
		}

		if err := validate.Check(ln); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		a, err := fetchAccount(ctx, store, ln.Email)
		if err != nil {
			if errors.Is(err, docstore.ErrNotFound) {
				return weberr.NotAuthorized(ErrInvalidCredentials)
			}
			return err
		}

		if a.PasswordHash == "" {
			// Account created through oauth; no password to check.
			return weberr.NotAuthorized(ErrInvalidCredentials)
		}

		if err := checkPassword(a.PasswordHash, ln.Password); err != nil {
			return weberr.NotAuthorized(err)
		}

		if err := signIn(ctx, session, a); err != nil {
			return err
		}

		return web.Respond(ctx, w, UserResponse{ID: a.UserID, Email: a.Email}, http.StatusOK)
	}
}

func HandleLogout(session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if err := session.Destroy(ctx); err != nil {
			return err
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

// HandleMe answers the signed-in identity, or 401 when there is none. The
// client calls this on startup to restore its session.
func HandleMe(session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, ok := CurrentUser(ctx, session)
		if !ok {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		return web.Respond(ctx, w, UserResponse{ID: clm.UserID, Email: clm.Email}, http.StatusOK)
	}
}
