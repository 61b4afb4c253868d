package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Haidepptrai/yoga-client/api/web"
	"github.com/Haidepptrai/yoga-client/api/weberr"
	"github.com/Haidepptrai/yoga-client/core/profile"
	"github.com/Haidepptrai/yoga-client/docstore"
	"github.com/Haidepptrai/yoga-client/random"
	"github.com/Haidepptrai/yoga-client/validate"
	"github.com/alexedwards/scs/v2"
	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

const sessionOauthState = "oauthState"

type ProviderConfig struct {
	Name        string
	Client      string
	Secret      string
	URL         string
	RedirectURL string
}

type Provider struct {
	config   oauth2.Config
	verifier *oidc.IDTokenVerifier
}

// MakeProviders runs OIDC discovery for each configured provider.
func MakeProviders(ctx context.Context, cfgs []ProviderConfig) (map[string]Provider, error) {
	provs := make(map[string]Provider, len(cfgs))
	for _, cfg := range cfgs {
		if cfg.Client == "" {
			continue
		}

		p, err := oidc.NewProvider(ctx, cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("discovering provider %s: %w", cfg.Name, err)
		}

		provs[cfg.Name] = Provider{
			config: oauth2.Config{
				ClientID:     cfg.Client,
				ClientSecret: cfg.Secret,
				Endpoint:     p.Endpoint(),
				RedirectURL:  cfg.RedirectURL,
				Scopes:       []string{oidc.ScopeOpenID, "email", "profile"},
			},
			verifier: p.Verifier(&oidc.Config{ClientID: cfg.Client}),
		}
	}
	return provs, nil
}

func HandleOauthLogin(session *scs.SessionManager, providers map[string]Provider) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		name := web.Param(r, "provider")
		prov, ok := providers[name]
		if !ok {
			return weberr.NotFound(fmt.Errorf("unknown oauth provider %q", name))
		}

		state, err := random.StringSecure(32)
		if err != nil {
			return fmt.Errorf("generating oauth state: %w", err)
		}
		session.Put(ctx, sessionOauthState, state)

		http.Redirect(w, r, prov.config.AuthCodeURL(state), http.StatusTemporaryRedirect)
		return nil
	}
}

func HandleOauthCallback(store docstore.Store, session *scs.SessionManager, providers map[string]Provider, redirectURL string) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		name := web.Param(r, "provider")
		prov, ok := providers[name]
		if !ok {
			return weberr.NotFound(fmt.Errorf("unknown oauth provider %q", name))
		}

		want := session.PopString(ctx, sessionOauthState)
		if want == "" || r.URL.Query().Get("state") != want {
			return weberr.BadRequest(errors.New("oauth state mismatch"))
		}

		token, err := prov.config.Exchange(ctx, r.URL.Query().Get("code"))
		if err != nil {
			return weberr.BadRequest(fmt.Errorf("exchanging oauth code: %w", err))
		}

		rawID, ok := token.Extra("id_token").(string)
		if !ok {
			return weberr.BadRequest(errors.New("oauth token response is missing id_token"))
		}

		idToken, err := prov.verifier.Verify(ctx, rawID)
		if err != nil {
			return weberr.BadRequest(fmt.Errorf("verifying id token: %w", err))
		}

		var idClaims struct {
			Email    string `json:"email"`
			Verified bool   `json:"email_verified"`
		}
		if err := idToken.Claims(&idClaims); err != nil {
			return fmt.Errorf("decoding id token claims: %w", err)
		}
		if idClaims.Email == "" {
			return weberr.BadRequest(errors.New("oauth identity has no email"))
		}

		a, err := fetchAccount(ctx, store, idClaims.Email)
		if errors.Is(err, docstore.ErrNotFound) {
			a = Account{
				UserID:    validate.GenerateID(),
				Email:     normalizeEmail(idClaims.Email),
				CreatedAt: nowMillis(),
			}
			if err := createAccount(ctx, store, a); err != nil {
				return err
			}

			seed := map[string]any{"email": a.Email, "name": "", "phone": ""}
			if err := store.Set(ctx, profile.Collection, a.UserID, seed, true); err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		if err := signIn(ctx, session, a); err != nil {
			return err
		}

		http.Redirect(w, r, redirectURL, http.StatusTemporaryRedirect)
		return nil
	}
}
