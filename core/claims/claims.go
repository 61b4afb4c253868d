// Package claims carries the signed-in user identity through the request
// context. Handlers read it instead of touching the session directly.
package claims

import (
	"context"
	"errors"
)

const RoleUser = "USER"

// ErrNotAuthenticated is returned by core operations invoked without a
// signed-in user id. Fatal to the calling operation; retry only after
// sign-in.
var ErrNotAuthenticated = errors.New("not authenticated")

type Claims struct {
	UserID string
	Email  string
	Role   string
}

type ctxKey int

const claimsKey ctxKey = 1

func Set(ctx context.Context, claims Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

func Get(ctx context.Context) (Claims, error) {
	v, ok := ctx.Value(claimsKey).(Claims)
	if !ok {
		return Claims{}, errors.New("claim value missing from context")
	}
	return v, nil
}
