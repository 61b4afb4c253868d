// Package profile holds the user's contact record. Checkout refuses to
// run until name and phone are filled in.
package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/Haidepptrai/yoga-client/docstore"
)

const Collection = "users"

type Profile struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// ProfileUp is the update payload; nil fields are left untouched.
type ProfileUp struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone" validate:"omitempty,min=6"`
}

// Complete reports whether the profile satisfies the checkout
// prerequisite.
func (p Profile) Complete() bool {
	return p.Name != "" && p.Phone != ""
}

// Fetch loads the profile for a user. Returns docstore.ErrNotFound when
// the user has never saved one.
func Fetch(ctx context.Context, store docstore.Store, userID string) (Profile, error) {
	doc, err := store.Get(ctx, Collection, userID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return Profile{}, err
		}
		return Profile{}, fmt.Errorf("fetching profile[%s]: %w", userID, err)
	}

	var p Profile
	if err := doc.To(&p); err != nil {
		return Profile{}, fmt.Errorf("fetching profile[%s]: %w", userID, err)
	}
	return p, nil
}

// Save merges the given fields into the profile document, creating it if
// absent.
func Save(ctx context.Context, store docstore.Store, userID string, up ProfileUp) (Profile, error) {
	data := map[string]any{}
	if up.Name != nil {
		data["name"] = *up.Name
	}
	if up.Phone != nil {
		data["phone"] = *up.Phone
	}

	if len(data) > 0 {
		if err := store.Set(ctx, Collection, userID, data, true); err != nil {
			return Profile{}, fmt.Errorf("saving profile[%s]: %w", userID, err)
		}
	}

	return Fetch(ctx, store, userID)
}
