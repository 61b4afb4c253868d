// Package cart is the per-user staging area of sessions not yet joined.
// One entry per (user, session) is guaranteed by keying entries with the
// composite document id, which makes Add a natural upsert.
package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Haidepptrai/yoga-client/core/claims"
	"github.com/Haidepptrai/yoga-client/core/course"
	"github.com/Haidepptrai/yoga-client/core/ident"
	"github.com/Haidepptrai/yoga-client/core/session"
	"github.com/Haidepptrai/yoga-client/docstore"
)

const Collection = "user_cart"

type Entry struct {
	UserID  string   `json:"userId"`
	ClassID ident.ID `json:"classId"`
	AddedAt int64    `json:"addedAt"`
}

// ResolvedEntry is a cart entry joined against its session and that
// session's parent course, ready for display.
type ResolvedEntry struct {
	Entry
	Session session.Session `json:"session"`
	Course  course.Course   `json:"course"`
}

// Key builds the composite document id for a (user, session) pair.
func Key(userID string, classID ident.ID) string {
	return userID + "_" + classID.String()
}

// Add upserts the cart entry for (userID, classID). Calling it twice
// leaves one entry carrying the latest addedAt.
func Add(ctx context.Context, store docstore.Store, userID string, classID ident.ID) error {
	if userID == "" {
		return claims.ErrNotAuthenticated
	}

	data := map[string]any{
		"userId":  userID,
		"classId": classID.StoreValue(),
		"addedAt": time.Now().UnixMilli(),
	}

	if err := store.Set(ctx, Collection, Key(userID, classID), data, false); err != nil {
		return fmt.Errorf("adding class[%s] to cart of user[%s]: %w", classID, userID, err)
	}
	return nil
}

// Remove deletes the cart entry. Removing an absent entry is a no-op.
func Remove(ctx context.Context, store docstore.Store, userID string, classID ident.ID) error {
	if userID == "" {
		return claims.ErrNotAuthenticated
	}

	if err := store.Delete(ctx, Collection, Key(userID, classID)); err != nil {
		return fmt.Errorf("removing class[%s] from cart of user[%s]: %w", classID, userID, err)
	}
	return nil
}

// Fetch returns the raw cart entries of a user in the order they were
// added.
func Fetch(ctx context.Context, store docstore.Store, userID string) ([]Entry, error) {
	if userID == "" {
		return nil, claims.ErrNotAuthenticated
	}

	q := docstore.Query{
		Filters: []docstore.Filter{docstore.Eq("userId", userID)},
		OrderBy: "addedAt",
	}

	docs, err := store.Query(ctx, Collection, q)
	if err != nil {
		return nil, fmt.Errorf("fetching cart of user[%s]: %w", userID, err)
	}

	entries := make([]Entry, 0, len(docs))
	for _, d := range docs {
		var e Entry
		if err := d.To(&e); err != nil {
			return nil, fmt.Errorf("fetching cart of user[%s]: %w", userID, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// FetchResolved joins each entry against its session and course. Entries
// whose session or course is gone are dropped from the result, not
// treated as fatal.
func FetchResolved(ctx context.Context, store docstore.Store, userID string) ([]ResolvedEntry, error) {
	entries, err := Fetch(ctx, store, userID)
	if err != nil {
		return nil, err
	}

	return resolve(ctx, store, entries)
}

// Watch emits the resolved cart on every change until ctx is canceled. An
// abandoned watch stops applying results as soon as cancellation is
// observed.
func Watch(ctx context.Context, store docstore.Store, userID string) (<-chan []ResolvedEntry, error) {
	if userID == "" {
		return nil, claims.ErrNotAuthenticated
	}

	snaps, err := store.Subscribe(ctx, Collection, []docstore.Filter{docstore.Eq("userId", userID)})
	if err != nil {
		return nil, fmt.Errorf("watching cart of user[%s]: %w", userID, err)
	}

	out := make(chan []ResolvedEntry)
	go func() {
		defer close(out)

		for snap := range snaps {
			entries := make([]Entry, 0, len(snap))
			for _, d := range snap {
				var e Entry
				if err := d.To(&e); err != nil {
					continue
				}
				entries = append(entries, e)
			}

			resolved, err := resolve(ctx, store, entries)
			if err != nil {
				continue
			}

			select {
			case out <- resolved:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func resolve(ctx context.Context, store docstore.Store, entries []Entry) ([]ResolvedEntry, error) {
	resolved := make([]ResolvedEntry, 0, len(entries))
	for _, e := range entries {
		s, c, err := session.Lookup(ctx, store, e.ClassID)
		if err != nil {
			if errors.Is(err, docstore.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("resolving cart entry[%s]: %w", e.ClassID, err)
		}
		resolved = append(resolved, ResolvedEntry{Entry: e, Session: s, Course: c})
	}
	return resolved, nil
}
