// Package checkout converts a user's entire cart into enrollments in one
// logical operation. The migration of each entry is idempotent and keyed
// identically on both sides, so a retry after a partial failure, or a
// concurrent second checkout, converges instead of duplicating or losing
// entries.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Haidepptrai/yoga-client/core/cart"
	"github.com/Haidepptrai/yoga-client/core/claims"
	"github.com/Haidepptrai/yoga-client/core/enrollment"
	"github.com/Haidepptrai/yoga-client/core/ident"
	"github.com/Haidepptrai/yoga-client/core/profile"
	"github.com/Haidepptrai/yoga-client/docstore"
)

// ErrIncompleteProfile gates checkout until the user has filled in name
// and phone. The caller redirects to profile completion; nothing has been
// mutated when this is returned.
var ErrIncompleteProfile = errors.New("profile is missing name or phone")

// Result is the consolidated outcome of one checkout invocation. An empty
// cart yields an empty Result and no error.
type Result struct {
	Joined []ident.ID `json:"joined"`
	Failed []Failure  `json:"failed,omitempty"`
}

// Failure identifies a cart entry that could not be migrated. The entry
// stays in the cart; re-running checkout retries exactly these.
type Failure struct {
	ClassID ident.ID `json:"classId"`
	Reason  string   `json:"reason"`
}

// PartialError reports that some entries migrated and some did not.
type PartialError struct {
	Result Result
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("checkout migrated %d entries, %d failed", len(e.Result.Joined), len(e.Result.Failed))
}

// Checkout validates the user's profile, then migrates every cart entry
// into an enrollment. A single failing entry does not abort the others.
func Checkout(ctx context.Context, store docstore.Store, userID string) (Result, error) {
	if userID == "" {
		return Result{}, claims.ErrNotAuthenticated
	}

	prof, err := profile.Fetch(ctx, store, userID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return Result{}, ErrIncompleteProfile
		}
		return Result{}, fmt.Errorf("checking profile of user[%s]: %w", userID, err)
	}
	if !prof.Complete() {
		return Result{}, ErrIncompleteProfile
	}

	entries, err := cart.Fetch(ctx, store, userID)
	if err != nil {
		return Result{}, fmt.Errorf("loading cart of user[%s]: %w", userID, err)
	}

	res := Result{Joined: make([]ident.ID, 0, len(entries))}
	for _, e := range entries {
		if err := migrate(ctx, store, e); err != nil {
			res.Failed = append(res.Failed, Failure{ClassID: e.ClassID, Reason: err.Error()})
			continue
		}
		res.Joined = append(res.Joined, e.ClassID)
	}

	if len(res.Failed) > 0 {
		return res, &PartialError{Result: res}
	}
	return res, nil
}

// migrate claims one entry: write the enrollment, then remove the cart
// entry. With the enrollment written first, a crash between the two
// steps leaves the entry claimable again on retry rather than lost.
// Both writes are upsert/delete-if-exists, so replays are harmless.
func migrate(ctx context.Context, store docstore.Store, e cart.Entry) error {
	enr := enrollment.Enrollment{
		UserID:   e.UserID,
		ClassID:  e.ClassID,
		JoinedAt: time.Now().UnixMilli(),
		AddedAt:  e.AddedAt,
	}

	if err := enrollment.Create(ctx, store, enr); err != nil {
		return err
	}

	if err := cart.Remove(ctx, store, e.UserID, e.ClassID); err != nil {
		return err
	}
	return nil
}
