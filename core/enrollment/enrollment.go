// Package enrollment records confirmed user-to-session joins. Enrollments
// are created only by checkout and never deleted here; cancellation is an
// admin concern.
package enrollment

import (
	"context"
	"errors"
	"fmt"

	"github.com/Haidepptrai/yoga-client/core/claims"
	"github.com/Haidepptrai/yoga-client/core/course"
	"github.com/Haidepptrai/yoga-client/core/ident"
	"github.com/Haidepptrai/yoga-client/core/session"
	"github.com/Haidepptrai/yoga-client/docstore"
)

const Collection = "user_joined_class"

type Enrollment struct {
	UserID   string   `json:"userId"`
	ClassID  ident.ID `json:"classId"`
	JoinedAt int64    `json:"joinedAt"`
	AddedAt  int64    `json:"addedAt"`
}

// JoinedClass is an enrollment joined against its session and course for
// display.
type JoinedClass struct {
	Enrollment
	Session session.Session `json:"session"`
	Course  course.Course   `json:"course"`
}

// Key builds the composite document id, deliberately identical in shape
// to the cart key for the same pair: migrating an entry is idempotent
// because both sides address the same deterministic id.
func Key(userID string, classID ident.ID) string {
	return userID + "_" + classID.String()
}

// Create upserts the enrollment document.
func Create(ctx context.Context, store docstore.Store, e Enrollment) error {
	data := map[string]any{
		"userId":   e.UserID,
		"classId":  e.ClassID.StoreValue(),
		"joinedAt": e.JoinedAt,
		"addedAt":  e.AddedAt,
	}

	if err := store.Set(ctx, Collection, Key(e.UserID, e.ClassID), data, false); err != nil {
		return fmt.Errorf("enrolling user[%s] in class[%s]: %w", e.UserID, e.ClassID, err)
	}
	return nil
}

// FetchByUser returns a user's enrollments in join order.
func FetchByUser(ctx context.Context, store docstore.Store, userID string) ([]Enrollment, error) {
	if userID == "" {
		return nil, claims.ErrNotAuthenticated
	}

	q := docstore.Query{
		Filters: []docstore.Filter{docstore.Eq("userId", userID)},
		OrderBy: "joinedAt",
	}

	docs, err := store.Query(ctx, Collection, q)
	if err != nil {
		return nil, fmt.Errorf("fetching joined classes of user[%s]: %w", userID, err)
	}

	out := make([]Enrollment, 0, len(docs))
	for _, d := range docs {
		var e Enrollment
		if err := d.To(&e); err != nil {
			return nil, fmt.Errorf("fetching joined classes of user[%s]: %w", userID, err)
		}
		out = append(out, e)
	}
	return out, nil
}

// FetchResolved joins each enrollment against its session and course,
// dropping references whose session or course is gone.
func FetchResolved(ctx context.Context, store docstore.Store, userID string) ([]JoinedClass, error) {
	enrollments, err := FetchByUser(ctx, store, userID)
	if err != nil {
		return nil, err
	}

	out := make([]JoinedClass, 0, len(enrollments))
	for _, e := range enrollments {
		s, c, err := session.Lookup(ctx, store, e.ClassID)
		if err != nil {
			if errors.Is(err, docstore.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("resolving joined class[%s]: %w", e.ClassID, err)
		}
		out = append(out, JoinedClass{Enrollment: e, Session: s, Course: c})
	}
	return out, nil
}
