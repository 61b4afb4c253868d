// Package session reads the scheduled occurrences of a course. Sessions
// are authored externally and read-only here.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/Haidepptrai/yoga-client/core/course"
	"github.com/Haidepptrai/yoga-client/core/ident"
	"github.com/Haidepptrai/yoga-client/docstore"
)

const Collection = "yoga_sessions"

type Session struct {
	ID          ident.ID `json:"id"`
	CourseID    ident.ID `json:"courseId"`
	ClassDate   string   `json:"classDate"`
	Teacher     string   `json:"teacher"`
	Description string   `json:"description"`
	CreatedAt   int64    `json:"createdAt"`
	UpdatedAt   *int64   `json:"updatedAt,omitempty"`
	DeletedAt   *int64   `json:"deletedAt,omitempty"`
	SyncedAt    *int64   `json:"syncedAt,omitempty"`
}

type Page struct {
	Items      []Session `json:"items"`
	NextCursor string    `json:"nextCursor,omitempty"`
	HasMore    bool      `json:"hasMore"`
}

const DefaultPageSize = 10

// ListByCourse returns one page of a course's sessions in ascending class
// date order, resuming after cursor.
func ListByCourse(ctx context.Context, store docstore.Store, courseID ident.ID, pageSize int, cursor string) (Page, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	after, err := docstore.DecodeCursor(cursor)
	if err != nil {
		return Page{}, fmt.Errorf("decoding schedule cursor: %w", err)
	}

	q := docstore.Query{
		Filters: []docstore.Filter{
			docstore.Eq("courseId", courseID.StoreValue()),
		},
		OrderBy: "classDate",
		Limit:   pageSize,
		After:   after,
	}

	docs, err := store.Query(ctx, Collection, q)
	if err != nil {
		return Page{}, &docstore.FetchError{Cursor: cursor, Err: err}
	}

	items := make([]Session, 0, len(docs))
	for _, d := range docs {
		var s Session
		if err := d.To(&s); err != nil {
			return Page{}, &docstore.FetchError{Cursor: cursor, Err: err}
		}
		s.ID = ident.ID(d.ID)
		items = append(items, s)
	}

	page := Page{
		Items:   items,
		HasMore: len(items) == pageSize,
	}
	if page.HasMore {
		page.NextCursor = docstore.NextCursor(docs, q.OrderBy)
	}
	return page, nil
}

// Fetch loads one session by id.
func Fetch(ctx context.Context, store docstore.Store, id ident.ID) (Session, error) {
	doc, err := store.Get(ctx, Collection, id.String())
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return Session{}, err
		}
		return Session{}, fmt.Errorf("fetching session[%s]: %w", id, err)
	}

	var s Session
	if err := doc.To(&s); err != nil {
		return Session{}, fmt.Errorf("fetching session[%s]: %w", id, err)
	}
	s.ID = ident.ID(doc.ID)
	return s, nil
}

// Lookup resolves a session together with its parent course. Either being
// gone surfaces as docstore.ErrNotFound, which callers joining display
// records treat as "drop this reference", not as fatal.
func Lookup(ctx context.Context, store docstore.Store, id ident.ID) (Session, course.Course, error) {
	s, err := Fetch(ctx, store, id)
	if err != nil {
		return Session{}, course.Course{}, err
	}

	c, err := course.Fetch(ctx, store, s.CourseID)
	if err != nil {
		return Session{}, course.Course{}, err
	}

	return s, c, nil
}
