package course

import (
	"context"
	"errors"
	"fmt"

	"github.com/Haidepptrai/yoga-client/core/ident"
	"github.com/Haidepptrai/yoga-client/docstore"
)

// Collection is the legacy course collection. Courses are authored by an
// external admin surface; this app only reads them.
const Collection = "yoga_courses"

type Course struct {
	ID           ident.ID `json:"id"`
	DayOfWeek    string   `json:"dayOfWeek"`
	TimeOfCourse string   `json:"timeOfCourse"`
	Duration     int      `json:"duration"`
	Capacity     int      `json:"capacity"`
	Price        int      `json:"price"`
	TypeOfClass  string   `json:"typeOfClass"`
	Description  string   `json:"description"`
	Published    bool     `json:"published"`
	CreatedAt    int64    `json:"createdAt"`
	DeletedAt    *int64   `json:"deletedAt,omitempty"`
}

// ListFilter narrows the catalog beyond the published/not-deleted
// baseline. Zero values mean no narrowing.
type ListFilter struct {
	TypeOfClass string
	DayOfWeek   string
}

// Page is one slice of the catalog. HasMore is a heuristic: a page that
// lands exactly on the end of the data still reports more, and the next
// fetch comes back empty. Callers tolerate that.
type Page struct {
	Items      []Course `json:"items"`
	NextCursor string   `json:"nextCursor,omitempty"`
	HasMore    bool     `json:"hasMore"`
}

const DefaultPageSize = 10

// List returns one page of published courses in ascending creation order,
// resuming after cursor. A failed read is reported with the attempted
// cursor so the caller can retry from the same point.
func List(ctx context.Context, store docstore.Store, filter ListFilter, pageSize int, cursor string) (Page, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	after, err := docstore.DecodeCursor(cursor)
	if err != nil {
		return Page{}, fmt.Errorf("decoding catalog cursor: %w", err)
	}

	filters := []docstore.Filter{
		docstore.Eq("published", true),
		docstore.Eq("deletedAt", nil),
	}
	if filter.TypeOfClass != "" {
		filters = append(filters, docstore.Eq("typeOfClass", filter.TypeOfClass))
	}
	if filter.DayOfWeek != "" {
		filters = append(filters, docstore.Eq("dayOfWeek", filter.DayOfWeek))
	}

	q := docstore.Query{
		Filters: filters,
		OrderBy: "createdAt",
		Limit:   pageSize,
		After:   after,
	}

	docs, err := store.Query(ctx, Collection, q)
	if err != nil {
		return Page{}, &docstore.FetchError{Cursor: cursor, Err: err}
	}

	items := make([]Course, 0, len(docs))
	for _, d := range docs {
		var c Course
		if err := d.To(&c); err != nil {
			return Page{}, &docstore.FetchError{Cursor: cursor, Err: err}
		}
		c.ID = ident.ID(d.ID)
		items = append(items, c)
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

// Fetch loads a single course by id.
func Fetch(ctx context.Context, store docstore.Store, id ident.ID) (Course, error) {
	doc, err := store.Get(ctx, Collection, id.String())
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return Course{}, err
		}
		return Course{}, fmt.Errorf("fetching course[%s]: %w", id, err)
	}

	var c Course
	if err := doc.To(&c); err != nil {
		return Course{}, fmt.Errorf("fetching course[%s]: %w", id, err)
	}
	c.ID = ident.ID(doc.ID)
	return c, nil
}
