package course

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Haidepptrai/yoga-client/docstore"
	"github.com/google/go-cmp/cmp"
)

func seedCourse(t *testing.T, store docstore.Store, id int, createdAt int64, published bool, deleted bool) {
	t.Helper()

	data := map[string]any{
		"dayOfWeek":    "Monday",
		"timeOfCourse": "09:00",
		"duration":     60,
		"capacity":     20,
		"price":        15,
		"typeOfClass":  "Vinyasa",
		"description":  "flow",
		"published":    published,
		"createdAt":    createdAt,
		"deletedAt":    nil,
	}
	if deleted {
		data["deletedAt"] = createdAt + 1
	}

	if err := store.Set(context.Background(), Collection, fmt.Sprintf("%d", id), data, false); err != nil {
		t.Fatalf("seeding course %d: %v", id, err)
	}
}

func TestListPaginates(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory()

	// 12 published courses plus noise that must never surface.
	for i := 1; i <= 12; i++ {
		seedCourse(t, store, i, int64(1000+i), true, false)
	}
	seedCourse(t, store, 90, 1500, false, false)
	seedCourse(t, store, 91, 1501, true, true)

	var (
		all     []Course
		cursor  string
		hasMore = []bool{}
		sizes   = []int{}
	)
	for {
		page, err := List(ctx, store, ListFilter{}, 5, cursor)
		if err != nil {
			t.Fatalf("listing courses: %v", err)
		}

		all = append(all, page.Items...)
		sizes = append(sizes, len(page.Items))
		hasMore = append(hasMore, page.HasMore)

		if !page.HasMore {
			break
		}
		cursor = page.NextCursor
	}

	if diff := cmp.Diff([]int{5, 5, 2}, sizes); diff != "" {
		t.Fatalf("page sizes mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]bool{true, true, false}, hasMore); diff != "" {
		t.Fatalf("hasMore sequence mismatch (-want +got):\n%s", diff)
	}

	seen := map[string]bool{}
	var last int64
	for _, c := range all {
		if seen[c.ID.String()] {
			t.Fatalf("course %s delivered twice", c.ID)
		}
		seen[c.ID.String()] = true

		if c.CreatedAt < last {
			t.Fatalf("courses out of creation order: %d after %d", c.CreatedAt, last)
		}
		last = c.CreatedAt

		if !c.Published {
			t.Fatalf("unpublished course %s leaked into the catalog", c.ID)
		}
	}
	if len(all) != 12 {
		t.Fatalf("expected the 12 published courses, got %d", len(all))
	}
	if seen["90"] || seen["91"] {
		t.Fatal("unpublished or deleted course leaked into the catalog")
	}
}

func TestListExactEndTolerated(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory()

	for i := 1; i <= 5; i++ {
		seedCourse(t, store, i, int64(1000+i), true, false)
	}

	page, err := List(ctx, store, ListFilter{}, 5, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Items) != 5 || !page.HasMore {
		t.Fatalf("a full page reports more conservatively: %d items, hasMore=%v", len(page.Items), page.HasMore)
	}

	// The extra fetch at the true end is empty but not an error.
	next, err := List(ctx, store, ListFilter{}, 5, page.NextCursor)
	if err != nil {
		t.Fatalf("the trailing empty fetch must succeed: %v", err)
	}
	if len(next.Items) != 0 || next.HasMore {
		t.Fatalf("expected an empty final page, got %d items, hasMore=%v", len(next.Items), next.HasMore)
	}
}

func TestListCursorIdempotent(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory()

	for i := 1; i <= 8; i++ {
		seedCourse(t, store, i, int64(1000+i), true, false)
	}

	first, err := List(ctx, store, ListFilter{}, 3, "")
	if err != nil {
		t.Fatal(err)
	}

	second, err := List(ctx, store, ListFilter{}, 3, first.NextCursor)
	if err != nil {
		t.Fatal(err)
	}
	again, err := List(ctx, store, ListFilter{}, 3, first.NextCursor)
	if err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(second, again); diff != "" {
		t.Fatalf("repeating a cursor diverged (-want +got):\n%s", diff)
	}
}

func TestListFilters(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory()

	seedCourse(t, store, 1, 1001, true, false)
	data := map[string]any{
		"typeOfClass": "Yin", "dayOfWeek": "Friday",
		"published": true, "createdAt": 1002, "deletedAt": nil,
	}
	if err := store.Set(ctx, Collection, "2", data, false); err != nil {
		t.Fatal(err)
	}

	page, err := List(ctx, store, ListFilter{TypeOfClass: "Yin"}, 10, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Items) != 1 || page.Items[0].ID != "2" {
		t.Fatalf("type filter mismatch: %+v", page.Items)
	}

	page, err = List(ctx, store, ListFilter{DayOfWeek: "Friday"}, 10, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Items) != 1 || page.Items[0].ID != "2" {
		t.Fatalf("day filter mismatch: %+v", page.Items)
	}
}

func TestListBadCursor(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory()

	if _, err := List(ctx, store, ListFilter{}, 5, "!!bogus!!"); err == nil {
		t.Fatal("expected an error for a malformed cursor")
	}
}

func TestListReportsFetchFailureWithCursor(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{Store: docstore.NewMemory()}

	cursor := docstore.EncodeCursor(docstore.Position{Value: float64(1003), ID: "3"})
	_, err := List(ctx, store, ListFilter{}, 5, cursor)

	var fe *docstore.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected a FetchError, got %v", err)
	}
	if fe.Cursor != cursor {
		t.Fatalf("FetchError should carry the attempted cursor, got %q", fe.Cursor)
	}
}

type failingStore struct {
	docstore.Store
}

func (f *failingStore) Query(ctx context.Context, collection string, q docstore.Query) ([]docstore.Document, error) {
	return nil, errors.New("backend unavailable")
}

func TestFetch(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory()
	seedCourse(t, store, 7, 1007, true, false)

	c, err := Fetch(ctx, store, "7")
	if err != nil {
		t.Fatal(err)
	}
	if c.ID != "7" || c.TypeOfClass != "Vinyasa" || c.Duration != 60 {
		t.Fatalf("unexpected course: %+v", c)
	}

	if _, err := Fetch(ctx, store, "404"); !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
