package docstore

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/ory/dockertest/v3"
)

// startPostgres spins up a throwaway postgres container. Tests are
// skipped when no docker daemon is reachable.
func startPostgres(t *testing.T) *Postgres {
	t.Helper()

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("docker not available: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker not available: %v", err)
	}

	res, err := pool.Run("postgres", "15-alpine", []string{
		"POSTGRES_USER=postgres",
		"POSTGRES_PASSWORD=postgres",
		"POSTGRES_DB=yoga_test",
	})
	if err != nil {
		t.Fatalf("starting postgres container: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(res) })

	var pg *Postgres
	err = pool.Retry(func() error {
		var err error
		pg, err = OpenPostgres(PostgresConfig{
			User:       "postgres",
			Password:   "postgres",
			Host:       "localhost:" + res.GetPort("5432/tcp"),
			Name:       "yoga_test",
			DisableTLS: true,
		})
		return err
	})
	if err != nil {
		t.Fatalf("connecting to postgres container: %v", err)
	}
	t.Cleanup(func() { _ = pg.Close() })

	if err := pg.Migrate(); err != nil {
		t.Fatalf("migrating schema: %v", err)
	}

	return pg
}

func TestPostgresStore(t *testing.T) {
	pg := startPostgres(t)
	ctx := context.Background()

	t.Run("get-set-delete", func(t *testing.T) {
		if _, err := pg.Get(ctx, "things", "a"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}

		if err := pg.Set(ctx, "things", "a", map[string]any{"n": 1, "s": "x"}, false); err != nil {
			t.Fatalf("set: %v", err)
		}

		doc, err := pg.Get(ctx, "things", "a")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		want := map[string]any{"n": float64(1), "s": "x"}
		if diff := cmp.Diff(want, doc.Data); diff != "" {
			t.Fatalf("data mismatch (-want +got):\n%s", diff)
		}

		if err := pg.Set(ctx, "things", "a", map[string]any{"s": "y"}, true); err != nil {
			t.Fatalf("merge set: %v", err)
		}
		doc, _ = pg.Get(ctx, "things", "a")
		if doc.Data["n"] != float64(1) || doc.Data["s"] != "y" {
			t.Fatalf("merge left unexpected body: %+v", doc.Data)
		}

		if err := pg.Delete(ctx, "things", "a"); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if err := pg.Delete(ctx, "things", "a"); err != nil {
			t.Fatalf("repeated delete should be a no-op: %v", err)
		}
	})

	t.Run("query", func(t *testing.T) {
		for i := 1; i <= 7; i++ {
			data := map[string]any{"rank": i, "kind": "a"}
			if i > 5 {
				data["kind"] = "b"
			}
			if err := pg.Set(ctx, "ranked", fmt.Sprintf("%d", i), data, false); err != nil {
				t.Fatal(err)
			}
		}

		q := Query{Filters: []Filter{Eq("kind", "a")}, OrderBy: "rank", Limit: 3}
		first, err := pg.Query(ctx, "ranked", q)
		if err != nil {
			t.Fatal(err)
		}

		var ids []string
		for _, d := range first {
			ids = append(ids, d.ID)
		}
		if diff := cmp.Diff([]string{"1", "2", "3"}, ids); diff != "" {
			t.Fatalf("first page mismatch (-want +got):\n%s", diff)
		}

		pos, err := DecodeCursor(NextCursor(first, "rank"))
		if err != nil {
			t.Fatal(err)
		}

		q.After = pos
		second, err := pg.Query(ctx, "ranked", q)
		if err != nil {
			t.Fatal(err)
		}

		ids = ids[:0]
		for _, d := range second {
			ids = append(ids, d.ID)
		}
		if diff := cmp.Diff([]string{"4", "5"}, ids); diff != "" {
			t.Fatalf("second page mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("nil-filter", func(t *testing.T) {
		pg.Set(ctx, "nilcheck", "live", map[string]any{"rank": 1, "deletedAt": nil}, false)
		pg.Set(ctx, "nilcheck", "nofield", map[string]any{"rank": 2}, false)
		pg.Set(ctx, "nilcheck", "gone", map[string]any{"rank": 3, "deletedAt": 99}, false)

		docs, err := pg.Query(ctx, "nilcheck", Query{
			Filters: []Filter{Eq("deletedAt", nil)},
			OrderBy: "rank",
		})
		if err != nil {
			t.Fatal(err)
		}

		var ids []string
		for _, d := range docs {
			ids = append(ids, d.ID)
		}
		if diff := cmp.Diff([]string{"live", "nofield"}, ids); diff != "" {
			t.Fatalf("nil filter mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("subscribe", func(t *testing.T) {
		subCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		pg.PollInterval = 100 * time.Millisecond
		pg.Set(ctx, "watched", "a", map[string]any{"owner": "u1"}, false)

		snaps, err := pg.Subscribe(subCtx, "watched", []Filter{Eq("owner", "u1")})
		if err != nil {
			t.Fatal(err)
		}

		snap := waitSnapshot(t, snaps)
		if len(snap) != 1 {
			t.Fatalf("unexpected initial snapshot: %+v", snap)
		}

		pg.Set(ctx, "watched", "b", map[string]any{"owner": "u1"}, false)

		deadline := time.After(5 * time.Second)
		for len(snap) != 2 {
			select {
			case <-deadline:
				t.Fatalf("snapshot never reflected the write: %+v", snap)
			default:
			}
			snap = waitSnapshot(t, snaps)
		}
	})
}
