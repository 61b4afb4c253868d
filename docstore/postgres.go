package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Postgres stores every collection in a single documents table with a
// jsonb body. Filters and ordering are expressed as jsonb operations, so
// the query contract is identical to the in-memory store.
type Postgres struct {
	db *sqlx.DB

	// PollInterval drives Subscribe, which is implemented as a polling
	// loop over the query contract.
	PollInterval time.Duration
}

type PostgresConfig struct {
	User       string
	Password   string
	Host       string
	Name       string
	DisableTLS bool
}

func OpenPostgres(cfg PostgresConfig) (*Postgres, error) {
	sslMode := "require"
	if cfg.DisableTLS {
		sslMode = "disable"
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=%s&timezone=utc",
		cfg.User, cfg.Password, cfg.Host, cfg.Name, sslMode)

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	return &Postgres{db: db, PollInterval: 2 * time.Second}, nil
}

func (p *Postgres) Close() error { return p.db.Close() }

// DB exposes the underlying handle for migrations.
func (p *Postgres) DB() *sqlx.DB { return p.db }

func (p *Postgres) Get(ctx context.Context, collection, id string) (Document, error) {
	const q = `SELECT data FROM documents WHERE collection = $1 AND id = $2`

	var raw []byte
	if err := p.db.QueryRowxContext(ctx, q, collection, id).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, &FetchError{Err: err}
	}

	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return Document{}, &FetchError{Err: fmt.Errorf("decoding %s[%s]: %w", collection, id, err)}
	}
	return Document{ID: id, Data: data}, nil
}

func (p *Postgres) Set(ctx context.Context, collection, id string, data map[string]any, merge bool) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return &WriteError{Collection: collection, ID: id, Err: err}
	}

	q := `INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)
	      ON CONFLICT (collection, id) DO UPDATE SET data = EXCLUDED.data`
	if merge {
		q = `INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)
		     ON CONFLICT (collection, id) DO UPDATE SET data = documents.data || EXCLUDED.data`
	}

	if _, err := p.db.ExecContext(ctx, q, collection, id, raw); err != nil {
		return &WriteError{Collection: collection, ID: id, Err: err}
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, collection, id string) error {
	const q = `DELETE FROM documents WHERE collection = $1 AND id = $2`

	if _, err := p.db.ExecContext(ctx, q, collection, id); err != nil {
		return &WriteError{Collection: collection, ID: id, Err: err}
	}
	return nil
}

func (p *Postgres) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	var sb strings.Builder
	args := []any{collection}
	sb.WriteString(`SELECT id, data FROM documents WHERE collection = $1`)

	for _, f := range q.Filters {
		// Field names are validated identifiers; values are bound.
		if f.Value == nil {
			fmt.Fprintf(&sb, ` AND (NOT data ? '%s' OR data->'%s' = 'null'::jsonb)`, f.Field, f.Field)
			continue
		}
		raw, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("encoding filter value for %s: %w", f.Field, err)
		}
		args = append(args, string(raw))
		fmt.Fprintf(&sb, ` AND data->'%s' = $%d::jsonb`, f.Field, len(args))
	}

	cmp, dir := ">", "ASC"
	if q.Desc {
		cmp, dir = "<", "DESC"
	}

	if q.After != nil {
		raw, err := json.Marshal(q.After.Value)
		if err != nil {
			return nil, fmt.Errorf("encoding cursor value: %w", err)
		}
		args = append(args, string(raw))
		vn := len(args)
		args = append(args, q.After.ID)
		fmt.Fprintf(&sb, ` AND (data->'%s', id) %s ($%d::jsonb, $%d)`, q.OrderBy, cmp, vn, vn+1)
	}

	fmt.Fprintf(&sb, ` ORDER BY data->'%s' %s, id %s`, q.OrderBy, dir, dir)

	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&sb, ` LIMIT $%d`, len(args))
	}

	rows, err := p.db.QueryxContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, &FetchError{Err: err}
		}

		var data map[string]any
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, &FetchError{Err: fmt.Errorf("decoding %s[%s]: %w", collection, id, err)}
		}
		docs = append(docs, Document{ID: id, Data: data})
	}
	if err := rows.Err(); err != nil {
		return nil, &FetchError{Err: err}
	}
	return docs, nil
}

func (p *Postgres) Subscribe(ctx context.Context, collection string, filters []Filter) (<-chan []Document, error) {
	q := Query{Filters: filters, OrderBy: "id"}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	interval := p.PollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}

	out := make(chan []Document)
	go func() {
		defer close(out)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		var last []Document
		first := true
		for {
			snap, err := p.Query(ctx, collection, q)
			if err == nil && (first || !sameDocs(last, snap)) {
				select {
				case out <- snap:
					last, first = snap, false
				case <-ctx.Done():
					return
				}
			}

			select {
			case <-ticker.C:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func sameDocs(a, b []Document) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || !reflect.DeepEqual(a[i].Data, b[i].Data) {
			return false
		}
	}
	return true
}
