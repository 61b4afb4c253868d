package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Memory is an in-process Store with the same observable behavior as the
// postgres implementation. It backs tests and local runs.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]any
	watchers    map[int]*watcher
	nextWatcher int
}

type watcher struct {
	collection string
	filters    []Filter
	notify     chan struct{}
}

func NewMemory() *Memory {
	return &Memory{
		collections: make(map[string]map[string]map[string]any),
		watchers:    make(map[int]*watcher),
	}
}

func (m *Memory) Get(ctx context.Context, collection, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.collections[collection][id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return Document{ID: id, Data: copyData(data)}, nil
}

func (m *Memory) Set(ctx context.Context, collection, id string, data map[string]any, merge bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	canon, err := canonicalize(data)
	if err != nil {
		return &WriteError{Collection: collection, ID: id, Err: err}
	}

	m.mu.Lock()
	col, ok := m.collections[collection]
	if !ok {
		col = make(map[string]map[string]any)
		m.collections[collection] = col
	}

	if merge {
		if cur, ok := col[id]; ok {
			merged := copyData(cur)
			for k, v := range canon {
				merged[k] = v
			}
			canon = merged
		}
	}
	col[id] = canon
	m.mu.Unlock()

	m.wake(collection)
	return nil
}

func (m *Memory) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.collections[collection], id)
	m.mu.Unlock()

	m.wake(collection)
	return nil
}

func (m *Memory) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	docs := m.scan(collection, q.Filters)
	m.mu.RUnlock()

	sort.Slice(docs, func(i, j int) bool {
		return less(docs[i], docs[j], q.OrderBy, q.Desc)
	})

	if q.After != nil {
		cut := Document{ID: q.After.ID, Data: map[string]any{q.OrderBy: canonValue(q.After.Value)}}
		i := sort.Search(len(docs), func(i int) bool {
			return !less(docs[i], cut, q.OrderBy, q.Desc) && docs[i].ID != cut.ID
		})
		// Skip past the cursor document itself if it is still present.
		for i < len(docs) && docs[i].ID == q.After.ID {
			i++
		}
		docs = docs[i:]
	}

	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}
	return docs, nil
}

func (m *Memory) Subscribe(ctx context.Context, collection string, filters []Filter) (<-chan []Document, error) {
	for _, f := range filters {
		if f.Op != OpEq {
			return nil, fmt.Errorf("unsupported filter op %q", f.Op)
		}
	}

	w := &watcher{
		collection: collection,
		filters:    filters,
		notify:     make(chan struct{}, 1),
	}

	m.mu.Lock()
	id := m.nextWatcher
	m.nextWatcher++
	m.watchers[id] = w
	m.mu.Unlock()

	out := make(chan []Document)
	go func() {
		defer close(out)
		defer func() {
			m.mu.Lock()
			delete(m.watchers, id)
			m.mu.Unlock()
		}()

		for {
			m.mu.RLock()
			snap := m.scan(collection, filters)
			m.mu.RUnlock()

			sort.Slice(snap, func(i, j int) bool { return snap[i].ID < snap[j].ID })

			select {
			case out <- snap:
			case <-ctx.Done():
				return
			}

			select {
			case <-w.notify:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

// scan collects matching documents. Caller holds at least a read lock.
func (m *Memory) scan(collection string, filters []Filter) []Document {
	var docs []Document
	for id, data := range m.collections[collection] {
		if matches(data, filters) {
			docs = append(docs, Document{ID: id, Data: copyData(data)})
		}
	}
	return docs
}

func (m *Memory) wake(collection string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, w := range m.watchers {
		if w.collection != collection {
			continue
		}
		select {
		case w.notify <- struct{}{}:
		default:
		}
	}
}

func matches(data map[string]any, filters []Filter) bool {
	for _, f := range filters {
		v, ok := data[f.Field]
		if f.Value == nil {
			// A nil filter matches explicit null and absent fields alike.
			if ok && v != nil {
				return false
			}
			continue
		}
		if !ok || compare(v, canonValue(f.Value)) != 0 {
			return false
		}
	}
	return true
}

func less(a, b Document, orderBy string, desc bool) bool {
	c := compare(a.Data[orderBy], b.Data[orderBy])
	if c == 0 {
		c = compareStrings(a.ID, b.ID)
	}
	if desc {
		return c > 0
	}
	return c < 0
}

// compare imposes a total order across canonical JSON scalars: null, then
// booleans, then numbers, then strings.
func compare(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return ra - rb
	}

	switch av := a.(type) {
	case nil:
		return 0
	case bool:
		bv := b.(bool)
		if av == bv {
			return 0
		}
		if !av {
			return -1
		}
		return 1
	case float64:
		bv := b.(float64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	case string:
		return compareStrings(av, b.(string))
	}
	return 0
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func rank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case float64:
		return 2
	case string:
		return 3
	default:
		return 4
	}
}

func canonicalize(data map[string]any) (map[string]any, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func canonValue(v any) any {
	b, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return v
	}
	return out
}

func copyData(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}
