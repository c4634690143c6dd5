package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Memory is an in-process store backend. It backs STORE_DRIVER=memory and
// every test in this repo.
type Memory struct {
	mu          sync.RWMutex
	collections map[string]map[string]json.RawMessage
	notifier    *notifier
	closed      bool
}

func NewMemory() *Memory {
	m := &Memory{collections: map[string]map[string]json.RawMessage{}}
	m.notifier = newNotifier(m.Query)
	return m
}

func (m *Memory) Get(ctx context.Context, collection, id string) (Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.collections[collection][id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return Document{ID: id, Data: append(json.RawMessage(nil), data...)}, nil
}

func (m *Memory) Set(ctx context.Context, collection, id string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("store: encode document: %w", err)
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.put(collection, id, data)
	m.mu.Unlock()

	m.notifier.changed(collection)
	return nil
}

func (m *Memory) Update(ctx context.Context, collection, id string, patch Patch) error {
	if err := validatePatch(collection, patch); err != nil {
		return err
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	data, ok := m.collections[collection][id]
	if !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	updated, err := applyPatch(data, patch)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	m.put(collection, id, updated)
	m.mu.Unlock()

	m.notifier.changed(collection)
	return nil
}

func (m *Memory) Delete(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	delete(m.collections[collection], id)
	m.mu.Unlock()

	m.notifier.changed(collection)
	return nil
}

func (m *Memory) Query(ctx context.Context, q Query) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Document
	for id, data := range m.collections[q.Collection] {
		ok, err := matches(data, q.Conds)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, Document{ID: id, Data: append(json.RawMessage(nil), data...)})
		}
	}
	// Deterministic order; consumers apply their own presentation sort.
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *Memory) Batch() Batch {
	return &memoryBatch{store: m}
}

func (m *Memory) Subscribe(q Query) (*Subscription, error) {
	return m.notifier.subscribe(q)
}

func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.notifier.closeAll()
	return nil
}

// put assumes m.mu is held.
func (m *Memory) put(collection, id string, data json.RawMessage) {
	coll, ok := m.collections[collection]
	if !ok {
		coll = map[string]json.RawMessage{}
		m.collections[collection] = coll
	}
	coll[id] = data
}

func matches(data json.RawMessage, conds []Cond) (bool, error) {
	if len(conds) == 0 {
		return true, nil
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return false, fmt.Errorf("store: corrupt document: %w", err)
	}
	for _, c := range conds {
		if !matchCond(doc[c.Field], c) {
			return false, nil
		}
	}
	return true, nil
}

func matchCond(field any, c Cond) bool {
	want := normalize(c.Value)
	switch c.Op {
	case Eq:
		return jsonEqual(field, want)
	case ArrayContains:
		return containsValue(asArray(field), want)
	case Gte:
		return compareValues(field, want) >= 0
	case Lte:
		return compareValues(field, want) <= 0
	default:
		return false
	}
}

func compareValues(a, b any) int {
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return strings.Compare(as, bs)
	}
	af, errA := asNumber(a)
	bf, errB := asNumber(b)
	if errA != nil || errB != nil {
		return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
	}
	switch {
	case af < bf:
		return -1
	case af > bf:
		return 1
	default:
		return 0
	}
}

type batchOp struct {
	kind       string // "set", "update", "delete"
	collection string
	id         string
	doc        any
	patch      Patch
}

type memoryBatch struct {
	store *Memory
	ops   []batchOp
}

func (b *memoryBatch) Set(collection, id string, doc any) {
	b.ops = append(b.ops, batchOp{kind: "set", collection: collection, id: id, doc: doc})
}

func (b *memoryBatch) Update(collection, id string, patch Patch) {
	b.ops = append(b.ops, batchOp{kind: "update", collection: collection, id: id, patch: patch})
}

func (b *memoryBatch) Delete(collection, id string) {
	b.ops = append(b.ops, batchOp{kind: "delete", collection: collection, id: id})
}

// Commit applies every op under one lock: either all ops land or none do.
func (b *memoryBatch) Commit(ctx context.Context) error {
	staged := map[string]map[string]json.RawMessage{}
	touched := map[string]struct{}{}

	b.store.mu.Lock()
	if b.store.closed {
		b.store.mu.Unlock()
		return ErrClosed
	}

	read := func(collection, id string) (json.RawMessage, bool) {
		if coll, ok := staged[collection]; ok {
			if data, ok := coll[id]; ok {
				return data, data != nil
			}
		}
		data, ok := b.store.collections[collection][id]
		return data, ok
	}
	stage := func(collection, id string, data json.RawMessage) {
		coll, ok := staged[collection]
		if !ok {
			coll = map[string]json.RawMessage{}
			staged[collection] = coll
		}
		coll[id] = data
		touched[collection] = struct{}{}
	}

	for _, op := range b.ops {
		switch op.kind {
		case "set":
			data, err := json.Marshal(op.doc)
			if err != nil {
				b.store.mu.Unlock()
				return fmt.Errorf("store: encode document: %w", err)
			}
			stage(op.collection, op.id, data)
		case "update":
			if err := validatePatch(op.collection, op.patch); err != nil {
				b.store.mu.Unlock()
				return err
			}
			data, ok := read(op.collection, op.id)
			if !ok {
				b.store.mu.Unlock()
				return ErrNotFound
			}
			updated, err := applyPatch(data, op.patch)
			if err != nil {
				b.store.mu.Unlock()
				return err
			}
			stage(op.collection, op.id, updated)
		case "delete":
			stage(op.collection, op.id, nil)
		}
	}

	for collection, docs := range staged {
		for id, data := range docs {
			if data == nil {
				delete(b.store.collections[collection], id)
			} else {
				b.store.put(collection, id, data)
			}
		}
	}
	b.store.mu.Unlock()

	for collection := range touched {
		b.store.notifier.changed(collection)
	}
	return nil
}
