package store

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	// ErrNotFound is returned when the referenced document does not exist.
	ErrNotFound = errors.New("store: document not found")
	// ErrClosed is returned when the store has been shut down.
	ErrClosed = errors.New("store: closed")
)

// Document is a raw stored record: an identity plus its JSON body.
type Document struct {
	ID   string
	Data json.RawMessage
}

// Decode unmarshals the document body into v.
func (d Document) Decode(v any) error {
	return json.Unmarshal(d.Data, v)
}

// Op is a field-level update operation.
type Op string

const (
	OpSet         Op = "set"
	OpIncrement   Op = "increment"
	OpArrayUnion  Op = "arrayUnion"
	OpArrayRemove Op = "arrayRemove"
)

// FieldUpdate is a single field operation inside a Patch.
type FieldUpdate struct {
	Op    Op
	Value any
}

func Set(v any) FieldUpdate         { return FieldUpdate{Op: OpSet, Value: v} }
func Increment(n float64) FieldUpdate { return FieldUpdate{Op: OpIncrement, Value: n} }
func ArrayUnion(v any) FieldUpdate  { return FieldUpdate{Op: OpArrayUnion, Value: v} }
func ArrayRemove(v any) FieldUpdate { return FieldUpdate{Op: OpArrayRemove, Value: v} }

// Patch maps known field names to update operations. Field names are
// validated against the collection schema before dispatch so a typo fails
// loudly instead of writing a stray field.
type Patch map[string]FieldUpdate

// CondOp is a query predicate operator.
type CondOp string

const (
	Eq            CondOp = "=="
	ArrayContains CondOp = "array-contains"
	Gte           CondOp = ">="
	Lte           CondOp = "<="
)

type Cond struct {
	Field string
	Op    CondOp
	Value any
}

// Where builds a query predicate.
func Where(field string, op CondOp, value any) Cond {
	return Cond{Field: field, Op: op, Value: value}
}

// Query selects documents from one collection. Predicates are evaluated
// server-side by the backend; callers never filter result sets themselves.
type Query struct {
	Collection string
	Conds      []Cond
	Limit      int
}

// Batch accumulates writes that commit together. Memory and postgres commit
// atomically; mongo commits per collection (see Mongo.Batch).
type Batch interface {
	Set(collection, id string, doc any)
	Update(collection, id string, patch Patch)
	Delete(collection, id string)
	Commit(ctx context.Context) error
}

// Store is the document store adapter: per-document CRUD, validated
// field-level patches, batched writes, one-shot queries and live queries
// that re-deliver the full matching set on every change.
type Store interface {
	Get(ctx context.Context, collection, id string) (Document, error)
	Set(ctx context.Context, collection, id string, doc any) error
	Update(ctx context.Context, collection, id string, patch Patch) error
	Delete(ctx context.Context, collection, id string) error
	Query(ctx context.Context, q Query) ([]Document, error)
	Batch() Batch
	Subscribe(q Query) (*Subscription, error)
	Close() error
}
