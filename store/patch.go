package store

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// applyPatch applies field operations to a raw JSON document and returns the
// new body. Shared by the memory and postgres backends; mongo translates
// patches to native update operators instead.
func applyPatch(data json.RawMessage, p Patch) (json.RawMessage, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("store: corrupt document: %w", err)
	}

	for field, upd := range p {
		switch upd.Op {
		case OpSet:
			doc[field] = normalize(upd.Value)
		case OpIncrement:
			cur, _ := asNumber(doc[field])
			inc, err := asNumber(normalize(upd.Value))
			if err != nil {
				return nil, fmt.Errorf("store: increment %q: %w", field, err)
			}
			doc[field] = cur + inc
		case OpArrayUnion:
			arr := asArray(doc[field])
			v := normalize(upd.Value)
			if !containsValue(arr, v) {
				arr = append(arr, v)
			}
			doc[field] = arr
		case OpArrayRemove:
			arr := asArray(doc[field])
			v := normalize(upd.Value)
			kept := arr[:0]
			for _, el := range arr {
				if !jsonEqual(el, v) {
					kept = append(kept, el)
				}
			}
			doc[field] = kept
		default:
			return nil, fmt.Errorf("store: unknown patch op %q", upd.Op)
		}
	}

	return json.Marshal(doc)
}

// normalize round-trips a value through JSON so typed Go values (time.Time,
// pointers, named types) become plain JSON values before comparison/storage.
func normalize(v any) any {
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

func asNumber(v any) (float64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	default:
		return 0, fmt.Errorf("value %v is not numeric", v)
	}
}

func asArray(v any) []any {
	if arr, ok := v.([]any); ok {
		return arr
	}
	return []any{}
}

func containsValue(arr []any, v any) bool {
	for _, el := range arr {
		if jsonEqual(el, v) {
			return true
		}
	}
	return false
}

func jsonEqual(a, b any) bool {
	ab, errA := json.Marshal(a)
	bb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}
