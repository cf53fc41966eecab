package docstore

import "time"

// Field sentinels. Placed as values in a Document passed to Set, they are
// resolved against the stored document at write time, which keeps concurrent
// field updates commutative.

type incrementOp struct{ delta float64 }

type arrayUnionOp struct{ values []string }

type arrayRemoveOp struct{ values []string }

type deleteFieldOp struct{}

type serverTimestampOp struct{}

// Increment adds delta to the stored numeric field (missing field counts as 0).
func Increment(delta float64) any { return incrementOp{delta: delta} }

// ArrayUnion appends the given values to the stored array, skipping ones
// already present.
func ArrayUnion(values ...string) any { return arrayUnionOp{values: values} }

// ArrayRemove removes every occurrence of the given values from the stored array.
func ArrayRemove(values ...string) any { return arrayRemoveOp{values: values} }

// DeleteField removes the field from the document.
func DeleteField() any { return deleteFieldOp{} }

// ServerTimestamp stores the write time as an RFC3339 string.
func ServerTimestamp() any { return serverTimestampOp{} }

// applyFields resolves fields (including sentinels) onto base and returns the
// resulting document. With merge false the base is ignored and fields are
// applied onto an empty document; sentinels still resolve so that e.g. an
// increment behaves as "set to delta".
func applyFields(base Document, fields Document, merge bool, now time.Time) Document {
	var out Document
	if merge && base != nil {
		out = cloneDocument(base)
	} else {
		out = Document{}
	}

	for key, value := range fields {
		switch op := value.(type) {
		case incrementOp:
			out[key] = asNumber(out[key]) + op.delta
		case arrayUnionOp:
			arr := asStrings(out[key])
			for _, v := range op.values {
				if !containsString(arr, v) {
					arr = append(arr, v)
				}
			}
			out[key] = toAnySlice(arr)
		case arrayRemoveOp:
			arr := asStrings(out[key])
			kept := arr[:0]
			for _, v := range arr {
				if !containsString(op.values, v) {
					kept = append(kept, v)
				}
			}
			out[key] = toAnySlice(kept)
		case deleteFieldOp:
			delete(out, key)
		case serverTimestampOp:
			out[key] = now.UTC().Format(time.RFC3339Nano)
		case nil:
			delete(out, key)
		default:
			out[key] = value
		}
	}
	return out
}

func cloneDocument(d Document) Document {
	out := make(Document, len(d))
	for k, v := range d {
		if arr, ok := v.([]any); ok {
			cp := make([]any, len(arr))
			copy(cp, arr)
			out[k] = cp
			continue
		}
		out[k] = v
	}
	return out
}

func asNumber(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}

func asStrings(v any) []string {
	switch arr := v.(type) {
	case []any:
		out := make([]string, 0, len(arr))
		for _, e := range arr {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		out := make([]string, len(arr))
		copy(out, arr)
		return out
	default:
		return nil
	}
}

func toAnySlice(arr []string) []any {
	out := make([]any, len(arr))
	for i, s := range arr {
		out[i] = s
	}
	return out
}

func containsString(arr []string, v string) bool {
	for _, e := range arr {
		if e == v {
			return true
		}
	}
	return false
}
