// Package metadata implements the tagged-variant value type documents are
// tagged with, and the sum-type filter language queries are evaluated
// against.
package metadata

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Kind discriminates the variants of Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
)

// Value is a JSON-compatible scalar or list, tagged by Kind so the filter
// evaluator can dispatch on type without reflection.
type Value struct {
	Kind Kind
	B    bool
	I    int64
	F    float64
	S    string
	L    []Value
}

func Null() Value              { return Value{Kind: KindNull} }
func Bool(b bool) Value        { return Value{Kind: KindBool, B: b} }
func Int(i int64) Value        { return Value{Kind: KindInt, I: i} }
func Float(f float64) Value    { return Value{Kind: KindFloat, F: f} }
func String(s string) Value    { return Value{Kind: KindString, S: s} }
func List(vs ...Value) Value   { return Value{Kind: KindList, L: vs} }

// IsNull reports whether v is the null variant.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// AsFloat64 returns v's numeric value as a float64, coercing Int to Float.
// ok is false for non-numeric kinds.
func (v Value) AsFloat64() (float64, bool) {
	switch v.Kind {
	case KindFloat:
		return v.F, true
	case KindInt:
		return float64(v.I), true
	default:
		return 0, false
	}
}

// Equal reports deep equality between two values, comparing numeric values
// across Int/Float so Eq(Int(10)) matches a stored Float(10).
func (v Value) Equal(other Value) bool {
	if vf, ok := v.AsFloat64(); ok {
		if of, ok := other.AsFloat64(); ok {
			return vf == of
		}
	}

	if v.Kind != other.Kind {
		return false
	}

	switch v.Kind {
	case KindNull:
		return true
	case KindBool:
		return v.B == other.B
	case KindString:
		return v.S == other.S
	case KindList:
		if len(v.L) != len(other.L) {
			return false
		}
		for i := range v.L {
			if !v.L[i].Equal(other.L[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Less reports whether v orders strictly before other for $gt/$gte/$lt/$lte
// purposes. Only numeric and string comparisons are defined; any other pair
// returns false (making the comparison operators fail consistently rather
// than panic).
func (v Value) Less(other Value) bool {
	if vf, ok := v.AsFloat64(); ok {
		if of, ok := other.AsFloat64(); ok {
			return vf < of
		}
		return false
	}

	if v.Kind == KindString && other.Kind == KindString {
		return v.S < other.S
	}

	return false
}

// Native converts v back to a plain Go value (nil, bool, int64, float64,
// string, or []any), the inverse of FromAny.
func (v Value) Native() any {
	switch v.Kind {
	case KindNull:
		return nil
	case KindBool:
		return v.B
	case KindInt:
		return v.I
	case KindFloat:
		return v.F
	case KindString:
		return v.S
	case KindList:
		out := make([]any, len(v.L))
		for i, e := range v.L {
			out[i] = e.Native()
		}
		return out
	default:
		return nil
	}
}

// MarshalJSON implements json.Marshaler by round-tripping through Native.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Native())
}

// UnmarshalJSON implements json.Unmarshaler via FromAny over the decoded
// generic JSON value.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*v = FromAny(raw)

	return nil
}

// FromAny converts a plain Go value (as produced by encoding/json decoding
// into an any, or constructed directly by callers) into a Value. Unsupported
// types are stringified via fmt.Sprint rather than rejected, since metadata
// is best-effort descriptive data, not a strict schema.
func FromAny(x any) Value {
	switch t := x.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(t)
	case int:
		return Int(int64(t))
	case int64:
		return Int(t)
	case float64:
		return Float(t)
	case float32:
		return Float(float64(t))
	case string:
		return String(t)
	case []any:
		vs := make([]Value, len(t))
		for i, e := range t {
			vs[i] = FromAny(e)
		}
		return Value{Kind: KindList, L: vs}
	case []string:
		vs := make([]Value, len(t))
		for i, e := range t {
			vs[i] = String(e)
		}
		return Value{Kind: KindList, L: vs}
	case Value:
		return t
	default:
		return String(fmt.Sprint(t))
	}
}

// Document is a collection document's metadata: a flat mapping from string
// keys to tagged values, including any reserved keys (_tenant_id,
// _ttl_expires, _ttl_duration) the engine or tenant wrapper installs.
type Document map[string]Value

// DocumentFromAny converts a plain map[string]any (as accepted by the public
// Insert API) into a Document.
func DocumentFromAny(m map[string]any) Document {
	if m == nil {
		return nil
	}

	doc := make(Document, len(m))
	for k, v := range m {
		doc[k] = FromAny(v)
	}

	return doc
}

// Clone returns a shallow copy of doc; Value itself is treated as immutable,
// so a shallow key copy is sufficient to make the clone independent of
// future mutation of the map.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}

	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}

	return out
}

// Merge returns a new Document containing d's keys overlaid with other's;
// on key collision, other wins. Used by the tenant wrapper to force-tag
// _tenant_id without mutating the caller's metadata.
func (d Document) Merge(other Document) Document {
	out := d.Clone()
	if out == nil {
		out = make(Document, len(other))
	}

	for k, v := range other {
		out[k] = v
	}

	return out
}

// Native converts the whole document to a map[string]any, as used by the
// HNSW snapshot and the tenant wrapper's insert path.
func (d Document) Native() map[string]any {
	if d == nil {
		return nil
	}

	out := make(map[string]any, len(d))
	for k, v := range d {
		out[k] = v.Native()
	}

	return out
}

// SortedKeys returns d's keys in ascending order, for callers that need a
// stable iteration order.
func (d Document) SortedKeys() []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
