package metadata

import (
	"fmt"
)

// Condition is the sum of every operator a single metadata key may be
// filtered by. More than one field may be set on the same Condition (e.g.
// {$gte: 10, $lt: 20}); when multiple fields are set, they are ANDed.
//
// This is the re-architecture called for in place of a {key, operator,
// value} triple: a Filter is a Map<FieldName, Condition> and evaluation
// dispatches exhaustively over Condition's fields instead of branching on a
// runtime operator string.
type Condition struct {
	Eq     *Value
	Ne     *Value
	Gt     *Value
	Gte    *Value
	Lt     *Value
	Lte    *Value
	In     []Value
	Nin    []Value
	Exists *bool
}

// Filter conjoins (logical AND) a Condition per metadata key. There is no
// disjunction and no nesting beyond the operator object, per the query
// language's design.
type Filter map[string]Condition

// ErrFilterError is returned by ParseFilter for a malformed filter: an
// operator object with an unrecognized key, or a $in/$nin value that isn't a
// list.
type ErrFilterError struct {
	Key    string
	Reason string
}

func (e *ErrFilterError) Error() string {
	return fmt.Sprintf("metadata: invalid filter for key %q: %s", e.Key, e.Reason)
}

var operatorKeys = map[string]bool{
	"$eq": true, "$ne": true, "$gt": true, "$gte": true, "$lt": true,
	"$lte": true, "$in": true, "$nin": true, "$exists": true,
}

// ParseFilter builds a Filter from a raw, JSON-shaped map, as accepted by
// Engine.Query's public filter parameter. Each key's value is either a bare
// scalar (equality shorthand) or an operator object keyed by a subset of
// {$eq, $ne, $gt, $gte, $lt, $lte, $in, $nin, $exists}. An operator object
// containing an unrecognized key fails with ErrFilterError rather than being
// silently ignored, per the stricter alternative the filter language
// permits.
func ParseFilter(raw map[string]any) (Filter, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	f := make(Filter, len(raw))
	for key, val := range raw {
		cond, err := parseCondition(key, val)
		if err != nil {
			return nil, err
		}
		f[key] = cond
	}

	return f, nil
}

func parseCondition(key string, val any) (Condition, error) {
	obj, isObj := val.(map[string]any)
	if !isObj {
		v := FromAny(val)
		return Condition{Eq: &v}, nil
	}

	isOperatorObject := false
	for k := range obj {
		if len(k) > 0 && k[0] == '$' {
			isOperatorObject = true
			break
		}
	}

	if !isOperatorObject {
		v := FromAny(obj)
		return Condition{Eq: &v}, nil
	}

	var cond Condition
	for opKey, opVal := range obj {
		if !operatorKeys[opKey] {
			return Condition{}, &ErrFilterError{Key: key, Reason: fmt.Sprintf("unknown operator %q", opKey)}
		}

		switch opKey {
		case "$eq":
			v := FromAny(opVal)
			cond.Eq = &v
		case "$ne":
			v := FromAny(opVal)
			cond.Ne = &v
		case "$gt":
			v := FromAny(opVal)
			cond.Gt = &v
		case "$gte":
			v := FromAny(opVal)
			cond.Gte = &v
		case "$lt":
			v := FromAny(opVal)
			cond.Lt = &v
		case "$lte":
			v := FromAny(opVal)
			cond.Lte = &v
		case "$in":
			list, err := asList(key, opVal)
			if err != nil {
				return Condition{}, err
			}
			cond.In = list
		case "$nin":
			list, err := asList(key, opVal)
			if err != nil {
				return Condition{}, err
			}
			cond.Nin = list
		case "$exists":
			b, ok := opVal.(bool)
			if !ok {
				return Condition{}, &ErrFilterError{Key: key, Reason: "$exists requires a boolean"}
			}
			cond.Exists = &b
		}
	}

	return cond, nil
}

func asList(key string, v any) ([]Value, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, &ErrFilterError{Key: key, Reason: "expected a list"}
	}

	out := make([]Value, len(items))
	for i, it := range items {
		out[i] = FromAny(it)
	}

	return out, nil
}

// And returns a new Filter equal to f with other's conditions overlaid; on
// key collision, other's condition wins entirely (it replaces f's condition
// for that key rather than merging fields). This is what the tenant wrapper
// uses to force-conjoin _tenant_id: {$eq: tenantID} so the tenant predicate
// always wins.
func (f Filter) And(other Filter) Filter {
	out := make(Filter, len(f)+len(other))
	for k, v := range f {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}

	return out
}

// Matches evaluates f against doc; all keys must be satisfied (logical AND).
// A key whose metadata value is absent fails every operator except $exists.
func (f Filter) Matches(doc Document) bool {
	for key, cond := range f {
		val, present := doc[key]
		if !conditionMatches(cond, val, present) {
			return false
		}
	}

	return true
}

func conditionMatches(cond Condition, val Value, present bool) bool {
	if cond.Exists != nil && present != *cond.Exists {
		return false
	}

	if !present {
		// Every non-$exists operator requires presence.
		return cond.Eq == nil && cond.Ne == nil && cond.Gt == nil && cond.Gte == nil &&
			cond.Lt == nil && cond.Lte == nil && cond.In == nil && cond.Nin == nil
	}

	if cond.Eq != nil && !val.Equal(*cond.Eq) {
		return false
	}
	if cond.Ne != nil && val.Equal(*cond.Ne) {
		return false
	}
	if cond.Gt != nil && !cond.Gt.Less(val) {
		return false
	}
	if cond.Gte != nil && val.Less(*cond.Gte) {
		return false
	}
	if cond.Lt != nil && !val.Less(*cond.Lt) {
		return false
	}
	if cond.Lte != nil && cond.Lte.Less(val) {
		return false
	}
	if cond.In != nil && !containsValue(cond.In, val) {
		return false
	}
	if cond.Nin != nil && containsValue(cond.Nin, val) {
		return false
	}

	return true
}

func containsValue(list []Value, v Value) bool {
	for _, item := range list {
		if item.Equal(v) {
			return true
		}
	}

	return false
}
