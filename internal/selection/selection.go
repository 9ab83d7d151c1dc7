// Package selection holds checked-row sets for selectable lists.
package selection

import "slices"

// Set is an unordered set of row keys. The zero value is an empty set.
// A Set is treated as immutable once built; use Of or Replace to get a new one.
type Set[K comparable] struct {
	keys map[K]struct{}
}

func Of[K comparable](keys ...K) Set[K] {
	m := make(map[K]struct{}, len(keys))
	for _, k := range keys {
		m[k] = struct{}{}
	}
	return Set[K]{keys: m}
}

// All returns the set of every row key in rows (default-select-all).
func All[T any, K comparable](rows []T, key func(T) K) Set[K] {
	m := make(map[K]struct{}, len(rows))
	for _, r := range rows {
		m[key(r)] = struct{}{}
	}
	return Set[K]{keys: m}
}

// Replace builds the whole-set replacement for a checkbox change, pruning
// keys that are not present in rows.
func Replace[T any, K comparable](rows []T, key func(T) K, checked []K) Set[K] {
	present := All(rows, key)
	m := make(map[K]struct{}, len(checked))
	for _, k := range checked {
		if present.Has(k) {
			m[k] = struct{}{}
		}
	}
	return Set[K]{keys: m}
}

func (s Set[K]) Has(k K) bool {
	_, ok := s.keys[k]
	return ok
}

func (s Set[K]) Len() int {
	return len(s.keys)
}

func (s Set[K]) Empty() bool {
	return len(s.keys) == 0
}

// Keys returns the keys in no particular order.
func (s Set[K]) Keys() []K {
	out := make([]K, 0, len(s.keys))
	for k := range s.keys {
		out = append(out, k)
	}
	return out
}

func (s Set[K]) Equal(o Set[K]) bool {
	if len(s.keys) != len(o.keys) {
		return false
	}
	for k := range s.keys {
		if !o.Has(k) {
			return false
		}
	}
	return true
}

// Minus returns the keys of s that are not in o.
func (s Set[K]) Minus(o Set[K]) Set[K] {
	m := make(map[K]struct{}, len(s.keys))
	for k := range s.keys {
		if !o.Has(k) {
			m[k] = struct{}{}
		}
	}
	return Set[K]{keys: m}
}

// Selected returns the rows of list whose key is in set, in list order.
func Selected[T any, K comparable](rows []T, set Set[K], key func(T) K) []T {
	out := make([]T, 0, set.Len())
	for _, r := range rows {
		if set.Has(key(r)) {
			out = append(out, r)
		}
	}
	return out
}

// Without returns a new slice holding the rows whose key is not in set.
// rows is never modified.
func Without[T any, K comparable](rows []T, set Set[K], key func(T) K) []T {
	return slices.DeleteFunc(slices.Clone(rows), func(r T) bool {
		return set.Has(key(r))
	})
}
