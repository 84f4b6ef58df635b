package filter

import (
	"cmp"
	"slices"
)

// Set is an immutable sorted set of criteria values.
// The zero value is the empty set, which never excludes a record.
type Set[T cmp.Ordered] struct {
	items []T
}

// NewSet builds a set from vals, dropping duplicates.
func NewSet[T cmp.Ordered](vals ...T) Set[T] {
	var s Set[T]
	for _, v := range vals {
		s = s.With(v)
	}
	return s
}

// With returns a set that also contains v.
func (s Set[T]) With(v T) Set[T] {
	i, found := slices.BinarySearch(s.items, v)
	if found {
		return s
	}
	return Set[T]{items: slices.Insert(slices.Clone(s.items), i, v)}
}

// Without returns a set that does not contain v.
func (s Set[T]) Without(v T) Set[T] {
	i, found := slices.BinarySearch(s.items, v)
	if !found {
		return s
	}
	items := slices.Delete(slices.Clone(s.items), i, i+1)
	if len(items) == 0 {
		items = nil
	}
	return Set[T]{items: items}
}

// Has reports whether v is a member.
func (s Set[T]) Has(v T) bool {
	_, found := slices.BinarySearch(s.items, v)
	return found
}

// Admits reports whether v satisfies the set as a constraint:
// an empty set admits everything, otherwise v must be a member.
func (s Set[T]) Admits(v T) bool {
	return s.Empty() || s.Has(v)
}

// AdmitsAny is Admits for multi-valued attributes: any member of vals suffices.
func (s Set[T]) AdmitsAny(vals []T) bool {
	if s.Empty() {
		return true
	}
	for _, v := range vals {
		if s.Has(v) {
			return true
		}
	}
	return false
}

// Len returns the number of members.
func (s Set[T]) Len() int { return len(s.items) }

// Empty reports whether the set imposes no constraint.
func (s Set[T]) Empty() bool { return len(s.items) == 0 }

// Values returns the members in ascending order.
func (s Set[T]) Values() []T { return slices.Clone(s.items) }

// Equal reports whether both sets hold the same members.
func (s Set[T]) Equal(o Set[T]) bool { return slices.Equal(s.items, o.items) }
