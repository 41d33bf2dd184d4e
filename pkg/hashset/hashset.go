// Package hashset is a minimal generic set.
package hashset

type Set[T comparable] map[T]struct{}

func NewSet[T comparable]() Set[T] {
	return map[T]struct{}{}
}

// Set adds v and reports whether it was absent before.
func (vs Set[T]) Set(v T) bool {
	if vs.Has(v) {
		return false
	}
	vs[v] = struct{}{}
	return true
}

func (vs Set[T]) Has(v T) bool {
	_, ok := vs[v]
	return ok
}

func (vs Set[T]) Len() int {
	return len(vs)
}
