// Package xslices contains slice helpers that the standard library
// does not provide.
package xslices

// Filter returns a new slice containing the elements of s for which f
// returns true, preserving their order.
func Filter[T any, S ~[]T](s S, f func(T) bool) (r S) {
	r = make(S, 0, len(s))
	for _, v := range s {
		if f(v) {
			r = append(r, v)
		}
	}
	return r
}

// Without returns a copy of s with every element equal to v removed.
func Without[T comparable, S ~[]T](s S, v T) S {
	return Filter(s, func(e T) bool { return e != v })
}
