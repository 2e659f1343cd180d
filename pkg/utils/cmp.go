package utils

// EqualFn reports whether two values of type T should be treated as equal. It lets cache helpers
// compare values whose type doesn't support ==.
type EqualFn[T any] func(x, y T) bool

// CompareFn defines a three-way comparison for values of type T. It must return a negative value
// if x < y, 0 if x == y, and a positive value if x > y.
type CompareFn[T any] func(x, y T) int

// EqualBy adapts a three-way comparison into an equality function.
func EqualBy[T any](compare CompareFn[T]) EqualFn[T] {
	return func(x, y T) bool { return compare(x, y) == 0 }
}
