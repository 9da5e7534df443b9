package service

// Result carries a value together with the outcome of the operation that produced it.
// A failed Result may still hold a usable value: providers and the calculator always
// return something renderable and use Err to say it is degraded.
type Result[T any] struct {
	Value T
	Err   error
}

// Success wraps a value produced without error.
func Success[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Failure wraps a best-effort value together with the error that degraded it.
func Failure[T any](v T, err error) Result[T] {
	return Result[T]{Value: v, Err: err}
}

// OK reports whether the operation succeeded.
func (r Result[T]) OK() bool {
	return r.Err == nil
}
