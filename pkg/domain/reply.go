package domain

// Reply is the typed result of a model call.
// Fallback is set when the raw output did not match the expected schema and
// Value holds the default derived from it.
type Reply[T any] struct {
	Value    T
	Fallback bool
	Raw      string
}

// Parsed wraps a value decoded from a well-formed model answer.
func Parsed[T any](v T, raw string) Reply[T] {
	return Reply[T]{Value: v, Raw: raw}
}

// Degraded wraps a default value used in place of a malformed model answer.
func Degraded[T any](v T, raw string) Reply[T] {
	return Reply[T]{Value: v, Fallback: true, Raw: raw}
}
