package planner

import "fmt"

// Phase is the lifecycle stage of an operation.
type Phase int

const (
	// Pending is the zero Phase: the operation has not settled yet.
	Pending Phase = iota
	// Fulfilled means the server accepted the operation and the store was reconciled.
	Fulfilled
	// Rejected means the operation failed and the store was left unchanged.
	Rejected
)

func (p Phase) String() string {
	switch p {
	case Pending:
		return "pending"
	case Fulfilled:
		return "fulfilled"
	case Rejected:
		return "rejected"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Result is the settled outcome of a planner operation.
type Result[T any] struct {
	Phase Phase
	Value T
	Err   error
}

// OK reports whether the result is fulfilled.
func (r Result[T]) OK() bool { return r.Phase == Fulfilled }

func fulfilled[T any](v T) Result[T] {
	return Result[T]{Phase: Fulfilled, Value: v}
}

func rejected[T any](err error) Result[T] {
	return Result[T]{Phase: Rejected, Err: err}
}
