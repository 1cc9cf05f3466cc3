package shardmap

// tryresult.go implements the three-valued TryResult used by every
// non-blocking (try_*) operation: Present(T) on success, Absent when the
// key genuinely does not exist, Locked when the shard could not be
// acquired without blocking (spec.md §6/§7).
//
// © 2025 shardmap authors. MIT License.

// TryResultState distinguishes the three outcomes a TryResult can carry.
type TryResultState int

const (
	// Present means the operation completed and a value is available.
	Present TryResultState = iota
	// Absent means the shard was acquired but no matching entry exists.
	Absent
	// Locked means the shard could not be acquired without blocking.
	Locked
)

func (s TryResultState) String() string {
	switch s {
	case Present:
		return "Present"
	case Absent:
		return "Absent"
	case Locked:
		return "Locked"
	default:
		return "Unknown"
	}
}

// TryResult is the return type of every try_* operation.
type TryResult[T any] struct {
	state TryResultState
	value T
}

// PresentResult wraps a value as a Present outcome.
func PresentResult[T any](v T) TryResult[T] {
	return TryResult[T]{state: Present, value: v}
}

// AbsentResult builds an Absent outcome.
func AbsentResult[T any]() TryResult[T] {
	return TryResult[T]{state: Absent}
}

// LockedResult builds a Locked outcome.
func LockedResult[T any]() TryResult[T] {
	return TryResult[T]{state: Locked}
}

// State reports which of the three outcomes this result carries.
func (r TryResult[T]) State() TryResultState { return r.state }

// IsPresent reports whether the result carries a value.
func (r TryResult[T]) IsPresent() bool { return r.state == Present }

// IsAbsent reports whether the shard was acquired but held no match.
func (r TryResult[T]) IsAbsent() bool { return r.state == Absent }

// IsLocked reports whether the shard could not be acquired without
// blocking.
func (r TryResult[T]) IsLocked() bool { return r.state == Locked }

// Value returns the carried value and whether the state was Present.
func (r TryResult[T]) Value() (T, bool) {
	return r.value, r.state == Present
}
