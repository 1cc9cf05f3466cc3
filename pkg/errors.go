package shardmap

// errors.go collects the library's error surface (spec.md §7):
//   - KeyAbsent is signalled by a bare (zero, false)/(nil, false) return,
//     not an error value — idiomatic Go's comma-ok, standing in for the
//     original's Option::None.
//   - ShardBusy is signalled by TryResult.Locked (see tryresult.go).
//   - CapacityExhausted is the single TryReserveError below.
//   - Invariant violations (shard index out of range, reader-count
//     overflow) are fatal and panic; they are not represented as error
//     values at all (internal/rwlock and internal/shard panic directly).
//
// © 2025 shardmap authors. MIT License.

// TryReserveError is returned by Table.TryReserve when a capacity
// reservation could not be satisfied. It carries only an optional short
// reason, appended to its message, mirroring the opaque TryReserveError
// named in spec.md §6.
type TryReserveError struct {
	reason string
}

func (e *TryReserveError) Error() string {
	if e.reason == "" {
		return "shardmap: failed to reserve capacity"
	}
	return "shardmap: failed to reserve capacity: " + e.reason
}
