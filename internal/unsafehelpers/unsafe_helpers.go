// Package unsafehelpers centralises **all** unavoidable usage of the
// `unsafe` standard-library package so that the rest of shardmap stays
// clean and easier to audit. Every helper is documented with clear pre-/
// post-conditions.
//
// ⚠️  **DISCLAIMER**   These helpers deliberately break the Go memory-safety
// model for the sake of zero-allocation conversions. Use ONLY inside this
// repository; they are not part of the public API and may change without
// notice. Misuse will lead to subtle data-races or garbage-collector
// corruption.
//
// All functions are `go:linkname`-free, cgo-free and pure Go 1.24.
//
// shardmap's only consumer of this package is the default key hasher
// (pkg/hasher.go): scalar and string/[]byte keys are reinterpreted as raw
// bytes here before being fed to xxhash, instead of going through
// reflection or a per-type switch.
//
// © 2025 shardmap authors. MIT License.
package unsafehelpers

import "unsafe"

/* -------------------------------------------------------------------------
   1. Zero-copy string/[]byte conversions
   ------------------------------------------------------------------------- */

// BytesToString converts a mutable byte slice to an immutable string
// without allocating. The caller must guarantee that b will never be
// modified for the lifetime of the resulting string; otherwise the
// program exhibits undefined behaviour.
//
// DO NOT expose the returned string outside controlled scopes.
func BytesToString(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}

// StringToBytes re-interprets string data as a byte slice using
// unsafe.Pointer. The slice MUST remain read-only; writing to it mutates
// immutable string storage and will crash.
func StringToBytes(s string) []byte {
	if len(s) == 0 {
		return nil
	}
	strHdr := (*[2]uintptr)(unsafe.Pointer(&s))
	return unsafe.Slice((*byte)(unsafe.Pointer(strHdr[0])), strHdr[1])
}

/* -------------------------------------------------------------------------
   2. Scalar-key byte views
   ------------------------------------------------------------------------- */

// ByteSliceFrom returns a []byte view of raw memory starting at ptr with
// the given length. Caller must ensure the memory block is at least
// length bytes. Used for hashing scalar keys (ints, structs of fixed
// layout) where only the pointer and size are known generically.
func ByteSliceFrom(ptr unsafe.Pointer, length uintptr) []byte {
	if length == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(ptr), length)
}

/* -------------------------------------------------------------------------
   3. Alignment helpers
   ------------------------------------------------------------------------- */

// AlignUp rounds x up to the nearest multiple of align, which must be a
// power of two.
func AlignUp(x, align uintptr) uintptr {
	return (x + align - 1) &^ (align - 1)
}

// IsPowerOfTwo returns true if x is a power of two (exactly one bit set).
func IsPowerOfTwo(x uintptr) bool {
	return x != 0 && (x&(x-1)) == 0
}
