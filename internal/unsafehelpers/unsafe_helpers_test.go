package unsafehelpers

import (
	"testing"
	"unsafe"
)

func TestBytesToStringRoundTrip(t *testing.T) {
	b := []byte("shardmap")
	s := BytesToString(b)
	if s != "shardmap" {
		t.Fatalf("got %q, want %q", s, "shardmap")
	}
}

func TestStringToBytesRoundTrip(t *testing.T) {
	s := "shardmap"
	b := StringToBytes(s)
	if string(b) != s {
		t.Fatalf("got %q, want %q", b, s)
	}
}

func TestEmptyInputs(t *testing.T) {
	if BytesToString(nil) != "" {
		t.Fatal("expected empty string for nil input")
	}
	if StringToBytes("") != nil {
		t.Fatal("expected nil slice for empty string input")
	}
}

func TestByteSliceFromScalar(t *testing.T) {
	var x uint64 = 0x0102030405060708
	b := ByteSliceFrom(unsafe.Pointer(&x), unsafe.Sizeof(x))
	if len(b) != 8 {
		t.Fatalf("expected 8 bytes, got %d", len(b))
	}
}

func TestAlignUp(t *testing.T) {
	cases := []struct{ x, align, want uintptr }{
		{0, 8, 0},
		{1, 8, 8},
		{8, 8, 8},
		{9, 8, 16},
		{63, 64, 64},
	}
	for _, c := range cases {
		if got := AlignUp(c.x, c.align); got != c.want {
			t.Fatalf("AlignUp(%d, %d) = %d, want %d", c.x, c.align, got, c.want)
		}
	}
}

func TestIsPowerOfTwo(t *testing.T) {
	for _, x := range []uintptr{1, 2, 4, 8, 16, 1024} {
		if !IsPowerOfTwo(x) {
			t.Fatalf("expected %d to be a power of two", x)
		}
	}
	for _, x := range []uintptr{0, 3, 5, 6, 100} {
		if IsPowerOfTwo(x) {
			t.Fatalf("expected %d not to be a power of two", x)
		}
	}
}
