package pstrsort

import (
	"bytes"
	"testing"
)

func TestStringHeapAppendAndBytes(t *testing.T) {
	h := NewStringHeap(4)
	want := []string{"banana", "", "a", "zzz"}
	refs := make([]StringRef, len(want))
	for i, s := range want {
		refs[i] = h.AppendString(s)
	}
	for i, s := range want {
		if got := string(h.Bytes(refs[i])); got != s {
			t.Errorf("Bytes(%d) = %q, want %q", i, got, s)
		}
	}
}

func TestStringHeapGet64ZeroPads(t *testing.T) {
	h := NewStringHeap(1)
	ref := h.AppendString("ab")
	got := h.Get64(ref, 0)
	want := uint64('a')<<56 | uint64('b')<<48
	if got != want {
		t.Errorf("Get64(0) = %#016x, want %#016x", got, want)
	}
	if got := h.Get64(ref, 2); got != 0 {
		t.Errorf("Get64(2) = %#016x, want 0 (past end of string)", got)
	}
}

func TestStringHeapSetOverwritesIndex(t *testing.T) {
	h := NewStringHeap(2)
	a := h.AppendString("a")
	b := h.AppendString("b")
	h.Set(0, b)
	h.Set(1, a)
	if h.At(0) != b || h.At(1) != a {
		t.Fatalf("Set did not overwrite indices as expected")
	}
}

func TestHeapViewSubrangeIsAWindow(t *testing.T) {
	h := NewStringHeap(5)
	for _, s := range []string{"a", "b", "c", "d", "e"} {
		h.AppendString(s)
	}
	view := h.Subrange(1, 3)
	if view.Size() != 3 {
		t.Fatalf("Size() = %d, want 3", view.Size())
	}
	if got := string(h.Bytes(view.At(0))); got != "b" {
		t.Fatalf("view.At(0) = %q, want %q", got, "b")
	}

	// Mutations through the view are visible in the underlying heap.
	newRef := h.AppendString("z")
	view.Set(0, newRef)
	if got := string(h.Bytes(h.At(1))); got != "z" {
		t.Fatalf("mutation through view not visible in heap: got %q", got)
	}
}

func TestPackUint64LongerThanEightBytes(t *testing.T) {
	h := NewStringHeap(1)
	ref := h.AppendString("helloworld")
	first := h.Get64(ref, 0)
	second := h.Get64(ref, 8)
	if first == 0 || second == 0 {
		t.Fatalf("expected non-zero windows, got %#x and %#x", first, second)
	}
	if !bytes.Equal(h.Bytes(ref), []byte("helloworld")) {
		t.Fatalf("Bytes roundtrip mismatch")
	}
}
