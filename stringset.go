package pstrsort

import "encoding/binary"

// StringRef is an opaque handle to a zero-terminated byte sequence
// living in some external, immutable heap. The core never copies the
// bytes a StringRef points to; only the handles themselves move, and
// they remain meaningful independent of their position in a
// StringSet — cache records carry bare StringRefs exactly because
// they need to survive being shuffled around without an index.
type StringRef struct {
	offset uint32
	length uint32
}

// StringSet is a contiguous, mutable sequence of StringRefs with a
// stable index space [0, Size()). Implementations only need to expose
// indexed access and an 8-byte keyed window into a referenced string;
// the sort algorithms never see the byte heap directly.
type StringSet interface {
	// Size returns the number of string references in the set.
	Size() int

	// At returns the string reference stored at index i.
	At(i int) StringRef

	// Set overwrites the string reference stored at index i.
	Set(i int, ref StringRef)

	// Get64 reads up to 8 bytes of the string referenced by ref,
	// starting at byte offset depth, packed big-endian so that
	// numeric comparison of the result equals lexicographic
	// comparison of the underlying bytes. Bytes past the string's
	// terminator (and past depth+8) are zero.
	Get64(ref StringRef, depth int) uint64

	// Bytes returns the raw bytes referenced by ref, without its
	// terminator.
	Bytes(ref StringRef) []byte

	// Subrange returns a non-owning view over [begin, begin+length)
	// of the receiver. Mutations through the view are visible through
	// the original StringSet and vice versa.
	Subrange(begin, length int) StringSet
}

// StringHeap is a ready-made StringSet backed by a single append-only
// byte arena. It exists so callers can use this package without
// writing their own StringSet; the sort algorithms depend only on the
// StringSet interface above.
type StringHeap struct {
	arena []byte
	refs  []StringRef
}

// NewStringHeap creates an empty heap with room for the given number
// of strings.
func NewStringHeap(capacity int) *StringHeap {
	return &StringHeap{
		refs: make([]StringRef, 0, capacity),
	}
}

// Append copies s into the heap, adds a zero terminator, and returns
// a StringRef. s must not itself contain a zero byte.
func (h *StringHeap) Append(s []byte) StringRef {
	off := len(h.arena)
	h.arena = append(h.arena, s...)
	h.arena = append(h.arena, 0)
	ref := StringRef{offset: uint32(off), length: uint32(len(s))}
	h.refs = append(h.refs, ref)
	return ref
}

// AppendString is a convenience wrapper around Append for string
// values.
func (h *StringHeap) AppendString(s string) StringRef {
	return h.Append([]byte(s))
}

// Size implements StringSet.
func (h *StringHeap) Size() int { return len(h.refs) }

// At implements StringSet.
func (h *StringHeap) At(i int) StringRef { return h.refs[i] }

// Set implements StringSet.
func (h *StringHeap) Set(i int, ref StringRef) { h.refs[i] = ref }

// Bytes implements StringSet.
func (h *StringHeap) Bytes(ref StringRef) []byte {
	return h.arena[ref.offset : ref.offset+ref.length]
}

// Get64 implements StringSet.
func (h *StringHeap) Get64(ref StringRef, depth int) uint64 {
	return packUint64(h.Bytes(ref), depth)
}

// Subrange implements StringSet.
func (h *StringHeap) Subrange(begin, length int) StringSet {
	return &heapView{heap: h, begin: begin, length: length}
}

// packUint64 builds the big-endian 8-byte window of s starting at
// byte offset depth, zero-padding past the end of s (which stands in
// for the implicit terminator: the caller never sees the terminator
// byte itself, only the zeros that follow the string's real bytes).
func packUint64(s []byte, depth int) uint64 {
	var buf [8]byte
	if depth < len(s) {
		copy(buf[:], s[depth:])
	}
	return binary.BigEndian.Uint64(buf[:])
}

// heapView is a non-owning window over a StringHeap's ref slice.
type heapView struct {
	heap   *StringHeap
	begin  int
	length int
}

func (v *heapView) Size() int { return v.length }

func (v *heapView) At(i int) StringRef { return v.heap.refs[v.begin+i] }

func (v *heapView) Set(i int, ref StringRef) { v.heap.refs[v.begin+i] = ref }

func (v *heapView) Bytes(ref StringRef) []byte { return v.heap.Bytes(ref) }

func (v *heapView) Get64(ref StringRef, depth int) uint64 { return v.heap.Get64(ref, depth) }

func (v *heapView) Subrange(begin, length int) StringSet {
	return &heapView{heap: v.heap, begin: v.begin + begin, length: length}
}
