package pstrsort

// radixSort is the MSD radix sort fallback named in spec 4.5 but
// specified as its own component per SPEC_FULL 4.7: a 256-way
// counting pass at depth over set[base:base+n), stable bucket
// distribution via prefix sum, then recursion into every
// non-terminator, non-singleton bucket at depth+1. Falls back to
// insertion sort at or below Config.InsertionThreshold.
func radixSort(q *JobQueue, set StringSet, base, n, depth int, cfg Config, obs Observer) {
	if n <= 1 {
		return
	}
	if n <= cfg.InsertionThreshold {
		radixInsertionSort(set, base, n, depth)
		obs.InsertionSortDone(depth, n)
		return
	}

	var counts [256]int
	refs := make([]StringRef, n)
	bytes := make([]byte, n)
	for i := 0; i < n; i++ {
		ref := set.At(base + i)
		refs[i] = ref
		b := byteAt(set, ref, depth)
		bytes[i] = b
		counts[b]++
	}

	var boundary [257]int
	for c := 0; c < 256; c++ {
		boundary[c+1] = boundary[c] + counts[c]
	}

	out := make([]StringRef, n)
	cursor := boundary
	for i := 0; i < n; i++ {
		c := bytes[i]
		out[cursor[c]] = refs[i]
		cursor[c]++
	}
	for i := 0; i < n; i++ {
		set.Set(base+i, out[i])
	}

	obs.RadixPassDone(depth, n)

	for c := 1; c < 256; c++ {
		// Byte value 0 is the terminator bucket: every string there
		// already ended at depth, so it's fully resolved.
		lo, hi := boundary[c], boundary[c+1]
		size := hi - lo
		if size <= 1 {
			continue
		}
		radixSort(q, set, base+lo, size, depth+1, cfg, obs)
	}
}

// byteAt returns the byte of ref's string at offset depth, or 0 if
// depth is past the string's end (its implicit terminator and
// everything beyond it reads as 0, matching StringSet.Get64's
// zero-padding convention).
func byteAt(set StringSet, ref StringRef, depth int) byte {
	b := set.Bytes(ref)
	if depth < len(b) {
		return b[depth]
	}
	return 0
}

// radixInsertionSort sorts set[base:base+n) by full-string comparison
// starting at depth; used once a radix subrange is at or below
// Config.InsertionThreshold.
func radixInsertionSort(set StringSet, base, n, depth int) {
	for i := 1; i < n; i++ {
		cur := set.At(base + i)
		j := i - 1
		for j >= 0 && bytesGreaterFrom(set, set.At(base+j), cur, depth) {
			set.Set(base+j+1, set.At(base+j))
			j--
		}
		set.Set(base+j+1, cur)
	}
}
