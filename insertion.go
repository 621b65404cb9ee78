package pstrsort

// insertionSortKeys runs a stable insertion sort over recs[0:n] by key
// alone. String references move together with their keys. Used as
// the first pass of the hybrid policy below and of the leaf sorts in
// processFrame and sortWholeWithInsertion; callers refill dirty keys
// before calling it.
func insertionSortKeys(recs []cacheRecord) {
	for i := 1; i < len(recs); i++ {
		cur := recs[i]
		j := i - 1
		for j >= 0 && recs[j].key > cur.key {
			recs[j+1] = recs[j]
			j--
		}
		recs[j+1] = cur
	}
}

// insertionSortStrings runs an insertion sort over recs[0:n] by
// comparing the underlying bytes starting at depth, ignoring the key
// field entirely. Used once the cache is dirty and the run is short
// enough that re-deriving keys isn't worth it.
func insertionSortStrings(set StringSet, recs []cacheRecord, depth int) {
	for i := 1; i < len(recs); i++ {
		cur := recs[i]
		j := i - 1
		for j >= 0 && bytesGreaterFrom(set, recs[j].ref, cur.ref, depth) {
			recs[j+1] = recs[j]
			j--
		}
		recs[j+1] = cur
	}
}

// bytesGreaterFrom reports whether a's bytes (from depth onward) are
// lexicographically greater than b's.
func bytesGreaterFrom(set StringSet, a, b StringRef, depth int) bool {
	// Get64 already gives us an 8-byte zero-padded window; for runs
	// deeper than that we just keep reading successive windows. This
	// stays within the StringSet interface instead of requiring raw
	// byte access.
	d := depth
	for {
		ka := set.Get64(a, d)
		kb := set.Get64(b, d)
		if ka != kb {
			return ka > kb
		}
		if ka&0xFF == 0 {
			return false // both terminate identically up to here: equal
		}
		d += 8
	}
}

// insertionSortHybrid implements the cached-superalphabet policy from
// the spec: sort by key first, then for every maximal run of equal,
// non-terminating keys, recurse into a byte-level insertion sort at
// depth+8. This amortizes byte comparisons across the 8-byte window
// instead of re-reading bytes one at a time the way a naive string
// insertion sort would.
func insertionSortHybrid(set StringSet, recs []cacheRecord, depth int, cacheDirty bool, obs Observer) {
	if cacheDirty {
		refillKeys(set, recs, depth)
	}
	insertionSortKeys(recs)

	i := 0
	for i < len(recs) {
		j := i + 1
		for j < len(recs) && recs[j].key == recs[i].key {
			j++
		}
		runLen := j - i
		if runLen >= 2 && recs[i].key&0xFF != 0 {
			insertionSortStrings(set, recs[i:j], depth+8)
		}
		i = j
	}
	obs.InsertionSortDone(depth, len(recs))
}

// refillKeys recomputes every key field in recs from the current
// depth. Used whenever a frame's cache is marked dirty (its depth
// advanced since the keys were last read).
func refillKeys(set StringSet, recs []cacheRecord, depth int) {
	for i := range recs {
		recs[i].key = set.Get64(recs[i].ref, depth)
	}
}
