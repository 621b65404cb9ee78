package pstrsort

// mkqFrame is one pending subproblem on a SequentialJob's explicit
// frame stack: a contiguous range of a shared cache array, a depth,
// and whether that range's keys need to be refilled before use.
type mkqFrame struct {
	a, b       int // half-open range within the owning job's cache array
	depth      int
	cacheDirty bool
}

// sequentialJob sorts cache.records[start:end) in place and copies
// each fully-sorted leaf back into target at the matching offset.
// cache may be shared with sibling jobs spawned by a work-sharing
// hand-off; the job releases its reference when it returns.
type sequentialJob struct {
	cache       *sharedCache
	start, end  int
	depth       int
	cacheDirty  bool
	target      StringSet
	globalBase  int // target index that corresponds to cache.records[0]
	cfg         Config
	obs         Observer
}

func (j *sequentialJob) run(q *JobQueue) {
	defer j.cache.release()
	runSequentialMKQ(q, j.cache, j.start, j.end, j.depth, j.cacheDirty, j.target, j.globalBase, j.cfg, j.obs)
}

// runSequentialMKQ is the sequential MKQ step from the spec: an
// iterative, explicit-stack ternary-partition quicksort over 8-byte
// keys, with a work-sharing hand-off to the JobQueue when other
// workers are idle. handle is not retained or released here; the
// caller (sequentialJob.run, or Sort's initial dispatch) owns exactly
// one reference for the lifetime of this call.
func runSequentialMKQ(q *JobQueue, handle *sharedCache, start, end, depth int, cacheDirty bool, target StringSet, globalBase int, cfg Config, obs Observer) {
	cache := handle.records
	stack := []mkqFrame{{a: start, b: end, depth: depth, cacheDirty: cacheDirty}}
	bottom := 0

	for len(stack) > bottom {
		// Donate the oldest pending frame to the job queue whenever a
		// worker is sitting idle. This keeps the hot loop below
		// lock-free the rest of the time: HasIdle is a cheap read.
		if len(stack)-bottom > 1 && q.HasIdle() {
			f := stack[bottom]
			bottom++
			donateFrame(q, handle, f, target, globalBase, cfg, obs)
			continue
		}

		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		children := processFrame(cache, f, target, globalBase, cfg, obs)
		stack = append(stack, children...)
	}
}

// donateFrame hands a pending frame to the global queue as an
// independent sequentialJob sharing the same backing cache array. It
// retains handle on the donor's behalf; the spawned job releases it
// when it returns, exactly like any other holder of the reference.
func donateFrame(q *JobQueue, handle *sharedCache, f mkqFrame, target StringSet, globalBase int, cfg Config, obs Observer) {
	handle.retain()
	size := f.b - f.a
	q.Enqueue(size, func(q *JobQueue) {
		job := &sequentialJob{
			cache:      handle,
			start:      f.a,
			end:        f.b,
			depth:      f.depth,
			cacheDirty: f.cacheDirty,
			target:     target,
			globalBase: globalBase,
			cfg:        cfg,
			obs:        obs,
		}
		job.run(q)
	})
}

// processFrame runs steps 1-6 of the sequential MKQ step on a single
// frame and returns the child frames (zero to three of them)
// still needing recursive work. Frames it fully resolves (leaves, and
// the equal-bucket terminator shortcut) are copied back to target
// before returning.
func processFrame(cache []cacheRecord, f mkqFrame, target StringSet, globalBase int, cfg Config, obs Observer) []mkqFrame {
	recs := cache[f.a:f.b]
	n := len(recs)

	if f.cacheDirty {
		refillKeysAbs(target, recs, f.depth)
	}

	if n <= cfg.InsertionThreshold || n < 9 {
		insertionSortKeys(recs)
		finishRunsByByteCompare(target, recs, f.depth, cfg, obs)
		writeBack(cache, f.a, f.b, target, globalBase)
		return nil
	}

	pivot := medianOfNine(recs)
	moveToFront(recs, pivot)

	// Partition everything but the pivot itself, then fold the pivot
	// back into the equal run: swap it with the last element of the
	// just-computed less-than run, so the final layout in recs is
	// exactly [lt | eq (now including the pivot) | gt].
	ltEndSub, gtStartSub := bmPartition(recs[1:], pivot)
	recs[0], recs[ltEndSub] = recs[ltEndSub], recs[0]

	ltEnd := ltEndSub
	eqEnd := 1 + gtStartSub

	lt := mkqFrame{a: f.a, b: f.a + ltEnd, depth: f.depth, cacheDirty: false}
	eq := mkqFrame{a: f.a + ltEnd, b: f.a + eqEnd, depth: f.depth + 8, cacheDirty: true}
	gt := mkqFrame{a: f.a + eqEnd, b: f.b, depth: f.depth, cacheDirty: false}

	obs.PartitionDone(f.depth, lt.b-lt.a, eq.b-eq.a, gt.b-gt.a)

	var children []mkqFrame
	if lt.b > lt.a {
		children = append(children, lt)
	}
	if eq.b > eq.a {
		if pivot&0xFF == 0 {
			// Every string in the equal bucket already terminates at
			// this depth: they're all identical, no further
			// comparison can distinguish them.
			writeBack(cache, eq.a, eq.b, target, globalBase)
		} else {
			children = append(children, eq)
		}
	}
	if gt.b > gt.a {
		children = append(children, gt)
	}
	return children
}

// finishRunsByByteCompare applies the hybrid insertion-sort policy
// (spec 4.2) to a key-sorted leaf: find maximal runs of equal,
// non-terminating keys and resolve them with a byte-level insertion
// sort at depth+8.
func finishRunsByByteCompare(set StringSet, recs []cacheRecord, depth int, cfg Config, obs Observer) {
	i := 0
	for i < len(recs) {
		j := i + 1
		for j < len(recs) && recs[j].key == recs[i].key {
			j++
		}
		if j-i >= 2 && recs[i].key&0xFF != 0 {
			insertionSortStrings(set, recs[i:j], depth+8)
		}
		i = j
	}
	obs.InsertionSortDone(depth, len(recs))
}

func writeBack(cache []cacheRecord, a, b int, target StringSet, globalBase int) {
	for i := a; i < b; i++ {
		target.Set(globalBase+i, cache[i].ref)
	}
}

func refillKeysAbs(set StringSet, recs []cacheRecord, depth int) {
	for i := range recs {
		recs[i].key = set.Get64(recs[i].ref, depth)
	}
}

// medianOfNine implements the spec's deterministic median-of-nine
// pivot selection: nested median-of-three of medians-of-three sampled
// at nine fixed positions across the range.
func medianOfNine(recs []cacheRecord) uint64 {
	n := len(recs)
	k := func(i int) uint64 { return recs[i].key }
	m1 := med3(k(0), k(n/8), k(n/4))
	m2 := med3(k(n/2-n/8), k(n/2), k(n/2+n/8))
	m3 := med3(k(n-1-n/4), k(n-1-n/8), k(n-3))
	return med3(m1, m2, m3)
}

func med3(a, b, c uint64) uint64 {
	switch {
	case a <= b:
		switch {
		case b <= c:
			return b
		case a <= c:
			return c
		default:
			return a
		}
	default: // b < a
		switch {
		case a <= c:
			return a
		case b <= c:
			return c
		default:
			return b
		}
	}
}

// moveToFront swaps the first record whose key equals pivot into
// slot 0, so partitioning can start walking from index 1 without any
// risk of unsigned underflow at the left edge.
func moveToFront(recs []cacheRecord, pivot uint64) {
	for i := range recs {
		if recs[i].key == pivot {
			recs[0], recs[i] = recs[i], recs[0]
			return
		}
	}
}

// bmPartition is the Bentley-McIlroy three-way partition over recs:
// items less than pivot accumulate at the front, items equal to pivot
// collect at both ends and get swapped into the middle at the end,
// items greater than pivot accumulate at the back. The caller passes
// the range excluding the pivot's own slot (already moved to index 0
// of the parent frame by moveToFront) and folds it back into the
// equal run itself. Returns the end of the less-than run and the
// start of the greater-than run, both relative to recs.
func bmPartition(recs []cacheRecord, pivot uint64) (ltEnd, gtStart int) {
	lo, hi := 0, len(recs)
	a, b, c, d := lo, lo, hi, hi
	for b < c {
		switch {
		case recs[b].key < pivot:
			b++
		case recs[b].key == pivot:
			recs[a], recs[b] = recs[b], recs[a]
			a++
			b++
		case recs[c-1].key > pivot:
			c--
		case recs[c-1].key == pivot:
			recs[c-1], recs[d-1] = recs[d-1], recs[c-1]
			c--
			d--
		default: // recs[b] > pivot, recs[c-1] < pivot
			recs[b], recs[c-1] = recs[c-1], recs[b]
			b++
			c--
		}
	}

	n := min(b-a, a-lo)
	swapRecRange(recs, lo, b-n, n)

	n = min(hi-d, d-c)
	swapRecRange(recs, c, hi-n, n)

	return lo + (b - a), hi - (d - c)
}

func swapRecRange(recs []cacheRecord, i, j, n int) {
	for k := 0; k < n; k++ {
		recs[i+k], recs[j+k] = recs[j+k], recs[i+k]
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
