package pstrsort

import "golang.org/x/exp/slices"

// splitterTree holds S = 2^t-1 splitter keys in implicit heap order
// (slots 1..S, root at 1) plus the per-splitter LCP used to advance
// depth when recursing into the less-than bucket immediately below
// it. Built once by the spawning job, then read-only (spec 4.5 step
// 3, "ownership" note in spec 3).
type splitterTree struct {
	sorted []uint64 // the S splitters, ascending, index 0..S-1
	tree   []uint64 // heap-order layout, index 1..S; tree[0] unused
	lcp    []int    // length S+1; lcp[0] == lcp[S] == 0, lcp[k] for 1<=k<S is
	// the common-prefix byte count between sorted[k-1] and sorted[k]
}

// splitterCount picks S so that the tree plus its 2S+1-entry bucket
// cache fit the configured L2 target, rounded down to 2^t-1 (spec
// 4.5, "splitter-tree leaf sizing").
func splitterCount(l2Hint int) int {
	const wordSize = 8
	best := 1
	for t := 1; ; t++ {
		s := (1 << t) - 1
		footprint := s*8 + (2*s+1)*2*wordSize
		if footprint > l2Hint {
			break
		}
		best = s
	}
	return best
}

// buildSplitters samples O*S keys at depth from set[base:base+n),
// deterministically seeded from cfg.Seed so runs reproduce across
// thread counts, sorts them, and takes equally spaced splitters.
// Adjacent duplicates are nudged forward to the next distinct sample
// so S distinct splitters are produced whenever the data supports it.
func buildSplitters(set StringSet, base, n, depth int, cfg Config, s int) *splitterTree {
	o := cfg.OversampleFactor
	if o < 1 {
		o = 1
	}
	m := o * s
	if m > n {
		m = n
	}
	rng := newSplitMix64(cfg.Seed ^ uint64(depth)<<32 ^ uint64(base))

	samples := make([]uint64, m)
	for i := 0; i < m; i++ {
		pos := base + int(rng.next()%uint64(n))
		samples[i] = set.Get64(set.At(pos), depth)
	}
	slices.Sort(samples)

	sorted := make([]uint64, 0, s)
	prevIdx := 0
	for i := 0; i < s; i++ {
		idx := (i + 1) * m / (s + 1)
		if idx >= m {
			idx = m - 1
		}
		if idx < prevIdx {
			idx = prevIdx // never step back behind an earlier nudge
		}
		for len(sorted) > 0 && samples[idx] == sorted[len(sorted)-1] && idx < m-1 {
			idx++
		}
		sorted = append(sorted, samples[idx])
		prevIdx = idx
	}

	lcp := make([]int, s+1)
	for k := 1; k < s; k++ {
		lcp[k] = leadingZeroBytes(sorted[k-1] ^ sorted[k])
	}

	tree := make([]uint64, s+1)
	var fill func(lo, hi, idx int)
	fill = func(lo, hi, idx int) {
		if lo > hi || idx > s {
			return
		}
		mid := lo + (hi-lo)/2
		tree[idx] = sorted[mid]
		fill(lo, mid-1, 2*idx)
		fill(mid+1, hi, 2*idx+1)
	}
	fill(0, s-1, 1)

	return &splitterTree{sorted: sorted, tree: tree, lcp: lcp}
}

func leadingZeroBytes(x uint64) int {
	n := 0
	for i := 7; i >= 0; i-- {
		if byte(x>>(8*i)) != 0 {
			break
		}
		n++
	}
	return n
}

// classify descends the splitter tree without needing a sorted-array
// binary search: i <- 2i + (key > tree[i]); the exit leaf yields a
// less-than bucket index, promoted to the adjacent equal bucket by
// one final comparison (spec 4.5 step 4).
func (t *splitterTree) classify(key uint64) int {
	s := len(t.sorted)
	i := 1
	for i <= s {
		if key > t.tree[i] {
			i = 2*i + 1
		} else {
			i = 2 * i
		}
	}
	leaf := i - (s + 1)
	if leaf < s && key == t.sorted[leaf] {
		return 2*leaf + 1
	}
	return 2 * leaf
}

func (t *splitterTree) bucketCount() int { return 2*len(t.sorted) + 1 }

// sampleSort runs Super-Scalar Sample-Sort on set[base:base+n),
// recursing until every bucket is sorted; result is written back into
// set in place.
func sampleSort(q *JobQueue, set StringSet, base, n, depth int, cfg Config, obs Observer) {
	if n <= 1 {
		return
	}
	if n < cfg.SamplesortSmallsortThreshold {
		radixSort(q, set, base, n, depth, cfg, obs)
		return
	}

	s := splitterCount(cfg.L2CacheHint)
	for s > n/2 {
		// Halving 2^t-1 gives 2^(t-1)-1, keeping the tree complete.
		s >>= 1
	}
	if s < 1 {
		radixSort(q, set, base, n, depth, cfg, obs)
		return
	}

	tree := buildSplitters(set, base, n, depth, cfg, s)
	bktnum := tree.bucketCount()

	bkt := make([]int, n)
	sizes := make([]int, bktnum)
	for i := 0; i < n; i++ {
		key := set.Get64(set.At(base+i), depth)
		b := tree.classify(key)
		bkt[i] = b
		sizes[b]++
	}
	obs.ClassifyDone(depth, sizes)

	boundary := make([]int, bktnum+1)
	for b := 0; b < bktnum; b++ {
		boundary[b+1] = boundary[b] + sizes[b]
	}

	permuteByBucket(set, base, bkt, boundary)

	for b := 0; b < bktnum; b++ {
		lo, hi := boundary[b], boundary[b+1]
		size := hi - lo
		if size <= 1 {
			continue
		}
		if b%2 == 0 {
			k := b / 2
			recurseSampleSort(q, set, base+lo, size, depth+tree.lcp[k], cfg, obs)
		} else {
			k := b / 2
			if tree.sorted[k]&0xFF == 0 {
				continue
			}
			recurseSampleSort(q, set, base+lo, size, depth+8, cfg, obs)
		}
	}
}

// permuteByBucket applies the bucket assignment in bkt to
// set[base:base+boundary[bktnum]) in place, the way 4.5 step 7
// describes: resolve one bucket's span at a time. Within a bucket's
// span, a slot whose occupant already belongs there is left alone and
// the scan moves on; a slot whose occupant belongs elsewhere is
// swapped directly into that bucket's next free write position, and
// the (now different) occupant of the original slot is re-examined in
// its place. Once a bucket's span is fully its own, the scan advances
// past it whole rather than revisiting slots a closed cycle already
// settled.
func permuteByBucket(set StringSet, base int, bkt []int, boundary []int) {
	bktnum := len(boundary) - 1
	dest := append([]int{}, boundary[:bktnum]...)
	for b := 0; b < bktnum; b++ {
		for dest[b] < boundary[b+1] {
			p := dest[b]
			cb := bkt[p]
			if cb == b {
				dest[b]++
				continue
			}
			target := dest[cb]
			dest[cb]++
			rp := set.At(base + p)
			rt := set.At(base + target)
			set.Set(base+p, rt)
			set.Set(base+target, rp)
			bkt[p], bkt[target] = bkt[target], bkt[p]
		}
	}
}

// recurseSampleSort hands a bucket to the job queue if it's large
// enough to be worth the dispatch overhead, running it directly
// otherwise. If q is nil, every recursive call just runs inline.
func recurseSampleSort(q *JobQueue, set StringSet, base, n, depth int, cfg Config, obs Observer) {
	if q == nil || n < sequentialThreshold(n, cfg) {
		sampleSort(q, set, base, n, depth, cfg, obs)
		return
	}
	q.Enqueue(n, func(q *JobQueue) {
		sampleSort(q, set, base, n, depth, cfg, obs)
	})
}

// splitMix64 is a tiny deterministic PRNG used only for splitter
// sampling; it exists so Config.Seed alone determines which keys get
// sampled, independent of goroutine scheduling order.
type splitMix64 struct{ state uint64 }

func newSplitMix64(seed uint64) *splitMix64 { return &splitMix64{state: seed} }

func (r *splitMix64) next() uint64 {
	r.state += 0x9e3779b97f4a7c15
	z := r.state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
