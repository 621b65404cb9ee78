package pstrsort

import "sync/atomic"

// blockSource yields the next block of cacheRecords for a partition
// worker to consume, or (nil, false) once exhausted. Safe for
// concurrent use by every worker of a single parallelPartitionJob.
type blockSource func() (*cacheBlock, bool)

// newInputBlockSource reserves B-sized chunks directly from a live
// StringSet range, reading each record's key fresh at depth. This is
// the "input source" of 4.4: the first partition pass over a subset
// that hasn't been touched yet.
func newInputBlockSource(set StringSet, base, total, depth, blockSize int) blockSource {
	var cursor int64
	return func() (*cacheBlock, bool) {
		start := int(atomic.AddInt64(&cursor, int64(blockSize))) - blockSize
		if start >= total {
			return nil, false
		}
		end := start + blockSize
		if end > total {
			end = total
		}
		b := newCacheBlock(end - start)
		for i := start; i < end; i++ {
			ref := set.At(base + i)
			b.push(cacheRecord{key: set.Get64(ref, depth), ref: ref})
		}
		return b, true
	}
}

// newQueueBlockSource drains a parent partition job's output queue
// as-is. Used for the lt/gt recursion branches, whose keys are still
// valid at the child's depth (the "queue source, keys stale" case of
// 4.4 — stale here means unchanged, not invalid).
func newQueueBlockSource(bq *blockQueue) blockSource {
	return func() (*cacheBlock, bool) {
		return bq.tryPop()
	}
}

// newArrayBlockSource slices a flat, already-keyed record buffer into
// blockSize chunks. Used for the eq-bucket recursion branch once its
// keys have been eagerly refilled at depth+8: see dispatchQueueBucket.
func newArrayBlockSource(records []cacheRecord, blockSize int) blockSource {
	var cursor int64
	n := len(records)
	return func() (*cacheBlock, bool) {
		start := int(atomic.AddInt64(&cursor, int64(blockSize))) - blockSize
		if start >= n {
			return nil, false
		}
		end := start + blockSize
		if end > n {
			end = n
		}
		b := newCacheBlock(end - start)
		b.records = append(b.records, records[start:end]...)
		return b, true
	}
}

// selectPivotFromStringSet implements the input-source pivot
// selection of 4.4: a direct median-of-nine sample read from the live
// StringSet, identical in shape to the sequential step's own sampling
// but addressed by absolute index instead of a local cache slice.
func selectPivotFromStringSet(set StringSet, base, n, depth int) uint64 {
	k := func(i int) uint64 { return set.Get64(set.At(base+i), depth) }
	m1 := med3(k(0), k(n/8), k(n/4))
	m2 := med3(k(n/2-n/8), k(n/2), k(n/2+n/8))
	m3 := med3(k(n-1-n/4), k(n-1-n/8), k(n-3))
	return med3(m1, m2, m3)
}

// selectPivotFromQueue implements the queue-source pivot selection of
// 4.4: each parent block contributed its mid-block key, and the child
// step takes the median of those samples instead of re-reading the
// StringSet.
func selectPivotFromQueue(pq *pivotQueue) uint64 {
	keys := pq.drainAll()
	if len(keys) == 0 {
		return 0
	}
	insertionSortUint64(keys)
	return keys[len(keys)/2]
}

func insertionSortUint64(keys []uint64) {
	for i := 1; i < len(keys); i++ {
		cur := keys[i]
		j := i - 1
		for j >= 0 && keys[j] > cur {
			keys[j+1] = keys[j]
			j--
		}
		keys[j+1] = cur
	}
}

func medianOfNineOrMid(recs []cacheRecord) uint64 {
	if len(recs) >= 9 {
		return medianOfNine(recs)
	}
	return recs[len(recs)/2].key
}

// sequentialThreshold is 4.4's sequential_threshold := max(T, n/P),
// evaluated against whichever subset is currently being considered
// for a sequential vs. parallel recursive step.
func sequentialThreshold(n int, cfg Config) int {
	t := cfg.InsertionThreshold
	if cfg.Threads > 0 {
		if alt := n / cfg.Threads; alt > t {
			t = alt
		}
	}
	if t < 1 {
		t = 1
	}
	return t
}

// parallelPartitionJob is one three-way block-streaming partition
// pass over n records around a single pivot, per 4.4. Multiple
// workers share source and the three output queues; the last worker
// to finish (pwork reaching zero) runs the recursion phase.
type parallelPartitionJob struct {
	source blockSource
	pivot  uint64
	depth  int
	n      int

	target     StringSet
	globalBase int
	cfg        Config
	obs        Observer

	ltQueue, eqQueue, gtQueue *blockQueue
	ltPivots, gtPivots        *pivotQueue

	countLT int64
	countEQ int64
	pwork   int64
}

// spawnParallelPartitionJob enqueues procs := max(1, n/sequential_threshold)
// partition workers sharing one parallelPartitionJob.
func spawnParallelPartitionJob(q *JobQueue, source blockSource, pivot uint64, depth, n int, target StringSet, globalBase int, cfg Config, obs Observer) {
	j := &parallelPartitionJob{
		source:     source,
		pivot:      pivot,
		depth:      depth,
		n:          n,
		target:     target,
		globalBase: globalBase,
		cfg:        cfg,
		obs:        obs,
		ltQueue:    newBlockQueue(),
		eqQueue:    newBlockQueue(),
		gtQueue:    newBlockQueue(),
		ltPivots:   newPivotQueue(),
		gtPivots:   newPivotQueue(),
	}

	procs := n / sequentialThreshold(n, cfg)
	if procs < 1 {
		procs = 1
	}
	j.pwork = int64(procs)
	for i := 0; i < procs; i++ {
		q.Enqueue(n/procs, func(q *JobQueue) { j.runWorker(q) })
	}
}

// runWorker is one partition worker: pull blocks from source until
// exhausted, routing each record to lt/eq/gt according to pivot, and
// flush full output blocks (plus a mid-block pivot sample for lt/gt)
// to the matching queue as they fill.
func (j *parallelPartitionJob) runWorker(q *JobQueue) {
	blockSize := j.cfg.BlockSize
	lt := newCacheBlock(blockSize)
	eq := newCacheBlock(blockSize)
	gt := newCacheBlock(blockSize)

	flushLT := func() {
		if lt.empty() {
			return
		}
		j.ltPivots.push(lt.records[len(lt.records)/2].key)
		atomic.AddInt64(&j.countLT, int64(len(lt.records)))
		j.ltQueue.push(lt)
		lt = newCacheBlock(blockSize)
	}
	flushEQ := func() {
		if eq.empty() {
			return
		}
		atomic.AddInt64(&j.countEQ, int64(len(eq.records)))
		j.eqQueue.push(eq)
		eq = newCacheBlock(blockSize)
	}
	flushGT := func() {
		if gt.empty() {
			return
		}
		j.gtPivots.push(gt.records[len(gt.records)/2].key)
		j.gtQueue.push(gt)
		gt = newCacheBlock(blockSize)
	}

	for {
		in, ok := j.source()
		if !ok {
			break
		}
		for _, r := range in.records {
			switch {
			case r.key < j.pivot:
				lt.push(r)
				if lt.full() {
					flushLT()
				}
			case r.key == j.pivot:
				eq.push(r)
				if eq.full() {
					flushEQ()
				}
			default:
				gt.push(r)
				if gt.full() {
					flushGT()
				}
			}
		}
	}
	flushLT()
	flushEQ()
	flushGT()

	if atomic.AddInt64(&j.pwork, -1) == 0 {
		j.recurse(q)
	}
}

// recurse implements 4.4's recursion phase: compute final bucket
// sizes from the atomic counters, report them, then dispatch each of
// the three buckets to either a SequentialJob or a new recursive
// parallelPartitionJob, per bucket size.
func (j *parallelPartitionJob) recurse(q *JobQueue) {
	countLT := int(atomic.LoadInt64(&j.countLT))
	countEQ := int(atomic.LoadInt64(&j.countEQ))
	countGT := j.n - countLT - countEQ

	j.obs.PartitionDone(j.depth, countLT, countEQ, countGT)

	ltBase := j.globalBase
	eqBase := ltBase + countLT
	gtBase := eqBase + countEQ

	dispatchQueueBucket(q, j.ltQueue, j.ltPivots, countLT, j.depth, ltBase, false, j.target, j.cfg, j.obs)

	if countEQ > 0 {
		if j.pivot&0xFF == 0 {
			// Every string in this bucket already terminates at depth:
			// they're identical, order among them doesn't matter.
			writeBackBlocks(j.eqQueue.drainAll(), j.target, eqBase)
		} else {
			dispatchQueueBucket(q, j.eqQueue, nil, countEQ, j.depth+8, eqBase, true, j.target, j.cfg, j.obs)
		}
	}

	dispatchQueueBucket(q, j.gtQueue, j.gtPivots, countGT, j.depth, gtBase, false, j.target, j.cfg, j.obs)
}

// dispatchQueueBucket routes one of the three output buckets from a
// finished partition pass to either a sequential finish (count below
// threshold) or a further parallel partition (count above). pivots is
// nil for the eq-bucket branch, whose keys need refreshing before a
// further parallel pass rather than reusing stale mid-block samples.
func dispatchQueueBucket(q *JobQueue, bq *blockQueue, pivots *pivotQueue, count, depth, base int, cacheDirty bool, target StringSet, cfg Config, obs Observer) {
	if count == 0 {
		return
	}

	if count <= sequentialThreshold(count, cfg) {
		records := drainQueueToRecords(bq)
		handle := newSharedCache(records)
		q.Enqueue(count, func(q *JobQueue) {
			defer handle.release()
			runSequentialMKQ(q, handle, 0, len(records), depth, cacheDirty, target, base, cfg, obs)
		})
		return
	}

	var source blockSource
	var pivot uint64
	if pivots != nil {
		source = newQueueBlockSource(bq)
		pivot = selectPivotFromQueue(pivots)
	} else {
		records := drainQueueToRecords(bq)
		refillKeysAbs(target, records, depth)
		pivot = medianOfNineOrMid(records)
		source = newArrayBlockSource(records, cfg.BlockSize)
	}
	spawnParallelPartitionJob(q, source, pivot, depth, count, target, base, cfg, obs)
}

func drainQueueToRecords(bq *blockQueue) []cacheRecord {
	blocks := bq.drainAll()
	n := 0
	for _, b := range blocks {
		n += len(b.records)
	}
	out := make([]cacheRecord, 0, n)
	for _, b := range blocks {
		out = append(out, b.records...)
	}
	return out
}

func writeBackBlocks(blocks []*cacheBlock, target StringSet, base int) {
	i := 0
	for _, b := range blocks {
		for _, r := range b.records {
			target.Set(base+i, r.ref)
			i++
		}
	}
}

// dispatchParallelMKQ is the top-level entry into 4.4: build an input
// block source over strings[base:base+n), pick its pivot directly
// from the StringSet, and spawn the first partition pass.
func dispatchParallelMKQ(q *JobQueue, set StringSet, base, n, depth int, target StringSet, globalBase int, cfg Config, obs Observer) {
	pivot := selectPivotFromStringSet(set, base, n, depth)
	source := newInputBlockSource(set, base, n, depth, cfg.BlockSize)
	spawnParallelPartitionJob(q, source, pivot, depth, n, target, globalBase, cfg, obs)
}
