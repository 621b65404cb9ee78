package pstrsort

// Sort sorts strings in place by the bytes each StringRef refers to,
// starting comparisons at startDepth bytes into every string (pass 0
// to sort from the beginning). It does not preserve the relative
// order of equal strings.
//
// Sort returns ErrEmptyKeyWindow if strings is nil or startDepth is
// negative, before any goroutines are spawned. A panic inside a
// worker goroutine (e.g. an allocation failure building a block or
// bucket-count array) is recovered by the job queue and returned here
// wrapped as a *SortPanic instead of crashing the process; the
// StringSet's contents are left in an unspecified state in that case.
func Sort(strings StringSet, startDepth int, cfg Config) error {
	if strings == nil || startDepth < 0 {
		return ErrEmptyKeyWindow
	}
	cfg = cfg.withDefaults()
	obs := observerOf(cfg)

	n := strings.Size()
	if n <= 1 {
		return nil
	}

	q := NewJobQueue(cfg.Threads)

	if cfg.Threads == 1 {
		// Skip algorithm selection: run the sequential MKQ step over
		// the whole set as a single job on the one-worker queue.
		records := make([]cacheRecord, n)
		for i := 0; i < n; i++ {
			ref := strings.At(i)
			records[i] = cacheRecord{key: strings.Get64(ref, startDepth), ref: ref}
		}
		handle := newSharedCache(records)
		q.Enqueue(n, func(q *JobQueue) {
			defer handle.release()
			runSequentialMKQ(q, handle, 0, n, startDepth, false, strings, 0, cfg, obs)
		})
		return q.Loop()
	}

	dispatchTopLevel(q, strings, startDepth, n, cfg, obs)
	return q.Loop()
}

// dispatchTopLevel picks the initial algorithm per Config.Algorithm
// (or the Auto policy) and enqueues the first job(s).
func dispatchTopLevel(q *JobQueue, strings StringSet, depth, n int, cfg Config, obs Observer) {
	if n <= cfg.InsertionThreshold || n < 9 {
		q.Enqueue(n, func(q *JobQueue) {
			sortWholeWithInsertion(strings, n, depth, cfg, obs)
		})
		return
	}

	algo := cfg.Algorithm
	if algo == AlgorithmAuto {
		if n < cfg.SamplesortSmallsortThreshold {
			q.Enqueue(n, func(q *JobQueue) {
				radixSort(q, strings, 0, n, depth, cfg, obs)
			})
			return
		}
		if n >= cfg.SampleSortMinSize {
			algo = AlgorithmSampleSort
		} else {
			algo = AlgorithmPMKQ
		}
	}

	switch algo {
	case AlgorithmSampleSort:
		q.Enqueue(n, func(q *JobQueue) {
			sampleSort(q, strings, 0, n, depth, cfg, obs)
		})
	default:
		dispatchParallelMKQ(q, strings, 0, n, depth, strings, 0, cfg, obs)
	}
}

func sortWholeWithInsertion(strings StringSet, n, depth int, cfg Config, obs Observer) {
	records := make([]cacheRecord, n)
	for i := 0; i < n; i++ {
		ref := strings.At(i)
		records[i] = cacheRecord{key: strings.Get64(ref, depth), ref: ref}
	}
	insertionSortKeys(records)
	finishRunsByByteCompare(strings, records, depth, cfg, obs)
	for i, r := range records {
		strings.Set(i, r.ref)
	}
}
