package pstrsort

import "sync"

// cacheRecord is the (key, string reference) pair that moves through
// partitioning and classification instead of touching the byte heap
// directly. Its key is the 8-byte superalphabet window at whatever
// depth the owning job is currently working at; see cacheDirty below
// for when that key must be recomputed before use.
type cacheRecord struct {
	key uint64
	ref StringRef
}

// cacheBlock is a fixed-capacity batch of cacheRecords, the unit of
// transfer between parallel partition workers. A block is owned
// exclusively by one partitioner or one queue at a time.
type cacheBlock struct {
	records []cacheRecord // len is the current fill, cap is the configured block size
}

func newCacheBlock(capacity int) *cacheBlock {
	return &cacheBlock{records: make([]cacheRecord, 0, capacity)}
}

func (b *cacheBlock) full() bool { return len(b.records) == cap(b.records) }

func (b *cacheBlock) empty() bool { return len(b.records) == 0 }

func (b *cacheBlock) push(r cacheRecord) { b.records = append(b.records, r) }

// blockQueue is a FIFO queue of *cacheBlock safe for concurrent push
// from many partition workers and drain by a single consumer (the
// recursion phase, or a spawned SequentialJob). The corpus this
// module is grounded on realizes its MPMC queues with a mutex-guarded
// slice rather than hand-rolled lock-free CAS loops (see thread_pool.go's
// channel-based job queue); this queue follows the same idiom — the
// correctness contract the spec cares about (safe concurrent push,
// tolerant drain) holds regardless of whether the implementation is
// lock-free or merely lock-protected.
type blockQueue struct {
	mu     sync.Mutex
	blocks []*cacheBlock
}

func newBlockQueue() *blockQueue {
	return &blockQueue{}
}

func (q *blockQueue) push(b *cacheBlock) {
	q.mu.Lock()
	q.blocks = append(q.blocks, b)
	q.mu.Unlock()
}

// tryPop removes and returns the oldest block, or (nil, false) if the
// queue is currently empty.
func (q *blockQueue) tryPop() (*cacheBlock, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.blocks) == 0 {
		return nil, false
	}
	b := q.blocks[0]
	q.blocks = q.blocks[1:]
	return b, true
}

func (q *blockQueue) drainAll() []*cacheBlock {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.blocks
	q.blocks = nil
	return out
}

func (q *blockQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.blocks)
}

// pivotQueue collects one candidate pivot key per output block, drained
// by the recursive step that consumes that block's queue to build its
// own median-of-nine sample.
type pivotQueue struct {
	mu   sync.Mutex
	keys []uint64
}

func newPivotQueue() *pivotQueue { return &pivotQueue{} }

func (q *pivotQueue) push(k uint64) {
	q.mu.Lock()
	q.keys = append(q.keys, k)
	q.mu.Unlock()
}

func (q *pivotQueue) drainAll() []uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.keys
	q.keys = nil
	return out
}

// sharedCache is a reference-counted handle to a cache-record buffer
// shared between sibling jobs after a work-sharing hand-off splits a
// single SequentialJob's stack frame into independent jobs. The last
// holder to release it drops the backing slice.
type sharedCache struct {
	mu       sync.Mutex
	refcount int
	records  []cacheRecord
}

func newSharedCache(records []cacheRecord) *sharedCache {
	return &sharedCache{refcount: 1, records: records}
}

func (s *sharedCache) retain() {
	s.mu.Lock()
	s.refcount++
	s.mu.Unlock()
}

func (s *sharedCache) release() {
	s.mu.Lock()
	s.refcount--
	done := s.refcount == 0
	s.mu.Unlock()
	if done {
		s.records = nil
	}
}
