package pstrsort

import (
	"math/rand"
	"testing"
)

func TestRadixSortRandomStrings(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	strs := make([]string, 3000)
	for i := range strs {
		strs[i] = randomString(rng, 0, 15, "abcdefghij")
	}
	h, set := buildHeap(strs)
	cfg := DefaultConfig()
	cfg.InsertionThreshold = 20

	q := NewJobQueue(1)
	q.Enqueue(set.Size(), func(q *JobQueue) {
		radixSort(q, set, 0, set.Size(), 0, cfg, nopObserver{})
	})
	if err := q.Loop(); err != nil {
		t.Fatalf("Loop() returned error: %v", err)
	}
	assertSorted(t, h, set, strs)
}

func TestRadixSortHandlesEmptyStringsAtFront(t *testing.T) {
	strs := []string{"banana", "", "apple", "", "cherry"}
	h, set := buildHeap(strs)
	cfg := DefaultConfig()
	cfg.InsertionThreshold = 4

	q := NewJobQueue(1)
	q.Enqueue(set.Size(), func(q *JobQueue) {
		radixSort(q, set, 0, set.Size(), 0, cfg, nopObserver{})
	})
	if err := q.Loop(); err != nil {
		t.Fatalf("Loop() returned error: %v", err)
	}
	assertSorted(t, h, set, strs)
}

func TestRadixSortBelowInsertionThresholdFallsBack(t *testing.T) {
	strs := []string{"d", "b", "c", "a"}
	h, set := buildHeap(strs)
	cfg := DefaultConfig()
	cfg.InsertionThreshold = 10

	q := NewJobQueue(1)
	q.Enqueue(set.Size(), func(q *JobQueue) {
		radixSort(q, set, 0, set.Size(), 0, cfg, nopObserver{})
	})
	if err := q.Loop(); err != nil {
		t.Fatalf("Loop() returned error: %v", err)
	}
	assertSorted(t, h, set, strs)
}

func TestByteAtZeroPastStringEnd(t *testing.T) {
	h := NewStringHeap(1)
	ref := h.AppendString("ab")
	if b := byteAt(h, ref, 5); b != 0 {
		t.Fatalf("byteAt past end = %d, want 0", b)
	}
	if b := byteAt(h, ref, 0); b != 'a' {
		t.Fatalf("byteAt(0) = %q, want 'a'", b)
	}
}
