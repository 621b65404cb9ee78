package pstrsort

import (
	"math/rand"
	"reflect"
	"sort"
	"testing"
)

func TestSortEmptyAndSingleton(t *testing.T) {
	h := NewStringHeap(0)
	if err := Sort(h, 0, DefaultConfig()); err != nil {
		t.Fatalf("Sort(empty) returned %v", err)
	}

	h2 := NewStringHeap(1)
	h2.AppendString("only")
	if err := Sort(h2, 0, DefaultConfig()); err != nil {
		t.Fatalf("Sort(singleton) returned %v", err)
	}
	if got := string(h2.Bytes(h2.At(0))); got != "only" {
		t.Fatalf("singleton mutated: got %q", got)
	}
}

func TestSortRejectsInvalidInput(t *testing.T) {
	if err := Sort(nil, 0, DefaultConfig()); err != ErrEmptyKeyWindow {
		t.Fatalf("Sort(nil) = %v, want ErrEmptyKeyWindow", err)
	}
	h := NewStringHeap(1)
	h.AppendString("x")
	if err := Sort(h, -1, DefaultConfig()); err != ErrEmptyKeyWindow {
		t.Fatalf("Sort(startDepth=-1) = %v, want ErrEmptyKeyWindow", err)
	}
}

func TestSortAllEqualStrings(t *testing.T) {
	strs := make([]string, 2000)
	for i := range strs {
		strs[i] = "duplicate"
	}
	h, set := buildHeap(strs)
	if err := Sort(set, 0, DefaultConfig()); err != nil {
		t.Fatalf("Sort returned %v", err)
	}
	assertSorted(t, h, set, strs)
}

func TestSortShortStringsAcrossBucketBoundary(t *testing.T) {
	// Deliberately mix zero-, one-, and multi-byte strings so the
	// 8-byte key window's zero-padding and the S5 terminator-bucket
	// shortcut both get exercised.
	// Nine strings, a tiny insertion threshold and more than one thread
	// keep Sort off its insertion-sort and sequential-MKQ paths.
	strs := []string{"", "a", "ab", "b", "", "abc", "a", "z", "ab"}
	h, set := buildHeap(strs)
	cfg := DefaultConfig()
	cfg.InsertionThreshold = 1
	cfg.Threads = 2
	cfg.SamplesortSmallsortThreshold = 1
	cfg.SampleSortMinSize = 1
	cfg.Algorithm = AlgorithmSampleSort
	if err := Sort(set, 0, cfg); err != nil {
		t.Fatalf("Sort returned %v", err)
	}
	assertSorted(t, h, set, strs)
}

func TestSortAdversarialReverseSorted(t *testing.T) {
	n := 5000
	strs := make([]string, n)
	for i := range strs {
		strs[i] = string(rune('a' + (n-i)%26))
	}
	h, set := buildHeap(strs)
	cfg := DefaultConfig()
	cfg.Algorithm = AlgorithmPMKQ
	if err := Sort(set, 0, cfg); err != nil {
		t.Fatalf("Sort returned %v", err)
	}
	assertSorted(t, h, set, strs)
}

func TestSortPropertyAcrossThreadCounts(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	strs := make([]string, 10000)
	for i := range strs {
		strs[i] = randomString(rng, 0, 24, "abcdefghijklmnopqrstuvwxyz")
	}

	for _, threads := range []int{1, 2, 4, 8} {
		strsCopy := append([]string{}, strs...)
		h, set := buildHeap(strsCopy)
		cfg := DefaultConfig()
		cfg.Threads = threads
		cfg.Seed = 12345
		if err := Sort(set, 0, cfg); err != nil {
			t.Fatalf("threads=%d: Sort returned %v", threads, err)
		}
		assertSorted(t, h, set, strs)
	}
}

func TestSortDeterministicForFixedSeed(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	strs := make([]string, 8000)
	for i := range strs {
		strs[i] = randomString(rng, 0, 16, "abc")
	}

	run := func(threads int) []string {
		strsCopy := append([]string{}, strs...)
		h, set := buildHeap(strsCopy)
		cfg := DefaultConfig()
		cfg.Threads = threads
		cfg.Seed = 999
		if err := Sort(set, 0, cfg); err != nil {
			t.Fatalf("threads=%d: Sort returned %v", threads, err)
		}
		out := make([]string, set.Size())
		for i := range out {
			out[i] = string(h.Bytes(set.At(i)))
		}
		return out
	}

	a := run(1)
	b := run(4)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("sorted output differs across thread counts for a fixed seed")
	}

	want := append([]string{}, strs...)
	sort.Strings(want)
	if !reflect.DeepEqual(a, want) {
		t.Fatalf("sorted output does not match sort.Strings baseline")
	}
}

func TestSortAlgorithmAutoMatchesExplicitChoices(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	strs := make([]string, 3000)
	for i := range strs {
		strs[i] = randomString(rng, 1, 20, "abcdefgh")
	}

	for _, algo := range []Algorithm{AlgorithmAuto, AlgorithmPMKQ, AlgorithmSampleSort} {
		strsCopy := append([]string{}, strs...)
		h, set := buildHeap(strsCopy)
		cfg := DefaultConfig()
		cfg.Algorithm = algo
		cfg.SamplesortSmallsortThreshold = 100
		cfg.SampleSortMinSize = 500
		if err := Sort(set, 0, cfg); err != nil {
			t.Fatalf("algorithm=%v: Sort returned %v", algo, err)
		}
		assertSorted(t, h, set, strs)
	}
}

func TestSortStartDepthSkipsCommonPrefix(t *testing.T) {
	strs := []string{"XXbanana", "XXapple", "XXcherry"}
	h, set := buildHeap(strs)
	if err := Sort(set, 2, DefaultConfig()); err != nil {
		t.Fatalf("Sort returned %v", err)
	}
	assertSorted(t, h, set, strs)
}
