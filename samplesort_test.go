package pstrsort

import (
	"math/rand"
	"testing"
)

func TestSplitterCountRespectsL2Hint(t *testing.T) {
	small := splitterCount(64)
	large := splitterCount(256 * 1024)
	if small < 1 {
		t.Fatalf("splitterCount(64) = %d, want >= 1", small)
	}
	if large <= small {
		t.Fatalf("splitterCount(256Ki) = %d, want > splitterCount(64) = %d", large, small)
	}
	// 2^t - 1 for some t.
	if (large+1)&large != 0 {
		t.Fatalf("splitterCount(256Ki) = %d is not of the form 2^t-1", large)
	}
}

func TestBuildSplittersProducesSortedDistinctSplitters(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	strs := make([]string, 2000)
	for i := range strs {
		strs[i] = randomString(rng, 1, 20, "abcdefgh")
	}
	h, set := buildHeap(strs)
	_ = h
	cfg := DefaultConfig()
	cfg.OversampleFactor = 3
	tree := buildSplitters(set, 0, set.Size(), 0, cfg, 15)
	for i := 1; i < len(tree.sorted); i++ {
		if tree.sorted[i] <= tree.sorted[i-1] {
			t.Fatalf("splitters not sorted and distinct at %d: %d <= %d", i, tree.sorted[i], tree.sorted[i-1])
		}
	}
}

func TestSplitterTreeClassifyMatchesBoundaries(t *testing.T) {
	sorted := []uint64{10, 20, 30}
	lcp := make([]int, len(sorted)+1)
	tree := &splitterTree{sorted: sorted}
	tree.tree = make([]uint64, len(sorted)+1)
	var fill func(lo, hi, idx int)
	fill = func(lo, hi, idx int) {
		if lo > hi {
			return
		}
		mid := lo + (hi-lo)/2
		tree.tree[idx] = sorted[mid]
		fill(lo, mid-1, 2*idx)
		fill(mid+1, hi, 2*idx+1)
	}
	fill(0, len(sorted)-1, 1)
	tree.lcp = lcp

	cases := []struct {
		key  uint64
		want int
	}{
		{5, 0},   // < 10            -> lt bucket 0
		{10, 1},  // == splitter[0]  -> eq bucket 1
		{15, 2},  // between 10, 20  -> lt bucket 1 (index 2)
		{20, 3},  // == splitter[1]  -> eq bucket 3
		{25, 4},  // between 20, 30  -> lt bucket 2 (index 4)
		{30, 5},  // == splitter[2]  -> eq bucket 5
		{99, 6},  // > all splitters -> lt bucket 3 (index 6)
	}
	for _, c := range cases {
		if got := tree.classify(c.key); got != c.want {
			t.Errorf("classify(%d) = %d, want %d", c.key, got, c.want)
		}
	}
}

func TestPermuteByBucketGroupsElementsCorrectly(t *testing.T) {
	strs := []string{"c", "a", "b", "c", "a", "b", "a"}
	h, set := buildHeap(strs)
	bkt := []int{2, 0, 1, 2, 0, 1, 0}
	sizes := [3]int{0, 0, 0}
	for _, b := range bkt {
		sizes[b]++
	}
	boundary := []int{0, sizes[0], sizes[0] + sizes[1], len(strs)}
	permuteByBucket(set, 0, append([]int{}, bkt...), boundary)

	for i := 0; i < sizes[0]; i++ {
		if s := string(h.Bytes(set.At(i))); s != "a" {
			t.Fatalf("index %d: got %q, want bucket 0 (\"a\")", i, s)
		}
	}
	for i := sizes[0]; i < sizes[0]+sizes[1]; i++ {
		if s := string(h.Bytes(set.At(i))); s != "b" {
			t.Fatalf("index %d: got %q, want bucket 1 (\"b\")", i, s)
		}
	}
	for i := sizes[0] + sizes[1]; i < len(strs); i++ {
		if s := string(h.Bytes(set.At(i))); s != "c" {
			t.Fatalf("index %d: got %q, want bucket 2 (\"c\")", i, s)
		}
	}
}

func TestSampleSortSortsLargeRandomInput(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	strs := make([]string, 20000)
	for i := range strs {
		strs[i] = randomString(rng, 1, 12, "abcdefghijklmnop")
	}
	h, set := buildHeap(strs)
	cfg := DefaultConfig()
	cfg.SamplesortSmallsortThreshold = 256
	cfg.L2CacheHint = 4096

	q := NewJobQueue(1)
	q.Enqueue(set.Size(), func(q *JobQueue) {
		sampleSort(q, set, 0, set.Size(), 0, cfg, nopObserver{})
	})
	if err := q.Loop(); err != nil {
		t.Fatalf("Loop() returned error: %v", err)
	}
	assertSorted(t, h, set, strs)
}

func TestSampleSortAllEqualStrings(t *testing.T) {
	strs := make([]string, 5000)
	for i := range strs {
		strs[i] = "identical"
	}
	h, set := buildHeap(strs)
	cfg := DefaultConfig()
	cfg.SamplesortSmallsortThreshold = 64
	cfg.L2CacheHint = 4096

	q := NewJobQueue(1)
	q.Enqueue(set.Size(), func(q *JobQueue) {
		sampleSort(q, set, 0, set.Size(), 0, cfg, nopObserver{})
	})
	if err := q.Loop(); err != nil {
		t.Fatalf("Loop() returned error: %v", err)
	}
	assertSorted(t, h, set, strs)
}

func randomString(rng *rand.Rand, minLen, maxLen int, alphabet string) string {
	n := minLen + rng.Intn(maxLen-minLen+1)
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = alphabet[rng.Intn(len(alphabet))]
	}
	return string(buf)
}
