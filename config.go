package pstrsort

import "runtime"

// Algorithm selects which top-level sorting strategy the driver uses.
type Algorithm int

const (
	// AlgorithmAuto picks PMKQ or S5 based on input size. This is the
	// default.
	AlgorithmAuto Algorithm = iota
	// AlgorithmPMKQ forces parallel multikey quicksort.
	AlgorithmPMKQ
	// AlgorithmSampleSort forces super-scalar sample sort.
	AlgorithmSampleSort
)

// Config collects the tunable knobs the sorting core recognises. Use
// DefaultConfig to obtain sensible defaults and override individual
// fields.
type Config struct {
	// InsertionThreshold is the subrange length at or below which the
	// engine falls back to insertion sort instead of partitioning or
	// classifying further. Default 32.
	InsertionThreshold int

	// SamplesortSmallsortThreshold is the subrange length below which
	// S5 falls back to MSD radix sort rather than building a splitter
	// tree. Default 1024.
	SamplesortSmallsortThreshold int

	// SampleSortMinSize is the input size at or above which
	// AlgorithmAuto prefers S5 over PMKQ. Default 65536.
	SampleSortMinSize int

	// BlockSize is the capacity, in records, of a single cache block
	// exchanged between parallel partition workers. Default 128*1024.
	BlockSize int

	// L2CacheHint sizes the S5 splitter tree so that it (plus its
	// bucket-count array) fits comfortably in L2 cache. Default is
	// the detected L2 size, or 256*1024 if detection fails.
	L2CacheHint int

	// Threads is the number of worker goroutines used by the job
	// queue. Default runtime.GOMAXPROCS(0).
	Threads int

	// OversampleFactor controls how many candidate splitter keys S5
	// samples per splitter actually chosen. Default 2.
	OversampleFactor int

	// Algorithm selects PMKQ, S5, or automatic selection. Sort ignores
	// it when Threads is 1 (the sequential MKQ step always runs) and
	// for inputs small enough for insertion sort.
	Algorithm Algorithm

	// Seed initializes the deterministic PRNG used by S5's splitter
	// sampling, so that a Sort call with a fixed Seed produces
	// bit-identical output across runs and thread counts. Default is
	// a fixed constant (not randomized) so the zero Config is already
	// reproducible.
	Seed uint64

	// Observer, if non-nil, receives notifications about partition,
	// classification, and leaf-sort events as the sort progresses.
	Observer Observer
}

const defaultSeed = 0x9e3779b97f4a7c15

// DefaultConfig returns the engine's default configuration.
func DefaultConfig() Config {
	return Config{
		InsertionThreshold:           32,
		SamplesortSmallsortThreshold: 1024,
		SampleSortMinSize:            64 * 1024,
		BlockSize:                    128 * 1024,
		L2CacheHint:                  detectL2CacheHint(),
		Threads:                      runtime.GOMAXPROCS(0),
		OversampleFactor:             2,
		Algorithm:                    AlgorithmAuto,
		Seed:                         defaultSeed,
		Observer:                     nil,
	}
}

// withDefaults fills in zero-valued fields of cfg with DefaultConfig's
// values, so callers may build a Config literal specifying only the
// fields they care about.
func (cfg Config) withDefaults() Config {
	d := DefaultConfig()
	if cfg.InsertionThreshold <= 0 {
		cfg.InsertionThreshold = d.InsertionThreshold
	}
	if cfg.SamplesortSmallsortThreshold <= 0 {
		cfg.SamplesortSmallsortThreshold = d.SamplesortSmallsortThreshold
	}
	if cfg.SampleSortMinSize <= 0 {
		cfg.SampleSortMinSize = d.SampleSortMinSize
	}
	if cfg.BlockSize <= 0 {
		cfg.BlockSize = d.BlockSize
	}
	if cfg.L2CacheHint <= 0 {
		cfg.L2CacheHint = d.L2CacheHint
	}
	if cfg.Threads <= 0 {
		cfg.Threads = d.Threads
	}
	if cfg.OversampleFactor <= 0 {
		cfg.OversampleFactor = d.OversampleFactor
	}
	if cfg.Seed == 0 {
		cfg.Seed = d.Seed
	}
	return cfg
}
