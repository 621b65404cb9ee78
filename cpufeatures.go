package pstrsort

import "github.com/klauspost/cpuid/v2"

// detectL2CacheHint returns the detected per-core L2 cache size, used
// to size the S5 splitter tree so that classification stays within
// cache. Falls back to 256 KiB when the CPU doesn't report one.
func detectL2CacheHint() int {
	if cpuid.CPU.Cache.L2 > 0 {
		return cpuid.CPU.Cache.L2
	}
	return 256 * 1024
}
