package pstrsort

import "fmt"

// ErrEmptyKeyWindow is returned by Sort when a precondition on its
// arguments is violated (nil StringSet, negative start depth). This
// check happens up front, before any goroutines are spawned.
var ErrEmptyKeyWindow = fmt.Errorf("pstrsort: empty key window")

// SortPanic is the error JobQueue.Loop (and so Sort) returns when a
// job panics mid-sort, e.g. on an allocation failure building a block,
// cache, or bucket-count array. The job queue recovers the panic,
// keeps the first one it sees, stops dispatching further jobs, and
// wraps the recovered value in Cause instead of letting the process
// abort outright. The job queue fills in only Cause; Depth and
// Subrange are left zero.
type SortPanic struct {
	Depth    int
	Subrange [2]int // [start, end), in the top-level StringSet's index space
	Cause    any
}

func (p *SortPanic) Error() string {
	return fmt.Sprintf("pstrsort: fatal error at depth %d, range [%d,%d): %v",
		p.Depth, p.Subrange[0], p.Subrange[1], p.Cause)
}

func (p *SortPanic) Unwrap() error {
	if err, ok := p.Cause.(error); ok {
		return err
	}
	return nil
}
