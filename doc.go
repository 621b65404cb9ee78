/*
Package pstrsort implements a parallel string-sorting engine for very
large collections of byte-string references.

Overview

Strings are never copied: callers hand the engine a mutable slice of
opaque StringRef handles into an immutable byte heap (their own, or the
StringHeap helper type in this package), plus a StringSet view over
that slice. Sort permutes the handles in place until the underlying
byte sequences are in non-decreasing lexicographic order.

Two algorithms share the engine's job queue and thread pool:

 1. Parallel multikey quicksort (PMKQ): a work-sharing ternary
    partition quicksort operating on 8-byte "superalphabet" keys
    cached from the string bytes at the current depth.
 2. Super-scalar sample sort (S5): a cache-sized splitter-tree
    classifier that buckets strings in one pass and recurses.

Sort picks between them (or a plain insertion/radix sort for small
inputs) based on Config, defaulting to a size-based heuristic.

Limitations

Sorting is not stable: the relative order of equal strings is not
preserved. Sorting is in-memory only; there is no external
(disk-backed) mode. Ordering is strictly bytewise; there is no
Unicode-aware collation.

Design

The job queue distributes recursive subproblems, biased toward larger
subproblems first, across a fixed pool of worker goroutines (one per
Config.Threads). A running sequential job donates part of its pending
work back to the queue when it observes idle workers, rather than
workers stealing from each other directly; this keeps the hot
partition loop free of synchronization until a hand-off is actually
useful.
*/
package pstrsort
