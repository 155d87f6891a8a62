package folio

import (
	"strconv"
	"strings"
)

// scanRuns walks pages once and reports, for every position, whether it
// starts a new run of equal adjacent values.
//
// CompactDuplicates and RunIndices are both built on this pass so their
// notion of a run boundary cannot drift apart.
func scanRuns(pages []int, visit func(pos int, newRun bool)) {
	for i := range pages {
		visit(i, i == 0 || pages[i] != pages[i-1])
	}
}

// CompactDuplicates collapses every run of equal adjacent page numbers to a
// single entry, preserving order.
//
//	CompactDuplicates([]int{0, 4, 4, 6, 6, 6, 3}) // [0 4 6 3]
//
// Equal values are expected to be adjacent already; no sorting is done.
// Empty input yields an empty, non-nil slice.
func CompactDuplicates(pages []int) []int {
	out := make([]int, 0, len(pages))
	scanRuns(pages, func(pos int, newRun bool) {
		if newRun {
			out = append(out, pages[pos])
		}
	})
	return out
}

// RunIndices returns, for each position in pages, the 0-based index of the
// run it belongs to.
//
//	RunIndices([]int{0, 4, 4, 6, 6, 6, 3}) // [0 1 1 2 2 2 3]
//
// The result is non-decreasing and its last value is
// len(CompactDuplicates(pages))-1. Empty input yields an empty, non-nil slice.
func RunIndices(pages []int) []int {
	out := make([]int, len(pages))
	run := -1
	scanRuns(pages, func(pos int, newRun bool) {
		if newRun {
			run++
		}
		out[pos] = run
	})
	return out
}

// PageIndex maps a requested page ordering onto compacted indices.
//
// A PageIndex is immutable after construction.
type PageIndex struct {
	pages []int // deduplicated page numbers
	runs  []int // compacted index per requested position
}

// NewPageIndex builds the compacted mapping for a requested page ordering.
// The input is copied.
func NewPageIndex(requested []int) PageIndex {
	return PageIndex{
		pages: CompactDuplicates(requested),
		runs:  RunIndices(requested),
	}
}

// identityPageIndex returns the mapping for a document shown in its native
// order.
func identityPageIndex(count int) PageIndex {
	pages := make([]int, count)
	for i := range pages {
		pages[i] = i
	}
	return PageIndex{pages: pages, runs: append([]int(nil), pages...)}
}

// Len returns the number of distinct (compacted) pages.
func (p PageIndex) Len() int {
	return len(p.pages)
}

// Positions returns the number of requested positions.
func (p PageIndex) Positions() int {
	return len(p.runs)
}

// Compacted returns the compacted index for a requested position.
func (p PageIndex) Compacted(position int) (int, bool) {
	if position < 0 || position >= len(p.runs) {
		return -1, false
	}
	return p.runs[position], true
}

// Page returns the native page number stored at a compacted index.
func (p PageIndex) Page(index int) (int, bool) {
	if index < 0 || index >= len(p.pages) {
		return -1, false
	}
	return p.pages[index], true
}

// Pages returns a copy of the deduplicated page numbers.
func (p PageIndex) Pages() []int {
	return append([]int(nil), p.pages...)
}

// FormatPages renders pages as "[1, 2, 3]", or "[]" when empty.
func FormatPages(pages []int) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, p := range pages {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.Itoa(p))
	}
	b.WriteByte(']')
	return b.String()
}
