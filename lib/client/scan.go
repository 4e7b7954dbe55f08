package client

import (
	"iter"
)

// ScanFunc fetches the page at cursor and returns the cursor of the next page.
// A returned cursor of 0 marks the last page.
type ScanFunc func(cursor uint64) (next uint64, page []any, err error)

// ScanIter turns a cursor based scan into a sequence of single elements.
//
// Usage example:
//
//	it := r.IScan(&client.ScanOptions{Match: "user:*"})
//	for it.Next() {
//		fmt.Println(it.Val())
//	}
//	if err := it.Err(); err != nil {
//		// handle error
//	}
//
// A page may be empty while the cursor is not yet 0, the iterator keeps fetching
// pages until it finds an element or the scan is complete. Once exhausted, an
// iterator stays exhausted. A ScanIter must not be used concurrently.
type ScanIter struct {
	scan    ScanFunc
	cursor  uint64
	started bool // 0 is the initial cursor before the first page and the terminal cursor after it
	buf     []any
	val     any
	err     error
	done    bool
}

// NewScanIter creates an iterator over the pages returned by scan
func NewScanIter(scan ScanFunc) *ScanIter {
	return &ScanIter{scan: scan}
}

// terminal reports whether the last page has been fetched
func (it *ScanIter) terminal() bool {
	return it.started && it.cursor == 0
}

// Next advances to the next element. It returns false once the scan is complete or failed.
func (it *ScanIter) Next() bool {
	if it.done {
		return false
	}

	for len(it.buf) == 0 && !it.terminal() {
		next, page, err := it.scan(it.cursor)
		if err != nil {
			it.err = err
			it.finish()
			return false
		}
		it.started = true
		it.cursor, it.buf = next, page
	}

	if len(it.buf) == 0 {
		it.finish()
		return false
	}

	it.val, it.buf = it.buf[0], it.buf[1:]
	return true
}

func (it *ScanIter) finish() {
	it.done = true
	it.val = nil
	it.buf = nil
}

// Val returns the current element
func (it *ScanIter) Val() any {
	return it.val
}

// Err returns the error that stopped the iteration, if any
func (it *ScanIter) Err() error {
	return it.err
}

// All returns the remaining elements as a range-over-func sequence.
// An error is yielded as the last pair.
func (it *ScanIter) All() iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		for it.Next() {
			if !yield(it.val, nil) {
				return
			}
		}
		if it.err != nil {
			yield(nil, it.err)
		}
	}
}
