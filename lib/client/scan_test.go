package client

import (
	"errors"
	"testing"
)

// pages returns a ScanFunc serving fixed pages, keyed by cursor
func pages(t *testing.T, byCursor map[uint64]struct {
	next uint64
	page []any
}) (ScanFunc, *int) {
	calls := 0
	return func(cursor uint64) (uint64, []any, error) {
		calls++
		p, ok := byCursor[cursor]
		if !ok {
			t.Fatalf("Unexpected cursor %d", cursor)
		}
		return p.next, p.page, nil
	}, &calls
}

func TestScanIterSkipsEmptyPages(t *testing.T) {
	scan, calls := pages(t, map[uint64]struct {
		next uint64
		page []any
	}{
		0: {2, []any{}},
		2: {0, []any{"k"}},
	})

	it := NewScanIter(scan)
	if !it.Next() || it.Val() != "k" {
		t.Fatalf("Expected k, got %#v", it.Val())
	}
	if it.Next() {
		t.Errorf("Iterator should be exhausted, got %#v", it.Val())
	}
	if it.Next() {
		t.Errorf("Exhausted iterator must stay exhausted")
	}
	if *calls != 2 {
		t.Errorf("Expected 2 page fetches, got %d", *calls)
	}
	if it.Err() != nil {
		t.Errorf("Unexpected error %v", it.Err())
	}
}

func TestScanIterEmpty(t *testing.T) {
	scan, calls := pages(t, map[uint64]struct {
		next uint64
		page []any
	}{
		0: {0, nil},
	})

	it := NewScanIter(scan)
	if it.Next() {
		t.Errorf("Empty scan should yield nothing")
	}
	if *calls != 1 {
		t.Errorf("Expected 1 page fetch, got %d", *calls)
	}
}

func TestScanIterAll(t *testing.T) {
	scan, _ := pages(t, map[uint64]struct {
		next uint64
		page []any
	}{
		0: {5, []any{"a", "b"}},
		5: {7, []any{}},
		7: {0, []any{"c"}},
	})

	var got []any
	for v, err := range NewScanIter(scan).All() {
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, v)
	}
	if len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Errorf("Unexpected elements %#v", got)
	}

	// stop early
	scan, calls := pages(t, map[uint64]struct {
		next uint64
		page []any
	}{
		0: {5, []any{"a"}},
		5: {0, []any{"b"}},
	})
	for range NewScanIter(scan).All() {
		break
	}
	if *calls != 1 {
		t.Errorf("Breaking the loop should stop fetching pages, got %d fetches", *calls)
	}
}

func TestScanIterError(t *testing.T) {
	boom := errors.New("boom")
	it := NewScanIter(func(cursor uint64) (uint64, []any, error) {
		if cursor == 0 {
			return 3, []any{"a"}, nil
		}
		return 0, nil, boom
	})

	if !it.Next() || it.Val() != "a" {
		t.Fatalf("Expected a")
	}
	if it.Next() {
		t.Errorf("Next should fail")
	}
	if !errors.Is(it.Err(), boom) {
		t.Errorf("Expected boom, got %v", it.Err())
	}

	var last error
	for _, err := range NewScanIter(func(uint64) (uint64, []any, error) { return 0, nil, boom }).All() {
		last = err
	}
	if !errors.Is(last, boom) {
		t.Errorf("All should yield the error, got %v", last)
	}
}
