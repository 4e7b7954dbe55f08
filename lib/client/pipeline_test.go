package client

import (
	"errors"
	"reflect"
	"testing"

	"github.com/ValentinKolb/mkv/lib/codec"
)

func TestPipelineExecute(t *testing.T) {
	r := newTestRedis(t, codec.Raw)
	p := r.Pipeline()

	p.Queue(func(c IRedis) (any, error) { return c.Set("foo", "bar", nil) })
	p.Queue(func(c IRedis) (any, error) { return c.Get("foo") })
	if p.Len() != 2 {
		t.Errorf("Expected 2 queued operations, got %d", p.Len())
	}

	results, err := p.Execute()
	if err != nil {
		t.Fatal(err)
	}
	want := []any{true, []byte("bar")}
	if !reflect.DeepEqual(results, want) {
		t.Errorf("Expected %#v, got %#v", want, results)
	}

	// the pipeline is empty after execution
	results, err = p.Execute()
	if err != nil || results == nil || len(results) != 0 {
		t.Errorf("Expected empty results, got %#v, %v", results, err)
	}
}

func TestPipelineOperationsRunLazily(t *testing.T) {
	r := newTestRedis(t, codec.Raw)
	p := r.Pipeline()

	p.Send("SET", "k", "v")
	if n, _ := r.Exists("k"); n != 0 {
		t.Errorf("Queued operations must not run before Execute")
	}
	p.Discard()
	if _, err := p.Execute(); err != nil {
		t.Fatal(err)
	}
	if n, _ := r.Exists("k"); n != 0 {
		t.Errorf("Discarded operations must not run")
	}
}

func TestPipelineWatch(t *testing.T) {
	r := newTestRedis(t, codec.Raw)
	r.Set("watched", "v1", nil)

	p := r.Pipeline()
	if err := p.Watch("watched", "missing"); err != nil {
		t.Fatal(err)
	}
	ran := false
	p.Queue(func(c IRedis) (any, error) {
		ran = true
		return c.Set("other", "x", nil)
	})

	// modify the watched key from outside the pipeline
	r.Set("watched", "v2", nil)

	results, err := p.Execute()
	var watchErr *WatchError
	if !errors.As(err, &watchErr) || watchErr.Key != "watched" {
		t.Fatalf("Expected *WatchError for key watched, got %v", err)
	}
	if !errors.Is(err, ErrWatch) {
		t.Errorf("WatchError should wrap ErrWatch")
	}
	if results != nil || ran {
		t.Errorf("No operation must run after a watch conflict")
	}
	if n, _ := r.Exists("other"); n != 0 {
		t.Errorf("Key other must not exist")
	}

	// the watch is cleared, a new execution runs normally
	p.Send("SET", "other", "x")
	if _, err = p.Execute(); err != nil {
		t.Fatal(err)
	}
}

func TestPipelineWatchCreatedKey(t *testing.T) {
	r := newTestRedis(t, codec.Raw)

	p := r.Pipeline()
	p.Watch("k")
	r.Set("k", "new", nil)
	p.Send("GET", "k")
	if _, err := p.Execute(); !errors.Is(err, ErrWatch) {
		t.Errorf("Creating a watched key should be a conflict, got %v", err)
	}

	// unchanged keys do not conflict, even if written with the same value
	p.Watch("k")
	r.Set("k", "new", nil)
	p.Send("GET", "k")
	results, err := p.Execute()
	if err != nil || len(results) != 1 {
		t.Errorf("Expected 1 result, got %#v, %v", results, err)
	}
}

func TestPipelinePartialExecution(t *testing.T) {
	r := newTestRedis(t, codec.Raw)
	r.SAdd("set", "m")

	p := r.Pipeline()
	p.Send("SET", "a", 1)
	p.Send("INCR", "set") // fails with WRONGTYPE
	p.Send("SET", "b", 2)

	results, err := p.Execute()
	var execErr *ExecError
	if !errors.As(err, &execErr) || execErr.Index != 1 {
		t.Fatalf("Expected *ExecError at index 1, got %v", err)
	}
	requireReplyCode(t, err, "WRONGTYPE")
	if len(results) != 1 || results[0] != true {
		t.Errorf("Expected the result of the first operation, got %#v", results)
	}

	// no rollback of the first operation, the last one never ran
	if n, _ := r.Exists("a"); n != 1 {
		t.Errorf("Operations before the failure must be kept")
	}
	if n, _ := r.Exists("b"); n != 0 {
		t.Errorf("Operations after the failure must not run")
	}
}
