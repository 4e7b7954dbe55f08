package pool

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/mkv/lib/client"
	"github.com/ValentinKolb/mkv/lib/codec"
	"github.com/ValentinKolb/mkv/lib/db/engines/maple"
)

func newTestPool(t *testing.T, opts Options) *Pool {
	t.Helper()
	p, err := Create(context.Background(), "redis://localhost", opts)
	if err != nil {
		t.Fatalf("Failed to create pool: %v", err)
	}
	t.Cleanup(func() {
		p.Close()
		_ = p.WaitClosed(context.Background())
	})
	return p
}

// acquireAsync runs Acquire in a goroutine and delivers its result on the returned channel
func acquireAsync(ctx context.Context, p *Pool) <-chan error {
	done := make(chan error, 1)
	go func() {
		conn, err := p.Acquire(ctx)
		if err == nil {
			err = p.Release(conn)
		}
		done <- err
	}()
	return done
}

func TestAcquireRelease(t *testing.T) {
	p := newTestPool(t, DefaultOptions())

	if p.Size() != 1 || p.FreeSize() != 1 {
		t.Fatalf("Expected size 1 and freesize 1 after creation, got %d and %d", p.Size(), p.FreeSize())
	}

	conn, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if p.Size() != 1 || p.FreeSize() != 0 {
		t.Errorf("Expected size 1 and freesize 0 while in use, got %d and %d", p.Size(), p.FreeSize())
	}

	if err = p.Release(conn); err != nil {
		t.Fatal(err)
	}
	if p.Size() != 1 || p.FreeSize() != 1 {
		t.Errorf("Expected size 1 and freesize 1 after release, got %d and %d", p.Size(), p.FreeSize())
	}

	if err = p.Release(conn); !errors.Is(err, ErrInvalidConnection) {
		t.Errorf("Expected ErrInvalidConnection on double release, got %v", err)
	}
	if err = p.Release(client.NewRedis(client.Options{})); !errors.Is(err, ErrInvalidConnection) {
		t.Errorf("Expected ErrInvalidConnection for foreign client, got %v", err)
	}
}

func TestSizesAreAlwaysOne(t *testing.T) {
	opts := DefaultOptions()
	opts.MinSize = 5
	opts.MaxSize = 10
	p := newTestPool(t, opts)

	if p.MinSize() != 1 || p.MaxSize() != 1 {
		t.Errorf("Expected minsize and maxsize 1, got %d and %d", p.MinSize(), p.MaxSize())
	}
	if p.Size() != 1 {
		t.Errorf("Pool must never hold more than one client, got %d", p.Size())
	}
}

func TestAcquireReturnsSameClient(t *testing.T) {
	p := newTestPool(t, DefaultOptions())

	var first client.IRedis
	err := p.Use(context.Background(), func(conn client.IRedis) error {
		first = conn
		_, err := conn.Set("k", "v", nil)
		return err
	})
	if err != nil {
		t.Fatal(err)
	}

	err = p.Use(context.Background(), func(conn client.IRedis) error {
		if conn != first {
			t.Errorf("Expected the same client")
		}
		v, err := conn.Get("k")
		if v != "v" {
			t.Errorf("Expected v, got %#v", v)
		}
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestUseReleasesOnError(t *testing.T) {
	p := newTestPool(t, DefaultOptions())

	boom := errors.New("boom")
	if err := p.Use(context.Background(), func(client.IRedis) error { return boom }); !errors.Is(err, boom) {
		t.Errorf("Expected boom, got %v", err)
	}
	if p.FreeSize() != 1 {
		t.Errorf("Client should be released after an error")
	}

	func() {
		defer func() { _ = recover() }()
		_ = p.Use(context.Background(), func(client.IRedis) error { panic("boom") })
	}()
	if p.FreeSize() != 1 {
		t.Errorf("Client should be released after a panic")
	}
}

func TestWaitersAreServedInOrder(t *testing.T) {
	p := newTestPool(t, DefaultOptions())

	conn, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	const n = 5
	var (
		mu    sync.Mutex
		order []int
		wg    sync.WaitGroup
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := p.Acquire(context.Background())
			if err != nil {
				t.Errorf("Acquire failed: %v", err)
				return
			}
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			_ = p.Release(c)
		}(i)

		// wait until the goroutine is queued before starting the next one
		waitFor(t, func() bool {
			p.mu.Lock()
			defer p.mu.Unlock()
			return p.waiters.Len() == i+1
		})
	}

	if err = p.Release(conn); err != nil {
		t.Fatal(err)
	}
	wg.Wait()

	for i, got := range order {
		if got != i {
			t.Fatalf("Expected waiters to be served in order, got %v", order)
		}
	}
	if p.FreeSize() != 1 || p.Size() != 1 {
		t.Errorf("Expected the client to be free, got size %d freesize %d", p.Size(), p.FreeSize())
	}
}

func TestAcquireCancel(t *testing.T) {
	p := newTestPool(t, DefaultOptions())

	conn, _ := p.Acquire(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancelled := acquireAsync(ctx, p)
	waitFor(t, func() bool {
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.waiters.Len() == 1
	})
	second := acquireAsync(context.Background(), p)
	waitFor(t, func() bool {
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.waiters.Len() == 2
	})

	cancel()
	if err := <-cancelled; !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}

	// the release skips the cancelled waiter
	_ = p.Release(conn)
	select {
	case err := <-second:
		if err != nil {
			t.Errorf("Second waiter failed: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("Second waiter was not served")
	}

	ctx, cancel = context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	conn, _ = p.Acquire(context.Background())
	if _, err := p.Acquire(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected context.DeadlineExceeded, got %v", err)
	}
	_ = p.Release(conn)
}

func TestClose(t *testing.T) {
	p, err := Create(context.Background(), "redis://localhost", DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	conn, _ := p.Acquire(context.Background())
	waiting := acquireAsync(context.Background(), p)
	waitFor(t, func() bool {
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.waiters.Len() == 1
	})

	if p.Closed() {
		t.Errorf("Pool should not be closed yet")
	}
	p.Close()
	p.Close()
	if !p.Closed() {
		t.Errorf("Pool should be closed")
	}

	if err = <-waiting; !errors.Is(err, ErrPoolClosed) {
		t.Errorf("Waiting Acquire should fail with ErrPoolClosed, got %v", err)
	}
	if _, err = p.Acquire(context.Background()); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("Expected ErrPoolClosed, got %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err = p.WaitClosed(ctx); err != nil {
		t.Fatal(err)
	}

	// the client in use is still usable and can be released
	if _, err = conn.Set("k", "v", nil); err != nil {
		t.Errorf("Client in use must not be reclaimed: %v", err)
	}
	if err = p.Release(conn); err != nil {
		t.Errorf("Release after close failed: %v", err)
	}
	if p.Size() != 0 || p.FreeSize() != 0 {
		t.Errorf("Closed pool should be empty, got size %d freesize %d", p.Size(), p.FreeSize())
	}
}

func TestWaitClosedContext(t *testing.T) {
	p := newTestPool(t, DefaultOptions())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := p.WaitClosed(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("WaitClosed on an open pool should time out, got %v", err)
	}
}

func TestCreateFailure(t *testing.T) {
	boom := errors.New("boom")
	opts := DefaultOptions()
	opts.CommandsFactory = func(client.Options) (client.IRedis, error) {
		return nil, boom
	}

	p, err := Create(context.Background(), "redis://localhost", opts)
	if !errors.Is(err, boom) {
		t.Errorf("Expected boom, got %v", err)
	}
	if p != nil {
		t.Errorf("No pool should be returned on failure")
	}
}

func TestCustomFactory(t *testing.T) {
	calls := 0
	opts := DefaultOptions()
	opts.CommandsFactory = func(o client.Options) (client.IRedis, error) {
		calls++
		return client.NewRedis(o), nil
	}
	p := newTestPool(t, opts)

	for i := 0; i < 3; i++ {
		_ = p.Use(context.Background(), func(client.IRedis) error { return nil })
	}
	if calls != 1 {
		t.Errorf("Expected exactly one client to be created, got %d", calls)
	}
}

func TestSharedEngine(t *testing.T) {
	engine := maple.NewMapleDB(nil)
	defer engine.Close()

	opts := DefaultOptions()
	opts.Engine = engine
	opts.Encoding = codec.Raw
	p := newTestPool(t, opts)

	_ = p.Use(context.Background(), func(conn client.IRedis) error {
		_, err := conn.Set("k", "v", nil)
		return err
	})
	if v, ok, _ := engine.Get("k"); !ok || string(v) != "v" {
		t.Errorf("Pool should write to the given engine")
	}
}

func TestOptionsString(t *testing.T) {
	opts := DefaultOptions()
	opts.Password = "secret"

	s := opts.String()
	if strings.Contains(s, "secret") {
		t.Errorf("Password must not be printed")
	}
	for _, want := range []string{"Connection:", "Pool:", "utf-8", "Effective Size"} {
		if !strings.Contains(s, want) {
			t.Errorf("Expected %q in %s", want, s)
		}
	}
}

func TestWritePrometheus(t *testing.T) {
	p := newTestPool(t, DefaultOptions())

	var buf bytes.Buffer
	p.WritePrometheus(&buf)
	if !strings.Contains(buf.String(), "mkv_pool_size") || !strings.Contains(buf.String(), "mkv_pool_free") {
		t.Errorf("Unexpected metrics output %q", buf.String())
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("Condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}
