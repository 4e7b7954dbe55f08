package pool

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/mkv/lib/client"
	"github.com/ValentinKolb/mkv/lib/db"
	"github.com/ValentinKolb/mkv/lib/db/engines/maple"
	"github.com/VictoriaMetrics/metrics"
	"github.com/edwingeng/deque/v2"
	"github.com/lni/dragonboat/v4/logger"
	gometrics "github.com/rcrowley/go-metrics"
)

var Logger = logger.GetLogger("pool")

var (
	// ErrPoolClosed is returned by Acquire once Close has been called
	ErrPoolClosed = errors.New("pool is closed")
	// ErrInvalidConnection is returned by Release for clients that are not in use by this pool
	ErrInvalidConnection = errors.New("invalid connection, maybe from other pool")
)

// poolIDs numbers the pools of a process, it keeps metric names unique
var poolIDs atomic.Uint64

// waiter is a blocked Acquire call. It receives the released client, or nil if it
// should retry creating one. A waiter whose Acquire returned early is abandoned
// and skipped.
type waiter struct {
	conn      chan client.IRedis
	abandoned bool
}

// Pool emulates a bounded connection pool that holds exactly one client.
//
// Acquire hands the client out, Release returns it. While the client is in use,
// Acquire blocks and callers are served in the order they arrived. All clients
// created by the pool operate on the same engine.
type Pool struct {
	address string
	opts    Options
	engine  db.KVDB
	owned   bool // the engine was created by the pool

	mu        sync.Mutex
	free      *deque.Deque[client.IRedis]
	used      map[client.IRedis]struct{}
	acquiring int
	waiters   *deque.Deque[*waiter]

	closeOnce sync.Once
	closing   chan struct{} // closed by Close
	closed    chan struct{} // closed once the closer has drained the free clients

	metrics     *metrics.Set
	acquireWait gometrics.Timer
}

// Create creates a pool and fills it with its client. If the client cannot be
// created the pool is closed and the error is returned.
func Create(ctx context.Context, address string, opts Options) (*Pool, error) {
	p := &Pool{
		address:     address,
		opts:        opts,
		engine:      opts.Engine,
		free:        deque.NewDeque[client.IRedis](),
		used:        make(map[client.IRedis]struct{}),
		waiters:     deque.NewDeque[*waiter](),
		closing:     make(chan struct{}),
		closed:      make(chan struct{}),
		metrics:     metrics.NewSet(),
		acquireWait: gometrics.GetOrRegisterTimer("pool.acquire.wait", nil),
	}
	if p.engine == nil {
		p.engine = maple.NewMapleDB(nil)
		p.owned = true
	}

	id := poolIDs.Add(1)
	p.metrics.NewGauge(fmt.Sprintf(`mkv_pool_size{pool="%d"}`, id), func() float64 {
		return float64(p.Size())
	})
	p.metrics.NewGauge(fmt.Sprintf(`mkv_pool_free{pool="%d"}`, id), func() float64 {
		return float64(p.FreeSize())
	})

	go p.doClose()

	p.mu.Lock()
	err := p.fillFree(ctx, false)
	p.mu.Unlock()
	if err != nil {
		Logger.Errorf("failed to fill pool for %s: %v", address, err)
		p.Close()
		_ = p.WaitClosed(context.Background())
		return nil, err
	}

	Logger.Debugf("created pool for %s%s", address, opts)
	return p, nil
}

// --------------------------------------------------------------------------
// Sizes
// --------------------------------------------------------------------------

// MinSize always returns 1
func (p *Pool) MinSize() int { return 1 }

// MaxSize always returns 1
func (p *Pool) MaxSize() int { return 1 }

// Size returns the number of free, used and currently created clients
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.size()
}

// FreeSize returns the number of clients that can be acquired without waiting
func (p *Pool) FreeSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.free.Len()
}

func (p *Pool) size() int {
	return p.free.Len() + len(p.used) + p.acquiring
}

// WritePrometheus writes the size gauges of the pool in the prometheus text format
func (p *Pool) WritePrometheus(w io.Writer) {
	p.metrics.WritePrometheus(w)
}

// --------------------------------------------------------------------------
// Acquire / Release
// --------------------------------------------------------------------------

// Acquire returns the client of the pool, waiting until it is released if it is in use.
// Waiting callers are served in the order they called Acquire. It fails with
// ErrPoolClosed if the pool is closed and with the context error if ctx is done first.
func (p *Pool) Acquire(ctx context.Context) (client.IRedis, error) {
	defer p.acquireWait.UpdateSince(time.Now())

	p.mu.Lock()
	for {
		if p.Closed() {
			p.mu.Unlock()
			return nil, ErrPoolClosed
		}
		if err := p.fillFree(ctx, true); err != nil {
			p.mu.Unlock()
			return nil, err
		}
		if p.free.Len() > 0 {
			conn := p.free.PopFront()
			p.used[conn] = struct{}{}
			p.mu.Unlock()
			return conn, nil
		}

		w := &waiter{conn: make(chan client.IRedis, 1)}
		p.waiters.PushBack(w)
		p.mu.Unlock()

		select {
		case conn := <-w.conn:
			if conn != nil {
				return conn, nil
			}
		case <-p.closing:
			p.abandon(w)
			return nil, ErrPoolClosed
		case <-ctx.Done():
			p.abandon(w)
			return nil, ctx.Err()
		}

		p.mu.Lock()
	}
}

// abandon marks w as abandoned. A client handed to w in the meantime is passed on.
func (p *Pool) abandon(w *waiter) {
	p.mu.Lock()
	defer p.mu.Unlock()
	w.abandoned = true
	select {
	case conn := <-w.conn:
		if conn != nil {
			p.put(conn)
		} else if next := p.nextWaiter(); next != nil {
			next.conn <- nil
		}
	default:
	}
}

// nextWaiter removes and returns the longest waiting Acquire call, nil if there is none.
// Must be called with p.mu held.
func (p *Pool) nextWaiter() *waiter {
	for p.waiters.Len() > 0 {
		w := p.waiters.PopFront()
		if !w.abandoned {
			return w
		}
	}
	return nil
}

// put returns a client that is in use. It is handed to the next waiter, or put back
// into the free queue if nobody waits. Must be called with p.mu held.
func (p *Pool) put(conn client.IRedis) {
	if p.Closed() {
		delete(p.used, conn)
		if err := conn.Close(); err != nil {
			Logger.Warningf("failed to close released client: %v", err)
		}
		return
	}
	if w := p.nextWaiter(); w != nil {
		w.conn <- conn
		return
	}
	delete(p.used, conn)
	p.free.PushBack(conn)
}

// Release returns a client to the pool. It fails with ErrInvalidConnection if conn
// is not in use by this pool. A client released after the pool was closed is closed.
func (p *Pool) Release(conn client.IRedis) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.used[conn]; !ok {
		return ErrInvalidConnection
	}
	p.put(conn)
	return nil
}

// Use acquires a client, calls fn with it and releases it afterwards, even if fn panics
func (p *Pool) Use(ctx context.Context, fn func(conn client.IRedis) error) (err error) {
	conn, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := p.Release(conn); err == nil {
			err = releaseErr
		}
	}()
	return fn(conn)
}

// fillFree creates the client if the pool is empty. With override set a client is also
// created if the pool holds fewer than MaxSize clients and none of them is free.
// Must be called with p.mu held, the lock is released while the client is created.
func (p *Pool) fillFree(ctx context.Context, override bool) error {
	for p.size() < p.MinSize() {
		if err := p.create(ctx); err != nil {
			return err
		}
	}
	if p.free.Len() > 0 || !override {
		return nil
	}
	for p.free.Len() == 0 && p.size() < p.MaxSize() {
		if err := p.create(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pool) create(ctx context.Context) error {
	p.acquiring++
	p.mu.Unlock()

	conn, err := client.Create(ctx, p.address, client.CreateOptions{
		DB:              p.opts.DB,
		Password:        p.opts.Password,
		SSL:             p.opts.SSL,
		Encoding:        p.opts.Encoding,
		Engine:          p.engine,
		CommandsFactory: p.opts.CommandsFactory,
	})

	p.mu.Lock()
	p.acquiring--
	if err != nil {
		// let a waiting caller retry the creation
		if w := p.nextWaiter(); w != nil {
			w.conn <- nil
		}
		return fmt.Errorf("create client: %w", err)
	}
	p.free.PushBack(conn)
	Logger.Debugf("created client for %s", p.address)
	return nil
}

// --------------------------------------------------------------------------
// Closing
// --------------------------------------------------------------------------

// Close starts closing the pool. It does not wait, see WaitClosed.
// Clients that are in use are not reclaimed, they are closed when they are released.
// Calling Close more than once has no effect.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		Logger.Debugf("closing pool for %s", p.address)
		close(p.closing)
	})
}

// Closed reports whether Close has been called
func (p *Pool) Closed() bool {
	select {
	case <-p.closing:
		return true
	default:
		return false
	}
}

// WaitClosed blocks until the pool has been closed and drained, or ctx is done
func (p *Pool) WaitClosed(ctx context.Context) error {
	select {
	case <-p.closed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// doClose waits for Close and drains the free clients
// WARNING: this method runs in its own goroutine for the lifetime of the pool
func (p *Pool) doClose() {
	defer close(p.closed)
	<-p.closing

	p.mu.Lock()
	for p.free.Len() > 0 {
		conn := p.free.PopFront()
		if err := conn.Close(); err != nil {
			Logger.Warningf("failed to close client: %v", err)
		}
	}
	p.mu.Unlock()

	if p.owned {
		if err := p.engine.Close(); err != nil {
			Logger.Warningf("failed to close engine: %v", err)
		}
	}
	Logger.Debugf("pool for %s closed", p.address)
}
