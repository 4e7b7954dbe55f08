/*
Package pool emulates a connection pool of in-process clients.

The pool behaves like a bounded connection pool to its callers but only ever holds a
single client, so MinSize and MaxSize always report 1 regardless of the options.
All clients of a pool share one engine.

Usage example:

	p, err := pool.Create(ctx, "redis://localhost", pool.DefaultOptions())
	if err != nil {
		// handle error
	}
	defer func() {
		p.Close()
		_ = p.WaitClosed(ctx)
	}()

	err = p.Use(ctx, func(conn client.IRedis) error {
		_, err := conn.Set("foo", "bar", nil)
		return err
	})

Acquire blocks while the client is in use. Blocked callers are served in the order they
arrived and can give up through their context. Closing the pool fails all pending and
future Acquire calls with ErrPoolClosed; a client that is in use at that time stays
usable until it is released.
*/
package pool
