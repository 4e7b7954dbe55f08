package client

import (
	"bytes"
	"time"

	"github.com/ValentinKolb/mkv/lib/db"
	gometrics "github.com/rcrowley/go-metrics"
)

// Op is an operation recorded by a Pipeline. It is invoked with the client the
// pipeline belongs to when the pipeline is executed.
type Op func(r IRedis) (any, error)

// snapshot is the state of a watched key at the time it was watched
type snapshot struct {
	dump   []byte
	exists bool
}

// Pipeline records operations and executes them in order.
//
// Keys registered with Watch are checked before the first operation runs: if any of
// them changed, Execute fails with a *WatchError and no operation is executed.
// The operations are not executed atomically. If one of them fails the remaining
// operations are skipped, but the effects of the operations already executed are kept.
//
// Watched keys and recorded operations are cleared by every Execute, whatever its outcome.
// A Pipeline must not be used concurrently.
type Pipeline struct {
	client  IRedis
	engine  db.KVDB
	ops     []Op
	watched map[string]snapshot
}

// NewPipeline creates a pipeline for client. Watched keys are read from engine,
// which must be the engine client operates on.
func NewPipeline(client IRedis, engine db.KVDB) *Pipeline {
	return &Pipeline{
		client:  client,
		engine:  engine,
		watched: make(map[string]snapshot),
	}
}

// Pipeline returns a new pipeline bound to the client
func (r *Redis) Pipeline() *Pipeline {
	return NewPipeline(r, r.db)
}

// Queue records an operation
func (p *Pipeline) Queue(op Op) {
	p.ops = append(p.ops, op)
}

// Send records a command given by its name (see Do)
func (p *Pipeline) Send(name string, args ...any) {
	p.Queue(func(r IRedis) (any, error) {
		return r.Do(name, args...)
	})
}

// Watch records the current state of keys. Watching a key twice keeps the first state.
func (p *Pipeline) Watch(keys ...string) error {
	if !p.engine.SupportsFeature(db.FeatureDump) {
		return unsupported("watch")
	}
	for _, key := range keys {
		if _, ok := p.watched[key]; ok {
			continue
		}
		dump, exists := p.engine.Dump(key)
		p.watched[key] = snapshot{dump: dump, exists: exists}
	}
	return nil
}

// Len returns the number of recorded operations
func (p *Pipeline) Len() int {
	return len(p.ops)
}

// Discard drops all recorded operations and watched keys
func (p *Pipeline) Discard() {
	p.ops = nil
	p.watched = make(map[string]snapshot)
}

// Execute checks the watched keys and runs all recorded operations in the order they
// were queued. The results are returned in the same order. If an operation fails, the
// results of the operations before it are returned together with an *ExecError.
func (p *Pipeline) Execute() ([]any, error) {
	defer p.Discard()
	defer gometrics.GetOrRegisterTimer("client.pipeline.execute", nil).UpdateSince(time.Now())

	for key, before := range p.watched {
		dump, exists := p.engine.Dump(key)
		if exists != before.exists || !bytes.Equal(dump, before.dump) {
			gometrics.GetOrRegisterMeter("client.pipeline.watch_conflicts", nil).Mark(1)
			Logger.Debugf("watched key %q changed, discarding %d operations", key, len(p.ops))
			return nil, &WatchError{Key: key}
		}
	}

	results := make([]any, 0, len(p.ops))
	for i, op := range p.ops {
		res, err := op(p.client)
		if err != nil {
			return results, &ExecError{Index: i, Err: err}
		}
		results = append(results, res)
	}
	return results, nil
}
